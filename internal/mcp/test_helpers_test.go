package mcp

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"signal-deck/internal/demo"
	"signal-deck/internal/domain"
	"signal-deck/internal/query"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type stubFeed struct {
	mu       sync.Mutex
	state    query.State
	refetch  query.State
	err      error
	refetchN int
}

func (f *stubFeed) State() query.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *stubFeed) Refetch(ctx context.Context) (query.State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refetchN++
	if f.err == nil {
		f.state = f.refetch
	}
	return f.refetch, f.err
}

func (f *stubFeed) refetches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refetchN
}

func sampleAdvices() []domain.ViewAdvice {
	return []domain.ViewAdvice{
		{Symbol: "BTC", Name: "Bitcoin", Price: 67245.32, Change24h: 2.5, Action: domain.ActionBuy, Strength: domain.StrengthHigh, Sentiment: 85, PredictedAt: 300},
		{Symbol: "ETH", Name: "Ethereum", Price: 3456.78, Change24h: -1.2, Action: domain.ActionSell, Strength: domain.StrengthLow, Sentiment: 25, PredictedAt: 200},
	}
}

func successState(data []domain.ViewAdvice) query.State {
	return query.State{Status: query.StatusSuccess, Data: data, UpdatedAt: fixedNow}
}

func testServer() (*sdkmcp.Server, *stubFeed) {
	feed := &stubFeed{
		state:   successState(sampleAdvices()),
		refetch: successState(sampleAdvices()[:1]),
	}
	gen := demo.NewGenerator(rand.New(rand.NewSource(7)), func() time.Time { return fixedNow })
	srv := NewServer(nil, feed, gen, nil, ServerConfig{
		RequestTimeout: time.Second,
		Now:            func() time.Time { return fixedNow },
	})
	return srv, feed
}

func connectInMemory(ctx context.Context, srv *sdkmcp.Server) (*sdkmcp.ClientSession, context.CancelFunc, error) {
	clientTransport, serverTransport := sdkmcp.NewInMemoryTransports()
	runCtx, cancel := context.WithCancel(ctx)
	go func() { _ = srv.Run(runCtx, serverTransport) }()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "mcp-test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	return session, cancel, nil
}

type authRoundTripper struct {
	token string
	base  http.RoundTripper
}

func (t *authRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	if t.token != "" {
		clone.Header.Set("Authorization", "Bearer "+t.token)
	}
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(clone)
}

func decodeResourceJSON(result *sdkmcp.ReadResourceResult, out any) error {
	if len(result.Contents) == 0 {
		return nil
	}
	return json.Unmarshal([]byte(result.Contents[0].Text), out)
}

func decodeStructured(result *sdkmcp.CallToolResult, out any) error {
	body, err := json.Marshal(result.StructuredContent)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}
