package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"signal-deck/internal/anomaly"
	"signal-deck/internal/chart"
	"signal-deck/internal/demo"
	"signal-deck/internal/domain"
	"signal-deck/internal/query"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace/noop"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type stubFeed struct {
	state      query.State
	refetched  query.State
	refetchErr error
	calls      int
}

func (s *stubFeed) State() query.State { return s.state }

func (s *stubFeed) Refetch(context.Context) (query.State, error) {
	s.calls++
	return s.refetched, s.refetchErr
}

func sampleAdvices() []domain.ViewAdvice {
	return []domain.ViewAdvice{
		{Symbol: "BTC", Name: "Bitcoin", Price: 100, Change24h: 2, Action: domain.ActionBuy, Strength: domain.StrengthHigh, Sentiment: 85},
		{Symbol: "ETH", Name: "Ethereum", Price: 50, Change24h: -4, Action: domain.ActionSell, Strength: domain.StrengthLow, Sentiment: 25},
	}
}

func newTestHandler(feed AdviceFeed) *Handler {
	gen := demo.NewGenerator(rand.New(rand.NewSource(7)), func() time.Time { return fixedNow })
	h := New(noop.NewTracerProvider().Tracer("handler-test"), feed, nil, gen, chart.NewRenderer(), anomaly.NewWhaleScorer(anomaly.DefaultThreshold, anomaly.DefaultTrainOptions()), nil)
	h.now = func() time.Time { return fixedNow }
	return h
}

func serve(t *testing.T, h *Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	router := gin.New()
	h.RegisterRoutes(router)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v (%s)", err, w.Body.String())
	}
	return body
}

func TestHealth(t *testing.T) {
	w := serve(t, newTestHandler(&stubFeed{}), http.MethodGet, "/health")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestListAdvicesSuccess(t *testing.T) {
	feed := &stubFeed{state: query.State{Status: query.StatusSuccess, Data: sampleAdvices(), UpdatedAt: fixedNow}}
	w := serve(t, newTestHandler(feed), http.MethodGet, "/api/advices")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	body := decode(t, w)
	advices, ok := body["advices"].([]any)
	if !ok || len(advices) != 2 {
		t.Fatalf("expected 2 advices, got %v", body["advices"])
	}
	first := advices[0].(map[string]any)
	if first["symbol"] != "BTC" || first["recommendation"] != "buy" {
		t.Fatalf("unexpected first advice: %v", first)
	}
	if _, hasErr := body["error"]; hasErr {
		t.Fatalf("unexpected error field: %v", body["error"])
	}
}

func TestListAdvicesKeepsStaleDataOnError(t *testing.T) {
	feed := &stubFeed{state: query.State{
		Status: query.StatusError,
		Data:   sampleAdvices(),
		Err:    &domain.HTTPError{Status: 503},
	}}
	w := serve(t, newTestHandler(feed), http.MethodGet, "/api/advices")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := decode(t, w)
	if body["error"] != "HTTP 503" {
		t.Fatalf("expected error message, got %v", body["error"])
	}
	if len(body["advices"].([]any)) != 2 {
		t.Fatalf("expected stale data to be kept")
	}
}

func TestListAdvicesErrorWithoutData(t *testing.T) {
	feed := &stubFeed{state: query.State{
		Status: query.StatusError,
		Err:    &domain.ConnectivityError{BaseURL: "http://127.0.0.1:8000"},
	}}
	w := serve(t, newTestHandler(feed), http.MethodGet, "/api/advices")
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
}

func TestListAdvicesUnavailable(t *testing.T) {
	h := newTestHandler(nil)
	w := serve(t, h, http.MethodGet, "/api/advices")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestGetAdvice(t *testing.T) {
	feed := &stubFeed{state: query.State{Status: query.StatusSuccess, Data: sampleAdvices()}}
	h := newTestHandler(feed)

	w := serve(t, h, http.MethodGet, "/api/advices/eth")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := decode(t, w)
	advice := body["advice"].(map[string]any)
	if advice["symbol"] != "ETH" {
		t.Fatalf("expected ETH, got %v", advice["symbol"])
	}
	if _, ok := body["details"].(map[string]any); !ok {
		t.Fatalf("expected details block")
	}

	w = serve(t, h, http.MethodGet, "/api/advices/DOGE")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestRefetchAdvices(t *testing.T) {
	feed := &stubFeed{refetched: query.State{Status: query.StatusSuccess, Data: sampleAdvices()}}
	w := serve(t, newTestHandler(feed), http.MethodPost, "/api/advices/refetch")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if feed.calls != 1 {
		t.Fatalf("expected one refetch, got %d", feed.calls)
	}
}

func TestRefetchAdvicesErrorStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"backend", &domain.BackendError{Status: 500, Message: "db down"}, http.StatusBadGateway},
		{"http", &domain.HTTPError{Status: 404}, http.StatusBadGateway},
		{"empty", &domain.EmptyResultError{}, http.StatusNotFound},
		{"unknown", &domain.UnknownFetchError{Err: context.Canceled}, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			feed := &stubFeed{refetched: query.State{Status: query.StatusError, Err: tc.err}, refetchErr: tc.err}
			w := serve(t, newTestHandler(feed), http.MethodPost, "/api/advices/refetch")
			if w.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, w.Code)
			}
			if decode(t, w)["error"] != tc.err.Error() {
				t.Fatalf("expected error %q in body", tc.err.Error())
			}
		})
	}
}

func TestGetDashboard(t *testing.T) {
	feed := &stubFeed{state: query.State{Status: query.StatusSuccess, Data: sampleAdvices()}}
	w := serve(t, newTestHandler(feed), http.MethodGet, "/api/dashboard")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	stats := decode(t, w)["stats"].(map[string]any)
	if stats["buy"].(float64) != 1 || stats["sell"].(float64) != 1 || stats["hold"].(float64) != 0 {
		t.Fatalf("unexpected stats: %v", stats)
	}
}

func TestListTokens(t *testing.T) {
	w := serve(t, newTestHandler(&stubFeed{}), http.MethodGet, "/api/tokens")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if tokens := decode(t, w)["tokens"].([]any); len(tokens) != 9 {
		t.Fatalf("expected 9 tokens, got %d", len(tokens))
	}
}

func TestGetSentiment(t *testing.T) {
	w := serve(t, newTestHandler(&stubFeed{}), http.MethodGet, "/api/sentiment/btc?days=2")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := decode(t, w)
	if body["symbol"] != "BTC" {
		t.Fatalf("expected BTC, got %v", body["symbol"])
	}
	if points := body["data"].([]any); len(points) != 49 {
		t.Fatalf("expected 49 points, got %d", len(points))
	}
}

func TestGetSentimentRejectsBadDays(t *testing.T) {
	h := newTestHandler(&stubFeed{})
	for _, q := range []string{"abc", "0", "91"} {
		w := serve(t, h, http.MethodGet, "/api/sentiment/BTC?days="+q)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("days=%s: expected 400, got %d", q, w.Code)
		}
	}
}

func TestGetSentimentChart(t *testing.T) {
	w := serve(t, newTestHandler(&stubFeed{}), http.MethodGet, "/api/sentiment/ETH/chart.png?days=1")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("expected image/png, got %s", ct)
	}
	if _, err := png.Decode(bytes.NewReader(w.Body.Bytes())); err != nil {
		t.Fatalf("invalid png: %v", err)
	}
}

func TestCompareSentiment(t *testing.T) {
	w := serve(t, newTestHandler(&stubFeed{}), http.MethodGet, "/api/sentiment/compare")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if coins := decode(t, w)["coins"].([]any); len(coins) != 5 {
		t.Fatalf("expected 5 coins, got %d", len(coins))
	}
}

func TestInfluencers(t *testing.T) {
	h := newTestHandler(&stubFeed{})

	w := serve(t, h, http.MethodGet, "/api/influencers")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	list := decode(t, w)["influencers"].([]any)
	if len(list) != 10 {
		t.Fatalf("expected 10 influencers, got %d", len(list))
	}
	id := list[0].(map[string]any)["id"].(string)

	w = serve(t, h, http.MethodGet, "/api/influencers/"+id+"/stance?days=5")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if history := decode(t, w)["history"].([]any); len(history) != 6 {
		t.Fatalf("expected 6 stance entries, got %d", len(history))
	}

	w = serve(t, h, http.MethodGet, "/api/influencers/nobody/stance")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestListWhales(t *testing.T) {
	h := newTestHandler(&stubFeed{})

	w := serve(t, h, http.MethodGet, "/api/whales")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	all := decode(t, w)["whales"].([]any)
	if len(all) != 15 {
		t.Fatalf("expected 15 whale records, got %d", len(all))
	}

	w = serve(t, h, http.MethodGet, "/api/whales?anomalous=true")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	for _, raw := range decode(t, w)["whales"].([]any) {
		if raw.(map[string]any)["anomalous"] != true {
			t.Fatalf("expected only anomalous records, got %v", raw)
		}
	}
}

func TestGetStopLoss(t *testing.T) {
	w := serve(t, newTestHandler(&stubFeed{}), http.MethodGet, "/api/stoploss?price=100&tp=20&sl=5&qty=2.5")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	if body["take_profit_price"] != "120" || body["stop_loss_price"] != "95" {
		t.Fatalf("unexpected plan: %v", body)
	}
	if body["reward_risk"] != "4" {
		t.Fatalf("expected reward/risk 4, got %v", body["reward_risk"])
	}
}

func TestGetStopLossFromSymbol(t *testing.T) {
	feed := &stubFeed{state: query.State{Status: query.StatusSuccess, Data: sampleAdvices()}}
	w := serve(t, newTestHandler(feed), http.MethodGet, "/api/stoploss?symbol=btc")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if body := decode(t, w); body["take_profit_price"] != "115" {
		t.Fatalf("expected default take profit 115, got %v", body["take_profit_price"])
	}

	w = serve(t, newTestHandler(feed), http.MethodGet, "/api/stoploss?symbol=xrp")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestGetStopLossValidation(t *testing.T) {
	h := newTestHandler(&stubFeed{})
	for _, q := range []string{"", "price=abc", "price=10&sl=100", "price=10&tp=0", "price=10&qty=-1"} {
		w := serve(t, h, http.MethodGet, "/api/stoploss?"+q)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%q: expected 400, got %d", q, w.Code)
		}
	}
}
