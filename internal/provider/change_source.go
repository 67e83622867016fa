package provider

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/piquette/finance-go"
	"github.com/piquette/finance-go/quote"
)

// ChangeSource supplies a 24h percent change for a symbol.
type ChangeSource interface {
	Change24h(ctx context.Context, symbol string) (float64, error)
}

// RandomChangeSource draws uniformly from [-5, +5]. Demo data only.
type RandomChangeSource struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewRandomChangeSource(rnd *rand.Rand) *RandomChangeSource {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &RandomChangeSource{rnd: rnd}
}

func (s *RandomChangeSource) Change24h(_ context.Context, _ string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (s.rnd.Float64() - 0.5) * 10, nil
}

// Prefetcher is implemented by sources that can warm every symbol of a
// normalization pass with one request.
type Prefetcher interface {
	Prefetch(ctx context.Context, symbols []string)
}

type quoteLister func(pairs []string) ([]*finance.Quote, error)

func listQuotes(pairs []string) ([]*finance.Quote, error) {
	it := quote.List(pairs)
	var out []*finance.Quote
	for it.Next() {
		out = append(out, it.Quote())
	}
	return out, it.Err()
}

// YahooChangeSource reads the regular-market percent change for <SYM>-USD.
// Stablecoins and lookups that fail are delegated to the fallback.
type YahooChangeSource struct {
	fallback   ChangeSource
	listQuotes quoteLister
	ttl        time.Duration

	mu    sync.Mutex
	cache map[string]cachedChange
}

// cachedChange also records misses so a failed lookup is not retried per record.
type cachedChange struct {
	value float64
	ok    bool
	at    time.Time
}

func NewYahooChangeSource(fallback ChangeSource) *YahooChangeSource {
	return &YahooChangeSource{
		fallback:   fallback,
		listQuotes: listQuotes,
		ttl:        time.Minute,
		cache:      make(map[string]cachedChange),
	}
}

// Prefetch looks up every uncached symbol in a single quote request.
func (s *YahooChangeSource) Prefetch(ctx context.Context, symbols []string) {
	var missing []string
	seen := make(map[string]struct{}, len(symbols))
	for _, sym := range symbols {
		sym = normalizeSymbol(sym)
		if _, dup := seen[sym]; dup || sym == "" {
			continue
		}
		seen[sym] = struct{}{}
		if _, ok := s.cached(sym); !ok {
			missing = append(missing, sym)
		}
	}
	if len(missing) == 0 {
		return
	}
	if err := s.fetch(ctx, missing); err != nil {
		log.Debug("yahoo prefetch failed", "symbols", len(missing), "err", err)
	}
}

func (s *YahooChangeSource) Change24h(ctx context.Context, symbol string) (float64, error) {
	symbol = normalizeSymbol(symbol)

	c, ok := s.cached(symbol)
	var err error
	if !ok {
		err = s.fetch(ctx, []string{symbol})
		c, _ = s.cached(symbol)
	}
	if c.ok {
		return c.value, nil
	}
	if err == nil {
		err = fmt.Errorf("no quote for %s", symbol)
	}
	if s.fallback == nil {
		return 0, fmt.Errorf("yahoo quote %s: %w", symbol, err)
	}
	log.Debug("yahoo quote failed, using fallback", "symbol", symbol, "err", err)
	return s.fallback.Change24h(ctx, symbol)
}

func (s *YahooChangeSource) cached(symbol string) (cachedChange, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cache[symbol]
	if !ok || time.Since(c.at) >= s.ttl {
		return cachedChange{}, false
	}
	return c, true
}

// fetch stores a result for every requested symbol, misses included. The
// wait is bounded by ctx since the quote client takes no context.
func (s *YahooChangeSource) fetch(ctx context.Context, symbols []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	pairs := make([]string, len(symbols))
	for i, sym := range symbols {
		pairs[i] = sym + "-USD"
	}

	type result struct {
		quotes []*finance.Quote
		err    error
	}
	done := make(chan result, 1)
	go func() {
		quotes, err := s.listQuotes(pairs)
		done <- result{quotes: quotes, err: err}
	}()

	var res result
	select {
	case <-ctx.Done():
		res.err = ctx.Err()
	case res = <-done:
	}

	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	if errors.Is(res.err, context.Canceled) || errors.Is(res.err, context.DeadlineExceeded) {
		return res.err
	}
	requested := make(map[string]struct{}, len(symbols))
	for _, sym := range symbols {
		requested[sym] = struct{}{}
		s.cache[sym] = cachedChange{at: now}
	}
	for _, q := range res.quotes {
		if q == nil {
			continue
		}
		sym := normalizeSymbol(strings.TrimSuffix(strings.ToUpper(q.Symbol), "-USD"))
		if _, ok := requested[sym]; !ok {
			continue
		}
		s.cache[sym] = cachedChange{value: q.RegularMarketChangePercent, ok: true, at: now}
	}
	return res.err
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// NewChangeSource picks a source by name; unknown names get the random source.
func NewChangeSource(name string, rnd *rand.Rand) ChangeSource {
	random := NewRandomChangeSource(rnd)
	if strings.EqualFold(name, "yahoo") {
		return NewYahooChangeSource(random)
	}
	return random
}
