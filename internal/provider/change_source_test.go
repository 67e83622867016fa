package provider

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/piquette/finance-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomChangeSourceStaysInRange(t *testing.T) {
	src := NewRandomChangeSource(rand.New(rand.NewSource(7)))
	for i := 0; i < 500; i++ {
		v, err := src.Change24h(context.Background(), "BTC")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, v, -5.0)
		assert.LessOrEqual(t, v, 5.0)
	}
}

func TestRandomChangeSourceSeededIsReproducible(t *testing.T) {
	a := NewRandomChangeSource(rand.New(rand.NewSource(42)))
	b := NewRandomChangeSource(rand.New(rand.NewSource(42)))
	for i := 0; i < 10; i++ {
		va, _ := a.Change24h(context.Background(), "ETH")
		vb, _ := b.Change24h(context.Background(), "ETH")
		assert.Equal(t, va, vb)
	}
}

type fixedChange float64

func (f fixedChange) Change24h(context.Context, string) (float64, error) { return float64(f), nil }

func TestYahooChangeSourceUsesQuoteAndCaches(t *testing.T) {
	calls := 0
	src := NewYahooChangeSource(fixedChange(0))
	src.listQuotes = func(pairs []string) ([]*finance.Quote, error) {
		calls++
		assert.Equal(t, []string{"BTC-USD"}, pairs)
		return []*finance.Quote{{Symbol: "BTC-USD", RegularMarketChangePercent: 3.25}}, nil
	}

	for i := 0; i < 3; i++ {
		v, err := src.Change24h(context.Background(), "btc")
		require.NoError(t, err)
		assert.Equal(t, 3.25, v)
	}
	assert.Equal(t, 1, calls)
}

func TestYahooChangeSourceFallsBack(t *testing.T) {
	src := NewYahooChangeSource(fixedChange(-1.5))
	src.listQuotes = func([]string) ([]*finance.Quote, error) { return nil, errors.New("rate limited") }

	v, err := src.Change24h(context.Background(), "SOL")
	require.NoError(t, err)
	assert.Equal(t, -1.5, v)
}

func TestYahooChangeSourceWithoutFallbackErrors(t *testing.T) {
	src := NewYahooChangeSource(nil)
	src.listQuotes = func([]string) ([]*finance.Quote, error) { return nil, nil }

	_, err := src.Change24h(context.Background(), "XRP")
	require.Error(t, err)
}

func TestYahooPrefetchUsesOneRequest(t *testing.T) {
	calls := 0
	src := NewYahooChangeSource(fixedChange(0.5))
	src.listQuotes = func(pairs []string) ([]*finance.Quote, error) {
		calls++
		assert.ElementsMatch(t, []string{"BTC-USD", "ETH-USD", "USDT-USD"}, pairs)
		return []*finance.Quote{
			{Symbol: "BTC-USD", RegularMarketChangePercent: 2},
			{Symbol: "ETH-USD", RegularMarketChangePercent: -1},
		}, nil
	}

	ctx := context.Background()
	src.Prefetch(ctx, []string{"BTC", "eth", "USDT", "BTC"})

	btc, err := src.Change24h(ctx, "BTC")
	require.NoError(t, err)
	assert.Equal(t, 2.0, btc)
	eth, err := src.Change24h(ctx, "ETH")
	require.NoError(t, err)
	assert.Equal(t, -1.0, eth)
	// Missing quotes go to the fallback without another lookup.
	usdt, err := src.Change24h(ctx, "USDT")
	require.NoError(t, err)
	assert.Equal(t, 0.5, usdt)
	assert.Equal(t, 1, calls)
}

func TestYahooLookupIsBoundedByContext(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	src := NewYahooChangeSource(fixedChange(-2))
	src.listQuotes = func([]string) ([]*finance.Quote, error) {
		<-release
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	start := time.Now()
	v, err := src.Change24h(ctx, "SOL")
	require.NoError(t, err)
	assert.Equal(t, -2.0, v)
	assert.Less(t, time.Since(start), time.Second)
}

func TestNewChangeSourceSelectsByName(t *testing.T) {
	_, isYahoo := NewChangeSource("YAHOO", nil).(*YahooChangeSource)
	assert.True(t, isYahoo)
	_, isRandom := NewChangeSource("random", nil).(*RandomChangeSource)
	assert.True(t, isRandom)
}
