// Package demo produces the illustrative market data shown beside the advice feed.
// Nothing here comes from a real market source.
package demo

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"signal-deck/internal/domain"
)

const (
	DefaultTimelineDays = 7
	DefaultStanceDays   = 30
	MaxDays             = 90
	whaleCount          = 15
)

type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
	now func() time.Time
}

func NewGenerator(rnd *rand.Rand, now func() time.Time) *Generator {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if now == nil {
		now = time.Now
	}
	return &Generator{rnd: rnd, now: now}
}

func clampDays(days, fallback int) int {
	if days <= 0 {
		return fallback
	}
	if days > MaxDays {
		return MaxDays
	}
	return days
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func basePrice(symbol string) float64 {
	switch symbol {
	case "BTC":
		return 67000
	case "ETH":
		return 3500
	}
	return 140
}

// SentimentTimeline returns hourly sentiment for days*24+1 points ending now.
func (g *Generator) SentimentTimeline(symbol string, days int) domain.SentimentTimeline {
	g.mu.Lock()
	defer g.mu.Unlock()

	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	days = clampDays(days, DefaultTimelineDays)
	now := g.now().UTC()
	hours := days * 24

	tl := domain.SentimentTimeline{
		Symbol: symbol,
		Points: make([]domain.SentimentPoint, 0, hours+1),
	}
	base := 50 + g.rnd.Float64()*30

	for i := hours; i >= 0; i-- {
		ts := now.Add(-time.Duration(i) * time.Hour)

		change := (g.rnd.Float64() - 0.5) * 8
		reversion := (60 - base) * 0.1
		base = clamp(base+change+reversion, 20, 95)

		price := basePrice(symbol) * (1 + (base-50)/100 + (g.rnd.Float64()-0.5)*0.02)
		tl.Points = append(tl.Points, domain.SentimentPoint{
			Time:      ts,
			Sentiment: round1(base),
			Price:     round2(price),
			Volume:    math.Round(g.rnd.Float64() * 1e9),
		})

		if g.rnd.Float64() < 0.05 {
			kind := []domain.EventKind{domain.EventPositive, domain.EventNegative, domain.EventNeutral}[g.rnd.Intn(3)]
			impact := (g.rnd.Float64() - 0.5) * 20
			tl.Events = append(tl.Events, domain.SentimentEvent{
				Time:   ts,
				Title:  g.eventTitle(symbol, kind),
				Kind:   kind,
				Impact: impact,
			})
			base = clamp(base+impact, 20, 95)
		}
	}
	return tl
}

var eventTemplates = map[domain.EventKind][]string{
	domain.EventPositive: {
		"Major %s whale accumulation detected",
		"%s mentioned by industry leader",
		"Institutional buying surge for %s",
		"%s technical breakout confirmed",
		"Positive %s development announcement",
	},
	domain.EventNegative: {
		"Large %s sell-off detected",
		"%s faces regulatory concerns",
		"Negative sentiment spike on %s",
		"%s whale distribution detected",
		"FUD spreading about %s",
	},
	domain.EventNeutral: {
		"%s consolidation phase",
		"Mixed signals on %s",
		"%s sideways movement continues",
		"Market indecision on %s",
	},
}

func (g *Generator) eventTitle(symbol string, kind domain.EventKind) string {
	list := eventTemplates[kind]
	return fmt.Sprintf(list[g.rnd.Intn(len(list))], symbol)
}

var compareCoins = []struct{ symbol, name string }{
	{"BTC", "Bitcoin"},
	{"ETH", "Ethereum"},
	{"SOL", "Solana"},
	{"XRP", "Ripple"},
	{"BNB", "Binance Coin"},
}

func (g *Generator) MultiCoinSentiment() []domain.CoinSentiment {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]domain.CoinSentiment, 0, len(compareCoins))
	for _, c := range compareCoins {
		sentiment := 40 + g.rnd.Float64()*50
		change := (g.rnd.Float64() - 0.5) * 30

		trend := domain.TrendStable
		if change > 5 {
			trend = domain.TrendUp
		} else if change < -5 {
			trend = domain.TrendDown
		}
		out = append(out, domain.CoinSentiment{
			Symbol:           c.symbol,
			Name:             c.name,
			CurrentSentiment: round1(sentiment),
			Change24h:        round1(change),
			Trend:            trend,
		})
	}
	return out
}

var stanceEvents = map[domain.Stance][]string{
	domain.StanceBullish: {"Posted bullish thread", "Announced accumulation", "Positive market outlook", "Technical analysis bullish"},
	domain.StanceBearish: {"Warning of correction", "Critical market analysis", "Reduced position", "Bearish technical signal"},
	domain.StanceNeutral: {"Awaiting confirmation", "Mixed signals analysis", "Market consolidation", "Wait-and-see approach"},
}

// StanceHistory returns days+1 daily entries for one influencer.
func (g *Generator) StanceHistory(influencerID string, days int) []domain.StanceEntry {
	g.mu.Lock()
	defer g.mu.Unlock()

	days = clampDays(days, DefaultStanceDays)
	now := g.now().UTC()
	stances := []domain.Stance{domain.StanceBullish, domain.StanceBearish, domain.StanceNeutral}
	current := domain.StanceNeutral

	out := make([]domain.StanceEntry, 0, days+1)
	for i := days; i >= 0; i-- {
		if g.rnd.Float64() < 0.2 {
			current = stances[g.rnd.Intn(len(stances))]
		}
		entry := domain.StanceEntry{
			Time:       now.Add(-time.Duration(i) * 24 * time.Hour),
			Stance:     current,
			Confidence: 60 + g.rnd.Float64()*35,
		}
		if g.rnd.Float64() < 0.15 {
			list := stanceEvents[current]
			entry.Event = list[g.rnd.Intn(len(list))]
		}
		out = append(out, entry)
	}
	return out
}

// WhaleActivity returns synthetic large-holder moves from the past week, newest first.
func (g *Generator) WhaleActivity() []domain.WhaleActivity {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now().UTC()
	actions := []domain.AdviceAction{domain.ActionBuy, domain.ActionSell, domain.ActionHold}

	out := make([]domain.WhaleActivity, 0, whaleCount)
	for i := 0; i < whaleCount; i++ {
		age := time.Duration(g.rnd.Float64() * float64(7*24*time.Hour))
		action := actions[g.rnd.Intn(len(actions))]

		var impact float64
		switch action {
		case domain.ActionBuy:
			impact = g.rnd.Float64() * 15
		case domain.ActionSell:
			impact = -g.rnd.Float64() * 15
		}
		out = append(out, domain.WhaleActivity{
			Address: fmt.Sprintf("0x%08x...%04x", g.rnd.Uint32(), g.rnd.Intn(1<<16)),
			Action:  action,
			Amount:  round2(g.rnd.Float64()*1000 + 100),
			Asset:   "BTC",
			Time:    now.Add(-age),
			Impact:  impact,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.After(out[j].Time) })
	return out
}
