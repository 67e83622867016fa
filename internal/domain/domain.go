package domain

import (
	"encoding/json"
	"time"
)

type AdviceAction string

const (
	ActionBuy  AdviceAction = "buy"
	ActionHold AdviceAction = "hold"
	ActionSell AdviceAction = "sell"
)

func (a AdviceAction) IsValid() bool {
	switch a {
	case ActionBuy, ActionHold, ActionSell:
		return true
	}
	return false
}

type AdviceStrength string

const (
	StrengthHigh   AdviceStrength = "high"
	StrengthMedium AdviceStrength = "medium"
	StrengthLow    AdviceStrength = "low"
)

func (s AdviceStrength) IsValid() bool {
	switch s {
	case StrengthHigh, StrengthMedium, StrengthLow:
		return true
	}
	return false
}

// Dots returns the 1-3 emphasis level used by cards and the TUI.
func (s AdviceStrength) Dots() int {
	switch s {
	case StrengthHigh:
		return 3
	case StrengthMedium:
		return 2
	case StrengthLow:
		return 1
	}
	return 0
}

// RawAdvice is one record as served by the advice backend.
type RawAdvice struct {
	Symbol      string          `json:"symbol"`
	Action      AdviceAction    `json:"advice_action"`
	Strength    AdviceStrength  `json:"advice_strength"`
	Reason      string          `json:"reason"`
	PredictedAt int64           `json:"predicted_at"`
	Price       *float64        `json:"price,omitempty"`
	Kline24h    json.RawMessage `json:"kline_24h,omitempty"`
}

func (r RawAdvice) PredictedTime() time.Time {
	return time.Unix(r.PredictedAt, 0).UTC()
}

// ViewAdvice is the display-ready form of a RawAdvice.
// Change24h is demo data unless a real market change source is configured.
type ViewAdvice struct {
	Symbol      string         `json:"symbol"`
	Name        string         `json:"name"`
	Price       float64        `json:"price"`
	Change24h   float64        `json:"change"`
	Action      AdviceAction   `json:"recommendation"`
	Strength    AdviceStrength `json:"strength"`
	Reason      string         `json:"reasoning"`
	Sentiment   int            `json:"sentiment"`
	Volume      string         `json:"volume"`
	MarketCap   string         `json:"market_cap"`
	PredictedAt int64          `json:"predicted_at"`
}

func (v ViewAdvice) PredictedTime() time.Time {
	return time.Unix(v.PredictedAt, 0).UTC()
}

// Sentiment maps an action/strength pair to a 0-100 display score.
func Sentiment(action AdviceAction, strength AdviceStrength) int {
	score := 50
	switch action {
	case ActionBuy:
		score += 20
	case ActionSell:
		score -= 20
	}

	switch strength {
	case StrengthHigh:
		score += 15
	case StrengthMedium:
		score += 5
	case StrengthLow:
		score -= 5
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// DashboardStats summarizes a feed for the portfolio dashboard.
type DashboardStats struct {
	Buy          int     `json:"buy"`
	Hold         int     `json:"hold"`
	Sell         int     `json:"sell"`
	AvgChange24h float64 `json:"avg_change"`
	AvgSentiment float64 `json:"avg_sentiment"`
}

func SummarizeAdvices(advices []ViewAdvice) DashboardStats {
	var stats DashboardStats
	if len(advices) == 0 {
		return stats
	}
	var changeSum, sentimentSum float64
	for _, a := range advices {
		switch a.Action {
		case ActionBuy:
			stats.Buy++
		case ActionHold:
			stats.Hold++
		case ActionSell:
			stats.Sell++
		}
		changeSum += a.Change24h
		sentimentSum += float64(a.Sentiment)
	}
	stats.AvgChange24h = changeSum / float64(len(advices))
	stats.AvgSentiment = sentimentSum / float64(len(advices))
	return stats
}

// FindAdvice returns the first advice for symbol in feed order.
func FindAdvice(advices []ViewAdvice, symbol string) (ViewAdvice, bool) {
	for _, a := range advices {
		if a.Symbol == symbol {
			return a, true
		}
	}
	return ViewAdvice{}, false
}

type ConversationMessage struct {
	Role      string
	Content   string
	CreatedAt time.Time
}

// ActionChange records a symbol whose latest advised action differs between two feeds.
type ActionChange struct {
	Symbol   string
	Name     string
	From     AdviceAction
	To       AdviceAction
	Strength AdviceStrength
	Price    float64
	Reason   string
}

// LatestActions maps each symbol to the action of its newest advice.
// Feeds are newest first, so the first occurrence wins.
func LatestActions(advices []ViewAdvice) map[string]AdviceAction {
	out := make(map[string]AdviceAction, len(advices))
	for _, a := range advices {
		if _, seen := out[a.Symbol]; !seen {
			out[a.Symbol] = a.Action
		}
	}
	return out
}

// DiffActions lists symbols present in both feeds whose action changed,
// in next's order. New and vanished symbols are not changes.
func DiffActions(prev map[string]AdviceAction, next []ViewAdvice) []ActionChange {
	var changes []ActionChange
	seen := make(map[string]struct{}, len(next))
	for _, a := range next {
		if _, dup := seen[a.Symbol]; dup {
			continue
		}
		seen[a.Symbol] = struct{}{}

		before, ok := prev[a.Symbol]
		if !ok || before == a.Action {
			continue
		}
		changes = append(changes, ActionChange{
			Symbol:   a.Symbol,
			Name:     a.Name,
			From:     before,
			To:       a.Action,
			Strength: a.Strength,
			Price:    a.Price,
			Reason:   a.Reason,
		})
	}
	return changes
}
