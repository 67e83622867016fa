package mcp

import (
	"fmt"
	"strings"
	"time"

	"signal-deck/internal/catalog"
	"signal-deck/internal/demo"
	"signal-deck/internal/domain"
	"signal-deck/internal/query"
)

type advicesListLatestInput struct{}

type advicesOutput struct {
	Status    query.Status          `json:"status"`
	UpdatedAt *time.Time            `json:"updated_at,omitempty"`
	Error     string                `json:"error,omitempty"`
	Advices   []domain.ViewAdvice   `json:"advices"`
	Stats     domain.DashboardStats `json:"stats"`
}

type adviceGetBySymbolInput struct {
	Symbol string `json:"symbol" jsonschema:"asset symbol (e.g. BTC, ETH)"`
}

type adviceGetBySymbolOutput struct {
	Advice domain.ViewAdvice `json:"advice"`
}

type advicesRefetchInput struct{}

type sentimentTimelineInput struct {
	Symbol string `json:"symbol" jsonschema:"asset symbol (e.g. BTC, ETH)"`
	Days   int    `json:"days,omitempty" jsonschema:"window in days, default 7, max 90"`
}

type sentimentTimelineOutput struct {
	Timeline domain.SentimentTimeline `json:"timeline"`
}

type influencersListInput struct{}

type influencersListOutput struct {
	Influencers []domain.Influencer `json:"influencers"`
}

type tokensOutput struct {
	Tokens []catalog.Token `json:"tokens"`
}

func normalizeSymbol(symbol string) (string, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return "", fmt.Errorf("symbol is required")
	}
	if strings.ContainsAny(symbol, " /?#") {
		return "", fmt.Errorf("invalid symbol: %s", symbol)
	}
	return symbol, nil
}

func normalizeDays(days int) (int, error) {
	if days == 0 {
		return demo.DefaultTimelineDays, nil
	}
	if days < 0 || days > demo.MaxDays {
		return 0, fmt.Errorf("days must be between 1 and %d", demo.MaxDays)
	}
	return days, nil
}

func outputFromState(st query.State) advicesOutput {
	out := advicesOutput{
		Status:  st.Status,
		Advices: st.Data,
		Stats:   domain.SummarizeAdvices(st.Data),
	}
	if out.Advices == nil {
		out.Advices = []domain.ViewAdvice{}
	}
	if st.Err != nil {
		out.Error = st.Err.Error()
	}
	if !st.UpdatedAt.IsZero() {
		at := st.UpdatedAt
		out.UpdatedAt = &at
	}
	return out
}
