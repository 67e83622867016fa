package mcp

import (
	"context"

	"signal-deck/internal/domain"
	"signal-deck/internal/query"
)

// AdviceFeed exposes the polled advice state and an on-demand refresh.
type AdviceFeed interface {
	State() query.State
	Refetch(ctx context.Context) (query.State, error)
}

// SentimentSource produces illustrative sentiment timelines.
type SentimentSource interface {
	SentimentTimeline(symbol string, days int) domain.SentimentTimeline
}
