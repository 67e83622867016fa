package mcp

import (
	"context"
	"fmt"
	"time"

	"signal-deck/internal/demo"
	"signal-deck/internal/domain"
	"signal-deck/internal/query"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerTools(server *mcp.Server, feed AdviceFeed, sentiment SentimentSource, now func() time.Time) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "advices_list_latest",
		Description: "Get the latest buy/hold/sell advice for every tracked token, newest first",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, _ advicesListLatestInput) (*mcp.CallToolResult, advicesOutput, error) {
		if feed == nil {
			return nil, advicesOutput{}, fmt.Errorf("advice feed unavailable")
		}
		st, err := currentState(ctx, feed)
		if err != nil {
			return nil, advicesOutput{}, err
		}
		return nil, outputFromState(st), nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "advice_get_by_symbol",
		Description: "Get the newest advice for one symbol",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in adviceGetBySymbolInput) (*mcp.CallToolResult, adviceGetBySymbolOutput, error) {
		if feed == nil {
			return nil, adviceGetBySymbolOutput{}, fmt.Errorf("advice feed unavailable")
		}
		symbol, err := normalizeSymbol(in.Symbol)
		if err != nil {
			return nil, adviceGetBySymbolOutput{}, err
		}
		advice, err := adviceForSymbol(ctx, feed, symbol)
		if err != nil {
			return nil, adviceGetBySymbolOutput{}, err
		}
		return nil, adviceGetBySymbolOutput{Advice: advice}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "advices_refetch",
		Description: "Fetch advice from the backend now, bypassing the polling interval",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, _ advicesRefetchInput) (*mcp.CallToolResult, advicesOutput, error) {
		if feed == nil {
			return nil, advicesOutput{}, fmt.Errorf("advice feed unavailable")
		}
		st, err := feed.Refetch(ctx)
		if err != nil && len(st.Data) == 0 {
			return nil, advicesOutput{}, err
		}
		return nil, outputFromState(st), nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "sentiment_timeline",
		Description: "Get an illustrative hourly sentiment timeline with market events for a symbol",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in sentimentTimelineInput) (*mcp.CallToolResult, sentimentTimelineOutput, error) {
		if sentiment == nil {
			return nil, sentimentTimelineOutput{}, fmt.Errorf("sentiment source unavailable")
		}
		symbol, err := normalizeSymbol(in.Symbol)
		if err != nil {
			return nil, sentimentTimelineOutput{}, err
		}
		days, err := normalizeDays(in.Days)
		if err != nil {
			return nil, sentimentTimelineOutput{}, err
		}
		return nil, sentimentTimelineOutput{Timeline: sentiment.SentimentTimeline(symbol, days)}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "influencers_list",
		Description: "List tracked crypto influencers with their recent stance",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, _ influencersListInput) (*mcp.CallToolResult, influencersListOutput, error) {
		return nil, influencersListOutput{Influencers: demo.Influencers(now())}, nil
	})
}

// currentState returns the polled state, loading once if nothing has been fetched yet.
func currentState(ctx context.Context, feed AdviceFeed) (query.State, error) {
	st := feed.State()
	if len(st.Data) > 0 {
		return st, nil
	}
	if st.Status == query.StatusError && st.Err != nil {
		return st, st.Err
	}
	st, err := feed.Refetch(ctx)
	if err != nil && len(st.Data) == 0 {
		return st, err
	}
	return st, nil
}

func adviceForSymbol(ctx context.Context, feed AdviceFeed, symbol string) (domain.ViewAdvice, error) {
	st, err := currentState(ctx, feed)
	if err != nil {
		return domain.ViewAdvice{}, err
	}
	advice, ok := domain.FindAdvice(st.Data, symbol)
	if !ok {
		return domain.ViewAdvice{}, fmt.Errorf("no advice for symbol: %s", symbol)
	}
	return advice, nil
}
