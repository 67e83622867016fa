package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"signal-deck/internal/catalog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerResources(server *mcp.Server, feed AdviceFeed, cat *catalog.Catalog) {
	server.AddResource(&mcp.Resource{
		URI:         "catalog://tokens",
		Name:        "catalog-tokens",
		Description: "Tracked tokens with display name and reference market figures",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		return jsonResource(req.Params.URI, tokensOutput{Tokens: cat.Tokens()})
	})

	server.AddResource(&mcp.Resource{
		URI:         "advice://latest",
		Name:        "advice-latest",
		Description: "Latest advice for every tracked token with dashboard totals",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if feed == nil {
			return nil, fmt.Errorf("advice feed unavailable")
		}
		st, err := currentState(ctx, feed)
		if err != nil {
			return nil, err
		}
		return jsonResource(req.Params.URI, outputFromState(st))
	})

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "advice://symbol/{symbol}",
		Name:        "advice-by-symbol",
		Description: "Newest advice for a specific symbol",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if feed == nil {
			return nil, fmt.Errorf("advice feed unavailable")
		}

		parsed, err := url.Parse(req.Params.URI)
		if err != nil {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		if parsed.Scheme != "advice" || parsed.Host != "symbol" {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}

		symbol, err := normalizeSymbol(strings.Trim(strings.TrimSpace(parsed.Path), "/"))
		if err != nil {
			return nil, err
		}
		advice, err := adviceForSymbol(ctx, feed, symbol)
		if err != nil {
			return nil, err
		}
		return jsonResource(req.Params.URI, adviceGetBySymbolOutput{Advice: advice})
	})
}

func jsonResource(uri string, payload any) (*mcp.ReadResourceResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(body),
		}},
	}, nil
}
