package service

import (
	"context"
	"fmt"

	"signal-deck/internal/catalog"
	"signal-deck/internal/domain"
	"signal-deck/internal/provider"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type AdviceFetcher interface {
	FetchLatestAdvices(ctx context.Context) ([]domain.RawAdvice, error)
}

type AdviceService struct {
	tracer  trace.Tracer
	fetcher AdviceFetcher
	catalog *catalog.Catalog
	changes provider.ChangeSource
}

func NewAdviceService(
	tracer trace.Tracer,
	fetcher AdviceFetcher,
	cat *catalog.Catalog,
	changes provider.ChangeSource,
) *AdviceService {
	if cat == nil {
		cat = catalog.Default()
	}
	if changes == nil {
		changes = provider.NewRandomChangeSource(nil)
	}
	return &AdviceService{
		tracer:  tracer,
		fetcher: fetcher,
		catalog: cat,
		changes: changes,
	}
}

func (s *AdviceService) Catalog() *catalog.Catalog {
	return s.catalog
}

// Load fetches the latest advices and normalizes them for display.
func (s *AdviceService) Load(ctx context.Context) ([]domain.ViewAdvice, error) {
	ctx, span := s.tracer.Start(ctx, "advice-service.load")
	defer span.End()

	if s.fetcher == nil {
		return nil, fmt.Errorf("advice service is not fully initialized")
	}

	raw, err := s.fetcher.FetchLatestAdvices(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	views, err := s.Normalize(ctx, raw)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("advice.count", len(views)))
	return views, nil
}

// Normalize converts raw advices one-to-one, preserving order.
func (s *AdviceService) Normalize(ctx context.Context, raw []domain.RawAdvice) ([]domain.ViewAdvice, error) {
	if len(raw) == 0 {
		return nil, &domain.EmptyResultError{}
	}

	if p, ok := s.changes.(provider.Prefetcher); ok {
		symbols := make([]string, len(raw))
		for i, r := range raw {
			symbols[i] = r.Symbol
		}
		p.Prefetch(ctx, symbols)
	}

	out := make([]domain.ViewAdvice, 0, len(raw))
	for _, r := range raw {
		price, volume, marketCap := s.catalog.Metrics(r.Symbol)
		if r.Price != nil {
			price = *r.Price
		}

		change, err := s.changes.Change24h(ctx, r.Symbol)
		if err != nil {
			log.Warn("24h change unavailable", "symbol", r.Symbol, "err", err)
			change = 0
		}

		out = append(out, domain.ViewAdvice{
			Symbol:      r.Symbol,
			Name:        s.catalog.Name(r.Symbol),
			Price:       price,
			Change24h:   change,
			Action:      r.Action,
			Strength:    r.Strength,
			Reason:      r.Reason,
			Sentiment:   domain.Sentiment(r.Action, r.Strength),
			Volume:      volume,
			MarketCap:   marketCap,
			PredictedAt: r.PredictedAt,
		})
	}
	return out, nil
}
