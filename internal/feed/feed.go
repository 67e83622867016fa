// Package feed assembles the advice pipeline shared by every entrypoint:
// catalog, remote client, normalizer and the polling query.
package feed

import (
	"context"
	"fmt"
	"time"

	"signal-deck/internal/cache"
	"signal-deck/internal/catalog"
	"signal-deck/internal/config"
	"signal-deck/internal/provider"
	"signal-deck/internal/query"
	"signal-deck/internal/service"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

type Feed struct {
	Catalog *catalog.Catalog
	Client  *provider.AdviceClient
	Service *service.AdviceService
	Query   *query.AdviceQuery

	redis *redis.Client
}

// Build wires the pipeline from cfg. Redis is optional: when it cannot be
// reached the query runs without a shared snapshot store.
func Build(ctx context.Context, cfg *config.Config, tracer trace.Tracer) (*Feed, error) {
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	client := provider.NewAdviceClient(tracer, cfg.AdviceBaseURL, time.Duration(cfg.AdviceTimeoutSecs)*time.Second)
	changes := provider.NewChangeSource(cfg.MarketChangeSource, nil)
	svc := service.NewAdviceService(tracer, client, cat, changes)

	f := &Feed{Catalog: cat, Client: client, Service: svc}

	stale := time.Duration(cfg.AdviceStaleSecs) * time.Second
	opts := query.Options{
		RefetchInterval: time.Duration(cfg.AdviceRefetchSecs) * time.Second,
		StaleTime:       stale,
	}
	if cfg.RedisURL != "" {
		rdb, err := cache.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn("redis unavailable, advice snapshots stay in process", "err", err)
		} else {
			f.redis = rdb
			opts.Store = cache.NewSnapshotStore(rdb, stale)
		}
	}

	f.Query = query.NewAdviceQuery(tracer, svc, opts)
	return f, nil
}

func (f *Feed) Close() error {
	if f == nil || f.redis == nil {
		return nil
	}
	return f.redis.Close()
}
