package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"signal-deck/internal/domain"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"
)

const snapshotKey = "signal-deck:advices:latest"

// Snapshot is the last successfully normalized feed shared between processes.
type Snapshot struct {
	Advices   []domain.ViewAdvice `json:"advices"`
	FetchedAt time.Time           `json:"fetched_at"`
}

// NewClient accepts either host:port or a redis:// URL.
func NewClient(ctx context.Context, addr string) (*redis.Client, error) {
	if addr == "" {
		addr = "localhost:6379"
	}
	opts := &redis.Options{Addr: addr}
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opts = parsed
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis %s: %w", opts.Addr, err)
	}
	log.Info("connected to redis", "addr", opts.Addr)
	return client, nil
}

// SnapshotStore keeps the latest feed in Redis with a TTL equal to the fresh window.
type SnapshotStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSnapshotStore(client *redis.Client, ttl time.Duration) *SnapshotStore {
	return &SnapshotStore{client: client, ttl: ttl}
}

// Load returns (nil, nil) when no snapshot is stored.
func (s *SnapshotStore) Load(ctx context.Context) (*Snapshot, error) {
	raw, err := s.client.Get(ctx, snapshotKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get advice snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode advice snapshot: %w", err)
	}
	return &snap, nil
}

func (s *SnapshotStore) Save(ctx context.Context, snap Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode advice snapshot: %w", err)
	}
	if err := s.client.Set(ctx, snapshotKey, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("set advice snapshot: %w", err)
	}
	return nil
}
