// Package query keeps the advice feed fresh for any number of subscribers.
package query

import (
	"context"
	"sync"
	"time"

	"signal-deck/internal/cache"
	"signal-deck/internal/domain"
	"signal-deck/internal/metrics"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultRefetchInterval = 30 * time.Second
	DefaultStaleTime       = 10 * time.Second
)

type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// State is an immutable view of the query. Data is never mutated in place.
// While a cycle runs Status is loading and the previous Data and Err stay set.
type State struct {
	Status    Status
	Data      []domain.ViewAdvice
	IsLoading bool
	Err       error
	UpdatedAt time.Time
}

type Loader interface {
	Load(ctx context.Context) ([]domain.ViewAdvice, error)
}

type SnapshotStore interface {
	Load(ctx context.Context) (*cache.Snapshot, error)
	Save(ctx context.Context, snap cache.Snapshot) error
}

type Options struct {
	RefetchInterval time.Duration
	StaleTime       time.Duration
	// Store is optional; when set, fresh snapshots written by other processes are reused.
	Store SnapshotStore
	Now   func() time.Time
}

type AdviceQuery struct {
	tracer trace.Tracer
	loader Loader
	opts   Options

	mu       sync.Mutex
	state    State
	seq      uint64
	subs     map[*Subscription]struct{}
	stopLoop context.CancelFunc
}

func NewAdviceQuery(tracer trace.Tracer, loader Loader, opts Options) *AdviceQuery {
	if opts.RefetchInterval <= 0 {
		opts.RefetchInterval = DefaultRefetchInterval
	}
	if opts.StaleTime < 0 {
		opts.StaleTime = 0
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &AdviceQuery{
		tracer: tracer,
		loader: loader,
		opts:   opts,
		state:  State{Status: StatusIdle},
		subs:   make(map[*Subscription]struct{}),
	}
}

type Subscription struct {
	q    *AdviceQuery
	ch   chan State
	once sync.Once
}

// Updates delivers the latest state. Slow readers only miss intermediate states.
func (s *Subscription) Updates() <-chan State {
	return s.ch
}

func (s *Subscription) Unsubscribe() {
	s.once.Do(func() { s.q.unsubscribe(s) })
}

func (q *AdviceQuery) State() State {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state
}

// Subscribe registers a consumer. The first subscriber starts the refresh loop.
func (q *AdviceQuery) Subscribe() *Subscription {
	sub := &Subscription{q: q, ch: make(chan State, 1)}

	q.mu.Lock()
	defer q.mu.Unlock()

	q.subs[sub] = struct{}{}
	sub.ch <- q.state
	metrics.QuerySubscribers.Set(float64(len(q.subs)))

	if len(q.subs) == 1 {
		ctx, cancel := context.WithCancel(context.Background())
		q.stopLoop = cancel
		go q.loop(ctx)
	}
	return sub
}

func (q *AdviceQuery) unsubscribe(sub *Subscription) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.subs[sub]; !ok {
		return
	}
	delete(q.subs, sub)
	close(sub.ch)
	metrics.QuerySubscribers.Set(float64(len(q.subs)))

	if len(q.subs) == 0 && q.stopLoop != nil {
		q.stopLoop()
		q.stopLoop = nil
	}
}

// Refetch runs one network cycle immediately and returns the resulting state.
// The cycle is detached from ctx and always completes; when ctx ends first
// the caller gets the current state and ctx.Err().
func (q *AdviceQuery) Refetch(ctx context.Context) (State, error) {
	done := make(chan error, 1)
	go func() {
		done <- q.cycle(context.WithoutCancel(ctx), false)
	}()

	select {
	case err := <-done:
		return q.State(), err
	case <-ctx.Done():
		return q.State(), ctx.Err()
	}
}

func (q *AdviceQuery) loop(ctx context.Context) {
	// In-flight cycles outlive the last unsubscribe.
	cycleCtx := context.WithoutCancel(ctx)

	if !q.isFresh() {
		_ = q.cycle(cycleCtx, true)
	} else {
		metrics.RecordQueryCycle("cached")
	}

	ticker := time.NewTicker(q.opts.RefetchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = q.cycle(cycleCtx, true)
		}
	}
}

func (q *AdviceQuery) isFresh() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.freshLocked()
}

func (q *AdviceQuery) freshLocked() bool {
	if q.state.UpdatedAt.IsZero() || q.state.Data == nil {
		return false
	}
	return q.opts.Now().Sub(q.state.UpdatedAt) < q.opts.StaleTime
}

func (q *AdviceQuery) cycle(ctx context.Context, useStore bool) error {
	ctx, span := q.tracer.Start(ctx, "advice-query.cycle")
	defer span.End()

	q.mu.Lock()
	q.seq++
	seq := q.seq
	q.state.IsLoading = true
	q.state.Status = StatusLoading
	q.broadcastLocked()
	q.mu.Unlock()
	span.SetAttributes(attribute.Int64("query.seq", int64(seq)))

	if useStore && q.opts.Store != nil {
		if snap := q.freshSnapshot(ctx); snap != nil {
			q.apply(seq, snap.Advices, nil, snap.FetchedAt, "cached")
			return nil
		}
	}

	data, err := q.loader.Load(ctx)
	if err != nil {
		span.RecordError(err)
		log.Warn("advice refresh failed", "seq", seq, "err", err)
		q.apply(seq, nil, err, time.Time{}, "error")
		return err
	}

	fetchedAt := q.opts.Now()
	if q.apply(seq, data, nil, fetchedAt, "success") && q.opts.Store != nil {
		if err := q.opts.Store.Save(ctx, cache.Snapshot{Advices: data, FetchedAt: fetchedAt}); err != nil {
			log.Warn("save advice snapshot failed", "err", err)
		}
	}
	return nil
}

func (q *AdviceQuery) freshSnapshot(ctx context.Context) *cache.Snapshot {
	snap, err := q.opts.Store.Load(ctx)
	if err != nil {
		log.Warn("load advice snapshot failed", "err", err)
		return nil
	}
	if snap == nil || len(snap.Advices) == 0 {
		return nil
	}
	if q.opts.Now().Sub(snap.FetchedAt) >= q.opts.StaleTime {
		return nil
	}
	return snap
}

// apply stores a cycle result if seq is still the latest issued cycle.
func (q *AdviceQuery) apply(seq uint64, data []domain.ViewAdvice, err error, at time.Time, outcome string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if seq != q.seq {
		metrics.RecordQueryCycle("discarded")
		log.Debug("discarding stale advice result", "seq", seq, "latest", q.seq)
		return false
	}

	q.state.IsLoading = false
	if err != nil {
		q.state.Status = StatusError
		q.state.Err = err
	} else {
		q.state.Status = StatusSuccess
		q.state.Err = nil
		q.state.Data = data
		q.state.UpdatedAt = at
	}
	metrics.RecordQueryCycle(outcome)
	q.broadcastLocked()
	return true
}

func (q *AdviceQuery) broadcastLocked() {
	st := q.state
	for sub := range q.subs {
		select {
		case <-sub.ch:
		default:
		}
		select {
		case sub.ch <- st:
		default:
		}
	}
}
