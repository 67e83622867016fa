package query

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"signal-deck/internal/cache"
	"signal-deck/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

type result struct {
	data []domain.ViewAdvice
	err  error
	gate chan struct{}
}

// scriptedLoader returns queued results in order, then repeats the last one.
type scriptedLoader struct {
	mu      sync.Mutex
	results []result
	calls   int
}

func (l *scriptedLoader) Load(ctx context.Context) ([]domain.ViewAdvice, error) {
	l.mu.Lock()
	idx := l.calls
	if idx >= len(l.results) {
		idx = len(l.results) - 1
	}
	r := l.results[idx]
	l.calls++
	l.mu.Unlock()

	if r.gate != nil {
		<-r.gate
	}
	return r.data, r.err
}

func (l *scriptedLoader) Calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func feed(symbols ...string) []domain.ViewAdvice {
	out := make([]domain.ViewAdvice, 0, len(symbols))
	for _, s := range symbols {
		out = append(out, domain.ViewAdvice{Symbol: s, Action: domain.ActionBuy})
	}
	return out
}

func newTestQuery(loader Loader, opts Options) *AdviceQuery {
	return NewAdviceQuery(noop.NewTracerProvider().Tracer("test"), loader, opts)
}

func waitFor(t *testing.T, sub *Subscription, cond func(State) bool) State {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case st, ok := <-sub.Updates():
			require.True(t, ok, "subscription closed")
			if cond(st) {
				return st
			}
		case <-timeout:
			t.Fatal("timed out waiting for state")
		}
	}
}

func TestInitialStateIsIdle(t *testing.T) {
	q := newTestQuery(&scriptedLoader{results: []result{{data: feed("BTC")}}}, Options{})
	st := q.State()
	assert.Equal(t, StatusIdle, st.Status)
	assert.Nil(t, st.Data)
	assert.False(t, st.IsLoading)
}

func TestSubscribeFetchesOnMount(t *testing.T) {
	loader := &scriptedLoader{results: []result{{data: feed("BTC", "ETH")}}}
	q := newTestQuery(loader, Options{RefetchInterval: time.Hour, StaleTime: 10 * time.Second})

	sub := q.Subscribe()
	defer sub.Unsubscribe()

	st := waitFor(t, sub, func(s State) bool { return s.Status == StatusSuccess })
	assert.Len(t, st.Data, 2)
	assert.False(t, st.IsLoading)
	assert.NoError(t, st.Err)
	assert.False(t, st.UpdatedAt.IsZero())
	assert.Equal(t, 1, loader.Calls())
}

func TestResubscribeWithinFreshWindowSkipsNetwork(t *testing.T) {
	loader := &scriptedLoader{results: []result{{data: feed("BTC")}}}
	q := newTestQuery(loader, Options{RefetchInterval: time.Hour, StaleTime: time.Minute})

	sub := q.Subscribe()
	waitFor(t, sub, func(s State) bool { return s.Status == StatusSuccess })
	sub.Unsubscribe()

	again := q.Subscribe()
	defer again.Unsubscribe()
	st := waitFor(t, again, func(s State) bool { return s.Status == StatusSuccess })
	assert.Len(t, st.Data, 1)

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 1, loader.Calls())
}

func TestResubscribeAfterStaleWindowRefetches(t *testing.T) {
	now := time.Now()
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	loader := &scriptedLoader{results: []result{{data: feed("BTC")}}}
	q := newTestQuery(loader, Options{RefetchInterval: time.Hour, StaleTime: 10 * time.Second, Now: clock})

	sub := q.Subscribe()
	waitFor(t, sub, func(s State) bool { return s.Status == StatusSuccess })
	sub.Unsubscribe()

	mu.Lock()
	now = now.Add(11 * time.Second)
	mu.Unlock()

	again := q.Subscribe()
	defer again.Unsubscribe()
	require.Eventually(t, func() bool { return loader.Calls() == 2 }, time.Second, 5*time.Millisecond)
}

func TestErrorKeepsPreviousData(t *testing.T) {
	fetchErr := &domain.BackendError{Status: 500, Message: "db down"}
	loader := &scriptedLoader{results: []result{
		{data: feed("BTC", "ETH")},
		{err: fetchErr},
		{data: feed("SOL")},
	}}
	q := newTestQuery(loader, Options{RefetchInterval: time.Hour})
	ctx := context.Background()

	st, err := q.Refetch(ctx)
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, st.Status)
	firstUpdate := st.UpdatedAt

	st, err = q.Refetch(ctx)
	require.ErrorIs(t, err, fetchErr)
	assert.Equal(t, StatusError, st.Status)
	assert.Len(t, st.Data, 2)
	assert.Equal(t, firstUpdate, st.UpdatedAt)
	var be *domain.BackendError
	assert.True(t, errors.As(st.Err, &be))

	st, err = q.Refetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, st.Status)
	assert.Nil(t, st.Err)
	assert.Equal(t, "SOL", st.Data[0].Symbol)
}

func TestOnlyLatestCycleIsApplied(t *testing.T) {
	slowGate := make(chan struct{})
	loader := &scriptedLoader{results: []result{
		{data: feed("OLD"), gate: slowGate},
		{data: feed("NEW")},
	}}
	q := newTestQuery(loader, Options{RefetchInterval: time.Hour})
	ctx := context.Background()

	slowDone := make(chan State, 1)
	go func() {
		st, _ := q.Refetch(ctx)
		slowDone <- st
	}()
	require.Eventually(t, func() bool { return loader.Calls() == 1 }, time.Second, time.Millisecond)

	st, err := q.Refetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, "NEW", st.Data[0].Symbol)

	close(slowGate)
	<-slowDone
	assert.Equal(t, "NEW", q.State().Data[0].Symbol)
}

func TestLastUnsubscribeStopsPolling(t *testing.T) {
	loader := &scriptedLoader{results: []result{{data: feed("BTC")}}}
	q := newTestQuery(loader, Options{RefetchInterval: 15 * time.Millisecond, StaleTime: 0})

	sub := q.Subscribe()
	require.Eventually(t, func() bool { return loader.Calls() >= 3 }, time.Second, 5*time.Millisecond)
	sub.Unsubscribe()

	time.Sleep(20 * time.Millisecond)
	stopped := loader.Calls()
	time.Sleep(60 * time.Millisecond)
	assert.LessOrEqual(t, loader.Calls(), stopped+1)

	for range sub.Updates() {
	}
}

func TestPollingContinuesAfterErrors(t *testing.T) {
	loader := &scriptedLoader{results: []result{{err: errors.New("boom")}}}
	q := newTestQuery(loader, Options{RefetchInterval: 10 * time.Millisecond})

	sub := q.Subscribe()
	defer sub.Unsubscribe()
	require.Eventually(t, func() bool { return loader.Calls() >= 3 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		st := q.State()
		return st.Status == StatusError && st.Err != nil
	}, time.Second, time.Millisecond)
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	q := newTestQuery(&scriptedLoader{results: []result{{data: feed("BTC")}}}, Options{RefetchInterval: time.Hour})
	sub := q.Subscribe()
	sub.Unsubscribe()
	sub.Unsubscribe()
}

func TestFreshSnapshotFromStoreSkipsLoader(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	store := cache.NewSnapshotStore(client, 10*time.Second)
	require.NoError(t, store.Save(context.Background(), cache.Snapshot{Advices: feed("ETH"), FetchedAt: time.Now()}))

	loader := &scriptedLoader{results: []result{{data: feed("BTC")}}}
	q := newTestQuery(loader, Options{RefetchInterval: time.Hour, StaleTime: 10 * time.Second, Store: store})

	sub := q.Subscribe()
	defer sub.Unsubscribe()
	st := waitFor(t, sub, func(s State) bool { return s.Status == StatusSuccess })
	assert.Equal(t, "ETH", st.Data[0].Symbol)
	assert.Equal(t, 0, loader.Calls())
}

func TestSuccessfulCycleWritesSnapshot(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	store := cache.NewSnapshotStore(client, 10*time.Second)

	q := newTestQuery(&scriptedLoader{results: []result{{data: feed("XRP")}}}, Options{Store: store})
	_, err := q.Refetch(context.Background())
	require.NoError(t, err)

	snap, err := store.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, "XRP", snap.Advices[0].Symbol)
}

// blockingLoader waits for gate and fails with the context error if ctx ends first.
type blockingLoader struct {
	gate  chan struct{}
	data  []domain.ViewAdvice
	calls atomic.Int32
}

func (l *blockingLoader) Load(ctx context.Context) ([]domain.ViewAdvice, error) {
	l.calls.Add(1)
	select {
	case <-l.gate:
		return l.data, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestCancelledRefetchDoesNotFailSharedState(t *testing.T) {
	loader := &blockingLoader{gate: make(chan struct{}), data: feed("BTC")}
	q := newTestQuery(loader, Options{RefetchInterval: time.Hour})

	sub := q.Subscribe()
	defer sub.Unsubscribe()
	require.Eventually(t, func() bool { return loader.calls.Load() == 1 }, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := q.Refetch(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	st := q.State()
	assert.Equal(t, StatusLoading, st.Status)
	assert.NoError(t, st.Err)

	close(loader.gate)
	st = waitFor(t, sub, func(s State) bool { return s.Status == StatusSuccess || s.Status == StatusError })
	assert.Equal(t, StatusSuccess, st.Status)
	assert.NoError(t, st.Err)
	require.Len(t, st.Data, 1)
	assert.Equal(t, "BTC", st.Data[0].Symbol)
}

func TestRefetchReentersLoadingWithPreviousData(t *testing.T) {
	gate := make(chan struct{})
	loader := &scriptedLoader{results: []result{
		{data: feed("BTC")},
		{data: feed("ETH"), gate: gate},
	}}
	q := newTestQuery(loader, Options{RefetchInterval: time.Hour})

	st, err := q.Refetch(context.Background())
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, st.Status)

	done := make(chan State, 1)
	go func() {
		st, _ := q.Refetch(context.Background())
		done <- st
	}()
	require.Eventually(t, func() bool { return loader.Calls() == 2 }, time.Second, time.Millisecond)

	st = q.State()
	assert.Equal(t, StatusLoading, st.Status)
	assert.True(t, st.IsLoading)
	assert.Equal(t, "BTC", st.Data[0].Symbol)

	close(gate)
	st = <-done
	assert.Equal(t, StatusSuccess, st.Status)
	assert.False(t, st.IsLoading)
	assert.Equal(t, "ETH", st.Data[0].Symbol)
}
