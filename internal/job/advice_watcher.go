package job

import (
	"context"
	"time"

	"signal-deck/internal/domain"
	"signal-deck/internal/query"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type AdviceSubscriber interface {
	Subscribe() *query.Subscription
}

type ActionChangeSink interface {
	NotifyActionChanges(ctx context.Context, changes []domain.ActionChange) error
}

// AdviceWatcher follows the advice query and reports symbols whose action
// flipped between two successful refreshes.
type AdviceWatcher struct {
	tracer trace.Tracer
	feed   AdviceSubscriber
	sink   ActionChangeSink

	prev       map[string]domain.AdviceAction
	lastUpdate time.Time
}

func NewAdviceWatcher(tracer trace.Tracer, feed AdviceSubscriber, sink ActionChangeSink) *AdviceWatcher {
	return &AdviceWatcher{
		tracer: tracer,
		feed:   feed,
		sink:   sink,
	}
}

// Start blocks until ctx is cancelled. The first successful state only
// primes the baseline.
func (w *AdviceWatcher) Start(ctx context.Context) {
	if w.feed == nil || w.sink == nil {
		log.Info("advice watcher disabled")
		<-ctx.Done()
		return
	}

	sub := w.feed.Subscribe()
	defer sub.Unsubscribe()
	log.Info("advice watcher starting")

	for {
		select {
		case <-ctx.Done():
			log.Info("advice watcher stopped")
			return
		case st, ok := <-sub.Updates():
			if !ok {
				return
			}
			w.observe(ctx, st)
		}
	}
}

func (w *AdviceWatcher) observe(ctx context.Context, st query.State) {
	if st.Status != query.StatusSuccess || !st.UpdatedAt.After(w.lastUpdate) {
		return
	}
	w.lastUpdate = st.UpdatedAt

	if w.prev == nil {
		w.prev = domain.LatestActions(st.Data)
		return
	}

	changes := domain.DiffActions(w.prev, st.Data)
	w.prev = domain.LatestActions(st.Data)
	if len(changes) == 0 {
		return
	}

	ctx, span := w.tracer.Start(ctx, "advice-watcher.notify")
	defer span.End()
	span.SetAttributes(attribute.Int("changes", len(changes)))

	if err := w.sink.NotifyActionChanges(ctx, changes); err != nil {
		span.RecordError(err)
		log.Warn("action change alert failed", "err", err)
	}
}
