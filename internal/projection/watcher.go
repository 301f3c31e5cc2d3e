package projection

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Mateen-Abid/carelinx-app/internal/booking"
	"github.com/Mateen-Abid/carelinx-app/internal/redisclient"
)

// Source fetches the full, unfiltered appointment set for the watched
// identity. It is called again on every change notification; a signal is
// only ever "something changed", never a delta.
type Source func(ctx context.Context) ([]booking.Appointment, error)

// Snapshot is one recomputation result. FeedbackPrompts lists records
// whose feedback flag should be surfaced now, one-shot per id per
// session.
type Snapshot struct {
	Views           Views
	FeedbackPrompts []uuid.UUID
}

// Watcher keeps the three views live for one notification scope using
// invalidate-and-recompute: every signal triggers a full refetch and a
// recompute from scratch.
type Watcher struct {
	source  Source
	sub     redisclient.Subscriber
	scope   string
	tracker *PromptTracker
	logger  zerolog.Logger
	today   func() time.Time
}

func NewWatcher(source Source, sub redisclient.Subscriber, scope string, logger zerolog.Logger) *Watcher {
	return &Watcher{
		source:  source,
		sub:     sub,
		scope:   scope,
		tracker: NewPromptTracker(),
		logger:  logger,
		today:   time.Now,
	}
}

// Run subscribes to the watcher's scope and emits a snapshot for the
// current store content, then one per received change signal, until the
// context ends. A failed refetch is logged and skipped; the next
// notification (at-least-once delivery) is the retry.
func (w *Watcher) Run(ctx context.Context) (<-chan Snapshot, error) {
	signals, err := w.sub.Subscribe(ctx, w.scope)
	if err != nil {
		return nil, err
	}

	out := make(chan Snapshot, 1)

	go func() {
		defer close(out)

		w.recompute(ctx, out)

		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-signals:
				if !ok {
					return
				}
				w.recompute(ctx, out)
			}
		}
	}()

	return out, nil
}

func (w *Watcher) recompute(ctx context.Context, out chan<- Snapshot) {
	records, err := w.source(ctx)
	if err != nil {
		w.logger.Error().Err(err).Str("scope", w.scope).Msg("projection refetch failed")
		return
	}

	snap := Snapshot{Views: Compute(records, w.today())}

	for _, rec := range records {
		if rec.ShowFeedback && rec.Status == booking.StatusPending && w.tracker.FirstSighting(rec.ID) {
			snap.FeedbackPrompts = append(snap.FeedbackPrompts, rec.ID)
		}
	}

	select {
	case out <- snap:
	case <-ctx.Done():
	}
}
