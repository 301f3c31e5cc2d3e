package projection

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mateen-Abid/carelinx-app/internal/booking"
)

type fakeSubscriber struct {
	signals chan struct{}
	err     error
}

func (s *fakeSubscriber) Subscribe(context.Context, string) (<-chan struct{}, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.signals, nil
}

type fakeSource struct {
	mu      sync.Mutex
	records []booking.Appointment
	err     error
}

func (s *fakeSource) fetch(context.Context) ([]booking.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := make([]booking.Appointment, len(s.records))
	copy(out, s.records)
	return out, nil
}

func (s *fakeSource) set(records []booking.Appointment, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = records
	s.err = err
}

func newTestWatcher(src *fakeSource, sub *fakeSubscriber) *Watcher {
	w := NewWatcher(src.fetch, sub, "bookings:patient:test", zerolog.Nop())
	w.today = func() time.Time { return today }
	return w
}

func waitSnapshot(t *testing.T, out <-chan Snapshot) Snapshot {
	t.Helper()
	select {
	case snap, ok := <-out:
		require.True(t, ok, "snapshot channel closed early")
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return Snapshot{}
	}
}

func TestWatcherEmitsInitialSnapshot(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := &fakeSource{records: []booking.Appointment{record(booking.StatusPending, 1)}}
	sub := &fakeSubscriber{signals: make(chan struct{})}

	out, err := newTestWatcher(src, sub).Run(ctx)
	require.NoError(t, err)

	snap := waitSnapshot(t, out)
	assert.Len(t, snap.Views.Pending, 1)
	assert.Empty(t, snap.FeedbackPrompts)
}

func TestWatcherRecomputesOnSignal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := record(booking.StatusPending, 1)
	src := &fakeSource{records: []booking.Appointment{rec}}
	sub := &fakeSubscriber{signals: make(chan struct{}, 1)}

	out, err := newTestWatcher(src, sub).Run(ctx)
	require.NoError(t, err)

	first := waitSnapshot(t, out)
	require.Len(t, first.Views.Pending, 1)

	rec.Status = booking.StatusConfirmed
	src.set([]booking.Appointment{rec}, nil)
	sub.signals <- struct{}{}

	second := waitSnapshot(t, out)
	assert.Empty(t, second.Views.Pending)
	assert.Len(t, second.Views.Upcoming, 1)
}

func TestWatcherDuplicateSignalsYieldIdenticalViews(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := &fakeSource{records: []booking.Appointment{
		record(booking.StatusConfirmed, 2),
		record(booking.StatusPending, 1),
	}}
	sub := &fakeSubscriber{signals: make(chan struct{}, 3)}

	out, err := newTestWatcher(src, sub).Run(ctx)
	require.NoError(t, err)

	first := waitSnapshot(t, out)

	// Nothing changed in the store; repeated signals must reproduce the
	// same views.
	for i := 0; i < 3; i++ {
		sub.signals <- struct{}{}
		snap := waitSnapshot(t, out)
		assert.Equal(t, first.Views, snap.Views)
	}
}

func TestWatcherFeedbackPromptSurfacesOnce(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	flagged := record(booking.StatusPending, 1)
	flagged.ShowFeedback = true

	src := &fakeSource{records: []booking.Appointment{flagged}}
	sub := &fakeSubscriber{signals: make(chan struct{}, 2)}

	out, err := newTestWatcher(src, sub).Run(ctx)
	require.NoError(t, err)

	first := waitSnapshot(t, out)
	assert.Equal(t, []uuid.UUID{flagged.ID}, first.FeedbackPrompts)

	// The flag is still set in the store, but the prompt was already
	// surfaced this session.
	sub.signals <- struct{}{}
	second := waitSnapshot(t, out)
	assert.Empty(t, second.FeedbackPrompts)
}

func TestWatcherSkipsSnapshotOnRefetchFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := &fakeSource{records: []booking.Appointment{record(booking.StatusPending, 1)}}
	sub := &fakeSubscriber{signals: make(chan struct{}, 2)}

	out, err := newTestWatcher(src, sub).Run(ctx)
	require.NoError(t, err)

	waitSnapshot(t, out)

	src.set(nil, assert.AnError)
	sub.signals <- struct{}{}

	// The failed recompute emits nothing; the next signal after recovery
	// produces a snapshot again.
	src2 := []booking.Appointment{record(booking.StatusConfirmed, 1)}
	// Give the failing recompute a moment to run before recovering.
	time.Sleep(50 * time.Millisecond)
	src.set(src2, nil)
	sub.signals <- struct{}{}

	snap := waitSnapshot(t, out)
	assert.Len(t, snap.Views.Upcoming, 1)
}

func TestWatcherStopsWhenContextEnds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	src := &fakeSource{}
	sub := &fakeSubscriber{signals: make(chan struct{})}

	out, err := newTestWatcher(src, sub).Run(ctx)
	require.NoError(t, err)

	waitSnapshot(t, out)
	cancel()

	select {
	case _, ok := <-out:
		assert.False(t, ok, "channel should close after cancellation")
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for channel close")
	}
}

func TestWatcherSubscribeFailure(t *testing.T) {
	sub := &fakeSubscriber{err: assert.AnError}
	w := newTestWatcher(&fakeSource{}, sub)

	out, err := w.Run(context.Background())
	assert.Error(t, err)
	assert.Nil(t, out)
}

func TestPromptTrackerOneShot(t *testing.T) {
	tracker := NewPromptTracker()
	id := uuid.New()

	assert.True(t, tracker.FirstSighting(id))
	assert.False(t, tracker.FirstSighting(id))
	assert.True(t, tracker.FirstSighting(uuid.New()), "other ids are independent")
}
