package redisclient

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func waitSignal(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change signal")
	}
}

func TestPublishReachesScopedSubscriber(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := newTestClient(t)
	patientID := uuid.New()
	scope := PatientScope(patientID)

	signals, err := NewRedisSubscriber(client).Subscribe(ctx, scope)
	require.NoError(t, err)

	NewRedisNotifier(client).PublishChange(ctx, scope)
	waitSignal(t, signals)
}

func TestPublishAlwaysHitsFirehose(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := newTestClient(t)

	signals, err := NewRedisSubscriber(client).Subscribe(ctx, ChannelAll)
	require.NoError(t, err)

	// Published to a patient scope only, but the firehose still gets it.
	NewRedisNotifier(client).PublishChange(ctx, PatientScope(uuid.New()))
	waitSignal(t, signals)
}

func TestSubscriberIgnoresOtherScopes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := newTestClient(t)

	signals, err := NewRedisSubscriber(client).Subscribe(ctx, PatientScope(uuid.New()))
	require.NoError(t, err)

	require.NoError(t, client.Publish(ctx, PatientScope(uuid.New()), "changed").Err())

	select {
	case <-signals:
		t.Fatal("received a signal for a foreign scope")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestSubscriberChannelClosesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	client := newTestClient(t)

	signals, err := NewRedisSubscriber(client).Subscribe(ctx, ChannelAll)
	require.NoError(t, err)

	cancel()

	select {
	case _, ok := <-signals:
		assert.False(t, ok, "signal channel should close after cancellation")
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for channel close")
	}
}

func TestClinicScopeAnchoring(t *testing.T) {
	id := uuid.New()

	assert.Equal(t, "bookings:clinic:"+id.String(), ClinicScope(&id, "City Clinic"))

	// Legacy records anchored by display name only: sluggified so both
	// writer and reader derive the same channel.
	assert.Equal(t, "bookings:clinic:city-clinic", ClinicScope(nil, "City Clinic"))
	assert.Equal(t, "bookings:clinic:city-clinic", ClinicScope(nil, "  City   Clinic  "))
}

func TestPatientScope(t *testing.T) {
	id := uuid.New()
	assert.Equal(t, "bookings:patient:"+id.String(), PatientScope(id))
}
