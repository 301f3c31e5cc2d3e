package redisclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ChannelAll is the firehose scope; every booking change is published here
// in addition to its patient and clinic scopes.
const ChannelAll = "bookings:all"

// Notifier publishes change notifications for booking scopes. The payload
// carries no delta: subscribers are expected to refetch and recompute.
// Delivery is at-least-once and may be duplicated or reordered.
type Notifier interface {
	PublishChange(ctx context.Context, scopes ...string)
}

// Subscriber delivers change signals for a single scope. The returned
// channel carries one empty struct per received notification.
type Subscriber interface {
	Subscribe(ctx context.Context, scope string) (<-chan struct{}, error)
}

func PatientScope(patientID uuid.UUID) string {
	return fmt.Sprintf("bookings:patient:%s", patientID)
}

// ClinicScope builds a clinic channel name. Records anchored only by a
// display name use the slugged name so both anchoring paths land on the
// same channel.
func ClinicScope(clinicID *uuid.UUID, clinicName string) string {
	if clinicID != nil {
		return fmt.Sprintf("bookings:clinic:%s", clinicID)
	}
	slug := strings.ToLower(strings.Join(strings.Fields(clinicName), "-"))
	return fmt.Sprintf("bookings:clinic:%s", slug)
}

type redisNotifier struct {
	client *redis.Client
}

// NewRedisNotifier creates a Notifier backed by Redis pub/sub.
func NewRedisNotifier(client *redis.Client) Notifier {
	return &redisNotifier{client: client}
}

// PublishChange is fire-and-forget: a failed publish must never fail the
// write that triggered it, so errors are swallowed here and the caller
// keeps going. Subscribers that miss a signal catch up on the next one.
func (n *redisNotifier) PublishChange(ctx context.Context, scopes ...string) {
	for _, scope := range scopes {
		_ = n.client.Publish(ctx, scope, "changed").Err()
	}
	_ = n.client.Publish(ctx, ChannelAll, "changed").Err()
}

type redisSubscriber struct {
	client *redis.Client
}

// NewRedisSubscriber creates a Subscriber backed by Redis pub/sub.
func NewRedisSubscriber(client *redis.Client) Subscriber {
	return &redisSubscriber{client: client}
}

func (s *redisSubscriber) Subscribe(ctx context.Context, scope string) (<-chan struct{}, error) {
	pubsub := s.client.Subscribe(ctx, scope)

	// Force the subscription to be established before returning so callers
	// do not miss notifications published right after Subscribe.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", scope, err)
	}

	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-ch:
				if !ok {
					return
				}
				// Coalesce: one buffered signal is enough, consumers
				// refetch the whole set anyway.
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()

	return out, nil
}
