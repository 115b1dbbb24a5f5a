package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const notifyMarkTTL = 24 * time.Hour

// NotificationGuard provides exactly-once delivery semantics for outbound
// notifications, backed by Redis SET NX. The guard key identifies the logical
// notification, not the attempt, so retries after a process crash stay
// suppressed until the TTL lapses.
// Key format: notify:<kind>:<packet_id>:<subject>
type NotificationGuard struct {
	client *redis.Client
}

// NewNotificationGuard creates a NotificationGuard wrapping the given client.
func NewNotificationGuard(client *redis.Client) *NotificationGuard {
	return &NotificationGuard{client: client}
}

// Acquire claims the notification for sending. It returns true exactly once
// per key within the TTL window; every other caller gets false and must skip
// the send.
func (g *NotificationGuard) Acquire(ctx context.Context, kind, packetID, subject string) (bool, error) {
	ok, err := g.client.SetNX(ctx, g.key(kind, packetID, subject), "1", notifyMarkTTL).Result()
	if err != nil {
		return false, fmt.Errorf("notification guard: %w", err)
	}
	return ok, nil
}

// Release drops the claim so a failed send can be retried immediately.
func (g *NotificationGuard) Release(ctx context.Context, kind, packetID, subject string) error {
	return g.client.Del(ctx, g.key(kind, packetID, subject)).Err()
}

func (g *NotificationGuard) key(kind, packetID, subject string) string {
	return fmt.Sprintf("notify:%s:%s:%s", kind, packetID, subject)
}
