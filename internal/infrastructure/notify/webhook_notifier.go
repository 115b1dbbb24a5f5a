package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/swiftlink/courier-system/internal/api/metrics"
	"github.com/swiftlink/courier-system/internal/core/domain"
	"github.com/swiftlink/courier-system/internal/infrastructure/db/redis"
)

const (
	kindDeliveryAssignment   = "delivery_assignment"
	kindPickupConfirmation   = "pickup_confirmation"
	kindDeliveryConfirmation = "delivery_confirmation"
)

// WebhookNotifier implements ports.Notifier by POSTing JSON events to a
// configured webhook endpoint. Each logical notification is claimed through
// the Redis guard before sending, so a transition replayed by a retrying
// caller emits at most one webhook. Failed sends release the claim.
type WebhookNotifier struct {
	session  *http.Client
	endpoint string
	guard    *redis.NotificationGuard
	log      zerolog.Logger
}

func NewWebhookNotifier(endpoint string, guard *redis.NotificationGuard, log zerolog.Logger) *WebhookNotifier {
	return &WebhookNotifier{
		session:  &http.Client{Timeout: 5 * time.Second},
		endpoint: endpoint,
		guard:    guard,
		log:      log,
	}
}

type webhookEvent struct {
	Kind      string    `json:"kind"`
	PacketID  string    `json:"packet_id"`
	AgentID   string    `json:"agent_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// DeliveryAssignment notifies the customer their packet has a delivery agent.
func (n *WebhookNotifier) DeliveryAssignment(ctx context.Context, packetID, agentID string) error {
	return n.send(ctx, webhookEvent{Kind: kindDeliveryAssignment, PacketID: packetID, AgentID: agentID}, agentID)
}

// PickupConfirmation notifies the customer their packet was collected.
func (n *WebhookNotifier) PickupConfirmation(ctx context.Context, packetID string) error {
	return n.send(ctx, webhookEvent{Kind: kindPickupConfirmation, PacketID: packetID}, "")
}

// DeliveryConfirmation notifies the customer their packet was delivered.
func (n *WebhookNotifier) DeliveryConfirmation(ctx context.Context, packetID string) error {
	return n.send(ctx, webhookEvent{Kind: kindDeliveryConfirmation, PacketID: packetID}, "")
}

func (n *WebhookNotifier) send(ctx context.Context, event webhookEvent, subject string) error {
	if n.guard != nil {
		ok, err := n.guard.Acquire(ctx, event.Kind, event.PacketID, subject)
		if err != nil {
			// A guard outage must not block the notification path; log and
			// send, accepting a possible duplicate over a lost notification.
			n.log.Warn().Err(err).Str("packet_id", event.PacketID).Msg("notification guard unavailable")
		} else if !ok {
			metrics.NotificationDeliveriesTotal.WithLabelValues(event.Kind, "duplicate").Inc()
			return nil
		}
	}

	event.Timestamp = time.Now().UTC()
	if err := n.post(ctx, event); err != nil {
		if n.guard != nil {
			_ = n.guard.Release(ctx, event.Kind, event.PacketID, subject)
		}
		metrics.NotificationDeliveriesTotal.WithLabelValues(event.Kind, "error").Inc()
		return fmt.Errorf("%w: %v", domain.ErrNotificationFailed, err)
	}

	metrics.NotificationDeliveriesTotal.WithLabelValues(event.Kind, "sent").Inc()
	return nil
}

func (n *WebhookNotifier) post(ctx context.Context, event webhookEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.session.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned %d", resp.StatusCode)
	}
	return nil
}
