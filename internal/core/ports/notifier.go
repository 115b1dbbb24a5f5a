package ports

import "context"

// Notifier emits the fire-and-forget side effects owned by external
// collaborators. Every emission is keyed by packet id and idempotent-safe to
// retry; a failure is reported as domain.ErrNotificationFailed and must never
// roll back the state transition that triggered it.
type Notifier interface {
	// DeliveryAssignment fires exactly once per successful delivery-agent
	// assignment.
	DeliveryAssignment(ctx context.Context, packetID, agentID string) error
	// PickupConfirmation fires when an agent confirms collection.
	PickupConfirmation(ctx context.Context, packetID string) error
	// DeliveryConfirmation fires on the terminal delivered transition.
	DeliveryConfirmation(ctx context.Context, packetID string) error
}
