package ports

import (
	"context"

	"github.com/swiftlink/courier-system/internal/core/domain"
)

// PacketResult wraps a packet returned by a mutating operation, together with
// flags that distinguish idempotent replays from fresh mutations.
type PacketResult struct {
	Packet *domain.Packet
	// AlreadyUnassigned is true when an unassign call found nothing to undo.
	// The call still succeeds; the caller may surface it separately.
	AlreadyUnassigned bool
}

// PickupRequestResult wraps a pickup request returned by assignment operations.
type PickupRequestResult struct {
	Request           *domain.PickupRequest
	Packet            *domain.Packet
	AlreadyUnassigned bool
}

// AssignmentService is the capacity- and destination-aware assignment engine:
// packets to vehicles for hub dispatch, packets to agents for pickup and
// delivery. It validates only; vehicle selection is the caller's decision.
type AssignmentService interface {
	AssignPickupAgent(ctx context.Context, requestID, agentID string) (*PickupRequestResult, error)
	UnassignPickupAgent(ctx context.Context, requestID string) (*PickupRequestResult, error)

	AssignToVehicle(ctx context.Context, packetID, vehicleID string) (*PacketResult, error)
	AssignMultipleToVehicle(ctx context.Context, packetIDs []string, vehicleID string) ([]*domain.Packet, error)
	UnassignFromVehicle(ctx context.Context, packetID string) (*PacketResult, error)
	DispatchVehicle(ctx context.Context, vehicleID string) (*domain.Vehicle, error)

	AssignDeliveryAgent(ctx context.Context, packetID, agentID string) (*PacketResult, error)
	UnassignDeliveryAgent(ctx context.Context, packetID string) (*PacketResult, error)
}
