package ports

import (
	"context"
	"time"

	"github.com/swiftlink/courier-system/internal/core/domain"
)

// VehicleRepository defines persistence operations for vehicles. Load-changing
// writes are guarded conditional updates so two concurrent assignments cannot
// both pass the capacity check and commit (optimistic concurrency).
type VehicleRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Vehicle, error)
	ListByCity(ctx context.Context, city string) ([]*domain.Vehicle, error)

	// AppendPackets atomically loads the packets onto the vehicle: the write
	// only applies while the vehicle is available, the added weight still fits
	// the capacity, and the destination city is unset or equal to destination.
	// On a guard miss it returns domain.ErrConcurrentModification; the caller
	// re-reads to surface the specific rejection.
	AppendPackets(ctx context.Context, vehicleID string, packetIDs []string, totalWeightKg float64, destination string) error

	// RemovePacket atomically removes the packet and decrements the load by
	// weightKg, clearing the destination constraint when the vehicle empties.
	// Removing a packet that is not on the vehicle is a no-op.
	RemovePacket(ctx context.Context, vehicleID, packetID string, weightKg float64) error
}

// DispatchRepository performs the vehicle departure as a single atomic unit:
// every assigned packet moves at_origin_hub → in_transit with dispatched_at
// stamped and the origin-side handoff confirmation recorded, and the vehicle's
// assigned set, load and destination are reset. All-or-nothing: if any packet
// is not in at_origin_hub the whole batch aborts with
// domain.ErrPreconditionFailed.
type DispatchRepository interface {
	DispatchVehicle(ctx context.Context, vehicleID string, packetIDs []string, departedAt time.Time) error
}
