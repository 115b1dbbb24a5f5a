package ports

import (
	"context"

	"github.com/swiftlink/courier-system/internal/core/domain"
)

// DispatchService composes the per-city views the admin hub screens render.
// These are pure filters over the packet collection plus the city context;
// all side effects stay with the assignment and packet services.
type DispatchService interface {
	// ReadyForDispatch returns at_origin_hub packets staged in the city.
	ReadyForDispatch(ctx context.Context, city string) ([]*domain.Packet, error)
	// InTransit returns in_transit packets that departed from the city.
	InTransit(ctx context.Context, city string) ([]*domain.Packet, error)
	// AwaitingAgent returns at_destination_hub packets in the city with no
	// delivery agent assigned.
	AwaitingAgent(ctx context.Context, city string) ([]*domain.Packet, error)
	// OutForDelivery returns packets out for delivery (or already holding a
	// delivery agent) bound for the city.
	OutForDelivery(ctx context.Context, city string) ([]*domain.Packet, error)
	// Vehicles returns the fleet registered to the city.
	Vehicles(ctx context.Context, city string) ([]*domain.Vehicle, error)
	// Agents returns the field agents registered to the city.
	Agents(ctx context.Context, city string) ([]*domain.Agent, error)
}
