package ports

import (
	"context"

	"github.com/swiftlink/courier-system/internal/core/domain"
)

// PacketRepository defines persistence operations for packets.
//
// Update is a guarded replace: the write only applies while the stored packet
// still carries expectedStatus. A miss means a concurrent caller transitioned
// the packet first; implementations return domain.ErrConcurrentModification
// so no partial update is ever observable.
type PacketRepository interface {
	Create(ctx context.Context, p *domain.Packet) error
	FindByID(ctx context.Context, id string) (*domain.Packet, error)
	FindByTrackingCode(ctx context.Context, code string) (*domain.Packet, error)
	FindByIDs(ctx context.Context, ids []string) ([]*domain.Packet, error)
	Update(ctx context.Context, p *domain.Packet, expectedStatus domain.PacketStatus) error

	// ListByStatusAndOriginCity returns packets with the given status whose
	// origin city matches (admin hub views: ready-for-dispatch, in-transit).
	ListByStatusAndOriginCity(ctx context.Context, status domain.PacketStatus, city string) ([]*domain.Packet, error)
	// ListAwaitingAgent returns at_destination_hub packets without a delivery
	// agent, filtered by destination city.
	ListAwaitingAgent(ctx context.Context, city string) ([]*domain.Packet, error)
	// ListOutForDelivery returns packets that are out_for_delivery or carry an
	// assigned delivery agent, filtered by destination city.
	ListOutForDelivery(ctx context.Context, city string) ([]*domain.Packet, error)
	// ListActiveForAgent returns the packets an agent can currently act on:
	// pickup assignments not yet collected and delivery assignments not yet
	// delivered.
	ListActiveForAgent(ctx context.Context, agentID string) ([]*domain.Packet, error)
}
