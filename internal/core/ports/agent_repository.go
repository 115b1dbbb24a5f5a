package ports

import (
	"context"

	"github.com/swiftlink/courier-system/internal/core/domain"
)

// AgentRepository defines read operations for agents. Agent onboarding and
// fleet management live outside this core.
type AgentRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Agent, error)
	ListByCity(ctx context.Context, city string) ([]*domain.Agent, error)
}

// PickupRequestRepository defines persistence operations for pickup requests.
// Update is guarded by the expected status, mirroring PacketRepository.
type PickupRequestRepository interface {
	Create(ctx context.Context, r *domain.PickupRequest) error
	FindByID(ctx context.Context, id string) (*domain.PickupRequest, error)
	FindByPacketID(ctx context.Context, packetID string) (*domain.PickupRequest, error)
	Update(ctx context.Context, r *domain.PickupRequest, expectedStatus domain.PickupRequestStatus) error
}
