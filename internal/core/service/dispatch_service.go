package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/swiftlink/courier-system/internal/core/domain"
	"github.com/swiftlink/courier-system/internal/core/ports"
)

// DispatchService composes the per-city packet views rendered by the admin
// hub screens. It owns no state beyond the filter predicates; persistence and
// side effects stay with the repositories and the assignment engine.
type DispatchService struct {
	packets  ports.PacketRepository
	vehicles ports.VehicleRepository
	agents   ports.AgentRepository
	logger   zerolog.Logger
}

func NewDispatchService(packets ports.PacketRepository, vehicles ports.VehicleRepository, agents ports.AgentRepository, logger zerolog.Logger) *DispatchService {
	return &DispatchService{packets: packets, vehicles: vehicles, agents: agents, logger: logger}
}

// ReadyForDispatch returns at_origin_hub packets staged in the city.
func (s *DispatchService) ReadyForDispatch(ctx context.Context, city string) ([]*domain.Packet, error) {
	return s.packets.ListByStatusAndOriginCity(ctx, domain.StatusAtOriginHub, city)
}

// InTransit returns in_transit packets that departed the city's hub.
func (s *DispatchService) InTransit(ctx context.Context, city string) ([]*domain.Packet, error) {
	return s.packets.ListByStatusAndOriginCity(ctx, domain.StatusInTransit, city)
}

// AwaitingAgent returns at_destination_hub packets in the city with no
// delivery agent assigned yet.
func (s *DispatchService) AwaitingAgent(ctx context.Context, city string) ([]*domain.Packet, error) {
	return s.packets.ListAwaitingAgent(ctx, city)
}

// OutForDelivery returns packets out for delivery, or already holding a
// delivery agent, bound for the city.
func (s *DispatchService) OutForDelivery(ctx context.Context, city string) ([]*domain.Packet, error) {
	return s.packets.ListOutForDelivery(ctx, city)
}

// Vehicles returns the fleet registered to the city.
func (s *DispatchService) Vehicles(ctx context.Context, city string) ([]*domain.Vehicle, error) {
	return s.vehicles.ListByCity(ctx, city)
}

// Agents returns the field agents registered to the city.
func (s *DispatchService) Agents(ctx context.Context, city string) ([]*domain.Agent, error) {
	return s.agents.ListByCity(ctx, city)
}
