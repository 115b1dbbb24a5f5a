package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/swiftlink/courier-system/internal/core/domain"
	"github.com/swiftlink/courier-system/internal/core/ports"
)

// AssignmentService implements ports.AssignmentService: capacity- and
// destination-aware assignment of packets to vehicles and agents. All
// violations are rejected before any write; commits go through guarded
// repository updates so concurrent callers cannot overshoot a capacity check.
type AssignmentService struct {
	packets  ports.PacketRepository
	vehicles ports.VehicleRepository
	dispatch ports.DispatchRepository
	agents   ports.AgentRepository
	pickups  ports.PickupRequestRepository
	notifier ports.Notifier
	logger   zerolog.Logger
}

func NewAssignmentService(
	packets ports.PacketRepository,
	vehicles ports.VehicleRepository,
	dispatch ports.DispatchRepository,
	agents ports.AgentRepository,
	pickups ports.PickupRequestRepository,
	notifier ports.Notifier,
	logger zerolog.Logger,
) *AssignmentService {
	return &AssignmentService{
		packets:  packets,
		vehicles: vehicles,
		dispatch: dispatch,
		agents:   agents,
		pickups:  pickups,
		notifier: notifier,
		logger:   logger,
	}
}

// AssignPickupAgent binds a pickup agent to a pending request and advances the
// packet pending → assigned. The agent must work the packet's origin city.
func (s *AssignmentService) AssignPickupAgent(ctx context.Context, requestID, agentID string) (*ports.PickupRequestResult, error) {
	request, err := s.pickups.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status != domain.PickupRequestPending {
		return nil, fmt.Errorf("%w: pickup request is %s, expected pending", domain.ErrPreconditionFailed, request.Status)
	}

	packet, err := s.packets.FindByID(ctx, request.PacketID)
	if err != nil {
		return nil, err
	}
	if packet.Status != domain.StatusPending {
		return nil, fmt.Errorf("%w: packet is %s, expected pending", domain.ErrPreconditionFailed, packet.Status)
	}

	agent, err := s.agents.FindByID(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if !agent.IsActive {
		return nil, fmt.Errorf("%w: agent %s is inactive", domain.ErrInvalidAssignment, agentID)
	}
	if agent.City != packet.OriginCity {
		return nil, fmt.Errorf("%w: agent works %s, packet originates in %s",
			domain.ErrCityMismatch, agent.City, packet.OriginCity)
	}

	if err := packet.TransitionTo(domain.StatusAssigned, "pickup agent assigned"); err != nil {
		return nil, err
	}
	packet.AssignedPickupAgent = agentID
	if err := s.packets.Update(ctx, packet, domain.StatusPending); err != nil {
		return nil, err
	}

	request.Status = domain.PickupRequestAssigned
	request.AssignedAgent = agentID
	if err := s.pickups.Update(ctx, request, domain.PickupRequestPending); err != nil {
		// The packet half already committed; revert it so the two records
		// never disagree about the assignment.
		packet.AssignedPickupAgent = ""
		s.revertPacket(ctx, packet, domain.StatusPending, domain.StatusAssigned, "pickup agent assignment rolled back")
		return nil, err
	}

	s.logger.Info().
		Str("request_id", requestID).
		Str("packet_id", packet.ID).
		Str("agent_id", agentID).
		Msg("pickup agent assigned")

	return &ports.PickupRequestResult{Request: request, Packet: packet}, nil
}

// UnassignPickupAgent clears the agent and unconditionally reverts the packet
// to pending. Idempotent: a second call is a no-op success with the
// AlreadyUnassigned flag set.
func (s *AssignmentService) UnassignPickupAgent(ctx context.Context, requestID string) (*ports.PickupRequestResult, error) {
	request, err := s.pickups.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status == domain.PickupRequestPending && request.AssignedAgent == "" {
		return &ports.PickupRequestResult{Request: request, AlreadyUnassigned: true}, nil
	}
	if request.Status != domain.PickupRequestAssigned {
		return nil, fmt.Errorf("%w: pickup request is %s, cannot unassign after collection", domain.ErrPreconditionFailed, request.Status)
	}

	packet, err := s.packets.FindByID(ctx, request.PacketID)
	if err != nil {
		return nil, err
	}
	previousAgent := request.AssignedAgent
	packetReverted := false
	if packet.Status == domain.StatusAssigned {
		if err := packet.TransitionTo(domain.StatusPending, "pickup agent unassigned"); err != nil {
			return nil, err
		}
		packet.AssignedPickupAgent = ""
		if err := s.packets.Update(ctx, packet, domain.StatusAssigned); err != nil {
			return nil, err
		}
		packetReverted = true
	}

	request.Status = domain.PickupRequestPending
	request.AssignedAgent = ""
	if err := s.pickups.Update(ctx, request, domain.PickupRequestAssigned); err != nil {
		if packetReverted {
			// Restore the packet half so the request keeps its agent on both
			// records rather than on neither.
			packet.AssignedPickupAgent = previousAgent
			s.revertPacket(ctx, packet, domain.StatusAssigned, domain.StatusPending, "pickup agent unassignment rolled back")
		}
		return nil, err
	}

	s.logger.Info().Str("request_id", requestID).Str("packet_id", packet.ID).Msg("pickup agent unassigned")

	return &ports.PickupRequestResult{Request: request, Packet: packet}, nil
}

// AssignToVehicle loads a single packet onto a vehicle. Status does not change
// until the vehicle dispatches.
func (s *AssignmentService) AssignToVehicle(ctx context.Context, packetID, vehicleID string) (*ports.PacketResult, error) {
	packets, err := s.AssignMultipleToVehicle(ctx, []string{packetID}, vehicleID)
	if err != nil {
		return nil, err
	}
	return &ports.PacketResult{Packet: packets[0]}, nil
}

// AssignMultipleToVehicle loads a batch onto a vehicle after the core
// constraint check: the batch's resolved destinations must agree with each
// other and with the vehicle's destination city, and the summed weight must
// fit the remaining capacity. The capacity check-and-increment commits as a
// single guarded write.
func (s *AssignmentService) AssignMultipleToVehicle(ctx context.Context, packetIDs []string, vehicleID string) ([]*domain.Packet, error) {
	if len(packetIDs) == 0 {
		return nil, fmt.Errorf("%w: empty packet batch", domain.ErrPreconditionFailed)
	}

	packets, err := s.packets.FindByIDs(ctx, packetIDs)
	if err != nil {
		return nil, err
	}
	if len(packets) != len(packetIDs) {
		return nil, fmt.Errorf("%w: %d of %d packets", domain.ErrPacketNotFound, len(packetIDs)-len(packets), len(packetIDs))
	}

	var totalWeight float64
	destination := ""
	for _, p := range packets {
		if p.Status != domain.StatusAtOriginHub {
			return nil, fmt.Errorf("%w: packet %s is %s, expected at_origin_hub", domain.ErrPreconditionFailed, p.ID, p.Status)
		}
		if p.AssignedVehicle != "" {
			return nil, fmt.Errorf("%w: packet %s is already on vehicle %s", domain.ErrPreconditionFailed, p.ID, p.AssignedVehicle)
		}
		dest, err := p.ResolvedDestination()
		if err != nil {
			return nil, fmt.Errorf("packet %s: %w", p.ID, err)
		}
		if destination == "" {
			destination = dest
		} else if dest != destination {
			return nil, fmt.Errorf("%w: batch mixes destinations %s and %s", domain.ErrDestinationMismatch, destination, dest)
		}
		totalWeight += p.WeightKg
	}

	vehicle, err := s.vehicles.FindByID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	for _, p := range packets {
		// Catches drift where the vehicle still lists a packet whose own
		// vehicle reference was cleared; a second push would double-count
		// the weight.
		if vehicle.HasPacket(p.ID) {
			return nil, fmt.Errorf("%w: packet %s is already loaded on vehicle %s", domain.ErrPreconditionFailed, p.ID, vehicleID)
		}
	}
	if err := vehicle.CanAccept(totalWeight, destination); err != nil {
		return nil, err
	}

	// Commit point for capacity: the repository re-checks the guard
	// atomically, so a concurrent assignment cannot overshoot.
	if err := s.vehicles.AppendPackets(ctx, vehicleID, packetIDs, totalWeight, destination); err != nil {
		if errors.Is(err, domain.ErrConcurrentModification) {
			return nil, s.explainAppendConflict(ctx, vehicleID, totalWeight, destination, err)
		}
		return nil, err
	}

	committed := make([]*domain.Packet, 0, len(packets))
	for _, p := range packets {
		p.AssignedVehicle = vehicleID
		if err := s.packets.Update(ctx, p, domain.StatusAtOriginHub); err != nil {
			s.rollbackVehicleAssignment(ctx, vehicleID, committed, packets)
			return nil, err
		}
		committed = append(committed, p)
	}

	s.logger.Info().
		Str("vehicle_id", vehicleID).
		Int("packets", len(packets)).
		Float64("total_weight_kg", totalWeight).
		Str("destination", destination).
		Msg("packets assigned to vehicle")

	return packets, nil
}

// explainAppendConflict re-reads the vehicle after a guard miss so the caller
// receives the specific rejection rather than a bare conflict.
func (s *AssignmentService) explainAppendConflict(ctx context.Context, vehicleID string, totalWeight float64, destination string, orig error) error {
	vehicle, err := s.vehicles.FindByID(ctx, vehicleID)
	if err != nil {
		return orig
	}
	if err := vehicle.CanAccept(totalWeight, destination); err != nil {
		return err
	}
	return orig
}

// rollbackVehicleAssignment undoes a half-applied batch so no partial
// assignment is observable. Best effort: failures are logged, not returned.
func (s *AssignmentService) rollbackVehicleAssignment(ctx context.Context, vehicleID string, committed, all []*domain.Packet) {
	for _, p := range committed {
		p.AssignedVehicle = ""
		if err := s.packets.Update(ctx, p, domain.StatusAtOriginHub); err != nil {
			s.logger.Error().Err(err).Str("packet_id", p.ID).Msg("rollback: failed to clear vehicle reference")
		}
	}
	for _, p := range all {
		if err := s.vehicles.RemovePacket(ctx, vehicleID, p.ID, p.WeightKg); err != nil {
			s.logger.Error().Err(err).Str("packet_id", p.ID).Msg("rollback: failed to unload packet")
		}
	}
}

// UnassignFromVehicle removes a packet from its vehicle before dispatch.
// Idempotent: a packet not on any vehicle is a no-op success.
func (s *AssignmentService) UnassignFromVehicle(ctx context.Context, packetID string) (*ports.PacketResult, error) {
	packet, err := s.packets.FindByID(ctx, packetID)
	if err != nil {
		return nil, err
	}
	if packet.AssignedVehicle == "" {
		return &ports.PacketResult{Packet: packet, AlreadyUnassigned: true}, nil
	}
	if packet.Status != domain.StatusAtOriginHub {
		return nil, fmt.Errorf("%w: packet %s is %s", domain.ErrAlreadyDispatched, packetID, packet.Status)
	}

	vehicleID := packet.AssignedVehicle
	if err := s.vehicles.RemovePacket(ctx, vehicleID, packetID, packet.WeightKg); err != nil {
		return nil, err
	}

	packet.AssignedVehicle = ""
	if err := s.packets.Update(ctx, packet, domain.StatusAtOriginHub); err != nil {
		return nil, err
	}

	s.logger.Info().Str("packet_id", packetID).Str("vehicle_id", vehicleID).Msg("packet unassigned from vehicle")

	return &ports.PacketResult{Packet: packet}, nil
}

// DispatchVehicle departs the vehicle: every assigned packet transitions
// at_origin_hub → in_transit with dispatched_at stamped and the origin-side
// handoff confirmed, then the vehicle resets to empty and becomes available
// again. All-or-nothing across the batch.
func (s *AssignmentService) DispatchVehicle(ctx context.Context, vehicleID string) (*domain.Vehicle, error) {
	vehicle, err := s.vehicles.FindByID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	if len(vehicle.AssignedPacketIDs) == 0 {
		return nil, fmt.Errorf("%w: vehicle %s has no assigned packets", domain.ErrPreconditionFailed, vehicleID)
	}

	packets, err := s.packets.FindByIDs(ctx, vehicle.AssignedPacketIDs)
	if err != nil {
		return nil, err
	}
	for _, p := range packets {
		if p.Status != domain.StatusAtOriginHub {
			return nil, fmt.Errorf("%w: packet %s is %s, dispatch aborted", domain.ErrPreconditionFailed, p.ID, p.Status)
		}
	}

	departedAt := time.Now().UTC()
	if err := s.dispatch.DispatchVehicle(ctx, vehicleID, vehicle.AssignedPacketIDs, departedAt); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("vehicle_id", vehicleID).
		Int("packets", len(packets)).
		Str("destination", vehicle.DestinationCity).
		Time("departed_at", departedAt).
		Msg("vehicle dispatched")

	vehicle.AssignedPacketIDs = nil
	vehicle.CurrentLoadKg = 0
	vehicle.DestinationCity = ""
	return vehicle, nil
}

// AssignDeliveryAgent binds a delivery agent to a delivery-type packet at the
// destination hub (or reassigns while out for delivery) and emits the
// delivery-assignment notification exactly once per successful assignment.
func (s *AssignmentService) AssignDeliveryAgent(ctx context.Context, packetID, agentID string) (*ports.PacketResult, error) {
	packet, err := s.packets.FindByID(ctx, packetID)
	if err != nil {
		return nil, err
	}
	if packet.DeliveryType != domain.DeliveryTypeDelivery {
		return nil, fmt.Errorf("%w: packet %s is hub-pickup type", domain.ErrInvalidAssignment, packetID)
	}
	if packet.Status != domain.StatusAtDestinationHub && packet.Status != domain.StatusOutForDelivery {
		return nil, fmt.Errorf("%w: packet is %s, expected at_destination_hub or out_for_delivery",
			domain.ErrPreconditionFailed, packet.Status)
	}
	if packet.AssignedDeliveryAgent == agentID {
		// Idempotent replay: same binding, no second notification.
		return &ports.PacketResult{Packet: packet}, nil
	}

	agent, err := s.agents.FindByID(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if !agent.IsActive {
		return nil, fmt.Errorf("%w: agent %s is inactive", domain.ErrInvalidAssignment, agentID)
	}
	destination, err := packet.ResolvedDestination()
	if err != nil {
		return nil, err
	}
	if agent.City != destination {
		return nil, fmt.Errorf("%w: agent works %s, packet resolves to %s",
			domain.ErrCityMismatch, agent.City, destination)
	}

	expected := packet.Status
	packet.AssignedDeliveryAgent = agentID
	if packet.Status == domain.StatusAtDestinationHub {
		if err := packet.TransitionTo(domain.StatusOutForDelivery, "delivery agent assigned"); err != nil {
			return nil, err
		}
	} else {
		packet.StatusHistory = append(packet.StatusHistory, domain.StatusHistoryEntry{
			Status:    packet.Status,
			Timestamp: time.Now().UTC(),
			Notes:     "delivery agent reassigned",
		})
	}
	if err := s.packets.Update(ctx, packet, expected); err != nil {
		return nil, err
	}

	// Side effect after commit; failure is logged, never rolled back.
	if err := s.notifier.DeliveryAssignment(ctx, packet.ID, agentID); err != nil {
		s.logger.Warn().Err(err).Str("packet_id", packet.ID).Msg("delivery-assignment notification failed")
	}

	s.logger.Info().Str("packet_id", packetID).Str("agent_id", agentID).Msg("delivery agent assigned")

	return &ports.PacketResult{Packet: packet}, nil
}

// UnassignDeliveryAgent clears the delivery agent and reverts an
// out_for_delivery packet to at_destination_hub. Timestamps recorded on
// completed phases are untouched. Idempotent.
func (s *AssignmentService) UnassignDeliveryAgent(ctx context.Context, packetID string) (*ports.PacketResult, error) {
	packet, err := s.packets.FindByID(ctx, packetID)
	if err != nil {
		return nil, err
	}
	if packet.AssignedDeliveryAgent == "" {
		return &ports.PacketResult{Packet: packet, AlreadyUnassigned: true}, nil
	}
	if packet.Status != domain.StatusOutForDelivery && packet.Status != domain.StatusAtDestinationHub {
		return nil, fmt.Errorf("%w: packet is %s, cannot unassign delivery agent",
			domain.ErrPreconditionFailed, packet.Status)
	}

	expected := packet.Status
	packet.AssignedDeliveryAgent = ""
	if packet.Status == domain.StatusOutForDelivery {
		if err := packet.TransitionTo(domain.StatusAtDestinationHub, "delivery agent unassigned"); err != nil {
			return nil, err
		}
	}
	if err := s.packets.Update(ctx, packet, expected); err != nil {
		return nil, err
	}

	s.logger.Info().Str("packet_id", packetID).Msg("delivery agent unassigned")

	return &ports.PacketResult{Packet: packet}, nil
}

// revertPacket undoes the packet half of a two-record write after the second
// record failed to commit. Best effort: a failed revert is logged and left to
// the guarded update on the next mutation.
func (s *AssignmentService) revertPacket(ctx context.Context, p *domain.Packet, to, expected domain.PacketStatus, notes string) {
	if err := p.TransitionTo(to, notes); err != nil {
		s.logger.Error().Err(err).Str("packet_id", p.ID).Msg("revert: illegal compensating transition")
		return
	}
	if err := s.packets.Update(ctx, p, expected); err != nil {
		s.logger.Error().Err(err).Str("packet_id", p.ID).Msg("revert: failed to restore packet")
	}
}
