package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/swiftlink/courier-system/internal/core/domain"
	"github.com/swiftlink/courier-system/internal/core/ports"
)

// PacketService owns packet booking and the lifecycle transitions outside the
// assignment engine: collection confirmation, the two-phase hub handoff, and
// the terminal delivery/pickup confirmations. Every transition is validated
// against the state machine and committed through a guarded update so an
// illegal attempt performs no mutation.
type PacketService struct {
	packets  ports.PacketRepository
	pickups  ports.PickupRequestRepository
	notifier ports.Notifier
	logger   zerolog.Logger
}

func NewPacketService(
	packets ports.PacketRepository,
	pickups ports.PickupRequestRepository,
	notifier ports.Notifier,
	logger zerolog.Logger,
) *PacketService {
	return &PacketService{packets: packets, pickups: pickups, notifier: notifier, logger: logger}
}

// CreatePacket books a new packet at an origin hub in pending status with a
// generated tracking code.
func (s *PacketService) CreatePacket(ctx context.Context, input ports.CreatePacketInput) (*domain.Packet, error) {
	deliveryType := domain.DeliveryType(input.DeliveryType)
	if deliveryType != domain.DeliveryTypeDelivery && deliveryType != domain.DeliveryTypePickup {
		return nil, fmt.Errorf("%w: unknown delivery type %q", domain.ErrPreconditionFailed, input.DeliveryType)
	}
	if input.WeightKg <= 0 {
		return nil, fmt.Errorf("%w: weight must be positive", domain.ErrPreconditionFailed)
	}

	now := time.Now().UTC()
	packet := &domain.Packet{
		ID:           newID(),
		TrackingCode: generateTrackingCode(),
		Description:  input.Description,
		Category:     input.Category,
		WeightKg:     input.WeightKg,
		DeliveryType: deliveryType,

		OriginCity:             input.OriginCity,
		OriginCoordinates:      domain.Coordinates{Lat: input.OriginCoordinates.Lat, Lng: input.OriginCoordinates.Lng},
		DestinationAddress:     input.DestinationAddress,
		DestinationCity:        input.DestinationCity,
		DestinationHub:         input.DestinationHub,
		DestinationCoordinates: domain.Coordinates{Lat: input.DestinationCoordinates.Lat, Lng: input.DestinationCoordinates.Lng},

		Status:    domain.StatusPending,
		CreatedAt: now,
		StatusHistory: []domain.StatusHistoryEntry{
			{Status: domain.StatusPending, Timestamp: now, Notes: "packet created"},
		},
	}
	if _, err := packet.ResolvedDestination(); err != nil {
		return nil, err
	}

	if err := s.packets.Create(ctx, packet); err != nil {
		s.logger.Error().Err(err).Msg("failed to create packet")
		return nil, err
	}

	s.logger.Info().
		Str("tracking_code", packet.TrackingCode).
		Str("origin_city", packet.OriginCity).
		Str("delivery_type", string(packet.DeliveryType)).
		Msg("packet created")

	return packet, nil
}

// CreatePickupRequest books a packet and bundles it with the customer for
// agent pickup.
func (s *PacketService) CreatePickupRequest(ctx context.Context, input ports.CreatePickupRequestInput) (*domain.PickupRequest, error) {
	packet, err := s.CreatePacket(ctx, input.Packet)
	if err != nil {
		return nil, err
	}

	request := &domain.PickupRequest{
		ID: newID(),
		Customer: domain.Person{
			Name:  input.Customer.Name,
			Email: input.Customer.Email,
			Phone: input.Customer.Phone,
		},
		PacketID:  packet.ID,
		Status:    domain.PickupRequestPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.pickups.Create(ctx, request); err != nil {
		return nil, err
	}

	s.logger.Info().Str("request_id", request.ID).Str("packet_id", packet.ID).Msg("pickup request created")

	return request, nil
}

// Track returns the packet behind a tracking code.
func (s *PacketService) Track(ctx context.Context, trackingCode string) (*domain.Packet, error) {
	return s.packets.FindByTrackingCode(ctx, trackingCode)
}

// AgentConfirmCollected records the assigned → collected transition. Only the
// assigned pickup agent may confirm, and this is the single point where the
// declared weight may be corrected.
func (s *PacketService) AgentConfirmCollected(ctx context.Context, input ports.AgentConfirmInput) (*domain.Packet, error) {
	packet, err := s.packets.FindByID(ctx, input.PacketID)
	if err != nil {
		return nil, err
	}
	if packet.Status != domain.StatusAssigned {
		return nil, fmt.Errorf("%w: packet is %s, expected assigned", domain.ErrPreconditionFailed, packet.Status)
	}
	if packet.AssignedPickupAgent != input.AgentID {
		return nil, fmt.Errorf("%w: only the assigned pickup agent may confirm collection", domain.ErrInvalidAssignment)
	}
	if input.WeightKg != nil {
		if *input.WeightKg <= 0 {
			return nil, fmt.Errorf("%w: corrected weight must be positive", domain.ErrPreconditionFailed)
		}
		packet.WeightKg = *input.WeightKg
	}

	if err := packet.TransitionTo(domain.StatusCollected, "collected by pickup agent"); err != nil {
		return nil, err
	}
	if err := s.packets.Update(ctx, packet, domain.StatusAssigned); err != nil {
		return nil, err
	}

	s.resolvePickupRequest(ctx, packet.ID)

	if err := s.notifier.PickupConfirmation(ctx, packet.ID); err != nil {
		s.logger.Warn().Err(err).Str("packet_id", packet.ID).Msg("pickup-confirmation notification failed")
	}

	s.logger.Info().Str("packet_id", packet.ID).Str("agent_id", input.AgentID).Msg("packet collected")

	return packet, nil
}

// resolvePickupRequest marks the originating pickup request collected, when
// one exists. Hub drop-offs have none; the miss is not an error.
func (s *PacketService) resolvePickupRequest(ctx context.Context, packetID string) {
	request, err := s.pickups.FindByPacketID(ctx, packetID)
	if err != nil {
		return
	}
	request.Status = domain.PickupRequestCollected
	if err := s.pickups.Update(ctx, request, domain.PickupRequestAssigned); err != nil {
		s.logger.Warn().Err(err).Str("packet_id", packetID).Msg("failed to resolve pickup request")
	}
}

// ConfirmOriginHub records hub receipt of a collected packet. No agent is
// required; an operator action confirms the handover.
func (s *PacketService) ConfirmOriginHub(ctx context.Context, packetID string) (*domain.Packet, error) {
	packet, err := s.packets.FindByID(ctx, packetID)
	if err != nil {
		return nil, err
	}
	if packet.Status != domain.StatusCollected {
		return nil, fmt.Errorf("%w: packet is %s, expected collected", domain.ErrPreconditionFailed, packet.Status)
	}

	if err := packet.TransitionTo(domain.StatusAtOriginHub, "received at origin hub"); err != nil {
		return nil, err
	}
	if err := s.packets.Update(ctx, packet, domain.StatusCollected); err != nil {
		return nil, err
	}

	s.logger.Info().Str("packet_id", packetID).Str("hub", packet.OriginCity).Msg("packet at origin hub")

	return packet, nil
}

// ConfirmDestinationHub records the destination side of the two-phase hub
// handoff. It is only legal after the origin-side confirmation recorded at
// dispatch, so destination_hub_confirmed_at can never precede dispatched_at.
func (s *PacketService) ConfirmDestinationHub(ctx context.Context, packetID string) (*domain.Packet, error) {
	packet, err := s.packets.FindByID(ctx, packetID)
	if err != nil {
		return nil, err
	}
	if packet.Status != domain.StatusInTransit {
		return nil, fmt.Errorf("%w: packet is %s, expected in_transit", domain.ErrPreconditionFailed, packet.Status)
	}
	if !packet.ConfirmedByOrigin {
		return nil, fmt.Errorf("%w: origin-side confirmation missing", domain.ErrPreconditionFailed)
	}

	if err := packet.TransitionTo(domain.StatusAtDestinationHub, "received at destination hub"); err != nil {
		return nil, err
	}
	if err := s.packets.Update(ctx, packet, domain.StatusInTransit); err != nil {
		return nil, err
	}

	s.logger.Info().Str("packet_id", packetID).Msg("packet at destination hub")

	return packet, nil
}

// MarkDelivered records the terminal out_for_delivery → delivered transition
// for home delivery, with the recipient's signature as proof.
func (s *PacketService) MarkDelivered(ctx context.Context, packetID string, proof ports.ProofInput) (*domain.Packet, error) {
	packet, err := s.packets.FindByID(ctx, packetID)
	if err != nil {
		return nil, err
	}
	if packet.Status != domain.StatusOutForDelivery {
		return nil, fmt.Errorf("%w: packet is %s, expected out_for_delivery", domain.ErrPreconditionFailed, packet.Status)
	}
	if proof.SignatureBase64 == "" {
		return nil, fmt.Errorf("%w: signature is required for delivery confirmation", domain.ErrPreconditionFailed)
	}

	packet.Proof = &domain.Proof{SignatureBase64: proof.SignatureBase64, NationalID: proof.NationalID}
	if err := packet.TransitionTo(domain.StatusDelivered, "delivered to recipient"); err != nil {
		return nil, err
	}
	if err := s.packets.Update(ctx, packet, domain.StatusOutForDelivery); err != nil {
		return nil, err
	}

	if err := s.notifier.DeliveryConfirmation(ctx, packet.ID); err != nil {
		s.logger.Warn().Err(err).Str("packet_id", packet.ID).Msg("delivery-confirmation notification failed")
	}

	s.logger.Info().Str("packet_id", packetID).Msg("packet delivered")

	return packet, nil
}

// ConfirmHubPickup records the terminal transition for pickup-type packets:
// the customer collects at the destination hub counter, signing there.
func (s *PacketService) ConfirmHubPickup(ctx context.Context, packetID string, proof ports.ProofInput) (*domain.Packet, error) {
	packet, err := s.packets.FindByID(ctx, packetID)
	if err != nil {
		return nil, err
	}
	if packet.DeliveryType != domain.DeliveryTypePickup {
		return nil, fmt.Errorf("%w: packet %s is home-delivery type", domain.ErrPreconditionFailed, packetID)
	}
	if packet.Status != domain.StatusAtDestinationHub {
		return nil, fmt.Errorf("%w: packet is %s, expected at_destination_hub", domain.ErrPreconditionFailed, packet.Status)
	}
	if proof.SignatureBase64 == "" {
		return nil, fmt.Errorf("%w: signature is required for hub pickup", domain.ErrPreconditionFailed)
	}

	packet.Proof = &domain.Proof{SignatureBase64: proof.SignatureBase64}
	if err := packet.TransitionTo(domain.StatusDelivered, "collected at destination hub"); err != nil {
		return nil, err
	}
	if err := s.packets.Update(ctx, packet, domain.StatusAtDestinationHub); err != nil {
		return nil, err
	}

	if err := s.notifier.DeliveryConfirmation(ctx, packet.ID); err != nil {
		s.logger.Warn().Err(err).Str("packet_id", packet.ID).Msg("delivery-confirmation notification failed")
	}

	s.logger.Info().Str("packet_id", packetID).Msg("packet collected at hub")

	return packet, nil
}

// generateTrackingCode returns a tracking code in the format SL-XXXXXXXX.
func generateTrackingCode() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		// fallback: use current nanoseconds
		return fmt.Sprintf("SL-%08X", time.Now().UnixNano()&0xFFFFFFFF)
	}
	return fmt.Sprintf("SL-%08X", b)
}

// newID returns a random 12-byte hex identifier.
func newID() string {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%024x", time.Now().UnixNano())
	}
	return fmt.Sprintf("%x", b)
}
