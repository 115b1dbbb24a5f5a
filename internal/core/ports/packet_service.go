package ports

import (
	"context"

	"github.com/swiftlink/courier-system/internal/core/domain"
)

// CreatePacketInput carries all data needed to book a new packet at an
// origin hub.
type CreatePacketInput struct {
	Description            string
	Category               string
	WeightKg               float64
	DeliveryType           string
	OriginCity             string
	OriginCoordinates      CoordinatesInput
	DestinationAddress     string
	DestinationCity        string
	DestinationHub         string
	DestinationCoordinates CoordinatesInput
}

// CoordinatesInput holds geographic coordinates.
type CoordinatesInput struct {
	Lat float64
	Lng float64
}

// CreatePickupRequestInput bundles a customer with a new packet for agent
// pickup instead of hub drop-off.
type CreatePickupRequestInput struct {
	Customer CustomerInput
	Packet   CreatePacketInput
}

// CustomerInput holds customer contact details.
type CustomerInput struct {
	Name  string
	Email string
	Phone string
}

// AgentConfirmInput is submitted by the assigned pickup agent on collection.
// WeightKg, when non-nil, corrects the declared weight — the only point the
// weight may change after creation.
type AgentConfirmInput struct {
	PacketID string
	AgentID  string
	WeightKg *float64
}

// ProofInput carries the confirmation evidence for terminal transitions.
type ProofInput struct {
	SignatureBase64 string
	NationalID      string
}

// PacketService owns packet booking and the lifecycle transitions that are
// not assignment operations: collection confirmation, hub receipts, and
// terminal delivery/pickup confirmation.
type PacketService interface {
	CreatePacket(ctx context.Context, input CreatePacketInput) (*domain.Packet, error)
	CreatePickupRequest(ctx context.Context, input CreatePickupRequestInput) (*domain.PickupRequest, error)
	Track(ctx context.Context, trackingCode string) (*domain.Packet, error)

	AgentConfirmCollected(ctx context.Context, input AgentConfirmInput) (*domain.Packet, error)
	ConfirmOriginHub(ctx context.Context, packetID string) (*domain.Packet, error)
	ConfirmDestinationHub(ctx context.Context, packetID string) (*domain.Packet, error)
	MarkDelivered(ctx context.Context, packetID string, proof ProofInput) (*domain.Packet, error)
	ConfirmHubPickup(ctx context.Context, packetID string, proof ProofInput) (*domain.Packet, error)
}
