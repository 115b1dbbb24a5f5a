package domain

import (
	"fmt"
	"time"
)

// PacketStatus represents the lifecycle state of a packet.
type PacketStatus string

const (
	StatusPending          PacketStatus = "pending"
	StatusAssigned         PacketStatus = "assigned"
	StatusCollected        PacketStatus = "collected"
	StatusAtOriginHub      PacketStatus = "at_origin_hub"
	StatusInTransit        PacketStatus = "in_transit"
	StatusAtDestinationHub PacketStatus = "at_destination_hub"
	StatusOutForDelivery   PacketStatus = "out_for_delivery"
	StatusDelivered        PacketStatus = "delivered"
)

// DeliveryType distinguishes home delivery from customer self-collection at
// the destination hub.
type DeliveryType string

const (
	DeliveryTypeDelivery DeliveryType = "delivery"
	DeliveryTypePickup   DeliveryType = "pickup"
)

// validTransitions defines the allowed state machine transitions. The
// at_destination_hub → delivered edge covers pickup-type hub collection;
// the reverse unassign edges (assigned → pending, out_for_delivery →
// at_destination_hub) are the only backward moves and never cross a
// confirmed timestamp.
var validTransitions = map[PacketStatus][]PacketStatus{
	StatusPending:          {StatusAssigned},
	StatusAssigned:         {StatusCollected, StatusPending},
	StatusCollected:        {StatusAtOriginHub},
	StatusAtOriginHub:      {StatusInTransit},
	StatusInTransit:        {StatusAtDestinationHub},
	StatusAtDestinationHub: {StatusOutForDelivery, StatusDelivered},
	StatusOutForDelivery:   {StatusDelivered, StatusAtDestinationHub},
}

// CanTransitionTo reports whether a transition from the current status to
// next is valid.
func (s PacketStatus) CanTransitionTo(next PacketStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether the status ends the lifecycle. Terminal packets
// are retained for audit and tracking, never deleted.
func (s PacketStatus) Terminal() bool {
	return s == StatusDelivered
}

// Proof is the delivery/pickup confirmation evidence collected from the
// recipient. Set exactly once, at the terminal transition.
type Proof struct {
	SignatureBase64 string `json:"signature_base64" bson:"signature_base64"`
	NationalID      string `json:"national_id,omitempty" bson:"national_id,omitempty"`
}

// StatusHistoryEntry records a single status transition on a packet.
type StatusHistoryEntry struct {
	Status    PacketStatus `json:"status" bson:"status"`
	Timestamp time.Time    `json:"timestamp" bson:"timestamp"`
	Notes     string       `json:"notes,omitempty" bson:"notes,omitempty"`
}

// Packet is the core aggregate root: a single shipment unit moving between
// pickup, hub, vehicle and delivery-agent assignments.
type Packet struct {
	ID           string       `json:"id" bson:"_id,omitempty"`
	TrackingCode string       `json:"tracking_code" bson:"tracking_code"`
	Description  string       `json:"description" bson:"description"`
	Category     string       `json:"category" bson:"category"`
	WeightKg     float64      `json:"weight_kg" bson:"weight_kg"`
	DeliveryType DeliveryType `json:"delivery_type" bson:"delivery_type"`

	OriginCity             string      `json:"origin_city" bson:"origin_city"`
	OriginCoordinates      Coordinates `json:"origin_coordinates" bson:"origin_coordinates"`
	DestinationAddress     string      `json:"destination_address" bson:"destination_address"`
	DestinationCity        string      `json:"destination_city" bson:"destination_city"`
	DestinationHub         string      `json:"destination_hub,omitempty" bson:"destination_hub,omitempty"`
	DestinationCoordinates Coordinates `json:"destination_coordinates" bson:"destination_coordinates"`

	Status PacketStatus `json:"status" bson:"status"`

	// Weak back-references by id; at most one is meaningfully active for the
	// packet's current phase.
	AssignedPickupAgent   string `json:"assigned_pickup_agent,omitempty" bson:"assigned_pickup_agent,omitempty"`
	AssignedDeliveryAgent string `json:"assigned_delivery_agent,omitempty" bson:"assigned_delivery_agent,omitempty"`
	AssignedVehicle       string `json:"assigned_vehicle,omitempty" bson:"assigned_vehicle,omitempty"`

	// ConfirmedByOrigin records the origin-side half of the two-phase hub
	// handoff. Set at dispatch; destination confirmation requires it.
	ConfirmedByOrigin bool `json:"confirmed_by_origin" bson:"confirmed_by_origin"`

	// Transition timestamps: each set exactly once, strictly increasing in
	// state machine edge order, nil until the corresponding transition fires.
	CollectedAt               *time.Time `json:"collected_at,omitempty" bson:"collected_at,omitempty"`
	DispatchedAt              *time.Time `json:"dispatched_at,omitempty" bson:"dispatched_at,omitempty"`
	DestinationHubConfirmedAt *time.Time `json:"destination_hub_confirmed_at,omitempty" bson:"destination_hub_confirmed_at,omitempty"`
	OutForDeliveryAt          *time.Time `json:"out_for_delivery_at,omitempty" bson:"out_for_delivery_at,omitempty"`
	DeliveredAt               *time.Time `json:"delivered_at,omitempty" bson:"delivered_at,omitempty"`

	Proof *Proof `json:"proof,omitempty" bson:"proof,omitempty"`

	CreatedAt     time.Time            `json:"created_at" bson:"created_at"`
	StatusHistory []StatusHistoryEntry `json:"status_history" bson:"status_history"`
}

// ResolvedDestination returns the city the packet is routed to: the
// destination hub for pickup-type packets, the recipient's city otherwise.
// Vehicles enforce destination homogeneity against this value.
func (p *Packet) ResolvedDestination() (string, error) {
	if p.DeliveryType == DeliveryTypePickup && p.DestinationHub != "" {
		return p.DestinationHub, nil
	}
	if p.DestinationCity != "" {
		return p.DestinationCity, nil
	}
	return "", ErrUnresolvableDestination
}

// TransitionTo advances the packet along an edge of validTransitions,
// appending the audit entry and stamping the phase timestamp the first time
// the phase is entered. Any move the table does not allow is rejected and the
// packet is left untouched; this is the single enforcement point for the
// state machine.
func (p *Packet) TransitionTo(next PacketStatus, notes string) error {
	if p.Status.Terminal() {
		return fmt.Errorf("%w: packet is %s and cannot move again", ErrPreconditionFailed, p.Status)
	}
	if !p.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: cannot move from %s to %s", ErrPreconditionFailed, p.Status, next)
	}

	now := time.Now().UTC()
	p.Status = next
	p.StatusHistory = append(p.StatusHistory, StatusHistoryEntry{
		Status:    next,
		Timestamp: now,
		Notes:     notes,
	})
	switch next {
	case StatusCollected:
		if p.CollectedAt == nil {
			p.CollectedAt = &now
		}
	case StatusInTransit:
		if p.DispatchedAt == nil {
			p.DispatchedAt = &now
		}
	case StatusAtDestinationHub:
		if p.DestinationHubConfirmedAt == nil {
			p.DestinationHubConfirmedAt = &now
		}
	case StatusOutForDelivery:
		if p.OutForDeliveryAt == nil {
			p.OutForDeliveryAt = &now
		}
	case StatusDelivered:
		if p.DeliveredAt == nil {
			p.DeliveredAt = &now
		}
	}
	return nil
}

// RelevantCoordinates returns the coordinate proximity matching should aim
// for: the origin while the packet still needs collecting, the destination
// once it is in the delivery phase.
func (p *Packet) RelevantCoordinates() Coordinates {
	switch p.Status {
	case StatusPending, StatusAssigned:
		return p.OriginCoordinates
	default:
		return p.DestinationCoordinates
	}
}
