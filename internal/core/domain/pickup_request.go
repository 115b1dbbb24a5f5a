package domain

import "time"

// Person represents a customer contact (sender or recipient).
type Person struct {
	Name  string `json:"name" bson:"name"`
	Email string `json:"email" bson:"email"`
	Phone string `json:"phone" bson:"phone"`
}

// PickupRequestStatus mirrors the pending/assigned/collected portion of the
// packet lifecycle; once the packet reaches the origin hub the request is
// resolved and tracking continues on the packet alone.
type PickupRequestStatus string

const (
	PickupRequestPending   PickupRequestStatus = "pending"
	PickupRequestAssigned  PickupRequestStatus = "assigned"
	PickupRequestCollected PickupRequestStatus = "collected"
)

// PickupRequest bundles a customer and a packet for agent pickup, as opposed
// to the customer dropping the packet at the hub counter.
type PickupRequest struct {
	ID            string              `json:"id" bson:"_id,omitempty"`
	Customer      Person              `json:"customer" bson:"customer"`
	PacketID      string              `json:"packet_id" bson:"packet_id"`
	Status        PickupRequestStatus `json:"status" bson:"status"`
	AssignedAgent string              `json:"assigned_agent,omitempty" bson:"assigned_agent,omitempty"`
	CreatedAt     time.Time           `json:"created_at" bson:"created_at"`
}
