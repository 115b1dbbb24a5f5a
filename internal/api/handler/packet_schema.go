package handler

import "time"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request types ---

type coordinatesRequest struct {
	Lat float64 `json:"lat" validate:"latitude"`
	Lng float64 `json:"lng" validate:"longitude"`
}

type createPacketRequest struct {
	Description            string             `json:"description"             validate:"required"`
	Category               string             `json:"category"                validate:"required"`
	WeightKg               float64            `json:"weight_kg"               validate:"required,gt=0"`
	DeliveryType           string             `json:"delivery_type"           validate:"required,oneof=delivery pickup"`
	OriginCity             string             `json:"origin_city"             validate:"required"`
	OriginCoordinates      coordinatesRequest `json:"origin_coordinates"`
	DestinationAddress     string             `json:"destination_address"`
	DestinationCity        string             `json:"destination_city"`
	DestinationHub         string             `json:"destination_hub"`
	DestinationCoordinates coordinatesRequest `json:"destination_coordinates"`
}

type customerRequest struct {
	Name  string `json:"name"  validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"required"`
}

type createPickupRequestRequest struct {
	Customer customerRequest     `json:"customer" validate:"required"`
	Packet   createPacketRequest `json:"packet"   validate:"required"`
}

type agentConfirmRequest struct {
	AgentID  string   `json:"agent_id"  validate:"required"`
	WeightKg *float64 `json:"weight_kg" validate:"omitempty,gt=0"`
}

type proofRequest struct {
	SignatureBase64 string `json:"signature_base64" validate:"required"`
	NationalID      string `json:"national_id"`
}

// --- Response types ---
// Transport-owned, intentionally decoupled from domain types so the JSON
// contract survives internal refactors.

type coordinatesResponse struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type proofResponse struct {
	SignatureBase64 string `json:"signature_base64"`
	NationalID      string `json:"national_id,omitempty"`
}

type statusHistoryItemResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Notes     string    `json:"notes,omitempty"`
}

type packetLinks struct {
	Self     string `json:"self"`
	Tracking string `json:"tracking"`
}

type packetResponse struct {
	ID                     string              `json:"id"`
	TrackingCode           string              `json:"tracking_code"`
	Description            string              `json:"description"`
	Category               string              `json:"category"`
	WeightKg               float64             `json:"weight_kg"`
	DeliveryType           string              `json:"delivery_type"`
	OriginCity             string              `json:"origin_city"`
	OriginCoordinates      coordinatesResponse `json:"origin_coordinates"`
	DestinationAddress     string              `json:"destination_address"`
	DestinationCity        string              `json:"destination_city"`
	DestinationHub         string              `json:"destination_hub,omitempty"`
	DestinationCoordinates coordinatesResponse `json:"destination_coordinates"`
	Status                 string              `json:"status"`

	AssignedPickupAgent   string `json:"assigned_pickup_agent,omitempty"`
	AssignedDeliveryAgent string `json:"assigned_delivery_agent,omitempty"`
	AssignedVehicle       string `json:"assigned_vehicle,omitempty"`
	ConfirmedByOrigin     bool   `json:"confirmed_by_origin"`

	CollectedAt               *time.Time `json:"collected_at,omitempty"`
	DispatchedAt              *time.Time `json:"dispatched_at,omitempty"`
	DestinationHubConfirmedAt *time.Time `json:"destination_hub_confirmed_at,omitempty"`
	OutForDeliveryAt          *time.Time `json:"out_for_delivery_at,omitempty"`
	DeliveredAt               *time.Time `json:"delivered_at,omitempty"`

	Proof         *proofResponse              `json:"proof,omitempty"`
	CreatedAt     time.Time                   `json:"created_at"`
	StatusHistory []statusHistoryItemResponse `json:"status_history"`
	Links         packetLinks                 `json:"_links"`
}

type pickupRequestResponse struct {
	ID            string          `json:"id"`
	Customer      customerRequest `json:"customer"`
	PacketID      string          `json:"packet_id"`
	Status        string          `json:"status"`
	AssignedAgent string          `json:"assigned_agent,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

type packetListResponse struct {
	Data  []packetResponse `json:"data"`
	Count int              `json:"count"`
}
