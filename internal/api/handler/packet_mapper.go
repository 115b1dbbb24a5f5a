package handler

import (
	"github.com/swiftlink/courier-system/internal/core/domain"
	"github.com/swiftlink/courier-system/internal/core/ports"
)

// --- Request → Service input ---

func toCreatePacketInput(req createPacketRequest) ports.CreatePacketInput {
	return ports.CreatePacketInput{
		Description:            req.Description,
		Category:               req.Category,
		WeightKg:               req.WeightKg,
		DeliveryType:           req.DeliveryType,
		OriginCity:             req.OriginCity,
		OriginCoordinates:      ports.CoordinatesInput{Lat: req.OriginCoordinates.Lat, Lng: req.OriginCoordinates.Lng},
		DestinationAddress:     req.DestinationAddress,
		DestinationCity:        req.DestinationCity,
		DestinationHub:         req.DestinationHub,
		DestinationCoordinates: ports.CoordinatesInput{Lat: req.DestinationCoordinates.Lat, Lng: req.DestinationCoordinates.Lng},
	}
}

// --- Domain → HTTP response ---

func toPacketResponse(p *domain.Packet) packetResponse {
	resp := packetResponse{
		ID:                     p.ID,
		TrackingCode:           p.TrackingCode,
		Description:            p.Description,
		Category:               p.Category,
		WeightKg:               p.WeightKg,
		DeliveryType:           string(p.DeliveryType),
		OriginCity:             p.OriginCity,
		OriginCoordinates:      coordinatesResponse{Lat: p.OriginCoordinates.Lat, Lng: p.OriginCoordinates.Lng},
		DestinationAddress:     p.DestinationAddress,
		DestinationCity:        p.DestinationCity,
		DestinationHub:         p.DestinationHub,
		DestinationCoordinates: coordinatesResponse{Lat: p.DestinationCoordinates.Lat, Lng: p.DestinationCoordinates.Lng},
		Status:                 string(p.Status),

		AssignedPickupAgent:   p.AssignedPickupAgent,
		AssignedDeliveryAgent: p.AssignedDeliveryAgent,
		AssignedVehicle:       p.AssignedVehicle,
		ConfirmedByOrigin:     p.ConfirmedByOrigin,

		CollectedAt:               p.CollectedAt,
		DispatchedAt:              p.DispatchedAt,
		DestinationHubConfirmedAt: p.DestinationHubConfirmedAt,
		OutForDeliveryAt:          p.OutForDeliveryAt,
		DeliveredAt:               p.DeliveredAt,

		CreatedAt:     p.CreatedAt,
		StatusHistory: toStatusHistoryResponse(p.StatusHistory),
		Links: packetLinks{
			Self:     "/v1/packets/" + p.ID,
			Tracking: "/v1/packets/" + p.TrackingCode,
		},
	}
	if p.Proof != nil {
		resp.Proof = &proofResponse{
			SignatureBase64: p.Proof.SignatureBase64,
			NationalID:      p.Proof.NationalID,
		}
	}
	return resp
}

func toStatusHistoryResponse(items []domain.StatusHistoryEntry) []statusHistoryItemResponse {
	out := make([]statusHistoryItemResponse, len(items))
	for i, item := range items {
		out[i] = statusHistoryItemResponse{
			Status:    string(item.Status),
			Timestamp: item.Timestamp.UTC(),
			Notes:     item.Notes,
		}
	}
	return out
}

func toPickupRequestResponse(r *domain.PickupRequest) pickupRequestResponse {
	return pickupRequestResponse{
		ID: r.ID,
		Customer: customerRequest{
			Name:  r.Customer.Name,
			Email: r.Customer.Email,
			Phone: r.Customer.Phone,
		},
		PacketID:      r.PacketID,
		Status:        string(r.Status),
		AssignedAgent: r.AssignedAgent,
		CreatedAt:     r.CreatedAt,
	}
}

func toPacketListResponse(packets []*domain.Packet) packetListResponse {
	data := make([]packetResponse, len(packets))
	for i, p := range packets {
		data[i] = toPacketResponse(p)
	}
	return packetListResponse{Data: data, Count: len(data)}
}
