package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/swiftlink/courier-system/internal/api/metrics"
	"github.com/swiftlink/courier-system/internal/core/domain"
	"github.com/swiftlink/courier-system/internal/core/ports"
)

// AssignmentHandler handles the assignment surface: pickup agents, vehicles,
// delivery agents, and vehicle dispatch.
type AssignmentHandler struct {
	service ports.AssignmentService
}

func NewAssignmentHandler(service ports.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{service: service}
}

// --- Request / Response types ---

type assignPickupAgentRequest struct {
	RequestID string `json:"request_id" validate:"required"`
	AgentID   string `json:"agent_id"   validate:"required"`
}

type assignVehicleRequest struct {
	PacketID  string `json:"packet_id"  validate:"required"`
	VehicleID string `json:"vehicle_id" validate:"required"`
}

type assignVehicleBatchRequest struct {
	PacketIDs []string `json:"packet_ids" validate:"required,min=1,dive,required"`
	VehicleID string   `json:"vehicle_id" validate:"required"`
}

type packetRefRequest struct {
	PacketID string `json:"packet_id" validate:"required"`
}

type assignDeliveryAgentRequest struct {
	PacketID string `json:"packet_id" validate:"required"`
	AgentID  string `json:"agent_id"  validate:"required"`
}

type vehicleResponse struct {
	ID                string   `json:"id"`
	Registration      string   `json:"registration"`
	CapacityKg        float64  `json:"capacity_kg"`
	CurrentLoadKg     float64  `json:"current_load_kg"`
	CurrentCity       string   `json:"current_city"`
	DestinationCity   string   `json:"destination_city,omitempty"`
	IsActive          bool     `json:"is_active"`
	IsInMaintenance   bool     `json:"is_in_maintenance"`
	AssignedPacketIDs []string `json:"assigned_packet_ids"`
}

type packetResultResponse struct {
	Packet            packetResponse `json:"packet"`
	AlreadyUnassigned bool           `json:"already_unassigned,omitempty"`
}

// Packet is a pointer: the idempotent unassign replay carries no packet.
type pickupAssignmentResponse struct {
	Request           pickupRequestResponse `json:"request"`
	Packet            *packetResponse       `json:"packet"`
	AlreadyUnassigned bool                  `json:"already_unassigned,omitempty"`
}

func toPickupAssignmentResponse(result *ports.PickupRequestResult) pickupAssignmentResponse {
	resp := pickupAssignmentResponse{
		Request:           toPickupRequestResponse(result.Request),
		AlreadyUnassigned: result.AlreadyUnassigned,
	}
	if result.Packet != nil {
		p := toPacketResponse(result.Packet)
		resp.Packet = &p
	}
	return resp
}

func toVehicleResponse(v *domain.Vehicle) vehicleResponse {
	return vehicleResponse{
		ID:                v.ID,
		Registration:      v.Registration,
		CapacityKg:        v.CapacityKg,
		CurrentLoadKg:     v.CurrentLoadKg,
		CurrentCity:       v.CurrentCity,
		DestinationCity:   v.DestinationCity,
		IsActive:          v.IsActive,
		IsInMaintenance:   v.IsInMaintenance,
		AssignedPacketIDs: v.AssignedPacketIDs,
	}
}

func observeAssignment(kind string, err error) {
	switch {
	case err == nil:
		metrics.AssignmentsTotal.WithLabelValues(kind, "ok").Inc()
	case errors.Is(err, domain.ErrConcurrentModification):
		metrics.AssignmentsTotal.WithLabelValues(kind, "conflict").Inc()
	default:
		metrics.AssignmentsTotal.WithLabelValues(kind, "rejected").Inc()
		if errors.Is(err, domain.ErrCapacityExceeded) {
			metrics.CapacityRejectionsTotal.Inc()
		}
	}
}

// AssignPickupAgent handles POST /v1/assignments/pickup-agent.
//
// @Summary      Assign a pickup agent to a pending pickup request
// @Tags         assignments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      assignPickupAgentRequest  true  "Request and agent ids"
// @Success      200   {object}  pickupAssignmentResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/assignments/pickup-agent [post]
func (h *AssignmentHandler) AssignPickupAgent(c echo.Context) error {
	var req assignPickupAgentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.service.AssignPickupAgent(c.Request().Context(), req.RequestID, req.AgentID)
	observeAssignment("pickup_agent", err)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toPickupAssignmentResponse(result))
}

// UnassignPickupAgent handles PATCH /v1/pickup-requests/:id/unassign-agent.
//
// @Summary      Release the pickup agent from a not-yet-collected request
// @Tags         assignments
// @Produce      json
// @Security     BearerAuth
// @Param        id  path      string  true  "Pickup request id"
// @Success      200 {object}  pickupAssignmentResponse
// @Failure      404 {object}  errorResponse
// @Router       /v1/pickup-requests/{id}/unassign-agent [patch]
func (h *AssignmentHandler) UnassignPickupAgent(c echo.Context) error {
	result, err := h.service.UnassignPickupAgent(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPickupAssignmentResponse(result))
}

// AssignVehicle handles POST /v1/assignments/vehicle.
//
// @Summary      Load a single packet onto a vehicle
// @Tags         assignments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      assignVehicleRequest  true  "Packet and vehicle ids"
// @Success      200   {object}  packetResultResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/assignments/vehicle [post]
func (h *AssignmentHandler) AssignVehicle(c echo.Context) error {
	var req assignVehicleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.service.AssignToVehicle(c.Request().Context(), req.PacketID, req.VehicleID)
	observeAssignment("vehicle", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, packetResultResponse{Packet: toPacketResponse(result.Packet)})
}

// AssignVehicleBatch handles POST /v1/assignments/vehicle/batch. The batch is
// all-or-nothing: one rejected packet rejects the whole load.
//
// @Summary      Load multiple packets onto a vehicle atomically
// @Tags         assignments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      assignVehicleBatchRequest  true  "Packet ids and vehicle id"
// @Success      200   {object}  packetListResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/assignments/vehicle/batch [post]
func (h *AssignmentHandler) AssignVehicleBatch(c echo.Context) error {
	var req assignVehicleBatchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	packets, err := h.service.AssignMultipleToVehicle(c.Request().Context(), req.PacketIDs, req.VehicleID)
	observeAssignment("vehicle", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPacketListResponse(packets))
}

// UnassignVehicle handles POST /v1/assignments/vehicle/unassign.
//
// @Summary      Take a packet back off its vehicle before dispatch
// @Tags         assignments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      packetRefRequest  true  "Packet id"
// @Success      200   {object}  packetResultResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/assignments/vehicle/unassign [post]
func (h *AssignmentHandler) UnassignVehicle(c echo.Context) error {
	var req packetRefRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.service.UnassignFromVehicle(c.Request().Context(), req.PacketID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, packetResultResponse{
		Packet:            toPacketResponse(result.Packet),
		AlreadyUnassigned: result.AlreadyUnassigned,
	})
}

// DispatchVehicle handles POST /v1/vehicles/:id/dispatch.
//
// @Summary      Dispatch a loaded vehicle toward its destination
// @Tags         assignments
// @Produce      json
// @Security     BearerAuth
// @Param        id  path      string  true  "Vehicle id"
// @Success      200 {object}  vehicleResponse
// @Failure      404 {object}  errorResponse
// @Failure      422 {object}  errorResponse
// @Router       /v1/vehicles/{id}/dispatch [post]
func (h *AssignmentHandler) DispatchVehicle(c echo.Context) error {
	v, err := h.service.DispatchVehicle(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	metrics.VehicleDispatchesTotal.Inc()
	return c.JSON(http.StatusOK, toVehicleResponse(v))
}

// AssignDeliveryAgent handles POST /v1/assignments/delivery-agent.
//
// @Summary      Assign a delivery agent to a packet at the destination hub
// @Tags         assignments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      assignDeliveryAgentRequest  true  "Packet and agent ids"
// @Success      200   {object}  packetResultResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/assignments/delivery-agent [post]
func (h *AssignmentHandler) AssignDeliveryAgent(c echo.Context) error {
	var req assignDeliveryAgentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.service.AssignDeliveryAgent(c.Request().Context(), req.PacketID, req.AgentID)
	observeAssignment("delivery_agent", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, packetResultResponse{Packet: toPacketResponse(result.Packet)})
}

// UnassignDeliveryAgent handles POST /v1/assignments/delivery-agent/unassign.
//
// @Summary      Release the delivery agent and return the packet to the hub
// @Tags         assignments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      packetRefRequest  true  "Packet id"
// @Success      200   {object}  packetResultResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/assignments/delivery-agent/unassign [post]
func (h *AssignmentHandler) UnassignDeliveryAgent(c echo.Context) error {
	var req packetRefRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.service.UnassignDeliveryAgent(c.Request().Context(), req.PacketID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, packetResultResponse{
		Packet:            toPacketResponse(result.Packet),
		AlreadyUnassigned: result.AlreadyUnassigned,
	})
}
