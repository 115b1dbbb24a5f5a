package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/swiftlink/courier-system/internal/api/metrics"
	"github.com/swiftlink/courier-system/internal/core/ports"
)

// PacketHandler handles HTTP requests for packet booking and lifecycle
// transitions. Assignment operations live in AssignmentHandler.
type PacketHandler struct {
	service ports.PacketService
}

func NewPacketHandler(service ports.PacketService) *PacketHandler {
	return &PacketHandler{service: service}
}

// Create handles POST /v1/packets.
//
// @Summary      Book a new packet
// @Tags         packets
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createPacketRequest  true  "Packet details"
// @Success      201   {object}  packetResponse
// @Failure      400   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/packets [post]
func (h *PacketHandler) Create(c echo.Context) error {
	var req createPacketRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	p, err := h.service.CreatePacket(c.Request().Context(), toCreatePacketInput(req))
	if err != nil {
		return err
	}

	metrics.PacketsCreatedTotal.WithLabelValues(string(p.DeliveryType)).Inc()
	return c.JSON(http.StatusCreated, toPacketResponse(p))
}

// Track handles GET /v1/packets/:tracking_code.
//
// @Summary      Track a packet by tracking code
// @Tags         packets
// @Produce      json
// @Param        tracking_code  path      string  true  "Tracking code (e.g. SL-7A8B9C2D)"
// @Success      200            {object}  packetResponse
// @Failure      404            {object}  errorResponse
// @Router       /v1/packets/{tracking_code} [get]
func (h *PacketHandler) Track(c echo.Context) error {
	p, err := h.service.Track(c.Request().Context(), c.Param("tracking_code"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPacketResponse(p))
}

// CreatePickupRequest handles POST /v1/pickup-requests.
//
// @Summary      Request an agent pickup for a new packet
// @Tags         pickup-requests
// @Accept       json
// @Produce      json
// @Param        body  body      createPickupRequestRequest  true  "Customer and packet details"
// @Success      201   {object}  pickupRequestResponse
// @Failure      400   {object}  errorResponse
// @Router       /v1/pickup-requests [post]
func (h *PacketHandler) CreatePickupRequest(c echo.Context) error {
	var req createPickupRequestRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	r, err := h.service.CreatePickupRequest(c.Request().Context(), ports.CreatePickupRequestInput{
		Customer: ports.CustomerInput{
			Name:  req.Customer.Name,
			Email: req.Customer.Email,
			Phone: req.Customer.Phone,
		},
		Packet: toCreatePacketInput(req.Packet),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toPickupRequestResponse(r))
}

// AgentConfirm handles PATCH /v1/packets/:id/agent-confirm.
//
// @Summary      Confirm collection by the assigned pickup agent
// @Tags         packets
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string               true  "Packet id"
// @Param        body  body      agentConfirmRequest  true  "Agent id and optional corrected weight"
// @Success      200   {object}  packetResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/packets/{id}/agent-confirm [patch]
func (h *PacketHandler) AgentConfirm(c echo.Context) error {
	var req agentConfirmRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	p, err := h.service.AgentConfirmCollected(c.Request().Context(), ports.AgentConfirmInput{
		PacketID: c.Param("id"),
		AgentID:  req.AgentID,
		WeightKg: req.WeightKg,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPacketResponse(p))
}

// OriginHubConfirm handles PATCH /v1/packets/:id/origin-hub-confirm.
//
// @Summary      Record hub receipt of a collected packet
// @Tags         packets
// @Produce      json
// @Security     BearerAuth
// @Param        id  path      string  true  "Packet id"
// @Success      200 {object}  packetResponse
// @Failure      422 {object}  errorResponse
// @Router       /v1/packets/{id}/origin-hub-confirm [patch]
func (h *PacketHandler) OriginHubConfirm(c echo.Context) error {
	p, err := h.service.ConfirmOriginHub(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPacketResponse(p))
}

// DestinationHubConfirm handles PATCH /v1/packets/:id/destination-hub-confirm.
// The receipt completes the two-phase hub handoff: it requires the origin
// side's confirmation recorded at dispatch.
//
// @Summary      Record destination hub receipt of an in-transit packet
// @Tags         packets
// @Produce      json
// @Security     BearerAuth
// @Param        id  path      string  true  "Packet id"
// @Success      200 {object}  packetResponse
// @Failure      422 {object}  errorResponse
// @Router       /v1/packets/{id}/destination-hub-confirm [patch]
func (h *PacketHandler) DestinationHubConfirm(c echo.Context) error {
	p, err := h.service.ConfirmDestinationHub(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPacketResponse(p))
}

// MarkDelivered handles PATCH /v1/packets/:id/mark-delivered.
//
// @Summary      Confirm delivery to the recipient with signature proof
// @Tags         packets
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string        true  "Packet id"
// @Param        body  body      proofRequest  true  "Recipient signature"
// @Success      200   {object}  packetResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/packets/{id}/mark-delivered [patch]
func (h *PacketHandler) MarkDelivered(c echo.Context) error {
	var req proofRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	p, err := h.service.MarkDelivered(c.Request().Context(), c.Param("id"), ports.ProofInput{
		SignatureBase64: req.SignatureBase64,
		NationalID:      req.NationalID,
	})
	if err != nil {
		return err
	}

	metrics.PacketsDeliveredTotal.Inc()
	return c.JSON(http.StatusOK, toPacketResponse(p))
}

// HubPickupConfirm handles PATCH /v1/packets/:id/picked.
//
// @Summary      Confirm customer self-collection at the destination hub
// @Tags         packets
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string        true  "Packet id"
// @Param        body  body      proofRequest  true  "Customer signature"
// @Success      200   {object}  packetResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/packets/{id}/picked [patch]
func (h *PacketHandler) HubPickupConfirm(c echo.Context) error {
	var req proofRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	p, err := h.service.ConfirmHubPickup(c.Request().Context(), c.Param("id"), ports.ProofInput{
		SignatureBase64: req.SignatureBase64,
		NationalID:      req.NationalID,
	})
	if err != nil {
		return err
	}

	metrics.PacketsDeliveredTotal.Inc()
	return c.JSON(http.StatusOK, toPacketResponse(p))
}
