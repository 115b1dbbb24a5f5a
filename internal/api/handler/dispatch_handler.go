package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/swiftlink/courier-system/internal/core/ports"
)

type vehicleListResponse struct {
	Data  []vehicleResponse `json:"data"`
	Count int               `json:"count"`
}

type agentResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	City     string `json:"city"`
	IsActive bool   `json:"is_active"`
}

type agentListResponse struct {
	Data  []agentResponse `json:"data"`
	Count int             `json:"count"`
}

// DispatchHandler serves the per-city admin views.
type DispatchHandler struct {
	service ports.DispatchService
}

func NewDispatchHandler(service ports.DispatchService) *DispatchHandler {
	return &DispatchHandler{service: service}
}

// ReadyForDispatch handles GET /v1/cities/:city/ready-for-dispatch.
//
// @Summary      Packets staged at the city's hub awaiting a vehicle
// @Tags         cities
// @Produce      json
// @Security     BearerAuth
// @Param        city  path      string  true  "City name"
// @Success      200   {object}  packetListResponse
// @Router       /v1/cities/{city}/ready-for-dispatch [get]
func (h *DispatchHandler) ReadyForDispatch(c echo.Context) error {
	packets, err := h.service.ReadyForDispatch(c.Request().Context(), c.Param("city"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPacketListResponse(packets))
}

// InTransit handles GET /v1/cities/:city/in-transit.
//
// @Summary      Packets that departed the city's hub
// @Tags         cities
// @Produce      json
// @Security     BearerAuth
// @Param        city  path      string  true  "City name"
// @Success      200   {object}  packetListResponse
// @Router       /v1/cities/{city}/in-transit [get]
func (h *DispatchHandler) InTransit(c echo.Context) error {
	packets, err := h.service.InTransit(c.Request().Context(), c.Param("city"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPacketListResponse(packets))
}

// AwaitingAgent handles GET /v1/cities/:city/awaiting-agent.
//
// @Summary      Packets at the city's hub with no delivery agent yet
// @Tags         cities
// @Produce      json
// @Security     BearerAuth
// @Param        city  path      string  true  "City name"
// @Success      200   {object}  packetListResponse
// @Router       /v1/cities/{city}/awaiting-agent [get]
func (h *DispatchHandler) AwaitingAgent(c echo.Context) error {
	packets, err := h.service.AwaitingAgent(c.Request().Context(), c.Param("city"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPacketListResponse(packets))
}

// OutForDelivery handles GET /v1/cities/:city/out-for-delivery.
//
// @Summary      Packets out for delivery in the city
// @Tags         cities
// @Produce      json
// @Security     BearerAuth
// @Param        city  path      string  true  "City name"
// @Success      200   {object}  packetListResponse
// @Router       /v1/cities/{city}/out-for-delivery [get]
func (h *DispatchHandler) OutForDelivery(c echo.Context) error {
	packets, err := h.service.OutForDelivery(c.Request().Context(), c.Param("city"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPacketListResponse(packets))
}

// Vehicles handles GET /v1/cities/:city/vehicles.
//
// @Summary      The city's registered fleet
// @Tags         cities
// @Produce      json
// @Security     BearerAuth
// @Param        city  path      string  true  "City name"
// @Success      200   {object}  vehicleListResponse
// @Router       /v1/cities/{city}/vehicles [get]
func (h *DispatchHandler) Vehicles(c echo.Context) error {
	vehicles, err := h.service.Vehicles(c.Request().Context(), c.Param("city"))
	if err != nil {
		return err
	}
	resp := vehicleListResponse{Data: make([]vehicleResponse, 0, len(vehicles)), Count: len(vehicles)}
	for _, v := range vehicles {
		resp.Data = append(resp.Data, toVehicleResponse(v))
	}
	return c.JSON(http.StatusOK, resp)
}

// Agents handles GET /v1/cities/:city/agents.
//
// @Summary      The city's registered field agents
// @Tags         cities
// @Produce      json
// @Security     BearerAuth
// @Param        city  path      string  true  "City name"
// @Success      200   {object}  agentListResponse
// @Router       /v1/cities/{city}/agents [get]
func (h *DispatchHandler) Agents(c echo.Context) error {
	agents, err := h.service.Agents(c.Request().Context(), c.Param("city"))
	if err != nil {
		return err
	}
	resp := agentListResponse{Data: make([]agentResponse, 0, len(agents)), Count: len(agents)}
	for _, a := range agents {
		resp.Data = append(resp.Data, agentResponse{
			ID: a.ID, Name: a.Name, Phone: a.Phone, City: a.City, IsActive: a.IsActive,
		})
	}
	return c.JSON(http.StatusOK, resp)
}
