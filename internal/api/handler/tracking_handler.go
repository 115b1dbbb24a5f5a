package handler

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/swiftlink/courier-system/internal/api/metrics"
	"github.com/swiftlink/courier-system/internal/core/domain"
	"github.com/swiftlink/courier-system/internal/core/ports"
)

// PositionQueue is the slice of the position dispatcher the HTTP ingress
// needs: enqueue a tick, report backlog depth.
type PositionQueue interface {
	Enqueue(tick domain.AgentPosition)
	Depth() int
}

// TrackingHandler serves the field app's live-tracking surface: position
// ingress, proximity matching, arrival checks and route display.
type TrackingHandler struct {
	service   ports.TrackingService
	positions PositionQueue
}

func NewTrackingHandler(service ports.TrackingService, positions PositionQueue) *TrackingHandler {
	return &TrackingHandler{service: service, positions: positions}
}

// agentID resolves the :id path parameter against the caller's claims: agents
// may only act as themselves, admin tokens may act for any agent.
func agentID(c echo.Context) (string, error) {
	role, claimID, err := ctxClaims(c)
	if err != nil {
		return "", err
	}
	id := c.Param("id")
	if role == domain.RoleAgent && id != claimID {
		return "", echo.NewHTTPError(http.StatusForbidden, "agents may only report for themselves")
	}
	return id, nil
}

// --- Request / Response types ---

type positionRequest struct {
	Lat       float64    `json:"lat"       validate:"latitude"`
	Lng       float64    `json:"lng"       validate:"longitude"`
	Timestamp *time.Time `json:"timestamp"`
}

// Lat/Lng are optional: a body without a fix falls back to the agent's last
// ingested position.
type closestCandidateRequest struct {
	Lat  *float64 `json:"lat"  validate:"omitempty,latitude"`
	Lng  *float64 `json:"lng"  validate:"omitempty,longitude"`
	Mode string   `json:"mode" validate:"required,oneof=pickup delivery"`
}

type closestCandidateResponse struct {
	Packet     *packetResponse `json:"packet"`
	DistanceKm float64         `json:"distance_km"`
}

type arrivalCheckRequest struct {
	PacketID        string  `json:"packet_id"        validate:"required"`
	Lat             float64 `json:"lat"              validate:"latitude"`
	Lng             float64 `json:"lng"              validate:"longitude"`
	TargetLat       float64 `json:"target_lat"       validate:"latitude"`
	TargetLng       float64 `json:"target_lng"       validate:"longitude"`
	ThresholdMeters float64 `json:"threshold_meters" validate:"omitempty,gt=0"`
}

type arrivalCheckResponse struct {
	Arrived        bool    `json:"arrived"`
	DistanceMeters float64 `json:"distance_meters"`
}

type routeResponse struct {
	DistanceMeters  int                   `json:"distance_meters"`
	DurationSeconds int                   `json:"duration_seconds"`
	DistanceText    string                `json:"distance_text"`
	DurationText    string                `json:"duration_text"`
	Path            []coordinatesResponse `json:"path"`
}

// UpdatePosition handles POST /v1/agents/:id/position — the HTTP fallback for
// clients without an MQTT session. The tick is acknowledged as accepted
// before processing; ordering per agent is preserved by the queue shards.
//
// @Summary      Ingest an agent position tick
// @Tags         tracking
// @Accept       json
// @Security     BearerAuth
// @Param        id    path  string           true  "Agent id"
// @Param        body  body  positionRequest  true  "Position"
// @Success      202
// @Failure      400  {object}  errorResponse
// @Router       /v1/agents/{id}/position [post]
func (h *TrackingHandler) UpdatePosition(c echo.Context) error {
	var req positionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	id, err := agentID(c)
	if err != nil {
		return err
	}

	ts := time.Now().UTC()
	if req.Timestamp != nil {
		ts = req.Timestamp.UTC()
	}
	h.positions.Enqueue(domain.AgentPosition{
		AgentID:   id,
		Position:  domain.Coordinates{Lat: req.Lat, Lng: req.Lng},
		Timestamp: ts,
	})

	metrics.PositionTicksTotal.WithLabelValues("http").Inc()
	metrics.PositionQueueDepth.Set(float64(h.positions.Depth()))
	return c.NoContent(http.StatusAccepted)
}

// ClosestCandidate handles POST /v1/agents/:id/closest-candidate.
//
// @Summary      Nearest actionable packet for the agent
// @Tags         tracking
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                   true  "Agent id"
// @Param        body  body      closestCandidateRequest  true  "Agent position and matching mode"
// @Success      200   {object}  closestCandidateResponse
// @Failure      400   {object}  errorResponse
// @Router       /v1/agents/{id}/closest-candidate [post]
func (h *TrackingHandler) ClosestCandidate(c echo.Context) error {
	var req closestCandidateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	id, err := agentID(c)
	if err != nil {
		return err
	}

	position := domain.Coordinates{Lat: math.NaN(), Lng: math.NaN()}
	if req.Lat != nil && req.Lng != nil {
		position = domain.Coordinates{Lat: *req.Lat, Lng: *req.Lng}
	}

	result, err := h.service.ClosestCandidate(c.Request().Context(), ports.ClosestCandidateInput{
		AgentID:  id,
		Position: position,
		Mode:     ports.CandidateMode(req.Mode),
	})
	if err != nil {
		return err
	}

	resp := closestCandidateResponse{DistanceKm: result.DistanceKm}
	if result.Packet != nil {
		p := toPacketResponse(result.Packet)
		resp.Packet = &p
	}
	return c.JSON(http.StatusOK, resp)
}

// CheckArrival handles POST /v1/agents/:id/arrival-check.
//
// @Summary      Evaluate the arrival geofence for one position tick
// @Tags         tracking
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string               true  "Agent id"
// @Param        body  body      arrivalCheckRequest  true  "Position and target"
// @Success      200   {object}  arrivalCheckResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/agents/{id}/arrival-check [post]
func (h *TrackingHandler) CheckArrival(c echo.Context) error {
	var req arrivalCheckRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	id, err := agentID(c)
	if err != nil {
		return err
	}

	result, err := h.service.CheckArrival(c.Request().Context(), ports.ArrivalInput{
		AgentID:         id,
		PacketID:        req.PacketID,
		Position:        domain.Coordinates{Lat: req.Lat, Lng: req.Lng},
		Target:          domain.Coordinates{Lat: req.TargetLat, Lng: req.TargetLng},
		ThresholdMeters: req.ThresholdMeters,
	})
	if err != nil {
		return err
	}
	if result.Arrived {
		metrics.ArrivalDetectionsTotal.Inc()
	}
	return c.JSON(http.StatusOK, arrivalCheckResponse{
		Arrived:        result.Arrived,
		DistanceMeters: result.DistanceMeters,
	})
}

// RouteInfo handles GET /v1/route.
//
// @Summary      Driving route between two coordinates
// @Tags         tracking
// @Produce      json
// @Security     BearerAuth
// @Param        from_lat  query     number  true  "Origin latitude"
// @Param        from_lng  query     number  true  "Origin longitude"
// @Param        to_lat    query     number  true  "Destination latitude"
// @Param        to_lng    query     number  true  "Destination longitude"
// @Success      200       {object}  routeResponse
// @Failure      502       {object}  errorResponse
// @Router       /v1/route [get]
func (h *TrackingHandler) RouteInfo(c echo.Context) error {
	origin, err := parseCoordinates(c.QueryParam("from_lat"), c.QueryParam("from_lng"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid origin coordinates")
	}
	destination, err := parseCoordinates(c.QueryParam("to_lat"), c.QueryParam("to_lng"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid destination coordinates")
	}

	route, err := h.service.RouteInfo(c.Request().Context(), origin, destination)
	if err != nil {
		return err
	}

	path := make([]coordinatesResponse, len(route.Path))
	for i, p := range route.Path {
		path[i] = coordinatesResponse{Lat: p.Lat, Lng: p.Lng}
	}
	return c.JSON(http.StatusOK, routeResponse{
		DistanceMeters:  route.DistanceMeters,
		DurationSeconds: route.DurationSeconds,
		DistanceText:    route.DistanceText,
		DurationText:    route.DurationText,
		Path:            path,
	})
}

func parseCoordinates(latStr, lngStr string) (domain.Coordinates, error) {
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return domain.Coordinates{}, err
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		return domain.Coordinates{}, err
	}
	c := domain.Coordinates{Lat: lat, Lng: lng}
	if !c.Valid() {
		return domain.Coordinates{}, strconv.ErrRange
	}
	return c, nil
}
