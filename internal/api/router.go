package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/swiftlink/courier-system/internal/api/handler"
	"github.com/swiftlink/courier-system/internal/api/middleware"
	"github.com/swiftlink/courier-system/internal/core/domain"
	"github.com/swiftlink/courier-system/internal/core/ports"
)

// Deps bundles the composed services the router mounts. Construction happens
// in the composition root; the router only wires HTTP.
type Deps struct {
	Packets     ports.PacketService
	Assignments ports.AssignmentService
	Dispatch    ports.DispatchService
	Tracking    ports.TrackingService
	Positions   handler.PositionQueue

	Mongo     *mongo.Database
	Redis     *redis.Client
	JWTSecret string
	Logger    zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("courier"))

	auth := middleware.Auth(deps.JWTSecret)
	adminOnly := middleware.RBAC(domain.RoleAdmin)
	adminOrAgent := middleware.RBAC(domain.RoleAdmin, domain.RoleAgent)

	packetHandler := handler.NewPacketHandler(deps.Packets)
	assignmentHandler := handler.NewAssignmentHandler(deps.Assignments)
	dispatchHandler := handler.NewDispatchHandler(deps.Dispatch)
	trackingHandler := handler.NewTrackingHandler(deps.Tracking, deps.Positions)

	v1 := e.Group("/v1")

	// --- Booking and tracking (public surface) ---
	v1.POST("/packets", packetHandler.Create)
	v1.GET("/packets/:tracking_code", packetHandler.Track)
	v1.POST("/pickup-requests", packetHandler.CreatePickupRequest)

	// --- Lifecycle transitions ---
	v1.PATCH("/packets/:id/agent-confirm", packetHandler.AgentConfirm, auth, adminOrAgent)
	v1.PATCH("/packets/:id/origin-hub-confirm", packetHandler.OriginHubConfirm, auth, adminOnly)
	v1.PATCH("/packets/:id/destination-hub-confirm", packetHandler.DestinationHubConfirm, auth, adminOnly)
	v1.PATCH("/packets/:id/mark-delivered", packetHandler.MarkDelivered, auth, adminOrAgent)
	v1.PATCH("/packets/:id/picked", packetHandler.HubPickupConfirm, auth, adminOnly)

	// --- Assignments ---
	v1.POST("/assignments/pickup-agent", assignmentHandler.AssignPickupAgent, auth, adminOnly)
	v1.PATCH("/pickup-requests/:id/unassign-agent", assignmentHandler.UnassignPickupAgent, auth, adminOnly)
	v1.POST("/assignments/vehicle", assignmentHandler.AssignVehicle, auth, adminOnly)
	v1.POST("/assignments/vehicle/batch", assignmentHandler.AssignVehicleBatch, auth, adminOnly)
	v1.POST("/assignments/vehicle/unassign", assignmentHandler.UnassignVehicle, auth, adminOnly)
	v1.POST("/vehicles/:id/dispatch", assignmentHandler.DispatchVehicle, auth, adminOnly)
	v1.POST("/assignments/delivery-agent", assignmentHandler.AssignDeliveryAgent, auth, adminOnly)
	v1.POST("/assignments/delivery-agent/unassign", assignmentHandler.UnassignDeliveryAgent, auth, adminOnly)

	// --- Per-city admin views ---
	v1.GET("/cities/:city/ready-for-dispatch", dispatchHandler.ReadyForDispatch, auth, adminOnly)
	v1.GET("/cities/:city/in-transit", dispatchHandler.InTransit, auth, adminOnly)
	v1.GET("/cities/:city/awaiting-agent", dispatchHandler.AwaitingAgent, auth, adminOnly)
	v1.GET("/cities/:city/out-for-delivery", dispatchHandler.OutForDelivery, auth, adminOnly)
	v1.GET("/cities/:city/vehicles", dispatchHandler.Vehicles, auth, adminOnly)
	v1.GET("/cities/:city/agents", dispatchHandler.Agents, auth, adminOnly)

	// --- Live tracking ---
	v1.POST("/agents/:id/position", trackingHandler.UpdatePosition, auth, adminOrAgent)
	v1.POST("/agents/:id/closest-candidate", trackingHandler.ClosestCandidate, auth, adminOrAgent)
	v1.POST("/agents/:id/arrival-check", trackingHandler.CheckArrival, auth, adminOrAgent)
	v1.GET("/route", trackingHandler.RouteInfo, auth, adminOrAgent)

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Mongo, deps.Redis)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
