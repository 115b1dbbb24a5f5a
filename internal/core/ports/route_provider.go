package ports

import (
	"context"

	"github.com/swiftlink/courier-system/internal/core/domain"
)

// Route is the driving route returned by the external routing collaborator.
type Route struct {
	DistanceMeters  int
	DurationSeconds int
	DistanceText    string
	DurationText    string
	// Path is the renderable polyline, ordered origin → destination.
	Path []domain.Coordinates
}

// RouteProvider is the contract for the external routing collaborator
// (driving mode). This core never computes routes itself. Implementations
// return domain.ErrRouteUnavailable when no route can be produced.
type RouteProvider interface {
	Route(ctx context.Context, origin, destination domain.Coordinates) (*Route, error)
}
