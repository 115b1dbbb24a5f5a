package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/swiftlink/courier-system/internal/api/metrics"
	"github.com/swiftlink/courier-system/internal/core/domain"
	"github.com/swiftlink/courier-system/internal/core/ports"
)

const defaultBaseURL = "http://router.project-osrm.org"

// OSRMProvider implements ports.RouteProvider against an OSRM routing server.
// Provider outages and non-Ok responses surface as domain.ErrRouteUnavailable
// so callers can degrade without inspecting transport details.
//
// The provider is safe for concurrent use.
type OSRMProvider struct {
	session *http.Client
	baseURL string
	profile string
	log     zerolog.Logger
}

func NewOSRMProvider(baseURL string, log zerolog.Logger) *OSRMProvider {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &OSRMProvider{
		session: &http.Client{Timeout: 10 * time.Second},
		baseURL: baseURL,
		profile: "driving",
		log:     log,
	}
}

// osrmResponse is the subset of the OSRM route response we consume.
type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"` // meters
		Duration float64 `json:"duration"` // seconds
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"` // [lng, lat] pairs
		} `json:"geometry"`
	} `json:"routes"`
}

// Route fetches the driving route between two coordinates.
func (p *OSRMProvider) Route(ctx context.Context, origin, destination domain.Coordinates) (*ports.Route, error) {
	// OSRM takes lng,lat ordering.
	url := fmt.Sprintf("%s/route/v1/%s/%f,%f;%f,%f?overview=full&geometries=geojson",
		p.baseURL, p.profile, origin.Lng, origin.Lat, destination.Lng, destination.Lat)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build route request: %w", err)
	}

	resp, err := p.session.Do(req)
	if err != nil {
		metrics.RouteRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: %v", domain.ErrRouteUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.RouteRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: routing server returned %d", domain.ErrRouteUnavailable, resp.StatusCode)
	}

	var body osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		metrics.RouteRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: decoding route response: %v", domain.ErrRouteUnavailable, err)
	}
	if body.Code != "Ok" || len(body.Routes) == 0 {
		metrics.RouteRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: no route found", domain.ErrRouteUnavailable)
	}

	best := body.Routes[0]
	path := make([]domain.Coordinates, 0, len(best.Geometry.Coordinates))
	for _, pair := range best.Geometry.Coordinates {
		if len(pair) < 2 {
			continue
		}
		path = append(path, domain.Coordinates{Lat: pair[1], Lng: pair[0]})
	}

	metrics.RouteRequestsTotal.WithLabelValues("ok").Inc()
	return &ports.Route{
		DistanceMeters:  int(math.Round(best.Distance)),
		DurationSeconds: int(math.Round(best.Duration)),
		DistanceText:    formatDistance(best.Distance),
		DurationText:    formatDuration(best.Duration),
		Path:            path,
	}, nil
}

func formatDistance(meters float64) string {
	if meters < 1000 {
		return fmt.Sprintf("%.0f m", meters)
	}
	return fmt.Sprintf("%.1f km", meters/1000)
}

func formatDuration(seconds float64) string {
	d := time.Duration(seconds) * time.Second
	if d < time.Hour {
		return fmt.Sprintf("%d min", int(d.Minutes()))
	}
	h := int(d.Hours())
	m := int(d.Minutes()) - h*60
	return fmt.Sprintf("%d h %d min", h, m)
}
