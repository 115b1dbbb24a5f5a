package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/swiftlink/courier-system/internal/core/domain"
	"github.com/swiftlink/courier-system/internal/core/ports"
)

// TrackingService implements ports.TrackingService: it consumes the live
// agent position stream, selects the nearest actionable packet for an agent,
// and detects arrival with a per-(agent, packet) latch so the arrival side
// effect fires once per approach. Route computation is delegated entirely to
// the external routing collaborator.
//
// The only state kept across ticks is the latest accepted position per agent
// and the arrival latches; both are bounded by the active agent/packet set
// and cleared when a latch re-arms.
type TrackingService struct {
	packets ports.PacketRepository
	routes  ports.RouteProvider
	logger  zerolog.Logger

	mu        sync.RWMutex
	positions map[string]domain.AgentPosition
	arrived   map[string]bool // keyed agentID|packetID, true while inside the radius
}

func NewTrackingService(packets ports.PacketRepository, routes ports.RouteProvider, logger zerolog.Logger) *TrackingService {
	return &TrackingService{
		packets:   packets,
		routes:    routes,
		logger:    logger,
		positions: make(map[string]domain.AgentPosition),
		arrived:   make(map[string]bool),
	}
}

// UpdatePosition ingests one position tick. Ticks older than the last
// accepted one for the agent are dropped, so out-of-order or duplicate
// delivery recomputes nothing.
func (s *TrackingService) UpdatePosition(_ context.Context, tick domain.AgentPosition) error {
	if !tick.Position.Valid() {
		return fmt.Errorf("%w: invalid coordinates for agent %s", domain.ErrPreconditionFailed, tick.AgentID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if last, ok := s.positions[tick.AgentID]; ok && !tick.Timestamp.After(last.Timestamp) {
		return nil
	}
	s.positions[tick.AgentID] = tick
	return nil
}

// LastPosition returns the most recent accepted tick for the agent.
func (s *TrackingService) LastPosition(agentID string) (domain.AgentPosition, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pos, ok := s.positions[agentID]
	return pos, ok
}

// ClosestCandidate returns the agent's actionable packet whose relevant
// coordinate (origin for pickup mode, destination for delivery mode) is
// nearest the given position by great-circle distance. A request without a
// usable fix falls back to the agent's last ingested position; with neither,
// the result degrades to "no candidate" rather than failing the caller.
// Candidates without valid coordinates are excluded, never treated as
// distance zero.
func (s *TrackingService) ClosestCandidate(ctx context.Context, input ports.ClosestCandidateInput) (*ports.CandidateResult, error) {
	position := input.Position
	if !position.Valid() {
		last, ok := s.LastPosition(input.AgentID)
		if !ok {
			return &ports.CandidateResult{}, nil
		}
		position = last.Position
	}

	candidates, err := s.packets.ListActiveForAgent(ctx, input.AgentID)
	if err != nil {
		return nil, err
	}

	var best *domain.Packet
	bestKm := 0.0
	for _, p := range candidates {
		target, ok := candidateTarget(p, input.Mode)
		if !ok {
			continue
		}
		d := domain.Haversine(position, target)
		if best == nil || d < bestKm {
			best = p
			bestKm = d
		}
	}
	if best == nil {
		return &ports.CandidateResult{}, nil
	}
	return &ports.CandidateResult{Packet: best, DistanceKm: bestKm}, nil
}

// candidateTarget reports whether the packet is actionable in the mode at all
// and, if so, the coordinate to measure against.
func candidateTarget(p *domain.Packet, mode ports.CandidateMode) (domain.Coordinates, bool) {
	switch mode {
	case ports.ModePickup:
		if p.Status != domain.StatusPending && p.Status != domain.StatusAssigned {
			return domain.Coordinates{}, false
		}
	case ports.ModeDelivery:
		if p.Status != domain.StatusOutForDelivery {
			return domain.Coordinates{}, false
		}
	default:
		return domain.Coordinates{}, false
	}
	target := p.RelevantCoordinates()
	if !target.Valid() {
		return domain.Coordinates{}, false
	}
	return target, true
}

// CheckArrival evaluates the geofence for one tick. The decision latches per
// (agent, packet): crossing into the radius reports Arrived once, staying
// inside reports false, and leaving the radius re-arms the latch.
func (s *TrackingService) CheckArrival(_ context.Context, input ports.ArrivalInput) (ports.ArrivalResult, error) {
	if !input.Position.Valid() || !input.Target.Valid() {
		return ports.ArrivalResult{}, fmt.Errorf("%w: arrival check needs valid coordinates", domain.ErrPreconditionFailed)
	}
	threshold := input.ThresholdMeters
	if threshold <= 0 {
		threshold = 100
	}

	dist := domain.DistanceMeters(input.Position, input.Target)
	inside := dist <= threshold
	key := input.AgentID + "|" + input.PacketID

	s.mu.Lock()
	wasInside := s.arrived[key]
	if inside {
		s.arrived[key] = true
	} else {
		delete(s.arrived, key)
	}
	s.mu.Unlock()

	fired := inside && !wasInside
	if fired {
		s.logger.Info().
			Str("agent_id", input.AgentID).
			Str("packet_id", input.PacketID).
			Float64("distance_m", dist).
			Msg("agent arrived at target")
	}

	return ports.ArrivalResult{Arrived: fired, DistanceMeters: dist}, nil
}

// RouteInfo returns the driving route between two points from the external
// routing collaborator.
func (s *TrackingService) RouteInfo(ctx context.Context, origin, destination domain.Coordinates) (*ports.Route, error) {
	if !origin.Valid() || !destination.Valid() {
		return nil, fmt.Errorf("%w: route endpoints must be valid coordinates", domain.ErrRouteUnavailable)
	}
	route, err := s.routes.Route(ctx, origin, destination)
	if err != nil {
		return nil, fmt.Errorf("route info: %w", err)
	}
	return route, nil
}
