package ports

import (
	"context"

	"github.com/swiftlink/courier-system/internal/core/domain"
)

// CandidateMode selects which packet coordinate proximity matching targets.
type CandidateMode string

const (
	ModePickup   CandidateMode = "pickup"   // match against origin coordinates
	ModeDelivery CandidateMode = "delivery" // match against destination coordinates
)

// ClosestCandidateInput asks for the nearest actionable packet for an agent.
// An invalid Position means "no fix": the service falls back to the agent's
// last ingested position.
type ClosestCandidateInput struct {
	AgentID  string
	Position domain.Coordinates
	Mode     CandidateMode
}

// CandidateResult is the selected packet and its great-circle distance. A nil
// Packet means no candidate had valid coordinates.
type CandidateResult struct {
	Packet     *domain.Packet
	DistanceKm float64
}

// ArrivalInput is evaluated on every position tick against a target.
type ArrivalInput struct {
	AgentID         string
	PacketID        string
	Position        domain.Coordinates
	Target          domain.Coordinates
	ThresholdMeters float64
}

// ArrivalResult reports the latched arrival decision for one tick. Arrived is
// true exactly once per approach; repeated ticks under the threshold return
// false until the agent leaves the radius again.
type ArrivalResult struct {
	Arrived        bool
	DistanceMeters float64
}

// TrackingService consumes the live agent position stream and answers the
// field app's proximity questions.
type TrackingService interface {
	// UpdatePosition ingests one position tick. Safe to call on every tick;
	// stale or duplicate ticks (older timestamp than the last seen) are
	// dropped, making recomputation idempotent.
	UpdatePosition(ctx context.Context, tick domain.AgentPosition) error
	// LastPosition returns the most recent accepted tick for the agent.
	LastPosition(agentID string) (domain.AgentPosition, bool)

	ClosestCandidate(ctx context.Context, input ClosestCandidateInput) (*CandidateResult, error)
	CheckArrival(ctx context.Context, input ArrivalInput) (ArrivalResult, error)
	RouteInfo(ctx context.Context, origin, destination domain.Coordinates) (*Route, error)
}
