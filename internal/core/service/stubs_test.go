package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/swiftlink/courier-system/internal/core/domain"
)

var discardLogger = zerolog.Nop()

// ---------------------------------------------------------------------------
// In-memory stub repositories shared by the service tests. The stubs mirror
// the guarded-update semantics of the real Mongo repositories so concurrency
// and idempotence behaviour is exercised faithfully.
// ---------------------------------------------------------------------------

type stubPacketRepo struct {
	mu      sync.Mutex
	byID    map[string]*domain.Packet
	failODs int // if > 0, the next failODs Update calls fail
}

func newStubPacketRepo(packets ...*domain.Packet) *stubPacketRepo {
	r := &stubPacketRepo{byID: make(map[string]*domain.Packet)}
	for _, p := range packets {
		clone := *p
		r.byID[p.ID] = &clone
	}
	return r
}

func (r *stubPacketRepo) Create(_ context.Context, p *domain.Packet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *p
	r.byID[p.ID] = &clone
	return nil
}

func (r *stubPacketRepo) FindByID(_ context.Context, id string) (*domain.Packet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrPacketNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *stubPacketRepo) FindByTrackingCode(_ context.Context, code string) (*domain.Packet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.byID {
		if p.TrackingCode == code {
			clone := *p
			return &clone, nil
		}
	}
	return nil, domain.ErrPacketNotFound
}

func (r *stubPacketRepo) FindByIDs(_ context.Context, ids []string) ([]*domain.Packet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Packet, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.byID[id]; ok {
			clone := *p
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *stubPacketRepo) Update(_ context.Context, p *domain.Packet, expected domain.PacketStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failODs > 0 {
		r.failODs--
		return fmt.Errorf("stub: forced update failure")
	}
	stored, ok := r.byID[p.ID]
	if !ok {
		return domain.ErrPacketNotFound
	}
	if stored.Status != expected {
		return domain.ErrConcurrentModification
	}
	clone := *p
	r.byID[p.ID] = &clone
	return nil
}

func (r *stubPacketRepo) ListByStatusAndOriginCity(_ context.Context, status domain.PacketStatus, city string) ([]*domain.Packet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Packet
	for _, p := range r.byID {
		if p.Status == status && p.OriginCity == city {
			clone := *p
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *stubPacketRepo) ListAwaitingAgent(_ context.Context, city string) ([]*domain.Packet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Packet
	for _, p := range r.byID {
		dest, err := p.ResolvedDestination()
		if err != nil {
			continue
		}
		if p.Status == domain.StatusAtDestinationHub && p.AssignedDeliveryAgent == "" && dest == city {
			clone := *p
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *stubPacketRepo) ListOutForDelivery(_ context.Context, city string) ([]*domain.Packet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Packet
	for _, p := range r.byID {
		dest, err := p.ResolvedDestination()
		if err != nil {
			continue
		}
		if dest != city {
			continue
		}
		if p.Status == domain.StatusOutForDelivery || (p.AssignedDeliveryAgent != "" && !p.Status.Terminal()) {
			clone := *p
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *stubPacketRepo) ListActiveForAgent(_ context.Context, agentID string) ([]*domain.Packet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Packet
	for _, p := range r.byID {
		pickup := p.AssignedPickupAgent == agentID &&
			(p.Status == domain.StatusPending || p.Status == domain.StatusAssigned)
		delivery := p.AssignedDeliveryAgent == agentID && !p.Status.Terminal()
		if pickup || delivery {
			clone := *p
			out = append(out, &clone)
		}
	}
	return out, nil
}

// get returns the stored packet directly for assertions.
func (r *stubPacketRepo) get(id string) *domain.Packet {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[id]
}

// ---------------------------------------------------------------------------

type stubVehicleRepo struct {
	mu   sync.Mutex
	byID map[string]*domain.Vehicle
}

func newStubVehicleRepo(vehicles ...*domain.Vehicle) *stubVehicleRepo {
	r := &stubVehicleRepo{byID: make(map[string]*domain.Vehicle)}
	for _, v := range vehicles {
		clone := *v
		r.byID[v.ID] = &clone
	}
	return r
}

func (r *stubVehicleRepo) FindByID(_ context.Context, id string) (*domain.Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrVehicleNotFound
	}
	clone := *v
	clone.AssignedPacketIDs = append([]string(nil), v.AssignedPacketIDs...)
	return &clone, nil
}

func (r *stubVehicleRepo) ListByCity(_ context.Context, city string) ([]*domain.Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Vehicle
	for _, v := range r.byID {
		if v.CurrentCity == city {
			clone := *v
			out = append(out, &clone)
		}
	}
	return out, nil
}

// AppendPackets applies the same guard the Mongo repository enforces in its
// conditional update: availability, capacity, destination compatibility.
func (r *stubVehicleRepo) AppendPackets(_ context.Context, vehicleID string, packetIDs []string, totalWeightKg float64, destination string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.byID[vehicleID]
	if !ok {
		return domain.ErrVehicleNotFound
	}
	if !v.Available() ||
		v.CurrentLoadKg+totalWeightKg > v.CapacityKg ||
		(v.DestinationCity != "" && v.DestinationCity != destination) {
		return domain.ErrConcurrentModification
	}
	v.CurrentLoadKg += totalWeightKg
	v.DestinationCity = destination
	v.AssignedPacketIDs = append(v.AssignedPacketIDs, packetIDs...)
	return nil
}

func (r *stubVehicleRepo) RemovePacket(_ context.Context, vehicleID, packetID string, weightKg float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.byID[vehicleID]
	if !ok {
		return domain.ErrVehicleNotFound
	}
	for i, id := range v.AssignedPacketIDs {
		if id == packetID {
			v.AssignedPacketIDs = append(v.AssignedPacketIDs[:i], v.AssignedPacketIDs[i+1:]...)
			v.CurrentLoadKg -= weightKg
			if len(v.AssignedPacketIDs) == 0 {
				v.DestinationCity = ""
				v.CurrentLoadKg = 0
			}
			return nil
		}
	}
	// Not on the vehicle: no-op, never a double decrement.
	return nil
}

func (r *stubVehicleRepo) get(id string) *domain.Vehicle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[id]
}

// ---------------------------------------------------------------------------

// stubDispatchRepo applies the dispatch batch atomically against the two
// stubs, the way the Mongo implementation does inside a transaction.
type stubDispatchRepo struct {
	packets  *stubPacketRepo
	vehicles *stubVehicleRepo
}

func (r *stubDispatchRepo) DispatchVehicle(_ context.Context, vehicleID string, packetIDs []string, departedAt time.Time) error {
	r.packets.mu.Lock()
	defer r.packets.mu.Unlock()
	r.vehicles.mu.Lock()
	defer r.vehicles.mu.Unlock()

	for _, id := range packetIDs {
		p, ok := r.packets.byID[id]
		if !ok || p.Status != domain.StatusAtOriginHub {
			return domain.ErrPreconditionFailed
		}
	}
	for _, id := range packetIDs {
		p := r.packets.byID[id]
		p.Status = domain.StatusInTransit
		ts := departedAt
		p.DispatchedAt = &ts
		p.ConfirmedByOrigin = true
		p.StatusHistory = append(p.StatusHistory, domain.StatusHistoryEntry{
			Status: domain.StatusInTransit, Timestamp: departedAt, Notes: "vehicle dispatched",
		})
	}
	v := r.vehicles.byID[vehicleID]
	v.AssignedPacketIDs = nil
	v.CurrentLoadKg = 0
	v.DestinationCity = ""
	return nil
}

// ---------------------------------------------------------------------------

type stubAgentRepo struct {
	byID map[string]*domain.Agent
}

func newStubAgentRepo(agents ...*domain.Agent) *stubAgentRepo {
	r := &stubAgentRepo{byID: make(map[string]*domain.Agent)}
	for _, a := range agents {
		r.byID[a.ID] = a
	}
	return r
}

func (r *stubAgentRepo) FindByID(_ context.Context, id string) (*domain.Agent, error) {
	a, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrAgentNotFound
	}
	return a, nil
}

func (r *stubAgentRepo) ListByCity(_ context.Context, city string) ([]*domain.Agent, error) {
	var out []*domain.Agent
	for _, a := range r.byID {
		if a.City == city {
			out = append(out, a)
		}
	}
	return out, nil
}

// ---------------------------------------------------------------------------

type stubPickupRepo struct {
	mu          sync.Mutex
	byID        map[string]*domain.PickupRequest
	failUpdates int // if > 0, the next failUpdates Update calls fail
}

func newStubPickupRepo(requests ...*domain.PickupRequest) *stubPickupRepo {
	r := &stubPickupRepo{byID: make(map[string]*domain.PickupRequest)}
	for _, req := range requests {
		clone := *req
		r.byID[req.ID] = &clone
	}
	return r
}

func (r *stubPickupRepo) Create(_ context.Context, req *domain.PickupRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *req
	r.byID[req.ID] = &clone
	return nil
}

func (r *stubPickupRepo) FindByID(_ context.Context, id string) (*domain.PickupRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrPickupRequestNotFound
	}
	clone := *req
	return &clone, nil
}

func (r *stubPickupRepo) FindByPacketID(_ context.Context, packetID string) (*domain.PickupRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, req := range r.byID {
		if req.PacketID == packetID {
			clone := *req
			return &clone, nil
		}
	}
	return nil, domain.ErrPickupRequestNotFound
}

func (r *stubPickupRepo) Update(_ context.Context, req *domain.PickupRequest, expected domain.PickupRequestStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failUpdates > 0 {
		r.failUpdates--
		return fmt.Errorf("stub: forced update failure")
	}
	stored, ok := r.byID[req.ID]
	if !ok {
		return domain.ErrPickupRequestNotFound
	}
	if stored.Status != expected {
		return domain.ErrConcurrentModification
	}
	clone := *req
	r.byID[req.ID] = &clone
	return nil
}

// ---------------------------------------------------------------------------

// recordingNotifier captures every emission for assertions.
type recordingNotifier struct {
	mu          sync.Mutex
	assignments []string // packetID|agentID
	pickups     []string
	deliveries  []string
	failNext    bool
}

func (n *recordingNotifier) DeliveryAssignment(_ context.Context, packetID, agentID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failNext {
		n.failNext = false
		return domain.ErrNotificationFailed
	}
	n.assignments = append(n.assignments, packetID+"|"+agentID)
	return nil
}

func (n *recordingNotifier) PickupConfirmation(_ context.Context, packetID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pickups = append(n.pickups, packetID)
	return nil
}

func (n *recordingNotifier) DeliveryConfirmation(_ context.Context, packetID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.deliveries = append(n.deliveries, packetID)
	return nil
}

// ---------------------------------------------------------------------------
// Fixture helpers
// ---------------------------------------------------------------------------

func nowUTC() time.Time { return time.Now().UTC() }

func packetFixture(id string, status domain.PacketStatus) *domain.Packet {
	return &domain.Packet{
		ID:                 id,
		TrackingCode:       "SL-" + id,
		Description:        "books",
		Category:           "general",
		WeightKg:           5,
		DeliveryType:       domain.DeliveryTypeDelivery,
		OriginCity:         "Lilongwe",
		OriginCoordinates:  domain.Coordinates{Lat: -13.9626, Lng: 33.7741},
		DestinationAddress: "12 Haile Selassie Rd",
		DestinationCity:    "Blantyre",
		DestinationCoordinates: domain.Coordinates{
			Lat: -15.7861, Lng: 35.0058,
		},
		Status:    status,
		CreatedAt: time.Now().UTC(),
		StatusHistory: []domain.StatusHistoryEntry{
			{Status: domain.StatusPending, Timestamp: time.Now().UTC()},
		},
	}
}

func hubPickupPacketFixture(id string, status domain.PacketStatus) *domain.Packet {
	p := packetFixture(id, status)
	p.DeliveryType = domain.DeliveryTypePickup
	p.DestinationHub = "Blantyre"
	return p
}

func vehicleFixture(id string, capacity float64) *domain.Vehicle {
	return &domain.Vehicle{
		ID:           id,
		Registration: "BT " + id,
		CapacityKg:   capacity,
		CurrentCity:  "Lilongwe",
		IsActive:     true,
	}
}

func newAssignmentFixture(packets []*domain.Packet, vehicles []*domain.Vehicle, agents []*domain.Agent, requests []*domain.PickupRequest) (*AssignmentService, *stubPacketRepo, *stubVehicleRepo, *recordingNotifier) {
	packetRepo := newStubPacketRepo(packets...)
	vehicleRepo := newStubVehicleRepo(vehicles...)
	dispatchRepo := &stubDispatchRepo{packets: packetRepo, vehicles: vehicleRepo}
	notifier := &recordingNotifier{}
	svc := NewAssignmentService(
		packetRepo,
		vehicleRepo,
		dispatchRepo,
		newStubAgentRepo(agents...),
		newStubPickupRepo(requests...),
		notifier,
		discardLogger,
	)
	return svc, packetRepo, vehicleRepo, notifier
}
