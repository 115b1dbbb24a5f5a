package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/swiftlink/courier-system/internal/core/domain"
)

// ---------------------------------------------------------------------------
// Pickup agent assignment
// ---------------------------------------------------------------------------

func TestAssignPickupAgent_Success(t *testing.T) {
	packet := packetFixture("p1", domain.StatusPending)
	request := &domain.PickupRequest{ID: "r1", PacketID: "p1", Status: domain.PickupRequestPending}
	agent := &domain.Agent{ID: "a1", City: "Lilongwe", IsActive: true}
	svc, packetRepo, _, _ := newAssignmentFixture(
		[]*domain.Packet{packet}, nil, []*domain.Agent{agent}, []*domain.PickupRequest{request})

	result, err := svc.AssignPickupAgent(context.Background(), "r1", "a1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Packet.Status != domain.StatusAssigned {
		t.Errorf("expected status assigned, got %s", result.Packet.Status)
	}
	if result.Request.AssignedAgent != "a1" {
		t.Errorf("expected request agent a1, got %q", result.Request.AssignedAgent)
	}
	if stored := packetRepo.get("p1"); stored.AssignedPickupAgent != "a1" {
		t.Errorf("packet back-reference not persisted: %q", stored.AssignedPickupAgent)
	}
}

func TestAssignPickupAgent_CityMismatch(t *testing.T) {
	packet := packetFixture("p1", domain.StatusPending)
	request := &domain.PickupRequest{ID: "r1", PacketID: "p1", Status: domain.PickupRequestPending}
	agent := &domain.Agent{ID: "a1", City: "Blantyre", IsActive: true}
	svc, packetRepo, _, _ := newAssignmentFixture(
		[]*domain.Packet{packet}, nil, []*domain.Agent{agent}, []*domain.PickupRequest{request})

	_, err := svc.AssignPickupAgent(context.Background(), "r1", "a1")
	if !errors.Is(err, domain.ErrCityMismatch) {
		t.Fatalf("expected ErrCityMismatch, got %v", err)
	}
	if stored := packetRepo.get("p1"); stored.Status != domain.StatusPending {
		t.Errorf("rejected assignment must not mutate packet, status=%s", stored.Status)
	}
}

func TestAssignPickupAgent_NotPending(t *testing.T) {
	packet := packetFixture("p1", domain.StatusCollected)
	request := &domain.PickupRequest{ID: "r1", PacketID: "p1", Status: domain.PickupRequestCollected}
	agent := &domain.Agent{ID: "a1", City: "Lilongwe", IsActive: true}
	svc, _, _, _ := newAssignmentFixture(
		[]*domain.Packet{packet}, nil, []*domain.Agent{agent}, []*domain.PickupRequest{request})

	_, err := svc.AssignPickupAgent(context.Background(), "r1", "a1")
	if !errors.Is(err, domain.ErrPreconditionFailed) {
		t.Fatalf("expected ErrPreconditionFailed, got %v", err)
	}
}

func TestUnassignPickupAgent_RevertsToPending(t *testing.T) {
	packet := packetFixture("p1", domain.StatusAssigned)
	packet.AssignedPickupAgent = "a1"
	request := &domain.PickupRequest{ID: "r1", PacketID: "p1", Status: domain.PickupRequestAssigned, AssignedAgent: "a1"}
	svc, packetRepo, _, _ := newAssignmentFixture(
		[]*domain.Packet{packet}, nil, nil, []*domain.PickupRequest{request})

	result, err := svc.UnassignPickupAgent(context.Background(), "r1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.AlreadyUnassigned {
		t.Error("first unassign must not report AlreadyUnassigned")
	}
	stored := packetRepo.get("p1")
	if stored.Status != domain.StatusPending || stored.AssignedPickupAgent != "" {
		t.Errorf("expected pending with no agent, got %s/%q", stored.Status, stored.AssignedPickupAgent)
	}
}

func TestUnassignPickupAgent_Idempotent(t *testing.T) {
	packet := packetFixture("p1", domain.StatusAssigned)
	packet.AssignedPickupAgent = "a1"
	request := &domain.PickupRequest{ID: "r1", PacketID: "p1", Status: domain.PickupRequestAssigned, AssignedAgent: "a1"}
	svc, _, _, _ := newAssignmentFixture(
		[]*domain.Packet{packet}, nil, nil, []*domain.PickupRequest{request})

	if _, err := svc.UnassignPickupAgent(context.Background(), "r1"); err != nil {
		t.Fatalf("first unassign: %v", err)
	}
	result, err := svc.UnassignPickupAgent(context.Background(), "r1")
	if err != nil {
		t.Fatalf("second unassign must be a no-op success, got %v", err)
	}
	if !result.AlreadyUnassigned {
		t.Error("second unassign must signal AlreadyUnassigned")
	}
}

func TestAssignPickupAgent_RevertsPacketWhenRequestUpdateFails(t *testing.T) {
	packet := packetFixture("p1", domain.StatusPending)
	request := &domain.PickupRequest{ID: "r1", PacketID: "p1", Status: domain.PickupRequestPending}
	agent := &domain.Agent{ID: "a1", City: "Lilongwe", IsActive: true}
	packetRepo := newStubPacketRepo(packet)
	vehicleRepo := newStubVehicleRepo()
	pickupRepo := newStubPickupRepo(request)
	pickupRepo.failUpdates = 1
	svc := NewAssignmentService(
		packetRepo, vehicleRepo, &stubDispatchRepo{packets: packetRepo, vehicles: vehicleRepo},
		newStubAgentRepo(agent), pickupRepo, &recordingNotifier{}, discardLogger)

	if _, err := svc.AssignPickupAgent(context.Background(), "r1", "a1"); err == nil {
		t.Fatal("expected the request-update failure to surface")
	}
	stored := packetRepo.get("p1")
	if stored.Status != domain.StatusPending || stored.AssignedPickupAgent != "" {
		t.Errorf("packet must be reverted when the request update fails, got %s/%q",
			stored.Status, stored.AssignedPickupAgent)
	}
}

func TestUnassignPickupAgent_RevertsPacketWhenRequestUpdateFails(t *testing.T) {
	packet := packetFixture("p1", domain.StatusAssigned)
	packet.AssignedPickupAgent = "a1"
	request := &domain.PickupRequest{ID: "r1", PacketID: "p1", Status: domain.PickupRequestAssigned, AssignedAgent: "a1"}
	packetRepo := newStubPacketRepo(packet)
	vehicleRepo := newStubVehicleRepo()
	pickupRepo := newStubPickupRepo(request)
	pickupRepo.failUpdates = 1
	svc := NewAssignmentService(
		packetRepo, vehicleRepo, &stubDispatchRepo{packets: packetRepo, vehicles: vehicleRepo},
		newStubAgentRepo(), pickupRepo, &recordingNotifier{}, discardLogger)

	if _, err := svc.UnassignPickupAgent(context.Background(), "r1"); err == nil {
		t.Fatal("expected the request-update failure to surface")
	}
	stored := packetRepo.get("p1")
	if stored.Status != domain.StatusAssigned || stored.AssignedPickupAgent != "a1" {
		t.Errorf("packet must be restored when the request update fails, got %s/%q",
			stored.Status, stored.AssignedPickupAgent)
	}
}

// ---------------------------------------------------------------------------
// Vehicle assignment: capacity and destination constraints
// ---------------------------------------------------------------------------

func TestAssignToVehicle_Success(t *testing.T) {
	packet := packetFixture("p1", domain.StatusAtOriginHub)
	vehicle := vehicleFixture("v1", 50)
	svc, packetRepo, vehicleRepo, _ := newAssignmentFixture(
		[]*domain.Packet{packet}, []*domain.Vehicle{vehicle}, nil, nil)

	result, err := svc.AssignToVehicle(context.Background(), "p1", "v1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Status changes only on dispatch.
	if result.Packet.Status != domain.StatusAtOriginHub {
		t.Errorf("assignment must not change status, got %s", result.Packet.Status)
	}
	if stored := packetRepo.get("p1"); stored.AssignedVehicle != "v1" {
		t.Errorf("expected vehicle back-reference, got %q", stored.AssignedVehicle)
	}
	v := vehicleRepo.get("v1")
	if v.CurrentLoadKg != 5 {
		t.Errorf("expected load 5, got %.1f", v.CurrentLoadKg)
	}
	if v.DestinationCity != "Blantyre" {
		t.Errorf("expected destination Blantyre, got %q", v.DestinationCity)
	}
}

func TestAssignToVehicle_CapacityExceeded(t *testing.T) {
	packet := packetFixture("p1", domain.StatusAtOriginHub)
	packet.WeightKg = 30
	vehicle := vehicleFixture("v1", 50)
	vehicle.CurrentLoadKg = 25
	vehicle.DestinationCity = "Blantyre"
	vehicle.AssignedPacketIDs = []string{"other"}
	svc, _, vehicleRepo, _ := newAssignmentFixture(
		[]*domain.Packet{packet}, []*domain.Vehicle{vehicle}, nil, nil)

	_, err := svc.AssignToVehicle(context.Background(), "p1", "v1")
	if !errors.Is(err, domain.ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded, got %v", err)
	}
	if !strings.Contains(err.Error(), "5.0 kg") {
		t.Errorf("rejection must state the overflow amount, got %q", err.Error())
	}
	if v := vehicleRepo.get("v1"); v.CurrentLoadKg != 25 {
		t.Errorf("rejected assignment must leave load unchanged, got %.1f", v.CurrentLoadKg)
	}
}

func TestAssignToVehicle_DestinationMismatch(t *testing.T) {
	packet := packetFixture("p1", domain.StatusAtOriginHub)
	vehicle := vehicleFixture("v1", 50)
	vehicle.DestinationCity = "Mzuzu"
	vehicle.CurrentLoadKg = 10
	vehicle.AssignedPacketIDs = []string{"other"}
	svc, _, _, _ := newAssignmentFixture(
		[]*domain.Packet{packet}, []*domain.Vehicle{vehicle}, nil, nil)

	_, err := svc.AssignToVehicle(context.Background(), "p1", "v1")
	if !errors.Is(err, domain.ErrDestinationMismatch) {
		t.Fatalf("expected ErrDestinationMismatch, got %v", err)
	}
}

func TestAssignToVehicle_UnresolvableDestination(t *testing.T) {
	packet := packetFixture("p1", domain.StatusAtOriginHub)
	packet.DestinationCity = ""
	packet.DestinationHub = ""
	vehicle := vehicleFixture("v1", 50)
	svc, _, vehicleRepo, _ := newAssignmentFixture(
		[]*domain.Packet{packet}, []*domain.Vehicle{vehicle}, nil, nil)

	_, err := svc.AssignToVehicle(context.Background(), "p1", "v1")
	if !errors.Is(err, domain.ErrUnresolvableDestination) {
		t.Fatalf("expected ErrUnresolvableDestination, got %v", err)
	}
	if v := vehicleRepo.get("v1"); v.CurrentLoadKg != 0 || len(v.AssignedPacketIDs) != 0 {
		t.Error("rejected assignment must not touch the vehicle")
	}
}

func TestAssignToVehicle_RejectsPacketAlreadyOnVehicleList(t *testing.T) {
	packet := packetFixture("p1", domain.StatusAtOriginHub)
	vehicle := vehicleFixture("v1", 50)
	// Drifted state: the vehicle still lists the packet although the packet's
	// own vehicle reference was cleared.
	vehicle.AssignedPacketIDs = []string{"p1"}
	vehicle.CurrentLoadKg = packet.WeightKg
	svc, _, vehicleRepo, _ := newAssignmentFixture(
		[]*domain.Packet{packet}, []*domain.Vehicle{vehicle}, nil, nil)

	_, err := svc.AssignToVehicle(context.Background(), "p1", "v1")
	if !errors.Is(err, domain.ErrPreconditionFailed) {
		t.Fatalf("expected ErrPreconditionFailed, got %v", err)
	}
	if v := vehicleRepo.get("v1"); v.CurrentLoadKg != packet.WeightKg {
		t.Errorf("rejected duplicate must not double-count the weight, load=%.1f", v.CurrentLoadKg)
	}
}

func TestAssignToVehicle_NotAtOriginHub(t *testing.T) {
	packet := packetFixture("p1", domain.StatusPending)
	vehicle := vehicleFixture("v1", 50)
	svc, _, _, _ := newAssignmentFixture(
		[]*domain.Packet{packet}, []*domain.Vehicle{vehicle}, nil, nil)

	_, err := svc.AssignToVehicle(context.Background(), "p1", "v1")
	if !errors.Is(err, domain.ErrPreconditionFailed) {
		t.Fatalf("expected ErrPreconditionFailed, got %v", err)
	}
}

func TestAssignMultipleToVehicle_MixedDestinations(t *testing.T) {
	p1 := packetFixture("p1", domain.StatusAtOriginHub)
	p2 := packetFixture("p2", domain.StatusAtOriginHub)
	p2.DestinationCity = "Mzuzu"
	vehicle := vehicleFixture("v1", 50)
	svc, _, vehicleRepo, _ := newAssignmentFixture(
		[]*domain.Packet{p1, p2}, []*domain.Vehicle{vehicle}, nil, nil)

	_, err := svc.AssignMultipleToVehicle(context.Background(), []string{"p1", "p2"}, "v1")
	if !errors.Is(err, domain.ErrDestinationMismatch) {
		t.Fatalf("expected ErrDestinationMismatch, got %v", err)
	}
	if v := vehicleRepo.get("v1"); v.CurrentLoadKg != 0 {
		t.Errorf("mixed batch must not load anything, load=%.1f", v.CurrentLoadKg)
	}
}

func TestAssignMultipleToVehicle_SumsWeights(t *testing.T) {
	p1 := packetFixture("p1", domain.StatusAtOriginHub)
	p2 := packetFixture("p2", domain.StatusAtOriginHub)
	p2.WeightKg = 7
	vehicle := vehicleFixture("v1", 50)
	svc, _, vehicleRepo, _ := newAssignmentFixture(
		[]*domain.Packet{p1, p2}, []*domain.Vehicle{vehicle}, nil, nil)

	packets, err := svc.AssignMultipleToVehicle(context.Background(), []string{"p1", "p2"}, "v1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(packets) != 2 {
		t.Fatalf("expected 2 packets, got %d", len(packets))
	}
	v := vehicleRepo.get("v1")
	if v.CurrentLoadKg != 12 {
		t.Errorf("expected load 12, got %.1f", v.CurrentLoadKg)
	}
	if len(v.AssignedPacketIDs) != 2 {
		t.Errorf("expected 2 assigned packets, got %d", len(v.AssignedPacketIDs))
	}
}

// ---------------------------------------------------------------------------
// Vehicle unassignment
// ---------------------------------------------------------------------------

func TestUnassignFromVehicle_Success(t *testing.T) {
	packet := packetFixture("p1", domain.StatusAtOriginHub)
	vehicle := vehicleFixture("v1", 50)
	svc, _, vehicleRepo, _ := newAssignmentFixture(
		[]*domain.Packet{packet}, []*domain.Vehicle{vehicle}, nil, nil)

	if _, err := svc.AssignToVehicle(context.Background(), "p1", "v1"); err != nil {
		t.Fatalf("assign: %v", err)
	}
	result, err := svc.UnassignFromVehicle(context.Background(), "p1")
	if err != nil {
		t.Fatalf("unassign: %v", err)
	}
	if result.Packet.AssignedVehicle != "" {
		t.Error("vehicle reference must be cleared")
	}
	v := vehicleRepo.get("v1")
	if v.CurrentLoadKg != 0 {
		t.Errorf("expected load 0, got %.1f", v.CurrentLoadKg)
	}
	if v.DestinationCity != "" {
		t.Errorf("destination must clear when vehicle empties, got %q", v.DestinationCity)
	}
}

func TestUnassignFromVehicle_IdempotentNoDoubleDecrement(t *testing.T) {
	packet := packetFixture("p1", domain.StatusAtOriginHub)
	vehicle := vehicleFixture("v1", 50)
	svc, _, vehicleRepo, _ := newAssignmentFixture(
		[]*domain.Packet{packet}, []*domain.Vehicle{vehicle}, nil, nil)

	if _, err := svc.AssignToVehicle(context.Background(), "p1", "v1"); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if _, err := svc.UnassignFromVehicle(context.Background(), "p1"); err != nil {
		t.Fatalf("first unassign: %v", err)
	}
	result, err := svc.UnassignFromVehicle(context.Background(), "p1")
	if err != nil {
		t.Fatalf("second unassign must succeed, got %v", err)
	}
	if !result.AlreadyUnassigned {
		t.Error("second unassign must signal AlreadyUnassigned")
	}
	if v := vehicleRepo.get("v1"); v.CurrentLoadKg != 0 {
		t.Errorf("load must never be decremented twice, got %.1f", v.CurrentLoadKg)
	}
}

func TestUnassignFromVehicle_AfterDispatch(t *testing.T) {
	packet := packetFixture("p1", domain.StatusInTransit)
	packet.AssignedVehicle = "v1"
	vehicle := vehicleFixture("v1", 50)
	svc, _, _, _ := newAssignmentFixture(
		[]*domain.Packet{packet}, []*domain.Vehicle{vehicle}, nil, nil)

	_, err := svc.UnassignFromVehicle(context.Background(), "p1")
	if !errors.Is(err, domain.ErrAlreadyDispatched) {
		t.Fatalf("expected ErrAlreadyDispatched, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Dispatch
// ---------------------------------------------------------------------------

func TestDispatchVehicle_TransitionsAllPackets(t *testing.T) {
	p1 := packetFixture("p1", domain.StatusAtOriginHub)
	p2 := packetFixture("p2", domain.StatusAtOriginHub)
	vehicle := vehicleFixture("v1", 50)
	svc, packetRepo, vehicleRepo, _ := newAssignmentFixture(
		[]*domain.Packet{p1, p2}, []*domain.Vehicle{vehicle}, nil, nil)

	if _, err := svc.AssignMultipleToVehicle(context.Background(), []string{"p1", "p2"}, "v1"); err != nil {
		t.Fatalf("assign: %v", err)
	}
	updated, err := svc.DispatchVehicle(context.Background(), "v1")
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if updated.CurrentLoadKg != 0 || len(updated.AssignedPacketIDs) != 0 || updated.DestinationCity != "" {
		t.Errorf("vehicle must reset after dispatch: %+v", updated)
	}
	for _, id := range []string{"p1", "p2"} {
		stored := packetRepo.get(id)
		if stored.Status != domain.StatusInTransit {
			t.Errorf("packet %s: expected in_transit, got %s", id, stored.Status)
		}
		if stored.DispatchedAt == nil {
			t.Errorf("packet %s: dispatched_at must be stamped", id)
		}
		if !stored.ConfirmedByOrigin {
			t.Errorf("packet %s: origin-side confirmation must be recorded at dispatch", id)
		}
	}
	if v := vehicleRepo.get("v1"); v.CurrentLoadKg != 0 {
		t.Errorf("persisted vehicle must reset, load=%.1f", v.CurrentLoadKg)
	}
}

func TestDispatchVehicle_AtomicOnBadPacket(t *testing.T) {
	p1 := packetFixture("p1", domain.StatusAtOriginHub)
	p2 := packetFixture("p2", domain.StatusAtOriginHub)
	vehicle := vehicleFixture("v1", 50)
	svc, packetRepo, _, _ := newAssignmentFixture(
		[]*domain.Packet{p1, p2}, []*domain.Vehicle{vehicle}, nil, nil)

	if _, err := svc.AssignMultipleToVehicle(context.Background(), []string{"p1", "p2"}, "v1"); err != nil {
		t.Fatalf("assign: %v", err)
	}
	// Force one packet out of at_origin_hub behind the engine's back.
	broken := packetRepo.get("p2")
	broken.Status = domain.StatusDelivered

	_, err := svc.DispatchVehicle(context.Background(), "v1")
	if !errors.Is(err, domain.ErrPreconditionFailed) {
		t.Fatalf("expected ErrPreconditionFailed, got %v", err)
	}
	if stored := packetRepo.get("p1"); stored.Status != domain.StatusAtOriginHub {
		t.Errorf("failed dispatch must transition no packet, p1=%s", stored.Status)
	}
}

func TestDispatchVehicle_EmptyVehicle(t *testing.T) {
	vehicle := vehicleFixture("v1", 50)
	svc, _, _, _ := newAssignmentFixture(nil, []*domain.Vehicle{vehicle}, nil, nil)

	_, err := svc.DispatchVehicle(context.Background(), "v1")
	if !errors.Is(err, domain.ErrPreconditionFailed) {
		t.Fatalf("expected ErrPreconditionFailed, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Delivery agent assignment
// ---------------------------------------------------------------------------

func TestAssignDeliveryAgent_AdvancesToOutForDelivery(t *testing.T) {
	packet := packetFixture("p1", domain.StatusAtDestinationHub)
	agent := &domain.Agent{ID: "a1", City: "Blantyre", IsActive: true}
	svc, packetRepo, _, notifier := newAssignmentFixture(
		[]*domain.Packet{packet}, nil, []*domain.Agent{agent}, nil)

	result, err := svc.AssignDeliveryAgent(context.Background(), "p1", "a1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Packet.Status != domain.StatusOutForDelivery {
		t.Errorf("expected out_for_delivery, got %s", result.Packet.Status)
	}
	if stored := packetRepo.get("p1"); stored.OutForDeliveryAt == nil {
		t.Error("out_for_delivery_at must be stamped")
	}
	if len(notifier.assignments) != 1 || notifier.assignments[0] != "p1|a1" {
		t.Errorf("expected exactly one delivery-assignment notification, got %v", notifier.assignments)
	}
}

func TestAssignDeliveryAgent_PickupTypeRejected(t *testing.T) {
	packet := hubPickupPacketFixture("p1", domain.StatusAtDestinationHub)
	agent := &domain.Agent{ID: "a1", City: "Blantyre", IsActive: true}
	svc, _, _, _ := newAssignmentFixture(
		[]*domain.Packet{packet}, nil, []*domain.Agent{agent}, nil)

	_, err := svc.AssignDeliveryAgent(context.Background(), "p1", "a1")
	if !errors.Is(err, domain.ErrInvalidAssignment) {
		t.Fatalf("expected ErrInvalidAssignment, got %v", err)
	}
}

func TestAssignDeliveryAgent_ReassignLeavesStatus(t *testing.T) {
	packet := packetFixture("p1", domain.StatusAtDestinationHub)
	agents := []*domain.Agent{
		{ID: "a1", City: "Blantyre", IsActive: true},
		{ID: "a2", City: "Blantyre", IsActive: true},
	}
	svc, packetRepo, _, notifier := newAssignmentFixture(
		[]*domain.Packet{packet}, nil, agents, nil)

	if _, err := svc.AssignDeliveryAgent(context.Background(), "p1", "a1"); err != nil {
		t.Fatalf("first assign: %v", err)
	}
	first := packetRepo.get("p1")
	firstStamp := first.OutForDeliveryAt

	result, err := svc.AssignDeliveryAgent(context.Background(), "p1", "a2")
	if err != nil {
		t.Fatalf("reassign: %v", err)
	}
	if result.Packet.Status != domain.StatusOutForDelivery {
		t.Errorf("reassign must leave status unchanged, got %s", result.Packet.Status)
	}
	if result.Packet.AssignedDeliveryAgent != "a2" {
		t.Errorf("expected agent a2, got %q", result.Packet.AssignedDeliveryAgent)
	}
	if got := packetRepo.get("p1").OutForDeliveryAt; got == nil || !got.Equal(*firstStamp) {
		t.Error("out_for_delivery_at is set exactly once, reassign must not restamp it")
	}
	if len(notifier.assignments) != 2 {
		t.Errorf("each successful assignment notifies once, got %v", notifier.assignments)
	}
}

func TestAssignDeliveryAgent_SameAgentReplayDoesNotRenotify(t *testing.T) {
	packet := packetFixture("p1", domain.StatusAtDestinationHub)
	agent := &domain.Agent{ID: "a1", City: "Blantyre", IsActive: true}
	svc, _, _, notifier := newAssignmentFixture(
		[]*domain.Packet{packet}, nil, []*domain.Agent{agent}, nil)

	if _, err := svc.AssignDeliveryAgent(context.Background(), "p1", "a1"); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if _, err := svc.AssignDeliveryAgent(context.Background(), "p1", "a1"); err != nil {
		t.Fatalf("replay: %v", err)
	}
	if len(notifier.assignments) != 1 {
		t.Errorf("replay must not emit a second notification, got %v", notifier.assignments)
	}
}

func TestAssignDeliveryAgent_NotificationFailureIsNonFatal(t *testing.T) {
	packet := packetFixture("p1", domain.StatusAtDestinationHub)
	agent := &domain.Agent{ID: "a1", City: "Blantyre", IsActive: true}
	svc, packetRepo, _, notifier := newAssignmentFixture(
		[]*domain.Packet{packet}, nil, []*domain.Agent{agent}, nil)
	notifier.failNext = true

	result, err := svc.AssignDeliveryAgent(context.Background(), "p1", "a1")
	if err != nil {
		t.Fatalf("notification failure must not fail the assignment: %v", err)
	}
	if result.Packet.AssignedDeliveryAgent != "a1" {
		t.Error("assignment must commit despite notification failure")
	}
	if stored := packetRepo.get("p1"); stored.Status != domain.StatusOutForDelivery {
		t.Errorf("transition must survive notification failure, got %s", stored.Status)
	}
}

func TestUnassignDeliveryAgent_RevertsToDestinationHub(t *testing.T) {
	packet := packetFixture("p1", domain.StatusAtDestinationHub)
	agent := &domain.Agent{ID: "a1", City: "Blantyre", IsActive: true}
	svc, packetRepo, _, _ := newAssignmentFixture(
		[]*domain.Packet{packet}, nil, []*domain.Agent{agent}, nil)

	if _, err := svc.AssignDeliveryAgent(context.Background(), "p1", "a1"); err != nil {
		t.Fatalf("assign: %v", err)
	}
	hubStamp := packetRepo.get("p1").DestinationHubConfirmedAt

	result, err := svc.UnassignDeliveryAgent(context.Background(), "p1")
	if err != nil {
		t.Fatalf("unassign: %v", err)
	}
	if result.Packet.Status != domain.StatusAtDestinationHub {
		t.Errorf("expected revert to at_destination_hub, got %s", result.Packet.Status)
	}
	if result.Packet.AssignedDeliveryAgent != "" {
		t.Error("agent reference must be cleared")
	}
	after := packetRepo.get("p1").DestinationHubConfirmedAt
	if (hubStamp == nil) != (after == nil) {
		t.Error("unassign must not touch earlier phase timestamps")
	}

	again, err := svc.UnassignDeliveryAgent(context.Background(), "p1")
	if err != nil || !again.AlreadyUnassigned {
		t.Errorf("second unassign must be an AlreadyUnassigned no-op, got %v / %+v", err, again)
	}
}

// ---------------------------------------------------------------------------
// End-to-end hub dispatch scenario
// ---------------------------------------------------------------------------

func TestHubDispatch_EndToEnd(t *testing.T) {
	packet := hubPickupPacketFixture("p1", domain.StatusAtOriginHub)
	packet.WeightKg = 5
	vehicle := vehicleFixture("v1", 50)
	svc, packetRepo, vehicleRepo, _ := newAssignmentFixture(
		[]*domain.Packet{packet}, []*domain.Vehicle{vehicle}, nil, nil)

	if _, err := svc.AssignToVehicle(context.Background(), "p1", "v1"); err != nil {
		t.Fatalf("assign: %v", err)
	}
	v := vehicleRepo.get("v1")
	if v.CurrentLoadKg != 5 {
		t.Fatalf("expected load 5, got %.1f", v.CurrentLoadKg)
	}
	if v.DestinationCity != "Blantyre" {
		t.Fatalf("expected destination Blantyre, got %q", v.DestinationCity)
	}

	if _, err := svc.DispatchVehicle(context.Background(), "v1"); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	stored := packetRepo.get("p1")
	if stored.Status != domain.StatusInTransit {
		t.Errorf("expected in_transit, got %s", stored.Status)
	}
	if stored.DispatchedAt == nil {
		t.Error("dispatched_at must be set")
	}
	if v := vehicleRepo.get("v1"); v.CurrentLoadKg != 0 {
		t.Errorf("vehicle load must reset to 0, got %.1f", v.CurrentLoadKg)
	}
}
