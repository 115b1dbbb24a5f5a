package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/swiftlink/courier-system/internal/core/domain"
)

const collectionPackets = "packets"

type PacketRepository struct {
	col *mongo.Collection
}

func NewPacketRepository(db *mongo.Database) *PacketRepository {
	return &PacketRepository{col: db.Collection(collectionPackets)}
}

// Create inserts a new packet document.
func (r *PacketRepository) Create(ctx context.Context, p *domain.Packet) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, p)
	return err
}

// FindByID retrieves a packet by id.
func (r *PacketRepository) FindByID(ctx context.Context, id string) (*domain.Packet, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// FindByTrackingCode retrieves a packet by its public tracking code.
func (r *PacketRepository) FindByTrackingCode(ctx context.Context, code string) (*domain.Packet, error) {
	return r.findOne(ctx, bson.M{"tracking_code": code})
}

func (r *PacketRepository) findOne(ctx context.Context, filter bson.M) (*domain.Packet, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var p domain.Packet
	err := r.col.FindOne(ctx, filter).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrPacketNotFound
		}
		return nil, err
	}
	return &p, nil
}

// FindByIDs retrieves all packets whose id is in ids. Missing ids are simply
// absent from the result; the caller compares lengths when that matters.
func (r *PacketRepository) FindByIDs(ctx context.Context, ids []string) ([]*domain.Packet, error) {
	return r.findAll(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

// Update replaces the packet document, guarded by the expected status. A miss
// means a concurrent transition won the race and surfaces as
// domain.ErrConcurrentModification rather than a silent overwrite.
func (r *PacketRepository) Update(ctx context.Context, p *domain.Packet, expectedStatus domain.PacketStatus) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"_id": p.ID, "status": expectedStatus}
	res, err := r.col.ReplaceOne(ctx, filter, p)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrConcurrentModification
	}
	return nil
}

// ListByStatusAndOriginCity backs the hub dispatch views (ready-for-dispatch,
// in-transit) which partition by lifecycle phase and origin city.
func (r *PacketRepository) ListByStatusAndOriginCity(ctx context.Context, status domain.PacketStatus, city string) ([]*domain.Packet, error) {
	return r.findAll(ctx, bson.M{"status": status, "origin_city": city})
}

// ListAwaitingAgent returns at_destination_hub packets with no delivery agent
// whose resolved destination is city.
func (r *PacketRepository) ListAwaitingAgent(ctx context.Context, city string) ([]*domain.Packet, error) {
	filter := bson.M{
		"status":                  domain.StatusAtDestinationHub,
		"assigned_delivery_agent": bson.M{"$in": bson.A{"", nil}},
		"$or":                     resolvedDestinationClauses(city),
	}
	return r.findAll(ctx, filter)
}

// ListOutForDelivery returns packets bound for city that are out for delivery
// or already hold a delivery agent.
func (r *PacketRepository) ListOutForDelivery(ctx context.Context, city string) ([]*domain.Packet, error) {
	filter := bson.M{
		"$and": bson.A{
			bson.M{"$or": resolvedDestinationClauses(city)},
			bson.M{"$or": bson.A{
				bson.M{"status": domain.StatusOutForDelivery},
				bson.M{
					"assigned_delivery_agent": bson.M{"$nin": bson.A{"", nil}},
					"status":                  bson.M{"$ne": domain.StatusDelivered},
				},
			}},
		},
	}
	return r.findAll(ctx, filter)
}

// ListActiveForAgent returns the packets the agent can currently act on:
// pickup assignments awaiting collection and delivery assignments not yet
// delivered.
func (r *PacketRepository) ListActiveForAgent(ctx context.Context, agentID string) ([]*domain.Packet, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{
			"assigned_pickup_agent": agentID,
			"status":                bson.M{"$in": bson.A{domain.StatusPending, domain.StatusAssigned}},
		},
		bson.M{
			"assigned_delivery_agent": agentID,
			"status":                  bson.M{"$ne": domain.StatusDelivered},
		},
	}}
	return r.findAll(ctx, filter)
}

func (r *PacketRepository) findAll(ctx context.Context, filter bson.M) ([]*domain.Packet, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cursor, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []*domain.Packet
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// resolvedDestinationClauses expresses domain.Packet.ResolvedDestination as a
// query: pickup-type packets route to their hub, everything else to the
// destination city.
func resolvedDestinationClauses(city string) bson.A {
	return bson.A{
		bson.M{"delivery_type": domain.DeliveryTypePickup, "destination_hub": city},
		bson.M{
			"delivery_type":   domain.DeliveryTypeDelivery,
			"destination_city": city,
		},
		bson.M{
			"delivery_type":   domain.DeliveryTypePickup,
			"destination_hub": bson.M{"$in": bson.A{"", nil}},
			"destination_city": city,
		},
	}
}

// EnsureIndexes creates the indexes the list queries depend on.
func (r *PacketRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "tracking_code", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "origin_city", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "destination_city", Value: 1}}},
		{Keys: bson.D{{Key: "assigned_pickup_agent", Value: 1}}},
		{Keys: bson.D{{Key: "assigned_delivery_agent", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
