package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/swiftlink/courier-system/internal/core/domain"
)

// DispatchRepository commits a vehicle departure as one multi-document
// transaction: every loaded packet moves to in_transit with the origin-side
// handoff recorded, and the vehicle is reset for its next loading cycle. If
// any packet is no longer staged at the origin hub the transaction aborts and
// nothing departs.
type DispatchRepository struct {
	client *mongo.Client
	db     *mongo.Database
}

func NewDispatchRepository(client *mongo.Client, db *mongo.Database) *DispatchRepository {
	return &DispatchRepository{client: client, db: db}
}

func (r *DispatchRepository) DispatchVehicle(ctx context.Context, vehicleID string, packetIDs []string, departedAt time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		historyEntry := bson.M{
			"status":    string(domain.StatusInTransit),
			"timestamp": departedAt.UTC(),
			"notes":     "vehicle " + vehicleID + " departed",
		}
		packetFilter := bson.M{
			"_id":    bson.M{"$in": packetIDs},
			"status": domain.StatusAtOriginHub,
		}
		packetUpdate := bson.M{
			"$set": bson.M{
				"status":              domain.StatusInTransit,
				"dispatched_at":       departedAt.UTC(),
				"confirmed_by_origin": true,
			},
			"$push": bson.M{"status_history": historyEntry},
		}

		res, err := r.db.Collection(collectionPackets).UpdateMany(sc, packetFilter, packetUpdate)
		if err != nil {
			return nil, err
		}
		if res.ModifiedCount != int64(len(packetIDs)) {
			return nil, fmt.Errorf("%w: %d of %d packets staged at origin hub",
				domain.ErrPreconditionFailed, res.ModifiedCount, len(packetIDs))
		}

		vehicleReset := bson.M{"$set": bson.M{
			"assigned_packet_ids": bson.A{},
			"current_load_kg":     0,
			"destination_city":    "",
		}}
		if _, err := r.db.Collection(collectionVehicles).UpdateOne(sc, bson.M{"_id": vehicleID}, vehicleReset); err != nil {
			return nil, err
		}
		return nil, nil
	})
	return err
}
