package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/swiftlink/courier-system/internal/core/domain"
)

const collectionVehicles = "vehicles"

type VehicleRepository struct {
	col *mongo.Collection
}

func NewVehicleRepository(db *mongo.Database) *VehicleRepository {
	return &VehicleRepository{col: db.Collection(collectionVehicles)}
}

// FindByID retrieves a vehicle by id.
func (r *VehicleRepository) FindByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var v domain.Vehicle
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&v)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrVehicleNotFound
		}
		return nil, err
	}
	return &v, nil
}

// ListByCity returns the vehicles currently homed at the city's hub.
func (r *VehicleRepository) ListByCity(ctx context.Context, city string) ([]*domain.Vehicle, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cursor, err := r.col.Find(ctx, bson.M{"current_city": city})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []*domain.Vehicle
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AppendPackets loads the packets in a single conditional update. The filter
// re-states the capacity, availability and destination guards so that two
// racing assignments cannot both commit: whichever write matches first wins
// and the loser's filter no longer matches.
func (r *VehicleRepository) AppendPackets(ctx context.Context, vehicleID string, packetIDs []string, totalWeightKg float64, destination string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"_id":               vehicleID,
		"is_active":         true,
		"is_in_maintenance": false,
		"$expr": bson.M{"$lte": bson.A{
			bson.M{"$add": bson.A{"$current_load_kg", totalWeightKg}},
			"$capacity_kg",
		}},
		"$or": bson.A{
			bson.M{"destination_city": bson.M{"$in": bson.A{"", nil}}},
			bson.M{"destination_city": destination},
		},
	}
	update := bson.M{
		"$push": bson.M{"assigned_packet_ids": bson.M{"$each": packetIDs}},
		"$inc":  bson.M{"current_load_kg": totalWeightKg},
		"$set":  bson.M{"destination_city": destination},
	}

	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrConcurrentModification
	}
	return nil
}

// RemovePacket pulls the packet off the vehicle and releases its weight in a
// single pipeline update, so the emptied vehicle's destination reset cannot
// be lost to a crash between writes. A second removal of the same packet
// matches nothing and is a no-op, so the load is never decremented twice.
// When the last packet leaves, the destination constraint is released.
func (r *VehicleRepository) RemovePacket(ctx context.Context, vehicleID, packetID string, weightKg float64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"_id": vehicleID, "assigned_packet_ids": packetID}
	emptied := bson.M{"$eq": bson.A{bson.M{"$size": "$assigned_packet_ids"}, 0}}
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"assigned_packet_ids": bson.M{"$filter": bson.M{
				"input": "$assigned_packet_ids",
				"cond":  bson.M{"$ne": bson.A{"$$this", packetID}},
			}},
			"current_load_kg": bson.M{"$subtract": bson.A{"$current_load_kg", weightKg}},
		}}},
		{{Key: "$set", Value: bson.M{
			"current_load_kg":  bson.M{"$cond": bson.A{emptied, 0, "$current_load_kg"}},
			"destination_city": bson.M{"$cond": bson.A{emptied, "", "$destination_city"}},
		}}},
	}

	_, err := r.col.UpdateOne(ctx, filter, pipeline)
	return err
}

// EnsureIndexes creates the indexes the fleet queries depend on.
func (r *VehicleRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "current_city", Value: 1}}},
		{Keys: bson.D{{Key: "assigned_packet_ids", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
