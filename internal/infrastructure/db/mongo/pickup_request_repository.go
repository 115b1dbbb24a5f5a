package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/swiftlink/courier-system/internal/core/domain"
)

const collectionPickupRequests = "pickup_requests"

type PickupRequestRepository struct {
	col *mongo.Collection
}

func NewPickupRequestRepository(db *mongo.Database) *PickupRequestRepository {
	return &PickupRequestRepository{col: db.Collection(collectionPickupRequests)}
}

// Create inserts a new pickup request document.
func (r *PickupRequestRepository) Create(ctx context.Context, req *domain.PickupRequest) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, req)
	return err
}

// FindByID retrieves a pickup request by id.
func (r *PickupRequestRepository) FindByID(ctx context.Context, id string) (*domain.PickupRequest, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// FindByPacketID retrieves the pickup request bundled with the packet.
func (r *PickupRequestRepository) FindByPacketID(ctx context.Context, packetID string) (*domain.PickupRequest, error) {
	return r.findOne(ctx, bson.M{"packet_id": packetID})
}

func (r *PickupRequestRepository) findOne(ctx context.Context, filter bson.M) (*domain.PickupRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var req domain.PickupRequest
	err := r.col.FindOne(ctx, filter).Decode(&req)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrPickupRequestNotFound
		}
		return nil, err
	}
	return &req, nil
}

// Update replaces the request document, guarded by the expected status.
func (r *PickupRequestRepository) Update(ctx context.Context, req *domain.PickupRequest, expectedStatus domain.PickupRequestStatus) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"_id": req.ID, "status": expectedStatus}
	res, err := r.col.ReplaceOne(ctx, filter, req)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrConcurrentModification
	}
	return nil
}

// EnsureIndexes creates the packet back-reference index.
func (r *PickupRequestRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "packet_id", Value: 1}},
	})
	return err
}
