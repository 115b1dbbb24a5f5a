package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/swiftlink/courier-system/internal/core/domain"
)

const collectionAgents = "agents"

type AgentRepository struct {
	col *mongo.Collection
}

func NewAgentRepository(db *mongo.Database) *AgentRepository {
	return &AgentRepository{col: db.Collection(collectionAgents)}
}

// FindByID retrieves an agent by id.
func (r *AgentRepository) FindByID(ctx context.Context, id string) (*domain.Agent, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var a domain.Agent
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&a)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAgentNotFound
		}
		return nil, err
	}
	return &a, nil
}

// ListByCity returns active agents working the city.
func (r *AgentRepository) ListByCity(ctx context.Context, city string) ([]*domain.Agent, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cursor, err := r.col.Find(ctx, bson.M{"city": city, "is_active": true})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []*domain.Agent
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
