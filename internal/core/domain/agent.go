package domain

import "time"

// Agent is a mobile field worker tied to a city. Live position is transient:
// it is streamed by the mobile client and consumed by proximity matching,
// never persisted by this core.
type Agent struct {
	ID       string `json:"id" bson:"_id,omitempty"`
	Name     string `json:"name" bson:"name"`
	Phone    string `json:"phone" bson:"phone"`
	City     string `json:"city" bson:"city"`
	IsActive bool   `json:"is_active" bson:"is_active"`
}

// AgentPosition is a single live position tick from an agent's client.
type AgentPosition struct {
	AgentID   string      `json:"agent_id"`
	Position  Coordinates `json:"position"`
	Timestamp time.Time   `json:"timestamp"`
}
