package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/swiftlink/courier-system/internal/api/metrics"
	"github.com/swiftlink/courier-system/internal/core/domain"
	"github.com/swiftlink/courier-system/internal/infrastructure/queue"
)

const (
	// positionTopic matches agents/<agent_id>/position.
	positionTopic  = "agents/+/position"
	connectTimeout = 10 * time.Second
)

// Config captures the settings for the MQTT broker connection.
type Config struct {
	BrokerURL string
	ClientID  string
	Username  string
	Password  string
}

// positionPayload is the wire format published by agent mobile clients.
type positionPayload struct {
	AgentID   string    `json:"agent_id"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Timestamp time.Time `json:"timestamp"`
}

// PositionConsumer subscribes to the agent position topic and feeds ticks into
// the sharded dispatcher. Malformed payloads are logged and dropped; the
// subscription survives broker reconnects via paho's auto-reconnect.
type PositionConsumer struct {
	client     paho.Client
	dispatcher *queue.Dispatcher
	log        zerolog.Logger
}

func NewPositionConsumer(cfg Config, dispatcher *queue.Dispatcher, log zerolog.Logger) *PositionConsumer {
	opts := paho.NewClientOptions().
		AddBroker(cfg.BrokerURL).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetAutoReconnect(true).
		SetConnectTimeout(connectTimeout)

	c := &PositionConsumer{dispatcher: dispatcher, log: log}
	opts.SetOnConnectHandler(func(client paho.Client) {
		// Re-subscribe on every (re)connect; subscriptions are not retained
		// across clean sessions.
		if token := client.Subscribe(positionTopic, 1, c.handleMessage); token.Wait() && token.Error() != nil {
			log.Error().Err(token.Error()).Str("topic", positionTopic).Msg("mqtt subscribe failed")
		}
	})

	c.client = paho.NewClient(opts)
	return c
}

// Start connects to the broker. The OnConnect handler performs the subscribe.
func (c *PositionConsumer) Start() error {
	if token := c.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt connect: %w", token.Error())
	}
	return nil
}

// Stop disconnects, allowing in-flight messages 250ms to finish.
func (c *PositionConsumer) Stop() {
	c.client.Disconnect(250)
}

func (c *PositionConsumer) handleMessage(_ paho.Client, msg paho.Message) {
	var payload positionPayload
	if err := json.Unmarshal(msg.Payload(), &payload); err != nil {
		c.log.Warn().Err(err).Str("topic", msg.Topic()).Msg("malformed position payload")
		return
	}
	if payload.AgentID == "" {
		c.log.Warn().Str("topic", msg.Topic()).Msg("position payload missing agent id")
		return
	}
	if payload.Timestamp.IsZero() {
		payload.Timestamp = time.Now().UTC()
	}

	c.dispatcher.Enqueue(domain.AgentPosition{
		AgentID:   payload.AgentID,
		Position:  domain.Coordinates{Lat: payload.Lat, Lng: payload.Lng},
		Timestamp: payload.Timestamp,
	})
	metrics.PositionTicksTotal.WithLabelValues("mqtt").Inc()
	metrics.PositionQueueDepth.Set(float64(c.dispatcher.Depth()))
}
