package notify

import (
	"context"

	"github.com/rs/zerolog"
)

// LogNotifier records lifecycle events in the application log. It is the
// fallback when no webhook endpoint is configured.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) DeliveryAssignment(_ context.Context, packetID, agentID string) error {
	n.log.Info().
		Str("packet_id", packetID).
		Str("agent_id", agentID).
		Msg("delivery assignment")
	return nil
}

func (n *LogNotifier) PickupConfirmation(_ context.Context, packetID string) error {
	n.log.Info().Str("packet_id", packetID).Msg("pickup confirmed")
	return nil
}

func (n *LogNotifier) DeliveryConfirmation(_ context.Context, packetID string) error {
	n.log.Info().Str("packet_id", packetID).Msg("delivery confirmed")
	return nil
}
