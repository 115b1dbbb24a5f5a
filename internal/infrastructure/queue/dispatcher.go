package queue

import (
	"context"
	"hash/fnv"

	"github.com/rs/zerolog"

	"github.com/swiftlink/courier-system/internal/api/metrics"
	"github.com/swiftlink/courier-system/internal/core/domain"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
)

// PositionSink consumes accepted position ticks.
type PositionSink interface {
	UpdatePosition(ctx context.Context, tick domain.AgentPosition) error
}

// Dispatcher routes position ticks to a fixed set of workers using consistent
// hashing on the agent id, guaranteeing per-agent tick ordering: two ticks
// from the same agent are never processed concurrently or out of arrival
// order, so the sink's staleness check stays meaningful.
type Dispatcher struct {
	workers []chan domain.AgentPosition
	sink    PositionSink
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, sink PositionSink, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.AgentPosition, numWorkers),
		sink:    sink,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.AgentPosition, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue sends a tick to the worker responsible for its agent. Enqueue
// never blocks: when the worker's queue is full the tick is dropped and
// counted, since a fresher fix from the same agent is already on its way.
func (d *Dispatcher) Enqueue(tick domain.AgentPosition) {
	select {
	case d.workers[d.shardIndex(tick.AgentID)] <- tick:
	default:
		metrics.PositionTicksDroppedTotal.Inc()
		d.log.Warn().
			Str("agent_id", tick.AgentID).
			Msg("position tick dropped on full worker queue")
	}
}

// Depth returns the total number of ticks queued across all workers.
func (d *Dispatcher) Depth() int {
	total := 0
	for _, ch := range d.workers {
		total += len(ch)
	}
	return total
}

// shardIndex maps an agent id deterministically to a worker index.
func (d *Dispatcher) shardIndex(agentID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(agentID))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.AgentPosition) {
	for {
		select {
		case <-ctx.Done():
			return
		case tick, ok := <-ch:
			if !ok {
				return
			}
			if err := d.sink.UpdatePosition(ctx, tick); err != nil {
				d.log.Error().Err(err).
					Str("agent_id", tick.AgentID).
					Int("worker_id", id).
					Msg("position tick rejected")
			}
		}
	}
}
