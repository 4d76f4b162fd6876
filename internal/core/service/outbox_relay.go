package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JustBrowsing/command-service/internal/port"
)

// topicByAggregateType is the fixed routing table; it is deliberately a
// closed mapping, not configuration.
var topicByAggregateType = map[string]string{
	"product":   "products",
	"inventory": "inventory",
	"order":     "orders",
}

// OutboxRelay drains unprocessed outbox events to the broker on a fixed
// delay. Delivery is at-least-once: an event is marked processed only after
// the broker acknowledged it, and a crash between publish and mark causes a
// redelivery on the next cycle. A failing event stays unprocessed and is
// retried every cycle; it never blocks the rest of the batch.
type OutboxRelay struct {
	outbox    port.OutboxRepository
	publisher port.EventPublisher
	interval  time.Duration
	batchSize int
	logger    *zap.Logger
}

func NewOutboxRelay(outbox port.OutboxRepository, publisher port.EventPublisher, interval time.Duration, batchSize int, logger *zap.Logger) *OutboxRelay {
	if interval <= 0 {
		interval = time.Second
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &OutboxRelay{
		outbox:    outbox,
		publisher: publisher,
		interval:  interval,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Run blocks until ctx is cancelled. The delay restarts after each cycle
// completes, so slow cycles do not overlap.
func (r *OutboxRelay) Run(ctx context.Context) {
	timer := time.NewTimer(r.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("outbox relay stopped")
			return
		case <-timer.C:
			r.ProcessOnce(ctx)
			timer.Reset(r.interval)
		}
	}
}

// ProcessOnce runs a single drain cycle and returns the number of events
// marked processed.
func (r *OutboxRelay) ProcessOnce(ctx context.Context) int {
	events, err := r.outbox.ListUnprocessed(ctx, r.batchSize)
	if err != nil {
		r.logger.Error("failed to list unprocessed outbox events", zap.Error(err))
		return 0
	}
	if len(events) == 0 {
		return 0
	}

	r.logger.Info("processing outbox events", zap.Int("count", len(events)))

	processed := 0
	for _, ev := range events {
		topic, ok := topicByAggregateType[strings.ToLower(ev.AggregateType)]
		if !ok {
			// misrouted row: leave it unprocessed and keep draining the batch
			r.logger.Error("unknown aggregate type",
				zap.String("event_id", ev.ID),
				zap.String("aggregate_type", ev.AggregateType),
			)
			continue
		}

		if err := r.publisher.Publish(ctx, topic, ev.AggregateID, ev.Payload); err != nil {
			r.logger.Error("failed to publish outbox event",
				zap.String("event_id", ev.ID),
				zap.String("topic", topic),
				zap.Error(err),
			)
			continue
		}

		if err := r.outbox.MarkProcessed(ctx, ev.ID); err != nil {
			// already published: the event will be redelivered next cycle,
			// which downstream consumers absorb by deduping
			r.logger.Error("failed to mark outbox event processed",
				zap.String("event_id", ev.ID),
				zap.Error(err),
			)
			continue
		}

		processed++
		r.logger.Debug("processed outbox event",
			zap.String("event_id", ev.ID),
			zap.String("event_type", ev.EventType),
			zap.String("topic", topic),
		)
	}
	return processed
}
