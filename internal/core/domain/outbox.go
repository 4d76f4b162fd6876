package domain

import (
	"time"

	"github.com/google/uuid"
)

// OutboxEvent is a durable publish intent, written in the same transaction
// as the domain mutation it describes and drained later by the relay.
type OutboxEvent struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
	CreatedAt     time.Time
	Processed     bool
	ProcessedAt   *time.Time
}

func NewOutboxEvent(aggregateType, aggregateID, eventType string, payload []byte) OutboxEvent {
	return OutboxEvent{
		ID:            uuid.New().String(),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     time.Now().UTC(),
	}
}

func (e *OutboxEvent) MarkProcessed() {
	now := time.Now().UTC()
	e.Processed = true
	e.ProcessedAt = &now
}
