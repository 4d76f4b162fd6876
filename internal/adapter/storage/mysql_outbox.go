package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/JustBrowsing/command-service/internal/core/domain"
)

func (m *MySQLAdapter) ListUnprocessed(ctx context.Context, limit int) ([]domain.OutboxEvent, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, aggregate_type, aggregate_id, event_type, payload, created_at, processed, processed_at
		FROM outbox_events
		WHERE processed = FALSE
		ORDER BY created_at ASC
		LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query outbox events: %w", err)
	}
	defer rows.Close()

	var events []domain.OutboxEvent
	for rows.Next() {
		var (
			ev          domain.OutboxEvent
			processedAt sql.NullTime
		)
		if err := rows.Scan(
			&ev.ID, &ev.AggregateType, &ev.AggregateID, &ev.EventType,
			&ev.Payload, &ev.CreatedAt, &ev.Processed, &processedAt,
		); err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}
		if processedAt.Valid {
			ev.ProcessedAt = &processedAt.Time
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox events: %w", err)
	}
	return events, nil
}

// MarkProcessed runs in its own transaction, deliberately decoupled from the
// publish call: a crash between publish and mark causes redelivery, never a
// lost event.
func (m *MySQLAdapter) MarkProcessed(ctx context.Context, id string) error {
	result, err := m.db.ExecContext(ctx, `
		UPDATE outbox_events SET processed = TRUE, processed_at = NOW()
		WHERE id = ?`, id,
	)
	if err != nil {
		return fmt.Errorf("mark outbox event processed: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return &domain.NotFoundError{Resource: "OutboxEvent", Field: "id", Value: id}
	}
	return nil
}
