package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/JustBrowsing/command-service/internal/core/domain"
)

// CreateOrder reserves stock for every item, then persists the order, its
// items and the outbox event, all in one transaction. A failure on any item
// rolls back decrements already applied, so no partially-reserved order is
// ever visible.
func (m *MySQLAdapter) CreateOrder(ctx context.Context, order *domain.Order, event domain.OutboxEvent) error {
	return m.withTx(ctx, func(tx *sql.Tx) error {
		for _, item := range order.Items {
			if err := decrementInventoryTx(ctx, tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO orders (id, order_number, total_amount_cents, created_at)
			VALUES (?, ?, ?, ?)`,
			order.ID, order.OrderNumber, order.TotalAmountCents, order.CreatedAt,
		)
		if isDuplicateKey(err) {
			return &domain.DuplicateResourceError{Resource: "Order", Field: "orderNumber", Value: order.OrderNumber}
		}
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		for _, item := range order.Items {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO order_items (id, order_id, product_id, quantity, unit_price_cents)
				VALUES (?, ?, ?, ?, ?)`,
				item.ID, order.ID, item.ProductID, item.Quantity, item.UnitPriceCents,
			)
			if err != nil {
				return fmt.Errorf("insert order item: %w", err)
			}
		}

		return insertOutboxEvent(ctx, tx, event)
	})
}
