package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/JustBrowsing/command-service/internal/core/domain"
)

type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

func (m *MySQLAdapter) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func isDuplicateKey(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}

func (m *MySQLAdapter) GetInventory(ctx context.Context, productID string) (*domain.Inventory, error) {
	var (
		inv             domain.Inventory
		replenishmentAt sql.NullTime
	)
	err := m.db.QueryRowContext(ctx, `
		SELECT id, product_id, quantity, version, last_replenishment_at, updated_at
		FROM inventory WHERE product_id = ?`, productID,
	).Scan(&inv.ID, &inv.ProductID, &inv.Quantity, &inv.Version, &replenishmentAt, &inv.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query inventory: %w", err)
	}

	if replenishmentAt.Valid {
		inv.LastReplenishmentAt = &replenishmentAt.Time
	}
	return &inv, nil
}

func (m *MySQLAdapter) SaveInventory(ctx context.Context, inv domain.Inventory, isNew bool, event domain.OutboxEvent) error {
	return m.withTx(ctx, func(tx *sql.Tx) error {
		if isNew {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO inventory (id, product_id, quantity, version, last_replenishment_at, updated_at)
				VALUES (?, ?, ?, 0, ?, NOW())`,
				inv.ID, inv.ProductID, inv.Quantity, inv.LastReplenishmentAt,
			)
			if isDuplicateKey(err) {
				// lost the lazy-creation race; caller retries from a fresh read
				return domain.ErrConcurrentModification
			}
			if err != nil {
				return fmt.Errorf("insert inventory: %w", err)
			}
		} else {
			result, err := tx.ExecContext(ctx, `
				UPDATE inventory
				SET quantity = ?, version = version + 1, last_replenishment_at = ?, updated_at = NOW()
				WHERE product_id = ? AND version = ?`,
				inv.Quantity, inv.LastReplenishmentAt, inv.ProductID, inv.Version,
			)
			if err != nil {
				return fmt.Errorf("update inventory: %w", err)
			}
			rows, _ := result.RowsAffected()
			if rows == 0 {
				return domain.ErrConcurrentModification
			}
		}
		return insertOutboxEvent(ctx, tx, event)
	})
}

// decrementInventoryTx applies the versioned stock decrement inside the
// caller's transaction. Quantity is checked before mutating so the row can
// never go negative; a version mismatch at write time means another writer
// committed first.
func decrementInventoryTx(ctx context.Context, tx *sql.Tx, productID string, amount int) error {
	var quantity, version int
	err := tx.QueryRowContext(ctx, `
		SELECT quantity, version FROM inventory WHERE product_id = ?`, productID,
	).Scan(&quantity, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.NotFoundError{Resource: "Inventory", Field: "productId", Value: productID}
	}
	if err != nil {
		return fmt.Errorf("query inventory: %w", err)
	}

	if quantity < amount {
		return &domain.InsufficientStockError{ProductID: productID, Requested: amount, Available: quantity}
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE inventory
		SET quantity = quantity - ?, version = version + 1, updated_at = NOW()
		WHERE product_id = ? AND version = ?`,
		amount, productID, version,
	)
	if err != nil {
		return fmt.Errorf("update inventory: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrConcurrentModification
	}
	return nil
}

// insertOutboxEvent appends the publish intent inside the caller's
// transaction; every mutating composite method goes through here so the
// event commits or rolls back with the domain change.
func insertOutboxEvent(ctx context.Context, tx *sql.Tx, ev domain.OutboxEvent) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO outbox_events (id, aggregate_type, aggregate_id, event_type, payload, created_at, processed)
		VALUES (?, ?, ?, ?, ?, ?, FALSE)`,
		ev.ID, ev.AggregateType, ev.AggregateID, ev.EventType, ev.Payload, ev.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return nil
}
