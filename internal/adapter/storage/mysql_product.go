package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/JustBrowsing/command-service/internal/core/domain"
)

func (m *MySQLAdapter) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return m.queryProduct(ctx, `
		SELECT id, sku, name, description, price_cents, created_at, updated_at
		FROM products WHERE id = ?`, id)
}

func (m *MySQLAdapter) GetProductBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	return m.queryProduct(ctx, `
		SELECT id, sku, name, description, price_cents, created_at, updated_at
		FROM products WHERE sku = ?`, sku)
}

func (m *MySQLAdapter) queryProduct(ctx context.Context, query string, arg any) (*domain.Product, error) {
	var p domain.Product
	err := m.db.QueryRowContext(ctx, query, arg).Scan(
		&p.ID, &p.SKU, &p.Name, &p.Description, &p.PriceCents, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}
	return &p, nil
}

func (m *MySQLAdapter) CreateProduct(ctx context.Context, product *domain.Product, inventory *domain.Inventory, tags []domain.TagAssignment, events []domain.OutboxEvent) error {
	return m.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO products (id, sku, name, description, price_cents, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			product.ID, product.SKU, product.Name, product.Description,
			product.PriceCents, product.CreatedAt, product.UpdatedAt,
		)
		if isDuplicateKey(err) {
			return &domain.DuplicateResourceError{Resource: "Product", Field: "sku", Value: product.SKU}
		}
		if err != nil {
			return fmt.Errorf("insert product: %w", err)
		}

		if inventory != nil {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO inventory (id, product_id, quantity, version, last_replenishment_at, updated_at)
				VALUES (?, ?, ?, 0, ?, NOW())`,
				inventory.ID, inventory.ProductID, inventory.Quantity, inventory.LastReplenishmentAt,
			)
			if err != nil {
				return fmt.Errorf("insert inventory: %w", err)
			}
		}

		for _, tag := range tags {
			if _, err := addTagTx(ctx, tx, product.ID, tag); err != nil {
				return err
			}
		}

		for _, ev := range events {
			if err := insertOutboxEvent(ctx, tx, ev); err != nil {
				return err
			}
		}
		return nil
	})
}

func (m *MySQLAdapter) UpdateProduct(ctx context.Context, product *domain.Product, event domain.OutboxEvent) error {
	return m.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE products SET name = ?, description = ?, price_cents = ?, updated_at = NOW()
			WHERE id = ?`,
			product.Name, product.Description, product.PriceCents, product.ID,
		)
		if err != nil {
			return fmt.Errorf("update product: %w", err)
		}
		rows, _ := result.RowsAffected()
		if rows == 0 {
			return &domain.NotFoundError{Resource: "Product", Field: "id", Value: product.ID}
		}
		return insertOutboxEvent(ctx, tx, event)
	})
}

func (m *MySQLAdapter) AddProductTag(ctx context.Context, productID string, tag domain.TagAssignment, event domain.OutboxEvent) (string, error) {
	var tagID string
	err := m.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM products WHERE id = ?`, productID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return &domain.NotFoundError{Resource: "Product", Field: "id", Value: productID}
		}
		if err != nil {
			return fmt.Errorf("query product: %w", err)
		}

		tagID, err = addTagTx(ctx, tx, productID, tag)
		if err != nil {
			return err
		}
		return insertOutboxEvent(ctx, tx, event)
	})
	if err != nil {
		return "", err
	}
	return tagID, nil
}

func (m *MySQLAdapter) RemoveProductTag(ctx context.Context, productID, tagID string, event domain.OutboxEvent) error {
	return m.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			DELETE FROM product_tags WHERE product_id = ? AND tag_id = ?`,
			productID, tagID,
		)
		if err != nil {
			return fmt.Errorf("delete product tag: %w", err)
		}
		rows, _ := result.RowsAffected()
		if rows == 0 {
			return &domain.NotFoundError{Resource: "Tag", Field: "id", Value: tagID}
		}
		return insertOutboxEvent(ctx, tx, event)
	})
}

// addTagTx finds or creates the tag by name and attaches it to the product.
// The unique (product_id, tag_id) key rejects duplicate associations.
func addTagTx(ctx context.Context, tx *sql.Tx, productID string, tag domain.TagAssignment) (string, error) {
	var tagID string
	err := tx.QueryRowContext(ctx, `SELECT id FROM tags WHERE name = ?`, tag.Name).Scan(&tagID)
	if errors.Is(err, sql.ErrNoRows) {
		tagID = uuid.New().String()
		if _, err := tx.ExecContext(ctx, `INSERT INTO tags (id, name) VALUES (?, ?)`, tagID, tag.Name); err != nil {
			return "", fmt.Errorf("insert tag: %w", err)
		}
	} else if err != nil {
		return "", fmt.Errorf("query tag: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO product_tags (id, product_id, tag_id, tag_value)
		VALUES (?, ?, ?, ?)`,
		uuid.New().String(), productID, tagID, tag.Value,
	)
	if isDuplicateKey(err) {
		return "", &domain.DuplicateResourceError{Resource: "Tag", Field: "name", Value: tag.Name}
	}
	if err != nil {
		return "", fmt.Errorf("insert product tag: %w", err)
	}
	return tagID, nil
}
