package port

import (
	"context"

	"github.com/JustBrowsing/command-service/internal/core/domain"
)

// Repositories return (nil, nil) for absent rows; services translate that
// into typed NotFound errors. Composite methods run as a single database
// transaction: the domain mutation and its outbox events commit or roll
// back together.

type ProductRepository interface {
	// GetProduct retrieves a product by ID
	GetProduct(ctx context.Context, id string) (*domain.Product, error)

	// GetProductBySKU retrieves a product by its unique SKU
	GetProductBySKU(ctx context.Context, sku string) (*domain.Product, error)

	// CreateProduct persists the product, its optional initial inventory,
	// its optional tag assignments and the given outbox events atomically
	CreateProduct(ctx context.Context, product *domain.Product, inventory *domain.Inventory, tags []domain.TagAssignment, events []domain.OutboxEvent) error

	// UpdateProduct persists changed product fields plus one outbox event
	UpdateProduct(ctx context.Context, product *domain.Product, event domain.OutboxEvent) error

	// AddProductTag finds or creates the tag by name, attaches it to the
	// product and writes the event; returns the tag ID
	AddProductTag(ctx context.Context, productID string, tag domain.TagAssignment, event domain.OutboxEvent) (string, error)

	// RemoveProductTag detaches the tag from the product and writes the event
	RemoveProductTag(ctx context.Context, productID, tagID string, event domain.OutboxEvent) error
}

type InventoryRepository interface {
	// GetInventory retrieves inventory by product ID
	GetInventory(ctx context.Context, productID string) (*domain.Inventory, error)

	// SaveInventory inserts the row when isNew, otherwise updates it with a
	// version check (ErrConcurrentModification on mismatch); the outbox
	// event is written in the same transaction
	SaveInventory(ctx context.Context, inventory domain.Inventory, isNew bool, event domain.OutboxEvent) error
}

type OrderRepository interface {
	// CreateOrder reserves stock for every item under optimistic versioning
	// and persists the order, its items and the outbox event as one
	// transaction; any item failure rolls back the whole order
	CreateOrder(ctx context.Context, order *domain.Order, event domain.OutboxEvent) error
}

type OutboxRepository interface {
	// ListUnprocessed returns up to limit unprocessed events ordered by
	// creation time ascending
	ListUnprocessed(ctx context.Context, limit int) ([]domain.OutboxEvent, error)

	// MarkProcessed flags one event as delivered
	MarkProcessed(ctx context.Context, id string) error
}
