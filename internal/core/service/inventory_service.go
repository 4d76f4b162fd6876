package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JustBrowsing/command-service/internal/core/domain"
	"github.com/JustBrowsing/command-service/internal/port"
)

var ErrInvalidAmount = errors.New("amount must be positive")

// InventoryService is the stock ledger: it owns quantity and version per
// product and enforces the non-negative invariant. It never retries
// conflicts itself; callers retry the whole operation from a fresh read.
type InventoryService struct {
	products  port.ProductRepository
	inventory port.InventoryRepository
	logger    *zap.Logger
}

func NewInventoryService(products port.ProductRepository, inventory port.InventoryRepository, logger *zap.Logger) *InventoryService {
	return &InventoryService{
		products:  products,
		inventory: inventory,
		logger:    logger,
	}
}

func (s *InventoryService) Get(ctx context.Context, productID string) (*domain.Inventory, error) {
	return s.inventory.GetInventory(ctx, productID)
}

// HasSufficientStock is a snapshot read; it holds no reservation, so callers
// that go on to reserve must tolerate a re-validation failure.
func (s *InventoryService) HasSufficientStock(ctx context.Context, productID string, amount int) (bool, error) {
	inv, err := s.inventory.GetInventory(ctx, productID)
	if err != nil {
		return false, err
	}
	return inv != nil && inv.Quantity >= amount, nil
}

func (s *InventoryService) Increment(ctx context.Context, productID string, amount int) (*domain.Inventory, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	return s.UpdateInventory(ctx, productID, amount)
}

func (s *InventoryService) Decrement(ctx context.Context, productID string, amount int) (*domain.Inventory, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	return s.UpdateInventory(ctx, productID, -amount)
}

// UpdateInventory applies a signed quantity change under optimistic
// versioning and writes one inventory outbox event in the same transaction.
// The inventory row is created lazily on first use.
func (s *InventoryService) UpdateInventory(ctx context.Context, productID string, quantityChange int) (*domain.Inventory, error) {
	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, &domain.NotFoundError{Resource: "Product", Field: "id", Value: productID}
	}

	inv, err := s.inventory.GetInventory(ctx, productID)
	if err != nil {
		return nil, err
	}
	isNew := false
	if inv == nil {
		inv = &domain.Inventory{ID: uuid.New().String(), ProductID: productID}
		isNew = true
	}

	switch {
	case quantityChange > 0:
		inv.Quantity += quantityChange
		now := time.Now().UTC()
		inv.LastReplenishmentAt = &now
	case quantityChange < 0:
		requested := -quantityChange
		if inv.Quantity < requested {
			return nil, &domain.InsufficientStockError{
				ProductID: productID,
				Requested: requested,
				Available: inv.Quantity,
			}
		}
		inv.Quantity -= requested
	}

	payload, err := marshalInventory(inv)
	if err != nil {
		return nil, fmt.Errorf("serialize inventory: %w", err)
	}
	event := domain.NewOutboxEvent("inventory", inv.ID, "updated", payload)

	if err := s.inventory.SaveInventory(ctx, *inv, isNew, event); err != nil {
		return nil, err
	}

	s.logger.Info("inventory updated",
		zap.String("product_id", productID),
		zap.Int("change", quantityChange),
		zap.Int("quantity", inv.Quantity),
	)
	return inv, nil
}
