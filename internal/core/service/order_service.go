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

var (
	ErrDuplicateRequest = errors.New("duplicate request")
	ErrInvalidOrder     = errors.New("order must contain at least one item with positive quantity")
)

type CreateOrderItem struct {
	ProductID string
	Quantity  int
}

type CreateOrderRequest struct {
	// RequestID is an optional client token for duplicate-request detection
	RequestID string
	Items     []CreateOrderItem
}

// OrderService orchestrates order placement: availability pre-check,
// reservation, persistence and the outbox write. Reservation through
// persistence is one database transaction, so a failed item undoes every
// decrement already applied.
type OrderService struct {
	products port.ProductRepository
	orders   port.OrderRepository
	ledger   *InventoryService
	cache    port.CacheRepository
	logger   *zap.Logger
}

func NewOrderService(products port.ProductRepository, orders port.OrderRepository, ledger *InventoryService, cache port.CacheRepository, logger *zap.Logger) *OrderService {
	return &OrderService{
		products: products,
		orders:   orders,
		ledger:   ledger,
		cache:    cache,
		logger:   logger,
	}
}

func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*domain.Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrInvalidOrder
	}
	for _, item := range req.Items {
		if item.ProductID == "" || item.Quantity <= 0 {
			return nil, ErrInvalidOrder
		}
	}

	if req.RequestID != "" {
		ok, err := s.cache.SetIdempotency(ctx, "order:"+req.RequestID)
		if err != nil {
			return nil, fmt.Errorf("idempotency check failed: %w", err)
		}
		if !ok {
			return nil, ErrDuplicateRequest
		}
	}

	// Availability pre-check over a committed snapshot. This holds no
	// reservation: stock sufficient here can still be consumed by a
	// concurrent order before the reserve phase, which re-validates.
	products := make(map[string]*domain.Product, len(req.Items))
	for _, item := range req.Items {
		product, err := s.products.GetProduct(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, &domain.NotFoundError{Resource: "Product", Field: "id", Value: item.ProductID}
		}
		products[item.ProductID] = product

		ok, err := s.ledger.HasSufficientStock(ctx, item.ProductID, item.Quantity)
		if err != nil {
			return nil, err
		}
		if !ok {
			available := 0
			if inv, err := s.ledger.Get(ctx, item.ProductID); err == nil && inv != nil {
				available = inv.Quantity
			}
			return nil, &domain.InsufficientStockError{
				ProductID: item.ProductID,
				Requested: item.Quantity,
				Available: available,
			}
		}
	}

	order := &domain.Order{
		ID:          uuid.New().String(),
		OrderNumber: domain.NewOrderNumber(),
		CreatedAt:   time.Now().UTC(),
	}
	for _, item := range req.Items {
		product := products[item.ProductID]
		// unit price is snapshotted here, not re-read at delivery time
		order.Items = append(order.Items, domain.OrderItem{
			ID:             uuid.New().String(),
			OrderID:        order.ID,
			ProductID:      product.ID,
			Quantity:       item.Quantity,
			UnitPriceCents: product.PriceCents,
		})
		order.TotalAmountCents += product.PriceCents * int64(item.Quantity)
	}

	payload, err := marshalOrder(order)
	if err != nil {
		return nil, fmt.Errorf("serialize order: %w", err)
	}
	event := domain.NewOutboxEvent("order", order.ID, "created", payload)

	if err := s.orders.CreateOrder(ctx, order, event); err != nil {
		return nil, err
	}

	s.logger.Info("order created",
		zap.String("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.Int64("total_amount_cents", order.TotalAmountCents),
		zap.Int("items", len(order.Items)),
	)
	return order, nil
}
