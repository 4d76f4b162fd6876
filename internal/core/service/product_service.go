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

var ErrInvalidProduct = errors.New("product requires a sku, a name and a non-negative price")

type CreateProductRequest struct {
	SKU              string
	Name             string
	Description      string
	PriceCents       int64
	InitialInventory int
	Tags             []domain.TagAssignment
}

type UpdateProductRequest struct {
	Name        *string
	Description *string
	PriceCents  *int64
}

type ProductService struct {
	products port.ProductRepository
	logger   *zap.Logger
}

func NewProductService(products port.ProductRepository, logger *zap.Logger) *ProductService {
	return &ProductService{products: products, logger: logger}
}

func (s *ProductService) CreateProduct(ctx context.Context, req CreateProductRequest) (*domain.Product, error) {
	if req.SKU == "" || req.Name == "" || req.PriceCents < 0 {
		return nil, ErrInvalidProduct
	}

	existing, err := s.products.GetProductBySKU(ctx, req.SKU)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &domain.DuplicateResourceError{Resource: "Product", Field: "sku", Value: req.SKU}
	}

	now := time.Now().UTC()
	product := &domain.Product{
		ID:          uuid.New().String(),
		SKU:         req.SKU,
		Name:        req.Name,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var (
		inventory *domain.Inventory
		events    []domain.OutboxEvent
	)
	if req.InitialInventory > 0 {
		inventory = &domain.Inventory{
			ID:                  uuid.New().String(),
			ProductID:           product.ID,
			Quantity:            req.InitialInventory,
			LastReplenishmentAt: &now,
		}
		payload, err := marshalInventory(inventory)
		if err != nil {
			return nil, fmt.Errorf("serialize inventory: %w", err)
		}
		events = append(events, domain.NewOutboxEvent("inventory", inventory.ID, "created", payload))
	}

	payload, err := marshalProduct(product)
	if err != nil {
		return nil, fmt.Errorf("serialize product: %w", err)
	}
	events = append(events, domain.NewOutboxEvent("product", product.ID, "created", payload))

	if err := s.products.CreateProduct(ctx, product, inventory, req.Tags, events); err != nil {
		return nil, err
	}

	s.logger.Info("product created",
		zap.String("product_id", product.ID),
		zap.String("sku", product.SKU),
	)
	return product, nil
}

func (s *ProductService) UpdateProduct(ctx context.Context, productID string, req UpdateProductRequest) (*domain.Product, error) {
	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, &domain.NotFoundError{Resource: "Product", Field: "id", Value: productID}
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.PriceCents != nil {
		if *req.PriceCents < 0 {
			return nil, ErrInvalidProduct
		}
		product.PriceCents = *req.PriceCents
	}

	event, err := s.productUpdatedEvent(product)
	if err != nil {
		return nil, err
	}
	if err := s.products.UpdateProduct(ctx, product, event); err != nil {
		return nil, err
	}

	s.logger.Info("product updated", zap.String("product_id", product.ID))
	return product, nil
}

func (s *ProductService) AddTag(ctx context.Context, productID string, tag domain.TagAssignment) (string, error) {
	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return "", err
	}
	if product == nil {
		return "", &domain.NotFoundError{Resource: "Product", Field: "id", Value: productID}
	}

	event, err := s.productUpdatedEvent(product)
	if err != nil {
		return "", err
	}
	tagID, err := s.products.AddProductTag(ctx, productID, tag, event)
	if err != nil {
		return "", err
	}

	s.logger.Info("tag added to product",
		zap.String("product_id", productID),
		zap.String("tag", tag.Name),
	)
	return tagID, nil
}

func (s *ProductService) RemoveTag(ctx context.Context, productID, tagID string) error {
	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return err
	}
	if product == nil {
		return &domain.NotFoundError{Resource: "Product", Field: "id", Value: productID}
	}

	event, err := s.productUpdatedEvent(product)
	if err != nil {
		return err
	}
	if err := s.products.RemoveProductTag(ctx, productID, tagID, event); err != nil {
		return err
	}

	s.logger.Info("tag removed from product",
		zap.String("product_id", productID),
		zap.String("tag_id", tagID),
	)
	return nil
}

func (s *ProductService) productUpdatedEvent(product *domain.Product) (domain.OutboxEvent, error) {
	payload, err := marshalProduct(product)
	if err != nil {
		return domain.OutboxEvent{}, fmt.Errorf("serialize product: %w", err)
	}
	return domain.NewOutboxEvent("product", product.ID, "updated", payload), nil
}
