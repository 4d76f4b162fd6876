package service

import (
	"encoding/json"
	"time"

	"github.com/JustBrowsing/command-service/internal/core/domain"
)

// Outbox payload shapes. Consumers dedupe on (aggregateId, eventType,
// createdAt), so payloads carry full snapshots rather than deltas.

type productPayload struct {
	ID          string `json:"id"`
	SKU         string `json:"sku"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	PriceCents  int64  `json:"priceCents"`
}

type inventoryPayload struct {
	ID                  string     `json:"id"`
	ProductID           string     `json:"productId"`
	Quantity            int        `json:"quantity"`
	Version             int        `json:"version"`
	LastReplenishmentAt *time.Time `json:"lastReplenishmentAt,omitempty"`
}

type orderPayload struct {
	ID               string             `json:"id"`
	OrderNumber      string             `json:"orderNumber"`
	TotalAmountCents int64              `json:"totalAmountCents"`
	Items            []orderItemPayload `json:"items"`
	CreatedAt        time.Time          `json:"createdAt"`
}

type orderItemPayload struct {
	ProductID      string `json:"productId"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unitPriceCents"`
}

func marshalProduct(p *domain.Product) ([]byte, error) {
	return json.Marshal(productPayload{
		ID:          p.ID,
		SKU:         p.SKU,
		Name:        p.Name,
		Description: p.Description,
		PriceCents:  p.PriceCents,
	})
}

func marshalInventory(inv *domain.Inventory) ([]byte, error) {
	return json.Marshal(inventoryPayload{
		ID:                  inv.ID,
		ProductID:           inv.ProductID,
		Quantity:            inv.Quantity,
		Version:             inv.Version,
		LastReplenishmentAt: inv.LastReplenishmentAt,
	})
}

func marshalOrder(o *domain.Order) ([]byte, error) {
	items := make([]orderItemPayload, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, orderItemPayload{
			ProductID:      item.ProductID,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
		})
	}
	return json.Marshal(orderPayload{
		ID:               o.ID,
		OrderNumber:      o.OrderNumber,
		TotalAmountCents: o.TotalAmountCents,
		Items:            items,
		CreatedAt:        o.CreatedAt,
	})
}
