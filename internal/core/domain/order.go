package domain

import (
	"fmt"
	"math/rand/v2"
	"time"
)

type Order struct {
	ID               string
	OrderNumber      string
	TotalAmountCents int64
	Items            []OrderItem
	CreatedAt        time.Time
}

type OrderItem struct {
	ID             string
	OrderID        string
	ProductID      string
	Quantity       int
	UnitPriceCents int64 // snapshot of the product price at order time
}

// NewOrderNumber generates a human-readable order number, e.g.
// ORD-20260901-48213. Uniqueness is enforced by the store.
func NewOrderNumber() string {
	datePart := time.Now().UTC().Format("20060102")
	return fmt.Sprintf("ORD-%s-%d", datePart, rand.IntN(90000)+10000)
}
