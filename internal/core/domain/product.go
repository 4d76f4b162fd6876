package domain

import "time"

type Product struct {
	ID          string
	SKU         string
	Name        string
	Description string
	PriceCents  int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Tag struct {
	ID   string
	Name string
}

// TagAssignment is the (name, value) pair attached to a product; the tag
// itself is found or created by name when the assignment is persisted.
type TagAssignment struct {
	Name  string
	Value string
}

type ProductTag struct {
	ID        string
	ProductID string
	TagID     string
	TagValue  string
}
