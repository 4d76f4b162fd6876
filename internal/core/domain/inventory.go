package domain

import "time"

type Inventory struct {
	ID                  string
	ProductID           string
	Quantity            int
	Version             int // optimistic locking
	LastReplenishmentAt *time.Time
	UpdatedAt           time.Time
}
