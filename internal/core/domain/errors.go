package domain

import (
	"errors"
	"fmt"
)

// ErrConcurrentModification signals an optimistic-lock conflict. The whole
// operation is safe to retry from a fresh read; retrying only the failed
// write is not.
var ErrConcurrentModification = errors.New("concurrent modification")

type NotFoundError struct {
	Resource string
	Field    string
	Value    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found with %s: %s", e.Resource, e.Field, e.Value)
}

type DuplicateResourceError struct {
	Resource string
	Field    string
	Value    string
}

func (e *DuplicateResourceError) Error() string {
	return fmt.Sprintf("%s already exists with %s: %s", e.Resource, e.Field, e.Value)
}

type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}
