package products

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("product not found")

// Repo defines persistence operations for the product catalog.
type Repo interface {
	GetByID(ctx context.Context, productID string) (Product, error)
	List(ctx context.Context) ([]Product, error)
	Put(ctx context.Context, p Product) error
}
