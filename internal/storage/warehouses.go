//go:generate mockgen -source ./warehouses.go -destination=./mocks/warehouses.go -package=mock_storage
package storage

import (
	"context"

	"github.com/akulagin/fulfillment/internal/repository"
)

type WarehouseRepository interface {
	GetByID(ctx context.Context, id int64) (*repository.Warehouse, error)
	ListByRegion(ctx context.Context, region string) ([]repository.Warehouse, error)
}

// StockRepository exposes warehouse inventory for stock validation.
type StockRepository interface {
	// GetAvailable returns the total quantity on hand for each requested
	// product, summed across warehouses. Products with no stock rows are
	// absent from the result.
	GetAvailable(ctx context.Context, productIDs []int64) (map[int64]int64, error)
}
