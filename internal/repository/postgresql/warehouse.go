package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"

	"github.com/akulagin/fulfillment/internal/db"
	"github.com/akulagin/fulfillment/internal/repository"
	"github.com/akulagin/fulfillment/internal/storage"
)

type WarehouseRepo struct {
	db db.DB
}

func NewWarehouseRepo(db db.DB) storage.WarehouseRepository {
	return &WarehouseRepo{db: db}
}

func (r *WarehouseRepo) GetByID(ctx context.Context, id int64) (*repository.Warehouse, error) {
	var w repository.Warehouse
	err := r.db.Get(ctx, &w, `SELECT * FROM warehouses WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to get warehouse %d: %w", id, err)
	}
	return &w, nil
}

func (r *WarehouseRepo) ListByRegion(ctx context.Context, region string) ([]repository.Warehouse, error) {
	var warehouses []repository.Warehouse
	err := r.db.Select(ctx, &warehouses, `
        SELECT * FROM warehouses WHERE region = $1 ORDER BY id ASC
    `, region)
	if err != nil {
		return nil, fmt.Errorf("failed to list warehouses for region %s: %w", region, err)
	}
	return warehouses, nil
}

type StockRepo struct {
	db db.DB
}

func NewStockRepo(db db.DB) storage.StockRepository {
	return &StockRepo{db: db}
}

func (r *StockRepo) GetAvailable(ctx context.Context, productIDs []int64) (map[int64]int64, error) {
	type stockTotal struct {
		ProductID int64 `db:"product_id"`
		Total     int64 `db:"total"`
	}

	var totals []stockTotal
	err := r.db.Select(ctx, &totals, `
        SELECT product_id, SUM(quantity) AS total
        FROM warehouse_stock
        WHERE product_id = ANY($1)
        GROUP BY product_id
    `, productIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get stock levels: %w", err)
	}

	available := make(map[int64]int64, len(totals))
	for _, t := range totals {
		available[t.ProductID] = t.Total
	}
	return available, nil
}
