package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"

	"github.com/akulagin/fulfillment/internal/db"
	"github.com/akulagin/fulfillment/internal/domain/shipment"
	"github.com/akulagin/fulfillment/internal/repository"
	"github.com/akulagin/fulfillment/internal/storage"
)

type ShipperRepo struct {
	db db.DB
}

func NewShipperRepo(db db.DB) storage.ShipperRepository {
	return &ShipperRepo{db: db}
}

func (r *ShipperRepo) Create(ctx context.Context, s *shipment.Shipper) (int64, error) {
	now := time.Now().UTC()
	var id int64
	err := r.db.ExecQueryRow(ctx, `
        INSERT INTO shippers (name, phone, user_id, current_warehouse_id, available, active, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
        RETURNING id
    `, s.Name, s.Phone, s.UserID, s.CurrentWarehouseID, s.Available, s.Active, now).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert shipper: %w", err)
	}
	s.ID = id
	return id, nil
}

func (r *ShipperRepo) GetByID(ctx context.Context, id int64) (*shipment.Shipper, error) {
	return r.getOne(ctx, r.db, `SELECT * FROM shippers WHERE id = $1`, id)
}

func (r *ShipperRepo) GetByIDTx(ctx context.Context, tx db.Tx, id int64) (*shipment.Shipper, error) {
	return r.getOne(ctx, tx, `SELECT * FROM shippers WHERE id = $1`, id)
}

func (r *ShipperRepo) GetByUserID(ctx context.Context, userID string) (*shipment.Shipper, error) {
	return r.getOne(ctx, r.db, `SELECT * FROM shippers WHERE user_id = $1`, userID)
}

func (r *ShipperRepo) getOne(ctx context.Context, q querier, query string, arg interface{}) (*shipment.Shipper, error) {
	var row repository.Shipper
	err := q.Get(ctx, &row, query, arg)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to get shipper: %w", err)
	}
	return toDomainShipper(&row), nil
}

func (r *ShipperRepo) Update(ctx context.Context, s *shipment.Shipper) error {
	tag, err := r.db.Exec(ctx, updateShipperQuery,
		s.ID, s.Name, s.Phone, s.CurrentWarehouseID, s.Available, s.Active, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update shipper %d: %w", s.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrObjectNotFound
	}
	return nil
}

func (r *ShipperRepo) UpdateTx(ctx context.Context, tx db.Tx, s *shipment.Shipper) error {
	tag, err := tx.Exec(ctx, updateShipperQuery,
		s.ID, s.Name, s.Phone, s.CurrentWarehouseID, s.Available, s.Active, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update shipper %d: %w", s.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrObjectNotFound
	}
	return nil
}

const updateShipperQuery = `
    UPDATE shippers
    SET name = $2,
        phone = $3,
        current_warehouse_id = $4,
        available = $5,
        active = $6,
        updated_at = $7
    WHERE id = $1
`

func (r *ShipperRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM shippers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete shipper %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrObjectNotFound
	}
	return nil
}

func toDomainShipper(row *repository.Shipper) *shipment.Shipper {
	return &shipment.Shipper{
		ID:                 row.ID,
		Name:               row.Name,
		Phone:              row.Phone,
		UserID:             row.UserID,
		CurrentWarehouseID: row.CurrentWarehouseID,
		Available:          row.Available,
		Active:             row.Active,
	}
}
