package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/akulagin/fulfillment/internal/db"
	"github.com/akulagin/fulfillment/internal/domain/shipment"
	"github.com/akulagin/fulfillment/internal/repository"
	"github.com/akulagin/fulfillment/internal/storage"
)

type ShipmentRepo struct {
	db db.DB
}

func NewShipmentRepo(db db.DB) storage.ShipmentRepository {
	return &ShipmentRepo{db: db}
}

func (r *ShipmentRepo) CreateTx(ctx context.Context, tx db.Tx, sh *shipment.Shipment) error {
	now := time.Now().UTC()
	_, err := tx.Exec(ctx, `
        INSERT INTO shipments (
            id, order_id, shipper_id, status,
            street, city, state, country, zip_code,
            completed_at, version, created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 1, $11, $11)
    `, sh.ID, sh.OrderID, sh.ShipperID, sh.Status,
		sh.Address.Street, sh.Address.City, sh.Address.State, sh.Address.Country, sh.Address.ZipCode,
		sh.CompletedAt, now)
	if err != nil {
		return fmt.Errorf("failed to insert shipment: %w", err)
	}

	for i := range sh.Waypoints {
		wp := &sh.Waypoints[i]
		err := tx.Get(ctx, &wp.ID, `
            INSERT INTO shipment_waypoints (shipment_id, warehouse_id, warehouse_name, seq, arrived_at, departed_at)
            VALUES ($1, $2, $3, $4, $5, $6)
            RETURNING id
        `, sh.ID, wp.WarehouseID, wp.WarehouseName, wp.Seq, wp.ArrivedAt, wp.DepartedAt)
		if err != nil {
			return fmt.Errorf("failed to insert waypoint seq %d: %w", wp.Seq, err)
		}
	}
	sh.Version = 1
	return nil
}

func (r *ShipmentRepo) GetByID(ctx context.Context, id uuid.UUID) (*shipment.Shipment, error) {
	return r.getOne(ctx, r.db, `SELECT * FROM shipments WHERE id = $1`, id)
}

func (r *ShipmentRepo) GetByIDTx(ctx context.Context, tx db.Tx, id uuid.UUID) (*shipment.Shipment, error) {
	return r.getOne(ctx, tx, `SELECT * FROM shipments WHERE id = $1`, id)
}

func (r *ShipmentRepo) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*shipment.Shipment, error) {
	return r.getOne(ctx, r.db, `SELECT * FROM shipments WHERE order_id = $1`, orderID)
}

func (r *ShipmentRepo) GetByOrderIDTx(ctx context.Context, tx db.Tx, orderID uuid.UUID) (*shipment.Shipment, error) {
	return r.getOne(ctx, tx, `SELECT * FROM shipments WHERE order_id = $1`, orderID)
}

func (r *ShipmentRepo) GetActiveByShipperTx(ctx context.Context, tx db.Tx, shipperID int64) (*shipment.Shipment, error) {
	return r.getOne(ctx, tx, `
        SELECT * FROM shipments
        WHERE shipper_id = $1 AND status NOT IN ('DELIVERED', 'CANCELLED', 'RETURNED_TO_WAREHOUSE')
    `, shipperID)
}

func (r *ShipmentRepo) getOne(ctx context.Context, q querier, query string, arg interface{}) (*shipment.Shipment, error) {
	var row repository.Shipment
	err := q.Get(ctx, &row, query, arg)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to get shipment: %w", err)
	}

	waypoints, err := r.getWaypoints(ctx, q, row.ID)
	if err != nil {
		return nil, err
	}
	return toDomainShipment(&row, waypoints), nil
}

func (r *ShipmentRepo) getWaypoints(ctx context.Context, q querier, shipmentID uuid.UUID) ([]repository.ShipmentWaypoint, error) {
	var waypoints []repository.ShipmentWaypoint
	err := q.Select(ctx, &waypoints, `
        SELECT * FROM shipment_waypoints WHERE shipment_id = $1 ORDER BY seq ASC
    `, shipmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get waypoints for shipment %s: %w", shipmentID, err)
	}
	return waypoints, nil
}

func (r *ShipmentRepo) UpdateTx(ctx context.Context, tx db.Tx, sh *shipment.Shipment) error {
	tag, err := tx.Exec(ctx, `
        UPDATE shipments
        SET shipper_id = $2,
            status = $3,
            completed_at = $4,
            version = version + 1,
            updated_at = $5
        WHERE id = $1 AND version = $6
    `, sh.ID, sh.ShipperID, sh.Status, sh.CompletedAt, time.Now().UTC(), sh.Version)
	if err != nil {
		return fmt.Errorf("failed to update shipment %s: %w", sh.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrVersionConflict
	}
	sh.Version++

	for _, wp := range sh.Waypoints {
		_, err := tx.Exec(ctx, `
            UPDATE shipment_waypoints
            SET arrived_at = $2, departed_at = $3
            WHERE id = $1
        `, wp.ID, wp.ArrivedAt, wp.DepartedAt)
		if err != nil {
			return fmt.Errorf("failed to update waypoint %d: %w", wp.ID, err)
		}
	}
	return nil
}

func (r *ShipmentRepo) AppendHistoryTx(ctx context.Context, tx db.Tx, id uuid.UUID, history []shipment.HistoryEntry) error {
	for _, entry := range history {
		var note *string
		if entry.Note != "" {
			n := entry.Note
			note = &n
		}
		_, err := tx.Exec(ctx, `
            INSERT INTO shipment_status_log (shipment_id, status, waypoint_id, note, changed_at)
            VALUES ($1, $2, $3, $4, $5)
        `, id, entry.Status, entry.WaypointID, note, entry.ChangedAt)
		if err != nil {
			return fmt.Errorf("failed to append shipment status log for %s: %w", id, err)
		}
	}
	return nil
}

func (r *ShipmentRepo) GetHistory(ctx context.Context, id uuid.UUID) ([]shipment.HistoryEntry, error) {
	var rows []repository.ShipmentStatusLog
	err := r.db.Select(ctx, &rows, `
        SELECT * FROM shipment_status_log WHERE shipment_id = $1 ORDER BY changed_at ASC, id ASC
    `, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get shipment history for %s: %w", id, err)
	}

	history := make([]shipment.HistoryEntry, 0, len(rows))
	for _, row := range rows {
		entry := shipment.HistoryEntry{
			Status:     shipment.Status(row.Status),
			WaypointID: row.WaypointID,
			ChangedAt:  row.ChangedAt,
		}
		if row.Note != nil {
			entry.Note = *row.Note
		}
		history = append(history, entry)
	}
	return history, nil
}

func (r *ShipmentRepo) List(ctx context.Context, status shipment.Status, page, limit int) ([]*shipment.Shipment, error) {
	offset := (page - 1) * limit

	var rows []repository.Shipment
	var err error
	if status == "" {
		err = r.db.Select(ctx, &rows, `
            SELECT * FROM shipments ORDER BY created_at DESC LIMIT $1 OFFSET $2
        `, limit, offset)
	} else {
		err = r.db.Select(ctx, &rows, `
            SELECT * FROM shipments WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
        `, status, limit, offset)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list shipments: %w", err)
	}
	return r.withWaypoints(ctx, rows)
}

func (r *ShipmentRepo) ListUnassigned(ctx context.Context) ([]*shipment.Shipment, error) {
	var rows []repository.Shipment
	err := r.db.Select(ctx, &rows, `
        SELECT * FROM shipments WHERE shipper_id IS NULL AND status = 'CREATED' ORDER BY created_at ASC
    `)
	if err != nil {
		return nil, fmt.Errorf("failed to list unassigned shipments: %w", err)
	}
	return r.withWaypoints(ctx, rows)
}

func (r *ShipmentRepo) ListByShipper(ctx context.Context, shipperID int64) ([]*shipment.Shipment, error) {
	var rows []repository.Shipment
	err := r.db.Select(ctx, &rows, `
        SELECT * FROM shipments WHERE shipper_id = $1 ORDER BY created_at DESC
    `, shipperID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shipments for shipper %d: %w", shipperID, err)
	}
	return r.withWaypoints(ctx, rows)
}

func (r *ShipmentRepo) withWaypoints(ctx context.Context, rows []repository.Shipment) ([]*shipment.Shipment, error) {
	shipments := make([]*shipment.Shipment, 0, len(rows))
	for i := range rows {
		waypoints, err := r.getWaypoints(ctx, r.db, rows[i].ID)
		if err != nil {
			return nil, err
		}
		shipments = append(shipments, toDomainShipment(&rows[i], waypoints))
	}
	return shipments, nil
}

func toDomainShipment(row *repository.Shipment, waypointRows []repository.ShipmentWaypoint) *shipment.Shipment {
	waypoints := make([]shipment.Waypoint, 0, len(waypointRows))
	for _, wp := range waypointRows {
		waypoints = append(waypoints, shipment.Waypoint{
			ID:            wp.ID,
			WarehouseID:   wp.WarehouseID,
			WarehouseName: wp.WarehouseName,
			Seq:           wp.Seq,
			ArrivedAt:     wp.ArrivedAt,
			DepartedAt:    wp.DepartedAt,
		})
	}

	return shipment.Restore(
		row.ID, row.OrderID, row.ShipperID, shipment.Status(row.Status),
		shipment.Address{Street: row.Street, City: row.City, State: row.State, Country: row.Country, ZipCode: row.ZipCode},
		row.CreatedAt, row.CompletedAt, waypoints, row.Version,
	)
}
