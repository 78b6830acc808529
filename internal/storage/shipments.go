//go:generate mockgen -source ./shipments.go -destination=./mocks/shipments.go -package=mock_storage
package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/akulagin/fulfillment/internal/db"
	"github.com/akulagin/fulfillment/internal/domain/shipment"
)

type ShipmentRepository interface {
	CreateTx(ctx context.Context, tx db.Tx, sh *shipment.Shipment) error
	GetByID(ctx context.Context, id uuid.UUID) (*shipment.Shipment, error)
	GetByIDTx(ctx context.Context, tx db.Tx, id uuid.UUID) (*shipment.Shipment, error)
	GetByOrderID(ctx context.Context, orderID uuid.UUID) (*shipment.Shipment, error)
	GetByOrderIDTx(ctx context.Context, tx db.Tx, orderID uuid.UUID) (*shipment.Shipment, error)
	UpdateTx(ctx context.Context, tx db.Tx, sh *shipment.Shipment) error
	AppendHistoryTx(ctx context.Context, tx db.Tx, id uuid.UUID, history []shipment.HistoryEntry) error
	GetHistory(ctx context.Context, id uuid.UUID) ([]shipment.HistoryEntry, error)
	List(ctx context.Context, status shipment.Status, page, limit int) ([]*shipment.Shipment, error)
	ListUnassigned(ctx context.Context) ([]*shipment.Shipment, error)
	GetActiveByShipperTx(ctx context.Context, tx db.Tx, shipperID int64) (*shipment.Shipment, error)
	ListByShipper(ctx context.Context, shipperID int64) ([]*shipment.Shipment, error)
}
