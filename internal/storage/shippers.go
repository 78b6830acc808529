//go:generate mockgen -source ./shippers.go -destination=./mocks/shippers.go -package=mock_storage
package storage

import (
	"context"

	"github.com/akulagin/fulfillment/internal/db"
	"github.com/akulagin/fulfillment/internal/domain/shipment"
)

type ShipperRepository interface {
	Create(ctx context.Context, s *shipment.Shipper) (int64, error)
	GetByID(ctx context.Context, id int64) (*shipment.Shipper, error)
	GetByIDTx(ctx context.Context, tx db.Tx, id int64) (*shipment.Shipper, error)
	GetByUserID(ctx context.Context, userID string) (*shipment.Shipper, error)
	Update(ctx context.Context, s *shipment.Shipper) error
	UpdateTx(ctx context.Context, tx db.Tx, s *shipment.Shipper) error
	Delete(ctx context.Context, id int64) error
}
