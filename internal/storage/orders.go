//go:generate mockgen -source ./orders.go -destination=./mocks/orders.go -package=mock_storage
package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/akulagin/fulfillment/internal/db"
	"github.com/akulagin/fulfillment/internal/domain/order"
)

type OrderRepository interface {
	CreateTx(ctx context.Context, tx db.Tx, o *order.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*order.Order, error)
	GetByIDTx(ctx context.Context, tx db.Tx, id uuid.UUID) (*order.Order, error)
	UpdateTx(ctx context.Context, tx db.Tx, o *order.Order) error
	AppendTrailTx(ctx context.Context, tx db.Tx, id uuid.UUID, trail []order.StatusChange) error
	ListByBuyer(ctx context.Context, buyerID string) ([]*order.Order, error)
	ListOpen(ctx context.Context) ([]*order.Order, error)
}
