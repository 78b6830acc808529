//go:generate mockgen -source ./idempotency.go -destination=./mocks/idempotency.go -package=mock_storage
package storage

import (
	"context"
	"time"

	"github.com/akulagin/fulfillment/internal/db"
)

type IdempotencyRepository interface {
	// InsertTx records the request id within tx. If the id was already
	// recorded it returns repository.ErrDuplicateRequest; concurrent inserts
	// of the same id are serialized by the underlying unique constraint.
	InsertTx(ctx context.Context, tx db.Tx, requestID, commandType string, recordedAt time.Time) error
}
