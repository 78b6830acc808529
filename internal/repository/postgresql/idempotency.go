package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/akulagin/fulfillment/internal/db"
	"github.com/akulagin/fulfillment/internal/repository"
	"github.com/akulagin/fulfillment/internal/storage"
)

type IdempotencyRepo struct {
}

func NewIdempotencyRepo() storage.IdempotencyRepository {
	return &IdempotencyRepo{}
}

// InsertTx relies on the primary key on request_id: a concurrent duplicate
// blocks until the first transaction resolves, so two duplicates can never
// both observe "absent".
func (r *IdempotencyRepo) InsertTx(ctx context.Context, tx db.Tx, requestID, commandType string, recordedAt time.Time) error {
	tag, err := tx.Exec(ctx, `
        INSERT INTO idempotency_records (request_id, command_type, recorded_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (request_id) DO NOTHING
    `, requestID, commandType, recordedAt)
	if err != nil {
		return fmt.Errorf("failed to insert idempotency record %s: %w", requestID, err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrDuplicateRequest
	}
	return nil
}
