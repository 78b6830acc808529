// Package idempotency makes command execution safe under retry and duplicate
// delivery. Every mutating command runs through Dispatcher.Execute with a
// caller-supplied request id; the idempotency record and the business
// mutation commit in the same transaction, so a failed command leaves no
// record behind and a committed one permanently absorbs redelivery.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/akulagin/fulfillment/internal/db"
	"github.com/akulagin/fulfillment/internal/metrics"
	"github.com/akulagin/fulfillment/internal/repository"
	"github.com/akulagin/fulfillment/internal/storage"
)

type Dispatcher struct {
	db      db.DB
	records storage.IdempotencyRepository
	logger  *zap.Logger
}

func NewDispatcher(database db.DB, records storage.IdempotencyRepository, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{db: database, records: records, logger: logger}
}

// Execute runs fn inside one transaction guarded by requestID. The record is
// inserted first; a concurrent duplicate blocks on the unique constraint
// until the winner commits and then reports duplicate. Returns duplicate=true
// when the request id was already processed, in which case fn is not invoked
// and no state changes.
func (d *Dispatcher) Execute(ctx context.Context, requestID, commandType string, fn func(tx db.Tx) error) (duplicate bool, err error) {
	if requestID == "" {
		return false, errors.New("request id is required")
	}

	tx, err := d.db.BeginTx(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	err = d.records.InsertTx(ctx, tx, requestID, commandType, time.Now().UTC())
	if errors.Is(err, repository.ErrDuplicateRequest) {
		metrics.DuplicateCommandsTotal.Inc()
		d.logger.Info("duplicate command suppressed",
			zap.String("request_id", requestID),
			zap.String("command", commandType),
		)
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to record request id: %w", err)
	}

	if err := fn(tx); err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit command %s: %w", commandType, err)
	}
	committed = true
	return false, nil
}
