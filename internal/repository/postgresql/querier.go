package postgresql

import (
	"context"

	"github.com/jackc/pgconn"
)

// querier is the read/write surface shared by db.DB and db.Tx, letting one
// implementation serve both pooled and transactional calls.
type querier interface {
	Get(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	Select(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	Exec(ctx context.Context, query string, args ...interface{}) (pgconn.CommandTag, error)
}
