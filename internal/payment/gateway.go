// Package payment wraps the external payment gateway as a black-box
// authorize/capture call.
package payment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Gateway interface {
	// Capture authorizes and captures amount (cents) for the order against
	// the stored card reference, returning a gateway authorization code.
	Capture(ctx context.Context, orderID uuid.UUID, amount int64, cardNumberMasked string) (string, error)
}

// StubGateway approves every capture. Stands in for the real gateway in local
// and test environments.
type StubGateway struct {
	logger *zap.Logger
}

func NewStubGateway(logger *zap.Logger) *StubGateway {
	return &StubGateway{logger: logger}
}

func (g *StubGateway) Capture(ctx context.Context, orderID uuid.UUID, amount int64, cardNumberMasked string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	code := "auth-" + uuid.NewString()
	g.logger.Info("payment captured",
		zap.String("order_id", orderID.String()),
		zap.Int64("amount", amount),
		zap.String("card", cardNumberMasked),
		zap.String("auth_code", code),
	)
	return code, nil
}

var _ Gateway = (*StubGateway)(nil)

// DeclinedError is returned by gateways when a capture is refused. Declines
// are business failures, not transient errors, and must not be retried.
type DeclinedError struct {
	OrderID uuid.UUID
	Reason  string
}

func (e *DeclinedError) Error() string {
	return fmt.Sprintf("payment declined for order %s: %s", e.OrderID, e.Reason)
}
