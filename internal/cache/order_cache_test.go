package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/akulagin/fulfillment/internal/domain/order"
)

type staticRepo struct {
	orders []*order.Order
	err    error
}

func (r *staticRepo) ListOpen(context.Context) ([]*order.Order, error) {
	return r.orders, r.err
}

func restoredOrder(status order.Status) *order.Order {
	return order.Restore(uuid.New(), "buyer-1", "Alice", status,
		time.Now().UTC(), []order.Line{{ProductID: 1, UnitPrice: 100, Quantity: 1}},
		order.Address{}, order.PaymentCard{}, 1)
}

func TestOrderCache(t *testing.T) {
	t.Run("warm up loads open orders", func(t *testing.T) {
		open := restoredOrder(order.StatusPaid)
		c := NewOrderCache(&staticRepo{orders: []*order.Order{open}}, zap.NewNop())

		require.NoError(t, c.LoadInitialData(context.Background()))

		cached, found := c.Get(open.ID)
		require.True(t, found)
		assert.Equal(t, open.ID, cached.ID)
	})

	t.Run("get returns a copy", func(t *testing.T) {
		o := restoredOrder(order.StatusPaid)
		c := NewOrderCache(&staticRepo{}, zap.NewNop())
		c.Set(o)

		first, found := c.Get(o.ID)
		require.True(t, found)
		first.BuyerName = "mutated"

		second, _ := c.Get(o.ID)
		assert.Equal(t, "Alice", second.BuyerName)
	})

	t.Run("terminal order is evicted on set", func(t *testing.T) {
		o := restoredOrder(order.StatusPaid)
		c := NewOrderCache(&staticRepo{}, zap.NewNop())
		c.Set(o)

		cancelled := restoredOrder(order.StatusCancelled)
		cancelled.ID = o.ID
		c.Set(cancelled)

		_, found := c.Get(o.ID)
		assert.False(t, found)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		c := NewOrderCache(&staticRepo{}, zap.NewNop())
		c.Delete(uuid.New())
	})
}
