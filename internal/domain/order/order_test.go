package order

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestOrder(t *testing.T) *Order {
	t.Helper()
	o, err := New(uuid.New(), "buyer-1", "Alice", []Line{
		{ProductID: 1, ProductName: "keyboard", UnitPrice: 1000, Discount: 0, Quantity: 2},
		{ProductID: 2, ProductName: "mouse", UnitPrice: 700, Discount: 200, Quantity: 1},
	}, Address{City: "Springfield", Country: "US"}, PaymentCard{NumberMasked: "****1111"}, testTime)
	require.NoError(t, err)
	return o
}

func TestNew(t *testing.T) {
	t.Run("starts submitted with one trail entry", func(t *testing.T) {
		o := newTestOrder(t)
		assert.Equal(t, StatusSubmitted, o.Status)
		require.Len(t, o.PendingTrail(), 1)
		assert.Equal(t, StatusSubmitted, o.PendingTrail()[0].Status)
	})

	t.Run("rejects empty lines", func(t *testing.T) {
		_, err := New(uuid.New(), "b", "n", nil, Address{}, PaymentCard{}, testTime)
		assert.ErrorIs(t, err, ErrNoLines)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		_, err := New(uuid.New(), "b", "n", []Line{{ProductID: 1, UnitPrice: 100, Quantity: 0}}, Address{}, PaymentCard{}, testTime)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	})

	t.Run("rejects discount above unit price", func(t *testing.T) {
		_, err := New(uuid.New(), "b", "n", []Line{{ProductID: 1, UnitPrice: 100, Discount: 200, Quantity: 1}}, Address{}, PaymentCard{}, testTime)
		assert.ErrorIs(t, err, ErrInvalidPrice)
	})
}

func TestTotal(t *testing.T) {
	// 2 x (1000-0) + 1 x (700-200) = 2500.
	o := newTestOrder(t)
	assert.Equal(t, int64(2500), o.Total())
}

func TestLifecycleHappyPath(t *testing.T) {
	o := newTestOrder(t)

	require.NoError(t, o.RequestValidation(testTime))
	assert.Equal(t, StatusAwaitingValidation, o.Status)

	require.NoError(t, o.ConfirmStock(testTime))
	assert.Equal(t, StatusStockConfirmed, o.Status)

	require.NoError(t, o.ConfirmPayment(testTime))
	assert.Equal(t, StatusPaid, o.Status)

	require.NoError(t, o.MarkShipped(testTime))
	assert.Equal(t, StatusShipped, o.Status)

	trail := o.PendingTrail()
	require.Len(t, trail, 5)
	assert.Equal(t, StatusShipped, trail[4].Status)
}

func TestIllegalTransitions(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(o *Order)
		op      func(o *Order) error
	}{
		{
			name:    "confirm stock before validation requested",
			prepare: func(o *Order) {},
			op:      func(o *Order) error { return o.ConfirmStock(testTime) },
		},
		{
			name:    "confirm payment before stock confirmed",
			prepare: func(o *Order) { _ = o.RequestValidation(testTime) },
			op:      func(o *Order) error { return o.ConfirmPayment(testTime) },
		},
		{
			name:    "ship before paid",
			prepare: func(o *Order) {},
			op:      func(o *Order) error { return o.MarkShipped(testTime) },
		},
		{
			name: "confirm stock after cancel",
			prepare: func(o *Order) {
				_ = o.RequestValidation(testTime)
				_ = o.Cancel(testTime)
			},
			op: func(o *Order) error { return o.ConfirmStock(testTime) },
		},
		{
			name: "cancel a shipped order",
			prepare: func(o *Order) {
				_ = o.RequestValidation(testTime)
				_ = o.ConfirmStock(testTime)
				_ = o.ConfirmPayment(testTime)
				_ = o.MarkShipped(testTime)
			},
			op: func(o *Order) error { return o.Cancel(testTime) },
		},
		{
			name:    "cancel twice",
			prepare: func(o *Order) { _ = o.Cancel(testTime) },
			op:      func(o *Order) error { return o.Cancel(testTime) },
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			o := newTestOrder(t)
			tc.prepare(o)
			statusBefore := o.Status

			err := tc.op(o)

			var transitionErr *TransitionError
			require.ErrorAs(t, err, &transitionErr)
			assert.Equal(t, statusBefore, o.Status, "failed transition must not change status")
		})
	}
}

func TestRejectStock(t *testing.T) {
	o := newTestOrder(t)
	require.NoError(t, o.RequestValidation(testTime))

	require.NoError(t, o.RejectStock([]int64{2}, testTime))
	assert.Equal(t, StatusCancelled, o.Status)
	assert.Equal(t, []int64{2}, o.RejectedProductIDs)
}

func TestCancelFromAnyOpenStatus(t *testing.T) {
	o := newTestOrder(t)
	require.NoError(t, o.RequestValidation(testTime))
	require.NoError(t, o.ConfirmStock(testTime))

	require.NoError(t, o.Cancel(testTime))
	assert.Equal(t, StatusCancelled, o.Status)
}

func TestCompleteByShipment(t *testing.T) {
	shippedAt := testTime.Add(48 * time.Hour)

	t.Run("records tracking metadata on a shipped order", func(t *testing.T) {
		o := newTestOrder(t)
		require.NoError(t, o.RequestValidation(testTime))
		require.NoError(t, o.ConfirmStock(testTime))
		require.NoError(t, o.ConfirmPayment(testTime))
		require.NoError(t, o.MarkShipped(testTime))
		trailBefore := len(o.PendingTrail())

		applied := o.CompleteByShipment("TRK-1", "FastCouriers", shippedAt)

		assert.True(t, applied)
		assert.Equal(t, StatusShipped, o.Status)
		assert.Equal(t, "TRK-1", o.TrackingNumber)
		assert.Equal(t, "FastCouriers", o.Carrier)
		require.NotNil(t, o.ShippedAt)
		assert.Equal(t, shippedAt, *o.ShippedAt)
		assert.Len(t, o.PendingTrail(), trailBefore, "no status transition is recorded")
	})

	t.Run("no-op when the order is not shipped", func(t *testing.T) {
		o := newTestOrder(t)

		applied := o.CompleteByShipment("TRK-1", "FastCouriers", shippedAt)

		assert.False(t, applied)
		assert.Empty(t, o.TrackingNumber)
		assert.Nil(t, o.ShippedAt)
	})
}

func TestRestoreHasEmptyTrail(t *testing.T) {
	o := Restore(uuid.New(), "buyer-1", "Alice", StatusPaid, testTime, []Line{{ProductID: 1, UnitPrice: 100, Quantity: 1}}, Address{}, PaymentCard{}, 3)
	assert.Empty(t, o.PendingTrail())
	assert.Equal(t, int64(3), o.Version)
}

func TestStatusTerminal(t *testing.T) {
	assert.True(t, StatusShipped.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.False(t, StatusSubmitted.Terminal())
	assert.False(t, StatusPaid.Terminal())
}
