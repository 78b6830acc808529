package ordering

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/akulagin/fulfillment/internal/domain/order"
	"github.com/akulagin/fulfillment/internal/events"
	"github.com/akulagin/fulfillment/internal/payment"
	"github.com/akulagin/fulfillment/internal/repository"
)

type fakeGateway struct {
	err      error
	captures int
	amount   int64
}

func (g *fakeGateway) Capture(_ context.Context, _ uuid.UUID, amount int64, _ string) (string, error) {
	g.captures++
	g.amount = amount
	if g.err != nil {
		return "", g.err
	}
	return "auth-1", nil
}

func eventMessage(t *testing.T, payload interface{}) kafkago.Message {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return kafkago.Message{Value: raw}
}

func TestHandleStockConfirmed(t *testing.T) {
	ctx := context.Background()
	orderID := uuid.New()

	restoredOrder := func(status order.Status) *order.Order {
		return order.Restore(orderID, "buyer-1", "Alice", status,
			time.Now().UTC(), []order.Line{{ProductID: 1, UnitPrice: 2500, Quantity: 1}},
			order.Address{}, order.PaymentCard{NumberMasked: "****1111"}, 1)
	}

	t.Run("confirms stock, captures payment, confirms payment", func(t *testing.T) {
		f := newServiceFixture(t)
		gateway := &fakeGateway{}
		consumer := NewConsumer(f.service, gateway, zap.NewNop())

		stored := restoredOrder(order.StatusAwaitingValidation)

		f.expectTransaction(ctx, events.ConfirmStockRequestID(orderID), "confirm-stock")
		f.expectTransaction(ctx, events.ConfirmPaymentRequestID(orderID), "confirm-payment")
		f.orders.EXPECT().GetByID(ctx, orderID).Return(stored, nil)
		f.orders.EXPECT().GetByIDTx(ctx, f.tx, orderID).Return(stored, nil).Times(2)
		f.orders.EXPECT().UpdateTx(ctx, f.tx, stored).Return(nil).Times(2)
		f.orders.EXPECT().AppendTrailTx(ctx, f.tx, orderID, gomock.Any()).Return(nil).Times(2)
		// One status change per command plus the paid event.
		f.capturedTopics(ctx, 3)

		err := consumer.HandleStockConfirmed(ctx, eventMessage(t, events.StockConfirmed{OrderID: orderID}))

		require.NoError(t, err)
		assert.Equal(t, order.StatusPaid, stored.Status)
		assert.Equal(t, 1, gateway.captures)
		assert.Equal(t, int64(2500), gateway.amount)
	})

	t.Run("declined payment cancels the order and acks", func(t *testing.T) {
		f := newServiceFixture(t)
		gateway := &fakeGateway{err: &payment.DeclinedError{OrderID: orderID, Reason: "insufficient funds"}}
		consumer := NewConsumer(f.service, gateway, zap.NewNop())

		stored := restoredOrder(order.StatusAwaitingValidation)

		f.expectTransaction(ctx, events.ConfirmStockRequestID(orderID), "confirm-stock")
		f.expectTransaction(ctx, "payment-declined:"+orderID.String(), "cancel-order")
		f.orders.EXPECT().GetByID(ctx, orderID).Return(stored, nil)
		f.orders.EXPECT().GetByIDTx(ctx, f.tx, orderID).Return(stored, nil).Times(2)
		f.orders.EXPECT().UpdateTx(ctx, f.tx, stored).Return(nil).Times(2)
		f.orders.EXPECT().AppendTrailTx(ctx, f.tx, orderID, gomock.Any()).Return(nil).Times(2)
		f.capturedTopics(ctx, 2)

		err := consumer.HandleStockConfirmed(ctx, eventMessage(t, events.StockConfirmed{OrderID: orderID}))

		require.NoError(t, err)
		assert.Equal(t, order.StatusCancelled, stored.Status)
	})

	t.Run("terminal order is a dead end, message is acked", func(t *testing.T) {
		f := newServiceFixture(t)
		consumer := NewConsumer(f.service, &fakeGateway{}, zap.NewNop())

		stored := restoredOrder(order.StatusCancelled)

		f.db.EXPECT().BeginTx(ctx).Return(f.tx, nil)
		f.records.EXPECT().InsertTx(ctx, f.tx, events.ConfirmStockRequestID(orderID), "confirm-stock", gomock.Any()).Return(nil)
		f.orders.EXPECT().GetByIDTx(ctx, f.tx, orderID).Return(stored, nil)
		f.tx.EXPECT().Rollback(ctx).Return(nil)

		err := consumer.HandleStockConfirmed(ctx, eventMessage(t, events.StockConfirmed{OrderID: orderID}))
		assert.NoError(t, err)
	})

	t.Run("transient failure forces redelivery", func(t *testing.T) {
		f := newServiceFixture(t)
		consumer := NewConsumer(f.service, &fakeGateway{}, zap.NewNop())

		f.db.EXPECT().BeginTx(ctx).Return(f.tx, nil)
		f.records.EXPECT().InsertTx(ctx, f.tx, events.ConfirmStockRequestID(orderID), "confirm-stock", gomock.Any()).Return(nil)
		f.orders.EXPECT().GetByIDTx(ctx, f.tx, orderID).Return(nil, errors.New("connection refused"))
		f.tx.EXPECT().Rollback(ctx).Return(nil)

		err := consumer.HandleStockConfirmed(ctx, eventMessage(t, events.StockConfirmed{OrderID: orderID}))
		assert.Error(t, err)
	})

	t.Run("malformed payload is dropped", func(t *testing.T) {
		f := newServiceFixture(t)
		consumer := NewConsumer(f.service, &fakeGateway{}, zap.NewNop())

		err := consumer.HandleStockConfirmed(ctx, kafkago.Message{Value: []byte("not json")})
		assert.NoError(t, err)
	})
}

func TestHandleStockRejected(t *testing.T) {
	ctx := context.Background()
	orderID := uuid.New()

	f := newServiceFixture(t)
	consumer := NewConsumer(f.service, &fakeGateway{}, zap.NewNop())

	stored := order.Restore(orderID, "buyer-1", "Alice", order.StatusAwaitingValidation,
		time.Now().UTC(), []order.Line{{ProductID: 2, UnitPrice: 100, Quantity: 1}},
		order.Address{}, order.PaymentCard{}, 1)

	f.expectTransaction(ctx, events.RejectStockRequestID(orderID), "reject-stock")
	f.orders.EXPECT().GetByIDTx(ctx, f.tx, orderID).Return(stored, nil)
	f.orders.EXPECT().UpdateTx(ctx, f.tx, stored).Return(nil)
	f.orders.EXPECT().AppendTrailTx(ctx, f.tx, orderID, gomock.Any()).Return(nil)
	f.capturedTopics(ctx, 1)

	err := consumer.HandleStockRejected(ctx, eventMessage(t, events.StockRejected{
		OrderID:    orderID,
		ProductIDs: []int64{2},
	}))

	require.NoError(t, err)
	assert.Equal(t, order.StatusCancelled, stored.Status)
	assert.Equal(t, []int64{2}, stored.RejectedProductIDs)
}

func TestHandleShipmentCompleted(t *testing.T) {
	ctx := context.Background()
	orderID := uuid.New()
	shipmentID := uuid.New()
	completedAt := time.Date(2025, 6, 3, 9, 0, 0, 0, time.UTC)

	f := newServiceFixture(t)
	consumer := NewConsumer(f.service, &fakeGateway{}, zap.NewNop())

	stored := order.Restore(orderID, "buyer-1", "Alice", order.StatusShipped,
		time.Now().UTC(), []order.Line{{ProductID: 1, UnitPrice: 100, Quantity: 1}},
		order.Address{}, order.PaymentCard{}, 5)

	f.expectTransaction(ctx, events.CompleteOrderRequestID(shipmentID), "complete-order-by-shipment")
	f.orders.EXPECT().GetByIDTx(ctx, f.tx, orderID).Return(stored, nil)
	f.orders.EXPECT().UpdateTx(ctx, f.tx, stored).Return(nil)

	message := eventMessage(t, events.ShipmentCompleted{
		ShipmentID:     shipmentID,
		OrderID:        orderID,
		TrackingNumber: "TRK-9",
		Carrier:        "Bob",
		CompletedAt:    completedAt,
	})

	err := consumer.HandleShipmentCompleted(ctx, message)

	require.NoError(t, err)
	assert.Equal(t, "TRK-9", stored.TrackingNumber)
	require.NotNil(t, stored.ShippedAt)
	assert.Equal(t, completedAt, *stored.ShippedAt)

	// Redelivery of the same message hits the recorded request id: nothing is
	// read or written, the handler just acknowledges.
	f.db.EXPECT().BeginTx(ctx).Return(f.tx, nil)
	f.records.EXPECT().InsertTx(ctx, f.tx, events.CompleteOrderRequestID(shipmentID), "complete-order-by-shipment", gomock.Any()).
		Return(repository.ErrDuplicateRequest)
	f.tx.EXPECT().Rollback(ctx).Return(nil)

	require.NoError(t, consumer.HandleShipmentCompleted(ctx, message))
}
