package ordering

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/akulagin/fulfillment/internal/cache"
	"github.com/akulagin/fulfillment/internal/db"
	mock_database "github.com/akulagin/fulfillment/internal/db/mocks"
	"github.com/akulagin/fulfillment/internal/domain/order"
	"github.com/akulagin/fulfillment/internal/events"
	"github.com/akulagin/fulfillment/internal/idempotency"
	"github.com/akulagin/fulfillment/internal/repository"
	mock_storage "github.com/akulagin/fulfillment/internal/storage/mocks"
)

type serviceFixture struct {
	service *Service
	orders  *mock_storage.MockOrderRepository
	outbox  *mock_storage.MockOutboxTaskRepository
	records *mock_storage.MockIdempotencyRepository
	db      *mock_database.MockDB
	tx      *mock_database.MockTx
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	f := &serviceFixture{
		orders:  mock_storage.NewMockOrderRepository(ctrl),
		outbox:  mock_storage.NewMockOutboxTaskRepository(ctrl),
		records: mock_storage.NewMockIdempotencyRepository(ctrl),
		db:      mock_database.NewMockDB(ctrl),
		tx:      mock_database.NewMockTx(ctrl),
	}

	logger := zap.NewNop()
	dispatcher := idempotency.NewDispatcher(f.db, f.records, logger)
	f.service = NewService(f.orders, f.outbox, dispatcher, cache.NewOrderCache(f.orders, logger), logger)
	return f
}

func (f *serviceFixture) expectTransaction(ctx context.Context, requestID, commandType string) {
	f.db.EXPECT().BeginTx(ctx).Return(f.tx, nil)
	f.records.EXPECT().InsertTx(ctx, f.tx, requestID, commandType, gomock.Any()).Return(nil)
	f.tx.EXPECT().Commit(ctx).Return(nil)
}

// capturedTopics collects the topics of every outbox task created in the test.
func (f *serviceFixture) capturedTopics(ctx context.Context, count int) *[]string {
	topics := &[]string{}
	f.outbox.EXPECT().CreateTx(ctx, f.tx, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ db.Tx, task *repository.OutboxTask) error {
			*topics = append(*topics, task.Topic)
			return nil
		}).Times(count)
	return topics
}

func testCreateInput() CreateOrderInput {
	return CreateOrderInput{
		BuyerID:   "buyer-1",
		BuyerName: "Alice",
		Lines: []LineInput{
			{ProductID: 1, ProductName: "keyboard", UnitPrice: 1000, Quantity: 2},
			{ProductID: 2, ProductName: "mouse", UnitPrice: 700, Discount: 200, Quantity: 1},
		},
		Address: order.Address{City: "Springfield", Country: "US"},
		Card:    order.PaymentCard{NumberMasked: "****1111"},
	}
}

func TestCreateOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("persists the order and enqueues validation", func(t *testing.T) {
		f := newServiceFixture(t)

		f.expectTransaction(ctx, "req-1", "create-order")

		var created *order.Order
		f.orders.EXPECT().CreateTx(ctx, f.tx, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ db.Tx, o *order.Order) error {
				created = o
				return nil
			})
		f.orders.EXPECT().AppendTrailTx(ctx, f.tx, gomock.Any(), gomock.Any()).Return(nil)
		// Two status changes (submitted, awaiting validation) plus the
		// validation request itself.
		topics := f.capturedTopics(ctx, 3)

		orderID, duplicate, err := f.service.CreateOrder(ctx, "req-1", testCreateInput())

		require.NoError(t, err)
		assert.False(t, duplicate)
		assert.NotEqual(t, uuid.Nil, orderID)

		require.NotNil(t, created)
		assert.Equal(t, order.StatusAwaitingValidation, created.Status)
		assert.Equal(t, int64(2500), created.Total())
		assert.Equal(t, []string{
			events.TopicOrderStatusChanged,
			events.TopicOrderStatusChanged,
			events.TopicOrderAwaitingValidation,
		}, *topics)
	})

	t.Run("duplicate request creates nothing", func(t *testing.T) {
		f := newServiceFixture(t)

		f.db.EXPECT().BeginTx(ctx).Return(f.tx, nil)
		f.records.EXPECT().InsertTx(ctx, f.tx, "req-1", "create-order", gomock.Any()).
			Return(repository.ErrDuplicateRequest)
		f.tx.EXPECT().Rollback(ctx).Return(nil)

		orderID, duplicate, err := f.service.CreateOrder(ctx, "req-1", testCreateInput())

		require.NoError(t, err)
		assert.True(t, duplicate)
		assert.Equal(t, uuid.Nil, orderID)
	})

	t.Run("invalid lines never reach the database", func(t *testing.T) {
		f := newServiceFixture(t)

		input := testCreateInput()
		input.Lines = nil

		_, _, err := f.service.CreateOrder(ctx, "req-1", input)
		assert.ErrorIs(t, err, order.ErrNoLines)
	})
}

func TestGetOrder(t *testing.T) {
	ctx := context.Background()
	orderID := uuid.New()

	restoredOrder := func(status order.Status) *order.Order {
		return order.Restore(orderID, "buyer-1", "Alice", status,
			time.Now().UTC(), []order.Line{{ProductID: 1, UnitPrice: 100, Quantity: 1}},
			order.Address{}, order.PaymentCard{}, 1)
	}

	t.Run("sees transitions committed by other processes", func(t *testing.T) {
		f := newServiceFixture(t)

		// The worker rejected stock after this copy was cached.
		f.service.cache.Set(restoredOrder(order.StatusAwaitingValidation))
		f.orders.EXPECT().GetByID(ctx, orderID).Return(restoredOrder(order.StatusCancelled), nil)

		got, err := f.service.GetOrder(ctx, orderID)

		require.NoError(t, err)
		assert.Equal(t, order.StatusCancelled, got.Status)
	})

	t.Run("falls back to the cache when storage is unavailable", func(t *testing.T) {
		f := newServiceFixture(t)

		f.service.cache.Set(restoredOrder(order.StatusAwaitingValidation))
		f.orders.EXPECT().GetByID(ctx, orderID).Return(nil, errors.New("connection refused"))

		got, err := f.service.GetOrder(ctx, orderID)

		require.NoError(t, err)
		assert.Equal(t, order.StatusAwaitingValidation, got.Status)
	})

	t.Run("unknown order evicts the cached copy", func(t *testing.T) {
		f := newServiceFixture(t)

		f.service.cache.Set(restoredOrder(order.StatusAwaitingValidation))
		f.orders.EXPECT().GetByID(ctx, orderID).Return(nil, repository.ErrObjectNotFound)

		_, err := f.service.GetOrder(ctx, orderID)

		assert.ErrorIs(t, err, repository.ErrObjectNotFound)
		_, found := f.service.cache.Get(orderID)
		assert.False(t, found)
	})
}

func TestCancelOrder(t *testing.T) {
	ctx := context.Background()
	orderID := uuid.New()

	t.Run("cancels an open order", func(t *testing.T) {
		f := newServiceFixture(t)

		stored := order.Restore(orderID, "buyer-1", "Alice", order.StatusAwaitingValidation,
			time.Now().UTC(), []order.Line{{ProductID: 1, UnitPrice: 100, Quantity: 1}},
			order.Address{}, order.PaymentCard{}, 1)

		f.expectTransaction(ctx, "req-2", "cancel-order")
		f.orders.EXPECT().GetByIDTx(ctx, f.tx, orderID).Return(stored, nil)
		f.orders.EXPECT().UpdateTx(ctx, f.tx, stored).Return(nil)
		f.orders.EXPECT().AppendTrailTx(ctx, f.tx, orderID, gomock.Any()).Return(nil)
		topics := f.capturedTopics(ctx, 1)

		duplicate, err := f.service.CancelOrder(ctx, "req-2", orderID)

		require.NoError(t, err)
		assert.False(t, duplicate)
		assert.Equal(t, order.StatusCancelled, stored.Status)
		assert.Equal(t, []string{events.TopicOrderStatusChanged}, *topics)
	})

	t.Run("terminal order reports a transition error", func(t *testing.T) {
		f := newServiceFixture(t)

		stored := order.Restore(orderID, "buyer-1", "Alice", order.StatusCancelled,
			time.Now().UTC(), []order.Line{{ProductID: 1, UnitPrice: 100, Quantity: 1}},
			order.Address{}, order.PaymentCard{}, 2)

		f.db.EXPECT().BeginTx(ctx).Return(f.tx, nil)
		f.records.EXPECT().InsertTx(ctx, f.tx, "req-3", "cancel-order", gomock.Any()).Return(nil)
		f.orders.EXPECT().GetByIDTx(ctx, f.tx, orderID).Return(stored, nil)
		f.tx.EXPECT().Rollback(ctx).Return(nil)

		_, err := f.service.CancelOrder(ctx, "req-3", orderID)

		var transitionErr *order.TransitionError
		assert.ErrorAs(t, err, &transitionErr)
	})
}

func TestConfirmPayment(t *testing.T) {
	ctx := context.Background()
	orderID := uuid.New()

	f := newServiceFixture(t)

	stored := order.Restore(orderID, "buyer-1", "Alice", order.StatusStockConfirmed,
		time.Now().UTC(), []order.Line{{ProductID: 1, UnitPrice: 100, Quantity: 1}},
		order.Address{City: "Springfield"}, order.PaymentCard{}, 3)

	f.expectTransaction(ctx, "req-4", "confirm-payment")
	f.orders.EXPECT().GetByIDTx(ctx, f.tx, orderID).Return(stored, nil)
	f.orders.EXPECT().UpdateTx(ctx, f.tx, stored).Return(nil)
	f.orders.EXPECT().AppendTrailTx(ctx, f.tx, orderID, gomock.Any()).Return(nil)
	topics := f.capturedTopics(ctx, 2)

	duplicate, err := f.service.ConfirmPayment(ctx, "req-4", orderID)

	require.NoError(t, err)
	assert.False(t, duplicate)
	assert.Equal(t, order.StatusPaid, stored.Status)
	assert.Equal(t, []string{events.TopicOrderStatusChanged, events.TopicOrderPaid}, *topics)
}

func TestCompleteOrderByShipment(t *testing.T) {
	ctx := context.Background()
	orderID := uuid.New()
	shippedAt := time.Date(2025, 6, 3, 9, 0, 0, 0, time.UTC)

	t.Run("records tracking metadata on a shipped order", func(t *testing.T) {
		f := newServiceFixture(t)

		stored := order.Restore(orderID, "buyer-1", "Alice", order.StatusShipped,
			time.Now().UTC(), []order.Line{{ProductID: 1, UnitPrice: 100, Quantity: 1}},
			order.Address{}, order.PaymentCard{}, 5)

		f.expectTransaction(ctx, "complete-order:ship-1", "complete-order-by-shipment")
		f.orders.EXPECT().GetByIDTx(ctx, f.tx, orderID).Return(stored, nil)
		f.orders.EXPECT().UpdateTx(ctx, f.tx, stored).Return(nil)

		completed, duplicate, err := f.service.CompleteOrderByShipment(ctx,
			"complete-order:ship-1", orderID, "TRK-9", "FastCouriers", shippedAt)

		require.NoError(t, err)
		assert.True(t, completed)
		assert.False(t, duplicate)
		assert.Equal(t, "TRK-9", stored.TrackingNumber)
		require.NotNil(t, stored.ShippedAt)
		assert.Equal(t, shippedAt, *stored.ShippedAt)
	})

	t.Run("order not yet shipped is a recorded no-op", func(t *testing.T) {
		f := newServiceFixture(t)

		stored := order.Restore(orderID, "buyer-1", "Alice", order.StatusPaid,
			time.Now().UTC(), []order.Line{{ProductID: 1, UnitPrice: 100, Quantity: 1}},
			order.Address{}, order.PaymentCard{}, 4)

		// The idempotency record still commits so redelivery stays quiet.
		f.expectTransaction(ctx, "complete-order:ship-2", "complete-order-by-shipment")
		f.orders.EXPECT().GetByIDTx(ctx, f.tx, orderID).Return(stored, nil)

		completed, duplicate, err := f.service.CompleteOrderByShipment(ctx,
			"complete-order:ship-2", orderID, "TRK-9", "FastCouriers", shippedAt)

		require.NoError(t, err)
		assert.False(t, completed)
		assert.False(t, duplicate)
		assert.Empty(t, stored.TrackingNumber)
	})
}
