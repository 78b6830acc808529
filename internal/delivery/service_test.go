package delivery

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/akulagin/fulfillment/internal/db"
	mock_database "github.com/akulagin/fulfillment/internal/db/mocks"
	"github.com/akulagin/fulfillment/internal/domain/shipment"
	"github.com/akulagin/fulfillment/internal/events"
	"github.com/akulagin/fulfillment/internal/idempotency"
	"github.com/akulagin/fulfillment/internal/repository"
	mock_storage "github.com/akulagin/fulfillment/internal/storage/mocks"
)

type deliveryFixture struct {
	service    *Service
	shipments  *mock_storage.MockShipmentRepository
	shippers   *mock_storage.MockShipperRepository
	warehouses *mock_storage.MockWarehouseRepository
	outbox     *mock_storage.MockOutboxTaskRepository
	records    *mock_storage.MockIdempotencyRepository
	db         *mock_database.MockDB
	tx         *mock_database.MockTx
}

func newDeliveryFixture(t *testing.T) *deliveryFixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	f := &deliveryFixture{
		shipments:  mock_storage.NewMockShipmentRepository(ctrl),
		shippers:   mock_storage.NewMockShipperRepository(ctrl),
		warehouses: mock_storage.NewMockWarehouseRepository(ctrl),
		outbox:     mock_storage.NewMockOutboxTaskRepository(ctrl),
		records:    mock_storage.NewMockIdempotencyRepository(ctrl),
		db:         mock_database.NewMockDB(ctrl),
		tx:         mock_database.NewMockTx(ctrl),
	}

	logger := zap.NewNop()
	dispatcher := idempotency.NewDispatcher(f.db, f.records, logger)
	f.service = NewService(f.shipments, f.shippers, f.warehouses, f.outbox, dispatcher, logger)
	return f
}

func (f *deliveryFixture) expectTransaction(ctx context.Context, requestID, commandType string) {
	f.db.EXPECT().BeginTx(ctx).Return(f.tx, nil)
	f.records.EXPECT().InsertTx(ctx, f.tx, requestID, commandType, gomock.Any()).Return(nil)
	f.tx.EXPECT().Commit(ctx).Return(nil)
}

func (f *deliveryFixture) expectRollback(ctx context.Context, requestID, commandType string) {
	f.db.EXPECT().BeginTx(ctx).Return(f.tx, nil)
	f.records.EXPECT().InsertTx(ctx, f.tx, requestID, commandType, gomock.Any()).Return(nil)
	f.tx.EXPECT().Rollback(ctx).Return(nil)
}

func storedShipment(status shipment.Status, shipperID *int64, waypoints []shipment.Waypoint) *shipment.Shipment {
	return shipment.Restore(uuid.New(), uuid.New(), shipperID, status,
		shipment.Address{City: "Springfield"}, time.Now().UTC(), nil, waypoints, 1)
}

func routeWaypoints() []shipment.Waypoint {
	return []shipment.Waypoint{
		{ID: 10, WarehouseID: 100, WarehouseName: "North Hub", Seq: 1},
		{ID: 20, WarehouseID: 200, WarehouseName: "City Depot", Seq: 2},
	}
}

func TestCreateForOrder(t *testing.T) {
	ctx := context.Background()
	orderID := uuid.New()
	addr := shipment.Address{City: "Springfield", Country: "US"}

	t.Run("plans the route from the destination city", func(t *testing.T) {
		f := newDeliveryFixture(t)

		f.warehouses.EXPECT().ListByRegion(ctx, "Springfield").Return([]repository.Warehouse{
			{ID: 100, Name: "North Hub", Region: "Springfield"},
			{ID: 200, Name: "City Depot", Region: "Springfield"},
		}, nil)

		f.expectTransaction(ctx, "req-1", "create-shipment")
		f.shipments.EXPECT().GetByOrderIDTx(ctx, f.tx, orderID).Return(nil, repository.ErrObjectNotFound)

		var created *shipment.Shipment
		f.shipments.EXPECT().CreateTx(ctx, f.tx, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ db.Tx, sh *shipment.Shipment) error {
				created = sh
				return nil
			})
		f.shipments.EXPECT().AppendHistoryTx(ctx, f.tx, gomock.Any(), gomock.Any()).Return(nil)

		shipmentID, duplicate, err := f.service.CreateForOrder(ctx, "req-1", orderID, addr)

		require.NoError(t, err)
		assert.False(t, duplicate)
		assert.NotEqual(t, uuid.Nil, shipmentID)

		require.NotNil(t, created)
		assert.Equal(t, shipment.StatusCreated, created.Status)
		assert.Equal(t, orderID, created.OrderID)
		require.Len(t, created.Waypoints, 2)
		assert.Equal(t, 1, created.Waypoints[0].Seq)
		assert.Equal(t, int64(100), created.Waypoints[0].WarehouseID)
	})

	t.Run("falls back to the destination country", func(t *testing.T) {
		f := newDeliveryFixture(t)

		f.warehouses.EXPECT().ListByRegion(ctx, "Springfield").Return(nil, nil)
		f.warehouses.EXPECT().ListByRegion(ctx, "US").Return([]repository.Warehouse{
			{ID: 300, Name: "National Hub", Region: "US"},
		}, nil)

		f.expectTransaction(ctx, "req-2", "create-shipment")
		f.shipments.EXPECT().GetByOrderIDTx(ctx, f.tx, orderID).Return(nil, repository.ErrObjectNotFound)
		f.shipments.EXPECT().CreateTx(ctx, f.tx, gomock.Any()).Return(nil)
		f.shipments.EXPECT().AppendHistoryTx(ctx, f.tx, gomock.Any(), gomock.Any()).Return(nil)

		_, _, err := f.service.CreateForOrder(ctx, "req-2", orderID, addr)
		require.NoError(t, err)
	})

	t.Run("no serving warehouse anywhere", func(t *testing.T) {
		f := newDeliveryFixture(t)

		f.warehouses.EXPECT().ListByRegion(ctx, "Springfield").Return(nil, nil)
		f.warehouses.EXPECT().ListByRegion(ctx, "US").Return(nil, nil)

		_, _, err := f.service.CreateForOrder(ctx, "req-3", orderID, addr)
		assert.ErrorIs(t, err, ErrNoRoute)
	})

	t.Run("order already has a shipment", func(t *testing.T) {
		f := newDeliveryFixture(t)

		f.warehouses.EXPECT().ListByRegion(ctx, "Springfield").Return([]repository.Warehouse{
			{ID: 100, Name: "North Hub", Region: "Springfield"},
		}, nil)

		f.expectRollback(ctx, "req-3a", "create-shipment")
		existing := storedShipment(shipment.StatusCreated, nil, routeWaypoints())
		f.shipments.EXPECT().GetByOrderIDTx(ctx, f.tx, orderID).Return(existing, nil)

		_, _, err := f.service.CreateForOrder(ctx, "req-3a", orderID, addr)
		assert.ErrorIs(t, err, ErrShipmentExists)
	})
}

func TestAssignShipper(t *testing.T) {
	ctx := context.Background()

	t.Run("marks the shipper busy in the same transaction", func(t *testing.T) {
		f := newDeliveryFixture(t)

		sh := storedShipment(shipment.StatusCreated, nil, routeWaypoints())
		courier := &shipment.Shipper{ID: 7, Name: "Bob", Available: true, Active: true}

		f.expectTransaction(ctx, "req-4", "assign-shipper")
		f.shipments.EXPECT().GetByIDTx(ctx, f.tx, sh.ID).Return(sh, nil)
		f.shippers.EXPECT().GetByIDTx(ctx, f.tx, int64(7)).Return(courier, nil)
		f.shipments.EXPECT().GetActiveByShipperTx(ctx, f.tx, int64(7)).Return(nil, repository.ErrObjectNotFound)
		f.shipments.EXPECT().UpdateTx(ctx, f.tx, sh).Return(nil)
		f.shipments.EXPECT().AppendHistoryTx(ctx, f.tx, sh.ID, gomock.Any()).Return(nil)
		f.shippers.EXPECT().UpdateTx(ctx, f.tx, courier).Return(nil)

		duplicate, err := f.service.AssignShipper(ctx, "req-4", sh.ID, 7)

		require.NoError(t, err)
		assert.False(t, duplicate)
		assert.Equal(t, shipment.StatusShipperAssigned, sh.Status)
		assert.False(t, courier.Available)
	})

	t.Run("reassignment frees the previous shipper", func(t *testing.T) {
		f := newDeliveryFixture(t)

		previousID := int64(7)
		sh := storedShipment(shipment.StatusShipperAssigned, &previousID, routeWaypoints())
		previous := &shipment.Shipper{ID: 7, Name: "Bob", Available: false, Active: true}
		next := &shipment.Shipper{ID: 8, Name: "Carol", Available: true, Active: true}

		f.expectTransaction(ctx, "req-5", "assign-shipper")
		f.shipments.EXPECT().GetByIDTx(ctx, f.tx, sh.ID).Return(sh, nil)
		f.shippers.EXPECT().GetByIDTx(ctx, f.tx, int64(8)).Return(next, nil)
		f.shipments.EXPECT().GetActiveByShipperTx(ctx, f.tx, int64(8)).Return(nil, repository.ErrObjectNotFound)
		f.shippers.EXPECT().GetByIDTx(ctx, f.tx, int64(7)).Return(previous, nil)
		f.shipments.EXPECT().UpdateTx(ctx, f.tx, sh).Return(nil)
		f.shipments.EXPECT().AppendHistoryTx(ctx, f.tx, sh.ID, gomock.Any()).Return(nil)
		f.shippers.EXPECT().UpdateTx(ctx, f.tx, previous).Return(nil)
		f.shippers.EXPECT().UpdateTx(ctx, f.tx, next).Return(nil)

		_, err := f.service.AssignShipper(ctx, "req-5", sh.ID, 8)

		require.NoError(t, err)
		assert.True(t, previous.Available)
		assert.False(t, next.Available)
	})

	t.Run("unavailable shipper rolls back", func(t *testing.T) {
		f := newDeliveryFixture(t)

		sh := storedShipment(shipment.StatusCreated, nil, routeWaypoints())
		courier := &shipment.Shipper{ID: 7, Available: false, Active: true}

		f.expectRollback(ctx, "req-6", "assign-shipper")
		f.shipments.EXPECT().GetByIDTx(ctx, f.tx, sh.ID).Return(sh, nil)
		f.shippers.EXPECT().GetByIDTx(ctx, f.tx, int64(7)).Return(courier, nil)
		f.shipments.EXPECT().GetActiveByShipperTx(ctx, f.tx, int64(7)).Return(nil, repository.ErrObjectNotFound)

		_, err := f.service.AssignShipper(ctx, "req-6", sh.ID, 7)
		assert.ErrorIs(t, err, shipment.ErrShipperUnavailable)
	})

	t.Run("shipper already carrying another shipment", func(t *testing.T) {
		f := newDeliveryFixture(t)

		sh := storedShipment(shipment.StatusCreated, nil, routeWaypoints())
		// The flag says free, the shipments table says otherwise.
		courier := &shipment.Shipper{ID: 7, Name: "Bob", Available: true, Active: true}
		shipperID := int64(7)
		other := storedShipment(shipment.StatusPickedUp, &shipperID, routeWaypoints())

		f.expectRollback(ctx, "req-6a", "assign-shipper")
		f.shipments.EXPECT().GetByIDTx(ctx, f.tx, sh.ID).Return(sh, nil)
		f.shippers.EXPECT().GetByIDTx(ctx, f.tx, int64(7)).Return(courier, nil)
		f.shipments.EXPECT().GetActiveByShipperTx(ctx, f.tx, int64(7)).Return(other, nil)

		_, err := f.service.AssignShipper(ctx, "req-6a", sh.ID, 7)
		assert.ErrorIs(t, err, shipment.ErrShipperUnavailable)
	})
}

func TestDeliver(t *testing.T) {
	ctx := context.Background()

	t.Run("completes the shipment and notifies ordering", func(t *testing.T) {
		f := newDeliveryFixture(t)

		shipperID := int64(7)
		now := time.Now().UTC()
		waypoints := routeWaypoints()
		waypoints[0].DepartedAt = &now
		waypoints[1].ArrivedAt = &now
		waypoints[1].DepartedAt = &now
		sh := storedShipment(shipment.StatusDelivering, &shipperID, waypoints)
		courier := &shipment.Shipper{ID: 7, Name: "Bob", Available: false, Active: true}

		f.expectTransaction(ctx, "req-7", "deliver")
		f.shipments.EXPECT().GetByIDTx(ctx, f.tx, sh.ID).Return(sh, nil)
		f.shippers.EXPECT().GetByIDTx(ctx, f.tx, shipperID).Return(courier, nil)
		f.shipments.EXPECT().UpdateTx(ctx, f.tx, sh).Return(nil)
		f.shipments.EXPECT().AppendHistoryTx(ctx, f.tx, sh.ID, gomock.Any()).Return(nil)
		f.shippers.EXPECT().UpdateTx(ctx, f.tx, courier).Return(nil)

		var task *repository.OutboxTask
		f.outbox.EXPECT().CreateTx(ctx, f.tx, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ db.Tx, created *repository.OutboxTask) error {
				task = created
				return nil
			})

		duplicate, err := f.service.Deliver(ctx, "req-7", sh.ID, 7)

		require.NoError(t, err)
		assert.False(t, duplicate)
		assert.Equal(t, shipment.StatusDelivered, sh.Status)
		assert.True(t, courier.Available)
		require.NotNil(t, task)
		assert.Equal(t, events.TopicShipmentCompleted, task.Topic)
	})

	t.Run("only the assigned shipper may deliver", func(t *testing.T) {
		f := newDeliveryFixture(t)

		shipperID := int64(7)
		sh := storedShipment(shipment.StatusDelivering, &shipperID, routeWaypoints())

		f.expectRollback(ctx, "req-8", "deliver")
		f.shipments.EXPECT().GetByIDTx(ctx, f.tx, sh.ID).Return(sh, nil)

		_, err := f.service.Deliver(ctx, "req-8", sh.ID, 99)
		assert.ErrorIs(t, err, shipment.ErrNotAssignedShipper)
	})
}

func TestPickup(t *testing.T) {
	ctx := context.Background()
	shipperID := int64(7)

	f := newDeliveryFixture(t)

	sh := storedShipment(shipment.StatusShipperAssigned, &shipperID, routeWaypoints())

	f.expectTransaction(ctx, "req-9", "pickup")
	f.shipments.EXPECT().GetByIDTx(ctx, f.tx, sh.ID).Return(sh, nil)
	f.shipments.EXPECT().UpdateTx(ctx, f.tx, sh).Return(nil)
	f.shipments.EXPECT().AppendHistoryTx(ctx, f.tx, sh.ID, gomock.Any()).Return(nil)

	duplicate, err := f.service.Pickup(ctx, "req-9", sh.ID, 7, 10)

	require.NoError(t, err)
	assert.False(t, duplicate)
	assert.Equal(t, shipment.StatusPickedUp, sh.Status)
	assert.NotNil(t, sh.Waypoints[0].DepartedAt)
}

func TestCancelShipment(t *testing.T) {
	ctx := context.Background()

	t.Run("after pickup the goods return to the last location", func(t *testing.T) {
		f := newDeliveryFixture(t)

		shipperID := int64(7)
		now := time.Now().UTC()
		waypoints := routeWaypoints()
		waypoints[0].DepartedAt = &now
		sh := storedShipment(shipment.StatusPickedUp, &shipperID, waypoints)
		courier := &shipment.Shipper{ID: 7, Available: false, Active: true}

		f.expectTransaction(ctx, "req-10", "cancel-shipment")
		f.shipments.EXPECT().GetByIDTx(ctx, f.tx, sh.ID).Return(sh, nil)
		f.shippers.EXPECT().GetByIDTx(ctx, f.tx, shipperID).Return(courier, nil)
		f.shipments.EXPECT().UpdateTx(ctx, f.tx, sh).Return(nil)
		f.shipments.EXPECT().AppendHistoryTx(ctx, f.tx, sh.ID, gomock.Any()).Return(nil)
		f.shippers.EXPECT().UpdateTx(ctx, f.tx, courier).Return(nil)

		_, err := f.service.CancelShipment(ctx, "req-10", sh.ID)

		require.NoError(t, err)
		assert.Equal(t, shipment.StatusReturned, sh.Status)
		assert.True(t, courier.Available)
		require.NotNil(t, courier.CurrentWarehouseID)
		assert.Equal(t, int64(100), *courier.CurrentWarehouseID, "shipper relocates to the last departed warehouse")
	})

	t.Run("before assignment no shipper is touched", func(t *testing.T) {
		f := newDeliveryFixture(t)

		sh := storedShipment(shipment.StatusCreated, nil, routeWaypoints())

		f.expectTransaction(ctx, "req-11", "cancel-shipment")
		f.shipments.EXPECT().GetByIDTx(ctx, f.tx, sh.ID).Return(sh, nil)
		f.shipments.EXPECT().UpdateTx(ctx, f.tx, sh).Return(nil)
		f.shipments.EXPECT().AppendHistoryTx(ctx, f.tx, sh.ID, gomock.Any()).Return(nil)

		_, err := f.service.CancelShipment(ctx, "req-11", sh.ID)

		require.NoError(t, err)
		assert.Equal(t, shipment.StatusCancelled, sh.Status)
	})
}
