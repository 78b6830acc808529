// Package ordering hosts the command handlers for the Order aggregate. Every
// mutating command runs through the idempotent dispatcher: one transaction
// covers the idempotency record, the aggregate update, the status trail and
// the outbox events, so duplicates and retries can never double-apply.
package ordering

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/akulagin/fulfillment/internal/cache"
	"github.com/akulagin/fulfillment/internal/db"
	"github.com/akulagin/fulfillment/internal/domain/order"
	"github.com/akulagin/fulfillment/internal/events"
	"github.com/akulagin/fulfillment/internal/idempotency"
	"github.com/akulagin/fulfillment/internal/metrics"
	"github.com/akulagin/fulfillment/internal/repository"
	"github.com/akulagin/fulfillment/internal/storage"
)

type Service struct {
	orders     storage.OrderRepository
	outbox     storage.OutboxTaskRepository
	dispatcher *idempotency.Dispatcher
	cache      *cache.OrderCache
	logger     *zap.Logger
}

func NewService(orders storage.OrderRepository, outbox storage.OutboxTaskRepository, dispatcher *idempotency.Dispatcher, orderCache *cache.OrderCache, logger *zap.Logger) *Service {
	return &Service{
		orders:     orders,
		outbox:     outbox,
		dispatcher: dispatcher,
		cache:      orderCache,
		logger:     logger,
	}
}

type LineInput struct {
	ProductID   int64
	ProductName string
	UnitPrice   int64
	Discount    int64
	Quantity    int64
	PictureURL  string
}

type CreateOrderInput struct {
	BuyerID   string
	BuyerName string
	Lines     []LineInput
	Address   order.Address
	Card      order.PaymentCard
}

// CreateOrder creates the order, immediately requests stock validation and
// enqueues the validation event. Returns the new order id; on a duplicate
// request id no order is created and duplicate=true is reported.
func (s *Service) CreateOrder(ctx context.Context, requestID string, in CreateOrderInput) (uuid.UUID, bool, error) {
	lines := make([]order.Line, 0, len(in.Lines))
	for _, l := range in.Lines {
		lines = append(lines, order.Line{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			UnitPrice:   l.UnitPrice,
			Discount:    l.Discount,
			Quantity:    l.Quantity,
			PictureURL:  l.PictureURL,
		})
	}

	now := time.Now().UTC()
	o, err := order.New(uuid.New(), in.BuyerID, in.BuyerName, lines, in.Address, in.Card, now)
	if err != nil {
		return uuid.Nil, false, err
	}
	if err := o.RequestValidation(now); err != nil {
		return uuid.Nil, false, err
	}

	duplicate, err := s.dispatcher.Execute(ctx, requestID, "create-order", func(tx db.Tx) error {
		if err := s.orders.CreateTx(ctx, tx, o); err != nil {
			return err
		}
		if err := s.orders.AppendTrailTx(ctx, tx, o.ID, o.PendingTrail()); err != nil {
			return err
		}
		if err := s.enqueueStatusEvents(ctx, tx, o); err != nil {
			return err
		}

		stockLines := make([]events.StockLine, 0, len(o.Lines))
		for _, l := range o.Lines {
			stockLines = append(stockLines, events.StockLine{ProductID: l.ProductID, Quantity: l.Quantity})
		}
		return s.enqueue(ctx, tx, events.TopicOrderAwaitingValidation, events.OrderAwaitingValidation{
			OrderID: o.ID,
			Lines:   stockLines,
		})
	})
	if err != nil {
		metrics.OperationErrorsTotal.WithLabelValues("create_order").Inc()
		return uuid.Nil, false, err
	}
	if duplicate {
		return uuid.Nil, true, nil
	}

	metrics.OrdersCreatedTotal.Inc()
	s.cache.Set(o)
	s.logger.Info("order created",
		zap.String("order_id", o.ID.String()),
		zap.String("buyer_id", o.BuyerID),
		zap.Int64("total", o.Total()),
	)
	return o.ID, false, nil
}

func (s *Service) CancelOrder(ctx context.Context, requestID string, orderID uuid.UUID) (bool, error) {
	return s.mutate(ctx, requestID, "cancel-order", orderID, func(o *order.Order, now time.Time) error {
		return o.Cancel(now)
	}, nil)
}

func (s *Service) ShipOrder(ctx context.Context, requestID string, orderID uuid.UUID) (bool, error) {
	return s.mutate(ctx, requestID, "ship-order", orderID, func(o *order.Order, now time.Time) error {
		return o.MarkShipped(now)
	}, nil)
}

func (s *Service) ConfirmStock(ctx context.Context, requestID string, orderID uuid.UUID) (bool, error) {
	return s.mutate(ctx, requestID, "confirm-stock", orderID, func(o *order.Order, now time.Time) error {
		return o.ConfirmStock(now)
	}, nil)
}

func (s *Service) RejectStock(ctx context.Context, requestID string, orderID uuid.UUID, productIDs []int64) (bool, error) {
	return s.mutate(ctx, requestID, "reject-stock", orderID, func(o *order.Order, now time.Time) error {
		return o.RejectStock(productIDs, now)
	}, nil)
}

// ConfirmPayment moves the order to Paid and tells the delivery service to
// create the shipment.
func (s *Service) ConfirmPayment(ctx context.Context, requestID string, orderID uuid.UUID) (bool, error) {
	return s.mutate(ctx, requestID, "confirm-payment", orderID, func(o *order.Order, now time.Time) error {
		return o.ConfirmPayment(now)
	}, func(tx db.Tx, o *order.Order) error {
		return s.enqueue(ctx, tx, events.TopicOrderPaid, events.OrderPaid{
			OrderID: o.ID,
			BuyerID: o.BuyerID,
			Street:  o.Address.Street,
			City:    o.Address.City,
			State:   o.Address.State,
			Country: o.Address.Country,
			ZipCode: o.Address.ZipCode,
		})
	})
}

// CompleteOrderByShipment records the delivery-tracking metadata once the
// shipment is delivered. The order must already be Shipped; otherwise nothing
// is written and completed=false is returned without an error, so redelivered
// events never poison the bus.
func (s *Service) CompleteOrderByShipment(ctx context.Context, requestID string, orderID uuid.UUID, trackingNumber, carrier string, shippedAt time.Time) (completed, duplicate bool, err error) {
	duplicate, err = s.dispatcher.Execute(ctx, requestID, "complete-order-by-shipment", func(tx db.Tx) error {
		o, err := s.orders.GetByIDTx(ctx, tx, orderID)
		if err != nil {
			return err
		}

		if !o.CompleteByShipment(trackingNumber, carrier, shippedAt) {
			s.logger.Warn("order not in shipped status, completion skipped",
				zap.String("order_id", orderID.String()),
				zap.String("status", string(o.Status)),
			)
			return nil
		}

		if err := s.orders.UpdateTx(ctx, tx, o); err != nil {
			return err
		}
		completed = true
		s.cache.Set(o)
		return nil
	})
	if err != nil {
		metrics.OperationErrorsTotal.WithLabelValues("complete_order_by_shipment").Inc()
		return false, false, err
	}
	return completed, duplicate, nil
}

// GetOrder reads through the repository so transitions committed by other
// processes (the event worker confirms stock and payment) are visible
// immediately. The cache only answers when storage is unreachable.
func (s *Service) GetOrder(ctx context.Context, orderID uuid.UUID) (*order.Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrObjectNotFound) {
			s.cache.Delete(orderID)
			return nil, err
		}
		if cached, found := s.cache.Get(orderID); found {
			s.logger.Warn("serving order from cache, storage unavailable",
				zap.String("order_id", orderID.String()),
				zap.Error(err),
			)
			return cached, nil
		}
		return nil, err
	}
	s.cache.Set(o)
	return o, nil
}

func (s *Service) GetOrdersByUser(ctx context.Context, buyerID string) ([]*order.Order, error) {
	return s.orders.ListByBuyer(ctx, buyerID)
}

// mutate is the shared shape of every order command: load the aggregate
// inside the dispatcher's transaction, apply the domain operation, save with
// the version check, flush the status trail and enqueue the change events.
func (s *Service) mutate(ctx context.Context, requestID, commandType string, orderID uuid.UUID, apply func(o *order.Order, now time.Time) error, after func(tx db.Tx, o *order.Order) error) (bool, error) {
	var mutated *order.Order

	duplicate, err := s.dispatcher.Execute(ctx, requestID, commandType, func(tx db.Tx) error {
		o, err := s.orders.GetByIDTx(ctx, tx, orderID)
		if err != nil {
			return err
		}

		if err := apply(o, time.Now().UTC()); err != nil {
			return err
		}

		if err := s.orders.UpdateTx(ctx, tx, o); err != nil {
			return err
		}
		if err := s.orders.AppendTrailTx(ctx, tx, o.ID, o.PendingTrail()); err != nil {
			return err
		}
		if err := s.enqueueStatusEvents(ctx, tx, o); err != nil {
			return err
		}
		if after != nil {
			if err := after(tx, o); err != nil {
				return err
			}
		}
		mutated = o
		return nil
	})
	if err != nil {
		metrics.OperationErrorsTotal.WithLabelValues(commandType).Inc()
		return false, err
	}

	if mutated != nil {
		s.cache.Set(mutated)
		s.logger.Info("order command applied",
			zap.String("command", commandType),
			zap.String("order_id", orderID.String()),
			zap.String("status", string(mutated.Status)),
		)
	}
	return duplicate, nil
}

func (s *Service) enqueueStatusEvents(ctx context.Context, tx db.Tx, o *order.Order) error {
	for _, change := range o.PendingTrail() {
		err := s.enqueue(ctx, tx, events.TopicOrderStatusChanged, events.OrderStatusChanged{
			OrderID:   o.ID,
			Status:    string(change.Status),
			ChangedAt: change.ChangedAt,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) enqueue(ctx context.Context, tx db.Tx, topic string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event for topic %s: %w", topic, err)
	}
	return s.outbox.CreateTx(ctx, tx, &repository.OutboxTask{
		Topic:   topic,
		Payload: raw,
	})
}
