package ordering

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/akulagin/fulfillment/internal/domain/order"
	"github.com/akulagin/fulfillment/internal/events"
	"github.com/akulagin/fulfillment/internal/payment"
	"github.com/akulagin/fulfillment/internal/repository"
)

// Consumer routes integration events into the ordering commands. Request ids
// are derived from the event payload, so redelivery collapses into the same
// idempotency record. Domain dead ends (terminal order, illegal transition on
// replay) acknowledge the message; only transient failures leave the offset
// uncommitted.
type Consumer struct {
	service *Service
	gateway payment.Gateway
	logger  *zap.Logger
}

func NewConsumer(service *Service, gateway payment.Gateway, logger *zap.Logger) *Consumer {
	return &Consumer{service: service, gateway: gateway, logger: logger}
}

// HandleStockConfirmed confirms stock on the order, then captures payment and
// confirms it. Capture happens outside any transaction: if the process dies
// between the two commands, redelivery resumes from the order's current
// status.
func (c *Consumer) HandleStockConfirmed(ctx context.Context, msg kafkago.Message) error {
	var event events.StockConfirmed
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		c.logger.Error("malformed stock-confirmed event, dropping", zap.Error(err))
		return nil
	}

	_, err := c.service.ConfirmStock(ctx, events.ConfirmStockRequestID(event.OrderID), event.OrderID)
	if err != nil {
		if c.deadEnd("confirm stock", event.OrderID.String(), err) {
			return nil
		}
		return err
	}

	o, err := c.service.GetOrder(ctx, event.OrderID)
	if err != nil {
		if c.deadEnd("load order for payment", event.OrderID.String(), err) {
			return nil
		}
		return err
	}
	if o.Status != order.StatusStockConfirmed {
		// Payment was already settled on a previous delivery.
		return nil
	}

	if _, err := c.gateway.Capture(ctx, o.ID, o.Total(), o.Card.NumberMasked); err != nil {
		var declined *payment.DeclinedError
		if errors.As(err, &declined) {
			c.logger.Warn("payment declined, cancelling order",
				zap.String("order_id", o.ID.String()),
				zap.String("reason", declined.Reason),
			)
			_, cancelErr := c.service.CancelOrder(ctx, "payment-declined:"+o.ID.String(), o.ID)
			if cancelErr != nil && !c.deadEnd("cancel declined order", o.ID.String(), cancelErr) {
				return cancelErr
			}
			return nil
		}
		return fmt.Errorf("payment capture failed for order %s: %w", o.ID, err)
	}

	_, err = c.service.ConfirmPayment(ctx, events.ConfirmPaymentRequestID(event.OrderID), event.OrderID)
	if err != nil && !c.deadEnd("confirm payment", event.OrderID.String(), err) {
		return err
	}
	return nil
}

func (c *Consumer) HandleStockRejected(ctx context.Context, msg kafkago.Message) error {
	var event events.StockRejected
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		c.logger.Error("malformed stock-rejected event, dropping", zap.Error(err))
		return nil
	}

	_, err := c.service.RejectStock(ctx, events.RejectStockRequestID(event.OrderID), event.OrderID, event.ProductIDs)
	if err != nil && !c.deadEnd("reject stock", event.OrderID.String(), err) {
		return err
	}
	return nil
}

func (c *Consumer) HandleShipmentCompleted(ctx context.Context, msg kafkago.Message) error {
	var event events.ShipmentCompleted
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		c.logger.Error("malformed shipment-completed event, dropping", zap.Error(err))
		return nil
	}

	shippedAt := event.CompletedAt
	if shippedAt.IsZero() {
		shippedAt = time.Now().UTC()
	}
	_, _, err := c.service.CompleteOrderByShipment(ctx,
		events.CompleteOrderRequestID(event.ShipmentID),
		event.OrderID, event.TrackingNumber, event.Carrier, shippedAt)
	if err != nil && !c.deadEnd("complete order", event.OrderID.String(), err) {
		return err
	}
	return nil
}

// deadEnd reports whether err is a domain-level dead end that should
// acknowledge the message instead of forcing redelivery.
func (c *Consumer) deadEnd(op, orderID string, err error) bool {
	var transition *order.TransitionError
	if errors.As(err, &transition) || errors.Is(err, repository.ErrObjectNotFound) {
		c.logger.Warn("event ignored, order state does not allow operation",
			zap.String("operation", op),
			zap.String("order_id", orderID),
			zap.Error(err),
		)
		return true
	}
	return false
}
