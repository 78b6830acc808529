package delivery

import (
	"context"
	"encoding/json"
	"errors"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/akulagin/fulfillment/internal/events"
)

// Consumer routes integration events into the delivery commands.
type Consumer struct {
	service *Service
	logger  *zap.Logger
}

func NewConsumer(service *Service, logger *zap.Logger) *Consumer {
	return &Consumer{service: service, logger: logger}
}

// HandleOrderPaid creates the shipment for a freshly paid order. The request
// id is derived from the order id, so a redelivered event never creates a
// second shipment. A destination with no serving warehouse is a dead end, not
// a transient failure: the message is acknowledged and the gap logged.
func (c *Consumer) HandleOrderPaid(ctx context.Context, msg kafkago.Message) error {
	var event events.OrderPaid
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		c.logger.Error("malformed order-paid event, dropping", zap.Error(err))
		return nil
	}

	addr := addressFromEvent(event)
	shipmentID, duplicate, err := c.service.CreateForOrder(ctx,
		events.CreateShipmentRequestID(event.OrderID), event.OrderID, addr)
	if err != nil {
		if errors.Is(err, ErrNoRoute) {
			c.logger.Error("no route to destination, shipment not created",
				zap.String("order_id", event.OrderID.String()),
				zap.String("city", event.City),
				zap.String("country", event.Country),
			)
			return nil
		}
		if errors.Is(err, ErrShipmentExists) {
			c.logger.Warn("order already has a shipment, event ignored",
				zap.String("order_id", event.OrderID.String()),
			)
			return nil
		}
		return err
	}
	if duplicate {
		return nil
	}

	c.logger.Info("shipment created for paid order",
		zap.String("order_id", event.OrderID.String()),
		zap.String("shipment_id", shipmentID.String()),
	)
	return nil
}
