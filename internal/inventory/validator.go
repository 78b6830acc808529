// Package inventory validates order lines against warehouse stock. It is the
// one consumer that publishes its verdict directly instead of going through
// the outbox: it owns no aggregate, and at-least-once delivery is preserved
// because the incoming offset is committed only after the verdict is on the
// bus.
package inventory

import (
	"context"
	"encoding/json"
	"fmt"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/akulagin/fulfillment/internal/events"
	"github.com/akulagin/fulfillment/internal/kafka"
	"github.com/akulagin/fulfillment/internal/storage"
)

type Validator struct {
	stock    storage.StockRepository
	producer kafka.Producer
	logger   *zap.Logger
}

func NewValidator(stock storage.StockRepository, producer kafka.Producer, logger *zap.Logger) *Validator {
	return &Validator{stock: stock, producer: producer, logger: logger}
}

// HandleOrderAwaitingValidation checks every line of the order against the
// stock on hand (summed across warehouses) and publishes StockConfirmed or
// StockRejected with the failing product ids.
func (v *Validator) HandleOrderAwaitingValidation(ctx context.Context, msg kafkago.Message) error {
	var event events.OrderAwaitingValidation
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		v.logger.Error("malformed awaiting-validation event, dropping", zap.Error(err))
		return nil
	}

	required := make(map[int64]int64, len(event.Lines))
	productIDs := make([]int64, 0, len(event.Lines))
	for _, line := range event.Lines {
		if _, seen := required[line.ProductID]; !seen {
			productIDs = append(productIDs, line.ProductID)
		}
		required[line.ProductID] += line.Quantity
	}

	available, err := v.stock.GetAvailable(ctx, productIDs)
	if err != nil {
		return fmt.Errorf("failed to load stock for order %s: %w", event.OrderID, err)
	}

	var rejected []int64
	for _, productID := range productIDs {
		if available[productID] < required[productID] {
			rejected = append(rejected, productID)
		}
	}

	key := []byte(event.OrderID.String())
	if len(rejected) > 0 {
		v.logger.Info("stock rejected",
			zap.String("order_id", event.OrderID.String()),
			zap.Int64s("product_ids", rejected),
		)
		return v.publish(ctx, events.TopicStockRejected, key, events.StockRejected{
			OrderID:    event.OrderID,
			ProductIDs: rejected,
		})
	}

	v.logger.Info("stock confirmed", zap.String("order_id", event.OrderID.String()))
	return v.publish(ctx, events.TopicStockConfirmed, key, events.StockConfirmed{OrderID: event.OrderID})
}

func (v *Validator) publish(ctx context.Context, topic string, key []byte, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal verdict for topic %s: %w", topic, err)
	}
	return v.producer.SendMessage(ctx, topic, key, raw)
}
