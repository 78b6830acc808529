// Package events defines the integration-event wire contracts exchanged
// between the ordering and delivery services. Delivery is at-least-once with
// no ordering guarantee across topics; consumers derive deterministic request
// ids from the payload so redelivery is absorbed by the command dispatcher.
package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	TopicOrderAwaitingValidation = "order.awaiting-validation"
	TopicStockConfirmed          = "inventory.stock-confirmed"
	TopicStockRejected           = "inventory.stock-rejected"
	TopicOrderPaid               = "order.paid"
	TopicOrderStatusChanged      = "order.status-changed"
	TopicShipmentCompleted       = "shipment.completed"
	TopicHTTPAudit               = "audit.http"
)

type StockLine struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

// OrderAwaitingValidation asks inventory to validate stock for the order.
type OrderAwaitingValidation struct {
	OrderID uuid.UUID   `json:"order_id"`
	Lines   []StockLine `json:"lines"`
}

type StockConfirmed struct {
	OrderID uuid.UUID `json:"order_id"`
}

type StockRejected struct {
	OrderID    uuid.UUID `json:"order_id"`
	ProductIDs []int64   `json:"product_ids"`
}

// OrderPaid tells the delivery service to create a shipment for the order.
type OrderPaid struct {
	OrderID uuid.UUID `json:"order_id"`
	BuyerID string    `json:"buyer_id"`
	Street  string    `json:"street"`
	City    string    `json:"city"`
	State   string    `json:"state"`
	Country string    `json:"country"`
	ZipCode string    `json:"zip_code"`
}

// OrderStatusChanged feeds downstream read models.
type OrderStatusChanged struct {
	OrderID   uuid.UUID `json:"order_id"`
	Status    string    `json:"status"`
	ChangedAt time.Time `json:"changed_at"`
}

// ShipmentCompleted closes the loop: the ordering service records the
// delivery-tracking metadata on the order.
type ShipmentCompleted struct {
	ShipmentID     uuid.UUID `json:"shipment_id"`
	OrderID        uuid.UUID `json:"order_id"`
	TrackingNumber string    `json:"tracking_number"`
	Carrier        string    `json:"carrier"`
	CompletedAt    time.Time `json:"completed_at"`
}

// Request-id derivation for event consumers. Ids must be a deterministic
// function of the event so that redelivery maps to the same idempotency
// record.
func ConfirmStockRequestID(orderID uuid.UUID) string   { return "confirm-stock:" + orderID.String() }
func RejectStockRequestID(orderID uuid.UUID) string    { return "reject-stock:" + orderID.String() }
func ConfirmPaymentRequestID(orderID uuid.UUID) string { return "confirm-payment:" + orderID.String() }
func CreateShipmentRequestID(orderID uuid.UUID) string { return "create-shipment:" + orderID.String() }
func CompleteOrderRequestID(shipmentID uuid.UUID) string {
	return "complete-order:" + shipmentID.String()
}
