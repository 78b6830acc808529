// Package order holds the Order aggregate: a buyer's order, its lines and the
// state machine governing its lifecycle. All mutations go through named
// operations that validate the current status first; every successful
// transition is recorded in an in-memory status trail that the application
// layer flushes together with the aggregate.
package order

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNoLines         = errors.New("order must have at least one line")
	ErrInvalidQuantity = errors.New("order line quantity must be positive")
	ErrInvalidPrice    = errors.New("order line discount cannot exceed unit price")
)

// TransitionError reports an operation applied to an order in a status that
// does not allow it.
type TransitionError struct {
	Op   string
	From Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s order in status %s", e.Op, e.From)
}

type Line struct {
	ProductID   int64
	ProductName string
	UnitPrice   int64 // cents
	Discount    int64 // cents, per unit
	Quantity    int64
	PictureURL  string
}

type Address struct {
	Street  string
	City    string
	State   string
	Country string
	ZipCode string
}

type PaymentCard struct {
	NumberMasked string
	HolderName   string
	Expiry       string
	TypeID       int
}

type StatusChange struct {
	Status    Status
	ChangedAt time.Time
}

type Order struct {
	ID        uuid.UUID
	BuyerID   string
	BuyerName string
	OrderedAt time.Time
	Status    Status
	Lines     []Line
	Address   Address
	Card      PaymentCard

	// Delivery-tracking metadata recorded by CompleteByShipment.
	TrackingNumber string
	Carrier        string
	ShippedAt      *time.Time

	// RejectedProductIDs holds the line items stock validation reported as
	// unavailable, set by RejectStock.
	RejectedProductIDs []int64

	// Version is the optimistic concurrency token managed by the repository.
	Version int64

	trail []StatusChange
}

// New creates a submitted order and validates its lines.
func New(id uuid.UUID, buyerID, buyerName string, lines []Line, addr Address, card PaymentCard, now time.Time) (*Order, error) {
	if len(lines) == 0 {
		return nil, ErrNoLines
	}
	for _, l := range lines {
		if l.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		if l.Discount < 0 || l.Discount > l.UnitPrice {
			return nil, ErrInvalidPrice
		}
	}

	o := &Order{
		ID:        id,
		BuyerID:   buyerID,
		BuyerName: buyerName,
		OrderedAt: now,
		Lines:     lines,
		Address:   addr,
		Card:      card,
	}
	o.setStatus(StatusSubmitted, now)
	return o, nil
}

// Restore rebuilds an order from persisted state without touching the trail.
func Restore(id uuid.UUID, buyerID, buyerName string, status Status, orderedAt time.Time, lines []Line, addr Address, card PaymentCard, version int64) *Order {
	return &Order{
		ID:        id,
		BuyerID:   buyerID,
		BuyerName: buyerName,
		OrderedAt: orderedAt,
		Status:    status,
		Lines:     lines,
		Address:   addr,
		Card:      card,
		Version:   version,
	}
}

// Total is the order total in cents: sum over lines of
// (unit price - discount) * quantity.
func (o *Order) Total() int64 {
	var total int64
	for _, l := range o.Lines {
		total += (l.UnitPrice - l.Discount) * l.Quantity
	}
	return total
}

// PendingTrail returns status changes recorded since the order was loaded.
// The application layer persists them alongside the aggregate.
func (o *Order) PendingTrail() []StatusChange {
	return o.trail
}

func (o *Order) RequestValidation(now time.Time) error {
	return o.transition("request validation for", StatusSubmitted, StatusAwaitingValidation, now)
}

func (o *Order) ConfirmStock(now time.Time) error {
	return o.transition("confirm stock for", StatusAwaitingValidation, StatusStockConfirmed, now)
}

// RejectStock cancels the order because one or more line items were
// unavailable, recording which products were affected.
func (o *Order) RejectStock(productIDs []int64, now time.Time) error {
	if err := o.transition("reject stock for", StatusAwaitingValidation, StatusCancelled, now); err != nil {
		return err
	}
	o.RejectedProductIDs = productIDs
	return nil
}

func (o *Order) ConfirmPayment(now time.Time) error {
	return o.transition("confirm payment for", StatusStockConfirmed, StatusPaid, now)
}

func (o *Order) MarkShipped(now time.Time) error {
	return o.transition("ship", StatusPaid, StatusShipped, now)
}

// CompleteByShipment records delivery-tracking metadata once the shipment has
// been delivered. The order must already be in Shipped status; otherwise the
// call is a no-op reporting false. It performs no status transition, so
// replaying it is always safe.
func (o *Order) CompleteByShipment(trackingNumber, carrier string, shippedAt time.Time) bool {
	if o.Status != StatusShipped {
		return false
	}
	o.TrackingNumber = trackingNumber
	o.Carrier = carrier
	t := shippedAt
	o.ShippedAt = &t
	return true
}

// Cancel moves the order to Cancelled from any non-terminal status.
func (o *Order) Cancel(now time.Time) error {
	if o.Status.Terminal() {
		return &TransitionError{Op: "cancel", From: o.Status}
	}
	o.setStatus(StatusCancelled, now)
	return nil
}

func (o *Order) transition(op string, from, to Status, now time.Time) error {
	if o.Status != from {
		return &TransitionError{Op: op, From: o.Status}
	}
	o.setStatus(to, now)
	return nil
}

func (o *Order) setStatus(s Status, now time.Time) {
	o.Status = s
	o.trail = append(o.trail, StatusChange{Status: s, ChangedAt: now})
}
