// Package shipment holds the Shipment aggregate and the Shipper entity. A
// shipment is routed through an ordered list of warehouse waypoints; waypoint
// N may only be arrived at after every lower-sequence waypoint has been
// departed. Every transition appends a history entry flushed by the
// application layer together with the aggregate.
package shipment

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNoWaypoints        = errors.New("shipment must have at least one waypoint")
	ErrShipperUnavailable = errors.New("shipper is already assigned to another shipment")
	ErrShipperInactive    = errors.New("shipper is not active")
	ErrNotAssignedShipper = errors.New("shipment is assigned to a different shipper")
)

// TransitionError reports an operation applied to a shipment in a status that
// does not allow it.
type TransitionError struct {
	Op   string
	From Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s shipment in status %s", e.Op, e.From)
}

// WaypointError reports a waypoint operation that violates route ordering.
type WaypointError struct {
	Op         string
	WaypointID int64
	Reason     string
}

func (e *WaypointError) Error() string {
	return fmt.Sprintf("cannot %s waypoint %d: %s", e.Op, e.WaypointID, e.Reason)
}

type Waypoint struct {
	ID            int64
	WarehouseID   int64
	WarehouseName string
	Seq           int
	ArrivedAt     *time.Time
	DepartedAt    *time.Time
}

type Address struct {
	Street  string
	City    string
	State   string
	Country string
	ZipCode string
}

type HistoryEntry struct {
	Status     Status
	WaypointID *int64
	Note       string
	ChangedAt  time.Time
}

type Shipment struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	ShipperID   *int64
	Status      Status
	Address     Address
	CreatedAt   time.Time
	CompletedAt *time.Time
	Waypoints   []Waypoint

	// Version is the optimistic concurrency token managed by the repository.
	Version int64

	history []HistoryEntry
}

// New creates a shipment in Created status with its route. Waypoints are kept
// sorted by sequence number.
func New(id, orderID uuid.UUID, addr Address, waypoints []Waypoint, now time.Time) (*Shipment, error) {
	if len(waypoints) == 0 {
		return nil, ErrNoWaypoints
	}
	sortWaypoints(waypoints)

	sh := &Shipment{
		ID:        id,
		OrderID:   orderID,
		Address:   addr,
		CreatedAt: now,
		Waypoints: waypoints,
	}
	sh.setStatus(StatusCreated, nil, "", now)
	return sh, nil
}

// Restore rebuilds a shipment from persisted state without touching history.
func Restore(id, orderID uuid.UUID, shipperID *int64, status Status, addr Address, createdAt time.Time, completedAt *time.Time, waypoints []Waypoint, version int64) *Shipment {
	sortWaypoints(waypoints)
	return &Shipment{
		ID:          id,
		OrderID:     orderID,
		ShipperID:   shipperID,
		Status:      status,
		Address:     addr,
		CreatedAt:   createdAt,
		CompletedAt: completedAt,
		Waypoints:   waypoints,
		Version:     version,
	}
}

// PendingHistory returns history entries recorded since the shipment was
// loaded.
func (sh *Shipment) PendingHistory() []HistoryEntry {
	return sh.history
}

// AssignShipper assigns s to the shipment, marking it busy. A previously
// assigned shipper, if any, is freed. Reassignment is only allowed before
// pickup; once the shipment is mid-route the assignment cannot be revoked.
func (sh *Shipment) AssignShipper(s *Shipper, previous *Shipper, now time.Time) error {
	if sh.Status != StatusCreated && sh.Status != StatusShipperAssigned {
		return &TransitionError{Op: "assign shipper to", From: sh.Status}
	}
	if !s.Active {
		return ErrShipperInactive
	}
	if !s.Available {
		return ErrShipperUnavailable
	}

	if previous != nil && previous.ID != s.ID {
		previous.Available = true
	}
	s.Available = false

	id := s.ID
	sh.ShipperID = &id
	sh.setStatus(StatusShipperAssigned, nil, "assigned to "+s.Name, now)
	return nil
}

// PickupFromWarehouse departs the first waypoint and puts the shipment on the
// road. waypointID must reference the lowest-sequence waypoint.
func (sh *Shipment) PickupFromWarehouse(waypointID int64, now time.Time) error {
	if sh.Status != StatusShipperAssigned {
		return &TransitionError{Op: "pick up", From: sh.Status}
	}
	wp, err := sh.waypoint(waypointID, "pick up from")
	if err != nil {
		return err
	}
	if wp.Seq != sh.Waypoints[0].Seq {
		return &WaypointError{Op: "pick up from", WaypointID: waypointID, Reason: "pickup must start at the first waypoint"}
	}

	t := now
	wp.DepartedAt = &t

	next := StatusPickedUp
	if sh.allDeparted() {
		next = StatusDelivering
	}
	sh.setStatus(next, &wp.ID, "picked up from "+wp.WarehouseName, now)
	return nil
}

// ArriveAtWarehouse records arrival at the target waypoint. Legal only when
// every waypoint with a lower sequence number has already been departed.
func (sh *Shipment) ArriveAtWarehouse(waypointID int64, now time.Time) error {
	if !sh.Status.enRoute() {
		return &TransitionError{Op: "arrive at warehouse for", From: sh.Status}
	}
	wp, err := sh.waypoint(waypointID, "arrive at")
	if err != nil {
		return err
	}
	if wp.ArrivedAt != nil {
		return &WaypointError{Op: "arrive at", WaypointID: waypointID, Reason: "already arrived"}
	}
	for i := range sh.Waypoints {
		prior := &sh.Waypoints[i]
		if prior.Seq < wp.Seq && prior.DepartedAt == nil {
			return &WaypointError{Op: "arrive at", WaypointID: waypointID, Reason: fmt.Sprintf("waypoint %d not yet departed", prior.ID)}
		}
	}

	t := now
	wp.ArrivedAt = &t
	sh.setStatus(StatusArrivedAtWarehouse, &wp.ID, "arrived at "+wp.WarehouseName, now)
	return nil
}

// DepartFromWarehouse records departure from the target waypoint. If this was
// the last waypoint the shipment heads to the customer.
func (sh *Shipment) DepartFromWarehouse(waypointID int64, now time.Time) error {
	if !sh.Status.enRoute() {
		return &TransitionError{Op: "depart from warehouse for", From: sh.Status}
	}
	wp, err := sh.waypoint(waypointID, "depart from")
	if err != nil {
		return err
	}
	if wp.ArrivedAt == nil {
		return &WaypointError{Op: "depart from", WaypointID: waypointID, Reason: "not yet arrived"}
	}
	if wp.DepartedAt != nil {
		return &WaypointError{Op: "depart from", WaypointID: waypointID, Reason: "already departed"}
	}

	t := now
	wp.DepartedAt = &t

	next := StatusInTransit
	if sh.allDeparted() {
		next = StatusDelivering
	}
	sh.setStatus(next, &wp.ID, "departed from "+wp.WarehouseName, now)
	return nil
}

// MarkDelivered completes the shipment and frees the shipper. Legal when the
// shipment is delivering to the customer, or, by relaxed policy, once every
// waypoint has been departed.
func (sh *Shipment) MarkDelivered(s *Shipper, now time.Time) error {
	if sh.Status != StatusDelivering && !(sh.Status.enRoute() && sh.allDeparted()) {
		return &TransitionError{Op: "deliver", From: sh.Status}
	}

	t := now
	sh.CompletedAt = &t
	if s != nil {
		s.Available = true
	}
	sh.setStatus(StatusDelivered, nil, "", now)
	return nil
}

// Cancel aborts a non-terminal shipment. Goods already on the road go back to
// returnWarehouseID and the shipment ends as ReturnedToWarehouse; otherwise it
// is simply Cancelled. An assigned shipper is freed and relocated to the
// return warehouse.
func (sh *Shipment) Cancel(s *Shipper, returnWarehouseID int64, now time.Time) error {
	if sh.Status.Terminal() {
		return &TransitionError{Op: "cancel", From: sh.Status}
	}

	note := ""
	if loc, ok := CurrentLocation(sh.Waypoints); ok {
		note = fmt.Sprintf("last known location: warehouse %d", loc)
	}

	if s != nil {
		s.Available = true
		wid := returnWarehouseID
		s.CurrentWarehouseID = &wid
	}

	next := StatusCancelled
	if sh.Waypoints[0].DepartedAt != nil {
		next = StatusReturned
	}
	sh.setStatus(next, nil, note, now)
	return nil
}

// CurrentLocation computes the warehouse the shipment is at (or last passed):
// the highest-sequence waypoint that has been arrived at but not departed,
// else the highest-sequence departed one. Pure function over the waypoint
// list.
func CurrentLocation(waypoints []Waypoint) (int64, bool) {
	for i := len(waypoints) - 1; i >= 0; i-- {
		if waypoints[i].ArrivedAt != nil && waypoints[i].DepartedAt == nil {
			return waypoints[i].WarehouseID, true
		}
	}
	for i := len(waypoints) - 1; i >= 0; i-- {
		if waypoints[i].DepartedAt != nil {
			return waypoints[i].WarehouseID, true
		}
	}
	return 0, false
}

func (sh *Shipment) waypoint(id int64, op string) (*Waypoint, error) {
	for i := range sh.Waypoints {
		if sh.Waypoints[i].ID == id {
			return &sh.Waypoints[i], nil
		}
	}
	return nil, &WaypointError{Op: op, WaypointID: id, Reason: "unknown waypoint"}
}

func (sh *Shipment) allDeparted() bool {
	for _, wp := range sh.Waypoints {
		if wp.DepartedAt == nil {
			return false
		}
	}
	return true
}

func (sh *Shipment) setStatus(s Status, waypointID *int64, note string, now time.Time) {
	sh.Status = s
	sh.history = append(sh.history, HistoryEntry{Status: s, WaypointID: waypointID, Note: note, ChangedAt: now})
}

func sortWaypoints(waypoints []Waypoint) {
	sort.Slice(waypoints, func(i, j int) bool { return waypoints[i].Seq < waypoints[j].Seq })
}
