package shipment

type Status string

const (
	StatusCreated            Status = "CREATED"
	StatusShipperAssigned    Status = "SHIPPER_ASSIGNED"
	StatusPickedUp           Status = "PICKED_UP_FROM_WAREHOUSE"
	StatusInTransit          Status = "IN_TRANSIT"
	StatusArrivedAtWarehouse Status = "ARRIVED_AT_WAREHOUSE"
	StatusDelivering         Status = "DELIVERING_TO_CUSTOMER"
	StatusDelivered          Status = "DELIVERED"
	StatusCancelled          Status = "CANCELLED"
	StatusReturned           Status = "RETURNED_TO_WAREHOUSE"
)

// Terminal reports whether the shipment can no longer progress.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled || s == StatusReturned
}

func (s Status) Valid() bool {
	switch s {
	case StatusCreated, StatusShipperAssigned, StatusPickedUp, StatusInTransit,
		StatusArrivedAtWarehouse, StatusDelivering, StatusDelivered,
		StatusCancelled, StatusReturned:
		return true
	}
	return false
}

// enRoute statuses are the ones between pickup and the customer doorstep,
// where waypoint ordering rules apply.
func (s Status) enRoute() bool {
	return s == StatusPickedUp || s == StatusInTransit || s == StatusArrivedAtWarehouse
}
