package shipment

// Shipper is the courier entity. Availability is flipped by shipment
// operations: assignment marks the shipper busy, delivery and cancellation
// free them again. At most one non-terminal shipment may hold a given shipper.
type Shipper struct {
	ID                 int64
	Name               string
	Phone              string
	UserID             string
	CurrentWarehouseID *int64
	Available          bool
	Active             bool
}
