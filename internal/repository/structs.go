package repository

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrObjectNotFound = errors.New("not found")

	// ErrVersionConflict is returned when an optimistic-concurrency update
	// touches zero rows. The command may be retried against fresh state.
	ErrVersionConflict = errors.New("version conflict")

	// ErrDuplicateRequest is returned when an idempotency record for the
	// request id already exists.
	ErrDuplicateRequest = errors.New("duplicate request")
)

type Order struct {
	ID               uuid.UUID  `db:"id"`
	BuyerID          string     `db:"buyer_id"`
	BuyerName        string     `db:"buyer_name"`
	Status           string     `db:"status"`
	OrderedAt        time.Time  `db:"ordered_at"`
	Street           string     `db:"street"`
	City             string     `db:"city"`
	State            string     `db:"state"`
	Country          string     `db:"country"`
	ZipCode          string     `db:"zip_code"`
	CardNumberMasked string     `db:"card_number_masked"`
	CardHolderName   string     `db:"card_holder_name"`
	CardExpiry       string     `db:"card_expiry"`
	CardTypeID       int        `db:"card_type_id"`
	RejectedProducts *string    `db:"rejected_products"`
	TrackingNumber   *string    `db:"tracking_number"`
	Carrier          *string    `db:"carrier"`
	ShippedAt        *time.Time `db:"shipped_at"`
	Version          int64      `db:"version"`
	CreatedAt        time.Time  `db:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at"`
}

type OrderLine struct {
	ID          int64     `db:"id"`
	OrderID     uuid.UUID `db:"order_id"`
	ProductID   int64     `db:"product_id"`
	ProductName string    `db:"product_name"`
	UnitPrice   int64     `db:"unit_price"`
	Discount    int64     `db:"discount"`
	Quantity    int64     `db:"quantity"`
	PictureURL  string    `db:"picture_url"`
}

type OrderStatusLog struct {
	ID        int64     `db:"id"`
	OrderID   uuid.UUID `db:"order_id"`
	Status    string    `db:"status"`
	ChangedAt time.Time `db:"changed_at"`
}

type Shipment struct {
	ID          uuid.UUID  `db:"id"`
	OrderID     uuid.UUID  `db:"order_id"`
	ShipperID   *int64     `db:"shipper_id"`
	Status      string     `db:"status"`
	Street      string     `db:"street"`
	City        string     `db:"city"`
	State       string     `db:"state"`
	Country     string     `db:"country"`
	ZipCode     string     `db:"zip_code"`
	CompletedAt *time.Time `db:"completed_at"`
	Version     int64      `db:"version"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

type ShipmentWaypoint struct {
	ID            int64      `db:"id"`
	ShipmentID    uuid.UUID  `db:"shipment_id"`
	WarehouseID   int64      `db:"warehouse_id"`
	WarehouseName string     `db:"warehouse_name"`
	Seq           int        `db:"seq"`
	ArrivedAt     *time.Time `db:"arrived_at"`
	DepartedAt    *time.Time `db:"departed_at"`
}

type ShipmentStatusLog struct {
	ID         int64     `db:"id"`
	ShipmentID uuid.UUID `db:"shipment_id"`
	Status     string    `db:"status"`
	WaypointID *int64    `db:"waypoint_id"`
	Note       *string   `db:"note"`
	ChangedAt  time.Time `db:"changed_at"`
}

type Shipper struct {
	ID                 int64     `db:"id"`
	Name               string    `db:"name"`
	Phone              string    `db:"phone"`
	UserID             string    `db:"user_id"`
	CurrentWarehouseID *int64    `db:"current_warehouse_id"`
	Available          bool      `db:"available"`
	Active             bool      `db:"active"`
	CreatedAt          time.Time `db:"created_at"`
	UpdatedAt          time.Time `db:"updated_at"`
}

type Warehouse struct {
	ID     int64  `db:"id"`
	Name   string `db:"name"`
	Region string `db:"region"`
}

type WarehouseStock struct {
	WarehouseID int64 `db:"warehouse_id"`
	ProductID   int64 `db:"product_id"`
	Quantity    int64 `db:"quantity"`
}

type IdempotencyRecord struct {
	RequestID   string    `db:"request_id"`
	CommandType string    `db:"command_type"`
	RecordedAt  time.Time `db:"recorded_at"`
}

type TaskStatus string

const (
	TaskStatusCreated    TaskStatus = "CREATED"
	TaskStatusProcessing TaskStatus = "PROCESSING"
	TaskStatusFailed     TaskStatus = "FAILED"
	TaskStatusDone       TaskStatus = "DONE"
)

type OutboxTask struct {
	ID          uuid.UUID       `db:"id"`
	Status      TaskStatus      `db:"status"`
	Payload     json.RawMessage `db:"payload"`
	Topic       string          `db:"topic"`
	Attempts    int             `db:"attempts"`
	LastError   *string         `db:"last_error"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
	CompletedAt *time.Time      `db:"completed_at"`
}
