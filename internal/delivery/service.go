// Package delivery hosts the command handlers for the Shipment aggregate and
// the shipper fleet. Shipment and shipper rows mutated by the same command are
// saved in one transaction together with the idempotency record, the history
// trail and any outbox events.
package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/akulagin/fulfillment/internal/db"
	"github.com/akulagin/fulfillment/internal/domain/shipment"
	"github.com/akulagin/fulfillment/internal/events"
	"github.com/akulagin/fulfillment/internal/idempotency"
	"github.com/akulagin/fulfillment/internal/metrics"
	"github.com/akulagin/fulfillment/internal/repository"
	"github.com/akulagin/fulfillment/internal/storage"
)

var (
	// ErrNoRoute is returned when no warehouse serves the shipment destination.
	ErrNoRoute = errors.New("no warehouse serves the destination region")
	// ErrShipmentExists is returned when the order already has a shipment.
	ErrShipmentExists = errors.New("order already has a shipment")
)

type Service struct {
	shipments  storage.ShipmentRepository
	shippers   storage.ShipperRepository
	warehouses storage.WarehouseRepository
	outbox     storage.OutboxTaskRepository
	dispatcher *idempotency.Dispatcher
	logger     *zap.Logger
}

func NewService(shipments storage.ShipmentRepository, shippers storage.ShipperRepository, warehouses storage.WarehouseRepository, outbox storage.OutboxTaskRepository, dispatcher *idempotency.Dispatcher, logger *zap.Logger) *Service {
	return &Service{
		shipments:  shipments,
		shippers:   shippers,
		warehouses: warehouses,
		outbox:     outbox,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// CreateForOrder plans a warehouse route for the destination and creates the
// shipment in Created status. Returns the new shipment id.
func (s *Service) CreateForOrder(ctx context.Context, requestID string, orderID uuid.UUID, addr shipment.Address) (uuid.UUID, bool, error) {
	waypoints, err := s.planRoute(ctx, addr)
	if err != nil {
		return uuid.Nil, false, err
	}

	now := time.Now().UTC()
	sh, err := shipment.New(uuid.New(), orderID, addr, waypoints, now)
	if err != nil {
		return uuid.Nil, false, err
	}

	duplicate, err := s.dispatcher.Execute(ctx, requestID, "create-shipment", func(tx db.Tx) error {
		if _, err := s.shipments.GetByOrderIDTx(ctx, tx, orderID); err == nil {
			return ErrShipmentExists
		} else if !errors.Is(err, repository.ErrObjectNotFound) {
			return err
		}
		if err := s.shipments.CreateTx(ctx, tx, sh); err != nil {
			return err
		}
		return s.shipments.AppendHistoryTx(ctx, tx, sh.ID, sh.PendingHistory())
	})
	if err != nil {
		metrics.OperationErrorsTotal.WithLabelValues("create_shipment").Inc()
		return uuid.Nil, false, err
	}
	if duplicate {
		return uuid.Nil, true, nil
	}

	s.logger.Info("shipment created",
		zap.String("shipment_id", sh.ID.String()),
		zap.String("order_id", orderID.String()),
		zap.Int("waypoints", len(waypoints)),
	)
	return sh.ID, false, nil
}

// AssignShipper assigns the shipper to the shipment, freeing the previously
// assigned one if the shipment is being reassigned. Both shipper rows and the
// shipment are saved in the same transaction.
func (s *Service) AssignShipper(ctx context.Context, requestID string, shipmentID uuid.UUID, shipperID int64) (bool, error) {
	duplicate, err := s.dispatcher.Execute(ctx, requestID, "assign-shipper", func(tx db.Tx) error {
		sh, err := s.shipments.GetByIDTx(ctx, tx, shipmentID)
		if err != nil {
			return err
		}
		next, err := s.shippers.GetByIDTx(ctx, tx, shipperID)
		if err != nil {
			return err
		}

		// The available flag alone can be stale; the active-shipment row is
		// the source of truth.
		if active, err := s.shipments.GetActiveByShipperTx(ctx, tx, shipperID); err == nil {
			if active.ID != sh.ID {
				return shipment.ErrShipperUnavailable
			}
		} else if !errors.Is(err, repository.ErrObjectNotFound) {
			return err
		}

		var previous *shipment.Shipper
		if sh.ShipperID != nil && *sh.ShipperID != shipperID {
			previous, err = s.shippers.GetByIDTx(ctx, tx, *sh.ShipperID)
			if err != nil {
				return err
			}
		}

		if err := sh.AssignShipper(next, previous, time.Now().UTC()); err != nil {
			return err
		}

		if err := s.saveShipment(ctx, tx, sh); err != nil {
			return err
		}
		if previous != nil {
			if err := s.shippers.UpdateTx(ctx, tx, previous); err != nil {
				return err
			}
		}
		return s.shippers.UpdateTx(ctx, tx, next)
	})
	if err != nil {
		metrics.OperationErrorsTotal.WithLabelValues("assign_shipper").Inc()
		return false, err
	}

	s.logger.Info("shipper assigned",
		zap.String("shipment_id", shipmentID.String()),
		zap.Int64("shipper_id", shipperID),
	)
	return duplicate, nil
}

// Pickup departs the first waypoint. Only the assigned shipper may do it.
func (s *Service) Pickup(ctx context.Context, requestID string, shipmentID uuid.UUID, shipperID, waypointID int64) (bool, error) {
	return s.mutateAsShipper(ctx, requestID, "pickup", shipmentID, shipperID, func(sh *shipment.Shipment, now time.Time) error {
		return sh.PickupFromWarehouse(waypointID, now)
	})
}

func (s *Service) Arrive(ctx context.Context, requestID string, shipmentID uuid.UUID, shipperID, waypointID int64) (bool, error) {
	return s.mutateAsShipper(ctx, requestID, "arrive", shipmentID, shipperID, func(sh *shipment.Shipment, now time.Time) error {
		return sh.ArriveAtWarehouse(waypointID, now)
	})
}

func (s *Service) Depart(ctx context.Context, requestID string, shipmentID uuid.UUID, shipperID, waypointID int64) (bool, error) {
	return s.mutateAsShipper(ctx, requestID, "depart", shipmentID, shipperID, func(sh *shipment.Shipment, now time.Time) error {
		return sh.DepartFromWarehouse(waypointID, now)
	})
}

// Deliver completes the shipment, frees the shipper and enqueues the
// completion event for the ordering service.
func (s *Service) Deliver(ctx context.Context, requestID string, shipmentID uuid.UUID, shipperID int64) (bool, error) {
	duplicate, err := s.dispatcher.Execute(ctx, requestID, "deliver", func(tx db.Tx) error {
		sh, err := s.shipments.GetByIDTx(ctx, tx, shipmentID)
		if err != nil {
			return err
		}
		if sh.ShipperID == nil || *sh.ShipperID != shipperID {
			return shipment.ErrNotAssignedShipper
		}
		courier, err := s.shippers.GetByIDTx(ctx, tx, shipperID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		if err := sh.MarkDelivered(courier, now); err != nil {
			return err
		}

		if err := s.saveShipment(ctx, tx, sh); err != nil {
			return err
		}
		if err := s.shippers.UpdateTx(ctx, tx, courier); err != nil {
			return err
		}

		return s.enqueue(ctx, tx, events.TopicShipmentCompleted, events.ShipmentCompleted{
			ShipmentID:     sh.ID,
			OrderID:        sh.OrderID,
			TrackingNumber: sh.ID.String(),
			Carrier:        courier.Name,
			CompletedAt:    *sh.CompletedAt,
		})
	})
	if err != nil {
		metrics.OperationErrorsTotal.WithLabelValues("deliver").Inc()
		return false, err
	}
	if !duplicate {
		metrics.ShipmentsDeliveredTotal.Inc()
		s.logger.Info("shipment delivered", zap.String("shipment_id", shipmentID.String()))
	}
	return duplicate, nil
}

// CancelShipment aborts a non-terminal shipment. Goods already on the road
// make it ReturnedToWarehouse; the freed shipper is relocated to the return
// warehouse (the current location when known, otherwise the route start).
func (s *Service) CancelShipment(ctx context.Context, requestID string, shipmentID uuid.UUID) (bool, error) {
	duplicate, err := s.dispatcher.Execute(ctx, requestID, "cancel-shipment", func(tx db.Tx) error {
		sh, err := s.shipments.GetByIDTx(ctx, tx, shipmentID)
		if err != nil {
			return err
		}

		var courier *shipment.Shipper
		if sh.ShipperID != nil {
			courier, err = s.shippers.GetByIDTx(ctx, tx, *sh.ShipperID)
			if err != nil {
				return err
			}
		}

		returnWarehouseID := sh.Waypoints[0].WarehouseID
		if loc, ok := shipment.CurrentLocation(sh.Waypoints); ok {
			returnWarehouseID = loc
		}

		if err := sh.Cancel(courier, returnWarehouseID, time.Now().UTC()); err != nil {
			return err
		}

		if err := s.saveShipment(ctx, tx, sh); err != nil {
			return err
		}
		if courier != nil {
			return s.shippers.UpdateTx(ctx, tx, courier)
		}
		return nil
	})
	if err != nil {
		metrics.OperationErrorsTotal.WithLabelValues("cancel_shipment").Inc()
		return false, err
	}

	s.logger.Info("shipment cancelled", zap.String("shipment_id", shipmentID.String()))
	return duplicate, nil
}

func (s *Service) GetShipment(ctx context.Context, id uuid.UUID) (*shipment.Shipment, error) {
	return s.shipments.GetByID(ctx, id)
}

func (s *Service) GetShipmentByOrder(ctx context.Context, orderID uuid.UUID) (*shipment.Shipment, error) {
	return s.shipments.GetByOrderID(ctx, orderID)
}

func (s *Service) GetHistory(ctx context.Context, id uuid.UUID) ([]shipment.HistoryEntry, error) {
	return s.shipments.GetHistory(ctx, id)
}

func (s *Service) ListShipments(ctx context.Context, status shipment.Status, page, limit int) ([]*shipment.Shipment, error) {
	return s.shipments.List(ctx, status, page, limit)
}

func (s *Service) ListUnassigned(ctx context.Context) ([]*shipment.Shipment, error) {
	return s.shipments.ListUnassigned(ctx)
}

func (s *Service) ListByShipper(ctx context.Context, shipperID int64) ([]*shipment.Shipment, error) {
	return s.shipments.ListByShipper(ctx, shipperID)
}

// Shipper fleet administration.

func (s *Service) CreateShipper(ctx context.Context, courier *shipment.Shipper) (int64, error) {
	return s.shippers.Create(ctx, courier)
}

func (s *Service) GetShipper(ctx context.Context, id int64) (*shipment.Shipper, error) {
	return s.shippers.GetByID(ctx, id)
}

// GetShipperByUser resolves the authenticated caller to their shipper profile.
func (s *Service) GetShipperByUser(ctx context.Context, userID string) (*shipment.Shipper, error) {
	return s.shippers.GetByUserID(ctx, userID)
}

func (s *Service) UpdateShipper(ctx context.Context, courier *shipment.Shipper) error {
	return s.shippers.Update(ctx, courier)
}

// DeleteShipper removes the shipper row. Shippers already referenced by
// shipments are deactivated instead so the history keeps resolving.
func (s *Service) DeleteShipper(ctx context.Context, id int64) error {
	assigned, err := s.shipments.ListByShipper(ctx, id)
	if err != nil {
		return err
	}
	if len(assigned) > 0 {
		courier, err := s.shippers.GetByID(ctx, id)
		if err != nil {
			return err
		}
		courier.Active = false
		courier.Available = false
		return s.shippers.Update(ctx, courier)
	}
	return s.shippers.Delete(ctx, id)
}

// mutateAsShipper is the shared shape of the route commands: load the
// shipment, verify the caller is the assigned shipper, apply the domain
// operation and save with the version check.
func (s *Service) mutateAsShipper(ctx context.Context, requestID, commandType string, shipmentID uuid.UUID, shipperID int64, apply func(sh *shipment.Shipment, now time.Time) error) (bool, error) {
	duplicate, err := s.dispatcher.Execute(ctx, requestID, commandType, func(tx db.Tx) error {
		sh, err := s.shipments.GetByIDTx(ctx, tx, shipmentID)
		if err != nil {
			return err
		}
		if sh.ShipperID == nil || *sh.ShipperID != shipperID {
			return shipment.ErrNotAssignedShipper
		}

		if err := apply(sh, time.Now().UTC()); err != nil {
			return err
		}
		return s.saveShipment(ctx, tx, sh)
	})
	if err != nil {
		metrics.OperationErrorsTotal.WithLabelValues(commandType).Inc()
		return false, err
	}

	s.logger.Info("shipment command applied",
		zap.String("command", commandType),
		zap.String("shipment_id", shipmentID.String()),
	)
	return duplicate, nil
}

func (s *Service) saveShipment(ctx context.Context, tx db.Tx, sh *shipment.Shipment) error {
	if err := s.shipments.UpdateTx(ctx, tx, sh); err != nil {
		return err
	}
	return s.shipments.AppendHistoryTx(ctx, tx, sh.ID, sh.PendingHistory())
}

// planRoute builds the waypoint list for the destination: every warehouse in
// the destination city, in stable id order, falling back to the destination
// country when the city has no warehouse.
func (s *Service) planRoute(ctx context.Context, addr shipment.Address) ([]shipment.Waypoint, error) {
	warehouses, err := s.warehouses.ListByRegion(ctx, addr.City)
	if err != nil {
		return nil, fmt.Errorf("failed to plan route for %s: %w", addr.City, err)
	}
	if len(warehouses) == 0 {
		warehouses, err = s.warehouses.ListByRegion(ctx, addr.Country)
		if err != nil {
			return nil, fmt.Errorf("failed to plan route for %s: %w", addr.Country, err)
		}
	}
	if len(warehouses) == 0 {
		return nil, ErrNoRoute
	}

	waypoints := make([]shipment.Waypoint, 0, len(warehouses))
	for i, w := range warehouses {
		waypoints = append(waypoints, shipment.Waypoint{
			WarehouseID:   w.ID,
			WarehouseName: w.Name,
			Seq:           i + 1,
		})
	}
	return waypoints, nil
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
