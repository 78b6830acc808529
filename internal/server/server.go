// Package server exposes the ordering and delivery command surfaces over
// HTTP. Mutating endpoints take an X-Request-Id header as the idempotency
// key; replays with the same id report success without re-applying the
// command.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/akulagin/fulfillment/internal/delivery"
	"github.com/akulagin/fulfillment/internal/domain/order"
	"github.com/akulagin/fulfillment/internal/domain/shipment"
	"github.com/akulagin/fulfillment/internal/ordering"
	"github.com/akulagin/fulfillment/internal/repository"
	"github.com/akulagin/fulfillment/internal/storage"
)

type Server struct {
	ordering *ordering.Service
	delivery *delivery.Service
	users    storage.UserRepository
	audit    *AuditManager
	logger   *zap.Logger
	server   *http.Server
}

func New(orderingService *ordering.Service, deliveryService *delivery.Service, users storage.UserRepository, audit *AuditManager, logger *zap.Logger) *Server {
	return &Server{
		ordering: orderingService,
		delivery: deliveryService,
		users:    users,
		audit:    audit,
		logger:   logger,
	}
}

// Run starts the audit pipeline and serves until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context, port string) error {
	s.server = &http.Server{
		Addr:         ":" + port,
		Handler:      s.setupRoutes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	s.audit.Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server starting", zap.String("port", port))
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	s.audit.Shutdown(ctx)
	s.logger.Info("http server shutdown completed")
	return nil
}

func (s *Server) setupRoutes() http.Handler {
	router := mux.NewRouter()

	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := router.NewRoute().Subrouter()
	api.Use(s.auditLogMiddleware)
	api.Use(muxMiddleware(s.basicAuthMiddleware))

	// Ordering surface.
	api.HandleFunc("/orders", s.handleCreateOrder).Methods(http.MethodPost).Name("handleCreateOrder")
	api.HandleFunc("/orders", s.handleListMyOrders).Methods(http.MethodGet).Name("handleListMyOrders")
	api.HandleFunc("/orders/{id}", s.handleGetOrder).Methods(http.MethodGet).Name("handleGetOrder")
	api.HandleFunc("/orders/{id}/cancel", s.handleCancelOrder).Methods(http.MethodPost).Name("handleCancelOrder")
	api.HandleFunc("/orders/{id}/ship", s.handleShipOrder).Methods(http.MethodPost).Name("handleShipOrder")
	api.HandleFunc("/orders/{id}/shipment", s.handleGetOrderShipment).Methods(http.MethodGet).Name("handleGetOrderShipment")

	// Delivery surface.
	api.HandleFunc("/shipments", s.handleListShipments).Methods(http.MethodGet).Name("handleListShipments")
	api.HandleFunc("/shipments/unassigned", s.handleListUnassigned).Methods(http.MethodGet).Name("handleListUnassigned")
	api.HandleFunc("/shipments/{id}", s.handleGetShipment).Methods(http.MethodGet).Name("handleGetShipment")
	api.HandleFunc("/shipments/{id}/history", s.handleShipmentHistory).Methods(http.MethodGet).Name("handleShipmentHistory")
	api.HandleFunc("/shipments/{id}/assign", s.handleAssignShipper).Methods(http.MethodPost).Name("handleAssignShipper")
	api.HandleFunc("/shipments/{id}/claim", s.handleClaimShipment).Methods(http.MethodPost).Name("handleClaimShipment")
	api.HandleFunc("/shipments/{id}/pickup", s.handlePickup).Methods(http.MethodPost).Name("handlePickup")
	api.HandleFunc("/shipments/{id}/arrive", s.handleArrive).Methods(http.MethodPost).Name("handleArrive")
	api.HandleFunc("/shipments/{id}/depart", s.handleDepart).Methods(http.MethodPost).Name("handleDepart")
	api.HandleFunc("/shipments/{id}/deliver", s.handleDeliver).Methods(http.MethodPost).Name("handleDeliver")
	api.HandleFunc("/shipments/{id}/cancel", s.handleCancelShipment).Methods(http.MethodPost).Name("handleCancelShipment")

	// Shipper fleet.
	api.HandleFunc("/shippers", s.handleCreateShipper).Methods(http.MethodPost).Name("handleCreateShipper")
	api.HandleFunc("/shippers/me", s.handleMyProfile).Methods(http.MethodGet).Name("handleMyProfile")
	api.HandleFunc("/shippers/me/shipments", s.handleMyShipments).Methods(http.MethodGet).Name("handleMyShipments")
	api.HandleFunc("/shippers/{id}", s.handleGetShipper).Methods(http.MethodGet).Name("handleGetShipper")
	api.HandleFunc("/shippers/{id}", s.handleUpdateShipper).Methods(http.MethodPut).Name("handleUpdateShipper")
	api.HandleFunc("/shippers/{id}", s.handleDeleteShipper).Methods(http.MethodDelete).Name("handleDeleteShipper")

	return router
}

func muxMiddleware(m func(http.Handler) http.Handler) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler { return m(next) }
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondCommandError maps command failures onto HTTP statuses: unknown
// aggregate is 404, concurrent modification is 409, domain rejections are
// 400, anything else is 500.
func (s *Server) respondCommandError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrObjectNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, repository.ErrVersionConflict):
		respondError(w, http.StatusConflict, "concurrent modification, retry the request")
	case isDomainError(err):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("command failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func isDomainError(err error) bool {
	var orderTransition *order.TransitionError
	var shipmentTransition *shipment.TransitionError
	var waypoint *shipment.WaypointError
	return errors.As(err, &orderTransition) ||
		errors.As(err, &shipmentTransition) ||
		errors.As(err, &waypoint) ||
		errors.Is(err, shipment.ErrShipperUnavailable) ||
		errors.Is(err, shipment.ErrShipperInactive) ||
		errors.Is(err, shipment.ErrNotAssignedShipper) ||
		errors.Is(err, shipment.ErrNoWaypoints) ||
		errors.Is(err, delivery.ErrNoRoute) ||
		errors.Is(err, delivery.ErrShipmentExists) ||
		errors.Is(err, order.ErrNoLines) ||
		errors.Is(err, order.ErrInvalidQuantity) ||
		errors.Is(err, order.ErrInvalidPrice)
}
