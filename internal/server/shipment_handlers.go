package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/akulagin/fulfillment/internal/domain/shipment"
)

type waypointResponse struct {
	ID            int64      `json:"id"`
	WarehouseID   int64      `json:"warehouse_id"`
	WarehouseName string     `json:"warehouse_name"`
	Seq           int        `json:"seq"`
	ArrivedAt     *time.Time `json:"arrived_at,omitempty"`
	DepartedAt    *time.Time `json:"departed_at,omitempty"`
}

type shipmentResponse struct {
	ID              uuid.UUID          `json:"id"`
	OrderID         uuid.UUID          `json:"order_id"`
	ShipperID       *int64             `json:"shipper_id,omitempty"`
	Status          string             `json:"status"`
	CreatedAt       time.Time          `json:"created_at"`
	CompletedAt     *time.Time         `json:"completed_at,omitempty"`
	Address         addressRequest     `json:"address"`
	Waypoints       []waypointResponse `json:"waypoints"`
	CurrentLocation *int64             `json:"current_location,omitempty"`
}

func toShipmentResponse(sh *shipment.Shipment) shipmentResponse {
	waypoints := make([]waypointResponse, 0, len(sh.Waypoints))
	for _, wp := range sh.Waypoints {
		waypoints = append(waypoints, waypointResponse{
			ID:            wp.ID,
			WarehouseID:   wp.WarehouseID,
			WarehouseName: wp.WarehouseName,
			Seq:           wp.Seq,
			ArrivedAt:     wp.ArrivedAt,
			DepartedAt:    wp.DepartedAt,
		})
	}

	response := shipmentResponse{
		ID:          sh.ID,
		OrderID:     sh.OrderID,
		ShipperID:   sh.ShipperID,
		Status:      string(sh.Status),
		CreatedAt:   sh.CreatedAt,
		CompletedAt: sh.CompletedAt,
		Address: addressRequest{
			Street:  sh.Address.Street,
			City:    sh.Address.City,
			State:   sh.Address.State,
			Country: sh.Address.Country,
			ZipCode: sh.Address.ZipCode,
		},
		Waypoints: waypoints,
	}
	if loc, ok := shipment.CurrentLocation(sh.Waypoints); ok {
		response.CurrentLocation = &loc
	}
	return response
}

func (s *Server) handleGetShipment(w http.ResponseWriter, r *http.Request) {
	shipmentID, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}

	sh, err := s.delivery.GetShipment(r.Context(), shipmentID)
	if err != nil {
		s.respondCommandError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toShipmentResponse(sh))
}

func (s *Server) handleGetOrderShipment(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}

	sh, err := s.delivery.GetShipmentByOrder(r.Context(), orderID)
	if err != nil {
		s.respondCommandError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toShipmentResponse(sh))
}

func (s *Server) handleShipmentHistory(w http.ResponseWriter, r *http.Request) {
	shipmentID, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}

	history, err := s.delivery.GetHistory(r.Context(), shipmentID)
	if err != nil {
		s.respondCommandError(w, err)
		return
	}

	type historyResponse struct {
		Status     string    `json:"status"`
		WaypointID *int64    `json:"waypoint_id,omitempty"`
		Note       string    `json:"note,omitempty"`
		ChangedAt  time.Time `json:"changed_at"`
	}
	response := make([]historyResponse, 0, len(history))
	for _, entry := range history {
		response = append(response, historyResponse{
			Status:     string(entry.Status),
			WaypointID: entry.WaypointID,
			Note:       entry.Note,
			ChangedAt:  entry.ChangedAt,
		})
	}
	respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleListShipments(w http.ResponseWriter, r *http.Request) {
	page, ok := queryInt(w, r, "page", 1)
	if !ok {
		return
	}
	limit, ok := queryInt(w, r, "limit", 10)
	if !ok {
		return
	}
	status := shipment.Status(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		respondError(w, http.StatusBadRequest, "invalid value for 'status' parameter")
		return
	}

	shipments, err := s.delivery.ListShipments(r.Context(), status, page, limit)
	if err != nil {
		s.respondCommandError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toShipmentResponses(shipments))
}

func (s *Server) handleListUnassigned(w http.ResponseWriter, r *http.Request) {
	shipments, err := s.delivery.ListUnassigned(r.Context())
	if err != nil {
		s.respondCommandError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toShipmentResponses(shipments))
}

func (s *Server) handleAssignShipper(w http.ResponseWriter, r *http.Request) {
	shipmentID, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}

	var req struct {
		ShipperID int64 `json:"shipper_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ShipperID == 0 {
		respondError(w, http.StatusBadRequest, "missing shipper_id")
		return
	}

	duplicate, err := s.delivery.AssignShipper(r.Context(), requestID(r), shipmentID, req.ShipperID)
	s.respondShipmentCommand(w, "shipper assigned", duplicate, err)
}

// handleClaimShipment lets the authenticated shipper assign themselves.
func (s *Server) handleClaimShipment(w http.ResponseWriter, r *http.Request) {
	shipmentID, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	courier, ok := s.resolveShipper(w, r)
	if !ok {
		return
	}

	duplicate, err := s.delivery.AssignShipper(r.Context(), requestID(r), shipmentID, courier.ID)
	s.respondShipmentCommand(w, "shipment claimed", duplicate, err)
}

func (s *Server) handlePickup(w http.ResponseWriter, r *http.Request) {
	s.runWaypointCommand(w, r, "picked up", s.delivery.Pickup)
}

func (s *Server) handleArrive(w http.ResponseWriter, r *http.Request) {
	s.runWaypointCommand(w, r, "arrival recorded", s.delivery.Arrive)
}

func (s *Server) handleDepart(w http.ResponseWriter, r *http.Request) {
	s.runWaypointCommand(w, r, "departure recorded", s.delivery.Depart)
}

func (s *Server) handleDeliver(w http.ResponseWriter, r *http.Request) {
	shipmentID, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	courier, ok := s.resolveShipper(w, r)
	if !ok {
		return
	}

	duplicate, err := s.delivery.Deliver(r.Context(), requestID(r), shipmentID, courier.ID)
	s.respondShipmentCommand(w, "shipment delivered", duplicate, err)
}

func (s *Server) handleCancelShipment(w http.ResponseWriter, r *http.Request) {
	shipmentID, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}

	duplicate, err := s.delivery.CancelShipment(r.Context(), requestID(r), shipmentID)
	s.respondShipmentCommand(w, "shipment cancelled", duplicate, err)
}

type waypointCommand func(ctx context.Context, requestID string, shipmentID uuid.UUID, shipperID, waypointID int64) (bool, error)

func (s *Server) runWaypointCommand(w http.ResponseWriter, r *http.Request, message string, command waypointCommand) {
	shipmentID, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	courier, ok := s.resolveShipper(w, r)
	if !ok {
		return
	}

	var req struct {
		WaypointID int64 `json:"waypoint_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.WaypointID == 0 {
		respondError(w, http.StatusBadRequest, "missing waypoint_id")
		return
	}

	duplicate, err := command(r.Context(), requestID(r), shipmentID, courier.ID, req.WaypointID)
	s.respondShipmentCommand(w, message, duplicate, err)
}

func (s *Server) respondShipmentCommand(w http.ResponseWriter, message string, duplicate bool, err error) {
	if err != nil {
		s.respondCommandError(w, err)
		return
	}
	if duplicate {
		respondJSON(w, http.StatusOK, map[string]string{"message": "request already processed"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": message})
}

// resolveShipper maps the authenticated caller to their shipper profile.
func (s *Server) resolveShipper(w http.ResponseWriter, r *http.Request) (*shipment.Shipper, bool) {
	courier, err := s.delivery.GetShipperByUser(r.Context(), callerID(r.Context()))
	if err != nil {
		respondError(w, http.StatusForbidden, "caller is not a registered shipper")
		return nil, false
	}
	return courier, true
}

func toShipmentResponses(shipments []*shipment.Shipment) []shipmentResponse {
	response := make([]shipmentResponse, 0, len(shipments))
	for _, sh := range shipments {
		response = append(response, toShipmentResponse(sh))
	}
	return response
}

func queryInt(w http.ResponseWriter, r *http.Request, name string, fallback int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		respondError(w, http.StatusBadRequest, "invalid value for '"+name+"' parameter")
		return 0, false
	}
	return value, true
}
