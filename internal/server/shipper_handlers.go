package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/akulagin/fulfillment/internal/domain/shipment"
)

type shipperResponse struct {
	ID                 int64  `json:"id"`
	Name               string `json:"name"`
	Phone              string `json:"phone"`
	CurrentWarehouseID *int64 `json:"current_warehouse_id,omitempty"`
	Available          bool   `json:"available"`
	Active             bool   `json:"active"`
}

func toShipperResponse(courier *shipment.Shipper) shipperResponse {
	return shipperResponse{
		ID:                 courier.ID,
		Name:               courier.Name,
		Phone:              courier.Phone,
		CurrentWarehouseID: courier.CurrentWarehouseID,
		Available:          courier.Available,
		Active:             courier.Active,
	}
}

func (s *Server) handleCreateShipper(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name               string `json:"name"`
		Phone              string `json:"phone"`
		UserID             string `json:"user_id"`
		CurrentWarehouseID *int64 `json:"current_warehouse_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.UserID == "" {
		respondError(w, http.StatusBadRequest, "missing name or user_id")
		return
	}

	id, err := s.delivery.CreateShipper(r.Context(), &shipment.Shipper{
		Name:               req.Name,
		Phone:              req.Phone,
		UserID:             req.UserID,
		CurrentWarehouseID: req.CurrentWarehouseID,
		Available:          true,
		Active:             true,
	})
	if err != nil {
		s.respondCommandError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{
		"message": "shipper registered",
		"id":      strconv.FormatInt(id, 10),
	})
}

func (s *Server) handleGetShipper(w http.ResponseWriter, r *http.Request) {
	id, ok := parseInt64(w, r, "id")
	if !ok {
		return
	}

	courier, err := s.delivery.GetShipper(r.Context(), id)
	if err != nil {
		s.respondCommandError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toShipperResponse(courier))
}

func (s *Server) handleUpdateShipper(w http.ResponseWriter, r *http.Request) {
	id, ok := parseInt64(w, r, "id")
	if !ok {
		return
	}

	courier, err := s.delivery.GetShipper(r.Context(), id)
	if err != nil {
		s.respondCommandError(w, err)
		return
	}

	var req struct {
		Name               *string `json:"name"`
		Phone              *string `json:"phone"`
		CurrentWarehouseID *int64  `json:"current_warehouse_id"`
		Active             *bool   `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name != nil {
		courier.Name = *req.Name
	}
	if req.Phone != nil {
		courier.Phone = *req.Phone
	}
	if req.CurrentWarehouseID != nil {
		courier.CurrentWarehouseID = req.CurrentWarehouseID
	}
	if req.Active != nil {
		courier.Active = *req.Active
	}

	if err := s.delivery.UpdateShipper(r.Context(), courier); err != nil {
		s.respondCommandError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "shipper updated"})
}

func (s *Server) handleDeleteShipper(w http.ResponseWriter, r *http.Request) {
	id, ok := parseInt64(w, r, "id")
	if !ok {
		return
	}

	if err := s.delivery.DeleteShipper(r.Context(), id); err != nil {
		s.respondCommandError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "shipper removed"})
}

// handleMyProfile returns the authenticated caller's shipper profile.
func (s *Server) handleMyProfile(w http.ResponseWriter, r *http.Request) {
	courier, ok := s.resolveShipper(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, toShipperResponse(courier))
}

// handleMyShipments lists the authenticated shipper's shipments.
func (s *Server) handleMyShipments(w http.ResponseWriter, r *http.Request) {
	courier, ok := s.resolveShipper(w, r)
	if !ok {
		return
	}

	shipments, err := s.delivery.ListByShipper(r.Context(), courier.ID)
	if err != nil {
		s.respondCommandError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toShipmentResponses(shipments))
}

func parseInt64(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}
