package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/akulagin/fulfillment/internal/domain/order"
	"github.com/akulagin/fulfillment/internal/ordering"
)

type orderLineRequest struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	UnitPrice   int64  `json:"unit_price"`
	Discount    int64  `json:"discount"`
	Quantity    int64  `json:"quantity"`
	PictureURL  string `json:"picture_url"`
}

type addressRequest struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
	ZipCode string `json:"zip_code"`
}

type orderResponse struct {
	ID                 uuid.UUID          `json:"id"`
	BuyerID            string             `json:"buyer_id"`
	BuyerName          string             `json:"buyer_name"`
	Status             string             `json:"status"`
	OrderedAt          time.Time          `json:"ordered_at"`
	Total              int64              `json:"total"`
	Lines              []orderLineRequest `json:"lines"`
	Address            addressRequest     `json:"address"`
	TrackingNumber     string             `json:"tracking_number,omitempty"`
	Carrier            string             `json:"carrier,omitempty"`
	ShippedAt          *time.Time         `json:"shipped_at,omitempty"`
	RejectedProductIDs []int64            `json:"rejected_product_ids,omitempty"`
}

func toOrderResponse(o *order.Order) orderResponse {
	lines := make([]orderLineRequest, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, orderLineRequest{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			UnitPrice:   l.UnitPrice,
			Discount:    l.Discount,
			Quantity:    l.Quantity,
			PictureURL:  l.PictureURL,
		})
	}
	return orderResponse{
		ID:        o.ID,
		BuyerID:   o.BuyerID,
		BuyerName: o.BuyerName,
		Status:    string(o.Status),
		OrderedAt: o.OrderedAt,
		Total:     o.Total(),
		Lines:     lines,
		Address: addressRequest{
			Street:  o.Address.Street,
			City:    o.Address.City,
			State:   o.Address.State,
			Country: o.Address.Country,
			ZipCode: o.Address.ZipCode,
		},
		TrackingNumber:     o.TrackingNumber,
		Carrier:            o.Carrier,
		ShippedAt:          o.ShippedAt,
		RejectedProductIDs: o.RejectedProductIDs,
	}
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BuyerName      string             `json:"buyer_name"`
		Lines          []orderLineRequest `json:"lines"`
		Address        addressRequest     `json:"address"`
		CardNumber     string             `json:"card_number"`
		CardHolderName string             `json:"card_holder_name"`
		CardExpiry     string             `json:"card_expiry"`
		CardTypeID     int                `json:"card_type_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	lines := make([]ordering.LineInput, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, ordering.LineInput{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			UnitPrice:   l.UnitPrice,
			Discount:    l.Discount,
			Quantity:    l.Quantity,
			PictureURL:  l.PictureURL,
		})
	}

	orderID, duplicate, err := s.ordering.CreateOrder(r.Context(), requestID(r), ordering.CreateOrderInput{
		BuyerID:   callerID(r.Context()),
		BuyerName: req.BuyerName,
		Lines:     lines,
		Address: order.Address{
			Street:  req.Address.Street,
			City:    req.Address.City,
			State:   req.Address.State,
			Country: req.Address.Country,
			ZipCode: req.Address.ZipCode,
		},
		Card: order.PaymentCard{
			NumberMasked: maskCardNumber(req.CardNumber),
			HolderName:   req.CardHolderName,
			Expiry:       req.CardExpiry,
			TypeID:       req.CardTypeID,
		},
	})
	if err != nil {
		s.respondCommandError(w, err)
		return
	}
	if duplicate {
		respondJSON(w, http.StatusOK, map[string]string{"message": "request already processed"})
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{
		"message": "order accepted",
		"id":      orderID.String(),
	})
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}

	o, err := s.ordering.GetOrder(r.Context(), orderID)
	if err != nil {
		s.respondCommandError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toOrderResponse(o))
}

func (s *Server) handleListMyOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := s.ordering.GetOrdersByUser(r.Context(), callerID(r.Context()))
	if err != nil {
		s.respondCommandError(w, err)
		return
	}

	response := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		response = append(response, toOrderResponse(o))
	}
	respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	s.runOrderCommand(w, r, "order cancelled", s.ordering.CancelOrder)
}

func (s *Server) handleShipOrder(w http.ResponseWriter, r *http.Request) {
	s.runOrderCommand(w, r, "order shipped", s.ordering.ShipOrder)
}

func (s *Server) runOrderCommand(w http.ResponseWriter, r *http.Request, message string, command func(ctx context.Context, requestID string, orderID uuid.UUID) (bool, error)) {
	orderID, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}

	duplicate, err := command(r.Context(), requestID(r), orderID)
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

func parseUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func maskCardNumber(number string) string {
	if len(number) <= 4 {
		return number
	}
	return "****" + number[len(number)-4:]
}
