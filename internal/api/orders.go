package api

import (
	"net/http"

	"github.com/xtrntr/ihome/internal/models"
)

// PlaceOrder books a house for the caller
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	var req struct {
		HouseID   int    `json:"house_id" validate:"gt=0"`
		StartDate string `json:"start_date" validate:"required"`
		EndDate   string `json:"end_date" validate:"required"`
	}
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	order, err := h.Booking.CreateOrder(r.Context(), userID, req.HouseID, req.StartDate, req.EndDate)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

// GetUserOrders lists the caller's orders; ?role=landlord lists the orders
// placed on the caller's houses
func (h *Handler) GetUserOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	orders, err := h.Booking.ListOrders(r.Context(), userID, r.URL.Query().Get("role"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

// SetOrderStatus lets the landlord accept or reject an order
func (h *Handler) SetOrderStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	orderID, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req struct {
		Action string `json:"action" validate:"oneof=accept reject"`
		Reason string `json:"reason"`
	}
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	var order *models.Order
	if req.Action == "accept" {
		order, err = h.Booking.AcceptOrder(r.Context(), userID, orderID)
	} else {
		order, err = h.Booking.RejectOrder(r.Context(), userID, orderID, req.Reason)
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// PayOrder confirms the payment of an accepted order
func (h *Handler) PayOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	orderID, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	order, err := h.Booking.PayOrder(r.Context(), userID, orderID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// CancelOrder withdraws an unpaid order
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	orderID, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	order, err := h.Booking.CancelOrder(r.Context(), userID, orderID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// CommentOrder completes a paid order with the guest's comment
func (h *Handler) CommentOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	orderID, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req struct {
		Comment string `json:"comment" validate:"required"`
	}
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	order, err := h.Booking.CommentOrder(r.Context(), userID, orderID, req.Comment)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}
