package httpx

import (
	"github.com/AFUBWAJNR/Bidhaaline-ecommerce/internal/apperr"
	"github.com/AFUBWAJNR/Bidhaaline-ecommerce/internal/auth"
	"github.com/AFUBWAJNR/Bidhaaline-ecommerce/internal/orders"
	"github.com/go-chi/chi/v5"
	"net/http"
)

type updateStatusReq struct {
	Status string `json:"status"`
}

type statusUpdateResp struct {
	Order    orders.Order         `json:"order"`
	Tracking orders.TrackingEntry `json:"tracking"`
}

func (h *handlers) listOrders(w http.ResponseWriter, r *http.Request) {
	v := r.URL.Query()
	q, err := orders.ParseListQuery(v.Get("status"), v.Get("search"), v.Get("page"), v.Get("limit"))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	page, err := h.Orders.List(r.Context(), q)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	success(w, http.StatusOK, page)
}

func (h *handlers) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.Orders.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	success(w, http.StatusOK, o)
}

func (h *handlers) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusReq
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	o, entry, err := h.Engine.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	successMessage(w, http.StatusOK, "Order status updated successfully", statusUpdateResp{Order: o, Tracking: entry})
}

func (h *handlers) placeOrder(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	var in orders.PlaceOrderInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	o, err := h.Checkout.Place(r.Context(), id.UserID, in)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	successMessage(w, http.StatusCreated, "Order placed successfully", o)
}

func (h *handlers) myOrders(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	list, err := h.Orders.ListByUser(r.Context(), id.UserID)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	if list == nil {
		list = []orders.Order{}
	}
	success(w, http.StatusOK, list)
}

func (h *handlers) myOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	if id.UserID == "" {
		writeError(w, r, h.Log, apperr.Unauthorized("Authentication required"))
		return
	}
	snap, err := h.Orders.CustomerStatus(r.Context(), chi.URLParam(r, "id"), id.UserID)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	success(w, http.StatusOK, snap)
}
