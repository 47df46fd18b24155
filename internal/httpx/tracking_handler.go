package httpx

import (
	"github.com/AFUBWAJNR/Bidhaaline-ecommerce/internal/auth"
	"github.com/go-chi/chi/v5"
	"net/http"
)

type appendTrackingReq struct {
	Status      string `json:"status"`
	Description string `json:"description"`
}

func (h *handlers) adminTracking(w http.ResponseWriter, r *http.Request) {
	view, err := h.Tracking.AdminLookup(r.Context(), chi.URLParam(r, "orderId"))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	success(w, http.StatusOK, view)
}

func (h *handlers) customerTracking(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	view, err := h.Tracking.CustomerLookup(r.Context(), chi.URLParam(r, "orderId"), id.UserID)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	success(w, http.StatusOK, view)
}

func (h *handlers) appendTracking(w http.ResponseWriter, r *http.Request) {
	var req appendTrackingReq
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	entry, err := h.Engine.AppendTracking(r.Context(), chi.URLParam(r, "orderId"), req.Status, req.Description)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	successMessage(w, http.StatusCreated, "Tracking entry added", entry)
}
