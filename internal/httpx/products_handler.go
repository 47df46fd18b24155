package httpx

import (
	"github.com/AFUBWAJNR/Bidhaaline-ecommerce/internal/catalog"
	"github.com/go-chi/chi/v5"
	"net/http"
)

func (h *handlers) listProducts(w http.ResponseWriter, r *http.Request) {
	f := catalog.ProductFilter{
		Category: r.URL.Query().Get("category"),
		Search:   r.URL.Query().Get("search"),
	}
	list, err := h.Products.ListActive(r.Context(), f)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	if list == nil {
		list = []catalog.Product{}
	}
	success(w, http.StatusOK, list)
}

func (h *handlers) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.Products.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	success(w, http.StatusOK, p)
}

func (h *handlers) createProduct(w http.ResponseWriter, r *http.Request) {
	var in catalog.ProductInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	p, err := h.Products.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	successMessage(w, http.StatusCreated, "Product created successfully", p)
}

func (h *handlers) updateProduct(w http.ResponseWriter, r *http.Request) {
	var in catalog.ProductInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	p, err := h.Products.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	successMessage(w, http.StatusOK, "Product updated successfully", p)
}

// deleteProduct is a soft delete; a second call on the same id is a 404.
func (h *handlers) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.Products.Deactivate(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	successMessage(w, http.StatusOK, "Product deleted successfully", nil)
}
