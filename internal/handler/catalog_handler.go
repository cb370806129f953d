package handler

import (
	"net/http"

	"fashnary/api/internal/service"

	"github.com/go-chi/chi/v5"
)

// ListProducts handles GET /products?sort_by=&order=
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	opts := service.SortOptions{
		Field: r.URL.Query().Get("sort_by"),
		Order: r.URL.Query().Get("order"),
	}

	products, err := h.catalog.ListProducts(r.Context(), opts)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

// Stockouts handles GET /products/sort/stockouts
func (h *Handler) Stockouts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.Stockouts(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *Handler) ListProductDisplays(w http.ResponseWriter, r *http.Request) {
	out, err := h.catalog.ListProductDisplays(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.catalog.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) GetProductDisplay(w http.ResponseWriter, r *http.Request) {
	d, err := h.catalog.GetProductDisplay(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// ProductMetadata handles GET /metadata
func (h *Handler) ProductMetadata(w http.ResponseWriter, r *http.Request) {
	md, err := h.catalog.ProductMetadata(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, md)
}
