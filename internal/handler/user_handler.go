package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// User routes accept both "user_3" and "3" for {id}.

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.catalog.ListUsers(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *Handler) UserIDs(w http.ResponseWriter, r *http.Request) {
	ids, err := h.catalog.UserIDs(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ids)
}

func (h *Handler) UserMetadata(w http.ResponseWriter, r *http.Request) {
	md, err := h.catalog.UserMetadata(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, md)
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.catalog.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *Handler) GetUserDisplay(w http.ResponseWriter, r *http.Request) {
	d, err := h.catalog.GetUserDisplay(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) UserPurchases(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.UserPurchases(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *Handler) UserCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.catalog.UserCart(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

func (h *Handler) UserStylePreferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := h.catalog.UserStylePreferences(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}
