package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/dressrental/internal/service"
	apperrors "github.com/utafrali/dressrental/pkg/errors"
	"github.com/utafrali/dressrental/pkg/httputil"
)

// WishlistHandler handles HTTP requests for the signed-in user's wishlist.
type WishlistHandler struct {
	service *service.WishlistService
	logger  *slog.Logger
}

// NewWishlistHandler creates a new wishlist HTTP handler.
func NewWishlistHandler(svc *service.WishlistService, logger *slog.Logger) *WishlistHandler {
	return &WishlistHandler{service: svc, logger: logger}
}

// Get handles GET /api/v1/wishlist
func (h *WishlistHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, h.logger)
	if !ok {
		return
	}

	snap, err := h.service.GetWishlist(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, snap)
}

// AddItem handles POST /api/v1/wishlist/items/{dressId}. It answers 201 with
// the updated wishlist, or 409 ALREADY_EXISTS when the dress was already saved.
func (h *WishlistHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, h.logger)
	if !ok {
		return
	}
	dressID, ok := httputil.ParseID(w, chi.URLParam(r, "dressId"))
	if !ok {
		return
	}

	added, err := h.service.AddItem(r.Context(), userID, dressID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if !added {
		httputil.WriteError(w, r, apperrors.AlreadyExists("wishlist item", "dress_id", fmt.Sprint(dressID)), h.logger)
		return
	}

	snap, err := h.service.GetWishlist(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, snap)
}

// RemoveItem handles DELETE /api/v1/wishlist/items/{dressId}
func (h *WishlistHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, h.logger)
	if !ok {
		return
	}
	dressID, ok := httputil.ParseID(w, chi.URLParam(r, "dressId"))
	if !ok {
		return
	}

	if err := h.service.RemoveItem(r.Context(), userID, dressID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Clear handles DELETE /api/v1/wishlist
func (h *WishlistHandler) Clear(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.service.Clear(r.Context(), userID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
