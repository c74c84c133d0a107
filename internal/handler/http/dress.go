package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/dressrental/internal/catalog"
	"github.com/utafrali/dressrental/internal/service"
	apperrors "github.com/utafrali/dressrental/pkg/errors"
	"github.com/utafrali/dressrental/pkg/httputil"
	"github.com/utafrali/dressrental/pkg/pagination"
)

// DressHandler handles HTTP requests for the dress catalogue.
type DressHandler struct {
	service *service.CatalogService
	logger  *slog.Logger
}

// NewDressHandler creates a new dress HTTP handler.
func NewDressHandler(svc *service.CatalogService, logger *slog.Logger) *DressHandler {
	return &DressHandler{service: svc, logger: logger}
}

// DressRequest is the JSON request body for creating or replacing a dress.
// Prices are in cents. Available defaults to true when omitted.
type DressRequest struct {
	Name        string   `json:"name" validate:"required,max=200"`
	Description string   `json:"description" validate:"max=5000"`
	Price       int64    `json:"price" validate:"required,gt=0"`
	SalePrice   *int64   `json:"sale_price" validate:"omitempty,gt=0"`
	Sizes       []string `json:"sizes" validate:"required,min=1,dive,required"`
	Colors      []string `json:"colors" validate:"required,min=1,dive,required"`
	Images      []string `json:"images" validate:"dive,required"`
	Category    string   `json:"category" validate:"required"`
	Featured    bool     `json:"featured"`
	Available   *bool    `json:"available"`
}

func (req DressRequest) input() service.DressInput {
	available := true
	if req.Available != nil {
		available = *req.Available
	}
	return service.DressInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		SalePrice:   req.SalePrice,
		Sizes:       req.Sizes,
		Colors:      req.Colors,
		Images:      req.Images,
		Category:    req.Category,
		Featured:    req.Featured,
		Available:   available,
	}
}

// List handles GET /api/v1/dresses
func (h *DressHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := catalog.ParseQuery(r.URL.Query())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	page := pagination.FromRequest(r)

	dresses, total, err := h.service.ListDresses(r.Context(), filter, page)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(dresses, total, page.Page, page.PerPage))
}

// Featured handles GET /api/v1/dresses/featured
func (h *DressHandler) Featured(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			httputil.WriteError(w, r, apperrors.InvalidInput("limit must be a positive integer"), h.logger)
			return
		}
		limit = n
	}

	dresses, err := h.service.ListFeatured(r.Context(), limit)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, dresses)
}

// Facets handles GET /api/v1/dresses/facets
func (h *DressHandler) Facets(w http.ResponseWriter, r *http.Request) {
	facets, err := h.service.Facets(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, facets)
}

// Get handles GET /api/v1/dresses/{id}
func (h *DressHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	dress, err := h.service.GetDress(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, dress)
}

// GetBySlug handles GET /api/v1/dresses/slug/{slug}
func (h *DressHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	dress, err := h.service.GetDressBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, dress)
}

// Create handles POST /api/v1/dresses (admin)
func (h *DressHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req DressRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	dress, err := h.service.CreateDress(r.Context(), req.input())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, dress)
}

// Update handles PUT /api/v1/dresses/{id} (admin). The body replaces every
// editable field.
func (h *DressHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req DressRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	dress, err := h.service.UpdateDress(r.Context(), id, req.input())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, dress)
}

// Delete handles DELETE /api/v1/dresses/{id} (admin)
func (h *DressHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.DeleteDress(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
