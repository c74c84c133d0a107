package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/dressrental/internal/service"
	"github.com/utafrali/dressrental/pkg/httputil"
	"github.com/utafrali/dressrental/pkg/pagination"
)

const dateLayout = "2006-01-02"

// RentalHandler handles HTTP requests for rentals of the signed-in user.
type RentalHandler struct {
	service *service.RentalService
	logger  *slog.Logger
}

// NewRentalHandler creates a new rental HTTP handler.
func NewRentalHandler(svc *service.RentalService, logger *slog.Logger) *RentalHandler {
	return &RentalHandler{service: svc, logger: logger}
}

// RentalRequest is one dress booked for a date range. Dates are YYYY-MM-DD.
type RentalRequest struct {
	DressID   int64  `json:"dress_id" validate:"required,gt=0"`
	Color     string `json:"color" validate:"required"`
	Size      string `json:"size" validate:"required"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

// input converts the request. The dates were checked by the datetime tag.
func (req RentalRequest) input() service.RentalInput {
	start, _ := time.Parse(dateLayout, req.StartDate)
	end, _ := time.Parse(dateLayout, req.EndDate)
	return service.RentalInput{
		DressID:   req.DressID,
		Color:     req.Color,
		Size:      req.Size,
		StartDate: start,
		EndDate:   end,
	}
}

// CheckoutRequest is the JSON request body for checking out a cart.
type CheckoutRequest struct {
	Items []RentalRequest `json:"items" validate:"required,min=1,max=20,dive"`
}

// UpdateStatusRequest is the JSON request body for a status change.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed cancelled"`
}

// List handles GET /api/v1/rentals
func (h *RentalHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, h.logger)
	if !ok {
		return
	}
	page := pagination.FromRequest(r)

	rentals, total, err := h.service.ListRentals(r.Context(), userID, page)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(rentals, total, page.Page, page.PerPage))
}

// Create handles POST /api/v1/rentals
func (h *RentalHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, h.logger)
	if !ok {
		return
	}

	var req RentalRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	rental, err := h.service.CreateRental(r.Context(), userID, req.input())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, rental)
}

// Checkout handles POST /api/v1/rentals/checkout. Every line is booked or
// none is.
func (h *RentalHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, h.logger)
	if !ok {
		return
	}

	var req CheckoutRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	lines := make([]service.RentalInput, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, item.input())
	}

	rentals, err := h.service.Checkout(r.Context(), userID, lines)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, rentals)
}

// Get handles GET /api/v1/rentals/{id}
func (h *RentalHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	rental, err := h.service.GetRental(r.Context(), userID, id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, rental)
}

// UpdateStatus handles PUT /api/v1/rentals/{id}/status
func (h *RentalHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	rental, err := h.service.UpdateStatus(r.Context(), userID, id.String(), req.Status)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, rental)
}
