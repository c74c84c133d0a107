package http

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/dressrental/internal/service"
	"github.com/utafrali/dressrental/pkg/httputil"
)

// NotifyHandler handles notify-me sign ups.
type NotifyHandler struct {
	service *service.SubscriptionService
	logger  *slog.Logger
}

// NewNotifyHandler creates a new notify-me HTTP handler.
func NewNotifyHandler(svc *service.SubscriptionService, logger *slog.Logger) *NotifyHandler {
	return &NotifyHandler{service: svc, logger: logger}
}

// SubscribeRequest is the JSON request body for a notify-me sign up.
type SubscribeRequest struct {
	Email      string   `json:"email" validate:"required,email"`
	Categories []string `json:"categories" validate:"required,min=1"`
	Sizes      []string `json:"sizes" validate:"required,min=1"`
}

// Subscribe handles POST /api/v1/notify. Signing up again with the same
// email replaces the earlier preferences.
func (h *NotifyHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req SubscribeRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	sub, err := h.service.Subscribe(r.Context(), req.Email, req.Categories, req.Sizes)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, sub)
}
