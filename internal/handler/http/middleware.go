package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	apperrors "github.com/utafrali/dressrental/pkg/errors"
	"github.com/utafrali/dressrental/pkg/httputil"
	"github.com/utafrali/dressrental/pkg/middleware"
	"github.com/utafrali/dressrental/pkg/validator"
)

// ContentTypeJSON rejects request bodies declared as anything other than
// application/json. Requests without a Content-Type header pass through.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "application/json") {
				httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.Response{
					Error: &httputil.ErrorResponse{
						Code:    "UNSUPPORTED_MEDIA_TYPE",
						Message: "Content-Type must be application/json",
					},
				})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// decodeRequest decodes and validates the JSON body into dst. On failure it
// writes the error response and returns false.
func decodeRequest(w http.ResponseWriter, r *http.Request, dst any, logger *slog.Logger) bool {
	err := validator.DecodeAndValidate(r, dst)
	if err == nil {
		return true
	}

	var valErr *validator.ValidationError
	if !errors.As(err, &valErr) {
		err = apperrors.InvalidInput("invalid request body: " + strings.TrimPrefix(err.Error(), "decode request body: "))
	}
	httputil.WriteError(w, r, err, logger)
	return false
}

// requireUserID returns the authenticated user, writing 401 when there is none.
func requireUserID(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (string, bool) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		httputil.WriteError(w, r, apperrors.Unauthorized("authentication required"), logger)
		return "", false
	}
	return userID, true
}
