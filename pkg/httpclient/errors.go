package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/utafrali/dressrental/pkg/errors"
)

// apiErrorBody matches the error half of the httputil envelope.
type apiErrorBody struct {
	Error *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}

// ParseResponseError drains and closes a non-2xx response and converts it to
// an *apperrors.AppError that keeps the remote code, message and status.
func ParseResponseError(resp *http.Response, service string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s returned status %d (read body: %w)", service, resp.StatusCode, err)
	}

	code, message := "", http.StatusText(resp.StatusCode)
	var parsed apiErrorBody
	if json.Unmarshal(body, &parsed) == nil && parsed.Error != nil {
		code, message = parsed.Error.Code, parsed.Error.Message
	}
	return mapStatus(resp.StatusCode, code, fmt.Sprintf("%s: %s", service, message))
}

func mapStatus(status int, code, message string) error {
	var sentinel error
	switch {
	case status == http.StatusNotFound:
		sentinel = apperrors.ErrNotFound
	case status == http.StatusConflict && code == "ALREADY_EXISTS":
		sentinel = apperrors.ErrAlreadyExists
	case status == http.StatusConflict:
		sentinel = apperrors.ErrConflict
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		sentinel = apperrors.ErrInvalidInput
	case status == http.StatusUnauthorized:
		sentinel = apperrors.ErrUnauthorized
	case status == http.StatusForbidden:
		sentinel = apperrors.ErrForbidden
	case status == http.StatusServiceUnavailable:
		sentinel = apperrors.ErrServiceUnavail
	case status >= 500:
		sentinel = apperrors.ErrInternal
	}
	if code == "" {
		code = fmt.Sprintf("HTTP_%d", status)
	}
	return &apperrors.AppError{Code: code, Message: message, Status: status, Err: sentinel}
}

// IsClientError reports whether status is a 4xx.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}
