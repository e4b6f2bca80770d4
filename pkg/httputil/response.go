package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	apperrors "github.com/utafrali/wishlist/pkg/errors"
	"github.com/utafrali/wishlist/pkg/logger"
	"github.com/utafrali/wishlist/pkg/validator"
)

const internalErrorMessage = "an internal error occurred"

// ErrorResponse is the JSON body written for every failed request.
type ErrorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Timestamp time.Time         `json:"timestamp"`
	Path      string            `json:"path"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"requestId,omitempty"`
}

// now is replaced in tests.
var now = func() time.Time { return time.Now().UTC() }

// WriteJSON writes v as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; nothing meaningful can be done if encoding fails.
	_ = json.NewEncoder(w).Encode(v)
}

// NewErrorResponse builds an error body for the given request.
func NewErrorResponse(r *http.Request, code, message string) ErrorResponse {
	return ErrorResponse{
		Code:      code,
		Message:   message,
		Timestamp: now(),
		Path:      r.URL.Path,
		RequestID: logger.CorrelationIDFromContext(r.Context()),
	}
}

// WriteError maps err to a status code and writes the error body.
//
// AppErrors keep their own message. Errors classified through a sentinel
// (typed domain errors, wrapped sentinels) expose err.Error(). Anything else
// becomes a 500 with a generic message and is logged once here, preferring the
// request-scoped logger set by the RequestLogger middleware.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		WriteValidationError(w, r, err)
		return
	}

	status := apperrors.HTTPStatus(err)
	code := apperrors.Code(err)

	var message string
	var appErr *apperrors.AppError
	switch {
	case status == http.StatusInternalServerError:
		message = internalErrorMessage
		l := logger.FromContext(r.Context())
		if l == slog.Default() && fallback != nil {
			l = fallback
		}
		l.ErrorContext(r.Context(), "internal error",
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
	case errors.As(err, &appErr):
		message = appErr.Message
	default:
		message = err.Error()
	}

	WriteJSON(w, status, NewErrorResponse(r, code, message))
}

// WriteValidationError writes a 400 response. Field-level messages are
// included when err is a *validator.ValidationError.
func WriteValidationError(w http.ResponseWriter, r *http.Request, err error) {
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		body := NewErrorResponse(r, "VALIDATION_ERROR", valErr.Error())
		body.Fields = valErr.Fields()
		WriteJSON(w, http.StatusBadRequest, body)
		return
	}

	WriteJSON(w, http.StatusBadRequest, NewErrorResponse(r, "INVALID_INPUT", err.Error()))
}
