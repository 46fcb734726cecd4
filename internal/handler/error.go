// Package handler holds the HTTP plumbing shared by the API handlers: the
// JSON error envelope, body decoding and health checks.
package handler

import (
	"net/http"

	"github.com/dukerupert/cardapio/internal/domain"
	"github.com/dukerupert/cardapio/internal/middleware"
)

// errorBody is the envelope every failed request returns:
//
//	{"error": {"code": "invalid", "message": "...", "fields": {...}}}
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// ErrorCodeToHTTPStatus maps domain error codes to HTTP status codes.
func ErrorCodeToHTTPStatus(code string) int {
	switch code {
	case domain.EINVALID:
		return http.StatusBadRequest
	case domain.EUNAUTHORIZED:
		return http.StatusUnauthorized
	case domain.ENOTFOUND:
		return http.StatusNotFound
	case domain.ECONFLICT:
		return http.StatusConflict
	case domain.EGONE:
		return http.StatusGone
	case domain.ETOOLARGE:
		return http.StatusRequestEntityTooLarge
	case domain.ERATELIMIT:
		return http.StatusTooManyRequests
	case domain.EUNAVAILABLE:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ErrorResponse writes err as the JSON error envelope. Server-side failures
// are logged at error level with the op; client errors at info.
func ErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	code := domain.ErrorCode(err)
	status := ErrorCodeToHTTPStatus(code)

	logger := middleware.GetLogger(r.Context())
	attrs := []any{
		"code", code,
		"status", status,
		"error", err.Error(),
	}
	if op := domain.ErrorOp(err); op != "" {
		attrs = append(attrs, "op", op)
	}
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed", attrs...)
	} else {
		logger.InfoContext(r.Context(), "request rejected", attrs...)
	}

	body := errorBody{Error: errorDetail{
		Code:    code,
		Message: domain.ErrorMessage(err),
	}}
	if domain.IsValidationError(err) {
		body.Error.Fields = domain.GetValidationFields(err)
		body.Error.Message = "Please correct the highlighted fields"
	}

	WriteJSON(w, status, body)
}

// NotFoundResponse answers requests that matched no route.
func NotFoundResponse(w http.ResponseWriter, r *http.Request) {
	ErrorResponse(w, r, domain.Errorf(domain.ENOTFOUND, "", "Resource not found"))
}
