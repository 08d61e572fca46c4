package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"go.uber.org/zap"
)

// ErrorResponse represents the standard error response format.
type ErrorResponse struct {
	Status    string                 `json:"status"`
	ErrorCode ErrorCode              `json:"error_code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// Handler writes errors as JSON HTTP responses.
type Handler struct {
	logger *zap.Logger
}

// NewHandler creates a new error handler.
func NewHandler(logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{logger: logger}
}

// HandleError processes an error and writes an appropriate HTTP response.
func (h *Handler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := r.Header.Get("X-Request-ID")

	var se *SynthError
	if !stderrors.As(err, &se) {
		se = InternalError(err.Error(), nil)
	}
	h.writeResponse(w, se.HTTPStatus(), se.Code, se.Error(), se.Details, requestID)
}

// WriteError writes an error response with an explicit status code.
func (h *Handler) WriteError(w http.ResponseWriter, statusCode int, code ErrorCode, message string, requestID string) {
	h.writeResponse(w, statusCode, code, message, nil, requestID)
}

// WriteValidationError writes a validation error response.
func (h *Handler) WriteValidationError(w http.ResponseWriter, message string, requestID string) {
	h.writeResponse(w, http.StatusBadRequest, ErrCodeInvalidArgument, message, nil, requestID)
}

// WriteInternalError writes an internal error response.
func (h *Handler) WriteInternalError(w http.ResponseWriter, message string, requestID string) {
	h.writeResponse(w, http.StatusInternalServerError, ErrCodeInternal, message, nil, requestID)
}

// WriteRateLimitedError writes a rate limit exceeded response.
func (h *Handler) WriteRateLimitedError(w http.ResponseWriter, requestID string) {
	h.writeResponse(w, http.StatusTooManyRequests, ErrCodeRateLimited, "rate limit exceeded", nil, requestID)
}

func (h *Handler) writeResponse(w http.ResponseWriter, statusCode int, code ErrorCode, message string, details map[string]interface{}, requestID string) {
	h.logger.Warn("HTTP error response",
		zap.Int("status_code", statusCode),
		zap.Int("error_code", int(code)),
		zap.String("message", message),
		zap.String("request_id", requestID),
	)

	resp := ErrorResponse{
		Status:    "error",
		ErrorCode: code,
		Message:   message,
		Details:   details,
		RequestID: requestID,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(resp)
}
