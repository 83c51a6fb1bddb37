package httputil

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the uniform error envelope returned by every endpoint.
type ErrorBody struct {
	Error     string `json:"error"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"requestId"`
	Success   bool   `json:"success"`
	Preview   string `json:"preview,omitempty"`
}

// SuccessBody wraps generated data on the happy path.
type SuccessBody struct {
	Data      any    `json:"data"`
	RequestID string `json:"requestId"`
	Message   string `json:"message"`
	Success   bool   `json:"success"`
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

func WriteSuccess(w http.ResponseWriter, requestID, message string, data any) {
	w.Header().Set("X-Request-ID", requestID)
	WriteJSON(w, http.StatusOK, SuccessBody{
		Data:      data,
		RequestID: requestID,
		Message:   message,
		Success:   true,
	})
}

func WriteError(w http.ResponseWriter, requestID string, statusCode int, body ErrorBody) {
	body.RequestID = requestID
	body.Success = false
	w.Header().Set("X-Request-ID", requestID)
	WriteJSON(w, statusCode, body)
}

func writeMessage(w http.ResponseWriter, requestID string, statusCode int, message string) {
	WriteError(w, requestID, statusCode, ErrorBody{Error: message})
}

func WriteBadRequestError(w http.ResponseWriter, requestID, message string, details any) {
	WriteError(w, requestID, http.StatusBadRequest, ErrorBody{Error: message, Details: details})
}

func WriteRateLimitError(w http.ResponseWriter, requestID, message string) {
	writeMessage(w, requestID, http.StatusTooManyRequests, message)
}

func WriteInternalError(w http.ResponseWriter, requestID, message string) {
	writeMessage(w, requestID, http.StatusInternalServerError, message)
}
