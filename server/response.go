package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/beaconhq/beacon/server/schema"
)

type SuccessPayload struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type ErrorInfo struct {
	Message    string      `json:"message"`
	Code       string      `json:"code"`
	StatusCode int         `json:"status_code"`
	Details    interface{} `json:"details,omitempty"`
}

// ErrorPayload is the uniform error envelope. Detail duplicates the
// top-level message for backward-compatible consumers.
type ErrorPayload struct {
	Error  ErrorInfo `json:"error"`
	Detail string    `json:"detail"`
}

type PaginatedPayload struct {
	Count      int64       `json:"count"`
	Next       *string     `json:"next"`
	Previous   *string     `json:"previous"`
	Results    interface{} `json:"results"`
	Page       int64       `json:"page"`
	TotalPages int64       `json:"total_pages"`
	PageSize   int64       `json:"page_size"`
}

var statusCodeToErrorCode = map[int]string{
	http.StatusBadRequest:          "bad_request",
	http.StatusUnauthorized:        "unauthorized",
	http.StatusForbidden:           "forbidden",
	http.StatusNotFound:            "not_found",
	http.StatusMethodNotAllowed:    "method_not_allowed",
	http.StatusInternalServerError: "internal_server_error",
}

func errorCode(statusCode int) string {
	if code, ok := statusCodeToErrorCode[statusCode]; ok {
		return code
	}

	return "api_error"
}

func newErrorPayload(message, code string, statusCode int, details interface{}) ErrorPayload {
	return ErrorPayload{
		Error:  ErrorInfo{Message: message, Code: code, StatusCode: statusCode, Details: details},
		Detail: message,
	}
}

func writeResponse(rw http.ResponseWriter, payload interface{}, statusCode int) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(statusCode)
	json.NewEncoder(rw).Encode(payload)
}

func writeErrorPayload(rw http.ResponseWriter, payload ErrorPayload, statusCode int) {
	if statusCode >= http.StatusInternalServerError {
		logg.Error(payload.Error.Message)
	} else if statusCode >= http.StatusBadRequest {
		logg.Info(payload.Error.Message)
	}

	writeResponse(rw, payload, statusCode)
}

func writeError(rw http.ResponseWriter, message string, statusCode int) {
	writeErrorPayload(rw, newErrorPayload(message, errorCode(statusCode), statusCode, nil), statusCode)
}

func writeIntegrityError(rw http.ResponseWriter, message string) {
	writeErrorPayload(rw, newErrorPayload(message, "integrity_error", http.StatusBadRequest, nil), http.StatusBadRequest)
}

func writeValidationError(rw http.ResponseWriter, fieldErrors schema.FieldErrors) {
	payload := newErrorPayload("Validation failed", "validation_error", http.StatusBadRequest, fieldErrors)
	writeErrorPayload(rw, payload, http.StatusBadRequest)
}

func notFoundHandler(rw http.ResponseWriter, r *http.Request) {
	writeError(rw, "Not found.", http.StatusNotFound)
}

func methodNotAllowedHandler(rw http.ResponseWriter, r *http.Request) {
	writeError(rw, fmt.Sprintf("Method %q not allowed.", r.Method), http.StatusMethodNotAllowed)
}
