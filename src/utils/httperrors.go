package utils

import (
	"encoding/json"
	"net/http"
)

// ErrorCode is the machine readable code sent to clients in the error envelope.
type ErrorCode string

const (
	CodeUnauthorized    ErrorCode = "UNAUTHORIZED"
	CodeInvalidFileType ErrorCode = "INVALID_FILE_TYPE"
	CodeInvalidData     ErrorCode = "INVALID_DATA"
	CodeNotFound        ErrorCode = "NOT_FOUND"
	CodeConflict        ErrorCode = "CONFLICT"
	CodePayloadTooLarge ErrorCode = "PAYLOAD_TOO_LARGE"
	CodeServerError     ErrorCode = "SERVER_ERROR"
)

// HTTPError defines a custom error structure that includes an HTTP status code and message
type HTTPError struct {
	Status  int       `json:"statusCode"`
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

// Implement the Error() method to satisfy the error interface
func (e *HTTPError) Error() string {
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.Cause
}

// NewHTTPError creates a new HTTPError instance with a custom status code and message
func NewHTTPError(status int, code ErrorCode, message string) error {
	return &HTTPError{
		Status:  status,
		Code:    code,
		Message: message,
	}
}

// BadRequest creates a 400 Bad Request error with the INVALID_DATA code
func BadRequest(message string) error {
	return NewHTTPError(http.StatusBadRequest, CodeInvalidData, message)
}

// Unauthorized creates a 401 Unauthorized error
func Unauthorized(message string) error {
	return NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, message)
}

// NotFound creates a 404 Not Found error
func NotFound(message string) error {
	return NewHTTPError(http.StatusNotFound, CodeNotFound, message)
}

// Conflict creates a 409 Conflict error
func Conflict(message string) error {
	return NewHTTPError(http.StatusConflict, CodeConflict, message)
}

// PayloadTooLarge creates a 413 error
func PayloadTooLarge(message string) error {
	return NewHTTPError(http.StatusRequestEntityTooLarge, CodePayloadTooLarge, message)
}

// InternalServerError creates a 500 Internal Server Error
func InternalServerError(message string) error {
	return NewHTTPError(http.StatusInternalServerError, CodeServerError, message)
}

// ErrorEnvelope is the body of every failed API response.
type ErrorEnvelope struct {
	Success bool       `json:"success"`
	Error   *HTTPError `json:"error"`
}

// WriteError is a helper function to send the error response as JSON
func WriteError(w http.ResponseWriter, err error) {
	// Check if the error is an instance of HTTPError
	httpErr, ok := err.(*HTTPError)
	if !ok {
		// If not, default to an internal server error
		httpErr = &HTTPError{
			Status:  http.StatusInternalServerError,
			Code:    CodeServerError,
			Message: "Internal server error",
		}
	}

	// Write the HTTP error response
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(httpErr.Status)
	_ = json.NewEncoder(w).Encode(ErrorEnvelope{Success: false, Error: httpErr})
}
