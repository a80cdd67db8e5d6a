package types

import (
	"net/http"

	"mercator-hq/stormwatch/pkg/policy/rules"
)

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains detailed error information.
type ErrorDetail struct {
	// Message is a human-readable error message.
	Message string `json:"message"`

	// Type categorizes the error, see the ErrorType constants.
	Type string `json:"type"`

	// Code is a machine-readable error code.
	Code string `json:"code,omitempty"`

	// Param names the request parameter that caused the error.
	Param string `json:"param,omitempty"`
}

// InvalidInputResponse is returned by the evaluate endpoints when the
// request body cannot be evaluated at all. It carries the invalid_input
// escalation flag so clients reading only the flags still see the failure.
type InvalidInputResponse struct {
	Error           ErrorDetail `json:"error"`
	EscalationFlags []string    `json:"escalationFlags"`
}

// Error types.
const (
	// ErrorTypeInvalidRequest indicates a client-side error (400).
	ErrorTypeInvalidRequest = "invalid_request_error"

	// ErrorTypeNotFound indicates a resource was not found (404).
	ErrorTypeNotFound = "not_found"

	// ErrorTypeMethodNotAllowed indicates an unsupported method (405).
	ErrorTypeMethodNotAllowed = "method_not_allowed"

	// ErrorTypeConflict indicates the resource already exists (409).
	ErrorTypeConflict = "conflict"

	// ErrorTypeRequestTooLarge indicates the body exceeded the limit (413).
	ErrorTypeRequestTooLarge = "request_too_large"

	// ErrorTypeRateLimit indicates the client exceeded its request rate (429).
	ErrorTypeRateLimit = "rate_limit_error"

	// ErrorTypeServerError indicates an internal server error (500).
	ErrorTypeServerError = "server_error"

	// ErrorTypeServiceUnavailable indicates a missing dependency (503).
	ErrorTypeServiceUnavailable = "service_unavailable"

	// ErrorTypeGatewayTimeout indicates the request deadline passed (504).
	ErrorTypeGatewayTimeout = "gateway_timeout"
)

// Error codes.
const (
	CodeInvalidJSON      = "invalid_json"
	CodeNotObject        = "not_object"
	CodeInvalidValue     = "invalid_value"
	CodeMissingField     = "missing_field"
	CodeRequestTooLarge  = "request_too_large"
	CodeMethodNotAllowed = "method_not_allowed"
	CodeNotFound         = "not_found"
	CodeConflict         = "conflict"
	CodeRateLimited      = "rate_limited"
	CodeTimeout          = "timeout"
	CodeUnavailable      = "unavailable"
	CodeInternalError    = "internal_error"
)

// NewErrorResponse creates an error response with the given details.
func NewErrorResponse(message, errorType, param, code string) *ErrorResponse {
	return &ErrorResponse{
		Error: ErrorDetail{
			Message: message,
			Type:    errorType,
			Param:   param,
			Code:    code,
		},
	}
}

// NewInvalidRequestError creates an error response for invalid requests (400).
func NewInvalidRequestError(message, param, code string) *ErrorResponse {
	return NewErrorResponse(message, ErrorTypeInvalidRequest, param, code)
}

// NewNotFoundError creates an error response for missing resources (404).
func NewNotFoundError(message string) *ErrorResponse {
	return NewErrorResponse(message, ErrorTypeNotFound, "", CodeNotFound)
}

// NewMethodNotAllowedError creates an error response for unsupported methods (405).
func NewMethodNotAllowedError(method string) *ErrorResponse {
	return NewErrorResponse("method "+method+" is not allowed", ErrorTypeMethodNotAllowed, "", CodeMethodNotAllowed)
}

// NewConflictError creates an error response for duplicate resources (409).
func NewConflictError(message string) *ErrorResponse {
	return NewErrorResponse(message, ErrorTypeConflict, "", CodeConflict)
}

// NewRateLimitError creates an error response for rejected clients (429).
func NewRateLimitError(message string) *ErrorResponse {
	return NewErrorResponse(message, ErrorTypeRateLimit, "", CodeRateLimited)
}

// NewServerError creates an error response for internal server errors (500).
func NewServerError(message string) *ErrorResponse {
	return NewErrorResponse(message, ErrorTypeServerError, "", CodeInternalError)
}

// NewServiceUnavailableError creates an error response for a disabled
// dependency (503).
func NewServiceUnavailableError(message string) *ErrorResponse {
	return NewErrorResponse(message, ErrorTypeServiceUnavailable, "", CodeUnavailable)
}

// NewGatewayTimeoutError creates an error response for expired requests (504).
func NewGatewayTimeoutError(message string) *ErrorResponse {
	return NewErrorResponse(message, ErrorTypeGatewayTimeout, "", CodeTimeout)
}

// NewInvalidInput creates the evaluate endpoint's rejection body.
func NewInvalidInput(detail ErrorDetail) *InvalidInputResponse {
	return &InvalidInputResponse{
		Error:           detail,
		EscalationFlags: []string{rules.FlagInvalidInput},
	}
}

// HTTPStatusCode returns the HTTP status code for the error type.
func (e *ErrorDetail) HTTPStatusCode() int {
	switch e.Type {
	case ErrorTypeInvalidRequest:
		return http.StatusBadRequest
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case ErrorTypeConflict:
		return http.StatusConflict
	case ErrorTypeRequestTooLarge:
		return http.StatusRequestEntityTooLarge
	case ErrorTypeRateLimit:
		return http.StatusTooManyRequests
	case ErrorTypeServiceUnavailable:
		return http.StatusServiceUnavailable
	case ErrorTypeGatewayTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
