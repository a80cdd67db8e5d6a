package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"mercator-hq/stormwatch/pkg/api/types"
	"mercator-hq/stormwatch/pkg/scenario"
)

// DefaultMaxBodyBytes applies when the server configuration sets no limit.
const DefaultMaxBodyBytes = 1 << 20

// RequestError represents a request parsing or validation error.
type RequestError struct {
	Message string
	Type    string
	Code    string
	Param   string
}

func (e *RequestError) Error() string {
	return e.Message
}

// Detail returns the error as an API error detail.
func (e *RequestError) Detail() types.ErrorDetail {
	typ := e.Type
	if typ == "" {
		typ = types.ErrorTypeInvalidRequest
	}
	return types.ErrorDetail{Message: e.Message, Type: typ, Code: e.Code, Param: e.Param}
}

// ToErrorResponse converts a RequestError to an error response.
func (e *RequestError) ToErrorResponse() *types.ErrorResponse {
	return &types.ErrorResponse{Error: e.Detail()}
}

// ReadBody reads at most maxBytes of the request body. A longer body yields
// a RequestError of type request_too_large.
func ReadBody(w http.ResponseWriter, r *http.Request, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, &RequestError{
				Message: fmt.Sprintf("request body exceeds maximum size of %d bytes", maxBytes),
				Type:    types.ErrorTypeRequestTooLarge,
				Code:    types.CodeRequestTooLarge,
				Param:   "body",
			}
		}
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	return body, nil
}

// ParseScenarioInput reads and decodes a scenario from the request body.
func ParseScenarioInput(w http.ResponseWriter, r *http.Request, maxBytes int64) (scenario.Input, error) {
	body, err := ReadBody(w, r, maxBytes)
	if err != nil {
		return scenario.Input{}, err
	}
	return ParseScenario(body)
}

// ParseScenario decodes a scenario document. Only document-level failures
// are errors: malformed JSON or a top-level value that is not an object.
// Everything inside a well-formed object is left to the normalizer.
func ParseScenario(data []byte) (scenario.Input, error) {
	in, err := scenario.ParseInput(data)
	if err != nil {
		if errors.Is(err, scenario.ErrNotObject) {
			return scenario.Input{}, &RequestError{
				Message: "scenario must be a JSON object",
				Code:    types.CodeNotObject,
				Param:   "body",
			}
		}
		return scenario.Input{}, &RequestError{
			Message: fmt.Sprintf("invalid JSON: %v", err),
			Code:    types.CodeInvalidJSON,
			Param:   "body",
		}
	}
	return in, nil
}

// DecodeJSON reads the request body into v.
func DecodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, v any) error {
	body, err := ReadBody(w, r, maxBytes)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return &RequestError{
			Message: fmt.Sprintf("invalid JSON: %v", err),
			Code:    types.CodeInvalidJSON,
			Param:   "body",
		}
	}
	return nil
}

// QueryInt parses an optional non-negative integer query parameter.
func QueryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, &RequestError{
			Message: fmt.Sprintf("%s must be a non-negative integer", name),
			Code:    types.CodeInvalidValue,
			Param:   name,
		}
	}
	return n, nil
}
