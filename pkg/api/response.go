package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"mercator-hq/stormwatch/pkg/api/types"
)

// WriteJSON writes v as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}
	return nil
}

// WriteErrorResponse writes errResp with the status code of its type.
func WriteErrorResponse(w http.ResponseWriter, errResp *types.ErrorResponse) error {
	return WriteJSON(w, errResp.Error.HTTPStatusCode(), errResp)
}

// WriteInvalidInput writes the evaluate endpoint's rejection body.
func WriteInvalidInput(w http.ResponseWriter, detail types.ErrorDetail) error {
	return WriteJSON(w, detail.HTTPStatusCode(), types.NewInvalidInput(detail))
}
