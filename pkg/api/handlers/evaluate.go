package handlers

import (
	"log/slog"
	"net/http"

	"mercator-hq/stormwatch/pkg/advisor"
	"mercator-hq/stormwatch/pkg/api"
	"mercator-hq/stormwatch/pkg/api/middleware"
	"mercator-hq/stormwatch/pkg/api/types"
	"mercator-hq/stormwatch/pkg/evidence"
)

// HashHeader carries the deterministic hash of an evaluation response.
const HashHeader = "X-Deterministic-Hash"

// allowEvaluate is the Allow header of the evaluate endpoints.
const allowEvaluate = "POST, OPTIONS"

// EvaluateHandler serves POST /v1/evaluate and its /evaluate alias.
type EvaluateHandler struct {
	service  *advisor.Service
	maxBytes int64
	logger   *slog.Logger
}

// NewEvaluateHandler creates an EvaluateHandler. Bodies over maxBytes are
// rejected with 413.
func NewEvaluateHandler(service *advisor.Service, maxBytes int64, logger *slog.Logger) *EvaluateHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EvaluateHandler{
		service:  service,
		maxBytes: maxBytes,
		logger:   logger.With("component", "handlers.evaluate"),
	}
}

// ServeHTTP implements http.Handler.
func (h *EvaluateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	switch r.Method {
	case http.MethodPost:
	case http.MethodOptions:
		// Reached only when CORS is disabled.
		w.Header().Set("Allow", allowEvaluate)
		w.WriteHeader(http.StatusNoContent)
		return
	default:
		w.Header().Set("Allow", allowEvaluate)
		if err := api.WriteErrorResponse(w, types.NewMethodNotAllowedError(r.Method)); err != nil {
			h.logger.ErrorContext(ctx, "failed to write error response", "error", err)
		}
		return
	}

	in, err := api.ParseScenarioInput(w, r, h.maxBytes)
	if err != nil {
		h.logger.WarnContext(ctx, "rejected evaluation request",
			"request_id", middleware.GetRequestID(r),
			"error", err,
		)
		detail := api.HandleError(err).Error
		if err := api.WriteInvalidInput(w, detail); err != nil {
			h.logger.ErrorContext(ctx, "failed to write error response", "error", err)
		}
		return
	}

	if err := ctx.Err(); err != nil {
		_ = api.WriteErrorResponse(w, api.HandleError(err))
		return
	}

	resp := h.service.Evaluate(ctx, in, advisor.Meta{
		RequestID: middleware.GetRequestID(r),
		Source:    evidence.SourceHTTP,
	})

	w.Header().Set(HashHeader, resp.Meta.DeterministicHash)
	if err := api.WriteJSON(w, http.StatusOK, resp); err != nil {
		h.logger.ErrorContext(ctx, "failed to write evaluation response", "error", err)
	}
}
