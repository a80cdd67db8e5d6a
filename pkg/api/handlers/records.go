package handlers

import (
	"log/slog"
	"net/http"

	"mercator-hq/stormwatch/pkg/advisor"
	"mercator-hq/stormwatch/pkg/api"
	"mercator-hq/stormwatch/pkg/api/middleware"
	"mercator-hq/stormwatch/pkg/api/types"
	"mercator-hq/stormwatch/pkg/evidence"
	"mercator-hq/stormwatch/pkg/records"
)

// RecordsHandler serves the scenario and asset record routes.
type RecordsHandler struct {
	store    records.Store
	service  *advisor.Service
	maxBytes int64
	logger   *slog.Logger
}

// NewRecordsHandler creates a RecordsHandler.
func NewRecordsHandler(store records.Store, service *advisor.Service, maxBytes int64, logger *slog.Logger) *RecordsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecordsHandler{
		store:    store,
		service:  service,
		maxBytes: maxBytes,
		logger:   logger.With("component", "handlers.records"),
	}
}

// Register mounts the record routes on mux.
func (h *RecordsHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/scenarios", h.createScenario)
	mux.HandleFunc("GET /v1/scenarios", h.listScenarios)
	mux.HandleFunc("GET /v1/scenarios/{id}", h.getScenario)
	mux.HandleFunc("PUT /v1/scenarios/{id}", h.updateScenario)
	mux.HandleFunc("DELETE /v1/scenarios/{id}", h.deleteScenario)

	mux.HandleFunc("POST /v1/scenarios/{id}/assets", h.createAsset)
	mux.HandleFunc("GET /v1/scenarios/{id}/assets", h.listAssets)
	mux.HandleFunc("GET /v1/scenarios/{id}/assets/{assetID}", h.getAsset)
	mux.HandleFunc("PUT /v1/scenarios/{id}/assets/{assetID}", h.updateAsset)
	mux.HandleFunc("DELETE /v1/scenarios/{id}/assets/{assetID}", h.deleteAsset)

	mux.HandleFunc("POST /v1/scenarios/{id}/evaluate", h.evaluate)
}

func (h *RecordsHandler) createScenario(w http.ResponseWriter, r *http.Request) {
	var req types.RecordRequest
	if err := api.DecodeJSON(w, r, h.maxBytes, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	rec := &records.ScenarioRecord{Name: req.Name, Payload: req.Payload}
	if err := h.store.CreateScenario(r.Context(), rec); err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusCreated, rec)
}

func (h *RecordsHandler) listScenarios(w http.ResponseWriter, r *http.Request) {
	limit, err := api.QueryInt(r, "limit")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	offset, err := api.QueryInt(r, "offset")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	opts := records.ListOptions{Limit: limit, Offset: offset}
	list, err := h.store.ListScenarios(r.Context(), opts)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if limit == 0 {
		limit = records.DefaultListLimit
	}
	h.respond(w, r, http.StatusOK, types.ScenarioList{
		Scenarios: list,
		Limit:     min(limit, records.MaxListLimit),
		Offset:    offset,
	})
}

func (h *RecordsHandler) getScenario(w http.ResponseWriter, r *http.Request) {
	rec, err := h.store.GetScenario(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, rec)
}

func (h *RecordsHandler) updateScenario(w http.ResponseWriter, r *http.Request) {
	var req types.RecordRequest
	if err := api.DecodeJSON(w, r, h.maxBytes, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	rec := &records.ScenarioRecord{ID: r.PathValue("id"), Name: req.Name, Payload: req.Payload}
	if err := h.store.UpdateScenario(r.Context(), rec); err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, rec)
}

func (h *RecordsHandler) deleteScenario(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteScenario(r.Context(), r.PathValue("id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RecordsHandler) createAsset(w http.ResponseWriter, r *http.Request) {
	var req types.RecordRequest
	if err := api.DecodeJSON(w, r, h.maxBytes, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	rec := &records.AssetRecord{ScenarioID: r.PathValue("id"), Name: req.Name, Payload: req.Payload}
	if err := h.store.CreateAsset(r.Context(), rec); err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusCreated, rec)
}

func (h *RecordsHandler) listAssets(w http.ResponseWriter, r *http.Request) {
	assets, err := h.store.ListAssets(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, types.AssetList{Assets: assets})
}

func (h *RecordsHandler) getAsset(w http.ResponseWriter, r *http.Request) {
	rec, err := h.store.GetAsset(r.Context(), r.PathValue("id"), r.PathValue("assetID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, rec)
}

func (h *RecordsHandler) updateAsset(w http.ResponseWriter, r *http.Request) {
	var req types.RecordRequest
	if err := api.DecodeJSON(w, r, h.maxBytes, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	rec := &records.AssetRecord{
		ID:         r.PathValue("assetID"),
		ScenarioID: r.PathValue("id"),
		Name:       req.Name,
		Payload:    req.Payload,
	}
	if err := h.store.UpdateAsset(r.Context(), rec); err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, rec)
}

func (h *RecordsHandler) deleteAsset(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteAsset(r.Context(), r.PathValue("id"), r.PathValue("assetID")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RecordsHandler) evaluate(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.EvaluateRecord(r.Context(), r.PathValue("id"), advisor.Meta{
		RequestID: middleware.GetRequestID(r),
		Source:    evidence.SourceRecord,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set(HashHeader, resp.Meta.DeterministicHash)
	h.respond(w, r, http.StatusOK, resp)
}

func (h *RecordsHandler) respond(w http.ResponseWriter, r *http.Request, status int, v any) {
	if err := api.WriteJSON(w, status, v); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to write response", "error", err)
	}
}

func (h *RecordsHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	errResp := api.HandleError(err)
	if errResp.Error.HTTPStatusCode() >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "record request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
	}
	if err := api.WriteErrorResponse(w, errResp); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to write error response", "error", err)
	}
}
