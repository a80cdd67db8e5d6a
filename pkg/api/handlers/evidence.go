package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"mercator-hq/stormwatch/pkg/api"
	"mercator-hq/stormwatch/pkg/api/types"
	"mercator-hq/stormwatch/pkg/config"
	"mercator-hq/stormwatch/pkg/evidence"
	"mercator-hq/stormwatch/pkg/evidence/export"
	"mercator-hq/stormwatch/pkg/evidence/query"
)

// EvidenceHandler serves read access to the evaluation audit trail.
type EvidenceHandler struct {
	storage evidence.Storage
	limits  *config.QueryConfig
	logger  *slog.Logger
}

// NewEvidenceHandler creates an EvidenceHandler.
func NewEvidenceHandler(storage evidence.Storage, limits *config.QueryConfig, logger *slog.Logger) *EvidenceHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EvidenceHandler{
		storage: storage,
		limits:  limits,
		logger:  logger.With("component", "handlers.evidence"),
	}
}

// Register mounts the evidence routes on mux.
func (h *EvidenceHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/evidence", h.list)
	mux.HandleFunc("GET /v1/evidence/export", h.export)
}

// list answers GET /v1/evidence?scenario_id=&hash=&etr_band=&source=&flag=
// &blocked_action=&cache_hit=&start=&end=&limit=&offset=&sort_by=&sort_order=.
func (h *EvidenceHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	q, err := parseEvidenceQuery(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := query.Validate(q, h.limits); err != nil {
		h.fail(w, r, err)
		return
	}
	query.ApplyDefaults(q, h.limits)

	recs, err := h.storage.Query(ctx, q)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	total, err := h.storage.Count(ctx, q)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := api.WriteJSON(w, http.StatusOK, types.EvidenceList{
		Records: recs,
		Total:   total,
		Limit:   q.Limit,
		Offset:  q.Offset,
	}); err != nil {
		h.logger.ErrorContext(ctx, "failed to write response", "error", err)
	}
}

// export streams matching records as JSON or CSV (?format=json|csv).
func (h *EvidenceHandler) export(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	exporter, err := export.ForFormat(format, false)
	if err != nil {
		h.fail(w, r, &api.RequestError{Message: err.Error(), Code: types.CodeInvalidValue, Param: "format"})
		return
	}

	q, err := parseEvidenceQuery(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := query.Validate(q, h.limits); err != nil {
		h.fail(w, r, err)
		return
	}
	query.ApplyDefaults(q, h.limits)

	recordsCh, errCh, err := h.storage.QueryStream(ctx, q)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	contentType := "application/json"
	if format == "csv" {
		contentType = "text/csv"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=evidence.%s", format))

	if err := exporter.ExportStream(ctx, recordsCh, w); err != nil {
		h.logger.ErrorContext(ctx, "evidence export failed", "format", format, "error", err)
		return
	}
	if err := <-errCh; err != nil {
		h.logger.ErrorContext(ctx, "evidence stream failed", "format", format, "error", err)
	}
}

func (h *EvidenceHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	errResp := api.HandleError(err)
	if errResp.Error.HTTPStatusCode() >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "evidence request failed", "error", err)
	}
	if err := api.WriteErrorResponse(w, errResp); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to write error response", "error", err)
	}
}

func parseEvidenceQuery(r *http.Request) (*evidence.Query, error) {
	params := r.URL.Query()
	q := &evidence.Query{
		ScenarioID:    params.Get("scenario_id"),
		Hash:          params.Get("hash"),
		ETRBand:       params.Get("etr_band"),
		Source:        evidence.Source(params.Get("source")),
		Flag:          params.Get("flag"),
		BlockedAction: params.Get("blocked_action"),
		SortBy:        params.Get("sort_by"),
		SortOrder:     params.Get("sort_order"),
	}

	var err error
	if q.Limit, err = api.QueryInt(r, "limit"); err != nil {
		return nil, err
	}
	if q.Offset, err = api.QueryInt(r, "offset"); err != nil {
		return nil, err
	}

	if raw := params.Get("cache_hit"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, &api.RequestError{Message: "cache_hit must be a boolean", Code: types.CodeInvalidValue, Param: "cache_hit"}
		}
		q.CacheHit = &v
	}

	for _, p := range []struct {
		name string
		dst  **time.Time
	}{
		{"start", &q.StartTime},
		{"end", &q.EndTime},
	} {
		raw := params.Get(p.name)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, &api.RequestError{
				Message: fmt.Sprintf("%s must be an RFC 3339 timestamp", p.name),
				Code:    types.CodeInvalidValue,
				Param:   p.name,
			}
		}
		*p.dst = &t
	}

	return q, nil
}
