package query

import (
	"fmt"

	"mercator-hq/stormwatch/pkg/config"
	"mercator-hq/stormwatch/pkg/evidence"
)

// ValidSortFields contains the fields that can be used for sorting.
var ValidSortFields = map[string]bool{
	"evaluated_at":   true,
	"recorded_at":    true,
	"etr_confidence": true,
}

// ValidSortOrders contains the valid sort orders.
var ValidSortOrders = map[string]bool{
	"asc":  true,
	"desc": true,
}

// ValidBands contains the ETR bands a query may filter on.
var ValidBands = map[string]bool{
	"LOW":     true,
	"MEDIUM":  true,
	"HIGH":    true,
	"UNKNOWN": true,
}

// Validate checks q against the limits in cfg.
func Validate(q *evidence.Query, cfg *config.QueryConfig) error {
	if q.Limit < 0 {
		return evidence.NewQueryError(q, fmt.Errorf("limit must be >= 0, got %d", q.Limit))
	}
	if q.Limit > cfg.MaxLimit {
		return evidence.NewQueryError(q, fmt.Errorf("limit must be <= %d, got %d", cfg.MaxLimit, q.Limit))
	}
	if q.Offset < 0 {
		return evidence.NewQueryError(q, fmt.Errorf("offset must be >= 0, got %d", q.Offset))
	}

	if q.SortBy != "" && !ValidSortFields[q.SortBy] {
		return evidence.NewQueryError(q, fmt.Errorf("invalid sort field: %s", q.SortBy))
	}
	if q.SortOrder != "" && !ValidSortOrders[q.SortOrder] {
		return evidence.NewQueryError(q, fmt.Errorf("invalid sort order: %s (must be 'asc' or 'desc')", q.SortOrder))
	}

	if q.StartTime != nil && q.EndTime != nil && q.StartTime.After(*q.EndTime) {
		return evidence.NewQueryError(q, fmt.Errorf("start_time must be before end_time"))
	}

	if q.ETRBand != "" && !ValidBands[q.ETRBand] {
		return evidence.NewQueryError(q, fmt.Errorf("invalid etr_band: %s (must be LOW, MEDIUM, HIGH or UNKNOWN)", q.ETRBand))
	}
	if q.Source != "" && !q.Source.Valid() {
		return evidence.NewQueryError(q, fmt.Errorf("invalid source: %s (must be 'http', 'cli', or 'record')", q.Source))
	}

	return nil
}

// ApplyDefaults fills in the limit and sort order.
func ApplyDefaults(q *evidence.Query, cfg *config.QueryConfig) {
	if q.Limit == 0 {
		q.Limit = cfg.DefaultLimit
	}
	if q.SortBy == "" {
		q.SortBy = "evaluated_at"
	}
	if q.SortOrder == "" {
		q.SortOrder = "desc"
	}
}
