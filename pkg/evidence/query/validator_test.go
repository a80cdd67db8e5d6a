package query

import (
	"errors"
	"testing"
	"time"

	"mercator-hq/stormwatch/pkg/config"
	"mercator-hq/stormwatch/pkg/evidence"
)

var limits = &config.QueryConfig{DefaultLimit: 100, MaxLimit: 1000}

func TestValidate(t *testing.T) {
	later := time.Now()
	earlier := later.Add(-time.Hour)

	tests := []struct {
		name    string
		query   evidence.Query
		wantErr bool
	}{
		{"empty", evidence.Query{}, false},
		{"full", evidence.Query{Limit: 10, Offset: 5, SortBy: "etr_confidence", SortOrder: "asc", ETRBand: "LOW", Source: evidence.SourceHTTP}, false},
		{"time range", evidence.Query{StartTime: &earlier, EndTime: &later}, false},
		{"negative limit", evidence.Query{Limit: -1}, true},
		{"limit above max", evidence.Query{Limit: 1001}, true},
		{"negative offset", evidence.Query{Offset: -1}, true},
		{"bad sort field", evidence.Query{SortBy: "hash; DROP TABLE evidence"}, true},
		{"bad sort order", evidence.Query{SortOrder: "sideways"}, true},
		{"inverted range", evidence.Query{StartTime: &later, EndTime: &earlier}, true},
		{"bad band", evidence.Query{ETRBand: "low"}, true},
		{"bad source", evidence.Query{Source: "kafka"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(&tt.query, limits)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			var qerr *evidence.QueryError
			if err != nil && !errors.As(err, &qerr) {
				t.Errorf("error %T is not a QueryError", err)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	q := &evidence.Query{}
	ApplyDefaults(q, limits)
	if q.Limit != 100 || q.SortBy != "evaluated_at" || q.SortOrder != "desc" {
		t.Errorf("defaults = %+v", q)
	}

	q = &evidence.Query{Limit: 5, SortOrder: "asc"}
	ApplyDefaults(q, limits)
	if q.Limit != 5 || q.SortOrder != "asc" {
		t.Errorf("explicit values overwritten: %+v", q)
	}
}
