package scenario

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// maxCount caps integer counts so float inputs never overflow int.
const maxCount = 1_000_000_000

// toFloat interprets a loosely-typed JSON value as a finite number.
// Numeric strings are accepted; booleans, objects and arrays are not.
func toFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// toString returns v when it is a non-empty string after trimming.
func toString(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// toCount floors a value to a non-negative integer capped at maxCount.
func toCount(v any) (int, bool) {
	f, ok := toFloat(v)
	if !ok {
		return 0, false
	}
	f = math.Floor(f)
	if f < 0 {
		f = 0
	}
	if f > maxCount {
		f = maxCount
	}
	return int(f), true
}

// toUnit returns a pointer to v clamped to [0, 1], or nil when v is not numeric.
func toUnit(v any) *float64 {
	f, ok := toFloat(v)
	if !ok {
		return nil
	}
	f = clamp(f, 0, 1)
	return &f
}

// toNonNegative returns a pointer to v floored at 0, or nil when v is not numeric.
func toNonNegative(v any) *float64 {
	f, ok := toFloat(v)
	if !ok {
		return nil
	}
	if f < 0 {
		f = 0
	}
	return &f
}

// enumKey canonicalizes an enum spelling: trimmed, upper-case, with dashes
// and spaces folded to underscores.
func enumKey(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	return strings.NewReplacer("-", "_", " ", "_").Replace(s)
}

// timestampLayouts are the accepted lastUpdated layouts, tried in order.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseTimestamp parses a timestamp string and returns it in UTC.
func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// clamp bounds f to [lo, hi].
func clamp(f, lo, hi float64) float64 {
	if f < lo {
		return lo
	}
	if f > hi {
		return hi
	}
	return f
}

// describe renders a raw value for inclusion in a warning.
func describe(v any) string {
	switch t := v.(type) {
	case string:
		return strconv.Quote(t)
	case nil:
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "<unprintable>"
	}
	if len(b) > 64 {
		return string(b[:61]) + "..."
	}
	return string(b)
}
