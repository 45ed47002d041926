package core

// normalizer.go converts a RawTable into canonical records:
//
//   - every null-like sentinel (empty cell, NaN, Inf, NaT, NULL, #N/A)
//     collapses to nil
//   - numeric-looking values become float64, boolean-looking values bool
//   - temporal values are rendered as "2006-01-02 15:04:05" strings, so
//     no native time type crosses this boundary
//
// Normalization is idempotent at the value level: feeding an
// already-normalized value back through NormalizeValue returns it
// unchanged (the timestamp output layout is itself an accepted input).

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// TimestampLayout is the fixed textual form every temporal value is
// rendered to.
const TimestampLayout = "2006-01-02 15:04:05"

// timeLayouts are the accepted temporal input forms, tried in order.
// The canonical output layout comes first so re-normalization is cheap.
var timeLayouts = []string{
	TimestampLayout,
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02",
	"2006/01/02",
	"02/01/2006 15:04:05",
	"02/01/2006",
}

// nullSentinels are the reader-produced values that unify to nil,
// compared case-insensitively after trimming.
var nullSentinels = map[string]bool{
	"":     true,
	"nan":  true,
	"nat":  true,
	"null": true,
	"none": true,
	"inf":  true,
	"-inf": true,
	"#n/a": true,
	"n/a":  true,
}

// Normalize converts a raw table into canonical records, preserving
// column and row order. Returns the records and the row count.
func Normalize(raw *RawTable) ([]Record, int) {
	records := make([]Record, 0, len(raw.Rows))
	for _, row := range raw.Rows {
		rec := make(Record, len(raw.Columns))
		for i, col := range raw.Columns {
			if i < len(row) {
				rec[col] = NormalizeValue(row[i])
			} else {
				rec[col] = nil
			}
		}
		records = append(records, rec)
	}
	return records, len(records)
}

// NormalizeRecords re-normalizes an already-built record sequence.
// Normalizing normalized records yields an identical sequence.
func NormalizeRecords(records []Record) []Record {
	out := make([]Record, len(records))
	for i, rec := range records {
		nrec := make(Record, len(rec))
		for col, v := range rec {
			nrec[col] = NormalizeValue(v)
		}
		out[i] = nrec
	}
	return out
}

// NormalizeValue coerces a single cell value to its canonical scalar:
// nil, bool, float64, or string.
func NormalizeValue(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case bool:
		return val
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return nil
		}
		return val
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case time.Time:
		return val.Format(TimestampLayout)
	case string:
		return normalizeString(val)
	default:
		return v
	}
}

func normalizeString(s string) any {
	trimmed := strings.TrimSpace(s)
	if nullSentinels[strings.ToLower(trimmed)] {
		return nil
	}

	switch strings.ToLower(trimmed) {
	case "true":
		return true
	case "false":
		return false
	}

	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return f
	}

	if t, ok := parseTime(trimmed); ok {
		return t.Format(TimestampLayout)
	}

	return trimmed
}

func parseTime(s string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
