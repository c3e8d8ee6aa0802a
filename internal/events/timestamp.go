package events

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Timestamps arrive in four encodings: ISO-8601 date strings, Unix
// seconds, Unix milliseconds, and Unix microseconds, with the numeric
// forms appearing both as JSON numbers and as digit strings. Every
// duration, ordering, and time-window metric depends on normalizing
// them identically, so this is the only place that decodes them.

const (
	microsThreshold = 1e14 // above this, the value is microseconds
	millisThreshold = 1e11 // below this, the value is seconds
)

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// NormalizeTimestamp converts a wire timestamp to Unix milliseconds.
//
// Precedence: a string that parses as a date with a year strictly
// between 1970 and 2100 wins; otherwise the value is coerced to a
// number and scaled by magnitude (>1e14 microseconds, <1e11 seconds,
// else milliseconds). Returns false for anything unparseable.
func NormalizeTimestamp(v any) (int64, bool) {
	switch t := v.(type) {
	case nil:
		return 0, false
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		for _, layout := range dateLayouts {
			parsed, err := time.Parse(layout, s)
			if err != nil {
				continue
			}
			if y := parsed.Year(); y > 1970 && y < 2100 {
				return parsed.UnixMilli(), true
			}
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return scaleToMillis(n), true
	case float64:
		return scaleToMillis(t), true
	case float32:
		return scaleToMillis(float64(t)), true
	case int:
		return scaleToMillis(float64(t)), true
	case int64:
		return scaleToMillis(float64(t)), true
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return 0, false
		}
		return scaleToMillis(n), true
	default:
		return 0, false
	}
}

func scaleToMillis(n float64) int64 {
	switch {
	case n > microsThreshold:
		return int64(n / 1000)
	case n < millisThreshold:
		return int64(n * 1000)
	default:
		return int64(n)
	}
}
