package analysis

import (
	"strconv"
	"time"
)

// Result shaping: the driver returns loosely typed row values, and 64-bit
// aggregates commonly arrive as strings. All coercion happens here, at the
// boundary, never inside handler logic.

// ToFloat coerces a driver value to a float64, or nil for NULL/unparsable.
func ToFloat(v any) *float64 {
	switch n := v.(type) {
	case nil:
		return nil
	case float64:
		return &n
	case float32:
		f := float64(n)
		return &f
	case int64:
		f := float64(n)
		return &f
	case int:
		f := float64(n)
		return &f
	case string:
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return &f
		}
		return nil
	case []byte:
		if f, err := strconv.ParseFloat(string(n), 64); err == nil {
			return &f
		}
		return nil
	}
	return nil
}

// ToInt64 coerces a driver value to an int64, defaulting to 0.
func ToInt64(v any) int64 {
	if f := ToFloat(v); f != nil {
		return int64(*f)
	}
	return 0
}

// ToTime coerces a driver value to a timestamp. The pq driver hands back
// time.Time for timestamp columns, but DATE_TRUNC results can surface as
// strings depending on the connection settings.
func ToTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		return parseTimeString(t)
	case []byte:
		return parseTimeString(string(t))
	}
	return time.Time{}, false
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTimeString(s string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// GroupKey normalizes a group-by value for presentation. Byte slices become
// strings; everything else passes through.
func GroupKey(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
