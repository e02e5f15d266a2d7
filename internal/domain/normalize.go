package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ISOFormat is the canonical stored shape of created_at: UTC, millisecond
// precision, Z suffix.
const ISOFormat = "2006-01-02T15:04:05.000Z07:00"

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime interprets a raw value as a timestamp: native time, numeric epoch
// in milliseconds, or a parseable date string. Total: reports false instead
// of failing.
func ParseTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case float64:
		return time.UnixMilli(int64(t)).UTC(), true
	case json.Number:
		if ms, err := t.Int64(); err == nil {
			return time.UnixMilli(ms).UTC(), true
		}
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed, true
			}
		}
	}
	return time.Time{}, false
}

// NormalizeCreate coerces a creatable payload into its canonical stored
// shape: identifiers to strings, numerics to numbers, seats wrapped into a
// sequence, created_at defaulted to now or reformatted to ISO-8601. The
// status enum is the only validated field.
func NormalizeCreate(doc Document, now time.Time) (Document, error) {
	for _, k := range []string{"_id", "showtime_id", "movie_id", "cinema_id", "sala_id"} {
		coerceStringField(doc, k)
	}
	coerceNumberField(doc, "sala_number")
	coerceNumberField(doc, "price_total")
	normalizeUser(doc)
	wrapSeats(doc)

	if raw, ok := doc["created_at"]; ok && raw != nil {
		if ts, ok := ParseTime(raw); ok {
			doc["created_at"] = ts.UTC().Format(ISOFormat)
		} else {
			// Unparseable input is stored verbatim as a string; the derived
			// timestamp for such a record is null and it never matches a
			// date-range filter.
			doc["created_at"] = asString(raw)
		}
	} else {
		doc["created_at"] = now.UTC().Format(ISOFormat)
	}

	if err := validateStatus(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// NormalizeUpdate applies the same coercions to the mutable subset present in
// an update payload.
func NormalizeUpdate(set Document) (Document, error) {
	coerceNumberField(set, "price_total")
	normalizeUser(set)
	wrapSeats(set)
	if err := validateStatus(set); err != nil {
		return nil, err
	}
	return set, nil
}

func validateStatus(doc Document) error {
	v, ok := doc["status"]
	if !ok {
		return nil
	}
	// A present key with a null value is still a write that sets status,
	// and null is not in the enum.
	if v == nil {
		return errInvalidStatus()
	}
	s := asString(v)
	if !statusAllowed(s) {
		return errInvalidStatus()
	}
	doc["status"] = s
	return nil
}

func normalizeUser(doc Document) {
	raw, ok := doc["user"]
	if !ok {
		return
	}
	user, ok := raw.(map[string]any)
	if !ok {
		return
	}
	out := make(map[string]any, len(user))
	for k, v := range user {
		out[k] = v
	}
	for _, k := range []string{"user_id", "email", "name"} {
		coerceStringField(out, k)
	}
	doc["user"] = out
}

func wrapSeats(doc Document) {
	raw, ok := doc["seats"]
	if !ok || raw == nil {
		return
	}
	if _, isSeq := raw.([]any); !isSeq {
		doc["seats"] = []any{raw}
	}
}

func coerceStringField(doc map[string]any, key string) {
	if v, ok := doc[key]; ok && v != nil {
		doc[key] = asString(v)
	}
}

// coerceNumberField leaves the original value untouched when it cannot be
// read as a number.
func coerceNumberField(doc map[string]any, key string) {
	if v, ok := doc[key]; ok && v != nil {
		if n, ok := asNumber(v); ok {
			doc[key] = n
		}
	}
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

func asNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f, true
		}
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}
