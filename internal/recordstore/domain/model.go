// Package domain defines the per-user record collections shared by the
// booking and entitlement engines.
package domain

import (
	"context"
	"strconv"
	"strings"
)

// Record is one keyed entry in a user's record collection. Legacy records may
// carry their identity in the collection key, a named field, or both.
type Record struct {
	Key    string         `json:"key"`
	Fields map[string]any `json:"fields"`
}

// Collection is an ordered list of records. Order is storage order and is
// significant: fallback lookups scan in collection order.
type Collection []Record

// Store is a per-user keyed collection store. Get returns the whole named
// collection (nil when absent); Put atomically replaces it.
type Store interface {
	Get(ctx context.Context, userID, set string) (Collection, error)
	Put(ctx context.Context, userID, set string, collection Collection) error
}

// FindKey returns the index of the record with the given collection key.
func (c Collection) FindKey(key string) (int, bool) {
	for i := range c {
		if c[i].Key == key {
			return i, true
		}
	}
	return -1, false
}

// FindRecord returns the record with the given collection key.
func (c Collection) FindRecord(key string) (Record, bool) {
	if i, ok := c.FindKey(key); ok {
		return c[i], true
	}
	return Record{}, false
}

// Upsert replaces the record with the same key or appends it.
func (c Collection) Upsert(rec Record) Collection {
	if i, ok := c.FindKey(rec.Key); ok {
		c[i] = rec
		return c
	}
	return append(c, rec)
}

// Has reports whether the field is present.
func (r Record) Has(field string) bool {
	_, ok := r.Fields[field]
	return ok
}

// Set assigns a field value, allocating the field map if needed.
func (r *Record) Set(field string, value any) {
	if r.Fields == nil {
		r.Fields = map[string]any{}
	}
	r.Fields[field] = value
}

// String returns the field coerced to a string.
func (r Record) String(field string) string {
	switch v := r.Fields[field].(type) {
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case bool:
		if v {
			return "1"
		}
		return "0"
	default:
		return ""
	}
}

// Int64 returns the field coerced to an integer. JSON round-trips store
// numbers as float64; legacy writers stored them as strings.
func (r Record) Int64(field string) (int64, bool) {
	switch v := r.Fields[field].(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

// Float64 returns the field coerced to a float.
func (r Record) Float64(field string) (float64, bool) {
	switch v := r.Fields[field].(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

// Bool reports whether the field holds a truthy value.
func (r Record) Bool(field string) bool {
	return Truthy(r.Fields[field])
}

// Map returns the field as a nested record, when it is one.
func (r Record) Map(field string) (map[string]any, bool) {
	v, ok := r.Fields[field].(map[string]any)
	return v, ok
}

// Truthy mirrors the loose truthiness of the legacy data: nil, false, zero
// numbers, empty strings, "0" and empty containers are all false.
func Truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case float64:
		return v != 0
	case int64:
		return v != 0
	case int:
		return v != 0
	case string:
		trimmed := strings.TrimSpace(v)
		return trimmed != "" && trimmed != "0"
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	default:
		return true
	}
}
