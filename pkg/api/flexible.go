package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var null = []byte("null")

// Flexible decodes a field the backend sends either as a native JSON value
// or as a string holding JSON-encoded text. Either form yields the same
// typed Value; null, "" and "null" leave Valid false.
type Flexible[T any] struct {
	Value T
	Valid bool
}

func (f *Flexible[T]) UnmarshalJSON(data []byte) error {
	*f = Flexible[T]{}

	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, null) {
		return nil
	}

	if data[0] == '"' {
		var encoded string
		if err := json.Unmarshal(data, &encoded); err != nil {
			return err
		}
		encoded = strings.TrimSpace(encoded)
		if encoded == "" || encoded == "null" {
			return nil
		}
		data = []byte(encoded)
	}

	if err := json.Unmarshal(data, &f.Value); err != nil {
		return fmt.Errorf("failed to decode embedded json: %w", err)
	}
	f.Valid = true
	return nil
}

func (f Flexible[T]) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return null, nil
	}
	return json.Marshal(f.Value)
}

// Get returns the value, or the zero value when absent
func (f Flexible[T]) Get() T { return f.Value }

// AppContent is the interactive app payload of a message: either an HTML
// string or a structured object kept as its JSON text.
type AppContent string

func (a *AppContent) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, null):
		*a = ""
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = AppContent(s)
	default:
		*a = AppContent(data)
	}
	return nil
}

// FlexID accepts numeric or string identifiers
type FlexID string

func (id *FlexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, null) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = FlexID(n.String())
	return nil
}

// Timestamp parses the ISO-8601 forms the backend emits, with or without a
// zone offset (naive values are taken as UTC).
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, null) {
		t.Time = time.Time{}
		return nil
	}
	if len(data) > 0 && data[0] != '"' {
		// Unix seconds
		secs, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return fmt.Errorf("invalid timestamp %s", data)
		}
		t.Time = time.Unix(0, int64(secs*float64(time.Second))).UTC()
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return null, nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

// ParseTimestamp parses one of the accepted timestamp layouts
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}
