package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// Amount is a currency value in đồng. The backend sends decimal columns
// either as JSON numbers or as numeric strings ("100000.00").
type Amount float64

// UnmarshalJSON accepts numbers, numeric strings and null
func (a *Amount) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*a = 0
		return nil
	}

	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return fmt.Errorf("invalid amount: %w", err)
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*a = 0
			return nil
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", s, err)
		}
		*a = Amount(d.InexactFloat64())
		return nil
	}

	var f float64
	if err := json.Unmarshal(trimmed, &f); err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}
	*a = Amount(f)
	return nil
}

// Float64 returns the amount as a float64
func (a Amount) Float64() float64 {
	return float64(a)
}

// AmountPtr returns the float64 value behind an optional amount
func AmountPtr(a *Amount) *float64 {
	if a == nil {
		return nil
	}
	v := float64(*a)
	return &v
}

// timestampLayouts are tried in order when decoding backend dates
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Timestamp is a time that tolerates the date formats used by the backend
// (full RFC3339, naive datetimes and plain dates). Naive values are UTC.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps a time.Time
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// UnmarshalJSON parses any of the supported layouts; null and "" give the zero time
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return fmt.Errorf("invalid timestamp: %w", err)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		t.Time = time.Time{}
		return nil
	}

	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseTimestamp parses s with the backend date layouts
func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: parsed}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("invalid timestamp %q", s)
}

// MarshalJSON writes RFC3339, or null for the zero time
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339))
}

// IDList is a list of ids that the backend sends either as plain numbers
// ([1, 2]) or as objects ([{"id": 1}, {"id": 2}]).
type IDList []int64

// UnmarshalJSON accepts both shapes
func (l *IDList) UnmarshalJSON(data []byte) error {
	result := gjson.ParseBytes(data)
	if result.Type == gjson.Null {
		*l = nil
		return nil
	}
	if !result.IsArray() {
		return fmt.Errorf("invalid id list: expected array, got %s", result.Type)
	}

	ids := make(IDList, 0, len(result.Array()))
	result.ForEach(func(_, item gjson.Result) bool {
		switch {
		case item.IsObject():
			if id := item.Get("id"); id.Exists() {
				ids = append(ids, id.Int())
			}
		case item.Type == gjson.Number, item.Type == gjson.String:
			ids = append(ids, item.Int())
		}
		return true
	})

	*l = ids
	return nil
}
