package coerce

import (
	"encoding/json"
	"math"
	"reflect"
	"strings"
	"time"
)

// Layout is the ISO-8601 form used for every timestamp in a report.
// UTC renders as "+00:00" rather than "Z". Sub-second values use
// LayoutMicro so the fraction always has six digits.
const (
	Layout      = "2006-01-02T15:04:05-07:00"
	LayoutMicro = "2006-01-02T15:04:05.000000-07:00"
)

// Converter is implemented by date-like values that can produce a time.Time.
// The result is treated as naive and stamped UTC.
type Converter interface {
	Time() time.Time
}

// minEpoch and maxEpoch bound the representable years 1 through 9999.
var (
	minEpoch = time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC).Unix()
	maxEpoch = time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC).Unix()
)

// Format renders t in Layout, or LayoutMicro when t has a sub-second part.
func Format(t time.Time) string {
	t = t.Truncate(time.Microsecond)
	if t.Nanosecond() != 0 {
		return t.Format(LayoutMicro)
	}
	return t.Format(Layout)
}

// FormatTimestamp renders a timestamp-like value, or returns nil when v is
// not recognisable or out of range.
func FormatTimestamp(v any) *string {
	t, ok := toTime(v)
	if !ok {
		return nil
	}
	s := Format(t)
	return &s
}

func toTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		if x.IsZero() {
			return time.Time{}, false
		}
		return x, true
	case *time.Time:
		if x == nil {
			return time.Time{}, false
		}
		return toTime(*x)
	case Converter:
		t := x.Time()
		if t.IsZero() {
			return time.Time{}, false
		}
		return naive(t), true
	case string:
		return parseTime(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return time.Time{}, false
		}
		return fromEpoch(f)
	case bool:
		return time.Time{}, false
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		sec := rv.Int()
		if sec < minEpoch || sec > maxEpoch {
			return time.Time{}, false
		}
		return time.Unix(sec, 0).UTC(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		sec := rv.Uint()
		if sec > uint64(maxEpoch) {
			return time.Time{}, false
		}
		return time.Unix(int64(sec), 0).UTC(), true
	case reflect.Float32, reflect.Float64:
		return fromEpoch(rv.Float())
	}
	return time.Time{}, false
}

func fromEpoch(f float64) (time.Time, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return time.Time{}, false
	}
	if f < float64(minEpoch) || f > float64(maxEpoch) {
		return time.Time{}, false
	}
	sec, frac := math.Modf(f)
	// microsecond precision, as the rendered layout carries no more
	usec := math.Round(frac * 1e6)
	return time.Unix(int64(sec), int64(usec)*int64(time.Microsecond)).UTC(), true
}

// naive reinterprets the wall clock of t as UTC.
func naive(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

var stringLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

func parseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range stringLayouts {
		// layouts without an offset parse as UTC
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// EarningsDate is either a single formatted timestamp or a range of them.
// It marshals as a JSON string or a JSON array respectively.
type EarningsDate struct {
	Dates []string
	Range bool
}

// MarshalJSON implements json.Marshaler.
func (e EarningsDate) MarshalJSON() ([]byte, error) {
	if !e.Range {
		if len(e.Dates) == 0 {
			return []byte("null"), nil
		}
		return json.Marshal(e.Dates[0])
	}
	dates := e.Dates
	if dates == nil {
		dates = []string{}
	}
	return json.Marshal(dates)
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *EarningsDate) UnmarshalJSON(b []byte) error {
	var one string
	if err := json.Unmarshal(b, &one); err == nil {
		*e = EarningsDate{Dates: []string{one}}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return err
	}
	*e = EarningsDate{Dates: many, Range: true}
	return nil
}

// FormatEarningsDate formats a next-earnings value that the provider reports
// either as one timestamp or as a sequence of them (a date range).
// Unformattable elements of a sequence are dropped.
func FormatEarningsDate(v any) *EarningsDate {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		dates := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			if s := FormatTimestamp(rv.Index(i).Interface()); s != nil {
				dates = append(dates, *s)
			}
		}
		return &EarningsDate{Dates: dates, Range: true}
	}
	s := FormatTimestamp(v)
	if s == nil {
		return nil
	}
	return &EarningsDate{Dates: []string{*s}}
}
