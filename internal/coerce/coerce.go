// Package coerce converts loosely-typed provider values into numbers and
// timestamps. Every function is total: a value that cannot be converted
// yields nil instead of an error.
package coerce

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// ToFloat converts v to a float64, or returns nil.
func ToFloat(v any) *float64 {
	f, ok := toFloat(v)
	if !ok {
		return nil
	}
	return &f
}

// ToPercent converts a fraction to a percentage (0.07 -> 7).
func ToPercent(v any) *float64 {
	f, ok := toFloat(v)
	if !ok {
		return nil
	}
	f *= 100
	return &f
}

// ToInt converts v to an int64, truncating floats toward zero, or returns nil.
func ToInt(v any) *int64 {
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return nil
		}
		return &i
	case json.Number:
		i, err := strconv.ParseInt(x.String(), 10, 64)
		if err == nil {
			return &i
		}
		f, err := x.Float64()
		if err != nil {
			return nil
		}
		return truncate(f)
	case bool:
		var i int64
		if x {
			i = 1
		}
		return &i
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i := rv.Int()
		return &i
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return nil
		}
		i := int64(u)
		return &i
	case reflect.Float32, reflect.Float64:
		return truncate(rv.Float())
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		return ToInt(rv.Elem().Interface())
	}
	return nil
}

func truncate(f float64) *int64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	t := math.Trunc(f)
	// float64(MaxInt64) rounds up to 2^63, which is already out of range.
	if t < math.MinInt64 || t >= math.MaxInt64 {
		return nil
	}
	i := int64(t)
	return &i
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case nil:
		return 0, false
	case float64:
		return x, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.Pointer:
		if rv.IsNil() {
			return 0, false
		}
		return toFloat(rv.Elem().Interface())
	}
	return 0, false
}
