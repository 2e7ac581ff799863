package coerce

import "reflect"

// Fields is read-only access to an untyped provider object. Lookups on a nil
// Fields, or of missing keys, behave like lookups of absent values.
type Fields map[string]any

// AsFields reports whether v is a string-keyed object and returns it as Fields.
func AsFields(v any) (Fields, bool) {
	switch x := v.(type) {
	case nil:
		return nil, false
	case Fields:
		return x, x != nil
	case map[string]any:
		return Fields(x), x != nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String || rv.IsNil() {
		return nil, false
	}
	out := make(Fields, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}

// AsList reports whether v is a list and returns its elements.
func AsList(v any) ([]any, bool) {
	switch x := v.(type) {
	case nil:
		return nil, false
	case []any:
		return x, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice || rv.IsNil() {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// Get returns the raw value at key.
func (f Fields) Get(key string) any {
	if f == nil {
		return nil
	}
	return f[key]
}

// Str returns the value at key when it is a string, otherwise "".
func (f Fields) Str(key string) string {
	s, _ := f.Get(key).(string)
	return s
}

// Object returns the nested object at key, or nil Fields.
func (f Fields) Object(key string) Fields {
	o, _ := AsFields(f.Get(key))
	return o
}

// First returns the first value among keys that is present: not nil, not an
// empty string and not an empty list.
func (f Fields) First(keys ...string) any {
	for _, k := range keys {
		v := f.Get(k)
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok && s == "" {
			continue
		}
		if l, ok := AsList(v); ok && len(l) == 0 {
			continue
		}
		return v
	}
	return nil
}
