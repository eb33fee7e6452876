package filter

import (
	"reflect"
	"sort"
)

// Compile translates a field→value mapping into clauses, in field-name order.
//
// Sequences become terms clauses, Range values become range clauses and other
// scalars become term clauses; those are returned in pos. A nil value becomes
// an exists clause returned in neg, so that routing pos into must and neg into
// must-not selects documents lacking the field.
func Compile(fields map[string]any) (pos, neg []Clause, err error) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, field := range keys {
		v := fields[field]
		if isNil(v) {
			c, err := Exists(field)
			if err != nil {
				return nil, nil, err
			}
			neg = append(neg, c)
			continue
		}
		c, err := compileValue(field, v)
		if err != nil {
			return nil, nil, err
		}
		pos = append(pos, c)
	}
	return pos, neg, nil
}

func compileValue(field string, v any) (Clause, error) {
	switch t := v.(type) {
	case Range:
		return NewRange(field, t)
	case *Range:
		return NewRange(field, *t)
	case []byte:
		return Term(field, string(t))
	case []any:
		return Terms(field, t)
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		values := make([]any, rv.Len())
		for i := range values {
			values[i] = rv.Index(i).Interface()
		}
		return Terms(field, values)
	}
	return Term(field, v)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	// Nil slices stay sequences and fail as empty terms lists.
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}
