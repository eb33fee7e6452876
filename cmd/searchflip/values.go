package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	searchflip "github.com/olleolleolle/search-flip"
)

// parseFields turns field=value pairs into filter fields.
//
//	a,b    any of a or b
//	lo..hi inclusive range, either side may be empty
//	null   field is missing
//
// Numbers and booleans are typed; everything else is a string.
func parseFields(pairs []string) (searchflip.Fields, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	fields := make(searchflip.Fields, len(pairs))
	for _, p := range pairs {
		key, raw, ok := strings.Cut(p, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("expected field=value, got %q", p)
		}
		v, err := parseValue(raw)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", key, err)
		}
		fields[key] = v
	}
	return fields, nil
}

func parseValue(raw string) (any, error) {
	if lo, hi, ok := strings.Cut(raw, ".."); ok {
		if lo == "" && hi == "" {
			return nil, errors.New("range needs at least one bound")
		}
		var gte, lte any
		if lo != "" {
			gte = parseScalar(lo)
		}
		if hi != "" {
			lte = parseScalar(hi)
		}
		return searchflip.Bounds(nil, gte, nil, lte), nil
	}
	if strings.Contains(raw, ",") {
		parts := strings.Split(raw, ",")
		out := make([]any, 0, len(parts))
		for _, p := range parts {
			if p == "" {
				continue
			}
			out = append(out, parseScalar(p))
		}
		return out, nil
	}
	if raw == "null" {
		return nil, nil
	}
	return parseScalar(raw), nil
}

func parseScalar(s string) any {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if s == "true" || s == "false" {
		return s == "true"
	}
	return s
}

// parseSort turns "field" or "field:order" into sort specs.
func parseSort(specs []string) ([]any, error) {
	out := make([]any, 0, len(specs))
	for _, s := range specs {
		field, order, ok := strings.Cut(s, ":")
		if field == "" {
			return nil, fmt.Errorf("empty sort field in %q", s)
		}
		if !ok {
			out = append(out, field)
			continue
		}
		switch order {
		case "asc", "desc":
		default:
			return nil, fmt.Errorf("sort order must be asc or desc, got %q", order)
		}
		out = append(out, map[string]any{field: order})
	}
	return out, nil
}

// parseAggs turns name=field pairs into terms aggregations. A bare field
// names the aggregation after itself.
func parseAggs(specs []string) (map[string]string, []string, error) {
	aggs := make(map[string]string, len(specs))
	order := make([]string, 0, len(specs))
	for _, s := range specs {
		name, field, ok := strings.Cut(s, "=")
		if !ok {
			field = name
		}
		if name == "" || field == "" {
			return nil, nil, fmt.Errorf("expected name=field, got %q", s)
		}
		if _, dup := aggs[name]; !dup {
			order = append(order, name)
		}
		aggs[name] = field
	}
	return aggs, order, nil
}
