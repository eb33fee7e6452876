// Package value holds helpers for JSON-like request fragments.
package value

import (
	"fmt"

	"github.com/imdario/mergo"
)

// Object is a decoded JSON object or a request fragment built by callers.
type Object = map[string]any

// Clone deep-copies maps and slices. Scalars are returned as-is.
func Clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return CloneObject(t)
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = Clone(t[i])
		}
		return out
	default:
		return v
	}
}

// CloneObject deep-copies an object. A nil object stays nil.
func CloneObject(o Object) Object {
	if o == nil {
		return nil
	}
	out := make(Object, len(o))
	for k, v := range o {
		out[k] = Clone(v)
	}
	return out
}

// Merge deep-merges src into a copy of dst. Nested objects are merged key by
// key, other values in src replace those in dst. Neither input is modified.
func Merge(dst, src Object) (Object, error) {
	out := CloneObject(dst)
	if out == nil {
		out = Object{}
	}
	if err := mergo.Merge(&out, CloneObject(src), mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("merge objects: %w", err)
	}
	return out, nil
}
