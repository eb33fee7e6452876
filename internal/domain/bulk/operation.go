// Package bulk models line-delimited bulk mutations and their per-item results.
package bulk

import (
	"fmt"
	"reflect"

	"github.com/olleolleolle/search-flip/internal/codec"
	"github.com/olleolleolle/search-flip/internal/domain"
	"github.com/olleolleolle/search-flip/internal/domain/value"
)

// Action is a bulk mutation kind.
type Action string

// Bulk actions.
const (
	ActionIndex  Action = "index"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	switch a {
	case ActionIndex, ActionCreate, ActionUpdate, ActionDelete:
		return true
	}
	return false
}

// Operation is one bulk item. An empty Index targets the request's index.
type Operation struct {
	Action   Action
	Index    string
	ID       string
	Routing  string
	Document any
}

// Validate checks the operation before it is queued.
func (o Operation) Validate() error {
	if !o.Action.Valid() {
		return domain.Malformed("bulk: unknown action %q", o.Action)
	}
	if o.ID == "" && (o.Action == ActionUpdate || o.Action == ActionDelete) {
		return domain.Malformed("bulk: %s requires an id", o.Action)
	}
	if o.Action != ActionDelete && IsNil(o.Document) {
		return domain.Malformed("bulk: %s requires a document", o.Action)
	}
	return nil
}

// Metadata returns the action line.
func (o Operation) Metadata() value.Object {
	meta := value.Object{}
	if o.Index != "" {
		meta["_index"] = o.Index
	}
	if o.ID != "" {
		meta["_id"] = o.ID
	}
	if o.Routing != "" {
		meta["routing"] = o.Routing
	}
	return value.Object{string(o.Action): meta}
}

// Encode serializes ops as one bulk body: an action line per operation,
// followed by the document line for every action except delete.
func Encode(c codec.Codec, ops []Operation) ([]byte, error) {
	lines := make([]any, 0, 2*len(ops))
	for i, op := range ops {
		if err := op.Validate(); err != nil {
			return nil, fmt.Errorf("operation %d: %w", i, err)
		}
		lines = append(lines, op.Metadata())
		if op.Action != ActionDelete {
			lines = append(lines, op.Document)
		}
	}
	body, err := codec.EncodeLines(c, lines...)
	if err != nil {
		return nil, fmt.Errorf("encode bulk body: %w", err)
	}
	return body, nil
}

// IsNil reports whether v is nil or holds a nil pointer or map.
func IsNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}
