// Package aggregation models named, possibly nested aggregation requests.
package aggregation

import (
	"errors"
	"fmt"
	"maps"
	"sort"

	"github.com/olleolleolle/search-flip/internal/domain"
	"github.com/olleolleolle/search-flip/internal/domain/search/filter"
	"github.com/olleolleolle/search-flip/internal/domain/value"
)

// Aggregation is an immutable aggregation request. Its filter, when set,
// scopes the aggregation and its sub-aggregations (rendered as a filter
// aggregation).
type Aggregation struct {
	spec   value.Object
	filter filter.Expression
	subs   map[string]Aggregation
	err    error
}

// New creates an aggregation from a raw spec such as
// {"terms": {"field": "category"}}. The spec is copied.
func New(spec value.Object) Aggregation {
	return Aggregation{spec: value.CloneObject(spec)}
}

// Terms creates a terms aggregation over field.
func Terms(field string) Aggregation {
	return Aggregation{spec: value.Object{"terms": value.Object{"field": field}}}
}

// Err returns the first error recorded while building.
func (a Aggregation) Err() error { return a.err }

// Filter returns the scoping filter.
func (a Aggregation) Filter() filter.Expression { return a.filter }

// Subs returns the sub-aggregation names in sorted order.
func (a Aggregation) Subs() []string {
	names := make([]string, 0, len(a.subs))
	for n := range a.subs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Where narrows the aggregation scope to documents matching fields.
func (a Aggregation) Where(fields map[string]any) Aggregation {
	pos, neg, err := filter.Compile(fields)
	if err != nil {
		return a.fail(err)
	}
	a.filter = a.filter.WithMust(pos...).WithMustNot(neg...)
	return a
}

// WhereNot narrows the aggregation scope to documents not matching fields.
func (a Aggregation) WhereNot(fields map[string]any) Aggregation {
	pos, neg, err := filter.Compile(fields)
	if err != nil {
		return a.fail(err)
	}
	a.filter = a.filter.WithMustNot(pos...).WithMust(neg...)
	return a
}

// FilterRaw appends a raw clause to the scope's must bucket.
func (a Aggregation) FilterRaw(obj value.Object) Aggregation {
	c, err := filter.Raw(obj)
	if err != nil {
		return a.fail(err)
	}
	a.filter = a.filter.WithMust(c)
	return a
}

// Aggregate registers a sub-aggregation. A second registration under the same
// name is deep-merged into the first.
func (a Aggregation) Aggregate(name string, sub Aggregation) Aggregation {
	if name == "" {
		return a.fail(domain.Malformed("aggregation name is required"))
	}
	if a.err != nil {
		return a
	}
	if existing, ok := a.subs[name]; ok {
		merged, err := existing.Merge(sub)
		if err != nil {
			return a.fail(err)
		}
		sub = merged
	}
	subs := maps.Clone(a.subs)
	if subs == nil {
		subs = make(map[string]Aggregation, 1)
	}
	subs[name] = sub
	a.subs = subs
	return a
}

// Merge deep-merges o into a copy of a: specs are merged key by key, filter
// clauses are concatenated and same-name sub-aggregations merge recursively.
func (a Aggregation) Merge(o Aggregation) (Aggregation, error) {
	if err := errors.Join(a.err, o.err); err != nil {
		return Aggregation{}, err
	}
	spec, err := value.Merge(a.spec, o.spec)
	if err != nil {
		return Aggregation{}, fmt.Errorf("merge aggregation: %w", err)
	}
	out := Aggregation{spec: spec, filter: a.filter.Concat(o.filter), subs: maps.Clone(a.subs)}
	for _, name := range o.Subs() {
		out = out.Aggregate(name, o.subs[name])
	}
	return out, out.err
}

// Source renders the aggregation using the negation strategy for its filter.
func (a Aggregation) Source(n filter.Negation) (value.Object, error) {
	if a.err != nil {
		return nil, a.err
	}
	out := value.CloneObject(a.spec)
	if out == nil {
		out = value.Object{}
	}
	if f := a.filter.Render(n); f != nil {
		out["filter"] = f
	}
	if len(a.subs) > 0 {
		subs, err := Render(a.subs, n)
		if err != nil {
			return nil, err
		}
		out["aggregations"] = subs
	}
	if len(out) == 0 {
		return nil, domain.Malformed("aggregation has no spec, filter or sub-aggregations")
	}
	return out, nil
}

// Render renders a name→aggregation mapping.
func Render(aggs map[string]Aggregation, n filter.Negation) (value.Object, error) {
	out := make(value.Object, len(aggs))
	for name, agg := range aggs {
		src, err := agg.Source(n)
		if err != nil {
			return nil, fmt.Errorf("aggregation %q: %w", name, err)
		}
		out[name] = src
	}
	return out, nil
}

func (a Aggregation) fail(err error) Aggregation {
	if a.err == nil {
		a.err = err
	}
	return a
}
