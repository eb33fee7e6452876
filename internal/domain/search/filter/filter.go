package filter

import (
	"slices"

	"github.com/olleolleolle/search-flip/internal/domain"
	"github.com/olleolleolle/search-flip/internal/domain/value"
)

// Kind tags the clause variant.
type Kind string

// Clause kinds.
const (
	KindTerm   Kind = "term"
	KindTerms  Kind = "terms"
	KindRange  Kind = "range"
	KindExists Kind = "exists"
	KindRaw    Kind = "raw"
)

// Clause is a single structural filter unit.
type Clause struct {
	kind   Kind
	field  string
	value  any
	values []any
	rng    Range
	raw    value.Object
}

// Term creates an exact-match clause.
func Term(field string, v any) (Clause, error) {
	if field == "" {
		return Clause{}, domain.Malformed("term: field is required")
	}
	return Clause{kind: KindTerm, field: field, value: v}, nil
}

// Terms creates a clause matching any of the listed values.
func Terms(field string, values []any) (Clause, error) {
	if field == "" {
		return Clause{}, domain.Malformed("terms: field is required")
	}
	if len(values) == 0 {
		return Clause{}, domain.Malformed("terms: field %q has an empty value list", field)
	}
	return Clause{kind: KindTerms, field: field, values: slices.Clone(values)}, nil
}

// NewRange creates a range clause. The range is validated.
func NewRange(field string, r Range) (Clause, error) {
	if field == "" {
		return Clause{}, domain.Malformed("range: field is required")
	}
	if err := r.Validate(); err != nil {
		return Clause{}, domain.Malformed("range on %q: %v", field, err)
	}
	return Clause{kind: KindRange, field: field, rng: r}, nil
}

// Exists creates a field-presence clause.
func Exists(field string) (Clause, error) {
	if field == "" {
		return Clause{}, domain.Malformed("exists: field is required")
	}
	return Clause{kind: KindExists, field: field}, nil
}

// Raw wraps a fully formed clause. It is rendered verbatim.
func Raw(obj value.Object) (Clause, error) {
	if len(obj) == 0 {
		return Clause{}, domain.Malformed("raw clause must be a non-empty object")
	}
	return Clause{kind: KindRaw, raw: value.CloneObject(obj)}, nil
}

// Kind returns the clause variant.
func (c Clause) Kind() Kind { return c.kind }

// Field returns the field name (empty for raw clauses).
func (c Clause) Field() string { return c.field }

// Value returns the term value.
func (c Clause) Value() any { return c.value }

// Values returns the terms values.
func (c Clause) Values() []any { return c.values }

// Range returns the range bounds.
func (c Clause) Range() Range { return c.rng }

// Source renders the clause in the backend wire shape.
func (c Clause) Source() value.Object {
	switch c.kind {
	case KindTerm:
		return value.Object{"term": value.Object{c.field: c.value}}
	case KindTerms:
		return value.Object{"terms": value.Object{c.field: slices.Clone(c.values)}}
	case KindRange:
		return value.Object{"range": value.Object{c.field: c.rng.Source()}}
	case KindExists:
		return value.Object{"exists": value.Object{"field": c.field}}
	case KindRaw:
		return value.CloneObject(c.raw)
	default:
		return nil
	}
}

// Expression holds must and must-not clause buckets in call order.
// It is a value: the With* methods never touch the receiver's backing arrays.
type Expression struct {
	must    []Clause
	mustNot []Clause
}

// Must returns the must clauses.
func (e Expression) Must() []Clause { return e.must }

// MustNot returns the must-not clauses.
func (e Expression) MustNot() []Clause { return e.mustNot }

// IsEmpty reports whether the expression has no clauses.
func (e Expression) IsEmpty() bool {
	return len(e.must) == 0 && len(e.mustNot) == 0
}

// WithMust returns a copy with clauses appended to the must bucket.
func (e Expression) WithMust(cs ...Clause) Expression {
	if len(cs) > 0 {
		e.must = append(slices.Clip(e.must), cs...)
	}
	return e
}

// WithMustNot returns a copy with clauses appended to the must-not bucket.
func (e Expression) WithMustNot(cs ...Clause) Expression {
	if len(cs) > 0 {
		e.mustNot = append(slices.Clip(e.mustNot), cs...)
	}
	return e
}

// Concat returns a copy with both buckets of o appended.
func (e Expression) Concat(o Expression) Expression {
	return e.WithMust(o.must...).WithMustNot(o.mustNot...)
}

// Render renders the expression with the given negation strategy.
// An empty expression renders as nil.
func (e Expression) Render(n Negation) value.Object {
	if e.IsEmpty() {
		return nil
	}
	if n == nil {
		n = MustNot{}
	}
	return n.Render(sources(e.must), sources(e.mustNot))
}

func sources(cs []Clause) []any {
	if len(cs) == 0 {
		return nil
	}
	out := make([]any, len(cs))
	for i := range cs {
		out[i] = cs[i].Source()
	}
	return out
}
