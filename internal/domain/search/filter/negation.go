package filter

import "github.com/olleolleolle/search-flip/internal/domain/value"

// Negation renders must and must-not buckets into a boolean filter object.
// Which form a backend accepts depends on its protocol version.
type Negation interface {
	Render(must, mustNot []any) value.Object
}

// MustNot renders negated clauses with the native bool must_not operator.
type MustNot struct{}

// Render implements Negation.
func (MustNot) Render(must, mustNot []any) value.Object {
	b := value.Object{}
	if len(must) > 0 {
		b["must"] = must
	}
	if len(mustNot) > 0 {
		b["must_not"] = mustNot
	}
	return value.Object{"bool": b}
}

// NotFilter renders negated clauses in the legacy prefixed form, each one as
// a {"not": {"filter": clause}} entry of the must bucket.
type NotFilter struct{}

// Render implements Negation.
func (NotFilter) Render(must, mustNot []any) value.Object {
	all := make([]any, 0, len(must)+len(mustNot))
	all = append(all, must...)
	for _, c := range mustNot {
		all = append(all, value.Object{"not": value.Object{"filter": c}})
	}
	return value.Object{"bool": value.Object{"must": all}}
}
