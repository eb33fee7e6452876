package request

import (
	"maps"
	"slices"

	"github.com/olleolleolle/search-flip/internal/domain"
	"github.com/olleolleolle/search-flip/internal/domain/search/aggregation"
	"github.com/olleolleolle/search-flip/internal/domain/search/filter"
	"github.com/olleolleolle/search-flip/internal/domain/value"
)

// DefaultSize is the backend's page size when none is requested.
const DefaultSize = 10

// Request is the accumulated state of a search. It is a value: every method
// returns a modified copy and leaves the receiver untouched. Unchanged
// fields are shared, changed containers are freshly allocated.
type Request struct {
	pre            filter.Expression
	post           filter.Expression
	aggs           map[string]aggregation.Aggregation
	sort           []any
	from           *int
	size           *int
	source         []string
	highlight      value.Object
	trackTotalHits *bool
	err            error
}

// Err returns the first build error.
func (r Request) Err() error { return r.err }

// Pre returns the pre-filter expression.
func (r Request) Pre() filter.Expression { return r.pre }

// Post returns the post-filter expression.
func (r Request) Post() filter.Expression { return r.post }

// From returns the offset, if set.
func (r Request) From() (int, bool) {
	if r.from == nil {
		return 0, false
	}
	return *r.from, true
}

// Size returns the limit, if set.
func (r Request) Size() (int, bool) {
	if r.size == nil {
		return 0, false
	}
	return *r.size, true
}

// Aggregations returns the registered aggregation names, unordered.
func (r Request) Aggregations() []string {
	return slices.Collect(maps.Keys(r.aggs))
}

// Where adds fields to the pre-filter must bucket.
func (r Request) Where(fields map[string]any) Request {
	pre, err := where(r.pre, fields, false)
	if err != nil {
		return r.fail(err)
	}
	r.pre = pre
	return r
}

// WhereNot adds fields to the pre-filter must-not bucket.
func (r Request) WhereNot(fields map[string]any) Request {
	pre, err := where(r.pre, fields, true)
	if err != nil {
		return r.fail(err)
	}
	r.pre = pre
	return r
}

// PostWhere adds fields to the post-filter must bucket.
func (r Request) PostWhere(fields map[string]any) Request {
	post, err := where(r.post, fields, false)
	if err != nil {
		return r.fail(err)
	}
	r.post = post
	return r
}

// PostWhereNot adds fields to the post-filter must-not bucket.
func (r Request) PostWhereNot(fields map[string]any) Request {
	post, err := where(r.post, fields, true)
	if err != nil {
		return r.fail(err)
	}
	r.post = post
	return r
}

func where(e filter.Expression, fields map[string]any, negate bool) (filter.Expression, error) {
	pos, neg, err := filter.Compile(fields)
	if err != nil {
		return e, err
	}
	if negate {
		return e.WithMustNot(pos...).WithMust(neg...), nil
	}
	return e.WithMust(pos...).WithMustNot(neg...), nil
}

// Filter appends a raw clause to the pre-filter must bucket.
func (r Request) Filter(raw value.Object) Request {
	return r.raw(raw, false, false)
}

// FilterNot appends a raw clause to the pre-filter must-not bucket.
func (r Request) FilterNot(raw value.Object) Request {
	return r.raw(raw, false, true)
}

// PostFilter appends a raw clause to the post-filter must bucket.
func (r Request) PostFilter(raw value.Object) Request {
	return r.raw(raw, true, false)
}

// PostFilterNot appends a raw clause to the post-filter must-not bucket.
func (r Request) PostFilterNot(raw value.Object) Request {
	return r.raw(raw, true, true)
}

func (r Request) raw(obj value.Object, post, negate bool) Request {
	c, err := filter.Raw(obj)
	if err != nil {
		return r.fail(err)
	}
	return r.add(c, post, negate)
}

// Range adds a range clause to the pre-filter must bucket.
func (r Request) Range(field string, rng filter.Range) Request {
	c, err := filter.NewRange(field, rng)
	if err != nil {
		return r.fail(err)
	}
	return r.add(c, false, false)
}

// PostRange adds a range clause to the post-filter must bucket.
func (r Request) PostRange(field string, rng filter.Range) Request {
	c, err := filter.NewRange(field, rng)
	if err != nil {
		return r.fail(err)
	}
	return r.add(c, true, false)
}

// Exists requires field to be present (pre-filter).
func (r Request) Exists(field string) Request { return r.exists(field, false, false) }

// ExistsNot requires field to be absent (pre-filter).
func (r Request) ExistsNot(field string) Request { return r.exists(field, false, true) }

// PostExists requires field to be present (post-filter).
func (r Request) PostExists(field string) Request { return r.exists(field, true, false) }

// PostExistsNot requires field to be absent (post-filter).
func (r Request) PostExistsNot(field string) Request { return r.exists(field, true, true) }

func (r Request) exists(field string, post, negate bool) Request {
	c, err := filter.Exists(field)
	if err != nil {
		return r.fail(err)
	}
	return r.add(c, post, negate)
}

// Search adds a query_string clause to the pre-filter must bucket.
func (r Request) Search(query string) Request {
	if query == "" {
		return r.fail(domain.Malformed("search query is empty"))
	}
	return r.raw(value.Object{"query_string": value.Object{
		"query":            query,
		"default_operator": "AND",
	}}, false, false)
}

func (r Request) add(c filter.Clause, post, negate bool) Request {
	target := &r.pre
	if post {
		target = &r.post
	}
	if negate {
		*target = target.WithMustNot(c)
	} else {
		*target = target.WithMust(c)
	}
	return r
}

// Aggregate registers a named aggregation; a repeated name deep-merges.
func (r Request) Aggregate(name string, agg aggregation.Aggregation) Request {
	if name == "" {
		return r.fail(domain.Malformed("aggregation name is required"))
	}
	if err := agg.Err(); err != nil {
		return r.fail(err)
	}
	if existing, ok := r.aggs[name]; ok {
		merged, err := existing.Merge(agg)
		if err != nil {
			return r.fail(err)
		}
		agg = merged
	}
	aggs := maps.Clone(r.aggs)
	if aggs == nil {
		aggs = make(map[string]aggregation.Aggregation, 1)
	}
	aggs[name] = agg
	r.aggs = aggs
	return r
}

// Sort replaces the sort specification. Each spec is a field name or an
// object such as {"price": "desc"}.
func (r Request) Sort(specs ...any) Request {
	out := make([]any, 0, len(specs))
	for _, s := range specs {
		switch t := s.(type) {
		case string:
			if t == "" {
				return r.fail(domain.Malformed("sort field is empty"))
			}
			out = append(out, t)
		case map[string]any:
			if len(t) == 0 {
				return r.fail(domain.Malformed("sort object is empty"))
			}
			out = append(out, value.CloneObject(t))
		default:
			return r.fail(domain.Malformed("unsupported sort spec %T", s))
		}
	}
	r.sort = out
	return r
}

// Offset replaces the offset.
func (r Request) Offset(n int) Request {
	if n < 0 {
		return r.fail(domain.Malformed("offset must be non-negative, got %d", n))
	}
	r.from = &n
	return r
}

// Limit replaces the limit.
func (r Request) Limit(n int) Request {
	if n < 0 {
		return r.fail(domain.Malformed("limit must be non-negative, got %d", n))
	}
	r.size = &n
	return r
}

// Paginate sets offset and limit from a 1-based page number.
func (r Request) Paginate(page, perPage int) Request {
	if page < 1 || perPage < 1 {
		return r.fail(domain.Malformed("paginate needs page >= 1 and per_page >= 1, got %d/%d", page, perPage))
	}
	return r.Offset((page - 1) * perPage).Limit(perPage)
}

// Source replaces the returned _source fields.
func (r Request) Source(fields ...string) Request {
	r.source = slices.Clone(fields)
	return r
}

// Highlight replaces the highlight spec.
func (r Request) Highlight(spec value.Object) Request {
	r.highlight = value.CloneObject(spec)
	return r
}

// TrackTotalHits replaces the track_total_hits flag.
func (r Request) TrackTotalHits(track bool) Request {
	r.trackTotalHits = &track
	return r
}

// Unpaged returns a copy without an offset; scroll requests reject "from".
func (r Request) Unpaged() Request {
	r.from = nil
	return r
}

func (r Request) fail(err error) Request {
	if r.err == nil {
		r.err = err
	}
	return r
}
