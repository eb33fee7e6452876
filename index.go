package searchflip

import (
	"context"

	"github.com/olleolleolle/search-flip/internal/domain/search/request"
)

// Index is a typed handle on one index. Sources of hits are decoded into T.
type Index[T any] struct {
	name   string
	client *Client
}

// NewIndex returns a handle on the named index. No request is sent.
func NewIndex[T any](c *Client, name string) *Index[T] {
	return &Index[T]{name: name, client: c}
}

// Name returns the index name.
func (i *Index[T]) Name() string { return i.name }

// Relation returns an unfiltered relation over the index.
func (i *Index[T]) Relation() *Relation[T] {
	return newRelation[T](i.client, i.name, request.Request{})
}

// Where starts a relation; see Relation.Where.
func (i *Index[T]) Where(fields Fields) *Relation[T] { return i.Relation().Where(fields) }

// WhereNot starts a relation; see Relation.WhereNot.
func (i *Index[T]) WhereNot(fields Fields) *Relation[T] { return i.Relation().WhereNot(fields) }

// PostWhere starts a relation; see Relation.PostWhere.
func (i *Index[T]) PostWhere(fields Fields) *Relation[T] { return i.Relation().PostWhere(fields) }

// PostWhereNot starts a relation; see Relation.PostWhereNot.
func (i *Index[T]) PostWhereNot(fields Fields) *Relation[T] {
	return i.Relation().PostWhereNot(fields)
}

// Filter starts a relation; see Relation.Filter.
func (i *Index[T]) Filter(clause Object) *Relation[T] { return i.Relation().Filter(clause) }

// FilterNot starts a relation; see Relation.FilterNot.
func (i *Index[T]) FilterNot(clause Object) *Relation[T] { return i.Relation().FilterNot(clause) }

// PostFilter starts a relation; see Relation.PostFilter.
func (i *Index[T]) PostFilter(clause Object) *Relation[T] { return i.Relation().PostFilter(clause) }

// PostFilterNot starts a relation; see Relation.PostFilterNot.
func (i *Index[T]) PostFilterNot(clause Object) *Relation[T] {
	return i.Relation().PostFilterNot(clause)
}

// Range starts a relation; see Relation.Range.
func (i *Index[T]) Range(field string, rng Range) *Relation[T] {
	return i.Relation().Range(field, rng)
}

// PostRange starts a relation; see Relation.PostRange.
func (i *Index[T]) PostRange(field string, rng Range) *Relation[T] {
	return i.Relation().PostRange(field, rng)
}

// Exists starts a relation; see Relation.Exists.
func (i *Index[T]) Exists(field string) *Relation[T] { return i.Relation().Exists(field) }

// ExistsNot starts a relation; see Relation.ExistsNot.
func (i *Index[T]) ExistsNot(field string) *Relation[T] { return i.Relation().ExistsNot(field) }

// PostExists starts a relation; see Relation.PostExists.
func (i *Index[T]) PostExists(field string) *Relation[T] { return i.Relation().PostExists(field) }

// PostExistsNot starts a relation; see Relation.PostExistsNot.
func (i *Index[T]) PostExistsNot(field string) *Relation[T] {
	return i.Relation().PostExistsNot(field)
}

// Search starts a relation; see Relation.Search.
func (i *Index[T]) Search(query string) *Relation[T] { return i.Relation().Search(query) }

// Aggregate starts a relation; see Relation.Aggregate.
func (i *Index[T]) Aggregate(name string, agg Aggregation) *Relation[T] {
	return i.Relation().Aggregate(name, agg)
}

// AggregateTerms starts a relation; see Relation.AggregateTerms.
func (i *Index[T]) AggregateTerms(field string) *Relation[T] {
	return i.Relation().AggregateTerms(field)
}

// Sort starts a relation; see Relation.Sort.
func (i *Index[T]) Sort(specs ...any) *Relation[T] { return i.Relation().Sort(specs...) }

// Limit starts a relation; see Relation.Limit.
func (i *Index[T]) Limit(n int) *Relation[T] { return i.Relation().Limit(n) }

// Offset starts a relation; see Relation.Offset.
func (i *Index[T]) Offset(n int) *Relation[T] { return i.Relation().Offset(n) }

// Paginate starts a relation; see Relation.Paginate.
func (i *Index[T]) Paginate(page, perPage int) *Relation[T] {
	return i.Relation().Paginate(page, perPage)
}

// Source starts a relation; see Relation.Source.
func (i *Index[T]) Source(fields ...string) *Relation[T] { return i.Relation().Source(fields...) }

// Highlight starts a relation; see Relation.Highlight.
func (i *Index[T]) Highlight(spec Object) *Relation[T] { return i.Relation().Highlight(spec) }

// TrackTotalHits starts a relation; see Relation.TrackTotalHits.
func (i *Index[T]) TrackTotalHits(track bool) *Relation[T] {
	return i.Relation().TrackTotalHits(track)
}

// Bulk returns a loader for the index.
func (i *Index[T]) Bulk(opts ...BulkOption) *BulkLoader[T] {
	return NewBulkLoader[T](i.client, i.name, opts...)
}

// Load submits ops in batches and returns the report. Operations without an
// index target this one.
func (i *Index[T]) Load(ctx context.Context, ops []BulkOperation, opts ...BulkOption) (BulkReport, error) {
	l := i.Bulk(opts...)
	if err := l.Add(ctx, ops...); err != nil {
		return l.Report(), err
	}
	return l.Close(ctx)
}
