package searchflip

import (
	"github.com/olleolleolle/search-flip/internal/codec"
	dombulk "github.com/olleolleolle/search-flip/internal/domain/bulk"
	"github.com/olleolleolle/search-flip/internal/domain/search/aggregation"
	"github.com/olleolleolle/search-flip/internal/domain/search/filter"
	"github.com/olleolleolle/search-flip/internal/domain/search/result"
	"github.com/olleolleolle/search-flip/internal/domain/value"
	"github.com/olleolleolle/search-flip/internal/transport/rest"
	bulkuc "github.com/olleolleolle/search-flip/internal/usecase/bulk"
)

// Fields maps field names to filter values. A slice matches any of its
// elements, a Range matches bounds, nil matches a missing field and any other
// value matches exactly.
type Fields = map[string]any

// Object is a raw JSON object: a clause, an aggregation spec or a highlight.
type Object = value.Object

// Range is a set of optional range bounds.
type Range = filter.Range

// Between is an inclusive range.
func Between(lo, hi any) Range { return filter.Between(lo, hi) }

// Bounds builds a range from optional bounds; pass nil to leave one unset.
func Bounds(gt, gte, lt, lte any) Range { return filter.Bounds(gt, gte, lt, lte) }

// Negation renders must-not clauses.
type Negation = filter.Negation

// Negation strategies.
type (
	// MustNot renders bool.must_not.
	MustNot = filter.MustNot
	// NotFilter renders the legacy {"not":{"filter":...}} form.
	NotFilter = filter.NotFilter
)

// Aggregation is an immutable aggregation request.
type Aggregation = aggregation.Aggregation

// NewAggregation creates an aggregation from a raw spec.
func NewAggregation(spec Object) Aggregation { return aggregation.New(spec) }

// TermsAggregation creates a terms aggregation over field.
func TermsAggregation(field string) Aggregation { return aggregation.Terms(field) }

// Parsed response types.
type (
	// Total is the hit count and whether it is exact.
	Total = result.Total
	// AggregationResult is one parsed aggregation.
	AggregationResult = result.Aggregation
	// Bucket is one aggregation bucket.
	Bucket = result.Bucket
	// RawHit is a hit before source conversion.
	RawHit = result.Hit
)

// Transport and codec capabilities.
type (
	// Transport sends HTTP requests to the backend.
	Transport = rest.Transport
	// TransportResponse is a response read by a Transport.
	TransportResponse = rest.Response
	// Codec encodes requests and decodes responses.
	Codec = codec.Codec
	// JSONCodec is the default Codec.
	JSONCodec = codec.JSON
)

// Bulk types.
type (
	// BulkAction is a bulk mutation kind.
	BulkAction = dombulk.Action
	// BulkOperation is one bulk item.
	BulkOperation = dombulk.Operation
	// BulkResult is the outcome of one bulk item.
	BulkResult = dombulk.Result
	// BulkItemError is the failure reported for one item.
	BulkItemError = dombulk.ItemError
	// BulkReport summarizes a load.
	BulkReport = bulkuc.Report
)

// Bulk actions.
const (
	BulkIndex  = dombulk.ActionIndex
	BulkCreate = dombulk.ActionCreate
	BulkUpdate = dombulk.ActionUpdate
	BulkDelete = dombulk.ActionDelete
)
