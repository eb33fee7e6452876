// Package searchflip builds and runs searches against an
// Elasticsearch-compatible HTTP API.
//
// A Relation is an immutable query: every method returns a new Relation and
// leaves the receiver untouched. Filters added with Where and friends scope
// both hits and aggregations; PostWhere and friends narrow the hits only,
// after aggregations are computed.
//
//	books := searchflip.NewIndex[Book](client, "books")
//	rel := books.Where(searchflip.Fields{"category": "books"}).
//		WhereNot(searchflip.Fields{"price": 0}).
//		PostWhere(searchflip.Fields{"tags": []string{"new-arrivals"}}).
//		AggregateTerms("author")
//	resp, err := rel.Execute(ctx)
//
// A Relation runs its request at most once and memoizes the response;
// deriving a new Relation starts unexecuted. Scroll walks large result sets
// page by page and BulkLoader submits batched mutations with per-item
// results.
package searchflip
