package request

import (
	"fmt"
	"slices"

	"github.com/olleolleolle/search-flip/internal/domain/search/aggregation"
	"github.com/olleolleolle/search-flip/internal/domain/search/filter"
	"github.com/olleolleolle/search-flip/internal/domain/value"
)

// Body compiles the request into the backend search body.
//
// Pre-filters go under "query" and therefore scope both hits and
// aggregations; post-filters go under "post_filter" and are applied to hits
// after aggregations are computed. Build errors are returned before anything
// is rendered.
func (r Request) Body(n filter.Negation) (value.Object, error) {
	if r.err != nil {
		return nil, r.err
	}

	body := value.Object{}
	if q := r.pre.Render(n); q != nil {
		body["query"] = q
	} else {
		body["query"] = value.Object{"match_all": value.Object{}}
	}
	if pf := r.post.Render(n); pf != nil {
		body["post_filter"] = pf
	}
	if len(r.aggs) > 0 {
		aggs, err := aggregation.Render(r.aggs, n)
		if err != nil {
			return nil, fmt.Errorf("render aggregations: %w", err)
		}
		body["aggregations"] = aggs
	}
	if r.sort != nil {
		sorts := make([]any, len(r.sort))
		for i := range r.sort {
			sorts[i] = value.Clone(r.sort[i])
		}
		body["sort"] = sorts
	}
	if r.from != nil {
		body["from"] = *r.from
	}
	if r.size != nil {
		body["size"] = *r.size
	}
	if r.source != nil {
		body["_source"] = slices.Clone(r.source)
	}
	if r.highlight != nil {
		body["highlight"] = value.CloneObject(r.highlight)
	}
	if r.trackTotalHits != nil {
		body["track_total_hits"] = *r.trackTotalHits
	}
	return body, nil
}
