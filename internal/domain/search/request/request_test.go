package request

import (
	"errors"
	"reflect"
	"testing"

	"github.com/olleolleolle/search-flip/internal/domain"
	"github.com/olleolleolle/search-flip/internal/domain/search/aggregation"
	"github.com/olleolleolle/search-flip/internal/domain/search/filter"
	"github.com/olleolleolle/search-flip/internal/domain/value"
)

func mustBody(t *testing.T, r Request) value.Object {
	t.Helper()
	body, err := r.Body(filter.MustNot{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return body
}

func boolOf(t *testing.T, obj any) value.Object {
	t.Helper()
	o, ok := obj.(value.Object)
	if !ok {
		t.Fatalf("expected object, got %T", obj)
	}
	b, ok := o["bool"].(value.Object)
	if !ok {
		t.Fatalf("expected bool query, got %v", o)
	}
	return b
}

func TestBody_Empty(t *testing.T) {
	body := mustBody(t, Request{})
	want := value.Object{"query": value.Object{"match_all": value.Object{}}}
	if !reflect.DeepEqual(body, want) {
		t.Errorf("Body() = %v, want %v", body, want)
	}
}

func TestBody_FilterOrdering(t *testing.T) {
	r := Request{}.
		Where(map[string]any{"category": "books"}).
		WhereNot(map[string]any{"price": 0}).
		PostWhere(map[string]any{"category": []string{"new-arrivals"}}).
		Aggregate("by_price", aggregation.New(value.Object{"histogram": value.Object{"field": "price", "interval": 10}}))

	body := mustBody(t, r)

	q := boolOf(t, body["query"])
	wantMust := []any{value.Object{"term": value.Object{"category": "books"}}}
	if !reflect.DeepEqual(q["must"], wantMust) {
		t.Errorf("query.bool.must = %v, want %v", q["must"], wantMust)
	}
	wantMustNot := []any{value.Object{"term": value.Object{"price": 0}}}
	if !reflect.DeepEqual(q["must_not"], wantMustNot) {
		t.Errorf("query.bool.must_not = %v, want %v", q["must_not"], wantMustNot)
	}

	pf := boolOf(t, body["post_filter"])
	wantPost := []any{value.Object{"terms": value.Object{"category": []any{"new-arrivals"}}}}
	if !reflect.DeepEqual(pf["must"], wantPost) {
		t.Errorf("post_filter.bool.must = %v, want %v", pf["must"], wantPost)
	}
	if _, ok := pf["must_not"]; ok {
		t.Error("post_filter has unexpected must_not")
	}

	aggs := body["aggregations"].(value.Object)
	if _, ok := aggs["by_price"]; !ok {
		t.Error("aggregations missing by_price")
	}
}

func TestBody_PostFiltersNeverInQuery(t *testing.T) {
	r := Request{}.
		PostWhere(map[string]any{"a": 1}).
		PostWhereNot(map[string]any{"b": 2}).
		PostRange("c", filter.Between(1, 2)).
		PostExists("d").
		PostExistsNot("e").
		PostFilter(value.Object{"match": value.Object{"f": "x"}}).
		PostFilterNot(value.Object{"match": value.Object{"g": "y"}})

	body := mustBody(t, r)
	if _, ok := body["query"].(value.Object)["match_all"]; !ok {
		t.Errorf("query = %v, want match_all", body["query"])
	}
	pf := boolOf(t, body["post_filter"])
	if n := len(pf["must"].([]any)); n != 4 {
		t.Errorf("post must len = %d, want 4", n)
	}
	if n := len(pf["must_not"].([]any)); n != 3 {
		t.Errorf("post must_not len = %d, want 3", n)
	}
}

func TestBody_PreFiltersNeverInPostFilter(t *testing.T) {
	r := Request{}.
		Where(map[string]any{"a": 1}).
		WhereNot(map[string]any{"b": 2}).
		Range("c", filter.Bounds(nil, 1, nil, nil)).
		Exists("d").
		ExistsNot("e").
		Filter(value.Object{"match": value.Object{"f": "x"}}).
		FilterNot(value.Object{"match": value.Object{"g": "y"}}).
		Search("title:go")

	body := mustBody(t, r)
	if _, ok := body["post_filter"]; ok {
		t.Errorf("post_filter = %v, want absent", body["post_filter"])
	}
	q := boolOf(t, body["query"])
	if n := len(q["must"].([]any)); n != 5 {
		t.Errorf("must len = %d, want 5", n)
	}
	if n := len(q["must_not"].([]any)); n != 3 {
		t.Errorf("must_not len = %d, want 3", n)
	}
}

func TestRequest_DerivationLeavesAncestorIntact(t *testing.T) {
	r1 := Request{}.Where(map[string]any{"x": 1})
	r2 := r1.Where(map[string]any{"y": 2})
	r3 := r1.Where(map[string]any{"z": 3})

	if len(r1.Pre().Must()) != 1 || r1.Pre().Must()[0].Field() != "x" {
		t.Errorf("r1 must = %+v, want [x]", r1.Pre().Must())
	}
	if got := r2.Pre().Must()[1].Field(); got != "y" {
		t.Errorf("r2 tail = %q, want y", got)
	}
	if got := r3.Pre().Must()[1].Field(); got != "z" {
		t.Errorf("r3 tail = %q, want z", got)
	}
}

func TestRequest_AggregateDoesNotLeakToAncestor(t *testing.T) {
	base := Request{}.Aggregate("a", aggregation.Terms("a"))
	derived := base.Aggregate("b", aggregation.Terms("b"))

	if len(base.Aggregations()) != 1 {
		t.Errorf("base aggregations = %v, want [a]", base.Aggregations())
	}
	if len(derived.Aggregations()) != 2 {
		t.Errorf("derived aggregations = %v, want 2", derived.Aggregations())
	}
}

func TestRequest_LastWriterWins(t *testing.T) {
	r := Request{}.
		Sort("price").Sort(map[string]any{"title": "desc"}).
		Offset(10).Offset(20).
		Limit(5).Limit(50).
		Source("a").Source("b", "c").
		TrackTotalHits(false).TrackTotalHits(true)

	body := mustBody(t, r)
	wantSort := []any{value.Object{"title": "desc"}}
	if !reflect.DeepEqual(body["sort"], wantSort) {
		t.Errorf("sort = %v, want %v", body["sort"], wantSort)
	}
	if body["from"] != 20 {
		t.Errorf("from = %v, want 20", body["from"])
	}
	if body["size"] != 50 {
		t.Errorf("size = %v, want 50", body["size"])
	}
	if !reflect.DeepEqual(body["_source"], []string{"b", "c"}) {
		t.Errorf("_source = %v", body["_source"])
	}
	if body["track_total_hits"] != true {
		t.Errorf("track_total_hits = %v", body["track_total_hits"])
	}
}

func TestRequest_Paginate(t *testing.T) {
	r := Request{}.Paginate(3, 25)
	from, _ := r.From()
	size, _ := r.Size()
	if from != 50 || size != 25 {
		t.Errorf("from/size = %d/%d, want 50/25", from, size)
	}
	if _, ok := r.Unpaged().From(); ok {
		t.Error("Unpaged() kept from")
	}
}

func TestRequest_SameNameAggregationsMerge(t *testing.T) {
	r := Request{}.
		Aggregate("by_cat", aggregation.Terms("category")).
		Aggregate("by_cat", aggregation.New(value.Object{"terms": value.Object{"size": 3}}))

	body := mustBody(t, r)
	terms := body["aggregations"].(value.Object)["by_cat"].(value.Object)["terms"].(value.Object)
	if terms["field"] != "category" || terms["size"] != 3 {
		t.Errorf("terms = %v", terms)
	}
}

func TestRequest_NotFilterNegation(t *testing.T) {
	r := Request{}.Where(map[string]any{"a": 1}).WhereNot(map[string]any{"b": 2})
	body, err := r.Body(filter.NotFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	q := boolOf(t, body["query"])
	if _, ok := q["must_not"]; ok {
		t.Error("legacy form must not use must_not")
	}
	if n := len(q["must"].([]any)); n != 2 {
		t.Errorf("must len = %d, want 2", n)
	}
}

func TestRequest_BuildErrorsSurfaceAtBody(t *testing.T) {
	tests := []struct {
		name string
		r    Request
	}{
		{"non comparable range", Request{}.Range("price", filter.Between(1, "ten"))},
		{"range in where", Request{}.Where(map[string]any{"price": filter.Between("a", 2)})},
		{"empty terms", Request{}.PostWhere(map[string]any{"tags": []int{}})},
		{"empty raw", Request{}.Filter(nil)},
		{"negative offset", Request{}.Offset(-1)},
		{"negative limit", Request{}.Limit(-1)},
		{"bad page", Request{}.Paginate(0, 10)},
		{"bad sort", Request{}.Sort(42)},
		{"empty agg name", Request{}.Aggregate("", aggregation.Terms("a"))},
		{"bad agg", Request{}.Aggregate("a", aggregation.Terms("a").Where(map[string]any{"": 1}))},
		{"empty search", Request{}.Search("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.r.Body(filter.MustNot{})
			if !errors.Is(err, domain.ErrMalformedQuery) {
				t.Errorf("err = %v, want ErrMalformedQuery", err)
			}
		})
	}
}

func TestRequest_FirstErrorWins(t *testing.T) {
	r := Request{}.Offset(-1).Limit(-2)
	if err := r.Err(); err == nil || !errors.Is(err, domain.ErrMalformedQuery) {
		t.Fatalf("Err() = %v", err)
	}
	if got := r.Err().Error(); got != "malformed query: offset must be non-negative, got -1" {
		t.Errorf("Err() = %q", got)
	}
}
