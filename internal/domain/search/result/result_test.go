package result

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/olleolleolle/search-flip/internal/codec"
	"github.com/olleolleolle/search-flip/internal/domain"
)

const payload = `{
  "took": 7,
  "timed_out": false,
  "_scroll_id": "c1",
  "hits": {
    "total": {"value": 42, "relation": "eq"},
    "max_score": 1.5,
    "hits": [
      {"_index": "books", "_id": "1", "_score": 1.5, "_source": {"title": "Go", "price": 10}},
      {"_index": "books", "_id": "2", "_score": 0.5, "_source": {"title": "Rust", "price": 12},
       "highlight": {"title": ["<em>Rust</em>"]}}
    ]
  },
  "aggregations": {
    "by_category": {
      "doc_count_error_upper_bound": 0,
      "buckets": [
        {"key": "books", "doc_count": 30, "avg_price": {"value": 11.5}},
        {"key": 2024, "key_as_string": "2024", "doc_count": 12}
      ]
    },
    "avg_price": {"value": 10.25},
    "ranges": {"buckets": {"cheap": {"doc_count": 3}, "expensive": {"doc_count": 9}}},
    "scoped": {"doc_count": 5, "inner": {"buckets": [{"key": "x", "doc_count": 5}]}}
  }
}`

type book struct {
	Title string  `json:"title"`
	Price float64 `json:"price"`
}

func TestParse_Envelope(t *testing.T) {
	e, err := Parse(codec.JSON{}, []byte(payload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Took() != 7 || e.TimedOut() {
		t.Errorf("took/timed_out = %d/%v", e.Took(), e.TimedOut())
	}
	if e.ScrollID() != "c1" {
		t.Errorf("ScrollID() = %q", e.ScrollID())
	}
	if got := e.Total(); got.Value != 42 || got.Relation != "eq" {
		t.Errorf("Total() = %+v", got)
	}
	if e.MaxScore() == nil || *e.MaxScore() != 1.5 {
		t.Errorf("MaxScore() = %v", e.MaxScore())
	}
	if len(e.Hits()) != 2 || e.Hits()[1].ID != "2" {
		t.Fatalf("Hits() = %+v", e.Hits())
	}
	if got := e.Hits()[1].Highlight["title"]; len(got) != 1 {
		t.Errorf("highlight = %v", got)
	}
}

func TestParse_NumericTotal(t *testing.T) {
	e, err := Parse(codec.JSON{}, []byte(`{"hits": {"total": 9, "hits": []}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := e.Total(); got.Value != 9 || got.Relation != "eq" {
		t.Errorf("Total() = %+v", got)
	}
}

func TestParse_ToleratesMissingSections(t *testing.T) {
	e, err := Parse(codec.JSON{}, []byte(`{}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(e.Hits()) != 0 || e.Total().Value != 0 || e.ScrollID() != "" {
		t.Errorf("unexpected envelope: %+v", e)
	}
	aggs, err := e.Aggregations()
	if err != nil {
		t.Fatalf("Aggregations() error: %v", err)
	}
	if len(aggs) != 0 {
		t.Errorf("Aggregations() = %v, want empty", aggs)
	}
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse(codec.JSON{}, []byte(`not json`))
	if !errors.Is(err, domain.ErrInvalidResponse) {
		t.Errorf("err = %v, want ErrInvalidResponse", err)
	}
}

func TestAggregations_Tree(t *testing.T) {
	e, err := Parse(codec.JSON{}, []byte(payload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	aggs, err := e.Aggregations()
	if err != nil {
		t.Fatalf("Aggregations() error: %v", err)
	}

	byCat := aggs["by_category"]
	if len(byCat.Buckets) != 2 {
		t.Fatalf("by_category buckets = %d, want 2", len(byCat.Buckets))
	}
	books, ok := byCat.Bucket("books")
	if !ok || books.DocCount != 30 {
		t.Fatalf("books bucket = %+v, %v", books, ok)
	}
	if v := books.Sub["avg_price"].Value; v == nil || *v != 11.5 {
		t.Errorf("books avg_price = %v", v)
	}
	year := byCat.Buckets[1]
	if year.Key != int64(2024) || year.KeyString() != "2024" {
		t.Errorf("year bucket key = %v (%T)", year.Key, year.Key)
	}
	if len(byCat.Sub) != 0 {
		t.Errorf("by_category sub = %v, want none", byCat.Sub)
	}

	if v := aggs["avg_price"].Value; v == nil || *v != 10.25 {
		t.Errorf("avg_price = %v", v)
	}

	ranges := aggs["ranges"]
	if len(ranges.Buckets) != 2 || ranges.Buckets[0].Key != "cheap" || ranges.Buckets[1].DocCount != 9 {
		t.Errorf("keyed buckets = %+v", ranges.Buckets)
	}

	scoped := aggs["scoped"]
	if scoped.DocCount != 5 {
		t.Errorf("scoped doc_count = %d", scoped.DocCount)
	}
	if _, ok := scoped.Sub["inner"].Bucket("x"); !ok {
		t.Error("scoped.inner missing bucket x")
	}
}

type countingDecoder struct {
	codec.JSON
	calls atomic.Int32
}

func (d *countingDecoder) Decode(data []byte, v any) error {
	d.calls.Add(1)
	return d.JSON.Decode(data, v)
}

func TestHits_ConvertOnceOnFirstAccess(t *testing.T) {
	e, err := Parse(codec.JSON{}, []byte(payload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	dec := &countingDecoder{}
	hits := NewHits[book](dec, e.Hits())
	if dec.calls.Load() != 0 {
		t.Fatalf("decoded %d hits before access", dec.calls.Load())
	}

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := hits.At(0); err != nil {
				t.Errorf("At(0) error: %v", err)
			}
		}()
	}
	wg.Wait()
	if got := dec.calls.Load(); got != 1 {
		t.Errorf("decode calls = %d, want 1", got)
	}

	all, err := hits.All()
	if err != nil {
		t.Fatalf("All() error: %v", err)
	}
	if len(all) != 2 || all[0].Title != "Go" || all[1].Price != 12 {
		t.Errorf("All() = %+v", all)
	}
	if _, err := hits.All(); err != nil {
		t.Fatalf("All() error: %v", err)
	}
	if got := dec.calls.Load(); got != 2 {
		t.Errorf("decode calls after two scans = %d, want 2", got)
	}
}

func TestHits_MissingSourceIsZero(t *testing.T) {
	hits := NewHits[book](codec.JSON{}, []Hit{{ID: "1"}})
	b, err := hits.At(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b != (book{}) {
		t.Errorf("At(0) = %+v, want zero", b)
	}
}

func TestHits_DecodeError(t *testing.T) {
	hits := NewHits[book](codec.JSON{}, []Hit{{ID: "1", Source: []byte(`{"price": "x"}`)}})
	if _, err := hits.At(0); !errors.Is(err, domain.ErrInvalidResponse) {
		t.Errorf("err = %v, want ErrInvalidResponse", err)
	}
	if _, err := hits.All(); err == nil {
		t.Error("All() expected error")
	}
}
