package searchflip_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	searchflip "github.com/olleolleolle/search-flip"
	"github.com/olleolleolle/search-flip/internal/searchtest"
)

func TestBulk_BatchesAndReportsItems(t *testing.T) {
	srv := searchtest.New(t)
	srv.Enqueue(searchtest.RouteBulk,
		searchtest.Bulk(
			searchtest.BulkItem{ID: "1", Status: 201},
			searchtest.BulkItem{ID: "2", Status: 201},
		),
		searchtest.Bulk(
			searchtest.BulkItem{ID: "3", Status: 400, Type: "mapper_parsing_exception", Reason: "failed to parse field [price]"},
			searchtest.BulkItem{ID: "4", Status: 201},
		),
	)
	idx := searchflip.NewIndex[book](newClient(t, srv), "books")
	ctx := context.Background()

	loader := idx.Bulk(searchflip.BulkBatchSize(2))
	for i, b := range books(1, 5) {
		m := b.(map[string]any)
		doc := book{ID: m["id"].(string), Title: m["title"].(string), Price: i}
		if err := loader.Index(ctx, doc.ID, doc); err != nil {
			t.Fatalf("Index: %v", err)
		}
	}
	report, err := loader.Close(ctx)
	if err != nil {
		t.Fatalf("Close: %v", err)
	}

	if report.Batches != 3 || report.Succeeded != 4 || len(report.Results) != 5 {
		t.Errorf("report = %d batches, %d ok, %d results", report.Batches, report.Succeeded, len(report.Results))
	}
	if len(report.Failures) != 1 {
		t.Fatalf("failures = %d, want 1", len(report.Failures))
	}
	f := report.Failures[0]
	if f.Position() != 2 || f.ID() != "3" {
		t.Errorf("failure at %d id %q, want position 2 id 3", f.Position(), f.ID())
	}
	var ie *searchflip.BulkItemError
	if !errors.As(f.Err(), &ie) || ie.Type != "mapper_parsing_exception" {
		t.Errorf("failure err = %v", f.Err())
	}

	reqs := srv.Requests(searchtest.RouteBulk)
	if len(reqs) != 3 {
		t.Fatalf("bulk requests = %d, want 3", len(reqs))
	}
	if reqs[0].Path != "/books/_bulk" {
		t.Errorf("path = %q", reqs[0].Path)
	}
	if got := reqs[0].Header.Get("Content-Type"); got != "application/x-ndjson" {
		t.Errorf("Content-Type = %q", got)
	}
	if n := bytes.Count(reqs[2].Body, []byte("\n")); n != 2 {
		t.Errorf("last batch lines = %d, want 2", n)
	}
}

func TestBulk_UpdateAndDelete(t *testing.T) {
	srv := searchtest.New(t)
	loader := searchflip.NewIndex[book](newClient(t, srv), "books").Bulk(searchflip.BulkRefresh("wait_for"))
	ctx := context.Background()

	if err := loader.Update(ctx, "1", map[string]any{"price": 5}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := loader.Delete(ctx, "2"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if loader.Pending() != 2 {
		t.Errorf("Pending() = %d, want 2", loader.Pending())
	}
	report, err := loader.Close(ctx)
	if err != nil || report.Failed() {
		t.Fatalf("Close = %+v, %v", report, err)
	}

	req := srv.Requests(searchtest.RouteBulk)[0]
	if got := req.Query.Get("refresh"); got != "wait_for" {
		t.Errorf("refresh = %q, want wait_for", got)
	}
	want := `{"update":{"_id":"1"}}` + "\n" +
		`{"doc":{"price":5}}` + "\n" +
		`{"delete":{"_id":"2"}}` + "\n"
	if string(req.Body) != want {
		t.Errorf("body = %q, want %q", req.Body, want)
	}
}

func TestBulk_IgnoreStatus(t *testing.T) {
	srv := searchtest.New(t)
	srv.Enqueue(searchtest.RouteBulk, searchtest.Bulk(
		searchtest.BulkItem{Action: "delete", ID: "gone", Status: http.StatusNotFound},
	))
	idx := searchflip.NewIndex[book](newClient(t, srv), "books")

	report, err := idx.Load(context.Background(),
		[]searchflip.BulkOperation{{Action: searchflip.BulkDelete, ID: "gone"}},
		searchflip.BulkIgnoreStatus(http.StatusNotFound),
	)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if report.Failed() || report.Succeeded != 1 {
		t.Errorf("report = %+v, want one success", report)
	}
}

func TestBulk_InvalidOperationRejectedBeforeIO(t *testing.T) {
	srv := searchtest.New(t)
	idx := searchflip.NewIndex[book](newClient(t, srv), "books")

	_, err := idx.Load(context.Background(), []searchflip.BulkOperation{
		{Action: searchflip.BulkIndex, ID: "1", Document: book{}},
		{Action: searchflip.BulkUpdate, Document: map[string]any{"doc": 1}},
	})
	if !errors.Is(err, searchflip.ErrMalformedQuery) {
		t.Errorf("err = %v, want ErrMalformedQuery", err)
	}
	if got := srv.Count(searchtest.RouteBulk); got != 0 {
		t.Errorf("bulk requests = %d, want 0", got)
	}
}

func TestBulk_NilDocumentsRejected(t *testing.T) {
	srv := searchtest.New(t)
	loader := searchflip.NewIndex[book](newClient(t, srv), "books").Bulk()
	ctx := context.Background()

	if err := loader.Update(ctx, "1", nil); !errors.Is(err, searchflip.ErrMalformedQuery) {
		t.Errorf("Update(nil) err = %v, want ErrMalformedQuery", err)
	}
	if err := loader.Update(ctx, "1", (*book)(nil)); !errors.Is(err, searchflip.ErrMalformedQuery) {
		t.Errorf("Update(typed nil) err = %v, want ErrMalformedQuery", err)
	}
	if err := loader.Add(ctx, searchflip.BulkOperation{Action: searchflip.BulkIndex, ID: "2", Document: (*book)(nil)}); !errors.Is(err, searchflip.ErrMalformedQuery) {
		t.Errorf("Add(typed nil) err = %v, want ErrMalformedQuery", err)
	}
	if _, err := loader.Close(ctx); err != nil {
		t.Errorf("Close: %v", err)
	}
	if got := srv.Count(searchtest.RouteBulk); got != 0 {
		t.Errorf("bulk requests = %d, want 0", got)
	}
}

func TestBulk_BatchFailureStopsLoader(t *testing.T) {
	srv := searchtest.New(t)
	srv.Enqueue(searchtest.RouteBulk, searchtest.Error(http.StatusServiceUnavailable, "unavailable", "busy"))
	loader := searchflip.NewIndex[book](newClient(t, srv), "books").Bulk(searchflip.BulkBatchSize(1))
	ctx := context.Background()

	err := loader.Index(ctx, "1", book{Title: "a"})
	var re *searchflip.ResponseError
	if !errors.As(err, &re) || re.Status != http.StatusServiceUnavailable {
		t.Fatalf("err = %v, want ResponseError 503", err)
	}
	if err := loader.Index(ctx, "2", book{Title: "b"}); err == nil {
		t.Error("loader accepted work after a batch failure")
	}
	if got := srv.Count(searchtest.RouteBulk); got != 1 {
		t.Errorf("bulk requests = %d, want 1", got)
	}
}

func TestBulk_Gzip(t *testing.T) {
	srv := searchtest.New(t)
	c := newClient(t, srv)
	loader := searchflip.NewIndex[book](c, "books").Bulk(searchflip.BulkGzip())
	ctx := context.Background()

	if err := loader.Index(ctx, "1", book{Title: "zipped"}); err != nil {
		t.Fatalf("Index: %v", err)
	}
	if _, err := loader.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	// Searches from the same client stay uncompressed.
	if _, err := searchflip.NewIndex[book](c, "books").Relation().Execute(ctx); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	bulk := srv.Requests(searchtest.RouteBulk)[0]
	if got := bulk.Header.Get("Content-Encoding"); got != "gzip" {
		t.Errorf("bulk Content-Encoding = %q, want gzip", got)
	}
	if !strings.Contains(string(bulk.Body), `"title":"zipped"`) {
		t.Errorf("decompressed body = %q", bulk.Body)
	}
	search := srv.Requests(searchtest.RouteSearch)[0]
	if got := search.Header.Get("Content-Encoding"); got != "" {
		t.Errorf("search Content-Encoding = %q, want none", got)
	}
}
