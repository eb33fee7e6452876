package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/olleolleolle/search-flip/internal/searchtest"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out, &out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "searchflip dev") {
		t.Errorf("output = %q", out)
	}
}

func TestPing(t *testing.T) {
	srv := searchtest.New(t)
	out, err := run(t, "--url", srv.URL, "ping")
	if err != nil {
		t.Fatalf("ping: %v", err)
	}
	if out != "ok "+srv.URL+"\n" {
		t.Errorf("output = %q", out)
	}
}

func TestPing_ConfigCredentials(t *testing.T) {
	srv := searchtest.New(t, searchtest.WithBasicAuth("elastic", "s3cret"))
	path := filepath.Join(t.TempDir(), "searchflip.yaml")
	cfg := "server:\n  url: " + srv.URL + "\n  username: elastic\n  password: ${SEARCHFLIP_TEST_PASSWORD:-s3cret}\n"
	if err := os.WriteFile(path, []byte(cfg), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := run(t, "--config", path, "ping"); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if _, err := run(t, "--url", srv.URL, "ping"); err == nil {
		t.Error("ping without credentials = nil error")
	}
}

func TestSearch(t *testing.T) {
	srv := searchtest.New(t)
	srv.Enqueue(searchtest.RouteSearch, searchtest.Search{
		Total: 12,
		Sources: []any{
			map[string]any{"id": "1", "title": "Go"},
			map[string]any{"id": "2", "title": "Rust"},
		},
		Aggregations: map[string]any{"author": map[string]any{"buckets": []any{
			map[string]any{"key": "pike", "doc_count": 7},
		}}},
	}.Reply())

	out, err := run(t, "--url", srv.URL, "search", "books",
		"--where", "category=books",
		"--where-not", "price=0",
		"--post-where", "tags=new,sale",
		"--sort", "price:desc",
		"--limit", "2",
		"--agg", "author",
	)
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	want := []string{
		"total: 12",
		`{"_id":"1","_score":1,"_source":{"id":"1","title":"Go"}}`,
		`{"_id":"2","_score":1,"_source":{"id":"2","title":"Rust"}}`,
		"author:",
		"  pike\t7",
	}
	if !reflect.DeepEqual(lines, want) {
		t.Errorf("output =\n%s\nwant\n%s", strings.Join(lines, "\n"), strings.Join(want, "\n"))
	}

	req := srv.Requests(searchtest.RouteSearch)[0]
	if req.Index != "books" {
		t.Errorf("index = %q", req.Index)
	}
	body := req.JSON(t)
	q := body["query"].(map[string]any)["bool"].(map[string]any)
	if !reflect.DeepEqual(q["must"], []any{map[string]any{"term": map[string]any{"category": "books"}}}) {
		t.Errorf("must = %v", q["must"])
	}
	if !reflect.DeepEqual(q["must_not"], []any{map[string]any{"term": map[string]any{"price": float64(0)}}}) {
		t.Errorf("must_not = %v", q["must_not"])
	}
	pf := body["post_filter"].(map[string]any)["bool"].(map[string]any)
	if !reflect.DeepEqual(pf["must"], []any{map[string]any{"terms": map[string]any{"tags": []any{"new", "sale"}}}}) {
		t.Errorf("post must = %v", pf["must"])
	}
	if body["size"] != float64(2) {
		t.Errorf("size = %v", body["size"])
	}
}

func TestSearch_InvalidFilter(t *testing.T) {
	srv := searchtest.New(t)
	if _, err := run(t, "--url", srv.URL, "search", "books", "--where", "price"); err == nil {
		t.Error("search with bad --where = nil error")
	}
	if got := srv.Count(searchtest.RouteSearch); got != 0 {
		t.Errorf("search requests = %d, want 0", got)
	}
}

func TestBulk(t *testing.T) {
	srv := searchtest.New(t)
	path := filepath.Join(t.TempDir(), "docs.ndjson")
	docs := `{"sku":"a1","title":"Go"}` + "\n\n" + `{"sku":"b2","title":"Rust"}` + "\n" + `{"sku":"c3","title":"Zig"}` + "\n"
	if err := os.WriteFile(path, []byte(docs), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "--url", srv.URL, "bulk", "books", path, "--id-field", "sku", "--batch-size", "2")
	if err != nil {
		t.Fatalf("bulk: %v", err)
	}
	if !strings.HasPrefix(out, "batches: 2 succeeded: 3 failed: 0") {
		t.Errorf("output = %q", out)
	}

	reqs := srv.Requests(searchtest.RouteBulk)
	if len(reqs) != 2 {
		t.Fatalf("bulk requests = %d, want 2", len(reqs))
	}
	first := strings.SplitN(string(reqs[0].Body), "\n", 2)[0]
	var meta map[string]map[string]any
	if err := json.Unmarshal([]byte(first), &meta); err != nil {
		t.Fatal(err)
	}
	if meta["index"]["_id"] != "a1" {
		t.Errorf("first action = %s", first)
	}
}

func TestBulk_FailedItemsExitNonZero(t *testing.T) {
	srv := searchtest.New(t)
	srv.Enqueue(searchtest.RouteBulk, searchtest.Bulk(
		searchtest.BulkItem{ID: "a1", Status: 400, Type: "mapper_parsing_exception", Reason: "bad"},
	))
	path := filepath.Join(t.TempDir(), "docs.ndjson")
	if err := os.WriteFile(path, []byte(`{"sku":"a1"}`+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "--url", srv.URL, "bulk", "books", path, "--id-field", "sku")
	if err == nil {
		t.Fatal("bulk with failed items = nil error")
	}
	if !strings.Contains(out, "mapper_parsing_exception") {
		t.Errorf("output = %q, want failure detail", out)
	}
}

func TestBulk_DeleteNeedsIDField(t *testing.T) {
	srv := searchtest.New(t)
	path := filepath.Join(t.TempDir(), "docs.ndjson")
	if err := os.WriteFile(path, []byte(`{"sku":"a1"}`+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, "--url", srv.URL, "bulk", "books", path, "--action", "delete"); err == nil {
		t.Error("delete without --id-field = nil error")
	}
	if got := srv.Count(searchtest.RouteBulk); got != 0 {
		t.Errorf("bulk requests = %d, want 0", got)
	}
}
