package searchflip_test

import (
	"fmt"
	"testing"

	searchflip "github.com/olleolleolle/search-flip"
	"github.com/olleolleolle/search-flip/internal/searchtest"
)

type book struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Category string `json:"category"`
	Price    int    `json:"price"`
}

func newClient(t *testing.T, srv *searchtest.Server, opts ...searchflip.Option) *searchflip.Client {
	t.Helper()
	c, err := searchflip.New(append([]searchflip.Option{searchflip.WithURL(srv.URL)}, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

// books returns n sources with ids starting at start.
func books(start, n int) []any {
	out := make([]any, n)
	for i := range n {
		id := start + i
		out[i] = map[string]any{
			"id":       fmt.Sprint(id),
			"title":    fmt.Sprintf("Book %d", id),
			"category": "books",
			"price":    id,
		}
	}
	return out
}
