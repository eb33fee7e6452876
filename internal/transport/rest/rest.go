// Package rest is a small immutable HTTP request builder. Modifiers are
// recorded in a log and replayed, in call order, for every request sent.
package rest

import (
	"context"
	"net/http"
	"net/url"
)

// Doer sends HTTP requests. *http.Client implements it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Response is a fully read HTTP response. A non-2xx status is not an error
// at this layer.
type Response struct {
	Status  int
	Body    []byte
	Headers http.Header
}

// OK reports a 2xx status.
func (r *Response) OK() bool { return r.Status >= 200 && r.Status < 300 }

// Transport is the verb set the search layer needs from HTTP.
type Transport interface {
	Get(ctx context.Context, path string, body []byte, params url.Values, headers http.Header) (*Response, error)
	Put(ctx context.Context, path string, body []byte, params url.Values, headers http.Header) (*Response, error)
	Post(ctx context.Context, path string, body []byte, params url.Values, headers http.Header) (*Response, error)
	Delete(ctx context.Context, path string, body []byte, params url.Values, headers http.Header) (*Response, error)
	Head(ctx context.Context, path string, body []byte, params url.Values, headers http.Header) (*Response, error)
}
