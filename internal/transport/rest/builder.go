package rest

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"

	"github.com/olleolleolle/search-flip/internal/domain"
)

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Opaque-Id"

// ErrNoTarget is returned by verbs on a builder without Via.
var ErrNoTarget = errors.New("rest: no target, use Via")

// Entry is one recorded modifier call.
type Entry struct {
	Name string
	Args []any
}

type replay struct {
	base   *url.URL
	header http.Header
	gzip   bool
}

type step struct {
	entry Entry
	apply func(*replay) error
}

// Builder is an immutable request builder. The zero value has no target and
// sends through http.DefaultClient.
type Builder struct {
	doer  Doer
	steps []step
}

var _ Transport = Builder{}

// New creates an empty builder sending through doer.
func New(doer Doer) Builder {
	return Builder{doer: doer}
}

// Log returns the recorded modifier calls in order.
func (b Builder) Log() []Entry {
	out := make([]Entry, len(b.steps))
	for i, s := range b.steps {
		out[i] = Entry{Name: s.entry.Name, Args: slices.Clone(s.entry.Args)}
	}
	return out
}

func (b Builder) with(name string, apply func(*replay) error, args ...any) Builder {
	b.steps = append(slices.Clip(b.steps), step{entry: Entry{Name: name, Args: args}, apply: apply})
	return b
}

// Via selects the base URL. A later Via replaces an earlier one.
func (b Builder) Via(baseURL string) Builder {
	return b.with("via", func(r *replay) error {
		u, err := url.Parse(baseURL)
		if err != nil {
			return fmt.Errorf("via %q: %w", baseURL, err)
		}
		if u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("via %q: absolute URL required", baseURL)
		}
		r.base = u
		return nil
	}, baseURL)
}

// BasicAuth sets HTTP basic credentials.
func (b Builder) BasicAuth(username, password string) Builder {
	return b.with("basic_auth", func(r *replay) error {
		cred := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
		r.header.Set("Authorization", "Basic "+cred)
		return nil
	}, username, "********")
}

// Bearer sets a bearer token.
func (b Builder) Bearer(token string) Builder {
	return b.with("bearer", func(r *replay) error {
		r.header.Set("Authorization", "Bearer "+token)
		return nil
	}, "********")
}

// Header sets a header on every request.
func (b Builder) Header(key, value string) Builder {
	return b.with("header", func(r *replay) error {
		r.header.Set(key, value)
		return nil
	}, key, value)
}

// UserAgent sets the User-Agent header.
func (b Builder) UserAgent(ua string) Builder {
	return b.with("user_agent", func(r *replay) error {
		r.header.Set("User-Agent", ua)
		return nil
	}, ua)
}

// RequestID tags every request with a fresh correlation id.
func (b Builder) RequestID() Builder {
	return b.with("request_id", func(r *replay) error {
		r.header.Set(RequestIDHeader, uuid.NewString())
		return nil
	})
}

// Gzip compresses non-empty request bodies.
func (b Builder) Gzip() Builder {
	return b.with("gzip", func(r *replay) error {
		r.gzip = true
		return nil
	})
}

// Get sends a GET request.
func (b Builder) Get(ctx context.Context, path string, body []byte, params url.Values, headers http.Header) (*Response, error) {
	return b.send(ctx, http.MethodGet, path, body, params, headers)
}

// Put sends a PUT request.
func (b Builder) Put(ctx context.Context, path string, body []byte, params url.Values, headers http.Header) (*Response, error) {
	return b.send(ctx, http.MethodPut, path, body, params, headers)
}

// Post sends a POST request.
func (b Builder) Post(ctx context.Context, path string, body []byte, params url.Values, headers http.Header) (*Response, error) {
	return b.send(ctx, http.MethodPost, path, body, params, headers)
}

// Delete sends a DELETE request.
func (b Builder) Delete(ctx context.Context, path string, body []byte, params url.Values, headers http.Header) (*Response, error) {
	return b.send(ctx, http.MethodDelete, path, body, params, headers)
}

// Head sends a HEAD request.
func (b Builder) Head(ctx context.Context, path string, body []byte, params url.Values, headers http.Header) (*Response, error) {
	return b.send(ctx, http.MethodHead, path, body, params, headers)
}

func (b Builder) send(
	ctx context.Context, method, path string,
	body []byte, params url.Values, headers http.Header,
) (*Response, error) {
	op := method + " " + path

	r := &replay{header: make(http.Header)}
	for _, s := range b.steps {
		if err := s.apply(r); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	if r.base == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrNoTarget)
	}

	target := r.base.JoinPath(path)
	q := target.Query()
	for k, vs := range params {
		q[k] = slices.Clone(vs)
	}
	target.RawQuery = q.Encode()

	if r.gzip && len(body) > 0 {
		compressed, err := compress(body)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		body = compressed
		r.header.Set("Content-Encoding", "gzip")
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header = r.header
	for k, vs := range headers {
		req.Header[http.CanonicalHeaderKey(k)] = slices.Clone(vs)
	}

	doer := b.doer
	if doer == nil {
		doer = http.DefaultClient
	}
	resp, err := doer.Do(req)
	if err != nil {
		return nil, domain.NewConnectionError(op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewConnectionError(op, fmt.Errorf("read body: %w", err))
	}
	return &Response{Status: resp.StatusCode, Body: data, Headers: resp.Header}, nil
}

func compress(body []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(body); err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	return buf.Bytes(), nil
}
