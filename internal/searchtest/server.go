// Package searchtest runs an in-process fake of the search backend's HTTP
// API. Replies are queued per route; every request is recorded.
package searchtest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/klauspost/compress/gzip"
)

// Route names.
const (
	RoutePing        = "ping"
	RouteSearch      = "search"
	RouteScroll      = "scroll"
	RouteClearScroll = "clear_scroll"
	RouteBulk        = "bulk"
)

// Request is one recorded request. Gzip bodies are stored decompressed.
type Request struct {
	Route  string
	Method string
	Path   string
	Index  string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// JSON decodes the request body.
func (r Request) JSON(t testing.TB) map[string]any {
	t.Helper()
	var v map[string]any
	if err := json.Unmarshal(r.Body, &v); err != nil {
		t.Fatalf("decode %s body: %v", r.Route, err)
	}
	return v
}

// Reply is a canned response.
type Reply struct {
	Status int
	Body   []byte
}

// Server is a fake backend.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	queues   map[string][]Reply
	requests []Request
}

// Option configures the Server.
type Option func(*config)

type config struct {
	tokens         []string
	user, password string
}

// WithBearerToken requires one of the given bearer tokens.
func WithBearerToken(tokens ...string) Option {
	return func(c *config) { c.tokens = append(c.tokens, tokens...) }
}

// WithBasicAuth requires HTTP basic credentials.
func WithBasicAuth(user, password string) Option {
	return func(c *config) { c.user, c.password = user, password }
}

// New starts a server that is closed when the test ends.
func New(t testing.TB, opts ...Option) *Server {
	t.Helper()
	var cfg config
	for _, o := range opts {
		o(&cfg)
	}

	s := &Server{queues: make(map[string][]Reply)}

	r := chi.NewRouter()
	r.Use(authMiddleware(cfg))
	r.Head("/", s.handle(RoutePing, s.ping))
	r.Get("/", s.handle(RoutePing, s.ping))
	r.Post("/_search/scroll", s.handle(RouteScroll, s.scrollDefault))
	r.Delete("/_search/scroll", s.handle(RouteClearScroll, s.clearDefault))
	r.Post("/_search", s.handle(RouteSearch, s.searchDefault))
	r.Post("/{index}/_search", s.handle(RouteSearch, s.searchDefault))
	r.Get("/{index}/_search", s.handle(RouteSearch, s.searchDefault))
	r.Post("/_bulk", s.handle(RouteBulk, s.bulkDefault))
	r.Post("/{index}/_bulk", s.handle(RouteBulk, s.bulkDefault))

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// Enqueue appends replies for route. Queued replies are served first in,
// first out; an empty queue falls back to the route's default reply.
func (s *Server) Enqueue(route string, replies ...Reply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queues[route] = append(s.queues[route], replies...)
}

// Requests returns the recorded requests, filtered by route when given.
func (s *Server) Requests(routes ...string) []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(routes) == 0 {
		return slices.Clone(s.requests)
	}
	var out []Request
	for _, r := range s.requests {
		if slices.Contains(routes, r.Route) {
			out = append(out, r)
		}
	}
	return out
}

// Count returns the number of requests seen on route.
func (s *Server) Count(route string) int {
	return len(s.Requests(route))
}

type defaultReply func(req Request) Reply

func (s *Server) handle(route string, fallback defaultReply) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := readBody(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "parse_exception", err.Error())
			return
		}
		req := Request{
			Route:  route,
			Method: r.Method,
			Path:   r.URL.Path,
			Index:  chi.URLParam(r, "index"),
			Query:  r.URL.Query(),
			Header: r.Header.Clone(),
			Body:   body,
		}

		s.mu.Lock()
		s.requests = append(s.requests, req)
		var reply Reply
		if q := s.queues[route]; len(q) > 0 {
			reply, s.queues[route] = q[0], q[1:]
		} else {
			reply = fallback(req)
		}
		s.mu.Unlock()

		status := reply.Status
		if status == 0 {
			status = http.StatusOK
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if r.Method != http.MethodHead {
			_, _ = w.Write(reply.Body)
		}
	}
}

func readBody(r *http.Request) ([]byte, error) {
	var src io.Reader = r.Body
	if strings.EqualFold(r.Header.Get("Content-Encoding"), "gzip") {
		zr, err := gzip.NewReader(r.Body)
		if err != nil {
			return nil, err //nolint:wrapcheck // reported to the client verbatim
		}
		defer zr.Close()
		src = zr
	}
	return io.ReadAll(src) //nolint:wrapcheck // reported to the client verbatim
}

func (s *Server) ping(Request) Reply {
	return JSON(http.StatusOK, map[string]any{
		"name":    "searchtest",
		"version": map[string]any{"number": "8.0.0"},
	})
}

func (s *Server) searchDefault(Request) Reply { return Search{}.Reply() }

func (s *Server) scrollDefault(Request) Reply { return ScrollExpired() }

func (s *Server) clearDefault(Request) Reply {
	return JSON(http.StatusOK, map[string]any{"succeeded": true, "num_freed": 1})
}

// bulkDefault acknowledges every action line with a 2xx item.
func (s *Server) bulkDefault(req Request) Reply {
	var items []BulkItem
	lines := bytes.Split(bytes.TrimSpace(req.Body), []byte("\n"))
	for i := 0; i < len(lines); i++ {
		var meta map[string]map[string]any
		if err := json.Unmarshal(lines[i], &meta); err != nil {
			return errorReply(http.StatusBadRequest, "parse_exception", err.Error())
		}
		for action, m := range meta {
			id, _ := m["_id"].(string)
			status := http.StatusCreated
			if action == "update" || action == "delete" {
				status = http.StatusOK
			}
			items = append(items, BulkItem{Action: action, ID: id, Status: status})
			if action != "delete" {
				i++
			}
		}
	}
	return Bulk(items...)
}

func writeError(w http.ResponseWriter, status int, typ, reason string) {
	reply := errorReply(status, typ, reason)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(reply.Status)
	_, _ = w.Write(reply.Body)
}
