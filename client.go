package searchflip

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/olleolleolle/search-flip/internal/codec"
	"github.com/olleolleolle/search-flip/internal/domain"
	"github.com/olleolleolle/search-flip/internal/domain/search/filter"
	"github.com/olleolleolle/search-flip/internal/domain/search/result"
	"github.com/olleolleolle/search-flip/internal/domain/value"
	"github.com/olleolleolle/search-flip/internal/metrics"
	"github.com/olleolleolle/search-flip/internal/transport/rest"
	"github.com/olleolleolle/search-flip/internal/version"
)

// Client is the searchflip SDK entry point. It is safe for concurrent use.
type Client struct {
	transport rest.Transport
	builder   *rest.Builder // nil with a custom transport
	codec     codec.Codec
	negation  filter.Negation
	obs       *observer
}

// New creates a Client. A URL is required unless WithTransport is given.
// No request is sent.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.transport == nil && cfg.url == "" {
		return nil, errors.New("searchflip: backend URL required (use WithURL or WithTransport)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg, cfg.tracerProvider)
	if err != nil {
		return nil, fmt.Errorf("searchflip: %w", err)
	}

	c := &Client{
		transport: cfg.transport,
		codec:     cfg.codec,
		negation:  cfg.negation,
		obs:       obs,
	}
	if c.codec == nil {
		c.codec = codec.JSON{}
	}
	if c.negation == nil {
		c.negation = filter.MustNot{}
	}

	if c.transport == nil {
		b, err := newBuilder(cfg)
		if err != nil {
			return nil, err
		}
		c.builder = &b
		c.transport = b
	}
	return c, nil
}

func newBuilder(cfg *clientConfig) (rest.Builder, error) {
	hc := cfg.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.timeout}
	}
	if cfg.metricsReg != nil {
		m, err := metrics.NewHTTPClient(cfg.metricsReg)
		if err != nil {
			return rest.Builder{}, fmt.Errorf("searchflip: %w", err)
		}
		instrumented := *hc
		instrumented.Transport = m.Wrap(hc.Transport)
		hc = &instrumented
	}

	ua := cfg.userAgent
	if ua == "" {
		ua = version.UserAgent()
	}
	b := rest.New(hc).Via(cfg.url).UserAgent(ua)
	if cfg.username != "" {
		b = b.BasicAuth(cfg.username, cfg.password)
	}
	if cfg.token != "" {
		b = b.Bearer(cfg.token)
	}
	for _, h := range cfg.headers {
		b = b.Header(h.key, h.value)
	}
	if cfg.requestID {
		b = b.RequestID()
	}
	return b, nil
}

// Transport returns the transport requests are sent through.
func (c *Client) Transport() Transport { return c.transport }

// Ping checks that the backend answers.
func (c *Client) Ping(ctx context.Context) (err error) {
	ctx, done := c.obs.start(ctx, "Client.Ping")
	defer func() { done(err) }()

	resp, err := c.transport.Head(ctx, "/", nil, nil, nil)
	if err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	if !resp.OK() {
		return fmt.Errorf("ping: %w", domain.NewResponseError("ping", resp.Status, resp.Body))
	}
	return nil
}

func jsonHeaders() http.Header {
	return http.Header{"Content-Type": {"application/json"}}
}

func searchPath(index string) string {
	if index == "" {
		return "/_search"
	}
	return "/" + url.PathEscape(index) + "/_search"
}

func (c *Client) search(ctx context.Context, index string, body value.Object, params url.Values) (*result.Envelope, error) {
	data, err := c.codec.Encode(body)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	resp, err := c.transport.Post(ctx, searchPath(index), data, params, jsonHeaders())
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	if !resp.OK() {
		return nil, domain.NewResponseError("search", resp.Status, resp.Body)
	}
	env, err := result.Parse(c.codec, resp.Body)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return env, nil
}

var scrollMissing = []byte("search_context_missing_exception")

func (c *Client) scroll(ctx context.Context, keepAlive, scrollID string) (*result.Envelope, error) {
	data, err := c.codec.Encode(value.Object{"scroll": keepAlive, "scroll_id": scrollID})
	if err != nil {
		return nil, fmt.Errorf("scroll: %w", err)
	}
	resp, err := c.transport.Post(ctx, "/_search/scroll", data, nil, jsonHeaders())
	if err != nil {
		return nil, fmt.Errorf("scroll: %w", err)
	}
	if !resp.OK() {
		respErr := domain.NewResponseError("scroll", resp.Status, resp.Body)
		if resp.Status == http.StatusNotFound || bytes.Contains(resp.Body, scrollMissing) {
			return nil, fmt.Errorf("%w: %w", domain.ErrScrollExpired, respErr)
		}
		return nil, respErr
	}
	env, err := result.Parse(c.codec, resp.Body)
	if err != nil {
		return nil, fmt.Errorf("scroll: %w", err)
	}
	return env, nil
}

func (c *Client) clearScroll(ctx context.Context, scrollID string) error {
	data, err := c.codec.Encode(value.Object{"scroll_id": []string{scrollID}})
	if err != nil {
		return fmt.Errorf("clear scroll: %w", err)
	}
	resp, err := c.transport.Delete(ctx, "/_search/scroll", data, nil, jsonHeaders())
	if err != nil {
		return fmt.Errorf("clear scroll: %w", err)
	}
	if !resp.OK() && resp.Status != http.StatusNotFound {
		return domain.NewResponseError("clear scroll", resp.Status, resp.Body)
	}
	return nil
}
