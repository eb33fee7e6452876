package searchflip

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/olleolleolle/search-flip/internal/codec"
	"github.com/olleolleolle/search-flip/internal/domain/search/filter"
	"github.com/olleolleolle/search-flip/internal/transport/rest"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type header struct{ key, value string }

type clientConfig struct {
	url       string
	username  string
	password  string
	token     string
	headers   []header
	userAgent string
	requestID bool

	httpClient *http.Client
	timeout    time.Duration
	transport  rest.Transport

	codec    codec.Codec
	negation filter.Negation

	logger         *zap.Logger
	metricsReg     prometheus.Registerer
	tracerProvider trace.TracerProvider
}

// WithURL sets the backend base URL, e.g. http://localhost:9200.
func WithURL(url string) Option {
	return optionFunc(func(c *clientConfig) {
		c.url = url
	})
}

// WithBasicAuth sets HTTP basic credentials.
func WithBasicAuth(username, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.username = username
		c.password = password
	})
}

// WithBearerToken sets a bearer token (API key).
func WithBearerToken(token string) Option {
	return optionFunc(func(c *clientConfig) {
		c.token = token
	})
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) Option {
	return optionFunc(func(c *clientConfig) {
		c.headers = append(c.headers, header{key: key, value: value})
	})
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return optionFunc(func(c *clientConfig) {
		c.userAgent = ua
	})
}

// WithRequestID tags every request with a fresh X-Opaque-Id.
func WithRequestID() Option {
	return optionFunc(func(c *clientConfig) {
		c.requestID = true
	})
}

// WithHTTPClient sets the HTTP client. It must be safe for concurrent use.
func WithHTTPClient(hc *http.Client) Option {
	return optionFunc(func(c *clientConfig) {
		c.httpClient = hc
	})
}

// WithTimeout sets the per-request timeout of the default HTTP client.
// Ignored when WithHTTPClient is given.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.timeout = d
	})
}

// WithTransport replaces the built-in HTTP transport. URL, credential and
// header options are then ignored.
func WithTransport(t Transport) Option {
	return optionFunc(func(c *clientConfig) {
		c.transport = t
	})
}

// WithCodec replaces the JSON codec.
func WithCodec(cd Codec) Option {
	return optionFunc(func(c *clientConfig) {
		c.codec = cd
	})
}

// WithNegation selects how must-not clauses are rendered.
// Defaults to MustNot; use NotFilter for backends that predate bool.must_not.
func WithNegation(n Negation) Option {
	return optionFunc(func(c *clientConfig) {
		c.negation = n
	})
}

// WithLogger sets the structured logger for SDK operations.
// A logger stored with ContextWithLogger takes precedence per call.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus enables Prometheus metrics on the given registerer.
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}

// WithTracerProvider sets the OpenTelemetry tracer provider.
// Defaults to the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return optionFunc(func(c *clientConfig) {
		c.tracerProvider = tp
	})
}
