package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPClient counts and times outgoing HTTP requests.
type HTTPClient struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewHTTPClient registers the HTTP client collectors on reg.
func NewHTTPClient(reg prometheus.Registerer) (*HTTPClient, error) {
	m := &HTTPClient{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "http_client",
			Name:      "requests_total",
			Help:      "Total outgoing HTTP requests by method and status.",
		}, []string{"method", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "http_client",
			Name:      "request_duration_seconds",
			Help:      "Outgoing HTTP request duration in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method"}),
	}
	if err := RegisterOrReuse(reg, &m.requests); err != nil {
		return nil, err
	}
	if err := RegisterOrReuse(reg, &m.duration); err != nil {
		return nil, err
	}
	return m, nil
}

// Wrap instruments next. A nil next means http.DefaultTransport.
func (m *HTTPClient) Wrap(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		start := time.Now()
		resp, err := next.RoundTrip(req)

		status := "error"
		if err == nil {
			status = strconv.Itoa(resp.StatusCode)
		}
		m.requests.WithLabelValues(req.Method, status).Inc()
		m.duration.WithLabelValues(req.Method).Observe(time.Since(start).Seconds())
		return resp, err //nolint:wrapcheck // delegating to the wrapped transport
	})
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }
