// Package metrics defines the Prometheus instruments of the backend.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every instrument, registered on its own registry so tests
// can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests          *prometheus.CounterVec
	HTTPDuration          *prometheus.HistogramVec
	CodesSent             *prometheus.CounterVec
	CodeVerifications     *prometheus.CounterVec
	TokensIssued          *prometheus.CounterVec
	AvatarUploads         *prometheus.CounterVec
	Enrollments           *prometheus.CounterVec
	RevocationCheckMillis prometheus.Histogram
}

// New creates and registers all metrics, plus the Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "impacthands_http_requests_total",
			Help: "HTTP requests by route pattern, method and status code",
		}, []string{"route", "method", "code"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "impacthands_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		CodesSent: f.NewCounterVec(prometheus.CounterOpts{
			Name: "impacthands_otp_sent_total",
			Help: "One-time code send attempts by result",
		}, []string{"result"}),
		CodeVerifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "impacthands_otp_verifications_total",
			Help: "One-time code verifications by result",
		}, []string{"result"}),
		TokensIssued: f.NewCounterVec(prometheus.CounterOpts{
			Name: "impacthands_tokens_issued_total",
			Help: "Sessions issued by grant",
		}, []string{"grant"}),
		AvatarUploads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "impacthands_avatar_uploads_total",
			Help: "Avatar uploads by result",
		}, []string{"result"}),
		Enrollments: f.NewCounterVec(prometheus.CounterOpts{
			Name: "impacthands_enrollments_total",
			Help: "Enrollments created by kind",
		}, []string{"kind"}),
		RevocationCheckMillis: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "impacthands_token_revocation_check_duration_ms",
			Help:    "Latency of token revocation checks in milliseconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveHTTP records one finished request.
func (m *Metrics) ObserveHTTP(route, method string, code int, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.HTTPDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// Result turns an error into a "ok"/"error" label value.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
