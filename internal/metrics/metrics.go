package metrics

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rubenvp8510/ticket-load-generator/internal/client"
)

// Request names used to group samples
const (
	PurchaseRequest = "/purchase/api/v1/tickets [purchase]"
	QueryRequest    = "/query/api/v1/tickets/{ticketId} [query]"
)

// Metrics holds all Prometheus metrics for the purchase load generator
// together with the per-request sample statistics reported at the end of a run.
type Metrics struct {
	Registry *prometheus.Registry

	// Request latency histogram with request name label
	RequestLatencyHist *prometheus.HistogramVec

	// Requests counter with request name and outcome labels
	RequestsCounter *prometheus.CounterVec

	// Request failures counter with request name and status code labels
	RequestFailuresCounter *prometheus.CounterVec

	// Attempts that replayed an already attempted seat
	DuplicateAttemptsCounter prometheus.Counter

	// Users currently running their attempt loop
	ActiveUsersGauge prometheus.Gauge

	// Users that stopped without receiving any seats
	UsersWithoutSeatsCounter prometheus.Counter

	// Seat slices not yet handed out
	SlicesRemainingGauge prometheus.Gauge

	// Response size histogram with request name label
	ResponseSizeBytesHist *prometheus.HistogramVec

	Samples *Samples
}

// NewMetrics initializes all Prometheus metrics on a dedicated registry
func NewMetrics(namespace string) *Metrics {
	sanitizedNs := strings.ReplaceAll(namespace, "-", "_")

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{
		Registry: reg,
		RequestLatencyHist: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: sanitizedNs,
			Name:      "request_duration_seconds",
			Help:      "Request latency in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"name"}),
		RequestsCounter: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: sanitizedNs,
			Name:      "requests_total",
			Help:      "Total requests by outcome",
		}, []string{"name", "outcome"}),
		RequestFailuresCounter: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: sanitizedNs,
			Name:      "request_failures_total",
			Help:      "Total failed requests",
		}, []string{"name", "status_code"}),
		DuplicateAttemptsCounter: factory.NewCounter(prometheus.CounterOpts{
			Namespace: sanitizedNs,
			Name:      "duplicate_attempts_total",
			Help:      "Purchase attempts that replayed an already attempted seat",
		}),
		ActiveUsersGauge: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: sanitizedNs,
			Name:      "active_users",
			Help:      "Simulated users currently running",
		}),
		UsersWithoutSeatsCounter: factory.NewCounter(prometheus.CounterOpts{
			Namespace: sanitizedNs,
			Name:      "users_without_seats_total",
			Help:      "Simulated users that stopped because the seat queue was empty",
		}),
		SlicesRemainingGauge: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: sanitizedNs,
			Name:      "seat_slices_remaining",
			Help:      "Seat slices or seats not yet handed out",
		}),
		ResponseSizeBytesHist: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: sanitizedNs,
			Name:      "response_size_bytes",
			Help:      "Response body size in bytes",
			Buckets:   prometheus.ExponentialBuckets(64, 4, 6),
		}, []string{"name"}),
		Samples: NewSamples(),
	}

	slog.Info("metrics initialized", "namespace", namespace, "sanitized_namespace", sanitizedNs)
	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// RecordSuccess records a successful sample
func (m *Metrics) RecordSuccess(name string, res client.Result) {
	m.observe(name, res)
	m.RequestsCounter.WithLabelValues(name, "success").Inc()
	m.Samples.Add(name, res, "")
}

// RecordFailure records a failed sample. message explains the failure and is
// kept with the sample statistics.
func (m *Metrics) RecordFailure(name string, res client.Result, message string) {
	m.observe(name, res)
	m.RequestsCounter.WithLabelValues(name, "failure").Inc()
	m.RequestFailuresCounter.WithLabelValues(name, strconv.Itoa(res.StatusCode)).Inc()
	if message == "" {
		message = "status " + strconv.Itoa(res.StatusCode)
	}
	m.Samples.Add(name, res, message)
}

func (m *Metrics) observe(name string, res client.Result) {
	m.RequestLatencyHist.WithLabelValues(name).Observe(res.Latency.Seconds())
	if res.StatusCode != 0 {
		m.ResponseSizeBytesHist.WithLabelValues(name).Observe(float64(res.BytesIn))
	}
}
