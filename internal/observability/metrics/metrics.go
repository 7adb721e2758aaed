// Package metrics collects and exposes Prometheus metrics for the console.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	obserrors "github.com/target/admin-console/internal/observability/errors"
)

// Result constants for metric labels.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Recorder is the metrics surface used by services and middleware.
type Recorder interface {
	RecordLogin(err error)
	RecordTransition(from, to string)
	RecordProfileRepair(err error)
	RecordHTTPRequest(method, route string, status int, d time.Duration)
}

// Collector records metrics into a Prometheus registry.
type Collector struct {
	logins      *prometheus.CounterVec
	transitions *prometheus.CounterVec
	repairs     *prometheus.CounterVec
	httpLatency *prometheus.HistogramVec
}

var _ Recorder = (*Collector)(nil)

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "console",
			Name:      "logins_total",
			Help:      "Login attempts by result and error class.",
		}, []string{"result", "error_class"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "console",
			Name:      "session_transitions_total",
			Help:      "Session manager state transitions.",
		}, []string{"from", "to"}),
		repairs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "console",
			Name:      "profile_repairs_total",
			Help:      "Missing bootstrap admin profiles recreated on login.",
		}, []string{"result"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "console",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	reg.MustRegister(c.logins, c.transitions, c.repairs, c.httpLatency)
	return c
}

// NewRegistry returns a registry preloaded with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func (c *Collector) RecordLogin(err error) {
	if err == nil {
		c.logins.WithLabelValues(ResultSuccess, "").Inc()
		return
	}
	c.logins.WithLabelValues(ResultError, obserrors.Classify(err)).Inc()
}

func (c *Collector) RecordTransition(from, to string) {
	c.transitions.WithLabelValues(from, to).Inc()
}

func (c *Collector) RecordProfileRepair(err error) {
	c.repairs.WithLabelValues(result(err)).Inc()
}

func (c *Collector) RecordHTTPRequest(method, route string, status int, d time.Duration) {
	c.httpLatency.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

func result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultSuccess
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Noop discards every metric.
type Noop struct{}

var _ Recorder = Noop{}

func (Noop) RecordLogin(error) {}
func (Noop) RecordTransition(string, string) {}
func (Noop) RecordProfileRepair(error) {}
func (Noop) RecordHTTPRequest(string, string, int, time.Duration) {}
