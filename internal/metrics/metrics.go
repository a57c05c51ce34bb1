// Package metrics exposes Prometheus metrics for HTTP traffic and the database connection.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/portalapi/portal-api/internal/dbconn"
)

const namespace = "portal"

// Registry holds all application metrics on a private Prometheus registry.
type Registry struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	DBDials        *prometheus.CounterVec
	DBDialDuration prometheus.Histogram
	DBState        *prometheus.GaugeVec
}

// NewRegistry creates and registers all metrics, plus the Go runtime and process collectors.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		DBDials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "dials_total",
			Help:      "Database connection attempts by result.",
		}, []string{"result"}),
		DBDialDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "dial_duration_seconds",
			Help:      "Time taken by database connection attempts.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}),
		DBState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "connection_state",
			Help:      "1 for the current database connection state, 0 otherwise.",
		}, []string{"state"}),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.RequestsTotal,
		r.RequestDuration,
		r.DBDials,
		r.DBDialDuration,
		r.DBState,
	)
	r.StateChanged(dbconn.StateAbsent)

	return r
}

// Handler returns the /metrics handler for this registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// ObserveRequest records a finished HTTP request.
func (r *Registry) ObserveRequest(method, route string, status int, took time.Duration) {
	r.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.RequestDuration.WithLabelValues(method, route).Observe(took.Seconds())
}

// DialFinished implements dbconn.Observer.
func (r *Registry) DialFinished(err error, took time.Duration) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	r.DBDials.WithLabelValues(result).Inc()
	r.DBDialDuration.Observe(took.Seconds())
}

// StateChanged implements dbconn.Observer.
func (r *Registry) StateChanged(s dbconn.State) {
	for _, st := range []dbconn.State{dbconn.StateAbsent, dbconn.StateConnecting, dbconn.StateReady, dbconn.StateFailed} {
		v := 0.0
		if st == s {
			v = 1
		}
		r.DBState.WithLabelValues(st.String()).Set(v)
	}
}
