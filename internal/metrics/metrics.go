// Package metrics exposes Prometheus instrumentation for the HTTP surface
// and the dual-persistence pipeline.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	savesTotal   *prometheus.CounterVec
	loadsTotal   *prometheus.CounterVec
	deletesTotal prometheus.Counter
}

// New builds a registry with process/go collectors plus app series.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "workorders_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "workorders_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		savesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "workorders_saves_total",
			Help: "Record saves by outcome: synced or local_only.",
		}, []string{"outcome"}),
		loadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "workorders_loads_total",
			Help: "Record loads by source: remote or local.",
		}, []string{"source"}),
		deletesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "workorders_deletes_total",
			Help: "Record deletions.",
		}),
	}
	reg.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.savesTotal,
		m.loadsTotal,
		m.deletesTotal,
	)
	return m
}

func (m *Metrics) ObserveRequest(method, route string, status int, dur time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(dur.Seconds())
}

func (m *Metrics) RecordSave(synced bool) {
	outcome := "local_only"
	if synced {
		outcome = "synced"
	}
	m.savesTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordLoad(source string) {
	m.loadsTotal.WithLabelValues(source).Inc()
}

func (m *Metrics) RecordDelete() {
	m.deletesTotal.Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
