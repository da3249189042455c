// Package metrics exposes Prometheus instruments for the server and the
// ingestion pipeline. Instruments live in a private registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the rest of the program reports to.
type Recorder interface {
	ObserveRequest(route string, status int, d time.Duration)
	IncIngest(kind, result string)
	AddItemsIngested(kind string, n int)
	SetCatalogSize(n int)
	IncStoreSave(key string)
}

// Metrics is the Prometheus-backed Recorder.
type Metrics struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	ingestsTotal    *prometheus.CounterVec
	itemsIngested   *prometheus.CounterVec
	catalogItems    prometheus.Gauge
	storeSaves      *prometheus.CounterVec
}

// New registers every instrument in a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gonet_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gonet_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		ingestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gonet_ingests_total",
			Help: "Playlist ingestions by source kind and result",
		}, []string{"kind", "result"}),
		itemsIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gonet_items_ingested_total",
			Help: "Media items added to the catalog",
		}, []string{"kind"}),
		catalogItems: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gonet_catalog_items",
			Help: "Number of media items in the catalog",
		}),
		storeSaves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gonet_store_saves_total",
			Help: "Store writes by key",
		}, []string{"key"}),
	}
	reg.MustRegister(
		m.requestsTotal, m.requestDuration, m.ingestsTotal,
		m.itemsIngested, m.catalogItems, m.storeSaves,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) ObserveRequest(route string, status int, d time.Duration) {
	m.requestsTotal.WithLabelValues(route, StatusBucket(status)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(d.Seconds())
}

func (m *Metrics) IncIngest(kind, result string) {
	m.ingestsTotal.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) AddItemsIngested(kind string, n int) {
	m.itemsIngested.WithLabelValues(kind).Add(float64(n))
}

func (m *Metrics) SetCatalogSize(n int) {
	m.catalogItems.Set(float64(n))
}

func (m *Metrics) IncStoreSave(key string) {
	if key == "" {
		key = "all"
	}
	m.storeSaves.WithLabelValues(key).Inc()
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// StatusBucket collapses an HTTP status code to its class.
func StatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

// Nop discards everything. Used when metrics are disabled.
type Nop struct{}

func (Nop) ObserveRequest(string, int, time.Duration) {}
func (Nop) IncIngest(string, string)                  {}
func (Nop) AddItemsIngested(string, int)              {}
func (Nop) SetCatalogSize(int)                        {}
func (Nop) IncStoreSave(string)                       {}
