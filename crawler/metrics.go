package crawler

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the crawl engine.
type Metrics struct {
	Registry             *prometheus.Registry
	RequestsTotal        *prometheus.CounterVec
	RequestDuration      prometheus.Histogram
	PagesTotal           *prometheus.CounterVec
	ItemsNormalizedTotal prometheus.Counter
	RecordsAddedTotal    prometheus.Counter
	StoreRecords         prometheus.Gauge
	ErrorsTotal          *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawler_requests_total",
			Help: "Total HTTP requests issued by the crawler.",
		},
		[]string{"phase"},
	)
	requestDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "crawler_request_duration_seconds",
			Help:    "HTTP request latency for crawler requests.",
			Buckets: prometheus.DefBuckets,
		},
	)
	pages := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawler_pages_total",
			Help: "Total pages processed by outcome.",
		},
		[]string{"outcome"},
	)
	itemsNormalized := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crawler_items_normalized_total",
			Help: "Total raw items normalized into records.",
		},
	)
	recordsAdded := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crawler_records_added_total",
			Help: "Total novel records merged into the store.",
		},
	)
	storeRecords := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "crawler_store_records",
			Help: "Records currently in the output store.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawler_errors_total",
			Help: "Total number of crawler errors by type.",
		},
		[]string{"error_type"},
	)

	registry.MustRegister(requests, requestDuration, pages, itemsNormalized, recordsAdded, storeRecords, errorsTotal)

	return &Metrics{
		Registry:             registry,
		RequestsTotal:        requests,
		RequestDuration:      requestDuration,
		PagesTotal:           pages,
		ItemsNormalizedTotal: itemsNormalized,
		RecordsAddedTotal:    recordsAdded,
		StoreRecords:         storeRecords,
		ErrorsTotal:          errorsTotal,
	}
}

// IncRequest increments the requests total counter for a phase.
func (m *Metrics) IncRequest(phase string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(phase).Inc()
}

// ObserveDuration records an HTTP request duration.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.Observe(d.Seconds())
}

// IncPage increments the pages counter for an outcome label.
func (m *Metrics) IncPage(outcome string) {
	if m == nil {
		return
	}
	m.PagesTotal.WithLabelValues(outcome).Inc()
}

// AddItems adds to the normalized items counter.
func (m *Metrics) AddItems(n int) {
	if m == nil {
		return
	}
	m.ItemsNormalizedTotal.Add(float64(n))
}

// AddRecords adds to the merged records counter.
func (m *Metrics) AddRecords(n int) {
	if m == nil {
		return
	}
	m.RecordsAddedTotal.Add(float64(n))
}

// SetStoreRecords updates the store size gauge.
func (m *Metrics) SetStoreRecords(n int) {
	if m == nil {
		return
	}
	m.StoreRecords.Set(float64(n))
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}
