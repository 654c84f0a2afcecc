// Package metrics exposes Prometheus instrumentation for data fetches,
// analyses and the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the service. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	FetchTotal    *prometheus.CounterVec   // labels: source, status
	FetchDuration *prometheus.HistogramVec // labels: source
	CacheLookups  *prometheus.CounterVec   // labels: result=hit|miss

	IndicatorComputeDur prometheus.Histogram
	SignalsTotal        *prometheus.CounterVec // labels: classification
	BacktestsTotal      prometheus.Counter
	BacktestDur         prometheus.Histogram

	HTTPRequests *prometheus.CounterVec   // labels: route, method, status
	HTTPDuration *prometheus.HistogramVec // labels: route, method

	NotificationsTotal *prometheus.CounterVec // labels: status
}

// NewMetrics registers and returns all metrics on a private registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: reg,
		FetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockpulse_fetch_total",
			Help: "Market data fetches by source and outcome",
		}, []string{"source", "status"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stockpulse_fetch_duration_seconds",
			Help:    "Market data fetch latency",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"source"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockpulse_cache_lookups_total",
			Help: "Bar cache lookups by result",
		}, []string{"result"}),
		IndicatorComputeDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stockpulse_indicator_compute_seconds",
			Help:    "Time to compute the indicator table for one series",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		SignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockpulse_signals_total",
			Help: "Evaluated signals by classification",
		}, []string{"classification"}),
		BacktestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stockpulse_backtests_total",
			Help: "Completed backtest runs",
		}),
		BacktestDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stockpulse_backtest_seconds",
			Help:    "Backtest simulation time",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockpulse_http_requests_total",
			Help: "HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stockpulse_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"route", "method"}),
		NotificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockpulse_notifications_total",
			Help: "Telegram messages by outcome",
		}, []string{"status"}),
	}

	reg.MustRegister(
		m.FetchTotal, m.FetchDuration, m.CacheLookups,
		m.IndicatorComputeDur, m.SignalsTotal, m.BacktestsTotal, m.BacktestDur,
		m.HTTPRequests, m.HTTPDuration, m.NotificationsTotal,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *Metrics) ObserveFetch(source string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.FetchTotal.WithLabelValues(source, status(err)).Inc()
	m.FetchDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
}

func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveCompute(start time.Time) {
	if m == nil {
		return
	}
	m.IndicatorComputeDur.Observe(time.Since(start).Seconds())
}

func (m *Metrics) ObserveSignal(classification string) {
	if m == nil {
		return
	}
	m.SignalsTotal.WithLabelValues(classification).Inc()
}

func (m *Metrics) ObserveBacktest(start time.Time) {
	if m == nil {
		return
	}
	m.BacktestsTotal.Inc()
	m.BacktestDur.Observe(time.Since(start).Seconds())
}

func (m *Metrics) ObserveHTTP(route, method string, code int, start time.Time) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.HTTPDuration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
}

func (m *Metrics) ObserveNotification(err error) {
	if m == nil {
		return
	}
	m.NotificationsTotal.WithLabelValues(status(err)).Inc()
}
