package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the refresh cycle collectors on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	RefreshDuration *prometheus.HistogramVec
	RefreshFailures *prometheus.CounterVec
	LastSuccess     *prometheus.GaugeVec
	SeriesRows      *prometheus.GaugeVec
	CacheFallbacks  *prometheus.CounterVec
}

// New registers all collectors plus the Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		RefreshDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "seasonality_refresh_duration_seconds",
			Help:    "Time to fetch and aggregate one lookback period.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"years"}),
		RefreshFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "seasonality_refresh_failures_total",
			Help: "Refresh cycles in which a lookback period failed.",
		}, []string{"years"}),
		LastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "seasonality_last_success_timestamp_seconds",
			Help: "Unix time of the last successful aggregation of a lookback period.",
		}, []string{"years"}),
		SeriesRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "seasonality_series_rows",
			Help: "Trading sessions in the last aggregated series of a lookback period.",
		}, []string{"years"}),
		CacheFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "seasonality_cache_fallbacks_total",
			Help: "Aggregations served from the price cache after a fetch failure.",
		}, []string{"years"}),
	}
	reg.MustRegister(
		m.RefreshDuration, m.RefreshFailures, m.LastSuccess, m.SeriesRows, m.CacheFallbacks,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveSuccess records a period that produced a report.
func (m *Metrics) ObserveSuccess(years int, d time.Duration, rows int, fromCache bool, at time.Time) {
	if m == nil {
		return
	}
	l := label(years)
	m.RefreshDuration.WithLabelValues(l).Observe(d.Seconds())
	m.LastSuccess.WithLabelValues(l).Set(float64(at.Unix()))
	m.SeriesRows.WithLabelValues(l).Set(float64(rows))
	if fromCache {
		m.CacheFallbacks.WithLabelValues(l).Inc()
	}
}

// ObserveFailure records a period that failed in this cycle.
func (m *Metrics) ObserveFailure(years int, d time.Duration) {
	if m == nil {
		return
	}
	l := label(years)
	m.RefreshDuration.WithLabelValues(l).Observe(d.Seconds())
	m.RefreshFailures.WithLabelValues(l).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

func label(years int) string { return strconv.Itoa(years) }
