// Package metrics exposes Prometheus collectors for fetches, actions and the
// current snapshot.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/theirongolddev/adrec/internal/model"
)

const namespace = "adrec"

// Outcome labels.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
	OutcomeStale = "stale"
)

// Metrics is a set of collectors on a private registry. All methods are
// safe on a nil receiver.
type Metrics struct {
	registry *prometheus.Registry

	fetches       *prometheus.CounterVec
	fetchDuration prometheus.Histogram
	actions       *prometheus.CounterVec
	campaigns     prometheus.Gauge
	adsets        *prometheus.GaugeVec
	totals        *prometheus.GaugeVec
	lastSuccess   prometheus.Gauge
}

// New registers the adrec collectors plus the Go and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_fetches_total",
			Help:      "Snapshot fetches by outcome.",
		}, []string{"outcome"}),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "snapshot_fetch_duration_seconds",
			Help:      "Time spent fetching and normalizing a snapshot.",
			Buckets:   prometheus.DefBuckets,
		}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "Budget and pause submissions by kind and outcome.",
		}, []string{"kind", "outcome"}),
		campaigns: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_campaigns",
			Help:      "Campaigns in the current snapshot.",
		}),
		adsets: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_adsets",
			Help:      "Adsets in the current snapshot by recommendation.",
		}, []string{"recommendation"}),
		totals: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_total",
			Help:      "Summary totals of the current snapshot.",
		}, []string{"field"}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_last_success_timestamp_seconds",
			Help:      "Unix time of the last applied snapshot.",
		}),
	}

	m.registry.MustRegister(
		m.fetches, m.fetchDuration, m.actions,
		m.campaigns, m.adsets, m.totals, m.lastSuccess,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveFetch records one fetch attempt.
func (m *Metrics) ObserveFetch(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(outcome).Inc()
	m.fetchDuration.Observe(d.Seconds())
}

// ObserveAction records one budget or pause submission.
func (m *Metrics) ObserveAction(kind string, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	m.actions.WithLabelValues(kind, outcome).Inc()
}

// SetSnapshot replaces the snapshot gauges.
func (m *Metrics) SetSnapshot(snap *model.Snapshot) {
	if m == nil || snap == nil {
		return
	}
	m.campaigns.Set(float64(len(snap.Campaigns)))

	m.adsets.Reset()
	for _, c := range snap.Campaigns {
		for _, a := range c.Adsets {
			rec := string(a.Recommendation)
			if rec == "" {
				rec = "none"
			}
			m.adsets.WithLabelValues(rec).Inc()
		}
	}

	s := snap.Summary
	m.totals.WithLabelValues("cost").Set(s.TotalCost)
	m.totals.WithLabelValues("revenue").Set(s.TotalRevenue)
	m.totals.WithLabelValues("profit").Set(s.TotalProfit)
	m.totals.WithLabelValues("clicks").Set(float64(s.TotalClicks))
	m.totals.WithLabelValues("conversions").Set(float64(s.TotalConversions))

	if !snap.FetchedAt.IsZero() {
		m.lastSuccess.Set(float64(snap.FetchedAt.Unix()))
	}
}
