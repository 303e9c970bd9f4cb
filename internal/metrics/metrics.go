// Package metrics exposes Prometheus metrics and a small health endpoint.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/shanehull/promowatch/internal/types"
)

const namespace = "promowatch"

// Cycle outcomes.
const (
	OutcomeNoChange   = "no_change"
	OutcomeNewCode    = "new_code"
	OutcomeEmpty      = "empty"
	OutcomeFetchError = "fetch_error"
	OutcomeSkipped    = "skipped"
)

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	CyclesTotal           *prometheus.CounterVec
	ScrapeDurationSeconds prometheus.Histogram
	CodesSeen             *prometheus.GaugeVec
	AlertsTotal           *prometheus.CounterVec
	CommandsTotal         *prometheus.CounterVec
}

// New creates and registers all collectors on reg, or the default registerer when reg is nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		CyclesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "poll",
				Name:      "cycles_total",
				Help:      "Poll cycles by outcome",
			},
			[]string{"outcome"},
		),
		ScrapeDurationSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "scrape",
				Name:      "duration_seconds",
				Help:      "Duration of one page fetch plus extraction",
				Buckets:   prometheus.ExponentialBuckets(0.1, 2, 8), // 0.1s to 12.8s
			},
		),
		CodesSeen: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "scrape",
				Name:      "codes",
				Help:      "Codes found by the last extraction, per category",
			},
			[]string{"category"},
		),
		AlertsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "notify",
				Name:      "alerts_total",
				Help:      "Alert dispatch attempts by result",
			},
			[]string{"result"},
		),
		CommandsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "commands",
				Name:      "invocations_total",
				Help:      "Command invocations by name and result",
			},
			[]string{"command", "result"},
		),
	}
}

func (m *Metrics) ObserveCycle(outcome string) {
	if m == nil {
		return
	}
	m.CyclesTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveScrape(d time.Duration) {
	if m == nil {
		return
	}
	m.ScrapeDurationSeconds.Observe(d.Seconds())
}

// ObserveExtraction records the size of both lists.
func (m *Metrics) ObserveExtraction(res types.ExtractionResult) {
	if m == nil {
		return
	}
	m.CodesSeen.WithLabelValues(string(types.CategoryTimeLimited)).Set(float64(len(res.TimeLimited)))
	m.CodesSeen.WithLabelValues(string(types.CategoryNewPlayer)).Set(float64(len(res.NewPlayer)))
}

func (m *Metrics) ObserveAlert(err error) {
	if m == nil {
		return
	}
	m.AlertsTotal.WithLabelValues(result(err)).Inc()
}

func (m *Metrics) ObserveCommand(name string, err error) {
	if m == nil {
		return
	}
	m.CommandsTotal.WithLabelValues(name, result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return "failed"
	}
	return "ok"
}
