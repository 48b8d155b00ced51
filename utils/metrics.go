package utils

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the prometheus collectors updated by every parse run.
type Metrics struct {
	Parsed   prometheus.Counter
	Failed   prometheus.Counter
	Blank    prometheus.Counter
	Duration prometheus.Histogram
	Columns  prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Parsed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sstab_lines_parsed_total",
			Help: "Lines successfully decoded into records.",
		}),
		Failed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sstab_lines_failed_total",
			Help: "Non-blank lines that could not be decoded.",
		}),
		Blank: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sstab_lines_blank_total",
			Help: "Blank lines skipped.",
		}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sstab_parse_duration_seconds",
			Help:    "Wall time of one parse-and-flatten pass.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		}),
		Columns: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sstab_table_columns",
			Help: "Number of columns in the most recently flattened table.",
		}),
	}
	reg.MustRegister(m.Parsed, m.Failed, m.Blank, m.Duration, m.Columns)
	return m
}

// ObserveRun records the outcome of one parse pass.
func (m *Metrics) ObserveRun(parsed, failed, blank, columns int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Parsed.Add(float64(parsed))
	m.Failed.Add(float64(failed))
	m.Blank.Add(float64(blank))
	m.Columns.Set(float64(columns))
	m.Duration.Observe(elapsed.Seconds())
}
