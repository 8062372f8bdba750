package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce            sync.Once
	patternsEmittedTotal    *prometheus.CounterVec
	groupsSuppressedTotal   prometheus.Counter
	reportsGeneratedTotal   prometheus.Counter
	reportDurationSeconds   prometheus.Histogram
	exportRowsReleasedTotal prometheus.Counter
)

// RegisterMetrics initialises the Prometheus collectors used by the engine.
func RegisterMetrics() {
	registerOnce.Do(func() {
		patternsEmittedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "insights_patterns_emitted_total",
			Help: "Total number of k-anonymous patterns emitted by the detector.",
		}, []string{"type", "severity"})

		groupsSuppressedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "insights_groups_suppressed_total",
			Help: "Total number of under-threshold groups dropped by the k-anonymity filter.",
		})

		reportsGeneratedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "insights_reports_generated_total",
			Help: "Total number of analytics reports generated.",
		})

		reportDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "insights_report_duration_seconds",
			Help:    "Latency distribution for report generation.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		})

		exportRowsReleasedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "insights_export_rows_released_total",
			Help: "Total number of anonymized rows released through exports.",
		})

		prometheus.MustRegister(patternsEmittedTotal, groupsSuppressedTotal, reportsGeneratedTotal, reportDurationSeconds, exportRowsReleasedTotal)
	})
}

// PatternsEmitted exposes the counter for emitted patterns.
func PatternsEmitted() *prometheus.CounterVec {
	RegisterMetrics()
	return patternsEmittedTotal
}

// GroupsSuppressed exposes the counter for suppressed groups.
func GroupsSuppressed() prometheus.Counter {
	RegisterMetrics()
	return groupsSuppressedTotal
}

// ReportsGenerated exposes the counter for generated reports.
func ReportsGenerated() prometheus.Counter {
	RegisterMetrics()
	return reportsGeneratedTotal
}

// ReportDuration exposes the report generation latency histogram.
func ReportDuration() prometheus.Histogram {
	RegisterMetrics()
	return reportDurationSeconds
}

// ExportRowsReleased exposes the counter for released export rows.
func ExportRowsReleased() prometheus.Counter {
	RegisterMetrics()
	return exportRowsReleasedTotal
}
