// Package metrics exposes audit results as Prometheus gauges.
package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/lacquerai/parity/internal/report"
	"github.com/prometheus/client_golang/prometheus"
)

// Audit outcomes recorded by parity_audits_total.
const (
	StatusClean  = "clean"
	StatusBiased = "biased"
	StatusError  = "error"
)

// Exporter records compliance reports on its own registry
type Exporter struct {
	registry *prometheus.Registry

	categoryShare *prometheus.GaugeVec
	maxShare      *prometheus.GaugeVec
	columnBiased  *prometheus.GaugeVec
	importance    *prometheus.GaugeVec
	duration      *prometheus.GaugeVec
	audits        *prometheus.CounterVec
}

// NewExporter creates an exporter backed by a fresh registry
func NewExporter() *Exporter {
	return NewExporterWithRegistry(prometheus.NewRegistry())
}

// NewExporterWithRegistry creates an exporter that registers on registry
func NewExporterWithRegistry(registry *prometheus.Registry) *Exporter {
	e := &Exporter{
		registry: registry,

		categoryShare: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "parity_category_share_percent",
			Help: "Share of each category of a protected column, in percent",
		}, []string{"audit", "column", "value"}),
		maxShare: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "parity_max_share_percent",
			Help: "Largest category share of a protected column, in percent",
		}, []string{"audit", "column"}),
		columnBiased: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "parity_column_biased",
			Help: "1 when a protected column exceeds the bias threshold, 0 otherwise",
		}, []string{"audit", "column"}),
		importance: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "parity_feature_importance",
			Help: "Model importance of a feature and its rank, 1 being the most important",
		}, []string{"audit", "feature", "rank"}),
		duration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "parity_audit_duration_seconds",
			Help: "Time taken to load the dataset and build the report",
		}, []string{"audit"}),
		audits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "parity_audits_total",
			Help: "Audits run, by outcome",
		}, []string{"status"}),
	}

	registry.MustRegister(
		e.categoryShare,
		e.maxShare,
		e.columnBiased,
		e.importance,
		e.duration,
		e.audits,
	)

	return e
}

// Registry returns the registry the exporter writes to
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// Record stores the results of one audit. Previous values for the same
// audit are replaced.
func (e *Exporter) Record(audit string, r *report.ComplianceReport, elapsed time.Duration) {
	e.Reset(audit)

	if r.BiasCheck != nil {
		for pair := r.BiasCheck.Oldest(); pair != nil; pair = pair.Next() {
			column, entry := pair.Key, pair.Value

			for share := entry.Distribution.Oldest(); share != nil; share = share.Next() {
				e.categoryShare.WithLabelValues(audit, column, share.Key).Set(share.Value)
			}
			e.maxShare.WithLabelValues(audit, column).Set(entry.MaxPercentage)

			biased := 0.0
			if entry.IsBiased {
				biased = 1
			}
			e.columnBiased.WithLabelValues(audit, column).Set(biased)
		}
	}

	for i, entry := range r.Interpretability {
		e.importance.WithLabelValues(audit, entry.Feature, strconv.Itoa(i+1)).Set(entry.Importance)
	}

	e.duration.WithLabelValues(audit).Set(elapsed.Seconds())

	status := StatusClean
	if r.HasBias() {
		status = StatusBiased
	}
	e.audits.WithLabelValues(status).Inc()
}

// RecordFailure counts an audit that produced no report
func (e *Exporter) RecordFailure(audit string) {
	e.Reset(audit)
	e.audits.WithLabelValues(StatusError).Inc()
}

// Reset removes every series labelled with audit
func (e *Exporter) Reset(audit string) {
	labels := prometheus.Labels{"audit": audit}
	e.categoryShare.DeletePartialMatch(labels)
	e.maxShare.DeletePartialMatch(labels)
	e.columnBiased.DeletePartialMatch(labels)
	e.importance.DeletePartialMatch(labels)
	e.duration.DeletePartialMatch(labels)
}

// WriteTextfile writes all metrics in the text exposition format for the
// node exporter textfile collector. The file is replaced atomically.
func (e *Exporter) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, e.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
