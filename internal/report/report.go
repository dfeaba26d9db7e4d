// Package report assembles bias and interpretability results into a single
// compliance report.
package report

import (
	"fmt"

	"github.com/lacquerai/parity/internal/bias"
	"github.com/lacquerai/parity/internal/dataset"
	"github.com/lacquerai/parity/internal/explain"
	"github.com/rs/zerolog/log"
)

// ComplianceReport is the outcome of one audit. Interpretability is nil when
// no model was supplied.
type ComplianceReport struct {
	BiasCheck        *bias.Check     `json:"bias_check" yaml:"bias_check"`
	Interpretability []explain.Entry `json:"interpretability,omitempty" yaml:"interpretability,omitempty"`
}

// Biased returns the names of biased columns in report order.
func (r *ComplianceReport) Biased() []string {
	var out []string
	if r.BiasCheck == nil {
		return out
	}
	for pair := r.BiasCheck.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value.IsBiased {
			out = append(out, pair.Key)
		}
	}
	return out
}

// HasBias reports whether any protected column is biased.
func (r *ComplianceReport) HasBias() bool {
	return len(r.Biased()) > 0
}

// Builder runs the bias analysis and, when a model is given, the importance
// ranking.
type Builder struct {
	analyzer *bias.Analyzer
}

// NewBuilder creates a Builder whose analyzer is configured by opts.
func NewBuilder(opts ...bias.Option) (*Builder, error) {
	analyzer, err := bias.NewAnalyzer(opts...)
	if err != nil {
		return nil, err
	}
	return &Builder{analyzer: analyzer}, nil
}

// Analyzer returns the bias analyzer used by b.
func (b *Builder) Analyzer() *bias.Analyzer {
	return b.analyzer
}

// Build produces the report for ds. The interpretability section is computed
// only when model is non-nil and features is non-empty. The first failure
// aborts the build and no partial report is returned.
func (b *Builder) Build(ds *dataset.Dataset, columns []string, model explain.Model, features []string) (*ComplianceReport, error) {
	check, err := b.analyzer.Analyze(ds, columns)
	if err != nil {
		return nil, fmt.Errorf("bias check: %w", err)
	}

	report := &ComplianceReport{BiasCheck: check}

	if model == nil || len(features) == 0 {
		log.Debug().Str("dataset", ds.Name).Msg("No model supplied, skipping interpretability")
		return report, nil
	}

	entries, err := explain.ExplainModel(model, features)
	if err != nil {
		return nil, fmt.Errorf("interpretability: %w", err)
	}
	report.Interpretability = entries

	return report, nil
}
