// Package compliance provides a public API for running fairness audits
// programmatically. It checks protected attributes of a dataset for
// dominance by a single category and ranks the feature importances of a
// model.
//
// The main functionality includes:
//   - Generating a report from an in-memory dataset
//   - Running *.parity.yaml audit files
//   - Monitoring audit progress through event listeners
//
// Example usage:
//
//	data := compliance.NewDataset("applicants")
//	_ = data.AddStrings("gender", "male", "male", "female")
//
//	report, err := compliance.GenerateReport(data, []string{"gender"},
//		compliance.WithModel(compliance.Importances{0.2, 0.8}, []string{"age", "income"}),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	for _, column := range report.Biased() {
//		fmt.Println("biased:", column)
//	}
package compliance

import (
	"context"
	"fmt"

	"github.com/lacquerai/parity/internal/bias"
	"github.com/lacquerai/parity/internal/dataset"
	"github.com/lacquerai/parity/internal/engine"
	"github.com/lacquerai/parity/internal/explain"
	"github.com/lacquerai/parity/internal/report"
	"github.com/lacquerai/parity/pkg/events"
)

// DefaultThreshold is the category share, in percent, above which a column
// is reported as biased.
const DefaultThreshold = bias.DefaultThreshold

type (
	// Report is the outcome of an audit: one bias entry per protected
	// column and, when a model was given, the ranked feature importances.
	Report = report.ComplianceReport
	// BiasEntry is the bias summary of one protected column.
	BiasEntry = bias.Entry
	// FeatureImportance pairs a feature with its importance score.
	FeatureImportance = explain.Entry
	// Dataset is an in-memory table of named, equal-length columns.
	Dataset = dataset.Dataset
	// Model exposes one importance score per feature.
	Model = explain.Model
	// Importances is a fixed importance vector that satisfies Model.
	Importances = explain.Importances
)

// Typed errors returned by GenerateReport, for use with errors.As.
type (
	ColumnNotFoundError = bias.ColumnNotFoundError
	EmptyColumnError    = bias.EmptyColumnError
	LengthMismatchError = explain.LengthMismatchError
)

type config struct {
	threshold float64
	missing   bias.MissingPolicy
	model     Model
	features  []string
	top       int
	listener  events.Listener
}

// Option represents a functional option for configuring an audit.
type Option func(*config)

// WithThreshold sets the dominance threshold in percent. A column is biased
// when its largest category share is strictly greater than threshold.
func WithThreshold(threshold float64) Option {
	return func(c *config) {
		c.threshold = threshold
	}
}

// WithMissingValues controls how missing values enter a distribution:
// "exclude" (the default) drops them, "include" counts them as a category
// of their own.
func WithMissingValues(policy string) Option {
	return func(c *config) {
		c.missing = bias.MissingPolicy(policy)
	}
}

// WithModel adds an interpretability section ranking the importances of m.
// features must be aligned positionally with m.Importances().
func WithModel(m Model, features []string) Option {
	return func(c *config) {
		c.model = m
		c.features = features
	}
}

// WithTop keeps only the n most important features. n <= 0 keeps all.
func WithTop(n int) Option {
	return func(c *config) {
		c.top = n
	}
}

// WithProgressListener configures a listener that receives an event when an
// audit starts, loads its dataset, and completes or fails. It applies to
// RunAuditFile.
//
// Example:
//
//	type MyListener struct{}
//
//	func (l *MyListener) StartListening(progressChan <-chan events.ExecutionEvent) {
//		for event := range progressChan {
//			fmt.Printf("%s: %s\n", event.Audit, event.Type)
//		}
//	}
//
//	func (l *MyListener) StopListening() {}
func WithProgressListener(listener events.Listener) Option {
	return func(c *config) {
		c.listener = listener
	}
}

func newConfig(options []Option) *config {
	c := &config{
		threshold: bias.DefaultThreshold,
		missing:   bias.MissingExclude,
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// NewDataset creates an empty dataset. Columns are added with AddColumn or
// AddStrings.
func NewDataset(name string) *Dataset {
	return dataset.New(name)
}

// LoadDataset reads a CSV, TSV or JSON file, choosing the format from the
// file extension. The tokens "", NA, NaN, null and None are read as missing.
func LoadDataset(path string) (*Dataset, error) {
	return dataset.LoadFile(path, dataset.DefaultLoadOptions())
}

// GenerateReport checks every protected column of data and, when WithModel
// was given with at least one feature, ranks the model's importances.
//
// The first failure aborts the report:
//   - a protected column missing from data returns *ColumnNotFoundError
//   - a column without countable values returns *EmptyColumnError
//   - importances and features of different lengths return *LengthMismatchError
func GenerateReport(data *Dataset, protected []string, options ...Option) (*Report, error) {
	c := newConfig(options)

	builder, err := report.NewBuilder(
		bias.WithThreshold(c.threshold),
		bias.WithMissingPolicy(c.missing),
	)
	if err != nil {
		return nil, err
	}

	r, err := builder.Build(data, protected, c.model, c.features)
	if err != nil {
		return nil, err
	}

	r.Interpretability = explain.Top(r.Interpretability, c.top)
	return r, nil
}

// RunAuditFile parses and runs a *.parity.yaml audit. Values set in the file
// take precedence over WithThreshold and WithMissingValues; WithModel is
// ignored because the model comes from the file.
func RunAuditFile(ctx context.Context, path string, options ...Option) (*Report, error) {
	c := newConfig(options)

	runnerOptions := []engine.RunnerOption{
		engine.WithDefaults(engine.Defaults{
			Threshold: c.threshold,
			Missing:   c.missing,
			Top:       c.top,
		}),
	}
	if c.listener != nil {
		runnerOptions = append(runnerOptions, engine.WithListener(c.listener))
	}

	runner, err := engine.NewRunner(runnerOptions...)
	if err != nil {
		return nil, fmt.Errorf("creating runner: %w", err)
	}

	result := runner.RunFile(ctx, path)
	if err := result.Err(); err != nil {
		return nil, err
	}
	return result.Report, nil
}
