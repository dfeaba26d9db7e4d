package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/lacquerai/parity/internal/ast"
	"github.com/lacquerai/parity/internal/bias"
	"github.com/lacquerai/parity/internal/dataset"
	"github.com/lacquerai/parity/internal/events"
	"github.com/lacquerai/parity/internal/explain"
	"github.com/lacquerai/parity/internal/metrics"
	"github.com/lacquerai/parity/internal/parser"
	"github.com/lacquerai/parity/internal/report"
	pkgEvents "github.com/lacquerai/parity/pkg/events"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of audits RunFiles executes at once when
// no limit is configured.
const DefaultConcurrency = 4

// Result is the outcome of one audit. Report is nil when Error is set.
type Result struct {
	File      string                   `json:"file,omitempty" yaml:"file,omitempty"`
	Audit     string                   `json:"audit" yaml:"audit"`
	Dataset   string                   `json:"dataset,omitempty" yaml:"dataset,omitempty"`
	Rows      int                      `json:"rows" yaml:"rows"`
	Threshold float64                  `json:"threshold" yaml:"threshold"`
	Missing   bias.MissingPolicy       `json:"missing" yaml:"missing"`
	Report    *report.ComplianceReport `json:"report,omitempty" yaml:"report,omitempty"`
	Error     string                   `json:"error,omitempty" yaml:"error,omitempty"`
	Duration  time.Duration            `json:"duration" yaml:"duration"`

	err error
}

// Err returns the error that stopped the audit, if any.
func (r *Result) Err() error {
	return r.err
}

// Failed reports whether the audit produced no report.
func (r *Result) Failed() bool {
	return r.err != nil
}

// Biased reports whether the audit found at least one biased column.
func (r *Result) Biased() bool {
	return r.Report != nil && r.Report.HasBias()
}

func (r *Result) fail(err error) *Result {
	r.err = err
	r.Error = err.Error()
	r.Report = nil
	return r
}

// Defaults apply to every audit that does not set the value itself.
type Defaults struct {
	Threshold float64
	Missing   bias.MissingPolicy
	// Top truncates the interpretability table. Zero keeps every feature.
	Top int
}

// Runner loads, analyzes and reports audits.
type Runner struct {
	parser      parser.Parser
	cache       *dataset.Cache
	exporter    *metrics.Exporter
	listener    pkgEvents.Listener
	defaults    Defaults
	concurrency int
}

// RunnerOption is a function that can be used to configure a Runner.
type RunnerOption func(*Runner)

// WithParser sets the parser used by RunFile and RunFiles.
func WithParser(p parser.Parser) RunnerOption {
	return func(r *Runner) {
		r.parser = p
	}
}

// WithCache shares a dataset cache between runs.
func WithCache(c *dataset.Cache) RunnerOption {
	return func(r *Runner) {
		r.cache = c
	}
}

// WithExporter records every audit outcome on e.
func WithExporter(e *metrics.Exporter) RunnerOption {
	return func(r *Runner) {
		r.exporter = e
	}
}

// WithListener sets the receiver of progress events.
func WithListener(l pkgEvents.Listener) RunnerOption {
	return func(r *Runner) {
		r.listener = l
	}
}

// WithDefaults sets the values used when an audit leaves them unset.
func WithDefaults(d Defaults) RunnerOption {
	return func(r *Runner) {
		r.defaults = d
	}
}

// WithConcurrency limits the number of audits RunFiles executes at once.
func WithConcurrency(n int) RunnerOption {
	return func(r *Runner) {
		r.concurrency = n
	}
}

// NewRunner creates a runner. The parser and dataset cache are created when
// not supplied.
func NewRunner(options ...RunnerOption) (*Runner, error) {
	r := &Runner{
		defaults: Defaults{
			Threshold: bias.DefaultThreshold,
			Missing:   bias.MissingExclude,
		},
		concurrency: DefaultConcurrency,
	}

	for _, option := range options {
		option(r)
	}

	if r.parser == nil {
		p, err := parser.NewYAMLParser()
		if err != nil {
			return nil, fmt.Errorf("failed to create parser: %w", err)
		}
		r.parser = p
	}

	if r.cache == nil {
		c, err := dataset.NewCache(0)
		if err != nil {
			return nil, fmt.Errorf("failed to create dataset cache: %w", err)
		}
		r.cache = c
	}

	if r.listener == nil {
		r.listener = &pkgEvents.NoopListener{}
	}

	if r.concurrency <= 0 {
		r.concurrency = DefaultConcurrency
	}

	return r, nil
}

// Cache returns the dataset cache used by the runner.
func (r *Runner) Cache() *dataset.Cache {
	return r.cache
}

// RunFile parses and executes a single audit file.
func (r *Runner) RunFile(ctx context.Context, path string) *Result {
	results, _ := r.RunFiles(ctx, []string{path})
	return results[0]
}

// RunAudit executes an already parsed audit.
func (r *Runner) RunAudit(ctx context.Context, audit *ast.Audit) *Result {
	var result *Result
	r.withProgress(func(progress chan<- pkgEvents.ExecutionEvent) {
		result = r.execute(ctx, audit, 1, 1, progress)
	})
	return result
}

// RunFiles executes the audit files concurrently. Results keep the order of
// paths. A failing audit does not stop the others; the returned error is
// only set when ctx was cancelled.
func (r *Runner) RunFiles(ctx context.Context, paths []string) ([]*Result, error) {
	results := make([]*Result, len(paths))

	r.withProgress(func(progress chan<- pkgEvents.ExecutionEvent) {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.concurrency)

		for i, path := range paths {
			g.Go(func() error {
				results[i] = r.runFile(gctx, path, i+1, len(paths), progress)
				return nil
			})
		}

		_ = g.Wait()
	})

	return results, ctx.Err()
}

func (r *Runner) runFile(ctx context.Context, path string, index, total int, progress chan<- pkgEvents.ExecutionEvent) *Result {
	audit, err := r.parser.ParseFile(path)
	if err != nil {
		name := (&ast.Audit{SourceFile: path}).Name()
		result := &Result{File: path, Audit: name}
		progress <- events.NewAuditFailedEvent(name, index, total, 0, err)
		r.recordFailure(name)
		return result.fail(err)
	}

	return r.execute(ctx, audit, index, total, progress)
}

func (r *Runner) execute(ctx context.Context, audit *ast.Audit, index, total int, progress chan<- pkgEvents.ExecutionEvent) *Result {
	start := time.Now()
	name := audit.Name()

	result := &Result{
		File:      audit.SourceFile,
		Audit:     name,
		Threshold: r.defaults.Threshold,
		Missing:   r.defaults.Missing,
	}

	progress <- events.NewAuditStartedEvent(name, index, total)

	rep, err := r.build(ctx, audit, result, index, total, progress)
	result.Duration = time.Since(start)

	if err != nil {
		log.Error().
			Err(err).
			Str("audit", name).
			Dur("duration", result.Duration).
			Msg("Audit failed")

		progress <- events.NewAuditFailedEvent(name, index, total, result.Duration, err)
		r.recordFailure(name)
		return result.fail(err)
	}

	result.Report = rep
	biased := rep.Biased()

	log.Info().
		Str("audit", name).
		Int("rows", result.Rows).
		Strs("biased", biased).
		Dur("duration", result.Duration).
		Msg("Audit completed")

	if r.exporter != nil {
		r.exporter.Record(name, rep, result.Duration)
	}

	progress <- events.NewAuditCompletedEvent(name, index, total, result.Duration, biased)
	return result
}

func (r *Runner) build(ctx context.Context, audit *ast.Audit, result *Result, index, total int, progress chan<- pkgEvents.ExecutionEvent) (*report.ComplianceReport, error) {
	if audit.Dataset == nil {
		return nil, errors.New("audit has no dataset")
	}

	if audit.Bias != nil {
		if audit.Bias.Threshold != nil {
			result.Threshold = *audit.Bias.Threshold
		}
		if audit.Bias.Missing != "" {
			policy, err := bias.ParseMissingPolicy(audit.Bias.Missing)
			if err != nil {
				return nil, err
			}
			result.Missing = policy
		}
	}

	builder, err := report.NewBuilder(
		bias.WithThreshold(result.Threshold),
		bias.WithMissingPolicy(result.Missing),
	)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ds, err := r.loadDataset(audit)
	if err != nil {
		return nil, err
	}
	result.Dataset = ds.Name
	result.Rows = ds.Rows()
	progress <- events.NewDatasetLoadedEvent(result.Audit, index, total, ds.Rows(), ds.Width())

	model, features, err := r.loadModel(audit)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rep, err := builder.Build(ds, audit.ProtectedColumns, model, features)
	if err != nil {
		return nil, err
	}

	rep.Interpretability = explain.Top(rep.Interpretability, r.defaults.Top)
	return rep, nil
}

func (r *Runner) loadDataset(audit *ast.Audit) (*dataset.Dataset, error) {
	src := audit.Dataset
	path := audit.ResolvePath(src.Path)

	opts := dataset.DefaultLoadOptions()
	opts.Format = dataset.Format(src.Format)
	opts.Delimiter = src.DelimiterRune()
	if src.MissingValues != nil {
		opts.MissingValues = src.MissingValues
	}

	ds, err := r.cache.Load(path, opts)
	if err != nil {
		return nil, fmt.Errorf("loading dataset %s: %w", filepath.Base(path), err)
	}

	log.Debug().
		Str("path", path).
		Int("rows", ds.Rows()).
		Int("columns", ds.Width()).
		Msg("Dataset loaded")

	return ds, nil
}

func (r *Runner) loadModel(audit *ast.Audit) (explain.Model, []string, error) {
	if !audit.HasModel() {
		return nil, nil, nil
	}

	m := audit.Model
	if m.ImportancesFile != "" {
		importances, err := explain.LoadImportances(audit.ResolvePath(m.ImportancesFile))
		if err != nil {
			return nil, nil, err
		}
		return importances, m.Features, nil
	}

	return explain.Importances(m.Importances), m.Features, nil
}

func (r *Runner) recordFailure(audit string) {
	if r.exporter != nil {
		r.exporter.RecordFailure(audit)
	}
}

// withProgress runs fn while the listener consumes the events it sends.
func (r *Runner) withProgress(fn func(progress chan<- pkgEvents.ExecutionEvent)) {
	progressChan := make(chan pkgEvents.ExecutionEvent, 100)
	done := make(chan struct{})

	go func() {
		defer close(done)
		r.listener.StartListening(progressChan)
	}()

	fn(progressChan)
	close(progressChan)
	<-done

	r.listener.StopListening()
}
