package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/lacquerai/parity/internal/ast"
	"github.com/lacquerai/parity/internal/bias"
	"github.com/lacquerai/parity/internal/dataset"
	"github.com/lacquerai/parity/internal/engine"
	"github.com/lacquerai/parity/internal/metrics"
	"github.com/lacquerai/parity/internal/style"
	pkgEvents "github.com/lacquerai/parity/pkg/events"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type checkOptions struct {
	recursive   bool
	data        string
	format      string
	protected   []string
	features    []string
	importances []float64
	importFile  string
	top         int
	metricsFile string
	failOnBias  bool
}

func newCheckCmd() *cobra.Command {
	opts := &checkOptions{}

	cmd := &cobra.Command{
		Use:   "check [audit files...]",
		Short: "Run fairness audits and print the compliance report",
		Long: `Run one or more audits and print their compliance reports.

Each report contains:
- the category distribution of every protected column, flagged as biased
  when one category exceeds the dominance threshold
- the ranked feature importances of the model, when one is configured

Audits are read from *.parity.yaml files, or built from flags with --data.

Examples:
  parity check loans.parity.yaml                     # Run a single audit
  parity check -r ./audits --concurrency 8           # Run every audit in a directory
  parity check --data applicants.csv --protected gender,race
  parity check --data applicants.csv --protected gender \
    --features age,income --importances 0.3,0.7      # Include interpretability
  parity check audits/*.parity.yaml --fail-on-bias   # Exit 2 when bias is found`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args, opts)
		},
	}

	flags := cmd.Flags()
	flags.BoolVarP(&opts.recursive, "recursive", "r", false, "recursively run audit files in directories")
	flags.StringVar(&opts.data, "data", "", "dataset file for an ad-hoc audit")
	flags.StringVar(&opts.format, "format", "", "dataset format for --data (csv, tsv, json); detected from the extension by default")
	flags.StringSliceVar(&opts.protected, "protected", nil, "protected columns for an ad-hoc audit")
	flags.StringSliceVar(&opts.features, "features", nil, "model feature names for an ad-hoc audit")
	flags.Float64SliceVar(&opts.importances, "importances", nil, "model feature importances, aligned with --features")
	flags.StringVar(&opts.importFile, "importances-file", "", "YAML or JSON list of feature importances")
	flags.Float64("threshold", bias.DefaultThreshold, "dominance threshold in percent")
	flags.String("missing", string(bias.MissingExclude), "missing value policy (exclude, include)")
	flags.IntVar(&opts.top, "top", 0, "show only the N most important features")
	flags.Int("concurrency", engine.DefaultConcurrency, "number of audits run at once")
	flags.Int("cache-size", dataset.DefaultCacheSize, "number of datasets kept in memory")
	flags.StringVar(&opts.metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile")
	flags.BoolVar(&opts.failOnBias, "fail-on-bias", false, "exit with status 2 when any column is biased")

	_ = viper.BindPFlag("bias.threshold", flags.Lookup("threshold"))
	_ = viper.BindPFlag("bias.missing", flags.Lookup("missing"))
	_ = viper.BindPFlag("concurrency", flags.Lookup("concurrency"))
	_ = viper.BindPFlag("cache.size", flags.Lookup("cache-size"))

	return cmd
}

// CheckSummary is the structured output of the check command.
type CheckSummary struct {
	Total    int              `json:"total" yaml:"total"`
	Clean    int              `json:"clean" yaml:"clean"`
	Biased   int              `json:"biased" yaml:"biased"`
	Failed   int              `json:"failed" yaml:"failed"`
	Duration time.Duration    `json:"duration" yaml:"duration"`
	Results  []*engine.Result `json:"results" yaml:"results"`
}

func newCheckSummary(results []*engine.Result, duration time.Duration) CheckSummary {
	summary := CheckSummary{
		Total:    len(results),
		Duration: duration,
		Results:  results,
	}
	for _, result := range results {
		switch {
		case result.Failed():
			summary.Failed++
		case result.Biased():
			summary.Biased++
		default:
			summary.Clean++
		}
	}
	return summary
}

func runCheck(cmd *cobra.Command, args []string, opts *checkOptions) error {
	start := time.Now()
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()

	if len(args) == 0 && opts.data == "" {
		return &ExitError{Code: ExitFailure, Err: errors.New("no audit files given; pass audit files or --data")}
	}
	if len(args) > 0 && opts.data != "" {
		return &ExitError{Code: ExitFailure, Err: errors.New("--data cannot be combined with audit files")}
	}

	runner, exporter, err := newCheckRunner(stderr, opts)
	if err != nil {
		return &ExitError{Code: ExitFailure, Err: err}
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var results []*engine.Result
	if opts.data != "" {
		audit, err := adHocAudit(opts)
		if err != nil {
			return &ExitError{Code: ExitFailure, Err: err}
		}
		results = []*engine.Result{runner.RunAudit(ctx, audit)}
	} else {
		files, err := collectFiles(args, opts.recursive)
		if err != nil {
			return &ExitError{Code: ExitFailure, Err: err}
		}
		if len(files) == 0 {
			style.Warning(stderr, "No audit files found")
			return nil
		}

		results, err = runner.RunFiles(ctx, files)
		if err != nil {
			log.Warn().Err(err).Msg("Audit run interrupted")
		}
	}

	summary := newCheckSummary(results, time.Since(start))

	if exporter != nil {
		if err := exporter.WriteTextfile(opts.metricsFile); err != nil {
			return &ExitError{Code: ExitFailure, Err: err}
		}
	}

	structured, err := printOutput(stdout, summary)
	if err != nil {
		return &ExitError{Code: ExitFailure, Err: err}
	}
	if !structured {
		printCheckText(stdout, summary)
	}

	switch {
	case summary.Failed > 0:
		return &ExitError{Code: ExitFailure, Err: fmt.Errorf("%d of %d audit(s) failed", summary.Failed, summary.Total)}
	case opts.failOnBias && summary.Biased > 0:
		return &ExitError{Code: ExitBias, Err: fmt.Errorf("bias detected in %d of %d audit(s)", summary.Biased, summary.Total)}
	}
	return nil
}

func newCheckRunner(stderr io.Writer, opts *checkOptions) (*engine.Runner, *metrics.Exporter, error) {
	missing, err := bias.ParseMissingPolicy(viper.GetString("bias.missing"))
	if err != nil {
		return nil, nil, err
	}

	cache, err := dataset.NewCache(viper.GetInt("cache.size"))
	if err != nil {
		return nil, nil, err
	}

	var listener pkgEvents.Listener = &pkgEvents.NoopListener{}
	if !viper.GetBool("quiet") && viper.GetString("output") == "text" {
		listener = engine.NewProgressTracker(stderr)
	}

	options := []engine.RunnerOption{
		engine.WithCache(cache),
		engine.WithListener(listener),
		engine.WithConcurrency(viper.GetInt("concurrency")),
		engine.WithDefaults(engine.Defaults{
			Threshold: viper.GetFloat64("bias.threshold"),
			Missing:   missing,
			Top:       opts.top,
		}),
	}

	var exporter *metrics.Exporter
	if opts.metricsFile != "" {
		exporter = metrics.NewExporter()
		options = append(options, engine.WithExporter(exporter))
	}

	runner, err := engine.NewRunner(options...)
	if err != nil {
		return nil, nil, err
	}
	return runner, exporter, nil
}

// adHocAudit builds an audit from the check flags.
func adHocAudit(opts *checkOptions) (*ast.Audit, error) {
	name := filepath.Base(opts.data)
	name = strings.TrimSuffix(name, filepath.Ext(name))

	audit := &ast.Audit{
		Version:          "1.0",
		Metadata:         &ast.AuditMetadata{Name: name},
		Dataset:          &ast.DatasetSource{Path: opts.data, Format: opts.format},
		ProtectedColumns: opts.protected,
	}

	if len(opts.features) > 0 || len(opts.importances) > 0 || opts.importFile != "" {
		audit.Model = &ast.ModelSource{
			Features:        opts.features,
			Importances:     opts.importances,
			ImportancesFile: opts.importFile,
		}
	}

	if err := ast.NewValidator().ValidateAudit(audit).ToError(); err != nil {
		return nil, err
	}
	return audit, nil
}

func printCheckText(w io.Writer, summary CheckSummary) {
	if viper.GetBool("quiet") {
		return
	}

	fmt.Fprintln(w)
	for _, result := range summary.Results {
		printResult(w, result)
	}

	msg := fmt.Sprintf("%d audit(s): %d clean, %d biased, %d failed (%v)",
		summary.Total, summary.Clean, summary.Biased, summary.Failed, summary.Duration.Round(time.Millisecond))

	switch {
	case summary.Failed > 0:
		style.Error(w, msg)
	case summary.Biased > 0:
		style.Warning(w, msg)
	default:
		style.Success(w, msg)
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
