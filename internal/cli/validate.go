package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/lacquerai/parity/internal/parser"
	"github.com/lacquerai/parity/internal/style"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newValidateCmd() *cobra.Command {
	var (
		recursive bool
		showAll   bool
	)

	cmd := &cobra.Command{
		Use:   "validate [files...]",
		Short: "Validate audit file syntax and semantics",
		Long: `Validate parity audit files for syntax errors, schema compliance, and semantic correctness.

This command checks:
- YAML syntax validity
- JSON schema compliance
- Supported version range
- Protected column and model definitions

Examples:
  parity validate loans.parity.yaml              # Validate single file
  parity validate *.parity.yaml                  # Validate multiple files
  parity validate --recursive ./audits           # Validate directory recursively
  parity validate --output json loans.parity.yaml # JSON output for CI/CD`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return validateAudits(cmd.OutOrStdout(), cmd.ErrOrStderr(), args, recursive, showAll)
		},
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "recursively validate files in directories")
	cmd.Flags().BoolVar(&showAll, "show-all", false, "show all validation results, including successful ones")

	return cmd
}

// ValidationResult represents the result of validating an audit file
type ValidationResult struct {
	File     string        `json:"file" yaml:"file"`
	Valid    bool          `json:"valid" yaml:"valid"`
	Duration time.Duration `json:"duration_ms" yaml:"duration_ms"`
	Errors   []string      `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// ValidationSummary represents the summary of all validation results
type ValidationSummary struct {
	Total    int                `json:"total" yaml:"total"`
	Valid    int                `json:"valid" yaml:"valid"`
	Invalid  int                `json:"invalid" yaml:"invalid"`
	Duration time.Duration      `json:"total_duration_ms" yaml:"total_duration_ms"`
	Results  []ValidationResult `json:"results" yaml:"results"`
}

func validateAudits(stdout, stderr io.Writer, args []string, recursive, showAll bool) error {
	start := time.Now()

	files, err := collectFiles(args, recursive)
	if err != nil {
		return &ExitError{Code: ExitFailure, Err: fmt.Errorf("failed to collect files: %w", err)}
	}

	if len(files) == 0 {
		style.Warning(stderr, "No audit files found to validate")
		return nil
	}

	yamlParser, err := parser.NewYAMLParser()
	if err != nil {
		return &ExitError{Code: ExitFailure, Err: fmt.Errorf("failed to create parser: %w", err)}
	}

	text := viper.GetString("output") == "text" && !viper.GetBool("quiet")
	results := make([]ValidationResult, 0, len(files))

	for _, file := range files {
		result := validateSingleFile(yamlParser, file)
		results = append(results, result)

		if !text {
			continue
		}
		if result.Valid {
			if showAll {
				style.Success(stdout, fmt.Sprintf("%s (%v)", style.FormatFilePath(file), result.Duration))
			}
			continue
		}

		style.Error(stdout, fmt.Sprintf("%s (%v)", style.FormatFilePath(file), result.Duration))
		for _, errMsg := range result.Errors {
			fmt.Fprintf(stdout, "  %s\n", indent(errMsg, "  "))
		}
	}

	summary := ValidationSummary{
		Total:    len(results),
		Duration: time.Since(start),
		Results:  results,
	}
	for _, result := range results {
		if result.Valid {
			summary.Valid++
		} else {
			summary.Invalid++
		}
	}

	structured, err := printOutput(stdout, summary)
	if err != nil {
		return &ExitError{Code: ExitFailure, Err: err}
	}
	if !structured {
		printValidationSummary(stdout, summary)
	}

	if summary.Invalid > 0 {
		return &ExitError{Code: ExitFailure, Err: fmt.Errorf("%d of %d audit file(s) failed validation", summary.Invalid, summary.Total)}
	}
	return nil
}

func validateSingleFile(p parser.Parser, filename string) ValidationResult {
	start := time.Now()
	result := ValidationResult{
		File:  filename,
		Valid: true,
	}

	_, err := p.ParseFile(filename)
	result.Duration = time.Since(start)

	if err != nil {
		result.Valid = false
		var multi *parser.MultiError
		if errors.As(err, &multi) {
			for _, e := range multi.Errors {
				result.Errors = append(result.Errors, e.Error())
			}
		} else {
			result.Errors = append(result.Errors, err.Error())
		}
	}

	log.Debug().
		Str("file", filename).
		Bool("valid", result.Valid).
		Dur("duration", result.Duration).
		Msg("Validated audit file")

	return result
}

func printValidationSummary(w io.Writer, summary ValidationSummary) {
	if viper.GetBool("quiet") {
		return
	}

	fmt.Fprintln(w)
	if summary.Invalid == 0 {
		style.Success(w, fmt.Sprintf("All %d audit file(s) are valid (%v)", summary.Total, summary.Duration.Round(time.Millisecond)))
	} else {
		style.Error(w, fmt.Sprintf("%d of %d audit file(s) failed validation (%v)", summary.Invalid, summary.Total, summary.Duration.Round(time.Millisecond)))
	}

	if !viper.GetBool("verbose") {
		return
	}

	fmt.Fprintf(w, "\nDetailed results:\n")
	for _, result := range summary.Results {
		status := style.SuccessIcon() + " valid"
		if !result.Valid {
			status = style.ErrorIcon() + " invalid"
		}
		fmt.Fprintf(w, "  %-40s %s  %v\n", result.File, status, result.Duration)
	}
}
