package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lacquerai/parity/internal/style"
	"github.com/spf13/cobra"
)

type initOptions struct {
	template string
	dir      string
	data     string
	force    bool
}

func newInitCmd() *cobra.Command {
	opts := &initOptions{}

	cmd := &cobra.Command{
		Use:   "init [name]",
		Short: "Create a new audit file",
		Long: `Create <name>.parity.yaml with a starting audit definition.

Templates available:
- basic: protected columns with the default bias policy
- model: adds a model section with feature importances

Examples:
  parity init loans                       # Create loans.parity.yaml
  parity init --template model hiring     # Include an interpretability section
  parity init --data data/people.csv hr   # Point the audit at a dataset`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := "audit"
			if len(args) > 0 {
				name = args[0]
			}
			return initializeAudit(cmd, name, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.template, "template", "t", "basic", "audit template (basic, model)")
	cmd.Flags().StringVar(&opts.dir, "dir", ".", "directory to create the audit file in")
	cmd.Flags().StringVar(&opts.data, "data", "data.csv", "dataset path written into the audit")
	cmd.Flags().BoolVar(&opts.force, "force", false, "overwrite an existing audit file")

	return cmd
}

// AuditTemplate is a starting point for a new audit file.
type AuditTemplate struct {
	Name        string
	Description string
	Content     string
}

var templates = map[string]AuditTemplate{
	"basic": {
		Name:        "Basic",
		Description: "protected columns with the default bias policy",
		Content:     basicAudit,
	},
	"model": {
		Name:        "Model",
		Description: "adds a model section with feature importances",
		Content:     modelAudit,
	},
}

func initializeAudit(cmd *cobra.Command, name string, opts *initOptions) error {
	stdout := cmd.OutOrStdout()

	if !isValidAuditName(name) {
		return &ExitError{Code: ExitFailure, Err: fmt.Errorf("audit name must contain only letters, numbers, hyphens, and underscores")}
	}

	template, exists := templates[opts.template]
	if !exists {
		names := make([]string, 0, len(templates))
		for n := range templates {
			names = append(names, n)
		}
		sort.Strings(names)
		return &ExitError{Code: ExitFailure, Err: fmt.Errorf("unknown template %q (available: %s)", opts.template, strings.Join(names, ", "))}
	}

	path := filepath.Join(opts.dir, name+".parity.yaml")
	if _, err := os.Stat(path); err == nil && !opts.force {
		return &ExitError{Code: ExitFailure, Err: fmt.Errorf("%s already exists, use --force to overwrite", path)}
	}

	if err := os.MkdirAll(opts.dir, 0o755); err != nil {
		return &ExitError{Code: ExitFailure, Err: fmt.Errorf("failed to create directory: %w", err)}
	}

	content := strings.NewReplacer(
		"{{AUDIT_NAME}}", name,
		"{{DATASET_PATH}}", opts.data,
	).Replace(template.Content)

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return &ExitError{Code: ExitFailure, Err: fmt.Errorf("failed to create %s: %w", path, err)}
	}

	style.Success(stdout, fmt.Sprintf("Created %s from the %s template", style.FormatFilePath(path), template.Name))
	fmt.Fprintln(stdout)
	fmt.Fprintf(stdout, "Next steps:\n")
	fmt.Fprintf(stdout, "  edit protected_columns in %s\n", path)
	fmt.Fprintf(stdout, "  parity validate %s\n", path)
	fmt.Fprintf(stdout, "  parity check %s\n", path)

	return nil
}

func isValidAuditName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}

	for _, r := range name {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '-' || r == '_') {
			return false
		}
	}

	return true
}

const basicAudit = `version: "1.0"
metadata:
  name: {{AUDIT_NAME}}
  description: Representation audit of protected attributes
dataset:
  path: {{DATASET_PATH}}
  missing_values: ["", "NA", "null"]
protected_columns:
  - gender
  - race
bias:
  # a column is biased when one category holds more than this share
  threshold: 60
  missing: exclude
`

const modelAudit = `version: "1.0"
metadata:
  name: {{AUDIT_NAME}}
  description: Representation audit with model interpretability
dataset:
  path: {{DATASET_PATH}}
protected_columns:
  - gender
  - race
bias:
  threshold: 60
model:
  # one importance per feature, in the same order
  features: [age, income, gender, race]
  importances: [0.25, 0.45, 0.2, 0.1]
`
