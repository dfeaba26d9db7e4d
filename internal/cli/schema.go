package cli

import (
	"encoding/json"
	"fmt"

	"github.com/lacquerai/parity/internal/style"
	"github.com/lacquerai/parity/pkg/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newSchemaCmd() *cobra.Command {
	var definitions bool

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Output the audit file JSON schema",
		Long: `Output the JSON schema that *.parity.yaml files are validated against.

The schema can be used by editors for completion and inline validation.
With --definitions the accepted dataset formats, missing value policies,
supported versions and default threshold are included.

Examples:
  parity schema > audit.schema.json
  parity schema --definitions --output yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := schema.GetSchema()
			if err != nil {
				return &ExitError{Code: ExitFailure, Err: err}
			}

			var data interface{} = out.Schema
			if definitions {
				data = out
			}

			if viper.GetString("output") == "yaml" {
				// round-trip through JSON so the raw schema becomes a YAML mapping
				raw, err := json.Marshal(data)
				if err != nil {
					return &ExitError{Code: ExitFailure, Err: err}
				}
				var doc interface{}
				if err := json.Unmarshal(raw, &doc); err != nil {
					return &ExitError{Code: ExitFailure, Err: err}
				}
				return style.PrintYAML(cmd.OutOrStdout(), doc)
			}

			if err := style.PrintJSON(cmd.OutOrStdout(), data); err != nil {
				return &ExitError{Code: ExitFailure, Err: fmt.Errorf("printing schema: %w", err)}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&definitions, "definitions", false, "include accepted values and defaults")

	return cmd
}
