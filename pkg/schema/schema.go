// Package schema provides access to the parity audit file schema and the
// values it accepts. Editors and validation tools can use it to check
// *.parity.yaml files without running an audit.
//
// Example usage:
//
//	schema, err := GetSchema()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	var auditSchema map[string]interface{}
//	json.Unmarshal(schema.Schema, &auditSchema)
package schema

import (
	"encoding/json"
	"fmt"

	"github.com/lacquerai/parity/internal/ast"
	"github.com/lacquerai/parity/internal/bias"
	"github.com/lacquerai/parity/internal/dataset"
)

// SchemaOutput describes the audit file format.
type SchemaOutput struct {
	// Schema contains the JSON Schema definition for audit files.
	Schema json.RawMessage `json:"schema"`
	// ID is the schema's $id.
	ID string `json:"id"`
	// SupportedVersions is the semver constraint audit versions must satisfy.
	SupportedVersions string `json:"supported_versions"`
	// DatasetFormats lists the accepted values of dataset.format.
	DatasetFormats []string `json:"dataset_formats"`
	// MissingPolicies lists the accepted values of bias.missing.
	MissingPolicies []string `json:"missing_policies"`
	// DefaultThreshold is used when bias.threshold is unset.
	DefaultThreshold float64 `json:"default_threshold"`
}

// GetSchema generates the audit file schema together with the enumerated
// values and defaults it refers to.
//
// Returns:
//   - *SchemaOutput: the JSON schema and its metadata
//   - error: a failure to reflect the audit types into a schema
func GetSchema() (*SchemaOutput, error) {
	schemaBytes, err := ast.NewSchema()
	if err != nil {
		return nil, fmt.Errorf("generating schema: %w", err)
	}

	return &SchemaOutput{
		Schema:            json.RawMessage(schemaBytes),
		ID:                ast.SchemaID,
		SupportedVersions: ast.SupportedVersions,
		DatasetFormats: []string{
			string(dataset.FormatCSV),
			string(dataset.FormatTSV),
			string(dataset.FormatJSON),
		},
		MissingPolicies: []string{
			string(bias.MissingExclude),
			string(bias.MissingInclude),
		},
		DefaultThreshold: bias.DefaultThreshold,
	}, nil
}
