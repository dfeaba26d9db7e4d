package ast

// Audit is the root of a parity audit definition.
type Audit struct {
	// Version of the audit definition format, e.g. "1.0".
	Version string `yaml:"version" json:"version"`
	// Metadata describes the audit.
	Metadata *AuditMetadata `yaml:"metadata,omitempty" json:"metadata,omitempty"`
	// Dataset locates the tabular data to audit.
	Dataset *DatasetSource `yaml:"dataset" json:"dataset"`
	// ProtectedColumns lists the sensitive attributes to check, in report order.
	ProtectedColumns []string `yaml:"protected_columns" json:"protected_columns" jsonschema:"minItems=1"`
	// Bias overrides the default bias policy.
	Bias *BiasPolicy `yaml:"bias,omitempty" json:"bias,omitempty"`
	// Model supplies per-feature importances for the interpretability section.
	Model *ModelSource `yaml:"model,omitempty" json:"model,omitempty"`

	SourceFile string   `yaml:"-" json:"-"`
	Position   Position `yaml:"-" json:"-"`
}

// AuditMetadata contains descriptive information about the audit
type AuditMetadata struct {
	// Name identifies the audit in reports and metrics.
	Name string `yaml:"name" json:"name"`
	// Description is free text shown alongside the report.
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	// Tags are arbitrary labels.
	Tags []string `yaml:"tags,omitempty" json:"tags,omitempty"`
}

// DatasetSource locates a dataset file
type DatasetSource struct {
	// Path to the dataset, relative to the audit file.
	Path string `yaml:"path" json:"path" jsonschema:"minLength=1"`
	// Format overrides detection from the file extension.
	Format string `yaml:"format,omitempty" json:"format,omitempty" jsonschema:"enum=csv,enum=tsv,enum=json"`
	// Delimiter is the field separator for csv files.
	Delimiter string `yaml:"delimiter,omitempty" json:"delimiter,omitempty" jsonschema:"maxLength=1"`
	// MissingValues are the cell tokens read as missing. An empty list disables
	// missing detection.
	MissingValues []string `yaml:"missing_values,omitempty" json:"missing_values,omitempty"`
}

// BiasPolicy configures the bias check
type BiasPolicy struct {
	// Threshold is the category share, in percent, above which a column is biased.
	Threshold *float64 `yaml:"threshold,omitempty" json:"threshold,omitempty" jsonschema:"minimum=0,maximum=100"`
	// Missing selects how missing values are counted.
	Missing string `yaml:"missing,omitempty" json:"missing,omitempty" jsonschema:"enum=exclude,enum=include"`
}

// ModelSource provides a model's feature importances
type ModelSource struct {
	// Features names each importance, positionally.
	Features []string `yaml:"features" json:"features" jsonschema:"minItems=1"`
	// Importances is an inline importance vector.
	Importances []float64 `yaml:"importances,omitempty" json:"importances,omitempty"`
	// ImportancesFile is a YAML or JSON list of numbers, relative to the audit file.
	ImportancesFile string `yaml:"importances_file,omitempty" json:"importances_file,omitempty"`
}
