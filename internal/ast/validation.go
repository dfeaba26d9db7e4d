package ast

import (
	"fmt"
	"math"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/lacquerai/parity/internal/bias"
	"github.com/lacquerai/parity/internal/dataset"
)

// SupportedVersions is the range of audit definition versions this build
// understands.
const SupportedVersions = ">= 1.0, < 2.0"

// ValidationError represents a validation error
type ValidationError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// Error implements the error interface
func (ve *ValidationError) Error() string {
	path := ve.Path
	if ve.Field != "" {
		if path != "" {
			path += "."
		}
		path += ve.Field
	}
	if path != "" {
		return fmt.Sprintf("%s: %s", path, ve.Message)
	}
	return ve.Message
}

// ValidationResult contains the results of AST validation
type ValidationResult struct {
	Valid  bool               `json:"valid"`
	Errors []*ValidationError `json:"errors,omitempty"`
}

// AddError adds a validation error
func (vr *ValidationResult) AddError(path, message string) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, &ValidationError{
		Path:    path,
		Message: message,
	})
}

// AddFieldError adds a validation error for a specific field
func (vr *ValidationResult) AddFieldError(path, field, message string) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, &ValidationError{
		Path:    path,
		Field:   field,
		Message: message,
	})
}

// HasErrors returns true if there are validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// ToError returns a combined error if there are validation errors
func (vr *ValidationResult) ToError() error {
	if !vr.HasErrors() {
		return nil
	}

	var messages []string
	for _, err := range vr.Errors {
		messages = append(messages, err.Error())
	}

	return fmt.Errorf("validation failed: %s", strings.Join(messages, "; "))
}

// Validator checks an audit for problems the schema cannot express
type Validator struct {
	versions *semver.Constraints
}

// NewValidator creates a new AST validator
func NewValidator() *Validator {
	// the constraint is a constant, so a parse failure is a programming error
	versions, err := semver.NewConstraint(SupportedVersions)
	if err != nil {
		panic(err)
	}
	return &Validator{versions: versions}
}

// ValidateAudit performs semantic validation of an audit definition
func (v *Validator) ValidateAudit(a *Audit) *ValidationResult {
	result := &ValidationResult{Valid: true}

	v.validateVersion(a.Version, result)

	if a.Metadata != nil && strings.TrimSpace(a.Metadata.Name) == "" {
		result.AddFieldError("metadata", "name", "name must not be blank")
	}

	if a.Dataset == nil {
		result.AddError("", "dataset section is required")
	} else {
		v.validateDataset(a.Dataset, "dataset", result)
	}

	v.validateProtectedColumns(a.ProtectedColumns, result)

	if a.Bias != nil {
		v.validateBias(a.Bias, "bias", result)
	}

	if a.Model != nil {
		v.validateModel(a.Model, "model", result)
	}

	return result
}

func (v *Validator) validateVersion(version string, result *ValidationResult) {
	if version == "" {
		result.AddFieldError("", "version", "version is required")
		return
	}

	parsed, err := semver.NewVersion(version)
	if err != nil {
		result.AddFieldError("", "version", fmt.Sprintf("invalid version %q: %v", version, err))
		return
	}

	if !v.versions.Check(parsed) {
		result.AddFieldError("", "version", fmt.Sprintf("unsupported version: %s (supported: %s)", version, SupportedVersions))
	}
}

func (v *Validator) validateDataset(ds *DatasetSource, path string, result *ValidationResult) {
	if strings.TrimSpace(ds.Path) == "" {
		result.AddFieldError(path, "path", "path is required")
	}

	switch dataset.Format(ds.Format) {
	case dataset.FormatAuto, dataset.FormatCSV, dataset.FormatTSV, dataset.FormatJSON:
	default:
		result.AddFieldError(path, "format", fmt.Sprintf("unsupported format %q", ds.Format))
	}

	if len([]rune(ds.Delimiter)) > 1 {
		result.AddFieldError(path, "delimiter", "delimiter must be a single character")
	}
}

func (v *Validator) validateProtectedColumns(columns []string, result *ValidationResult) {
	if len(columns) == 0 {
		result.AddFieldError("", "protected_columns", "at least one protected column is required")
		return
	}

	seen := make(map[string]bool, len(columns))
	for i, col := range columns {
		colPath := fmt.Sprintf("protected_columns[%d]", i)
		if strings.TrimSpace(col) == "" {
			result.AddError(colPath, "column name must not be blank")
			continue
		}
		if seen[col] {
			result.AddError(colPath, fmt.Sprintf("duplicate protected column %q", col))
		}
		seen[col] = true
	}
}

func (v *Validator) validateBias(policy *BiasPolicy, path string, result *ValidationResult) {
	if t := policy.Threshold; t != nil && (math.IsNaN(*t) || *t < 0 || *t > 100) {
		result.AddFieldError(path, "threshold", fmt.Sprintf("threshold must be between 0 and 100, got %g", *t))
	}

	if _, err := bias.ParseMissingPolicy(policy.Missing); err != nil {
		result.AddFieldError(path, "missing", err.Error())
	}
}

func (v *Validator) validateModel(m *ModelSource, path string, result *ValidationResult) {
	if len(m.Features) == 0 {
		result.AddFieldError(path, "features", "at least one feature is required")
	}

	hasInline := len(m.Importances) > 0
	hasFile := m.ImportancesFile != ""

	switch {
	case hasInline && hasFile:
		result.AddError(path, "only one of importances or importances_file may be set")
	case !hasInline && !hasFile:
		result.AddError(path, "one of importances or importances_file is required")
	case hasInline && len(m.Importances) != len(m.Features):
		result.AddFieldError(path, "importances",
			fmt.Sprintf("%d importances given for %d features", len(m.Importances), len(m.Features)))
	}

	seen := make(map[string]bool, len(m.Features))
	for i, f := range m.Features {
		if seen[f] {
			result.AddError(fmt.Sprintf("%s.features[%d]", path, i), fmt.Sprintf("duplicate feature %q", f))
		}
		seen[f] = true
	}
}
