package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/lacquerai/parity/internal/ast"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// Validator validates audit definitions against the generated JSON Schema
type Validator struct {
	schema *jsonschema.Schema
}

// ValidationError represents a validation error with context
type ValidationError struct {
	Message string `json:"message"`
	Path    string `json:"path"`
}

// ValidationResult contains the results of audit validation
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// NewValidator compiles the audit schema
func NewValidator() (*Validator, error) {
	schemaData, err := ast.NewSchema()
	if err != nil {
		return nil, fmt.Errorf("failed to generate schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(ast.SchemaID, bytes.NewReader(schemaData)); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}
	schema, err := compiler.Compile(ast.SchemaID)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	return &Validator{schema: schema}, nil
}

// ValidateFile validates an audit file
func (v *Validator) ValidateFile(filename string) (*ValidationResult, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	return v.ValidateBytes(data)
}

// ValidateBytes validates audit YAML. Problems with the document are
// reported in the result; the error is reserved for internal failures.
func (v *Validator) ValidateBytes(data []byte) (*ValidationResult, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return &ValidationResult{
			Valid: false,
			Errors: []ValidationError{{
				Message: fmt.Sprintf("YAML parsing error: %v", err),
				Path:    "/",
			}},
		}, nil
	}

	instance, err := toJSONValue(doc)
	if err != nil {
		return &ValidationResult{
			Valid: false,
			Errors: []ValidationError{{
				Message: err.Error(),
				Path:    "/",
			}},
		}, nil
	}

	err = v.schema.Validate(instance)
	if err == nil {
		return &ValidationResult{Valid: true}, nil
	}

	var validationErr *jsonschema.ValidationError
	if !errors.As(err, &validationErr) {
		return nil, fmt.Errorf("schema validation: %w", err)
	}

	result := &ValidationResult{Valid: false, Errors: leafErrors(validationErr)}
	sort.SliceStable(result.Errors, func(i, j int) bool {
		return result.Errors[i].Path < result.Errors[j].Path
	})
	return result, nil
}

// toJSONValue converts a decoded YAML document into the value model the
// schema validator expects, with json.Number for numbers.
func toJSONValue(doc interface{}) (interface{}, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("document is not representable as JSON: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var out interface{}
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// leafErrors flattens the cause tree, keeping only the most specific errors.
func leafErrors(err *jsonschema.ValidationError) []ValidationError {
	if len(err.Causes) == 0 {
		path := err.InstanceLocation
		if path == "" {
			path = "/"
		}
		return []ValidationError{{Message: err.Message, Path: path}}
	}

	var out []ValidationError
	for _, cause := range err.Causes {
		out = append(out, leafErrors(cause)...)
	}
	return out
}
