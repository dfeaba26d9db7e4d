package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lacquerai/parity/internal/ast"
	"gopkg.in/yaml.v3"
)

// ParseError represents a parsing error with context
type ParseError struct {
	Message    string       `json:"message"`
	Position   ast.Position `json:"position"`
	Context    string       `json:"context,omitempty"`
	Suggestion string       `json:"suggestion,omitempty"`
}

// Error implements the error interface
func (e *ParseError) Error() string {
	var result strings.Builder

	fmt.Fprintf(&result, "Parse error at %s: %s", e.Position.String(), e.Message)

	if e.Suggestion != "" {
		fmt.Fprintf(&result, "\nSuggestion: %s", e.Suggestion)
	}

	if e.Context != "" {
		fmt.Fprintf(&result, "\n\nContext:\n%s", e.Context)
	}

	return result.String()
}

// WrapYAMLError converts a yaml.v3 error into a ParseError. A TypeError
// holding several problems becomes a MultiError.
func WrapYAMLError(err error, source []byte, filename string) error {
	var typeErr *yaml.TypeError
	if errors.As(err, &typeErr) && len(typeErr.Errors) > 1 {
		var multi MultiError
		for _, msg := range typeErr.Errors {
			multi.Add(newParseError(msg, source, filename))
		}
		return multi.ToError()
	}

	msg := err.Error()
	if errors.As(err, &typeErr) && len(typeErr.Errors) == 1 {
		msg = typeErr.Errors[0]
	}
	return newParseError(msg, source, filename)
}

func newParseError(msg string, source []byte, filename string) *ParseError {
	msg = strings.TrimPrefix(msg, "yaml: ")
	pos := extractPositionFromMessage(msg)
	pos.File = filename

	return &ParseError{
		Message:    msg,
		Position:   pos,
		Context:    ast.ExtractContext(source, pos, 2),
		Suggestion: generateSuggestion(msg),
	}
}

// extractPositionFromMessage finds a "line N" reference in a yaml message
func extractPositionFromMessage(message string) ast.Position {
	words := strings.Fields(message)
	for i, word := range words {
		if word == "line" && i+1 < len(words) {
			var line int
			if _, err := fmt.Sscanf(words[i+1], "%d", &line); err == nil {
				return ast.Position{Line: line, Column: 1}
			}
		}
	}

	return ast.Position{Line: 1, Column: 1}
}

func generateSuggestion(message string) string {
	switch {
	case strings.Contains(message, "found character that cannot start any token"),
		strings.Contains(message, "tab"):
		return "YAML requires indentation with spaces, not tabs"
	case strings.Contains(message, "indent"), strings.Contains(message, "mapping values are not allowed"):
		return "Check the indentation; nested keys must be indented consistently with spaces"
	case strings.Contains(message, "already defined"), strings.Contains(message, "duplicate"):
		return "Each key in a YAML mapping must be unique"
	case strings.Contains(message, "not found in type"):
		return "Remove the unknown field or check its spelling against `parity schema`"
	case strings.Contains(message, "cannot unmarshal"):
		return "Check the value type, e.g. version: \"1.0\" is a string and threshold: 60 is a number"
	case strings.Contains(message, "version"):
		return "Set version: \"1.0\" at the top of the file"
	case strings.Contains(message, "protected_columns"):
		return "List at least one protected column, e.g. protected_columns: [gender]"
	case strings.Contains(message, "importances"):
		return "Give one importance per feature, inline or through importances_file"
	case strings.Contains(message, "missing properties"):
		return "Add the required fields: version, dataset and protected_columns"
	default:
		return ""
	}
}

// MultiError represents multiple parsing or validation errors
type MultiError struct {
	Errors []error `json:"errors"`
}

// Error implements the error interface for MultiError
func (e *MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}

	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var result strings.Builder
	fmt.Fprintf(&result, "Multiple errors (%d):\n", len(e.Errors))

	for i, err := range e.Errors {
		fmt.Fprintf(&result, "  %d. %s\n", i+1, err.Error())
	}

	return result.String()
}

// Unwrap exposes the collected errors to errors.Is and errors.As
func (e *MultiError) Unwrap() []error {
	return e.Errors
}

// Add adds an error to the MultiError
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors
func (e *MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// ToError returns the MultiError as an error if there are errors, nil otherwise
func (e *MultiError) ToError() error {
	if !e.HasErrors() {
		return nil
	}
	return e
}
