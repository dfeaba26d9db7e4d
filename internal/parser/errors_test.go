package parser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseError_Error(t *testing.T) {
	err := &ParseError{
		Message:    "something broke",
		Suggestion: "fix it",
		Context:    ">>    1 | version: 1\n",
	}
	err.Position.Line = 1
	err.Position.Column = 10

	msg := err.Error()
	assert.Contains(t, msg, "Parse error at 1:10: something broke")
	assert.Contains(t, msg, "Suggestion: fix it")
	assert.Contains(t, msg, "Context:\n>>    1 | version: 1")
}

func TestWrapYAMLError(t *testing.T) {
	source := []byte("a: 1\nb: [\n")
	var v interface{}
	yamlErr := yaml.Unmarshal(source, &v)
	require.Error(t, yamlErr)

	err := WrapYAMLError(yamlErr, source, "x.parity.yaml")

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "x.parity.yaml", parseErr.Position.File)
	assert.NotContains(t, parseErr.Message, "yaml:")
}

func TestWrapYAMLError_TypeErrors(t *testing.T) {
	source := []byte("threshold: high\nmissing: [1]\n")
	var v struct {
		Threshold float64 `yaml:"threshold"`
		Missing   string  `yaml:"missing"`
	}
	yamlErr := yaml.Unmarshal(source, &v)
	require.Error(t, yamlErr)

	err := WrapYAMLError(yamlErr, source, "")

	var multi *MultiError
	require.ErrorAs(t, err, &multi)
	require.Len(t, multi.Errors, 2)

	var second *ParseError
	require.True(t, errors.As(multi.Errors[1], &second))
	assert.Equal(t, 2, second.Position.Line)
	assert.Contains(t, second.Suggestion, "value type")
}

func TestExtractPositionFromMessage(t *testing.T) {
	assert.Equal(t, 7, extractPositionFromMessage("line 7: mapping values are not allowed").Line)
	assert.Equal(t, 1, extractPositionFromMessage("no position here").Line)
}

func TestMultiError(t *testing.T) {
	var multi MultiError
	assert.NoError(t, multi.ToError())
	assert.Equal(t, "no errors", multi.Error())

	multi.Add(nil)
	assert.False(t, multi.HasErrors())

	first := errors.New("first")
	multi.Add(first)
	assert.Equal(t, "first", multi.ToError().Error())

	multi.Add(errors.New("second"))
	msg := multi.ToError().Error()
	assert.Contains(t, msg, "Multiple errors (2)")
	assert.Contains(t, msg, "1. first")
	assert.Contains(t, msg, "2. second")

	assert.ErrorIs(t, multi.ToError(), first)
}

func TestGenerateSuggestion(t *testing.T) {
	assert.Contains(t, generateSuggestion("found character that cannot start any token"), "tabs")
	assert.Contains(t, generateSuggestion("mapping key \"a\" already defined at line 1"), "unique")
	assert.Contains(t, generateSuggestion("field extra not found in type ast.Audit"), "unknown field")
	assert.Empty(t, generateSuggestion("something unrelated"))
}
