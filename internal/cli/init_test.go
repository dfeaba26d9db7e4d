package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lacquerai/parity/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitTemplatesAreValid(t *testing.T) {
	p, err := parser.NewYAMLParser()
	require.NoError(t, err)

	for name := range templates {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()

			stdout, _, err := executeCommand(t, "init", "--template", name, "--dir", dir, "--data", "people.csv", "loans")
			require.NoError(t, err)
			assert.Contains(t, stdout, "loans.parity.yaml")

			audit, err := p.ParseFile(filepath.Join(dir, "loans.parity.yaml"))
			require.NoError(t, err)
			assert.Equal(t, "loans", audit.Name())
			assert.Equal(t, "people.csv", audit.Dataset.Path)
			assert.Equal(t, name == "model", audit.HasModel())
		})
	}
}

func TestInitExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audit.parity.yaml")
	require.NoError(t, os.WriteFile(path, []byte("keep"), 0o600))

	_, _, err := executeCommand(t, "init", "--dir", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "keep", string(content))

	_, _, err = executeCommand(t, "init", "--dir", dir, "--force")
	require.NoError(t, err)

	content, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "protected_columns")
}

func TestInitInvalidInput(t *testing.T) {
	_, _, err := executeCommand(t, "init", "--dir", t.TempDir(), "../escape")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "audit name must contain only")

	_, _, err = executeCommand(t, "init", "--dir", t.TempDir(), "--template", "enterprise", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "available: basic, model")
}

func TestIsValidAuditName(t *testing.T) {
	assert.True(t, isValidAuditName("loans_2024-q1"))
	assert.False(t, isValidAuditName(""))
	assert.False(t, isValidAuditName(".."))
	assert.False(t, isValidAuditName("a b"))
}
