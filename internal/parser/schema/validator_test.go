package schema

import (
	"testing"

	"github.com/lacquerai/parity/internal/testhelper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validAudit = `
version: "1.0"
metadata:
  name: loan-applications
dataset:
  path: applicants.csv
  format: csv
protected_columns: [gender, race]
bias:
  threshold: 60
  missing: exclude
model:
  features: [age, income]
  importances: [0.25, 0.75]
`

func TestValidateBytes(t *testing.T) {
	validator, err := NewValidator()
	require.NoError(t, err)

	result, err := validator.ValidateBytes([]byte(validAudit))
	require.NoError(t, err)
	assert.True(t, result.Valid, "%+v", result.Errors)
	assert.Empty(t, result.Errors)
}

func TestValidateBytesInvalid(t *testing.T) {
	validator, err := NewValidator()
	require.NoError(t, err)

	testCases := []struct {
		name  string
		input string
		path  string
	}{
		{
			name:  "missing dataset",
			input: "version: \"1.0\"\nprotected_columns: [gender]\n",
			path:  "/",
		},
		{
			name:  "empty protected columns",
			input: "version: \"1.0\"\ndataset: {path: a.csv}\nprotected_columns: []\n",
			path:  "/protected_columns",
		},
		{
			name:  "unknown field",
			input: "version: \"1.0\"\ndataset: {path: a.csv}\nprotected_columns: [gender]\nextra: true\n",
			path:  "/",
		},
		{
			name:  "threshold out of range",
			input: "version: \"1.0\"\ndataset: {path: a.csv}\nprotected_columns: [gender]\nbias: {threshold: 150}\n",
			path:  "/bias/threshold",
		},
		{
			name:  "unknown missing policy",
			input: "version: \"1.0\"\ndataset: {path: a.csv}\nprotected_columns: [gender]\nbias: {missing: drop}\n",
			path:  "/bias/missing",
		},
		{
			name:  "bad format",
			input: "version: \"1.0\"\ndataset: {path: a.csv, format: parquet}\nprotected_columns: [gender]\n",
			path:  "/dataset/format",
		},
		{
			name:  "importances not numbers",
			input: "version: \"1.0\"\ndataset: {path: a.csv}\nprotected_columns: [gender]\nmodel: {features: [a], importances: [high]}\n",
			path:  "/model/importances/0",
		},
		{
			name:  "version not a string",
			input: "version: 1.0\ndataset: {path: a.csv}\nprotected_columns: [gender]\n",
			path:  "/version",
		},
		{
			name:  "invalid yaml",
			input: "version: \"1.0\"\n  dataset: [\n",
			path:  "/",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := validator.ValidateBytes([]byte(tc.input))
			require.NoError(t, err)
			assert.False(t, result.Valid)
			require.NotEmpty(t, result.Errors)

			var paths []string
			for _, e := range result.Errors {
				assert.NotEmpty(t, e.Message)
				paths = append(paths, e.Path)
			}
			assert.Contains(t, paths, tc.path)
		})
	}
}

func TestValidateFile(t *testing.T) {
	validator, err := NewValidator()
	require.NoError(t, err)

	path := testhelper.WriteFile(t, t.TempDir(), "loans.parity.yaml", validAudit)
	result, err := validator.ValidateFile(path)
	require.NoError(t, err)
	assert.True(t, result.Valid)

	_, err = validator.ValidateFile(path + ".missing")
	assert.Error(t, err)
}
