package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestVersionCommand(t *testing.T) {
	stdout, _, err := executeCommand(t, "version")
	require.NoError(t, err)
	assert.Equal(t, Version+"\n", stdout)
}

func TestVersionCommandVerbose(t *testing.T) {
	stdout, _, err := executeCommand(t, "version", "--verbose")
	require.NoError(t, err)
	assert.Contains(t, stdout, "parity "+Version)
	assert.Contains(t, stdout, "platform:")
}

func TestVersionCommandJSON(t *testing.T) {
	stdout, _, err := executeCommand(t, "version", "--output", "json")
	require.NoError(t, err)

	var info VersionInfo
	require.NoError(t, json.Unmarshal([]byte(stdout), &info))
	assert.Equal(t, Version, info.Version)
	assert.Equal(t, GoVersion, info.GoVersion)
}

func TestVersionCommandYAML(t *testing.T) {
	stdout, _, err := executeCommand(t, "version", "--output", "yaml")
	require.NoError(t, err)

	var info VersionInfo
	require.NoError(t, yaml.Unmarshal([]byte(stdout), &info))
	assert.Equal(t, Commit, info.Commit)
}

func TestBuildVariables(t *testing.T) {
	assert.NotEmpty(t, Version)
	assert.NotEmpty(t, Commit)
	assert.NotEmpty(t, Date)
	assert.NotEmpty(t, GoVersion)
	assert.Contains(t, GoVersion, "go")
}
