package report

import (
	"encoding/json"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/lacquerai/parity/internal/bias"
	"github.com/lacquerai/parity/internal/dataset"
	"github.com/lacquerai/parity/internal/explain"
	_ "github.com/lacquerai/parity/internal/testhelper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func applicants(t *testing.T) *dataset.Dataset {
	t.Helper()

	ds := dataset.New("applicants")
	require.NoError(t, ds.AddStrings("gender",
		"male", "male", "male", "male", "male", "male", "male", "male", "male", "female"))
	require.NoError(t, ds.AddStrings("race",
		"group_1", "group_2", "group_3", "group_1", "group_2", "group_3", "group_1", "group_2", "group_3", "group_1"))
	require.NoError(t, ds.AddStrings("age",
		"30", "41", "25", "36", "52", "29", "44", "61", "33", "27"))
	return ds
}

func newBuilder(t *testing.T, opts ...bias.Option) *Builder {
	t.Helper()
	b, err := NewBuilder(opts...)
	require.NoError(t, err)
	return b
}

func TestBuildWithModel(t *testing.T) {
	model := explain.Importances{0.1, 0.5, 0.4}

	report, err := newBuilder(t).Build(applicants(t), []string{"gender", "race"}, model, []string{"gender", "race", "age"})
	require.NoError(t, err)

	require.Len(t, report.Interpretability, 3)
	assert.Equal(t, "race", report.Interpretability[0].Feature)
	assert.Equal(t, "age", report.Interpretability[1].Feature)
	assert.Equal(t, "gender", report.Interpretability[2].Feature)

	assert.Equal(t, []string{"gender"}, report.Biased())
	assert.True(t, report.HasBias())

	data, err := json.MarshalIndent(report, "", "  ")
	require.NoError(t, err)
	snaps.MatchSnapshot(t, string(data))
}

func TestBuildWithoutModel(t *testing.T) {
	tests := []struct {
		name     string
		model    explain.Model
		features []string
	}{
		{name: "no model", model: nil, features: []string{"gender"}},
		{name: "no features", model: explain.Importances{0.5}, features: nil},
		{name: "neither", model: nil, features: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := newBuilder(t).Build(applicants(t), []string{"race"}, tt.model, tt.features)
			require.NoError(t, err)
			assert.Nil(t, report.Interpretability)

			data, err := json.Marshal(report)
			require.NoError(t, err)

			var decoded map[string]any
			require.NoError(t, json.Unmarshal(data, &decoded))
			assert.Contains(t, decoded, "bias_check")
			assert.NotContains(t, decoded, "interpretability")
		})
	}
}

func TestBuildLengthMismatch(t *testing.T) {
	report, err := newBuilder(t).Build(applicants(t), []string{"gender"}, explain.Importances{0.1, 0.9}, []string{"gender", "race", "age"})
	assert.Nil(t, report)

	var mismatch *explain.LengthMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 2, mismatch.Importances)
	assert.Equal(t, 3, mismatch.Features)
}

func TestBuildColumnNotFound(t *testing.T) {
	report, err := newBuilder(t).Build(applicants(t), []string{"income"}, explain.Importances{1}, []string{"age"})
	assert.Nil(t, report)

	var notFound *bias.ColumnNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "income", notFound.Column)
}

func TestBuildThreshold(t *testing.T) {
	report, err := newBuilder(t, bias.WithThreshold(95)).Build(applicants(t), []string{"gender", "race"}, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, report.Biased())
	assert.False(t, report.HasBias())

	report, err = newBuilder(t, bias.WithThreshold(30)).Build(applicants(t), []string{"gender", "race"}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"gender", "race"}, report.Biased())
}

func TestNewBuilderInvalid(t *testing.T) {
	_, err := NewBuilder(bias.WithThreshold(150))
	var thresholdErr *bias.InvalidThresholdError
	assert.ErrorAs(t, err, &thresholdErr)
}

func TestReportYAML(t *testing.T) {
	report, err := newBuilder(t).Build(applicants(t), []string{"gender"}, explain.Importances{0.2, 0.8}, []string{"gender", "age"})
	require.NoError(t, err)

	data, err := yaml.Marshal(report)
	require.NoError(t, err)

	assert.YAMLEq(t, `
bias_check:
  gender:
    distribution:
      male: 90
      female: 10
    max_percentage: 90
    is_biased: true
interpretability:
  - feature: age
    importance: 0.8
  - feature: gender
    importance: 0.2
`, string(data))
}
