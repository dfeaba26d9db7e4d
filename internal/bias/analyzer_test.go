package bias

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"testing"

	"github.com/lacquerai/parity/internal/dataset"
	_ "github.com/lacquerai/parity/internal/testhelper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func repeat(value string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = value
	}
	return out
}

func newAnalyzer(t *testing.T, opts ...Option) *Analyzer {
	t.Helper()
	a, err := NewAnalyzer(opts...)
	require.NoError(t, err)
	return a
}

func TestAnalyzeGenderExample(t *testing.T) {
	ds := dataset.New("people")
	require.NoError(t, ds.AddStrings("gender", append(repeat("male", 90), repeat("female", 10)...)...))

	check, err := newAnalyzer(t).Analyze(ds, []string{"gender"})
	require.NoError(t, err)

	entry, ok := check.Get("gender")
	require.True(t, ok)

	male, _ := entry.Distribution.Get("male")
	female, _ := entry.Distribution.Get("female")
	assert.InDelta(t, 90.0, male, 1e-9)
	assert.InDelta(t, 10.0, female, 1e-9)
	assert.InDelta(t, 90.0, entry.MaxPercentage, 1e-9)
	assert.True(t, entry.IsBiased)
}

func TestAnalyzeThreshold(t *testing.T) {
	tests := []struct {
		name      string
		majority  int
		threshold float64
		biased    bool
	}{
		{name: "below default", majority: 55, threshold: DefaultThreshold, biased: false},
		{name: "exactly default is not biased", majority: 60, threshold: DefaultThreshold, biased: false},
		{name: "above default", majority: 61, threshold: DefaultThreshold, biased: true},
		{name: "custom threshold", majority: 55, threshold: 50, biased: true},
		{name: "zero threshold", majority: 50, threshold: 0, biased: true},
		{name: "full threshold", majority: 100, threshold: 100, biased: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := append(repeat("a", tt.majority), repeat("b", 100-tt.majority)...)
			col := &dataset.Column{Name: "c", Values: toValues(values)}

			entry, err := newAnalyzer(t, WithThreshold(tt.threshold)).AnalyzeColumn(col)
			require.NoError(t, err)
			assert.InDelta(t, float64(tt.majority), entry.MaxPercentage, 1e-9)
			assert.Equal(t, tt.biased, entry.IsBiased)
		})
	}
}

func TestAnalyzeOrdering(t *testing.T) {
	col := &dataset.Column{Name: "race", Values: toValues([]string{
		"group_3", "group_1", "group_2", "group_1", "group_2", "group_1",
	})}

	entry, err := newAnalyzer(t).AnalyzeColumn(col)
	require.NoError(t, err)

	var keys []string
	for pair := entry.Distribution.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	// group_1 (3) first; group_2 (2); group_3 (1)
	assert.Equal(t, []string{"group_1", "group_2", "group_3"}, keys)

	col = &dataset.Column{Name: "tie", Values: toValues([]string{"b", "a", "a", "b"})}
	entry, err = newAnalyzer(t).AnalyzeColumn(col)
	require.NoError(t, err)
	assert.Equal(t, "b", entry.Distribution.Oldest().Key, "ties keep first appearance")
}

func TestAnalyzeMissingPolicies(t *testing.T) {
	col := &dataset.Column{Name: "gender", Values: []dataset.Value{
		dataset.String("male"), dataset.String("female"), dataset.Null(), dataset.Null(),
	}}

	excluded, err := newAnalyzer(t).AnalyzeColumn(col)
	require.NoError(t, err)
	assert.Equal(t, 2, excluded.Distribution.Len())
	male, _ := excluded.Distribution.Get("male")
	assert.InDelta(t, 50.0, male, 1e-9)
	_, has := excluded.Distribution.Get(MissingLabel)
	assert.False(t, has)

	included, err := newAnalyzer(t, WithMissingPolicy(MissingInclude)).AnalyzeColumn(col)
	require.NoError(t, err)
	assert.Equal(t, 3, included.Distribution.Len())
	missing, has := included.Distribution.Get(MissingLabel)
	require.True(t, has)
	assert.InDelta(t, 50.0, missing, 1e-9)
	assert.Equal(t, MissingLabel, included.Distribution.Oldest().Key)
	assert.False(t, included.IsBiased)
}

func TestAnalyzeEmptyColumn(t *testing.T) {
	t.Run("zero rows", func(t *testing.T) {
		_, err := newAnalyzer(t).AnalyzeColumn(&dataset.Column{Name: "gender"})
		var emptyErr *EmptyColumnError
		require.ErrorAs(t, err, &emptyErr)
		assert.Equal(t, "gender", emptyErr.Column)
		assert.Equal(t, 0, emptyErr.Missing)
	})

	t.Run("all missing", func(t *testing.T) {
		col := &dataset.Column{Name: "gender", Values: []dataset.Value{dataset.Null(), dataset.Null()}}

		_, err := newAnalyzer(t).AnalyzeColumn(col)
		var emptyErr *EmptyColumnError
		require.ErrorAs(t, err, &emptyErr)
		assert.Equal(t, 2, emptyErr.Missing)
		assert.Contains(t, err.Error(), "2 missing")

		entry, err := newAnalyzer(t, WithMissingPolicy(MissingInclude)).AnalyzeColumn(col)
		require.NoError(t, err)
		assert.InDelta(t, 100.0, entry.MaxPercentage, 1e-9)
		assert.True(t, entry.IsBiased)
	})
}

func TestAnalyzeColumnNotFound(t *testing.T) {
	ds := dataset.New("people")
	require.NoError(t, ds.AddStrings("gender", "male", "female"))

	check, err := newAnalyzer(t).Analyze(ds, []string{"gender", "race"})
	assert.Nil(t, check)

	var notFound *ColumnNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "race", notFound.Column)
}

func TestAnalyzePreservesColumnOrder(t *testing.T) {
	ds := dataset.New("people")
	require.NoError(t, ds.AddStrings("gender", "male", "female"))
	require.NoError(t, ds.AddStrings("race", "group_1", "group_1"))

	check, err := newAnalyzer(t).Analyze(ds, []string{"race", "gender"})
	require.NoError(t, err)

	data, err := json.Marshal(check)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"race": {"distribution": {"group_1": 100}, "max_percentage": 100, "is_biased": true},
		"gender": {"distribution": {"male": 50, "female": 50}, "max_percentage": 50, "is_biased": false}
	}`, string(data))
	assert.Equal(t, "race", check.Oldest().Key)
}

func TestDistributionSumsToHundred(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 50; trial++ {
		n := 1 + rng.Intn(500)
		categories := 1 + rng.Intn(7)

		values := make([]dataset.Value, n)
		for i := range values {
			if rng.Intn(10) == 0 {
				values[i] = dataset.Null()
				continue
			}
			values[i] = dataset.String(fmt.Sprintf("cat_%d", rng.Intn(categories)))
		}
		// guarantee at least one present value
		values[0] = dataset.String("cat_0")

		for _, policy := range []MissingPolicy{MissingExclude, MissingInclude} {
			entry, err := newAnalyzer(t, WithMissingPolicy(policy)).AnalyzeColumn(&dataset.Column{Name: "c", Values: values})
			require.NoError(t, err)

			sum, highest := 0.0, 0.0
			for pair := entry.Distribution.Oldest(); pair != nil; pair = pair.Next() {
				sum += pair.Value
				highest = max(highest, pair.Value)
			}
			assert.InDelta(t, 100.0, sum, 1e-9)
			assert.Equal(t, highest, entry.MaxPercentage)
			assert.Equal(t, entry.MaxPercentage > DefaultThreshold, entry.IsBiased)
		}
	}
}

func TestNewAnalyzerValidation(t *testing.T) {
	a := newAnalyzer(t)
	assert.Equal(t, DefaultThreshold, a.Threshold())
	assert.Equal(t, MissingExclude, a.Missing())

	a = newAnalyzer(t, WithMissingPolicy(""))
	assert.Equal(t, MissingExclude, a.Missing())

	for _, threshold := range []float64{-1, 100.5} {
		_, err := NewAnalyzer(WithThreshold(threshold))
		var thresholdErr *InvalidThresholdError
		assert.ErrorAs(t, err, &thresholdErr)
	}

	_, err := NewAnalyzer(WithMissingPolicy("drop"))
	var policyErr *UnknownMissingPolicyError
	assert.ErrorAs(t, err, &policyErr)
}

func TestParseMissingPolicy(t *testing.T) {
	p, err := ParseMissingPolicy("include")
	require.NoError(t, err)
	assert.Equal(t, MissingInclude, p)

	p, err = ParseMissingPolicy("")
	require.NoError(t, err)
	assert.Equal(t, MissingExclude, p)

	_, err = ParseMissingPolicy("INCLUDE")
	assert.Error(t, err)
}

func toValues(values []string) []dataset.Value {
	out := make([]dataset.Value, len(values))
	for i, v := range values {
		out[i] = dataset.String(v)
	}
	return out
}
