// Package bias measures how evenly the categories of protected attributes
// are represented in a dataset.
package bias

import (
	"math"
	"sort"

	"github.com/lacquerai/parity/internal/dataset"
	"github.com/rs/zerolog/log"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// DefaultThreshold is the category share, in percent, above which a column
// is flagged as biased.
const DefaultThreshold = 60.0

// MissingLabel is the category name used for missing values under
// MissingInclude.
const MissingLabel = "<missing>"

// MissingPolicy decides how missing values enter a distribution.
type MissingPolicy string

const (
	// MissingExclude drops missing values from the denominator.
	MissingExclude MissingPolicy = "exclude"
	// MissingInclude counts missing values as their own category.
	MissingInclude MissingPolicy = "include"
)

// ParseMissingPolicy converts a policy name. The empty string selects
// MissingExclude.
func ParseMissingPolicy(s string) (MissingPolicy, error) {
	switch MissingPolicy(s) {
	case "", MissingExclude:
		return MissingExclude, nil
	case MissingInclude:
		return MissingInclude, nil
	default:
		return "", &UnknownMissingPolicyError{Policy: s}
	}
}

// Entry is the bias summary of one protected column.
type Entry struct {
	// Distribution maps each category to its percentage share, largest first.
	Distribution  *orderedmap.OrderedMap[string, float64] `json:"distribution" yaml:"distribution"`
	MaxPercentage float64                                  `json:"max_percentage" yaml:"max_percentage"`
	IsBiased      bool                                     `json:"is_biased" yaml:"is_biased"`
}

// Check holds one Entry per protected column, in the order the columns
// were requested.
type Check = orderedmap.OrderedMap[string, Entry]

// Analyzer computes category distributions of protected columns.
type Analyzer struct {
	threshold float64
	missing   MissingPolicy
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithThreshold sets the dominance threshold in percent.
func WithThreshold(threshold float64) Option {
	return func(a *Analyzer) {
		a.threshold = threshold
	}
}

// WithMissingPolicy sets how missing values are counted.
func WithMissingPolicy(policy MissingPolicy) Option {
	return func(a *Analyzer) {
		a.missing = policy
	}
}

// NewAnalyzer creates an analyzer with the default threshold and
// MissingExclude, adjusted by opts.
func NewAnalyzer(opts ...Option) (*Analyzer, error) {
	a := &Analyzer{
		threshold: DefaultThreshold,
		missing:   MissingExclude,
	}
	for _, opt := range opts {
		opt(a)
	}

	if math.IsNaN(a.threshold) || a.threshold < 0 || a.threshold > 100 {
		return nil, &InvalidThresholdError{Threshold: a.threshold}
	}
	policy, err := ParseMissingPolicy(string(a.missing))
	if err != nil {
		return nil, err
	}
	a.missing = policy

	return a, nil
}

// Threshold returns the dominance threshold in percent.
func (a *Analyzer) Threshold() float64 {
	return a.threshold
}

// Missing returns the configured missing-value policy.
func (a *Analyzer) Missing() MissingPolicy {
	return a.missing
}

// Analyze summarizes every protected column of ds. It stops at the first
// column that is absent or empty.
func (a *Analyzer) Analyze(ds *dataset.Dataset, columns []string) (*Check, error) {
	check := orderedmap.New[string, Entry]()

	for _, name := range columns {
		col, ok := ds.Column(name)
		if !ok {
			return nil, &ColumnNotFoundError{Column: name}
		}

		entry, err := a.AnalyzeColumn(col)
		if err != nil {
			return nil, err
		}

		log.Debug().
			Str("column", name).
			Int("categories", entry.Distribution.Len()).
			Float64("max_percentage", entry.MaxPercentage).
			Bool("is_biased", entry.IsBiased).
			Msg("Analyzed protected column")

		check.Set(name, entry)
	}

	return check, nil
}

// AnalyzeColumn computes the percentage share of each category of col.
// Categories are ordered by descending share; ties keep first appearance.
func (a *Analyzer) AnalyzeColumn(col *dataset.Column) (Entry, error) {
	counts := make(map[string]int)
	var order []string
	total, dropped := 0, 0

	for _, v := range col.Values {
		key := v.String()
		if v.IsMissing() {
			if a.missing != MissingInclude {
				dropped++
				continue
			}
			key = MissingLabel
		}

		if _, seen := counts[key]; !seen {
			order = append(order, key)
		}
		counts[key]++
		total++
	}

	if total == 0 {
		return Entry{}, &EmptyColumnError{Column: col.Name, Missing: dropped}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	dist := orderedmap.New[string, float64](len(order))
	for _, key := range order {
		dist.Set(key, float64(counts[key])*100/float64(total))
	}

	// the first category has the largest count
	maxPct := float64(counts[order[0]]) * 100 / float64(total)

	return Entry{
		Distribution:  dist,
		MaxPercentage: maxPct,
		IsBiased:      maxPct > a.threshold,
	}, nil
}
