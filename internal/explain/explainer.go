// Package explain ranks a model's per-feature importance scores.
package explain

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Model is anything that exposes one importance score per input feature,
// aligned positionally with the feature names.
type Model interface {
	Importances() []float64
}

// Importances is a fixed importance vector that satisfies Model.
type Importances []float64

// Importances returns the vector itself.
func (i Importances) Importances() []float64 {
	return i
}

// Entry pairs a feature with its importance score.
type Entry struct {
	Feature    string  `json:"feature" yaml:"feature"`
	Importance float64 `json:"importance" yaml:"importance"`
}

// ErrNilModel is returned by ExplainModel when no model is given.
var ErrNilModel = errors.New("model is nil")

// LengthMismatchError is returned when the importance vector and the feature
// names differ in length.
type LengthMismatchError struct {
	Importances int
	Features    int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("model has %d importances but %d feature names were given", e.Importances, e.Features)
}

// InvalidImportanceError is returned for a NaN or infinite score.
type InvalidImportanceError struct {
	Feature string
	Value   float64
}

func (e *InvalidImportanceError) Error() string {
	return fmt.Sprintf("feature %q has non-finite importance %v", e.Feature, e.Value)
}

// Explain pairs importances with names by position and ranks them highest
// first. Equal scores keep their input order.
func Explain(importances []float64, names []string) ([]Entry, error) {
	if len(importances) != len(names) {
		return nil, &LengthMismatchError{Importances: len(importances), Features: len(names)}
	}

	entries := make([]Entry, len(names))
	for i, name := range names {
		v := importances[i]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &InvalidImportanceError{Feature: name, Value: v}
		}
		entries[i] = Entry{Feature: name, Importance: v}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Importance > entries[j].Importance
	})

	return entries, nil
}

// ExplainModel ranks the importances reported by m.
func ExplainModel(m Model, names []string) ([]Entry, error) {
	if m == nil {
		return nil, ErrNilModel
	}
	return Explain(m.Importances(), names)
}

// Top returns the first n entries of a ranked table. n <= 0 returns all of
// them.
func Top(entries []Entry, n int) []Entry {
	if n <= 0 || n >= len(entries) {
		return entries
	}
	return entries[:n]
}
