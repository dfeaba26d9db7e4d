package bias

import "fmt"

// ColumnNotFoundError is returned when a protected column is absent from
// the dataset.
type ColumnNotFoundError struct {
	Column string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("protected column %q not found in dataset", e.Column)
}

// EmptyColumnError is returned when a protected column has no values left
// to count.
type EmptyColumnError struct {
	Column string
	// Missing is the number of values dropped as missing.
	Missing int
}

func (e *EmptyColumnError) Error() string {
	if e.Missing > 0 {
		return fmt.Sprintf("protected column %q has no non-missing values (%d missing)", e.Column, e.Missing)
	}
	return fmt.Sprintf("protected column %q is empty", e.Column)
}

// InvalidThresholdError is returned for a dominance threshold outside
// [0, 100].
type InvalidThresholdError struct {
	Threshold float64
}

func (e *InvalidThresholdError) Error() string {
	return fmt.Sprintf("bias threshold must be between 0 and 100, got %g", e.Threshold)
}

// UnknownMissingPolicyError is returned when a missing-value policy name is
// not recognised.
type UnknownMissingPolicyError struct {
	Policy string
}

func (e *UnknownMissingPolicyError) Error() string {
	return fmt.Sprintf("unknown missing value policy %q (expected %q or %q)", e.Policy, MissingExclude, MissingInclude)
}
