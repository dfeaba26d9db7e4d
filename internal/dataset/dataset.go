package dataset

import (
	"errors"
	"fmt"
	"strconv"
)

// Value is a single cell of a dataset. The zero Value is missing.
type Value struct {
	text  string
	valid bool
}

// String returns a present value holding s.
func String(s string) Value {
	return Value{text: s, valid: true}
}

// Int returns a present value holding the decimal form of i.
func Int(i int) Value {
	return String(strconv.Itoa(i))
}

// Float returns a present value holding the shortest decimal form of f.
func Float(f float64) Value {
	return String(strconv.FormatFloat(f, 'g', -1, 64))
}

// Null returns a missing value.
func Null() Value {
	return Value{}
}

// IsMissing reports whether the value is missing.
func (v Value) IsMissing() bool {
	return !v.valid
}

// String returns the textual form of the value, or "" when missing.
func (v Value) String() string {
	if !v.valid {
		return ""
	}
	return v.text
}

// Column is a named sequence of values.
type Column struct {
	Name   string
	Values []Value
}

// Len returns the number of values in the column.
func (c *Column) Len() int {
	return len(c.Values)
}

// MissingCount returns the number of missing values in the column.
func (c *Column) MissingCount() int {
	n := 0
	for _, v := range c.Values {
		if v.IsMissing() {
			n++
		}
	}
	return n
}

// Dataset is a table of named, equal-length columns kept in insertion order.
//
// A Dataset is not safe for concurrent mutation. Datasets handed out by a
// Cache are shared and must be treated as read-only.
type Dataset struct {
	Name string

	columns []*Column
	index   map[string]int
	rows    int
}

// New creates an empty dataset.
func New(name string) *Dataset {
	return &Dataset{
		Name:  name,
		index: make(map[string]int),
	}
}

// AddColumn appends a column. The first column fixes the row count; every
// later column must have the same length.
func (d *Dataset) AddColumn(name string, values []Value) error {
	if name == "" {
		return errors.New("column name cannot be empty")
	}
	if _, exists := d.index[name]; exists {
		return &DuplicateColumnError{Column: name}
	}
	if len(d.columns) > 0 && len(values) != d.rows {
		return &ColumnLengthError{Column: name, Got: len(values), Want: d.rows}
	}

	if len(d.columns) == 0 {
		d.rows = len(values)
	}

	d.index[name] = len(d.columns)
	d.columns = append(d.columns, &Column{Name: name, Values: values})
	return nil
}

// AddStrings appends a column of present string values.
func (d *Dataset) AddStrings(name string, values ...string) error {
	vals := make([]Value, len(values))
	for i, s := range values {
		vals[i] = String(s)
	}
	return d.AddColumn(name, vals)
}

// Column returns the named column.
func (d *Dataset) Column(name string) (*Column, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return d.columns[i], true
}

// HasColumn reports whether the dataset has the named column.
func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.index[name]
	return ok
}

// ColumnNames returns the column names in insertion order.
func (d *Dataset) ColumnNames() []string {
	names := make([]string, len(d.columns))
	for i, c := range d.columns {
		names[i] = c.Name
	}
	return names
}

// Rows returns the number of rows.
func (d *Dataset) Rows() int {
	return d.rows
}

// Width returns the number of columns.
func (d *Dataset) Width() int {
	return len(d.columns)
}

// ColumnLengthError is returned when a column's length differs from the
// dataset's row count.
type ColumnLengthError struct {
	Column string
	Got    int
	Want   int
}

func (e *ColumnLengthError) Error() string {
	return fmt.Sprintf("column %q has %d values, dataset has %d rows", e.Column, e.Got, e.Want)
}

// DuplicateColumnError is returned when a column name appears twice.
type DuplicateColumnError struct {
	Column string
}

func (e *DuplicateColumnError) Error() string {
	return fmt.Sprintf("duplicate column %q", e.Column)
}
