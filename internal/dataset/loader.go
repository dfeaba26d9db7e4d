package dataset

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Format identifies a dataset file encoding.
type Format string

const (
	FormatAuto Format = ""
	FormatCSV  Format = "csv"
	FormatTSV  Format = "tsv"
	FormatJSON Format = "json"
)

// DefaultMissingValues are the cell tokens treated as missing when
// LoadOptions.MissingValues is nil.
var DefaultMissingValues = []string{"", "NA", "NaN", "null", "None"}

// LoadOptions controls how a dataset file is decoded.
type LoadOptions struct {
	// Format overrides detection from the file extension.
	Format Format
	// Delimiter for CSV. If 0, ',' is used for csv and '\t' for tsv.
	Delimiter rune
	// MissingValues lists cell tokens read as missing. nil selects
	// DefaultMissingValues; an empty non-nil slice disables the mapping.
	MissingValues []string
	// Name of the resulting dataset. Defaults to the file's base name.
	Name string
}

// DefaultLoadOptions returns options with auto-detected format and the
// default missing tokens.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{
		MissingValues: DefaultMissingValues,
	}
}

// UnsupportedFormatError is returned for a file whose format cannot be
// determined or is not handled.
type UnsupportedFormatError struct {
	Path   string
	Format Format
}

func (e *UnsupportedFormatError) Error() string {
	if e.Format != FormatAuto {
		return fmt.Sprintf("unsupported dataset format %q", e.Format)
	}
	return fmt.Sprintf("cannot detect dataset format of %s (expected .csv, .tsv or .json)", e.Path)
}

// DetectFormat infers the dataset format from the file extension.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV
	case ".tsv", ".tab":
		return FormatTSV
	case ".json":
		return FormatJSON
	default:
		return FormatAuto
	}
}

// LoadFile reads a dataset from disk.
func LoadFile(path string, opts LoadOptions) (*Dataset, error) {
	format := opts.Format
	if format == FormatAuto {
		format = DetectFormat(path)
	}

	if opts.Name == "" {
		base := filepath.Base(path)
		opts.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset: %w", err)
	}
	defer file.Close()

	var ds *Dataset
	switch format {
	case FormatCSV, FormatTSV:
		if opts.Delimiter == 0 && format == FormatTSV {
			opts.Delimiter = '\t'
		}
		ds, err = ReadCSV(bufio.NewReader(file), opts)
	case FormatJSON:
		ds, err = ReadJSON(file, opts)
	default:
		return nil, &UnsupportedFormatError{Path: path, Format: opts.Format}
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	log.Debug().
		Str("path", path).
		Str("format", string(format)).
		Int("rows", ds.Rows()).
		Int("columns", ds.Width()).
		Msg("Loaded dataset")

	return ds, nil
}

// ReadCSV decodes delimited text whose first record is the header.
func ReadCSV(r io.Reader, opts LoadOptions) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("empty input: missing header row")
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	missing := missingSet(opts.MissingValues)
	columns := make([][]Value, len(header))

	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		for i, cell := range rec {
			columns[i] = append(columns[i], cellValue(cell, missing))
		}
	}

	ds := New(opts.Name)
	for i, name := range header {
		if err := ds.AddColumn(strings.TrimSpace(name), nonNil(columns[i])); err != nil {
			return nil, err
		}
	}

	return ds, nil
}

// ReadJSON decodes either an array of row objects or an object mapping
// column names to value arrays. Column order follows first appearance.
func ReadJSON(r io.Reader, opts LoadOptions) (*Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("empty input")
	}

	missing := missingSet(opts.MissingValues)

	switch trimmed[0] {
	case '[':
		return readJSONRows(trimmed, opts.Name, missing)
	case '{':
		return readJSONColumns(trimmed, opts.Name, missing)
	default:
		return nil, errors.New("expected a JSON array of rows or an object of columns")
	}
}

func readJSONRows(data []byte, name string, missing map[string]struct{}) (*Dataset, error) {
	var rows []*orderedmap.OrderedMap[string, json.RawMessage]
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decoding rows: %w", err)
	}

	var order []string
	columns := make(map[string][]Value)

	for i, row := range rows {
		if row == nil {
			return nil, fmt.Errorf("row %d: expected an object", i)
		}
		for pair := row.Oldest(); pair != nil; pair = pair.Next() {
			if _, seen := columns[pair.Key]; !seen {
				order = append(order, pair.Key)
				// earlier rows lacked this key
				columns[pair.Key] = make([]Value, i, len(rows))
			}
		}
		for _, col := range order {
			raw, ok := row.Get(col)
			if !ok {
				columns[col] = append(columns[col], Null())
				continue
			}
			v, err := jsonValue(raw, missing)
			if err != nil {
				return nil, fmt.Errorf("row %d, column %q: %w", i, col, err)
			}
			columns[col] = append(columns[col], v)
		}
	}

	ds := New(name)
	for _, col := range order {
		if err := ds.AddColumn(col, columns[col]); err != nil {
			return nil, err
		}
	}
	return ds, nil
}

func readJSONColumns(data []byte, name string, missing map[string]struct{}) (*Dataset, error) {
	cols := orderedmap.New[string, []json.RawMessage]()
	if err := json.Unmarshal(data, cols); err != nil {
		return nil, fmt.Errorf("decoding columns: %w", err)
	}

	ds := New(name)
	for pair := cols.Oldest(); pair != nil; pair = pair.Next() {
		values := make([]Value, len(pair.Value))
		for i, raw := range pair.Value {
			v, err := jsonValue(raw, missing)
			if err != nil {
				return nil, fmt.Errorf("column %q, row %d: %w", pair.Key, i, err)
			}
			values[i] = v
		}
		if err := ds.AddColumn(pair.Key, values); err != nil {
			return nil, err
		}
	}
	return ds, nil
}

func jsonValue(raw json.RawMessage, missing map[string]struct{}) (Value, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return Null(), nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return Value{}, err
		}
		return cellValue(s, missing), nil
	case '{', '[':
		return Value{}, errors.New("nested values are not supported")
	default:
		// numbers and booleans keep their literal text
		return cellValue(string(trimmed), missing), nil
	}
}

func cellValue(cell string, missing map[string]struct{}) Value {
	if _, ok := missing[cell]; ok {
		return Null()
	}
	return String(cell)
}

func missingSet(tokens []string) map[string]struct{} {
	if tokens == nil {
		tokens = DefaultMissingValues
	}
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

func nonNil(values []Value) []Value {
	if values == nil {
		return []Value{}
	}
	return values
}
