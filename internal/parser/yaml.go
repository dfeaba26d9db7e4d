package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lacquerai/parity/internal/ast"
	"github.com/lacquerai/parity/internal/parser/schema"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// MaxFileSize is the largest audit file ParseFile accepts.
const MaxFileSize = 1 << 20

// Parser interface defines the contract for audit parsing
type Parser interface {
	ParseFile(filename string) (*ast.Audit, error)
	ParseBytes(data []byte) (*ast.Audit, error)
	ParseReader(r io.Reader) (*ast.Audit, error)
	ValidateOnly(data []byte) error
}

// YAMLParser implements the Parser interface using go-yaml/v3
type YAMLParser struct {
	validator *schema.Validator
	semantic  *ast.Validator
	strict    bool
}

// ParserOption configures the YAML parser
type ParserOption func(*YAMLParser)

// WithStrict rejects fields unknown to the audit types while decoding
func WithStrict(strict bool) ParserOption {
	return func(p *YAMLParser) {
		p.strict = strict
	}
}

// WithValidator sets a custom schema validator
func WithValidator(validator *schema.Validator) ParserOption {
	return func(p *YAMLParser) {
		p.validator = validator
	}
}

// NewYAMLParser creates a new YAML parser with the given options
func NewYAMLParser(opts ...ParserOption) (*YAMLParser, error) {
	parser := &YAMLParser{
		semantic: ast.NewValidator(),
		strict:   true,
	}

	for _, opt := range opts {
		opt(parser)
	}

	if parser.validator == nil {
		validator, err := schema.NewValidator()
		if err != nil {
			return nil, fmt.Errorf("failed to create schema validator: %w", err)
		}
		parser.validator = validator
	}

	return parser, nil
}

// ParseFile parses an audit file. Relative paths inside the audit are later
// resolved against the file's directory.
func (p *YAMLParser) ParseFile(filename string) (*ast.Audit, error) {
	if !IsAuditFile(filename) {
		return nil, fmt.Errorf("invalid file extension: expected .parity.yaml or .parity.yml, got %s", filepath.Base(filename))
	}

	info, err := os.Stat(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	if info.Size() > MaxFileSize {
		return nil, fmt.Errorf("file too large: %d bytes (max %d)", info.Size(), MaxFileSize)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	audit, err := p.parse(data, filename)
	if err != nil {
		return nil, err
	}

	audit.SourceFile = filename
	audit.Position.File = filename

	log.Debug().Str("file", filename).Str("audit", audit.Name()).Msg("Parsed audit definition")

	return audit, nil
}

// ParseBytes parses audit data from bytes
func (p *YAMLParser) ParseBytes(data []byte) (*ast.Audit, error) {
	return p.parse(data, "")
}

// ParseReader parses audit data from a reader
func (p *YAMLParser) ParseReader(r io.Reader) (*ast.Audit, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}
	if len(data) > MaxFileSize {
		return nil, fmt.Errorf("input too large (max %d bytes)", MaxFileSize)
	}

	return p.ParseBytes(data)
}

// ValidateOnly runs every check ParseBytes runs and discards the result
func (p *YAMLParser) ValidateOnly(data []byte) error {
	_, err := p.parse(data, "")
	return err
}

func (p *YAMLParser) parse(data []byte, filename string) (*ast.Audit, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &ParseError{
			Message:    "empty audit file",
			Position:   ast.Position{Line: 1, Column: 1, File: filename},
			Suggestion: "Run `parity init` for a starting point with version, dataset and protected_columns",
		}
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, WrapYAMLError(err, data, filename)
	}

	if p.validator != nil {
		if err := p.validateSchema(data, &root, filename); err != nil {
			return nil, err
		}
	}

	var audit ast.Audit
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(p.strict)
	if err := dec.Decode(&audit); err != nil {
		return nil, WrapYAMLError(err, data, filename)
	}

	if root.Line > 0 {
		audit.Position = ast.Position{Line: root.Line, Column: root.Column, File: filename}
	}

	result := p.semantic.ValidateAudit(&audit)
	if result.HasErrors() {
		var multi MultiError
		for _, verr := range result.Errors {
			path := splitPath(verr.Path)
			if verr.Field != "" {
				path = append(path, verr.Field)
			}
			multi.Add(p.positioned(verr.Error(), locate(&root, path), data, filename))
		}
		return nil, multi.ToError()
	}

	return &audit, nil
}

func (p *YAMLParser) validateSchema(data []byte, root *yaml.Node, filename string) error {
	result, err := p.validator.ValidateBytes(data)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if result.Valid {
		return nil
	}

	var multi MultiError
	for _, verr := range result.Errors {
		segments := strings.Split(strings.Trim(verr.Path, "/"), "/")
		msg := verr.Message
		if verr.Path != "/" {
			msg = fmt.Sprintf("%s: %s", strings.TrimPrefix(verr.Path, "/"), verr.Message)
		}
		multi.Add(p.positioned(msg, locate(root, segments), data, filename))
	}
	return multi.ToError()
}

func (p *YAMLParser) positioned(msg string, pos ast.Position, data []byte, filename string) *ParseError {
	pos.File = filename
	return &ParseError{
		Message:    msg,
		Position:   pos,
		Context:    ast.ExtractContext(data, pos, 1),
		Suggestion: generateSuggestion(msg),
	}
}

// locate walks root along path and returns the position of the deepest node
// it reaches. Path segments are mapping keys or sequence indexes.
func locate(root *yaml.Node, path []string) ast.Position {
	node := root
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}
	pos := ast.Position{Line: max(node.Line, 1), Column: max(node.Column, 1)}

	for _, seg := range path {
		if seg == "" {
			continue
		}

		var next *yaml.Node
		switch node.Kind {
		case yaml.MappingNode:
			for i := 0; i+1 < len(node.Content); i += 2 {
				if node.Content[i].Value == seg {
					// report the key, the value may be on a later line
					pos = ast.Position{Line: node.Content[i].Line, Column: node.Content[i].Column}
					next = node.Content[i+1]
					break
				}
			}
		case yaml.SequenceNode:
			if idx, err := strconv.Atoi(seg); err == nil && idx >= 0 && idx < len(node.Content) {
				next = node.Content[idx]
				pos = ast.Position{Line: next.Line, Column: next.Column}
			}
		}

		if next == nil {
			break
		}
		node = next
	}

	return pos
}

// splitPath turns "model.features[1]" into ["model", "features", "1"].
func splitPath(path string) []string {
	var out []string
	for _, part := range strings.Split(path, ".") {
		for part != "" {
			open := strings.IndexByte(part, '[')
			if open < 0 {
				out = append(out, part)
				break
			}
			if open > 0 {
				out = append(out, part[:open])
			}
			end := strings.IndexByte(part, ']')
			if end < open {
				out = append(out, part[open:])
				break
			}
			out = append(out, part[open+1:end])
			part = part[end+1:]
		}
	}
	return out
}

// IsAuditFile checks if the filename has an audit definition extension
func IsAuditFile(filename string) bool {
	base := filepath.Base(filename)
	for _, ext := range SupportedExtensions() {
		if strings.HasSuffix(base, ext) && len(base) > len(ext) {
			return true
		}
	}
	return false
}

// SupportedExtensions returns the list of supported file extensions
func SupportedExtensions() []string {
	return []string{".parity.yaml", ".parity.yml"}
}

// IsParseError reports whether err holds at least one ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
