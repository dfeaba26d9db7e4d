package ast

import (
	"path/filepath"
	"strings"
)

// Name returns the metadata name, or the file name without its audit
// extension when no metadata is set.
func (a *Audit) Name() string {
	if a.Metadata != nil && a.Metadata.Name != "" {
		return a.Metadata.Name
	}
	if a.SourceFile == "" {
		return "audit"
	}

	base := filepath.Base(a.SourceFile)
	for _, ext := range []string{".parity.yaml", ".parity.yml"} {
		if strings.HasSuffix(base, ext) {
			return strings.TrimSuffix(base, ext)
		}
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ResolvePath interprets p relative to the directory of the audit file.
// Absolute paths are returned unchanged.
func (a *Audit) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) || a.SourceFile == "" {
		return p
	}
	return filepath.Join(filepath.Dir(a.SourceFile), p)
}

// HasModel reports whether the audit requests an interpretability section.
func (a *Audit) HasModel() bool {
	return a.Model != nil && len(a.Model.Features) > 0
}

// DelimiterRune returns the dataset delimiter as a rune, or zero when unset.
func (d *DatasetSource) DelimiterRune() rune {
	for _, r := range d.Delimiter {
		return r
	}
	return 0
}
