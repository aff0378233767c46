// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the bibmerge pipeline:
// source schemas, merge configuration, and the error taxonomy used by every
// stage.
package types

// FieldMapping pairs a column name in a source export with the canonical
// column name it becomes after normalization.
type FieldMapping struct {
	// Source is the header name as it appears in the export (e.g. "Source title").
	Source string `json:"source" yaml:"source"`

	// Canonical is the two-letter field tag used in merged output (e.g. "SO").
	Canonical string `json:"canonical" yaml:"canonical"`
}

// SourceSchema describes which columns to extract from one export format
// and how to rename them. Fields are ordered; the order is the column order
// of the table produced by the reader.
type SourceSchema struct {
	// ID is the short configuration key (e.g. "scopus").
	ID string `json:"id" yaml:"id"`

	// Name is the human-readable source name used in log lines and errors.
	Name string `json:"name" yaml:"name"`

	// Delimiter separates fields in the export file.
	Delimiter rune `json:"delimiter" yaml:"delimiter"`

	// Fields lists the columns to retain, in output order.
	Fields []FieldMapping `json:"fields" yaml:"fields"`
}

// SourceFields returns the export column names in schema order.
func (s SourceSchema) SourceFields() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Source
	}
	return names
}

// CanonicalFields returns the canonical column names in schema order.
func (s SourceSchema) CanonicalFields() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Canonical
	}
	return names
}

// Label returns Name, falling back to ID when no name is configured.
func (s SourceSchema) Label() string {
	if s.Name != "" {
		return s.Name
	}
	return s.ID
}
