// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package schema maps bibliographic export formats onto the canonical column
// vocabulary. Schemas are declarative YAML: profiles choose the canonical
// columns of the merged output, and sources pair their export headers with
// canonical names explicitly. Built-in defaults for Scopus and Web of Science
// are embedded in the binary; a user file can replace them.
package schema

import (
	_ "embed"
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/bibmerge/pkg/types"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// canonicalDelimiter separates fields in merged output files.
const canonicalDelimiter = ','

// Profile is a named, ordered set of canonical columns.
type Profile struct {
	Name      string   `yaml:"name"`
	Canonical []string `yaml:"canonical,flow"`
}

// Source is the configuration record for one export format.
type Source struct {
	ID        string               `yaml:"id"`
	Name      string               `yaml:"name"`
	Delimiter string               `yaml:"delimiter"`
	Fields    []types.FieldMapping `yaml:"fields"`
}

// Document is the on-disk shape of a schema configuration file.
type Document struct {
	Profiles []Profile `yaml:"profiles"`
	Sources  []Source  `yaml:"sources"`
}

// Registry holds a validated schema configuration.
type Registry struct {
	doc      Document
	profiles map[string]Profile
	sources  map[string]Source
}

// Default returns the registry built from the embedded defaults.
func Default() (*Registry, error) {
	return Parse(defaultsYAML)
}

// Load reads a schema configuration from path. An empty path yields the
// built-in defaults.
func Load(path string) (*Registry, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema file %s: %w", path, err)
	}
	reg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("schema file %s: %w", path, err)
	}
	return reg, nil
}

// Parse decodes and validates a schema configuration. Validation happens in
// two passes: the document shape is checked against a JSON schema, then
// cross-references (unique names, delimiter width, mapping cardinality) are
// checked against each other.
func Parse(data []byte) (*Registry, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: parsing YAML: %v", types.ErrConfig, err)
	}
	if err := validateShape(raw); err != nil {
		return nil, err
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: decoding YAML: %v", types.ErrConfig, err)
	}
	if err := validateDocument(doc); err != nil {
		return nil, err
	}

	reg := &Registry{
		doc:      doc,
		profiles: make(map[string]Profile, len(doc.Profiles)),
		sources:  make(map[string]Source, len(doc.Sources)),
	}
	for _, p := range doc.Profiles {
		reg.profiles[p.Name] = p
	}
	for _, s := range doc.Sources {
		reg.sources[s.ID] = s
	}
	return reg, nil
}

// Profiles returns the profile names in declaration order.
func (r *Registry) Profiles() []string {
	names := make([]string, len(r.doc.Profiles))
	for i, p := range r.doc.Profiles {
		names[i] = p.Name
	}
	return names
}

// Sources returns the source IDs in declaration order.
func (r *Registry) Sources() []string {
	ids := make([]string, len(r.doc.Sources))
	for i, s := range r.doc.Sources {
		ids[i] = s.ID
	}
	return ids
}

// Source returns the schema for reading source id under the given profile.
// Fields are restricted to the profile's canonical columns and ordered the
// way the profile lists them, so every source read under one profile yields
// the same canonical column order.
func (r *Registry) Source(id, profile string) (types.SourceSchema, error) {
	src, ok := r.sources[id]
	if !ok {
		return types.SourceSchema{}, fmt.Errorf("unknown source %q (known: %v)", id, r.Sources())
	}
	prof, ok := r.profiles[profile]
	if !ok {
		return types.SourceSchema{}, fmt.Errorf("unknown profile %q (known: %v)", profile, r.Profiles())
	}

	byCanonical := make(map[string]types.FieldMapping, len(src.Fields))
	for _, f := range src.Fields {
		byCanonical[f.Canonical] = f
	}

	fields := make([]types.FieldMapping, 0, len(prof.Canonical))
	for _, c := range prof.Canonical {
		// Validation guarantees every canonical name is mapped.
		fields = append(fields, byCanonical[c])
	}

	delim, _ := parseDelimiter(src.Delimiter)
	return types.SourceSchema{
		ID:        src.ID,
		Name:      src.Name,
		Delimiter: delim,
		Fields:    fields,
	}, nil
}

// Canonical returns an identity schema over the profile's canonical columns.
// It reads files previously written by the merge pipeline.
func (r *Registry) Canonical(profile string) (types.SourceSchema, error) {
	prof, ok := r.profiles[profile]
	if !ok {
		return types.SourceSchema{}, fmt.Errorf("unknown profile %q (known: %v)", profile, r.Profiles())
	}
	fields := make([]types.FieldMapping, len(prof.Canonical))
	for i, c := range prof.Canonical {
		fields[i] = types.FieldMapping{Source: c, Canonical: c}
	}
	return types.SourceSchema{
		ID:        "merged",
		Name:      "merged output",
		Delimiter: canonicalDelimiter,
		Fields:    fields,
	}, nil
}

// Marshal renders the configuration as YAML.
func (r *Registry) Marshal() ([]byte, error) {
	return yaml.Marshal(r.doc)
}
