// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package schema

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/pdiddy/bibmerge/pkg/types"
)

// documentSchema is the JSON schema every configuration file must satisfy
// before cross-reference checks run.
const documentSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["profiles", "sources"],
  "additionalProperties": false,
  "properties": {
    "profiles": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["name", "canonical"],
        "additionalProperties": false,
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "canonical": {
            "type": "array",
            "minItems": 1,
            "items": {"type": "string", "pattern": "^[A-Z][A-Z0-9_]*$"}
          }
        }
      }
    },
    "sources": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["id", "delimiter", "fields"],
        "additionalProperties": false,
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "name": {"type": "string"},
          "delimiter": {"type": "string", "minLength": 1, "maxLength": 1},
          "fields": {
            "type": "array",
            "minItems": 1,
            "items": {
              "type": "object",
              "required": ["source", "canonical"],
              "additionalProperties": false,
              "properties": {
                "source": {"type": "string", "minLength": 1},
                "canonical": {"type": "string", "pattern": "^[A-Z][A-Z0-9_]*$"}
              }
            }
          }
        }
      }
    }
  }
}`

var compiledSchema *jsonschema.Schema

func init() {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("bibmerge-schema.json", strings.NewReader(documentSchema)); err != nil {
		panic(fmt.Sprintf("loading schema document: %v", err))
	}
	compiledSchema = compiler.MustCompile("bibmerge-schema.json")
}

// validateShape checks the raw decoded YAML against documentSchema.
func validateShape(raw any) error {
	if raw == nil {
		return fmt.Errorf("%w: document is empty", types.ErrConfig)
	}
	if err := compiledSchema.Validate(raw); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return fmt.Errorf("%w: %s", types.ErrConfig, describe(verr))
		}
		return fmt.Errorf("%w: %v", types.ErrConfig, err)
	}
	return nil
}

// describe flattens a validation error tree into its leaf messages.
func describe(verr *jsonschema.ValidationError) string {
	if len(verr.Causes) == 0 {
		loc := verr.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		return fmt.Sprintf("%s: %s", loc, verr.Message)
	}
	msgs := make([]string, 0, len(verr.Causes))
	for _, c := range verr.Causes {
		msgs = append(msgs, describe(c))
	}
	return strings.Join(msgs, "; ")
}

// validateDocument checks the cross-references the JSON schema cannot
// express.
func validateDocument(doc Document) error {
	var problems []string
	addf := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	vocabulary := make(map[string]bool)
	profileNames := make(map[string]bool)
	for _, p := range doc.Profiles {
		if profileNames[p.Name] {
			addf("profile %q declared twice", p.Name)
		}
		profileNames[p.Name] = true

		seen := make(map[string]bool)
		for _, c := range p.Canonical {
			if seen[c] {
				addf("profile %q lists canonical column %q twice", p.Name, c)
			}
			seen[c] = true
			vocabulary[c] = true
		}
	}

	sourceIDs := make(map[string]bool)
	for _, s := range doc.Sources {
		if sourceIDs[s.ID] {
			addf("source %q declared twice", s.ID)
		}
		sourceIDs[s.ID] = true

		if _, err := parseDelimiter(s.Delimiter); err != nil {
			addf("source %q: %v", s.ID, err)
		}

		sourceNames := make(map[string]bool)
		canonicalNames := make(map[string]bool)
		for _, f := range s.Fields {
			if sourceNames[f.Source] {
				addf("source %q maps column %q twice", s.ID, f.Source)
			}
			sourceNames[f.Source] = true
			if canonicalNames[f.Canonical] {
				addf("source %q maps two columns to %q", s.ID, f.Canonical)
			}
			canonicalNames[f.Canonical] = true
			if !vocabulary[f.Canonical] {
				addf("source %q maps %q to %q, which no profile uses", s.ID, f.Source, f.Canonical)
			}
		}

		for _, p := range doc.Profiles {
			for _, c := range p.Canonical {
				if !canonicalNames[c] {
					addf("source %q has no column for %q (profile %q)", s.ID, c, p.Name)
				}
			}
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", types.ErrConfig, strings.Join(problems, "; "))
	}
	return nil
}

// parseDelimiter converts a configured delimiter string to a rune the CSV
// reader accepts.
func parseDelimiter(s string) (rune, error) {
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("delimiter %q must be a single character", s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	switch r {
	case '"', '\r', '\n', 0, utf8.RuneError:
		return 0, fmt.Errorf("delimiter %q is not allowed", s)
	}
	return r, nil
}
