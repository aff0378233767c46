// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// KeyNormalization selects how dedupe key values are compared.
type KeyNormalization string

const (
	// NormalizeNone compares key values byte for byte.
	NormalizeNone KeyNormalization = "none"

	// NormalizeDOI trims resolver prefixes and case-folds DOI values.
	NormalizeDOI KeyNormalization = "doi"
)

// Default file locations and settings for the merge command.
const (
	DefaultPrimaryPath     = "scopus.csv"
	DefaultSecondaryPath   = "wos.txt"
	DefaultOutputPath      = "combined.csv"
	DefaultPrimarySource   = "scopus"
	DefaultSecondarySource = "wos"
	DefaultProfile         = "basic"
	DefaultKeyColumn       = "DI"
)

// InputConfig names one input file and the source schema used to read it.
type InputConfig struct {
	// Path is the filesystem path of the export file.
	Path string `json:"path" yaml:"path"`

	// Source is the schema ID from the schema registry (e.g. "scopus").
	Source string `json:"source" yaml:"source"`
}

// DedupeConfig holds settings for collapsing duplicate records.
type DedupeConfig struct {
	// KeyColumns are the canonical columns whose values identify a record.
	KeyColumns []string `json:"key_columns" yaml:"key_columns"`

	// Normalization selects the key comparison mode (default none).
	Normalization KeyNormalization `json:"normalization" yaml:"normalization"`

	// DistinctMissing keeps every row whose key values are all empty
	// instead of collapsing them into one group.
	DistinctMissing bool `json:"distinct_missing" yaml:"distinct_missing"`
}

// ExportConfig holds optional secondary outputs written after the CSV.
type ExportConfig struct {
	// SQLitePath, when set, receives the deduplicated table as a SQLite database.
	SQLitePath string `json:"sqlite_path,omitempty" yaml:"sqlite_path,omitempty"`

	// CSLPath, when set, receives the deduplicated table as CSL-YAML.
	CSLPath string `json:"csl_path,omitempty" yaml:"csl_path,omitempty"`

	// ReportPath, when set, receives a YAML run report.
	ReportPath string `json:"report_path,omitempty" yaml:"report_path,omitempty"`
}

// MergeConfig groups everything one pipeline run needs.
type MergeConfig struct {
	Primary   InputConfig `json:"primary" yaml:"primary"`
	Secondary InputConfig `json:"secondary" yaml:"secondary"`

	// OutputPath is the merged CSV destination.
	OutputPath string `json:"output_path" yaml:"output_path"`

	// Profile selects the canonical column set (e.g. "basic", "extended").
	Profile string `json:"profile" yaml:"profile"`

	Dedupe  DedupeConfig `json:"dedupe" yaml:"dedupe"`
	Exports ExportConfig `json:"exports" yaml:"exports"`
}

// DefaultMergeConfig returns the configuration used when no flags or config
// file override anything.
func DefaultMergeConfig() MergeConfig {
	return MergeConfig{
		Primary:    InputConfig{Path: DefaultPrimaryPath, Source: DefaultPrimarySource},
		Secondary:  InputConfig{Path: DefaultSecondaryPath, Source: DefaultSecondarySource},
		OutputPath: DefaultOutputPath,
		Profile:    DefaultProfile,
		Dedupe: DedupeConfig{
			KeyColumns:    []string{DefaultKeyColumn},
			Normalization: NormalizeNone,
		},
	}
}
