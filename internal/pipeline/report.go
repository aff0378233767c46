// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/bibmerge/pkg/types"
)

// Report is the on-disk record of one merge run: where the data came from,
// how it was deduplicated, and how many rows each stage produced.
type Report struct {
	RunID     string        `yaml:"run_id"`
	Timestamp time.Time     `yaml:"timestamp"`
	Profile   string        `yaml:"profile"`
	Inputs    []ReportInput `yaml:"inputs"`
	Dedupe    ReportDedupe  `yaml:"dedupe"`
	Output    ReportOutput  `yaml:"output"`
}

// ReportInput describes one source file.
type ReportInput struct {
	Source  string `yaml:"source"`
	Name    string `yaml:"name"`
	Path    string `yaml:"path"`
	Records int    `yaml:"records"`
}

// ReportDedupe describes the dedupe settings and their effect.
type ReportDedupe struct {
	KeyColumns        []string               `yaml:"key_columns,flow"`
	Normalization     types.KeyNormalization `yaml:"normalization"`
	DistinctMissing   bool                   `yaml:"distinct_missing"`
	MergedRecords     int                    `yaml:"merged_records"`
	DuplicatesRemoved int                    `yaml:"duplicates_removed"`
	MissingKeys       int                    `yaml:"missing_keys"`
}

// ReportOutput describes the files the run produced.
type ReportOutput struct {
	Path    string `yaml:"path"`
	Records int    `yaml:"records"`
	SQLite  string `yaml:"sqlite,omitempty"`
	CSL     string `yaml:"csl,omitempty"`
}

// NewReport builds the report for a completed run.
func NewReport(cfg types.MergeConfig, keys []string, s Summary) Report {
	norm := cfg.Dedupe.Normalization
	if norm == "" {
		norm = types.NormalizeNone
	}
	return Report{
		RunID:     s.RunID,
		Timestamp: s.Started,
		Profile:   cfg.Profile,
		Inputs: []ReportInput{
			{Source: cfg.Primary.Source, Name: s.PrimaryName, Path: cfg.Primary.Path, Records: s.PrimaryRows},
			{Source: cfg.Secondary.Source, Name: s.SecondaryName, Path: cfg.Secondary.Path, Records: s.SecondaryRows},
		},
		Dedupe: ReportDedupe{
			KeyColumns:        keys,
			Normalization:     norm,
			DistinctMissing:   cfg.Dedupe.DistinctMissing,
			MergedRecords:     s.MergedRows,
			DuplicatesRemoved: s.DuplicatesRemoved(),
			MissingKeys:       s.MissingKeys,
		},
		Output: ReportOutput{
			Path:    cfg.OutputPath,
			Records: s.DedupedRows,
			SQLite:  cfg.Exports.SQLitePath,
			CSL:     cfg.Exports.CSLPath,
		},
	}
}

// WriteReport saves r to path as YAML.
func WriteReport(path string, r Report) error {
	data, err := yaml.Marshal(&r)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadReport loads a previously written report.
func ReadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading report: %w", err)
	}
	var r Report
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing report: %w", err)
	}
	return &r, nil
}
