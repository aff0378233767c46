// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs one merge: read both exports, rename their columns to
// canonical names, concatenate, deduplicate, and write the result. Every step
// completes before the next starts and the first failure aborts the run. The
// output file is opened only after reading and merging succeed.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/bibmerge/internal/export"
	"github.com/pdiddy/bibmerge/internal/index"
	"github.com/pdiddy/bibmerge/internal/merge"
	"github.com/pdiddy/bibmerge/internal/schema"
	"github.com/pdiddy/bibmerge/internal/table"
	"github.com/pdiddy/bibmerge/pkg/types"
)

// Summary holds the row counts of one run.
type Summary struct {
	RunID   string
	Started time.Time

	PrimaryName   string
	SecondaryName string

	PrimaryRows   int
	SecondaryRows int
	MergedRows    int
	DedupedRows   int
	MissingKeys   int
}

// DuplicatesRemoved returns how many merged rows the dedupe step dropped.
func (s Summary) DuplicatesRemoved() int {
	return s.MergedRows - s.DedupedRows
}

// Run executes the merge described by cfg using schemas from reg, writing
// progress lines to w.
func Run(ctx context.Context, cfg types.MergeConfig, reg *schema.Registry, w io.Writer) (Summary, error) {
	summary := Summary{
		RunID:   uuid.NewString(),
		Started: time.Now().UTC(),
	}

	primarySchema, err := reg.Source(cfg.Primary.Source, cfg.Profile)
	if err != nil {
		return summary, fmt.Errorf("resolving source A schema: %w", err)
	}
	secondarySchema, err := reg.Source(cfg.Secondary.Source, cfg.Profile)
	if err != nil {
		return summary, fmt.Errorf("resolving source B schema: %w", err)
	}
	normalize, err := merge.NormalizerFor(cfg.Dedupe.Normalization)
	if err != nil {
		return summary, err
	}
	keys := cfg.Dedupe.KeyColumns
	if len(keys) == 0 {
		keys = []string{types.DefaultKeyColumn}
	}
	summary.PrimaryName = primarySchema.Label()
	summary.SecondaryName = secondarySchema.Label()

	primary, err := table.Read(cfg.Primary.Path, primarySchema, w)
	if err != nil {
		return summary, fmt.Errorf("could not read source A file (%s): %w", primarySchema.Label(), err)
	}
	summary.PrimaryRows = primary.Len()

	secondary, err := table.Read(cfg.Secondary.Path, secondarySchema, w)
	if err != nil {
		return summary, fmt.Errorf("could not read source B file (%s): %w", secondarySchema.Label(), err)
	}
	summary.SecondaryRows = secondary.Len()

	if primary, err = table.Canonicalize(primary, primarySchema); err != nil {
		return summary, fmt.Errorf("could not rename %s columns: %w", primarySchema.Label(), err)
	}
	if secondary, err = table.Canonicalize(secondary, secondarySchema); err != nil {
		return summary, fmt.Errorf("could not rename %s columns: %w", secondarySchema.Label(), err)
	}

	merged, err := merge.Concatenate(primary, secondary)
	if err != nil {
		return summary, fmt.Errorf("could not join datasets: %w", err)
	}
	summary.MergedRows = merged.Len()

	if summary.MissingKeys, err = merge.CountMissing(merged, keys, normalize); err != nil {
		return summary, fmt.Errorf("could not deduplicate records: %w", err)
	}
	deduped, err := merge.Dedupe(merged, keys, merge.Options{
		Normalize:       normalize,
		DistinctMissing: cfg.Dedupe.DistinctMissing,
	})
	if err != nil {
		return summary, fmt.Errorf("could not deduplicate records: %w", err)
	}
	summary.DedupedRows = deduped.Len()
	fmt.Fprintf(w, "merged %d records, removed %d duplicates by %v\n",
		summary.MergedRows, summary.DuplicatesRemoved(), keys)
	if summary.MissingKeys > 1 && !cfg.Dedupe.DistinctMissing {
		fmt.Fprintf(w, "warning: %d records have no %v value and were treated as one record\n",
			summary.MissingKeys, keys)
	}

	if err := table.Write(deduped, cfg.OutputPath, w); err != nil {
		return summary, fmt.Errorf("could not save combined file: %w", err)
	}

	if err := writeExports(ctx, cfg, deduped, w); err != nil {
		return summary, err
	}

	if cfg.Exports.ReportPath != "" {
		report := NewReport(cfg, keys, summary)
		if err := WriteReport(cfg.Exports.ReportPath, report); err != nil {
			return summary, fmt.Errorf("could not write run report: %w", err)
		}
		fmt.Fprintf(w, "wrote run report to %s\n", cfg.Exports.ReportPath)
	}

	return summary, nil
}

// writeExports writes the optional SQLite and CSL outputs.
func writeExports(ctx context.Context, cfg types.MergeConfig, deduped *table.Table, w io.Writer) error {
	if path := cfg.Exports.SQLitePath; path != "" {
		store, err := index.Open(path)
		if err != nil {
			return fmt.Errorf("could not write SQLite index: %w", err)
		}
		defer store.Close()
		if err := store.Replace(ctx, deduped); err != nil {
			return fmt.Errorf("could not write SQLite index: %w", err)
		}
		fmt.Fprintf(w, "indexed %d records in %s\n", deduped.Len(), path)
	}

	if path := cfg.Exports.CSLPath; path != "" {
		if err := export.WriteCSLFile(deduped, path, w); err != nil {
			return fmt.Errorf("could not write CSL export: %w", err)
		}
	}
	return nil
}
