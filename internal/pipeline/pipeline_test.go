// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/bibmerge/internal/index"
	"github.com/pdiddy/bibmerge/internal/schema"
	"github.com/pdiddy/bibmerge/internal/table"
	"github.com/pdiddy/bibmerge/pkg/types"
)

const scopusCSV = "\ufeffAuthors,Author(s) ID,Title,Year,Source title,Volume,Issue,DOI,Link,Abstract,Author Keywords,Index Keywords,ISSN\n" +
	"\"Smith J., Doe A.\",111;222,Graph methods,2021,Nature,12,3,1,http://s/1,Abs one,graphs,GRAPHS,0028-0836\n" +
	"Lee K.,333,\"Trees, forests\",2020,Science,7,,2,http://s/2,Abs two,,,0036-8075\n" +
	"Kim H.,444,Paths,2019,Cell,1,1,3,http://s/3,,,,\n"

const wosTXT = "PT\tAU\tTI\tSO\tDI\tPY\tVL\tIS\tSN\tAB\tDE\tID\tUT\n" +
	"J\tSmith, J; Doe, A\tGRAPH METHODS\tNATURE\t1\t2021\t12\t3\t0028-0836\tAbs one\tgraphs\tGRAPHS\tWOS:1\n" +
	"J\tKim, H\tPATHS\tCELL\t3\t2019\t1\t1\t\t\t\t\tWOS:3\n" +
	"J\tPark, S\tCycles\tPNAS\t4\t2022\t119\t2\t\t\t\t\tWOS:4\n"

func setup(t *testing.T, scopus, wos string) (types.MergeConfig, *schema.Registry) {
	t.Helper()
	dir := t.TempDir()
	scopusPath := filepath.Join(dir, "scopus.csv")
	wosPath := filepath.Join(dir, "wos.txt")
	require.NoError(t, os.WriteFile(scopusPath, []byte(scopus), 0o644))
	require.NoError(t, os.WriteFile(wosPath, []byte(wos), 0o644))

	cfg := types.DefaultMergeConfig()
	cfg.Primary.Path = scopusPath
	cfg.Secondary.Path = wosPath
	cfg.OutputPath = filepath.Join(dir, "combined.csv")
	cfg.Profile = "extended"

	reg, err := schema.Default()
	require.NoError(t, err)
	return cfg, reg
}

func readOutput(t *testing.T, reg *schema.Registry, cfg types.MergeConfig) *table.Table {
	t.Helper()
	canonical, err := reg.Canonical(cfg.Profile)
	require.NoError(t, err)
	out, err := table.Read(cfg.OutputPath, canonical, io.Discard)
	require.NoError(t, err)
	return out
}

func TestRunScenario(t *testing.T) {
	cfg, reg := setup(t, scopusCSV, wosTXT)

	var log bytes.Buffer
	summary, err := Run(context.Background(), cfg, reg, &log)
	require.NoError(t, err)

	assert.Equal(t, "Scopus", summary.PrimaryName)
	assert.Equal(t, "Web of Science", summary.SecondaryName)
	assert.Equal(t, 3, summary.PrimaryRows)
	assert.Equal(t, 3, summary.SecondaryRows)
	assert.Equal(t, 6, summary.MergedRows)
	assert.Equal(t, 4, summary.DedupedRows)
	assert.Equal(t, 2, summary.DuplicatesRemoved())
	assert.NotEmpty(t, summary.RunID)

	out := readOutput(t, reg, cfg)
	assert.Equal(t, []string{"DI", "AU", "TI", "SO", "PY", "VL", "IS", "SN", "AB", "DE", "ID"}, out.Columns)

	dois, err := out.Column("DI")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3", "4"}, dois)
	assert.Equal(t, "Graph methods", out.Get(0, "TI"), "DOI 1 keeps the Scopus record")
	assert.Equal(t, "Paths", out.Get(2, "TI"), "DOI 3 keeps the Scopus record")
	assert.Equal(t, "Cycles", out.Get(3, "TI"))
	assert.Equal(t, "Trees, forests", out.Get(1, "TI"))

	logs := log.String()
	assert.Contains(t, logs, "read 3 records from Scopus")
	assert.Contains(t, logs, "read 3 records from Web of Science")
	assert.Contains(t, logs, "wrote 4 records to")
}

func TestRunBasicProfile(t *testing.T) {
	scopus := "Authors,Title,Source title,DOI\nA,T1,S,1\n"
	wos := "AU\tTI\tSO\tDI\nB\tT2\tS\t2\n"
	cfg, reg := setup(t, scopus, wos)
	cfg.Profile = "basic"

	_, err := Run(context.Background(), cfg, reg, io.Discard)
	require.NoError(t, err)

	out := readOutput(t, reg, cfg)
	assert.Equal(t, []string{"DI", "AU", "TI", "SO"}, out.Columns)
	assert.Equal(t, [][]string{{"1", "A", "T1", "S"}, {"2", "B", "T2", "S"}}, out.Rows)
}

func TestRunMissingDOIs(t *testing.T) {
	scopus := "Authors,Title,Source title,DOI\nScopus author,Untitled A,S,\n"
	wos := "AU\tTI\tSO\tDI\nWoS author\tUntitled B\tS\t\n"

	t.Run("collapse by default", func(t *testing.T) {
		cfg, reg := setup(t, scopus, wos)
		cfg.Profile = "basic"

		var log bytes.Buffer
		summary, err := Run(context.Background(), cfg, reg, &log)
		require.NoError(t, err)
		assert.Equal(t, 1, summary.DedupedRows)
		assert.Equal(t, 2, summary.MissingKeys)
		assert.Contains(t, log.String(), "warning: 2 records have no")

		out := readOutput(t, reg, cfg)
		assert.Equal(t, "Scopus author", out.Get(0, "AU"))
	})

	t.Run("distinct when requested", func(t *testing.T) {
		cfg, reg := setup(t, scopus, wos)
		cfg.Profile = "basic"
		cfg.Dedupe.DistinctMissing = true

		summary, err := Run(context.Background(), cfg, reg, io.Discard)
		require.NoError(t, err)
		assert.Equal(t, 2, summary.DedupedRows)
	})
}

func TestRunDOINormalization(t *testing.T) {
	scopus := "Authors,Title,Source title,DOI\nA,T,S,10.1/ABC\n"
	wos := "AU\tTI\tSO\tDI\nB\tT\tS\thttps://doi.org/10.1/abc\n"
	cfg, reg := setup(t, scopus, wos)
	cfg.Profile = "basic"
	cfg.Dedupe.Normalization = types.NormalizeDOI

	summary, err := Run(context.Background(), cfg, reg, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.DedupedRows)
}

func TestRunFailures(t *testing.T) {
	tests := []struct {
		name    string
		scopus  string
		wos     string
		mutate  func(cfg *types.MergeConfig)
		wantErr error
		errMsg  string
	}{
		{
			name:    "source A missing",
			scopus:  scopusCSV,
			wos:     wosTXT,
			mutate:  func(cfg *types.MergeConfig) { cfg.Primary.Path += ".missing" },
			wantErr: types.ErrRead,
			errMsg:  "could not read source A file (Scopus)",
		},
		{
			name:    "source B missing a column",
			scopus:  scopusCSV,
			wos:     "AU\tTI\tSO\nA\tT\tS\n",
			wantErr: types.ErrSchemaMismatch,
			errMsg:  "could not read source B file (Web of Science)",
		},
		{
			name:    "source B malformed",
			scopus:  scopusCSV,
			wos:     wosTXT + "J\tonly two\n",
			wantErr: types.ErrRead,
			errMsg:  "could not read source B file",
		},
		{
			name:    "unknown key column",
			scopus:  scopusCSV,
			wos:     wosTXT,
			mutate:  func(cfg *types.MergeConfig) { cfg.Dedupe.KeyColumns = []string{"DOI"} },
			wantErr: types.ErrShapeMismatch,
			errMsg:  "could not deduplicate records",
		},
		{
			name:    "output directory missing",
			scopus:  scopusCSV,
			wos:     wosTXT,
			mutate:  func(cfg *types.MergeConfig) { cfg.OutputPath = filepath.Join(filepath.Dir(cfg.OutputPath), "nope", "out.csv") },
			wantErr: types.ErrWrite,
			errMsg:  "could not save combined file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, reg := setup(t, tt.scopus, tt.wos)
			if tt.mutate != nil {
				tt.mutate(&cfg)
			}
			_, err := Run(context.Background(), cfg, reg, io.Discard)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestRunNoOutputOnReadFailure(t *testing.T) {
	cfg, reg := setup(t, scopusCSV, "AU\tTI\n")
	_, err := Run(context.Background(), cfg, reg, io.Discard)
	require.Error(t, err)

	_, statErr := os.Stat(cfg.OutputPath)
	assert.True(t, os.IsNotExist(statErr), "output must not be created when a read fails")
}

func TestRunConfigErrors(t *testing.T) {
	cfg, reg := setup(t, scopusCSV, wosTXT)

	bad := cfg
	bad.Primary.Source = "pubmed"
	_, err := Run(context.Background(), bad, reg, io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resolving source A schema")

	bad = cfg
	bad.Profile = "full"
	_, err = Run(context.Background(), bad, reg, io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown profile "full"`)

	bad = cfg
	bad.Dedupe.Normalization = "fuzzy"
	_, err = Run(context.Background(), bad, reg, io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown key normalization")
}

func TestRunExports(t *testing.T) {
	cfg, reg := setup(t, scopusCSV, wosTXT)
	dir := filepath.Dir(cfg.OutputPath)
	cfg.Exports = types.ExportConfig{
		SQLitePath: filepath.Join(dir, "records.db"),
		CSLPath:    filepath.Join(dir, "refs.yaml"),
		ReportPath: filepath.Join(dir, "report.yaml"),
	}

	var log bytes.Buffer
	summary, err := Run(context.Background(), cfg, reg, &log)
	require.NoError(t, err)
	assert.Contains(t, log.String(), "indexed 4 records")
	assert.Contains(t, log.String(), "wrote 4 CSL items")

	store, err := index.Open(cfg.Exports.SQLitePath)
	require.NoError(t, err)
	defer store.Close()
	got, err := store.Lookup(context.Background(), "DI", "4", 0)
	require.NoError(t, err)
	require.Equal(t, 1, got.Len())
	assert.Equal(t, "Cycles", got.Get(0, "TI"))

	csl, err := os.ReadFile(cfg.Exports.CSLPath)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(csl), "container-title: Nature"))

	report, err := ReadReport(cfg.Exports.ReportPath)
	require.NoError(t, err)
	assert.Equal(t, summary.RunID, report.RunID)
	assert.Equal(t, "extended", report.Profile)
	require.Len(t, report.Inputs, 2)
	assert.Equal(t, "scopus", report.Inputs[0].Source)
	assert.Equal(t, 3, report.Inputs[1].Records)
	assert.Equal(t, []string{"DI"}, report.Dedupe.KeyColumns)
	assert.Equal(t, types.NormalizeNone, report.Dedupe.Normalization)
	assert.Equal(t, 2, report.Dedupe.DuplicatesRemoved)
	assert.Equal(t, 4, report.Output.Records)
}
