package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/bibmerge/internal/index"
	"github.com/pdiddy/bibmerge/internal/table"
	"github.com/pdiddy/bibmerge/pkg/types"
)

const maxCellWidth = 40

var lookupCmd = &cobra.Command{
	Use:   "lookup VALUE",
	Short: "Find merged records in a SQLite index",
	Long: `Lookup queries a SQLite database written by a merge run with --sqlite
and prints the records whose --column equals VALUE (default: the DOI column).`,
	Args: cobra.ExactArgs(1),
	RunE: runLookup,
}

func init() {
	lookupCmd.Flags().String("db", "combined.db", "SQLite database written with --sqlite")
	lookupCmd.Flags().String("column", types.DefaultKeyColumn, "canonical column to match")
	lookupCmd.Flags().Int("limit", 20, "maximum number of records")
	lookupCmd.Flags().Bool("json", false, "output records as JSON")

	rootCmd.AddCommand(lookupCmd)
}

func runLookup(cmd *cobra.Command, args []string) error {
	dbPath, _ := cmd.Flags().GetString("db")
	column, _ := cmd.Flags().GetString("column")
	limit, _ := cmd.Flags().GetInt("limit")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	if _, err := os.Stat(dbPath); err != nil {
		return fmt.Errorf("opening index %s: %w", dbPath, err)
	}

	store, err := index.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	results, err := store.Lookup(context.Background(), column, args[0], limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(recordMaps(results))
	}

	if results.Len() == 0 {
		fmt.Fprintln(out, "No records found.")
		return nil
	}

	rows := make([][]string, results.Len())
	for i, row := range results.Rows {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = truncate(v, maxCellWidth)
		}
		rows[i] = cells
	}
	fmt.Fprintln(out, renderTable(results.Columns, rows, nil))
	fmt.Fprintf(out, "\n%d records\n", results.Len())
	return nil
}

// recordMaps converts rows to column-keyed maps for JSON output.
func recordMaps(t *table.Table) []map[string]string {
	records := make([]map[string]string, t.Len())
	for i, row := range t.Rows {
		m := make(map[string]string, len(t.Columns))
		for j, c := range t.Columns {
			m[c] = row[j]
		}
		records[i] = m
	}
	return records
}

func truncate(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-3]) + "..."
}
