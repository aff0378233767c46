// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package index stores a deduplicated record table in a SQLite database so
// merged results can be queried by field, and looks records back up.
//
// Each export replaces the database contents: nothing from an earlier run
// survives.
package index

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/bibmerge/internal/table"
	"github.com/pdiddy/bibmerge/pkg/types"
)

const (
	recordsTable   = "records"
	positionColumn = "position"
	defaultLimit   = 20
)

// columnName matches canonical column names, which are interpolated into SQL.
var columnName = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)

// Store manages the record index database.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the SQLite database at path, creating parent
// directories as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating index directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}
	return &Store{db: db, path: path}, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Replace drops any existing records and stores t, one TEXT column per table
// column plus the row position. The whole replacement is one transaction.
func (s *Store) Replace(ctx context.Context, t *table.Table) error {
	for _, c := range t.Columns {
		if !columnName.MatchString(c) {
			return fmt.Errorf("%w: column %q cannot be indexed", types.ErrShapeMismatch, c)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	defs := make([]string, 0, len(t.Columns)+1)
	defs = append(defs, positionColumn+" INTEGER PRIMARY KEY")
	for _, c := range t.Columns {
		defs = append(defs, quote(c)+" TEXT NOT NULL")
	}

	statements := []string{
		`DROP TABLE IF EXISTS ` + recordsTable,
		`CREATE TABLE ` + recordsTable + ` (` + strings.Join(defs, ", ") + `)`,
	}
	if t.Index(types.DefaultKeyColumn) >= 0 {
		statements = append(statements,
			`CREATE INDEX idx_records_key ON `+recordsTable+`(`+quote(types.DefaultKeyColumn)+`)`)
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating records table: %w", err)
		}
	}

	cols := make([]string, 0, len(t.Columns)+1)
	cols = append(cols, positionColumn)
	for _, c := range t.Columns {
		cols = append(cols, quote(c))
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO `+recordsTable+` (`+strings.Join(cols, ", ")+`) VALUES (`+placeholders+`)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	args := make([]any, len(cols))
	for i, row := range t.Rows {
		args[0] = i + 1
		for j, v := range row {
			args[j+1] = v
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("inserting record %d: %w", i+1, err)
		}
	}

	return tx.Commit()
}

// Columns returns the stored record columns in table order.
func (s *Store) Columns(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM pragma_table_info(?) ORDER BY cid`, recordsTable)
	if err != nil {
		return nil, fmt.Errorf("reading record columns: %w", err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning column: %w", err)
		}
		if name != positionColumn {
			cols = append(cols, name)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("%s has no records table; run a merge with --sqlite first", s.path)
	}
	return cols, nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM `+recordsTable).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return n, nil
}

// Lookup returns up to limit records whose column equals value, in merge
// order. A non-positive limit uses the default of 20.
func (s *Store) Lookup(ctx context.Context, column, value string, limit int) (*table.Table, error) {
	cols, err := s.Columns(ctx)
	if err != nil {
		return nil, err
	}
	out := table.New(cols...)
	if out.Index(column) < 0 {
		return nil, fmt.Errorf("%w: no column %q (available: %v)", types.ErrShapeMismatch, column, cols)
	}
	if limit <= 0 {
		limit = defaultLimit
	}

	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quote(c)
	}
	query := `SELECT ` + strings.Join(quoted, ", ") + ` FROM ` + recordsTable +
		` WHERE ` + quote(column) + ` = ? ORDER BY ` + positionColumn + ` LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, value, limit)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		values := make([]string, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		out.Rows = append(out.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func quote(name string) string {
	return `"` + name + `"`
}
