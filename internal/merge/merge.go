// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package merge combines canonical record tables and collapses duplicate
// records under an identity key.
package merge

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/pdiddy/bibmerge/internal/table"
	"github.com/pdiddy/bibmerge/pkg/types"
)

// Options controls how Dedupe compares keys.
type Options struct {
	// Normalize, when non-nil, is applied to each key value before
	// comparison. Output rows keep their original values.
	Normalize Normalizer

	// DistinctMissing keeps every row whose key values are all empty.
	// When false, such rows form one group and only the first survives.
	DistinctMissing bool
}

// Concatenate returns a table holding every row of primary followed by every
// row of secondary. Both tables must have the same columns in the same
// order.
func Concatenate(primary, secondary *table.Table) (*table.Table, error) {
	if !primary.SameShape(secondary) {
		return nil, fmt.Errorf("%w: cannot concatenate columns %v with %v",
			types.ErrShapeMismatch, primary.Columns, secondary.Columns)
	}

	out := &table.Table{
		Columns: slices.Clone(primary.Columns),
		Rows:    make([][]string, 0, primary.Len()+secondary.Len()),
	}
	out.Rows = append(out.Rows, primary.Rows...)
	out.Rows = append(out.Rows, secondary.Rows...)
	return out, nil
}

// Dedupe keeps the first row of every group of rows sharing the same values
// in keyColumns and drops the rest. Surviving rows keep their relative
// order, so applying Dedupe again returns an equal table.
//
// Rows whose key values are all empty are one group unless
// opts.DistinctMissing is set: many records without a DOI collapse to the
// first of them.
func Dedupe(t *table.Table, keyColumns []string, opts Options) (*table.Table, error) {
	idx, err := keyIndexes(t, keyColumns)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, t.Len())
	out := &table.Table{Columns: slices.Clone(t.Columns)}
	for _, row := range t.Rows {
		key, missing := rowKey(row, idx, opts.Normalize)
		if missing && opts.DistinctMissing {
			out.Rows = append(out.Rows, row)
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}

// CountMissing returns how many rows have empty values in every key column.
func CountMissing(t *table.Table, keyColumns []string, normalize Normalizer) (int, error) {
	idx, err := keyIndexes(t, keyColumns)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, row := range t.Rows {
		if _, missing := rowKey(row, idx, normalize); missing {
			n++
		}
	}
	return n, nil
}

func keyIndexes(t *table.Table, keyColumns []string) ([]int, error) {
	if len(keyColumns) == 0 {
		return nil, fmt.Errorf("%w: no key columns given", types.ErrShapeMismatch)
	}
	idx := make([]int, len(keyColumns))
	for i, name := range keyColumns {
		j := t.Index(name)
		if j < 0 {
			return nil, fmt.Errorf("%w: key column %q not in %v", types.ErrShapeMismatch, name, t.Columns)
		}
		idx[i] = j
	}
	return idx, nil
}

// rowKey encodes the key tuple of row. Each value is length-prefixed so that
// tuples never collide through concatenation.
func rowKey(row []string, idx []int, normalize Normalizer) (key string, missing bool) {
	var b strings.Builder
	missing = true
	for _, j := range idx {
		v := row[j]
		if normalize != nil {
			v = normalize(v)
		}
		if v != "" {
			missing = false
		}
		b.WriteString(strconv.Itoa(len(v)))
		b.WriteByte(':')
		b.WriteString(v)
	}
	return b.String(), missing
}
