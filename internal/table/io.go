// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package table

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/pdiddy/bibmerge/pkg/types"
)

// OutputDelimiter separates fields in files written by Write.
const OutputDelimiter = ','

// Read loads the delimited file at path and projects it to the schema's
// source columns, preserving file row order. It writes one progress line to
// w naming the source and the row count.
func Read(path string, schema types.SourceSchema, w io.Writer) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %w", types.ErrRead, path, err)
	}
	defer f.Close()

	t, err := Decode(f, schema)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	fmt.Fprintf(w, "read %d records from %s (%s)\n", t.Len(), schema.Label(), path)
	return t, nil
}

// utf8BOM is the byte order mark Scopus prepends to CSV exports.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Decode parses delimited text from r using the schema's delimiter. The
// first record is the header. A UTF-8 or UTF-16 byte order mark is
// consumed; exports from both Scopus and Web of Science may carry one.
// Text without a UTF-16 mark must be valid UTF-8: bytes are never replaced,
// and an invalid sequence is an ErrRead naming its line.
func Decode(r io.Reader, schema types.SourceSchema) (*Table, error) {
	cr := csv.NewReader(stripBOM(r))
	cr.Comma = schema.Delimiter
	cr.FieldsPerRecord = 0
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: no header row", types.ErrRead)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: parsing header: %w", types.ErrRead, err)
	}
	if err := checkUTF8(cr, header); err != nil {
		return nil, err
	}

	positions := make(map[string]int, len(header))
	for i, name := range header {
		if _, dup := positions[name]; !dup {
			positions[name] = i
		}
	}

	fields := schema.SourceFields()
	idx := make([]int, len(fields))
	for i, name := range fields {
		j, ok := positions[name]
		if !ok {
			return nil, fmt.Errorf("%w: column %q not found in %s header",
				types.ErrSchemaMismatch, name, schema.Label())
		}
		idx[i] = j
	}

	t := New(fields...)
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", types.ErrRead, err)
		}
		if err := checkUTF8(cr, record); err != nil {
			return nil, err
		}
		row := make([]string, len(idx))
		for i, j := range idx {
			row[i] = record[j]
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// stripBOM consumes a leading byte order mark. UTF-16 input is decoded to
// UTF-8; anything else passes through unchanged.
func stripBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, _ := br.Peek(len(utf8BOM)); bytes.Equal(head, utf8BOM) {
		br.Discard(len(utf8BOM))
		return br
	}
	return transform.NewReader(br, unicode.BOMOverride(transform.Nop))
}

// checkUTF8 rejects a record holding bytes that are not valid UTF-8.
func checkUTF8(cr *csv.Reader, record []string) error {
	for i, v := range record {
		if !utf8.ValidString(v) {
			line, col := cr.FieldPos(i)
			return fmt.Errorf("%w: line %d, column %d: invalid UTF-8 text %q",
				types.ErrRead, line, col, v)
		}
	}
	return nil
}

// Write serializes t to path as comma-delimited text with a header row. The
// destination is created or truncated; a failure partway leaves whatever was
// written in place.
func Write(t *Table, path string, w io.Writer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: creating %s: %w", types.ErrWrite, path, err)
	}

	if err := Encode(t, f); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: closing %s: %w", types.ErrWrite, path, err)
	}

	fmt.Fprintf(w, "wrote %d records to %s\n", t.Len(), path)
	return nil
}

// Encode writes t to out as comma-delimited text with a header row, quoting
// cells that contain the delimiter, a quote, or a line break.
func Encode(t *Table, out io.Writer) error {
	bw := bufio.NewWriter(out)
	cw := csv.NewWriter(bw)
	cw.Comma = OutputDelimiter

	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("%w: writing header: %w", types.ErrWrite, err)
	}
	for i, row := range t.Rows {
		if len(row) == 1 && row[0] == "" {
			// csv.Writer emits a blank line here, which readers skip.
			cw.Flush()
			if _, err := bw.WriteString(`""` + "\n"); err != nil {
				return fmt.Errorf("%w: writing row %d: %w", types.ErrWrite, i+1, err)
			}
			continue
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("%w: writing row %d: %w", types.ErrWrite, i+1, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("%w: flushing: %w", types.ErrWrite, err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w: flushing: %w", types.ErrWrite, err)
	}
	return nil
}
