// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export writes merged record tables in bibliographic interchange
// formats.
package export

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/bibmerge/internal/table"
)

// CSLItem represents a bibliographic entry in CSL (Citation Style Language)
// format. The field names follow the CSL-JSON/CSL-YAML schema so that output
// is consumable by Pandoc and reference managers.
type CSLItem struct {
	ID             string    `yaml:"id"`
	Type           string    `yaml:"type"`
	Title          string    `yaml:"title,omitempty"`
	Author         []CSLName `yaml:"author,omitempty"`
	ContainerTitle string    `yaml:"container-title,omitempty"`
	Volume         string    `yaml:"volume,omitempty"`
	Issue          string    `yaml:"issue,omitempty"`
	ISSN           string    `yaml:"ISSN,omitempty"`
	Abstract       string    `yaml:"abstract,omitempty"`
	Keyword        string    `yaml:"keyword,omitempty"`
	Issued         *CSLDate  `yaml:"issued,omitempty"`
	DOI            string    `yaml:"DOI,omitempty"`
}

// CSLName represents a person's name in CSL format.
type CSLName struct {
	Family  string `yaml:"family,omitempty"`
	Given   string `yaml:"given,omitempty"`
	Literal string `yaml:"literal,omitempty"`
}

// CSLDate represents a date in CSL format. Numeric years use date-parts;
// anything else is kept verbatim as a literal.
type CSLDate struct {
	DateParts [][]int `yaml:"date-parts,omitempty"`
	Literal   string  `yaml:"literal,omitempty"`
}

// WriteCSLFile writes t as CSL-YAML to path.
func WriteCSLFile(t *table.Table, path string, w io.Writer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := WriteCSL(t, f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	fmt.Fprintf(w, "wrote %d CSL items to %s\n", t.Len(), path)
	return nil
}

// WriteCSL writes every row of t as a CSL-YAML list to w.
func WriteCSL(t *table.Table, w io.Writer) error {
	items := make([]CSLItem, t.Len())
	for i := range t.Rows {
		items[i] = toCSLItem(t, i)
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(items)
}

// toCSLItem converts row i of a canonical table to a CSLItem. Columns the
// table lacks are left empty.
func toCSLItem(t *table.Table, i int) CSLItem {
	doi := strings.TrimSpace(t.Get(i, "DI"))
	item := CSLItem{
		ID:             doi,
		Type:           "article-journal",
		Title:          t.Get(i, "TI"),
		ContainerTitle: t.Get(i, "SO"),
		Volume:         t.Get(i, "VL"),
		Issue:          t.Get(i, "IS"),
		ISSN:           t.Get(i, "SN"),
		Abstract:       t.Get(i, "AB"),
		Keyword:        joinKeywords(t.Get(i, "DE"), t.Get(i, "ID")),
		DOI:            doi,
	}
	if item.ID == "" {
		item.ID = fmt.Sprintf("record-%d", i+1)
	}

	for _, a := range splitAuthors(t.Get(i, "AU")) {
		item.Author = append(item.Author, parseAuthorName(a))
	}

	if year := strings.TrimSpace(t.Get(i, "PY")); year != "" {
		if n, err := strconv.Atoi(year); err == nil {
			item.Issued = &CSLDate{DateParts: [][]int{{n}}}
		} else {
			item.Issued = &CSLDate{Literal: year}
		}
	}

	return item
}

// initials matches the initials Scopus writes after a family name, such as
// "J." or "J.-P." or "A.B.".
var initials = regexp.MustCompile(`^(\p{Lu}\.-?)+$`)

// splitAuthors splits an author cell into names. Web of Science and recent
// Scopus exports separate authors with semicolons. Older Scopus exports use
// commas between "Family I." names; a comma list is split only when every
// part has that shape, so "Smith, J" stays one author.
func splitAuthors(cell string) []string {
	sep := ";"
	if !strings.Contains(cell, ";") && isScopusList(cell) {
		sep = ","
	}
	var authors []string
	for _, a := range strings.Split(cell, sep) {
		if a = strings.TrimSpace(a); a != "" {
			authors = append(authors, a)
		}
	}
	return authors
}

func isScopusList(cell string) bool {
	parts := strings.Split(cell, ",")
	if len(parts) < 2 {
		return false
	}
	for _, p := range parts {
		if _, ok := scopusName(p); !ok {
			return false
		}
	}
	return true
}

// scopusName reports whether name is "Family I." and returns the split.
func scopusName(name string) (CSLName, bool) {
	name = strings.TrimSpace(name)
	idx := strings.LastIndex(name, " ")
	if idx <= 0 || !initials.MatchString(name[idx+1:]) {
		return CSLName{}, false
	}
	return CSLName{Family: strings.TrimSpace(name[:idx]), Given: name[idx+1:]}, true
}

// parseAuthorName splits a name into CSL family/given parts. "Family, Given"
// splits on the first comma and "Family I." keeps the initials as given.
// Otherwise it splits on the last space: everything before is given, the
// last token is family. Single-token names use the literal field.
func parseAuthorName(name string) CSLName {
	name = strings.TrimSpace(name)
	if name == "" {
		return CSLName{}
	}
	if family, given, ok := strings.Cut(name, ","); ok {
		return CSLName{
			Family: strings.TrimSpace(family),
			Given:  strings.TrimSpace(given),
		}
	}
	if n, ok := scopusName(name); ok {
		return n
	}
	idx := strings.LastIndex(name, " ")
	if idx < 0 {
		return CSLName{Literal: name}
	}
	return CSLName{
		Given:  name[:idx],
		Family: name[idx+1:],
	}
}

// joinKeywords merges author and index keyword cells into one
// comma-separated CSL keyword string.
func joinKeywords(cells ...string) string {
	var kws []string
	for _, c := range cells {
		for _, k := range strings.Split(c, ";") {
			if k = strings.TrimSpace(k); k != "" {
				kws = append(kws, k)
			}
		}
	}
	return strings.Join(kws, ", ")
}
