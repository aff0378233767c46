// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/bibmerge/internal/table"
)

func extendedTable(t *testing.T) *table.Table {
	t.Helper()
	tbl := table.New("DI", "AU", "TI", "SO", "PY", "VL", "IS", "SN", "AB", "DE", "ID")
	rows := [][]string{
		{"10.1/a", "Smith, John; Doe, A.", "Alpha", "Nature", "2021", "12", "3", "0028-0836", "About alpha.", "graphs; networks", "GRAPH THEORY"},
		{"", "Plato", "Untitled", "", "2020a", "", "", "", "", "", ""},
	}
	for _, r := range rows {
		if err := tbl.Append(r...); err != nil {
			t.Fatal(err)
		}
	}
	return tbl
}

func TestToCSLItem(t *testing.T) {
	tbl := extendedTable(t)
	item := toCSLItem(tbl, 0)

	if item.ID != "10.1/a" || item.DOI != "10.1/a" {
		t.Errorf("ID/DOI = %q/%q, want 10.1/a", item.ID, item.DOI)
	}
	if item.Type != "article-journal" {
		t.Errorf("Type = %q, want article-journal", item.Type)
	}
	if item.ContainerTitle != "Nature" {
		t.Errorf("ContainerTitle = %q, want Nature", item.ContainerTitle)
	}
	if len(item.Author) != 2 {
		t.Fatalf("len(Author) = %d, want 2", len(item.Author))
	}
	if item.Author[0] != (CSLName{Family: "Smith", Given: "John"}) {
		t.Errorf("Author[0] = %+v", item.Author[0])
	}
	if item.Issued == nil || item.Issued.DateParts[0][0] != 2021 {
		t.Errorf("Issued = %+v, want year 2021", item.Issued)
	}
	if item.Keyword != "graphs, networks, GRAPH THEORY" {
		t.Errorf("Keyword = %q", item.Keyword)
	}
}

func TestToCSLItemMissingDOI(t *testing.T) {
	item := toCSLItem(extendedTable(t), 1)

	if item.ID != "record-2" {
		t.Errorf("ID = %q, want record-2", item.ID)
	}
	if item.DOI != "" {
		t.Errorf("DOI = %q, want empty", item.DOI)
	}
	if item.Issued == nil || item.Issued.Literal != "2020a" {
		t.Errorf("Issued = %+v, want literal 2020a", item.Issued)
	}
	if len(item.Author) != 1 || item.Author[0].Literal != "Plato" {
		t.Errorf("Author = %+v, want literal Plato", item.Author)
	}
}

func TestToCSLItemBasicColumns(t *testing.T) {
	tbl := table.New("DI", "AU", "TI", "SO")
	if err := tbl.Append("10.1/b", "Ada Lovelace", "Notes", "Memoirs"); err != nil {
		t.Fatal(err)
	}
	item := toCSLItem(tbl, 0)
	if item.Issued != nil {
		t.Errorf("Issued should be nil without a PY column, got %+v", item.Issued)
	}
	if item.Author[0] != (CSLName{Given: "Ada", Family: "Lovelace"}) {
		t.Errorf("Author[0] = %+v", item.Author[0])
	}
}

func TestParseAuthorName(t *testing.T) {
	tests := []struct {
		in   string
		want CSLName
	}{
		{"Smith, J.", CSLName{Family: "Smith", Given: "J."}},
		{"van der Berg, Anna", CSLName{Family: "van der Berg", Given: "Anna"}},
		{"Grace Brewster Hopper", CSLName{Given: "Grace Brewster", Family: "Hopper"}},
		{"Aristotle", CSLName{Literal: "Aristotle"}},
		{"Smith J.", CSLName{Family: "Smith", Given: "J."}},
		{"De la Cruz J.-P.", CSLName{Family: "De la Cruz", Given: "J.-P."}},
		{"  ", CSLName{}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := parseAuthorName(tt.in); got != tt.want {
				t.Errorf("parseAuthorName(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestWriteCSL(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSL(extendedTable(t), &buf); err != nil {
		t.Fatalf("WriteCSL: %v", err)
	}

	s := buf.String()
	for _, want := range []string{"id: 10.1/a", "DOI: 10.1/a", "container-title: Nature", "family: Smith", "literal: 2020a"} {
		if !strings.Contains(s, want) {
			t.Errorf("CSL output missing %q:\n%s", want, s)
		}
	}

	var items []CSLItem
	if err := yaml.Unmarshal(buf.Bytes(), &items); err != nil {
		t.Fatalf("output is not valid YAML: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("len(items) = %d, want 2", len(items))
	}
}

func TestWriteCSLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refs.yaml")
	var log bytes.Buffer
	if err := WriteCSLFile(extendedTable(t), path, &log); err != nil {
		t.Fatalf("WriteCSLFile: %v", err)
	}
	if !strings.Contains(log.String(), "wrote 2 CSL items") {
		t.Errorf("log = %q", log.String())
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("stat %s: %v", path, err)
	}

	bad := filepath.Join(t.TempDir(), "missing", "refs.yaml")
	if err := WriteCSLFile(extendedTable(t), bad, io.Discard); err == nil {
		t.Error("expected error for uncreatable destination")
	}
}

func TestSplitAuthors(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"Smith, J; Doe, A", []string{"Smith, J", "Doe, A"}},
		{"Smith J., Doe A.B.", []string{"Smith J.", "Doe A.B."}},
		{"Smith, J", []string{"Smith, J"}},
		{"Lee K.", []string{"Lee K."}},
		{"Smith, John, Jr.", []string{"Smith, John, Jr."}},
		{" ; ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := splitAuthors(tt.in)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") || len(got) != len(tt.want) {
				t.Errorf("splitAuthors(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestToCSLItemScopusAuthorList(t *testing.T) {
	tbl := table.New("DI", "AU", "TI", "SO")
	if err := tbl.Append("10.1/c", "Smith J., Doe A.", "Gamma", "Cell"); err != nil {
		t.Fatal(err)
	}
	item := toCSLItem(tbl, 0)
	want := []CSLName{
		{Family: "Smith", Given: "J."},
		{Family: "Doe", Given: "A."},
	}
	if len(item.Author) != len(want) {
		t.Fatalf("Author = %+v, want %+v", item.Author, want)
	}
	for i := range want {
		if item.Author[i] != want[i] {
			t.Errorf("Author[%d] = %+v, want %+v", i, item.Author[i], want[i])
		}
	}
}
