//go:build mage

// Package main contains Mage build targets for bibmerge developer tooling.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binDir    = "bin"
	binName   = "bibmerge"
	cmdPkg    = "./cmd/bibmerge"
	sampleDir = "sample"
)

// Build compiles the CLI binary into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	out := filepath.Join(binDir, binName)
	if err := sh.RunV("go", "build", "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Test runs the unit tests.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Sample writes small Scopus and Web of Science exports into sample/ and
// merges them with every optional export enabled.
func Sample() error {
	mg.Deps(Build)

	if err := os.MkdirAll(sampleDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", sampleDir, err)
	}
	files := map[string]string{
		"scopus.csv": sampleScopus,
		"wos.txt":    sampleWoS,
	}
	for name, content := range files {
		path := filepath.Join(sampleDir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		fmt.Println("  ", path)
	}

	in := func(name string) string { return filepath.Join(sampleDir, name) }
	return sh.RunV(filepath.Join(binDir, binName),
		"--scopus", in("scopus.csv"),
		"--wos", in("wos.txt"),
		"--output", in("combined.csv"),
		"--profile", "extended",
		"--sqlite", in("combined.db"),
		"--csl", in("combined.yaml"),
		"--report", in("report.yaml"),
	)
}

const sampleScopus = `Authors,Title,Year,Source title,Volume,Issue,DOI,Abstract,Author Keywords,Index Keywords,ISSN
"Smith J., Doe A.",Graph methods for citation analysis,2021,Scientometrics,126,3,10.1007/s11192-021-03900-1,A study of graphs.,citation graphs,BIBLIOMETRICS,0138-9130
Lee K.,Merging bibliographic databases,2020,Journal of Informetrics,14,2,10.1016/j.joi.2020.101010,Merging is hard.,deduplication,,1751-1577
Kim H.,Notes without an identifier,2019,Proceedings,,,,,,,
`

const sampleWoS = "PT\tAU\tTI\tSO\tDI\tPY\tVL\tIS\tSN\tAB\tDE\tID\n" +
	"J\tSmith, J; Doe, A\tGRAPH METHODS FOR CITATION ANALYSIS\tSCIENTOMETRICS\t10.1007/s11192-021-03900-1\t2021\t126\t3\t0138-9130\tA study of graphs.\tcitation graphs\tBIBLIOMETRICS\n" +
	"J\tPark, S\tCoverage of Web of Science and Scopus\tQUANTITATIVE SCIENCE STUDIES\t10.1162/qss_a_00018\t2020\t1\t1\t2641-3337\t\t\t\n"

// Stats prints project metrics: Go production and test LOC.
func Stats() error {
	prodLines, err := countGoLines(".", false)
	if err != nil {
		return err
	}
	testLines, err := countGoLines(".", true)
	if err != nil {
		return err
	}

	fmt.Printf("Lines of code (Go, production): %d\n", prodLines)
	fmt.Printf("Lines of code (Go, tests):      %d\n", testLines)
	return nil
}

// countGoLines walks the directory tree and counts non-blank lines in Go files.
// If testOnly is true, count only _test.go files; otherwise count non-test .go files.
// Directories starting with an underscore are skipped, as the go tool does.
func countGoLines(root string, testOnly bool) (int, error) {
	total := 0
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && len(d.Name()) > 0 && (d.Name()[0] == '_' || d.Name()[0] == '.') {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" {
			return nil
		}
		isTest := len(path) > 8 && path[len(path)-8:] == "_test.go"
		if testOnly != isTest {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		for _, line := range splitLines(data) {
			if len(line) > 0 {
				total++
			}
		}
		return nil
	})
	return total, err
}

// splitLines splits data by newline, returning each line as a trimmed string.
func splitLines(data []byte) []string {
	var lines []string
	start := 0
	for i, b := range data {
		if b == '\n' {
			lines = append(lines, trimSpace(data[start:i]))
			start = i + 1
		}
	}
	if start < len(data) {
		lines = append(lines, trimSpace(data[start:]))
	}
	return lines
}

// trimSpace returns a string with leading and trailing whitespace removed.
func trimSpace(b []byte) string {
	start, end := 0, len(b)
	for start < end && (b[start] == ' ' || b[start] == '\t' || b[start] == '\r') {
		start++
	}
	for end > start && (b[end-1] == ' ' || b[end-1] == '\t' || b[end-1] == '\r') {
		end--
	}
	return string(b[start:end])
}
