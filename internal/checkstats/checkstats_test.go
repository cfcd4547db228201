// SPDX-License-Identifier: MPL-2.0

package checkstats

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleDump = `main, After Insertion, 4, 4, 8
kernel, After Insertion, 10, 12, 22

main, After Elimination, 1, 1, 2
kernel, After Elimination, 3, 2, 5
`

func TestParse(t *testing.T) {
	entries, err := Parse(strings.NewReader(sampleDump))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("len(entries) = %d, want 4", len(entries))
	}
	want := Entry{Function: "kernel", Stage: StageInsertion, Lower: 10, Upper: 12, Total: 22}
	if entries[1] != want {
		t.Errorf("entries[1] = %+v, want %+v", entries[1], want)
	}
}

func TestParse_QuoteInFunctionName(t *testing.T) {
	entries, err := Parse(strings.NewReader("operator\"\" _kb, After Insertion, 1, 1, 2\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(entries) != 1 || entries[0].Function != `operator"" _kb` || entries[0].Total != 2 {
		t.Errorf("entries = %+v", entries)
	}
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantLine int
	}{
		{"too few fields", "main, After Insertion, 1, 2, 3\nmain, 1, 2\n", 2},
		{"not a number", "main, After Insertion, x, 2, 2\n", 1},
		{"negative", "main, After Insertion, -1, 2, 1\n", 1},
		{"bad total", "\nmain, After Insertion, 1, 2, 4\n", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			if !errors.Is(err, ErrMalformedDump) {
				t.Fatalf("Parse() error = %v, want ErrMalformedDump", err)
			}
			var perr *ParseError
			if !errors.As(err, &perr) || perr.Line != tt.wantLine {
				t.Errorf("ParseError = %+v, want line %d", perr, tt.wantLine)
			}
		})
	}
}

func TestAggregate(t *testing.T) {
	entries, _ := Parse(strings.NewReader(sampleDump))
	totals := Aggregate(entries)
	if len(totals) != 2 {
		t.Fatalf("len(totals) = %d, want 2", len(totals))
	}
	if totals[0].Stage != StageInsertion || totals[0].Total != 30 || totals[0].Functions != 2 {
		t.Errorf("totals[0] = %+v", totals[0])
	}
	if totals[1].Stage != StageElimination || totals[1].Lower != 4 || totals[1].Upper != 3 {
		t.Errorf("totals[1] = %+v", totals[1])
	}

	pct, ok := Reduction(totals[0], totals[1])
	if !ok || pct < 76.66 || pct > 76.67 {
		t.Errorf("Reduction() = %v, %v; want ~76.67", pct, ok)
	}
	if _, ok := Reduction(StageTotal{}, totals[1]); ok {
		t.Error("Reduction() from an empty stage should report false")
	}
}

func TestParseFile_Missing(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "is.txt"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("ParseFile() error = %v, want fs.ErrNotExist", err)
	}
}

func TestAppendCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "compile_stats.csv")
	totals := []StageTotal{{Stage: StageInsertion, Lower: 4, Upper: 4, Total: 8}}

	if err := AppendCSV(path, "is", totals); err != nil {
		t.Fatalf("AppendCSV() error = %v", err)
	}
	if err := AppendCSV(path, "bfs", totals); err != nil {
		t.Fatalf("AppendCSV() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "is,After Insertion,4,4,8\nbfs,After Insertion,4,4,8\n"
	if string(data) != want {
		t.Errorf("csv = %q, want %q", data, want)
	}
}
