// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

// TestCommandTxtarCoverage verifies every visible leaf command is exercised by
// at least one testscript in testdata.
func TestCommandTxtarCoverage(t *testing.T) {
	t.Parallel()

	root := NewRootCommand(NewApp(Dependencies{Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}}))
	commands := make(map[string]bool)
	walkCobraTree(root, "", commands)

	covered := scanTxtarCoverage(t, "testdata", commands)

	var uncovered []string
	for path := range commands {
		if !covered[path] {
			uncovered = append(uncovered, path)
		}
	}
	sort.Strings(uncovered)
	for _, path := range uncovered {
		t.Errorf("uncovered command: %q has no txtar test in testdata", path)
	}
}

// walkCobraTree collects non-hidden runnable commands without visible children.
func walkCobraTree(cmd *cobra.Command, prefix string, commands map[string]bool) {
	for _, child := range cmd.Commands() {
		if child.Hidden {
			continue
		}
		path := child.Name()
		if prefix != "" {
			path = prefix + " " + child.Name()
		}

		visible := 0
		for _, gc := range child.Commands() {
			if !gc.Hidden {
				visible++
			}
		}
		if visible == 0 && (child.RunE != nil || child.Run != nil) {
			commands[path] = true
		}
		walkCobraTree(child, path, commands)
	}
}

func scanTxtarCoverage(t *testing.T, dir string, known map[string]bool) map[string]bool {
	t.Helper()
	covered := make(map[string]bool)
	execRe := regexp.MustCompile(`^!?\s*exec\s+benchsweep\s+(.+)`)

	files, err := filepath.Glob(filepath.Join(dir, "*.txtar"))
	if err != nil {
		t.Fatal(err)
	}
	for _, path := range files {
		f, err := os.Open(path)
		if err != nil {
			t.Errorf("failed to open %s: %v", path, err)
			continue
		}
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			m := execRe.FindStringSubmatch(strings.TrimSpace(scanner.Text()))
			if m == nil {
				continue
			}
			if path := longestCommand(strings.Fields(m[1]), known); path != "" {
				covered[path] = true
			}
		}
		if err := scanner.Err(); err != nil {
			t.Errorf("error scanning %s: %v", path, err)
		}
		_ = f.Close()
	}
	return covered
}

// longestCommand returns the longest known command path prefixing tokens.
func longestCommand(tokens []string, known map[string]bool) string {
	var best string
	for i := 1; i <= len(tokens); i++ {
		if candidate := strings.Join(tokens[:i], " "); known[candidate] {
			best = candidate
		}
	}
	return best
}

func TestLongestCommand(t *testing.T) {
	t.Parallel()
	known := map[string]bool{"config show": true, "sweep": true}

	tests := []struct {
		tokens []string
		want   string
	}{
		{[]string{"config", "show"}, "config show"},
		{[]string{"sweep", "baseline", "--skip-build"}, "sweep"},
		{[]string{"config"}, ""},
		{[]string{"--config", "x.cue", "sweep"}, ""},
	}
	for _, tt := range tests {
		if got := longestCommand(tt.tokens, known); got != tt.want {
			t.Errorf("longestCommand(%v) = %q, want %q", tt.tokens, got, tt.want)
		}
	}
}
