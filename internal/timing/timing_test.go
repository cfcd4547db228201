// SPDX-License-Identifier: MPL-2.0

package timing

import (
	"errors"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const hyperfineCSV = `command,mean,stddev,median,user,system,min,max
./install/is-original.out,0.010,0.0005,0.0099,0.009,0.001,0.0095,0.0112
`

func TestRead(t *testing.T) {
	results, err := Read(strings.NewReader(hyperfineCSV))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(results))
	}
	r := results[0]
	if r.Command != "./install/is-original.out" {
		t.Errorf("Command = %q", r.Command)
	}
	if r.Mean != 10*time.Millisecond {
		t.Errorf("Mean = %v, want 10ms", r.Mean)
	}
	if r.Max != 11200*time.Microsecond {
		t.Errorf("Max = %v, want 11.2ms", r.Max)
	}
}

func TestRead_ParametersAndColumnOrder(t *testing.T) {
	input := "mean,command,stddev,median,user,system,min,max,parameter_size\n" +
		"0.5,./a.out,0,0.5,0.4,0.1,0.5,0.5,1024\n" +
		"1.5,./a.out,0,1.5,1.4,0.1,1.5,1.5,4096\n"
	results, err := Read(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(results) != 2 || results[1].Parameters["size"] != "4096" {
		t.Errorf("results = %+v", results)
	}
	if results[0].Mean != 500*time.Millisecond {
		t.Errorf("Mean = %v, want 500ms", results[0].Mean)
	}
}

func TestRead_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"empty", "", ErrNoResults},
		{"header only", "command,mean,stddev,median,user,system,min,max\n", ErrNoResults},
		{"missing column", "command,mean\n./a,1\n", ErrMissingColumn},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Read(strings.NewReader(tt.input)); !errors.Is(err, tt.wantErr) {
				t.Errorf("Read() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	bad := "command,mean,stddev,median,user,system,min,max\n./a,fast,0,0,0,0,0,0\n"
	if _, err := Read(strings.NewReader(bad)); err == nil || !strings.Contains(err.Error(), "column mean") {
		t.Errorf("Read(bad mean) error = %v", err)
	}
}

func TestCompare(t *testing.T) {
	orig := Result{Mean: 10 * time.Millisecond}
	trans := Result{Mean: 12500 * time.Microsecond}

	c, err := Compare(orig, trans)
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	if math.Abs(c.Ratio-1.25) > 1e-9 {
		t.Errorf("Ratio = %v, want 1.25", c.Ratio)
	}
	if math.Abs(c.Overhead()-25) > 1e-9 {
		t.Errorf("Overhead() = %v, want 25", c.Overhead())
	}
	if got := c.String(); got != "1.250x (original 10ms, transformed 12.5ms)" {
		t.Errorf("String() = %q", got)
	}

	if _, err := Compare(Result{}, trans); err == nil {
		t.Error("Compare() with zero original mean should fail")
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "is-original.csv")
	if err := os.WriteFile(path, []byte(hyperfineCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	r, err := ReadFile(path)
	if err != nil || r.Mean != 10*time.Millisecond {
		t.Errorf("ReadFile() = %+v, %v", r, err)
	}
	if _, err := ReadFile(filepath.Join(dir, "missing.csv")); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("ReadFile(missing) error = %v, want fs.ErrNotExist", err)
	}
}
