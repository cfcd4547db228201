// SPDX-License-Identifier: MPL-2.0

// Package timing reads hyperfine --export-csv results and compares the
// original and transformed executables of a benchmark.
package timing

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrNoResults is returned when a CSV holds a header but no rows.
	ErrNoResults = errors.New("no timing results")
	// ErrMissingColumn is returned when a required column is absent.
	ErrMissingColumn = errors.New("missing column")
)

// requiredColumns are always written by hyperfine.
var requiredColumns = []string{"command", "mean", "stddev", "median", "user", "system", "min", "max"}

type (
	// Result is one hyperfine row. Durations are converted from seconds.
	Result struct {
		Command    string
		Mean       time.Duration
		Stddev     time.Duration
		Median     time.Duration
		User       time.Duration
		System     time.Duration
		Min        time.Duration
		Max        time.Duration
		Parameters map[string]string
	}

	// Comparison relates a transformed run to its original.
	Comparison struct {
		Original    Result
		Transformed Result
		// Ratio is transformed mean / original mean.
		Ratio float64
	}
)

// Read parses hyperfine CSV. Columns are located by header name, so
// parameter_* columns and column order do not matter.
func Read(r io.Reader) ([]Result, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoResults
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	for _, name := range requiredColumns {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("%w %q", ErrMissingColumn, name)
		}
	}

	var results []Result
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(rec) != len(header) {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("line %d: expected %d fields, got %d", line, len(header), len(rec))
		}

		res := Result{Command: rec[col["command"]]}
		fields := map[string]*time.Duration{
			"mean": &res.Mean, "stddev": &res.Stddev, "median": &res.Median,
			"user": &res.User, "system": &res.System, "min": &res.Min, "max": &res.Max,
		}
		for name, dst := range fields {
			d, err := parseSeconds(rec[col[name]])
			if err != nil {
				line, _ := cr.FieldPos(col[name])
				return nil, fmt.Errorf("line %d: column %s: %w", line, name, err)
			}
			*dst = d
		}
		for name, i := range col {
			if p, ok := strings.CutPrefix(name, "parameter_"); ok {
				if res.Parameters == nil {
					res.Parameters = make(map[string]string)
				}
				res.Parameters[p] = rec[i]
			}
		}
		results = append(results, res)
	}

	if len(results) == 0 {
		return nil, ErrNoResults
	}
	return results, nil
}

// ReadFile reads the first result row of a hyperfine CSV file.
func ReadFile(path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, err
	}
	defer f.Close()

	results, err := Read(f)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", path, err)
	}
	return results[0], nil
}

// Compare computes the transformed/original mean ratio.
func Compare(original, transformed Result) (Comparison, error) {
	if original.Mean <= 0 {
		return Comparison{}, fmt.Errorf("original mean must be positive, got %v", original.Mean)
	}
	return Comparison{
		Original:    original,
		Transformed: transformed,
		Ratio:       float64(transformed.Mean) / float64(original.Mean),
	}, nil
}

// Overhead returns the slowdown of the transformed executable in percent.
func (c Comparison) Overhead() float64 {
	return (c.Ratio - 1) * 100
}

// String renders "1.234x (original 10.2ms, transformed 12.6ms)".
func (c Comparison) String() string {
	return fmt.Sprintf("%.3fx (original %s, transformed %s)",
		c.Ratio, c.Original.Mean.Round(time.Microsecond), c.Transformed.Mean.Round(time.Microsecond))
}

func parseSeconds(s string) (time.Duration, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, fmt.Errorf("negative duration %v", v)
	}
	return time.Duration(math.Round(v * float64(time.Second))), nil
}
