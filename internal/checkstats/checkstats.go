// SPDX-License-Identifier: MPL-2.0

// Package checkstats reads the bound-check count dump the pass appends to
// $DUMP_DST and aggregates it per optimization stage.
//
// Each dump line is "<function>, <stage>, <lb>, <ub>, <total>".
package checkstats

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Stages the pass reports, in pipeline order.
const (
	StageInsertion       = "After Insertion"
	StageModification    = "After Modification"
	StageElimination     = "After Elimination"
	StageLoopPropagation = "After Loop Propagation"
)

// ErrMalformedDump is wrapped by every ParseError.
var ErrMalformedDump = errors.New("malformed check count dump")

type (
	// Entry is one dump line: the check counts of one function at one stage.
	Entry struct {
		Function string
		Stage    string
		Lower    int
		Upper    int
		Total    int
	}

	// StageTotal sums an entire benchmark's checks at one stage.
	StageTotal struct {
		Stage     string
		Lower     int
		Upper     int
		Total     int
		Functions int
	}

	// ParseError locates a bad dump line.
	ParseError struct {
		Line int
		Msg  string
	}
)

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// Unwrap returns ErrMalformedDump for errors.Is() compatibility.
func (e *ParseError) Unwrap() error { return ErrMalformedDump }

// Parse reads dump entries. Blank lines are skipped; the whole dump is
// rejected at the first malformed line.
func Parse(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	// Demangled names such as operator"" _kb carry bare quotes.
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	var entries []Entry
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return entries, nil
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				return nil, &ParseError{Line: perr.Line, Msg: perr.Err.Error()}
			}
			return nil, err
		}
		line, _ := cr.FieldPos(0)
		if len(rec) != 5 {
			return nil, &ParseError{Line: line, Msg: fmt.Sprintf("expected 5 fields, got %d", len(rec))}
		}

		e := Entry{Function: strings.TrimSpace(rec[0]), Stage: strings.TrimSpace(rec[1])}
		counts := []*int{&e.Lower, &e.Upper, &e.Total}
		for i, dst := range counts {
			n, err := strconv.Atoi(strings.TrimSpace(rec[2+i]))
			if err != nil || n < 0 {
				return nil, &ParseError{Line: line, Msg: fmt.Sprintf("field %d: invalid count %q", 3+i, rec[2+i])}
			}
			*dst = n
		}
		if e.Total != e.Lower+e.Upper {
			return nil, &ParseError{Line: line, Msg: fmt.Sprintf("total %d != lb %d + ub %d", e.Total, e.Lower, e.Upper)}
		}
		entries = append(entries, e)
	}
}

// ParseFile parses the dump at path.
func ParseFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	entries, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return entries, nil
}

// Aggregate sums entries per stage, keeping the order stages first appear.
func Aggregate(entries []Entry) []StageTotal {
	var totals []StageTotal
	index := make(map[string]int)
	for _, e := range entries {
		i, ok := index[e.Stage]
		if !ok {
			i = len(totals)
			index[e.Stage] = i
			totals = append(totals, StageTotal{Stage: e.Stage})
		}
		t := &totals[i]
		t.Lower += e.Lower
		t.Upper += e.Upper
		t.Total += e.Total
		t.Functions++
	}
	return totals
}

// Reduction returns the percentage of checks removed between two stages'
// totals, or false when from has no checks.
func Reduction(from, to StageTotal) (float64, bool) {
	if from.Total == 0 {
		return 0, false
	}
	return float64(from.Total-to.Total) / float64(from.Total) * 100, true
}

// AppendCSV appends one "name,stage,lb,ub,total" record per stage to path.
func AppendCSV(path, benchmark string, totals []StageTotal) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	for _, t := range totals {
		rec := []string{benchmark, t.Stage, strconv.Itoa(t.Lower), strconv.Itoa(t.Upper), strconv.Itoa(t.Total)}
		if err := w.Write(rec); err != nil {
			_ = f.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
