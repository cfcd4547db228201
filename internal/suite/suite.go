// SPDX-License-Identifier: MPL-2.0

package suite

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	// SizeClassLarge marks a benchmark built from install/benchmark/large_benchmark.
	SizeClassLarge SizeClass = "large"
	// SizeClassMicro marks a benchmark built from install/benchmark/micro_benchmark.
	SizeClassMicro SizeClass = "micro"

	// ActionProcess runs the pass runner script for the benchmark.
	ActionProcess Action = "process"
	// ActionSize compares original and transformed bitcode sizes.
	ActionSize Action = "size"
	// ActionTiming links both variants and times them.
	ActionTiming Action = "timing"
	// ActionStats aggregates the bound-check dump written during processing.
	ActionStats Action = "stats"
)

var (
	// ErrInvalidSizeClass is the sentinel error wrapped by InvalidSizeClassError.
	ErrInvalidSizeClass = errors.New("invalid size class")
	// ErrInvalidAction is the sentinel error wrapped by InvalidActionError.
	ErrInvalidAction = errors.New("invalid action")
	// ErrInvalidBenchmarkName is returned for empty or non-filename-safe names.
	ErrInvalidBenchmarkName = errors.New("invalid benchmark name")
	// ErrDuplicateBenchmark is returned when a suite declares a name twice.
	ErrDuplicateBenchmark = errors.New("duplicate benchmark")
	// ErrUnknownBenchmark is returned when a filter names a benchmark not in the suite.
	ErrUnknownBenchmark = errors.New("unknown benchmark")

	// benchmarkNamePattern keeps names usable as file name stems.
	benchmarkNamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

	// allActions lists actions in execution order within one benchmark.
	allActions = []Action{ActionProcess, ActionStats, ActionSize, ActionTiming}
)

type (
	// SizeClass tags which benchmark subdirectory holds the original bitcode.
	SizeClass string

	// InvalidSizeClassError is returned when a SizeClass value is not recognized.
	// It wraps ErrInvalidSizeClass for errors.Is() compatibility.
	InvalidSizeClassError struct {
		Value SizeClass
	}

	// Action is one unit of per-benchmark sweep work.
	Action string

	// InvalidActionError is returned when an Action value is not recognized.
	InvalidActionError struct {
		Value Action
	}

	// BenchmarkSpec identifies one benchmark program.
	BenchmarkSpec struct {
		// Name is the benchmark identifier, also the artifact file stem.
		Name string
		// SizeClass selects the original artifact directory.
		SizeClass SizeClass
		// Actions optionally restricts which sweep actions apply to this
		// benchmark. Empty means every action the sweep requests.
		Actions []Action
	}

	// Suite is an ordered, name-unique list of benchmarks.
	Suite struct {
		specs []BenchmarkSpec
		index map[string]int
	}
)

// String returns the string representation of the SizeClass.
func (c SizeClass) String() string { return string(c) }

// IsValid returns whether the SizeClass is one of the defined classes,
// and a list of validation errors if it is not.
func (c SizeClass) IsValid() (bool, []error) {
	switch c {
	case SizeClassLarge, SizeClassMicro:
		return true, nil
	default:
		return false, []error{&InvalidSizeClassError{Value: c}}
	}
}

// Error implements the error interface.
func (e *InvalidSizeClassError) Error() string {
	return fmt.Sprintf("invalid size class %q (valid: large, micro)", e.Value)
}

// Unwrap returns ErrInvalidSizeClass for errors.Is() compatibility.
func (e *InvalidSizeClassError) Unwrap() error { return ErrInvalidSizeClass }

// String returns the string representation of the Action.
func (a Action) String() string { return string(a) }

// IsValid returns whether the Action is recognized.
func (a Action) IsValid() (bool, []error) {
	for _, known := range allActions {
		if a == known {
			return true, nil
		}
	}
	return false, []error{&InvalidActionError{Value: a}}
}

// Error implements the error interface.
func (e *InvalidActionError) Error() string {
	return fmt.Sprintf("invalid action %q (valid: process, size, timing, stats)", e.Value)
}

// Unwrap returns ErrInvalidAction for errors.Is() compatibility.
func (e *InvalidActionError) Unwrap() error { return ErrInvalidAction }

// ParseActions converts action names to Actions, rejecting unknown names and
// dropping duplicates. The result is in canonical execution order.
func ParseActions(names []string) ([]Action, error) {
	want := make(map[Action]bool, len(names))
	for _, n := range names {
		a := Action(strings.TrimSpace(n))
		if valid, errs := a.IsValid(); !valid {
			return nil, errs[0]
		}
		want[a] = true
	}
	var actions []Action
	for _, a := range allActions {
		if want[a] {
			actions = append(actions, a)
		}
	}
	return actions, nil
}

// Validate checks the spec's name, size class and actions.
func (s BenchmarkSpec) Validate() error {
	if !benchmarkNamePattern.MatchString(s.Name) {
		return fmt.Errorf("%w: %q", ErrInvalidBenchmarkName, s.Name)
	}
	if valid, errs := s.SizeClass.IsValid(); !valid {
		return fmt.Errorf("benchmark %q: %w", s.Name, errs[0])
	}
	for _, a := range s.Actions {
		if valid, errs := a.IsValid(); !valid {
			return fmt.Errorf("benchmark %q: %w", s.Name, errs[0])
		}
	}
	return nil
}

// Supports reports whether action applies to this benchmark.
func (s BenchmarkSpec) Supports(action Action) bool {
	if len(s.Actions) == 0 {
		return true
	}
	for _, a := range s.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// NewSuite builds a suite in declaration order. Every spec must validate and
// every name must be unique.
func NewSuite(specs ...BenchmarkSpec) (*Suite, error) {
	s := &Suite{
		specs: make([]BenchmarkSpec, 0, len(specs)),
		index: make(map[string]int, len(specs)),
	}
	for _, spec := range specs {
		if err := spec.Validate(); err != nil {
			return nil, err
		}
		if _, dup := s.index[spec.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateBenchmark, spec.Name)
		}
		spec.Actions = append([]Action(nil), spec.Actions...)
		s.index[spec.Name] = len(s.specs)
		s.specs = append(s.specs, spec)
	}
	return s, nil
}

// Len returns the number of benchmarks.
func (s *Suite) Len() int { return len(s.specs) }

// Specs returns a copy of the benchmarks in declaration order.
func (s *Suite) Specs() []BenchmarkSpec {
	return append([]BenchmarkSpec(nil), s.specs...)
}

// Names returns benchmark names in declaration order.
func (s *Suite) Names() []string {
	names := make([]string, len(s.specs))
	for i, spec := range s.specs {
		names[i] = spec.Name
	}
	return names
}

// Lookup returns the spec for name.
func (s *Suite) Lookup(name string) (BenchmarkSpec, bool) {
	i, ok := s.index[name]
	if !ok {
		return BenchmarkSpec{}, false
	}
	return s.specs[i], true
}

// Filter returns a suite restricted to names, keeping declaration order.
// An empty names list returns the suite unchanged.
func (s *Suite) Filter(names []string) (*Suite, error) {
	if len(names) == 0 {
		return s, nil
	}
	keep, err := s.nameSet(names)
	if err != nil {
		return nil, err
	}
	return s.selectWhere(func(spec BenchmarkSpec) bool { return keep[spec.Name] })
}

// Exclude returns a suite without names, keeping declaration order.
func (s *Suite) Exclude(names []string) (*Suite, error) {
	if len(names) == 0 {
		return s, nil
	}
	drop, err := s.nameSet(names)
	if err != nil {
		return nil, err
	}
	return s.selectWhere(func(spec BenchmarkSpec) bool { return !drop[spec.Name] })
}

func (s *Suite) nameSet(names []string) (map[string]bool, error) {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		if _, ok := s.index[n]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownBenchmark, n)
		}
		set[n] = true
	}
	return set, nil
}

func (s *Suite) selectWhere(keep func(BenchmarkSpec) bool) (*Suite, error) {
	var specs []BenchmarkSpec
	for _, spec := range s.specs {
		if keep(spec) {
			specs = append(specs, spec)
		}
	}
	return NewSuite(specs...)
}
