// SPDX-License-Identifier: MPL-2.0

package history

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/boundcheck/benchsweep/internal/sweep"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func report(preset string, start time.Time, sizes ...sweep.SizeRecord) *sweep.Report {
	return &sweep.Report{
		Preset:     preset,
		OutputDir:  "stat_" + preset,
		StartedAt:  start,
		FinishedAt: start.Add(90 * time.Second),
		Steps: []sweep.StepResult{
			{Benchmark: "is", Step: sweep.StepProcess},
			{Benchmark: "bfs", Step: sweep.StepProcess, ExitCode: 1, Err: errors.New("exit status 1")},
		},
		Sizes: sizes,
	}
}

func TestStore_RecordAndRecent(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	start := time.Date(2024, 3, 1, 9, 0, 0, 123456789, time.UTC)

	first, err := store.Record(ctx, report("baseline", start,
		sweep.SizeRecord{Name: "is", OriginalSize: 1000, TransformedSize: 250},
		sweep.SizeRecord{Name: "bfs", OriginalSize: 3000, TransformedSize: 1750},
	))
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	second, err := store.Record(ctx, report("stat", start.Add(time.Hour)))
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if second <= first {
		t.Errorf("run ids not increasing: %d then %d", first, second)
	}

	runs, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("Recent() returned %d runs, want 2", len(runs))
	}
	if runs[0].Preset != "stat" || runs[1].Preset != "baseline" {
		t.Errorf("order = %s, %s; want newest first", runs[0].Preset, runs[1].Preset)
	}

	base := runs[1]
	if !base.StartedAt.Equal(start) || base.FinishedAt.Sub(base.StartedAt) != 90*time.Second {
		t.Errorf("timestamps = %v .. %v", base.StartedAt, base.FinishedAt)
	}
	if base.Steps != 2 || base.Failures != 1 || base.Aborted {
		t.Errorf("steps/failures/aborted = %d/%d/%v", base.Steps, base.Failures, base.Aborted)
	}
	if base.Benchmarks != 2 || base.OriginalTotal != 4000 || base.TransformedTotal != 2000 {
		t.Errorf("totals = %d benchmarks, %d -> %d", base.Benchmarks, base.OriginalTotal, base.TransformedTotal)
	}
	if ratio, ok := base.Ratio(); !ok || ratio != 50 {
		t.Errorf("Ratio() = %v, %v; want 50, true", ratio, ok)
	}
	if _, ok := runs[0].Ratio(); ok {
		t.Error("run without size records has a ratio")
	}

	sizes, err := store.Sizes(ctx, first)
	if err != nil {
		t.Fatalf("Sizes() error = %v", err)
	}
	names := []string{sizes[0].Name, sizes[1].Name}
	if !slices.Equal(names, []string{"is", "bfs"}) {
		t.Errorf("Sizes() order = %v", names)
	}
}

func TestStore_RecentLimit(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := range 5 {
		if _, err := store.Record(ctx, report("size", start.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatal(err)
		}
	}

	runs, err := store.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(runs) != 3 {
		t.Errorf("Recent(3) returned %d runs", len(runs))
	}

	if _, err := store.Recent(ctx, 0); !errors.Is(err, ErrInvalidLimit) {
		t.Errorf("Recent(0) error = %v, want ErrInvalidLimit", err)
	}
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Record(context.Background(), report("size", time.Now())); err != nil {
		t.Fatal(err)
	}
	store.Close()

	store, err = Open(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer store.Close()
	runs, err := store.Recent(context.Background(), 10)
	if err != nil || len(runs) != 1 {
		t.Errorf("after reopen Recent() = %d runs, err %v", len(runs), err)
	}
}
