// SPDX-License-Identifier: MPL-2.0

package sweep

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/boundcheck/benchsweep/internal/issue"
	"github.com/boundcheck/benchsweep/internal/suite"
)

// CompareSizes reports the original and transformed bitcode sizes of one
// benchmark and appends them to the size CSV. A missing artifact is returned
// as an error wrapping both ErrArtifactMissing and fs.ErrNotExist.
func (d *Driver) CompareSizes(spec suite.BenchmarkSpec) (SizeRecord, error) {
	orig, err := artifactSize(d.layout.OriginalBitcode(spec))
	if err != nil {
		return SizeRecord{}, err
	}
	trans, err := artifactSize(d.layout.TransformedBitcode(spec))
	if err != nil {
		return SizeRecord{}, err
	}

	rec := SizeRecord{Name: spec.Name, OriginalSize: orig, TransformedSize: trans}
	d.printf("Original size: %d bytes", rec.OriginalSize)
	d.printf("Transformed size: %d bytes", rec.TransformedSize)
	d.printf("Size percentage: %s%%", FormatPercent(rec.OriginalSize, rec.TransformedSize))

	if err := AppendSizeRecord(d.opts.SizeCSV, rec); err != nil {
		return rec, err
	}
	return rec, nil
}

func artifactSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err == nil {
		return info.Size(), nil
	}
	ctx := issue.NewErrorContext().
		WithOperation("compare bitcode sizes").
		WithResource(path)
	if errors.Is(err, fs.ErrNotExist) {
		ctx = ctx.WithIssue(issue.ArtifactMissingId).
			WithSuggestion("Run the process action for this benchmark before size").
			Wrap(fmt.Errorf("%w: %w", ErrArtifactMissing, err))
	} else {
		ctx = ctx.Wrap(err)
	}
	return 0, ctx.BuildError()
}

// AppendSizeRecord appends "name,original,transformed" to path, opening the
// file once per record.
func AppendSizeRecord(path string, rec SizeRecord) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSizeRecord, err)
	}
	w := csv.NewWriter(f)
	werr := w.Write([]string{
		rec.Name,
		strconv.FormatInt(rec.OriginalSize, 10),
		strconv.FormatInt(rec.TransformedSize, 10),
	})
	w.Flush()
	if werr == nil {
		werr = w.Error()
	}
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		return fmt.Errorf("%w: %w", ErrSizeRecord, werr)
	}
	return nil
}
