// SPDX-License-Identifier: MPL-2.0

package sweep

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/boundcheck/benchsweep/internal/issue"
)

// PrepareOutputDir makes path an existing, empty directory. Calling it again
// leaves the directory empty again.
func PrepareOutputDir(path string) error {
	if err := resetDir(path); err != nil {
		return issue.NewErrorContext().
			WithOperation("prepare output directory").
			WithResource(path).
			WithIssue(issue.OutputDirFailedId).
			WithSuggestion("Check that the path is a directory you can write to").
			Wrap(err).
			BuildError()
	}
	return nil
}

func resetDir(path string) error {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("%w: %w", ErrOutputDir, err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("%w: %w", ErrOutputDir, err)
	case !info.IsDir():
		return fmt.Errorf("%w: %s is not a directory", ErrOutputDir, path)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOutputDir, err)
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(path, e.Name())); err != nil {
			return fmt.Errorf("%w: %w", ErrOutputDir, err)
		}
	}
	return nil
}
