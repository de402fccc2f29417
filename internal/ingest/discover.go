// Package ingest finds the PDFs a batch will process.
package ingest

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/sheet-sorter/constants"
	"github.com/joseph-ayodele/sheet-sorter/internal/common"
)

// Options controls a directory scan.
type Options struct {
	Recursive bool
	// MaxBatch caps the number of files kept; 0 means no cap.
	MaxBatch int
}

// Discovery is the outcome of a scan: the files to process in enumeration
// order and the files that were found but left out by MaxBatch.
type Discovery struct {
	Root     string
	Files    []string
	Excluded []string
	Scanned  int
}

// Discover walks root in lexical order, skipping hidden entries, and keeps
// files with an allowed extension. A missing or unreadable root is a
// structural error; unreadable entries below it are logged and skipped.
func Discover(root string, opts Options, logger *slog.Logger) (Discovery, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(root) == "" {
		return Discovery{}, common.NewAppError("INPUT_ERROR", "input directory is required", common.ErrStructural)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return Discovery{}, common.NewAppError("INPUT_ERROR", fmt.Sprintf("resolve %s: %v", root, err), common.ErrStructural)
	}
	st, err := os.Stat(abs)
	if err != nil {
		return Discovery{}, common.NewAppError("INPUT_ERROR", fmt.Sprintf("input directory %s: %v", root, err), common.ErrStructural)
	}
	if !st.IsDir() {
		return Discovery{}, common.NewAppError("INPUT_ERROR", fmt.Sprintf("input %s is not a directory", root), common.ErrStructural)
	}

	out := Discovery{Root: abs}
	var found []string
	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == abs {
				return walkErr
			}
			logger.Warn("ingest.walk.skipped", "path", path, "error", walkErr)
			return nil
		}
		if path == abs {
			return nil
		}
		if IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if !opts.Recursive {
				return filepath.SkipDir
			}
			return nil
		}
		out.Scanned++
		if !d.Type().IsRegular() || !constants.IsAllowedExt(filepath.Ext(path)) {
			return nil
		}
		found = append(found, path)
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrPermission) || errors.Is(err, fs.ErrNotExist) {
			return Discovery{}, common.NewAppError("INPUT_ERROR", fmt.Sprintf("walk %s: %v", root, err), common.ErrStructural)
		}
		return Discovery{}, fmt.Errorf("walk: %w", err)
	}

	out.Files = found
	if opts.MaxBatch > 0 && len(found) > opts.MaxBatch {
		out.Files = found[:opts.MaxBatch:opts.MaxBatch]
		out.Excluded = found[opts.MaxBatch:]
		logger.Warn("ingest.batch.capped",
			"found", len(found),
			"max_batch", opts.MaxBatch,
			"excluded", len(out.Excluded),
		)
	}
	logger.Info("ingest.discovered", "root", abs, "scanned", out.Scanned, "files", len(out.Files))
	return out, nil
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
