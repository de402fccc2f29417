package placement

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

// maxCollisions bounds the counter search for a free name.
const maxCollisions = 10000

const partSuffix = ".part"

var ErrNoFreeName = errors.New("no free filename")

// Placer puts a source file at a target and returns the final path.
type Placer interface {
	Place(ctx context.Context, src string, t Target, move bool) (string, error)
}

// FSPlacer writes to the local filesystem. The destination name is reserved
// with O_EXCL at the moment of placement, so two files never share a path
// and nothing existing is overwritten.
type FSPlacer struct {
	logger *slog.Logger
}

func NewFSPlacer(logger *slog.Logger) *FSPlacer {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSPlacer{logger: logger}
}

func (p *FSPlacer) Place(ctx context.Context, src string, t Target, move bool) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	st, err := os.Stat(src)
	if err != nil {
		return "", fmt.Errorf("stat source: %w", err)
	}
	if err := os.MkdirAll(t.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create target dir: %w", err)
	}

	f, dst, err := reserve(t, func(path string) (*os.File, error) {
		return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	})
	if err != nil {
		return "", err
	}

	// the empty placeholder holds the name; content arrives by rename
	_ = f.Close()

	if move {
		err := os.Rename(src, dst)
		if err == nil {
			p.logger.Debug("placement.moved", "src", src, "dst", dst)
			return dst, nil
		}
		if !errors.Is(err, syscall.EXDEV) {
			p.discard(dst)
			return "", fmt.Errorf("move: %w", err)
		}
		p.logger.Debug("placement.cross_device", "src", src, "dst", dst)
	}

	if err := p.copyOver(src, dst, st.ModTime()); err != nil {
		p.discard(dst)
		return "", err
	}

	if move {
		// the placed copy is complete; a failed removal leaves the source in place
		if err := os.Remove(src); err != nil {
			p.logger.Warn("placement.source_remove_failed", "src", src, "error", err)
		}
	}
	return dst, nil
}

// copyOver writes src to a dst.part sibling and renames it over dst, so dst
// is either the empty placeholder or the complete file.
func (p *FSPlacer) copyOver(src, dst string, modTime time.Time) error {
	part := dst + partSuffix
	out, err := os.OpenFile(part, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create partial: %w", err)
	}
	if err := copyInto(out, src); err != nil {
		_ = out.Close()
		p.discard(part)
		return err
	}
	if err := out.Close(); err != nil {
		p.discard(part)
		return fmt.Errorf("close partial: %w", err)
	}
	if err := os.Chtimes(part, modTime, modTime); err != nil {
		p.logger.Warn("placement.chtimes_failed", "dst", dst, "error", err)
	}
	if err := os.Rename(part, dst); err != nil {
		p.discard(part)
		return fmt.Errorf("finish copy: %w", err)
	}
	return nil
}

func (p *FSPlacer) discard(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		p.logger.Warn("placement.cleanup_failed", "path", path, "error", err)
	}
}

func copyInto(dst *os.File, src string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()
	if _, err := io.Copy(dst, in); err != nil {
		return fmt.Errorf("copy: %w", err)
	}
	return dst.Sync()
}

// reserve tries name, name_1, name_2, ... until claim succeeds.
func reserve(t Target, claim func(string) (*os.File, error)) (*os.File, string, error) {
	ext := filepath.Ext(t.Filename)
	stem := strings.TrimSuffix(t.Filename, ext)
	for i := 0; i < maxCollisions; i++ {
		path := filepath.Join(t.Dir, candidateName(stem, ext, i))
		f, err := claim(path)
		if err == nil {
			return f, path, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", fmt.Errorf("reserve %s: %w", path, err)
		}
	}
	return nil, "", fmt.Errorf("%w for %s", ErrNoFreeName, t.Path())
}

func candidateName(stem, ext string, i int) string {
	if i == 0 {
		return stem + ext
	}
	return fmt.Sprintf("%s_%d%s", stem, i, ext)
}

// DryRunPlacer computes the names a real run would use without touching the
// filesystem. Names handed out earlier in the run count as taken.
type DryRunPlacer struct {
	taken map[string]struct{}
}

func NewDryRunPlacer() *DryRunPlacer {
	return &DryRunPlacer{taken: make(map[string]struct{})}
}

func (p *DryRunPlacer) Place(ctx context.Context, src string, t Target, move bool) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ext := filepath.Ext(t.Filename)
	stem := strings.TrimSuffix(t.Filename, ext)
	for i := 0; i < maxCollisions; i++ {
		path := filepath.Join(t.Dir, candidateName(stem, ext, i))
		if _, ok := p.taken[path]; ok {
			continue
		}
		if _, err := os.Stat(path); err == nil {
			continue
		}
		p.taken[path] = struct{}{}
		return path, nil
	}
	return "", fmt.Errorf("%w for %s", ErrNoFreeName, t.Path())
}
