package ingest

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/joseph-ayodele/sheet-sorter/constants"
)

type WatchConfig struct {
	Root      string
	Recursive bool
	// Debounce coalesces bursts of writes (a scanner dropping a batch) into
	// a single signal.
	Debounce time.Duration
}

// Watch emits one signal on the returned channel each time new or changed
// PDFs settle under cfg.Root. The channel closes when ctx is done.
func Watch(ctx context.Context, cfg WatchConfig, logger *slog.Logger) (<-chan struct{}, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Root == "" {
		return nil, errors.New("watch root is required")
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 2 * time.Second
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Error("ingest.watch.create_failed", "error", err)
		return nil, err
	}
	if err := addDirs(w, cfg.Root, cfg.Recursive); err != nil {
		_ = w.Close()
		logger.Error("ingest.watch.add_failed", "root", cfg.Root, "error", err)
		return nil, err
	}

	out := make(chan struct{}, 1)
	go func() {
		var (
			mu    sync.Mutex
			timer *time.Timer
			done  bool
		)
		fire := func() {
			mu.Lock()
			defer mu.Unlock()
			if done {
				return
			}
			select {
			case out <- struct{}{}:
			default:
			}
		}
		defer func() {
			mu.Lock()
			done = true
			if timer != nil {
				timer.Stop()
			}
			close(out)
			mu.Unlock()
			if err := w.Close(); err != nil {
				logger.Warn("ingest.watch.close_failed", "error", err)
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if cfg.Recursive && e.Has(fsnotify.Create) {
					// new subdirectories are watched too; files just fail Add
					_ = w.Add(e.Name)
				}
				if IsHidden(e.Name) || !constants.IsAllowedExt(filepath.Ext(e.Name)) {
					continue
				}
				if !e.Has(fsnotify.Create) && !e.Has(fsnotify.Write) && !e.Has(fsnotify.Rename) {
					continue
				}
				if _, err := os.Stat(e.Name); err != nil {
					// moved or removed out of the tree; nothing new to sort
					continue
				}
				logger.Debug("ingest.watch.event", "path", e.Name, "op", e.Op.String())
				mu.Lock()
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(cfg.Debounce, fire)
				mu.Unlock()
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Error("ingest.watch.error", "error", err)
			}
		}
	}()
	return out, nil
}

func addDirs(w *fsnotify.Watcher, root string, recursive bool) error {
	if !recursive {
		return w.Add(root)
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && IsHidden(path) {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
