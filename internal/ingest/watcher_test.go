package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchSignalsOnNewPDF(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := Watch(ctx, WatchConfig{Root: dir, Debounce: 50 * time.Millisecond}, nil)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scan001.pdf"), []byte("%PDF-1.4\n"), 0o644))

	select {
	case <-events:
	case <-time.After(5 * time.Second):
		t.Fatal("no signal after a PDF was written")
	}

	cancel()
	select {
	case _, ok := <-events:
		for ok {
			_, ok = <-events
		}
	case <-time.After(5 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestWatchIgnoresPDFsLeavingTheTree(t *testing.T) {
	tests := []struct {
		name  string
		leave func(t *testing.T, path string)
	}{
		{"moved out", func(t *testing.T, path string) {
			require.NoError(t, os.Rename(path, filepath.Join(t.TempDir(), filepath.Base(path))))
		}},
		{"removed", func(t *testing.T, path string) {
			require.NoError(t, os.Remove(path))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "scan001.pdf")
			require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4\n"), 0o644))

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			events, err := Watch(ctx, WatchConfig{Root: dir, Debounce: 50 * time.Millisecond}, nil)
			require.NoError(t, err)

			tt.leave(t, path)

			select {
			case <-events:
				t.Fatal("signal fired for a PDF that left the watched directory")
			case <-time.After(300 * time.Millisecond):
			}
		})
	}
}

func TestWatchRequiresRoot(t *testing.T) {
	_, err := Watch(context.Background(), WatchConfig{}, nil)
	assert.Error(t, err)

	_, err = Watch(context.Background(), WatchConfig{Root: filepath.Join(t.TempDir(), "missing")}, nil)
	assert.Error(t, err)
}
