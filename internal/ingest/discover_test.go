package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/sheet-sorter/internal/common"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))
}

func TestDiscoverFiltersAndOrders(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "b.pdf"))
	touch(t, filepath.Join(root, "a.PDF"))
	touch(t, filepath.Join(root, "notes.txt"))
	touch(t, filepath.Join(root, ".hidden.pdf"))
	touch(t, filepath.Join(root, "sub", "c.pdf"))
	touch(t, filepath.Join(root, ".cache", "d.pdf"))

	flat, err := Discover(root, Options{}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "a.PDF"), filepath.Join(root, "b.pdf")}, flat.Files)
	assert.Empty(t, flat.Excluded)

	deep, err := Discover(root, Options{Recursive: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "a.PDF"),
		filepath.Join(root, "b.pdf"),
		filepath.Join(root, "sub", "c.pdf"),
	}, deep.Files)
}

func TestDiscoverAppliesBatchCeiling(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 30; i++ {
		touch(t, filepath.Join(root, fmt.Sprintf("scan%02d.pdf", i)))
	}

	got, err := Discover(root, Options{MaxBatch: 25}, nil)
	require.NoError(t, err)
	require.Len(t, got.Files, 25)
	require.Len(t, got.Excluded, 5)
	assert.Equal(t, filepath.Join(root, "scan00.pdf"), got.Files[0])
	assert.Equal(t, filepath.Join(root, "scan24.pdf"), got.Files[24])
	assert.Equal(t, filepath.Join(root, "scan25.pdf"), got.Excluded[0])
}

func TestDiscoverMissingRootIsStructural(t *testing.T) {
	tests := []struct {
		name string
		root func(t *testing.T) string
	}{
		{"empty", func(t *testing.T) string { return "" }},
		{"missing", func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope") }},
		{"file", func(t *testing.T) string {
			p := filepath.Join(t.TempDir(), "x.pdf")
			touch(t, p)
			return p
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Discover(tt.root(t), Options{}, nil)
			require.Error(t, err)
			assert.True(t, common.IsStructural(err))
			assert.Equal(t, "INPUT_ERROR", common.ErrorCode(err))
		})
	}
}
