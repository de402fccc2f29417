package pipeline

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joseph-ayodele/sheet-sorter/internal/ocr"
	"github.com/joseph-ayodele/sheet-sorter/internal/pdf"
	"github.com/joseph-ayodele/sheet-sorter/internal/placement"
)

const compressedPrefix = "compressed-"

// fakeExtractor answers by base filename. Unknown files get empty text.
type fakeExtractor struct {
	mu    sync.Mutex
	texts map[string]string
	errs  map[string]error
	calls []string
}

func (f *fakeExtractor) Extract(_ context.Context, path string) (ocr.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, path)
	base := strings.TrimPrefix(filepath.Base(path), compressedPrefix)
	if err, ok := f.errs[base]; ok {
		return ocr.Result{Method: "fake"}, err
	}
	return ocr.Result{Text: f.texts[base], Method: "fake", Pages: 1}, nil
}

// fakeToolkit accepts anything except files whose content starts with BAD.
type fakeToolkit struct {
	compressed []string
	labelled   map[string]map[string]string
}

func newFakeToolkit() *fakeToolkit {
	return &fakeToolkit{labelled: make(map[string]map[string]string)}
}

func (f *fakeToolkit) Validate(path string, maxSize int64) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, &pdf.ValidationError{Path: path, Reason: pdf.ReasonMissing}
	}
	if strings.HasPrefix(string(data), "BAD") {
		return 0, &pdf.ValidationError{Path: path, Reason: pdf.ReasonCorrupt}
	}
	return 1, nil
}

func (f *fakeToolkit) Compress(_ context.Context, path, tempDir string) (string, error) {
	out := filepath.Join(tempDir, compressedPrefix+filepath.Base(path))
	in, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer in.Close()
	dst, err := os.Create(out)
	if err != nil {
		return "", err
	}
	defer dst.Close()
	if _, err := io.Copy(dst, in); err != nil {
		return "", err
	}
	f.compressed = append(f.compressed, out)
	return out, nil
}

func (f *fakeToolkit) Label(path string, props map[string]string) error {
	f.labelled[path] = props
	return nil
}

// failingPlacer fails the first n placements and delegates the rest.
type failingPlacer struct {
	n     int
	inner placement.Placer
}

func (f *failingPlacer) Place(ctx context.Context, src string, t placement.Target, move bool) (string, error) {
	if f.n > 0 {
		f.n--
		return "", errors.New("disk full")
	}
	return f.inner.Place(ctx, src, t, move)
}
