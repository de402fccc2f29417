// Package pdf wraps the pdfcpu operations a batch needs: structural
// validation, size reduction before upload, and document properties on the
// placed copy.
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/joseph-ayodele/sheet-sorter/constants"
)

// DefaultMaxSize is the hard ceiling for an input file.
const DefaultMaxSize int64 = 50 << 20

// Reasons carried by ValidationError.
const (
	ReasonMissing    = "missing"
	ReasonNotRegular = "not a regular file"
	ReasonExtension  = "not a pdf"
	ReasonEmpty      = "empty file"
	ReasonTooLarge   = "too large"
	ReasonCorrupt    = "corrupt pdf"
	ReasonNoPages    = "no pages"
)

var ErrInvalidPDF = errors.New("invalid pdf")

// ValidationError explains why a file was rejected before any OCR spend.
type ValidationError struct {
	Path   string
	Reason string
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (%s)", filepath.Base(e.Path), e.Reason, e.Detail)
	}
	return fmt.Sprintf("%s: %s", filepath.Base(e.Path), e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidPDF }

type Toolkit struct {
	logger *slog.Logger
	conf   *model.Configuration
}

func NewToolkit(logger *slog.Logger) *Toolkit {
	if logger == nil {
		logger = slog.Default()
	}
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Toolkit{logger: logger, conf: conf}
}

// Validate checks that path is a non-empty regular .pdf no bigger than
// maxSize that pdfcpu can parse, and returns its page count.
func (t *Toolkit) Validate(path string, maxSize int64) (int, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	reject := func(reason, detail string) (int, error) {
		return 0, &ValidationError{Path: path, Reason: reason, Detail: detail}
	}

	st, err := os.Stat(path)
	if err != nil {
		return reject(ReasonMissing, err.Error())
	}
	if !st.Mode().IsRegular() {
		return reject(ReasonNotRegular, "")
	}
	if !constants.IsAllowedExt(filepath.Ext(path)) {
		return reject(ReasonExtension, filepath.Ext(path))
	}
	if st.Size() == 0 {
		return reject(ReasonEmpty, "")
	}
	if st.Size() > maxSize {
		return reject(ReasonTooLarge, fmt.Sprintf("%s > %s", humanize.IBytes(uint64(st.Size())), humanize.IBytes(uint64(maxSize))))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return reject(ReasonMissing, err.Error())
	}
	if err := api.Validate(bytes.NewReader(data), t.conf); err != nil {
		return reject(ReasonCorrupt, firstLine(err.Error()))
	}
	pages, err := api.PageCount(bytes.NewReader(data), t.conf)
	if err != nil {
		return reject(ReasonCorrupt, firstLine(err.Error()))
	}
	if pages <= 0 {
		return reject(ReasonNoPages, "")
	}
	t.logger.Debug("pdf.validated", "path", path, "pages", pages, "size", st.Size())
	return pages, nil
}

// Compress writes an optimized copy of path into tempDir and returns its
// path. The caller owns the copy.
func (t *Toolkit) Compress(ctx context.Context, path, tempDir string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f, err := os.CreateTemp(tempDir, "compressed-*.pdf")
	if err != nil {
		return "", fmt.Errorf("create temp: %w", err)
	}
	out := f.Name()
	_ = f.Close()

	if err := api.OptimizeFile(path, out, t.conf); err != nil {
		_ = os.Remove(out)
		return "", fmt.Errorf("optimize %s: %w", filepath.Base(path), err)
	}
	before, after := fileSize(path), fileSize(out)
	t.logger.Info("pdf.compressed",
		"path", path,
		"before", humanize.IBytes(uint64(before)),
		"after", humanize.IBytes(uint64(after)),
	)
	return out, nil
}

// Label stores props as document properties in path, rewriting it through
// a sibling temp file.
func (t *Toolkit) Label(path string, props map[string]string) error {
	clean := make(map[string]string, len(props))
	for k, v := range props {
		if strings.TrimSpace(v) != "" {
			clean[k] = v
		}
	}
	if len(clean) == 0 {
		return nil
	}
	tmp := path + ".label.tmp"
	if err := api.AddPropertiesFile(path, tmp, clean, t.conf); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("add properties: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace labelled file: %w", err)
	}
	return nil
}

func fileSize(path string) int64 {
	st, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return st.Size()
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
