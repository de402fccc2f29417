package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// LocalConfig configures the poppler/tesseract backend.
type LocalConfig struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	Language string // tesseract language, default "eng"
	DPI      int    // rasterization DPI for scanned pages, default 300
	MaxPages int    // 0 = no limit
}

// LocalExtractor reads the embedded text layer with pdftotext and falls back
// to rasterizing and running tesseract when the layer is empty, which is the
// normal case for scanned parts.
type LocalExtractor struct {
	cfg    LocalConfig
	runner Runner
	logger *slog.Logger
}

func NewLocalExtractor(cfg LocalConfig, logger *slog.Logger) *LocalExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return newLocalExtractor(cfg, execRunner{logger: logger}, logger)
}

func newLocalExtractor(cfg LocalConfig, runner Runner, logger *slog.Logger) *LocalExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	return &LocalExtractor{cfg: cfg, runner: runner, logger: logger}
}

func (e *LocalExtractor) Extract(ctx context.Context, path string) (Result, error) {
	start := time.Now()

	text, pages, warns, err := e.pdfToText(ctx, path)
	if err == nil && strings.TrimSpace(text) != "" {
		e.logger.Debug("ocr.local.text_layer", "path", path, "pages", pages)
		return Result{Text: Clean(text), Pages: pages, Method: "pdf-text", Language: e.cfg.Language, Duration: time.Since(start), Warnings: warns}, nil
	}

	text, pages, warns2, err := e.pdfToOCR(ctx, path)
	warns = append(warns, warns2...)
	if err != nil {
		return Result{Method: "pdf-ocr", Warnings: warns, Duration: time.Since(start)}, fmt.Errorf("%w: %v", ErrOCRFailed, err)
	}
	if strings.TrimSpace(text) == "" {
		return Result{Method: "pdf-ocr", Pages: pages, Warnings: warns, Duration: time.Since(start)}, fmt.Errorf("%w: no text recognized", ErrOCRFailed)
	}
	return Result{Text: Clean(text), Pages: pages, Method: "pdf-ocr", Language: e.cfg.Language, Duration: time.Since(start), Warnings: warns}, nil
}

func (e *LocalExtractor) pdfToText(ctx context.Context, path string) (string, int, []string, error) {
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return "", 0, []string{string(errb)}, err
	}
	text := string(out)
	// pdftotext separates pages with a form feed
	return text, 1 + strings.Count(strings.TrimRight(text, "\f"), "\f"), nil, nil
}

func (e *LocalExtractor) pdfToOCR(ctx context.Context, path string) (string, int, []string, error) {
	tmpDir, err := os.MkdirTemp("", "sheetsort-pp-*")
	if err != nil {
		return "", 0, nil, err
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			e.logger.Warn("ocr.local.cleanup_failed", "dir", tmpDir, "error", err)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	args := []string{"-r", strconv.Itoa(e.cfg.DPI), "-png"}
	if e.cfg.MaxPages > 0 {
		args = append(args, "-l", strconv.Itoa(e.cfg.MaxPages))
	}
	args = append(args, path, prefix)
	if _, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, args...); err != nil {
		return "", 0, []string{string(errb)}, err
	}

	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if len(matches) == 0 {
		return "", 0, []string{"pdftoppm produced no images"}, fmt.Errorf("no pages rendered")
	}

	var b strings.Builder
	var warns []string
	for _, img := range matches {
		out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, img, "stdout", "-l", e.cfg.Language)
		if err != nil {
			warns = append(warns, fmt.Sprintf("%s: %v: %s", filepath.Base(img), err, truncate(string(errb), 256)))
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.Write(out)
	}
	return b.String(), len(matches), warns, nil
}
