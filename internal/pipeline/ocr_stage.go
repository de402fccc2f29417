package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"

	"github.com/joseph-ayodele/sheet-sorter/internal/entity"
	"github.com/joseph-ayodele/sheet-sorter/internal/ocr"
)

// errNoText marks an OCR call that succeeded but produced nothing usable.
var errNoText = errors.New("no text recognized")

// extractText runs OCR on path, compressing a scratch copy first when the
// file is over the upload limit. Failure is recorded in sum and yields empty
// text so classification can fall back to the filename.
func (p *Processor) extractText(ctx context.Context, r *run, logger *slog.Logger, path string, size int64, sum *entity.OCRSummary) string {
	if p.extractor == nil {
		return ""
	}
	sum.Attempted = true

	upload := path
	if p.opts.UploadLimit > 0 && size > p.opts.UploadLimit {
		compressed, err := p.toolkit.Compress(ctx, path, r.tempDir)
		if err != nil {
			logger.Warn("pipeline.ocr.compress_failed", "size", size, "error", err)
		} else {
			upload = compressed
			sum.Compressed = true
			defer func() {
				if err := os.Remove(compressed); err != nil && !errors.Is(err, os.ErrNotExist) {
					logger.Warn("pipeline.ocr.scratch_cleanup_failed", "path", compressed, "error", err)
				}
			}()
		}
	}

	res, err := p.extractor.Extract(ctx, upload)
	sum.Method, sum.RequestID, sum.Duration = res.Method, res.RequestID, res.Duration
	if err == nil && strings.TrimSpace(res.Text) == "" {
		err = errNoText
	}
	if err != nil {
		sum.Error = err.Error()
		logger.Warn("pipeline.ocr.degraded", "error", err)
		return ""
	}

	text := ocr.Clean(res.Text)
	sum.OK = true
	sum.Chars = len([]rune(text))
	logger.Debug("pipeline.ocr.ok", "method", res.Method, "chars", sum.Chars, "pages", res.Pages)
	return text
}
