package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/sheet-sorter/internal/common"
	"github.com/joseph-ayodele/sheet-sorter/internal/ocr"
	"github.com/joseph-ayodele/sheet-sorter/internal/pdf"
)

func newOCRCmd(g *globalFlags) *cobra.Command {
	var apiKey, backend string
	var raw bool
	cmd := &cobra.Command{
		Use:   "ocr <file.pdf>",
		Short: "Run OCR on a single PDF and print the text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.load(func(cfg *common.Config) {
				cfg.OCR.Disabled = false
				if apiKey != "" {
					cfg.OCR.APIKey = apiKey
				}
				if backend != "" {
					cfg.OCR.Backend = backend
				}
			})
			if err != nil {
				return err
			}
			path := args[0]
			logger := a.logger.With("file", path)

			toolkit := pdf.NewToolkit(a.logger)
			pages, err := toolkit.Validate(path, a.cfg.MaxFileSizeBytes())
			if err != nil {
				return common.NewAppError("INPUT_ERROR", err.Error(), common.ErrInvalidInput)
			}

			upload := path
			if fi, err := os.Stat(path); err == nil && a.cfg.OCR.Backend == common.OCRBackendSpace && fi.Size() > a.cfg.UploadLimitBytes() {
				tmp, err := os.MkdirTemp(a.cfg.Batch.TempDir, "sheetsort-ocr-")
				if err != nil {
					return common.NewAppError("TEMP_ERROR", err.Error(), common.ErrStructural)
				}
				defer os.RemoveAll(tmp)
				if out, err := toolkit.Compress(cmd.Context(), path, tmp); err == nil {
					upload = out
				} else {
					logger.Warn("ocr.compress_failed", "error", err)
				}
			}

			start := time.Now()
			res, err := a.extractor().Extract(cmd.Context(), upload)
			dur := time.Since(start)
			if err != nil {
				logger.Error("ocr.failed", "error", err, "duration_ms", dur.Milliseconds())
				return err
			}
			logger.Info("ocr.ok",
				"method", res.Method,
				"pages", pages,
				"bytes", len(res.Text),
				"request_id", res.RequestID,
				"duration_ms", dur.Milliseconds(),
			)
			if raw {
				fmt.Print(res.Text)
			} else {
				fmt.Println(ocr.Clean(res.Text))
			}
			return nil
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&apiKey, "api-key", "", "OCR.space API key (overrides OCR_API_KEY)")
	fl.StringVar(&backend, "backend", "", "space or local")
	fl.BoolVar(&raw, "raw", false, "print the text exactly as returned")
	return cmd
}
