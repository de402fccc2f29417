// Package export renders a finished batch as report files.
package export

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/sheet-sorter/internal/entity"
)

// Supported report formats.
const (
	FormatText = "txt"
	FormatJSON = "json"
	FormatXLSX = "xlsx"
)

// Service writes batch reports to disk.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// ReportName is the base name (without extension) of the reports for res.
func ReportName(res *entity.BatchResult) string {
	return "processing_report_" + res.StartedAt.Local().Format("20060102_150405")
}

// WriteReports renders res in each format into dir and returns the paths
// written. Unknown formats are an error; nothing is written for them.
func (s *Service) WriteReports(res *entity.BatchResult, dir string, formats []string) ([]string, error) {
	start := time.Now()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}
	base := filepath.Join(dir, ReportName(res))

	var written []string
	for _, format := range formats {
		var (
			data []byte
			err  error
		)
		switch format {
		case FormatText:
			data = []byte(Text(res))
		case FormatJSON:
			data, err = JSON(res)
		case FormatXLSX:
			data, err = XLSX(res)
		default:
			err = fmt.Errorf("unknown report format %q", format)
		}
		if err != nil {
			return written, fmt.Errorf("render %s report: %w", format, err)
		}
		path := base + "." + format
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return written, fmt.Errorf("write %s: %w", path, err)
		}
		written = append(written, path)
	}

	s.logger.Info("export.reports.ok",
		"run_id", res.RunID.String(),
		"files", len(written),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return written, nil
}

// JSON renders res as indented JSON.
func JSON(res *entity.BatchResult) ([]byte, error) {
	return json.MarshalIndent(res, "", "  ")
}
