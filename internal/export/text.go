package export

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/joseph-ayodele/sheet-sorter/constants"
	"github.com/joseph-ayodele/sheet-sorter/internal/entity"
)

// Text renders the human-readable report: run header, counts, the pieces
// found and one line per file.
func Text(res *entity.BatchResult) string {
	var b strings.Builder
	line := func(format string, args ...any) { fmt.Fprintf(&b, format+"\n", args...) }

	line("Sheet Music Processing Report")
	line("=============================")
	line("Run:      %s", res.RunID)
	line("Started:  %s", res.StartedAt.Local().Format("2006-01-02 15:04:05"))
	line("Duration: %s", res.Duration().Round(time.Millisecond))
	line("Input:    %s", res.InputDir)
	line("Output:   %s", res.OutputDir)
	mode := res.OrgMode
	if res.DryRun {
		mode += " (dry run)"
	}
	if res.Move {
		mode += " (move)"
	}
	line("Mode:     %s", mode)
	line("Catalog:  %s", res.Catalog)
	if res.Canceled {
		line("Status:   CANCELED")
	}
	line("")

	line("Total files:        %d", res.TotalFiles)
	line("Successful:         %d", res.Successful)
	line("Failed:             %d", res.Failed)
	line("Duplicates:         %d", res.Duplicates)
	line("OCR successes:      %d/%d (%s)", res.OCRSuccesses, res.TotalFiles, percent(res.OCRSuccesses, res.TotalFiles))
	line("Archived as test:   %d", res.ArchivedAsTest)
	line("Excluded by limit:  %d", res.Excluded)
	line("Pieces detected:    %d", res.PiecesDetected())
	for _, p := range res.Pieces {
		line("  - %s", p)
	}
	line("")

	line("Files")
	line("-----")
	for _, o := range res.Outcomes {
		line("%s", outcomeLine(res, o))
	}
	if len(res.ExcludedFiles) > 0 {
		line("")
		line("Excluded (over the batch limit)")
		line("-------------------------------")
		for _, p := range res.ExcludedFiles {
			line("  %s", filepath.Base(p))
		}
	}
	return b.String()
}

func outcomeLine(res *entity.BatchResult, o entity.Outcome) string {
	name := filepath.Base(o.Source)
	switch o.Status {
	case constants.StatusSuccess:
		return fmt.Sprintf("[OK]   %s (%s) -> %s  %s%s", name, humanize.Bytes(uint64(o.Size)), relTarget(res, o.Target), describe(o), ocrNote(o))
	case constants.StatusDuplicate:
		return fmt.Sprintf("[DUP]  %s -> %s duplicate of %s", name, o.DuplicateKind, filepath.Base(o.DuplicateOf))
	default:
		return fmt.Sprintf("[FAIL] %s: %s", name, o.Error)
	}
}

func describe(o entity.Outcome) string {
	if o.IsTest {
		return "test file"
	}
	var parts []string
	for _, s := range []string{string(o.Instrument), string(o.Part), string(o.Key)} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		parts = append(parts, "unclassified")
	}
	desc := strings.Join(parts, " ") + " [" + string(o.Confidence) + "]"
	if o.Piece != "" && o.Piece != constants.UnknownPiece {
		desc += " piece=" + o.Piece
		if o.PieceAdopted {
			desc += " (adopted)"
		}
	}
	return desc
}

func ocrNote(o entity.Outcome) string {
	if o.OCR.Attempted && !o.OCR.OK {
		return " (ocr failed: " + o.OCR.Error + ")"
	}
	return ""
}

func relTarget(res *entity.BatchResult, target string) string {
	if rel, err := filepath.Rel(res.OutputDir, target); err == nil {
		return rel
	}
	return target
}

func percent(n, total int) string {
	if total == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.0f%%", float64(n)*100/float64(total))
}
