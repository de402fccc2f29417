package export

import (
	"fmt"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/sheet-sorter/internal/entity"
)

const (
	summarySheet = "Summary"
	filesSheet   = "Files"
)

// XLSX returns a workbook (as bytes) with a Summary sheet of run counts and
// a Files sheet with one row per outcome.
func XLSX(res *entity.BatchResult) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	// the default sheet becomes the summary
	if err := f.SetSheetName(f.GetSheetName(0), summarySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(filesSheet); err != nil {
		return nil, err
	}

	summary := [][2]any{
		{"Run", res.RunID.String()},
		{"Started", res.StartedAt.Local().Format("2006-01-02 15:04:05")},
		{"Finished", res.FinishedAt.Local().Format("2006-01-02 15:04:05")},
		{"Input", res.InputDir},
		{"Output", res.OutputDir},
		{"Organization", res.OrgMode},
		{"Catalog", res.Catalog},
		{"Dry run", res.DryRun},
		{"Total files", res.TotalFiles},
		{"Successful", res.Successful},
		{"Failed", res.Failed},
		{"Duplicates", res.Duplicates},
		{"OCR successes", res.OCRSuccesses},
		{"Archived as test", res.ArchivedAsTest},
		{"Excluded", res.Excluded},
		{"Pieces detected", res.PiecesDetected()},
	}
	for i, kv := range summary {
		if err := f.SetSheetRow(summarySheet, fmt.Sprintf("A%d", i+1), &[]any{kv[0], kv[1]}); err != nil {
			return nil, err
		}
	}
	_ = f.SetColWidth(summarySheet, "A", "A", 20)
	_ = f.SetColWidth(summarySheet, "B", "B", 60)

	headers := []any{
		"#", "File", "Status", "Instrument", "Part", "Key", "Confidence",
		"Piece", "Piece Confidence", "Test File", "OCR", "Pages", "Size (bytes)",
		"Target", "Duplicate Of", "Error",
	}
	if err := f.SetSheetRow(filesSheet, "A1", &headers); err != nil {
		return nil, err
	}
	for i, o := range res.Outcomes {
		ocrState := "skipped"
		switch {
		case o.OCR.OK:
			ocrState = "ok"
		case o.OCR.Attempted:
			ocrState = "failed"
		}
		row := []any{
			o.Index + 1,
			filepath.Base(o.Source),
			string(o.Status),
			string(o.Instrument),
			string(o.Part),
			string(o.Key),
			string(o.Confidence),
			o.Piece,
			string(o.PieceConfidence),
			o.IsTest,
			ocrState,
			o.Pages,
			o.Size,
			o.Target,
			o.DuplicateOf,
			truncate(o.Error, 200),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(filesSheet, cell, &row); err != nil {
			return nil, err
		}
	}

	// Widen a few columns
	_ = f.SetColWidth(filesSheet, "B", "B", 32) // file
	_ = f.SetColWidth(filesSheet, "D", "D", 14) // instrument
	_ = f.SetColWidth(filesSheet, "H", "H", 28) // piece
	_ = f.SetColWidth(filesSheet, "N", "O", 60) // paths
	_ = f.SetColWidth(filesSheet, "P", "P", 48) // error

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
