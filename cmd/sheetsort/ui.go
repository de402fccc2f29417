package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/joseph-ayodele/sheet-sorter/constants"
	"github.com/joseph-ayodele/sheet-sorter/internal/entity"
)

var (
	primaryColor = lipgloss.Color("62")
	okColor      = lipgloss.Color("#04B575")
	warnColor    = lipgloss.Color("214")
	errColor     = lipgloss.Color("#FF0000")
	grayColor    = lipgloss.Color("240")

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(primaryColor).
			Padding(0, 1).
			Bold(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().Foreground(grayColor).Width(16)
	okStyle    = lipgloss.NewStyle().Foreground(okColor).Bold(true)
	dupStyle   = lipgloss.NewStyle().Foreground(warnColor).Bold(true)
	failStyle  = lipgloss.NewStyle().Foreground(errColor).Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(grayColor)
)

// renderOutcome is the one-line progress entry for a file.
func renderOutcome(o entity.Outcome, outputDir string) string {
	name := filepath.Base(o.Source)
	switch o.Status {
	case constants.StatusSuccess:
		target := o.Target
		if rel, err := filepath.Rel(outputDir, o.Target); err == nil {
			target = rel
		}
		return fmt.Sprintf("%s %s -> %s %s", okStyle.Render("OK  "), name, target,
			mutedStyle.Render(fmt.Sprintf("(%s, %s)", humanize.Bytes(uint64(o.Size)), o.Confidence)))
	case constants.StatusDuplicate:
		return fmt.Sprintf("%s %s %s", dupStyle.Render("DUP "), name,
			mutedStyle.Render(fmt.Sprintf("%s duplicate of %s", o.DuplicateKind, filepath.Base(o.DuplicateOf))))
	default:
		return fmt.Sprintf("%s %s: %s", failStyle.Render("FAIL"), name, o.Error)
	}
}

// renderSummary is the boxed end-of-run summary.
func renderSummary(res *entity.BatchResult) string {
	title := "Batch complete"
	switch {
	case res.Canceled:
		title = "Batch canceled"
	case res.DryRun:
		title = "Dry run complete"
	}
	rows := [][2]string{
		{"Files", fmt.Sprint(res.TotalFiles)},
		{"Placed", okStyle.Render(fmt.Sprint(res.Successful))},
		{"Duplicates", dupStyle.Render(fmt.Sprint(res.Duplicates))},
		{"Failed", failStyle.Render(fmt.Sprint(res.Failed))},
		{"OCR successes", fmt.Sprintf("%d/%d", res.OCRSuccesses, res.TotalFiles)},
		{"Test archive", fmt.Sprint(res.ArchivedAsTest)},
		{"Pieces", fmt.Sprint(res.PiecesDetected())},
		{"Excluded", fmt.Sprint(res.Excluded)},
		{"Duration", res.Duration().Round(time.Millisecond).String()},
		{"Output", res.OutputDir},
	}
	body := headerStyle.Render(title) + "\n" + renderTable(rows)
	if len(res.Pieces) > 0 {
		body += "\n" + mutedStyle.Render("pieces: "+strings.Join(res.Pieces, ", "))
	}
	return boxStyle.Render(body)
}

func renderTable(rows [][2]string) string {
	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		if r[1] == "" {
			r[1] = mutedStyle.Render("-")
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(r[0]), r[1]))
	}
	return strings.Join(lines, "\n")
}

func renderRuns(runs ...entity.RunSummary) string {
	lines := []string{headerStyle.Render("Runs")}
	for _, r := range runs {
		mode := ""
		if r.DryRun {
			mode = mutedStyle.Render(" dry-run")
		}
		lines = append(lines, fmt.Sprintf("%s  %s  %s  files=%d ok=%s dup=%s fail=%s%s",
			r.RunID.String(),
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			humanize.Time(r.StartedAt),
			r.TotalFiles,
			okStyle.Render(fmt.Sprint(r.Successful)),
			dupStyle.Render(fmt.Sprint(r.Duplicates)),
			failStyle.Render(fmt.Sprint(r.Failed)),
			mode,
		))
		lines = append(lines, mutedStyle.Render("  "+r.InputDir+" -> "+r.OutputDir))
	}
	return strings.Join(lines, "\n")
}
