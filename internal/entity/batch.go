package entity

import (
	"time"

	"github.com/google/uuid"
)

// BatchResult is the ledger of one run. It is complete once the
// orchestrator returns it and is not modified afterwards.
type BatchResult struct {
	RunID      uuid.UUID `json:"run_id"`
	InputDir   string    `json:"input_dir"`
	OutputDir  string    `json:"output_dir"`
	OrgMode    string    `json:"org_mode"`
	Catalog    string    `json:"catalog_version"`
	DryRun     bool      `json:"dry_run"`
	Move       bool      `json:"move"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Canceled   bool      `json:"canceled,omitempty"`

	TotalFiles     int `json:"total_files"`
	Successful     int `json:"successful"`
	Failed         int `json:"failed"`
	OCRSuccesses   int `json:"ocr_successes"`
	Duplicates     int `json:"duplicates"`
	ArchivedAsTest int `json:"archived_as_test"`
	Excluded       int `json:"excluded"`

	Pieces        []string  `json:"pieces"`
	ExcludedFiles []string  `json:"excluded_files,omitempty"`
	Outcomes      []Outcome `json:"outcomes"`
}

// PiecesDetected is the number of distinct piece labels placed in the run.
func (b *BatchResult) PiecesDetected() int { return len(b.Pieces) }

func (b *BatchResult) Duration() time.Duration { return b.FinishedAt.Sub(b.StartedAt) }

// RunSummary is a ledger row describing a past run.
type RunSummary struct {
	RunID        uuid.UUID `json:"run_id"`
	InputDir     string    `json:"input_dir"`
	OutputDir    string    `json:"output_dir"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	DryRun       bool      `json:"dry_run"`
	TotalFiles   int       `json:"total_files"`
	Successful   int       `json:"successful"`
	Failed       int       `json:"failed"`
	Duplicates   int       `json:"duplicates"`
	OCRSuccesses int       `json:"ocr_successes"`
	Excluded     int       `json:"excluded"`
}

// Summary extracts the ledger row for b.
func (b *BatchResult) Summary() RunSummary {
	return RunSummary{
		RunID:        b.RunID,
		InputDir:     b.InputDir,
		OutputDir:    b.OutputDir,
		StartedAt:    b.StartedAt,
		FinishedAt:   b.FinishedAt,
		DryRun:       b.DryRun,
		TotalFiles:   b.TotalFiles,
		Successful:   b.Successful,
		Failed:       b.Failed,
		Duplicates:   b.Duplicates,
		OCRSuccesses: b.OCRSuccesses,
		Excluded:     b.Excluded,
	}
}
