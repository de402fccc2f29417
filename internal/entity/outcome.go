package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/sheet-sorter/constants"
)

// Outcome is the recorded result of one file in a batch.
type Outcome struct {
	ID       uuid.UUID        `json:"id"`
	Index    int              `json:"index"`
	Source   string           `json:"source"`
	Target   string           `json:"target,omitempty"`
	Status   constants.Status `json:"status"`
	Stage    constants.Stage  `json:"stage"`
	FailedAt constants.Stage  `json:"failed_at,omitempty"`
	Error    string           `json:"error,omitempty"`

	Size        int64  `json:"size"`
	Pages       int    `json:"pages,omitempty"`
	ContentHash string `json:"content_hash,omitempty"`
	TextHash    string `json:"text_hash,omitempty"`

	OCR OCRSummary `json:"ocr"`

	Instrument constants.Instrument `json:"instrument,omitempty"`
	Part       constants.Part       `json:"part,omitempty"`
	Key        constants.Key        `json:"key,omitempty"`
	Confidence constants.Confidence `json:"confidence"`

	Piece           string               `json:"piece,omitempty"`
	PieceConfidence constants.Confidence `json:"piece_confidence,omitempty"`
	PieceSource     string               `json:"piece_source,omitempty"`
	PieceAdopted    bool                 `json:"piece_adopted,omitempty"`
	Composer        string               `json:"composer,omitempty"`
	Title           string               `json:"title,omitempty"`

	IsTest        bool                    `json:"is_test,omitempty"`
	DuplicateOf   string                  `json:"duplicate_of,omitempty"`
	DuplicateKind constants.DuplicateKind `json:"duplicate_kind,omitempty"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// OCRSummary describes the OCR attempt for a file.
type OCRSummary struct {
	Attempted  bool          `json:"attempted"`
	OK         bool          `json:"ok"`
	Method     string        `json:"method,omitempty"`
	RequestID  string        `json:"request_id,omitempty"`
	Chars      int           `json:"chars"`
	Compressed bool          `json:"compressed,omitempty"`
	Duration   time.Duration `json:"duration_ns,omitempty"`
	Error      string        `json:"error,omitempty"`
}

func (o Outcome) Succeeded() bool { return o.Status == constants.StatusSuccess }
