package constants

// Stage is the last state a file reached in the per-file pipeline.
type Stage string

// Stable values (stored as-is in the run ledger).
const (
	StageDiscovered       Stage = "DISCOVERED"
	StageValidated        Stage = "VALIDATED"
	StageOCRAttempted     Stage = "OCR_ATTEMPTED"
	StageClassified       Stage = "CLASSIFIED"
	StageDuplicateChecked Stage = "DUPLICATE_CHECKED"
	StagePlaced           Stage = "PLACED"
	StageRegistered       Stage = "REGISTERED"
	StageFailed           Stage = "FAILED"
)

// Status is the terminal outcome of one file.
type Status string

const (
	StatusSuccess   Status = "SUCCESS"
	StatusFailed    Status = "FAILED"
	StatusDuplicate Status = "DUPLICATE"
	StatusExcluded  Status = "EXCLUDED" // over the batch ceiling, untouched
)

// DuplicateKind tells which hash matched.
type DuplicateKind string

const (
	DuplicateExact DuplicateKind = "exact"
	DuplicateNear  DuplicateKind = "near"
)
