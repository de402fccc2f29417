package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/sheet-sorter/constants"
	"github.com/joseph-ayodele/sheet-sorter/internal/common"
	"github.com/joseph-ayodele/sheet-sorter/internal/entity"
)

// timeLayout is fixed-width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type RunRepository interface {
	SaveRun(ctx context.Context, res *entity.BatchResult) error
	GetRun(ctx context.Context, runID uuid.UUID) (entity.RunSummary, error)
	ListRuns(ctx context.Context, limit int) ([]entity.RunSummary, error)
	ListOutcomes(ctx context.Context, runID uuid.UUID) ([]entity.Outcome, error)
}

type runRepo struct {
	db     *DB
	logger *slog.Logger
}

func NewRunRepository(db *DB, logger *slog.Logger) RunRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &runRepo{db: db, logger: logger}
}

// SaveRun stores a finished batch and all of its outcomes in one
// transaction.
func (r *runRepo) SaveRun(ctx context.Context, res *entity.BatchResult) error {
	insertRun := r.db.Rebind(`INSERT INTO runs (
		run_id, input_dir, output_dir, org_mode, catalog_version, dry_run, canceled,
		started_at, finished_at, total_files, successful, failed, duplicates,
		ocr_successes, archived_as_test, excluded
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	insertOutcome := r.db.Rebind(`INSERT INTO outcomes (
		id, run_id, idx, source, target, status, stage, failed_at, error, size, pages,
		content_hash, text_hash, instrument, part, music_key, confidence, piece,
		piece_confidence, is_test, ocr_ok, duplicate_of, duplicate_kind, finished_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	err := WithTx(ctx, r.db.SQL, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, insertRun,
			res.RunID.String(), res.InputDir, res.OutputDir, res.OrgMode, res.Catalog,
			boolInt(res.DryRun), boolInt(res.Canceled),
			formatTime(res.StartedAt), formatTime(res.FinishedAt),
			res.TotalFiles, res.Successful, res.Failed, res.Duplicates,
			res.OCRSuccesses, res.ArchivedAsTest, res.Excluded,
		); err != nil {
			return fmt.Errorf("insert run: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx, insertOutcome)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, o := range res.Outcomes {
			if _, err := stmt.ExecContext(ctx,
				o.ID.String(), res.RunID.String(), o.Index, o.Source, o.Target,
				string(o.Status), string(o.Stage), string(o.FailedAt), o.Error, o.Size, o.Pages,
				o.ContentHash, o.TextHash, string(o.Instrument), string(o.Part), string(o.Key),
				string(o.Confidence), o.Piece, string(o.PieceConfidence),
				boolInt(o.IsTest), boolInt(o.OCR.OK), o.DuplicateOf, string(o.DuplicateKind),
				formatTime(o.FinishedAt),
			); err != nil {
				return fmt.Errorf("insert outcome %d: %w", o.Index, err)
			}
		}
		return nil
	})
	if err != nil {
		r.logger.Error("failed to save run", "run_id", res.RunID, "error", err)
		return common.WrapError(errors.Join(common.ErrDatabase, err), "save run")
	}
	r.logger.Info("repository.run.saved", "run_id", res.RunID, "outcomes", len(res.Outcomes))
	return nil
}

const runColumns = `run_id, input_dir, output_dir, dry_run, started_at, finished_at,
	total_files, successful, failed, duplicates, ocr_successes, excluded`

func scanRun(s Scanner) (entity.RunSummary, error) {
	var (
		rs                entity.RunSummary
		id, start, finish string
		dryRun            int
	)
	if err := s.Scan(&id, &rs.InputDir, &rs.OutputDir, &dryRun, &start, &finish,
		&rs.TotalFiles, &rs.Successful, &rs.Failed, &rs.Duplicates, &rs.OCRSuccesses, &rs.Excluded); err != nil {
		return rs, err
	}
	var err error
	if rs.RunID, err = uuid.Parse(id); err != nil {
		return rs, err
	}
	rs.DryRun = dryRun != 0
	rs.StartedAt, rs.FinishedAt = parseTime(start), parseTime(finish)
	return rs, nil
}

func (r *runRepo) GetRun(ctx context.Context, runID uuid.UUID) (entity.RunSummary, error) {
	q := r.db.Rebind(`SELECT ` + runColumns + ` FROM runs WHERE run_id = ?`)
	rs, err := QueryOne(ctx, r.db.SQL, q, []any{runID.String()}, scanRun)
	if errors.Is(err, sql.ErrNoRows) {
		return rs, fmt.Errorf("run %s: %w", runID, common.ErrNotFound)
	}
	return rs, err
}

// ListRuns returns the most recent runs first; limit <= 0 means 20.
func (r *runRepo) ListRuns(ctx context.Context, limit int) ([]entity.RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	q := r.db.Rebind(`SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC LIMIT ?`)
	return QueryMany(ctx, r.db.SQL, q, []any{limit}, scanRun)
}

func (r *runRepo) ListOutcomes(ctx context.Context, runID uuid.UUID) ([]entity.Outcome, error) {
	q := r.db.Rebind(`SELECT id, idx, source, target, status, stage, failed_at, error, size, pages,
		content_hash, text_hash, instrument, part, music_key, confidence, piece,
		piece_confidence, is_test, ocr_ok, duplicate_of, duplicate_kind, finished_at
		FROM outcomes WHERE run_id = ? ORDER BY idx`)
	return QueryMany(ctx, r.db.SQL, q, []any{runID.String()}, scanOutcome)
}

func scanOutcome(s Scanner) (entity.Outcome, error) {
	var o entity.Outcome
	var id, status, stage, failedAt, instrument, part, key string
	var confidence, pieceConfidence, dupKind, finished string
	var isTest, ocrOK int
	if err := s.Scan(&id, &o.Index, &o.Source, &o.Target, &status, &stage, &failedAt, &o.Error,
		&o.Size, &o.Pages, &o.ContentHash, &o.TextHash, &instrument, &part, &key, &confidence,
		&o.Piece, &pieceConfidence, &isTest, &ocrOK, &o.DuplicateOf, &dupKind, &finished); err != nil {
		return o, err
	}
	var err error
	if o.ID, err = uuid.Parse(id); err != nil {
		return o, err
	}
	o.Status, o.Stage, o.FailedAt = constants.Status(status), constants.Stage(stage), constants.Stage(failedAt)
	o.Instrument, o.Part, o.Key = constants.Instrument(instrument), constants.Part(part), constants.Key(key)
	o.Confidence, o.PieceConfidence = constants.Confidence(confidence), constants.Confidence(pieceConfidence)
	o.DuplicateKind = constants.DuplicateKind(dupKind)
	o.IsTest = isTest != 0
	o.OCR.OK = ocrOK != 0
	o.FinishedAt = parseTime(finished)
	return o, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
