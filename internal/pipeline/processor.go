// Package pipeline runs a batch: discover, then for each file validate, OCR,
// classify, check for duplicates, place and register, one file at a time.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/sheet-sorter/constants"
	"github.com/joseph-ayodele/sheet-sorter/internal/classify"
	"github.com/joseph-ayodele/sheet-sorter/internal/common"
	"github.com/joseph-ayodele/sheet-sorter/internal/dedup"
	"github.com/joseph-ayodele/sheet-sorter/internal/entity"
	"github.com/joseph-ayodele/sheet-sorter/internal/ingest"
	"github.com/joseph-ayodele/sheet-sorter/internal/ocr"
	"github.com/joseph-ayodele/sheet-sorter/internal/pdf"
	"github.com/joseph-ayodele/sheet-sorter/internal/piece"
	"github.com/joseph-ayodele/sheet-sorter/internal/placement"
)

// PDFToolkit is the subset of pdf.Toolkit the processor uses.
type PDFToolkit interface {
	Validate(path string, maxSize int64) (int, error)
	Compress(ctx context.Context, path, tempDir string) (string, error)
	Label(path string, props map[string]string) error
}

// Options holds the per-run behaviour flags.
type Options struct {
	MaxBatch    int
	Recursive   bool
	MaxFileSize int64 // hard ceiling; 0 -> pdf.DefaultMaxSize
	UploadLimit int64 // compress before OCR above this size; 0 -> never
	OrgMode     constants.OrgMode
	Move        bool
	DryRun      bool
	LabelPDFs   bool
	// TempDir is the parent of the run's scratch directory; "" -> os.TempDir.
	TempDir string
	// OnOutcome, when set, is called after each file with its outcome.
	OnOutcome func(entity.Outcome)
	// Duplicates and Pieces carry state across runs when set; otherwise each
	// run starts with empty registries.
	Duplicates *dedup.Registry
	Pieces     *piece.Registry
}

type Processor struct {
	logger     *slog.Logger
	opts       Options
	classifier *classify.Classifier
	resolver   *piece.Resolver
	extractor  ocr.TextExtractor
	toolkit    PDFToolkit
	placer     placement.Placer
	builder    placement.Builder
}

// NewProcessor wires a processor. A nil extractor runs without OCR; a nil
// placer picks the filesystem placer, or the dry-run placer when
// opts.DryRun is set.
func NewProcessor(
	logger *slog.Logger,
	opts Options,
	classifier *classify.Classifier,
	resolver *piece.Resolver,
	extractor ocr.TextExtractor,
	toolkit PDFToolkit,
	placer placement.Placer,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = pdf.DefaultMaxSize
	}
	if toolkit == nil {
		toolkit = pdf.NewToolkit(logger)
	}
	return &Processor{
		logger:     logger,
		opts:       opts,
		classifier: classifier,
		resolver:   resolver,
		extractor:  extractor,
		toolkit:    toolkit,
		placer:     placer,
		builder:    placement.NewBuilder(opts.OrgMode),
	}
}

// run is the mutable state of one batch.
type run struct {
	id       uuid.UUID
	logger   *slog.Logger
	output   string
	tempDir  string
	placer   placement.Placer
	dups     *dedup.Registry
	pieces   *piece.Registry
	result   *entity.BatchResult
	progress func(entity.Outcome)
}

// Run processes the PDFs in inputDir into outputDir. Structural problems
// (missing input, unusable output or scratch directory) are returned as
// errors; anything that goes wrong with a single file is recorded in that
// file's outcome and the batch moves on.
func (p *Processor) Run(ctx context.Context, inputDir, outputDir string) (*entity.BatchResult, error) {
	runID := uuid.New()
	logger := p.logger.With("run_id", runID.String())
	ctx = common.WithRunID(ctx, runID.String())

	found, err := ingest.Discover(inputDir, ingest.Options{Recursive: p.opts.Recursive, MaxBatch: p.opts.MaxBatch}, logger)
	if err != nil {
		return nil, err
	}
	outAbs, err := filepath.Abs(outputDir)
	if err != nil {
		return nil, common.NewAppError("OUTPUT_ERROR", fmt.Sprintf("resolve %s: %v", outputDir, err), common.ErrStructural)
	}
	if !p.opts.DryRun {
		if err := os.MkdirAll(outAbs, 0o755); err != nil {
			return nil, common.NewAppError("OUTPUT_ERROR", fmt.Sprintf("create %s: %v", outputDir, err), common.ErrStructural)
		}
	}
	tempDir, err := os.MkdirTemp(p.opts.TempDir, "sheetsort-"+runID.String()[:8]+"-")
	if err != nil {
		return nil, common.NewAppError("TEMP_ERROR", err.Error(), common.ErrStructural)
	}
	defer func() {
		if err := os.RemoveAll(tempDir); err != nil {
			logger.Warn("pipeline.tempdir.cleanup_failed", "dir", tempDir, "error", err)
		}
	}()

	r := &run{
		id:       runID,
		logger:   logger,
		output:   outAbs,
		tempDir:  tempDir,
		placer:   p.placerFor(logger),
		dups:     p.opts.Duplicates,
		pieces:   p.opts.Pieces,
		progress: p.opts.OnOutcome,
		result: &entity.BatchResult{
			RunID:         runID,
			InputDir:      found.Root,
			OutputDir:     outAbs,
			OrgMode:       string(p.builder.Mode),
			Catalog:       p.classifier.Catalog().Version(),
			DryRun:        p.opts.DryRun,
			Move:          p.opts.Move,
			StartedAt:     time.Now().UTC(),
			TotalFiles:    len(found.Files),
			Excluded:      len(found.Excluded),
			ExcludedFiles: found.Excluded,
			Outcomes:      make([]entity.Outcome, 0, len(found.Files)),
		},
	}
	if r.dups == nil {
		r.dups = dedup.NewRegistry()
	}
	if r.pieces == nil {
		r.pieces = piece.NewRegistry()
	}

	logger.Info("pipeline.run.start",
		"input", found.Root,
		"output", outAbs,
		"files", len(found.Files),
		"excluded", len(found.Excluded),
		"ocr", p.extractor != nil,
		"dry_run", p.opts.DryRun,
	)

	for i, path := range found.Files {
		if err := ctx.Err(); err != nil {
			r.result.Canceled = true
			for j, rest := range found.Files[i:] {
				r.add(canceledOutcome(i+j, rest, err))
			}
			logger.Warn("pipeline.run.canceled", "processed", i, "remaining", len(found.Files)-i)
			break
		}
		r.add(p.processFile(ctx, r, i, path))
	}

	r.finish()
	logger.Info("pipeline.run.done",
		"total", r.result.TotalFiles,
		"successful", r.result.Successful,
		"failed", r.result.Failed,
		"duplicates", r.result.Duplicates,
		"ocr_successes", r.result.OCRSuccesses,
		"archived_as_test", r.result.ArchivedAsTest,
		"pieces", r.result.PiecesDetected(),
		"duration", r.result.Duration().String(),
	)
	return r.result, nil
}

func (p *Processor) placerFor(logger *slog.Logger) placement.Placer {
	switch {
	case p.placer != nil:
		return p.placer
	case p.opts.DryRun:
		return placement.NewDryRunPlacer()
	default:
		return placement.NewFSPlacer(logger)
	}
}

func (r *run) add(o entity.Outcome) {
	res := r.result
	switch o.Status {
	case constants.StatusSuccess:
		res.Successful++
		if o.IsTest {
			res.ArchivedAsTest++
		}
	case constants.StatusDuplicate:
		res.Duplicates++
	default:
		res.Failed++
	}
	if o.OCR.OK {
		res.OCRSuccesses++
	}
	res.Outcomes = append(res.Outcomes, o)
	if r.progress != nil {
		r.progress(o)
	}
}

func (r *run) finish() {
	r.result.Pieces = r.pieces.Labels()
	r.result.FinishedAt = time.Now().UTC()
}

func canceledOutcome(index int, path string, cause error) entity.Outcome {
	now := time.Now().UTC()
	return entity.Outcome{
		ID:         uuid.New(),
		Index:      index,
		Source:     path,
		Status:     constants.StatusFailed,
		Stage:      constants.StageFailed,
		FailedAt:   constants.StageDiscovered,
		Error:      "run canceled before this file: " + cause.Error(),
		Confidence: constants.ConfidenceLow,
		StartedAt:  now,
		FinishedAt: now,
	}
}

// processFile drives one file through the state machine. It never returns
// an error: every failure ends up in the outcome.
func (p *Processor) processFile(ctx context.Context, r *run, index int, path string) entity.Outcome {
	logger := r.logger.With("file", filepath.Base(path))
	o := entity.Outcome{
		ID:         uuid.New(),
		Index:      index,
		Source:     path,
		Stage:      constants.StageDiscovered,
		Confidence: constants.ConfidenceLow,
		StartedAt:  time.Now().UTC(),
	}
	fail := func(err error) entity.Outcome {
		o.Status = constants.StatusFailed
		o.FailedAt = o.Stage
		o.Stage = constants.StageFailed
		o.Error = err.Error()
		o.FinishedAt = time.Now().UTC()
		logger.Error("pipeline.file.failed", "stage", o.FailedAt, "error", err)
		return o
	}

	pages, err := p.toolkit.Validate(path, p.opts.MaxFileSize)
	if err != nil {
		return fail(fmt.Errorf("validation: %w", err))
	}
	contentHash, size, err := dedup.HashFile(path)
	if err != nil {
		return fail(err)
	}
	o.Pages, o.Size, o.ContentHash = pages, size, contentHash
	o.Stage = constants.StageValidated

	// the outcome id doubles as the OCR request id
	text := p.extractText(common.WithRequestID(ctx, o.ID.String()), r, logger, path, size, &o.OCR)
	o.Stage = constants.StageOCRAttempted

	base := filepath.Base(path)
	rec := p.classifier.ClassifyFile(text, base)
	isTest := p.classifier.IsTestFile(base)
	o.Instrument, o.Part, o.Key, o.Confidence, o.IsTest = rec.Instrument, rec.Part, rec.Key, rec.Confidence, isTest
	o.TextHash = dedup.HashText(text)
	o.Stage = constants.StageClassified
	logger.Debug("pipeline.file.classified",
		"instrument", rec.Instrument,
		"part", rec.Part,
		"key", rec.Key,
		"confidence", rec.Confidence,
		"test", isTest,
	)

	if m, dup := r.dups.Check(dedup.Candidate{Path: path, ContentHash: contentHash, TextHash: o.TextHash}); dup {
		o.Stage = constants.StageDuplicateChecked
		o.Status = constants.StatusDuplicate
		o.DuplicateKind = m.Kind
		o.DuplicateOf = m.Original.Path
		o.FinishedAt = time.Now().UTC()
		logger.Info("pipeline.file.duplicate", "kind", m.Kind, "original", m.Original.Path)
		return o
	}
	o.Stage = constants.StageDuplicateChecked

	id := p.resolver.Resolve(text, path, r.pieces)
	if !isTest {
		o.Piece, o.PieceConfidence, o.PieceSource, o.PieceAdopted = id.Label, id.Confidence, string(id.Source), id.Adopted
		o.Composer, o.Title = id.Composer, id.Title
	}

	target := p.builder.Build(rec, id, r.output, path, isTest)
	placed, err := r.placer.Place(ctx, path, target, p.opts.Move)
	if err != nil {
		return fail(fmt.Errorf("place: %w", err))
	}
	o.Target = placed
	o.Stage = constants.StagePlaced

	if p.opts.LabelPDFs && !p.opts.DryRun && !p.opts.Move && !isTest {
		if err := p.toolkit.Label(placed, labelProps(rec, id, p.classifier.Catalog().Version())); err != nil {
			logger.Warn("pipeline.file.label_failed", "target", placed, "error", err)
		}
	}

	r.dups.Register(dedup.FileRecord{
		Path:        path,
		PlacedPath:  placed,
		Size:        size,
		ContentHash: contentHash,
		TextHash:    o.TextHash,
		Instrument:  rec.Instrument,
		Part:        rec.Part,
		Key:         rec.Key,
	})
	if !isTest {
		r.pieces.Record(filepath.Dir(path), id)
	}
	o.Stage = constants.StageRegistered
	o.Status = constants.StatusSuccess
	o.FinishedAt = time.Now().UTC()
	logger.Info("pipeline.file.placed", "target", placed, "piece", o.Piece, "confidence", o.Confidence)
	return o
}

func labelProps(rec classify.Record, id piece.Identity, catalogVersion string) map[string]string {
	props := map[string]string{
		"Instrument": string(rec.Instrument),
		"Part":       string(rec.Part),
		"Key":        string(rec.Key),
		"Confidence": string(rec.Confidence),
		"Classifier": "sheetsort catalog " + catalogVersion,
	}
	if !id.IsUnknown() {
		props["Piece"] = id.Label
	}
	if id.Composer != "" {
		props["Composer"] = id.Composer
	}
	return props
}
