package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/sheet-sorter/internal/classify"
	"github.com/joseph-ayodele/sheet-sorter/internal/common"
	"github.com/joseph-ayodele/sheet-sorter/internal/entity"
	"github.com/joseph-ayodele/sheet-sorter/internal/export"
	"github.com/joseph-ayodele/sheet-sorter/internal/pdf"
	"github.com/joseph-ayodele/sheet-sorter/internal/piece"
	"github.com/joseph-ayodele/sheet-sorter/internal/pipeline"
	repo "github.com/joseph-ayodele/sheet-sorter/internal/repository"
)

type processFlags struct {
	dryRun        bool
	move          bool
	noOCR         bool
	recursive     bool
	noLabel       bool
	maxBatch      int
	apiKey        string
	orgMode       string
	ledger        string
	reportDir     string
	reportFormats []string
}

func (f *processFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.BoolVar(&f.dryRun, "dry-run", false, "report what would happen without touching the filesystem")
	fl.BoolVar(&f.move, "move", false, "move files instead of copying them")
	fl.BoolVar(&f.noOCR, "no-ocr", false, "classify from filenames only")
	fl.BoolVar(&f.recursive, "recursive", false, "descend into subdirectories of the input")
	fl.BoolVar(&f.noLabel, "no-label", false, "do not write classification properties into placed PDFs")
	fl.IntVar(&f.maxBatch, "max-batch", 0, "maximum files per run (default from config, 25)")
	fl.StringVar(&f.apiKey, "api-key", "", "OCR.space API key (overrides OCR_API_KEY)")
	fl.StringVar(&f.orgMode, "org-mode", "", "piece_first, instrument_first or instrument_only")
	fl.StringVar(&f.ledger, "ledger", "", "run ledger DSN: postgres://... or a sqlite file path")
	fl.StringVar(&f.reportDir, "report-dir", "", "where reports go (default <output>/reports)")
	fl.StringSliceVar(&f.reportFormats, "report-format", nil, "report formats: txt, json, xlsx")
}

func (f *processFlags) apply(cfg *common.Config) {
	if f.dryRun {
		cfg.Batch.DryRun = true
	}
	if f.move {
		cfg.Batch.Move = true
	}
	if f.noOCR {
		cfg.OCR.Disabled = true
	}
	if f.recursive {
		cfg.Batch.Recursive = true
	}
	if f.noLabel {
		cfg.Batch.LabelPDFs = false
	}
	if f.maxBatch > 0 {
		cfg.Batch.MaxBatch = f.maxBatch
	}
	if f.apiKey != "" {
		cfg.OCR.APIKey = f.apiKey
	}
	if f.orgMode != "" {
		cfg.Batch.OrgMode = f.orgMode
	}
	if f.ledger != "" {
		cfg.Ledger.DSN = f.ledger
	}
	if f.reportDir != "" {
		cfg.Report.Dir = f.reportDir
	}
	if len(f.reportFormats) > 0 {
		cfg.Report.Formats = f.reportFormats
	}
}

func newProcessCmd(g *globalFlags) *cobra.Command {
	f := &processFlags{}
	cmd := &cobra.Command{
		Use:   "process <input_dir> <output_dir>",
		Short: "Classify and place one batch of PDFs",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.load(f.apply)
			if err != nil {
				return err
			}
			res, err := a.runBatch(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if res.Canceled {
				return errCanceled
			}
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

// runBatch runs one batch, prints progress and the summary, then writes
// reports and the ledger entry.
func (a *app) runBatch(ctx context.Context, inputDir, outputDir string) (*entity.BatchResult, error) {
	cfg := a.cfg
	proc := pipeline.NewProcessor(a.logger, pipeline.Options{
		MaxBatch:    cfg.Batch.MaxBatch,
		Recursive:   cfg.Batch.Recursive,
		MaxFileSize: cfg.MaxFileSizeBytes(),
		UploadLimit: cfg.UploadLimitBytes(),
		OrgMode:     a.orgMode(),
		Move:        cfg.Batch.Move,
		DryRun:      cfg.Batch.DryRun,
		LabelPDFs:   cfg.Batch.LabelPDFs,
		TempDir:     cfg.Batch.TempDir,
		OnOutcome: func(o entity.Outcome) {
			fmt.Println(renderOutcome(o, outputDir))
		},
		Duplicates: a.dups,
		Pieces:     a.pieces,
	}, classify.New(a.catalog), piece.NewResolver(a.catalog), a.extractor(), pdf.NewToolkit(a.logger), nil)

	res, err := proc.Run(ctx, inputDir, outputDir)
	if err != nil {
		return nil, err
	}
	fmt.Println(renderSummary(res))

	if !res.DryRun {
		dir := cfg.Report.Dir
		if dir == "" {
			dir = filepath.Join(res.OutputDir, "reports")
		}
		paths, err := export.NewService(a.logger).WriteReports(res, dir, cfg.Report.Formats)
		if err != nil {
			a.logger.Error("report.write_failed", "dir", dir, "error", err)
		}
		for _, p := range paths {
			fmt.Println(mutedStyle.Render("report: " + p))
		}
	}

	// context.WithoutCancel keeps an interrupted run's history.
	a.saveLedger(context.WithoutCancel(ctx), res)
	return res, nil
}

// saveLedger records the run when a ledger is configured. Ledger problems
// are logged; they never fail a batch that already placed files.
func (a *app) saveLedger(ctx context.Context, res *entity.BatchResult) {
	if a.cfg.Ledger.DSN == "" {
		return
	}
	db, err := a.openLedger(ctx)
	if err != nil {
		a.logger.Error("ledger.open_failed", "error", err)
		return
	}
	defer db.Close()
	if err := repo.NewRunRepository(db, a.logger).SaveRun(ctx, res); err != nil {
		a.logger.Error("ledger.save_failed", "run_id", res.RunID.String(), "error", err)
		return
	}
	a.logger.Info("ledger.saved", "run_id", res.RunID.String(), "outcomes", len(res.Outcomes))
}

func (a *app) openLedger(ctx context.Context) (*repo.DB, error) {
	return repo.Open(ctx, repo.Config{
		DSN:         a.cfg.Ledger.DSN,
		MaxConns:    a.cfg.Ledger.MaxConns,
		DialTimeout: a.cfg.LedgerDialTimeout(),
	}, a.logger)
}
