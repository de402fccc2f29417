package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/sheet-sorter/internal/async"
	"github.com/joseph-ayodele/sheet-sorter/internal/common"
	"github.com/joseph-ayodele/sheet-sorter/internal/dedup"
	"github.com/joseph-ayodele/sheet-sorter/internal/ingest"
	"github.com/joseph-ayodele/sheet-sorter/internal/piece"
)

func newWatchCmd(g *globalFlags) *cobra.Command {
	f := &processFlags{}
	cmd := &cobra.Command{
		Use:   "watch <input_dir> <output_dir>",
		Short: "Process the input directory now and again whenever new PDFs settle in it",
		Long: "watch drains the input directory: files are always moved, so a file\n" +
			"is sorted once no matter how many batches run. Duplicates stay in the\n" +
			"input directory and are recognised again by every later batch.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.load(func(cfg *common.Config) {
				f.apply(cfg)
				cfg.Batch.Move = true
			})
			if err != nil {
				return err
			}
			a.dups, a.pieces = dedup.NewRegistry(), piece.NewRegistry()
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			in, out := args[0], args[1]

			events, err := ingest.Watch(ctx, ingest.WatchConfig{
				Root:      in,
				Recursive: a.cfg.Batch.Recursive,
				Debounce:  a.cfg.WatchDebounce(),
			}, a.logger)
			if err != nil {
				return common.NewAppError("INPUT_ERROR", "watch "+in+": "+err.Error(), common.ErrStructural)
			}

			var fatal error
			queue := async.NewBatchQueue(ctx, func(ctx context.Context, job async.Job) error {
				_, err := a.runBatch(ctx, job.InputDir, job.OutputDir)
				return err
			}, a.logger, async.WithErrorHandler(func(_ async.Job, err error) {
				if common.IsStructural(err) {
					fatal = err
					cancel()
				}
			}))

			a.logger.Info("watch.started", "input", in, "debounce", a.cfg.WatchDebounce().String())
			_ = queue.Enqueue(ctx, async.Job{InputDir: in, OutputDir: out, Reason: "startup"})
			for range events {
				_ = queue.Enqueue(ctx, async.Job{InputDir: in, OutputDir: out, Reason: "watch"})
			}
			queue.Shutdown(context.Background())
			a.logger.Info("watch.stopped")
			return fatal
		},
	}
	f.register(cmd)
	return cmd
}
