package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/sheet-sorter/internal/common"
	repo "github.com/joseph-ayodele/sheet-sorter/internal/repository"
)

func newHistoryCmd(g *globalFlags) *cobra.Command {
	var (
		limit  int
		runID  string
		ledger string
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past runs from the ledger, or the outcomes of one run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.load(func(cfg *common.Config) {
				cfg.OCR.Disabled = true
				if ledger != "" {
					cfg.Ledger.DSN = ledger
				}
			})
			if err != nil {
				return err
			}
			if a.cfg.Ledger.DSN == "" {
				return common.NewAppError("CONFIG_ERROR", "ledger.dsn is not set (use --ledger or DB_URL)", common.ErrStructural)
			}
			ctx := cmd.Context()
			db, err := a.openLedger(ctx)
			if err != nil {
				return common.NewAppError("DATABASE_ERROR", err.Error(), common.ErrStructural)
			}
			defer db.Close()
			runs := repo.NewRunRepository(db, a.logger)

			if runID == "" {
				list, err := runs.ListRuns(ctx, limit)
				if err != nil {
					return err
				}
				if len(list) == 0 {
					fmt.Println(mutedStyle.Render("no runs recorded"))
					return nil
				}
				fmt.Println(renderRuns(list...))
				return nil
			}

			id, err := uuid.Parse(runID)
			if err != nil {
				return common.NewAppError("INPUT_ERROR", fmt.Sprintf("invalid run id %q", runID), common.ErrInvalidInput)
			}
			summary, err := runs.GetRun(ctx, id)
			if err != nil {
				return err
			}
			outcomes, err := runs.ListOutcomes(ctx, id)
			if err != nil {
				return err
			}
			fmt.Println(renderRuns(summary))
			for _, o := range outcomes {
				fmt.Println(renderOutcome(o, summary.OutputDir))
			}
			return nil
		},
	}
	fl := cmd.Flags()
	fl.IntVar(&limit, "limit", 20, "number of runs to list")
	fl.StringVar(&runID, "run", "", "show the outcomes of this run id")
	fl.StringVar(&ledger, "ledger", "", "run ledger DSN (overrides ledger.dsn and DB_URL)")
	return cmd
}
