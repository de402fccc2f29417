package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/sheet-sorter/internal/classify"
	"github.com/joseph-ayodele/sheet-sorter/internal/common"
	"github.com/joseph-ayodele/sheet-sorter/internal/piece"
	"github.com/joseph-ayodele/sheet-sorter/internal/placement"
)

func newClassifyCmd(g *globalFlags) *cobra.Command {
	var text, file, orgMode, output string
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify OCR text and a filename offline and preview the target path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if text == "" && file == "" {
				return common.NewAppError("INPUT_ERROR", "--text or --file is required", common.ErrStructural)
			}
			a, err := g.load(func(cfg *common.Config) {
				cfg.OCR.Disabled = true
				if orgMode != "" {
					cfg.Batch.OrgMode = orgMode
				}
			})
			if err != nil {
				return err
			}

			c := classify.New(a.catalog)
			name := filepath.Base(file)
			rec := c.ClassifyFile(text, name)
			isTest := c.IsTestFile(name)
			id := piece.NewResolver(a.catalog).Resolve(text, file, nil)
			target := placement.NewBuilder(a.orgMode()).Build(rec, id, output, name, isTest)

			rows := [][2]string{
				{"Instrument", string(rec.Instrument)},
				{"Part", string(rec.Part)},
				{"Key", string(rec.Key)},
				{"Confidence", string(rec.Confidence)},
				{"Piece", id.Label},
				{"Piece source", string(id.Source)},
				{"Composer", id.Composer},
				{"Style", id.Style},
				{"Test file", fmt.Sprint(isTest)},
				{"Catalog", a.catalog.Version()},
				{"Target", target.Path()},
			}
			fmt.Println(renderTable(rows))
			return nil
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&text, "text", "", "OCR text to classify")
	fl.StringVar(&file, "file", "", "source filename, used for filename hints")
	fl.StringVar(&orgMode, "org-mode", "", "piece_first, instrument_first or instrument_only")
	fl.StringVar(&output, "output", "organized", "output root for the target preview")
	return cmd
}
