package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/sheet-sorter/constants"
	"github.com/joseph-ayodele/sheet-sorter/internal/catalog"
	"github.com/joseph-ayodele/sheet-sorter/internal/common"
	"github.com/joseph-ayodele/sheet-sorter/internal/dedup"
	"github.com/joseph-ayodele/sheet-sorter/internal/ocr"
	"github.com/joseph-ayodele/sheet-sorter/internal/piece"
)

type globalFlags struct {
	configPath string
	logLevel   string
	logFormat  string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "sheetsort",
		Short:         "Sort scanned sheet-music PDFs by piece, instrument and part",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "config file (default $SHEETSORT_CONFIG or ./sheetsort.toml)")
	pf.StringVar(&g.logLevel, "log-level", "", "debug, info, warn or error")
	pf.StringVar(&g.logFormat, "log-format", "", "json or text")

	root.AddCommand(
		newProcessCmd(g),
		newWatchCmd(g),
		newClassifyCmd(g),
		newOCRCmd(g),
		newHistoryCmd(g),
	)
	return root
}

// app is what every subcommand needs once configuration is settled.
type app struct {
	cfg     *common.Config
	logger  *slog.Logger
	catalog *catalog.Catalog

	// set by watch so successive batches share what earlier ones placed
	dups   *dedup.Registry
	pieces *piece.Registry
}

// load layers config file, environment, the command's flag overrides and the
// global flags, validates the result and builds the logger and catalog.
func (g *globalFlags) load(override func(*common.Config)) (*app, error) {
	cfg, err := common.LoadConfig(g.configPath)
	if err != nil {
		return nil, err
	}
	if override != nil {
		override(cfg)
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	if g.logFormat != "" {
		cfg.Log.Format = g.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := common.NewLogger(cfg.Log, os.Stderr)
	slog.SetDefault(logger)

	cat, err := loadCatalog(cfg.Catalog)
	if err != nil {
		return nil, err
	}
	logger.Debug("catalog.loaded", "version", cat.Version(), "path", cfg.Catalog.Path)
	return &app{cfg: cfg, logger: logger, catalog: cat}, nil
}

func loadCatalog(cfg common.CatalogConfig) (*catalog.Catalog, error) {
	var (
		cat *catalog.Catalog
		err error
	)
	if cfg.Path == "" {
		cat, err = catalog.Default()
	} else {
		cat, err = catalog.LoadFile(cfg.Path)
	}
	if err != nil {
		return nil, common.NewAppError("CATALOG_ERROR", fmt.Sprintf("load catalog: %v", err), errors.Join(common.ErrStructural, err))
	}
	if len(cfg.Languages) > 0 {
		cat = cat.WithLanguages(cfg.Languages...)
	}
	return cat, nil
}

// extractor builds the configured OCR backend, or nil when OCR is off.
func (a *app) extractor() ocr.TextExtractor {
	if a.cfg.OCR.Disabled {
		return nil
	}
	if a.cfg.OCR.Backend == common.OCRBackendLocal {
		return ocr.NewLocalExtractor(ocr.LocalConfig{
			Language: a.cfg.OCR.Language,
			DPI:      a.cfg.OCR.LocalDPI,
			MaxPages: a.cfg.OCR.LocalMaxPages,
		}, a.logger)
	}
	client := ocr.NewSpaceClient(ocr.SpaceConfig{
		Endpoint: a.cfg.OCR.Endpoint,
		APIKey:   a.cfg.OCR.APIKey,
		Language: a.cfg.OCR.Language,
		Engine:   a.cfg.OCR.Engine,
		Timeout:  a.cfg.OCRTimeout(),
	}, nil, a.logger)
	return ocr.Throttle(client, a.cfg.OCRDelay())
}

func (a *app) orgMode() constants.OrgMode {
	mode, _ := constants.ParseOrgMode(a.cfg.Batch.OrgMode)
	return mode
}
