package ocr

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/sheet-sorter/internal/common"
)

// SpaceConfig configures the OCR.space client.
type SpaceConfig struct {
	Endpoint string
	APIKey   string
	Language string        // default "eng"
	Engine   int           // default 2
	Timeout  time.Duration // default 60s
}

// SpaceClient sends PDFs to the OCR.space parse endpoint.
type SpaceClient struct {
	cfg    SpaceConfig
	client *http.Client
	logger *slog.Logger
}

func NewSpaceClient(cfg SpaceConfig, client *http.Client, logger *slog.Logger) *SpaceClient {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = common.DefaultOCREndpoint
	}
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	if cfg.Engine <= 0 {
		cfg.Engine = 2
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &SpaceClient{cfg: cfg, client: client, logger: logger}
}

// Extract uploads the file and returns the recognized text. Errors are
// never retried here.
func (c *SpaceClient) Extract(ctx context.Context, path string) (Result, error) {
	start := time.Now()
	reqID := common.RequestIDFromContext(ctx)
	if reqID == "" {
		reqID = uuid.NewString()
	}

	fields := map[string]string{
		"apikey":            c.cfg.APIKey,
		"language":          c.cfg.Language,
		"isOverlayRequired": "false",
		"detectOrientation": "true",
		"scale":             "true",
		"OCREngine":         strconv.Itoa(c.cfg.Engine),
		"filetype":          "PDF",
	}

	raw, _, err := postMultipart(ctx, c.client, c.cfg.Endpoint, reqID, fields, formFile{Field: "file", Path: path}, c.logger)
	res := Result{Method: "ocr.space", Language: c.cfg.Language, RequestID: reqID}
	if err != nil {
		res.Duration = time.Since(start)
		return res, err
	}

	text, pages, err := parseSpaceResponse(raw)
	res.Duration = time.Since(start)
	res.Pages = pages
	if err != nil {
		c.logger.Warn("ocr.space.failed", "run_id", common.RunIDFromContext(ctx), "req_id", reqID, "path", path, "error", err)
		return res, err
	}
	res.Text = Clean(text)
	c.logger.Debug("ocr.space.ok", "run_id", common.RunIDFromContext(ctx), "req_id", reqID, "path", path, "chars", len(res.Text), "pages", pages)
	return res, nil
}
