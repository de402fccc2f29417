package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable LoadConfig reads so the host environment
// cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		EnvConfigPath, "OCR_API_KEY", "OCR_SPACE_API_KEY", "OCR_ENDPOINT", "OCR_LANGUAGE", "OCR_ENGINE",
		"OCR_TIMEOUT", "OCR_DELAY", "OCR_UPLOAD_LIMIT", "OCR_DISABLED", "OCR_BACKEND", "OCR_LOCAL_DPI",
		"SHEETSORT_MAX_BATCH", "SHEETSORT_MAX_FILE_SIZE", "SHEETSORT_ORG_MODE", "SHEETSORT_TEMP_DIR",
		"SHEETSORT_CATALOG", "SHEETSORT_REPORT_DIR", "SHEETSORT_REPORT_FORMATS",
		"DB_URL", "DB_MAX_CONNS", "DB_DIAL_TIMEOUT", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.Batch.MaxBatch)
	assert.Equal(t, "piece_first", cfg.Batch.OrgMode)
	assert.Equal(t, 500*time.Millisecond, cfg.OCRDelay())
	assert.Equal(t, time.Minute, cfg.OCRTimeout())
	assert.Equal(t, int64(1000*1000), cfg.UploadLimitBytes())
	assert.Equal(t, int64(50*1000*1000), cfg.MaxFileSizeBytes())
	assert.Equal(t, OCRBackendSpace, cfg.OCR.Backend)

	err = cfg.Validate()
	require.Error(t, err, "the OCR key is required by default")
	assert.True(t, IsStructural(err))
	assert.Equal(t, "CONFIG_ERROR", ErrorCode(err))
	assert.Contains(t, err.Error(), "ocr.api_key")
}

func TestLoadConfigLayering(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "sheetsort.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[ocr]
api_key = "from-file"
delay = "2s"

[batch]
max_batch = 10
org_mode = "instrument_first"

[report]
formats = ["txt", "xlsx"]
`), 0o644))
	t.Setenv("OCR_SPACE_API_KEY", "from-env")
	t.Setenv("SHEETSORT_MAX_BATCH", "40")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.OCR.APIKey)
	assert.Equal(t, 2*time.Second, cfg.OCRDelay())
	assert.Equal(t, 40, cfg.Batch.MaxBatch)
	assert.Equal(t, "instrument_first", cfg.Batch.OrgMode)
	assert.Equal(t, []string{"txt", "xlsx"}, cfg.Report.Formats)
	assert.Equal(t, "eng", cfg.OCR.Language, "unset keys keep their defaults")
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigExplicitMissingFile(t *testing.T) {
	clearEnv(t)
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
	assert.True(t, IsStructural(err))
}

func TestLoadConfigBadTOML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[ocr\napi_key ="), 0o644))
	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Equal(t, "CONFIG_ERROR", ErrorCode(err))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"ok", func(c *Config) { c.OCR.APIKey = "k" }, ""},
		{"ocr disabled needs no key", func(c *Config) { c.OCR.Disabled = true }, ""},
		{"local backend needs no key", func(c *Config) { c.OCR.Backend = OCRBackendLocal }, ""},
		{"unknown backend", func(c *Config) { c.OCR.APIKey = "k"; c.OCR.Backend = "cloud" }, "ocr.backend"},
		{"bad org mode", func(c *Config) { c.OCR.APIKey = "k"; c.Batch.OrgMode = "by_colour" }, "batch.org_mode"},
		{"zero batch", func(c *Config) { c.OCR.APIKey = "k"; c.Batch.MaxBatch = 0 }, "batch.max_batch"},
		{"bad delay", func(c *Config) { c.OCR.APIKey = "k"; c.OCR.Delay = "soon" }, "ocr.delay"},
		{"bad size", func(c *Config) { c.OCR.APIKey = "k"; c.OCR.UploadLimit = "big" }, "ocr.upload_limit"},
		{"bad report format", func(c *Config) { c.OCR.APIKey = "k"; c.Report.Formats = []string{"pdf"} }, "report.formats"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.True(t, IsStructural(err))
		})
	}
}
