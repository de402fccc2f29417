package common

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pelletier/go-toml/v2"
)

const (
	DefaultConfigFile = "sheetsort.toml"
	EnvConfigPath     = "SHEETSORT_CONFIG"

	DefaultOCREndpoint = "https://api.ocr.space/parse/image"

	OCRBackendSpace = "space"
	OCRBackendLocal = "local"
)

// Config holds all application configuration
type Config struct {
	OCR     OCRConfig     `toml:"ocr"`
	Batch   BatchConfig   `toml:"batch"`
	Catalog CatalogConfig `toml:"catalog"`
	Report  ReportConfig  `toml:"report"`
	Ledger  LedgerConfig  `toml:"ledger"`
	Log     LogConfig     `toml:"log"`
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Disabled    bool   `toml:"disabled"`
	Backend     string `toml:"backend"`
	APIKey      string `toml:"api_key"`
	Endpoint    string `toml:"endpoint"`
	Language    string `toml:"language"`
	Engine      int    `toml:"engine"`
	Timeout     string `toml:"timeout"`
	Delay       string `toml:"delay"`
	UploadLimit string `toml:"upload_limit"`

	// local backend only
	LocalDPI      int `toml:"local_dpi"`
	LocalMaxPages int `toml:"local_max_pages"`
}

// BatchConfig controls discovery and placement.
type BatchConfig struct {
	MaxBatch    int    `toml:"max_batch"`
	MaxFileSize string `toml:"max_file_size"`
	Recursive   bool   `toml:"recursive"`
	OrgMode     string `toml:"org_mode"`
	LabelPDFs   bool   `toml:"label_pdfs"`
	Move        bool   `toml:"move"`
	DryRun      bool   `toml:"dry_run"`
	TempDir     string `toml:"temp_dir"`

	// WatchDebounce is how long the input must stay quiet before watch
	// mode starts a batch.
	WatchDebounce string `toml:"watch_debounce"`
}

type CatalogConfig struct {
	Path      string   `toml:"path"`
	Languages []string `toml:"languages"`
}

type ReportConfig struct {
	Dir     string   `toml:"dir"`
	Formats []string `toml:"formats"`
}

// LedgerConfig holds run-history database configuration. An empty DSN
// disables the ledger.
type LedgerConfig struct {
	DSN         string `toml:"dsn"`
	MaxConns    int32  `toml:"max_conns"`
	DialTimeout string `toml:"dial_timeout"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Defaults returns the configuration used when neither a file nor the
// environment says otherwise.
func Defaults() *Config {
	return &Config{
		OCR: OCRConfig{
			Backend:     OCRBackendSpace,
			Endpoint:    DefaultOCREndpoint,
			Language:    "eng",
			Engine:      2,
			Timeout:     "60s",
			Delay:       "500ms",
			UploadLimit: "1MB",
			LocalDPI:    300,
		},
		Batch: BatchConfig{
			MaxBatch:      25,
			MaxFileSize:   "50MB",
			OrgMode:       "piece_first",
			LabelPDFs:     true,
			WatchDebounce: "5s",
		},
		Report: ReportConfig{
			Formats: []string{"txt", "json"},
		},
		Ledger: LedgerConfig{
			MaxConns:    4,
			DialTimeout: "3s",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadConfig layers defaults, the TOML file at path (or SHEETSORT_CONFIG, or
// ./sheetsort.toml) and environment variables. A missing file is not an
// error unless it was named explicitly.
func LoadConfig(path string) (*Config, error) {
	cfg := Defaults()

	explicit := path != ""
	if !explicit {
		path = getEnv(EnvConfigPath, DefaultConfigFile)
		explicit = os.Getenv(EnvConfigPath) != ""
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, NewAppError("CONFIG_ERROR", fmt.Sprintf("parse %s", path), errors.Join(ErrStructural, err))
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, NewAppError("CONFIG_ERROR", fmt.Sprintf("read %s", path), errors.Join(ErrStructural, err))
	}

	cfg.loadEnv()
	return cfg, nil
}

func (c *Config) loadEnv() {
	c.OCR.APIKey = getEnv("OCR_API_KEY", getEnv("OCR_SPACE_API_KEY", c.OCR.APIKey))
	c.OCR.Endpoint = getEnv("OCR_ENDPOINT", c.OCR.Endpoint)
	c.OCR.Language = getEnv("OCR_LANGUAGE", c.OCR.Language)
	c.OCR.Engine = getEnvAsInt("OCR_ENGINE", c.OCR.Engine)
	c.OCR.Timeout = getEnv("OCR_TIMEOUT", c.OCR.Timeout)
	c.OCR.Delay = getEnv("OCR_DELAY", c.OCR.Delay)
	c.OCR.UploadLimit = getEnv("OCR_UPLOAD_LIMIT", c.OCR.UploadLimit)
	c.OCR.Disabled = getEnvAsBool("OCR_DISABLED", c.OCR.Disabled)
	c.OCR.Backend = getEnv("OCR_BACKEND", c.OCR.Backend)
	c.OCR.LocalDPI = getEnvAsInt("OCR_LOCAL_DPI", c.OCR.LocalDPI)

	c.Batch.MaxBatch = getEnvAsInt("SHEETSORT_MAX_BATCH", c.Batch.MaxBatch)
	c.Batch.MaxFileSize = getEnv("SHEETSORT_MAX_FILE_SIZE", c.Batch.MaxFileSize)
	c.Batch.OrgMode = getEnv("SHEETSORT_ORG_MODE", c.Batch.OrgMode)
	c.Batch.TempDir = getEnv("SHEETSORT_TEMP_DIR", c.Batch.TempDir)

	c.Catalog.Path = getEnv("SHEETSORT_CATALOG", c.Catalog.Path)
	c.Report.Dir = getEnv("SHEETSORT_REPORT_DIR", c.Report.Dir)
	if v := os.Getenv("SHEETSORT_REPORT_FORMATS"); v != "" {
		c.Report.Formats = splitList(v)
	}

	c.Ledger.DSN = getEnv("DB_URL", c.Ledger.DSN)
	c.Ledger.MaxConns = getEnvAsInt32("DB_MAX_CONNS", c.Ledger.MaxConns)
	c.Ledger.DialTimeout = getEnv("DB_DIAL_TIMEOUT", c.Ledger.DialTimeout)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
}

// OCRTimeout returns the per-request OCR timeout.
func (c *Config) OCRTimeout() time.Duration {
	d, _ := time.ParseDuration(c.OCR.Timeout)
	return d
}

// OCRDelay returns the spacing enforced between OCR calls.
func (c *Config) OCRDelay() time.Duration {
	d, _ := time.ParseDuration(c.OCR.Delay)
	return d
}

// UploadLimitBytes is the size above which a file is compressed before OCR.
func (c *Config) UploadLimitBytes() int64 {
	n, _ := humanize.ParseBytes(c.OCR.UploadLimit)
	return int64(n)
}

// MaxFileSizeBytes is the hard size ceiling for input files.
func (c *Config) MaxFileSizeBytes() int64 {
	n, _ := humanize.ParseBytes(c.Batch.MaxFileSize)
	return int64(n)
}

func (c *Config) WatchDebounce() time.Duration {
	d, _ := time.ParseDuration(c.Batch.WatchDebounce)
	return d
}

func (c *Config) LedgerDialTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Ledger.DialTimeout)
	return d
}

// Validate checks the merged configuration. Problems are reported together
// as a structural CONFIG_ERROR.
func (c *Config) Validate() error {
	v := NewValidator()
	v.Field("ocr.backend", c.OCR.Backend, OneOf(OCRBackendSpace, OCRBackendLocal))
	if !c.OCR.Disabled && c.OCR.Backend == OCRBackendSpace {
		v.Field("ocr.api_key", c.OCR.APIKey, Required)
		v.Field("ocr.endpoint", c.OCR.Endpoint, Required)
	}
	v.Field("batch.max_batch", c.Batch.MaxBatch, AtLeast(1))
	v.Field("ocr.engine", c.OCR.Engine, AtLeast(1))
	v.Field("batch.org_mode", c.Batch.OrgMode, OneOf("piece_first", "instrument_first", "instrument_only"))
	v.Field("log.format", c.Log.Format, OneOf("json", "text"))
	v.Field("log.level", c.Log.Level, OneOf("debug", "info", "warn", "error"))
	for _, f := range c.Report.Formats {
		v.Field("report.formats", f, OneOf("txt", "json", "xlsx"))
	}
	for name, d := range map[string]string{"ocr.timeout": c.OCR.Timeout, "ocr.delay": c.OCR.Delay, "ledger.dial_timeout": c.Ledger.DialTimeout, "batch.watch_debounce": c.Batch.WatchDebounce} {
		v.Field(name, d, durationRule)
	}
	for name, s := range map[string]string{"ocr.upload_limit": c.OCR.UploadLimit, "batch.max_file_size": c.Batch.MaxFileSize} {
		v.Field(name, s, byteSizeRule)
	}

	if v.HasErrors() {
		return NewAppError("CONFIG_ERROR", v.ErrorMessage(), ErrStructural)
	}
	return nil
}

func durationRule(fieldName string, value interface{}) *ValidationError {
	s, _ := value.(string)
	if d, err := time.ParseDuration(s); err != nil || d < 0 {
		return &ValidationError{Field: fieldName, Value: value, Message: "must be a duration such as 500ms or 1m"}
	}
	return nil
}

func byteSizeRule(fieldName string, value interface{}) *ValidationError {
	s, _ := value.(string)
	if n, err := humanize.ParseBytes(s); err != nil || n == 0 {
		return &ValidationError{Field: fieldName, Value: value, Message: "must be a size such as 1MB"}
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.ToLower(part))
		}
	}
	return out
}
