package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
	Level      string
	Pretty     bool
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// AxiomConfig holds Axiom logging configuration.
type AxiomConfig struct {
	Send          bool
	APIKey        string
	OrgID         string
	Dataset       string
	FlushInterval time.Duration
}

// StorageConfig describes the S3-compatible bucket holding inputs and outputs.
type StorageConfig struct {
	Bucket          string
	Endpoint        string // empty means the AWS default endpoint resolution
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// StaticCredentials reports whether explicit keys were supplied.
func (s StorageConfig) StaticCredentials() bool {
	return s.AccessKeyID != "" && s.SecretAccessKey != ""
}

// ConversionConfig controls the per-invocation pipeline.
type ConversionConfig struct {
	ScratchDir        string
	ScratchMaxAge     time.Duration
	SkipExistingPages bool
}

// MetricsConfig defines where invocation metrics are pushed.
type MetricsConfig struct {
	PushgatewayURL string
	JobName        string
}

// Config is the top-level configuration. It is built once at process start
// and never mutated afterwards.
type Config struct {
	Logging    LoggingConfig
	Axiom      AxiomConfig
	Storage    StorageConfig
	Conversion ConversionConfig
	Metrics    MetricsConfig
}

// ErrMissingBucket is returned by Validate when no bucket is configured.
var ErrMissingBucket = errors.New("Environment variable 'S3_BUCKET_NAME' is not set.")

// FromEnv loads configuration from environment with sensible defaults.
func FromEnv() Config {
	cfg := Config{}

	// Lambda only allows writes under /tmp, so no log file by default
	cfg.Logging = LoggingConfig{
		Level:      getEnv("LOG_LEVEL", "info"),
		Pretty:     parseBool(getEnv("LOG_PRETTY", devDefaultPretty())),
		File:       getEnv("LOG_FILE", ""),
		MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "100"), 100),
		MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "10"), 10),
		MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "30"), 30),
		Compress:   parseBool(getEnv("LOG_COMPRESS", "true")),
	}

	baseDataset := getEnv("AXIOM_DATASET", "dev")
	cfg.Axiom = AxiomConfig{
		Send:          parseBool(getEnv("SEND_LOGS_TO_AXIOM", "0")),
		APIKey:        getEnv("AXIOM_API_KEY", ""),
		OrgID:         getEnv("AXIOM_ORG_ID", ""),
		Dataset:       baseDataset + "_pdf2webp",
		FlushInterval: parseDuration(getEnv("AXIOM_FLUSH_INTERVAL", "10s"), 10*time.Second),
	}

	cfg.Storage = StorageConfig{
		Bucket:          getEnv("S3_BUCKET_NAME", ""),
		Endpoint:        getEnv("S3_ENDPOINT_URL", ""),
		Region:          getEnv("AWS_REGION", getEnv("AWS_DEFAULT_REGION", "")),
		AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
	}

	cfg.Conversion = ConversionConfig{
		ScratchDir:        getEnv("SCRATCH_DIR", os.TempDir()),
		ScratchMaxAge:     parseDuration(getEnv("SCRATCH_MAX_AGE", "15m"), 15*time.Minute),
		SkipExistingPages: parseBool(getEnv("SKIP_EXISTING_PAGES", "0")),
	}

	cfg.Metrics = MetricsConfig{
		PushgatewayURL: getEnv("PROM_PUSHGATEWAY_URL", ""),
		JobName:        getEnv("PROM_JOB_NAME", "pdf2webp"),
	}

	return cfg
}

// Validate checks settings without which no invocation can succeed.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Storage.Bucket) == "" {
		return ErrMissingBucket
	}
	return nil
}

// Helpers
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

func parseBool(s string) bool {
	v := strings.ToLower(strings.TrimSpace(s))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return def
}

func devDefaultPretty() string {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))
	if env == "dev" || env == "development" || env == "local" {
		return "true"
	}
	return "false"
}
