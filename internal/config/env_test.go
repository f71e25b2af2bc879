package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Storage(t *testing.T) {
	t.Setenv("S3_BUCKET_NAME", "media")
	t.Setenv("S3_ENDPOINT_URL", "http://localhost:9000")
	t.Setenv("AWS_REGION", "eu-central-1")
	t.Setenv("AWS_ACCESS_KEY_ID", "AKIA")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")

	cfg := FromEnv()

	assert.Equal(t, "media", cfg.Storage.Bucket)
	assert.Equal(t, "http://localhost:9000", cfg.Storage.Endpoint)
	assert.Equal(t, "eu-central-1", cfg.Storage.Region)
	assert.True(t, cfg.Storage.StaticCredentials())
	require.NoError(t, cfg.Validate())
}

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("S3_BUCKET_NAME", "")
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("SKIP_EXISTING_PAGES", "")
	t.Setenv("SCRATCH_MAX_AGE", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("PROM_JOB_NAME", "")

	cfg := FromEnv()

	assert.False(t, cfg.Storage.StaticCredentials())
	assert.False(t, cfg.Conversion.SkipExistingPages)
	assert.Equal(t, 15*time.Minute, cfg.Conversion.ScratchMaxAge)
	assert.NotEmpty(t, cfg.Conversion.ScratchDir)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "pdf2webp", cfg.Metrics.JobName)
	assert.ErrorIs(t, cfg.Validate(), ErrMissingBucket)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("SKIP_EXISTING_PAGES", "yes")
	t.Setenv("SCRATCH_MAX_AGE", "1h")
	t.Setenv("LOG_MAX_BACKUPS", "not-a-number")
	t.Setenv("AXIOM_DATASET", "prod")

	cfg := FromEnv()

	assert.True(t, cfg.Conversion.SkipExistingPages)
	assert.Equal(t, time.Hour, cfg.Conversion.ScratchMaxAge)
	assert.Equal(t, 10, cfg.Logging.MaxBackups)
	assert.Equal(t, "prod_pdf2webp", cfg.Axiom.Dataset)
}
