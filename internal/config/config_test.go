package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)

	assert.False(t, cfg.Tiers.DocumentAI.Enabled)
	assert.Equal(t, "us", cfg.Tiers.DocumentAI.Location)
	assert.Equal(t, 60, cfg.Tiers.DocumentAI.TimeoutSecs)
	assert.False(t, cfg.Tiers.Vision.Enabled)
	assert.Equal(t, 5, cfg.Tiers.Vision.MaxPDFPages)
	assert.True(t, cfg.Tiers.BasicOCR.Enabled)
	assert.Equal(t, "tesseract", cfg.Tiers.BasicOCR.TesseractPath)
	assert.Equal(t, "eng", cfg.Tiers.BasicOCR.Lang)
	assert.Equal(t, 5, cfg.Tiers.Fallback.TimeoutSecs)

	assert.Equal(t, 3, cfg.Retry.Attempts)
	assert.Equal(t, 5, cfg.Circuit.FailureThreshold)
	assert.InDelta(t, 0.15, cfg.Quality.SymbolDensityThreshold, 0.001)
	assert.InDelta(t, 0.1, cfg.Quality.EmptyFloor, 0.001)
	assert.InDelta(t, 0.5, cfg.Confidence.ExtractionWeight, 0.001)
	assert.InDelta(t, 30.0, cfg.Confidence.FallbackCeiling, 0.001)

	assert.False(t, cfg.Assist.Enabled)
	assert.Equal(t, "claude-haiku-4-5-20251001", cfg.Assist.Model)
	assert.InDelta(t, 0.0015, cfg.Costs.DocumentAIPerPage, 1e-9)

	assert.InDelta(t, 0.25, cfg.Monitoring.FallbackRateThreshold, 0.001)
	assert.Equal(t, 24, cfg.Monitoring.LookbackWindowHours)
	assert.Equal(t, 300, cfg.Monitoring.CheckIntervalSecs)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 20, cfg.Server.MaxUploadMB)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 4, cfg.Batch.Concurrency)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
log:
  level: debug
  format: console
tiers:
  documentai:
    enabled: true
    project: my-project
    processor_id: proc-1
    timeout_secs: 90
  basic_ocr:
    enabled: false
confidence:
  extraction_weight: 0.6
store:
  driver: postgres
  database_url: postgres://localhost/credit
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.True(t, cfg.Tiers.DocumentAI.Enabled)
	assert.Equal(t, "my-project", cfg.Tiers.DocumentAI.Project)
	assert.Equal(t, "proc-1", cfg.Tiers.DocumentAI.ProcessorID)
	assert.Equal(t, 90, cfg.Tiers.DocumentAI.TimeoutSecs)
	assert.False(t, cfg.Tiers.BasicOCR.Enabled)
	assert.InDelta(t, 0.6, cfg.Confidence.ExtractionWeight, 0.001)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	// Defaults still apply for unset values
	assert.Equal(t, "us", cfg.Tiers.DocumentAI.Location)
	assert.Equal(t, 30, cfg.Tiers.Vision.TimeoutSecs)
}

func TestLoadFileExplicitPath(t *testing.T) {
	dir := chdirTemp(t)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9191\n"), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 9191, cfg.Server.Port)
}

func TestLoadFileMissingExplicitPath(t *testing.T) {
	chdirTemp(t)
	_, err := LoadFile("does-not-exist.yaml")
	assert.Error(t, err)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	t.Setenv("CREDIT_STORE_DRIVER", "postgres")
	t.Setenv("CREDIT_LOG_LEVEL", "warn")
	t.Setenv("CREDIT_TIERS_VISION_ENABLED", "true")
	t.Setenv("CREDIT_TIERS_VISION_API_KEY", "AIza-test")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.True(t, cfg.Tiers.Vision.Enabled)
	assert.Equal(t, "AIza-test", cfg.Tiers.Vision.APIKey)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)
	t.Setenv("CREDIT_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestTimeout(t *testing.T) {
	assert.Equal(t, 30*time.Second, Timeout(30))
	assert.Zero(t, Timeout(0))
	assert.Zero(t, Timeout(-5))
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Confidence.ExtractionWeight = 0.5
	cfg.Confidence.FallbackCeiling = 30
	cfg.Server.Port = 8080
	cfg.Server.MaxUploadMB = 20
	cfg.Batch.Concurrency = 4
	return cfg
}

func TestValidate_Defaults(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("extract"))
	assert.NoError(t, cfg.Validate("serve"))
	assert.NoError(t, cfg.Validate("batch"))
}

func TestValidate_EnabledTiersNeedCredentials(t *testing.T) {
	cfg := validDefaults()
	cfg.Tiers.DocumentAI.Enabled = true
	cfg.Tiers.Vision.Enabled = true
	cfg.Assist.Enabled = true

	err := cfg.Validate("extract")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tiers.documentai.project is required")
	assert.Contains(t, err.Error(), "tiers.documentai.processor_id is required")
	assert.Contains(t, err.Error(), "tiers.vision.api_key or tiers.vision.credentials_file is required")
	assert.Contains(t, err.Error(), "assist.api_key is required")
}

func TestValidate_AllPresent(t *testing.T) {
	cfg := validDefaults()
	cfg.Tiers.DocumentAI = DocumentAIConfig{Enabled: true, Project: "p", ProcessorID: "x"}
	cfg.Tiers.Vision = VisionConfig{Enabled: true, CredentialsFile: "/etc/sa.json"}
	cfg.Assist = AssistConfig{Enabled: true, APIKey: "sk-ant-key"}

	assert.NoError(t, cfg.Validate("extract"))
}

func TestValidate_ConfidenceBounds(t *testing.T) {
	cfg := validDefaults()
	cfg.Confidence.ExtractionWeight = 1.5
	cfg.Confidence.FallbackCeiling = 120

	err := cfg.Validate("extract")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "extraction_weight")
	assert.Contains(t, err.Error(), "fallback_ceiling")
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")

	// Port is only checked when serving.
	assert.NoError(t, cfg.Validate("extract"))
}

func TestValidateBatch_Concurrency(t *testing.T) {
	cfg := validDefaults()
	cfg.Batch.Concurrency = 0

	err := cfg.Validate("batch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch.concurrency")
}
