package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/doc-extractor/internal/cost"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "google", cfg.OCR.Provider)
	assert.Equal(t, 120*time.Second, cfg.OCR.Timeout())
	assert.Equal(t, "https://vision.googleapis.com/v1", cfg.Vision.BaseURL)
	assert.Equal(t, []string{"en"}, cfg.Vision.LanguageHints)
	assert.Equal(t, "mistral-ocr-latest", cfg.Mistral.Model)
	assert.Equal(t, "claude-sonnet-4-5-20250929", cfg.Anthropic.Model)
	assert.Equal(t, int64(8192), cfg.Anthropic.MaxTokens)
	assert.Equal(t, "https://drive.google.com", cfg.Drive.BaseURL)
	assert.Equal(t, "https://docs.google.com", cfg.Drive.DocsBaseURL)
	assert.Equal(t, 60*time.Second, cfg.Fetch.Timeout())
	assert.Equal(t, int64(50<<20), cfg.Fetch.MaxBytes)
	assert.Equal(t, "windows-1252", cfg.Extract.FallbackEncoding)
	assert.False(t, cfg.Extract.VerifyContent)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, int64(25), cfg.Server.MaxUploadMB)
	assert.Equal(t, cost.DefaultRates(), cfg.Pricing)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Empty(t, cfg.Vision.APIKey)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
ocr:
  provider: mistral
mistral:
  api_key: file-key
log:
  level: debug
  format: console
server:
  port: 9090
  cors_origins:
    - https://a.example
    - https://b.example
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "mistral", cfg.OCR.Provider)
	assert.Equal(t, "file-key", cfg.Mistral.APIKey)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	// Defaults still apply for unset values
	assert.Equal(t, 60, cfg.Fetch.TimeoutSecs)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("EXTRACTOR_LOG_LEVEL", "warn")
	t.Setenv("EXTRACTOR_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestLoadLegacyEnvNames(t *testing.T) {
	chdirTemp(t)

	t.Setenv("ANTHROPIC_API_KEY", "ant-key")
	t.Setenv("GOOGLE_API_KEY", "legacy-key")
	t.Setenv("API_CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "legacy-key", cfg.Vision.APIKey)
	assert.Equal(t, "legacy-key", cfg.OCRCredential())
	assert.Equal(t, "ant-key", cfg.Anthropic.APIKey)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
}

func TestOCRCredential(t *testing.T) {
	cfg := &Config{}
	cfg.Vision.APIKey = "g"
	cfg.Mistral.APIKey = "m"

	cfg.OCR.Provider = "google"
	assert.Equal(t, "g", cfg.OCRCredential())

	cfg.OCR.Provider = "mistral"
	assert.Equal(t, "m", cfg.OCRCredential())

	cfg.Anthropic.APIKey = "a"
	cfg.OCR.Provider = "anthropic"
	assert.Equal(t, "a", cfg.OCRCredential())

	cfg.OCR.Provider = "local"
	assert.Equal(t, "local", cfg.OCRCredential())
}

func TestSplitOrigins(t *testing.T) {
	assert.Equal(t, []string{"*"}, splitOrigins(nil))
	assert.Equal(t, []string{"*"}, splitOrigins([]string{" ", ""}))
	assert.Equal(t, []string{"a", "b", "c"}, splitOrigins([]string{"a, b", "c"}))
}

func TestRedacted(t *testing.T) {
	cfg := Config{}
	cfg.Vision.APIKey = "secret"
	cfg.Anthropic.APIKey = "sk-ant"
	red := cfg.Redacted()
	assert.Equal(t, "********", red.Vision.APIKey)
	assert.Equal(t, "********", red.Anthropic.APIKey)
	assert.Empty(t, red.Mistral.APIKey)
	assert.Equal(t, "secret", cfg.Vision.APIKey)
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
	cfg.OCR.Provider = "google"
	cfg.OCR.TimeoutSecs = 120
	cfg.Fetch.TimeoutSecs = 60
	cfg.Fetch.MaxBytes = 1 << 20
	cfg.Server.Port = 8000
	cfg.Server.MaxUploadMB = 25
	return cfg
}

func TestValidateServe_ValidPort(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("serve"))
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateExtract_IgnoresServer(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0
	assert.NoError(t, cfg.Validate("extract"))
}

func TestValidateUnknownProvider(t *testing.T) {
	cfg := validDefaults()
	cfg.OCR.Provider = "tesseract"

	err := cfg.Validate("extract")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "ocr.provider")
}

func TestValidateAnthropicProvider(t *testing.T) {
	cfg := validDefaults()
	cfg.OCR.Provider = "anthropic"
	assert.NoError(t, cfg.Validate("extract"))
}

func TestValidateTimeouts(t *testing.T) {
	cfg := validDefaults()
	cfg.OCR.TimeoutSecs = 0
	cfg.Fetch.MaxBytes = 0

	err := cfg.Validate("extract")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "ocr.timeout_secs must be > 0")
	assert.Contains(t, err.Error(), "fetch.max_bytes must be > 0")
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
