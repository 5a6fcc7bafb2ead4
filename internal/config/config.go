package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/doc-extractor/internal/cost"
)

// Config holds the full application configuration.
type Config struct {
	OCR       OCRConfig       `yaml:"ocr" mapstructure:"ocr"`
	Vision    VisionConfig    `yaml:"vision" mapstructure:"vision"`
	Mistral   MistralConfig   `yaml:"mistral" mapstructure:"mistral"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Drive     DriveConfig     `yaml:"drive" mapstructure:"drive"`
	Fetch     FetchConfig     `yaml:"fetch" mapstructure:"fetch"`
	Extract   ExtractConfig   `yaml:"extract" mapstructure:"extract"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Pricing   cost.Rates      `yaml:"pricing" mapstructure:"pricing"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// OCRConfig selects the external recognizer used for PDFs and images.
type OCRConfig struct {
	Provider    string `yaml:"provider" mapstructure:"provider"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// Timeout returns the per-call OCR timeout.
func (c OCRConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// VisionConfig holds Google Cloud Vision settings.
type VisionConfig struct {
	APIKey        string   `yaml:"api_key" mapstructure:"api_key"`
	BaseURL       string   `yaml:"base_url" mapstructure:"base_url"`
	LanguageHints []string `yaml:"language_hints" mapstructure:"language_hints"`
}

// MistralConfig holds Mistral OCR settings.
type MistralConfig struct {
	APIKey  string `yaml:"api_key" mapstructure:"api_key"`
	Model   string `yaml:"model" mapstructure:"model"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// AnthropicConfig holds settings for transcription with Claude models.
type AnthropicConfig struct {
	APIKey    string `yaml:"api_key" mapstructure:"api_key"`
	Model     string `yaml:"model" mapstructure:"model"`
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// DriveConfig configures Google Drive share-link downloads.
type DriveConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	DocsBaseURL string `yaml:"docs_base_url" mapstructure:"docs_base_url"`
}

// FetchConfig configures remote downloads.
type FetchConfig struct {
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxBytes    int64   `yaml:"max_bytes" mapstructure:"max_bytes"`
	UserAgent   string  `yaml:"user_agent" mapstructure:"user_agent"`
	TempDir     string  `yaml:"temp_dir" mapstructure:"temp_dir"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// Timeout returns the per-request download timeout.
func (c FetchConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// ExtractConfig configures the extraction pipeline.
type ExtractConfig struct {
	FallbackEncoding string `yaml:"fallback_encoding" mapstructure:"fallback_encoding"`
	VerifyContent    bool   `yaml:"verify_content" mapstructure:"verify_content"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port               int      `yaml:"port" mapstructure:"port"`
	CORSOrigins        []string `yaml:"cors_origins" mapstructure:"cors_origins"`
	MaxUploadMB        int64    `yaml:"max_upload_mb" mapstructure:"max_upload_mb"`
	RequestTimeoutSecs int      `yaml:"request_timeout_secs" mapstructure:"request_timeout_secs"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("EXTRACTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Legacy variable names still used by existing deployments.
	_ = v.BindEnv("vision.api_key", "EXTRACTOR_VISION_API_KEY", "GOOGLE_API_KEY")
	_ = v.BindEnv("mistral.api_key", "EXTRACTOR_MISTRAL_API_KEY", "MISTRAL_API_KEY")
	_ = v.BindEnv("anthropic.api_key", "EXTRACTOR_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")
	_ = v.BindEnv("server.cors_origins", "EXTRACTOR_SERVER_CORS_ORIGINS", "API_CORS_ORIGINS")

	// Defaults
	v.SetDefault("ocr.provider", "google")
	v.SetDefault("ocr.timeout_secs", 120)
	v.SetDefault("vision.base_url", "https://vision.googleapis.com/v1")
	v.SetDefault("vision.language_hints", []string{"en"})
	v.SetDefault("mistral.model", "mistral-ocr-latest")
	v.SetDefault("mistral.base_url", "https://api.mistral.ai/v1")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.base_url", "https://api.anthropic.com")
	v.SetDefault("anthropic.max_tokens", 8192)
	v.SetDefault("drive.base_url", "https://drive.google.com")
	v.SetDefault("drive.docs_base_url", "https://docs.google.com")
	v.SetDefault("fetch.timeout_secs", 60)
	v.SetDefault("fetch.max_bytes", 50<<20)
	v.SetDefault("fetch.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	v.SetDefault("fetch.temp_dir", "")
	v.SetDefault("fetch.rate_per_sec", 5)
	v.SetDefault("extract.fallback_encoding", "windows-1252")
	v.SetDefault("extract.verify_content", false)
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.max_upload_mb", 25)
	v.SetDefault("server.request_timeout_secs", 300)
	rates := cost.DefaultRates()
	v.SetDefault("pricing.google.per_thousand_pages", rates.Google.PerThousandPages)
	v.SetDefault("pricing.mistral.per_thousand_pages", rates.Mistral.PerThousandPages)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	cfg.Server.CORSOrigins = splitOrigins(cfg.Server.CORSOrigins)

	return &cfg, nil
}

// splitOrigins flattens comma-separated entries, which is how a single env var
// like API_CORS_ORIGINS arrives.
func splitOrigins(in []string) []string {
	var out []string
	for _, entry := range in {
		for _, o := range strings.Split(entry, ",") {
			if o = strings.TrimSpace(o); o != "" {
				out = append(out, o)
			}
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

// OCRCredential returns the credential of the configured OCR provider.
// The local provider needs none and reports "local".
func (c *Config) OCRCredential() string {
	switch c.OCR.Provider {
	case "mistral":
		return c.Mistral.APIKey
	case "anthropic":
		return c.Anthropic.APIKey
	case "local":
		return "local"
	default:
		return c.Vision.APIKey
	}
}

// Validate checks the settings required by the given command mode.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch c.OCR.Provider {
	case "google", "mistral", "anthropic", "local", "":
	default:
		errs = append(errs, "ocr.provider must be one of google, mistral, anthropic, local")
	}
	if c.OCR.TimeoutSecs <= 0 {
		errs = append(errs, "ocr.timeout_secs must be > 0")
	}
	if c.Fetch.TimeoutSecs <= 0 {
		errs = append(errs, "fetch.timeout_secs must be > 0")
	}
	if c.Fetch.MaxBytes <= 0 {
		errs = append(errs, "fetch.max_bytes must be > 0")
	}

	switch mode {
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		if c.Server.MaxUploadMB <= 0 {
			errs = append(errs, "server.max_upload_mb must be > 0")
		}
	case "extract":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Redacted returns a copy with credentials masked.
func (c Config) Redacted() Config {
	c.Vision.APIKey = mask(c.Vision.APIKey)
	c.Mistral.APIKey = mask(c.Mistral.APIKey)
	c.Anthropic.APIKey = mask(c.Anthropic.APIKey)
	return c
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "********"
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
