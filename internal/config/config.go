package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Tiers      TiersConfig      `yaml:"tiers" mapstructure:"tiers"`
	Retry      RetryConfig      `yaml:"retry" mapstructure:"retry"`
	Circuit    CircuitConfig    `yaml:"circuit" mapstructure:"circuit"`
	Quality    QualityConfig    `yaml:"quality" mapstructure:"quality"`
	Confidence ConfidenceConfig `yaml:"confidence" mapstructure:"confidence"`
	Parser     ParserConfig     `yaml:"parser" mapstructure:"parser"`
	Assist     AssistConfig     `yaml:"assist" mapstructure:"assist"`
	Costs      CostsConfig      `yaml:"costs" mapstructure:"costs"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Batch      BatchConfig      `yaml:"batch" mapstructure:"batch"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// TiersConfig configures the extraction cascade.
type TiersConfig struct {
	DocumentAI DocumentAIConfig `yaml:"documentai" mapstructure:"documentai"`
	Vision     VisionConfig     `yaml:"vision" mapstructure:"vision"`
	BasicOCR   BasicOCRConfig   `yaml:"basic_ocr" mapstructure:"basic_ocr"`
	Fallback   FallbackConfig   `yaml:"fallback" mapstructure:"fallback"`
}

// DocumentAIConfig holds Document AI processor settings.
type DocumentAIConfig struct {
	Enabled         bool    `yaml:"enabled" mapstructure:"enabled"`
	Project         string  `yaml:"project" mapstructure:"project"`
	Location        string  `yaml:"location" mapstructure:"location"`
	ProcessorID     string  `yaml:"processor_id" mapstructure:"processor_id"`
	CredentialsFile string  `yaml:"credentials_file" mapstructure:"credentials_file"`
	Endpoint        string  `yaml:"endpoint" mapstructure:"endpoint"`
	TimeoutSecs     int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSec      float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	Burst           int     `yaml:"burst" mapstructure:"burst"`
}

// VisionConfig holds Cloud Vision settings.
type VisionConfig struct {
	Enabled         bool    `yaml:"enabled" mapstructure:"enabled"`
	APIKey          string  `yaml:"api_key" mapstructure:"api_key"`
	CredentialsFile string  `yaml:"credentials_file" mapstructure:"credentials_file"`
	Endpoint        string  `yaml:"endpoint" mapstructure:"endpoint"`
	TimeoutSecs     int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxPDFPages     int     `yaml:"max_pdf_pages" mapstructure:"max_pdf_pages"`
	RatePerSec      float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	Burst           int     `yaml:"burst" mapstructure:"burst"`
}

// BasicOCRConfig configures the local tesseract tier.
type BasicOCRConfig struct {
	Enabled       bool   `yaml:"enabled" mapstructure:"enabled"`
	TesseractPath string `yaml:"tesseract_path" mapstructure:"tesseract_path"`
	Lang          string `yaml:"lang" mapstructure:"lang"`
	PSM           int    `yaml:"psm" mapstructure:"psm"`
	TimeoutSecs   int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// FallbackConfig configures the synthetic tier.
type FallbackConfig struct {
	TimeoutSecs int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// RetryConfig configures service-client retries of transient failures.
type RetryConfig struct {
	Attempts   int     `yaml:"attempts" mapstructure:"attempts"`
	InitialMs  int     `yaml:"initial_ms" mapstructure:"initial_ms"`
	MaxMs      int     `yaml:"max_ms" mapstructure:"max_ms"`
	Multiplier float64 `yaml:"multiplier" mapstructure:"multiplier"`
	Jitter     float64 `yaml:"jitter" mapstructure:"jitter"`
}

// CircuitConfig configures the per-service circuit breakers.
type CircuitConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	CooldownSecs     int `yaml:"cooldown_secs" mapstructure:"cooldown_secs"`
	Probes           int `yaml:"probes" mapstructure:"probes"`
}

// QualityConfig tunes the text quality assessor.
type QualityConfig struct {
	SymbolDensityThreshold float64 `yaml:"symbol_density_threshold" mapstructure:"symbol_density_threshold"`
	EmptyFloor             float64 `yaml:"empty_floor" mapstructure:"empty_floor"`
}

// ConfidenceConfig tunes overall confidence blending.
type ConfidenceConfig struct {
	ExtractionWeight float64 `yaml:"extraction_weight" mapstructure:"extraction_weight"`
	FallbackCeiling  float64 `yaml:"fallback_ceiling" mapstructure:"fallback_ceiling"`
}

// ParserConfig configures the report parser.
type ParserConfig struct {
	// FormatsFile overrides the embedded report format catalog.
	FormatsFile string `yaml:"formats_file" mapstructure:"formats_file"`
}

// AssistConfig configures optional Claude-assisted structuring.
type AssistConfig struct {
	Enabled     bool   `yaml:"enabled" mapstructure:"enabled"`
	APIKey      string `yaml:"api_key" mapstructure:"api_key"`
	Model       string `yaml:"model" mapstructure:"model"`
	MaxTokens   int    `yaml:"max_tokens" mapstructure:"max_tokens"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// CostsConfig holds per-call pricing in USD.
type CostsConfig struct {
	DocumentAIPerPage float64                 `yaml:"documentai_per_page" mapstructure:"documentai_per_page"`
	VisionPerPage     float64                 `yaml:"vision_per_page" mapstructure:"vision_per_page"`
	Anthropic         map[string]ModelPricing `yaml:"anthropic" mapstructure:"anthropic"`
}

// ModelPricing holds per-model token pricing (USD per million tokens).
type ModelPricing struct {
	Input         float64 `yaml:"input" mapstructure:"input"`
	Output        float64 `yaml:"output" mapstructure:"output"`
	CacheWriteMul float64 `yaml:"cache_write_mul" mapstructure:"cache_write_mul"`
	CacheReadMul  float64 `yaml:"cache_read_mul" mapstructure:"cache_read_mul"`
}

// MonitoringConfig configures operational alerts.
type MonitoringConfig struct {
	WebhookURL            string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	FallbackRateThreshold float64 `yaml:"fallback_rate_threshold" mapstructure:"fallback_rate_threshold"`
	CostThresholdUSD      float64 `yaml:"cost_threshold_usd" mapstructure:"cost_threshold_usd"`
	LookbackWindowHours   int     `yaml:"lookback_window_hours" mapstructure:"lookback_window_hours"`
	CheckIntervalSecs     int     `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
}

// StoreConfig configures the outcome store.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	MaxUploadMB int      `yaml:"max_upload_mb" mapstructure:"max_upload_mb"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// BatchConfig configures directory batch processing.
type BatchConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Timeout converts a seconds setting to a duration, 0 when unset.
func Timeout(secs int) time.Duration {
	if secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// Load reads configuration from config.yaml in the working directory and
// the environment.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile reads configuration from path, or from config.yaml in the working
// directory when path is empty. A missing default file is not an error.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	// Config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Environment
	v.SetEnvPrefix("CREDIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional unless named explicitly)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("tiers.documentai.enabled", false)
	v.SetDefault("tiers.documentai.project", "")
	v.SetDefault("tiers.documentai.location", "us")
	v.SetDefault("tiers.documentai.processor_id", "")
	v.SetDefault("tiers.documentai.credentials_file", "")
	v.SetDefault("tiers.documentai.endpoint", "")
	v.SetDefault("tiers.documentai.timeout_secs", 60)
	v.SetDefault("tiers.documentai.rate_per_sec", 2.0)
	v.SetDefault("tiers.documentai.burst", 4)

	v.SetDefault("tiers.vision.enabled", false)
	v.SetDefault("tiers.vision.api_key", "")
	v.SetDefault("tiers.vision.credentials_file", "")
	v.SetDefault("tiers.vision.endpoint", "")
	v.SetDefault("tiers.vision.timeout_secs", 30)
	v.SetDefault("tiers.vision.max_pdf_pages", 5)
	v.SetDefault("tiers.vision.rate_per_sec", 5.0)
	v.SetDefault("tiers.vision.burst", 10)

	v.SetDefault("tiers.basic_ocr.enabled", true)
	v.SetDefault("tiers.basic_ocr.tesseract_path", "tesseract")
	v.SetDefault("tiers.basic_ocr.lang", "eng")
	v.SetDefault("tiers.basic_ocr.psm", 3)
	v.SetDefault("tiers.basic_ocr.timeout_secs", 45)

	v.SetDefault("tiers.fallback.timeout_secs", 5)

	v.SetDefault("retry.attempts", 3)
	v.SetDefault("retry.initial_ms", 250)
	v.SetDefault("retry.max_ms", 2000)
	v.SetDefault("retry.multiplier", 2.0)
	v.SetDefault("retry.jitter", 0.2)

	v.SetDefault("circuit.failure_threshold", 5)
	v.SetDefault("circuit.cooldown_secs", 30)
	v.SetDefault("circuit.probes", 1)

	v.SetDefault("quality.symbol_density_threshold", 0.15)
	v.SetDefault("quality.empty_floor", 0.1)

	v.SetDefault("confidence.extraction_weight", 0.5)
	v.SetDefault("confidence.fallback_ceiling", 30.0)

	v.SetDefault("parser.formats_file", "")

	v.SetDefault("assist.enabled", false)
	v.SetDefault("assist.api_key", "")
	v.SetDefault("assist.model", "claude-haiku-4-5-20251001")
	v.SetDefault("assist.max_tokens", 4096)
	v.SetDefault("assist.timeout_secs", 60)

	v.SetDefault("costs.documentai_per_page", 0.0015)
	v.SetDefault("costs.vision_per_page", 0.0015)

	v.SetDefault("monitoring.webhook_url", "")
	v.SetDefault("monitoring.fallback_rate_threshold", 0.25)
	v.SetDefault("monitoring.cost_threshold_usd", 0.0)
	v.SetDefault("monitoring.lookback_window_hours", 24)
	v.SetDefault("monitoring.check_interval_secs", 300)

	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "credit-extract.db")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 1)

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.max_upload_mb", 20)
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("batch.concurrency", 4)
}

// Validate checks the settings a command needs. Problems are collected and
// reported together.
func (c *Config) Validate(mode string) error {
	var errs []string

	dai := c.Tiers.DocumentAI
	if dai.Enabled {
		if dai.Project == "" {
			errs = append(errs, "tiers.documentai.project is required")
		}
		if dai.ProcessorID == "" {
			errs = append(errs, "tiers.documentai.processor_id is required")
		}
	}
	if c.Tiers.Vision.Enabled && c.Tiers.Vision.APIKey == "" && c.Tiers.Vision.CredentialsFile == "" {
		errs = append(errs, "tiers.vision.api_key or tiers.vision.credentials_file is required")
	}
	if c.Assist.Enabled && c.Assist.APIKey == "" {
		errs = append(errs, "assist.api_key is required")
	}
	if w := c.Confidence.ExtractionWeight; w < 0 || w > 1 {
		errs = append(errs, "confidence.extraction_weight must be between 0 and 1")
	}
	if f := c.Confidence.FallbackCeiling; f < 0 || f > 100 {
		errs = append(errs, "confidence.fallback_ceiling must be between 0 and 100")
	}

	switch mode {
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be between 1 and 65535")
		}
		if c.Server.MaxUploadMB <= 0 {
			errs = append(errs, "server.max_upload_mb must be positive")
		}
	case "batch":
		if c.Batch.Concurrency <= 0 {
			errs = append(errs, "batch.concurrency must be positive")
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
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
