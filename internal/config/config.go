// Package config loads the enrichment service configuration from YAML with
// .env and environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"time"
)

// Default configuration values.
const (
	defaultServiceName = "enrichment"
	defaultServicePort = 8098
	defaultVersion     = "0.1.0"

	defaultReaderMode       = ReaderModeProxy
	defaultReaderBaseURL    = "https://r.jina.ai/"
	defaultReaderTimeout    = 20 * time.Second
	defaultReaderServerHint = 15

	defaultLLMProvider  = ProviderGemini
	defaultLLMMaxTokens = 2048
	defaultLLMTimeout   = 2 * time.Minute

	defaultContentBudget = 12000
	defaultCacheTTL      = 30 * time.Minute

	defaultRateLimitMax    = 10
	defaultRateLimitWindow = time.Minute
	defaultClientHeader    = "X-Forwarded-For"

	defaultLoggingLevel = "info"
	defaultLoggingFmt   = "json"
)

// Reader modes.
const (
	ReaderModeProxy  = "proxy"
	ReaderModeDirect = "direct"
)

// LLM providers.
const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// providerKeyEnv names the conventional API-key variable for each provider,
// consulted when LLM_API_KEY is not set.
var providerKeyEnv = map[string]string{
	ProviderGemini:    "GEMINI_API_KEY",
	ProviderOpenAI:    "OPENAI_API_KEY",
	ProviderAnthropic: "ANTHROPIC_API_KEY",
}

// Config holds the application configuration.
type Config struct {
	Service    ServiceConfig    `yaml:"service"`
	Reader     ReaderConfig     `yaml:"reader"`
	LLM        LLMConfig        `yaml:"llm"`
	Enrichment EnrichmentConfig `yaml:"enrichment"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServiceConfig holds service-level configuration.
type ServiceConfig struct {
	Name        string   `yaml:"name"`
	Version     string   `yaml:"version"`
	Port        int      `env:"ENRICHMENT_PORT" yaml:"port"`
	Debug       bool     `env:"APP_DEBUG"       yaml:"debug"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// ReaderConfig configures page fetching.
type ReaderConfig struct {
	// Mode is "proxy" (text-extraction reader service) or "direct".
	Mode    string        `env:"READER_MODE"     yaml:"mode"`
	BaseURL string        `env:"READER_BASE_URL" yaml:"base_url"`
	APIKey  string        `env:"READER_API_KEY"  yaml:"api_key"`
	Timeout time.Duration `env:"READER_TIMEOUT"  yaml:"timeout"`
	// ServerTimeoutHint is sent as X-Timeout (seconds) to the reader proxy.
	ServerTimeoutHint int `yaml:"server_timeout_hint"`
	// RequestsPerSecond throttles outbound reader calls; 0 disables.
	RequestsPerSecond float64 `env:"READER_RPS" yaml:"requests_per_second"`
	UserAgent         string  `yaml:"user_agent"`
}

// LLMConfig selects and configures the generative model.
type LLMConfig struct {
	Provider  string `env:"LLM_PROVIDER" yaml:"provider"`
	Model     string `env:"LLM_MODEL"    yaml:"model"`
	APIKey    string `env:"LLM_API_KEY"  yaml:"api_key"`
	BaseURL   string `env:"LLM_BASE_URL" yaml:"base_url"`
	MaxTokens int    `yaml:"max_tokens"`
	// Timeout bounds one model call.
	Timeout time.Duration `env:"LLM_TIMEOUT" yaml:"timeout"`
}

// EnrichmentConfig holds pipeline tuning.
type EnrichmentConfig struct {
	// ContentBudget is the character cap applied to the joined page corpus.
	ContentBudget int           `yaml:"content_budget"`
	CacheTTL      time.Duration `env:"ENRICHMENT_CACHE_TTL" yaml:"cache_ttl"`
}

// RateLimitConfig holds admission control configuration.
type RateLimitConfig struct {
	MaxRequests int           `yaml:"max_requests"`
	Window      time.Duration `yaml:"window"`
	// ClientHeader is the forwarded-IP header used as the limiter key.
	ClientHeader string `yaml:"client_header"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL"  yaml:"level"`
	Format string `env:"LOG_FORMAT" yaml:"format"`
}

// Load loads configuration from the specified path.
func Load(path string) (*Config, error) {
	cfg, err := loadFile[Config](path, setDefaults)
	if err != nil {
		return nil, err
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv(providerKeyEnv[cfg.LLM.Provider])
	}
	return cfg, nil
}

func setDefaults(cfg *Config) {
	setServiceDefaults(&cfg.Service)
	setReaderDefaults(&cfg.Reader)
	setLLMDefaults(&cfg.LLM)
	setEnrichmentDefaults(&cfg.Enrichment)
	setRateLimitDefaults(&cfg.RateLimit)
	setLoggingDefaults(&cfg.Logging)
}

func setServiceDefaults(svc *ServiceConfig) {
	if svc.Name == "" {
		svc.Name = defaultServiceName
	}
	if svc.Version == "" {
		svc.Version = defaultVersion
	}
	if svc.Port == 0 {
		svc.Port = defaultServicePort
	}
}

func setReaderDefaults(r *ReaderConfig) {
	if r.Mode == "" {
		r.Mode = defaultReaderMode
	}
	if r.BaseURL == "" {
		r.BaseURL = defaultReaderBaseURL
	}
	if r.Timeout == 0 {
		r.Timeout = defaultReaderTimeout
	}
	if r.ServerTimeoutHint == 0 {
		r.ServerTimeoutHint = defaultReaderServerHint
	}
}

func setLLMDefaults(l *LLMConfig) {
	if l.Provider == "" {
		l.Provider = defaultLLMProvider
	}
	if l.MaxTokens == 0 {
		l.MaxTokens = defaultLLMMaxTokens
	}
	if l.Timeout == 0 {
		l.Timeout = defaultLLMTimeout
	}
}

func setEnrichmentDefaults(e *EnrichmentConfig) {
	if e.ContentBudget == 0 {
		e.ContentBudget = defaultContentBudget
	}
	if e.CacheTTL == 0 {
		e.CacheTTL = defaultCacheTTL
	}
}

func setRateLimitDefaults(rl *RateLimitConfig) {
	if rl.MaxRequests == 0 {
		rl.MaxRequests = defaultRateLimitMax
	}
	if rl.Window == 0 {
		rl.Window = defaultRateLimitWindow
	}
	if rl.ClientHeader == "" {
		rl.ClientHeader = defaultClientHeader
	}
}

func setLoggingDefaults(log *LoggingConfig) {
	if log.Level == "" {
		log.Level = defaultLoggingLevel
	}
	if log.Format == "" {
		log.Format = defaultLoggingFmt
	}
}

// ValidationError describes an invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Service.Port < 1 || c.Service.Port > 65535 {
		return &ValidationError{Field: "service.port", Message: "must be between 1 and 65535"}
	}
	switch c.Reader.Mode {
	case ReaderModeProxy, ReaderModeDirect:
	default:
		return &ValidationError{Field: "reader.mode", Message: "must be one of: proxy, direct"}
	}
	if _, ok := providerKeyEnv[c.LLM.Provider]; !ok {
		return &ValidationError{Field: "llm.provider", Message: "must be one of: gemini, openai, anthropic"}
	}
	if c.LLM.APIKey == "" {
		return &ValidationError{
			Field:   "llm.api_key",
			Message: "is required (set LLM_API_KEY or " + providerKeyEnv[c.LLM.Provider] + ")",
		}
	}
	if c.Enrichment.ContentBudget < 0 {
		return &ValidationError{Field: "enrichment.content_budget", Message: "must not be negative"}
	}
	if c.RateLimit.MaxRequests < 1 {
		return &ValidationError{Field: "rate_limit.max_requests", Message: "must be at least 1"}
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return &ValidationError{Field: "logging.level", Message: "must be one of: debug, info, warn, error"}
	}
	return nil
}
