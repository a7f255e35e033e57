package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetDefaults(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)

	assert.Equal(t, defaultServiceName, cfg.Service.Name)
	assert.Equal(t, defaultServicePort, cfg.Service.Port)
	assert.Equal(t, ReaderModeProxy, cfg.Reader.Mode)
	assert.Equal(t, defaultReaderBaseURL, cfg.Reader.BaseURL)
	assert.Equal(t, 20*time.Second, cfg.Reader.Timeout)
	assert.Equal(t, defaultReaderServerHint, cfg.Reader.ServerTimeoutHint)
	assert.Equal(t, ProviderGemini, cfg.LLM.Provider)
	assert.Equal(t, 12000, cfg.Enrichment.ContentBudget)
	assert.Equal(t, 30*time.Minute, cfg.Enrichment.CacheTTL)
	assert.Equal(t, 10, cfg.RateLimit.MaxRequests)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, "X-Forwarded-For", cfg.RateLimit.ClientHeader)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	yml := []byte("service:\n  port: 9000\nreader:\n  timeout: 5s\nllm:\n  provider: openai\n  model: gpt-test\n")
	require.NoError(t, os.WriteFile(path, yml, 0o600))

	t.Setenv("ENV_FILE", filepath.Join(dir, "missing.env"))
	t.Setenv("ENRICHMENT_PORT", "9100")
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Service.Port, "env must win over file")
	assert.Equal(t, 5*time.Second, cfg.Reader.Timeout)
	assert.Equal(t, "gpt-test", cfg.LLM.Model)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey, "provider key used when LLM_API_KEY is unset")
	require.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ENV_FILE", filepath.Join(dir, "missing.env"))
	t.Setenv("LLM_API_KEY", "key")

	cfg, err := Load(filepath.Join(dir, "nope.yml"))
	require.NoError(t, err)
	assert.Equal(t, defaultServicePort, cfg.Service.Port)
	assert.Equal(t, "key", cfg.LLM.APIKey)
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envPath, []byte("READER_MODE=direct\n"), 0o600))
	t.Setenv("ENV_FILE", envPath)
	t.Cleanup(func() { _ = os.Unsetenv("READER_MODE") })

	cfg, err := Load(filepath.Join(dir, "nope.yml"))
	require.NoError(t, err)
	assert.Equal(t, ReaderModeDirect, cfg.Reader.Mode)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad port", func(c *Config) { c.Service.Port = 70000 }, "service.port"},
		{"bad reader mode", func(c *Config) { c.Reader.Mode = "crawl" }, "reader.mode"},
		{"bad provider", func(c *Config) { c.LLM.Provider = "cohere" }, "llm.provider"},
		{"missing api key", func(c *Config) { c.LLM.APIKey = "" }, "llm.api_key"},
		{"bad log level", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			setDefaults(cfg)
			cfg.LLM.APIKey = "key"
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)

			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestParseBool(t *testing.T) {
	for _, s := range []string{"true", "1", "YES", " yes "} {
		assert.True(t, parseBool(s), s)
	}
	for _, s := range []string{"false", "0", "", "nope"} {
		assert.False(t, parseBool(s), s)
	}
}
