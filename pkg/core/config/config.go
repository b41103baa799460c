// Package config loads the analyst configuration from a YAML file with
// environment variable overrides. API keys only ever come from the
// environment (or a .env file loaded by the binaries).
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"statement_analyst/pkg/core/calc"
)

// DefaultPath is where the binaries look for the config file.
const DefaultPath = "config/analyst.yaml"

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	LLM     LLMConfig     `yaml:"llm"`
	Markers calc.Markers  `yaml:"markers"`
	Log     LogConfig     `yaml:"log"`
	Prompts PromptsConfig `yaml:"prompts"`
	Session SessionConfig `yaml:"session"`
}

type ServerConfig struct {
	Addr          string `yaml:"addr"`
	MaxUploadSize int64  `yaml:"max_upload_bytes"`
}

type LLMConfig struct {
	ActiveProvider string                    `yaml:"active_provider"`
	Temperature    float32                   `yaml:"temperature"`
	Providers      map[string]ProviderConfig `yaml:"providers"`
}

// ProviderConfig configures one LLM backend. APIKey is filled from APIKeyEnv.
type ProviderConfig struct {
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
	BaseURL   string `yaml:"base_url"`
	MaxTokens int    `yaml:"max_tokens"`
	APIKey    string `yaml:"-"`
}

type LogConfig struct {
	File       string `yaml:"file"`
	Production bool   `yaml:"production"`
}

type PromptsConfig struct {
	// Dir optionally overrides the embedded prompt library.
	Dir string `yaml:"dir"`
}

type SessionConfig struct {
	TTL      time.Duration `yaml:"ttl"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:          ":8080",
			MaxUploadSize: 10 << 20,
		},
		LLM: LLMConfig{
			ActiveProvider: "gemini",
			Temperature:    0.2,
			Providers: map[string]ProviderConfig{
				"gemini": {
					Model:     "gemini-2.5-flash",
					APIKeyEnv: "GEMINI_API_KEY",
				},
				"claude": {
					Model:     "claude-sonnet-4-20250514",
					APIKeyEnv: "ANTHROPIC_API_KEY",
					MaxTokens: 2048,
				},
				"deepseek": {
					Model:     "deepseek-chat",
					APIKeyEnv: "DEEPSEEK_API_KEY",
					BaseURL:   "https://api.deepseek.com/chat/completions",
					MaxTokens: 4096,
				},
			},
		},
		Markers: calc.DefaultMarkers(),
		Session: SessionConfig{
			TTL:      2 * time.Hour,
			CacheTTL: 30 * time.Minute,
		},
	}
}

// Load reads path over the defaults. A missing file is not an error; the
// defaults (plus environment) are used instead.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// defaults only
	default:
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv fills API keys and the documented overrides.
func (c *Config) applyEnv() {
	defaults := Default()
	for name, pc := range c.LLM.Providers {
		if pc.APIKeyEnv == "" {
			pc.APIKeyEnv = defaults.LLM.Providers[name].APIKeyEnv
		}
		if pc.APIKeyEnv != "" {
			pc.APIKey = os.Getenv(pc.APIKeyEnv)
		}
		c.LLM.Providers[name] = pc
	}

	if v := os.Getenv("ANALYST_PROVIDER"); v != "" {
		c.LLM.ActiveProvider = v
	}
	if v := os.Getenv("ANALYST_ADDR"); v != "" {
		c.Server.Addr = v
	}
}

// Provider returns the configuration for name (zero value when absent).
func (c Config) Provider(name string) ProviderConfig {
	return c.LLM.Providers[name]
}
