package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/spetersoncode/quizsolver"
)

// Config holds the CLI configuration.
type Config struct {
	// Provider selection and credential. An API key set here is used for
	// this run only and never written to the store.
	Provider string `yaml:"provider"`
	APIKey   string `yaml:"api_key"`

	LogLevel string        `yaml:"log_level"` // debug, info, warn, error
	Timeout  time.Duration `yaml:"timeout"`
	Store    string        `yaml:"store"` // keyring or memory

	// Endpoint overrides for the fixed providers.
	GeminiBaseURL string `yaml:"gemini_base_url"`
	OpenAIBaseURL string `yaml:"openai_base_url"`

	Mode   string `yaml:"mode"`
	Prompt string `yaml:"prompt"`
}

// LoadConfig loads configuration from the environment, then overlays the
// YAML file at path when one is given.
// It loads a .env file if present (silent fail if not found).
func LoadConfig(path string) (*Config, error) {
	godotenv.Load() // Load .env file if present

	cfg := &Config{
		Provider:      os.Getenv("QUIZSOLVER_PROVIDER"),
		APIKey:        os.Getenv("QUIZSOLVER_API_KEY"),
		LogLevel:      getEnvOrDefault("QUIZSOLVER_LOG_LEVEL", "warn"),
		Timeout:       getEnvDurationOrDefault("QUIZSOLVER_TIMEOUT", 30*time.Second),
		Store:         getEnvOrDefault("QUIZSOLVER_STORE", "keyring"),
		GeminiBaseURL: os.Getenv("QUIZSOLVER_GEMINI_BASE_URL"),
		OpenAIBaseURL: os.Getenv("QUIZSOLVER_OPENAI_BASE_URL"),
		Mode:          getEnvOrDefault("QUIZSOLVER_MODE", string(quizsolver.ModeQA)),
		Prompt:        os.Getenv("QUIZSOLVER_PROMPT"),
	}

	if path != "" {
		if err := cfg.overlay(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// overlay replaces fields with the non-empty values from a YAML file.
func (c *Config) overlay(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setIfNotEmpty(&c.Provider, file.Provider)
	setIfNotEmpty(&c.APIKey, file.APIKey)
	setIfNotEmpty(&c.LogLevel, file.LogLevel)
	setIfNotEmpty(&c.Store, file.Store)
	setIfNotEmpty(&c.GeminiBaseURL, file.GeminiBaseURL)
	setIfNotEmpty(&c.OpenAIBaseURL, file.OpenAIBaseURL)
	setIfNotEmpty(&c.Mode, file.Mode)
	setIfNotEmpty(&c.Prompt, file.Prompt)
	if file.Timeout != 0 {
		c.Timeout = file.Timeout
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch quizsolver.Provider(c.Provider) {
	case "", quizsolver.ProviderGemini, quizsolver.ProviderChatGPT, quizsolver.ProviderCustom:
	default:
		return fmt.Errorf("unknown provider: %s (must be gemini, chatgpt, or custom)", c.Provider)
	}

	if _, err := c.Level(); err != nil {
		return err
	}

	switch c.Store {
	case "keyring", "memory":
	default:
		return fmt.Errorf("unknown store: %s (must be keyring or memory)", c.Store)
	}

	switch quizsolver.Mode(c.Mode) {
	case quizsolver.ModeQA, quizsolver.ModeCoding:
	default:
		return fmt.Errorf("unknown mode: %s (must be qa or coding)", c.Mode)
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}

	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}
}

func setIfNotEmpty(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
