package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

type LLMConfig struct {
	APIKey  string `toml:"api_key"`
	Model   string `toml:"model"`
	BaseURL string `toml:"base_url"`
}

type Config struct {
	Port     string `toml:"port"`
	LogLevel string `toml:"log_level"`
	LogDev   bool   `toml:"log_dev"`

	DefaultLLM string    `toml:"default_llm"`
	Gemini     LLMConfig `toml:"gemini"`
	OpenAI     LLMConfig `toml:"openai"`
	Claude     LLMConfig `toml:"claude"`
	PromptFile string    `toml:"prompt_file"`

	// Lenient turns off the shape check on model output.
	Lenient           bool `toml:"lenient"`
	RequestTimeoutSec int  `toml:"request_timeout_sec"`

	DatabaseURL   string `toml:"database_url"`
	CacheTTLHours int    `toml:"cache_ttl_hours"`

	TelegramBotToken string `toml:"telegram_bot_token"`
	WebhookURL       string `toml:"webhook_url"`
}

func defaults() *Config {
	return &Config{
		Port:              "8000",
		LogLevel:          "info",
		Gemini:            LLMConfig{Model: "gemini-2.5-flash"},
		OpenAI:            LLMConfig{Model: "gpt-4o-mini"},
		Claude:            LLMConfig{Model: "claude-3-5-sonnet-latest"},
		RequestTimeoutSec: 180,
		CacheTTLHours:     24 * 7,
	}
}

// Load reads .env (if present), then the TOML file at path (if any, or
// ZEROPOINT_CONFIG), then applies environment overrides.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg := defaults()

	if path == "" {
		path = strings.TrimSpace(os.Getenv("ZEROPOINT_CONFIG"))
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %q: %w", path, err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %q: %w", path, err)
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogDev = getBool("LOG_DEV", cfg.LogDev)

	cfg.DefaultLLM = getEnv("DEFAULT_LLM", cfg.DefaultLLM)
	cfg.Gemini.APIKey = getEnv("GEMINI_API_KEY", cfg.Gemini.APIKey)
	cfg.Gemini.Model = getEnv("GEMINI_MODEL", cfg.Gemini.Model)
	cfg.OpenAI.APIKey = getEnv("OPENAI_API_KEY", cfg.OpenAI.APIKey)
	cfg.OpenAI.Model = getEnv("OPENAI_MODEL", cfg.OpenAI.Model)
	cfg.OpenAI.BaseURL = getEnv("OPENAI_BASE_URL", cfg.OpenAI.BaseURL)
	cfg.Claude.APIKey = getEnv("ANTHROPIC_API_KEY", cfg.Claude.APIKey)
	cfg.Claude.Model = getEnv("ANTHROPIC_MODEL", cfg.Claude.Model)
	cfg.Claude.BaseURL = getEnv("ANTHROPIC_BASE_URL", cfg.Claude.BaseURL)
	cfg.PromptFile = getEnv("PROMPT_FILE", cfg.PromptFile)

	cfg.Lenient = getBool("LENIENT", cfg.Lenient)
	cfg.RequestTimeoutSec = getInt("REQUEST_TIMEOUT_SEC", cfg.RequestTimeoutSec)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.CacheTTLHours = getInt("CACHE_TTL_HOURS", cfg.CacheTTLHours)

	cfg.TelegramBotToken = getEnv("TELEGRAM_BOT_TOKEN", cfg.TelegramBotToken)
	cfg.WebhookURL = getEnv("WEBHOOK_URL", cfg.WebhookURL)

	// engines read the prompt override from the environment
	if cfg.PromptFile != "" {
		if err := os.Setenv("PROMPT_FILE", cfg.PromptFile); err != nil {
			return nil, err
		}
	}
	return cfg, cfg.Validate()
}

// Validate requires at least one engine key.
func (c *Config) Validate() error {
	if c.Gemini.APIKey == "" && c.OpenAI.APIKey == "" && c.Claude.APIKey == "" {
		return errors.New("no LLM configured: set GEMINI_API_KEY, OPENAI_API_KEY or ANTHROPIC_API_KEY")
	}
	if c.RequestTimeoutSec <= 0 {
		return fmt.Errorf("request_timeout_sec must be > 0, got %d", c.RequestTimeoutSec)
	}
	return nil
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSec) * time.Second
}

// CacheTTL is zero (never expire) when cache_ttl_hours is not positive.
func (c *Config) CacheTTL() time.Duration {
	if c.CacheTTLHours <= 0 {
		return 0
	}
	return time.Duration(c.CacheTTLHours) * time.Hour
}

// MustEnv returns the value of k or an error naming the missing variable.
func MustEnv(k string) (string, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return "", fmt.Errorf("missing required env %s", k)
	}
	return v, nil
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getBool(k string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getInt(k string, def int) int {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
