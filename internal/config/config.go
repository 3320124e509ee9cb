package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/wealthmastermind7-svg/AIEmployee/internal/llm"
)

// Config holds application configuration
type Config struct {
	Server struct {
		Port            string        `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		PublicURL       string        `yaml:"public_url"`
	} `yaml:"server"`

	Log struct {
		Development bool `yaml:"development"`
	} `yaml:"log"`

	Database struct {
		Type       string `yaml:"type"` // "sqlite" or "postgres"
		Path       string `yaml:"path"` // SQLite path or PostgreSQL URL
		Migrations string `yaml:"migrations"`
	} `yaml:"database"`

	// Providers are tried in order; the next one takes over after MaxFailuresBeforeSwitch errors.
	Providers               []llm.ProviderConfig `yaml:"providers"`
	MaxFailuresBeforeSwitch int                  `yaml:"max_failures_before_switch"`

	Generation struct {
		ChatMaxTokens    int    `yaml:"chat_max_tokens"`
		VoiceMaxTokens   int    `yaml:"voice_max_tokens"`
		SummaryMaxTokens int    `yaml:"summary_max_tokens"`
		DefaultPrompt    string `yaml:"default_prompt"`
		KnowledgeRows    int    `yaml:"knowledge_rows"`
	} `yaml:"generation"`

	Voice struct {
		Timeout      time.Duration `yaml:"timeout"`
		HistoryLimit int           `yaml:"history_limit"`
	} `yaml:"voice"`

	Batch struct {
		Concurrency      int           `yaml:"concurrency"`
		Retries          int           `yaml:"retries"`
		MinTimeout       time.Duration `yaml:"min_timeout"`
		MaxTimeout       time.Duration `yaml:"max_timeout"`
		StreamRetries    int           `yaml:"stream_retries"`
		StreamMinTimeout time.Duration `yaml:"stream_min_timeout"`
		StreamMaxTimeout time.Duration `yaml:"stream_max_timeout"`
	} `yaml:"batch"`

	Crawler struct {
		UserAgent string        `yaml:"user_agent"`
		Timeout   time.Duration `yaml:"timeout"`
		Browser   bool          `yaml:"browser"` // render pages with headless chrome
		Headless  bool          `yaml:"headless"`
	} `yaml:"crawler"`

	Auth struct {
		JWTSecret string        `yaml:"jwt_secret"`
		TokenTTL  time.Duration `yaml:"token_ttl"`
	} `yaml:"auth"`

	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   int64  `yaml:"chat_id"`
	} `yaml:"telegram"`

	Redis struct {
		URL     string        `yaml:"url"`
		LockTTL time.Duration `yaml:"lock_ttl"`
	} `yaml:"redis"`

	RateLimit struct {
		Enabled bool   `yaml:"enabled"`
		Rate    string `yaml:"rate"` // limiter format, e.g. "60-M"
	} `yaml:"rate_limit"`
}

// LoadConfig loads configuration from YAML file. A .env file next to the
// process is read first so that ${VAR} references can be expanded.
func LoadConfig(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	config := &Config{}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	config.applyDefaults()
	config.expandEnv()

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "5000"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 5 * time.Second
	}

	if c.Database.Type == "" {
		c.Database.Type = "sqlite"
	}
	if c.Database.Path == "" {
		c.Database.Path = "./data/workmate.db"
	}
	if c.Database.Migrations == "" {
		c.Database.Migrations = "migrations"
	}

	if c.MaxFailuresBeforeSwitch == 0 {
		c.MaxFailuresBeforeSwitch = 3
	}

	if c.Generation.ChatMaxTokens == 0 {
		c.Generation.ChatMaxTokens = 500
	}
	if c.Generation.VoiceMaxTokens == 0 {
		c.Generation.VoiceMaxTokens = 150
	}
	if c.Generation.SummaryMaxTokens == 0 {
		c.Generation.SummaryMaxTokens = 150
	}
	if c.Generation.DefaultPrompt == "" {
		c.Generation.DefaultPrompt = "You are a helpful AI assistant for a business. Be professional, friendly, and helpful."
	}
	if c.Generation.KnowledgeRows == 0 {
		c.Generation.KnowledgeRows = 20
	}

	if c.Voice.Timeout == 0 {
		c.Voice.Timeout = 30 * time.Second
	}
	if c.Voice.HistoryLimit == 0 {
		c.Voice.HistoryLimit = 6
	}

	if c.Batch.Concurrency == 0 {
		c.Batch.Concurrency = 2
	}
	if c.Batch.Retries == 0 {
		c.Batch.Retries = 7
	}
	if c.Batch.MinTimeout == 0 {
		c.Batch.MinTimeout = 2 * time.Second
	}
	if c.Batch.MaxTimeout == 0 {
		c.Batch.MaxTimeout = 128 * time.Second
	}
	if c.Batch.StreamRetries == 0 {
		c.Batch.StreamRetries = 5
	}
	if c.Batch.StreamMinTimeout == 0 {
		c.Batch.StreamMinTimeout = time.Second
	}
	if c.Batch.StreamMaxTimeout == 0 {
		c.Batch.StreamMaxTimeout = 15 * time.Second
	}

	if c.Crawler.UserAgent == "" {
		c.Crawler.UserAgent = "Mozilla/5.0 (compatible; WorkMateBot/1.0; +https://workmate.ai)"
	}
	if c.Crawler.Timeout == 0 {
		c.Crawler.Timeout = 30 * time.Second
	}

	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = 24 * time.Hour
	}

	if c.Redis.LockTTL == 0 {
		c.Redis.LockTTL = time.Minute
	}

	if c.RateLimit.Rate == "" {
		c.RateLimit.Rate = "60-M"
	}
}

// expandEnv resolves ${VAR} references in secrets and connection strings.
func (c *Config) expandEnv() {
	for i := range c.Providers {
		c.Providers[i].APIKey = os.ExpandEnv(c.Providers[i].APIKey)
		c.Providers[i].BaseURL = os.ExpandEnv(c.Providers[i].BaseURL)
	}
	c.Database.Path = os.ExpandEnv(c.Database.Path)
	c.Auth.JWTSecret = os.ExpandEnv(c.Auth.JWTSecret)
	c.Telegram.BotToken = os.ExpandEnv(c.Telegram.BotToken)
	c.Redis.URL = os.ExpandEnv(c.Redis.URL)
	c.Server.PublicURL = os.ExpandEnv(c.Server.PublicURL)
}

func (c *Config) validate() error {
	if c.Database.Type != "sqlite" && c.Database.Type != "postgres" {
		return fmt.Errorf("unsupported database type %q", c.Database.Type)
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	return nil
}
