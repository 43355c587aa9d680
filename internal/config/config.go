package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"FeedCollector/internal/domain"
)

const (
	defaultTimezone  = "UTC"
	configPathEnv    = "FEEDCOLLECTOR_CONFIG"
	llmProviderEnv   = "LLM_PROVIDER"
	llmModelEnv      = "LLM_MODEL"
	llmAPIKeyEnv     = "LLM_API_KEY"
	storageDriverEnv = "STORAGE_DRIVER"
	storageURIEnv    = "STORAGE_URI"
	alphaVantageEnv  = "ALPHAVANTAGE_API_KEY"
	logLevelEnv      = "LOG_LEVEL"
	telegramTokenEnv = "TELEGRAM_BOT_TOKEN"
	telegramChatEnv  = "TELEGRAM_CHAT_ID"
)

// Provider and driver names recognized in configuration.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderInference = "inference"

	DriverNone     = ""
	DriverMongoDB  = "mongodb"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
)

var providerKeyEnv = map[string]string{
	ProviderOpenAI:    "OPENAI_API_KEY",
	ProviderAnthropic: "ANTHROPIC_API_KEY",
	ProviderGemini:    "GEMINI_API_KEY",
	ProviderInference: "INFERENCE_API_KEY",
}

// providerDefaultModel is used when no model is configured. The inference
// endpoint picks its own model.
var providerDefaultModel = map[string]string{
	ProviderOpenAI:    "gpt-4o-mini",
	ProviderAnthropic: "claude-3-5-haiku-latest",
	ProviderGemini:    "gemini-2.0-flash",
}

var driverURIEnv = map[string]string{
	DriverMongoDB:  "MONGODB_URI",
	DriverPostgres: "DATABASE_DSN",
	DriverSQLite:   "SQLITE_PATH",
	DriverRedis:    "REDIS_URL",
}

// Config holds high-level settings required across the application.
type Config struct {
	Sources       []SourceConfig     `yaml:"sources" toml:"sources"`
	LLM           LLMConfig          `yaml:"llm" toml:"llm"`
	Storage       StorageConfig      `yaml:"storage" toml:"storage"`
	Collector     CollectorConfig    `yaml:"collector" toml:"collector"`
	Scheduler     SchedulerConfig    `yaml:"scheduler" toml:"scheduler"`
	Notifications NotificationConfig `yaml:"notifications" toml:"notifications"`
	Logging       LoggingConfig      `yaml:"logging" toml:"logging"`
}

// SourceConfig describes a single configured origin.
type SourceConfig struct {
	Name   string            `yaml:"name" toml:"name"`
	Type   string            `yaml:"type" toml:"type"`
	URL    string            `yaml:"url" toml:"url"`
	Symbol string            `yaml:"symbol" toml:"symbol"`
	APIKey string            `yaml:"api_key" toml:"api_key"`
	Params map[string]string `yaml:"params" toml:"params"`
}

// LLMConfig defines how to contact the summarization oracle.
type LLMConfig struct {
	Enabled             bool     `yaml:"enabled" toml:"enabled"`
	Provider            string   `yaml:"provider" toml:"provider"`
	Model               string   `yaml:"model" toml:"model"`
	SummaryModel        string   `yaml:"summary_model" toml:"summary_model"`
	APIKey              string   `yaml:"api_key" toml:"api_key"`
	BaseURL             string   `yaml:"base_url" toml:"base_url"`
	SystemPrompt        string   `yaml:"system_prompt" toml:"system_prompt"`
	SummarySystemPrompt string   `yaml:"summary_system_prompt" toml:"summary_system_prompt"`
	Temperature         float64  `yaml:"temperature" toml:"temperature"`
	MaxTokens           int      `yaml:"max_tokens" toml:"max_tokens"`
	SummaryTemperature  float64  `yaml:"summary_temperature" toml:"summary_temperature"`
	SummaryMaxTokens    int      `yaml:"summary_max_tokens" toml:"summary_max_tokens"`
	Timeout             Duration `yaml:"timeout" toml:"timeout"`
	Concurrency         int      `yaml:"concurrency" toml:"concurrency"`
}

// StorageConfig describes the document store connection and retry budget.
type StorageConfig struct {
	Driver         string   `yaml:"driver" toml:"driver"`
	URI            string   `yaml:"uri" toml:"uri"`
	Database       string   `yaml:"database" toml:"database"`
	Collection     string   `yaml:"collection" toml:"collection"`
	MaxRetries     int      `yaml:"max_retries" toml:"max_retries"`
	RetryDelay     Duration `yaml:"retry_delay" toml:"retry_delay"`
	ConnectTimeout Duration `yaml:"connect_timeout" toml:"connect_timeout"`
}

// CollectorConfig controls orchestration and the file artifact.
type CollectorConfig struct {
	Concurrency  int      `yaml:"concurrency" toml:"concurrency"`
	RunTimeout   Duration `yaml:"run_timeout" toml:"run_timeout"`
	OutputDir    string   `yaml:"output_dir" toml:"output_dir"`
	OutputPrefix string   `yaml:"output_prefix" toml:"output_prefix"`
	OutputMode   string   `yaml:"output_mode" toml:"output_mode"`
}

// SchedulerConfig defines how often the collector repeats in schedule mode.
type SchedulerConfig struct {
	Interval Duration       `yaml:"interval" toml:"interval"`
	Timezone string         `yaml:"timezone" toml:"timezone"`
	location *time.Location `yaml:"-" toml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram" toml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"bot_token" toml:"bot_token"`
	ChatID   string `yaml:"chat_id" toml:"chat_id"`
}

// LoggingConfig selects level and handler format.
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// Duration is a time.Duration read from strings such as "5s" or "15m".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	value := strings.TrimSpace(string(text))
	if value == "" {
		*d = 0
		return nil
	}
	if secs, err := strconv.Atoi(value); err == nil {
		*d = Duration(time.Duration(secs) * time.Second)
		return nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std converts to time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Load reads configuration from path (or FEEDCOLLECTOR_CONFIG) over defaults,
// applies environment overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := decode(path, raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	cfg.normalizeSources()

	if err := cfg.bindTimezone(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func decode(path string, raw []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.NewDecoder(bytes.NewReader(raw)).Decode(cfg)
	default:
		return yaml.Unmarshal(raw, cfg)
	}
}

// Validate checks the settings that would otherwise fail mid-run.
func (c Config) Validate() error {
	if len(c.Sources) == 0 {
		return fmt.Errorf("config: no sources configured")
	}
	for i, src := range c.Sources {
		if src.Type == "" {
			return fmt.Errorf("config: source %d has no type", i+1)
		}
	}

	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderAnthropic, ProviderGemini, ProviderInference:
	default:
		return fmt.Errorf("config: unknown llm provider %q", c.LLM.Provider)
	}

	switch c.Storage.Driver {
	case DriverNone, DriverMongoDB, DriverPostgres, DriverSQLite, DriverRedis:
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}

	if _, err := domain.ParseOutputMode(c.Collector.OutputMode); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Storage.MaxRetries < 1 {
		return fmt.Errorf("config: storage max_retries must be at least 1")
	}
	if c.Storage.RetryDelay < 0 || c.LLM.Timeout < 0 || c.Collector.RunTimeout < 0 {
		return fmt.Errorf("config: durations must not be negative")
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(llmProviderEnv); v != "" {
		c.LLM.Provider = v
	}
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))

	if v := os.Getenv(llmModelEnv); v != "" {
		c.LLM.Model = v
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = providerDefaultModel[c.LLM.Provider]
	}
	if v := os.Getenv(llmAPIKeyEnv); v != "" {
		c.LLM.APIKey = v
	}
	if c.LLM.APIKey == "" {
		if key, ok := providerKeyEnv[c.LLM.Provider]; ok {
			c.LLM.APIKey = os.Getenv(key)
		}
	}

	if v := os.Getenv(storageDriverEnv); v != "" {
		c.Storage.Driver = v
	}
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))

	if v := os.Getenv(storageURIEnv); v != "" {
		c.Storage.URI = v
	}
	if c.Storage.URI == "" {
		if key, ok := driverURIEnv[c.Storage.Driver]; ok {
			c.Storage.URI = os.Getenv(key)
		}
	}

	if v := os.Getenv(alphaVantageEnv); v != "" {
		for i := range c.Sources {
			if strings.EqualFold(c.Sources[i].Type, "stock") && c.Sources[i].APIKey == "" {
				c.Sources[i].APIKey = v
			}
		}
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}
	if v := os.Getenv(telegramChatEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}
}

// normalizeSources lowercases types and assigns unique names. An unnamed
// source is named after its type; a clashing name gets a "-<n>" suffix, n
// starting at its 1-based position and growing until the name is unused.
func (c *Config) normalizeSources() {
	seen := map[string]bool{}
	for i := range c.Sources {
		src := &c.Sources[i]
		src.Type = strings.ToLower(strings.TrimSpace(src.Type))
		src.Name = strings.TrimSpace(src.Name)
		if src.Name == "" {
			src.Name = src.Type
		}
		if seen[src.Name] {
			base := src.Name
			for n := i + 1; seen[src.Name]; n++ {
				src.Name = fmt.Sprintf("%s-%d", base, n)
			}
		}
		seen[src.Name] = true
	}
}

func (c *Config) bindTimezone() error {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fmt.Errorf("config: unknown timezone %s: %w", tz, err)
	}
	c.Scheduler.location = loc
	return nil
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		LLM: LLMConfig{
			Enabled:             true,
			Provider:            ProviderOpenAI,
			SystemPrompt:        "You are an assistant specialized in analyzing and synthesizing news.",
			SummarySystemPrompt: "You are an analyst specialized in synthesizing information from multiple sources and identifying relevant patterns.",
			Temperature:         0.7,
			MaxTokens:           500,
			SummaryTemperature:  0.3,
			SummaryMaxTokens:    1000,
			Timeout:             Duration(60 * time.Second),
			Concurrency:         1,
		},
		Storage: StorageConfig{
			Database:       "collector",
			Collection:     "summaries",
			MaxRetries:     3,
			RetryDelay:     Duration(5 * time.Second),
			ConnectTimeout: Duration(5 * time.Second),
		},
		Collector: CollectorConfig{
			Concurrency:  1,
			RunTimeout:   Duration(15 * time.Minute),
			OutputDir:    "output",
			OutputPrefix: "data",
			OutputMode:   string(domain.OutputEnvelope),
		},
		Scheduler: SchedulerConfig{Interval: Duration(time.Hour), Timezone: defaultTimezone, location: tz},
		Logging:   LoggingConfig{Level: "info", Format: "auto"},
	}
}
