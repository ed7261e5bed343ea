package config

import (
	"log"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone  = "UTC"
	configPathEnv    = "INSIGHTS_CONFIG"
	storeURLEnv      = "CONTENT_API_URL"
	storeTokenEnv    = "CONTENT_API_TOKEN"
	completionKeyEnv = "COMPLETION_API_KEY"
	completionMdlEnv = "COMPLETION_MODEL"
	databaseDSNEnv   = "DATABASE_DSN"
	adminIDsEnv      = "ADMIN_IDS"
	consultantIDsEnv = "CONSULTANT_IDS"
	telegramTokenEnv = "TELEGRAM_BOT_TOKEN"
	telegramChatEnv  = "TELEGRAM_CHAT_ID"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Store         StoreConfig        `yaml:"store"`
	Completion    CompletionConfig   `yaml:"completion"`
	Access        AccessConfig       `yaml:"access"`
	Pipeline      PipelineConfig     `yaml:"pipeline"`
	Sites         []SiteConfig       `yaml:"sites"`
	Database      DatabaseConfig     `yaml:"database"`
	Notifications NotificationConfig `yaml:"notifications"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
}

// LoggingConfig controls slog verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// StoreConfig points at the remote versioned-file API.
type StoreConfig struct {
	BaseURL string `yaml:"baseUrl"`
	Token   string `yaml:"token"`
}

// CompletionConfig defines how to contact the completion service.
type CompletionConfig struct {
	Endpoint     string `yaml:"endpoint"`
	Model        string `yaml:"model"`
	APIKey       string `yaml:"apiKey"`
	SystemPrompt string `yaml:"systemPrompt"`
}

// AccessConfig carries the static identity allowlists.
type AccessConfig struct {
	AdminIDs      []string `yaml:"adminIds"`
	ConsultantIDs []string `yaml:"consultantIds"`
}

// PipelineConfig tunes the weekly generation run.
type PipelineConfig struct {
	Themes            []ThemeConfig `yaml:"themes"`
	DefaultTheme      string        `yaml:"defaultTheme"`
	BatchSize         int           `yaml:"batchSize"`
	CitationLimit     int           `yaml:"citationLimit"`
	SubThemeLimit     int           `yaml:"subThemeLimit"`
	RecencyDays       int           `yaml:"recencyDays"`
	ClassifyMaxTokens int           `yaml:"classifyMaxTokens"`
	ArticleMaxTokens  int           `yaml:"articleMaxTokens"`
}

// ThemeConfig names one editorial theme with its suggested sub-themes.
type ThemeConfig struct {
	Name      string   `yaml:"name"`
	SubThemes []string `yaml:"subThemes"`
}

// SiteConfig describes a single feed source with its scanner strategy.
type SiteConfig struct {
	Name       string            `yaml:"name"`
	Scanner    string            `yaml:"scanner"`
	Categories []CategoryConfig  `yaml:"categories"`
	Options    map[string]string `yaml:"options"`
}

// CategoryConfig holds the concrete endpoints to crawl for a site.
type CategoryConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// DatabaseConfig describes the optional Postgres dedup store.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// SchedulerConfig defines when the pipeline should run.
type SchedulerConfig struct {
	Interval string         `yaml:"interval"`
	Timezone string         `yaml:"timezone"`
	location *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// IntervalDuration parses the configured interval, defaulting to weekly.
func (s SchedulerConfig) IntervalDuration() time.Duration {
	if d, err := time.ParseDuration(s.Interval); err == nil && d > 0 {
		return d
	}
	return 7 * 24 * time.Hour
}

// RecencyWindow converts the configured day count to a duration.
func (p PipelineConfig) RecencyWindow() time.Duration {
	days := p.RecencyDays
	if days <= 0 {
		days = 7
	}
	return time.Duration(days) * 24 * time.Hour
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	if len(cfg.Sites) == 0 {
		cfg.Sites = defaultConfig().Sites
	}
	if len(cfg.Pipeline.Themes) == 0 {
		cfg.Pipeline.Themes = defaultConfig().Pipeline.Themes
	}

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(storeURLEnv); v != "" {
		c.Store.BaseURL = v
	}
	if v := os.Getenv(storeTokenEnv); v != "" {
		c.Store.Token = v
	}

	if v := os.Getenv(completionKeyEnv); v != "" {
		c.Completion.APIKey = v
	}
	if v := os.Getenv(completionMdlEnv); v != "" {
		c.Completion.Model = v
	}

	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(adminIDsEnv); v != "" {
		c.Access.AdminIDs = splitIDs(v)
	}
	if v := os.Getenv(consultantIDsEnv); v != "" {
		c.Access.ConsultantIDs = splitIDs(v)
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}
	if v := os.Getenv(telegramChatEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}
}

func splitIDs(raw string) []string {
	parts := strings.Split(raw, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			ids = append(ids, p)
		}
	}
	return ids
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging = override.Logging
	}

	if override.Store.BaseURL != "" {
		base.Store.BaseURL = override.Store.BaseURL
	}
	if override.Store.Token != "" {
		base.Store.Token = override.Store.Token
	}

	if override.Completion.Endpoint != "" {
		base.Completion.Endpoint = override.Completion.Endpoint
	}
	if override.Completion.Model != "" {
		base.Completion.Model = override.Completion.Model
	}
	if override.Completion.APIKey != "" {
		base.Completion.APIKey = override.Completion.APIKey
	}
	if override.Completion.SystemPrompt != "" {
		base.Completion.SystemPrompt = override.Completion.SystemPrompt
	}

	if len(override.Access.AdminIDs) > 0 {
		base.Access.AdminIDs = override.Access.AdminIDs
	}
	if len(override.Access.ConsultantIDs) > 0 {
		base.Access.ConsultantIDs = override.Access.ConsultantIDs
	}

	if len(override.Pipeline.Themes) > 0 {
		base.Pipeline.Themes = override.Pipeline.Themes
	}
	if override.Pipeline.DefaultTheme != "" {
		base.Pipeline.DefaultTheme = override.Pipeline.DefaultTheme
	}
	if override.Pipeline.BatchSize > 0 {
		base.Pipeline.BatchSize = override.Pipeline.BatchSize
	}
	if override.Pipeline.CitationLimit > 0 {
		base.Pipeline.CitationLimit = override.Pipeline.CitationLimit
	}
	if override.Pipeline.SubThemeLimit > 0 {
		base.Pipeline.SubThemeLimit = override.Pipeline.SubThemeLimit
	}
	if override.Pipeline.RecencyDays > 0 {
		base.Pipeline.RecencyDays = override.Pipeline.RecencyDays
	}
	if override.Pipeline.ClassifyMaxTokens > 0 {
		base.Pipeline.ClassifyMaxTokens = override.Pipeline.ClassifyMaxTokens
	}
	if override.Pipeline.ArticleMaxTokens > 0 {
		base.Pipeline.ArticleMaxTokens = override.Pipeline.ArticleMaxTokens
	}

	if len(override.Sites) > 0 {
		base.Sites = override.Sites
	}

	if override.Database.DSN != "" {
		base.Database = override.Database
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	if override.Scheduler.Interval != "" {
		base.Scheduler.Interval = override.Scheduler.Interval
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Store:   StoreConfig{BaseURL: "https://content.example.org/v1"},
		Completion: CompletionConfig{
			Endpoint:     "https://api.openai.com/v1/chat/completions",
			Model:        "gpt-4o-mini",
			SystemPrompt: "You write for technology leaders at a consulting firm.",
		},
		Pipeline: PipelineConfig{
			DefaultTheme:      "Strategy",
			BatchSize:         10,
			CitationLimit:     5,
			SubThemeLimit:     3,
			RecencyDays:       7,
			ClassifyMaxTokens: 1024,
			ArticleMaxTokens:  2048,
			Themes: []ThemeConfig{
				{Name: "Strategy", SubThemes: []string{"Innovation", "Digital Transformation"}},
				{Name: "Security", SubThemes: []string{"Risk", "Compliance"}},
				{Name: "Data & AI", SubThemes: []string{"Analytics", "Machine Learning"}},
			},
		},
		Sites: []SiteConfig{
			{
				Name:    "industry-news",
				Scanner: "rss",
				Categories: []CategoryConfig{
					{Name: "technology", URL: "https://news.example.org/feeds/technology.xml"},
				},
			},
		},
		Scheduler: SchedulerConfig{Interval: "168h", Timezone: defaultTimezone, location: tz},
	}
}
