// Package config loads coursechat settings from a TOML file, COURSECHAT_*
// environment variables and command-line flags, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alexanderramin/coursechat/internal/catalog"
	"github.com/alexanderramin/coursechat/internal/llm"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "COURSECHAT"
	// APIKeyEnv is read in addition to COURSECHAT_LLM_API_KEY.
	APIKeyEnv = "GEMINI_API_KEY"
)

type Config struct {
	Log       LogConfig       `mapstructure:"log" toml:"log"`
	Catalog   CatalogConfig   `mapstructure:"catalog" toml:"catalog"`
	Chat      ChatConfig      `mapstructure:"chat" toml:"chat"`
	LLM       llm.LLMConfig   `mapstructure:"llm" toml:"llm"`
	Analytics AnalyticsConfig `mapstructure:"analytics" toml:"analytics"`
	Server    ServerConfig    `mapstructure:"server" toml:"server"`
	MCP       MCPConfig       `mapstructure:"mcp" toml:"mcp"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" toml:"level"`   // debug, info, warn, error
	Format string `mapstructure:"format" toml:"format"` // text or json
}

type CatalogConfig struct {
	// FeedURL is an http(s) URL, a file:// URL or a local path.
	FeedURL         string `mapstructure:"feed_url" toml:"feed_url"`
	TimeoutMs       int    `mapstructure:"timeout_ms" toml:"timeout_ms"`
	CacheDir        string `mapstructure:"cache_dir" toml:"cache_dir"`
	FreshTTLSeconds int    `mapstructure:"fresh_ttl_seconds" toml:"fresh_ttl_seconds"`
	StaleTTLSeconds int    `mapstructure:"stale_ttl_seconds" toml:"stale_ttl_seconds"`
	OnlineFallback  bool   `mapstructure:"online_fallback" toml:"online_fallback"`
}

type ChatConfig struct {
	CompanyName   string `mapstructure:"company_name" toml:"company_name"`
	HistoryWindow int    `mapstructure:"history_window" toml:"history_window"`
	// Optional replacements for the embedded tables.
	RegionsFile   string `mapstructure:"regions_file" toml:"regions_file"`
	KnowledgeFile string `mapstructure:"knowledge_file" toml:"knowledge_file"`
}

type AnalyticsConfig struct {
	Enabled bool   `mapstructure:"enabled" toml:"enabled"`
	DBPath  string `mapstructure:"db_path" toml:"db_path"`
}

type ServerConfig struct {
	Host string `mapstructure:"host" toml:"host"`
	Port int    `mapstructure:"port" toml:"port"`
	Mode string `mapstructure:"mode" toml:"mode"` // gin mode: debug, release, test
	// AdminToken guards the analytics endpoints; empty disables them.
	AdminToken string `mapstructure:"admin_token" toml:"admin_token"`
}

type MCPConfig struct {
	Addr string `mapstructure:"addr" toml:"addr"`
}

// Addr is the listen address of the HTTP API.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// HomeDir is where state lives unless overridden: ~/.coursechat.
func HomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".coursechat"
	}
	return filepath.Join(home, ".coursechat")
}

// DefaultPath is the config file looked up when none is given.
func DefaultPath() string {
	return filepath.Join(HomeDir(), "config.toml")
}

func Default() Config {
	home := HomeDir()
	return Config{
		Log: LogConfig{Level: "info", Format: "text"},
		Catalog: CatalogConfig{
			FeedURL:         catalog.DefaultFeedURL,
			TimeoutMs:       15000,
			CacheDir:        filepath.Join(home, "cache"),
			FreshTTLSeconds: 900,
			StaleTTLSeconds: 7 * 24 * 3600,
		},
		Chat: ChatConfig{
			CompanyName:   "Target Zero Training",
			HistoryWindow: 10,
		},
		LLM:       llm.DefaultConfig(),
		Analytics: AnalyticsConfig{Enabled: true, DBPath: filepath.Join(home, "analytics.db")},
		Server:    ServerConfig{Host: "127.0.0.1", Port: 8080, Mode: "release"},
		MCP:       MCPConfig{Addr: "127.0.0.1:8090"},
	}
}

// New returns a viper instance with defaults and environment bindings.
// Flags can be bound onto it before Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, Default())
	_ = v.BindEnv("llm.api_key", EnvPrefix+"_LLM_API_KEY", APIKeyEnv)
	return v
}

// flagKeys maps config keys onto the command-line flags that override them.
var flagKeys = map[string]string{
	"log.level":        "log-level",
	"log.format":       "log-format",
	"catalog.feed_url": "feed",
}

// BindFlags makes the flags in fs that set a config key take precedence
// over the file and the environment. Flags missing from fs are skipped.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	if fs == nil {
		return nil
	}
	for key, name := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding --%s: %w", name, err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	v.SetDefault("catalog.feed_url", d.Catalog.FeedURL)
	v.SetDefault("catalog.timeout_ms", d.Catalog.TimeoutMs)
	v.SetDefault("catalog.cache_dir", d.Catalog.CacheDir)
	v.SetDefault("catalog.fresh_ttl_seconds", d.Catalog.FreshTTLSeconds)
	v.SetDefault("catalog.stale_ttl_seconds", d.Catalog.StaleTTLSeconds)
	v.SetDefault("catalog.online_fallback", d.Catalog.OnlineFallback)

	v.SetDefault("chat.company_name", d.Chat.CompanyName)
	v.SetDefault("chat.history_window", d.Chat.HistoryWindow)
	v.SetDefault("chat.regions_file", d.Chat.RegionsFile)
	v.SetDefault("chat.knowledge_file", d.Chat.KnowledgeFile)

	v.SetDefault("llm.enabled", d.LLM.Enabled)
	v.SetDefault("llm.log_calls", d.LLM.LogCalls)
	v.SetDefault("llm.endpoint", d.LLM.Endpoint)
	v.SetDefault("llm.api_key", d.LLM.APIKey)
	v.SetDefault("llm.model", d.LLM.Model)
	v.SetDefault("llm.temperature", d.LLM.Temperature)
	v.SetDefault("llm.max_tokens", d.LLM.MaxTokens)
	v.SetDefault("llm.timeout_ms", d.LLM.TimeoutMs)
	v.SetDefault("llm.max_retries", d.LLM.MaxRetries)
	v.SetDefault("llm.retry_base_delay_ms", d.LLM.RetryBaseDelayMs)
	v.SetDefault("llm.retry_jitter_ms", d.LLM.RetryJitterMs)
	v.SetDefault("llm.max_tool_iterations", d.LLM.MaxToolIterations)
	v.SetDefault("llm.rate_limit_rps", d.LLM.RateLimitRPS)
	v.SetDefault("llm.rate_limit_burst", d.LLM.RateLimitBurst)
	v.SetDefault("llm.breaker_failures", d.LLM.BreakerFailures)
	v.SetDefault("llm.breaker_timeout_ms", d.LLM.BreakerTimeoutMs)

	v.SetDefault("analytics.enabled", d.Analytics.Enabled)
	v.SetDefault("analytics.db_path", d.Analytics.DBPath)

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.mode", d.Server.Mode)
	v.SetDefault("server.admin_token", d.Server.AdminToken)

	v.SetDefault("mcp.addr", d.MCP.Addr)
}

// Load reads path (or DefaultPath when empty) into v and decodes the result.
// A missing default file is not an error; a missing explicit file is.
func Load(v *viper.Viper, path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit || !(errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)) {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if err := c.LLM.Validate(); err != nil {
		return err
	}
	switch {
	case c.Log.Format != "text" && c.Log.Format != "json":
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	case c.Catalog.FeedURL == "":
		return fmt.Errorf("catalog.feed_url is required")
	case c.Catalog.FreshTTLSeconds < 0 || c.Catalog.StaleTTLSeconds < 0:
		return fmt.Errorf("catalog cache TTLs must not be negative")
	case c.Chat.HistoryWindow < 1:
		return fmt.Errorf("chat.history_window must be at least 1")
	case c.Server.Port < 0 || c.Server.Port > 65535:
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	return nil
}

// Masked returns a copy safe to print: secrets keep only their last four
// characters.
func (c Config) Masked() Config {
	c.LLM.APIKey = mask(c.LLM.APIKey)
	c.Server.AdminToken = mask(c.Server.AdminToken)
	return c
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return "****" + s[len(s)-4:]
}

// Encode renders cfg as TOML.
func Encode(cfg Config) ([]byte, error) {
	return toml.Marshal(cfg)
}

// WriteDefault writes the default configuration to path. An existing file
// is only replaced when force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	data, err := Encode(Default())
	if err != nil {
		return fmt.Errorf("encoding default config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}
