package llm

import (
	"fmt"
	"time"
)

// TaskType labels a model call for observability.
type TaskType string

const (
	TaskChat   TaskType = "chat"
	TaskCoerce TaskType = "coerce"
)

// GeminiOpenAIEndpoint is Gemini's OpenAI-compatible base URL.
const GeminiOpenAIEndpoint = "https://generativelanguage.googleapis.com/v1beta/openai/"

// LLMConfig holds all configuration for the model subsystem.
type LLMConfig struct {
	Enabled  bool   `mapstructure:"enabled" toml:"enabled"`
	LogCalls bool   `mapstructure:"log_calls" toml:"log_calls"`
	Endpoint string `mapstructure:"endpoint" toml:"endpoint"`
	APIKey   string `mapstructure:"api_key" toml:"api_key"`
	Model    string `mapstructure:"model" toml:"model"`

	Temperature float64 `mapstructure:"temperature" toml:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens" toml:"max_tokens"`
	TimeoutMs   int     `mapstructure:"timeout_ms" toml:"timeout_ms"`

	// MaxRetries counts retries after the first attempt, so a call is made
	// at most 1+MaxRetries times.
	MaxRetries       int `mapstructure:"max_retries" toml:"max_retries"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" toml:"retry_base_delay_ms"`
	RetryJitterMs    int `mapstructure:"retry_jitter_ms" toml:"retry_jitter_ms"`

	MaxToolIterations int `mapstructure:"max_tool_iterations" toml:"max_tool_iterations"`

	RateLimitRPS   float64 `mapstructure:"rate_limit_rps" toml:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst" toml:"rate_limit_burst"`

	BreakerFailures  int `mapstructure:"breaker_failures" toml:"breaker_failures"`
	BreakerTimeoutMs int `mapstructure:"breaker_timeout_ms" toml:"breaker_timeout_ms"`
}

// DefaultConfig returns the production defaults. The model is enabled but
// nothing works until an API key is supplied.
func DefaultConfig() LLMConfig {
	return LLMConfig{
		Enabled:           true,
		Endpoint:          GeminiOpenAIEndpoint,
		Model:             "gemini-2.5-flash",
		Temperature:       0.2,
		MaxTokens:         2048,
		TimeoutMs:         30000,
		MaxRetries:        3,
		RetryBaseDelayMs:  2000,
		RetryJitterMs:     1000,
		MaxToolIterations: 4,
		RateLimitRPS:      1,
		RateLimitBurst:    3,
		BreakerFailures:   5,
		BreakerTimeoutMs:  30000,
	}
}

func (c LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

func (c LLMConfig) RetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: c.MaxRetries,
		BaseDelay:  time.Duration(c.RetryBaseDelayMs) * time.Millisecond,
		MaxJitter:  time.Duration(c.RetryJitterMs) * time.Millisecond,
	}
}

// Validate rejects settings that would make the client misbehave.
func (c LLMConfig) Validate() error {
	switch {
	case c.Model == "":
		return fmt.Errorf("llm.model is required")
	case c.Endpoint == "":
		return fmt.Errorf("llm.endpoint is required")
	case c.Temperature < 0 || c.Temperature > 2:
		return fmt.Errorf("llm.temperature must be between 0 and 2, got %v", c.Temperature)
	case c.MaxRetries < 0:
		return fmt.Errorf("llm.max_retries must not be negative")
	case c.MaxToolIterations < 1:
		return fmt.Errorf("llm.max_tool_iterations must be at least 1")
	case c.RateLimitRPS < 0:
		return fmt.Errorf("llm.rate_limit_rps must not be negative")
	}
	return nil
}
