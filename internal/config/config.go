// Package config loads service settings from the environment.
//
// A .env file in the working directory is loaded first when present, then
// every key can be overridden by a real environment variable of the same
// upper-case name (PORT, OPENROUTER_API_KEY, SAFETY_REWRITE, ...).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/latestcomment/go-ai-debate/internal/models"
)

type Config struct {
	Port   int    `mapstructure:"port"`
	DBPath string `mapstructure:"db_path"` // empty keeps everything in memory

	OpenRouterAPIKey  string        `mapstructure:"openrouter_api_key"`
	AIModel           string        `mapstructure:"ai_model"`
	AIBaseURL         string        `mapstructure:"ai_base_url"`
	GenerationRPS     float64       `mapstructure:"generation_rps"`
	GenerationTimeout time.Duration `mapstructure:"generation_timeout"`

	MaxTokensPerTurn int             `mapstructure:"max_tokens_per_turn"`
	DefaultStyle     models.StyleTag `mapstructure:"default_style"`

	SafetyRewrite     string        `mapstructure:"safety_rewrite"` // "on" enables the remote rewrite
	RewriteTimeout    time.Duration `mapstructure:"rewrite_timeout"`
	GuardrailPatterns string        `mapstructure:"guardrail_patterns"` // comma separated, added to the defaults

	RateLimitMax    int           `mapstructure:"rate_limit_max"`
	RateLimitWindow time.Duration `mapstructure:"rate_limit_window"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

var defaults = map[string]any{
	"port":                3000,
	"db_path":             "",
	"openrouter_api_key":  "",
	"ai_model":            "deepseek/deepseek-chat-v3.1:free",
	"ai_base_url":         "https://openrouter.ai/api/v1",
	"generation_rps":      2.0,
	"generation_timeout":  30 * time.Second,
	"max_tokens_per_turn": 400,
	"default_style":       string(models.StyleWitty),
	"safety_rewrite":      "off",
	"rewrite_timeout":     10 * time.Second,
	"guardrail_patterns":  "",
	"rate_limit_max":      20,
	"rate_limit_window":   15 * time.Second,
	"log_level":           "info",
	"log_format":          "json",
}

// Load reads the optional dotenv files (".env" when none are given) and
// the environment.
func Load(envFiles ...string) (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load(envFiles...)

	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: PORT out of range: %d", c.Port)
	}
	if c.MaxTokensPerTurn <= 0 {
		return fmt.Errorf("config: MAX_TOKENS_PER_TURN must be positive")
	}
	if !c.DefaultStyle.Valid() {
		return fmt.Errorf("config: DEFAULT_STYLE %q is not one of witty, academic, chaotic", c.DefaultStyle)
	}
	if c.RateLimitMax <= 0 || c.RateLimitWindow <= 0 {
		return fmt.Errorf("config: rate limit must be positive")
	}
	if c.GenerationRPS <= 0 {
		return fmt.Errorf("config: GENERATION_RPS must be positive")
	}
	return nil
}

// RewriteEnabled reports whether SAFETY_REWRITE turns the remote rewrite on.
func (c *Config) RewriteEnabled() bool {
	switch strings.ToLower(strings.TrimSpace(c.SafetyRewrite)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

// ExtraPatterns splits GUARDRAIL_PATTERNS.
func (c *Config) ExtraPatterns() []string {
	if strings.TrimSpace(c.GuardrailPatterns) == "" {
		return nil
	}
	return strings.Split(c.GuardrailPatterns, ",")
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
