package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the hummingbird backend.
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Search    SearchConfig    `mapstructure:"search"`
	LogoCache LogoCacheConfig `mapstructure:"logo_cache"`
	Sessions  SessionsConfig  `mapstructure:"sessions"`
}

// GeneralConfig contains general application settings.
type GeneralConfig struct {
	Debug          bool          `mapstructure:"debug"`
	LogLevel       string        `mapstructure:"log_level"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Address       string `mapstructure:"address"`
	WebhookSecret string `mapstructure:"webhook_secret"`
}

// LLMConfig contains the language model provider configuration.
type LLMConfig struct {
	Provider    string           `mapstructure:"provider"` // openai
	APIKey      string           `mapstructure:"api_key"`
	BaseURL     string           `mapstructure:"base_url"`
	MaxTokens   int              `mapstructure:"max_tokens"`
	Temperature float64          `mapstructure:"temperature"`
	Timeout     time.Duration    `mapstructure:"timeout"`
	Routing     LLMRoutingConfig `mapstructure:"routing"`
}

// LLMRoutingConfig defines which model to use for different tasks.
type LLMRoutingConfig struct {
	Clarify     string `mapstructure:"clarify"`     // sufficiency checks and clarifying questions
	Listing     string `mapstructure:"listing"`     // bounded list generation
	Structuring string `mapstructure:"structuring"` // structured recommendation assembly
	Fallback    string `mapstructure:"fallback"`
}

// Model returns the routed model name, falling back when unset.
func (r LLMRoutingConfig) Model(name string) string {
	if name != "" {
		return name
	}
	return r.Fallback
}

// SearchConfig contains the web search provider configuration.
type SearchConfig struct {
	Provider   string        `mapstructure:"provider"` // tavily, serper
	APIKey     string        `mapstructure:"api_key"`
	MaxResults int           `mapstructure:"max_results"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// LogoCacheConfig controls the durable logo URL cache.
type LogoCacheConfig struct {
	Path           string `mapstructure:"path"`
	DefaultLogoURL string `mapstructure:"default_logo_url"`
}

// SessionsConfig selects and tunes the session store.
type SessionsConfig struct {
	Store string        `mapstructure:"store"` // inmemory, redis
	TTL   time.Duration `mapstructure:"ttl"`
	Redis RedisConfig   `mapstructure:"redis"`
}

// RedisConfig contains redis connection settings for the session store.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LoadConfig reads configuration from file and environment.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("general.debug", false)
	v.SetDefault("general.log_level", "info")
	v.SetDefault("general.default_timeout", "120s")
	v.SetDefault("server.address", ":8080")
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.max_tokens", 4096)
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.timeout", "60s")
	v.SetDefault("llm.routing.clarify", "gpt-4o-mini")
	v.SetDefault("llm.routing.listing", "gpt-4o-mini")
	v.SetDefault("llm.routing.structuring", "gpt-4o-mini")
	v.SetDefault("llm.routing.fallback", "gpt-4o-mini")
	v.SetDefault("search.provider", "tavily")
	v.SetDefault("search.max_results", 3)
	v.SetDefault("search.timeout", "30s")
	v.SetDefault("logo_cache.path", "logo_cache.json")
	v.SetDefault("sessions.store", "inmemory")
	v.SetDefault("sessions.ttl", "24h")
	v.SetDefault("sessions.redis.addr", "localhost:6379")

	v.SetEnvPrefix("HUMMINGBIRD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && path != "" {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	// Env fallbacks matching the provider conventions.
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.Search.APIKey == "" {
		switch cfg.Search.Provider {
		case "serper":
			cfg.Search.APIKey = os.Getenv("SERPER_API_KEY")
		default:
			cfg.Search.APIKey = os.Getenv("TAVILY_API_KEY")
		}
	}
	if cfg.Server.WebhookSecret == "" {
		cfg.Server.WebhookSecret = os.Getenv("WEBHOOK_SECRET")
	}

	return &cfg, nil
}
