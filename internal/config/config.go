package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string   `mapstructure:"PORT"`
	Env         string   `mapstructure:"ENV"`
	DatabaseURL string   `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32    `mapstructure:"DB_MIN_CONNS"`
	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`

	GeminiAPIKey string `mapstructure:"GEMINI_API_KEY"`
	GeminiModel  string `mapstructure:"GEMINI_MODEL"`

	CacheEnabled bool `mapstructure:"CACHE_ENABLED"`
	MatchLimit   int  `mapstructure:"MATCH_LIMIT"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("MATCH_LIMIT", 0)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("GEMINI_API_KEY")
	v.BindEnv("GEMINI_MODEL")
	v.BindEnv("CACHE_ENABLED")
	v.BindEnv("MATCH_LIMIT")

	// Try reading .env, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Validate checks the configuration before the server starts. The product
// catalog falls back to the bundled data when DATABASE_URL is unset, so the
// database is optional here, unlike a persistence-backed service.
func (c *Config) Validate() error {
	if c.Env != "development" && c.Env != "production" && c.Env != "test" {
		return fmt.Errorf("ENV must be \"development\", \"production\", or \"test\", got %q", c.Env)
	}
	if c.MatchLimit < 0 {
		return fmt.Errorf("MATCH_LIMIT must not be negative, got %d", c.MatchLimit)
	}
	if c.DBMaxConns < c.DBMinConns {
		return fmt.Errorf("DB_MAX_CONNS (%d) must be at least DB_MIN_CONNS (%d)", c.DBMaxConns, c.DBMinConns)
	}
	if c.GeminiModel != "" && c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_MODEL is set but GEMINI_API_KEY is empty")
	}
	return nil
}
