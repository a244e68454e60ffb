package config

import (
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	customerrors "github.com/axellelanca/linkquota/internal/errors"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the main structure mapping the entire application configuration.
// It is loaded and validated once at startup and treated as read-only afterwards.
type Config struct {
	// Server configuration section containing HTTP server settings
	Server struct {
		Port    int    `mapstructure:"port"`     // HTTP server port (default: 8080)
		BaseURL string `mapstructure:"base_url"` // Base URL for generating short links
	} `mapstructure:"server"`

	// Database configuration section for SQLite settings
	Database struct {
		Name string `mapstructure:"name"` // SQLite database file name
	} `mapstructure:"database"`

	// Links holds the code length and the click quota bounds.
	Links LinkSettings `mapstructure:"links"`

	// Sweeper configuration for the expiration sweep loop
	Sweeper struct {
		IntervalMinutes int `mapstructure:"interval_minutes"` // Minutes between two expiration sweeps
	} `mapstructure:"sweeper"`
}

// MaxTTLHours is the largest TTL, in hours, that fits in a time.Duration.
const MaxTTLHours = math.MaxInt64 / int64(time.Hour)

// TTLInBounds reports whether hours is a positive TTL that fits in a time.Duration.
func TTLInBounds(hours int) bool {
	return hours > 0 && int64(hours) <= MaxTTLHours
}

// LinkSettings are the rules the link service enforces on every creation.
type LinkSettings struct {
	CodeLength       int `mapstructure:"code_length"`
	FallbackTTLHours int `mapstructure:"fallback_ttl_hours"`
	MinClicks        int `mapstructure:"min_clicks"`
	MaxClicks        int `mapstructure:"max_clicks"`
	DefaultClicks    int `mapstructure:"default_clicks"`
}

// FallbackTTL is used when a user policy has no positive TTL.
func (s LinkSettings) FallbackTTL() time.Duration {
	return time.Duration(s.FallbackTTLHours) * time.Hour
}

// QuotaInBounds reports whether a click quota lies in [MinClicks, MaxClicks].
func (s LinkSettings) QuotaInBounds(quota int) bool {
	return quota >= s.MinClicks && quota <= s.MaxClicks
}

// Validate rejects settings the link service cannot work with.
func (s LinkSettings) Validate() error {
	switch {
	case s.CodeLength <= 0:
		return customerrors.Validation("config", "links.code_length must be > 0, got %d", s.CodeLength)
	case !TTLInBounds(s.FallbackTTLHours):
		return customerrors.Validation("config", "links.fallback_ttl_hours must be in [1, %d], got %d", MaxTTLHours, s.FallbackTTLHours)
	case s.MinClicks <= 0:
		return customerrors.Validation("config", "links.min_clicks must be > 0, got %d", s.MinClicks)
	case s.MinClicks > s.MaxClicks:
		return customerrors.Validation("config", "links.min_clicks (%d) is greater than links.max_clicks (%d)", s.MinClicks, s.MaxClicks)
	case !s.QuotaInBounds(s.DefaultClicks):
		return customerrors.Validation("config", "links.default_clicks %d is outside [%d, %d]", s.DefaultClicks, s.MinClicks, s.MaxClicks)
	}
	return nil
}

// SweepInterval is the time between two expiration sweeps.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.Sweeper.IntervalMinutes) * time.Minute
}

// Validate checks the whole configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.Name) == "" {
		return customerrors.Validation("config", "database.name must not be empty")
	}
	if strings.TrimSpace(c.Server.BaseURL) == "" {
		return customerrors.Validation("config", "server.base_url must not be empty")
	}
	if c.Sweeper.IntervalMinutes <= 0 {
		return customerrors.Validation("config", "sweeper.interval_minutes must be > 0, got %d", c.Sweeper.IntervalMinutes)
	}
	return c.Links.Validate()
}

// ShortURL builds the full short URL for a code.
func (c *Config) ShortURL(code string) string {
	return strings.TrimRight(c.Server.BaseURL, "/") + "/" + code
}

// Default returns the configuration built from the default values only.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("database.name", "linkquota.db")
	v.SetDefault("links.code_length", 6)
	v.SetDefault("links.fallback_ttl_hours", 24)
	v.SetDefault("links.min_clicks", 1)
	v.SetDefault("links.max_clicks", 1000)
	v.SetDefault("links.default_clicks", 10)
	v.SetDefault("sweeper.interval_minutes", 60)
}

// LoadConfig loads the application configuration using Viper.
// A .env file, when present, is loaded into the environment first so its
// variables take part in the environment override.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}
	return load(viper.New(), "./configs")
}

func load(v *viper.Viper, configDir string) (*Config, error) {
	// Replace dots with underscores in environment variable names
	// e.g., "links.max_clicks" becomes "LINKS_MAX_CLICKS"
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.AddConfigPath(configDir)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("Config file not found, using default values")
		} else {
			return nil, customerrors.ErrConfigLoad{Path: configDir, Reason: err.Error()}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Printf("Configuration loaded: Server Port=%d, DB Name=%s, Code Length=%d, Clicks=[%d..%d] default %d, Fallback TTL=%dh, Sweep Interval=%dmin",
		cfg.Server.Port, cfg.Database.Name, cfg.Links.CodeLength, cfg.Links.MinClicks, cfg.Links.MaxClicks,
		cfg.Links.DefaultClicks, cfg.Links.FallbackTTLHours, cfg.Sweeper.IntervalMinutes)

	return &cfg, nil
}
