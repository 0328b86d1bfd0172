package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server        ServerConfig
	OpenFoodFacts OpenFoodFactsConfig
	Database      DatabaseConfig
	Cache         CacheConfig
	RateLimit     RateLimitConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string        `mapstructure:"port"`
	Environment    string        `mapstructure:"environment"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	ResolveTimeout time.Duration `mapstructure:"resolve_timeout"`
}

// OpenFoodFactsConfig holds external catalogue configuration
type OpenFoodFactsConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	UserAgent string        `mapstructure:"user_agent"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// DatabaseConfig holds the local product database configuration
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // "postgres" or "sqlite"
	DSN    string `mapstructure:"dsn"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type string        `mapstructure:"type"` // only "memory" for now
	TTL  time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP   int `mapstructure:"per_ip"`  // requests per minute per client IP
	Catalog int `mapstructure:"catalog"` // outgoing catalogue requests per minute
}

// Load loads configuration from a .env file, environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/allertrack/")

	v.SetEnvPrefix("ALLERTRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional - env vars and defaults are enough
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads ./.env when present. Variables already set in the
// environment win over the file.
func loadEnvFile() error {
	if _, err := os.Stat(".env"); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return gotenv.Load(".env")
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000", "exp://*"})
	v.SetDefault("server.resolve_timeout", "15s")

	// Open Food Facts defaults
	v.SetDefault("openfoodfacts.base_url", "https://world.openfoodfacts.org")
	v.SetDefault("openfoodfacts.user_agent", "AllerTrack/1.0 (support@allertrack.app)")
	v.SetDefault("openfoodfacts.timeout", "10s")

	// Database defaults
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "file:allertrack.db?_foreign_keys=on")

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.ttl", "24h")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 120)
	v.SetDefault("ratelimit.catalog", 100)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.OpenFoodFacts.BaseURL == "" {
		return fmt.Errorf("Open Food Facts base URL is required (set ALLERTRACK_OPENFOODFACTS_BASE_URL)")
	}

	if config.OpenFoodFacts.UserAgent == "" {
		return fmt.Errorf("Open Food Facts requires a User-Agent (set ALLERTRACK_OPENFOODFACTS_USER_AGENT)")
	}

	if config.Database.Driver != "postgres" && config.Database.Driver != "sqlite" {
		return fmt.Errorf("database driver must be 'postgres' or 'sqlite', got: %s", config.Database.Driver)
	}

	if config.Database.DSN == "" {
		return fmt.Errorf("database DSN is required (set ALLERTRACK_DATABASE_DSN)")
	}

	if config.Cache.Type != "memory" {
		return fmt.Errorf("cache type must be 'memory', got: %s", config.Cache.Type)
	}

	if config.RateLimit.PerIP < 0 || config.RateLimit.Catalog < 0 {
		return fmt.Errorf("rate limits must not be negative")
	}

	return nil
}
