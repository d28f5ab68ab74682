package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the complete application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Tracking  TrackingConfig  `mapstructure:"tracking"`
	Location  LocationConfig  `mapstructure:"location"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
}

// ServerConfig defines the HTTP listener
type ServerConfig struct {
	Port string `mapstructure:"port"`
}

// DatabaseConfig defines the SQLite store
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// TrackingConfig tunes the session engine
type TrackingConfig struct {
	MinDistanceMeters float64       `mapstructure:"min_distance_meters"`
	PersistTimeout    time.Duration `mapstructure:"persist_timeout"`
}

// LocationConfig defines the subscription handed to the location source
type LocationConfig struct {
	Accuracy          string  `mapstructure:"accuracy"`
	MinIntervalMs     int64   `mapstructure:"min_interval_ms"`
	MinDistanceMeters float64 `mapstructure:"min_distance_meters"`
	Buffer            int     `mapstructure:"buffer"`
	ForegroundGranted bool    `mapstructure:"foreground_granted"`
	BackgroundGranted bool    `mapstructure:"background_granted"`
}

// RedisConfig defines the event relay; an empty Addr disables it
type RedisConfig struct {
	Addr          string `mapstructure:"addr"`
	Password      string `mapstructure:"password"`
	DB            int    `mapstructure:"db"`
	ChannelPrefix string `mapstructure:"channel_prefix"`
}

// LoggingConfig defines logging behavior
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CacheConfig sizes the activity read cache
type CacheConfig struct {
	Size int `mapstructure:"size"`
}

// RateLimitConfig bounds command requests per client
type RateLimitConfig struct {
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
	Clients  int           `mapstructure:"clients"`
}

// Load loads configuration from an optional file and TRACKER_* environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("TRACKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", ":8080")

	v.SetDefault("database.path", "./data/activities.db")

	v.SetDefault("tracking.min_distance_meters", 5.0)
	v.SetDefault("tracking.persist_timeout", "2s")

	v.SetDefault("location.accuracy", "best_for_navigation")
	v.SetDefault("location.min_interval_ms", 2000)
	v.SetDefault("location.min_distance_meters", 5.0)
	v.SetDefault("location.buffer", 64)
	v.SetDefault("location.foreground_granted", true)
	v.SetDefault("location.background_granted", true)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.channel_prefix", "tracking")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("cache.size", 128)

	v.SetDefault("ratelimit.requests", 120)
	v.SetDefault("ratelimit.window", "1m")
	v.SetDefault("ratelimit.clients", 1024)
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}
	if c.Tracking.MinDistanceMeters <= 0 {
		return fmt.Errorf("tracking min distance must be positive: %v", c.Tracking.MinDistanceMeters)
	}
	if c.Tracking.PersistTimeout <= 0 {
		return fmt.Errorf("tracking persist timeout must be positive: %v", c.Tracking.PersistTimeout)
	}
	if c.Location.MinIntervalMs < 0 {
		return fmt.Errorf("location min interval must not be negative: %d", c.Location.MinIntervalMs)
	}
	if c.Location.MinDistanceMeters < 0 {
		return fmt.Errorf("location min distance must not be negative: %v", c.Location.MinDistanceMeters)
	}
	if c.Location.Buffer <= 0 {
		return fmt.Errorf("location buffer must be positive: %d", c.Location.Buffer)
	}
	if c.Cache.Size <= 0 {
		return fmt.Errorf("cache size must be positive: %d", c.Cache.Size)
	}
	if c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0 || c.RateLimit.Clients <= 0 {
		return fmt.Errorf("invalid rate limit: %d requests per %v for %d clients",
			c.RateLimit.Requests, c.RateLimit.Window, c.RateLimit.Clients)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("unknown logging format: %q", c.Logging.Format)
	}
	return nil
}
