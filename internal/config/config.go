// Package config loads gallery feed configuration.
//
// Values are layered: built-in defaults, then an optional TOML file, then an
// optional .env file, then GALLERY_* environment variables. Load validates
// the result.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/Sternrassler/gallery-feed/pkg/logging"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// EnvPrefix is the prefix of every configuration environment variable.
const EnvPrefix = "GALLERY_"

const (
	defaultBaseURL            = "http://localhost:3000"
	defaultUserAgent          = "gallery-feed/1.0"
	defaultTimeout            = 30 * time.Second
	defaultRedisAddr          = "localhost:6379"
	defaultServerAddr         = ":8080"
	defaultShutdownTimeout    = 10 * time.Second
	defaultRevalidateInterval = 2 * time.Second
	defaultEnvFile            = ".env"
)

// Config holds all gallery feed configuration.
type Config struct {
	API    APIConfig    `envPrefix:"API_"`
	Redis  RedisConfig  `envPrefix:"REDIS_"`
	Server ServerConfig `envPrefix:"SERVER_"`
	Feed   FeedConfig   `envPrefix:"FEED_"`
	Log    LogConfig    `envPrefix:"LOG_"`
}

// APIConfig configures the gallery API client.
type APIConfig struct {
	BaseURL   string        `env:"BASE_URL"`
	UserAgent string        `env:"USER_AGENT"`
	Timeout   time.Duration `env:"TIMEOUT"`
}

// RedisConfig configures the optional HTTP response cache.
type RedisConfig struct {
	Enabled  bool   `env:"ENABLED"`
	Addr     string `env:"ADDR"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr            string        `env:"ADDR"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT"`
}

// FeedConfig configures background revalidation.
type FeedConfig struct {
	RevalidateInterval time.Duration `env:"REVALIDATE_INTERVAL"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `env:"LEVEL"`
	Pretty bool   `env:"PRETTY"`
}

// Options controls where Load reads from.
type Options struct {
	// ConfigPath is an optional TOML file. A missing file is an error.
	ConfigPath string

	// EnvFile is an optional dotenv file. Empty means ".env" in the working
	// directory, ignored when missing.
	EnvFile string

	// Environment replaces the process environment when set.
	Environment map[string]string
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:   defaultBaseURL,
			UserAgent: defaultUserAgent,
			Timeout:   defaultTimeout,
		},
		Redis: RedisConfig{
			Addr: defaultRedisAddr,
		},
		Server: ServerConfig{
			Addr:            defaultServerAddr,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Feed: FeedConfig{
			RevalidateInterval: defaultRevalidateInterval,
		},
		Log: LogConfig{
			Level: string(logging.LevelInfo),
		},
	}
}

// Load builds and validates the configuration.
func Load(opts Options) (*Config, error) {
	cfg := Default()

	if path := strings.TrimSpace(opts.ConfigPath); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	environ, err := environment(opts)
	if err != nil {
		return nil, err
	}

	if err := env.ParseWithOptions(cfg, env.Options{
		Prefix:      EnvPrefix,
		Environment: environ,
	}); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// fileConfig mirrors Config in the TOML layout. Durations are strings such
// as "30s".
type fileConfig struct {
	API struct {
		BaseURL   string `toml:"base_url"`
		UserAgent string `toml:"user_agent"`
		Timeout   string `toml:"timeout"`
	} `toml:"api"`
	Redis struct {
		Enabled  *bool  `toml:"enabled"`
		Addr     string `toml:"addr"`
		Password string `toml:"password"`
		DB       *int   `toml:"db"`
	} `toml:"redis"`
	Server struct {
		Addr            string `toml:"addr"`
		ShutdownTimeout string `toml:"shutdown_timeout"`
	} `toml:"server"`
	Feed struct {
		RevalidateInterval string `toml:"revalidate_interval"`
	} `toml:"feed"`
	Log struct {
		Level  string `toml:"level"`
		Pretty *bool  `toml:"pretty"`
	} `toml:"log"`
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var raw fileConfig
	if err := toml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&c.API.BaseURL, raw.API.BaseURL)
	setString(&c.API.UserAgent, raw.API.UserAgent)
	setString(&c.Redis.Addr, raw.Redis.Addr)
	setString(&c.Redis.Password, raw.Redis.Password)
	setString(&c.Server.Addr, raw.Server.Addr)
	setString(&c.Log.Level, raw.Log.Level)

	if raw.Redis.Enabled != nil {
		c.Redis.Enabled = *raw.Redis.Enabled
	}
	if raw.Redis.DB != nil {
		c.Redis.DB = *raw.Redis.DB
	}
	if raw.Log.Pretty != nil {
		c.Log.Pretty = *raw.Log.Pretty
	}

	durations := []struct {
		name  string
		value string
		dst   *time.Duration
	}{
		{"api.timeout", raw.API.Timeout, &c.API.Timeout},
		{"server.shutdown_timeout", raw.Server.ShutdownTimeout, &c.Server.ShutdownTimeout},
		{"feed.revalidate_interval", raw.Feed.RevalidateInterval, &c.Feed.RevalidateInterval},
	}
	for _, d := range durations {
		if strings.TrimSpace(d.value) == "" {
			continue
		}
		parsed, err := time.ParseDuration(strings.TrimSpace(d.value))
		if err != nil {
			return fmt.Errorf("parse config %s: %s: %w", path, d.name, err)
		}
		*d.dst = parsed
	}
	return nil
}

// environment returns the variables env parsing sees: the process (or
// supplied) environment plus dotenv entries that are not already set.
func environment(opts Options) (map[string]string, error) {
	var environ map[string]string
	if opts.Environment != nil {
		environ = make(map[string]string, len(opts.Environment))
		for k, v := range opts.Environment {
			environ[k] = v
		}
	} else {
		environ = env.ToMap(os.Environ())
	}

	envFile := strings.TrimSpace(opts.EnvFile)
	explicit := envFile != ""
	if !explicit {
		envFile = defaultEnvFile
	}

	dotenv, err := godotenv.Read(envFile)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return environ, nil
		}
		return nil, fmt.Errorf("read env file %s: %w", envFile, err)
	}

	for k, v := range dotenv {
		if _, ok := environ[k]; !ok {
			environ[k] = v
		}
	}
	return environ, nil
}

func setString(dst *string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		*dst = v
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	base, err := url.Parse(c.API.BaseURL)
	if err != nil || (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return fmt.Errorf("api.base_url must be an absolute http or https url (got %q)", c.API.BaseURL)
	}
	if strings.TrimSpace(c.API.UserAgent) == "" {
		return fmt.Errorf("api.user_agent is required")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive")
	}
	if c.Redis.Enabled && strings.TrimSpace(c.Redis.Addr) == "" {
		return fmt.Errorf("redis.addr is required when redis is enabled")
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("redis.db must not be negative")
	}
	if strings.TrimSpace(c.Server.Addr) == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be positive")
	}
	if c.Feed.RevalidateInterval <= 0 {
		return fmt.Errorf("feed.revalidate_interval must be positive")
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// LoggingConfig converts the log section for logging.Setup.
func (c *Config) LoggingConfig() logging.Config {
	cfg := logging.DefaultConfig()
	if level, err := logging.ParseLevel(c.Log.Level); err == nil {
		cfg.Level = level
	}
	cfg.Pretty = c.Log.Pretty
	return cfg
}
