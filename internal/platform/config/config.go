package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full runtime configuration of the people service.
type Config struct {
	Listen Listen      `yaml:"listen"`
	Server Server      `yaml:"server"`
	Store  Store       `yaml:"store"`
	Cache  RedisConfig `yaml:"cache"`
	Log    Log         `yaml:"log"`
}

// Listen holds the bind address.
type Listen struct {
	Address string `yaml:"address"`
}

// Server captures HTTP server level configuration.
type Server struct {
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Store selects the persistence backend.
type Store struct {
	URL             string        `yaml:"url"`
	Schema          Schema        `yaml:"schema"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// Schema controls table management at startup.
type Schema struct {
	Mode string `yaml:"mode"`
}

// RedisConfig configures the optional read-through cache. An empty URL
// disables it.
type RedisConfig struct {
	URL          string        `yaml:"url"`
	TTL          time.Duration `yaml:"ttl"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// Log selects level and output format.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Listen: Listen{Address: ":8080"},
		Server: Server{
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Store: Store{
			URL:             "postgres://localhost:5432/people?sslmode=disable",
			Schema:          Schema{Mode: "migrate"},
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Cache: RedisConfig{
			TTL:          time.Minute,
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Log: Log{Level: "info", Format: "json"},
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (skipped when path is empty), then PEOPLE_* environment variables.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) error {
		v, ok := lookup(key)
		if !ok {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
		return nil
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}

	str("PEOPLE_LISTEN_ADDRESS", &cfg.Listen.Address)
	str("PEOPLE_STORE_URL", &cfg.Store.URL)
	str("PEOPLE_STORE_SCHEMA_MODE", &cfg.Store.Schema.Mode)
	str("PEOPLE_CACHE_URL", &cfg.Cache.URL)
	str("PEOPLE_LOG_LEVEL", &cfg.Log.Level)
	str("PEOPLE_LOG_FORMAT", &cfg.Log.Format)

	return errors.Join(
		dur("PEOPLE_SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout),
		dur("PEOPLE_SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout),
		dur("PEOPLE_SERVER_IDLE_TIMEOUT", &cfg.Server.IdleTimeout),
		dur("PEOPLE_SERVER_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout),
		dur("PEOPLE_STORE_CONN_MAX_LIFETIME", &cfg.Store.ConnMaxLifetime),
		dur("PEOPLE_CACHE_TTL", &cfg.Cache.TTL),
		num("PEOPLE_STORE_MAX_OPEN_CONNS", &cfg.Store.MaxOpenConns),
		num("PEOPLE_STORE_MAX_IDLE_CONNS", &cfg.Store.MaxIdleConns),
	)
}

// Validate rejects configurations the service cannot start with.
func (c Config) Validate() error {
	var errs []error
	if c.Listen.Address == "" {
		errs = append(errs, errors.New("listen.address is required"))
	}
	if c.Store.URL == "" {
		errs = append(errs, errors.New("store.url is required"))
	}
	switch c.Store.Schema.Mode {
	case "create-drop", "validate", "migrate", "none":
	default:
		errs = append(errs, fmt.Errorf("store.schema.mode %q must be one of create-drop, validate, migrate, none", c.Store.Schema.Mode))
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q must be one of debug, info, warn, error", c.Log.Level))
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format %q must be json or text", c.Log.Format))
	}
	for _, t := range []struct {
		name string
		d    time.Duration
	}{
		{"server.read_timeout", c.Server.ReadTimeout},
		{"server.write_timeout", c.Server.WriteTimeout},
		{"server.idle_timeout", c.Server.IdleTimeout},
		{"server.shutdown_timeout", c.Server.ShutdownTimeout},
	} {
		if t.d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", t.name))
		}
	}
	if c.Cache.URL != "" && c.Cache.TTL <= 0 {
		errs = append(errs, errors.New("cache.ttl must be positive when cache.url is set"))
	}
	return errors.Join(errs...)
}
