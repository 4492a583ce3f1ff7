package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config captures everything needed to boot meterd.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
	Meter   MeterConfig   `yaml:"meter"`
	Theme   ThemeConfig   `yaml:"theme"`
	Store   StoreConfig   `yaml:"store"`
}

// ServerConfig controls the gRPC and HTTP listeners.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	HTTPAddress     string        `yaml:"httpAddress"`
	AllowedOrigins  []string      `yaml:"allowedOrigins"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// MeterConfig sets the meter's bounds, rate limit and loop cadences.
type MeterConfig struct {
	Min                 float64       `yaml:"min"`
	Max                 float64       `yaml:"max"`
	MaxAdjustment       float64       `yaml:"maxAdjustment"`
	MinUpdateInterval   time.Duration `yaml:"minUpdateInterval"`
	FlushInterval       time.Duration `yaml:"flushInterval"`
	FluctuationInterval time.Duration `yaml:"fluctuationInterval"`
	ManualHold          time.Duration `yaml:"manualHold"`
	OriginID            string        `yaml:"originID"`
}

// ThemeConfig supplies the ambient colour scheme used until a preference is stored.
type ThemeConfig struct {
	SystemPreference string `yaml:"systemPreference"`
}

// SystemDark reports whether the ambient scheme is dark.
func (t ThemeConfig) SystemDark() bool {
	return strings.EqualFold(t.SystemPreference, "dark")
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Backend    string      `yaml:"backend"`
	SQLitePath string      `yaml:"sqlitePath"`
	Redis      RedisConfig `yaml:"redis"`
}

// RedisConfig configures the redis backend.
type RedisConfig struct {
	Addr         string        `yaml:"addr"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	Prefix       string        `yaml:"prefix"`
	DialTimeout  time.Duration `yaml:"dialTimeout"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	MaxRetries   int           `yaml:"maxRetries"`
	TLS          bool          `yaml:"tls"`
}

// Load initialises Config from a YAML file, an optional .env file and environment overrides.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}
	if path == "" {
		path = os.Getenv("METERD_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the meter cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Meter.Max <= c.Meter.Min {
		errs = append(errs, fmt.Errorf("meter.max (%v) must exceed meter.min (%v)", c.Meter.Max, c.Meter.Min))
	}
	if c.Meter.MaxAdjustment <= 0 {
		errs = append(errs, errors.New("meter.maxAdjustment must be positive"))
	}
	if c.Meter.FlushInterval <= 0 {
		errs = append(errs, errors.New("meter.flushInterval must be positive"))
	}
	if c.Meter.MinUpdateInterval < 0 || c.Meter.FluctuationInterval < 0 || c.Meter.ManualHold < 0 {
		errs = append(errs, errors.New("meter intervals must not be negative"))
	}
	switch strings.ToLower(c.Theme.SystemPreference) {
	case "light", "dark":
	default:
		errs = append(errs, fmt.Errorf("theme.systemPreference must be light or dark, got %q", c.Theme.SystemPreference))
	}
	switch strings.ToLower(c.Store.Backend) {
	case "memory":
	case "sqlite":
		if c.Store.SQLitePath == "" {
			errs = append(errs, errors.New("store.sqlitePath is required for the sqlite backend"))
		}
	case "redis":
		if c.Store.Redis.Addr == "" {
			errs = append(errs, errors.New("store.redis.addr is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store.backend %q", c.Store.Backend))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func loadDotEnv() error {
	path := os.Getenv("METERD_ENV_FILE")
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Address:         ":50051",
			HTTPAddress:     ":8080",
			AllowedOrigins:  []string{"*"},
			GracefulTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{Level: "info", JSON: false},
		Meter: MeterConfig{
			Min:                 0,
			Max:                 100,
			MaxAdjustment:       20,
			MinUpdateInterval:   500 * time.Millisecond,
			FlushInterval:       500 * time.Millisecond,
			FluctuationInterval: 5 * time.Second,
			ManualHold:          500 * time.Millisecond,
			OriginID:            "user-1",
		},
		Theme: ThemeConfig{SystemPreference: "light"},
		Store: StoreConfig{
			Backend:    "memory",
			SQLitePath: "data/meterd.db",
			Redis: RedisConfig{
				Prefix:       "meterd",
				DialTimeout:  2 * time.Second,
				ReadTimeout:  500 * time.Millisecond,
				WriteTimeout: 500 * time.Millisecond,
				MaxRetries:   2,
			},
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("METERD_GRPC_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("METERD_HTTP_ADDRESS"); v != "" {
		cfg.Server.HTTPAddress = v
	}
	if v := os.Getenv("METERD_ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("METERD_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("METERD_LOG_FORMAT"); v == "json" {
		cfg.Logging.JSON = true
	}
	if v := os.Getenv("METERD_MAX_ADJUSTMENT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Meter.MaxAdjustment = f
		}
	}
	if v := os.Getenv("METERD_FLUSH_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Meter.FlushInterval = d
		}
	}
	if v := os.Getenv("METERD_FLUCTUATION_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Meter.FluctuationInterval = d
		}
	}
	if v := os.Getenv("METERD_ORIGIN_ID"); v != "" {
		cfg.Meter.OriginID = v
	}
	if v := os.Getenv("METERD_THEME_SYSTEM"); v != "" {
		cfg.Theme.SystemPreference = v
	}
	if v := os.Getenv("METERD_STORE_BACKEND"); v != "" {
		cfg.Store.Backend = v
	}
	if v := os.Getenv("METERD_SQLITE_PATH"); v != "" {
		cfg.Store.SQLitePath = v
	}
	if v := os.Getenv("METERD_REDIS_ADDR"); v != "" {
		cfg.Store.Redis.Addr = v
	}
	if v := os.Getenv("METERD_REDIS_USERNAME"); v != "" {
		cfg.Store.Redis.Username = v
	}
	if v := os.Getenv("METERD_REDIS_PASSWORD"); v != "" {
		cfg.Store.Redis.Password = v
	}
	if v := os.Getenv("METERD_REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Store.Redis.DB = db
		}
	}
	if v := os.Getenv("METERD_REDIS_PREFIX"); v != "" {
		cfg.Store.Redis.Prefix = v
	}
	if v := os.Getenv("METERD_REDIS_TLS"); strings.EqualFold(v, "true") || v == "1" {
		cfg.Store.Redis.TLS = true
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
