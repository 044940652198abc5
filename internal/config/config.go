package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rgehrsitz/ratebook/internal/domain"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// EnvPrefix prefixes every environment override, e.g. RATEBOOK_SERVER_ADDR
const EnvPrefix = "RATEBOOK"

// Store drivers
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// Config holds all configuration for the ratebook service and CLI
type Config struct {
	Server   ServerConfig        `mapstructure:"server"`
	Log      LogConfig           `mapstructure:"log"`
	Store    StoreConfig         `mapstructure:"store"`
	Cache    CacheConfig         `mapstructure:"cache"`
	Metrics  MetricsConfig       `mapstructure:"metrics"`
	Families []domain.RuleFamily `mapstructure:"families"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// StoreConfig selects where rule-sets are read from
type StoreConfig struct {
	Driver      string        `mapstructure:"driver"`
	DataRoot    string        `mapstructure:"data_root"`
	Path        string        `mapstructure:"path"` // SQLite database file
	LoadTimeout time.Duration `mapstructure:"load_timeout"`
}

// CacheConfig holds the optional Redis read-through cache configuration
type CacheConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// MetricsConfig toggles the /metrics endpoint
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Load reads configuration from an optional YAML file and RATEBOOK_*
// environment variables, then validates it. An empty path uses defaults and
// the environment only.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if len(config.Families) == 0 {
		config.Families = domain.DefaultFamilies()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &config, nil
}

// Default returns the configuration Load produces with no file and no
// environment overrides
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var config Config
	// defaults always decode
	_ = v.Unmarshal(&config)
	config.Families = domain.DefaultFamilies()
	return &config
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 5*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("store.driver", DriverFile)
	v.SetDefault("store.data_root", "data")
	v.SetDefault("store.path", "ratebook.db")
	v.SetDefault("store.load_timeout", 5*time.Second)
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.addr", "localhost:6379")
	v.SetDefault("cache.password", "")
	v.SetDefault("cache.db", 0)
	v.SetDefault("cache.ttl", 10*time.Minute)
	v.SetDefault("metrics.enabled", true)
}

// Validate checks the loaded configuration
func (c *Config) Validate() error {
	if err := validateServer(&c.Server); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	if err := validateStore(&c.Store); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if err := validateCache(&c.Cache); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if err := validateFamilies(c.Families); err != nil {
		return fmt.Errorf("families: %w", err)
	}
	return nil
}

// Family looks up a configured rule family by name
func (c *Config) Family(name string) (domain.RuleFamily, error) {
	family, ok := domain.FindFamily(c.Families, name)
	if !ok {
		return domain.RuleFamily{}, fmt.Errorf("%w: %q", domain.ErrUnknownFamily, name)
	}
	return family, nil
}

func validateServer(s *ServerConfig) error {
	if s.Addr == "" {
		return fmt.Errorf("addr is required")
	}
	if s.ReadTimeout <= 0 || s.WriteTimeout <= 0 {
		return fmt.Errorf("read and write timeouts must be positive")
	}
	if s.ShutdownTimeout < 0 {
		return fmt.Errorf("shutdown_timeout cannot be negative")
	}
	return nil
}

func validateStore(s *StoreConfig) error {
	switch s.Driver {
	case DriverFile:
		if s.DataRoot == "" {
			return fmt.Errorf("data_root is required for the file driver")
		}
	case DriverSQLite:
		if s.Path == "" {
			return fmt.Errorf("path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unknown driver %q (expected %s or %s)", s.Driver, DriverFile, DriverSQLite)
	}
	if s.LoadTimeout <= 0 {
		return fmt.Errorf("load_timeout must be positive")
	}
	return nil
}

func validateCache(c *CacheConfig) error {
	if !c.Enabled {
		return nil
	}
	if c.Addr == "" {
		return fmt.Errorf("addr is required when the cache is enabled")
	}
	if c.TTL <= 0 {
		return fmt.Errorf("ttl must be positive")
	}
	if c.DB < 0 {
		return fmt.Errorf("db cannot be negative")
	}
	return nil
}

// familyName keeps family names usable as directory names and URL segments
var familyName = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

func validateFamilies(families []domain.RuleFamily) error {
	if len(families) == 0 {
		return fmt.Errorf("at least one family is required")
	}
	seen := make(map[string]bool, len(families))
	for i, f := range families {
		if !familyName.MatchString(f.Name) {
			return fmt.Errorf("family %d: invalid name %q", i, f.Name)
		}
		if seen[f.Name] {
			return fmt.Errorf("family %d: duplicate name %q", i, f.Name)
		}
		seen[f.Name] = true

		keys := make(map[string]bool, len(f.Parts))
		for j, p := range f.Parts {
			if p.Key == "" {
				return fmt.Errorf("family %s: part %d has no key", f.Name, j)
			}
			if keys[p.Key] {
				return fmt.Errorf("family %s: duplicate part %q", f.Name, p.Key)
			}
			keys[p.Key] = true
		}
	}
	return nil
}
