package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/aretw0/canopy/internal/logging"
	"gopkg.in/yaml.v3"
)

// Config is the complete canopy configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	WebModules WebModulesConfig `yaml:"web_modules"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Redis      RedisConfig      `yaml:"redis"`
	Views      ViewsConfig      `yaml:"views"`
}

// ServerConfig holds the HTTP listener configuration.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"-"`

	ShutdownTimeoutRaw string `yaml:"shutdown_timeout"`
}

// WebModulesConfig says where views load their JavaScript modules from.
type WebModulesConfig struct {
	// Dir is served under Route by the HTTP server. Empty disables it.
	Dir   string `yaml:"dir"`
	Route string `yaml:"route"`
	// ImportSourceBaseURL overrides the URL handed to views. When empty and Dir is set,
	// the URL of Route on the server is used.
	ImportSourceBaseURL string `yaml:"import_source_base_url"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
	// Format is text, json or auto (text on a terminal, json otherwise).
	Format string `yaml:"format"`
}

// MetricsConfig toggles the /metrics endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// RedisConfig selects the redis snapshot store. An empty Addr keeps snapshots in memory.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"-"`

	TTLRaw string `yaml:"ttl"`

	// EncryptionKey is a base64 AES-256 key. When set, snapshot models are encrypted
	// at rest; FallbackKeys still decrypt snapshots written before a rotation.
	EncryptionKey string   `yaml:"encryption_key"`
	FallbackKeys  []string `yaml:"fallback_keys"`
	// MaskKeys are regular expressions; model keys matching one are stored as "***".
	MaskKeys []string `yaml:"mask_keys"`
}

// Keys decodes the encryption keys. active is nil when encryption is off.
func (r RedisConfig) Keys() (active []byte, fallback [][]byte, err error) {
	if r.EncryptionKey == "" {
		return nil, nil, nil
	}
	decode := func(name, s string) ([]byte, error) {
		k, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if len(k) != 32 {
			return nil, fmt.Errorf("%s must decode to 32 bytes, got %d", name, len(k))
		}
		return k, nil
	}
	if active, err = decode("redis.encryption_key", r.EncryptionKey); err != nil {
		return nil, nil, err
	}
	for i, s := range r.FallbackKeys {
		k, err := decode(fmt.Sprintf("redis.fallback_keys[%d]", i), s)
		if err != nil {
			return nil, nil, err
		}
		fallback = append(fallback, k)
	}
	return active, fallback, nil
}

// ViewsConfig tunes per-view transport behaviour.
type ViewsConfig struct {
	QueueSize    int           `yaml:"queue_size"`
	WriteTimeout time.Duration `yaml:"-"`
	ExitTimeout  time.Duration `yaml:"-"`

	WriteTimeoutRaw string `yaml:"write_timeout"`
	ExitTimeoutRaw  string `yaml:"exit_timeout"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:               ":8080",
			ShutdownTimeoutRaw: "5s",
		},
		WebModules: WebModulesConfig{
			Route: "web-modules",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "auto",
		},
		Views: ViewsConfig{
			QueueSize:       64,
			WriteTimeoutRaw: "10s",
			ExitTimeoutRaw:  "5s",
		},
	}
}

// Load reads the configuration file at path over the defaults. An empty path returns the
// defaults. Environment variables in the format ${VAR_NAME} are expanded.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal([]byte(expandEnvVars(string(data))), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Resolve(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Resolve parses the duration fields and validates the result. Call it after changing
// raw fields by hand (for instance from command-line flags).
func (c *Config) Resolve() error {
	if err := parseDurations(c); err != nil {
		return fmt.Errorf("parsing durations: %w", err)
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}
	return nil
}

var envVar = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	return envVar.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(envVar.FindStringSubmatch(match)[1])
	})
}

// Validate checks that the configuration is usable.
// Returns an error describing every validation failure encountered.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}
	switch c.Logging.Format {
	case "", "auto", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be auto, text or json, got %q", c.Logging.Format))
	}
	if c.WebModules.Dir != "" && strings.Trim(c.WebModules.Route, "/") == "" {
		errs = append(errs, errors.New("web_modules.route is required when web_modules.dir is set"))
	}
	if c.Views.QueueSize <= 0 {
		errs = append(errs, fmt.Errorf("views.queue_size must be positive, got %d", c.Views.QueueSize))
	}
	if c.Redis.TTL < 0 {
		errs = append(errs, errors.New("redis.ttl must not be negative"))
	}
	if _, _, err := c.Redis.Keys(); err != nil {
		errs = append(errs, err)
	}
	for _, p := range c.Redis.MaskKeys {
		if _, err := regexp.Compile(p); err != nil {
			errs = append(errs, fmt.Errorf("redis.mask_keys: %w", err))
		}
	}
	return errors.Join(errs...)
}

// parseDurations converts the raw duration strings into time.Duration values.
func parseDurations(cfg *Config) error {
	fields := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"server.shutdown_timeout", cfg.Server.ShutdownTimeoutRaw, &cfg.Server.ShutdownTimeout},
		{"redis.ttl", cfg.Redis.TTLRaw, &cfg.Redis.TTL},
		{"views.write_timeout", cfg.Views.WriteTimeoutRaw, &cfg.Views.WriteTimeout},
		{"views.exit_timeout", cfg.Views.ExitTimeoutRaw, &cfg.Views.ExitTimeout},
	}
	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return fmt.Errorf("parsing %s %q: %w", f.name, f.raw, err)
		}
		*f.dst = d
	}
	return nil
}
