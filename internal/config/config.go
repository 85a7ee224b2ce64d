package config

import (
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Fetch  FetchConfig  `yaml:"fetch"`
	Probe  ProbeConfig  `yaml:"probe"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host           string        `yaml:"host" envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port           int           `yaml:"port" envconfig:"PORT" default:"3000"`
	APIKey         string        `yaml:"api_key" envconfig:"API_KEY"`
	ReadTimeout    time.Duration `yaml:"read_timeout" envconfig:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout   time.Duration `yaml:"write_timeout" envconfig:"SERVER_WRITE_TIMEOUT" default:"2m"`
	RequestTimeout time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" default:"90s"`
	RateLimit      int           `yaml:"rate_limit_requests" envconfig:"RATE_LIMIT_REQUESTS" default:"60"`
	RateWindow     time.Duration `yaml:"rate_limit_window" envconfig:"RATE_LIMIT_WINDOW" default:"1m"`
}

// FetchConfig holds byte-range download configuration.
type FetchConfig struct {
	Timeout    time.Duration `yaml:"timeout" envconfig:"FETCH_TIMEOUT" default:"30s"`
	UserAgent  string        `yaml:"user_agent" envconfig:"FETCH_USER_AGENT" default:"vrok/1.0"`
	WindowSize int64         `yaml:"window_size" envconfig:"WINDOW_SIZE" default:"4194304"` // 4MiB
}

// ProbeConfig holds ffprobe configuration.
type ProbeConfig struct {
	FFprobePath string        `yaml:"ffprobe_path" envconfig:"FFPROBE_PATH" default:"ffprobe"`
	Timeout     time.Duration `yaml:"timeout" envconfig:"PROBE_TIMEOUT" default:"30s"`
	Workers     int           `yaml:"workers" envconfig:"PROBE_WORKERS" default:"4"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `yaml:"level" envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads configuration from file and environment variables.
// Precedence is environment, then file, then defaults.
func Load(configPath string) (*Config, error) {
	// Defaults and environment variables
	env := &Config{}
	if err := envconfig.Process("", env); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	cfg := *env
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		// Keys present in the file replace defaults, zero values included
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
		applyEnv(reflect.ValueOf(&cfg).Elem(), reflect.ValueOf(env).Elem(), "")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// applyEnv copies leaf values from env into dst for every field whose
// environment variable is set.
func applyEnv(dst, env reflect.Value, prefix string) {
	for i := 0; i < dst.NumField(); i++ {
		field := dst.Type().Field(i)
		if field.Type.Kind() == reflect.Struct {
			applyEnv(dst.Field(i), env.Field(i), strings.ToUpper(field.Name))
			continue
		}
		for _, key := range envKeys(prefix, field) {
			if _, ok := os.LookupEnv(key); ok {
				dst.Field(i).Set(env.Field(i))
				break
			}
		}
	}
}

// envKeys returns the variable names envconfig consults for field: the
// prefixed key first, then the bare envconfig tag.
func envKeys(prefix string, field reflect.StructField) []string {
	name := field.Tag.Get("envconfig")
	if name == "" {
		name = field.Name
	}
	name = strings.ToUpper(name)
	if prefix == "" {
		return []string{name}
	}
	return []string{prefix + "_" + name, name}
}

// Validate checks that configuration values are usable.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Fetch.WindowSize <= 0 {
		return fmt.Errorf("WINDOW_SIZE must be positive, got %d", c.Fetch.WindowSize)
	}
	if c.Probe.FFprobePath == "" {
		return fmt.Errorf("FFPROBE_PATH is required")
	}
	if c.Probe.Workers <= 0 {
		return fmt.Errorf("PROBE_WORKERS must be positive, got %d", c.Probe.Workers)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must not be negative")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// Address returns the server address in host:port format.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ParseLevel maps a LOG_LEVEL value to a slog level. Empty means info.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown LOG_LEVEL %q", level)
	}
}
