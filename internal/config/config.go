package config

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

const (
	defaultPort           = "8080"
	defaultRateLimitRPS   = 25.0
	defaultRateLimitBurst = 50
	defaultLogLevel       = "info"
)

// Config aggregates runtime configuration resolved from multiple sources.
// Precedence: CLI flags > YAML config > Environment variables > Defaults
type Config struct {
	Port                 string
	ShutdownGracePeriod  time.Duration
	ReadHeaderTimeout    time.Duration
	WriteTimeout         time.Duration
	IdleTimeout          time.Duration
	EnableRequestLogging bool
	RateLimitRPS         float64
	RateLimitBurst       int
	LogLevel             string

	// Properties seeds the context property store. Values may reference each
	// other and are expanded at startup.
	Properties map[string]string
	// SystemProperties are written to the system property store at startup.
	SystemProperties map[string]string
	// RestrictedPrefixes deny access to matching system property keys.
	RestrictedPrefixes []string
	// PlatformPropertiesFile is an optional YAML file backing the read-only
	// platform property fallback.
	PlatformPropertiesFile string
}

// yamlConfig represents the YAML configuration file structure.
type yamlConfig struct {
	Port                   string            `yaml:"port"`
	ShutdownGracePeriod    string            `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout      string            `yaml:"read_header_timeout"`
	WriteTimeout           string            `yaml:"write_timeout"`
	IdleTimeout            string            `yaml:"idle_timeout"`
	EnableRequestLogging   *bool             `yaml:"enable_request_logging"`
	RateLimit              yamlRateLimit     `yaml:"rate_limit"`
	LogLevel               string            `yaml:"log_level"`
	Properties             map[string]string `yaml:"properties"`
	SystemProperties       map[string]string `yaml:"system_properties"`
	RestrictedPrefixes     []string          `yaml:"restricted_prefixes"`
	PlatformPropertiesFile string            `yaml:"platform_properties_file"`
}

// yamlRateLimit represents the rate limit section in YAML.
type yamlRateLimit struct {
	RPS   *float64 `yaml:"rps"`
	Burst *int     `yaml:"burst"`
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	ConfigFile     string
	Port           *string
	RateLimitRPS   *float64
	RateLimitBurst *int
	LogLevel       *string
	Properties     map[string]string
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > YAML config > Environment variables > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	// Apply environment variables first so YAML can override them
	applyEnvConfig(&cfg)

	if overrides != nil && overrides.ConfigFile != "" {
		yamlCfg, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		if err := applyYAMLConfig(&cfg, yamlCfg); err != nil {
			return Config{}, fmt.Errorf("apply YAML config: %w", err)
		}
	}

	if overrides != nil {
		applyCLIOverrides(&cfg, overrides)
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		Port:                 defaultPort,
		ShutdownGracePeriod:  10 * time.Second,
		ReadHeaderTimeout:    5 * time.Second,
		WriteTimeout:         15 * time.Second,
		IdleTimeout:          60 * time.Second,
		EnableRequestLogging: true,
		RateLimitRPS:         defaultRateLimitRPS,
		RateLimitBurst:       defaultRateLimitBurst,
		LogLevel:             defaultLogLevel,
		Properties:           map[string]string{},
		SystemProperties:     map[string]string{},
	}
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	return &yamlCfg, nil
}

// applyYAMLConfig applies YAML configuration to the Config struct.
func applyYAMLConfig(cfg *Config, yamlCfg *yamlConfig) error {
	if yamlCfg.Port != "" {
		cfg.Port = yamlCfg.Port
	}

	var errs error
	durations := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"shutdown_grace_period", yamlCfg.ShutdownGracePeriod, &cfg.ShutdownGracePeriod},
		{"read_header_timeout", yamlCfg.ReadHeaderTimeout, &cfg.ReadHeaderTimeout},
		{"write_timeout", yamlCfg.WriteTimeout, &cfg.WriteTimeout},
		{"idle_timeout", yamlCfg.IdleTimeout, &cfg.IdleTimeout},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", d.name, err))
			continue
		}
		*d.dst = v
	}

	if yamlCfg.EnableRequestLogging != nil {
		cfg.EnableRequestLogging = *yamlCfg.EnableRequestLogging
	}

	if yamlCfg.RateLimit.RPS != nil {
		cfg.RateLimitRPS = *yamlCfg.RateLimit.RPS
	}

	if yamlCfg.RateLimit.Burst != nil {
		cfg.RateLimitBurst = *yamlCfg.RateLimit.Burst
	}

	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}

	maps.Copy(cfg.Properties, yamlCfg.Properties)
	maps.Copy(cfg.SystemProperties, yamlCfg.SystemProperties)

	if len(yamlCfg.RestrictedPrefixes) > 0 {
		cfg.RestrictedPrefixes = yamlCfg.RestrictedPrefixes
	}

	if yamlCfg.PlatformPropertiesFile != "" {
		cfg.PlatformPropertiesFile = yamlCfg.PlatformPropertiesFile
	}

	return errs
}

// applyEnvConfig applies environment variable configuration.
func applyEnvConfig(cfg *Config) {
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		cfg.Port = port
	}

	if rps := strings.TrimSpace(os.Getenv("RATE_LIMIT_RPS")); rps != "" {
		if value, err := strconv.ParseFloat(rps, 64); err == nil && value >= 0 {
			cfg.RateLimitRPS = value
		}
	}

	if burst := strings.TrimSpace(os.Getenv("RATE_LIMIT_BURST")); burst != "" {
		if value, err := strconv.Atoi(burst); err == nil && value >= 0 {
			cfg.RateLimitBurst = value
		}
	}

	if level := strings.TrimSpace(os.Getenv("LOG_LEVEL")); level != "" {
		cfg.LogLevel = level
	}

	if raw := strings.TrimSpace(os.Getenv("RESTRICTED_PREFIXES")); raw != "" {
		cfg.RestrictedPrefixes = parseList(raw)
	}

	if path := strings.TrimSpace(os.Getenv("PLATFORM_PROPERTIES_FILE")); path != "" {
		cfg.PlatformPropertiesFile = path
	}
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) {
	if overrides.Port != nil && *overrides.Port != "" {
		cfg.Port = *overrides.Port
	}

	if overrides.RateLimitRPS != nil && *overrides.RateLimitRPS >= 0 {
		cfg.RateLimitRPS = *overrides.RateLimitRPS
	}

	if overrides.RateLimitBurst != nil && *overrides.RateLimitBurst >= 0 {
		cfg.RateLimitBurst = *overrides.RateLimitBurst
	}

	if overrides.LogLevel != nil && *overrides.LogLevel != "" {
		cfg.LogLevel = *overrides.LogLevel
	}

	maps.Copy(cfg.Properties, overrides.Properties)
}

// validateConfig validates the final configuration and reports every problem at once.
func validateConfig(cfg Config) error {
	var errs error
	if cfg.RateLimitRPS < 0 {
		errs = multierr.Append(errs, errors.New("RATE_LIMIT_RPS must be >= 0"))
	}
	if cfg.RateLimitBurst < 0 {
		errs = multierr.Append(errs, errors.New("RATE_LIMIT_BURST must be >= 0"))
	}
	if strings.TrimSpace(cfg.Port) == "" {
		errs = multierr.Append(errs, errors.New("port cannot be empty"))
	}
	for key := range cfg.Properties {
		if strings.TrimSpace(key) == "" {
			errs = multierr.Append(errs, errors.New("property keys cannot be empty"))
			break
		}
	}
	return errs
}

// parseList splits a comma-separated string, dropping blank entries.
func parseList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
