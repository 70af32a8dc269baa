package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"PORT", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "LOG_LEVEL", "RESTRICTED_PREFIXES", "PLATFORM_PROPERTIES_FILE"} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != defaultPort {
		t.Fatalf("expected default port %s, got %s", defaultPort, cfg.Port)
	}
	if cfg.ShutdownGracePeriod != 10*time.Second {
		t.Fatalf("unexpected shutdown grace period: %s", cfg.ShutdownGracePeriod)
	}
	if cfg.LogLevel != defaultLogLevel {
		t.Fatalf("unexpected log level: %s", cfg.LogLevel)
	}
	if !cfg.EnableRequestLogging {
		t.Fatalf("expected request logging on by default")
	}
	if cfg.Properties == nil || cfg.SystemProperties == nil {
		t.Fatalf("expected property maps to be initialised")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("RESTRICTED_PREFIXES", "secret., java.security ,")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != "9000" {
		t.Fatalf("expected overridden port, got %s", cfg.Port)
	}
	if want := []string{"secret.", "java.security"}; !slices.Equal(cfg.RestrictedPrefixes, want) {
		t.Fatalf("unexpected restricted prefixes: %v", cfg.RestrictedPrefixes)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("unexpected log level %s", cfg.LogLevel)
	}
}

func TestLoadYAML(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "7000")

	path := writeConfig(t, `
port: "8181"
write_timeout: 3s
enable_request_logging: false
rate_limit:
  rps: 0
log_level: warn
properties:
  app.name: demo
  log.dir: ${app.home:-/var}/log
system_properties:
  file.encoding: UTF-8
restricted_prefixes: ["locked."]
platform_properties_file: /etc/platform.yaml
`)

	cfg, err := Load(&CLIOverrides{ConfigFile: path})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != "8181" {
		t.Fatalf("expected YAML to beat env, got port %s", cfg.Port)
	}
	if cfg.WriteTimeout != 3*time.Second {
		t.Fatalf("unexpected write timeout %s", cfg.WriteTimeout)
	}
	if cfg.EnableRequestLogging {
		t.Fatalf("expected request logging to be disabled")
	}
	if cfg.RateLimitRPS != 0 || cfg.RateLimitBurst != defaultRateLimitBurst {
		t.Fatalf("unexpected rate limit %v/%d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	if cfg.Properties["log.dir"] != "${app.home:-/var}/log" {
		t.Fatalf("expected raw property value, got %q", cfg.Properties["log.dir"])
	}
	if cfg.SystemProperties["file.encoding"] != "UTF-8" {
		t.Fatalf("unexpected system properties %v", cfg.SystemProperties)
	}
	if !slices.Equal(cfg.RestrictedPrefixes, []string{"locked."}) {
		t.Fatalf("unexpected restricted prefixes %v", cfg.RestrictedPrefixes)
	}
	if cfg.PlatformPropertiesFile != "/etc/platform.yaml" {
		t.Fatalf("unexpected platform file %q", cfg.PlatformPropertiesFile)
	}
}

func TestLoadCLIOverridesWin(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "port: \"8181\"\nproperties:\n  a: yaml\n  b: yaml\n")

	port := "9999"
	level := "error"
	cfg, err := Load(&CLIOverrides{
		ConfigFile: path,
		Port:       &port,
		LogLevel:   &level,
		Properties: map[string]string{"a": "cli"},
	})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != "9999" || cfg.LogLevel != "error" {
		t.Fatalf("expected CLI overrides, got port %s level %s", cfg.Port, cfg.LogLevel)
	}
	if cfg.Properties["a"] != "cli" || cfg.Properties["b"] != "yaml" {
		t.Fatalf("unexpected merged properties %v", cfg.Properties)
	}
}

func TestLoadReportsAllYAMLErrors(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "write_timeout: soon\nidle_timeout: later\n")

	_, err := Load(&CLIOverrides{ConfigFile: path})
	if err == nil {
		t.Fatalf("expected error for invalid durations")
	}
	if !strings.Contains(err.Error(), "write_timeout") || !strings.Contains(err.Error(), "idle_timeout") {
		t.Fatalf("expected both fields in error, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)

	if _, err := Load(&CLIOverrides{ConfigFile: filepath.Join(t.TempDir(), "nope.yaml")}); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestValidateConfig(t *testing.T) {
	cfg := defaultConfig()
	cfg.RateLimitRPS = -1
	cfg.RateLimitBurst = -1
	cfg.Properties[" "] = "x"

	err := validateConfig(cfg)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, want := range []string{"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "property keys"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %v", want, err)
		}
	}
}

func TestParseList(t *testing.T) {
	if got := parseList(" a, ,b ,"); !slices.Equal(got, []string{"a", "b"}) {
		t.Fatalf("unexpected list %v", got)
	}
	if got := parseList(" , "); len(got) != 0 {
		t.Fatalf("expected empty list, got %v", got)
	}
}
