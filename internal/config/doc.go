// Package config loads runtime configuration from multiple sources (YAML files,
// environment variables, CLI flags) with precedence: CLI flags > YAML config >
// Environment variables > Defaults. Besides server settings it carries the
// initial context properties and system properties handed to the resolver.
package config
