package sysenv

import (
	"fmt"
	"os"
	"sort"

	"go.uber.org/multierr"
)

// EnvLookup reads a variable from the process environment.
type EnvLookup func(key string) (string, bool, error)

// OSEnv looks keys up with os.LookupEnv.
func OSEnv(key string) (string, bool, error) {
	v, ok := os.LookupEnv(key)
	return v, ok, nil
}

// ErrorReporter receives failures that are absorbed instead of returned to
// the configuration loader.
type ErrorReporter interface {
	AddError(msg string, err error)
}

// ReporterFunc adapts a function to ErrorReporter.
type ReporterFunc func(msg string, err error)

func (f ReporterFunc) AddError(msg string, err error) { f(msg, err) }

// Accessor gives guarded access to system properties and the environment.
// Permission failures from the underlying stores never reach the caller:
// reads fall back to a default or to absent, writes are reported.
type Accessor struct {
	store    Store
	fallback Reader
	env      EnvLookup
	reporter ErrorReporter
}

// Option configures an Accessor.
type Option func(*Accessor)

// WithEnv replaces the environment lookup.
func WithEnv(env EnvLookup) Option {
	return func(a *Accessor) {
		a.env = env
	}
}

// WithFallback sets the read-only store consulted when store has no value.
func WithFallback(r Reader) Option {
	return func(a *Accessor) {
		a.fallback = r
	}
}

// WithReporter sets where absorbed write failures are sent.
func WithReporter(r ErrorReporter) Option {
	return func(a *Accessor) {
		a.reporter = r
	}
}

// New wraps store. A nil store behaves as an empty, read-only one.
func New(store Store, opts ...Option) *Accessor {
	a := &Accessor{
		store: store,
		env:   OSEnv,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// GetSystemProperty returns the value for key, or def when it is unset or
// cannot be read.
func (a *Accessor) GetSystemProperty(key, def string) string {
	if a.store == nil {
		return def
	}
	v, ok, err := a.store.Get(key)
	if err != nil || !ok {
		return def
	}
	return v
}

// SystemProperty looks key up in the store and then in the platform fallback.
func (a *Accessor) SystemProperty(key string) (string, bool) {
	if a.store != nil {
		v, ok, err := a.store.Get(key)
		if err != nil {
			return "", false
		}
		if ok {
			return v, true
		}
	}
	return a.platformProperty(key)
}

func (a *Accessor) platformProperty(key string) (string, bool) {
	if a.fallback == nil {
		return "", false
	}
	v, ok, err := a.fallback.Get(key)
	if err != nil {
		return "", false
	}
	return v, ok
}

// GetEnv returns the environment value for key.
func (a *Accessor) GetEnv(key string) (string, bool) {
	if a.env == nil {
		return "", false
	}
	v, ok, err := a.env(key)
	if err != nil {
		return "", false
	}
	return v, ok
}

// SetSystemProperty writes key. A failure is reported and returned, it is
// never fatal.
func (a *Accessor) SetSystemProperty(key, value string) error {
	if a.store == nil {
		err := fmt.Errorf("write %q: %w", key, ErrPermissionDenied)
		a.report(key, err)
		return err
	}
	if err := a.store.Set(key, value); err != nil {
		a.report(key, err)
		return err
	}
	return nil
}

// SetSystemProperties writes every entry of props in key order and returns the
// combined failures.
func (a *Accessor) SetSystemProperties(props map[string]string) error {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs error
	for _, k := range keys {
		errs = multierr.Append(errs, a.SetSystemProperty(k, props[k]))
	}
	return errs
}

// SystemProperties returns a snapshot of the store, or an empty map when it
// cannot be listed.
func (a *Accessor) SystemProperties() map[string]string {
	if a.store == nil {
		return map[string]string{}
	}
	all, err := a.store.All()
	if err != nil || all == nil {
		return map[string]string{}
	}
	return all
}

func (a *Accessor) report(key string, err error) {
	if a.reporter == nil {
		return
	}
	a.reporter.AddError(fmt.Sprintf("Failed to set system property [%s]", key), err)
}
