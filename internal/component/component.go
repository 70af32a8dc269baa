// Package component holds the logging components that configuration may
// name by type, and registers them with a loader.Registry.
package component

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/eugenenazirov/confsubst/internal/loader"
)

// Decision is the outcome of a Filter.
type Decision string

const (
	Deny    Decision = "DENY"
	Neutral Decision = "NEUTRAL"
	Accept  Decision = "ACCEPT"
)

// Filter decides whether an event at the given level should be logged.
type Filter interface {
	Decide(level string) Decision
}

// Encoder turns a formatted message into bytes.
type Encoder interface {
	Encode(message string) []byte
}

var levels = map[string]int{
	"TRACE": 0,
	"DEBUG": 1,
	"INFO":  2,
	"WARN":  3,
	"ERROR": 4,
}

// ErrUnknownLevel is returned for level names outside TRACE..ERROR.
var ErrUnknownLevel = errors.New("unknown level")

// ThresholdFilter denies events below its level.
type ThresholdFilter struct {
	level string
}

// NewThresholdFilter creates a filter for level, case-insensitive.
func NewThresholdFilter(level string) (*ThresholdFilter, error) {
	level = strings.ToUpper(strings.TrimSpace(level))
	if _, ok := levels[level]; !ok {
		return nil, fmt.Errorf("%q: %w", level, ErrUnknownLevel)
	}
	return &ThresholdFilter{level: level}, nil
}

func (f *ThresholdFilter) Decide(level string) Decision {
	got, ok := levels[strings.ToUpper(level)]
	if !ok || got < levels[f.level] {
		return Deny
	}
	return Neutral
}

func (f *ThresholdFilter) String() string {
	return "ThresholdFilter(" + f.level + ")"
}

// DenyAllFilter drops every event.
type DenyAllFilter struct{}

func NewDenyAllFilter() *DenyAllFilter { return &DenyAllFilter{} }

func (*DenyAllFilter) Decide(string) Decision { return Deny }

func (*DenyAllFilter) String() string { return "DenyAllFilter" }

// PlainEncoder writes the message followed by a newline.
type PlainEncoder struct{}

func NewPlainEncoder() *PlainEncoder { return &PlainEncoder{} }

func (*PlainEncoder) Encode(message string) []byte {
	return []byte(message + "\n")
}

func (*PlainEncoder) String() string { return "PlainEncoder" }

// PrefixEncoder writes a fixed prefix before every message.
type PrefixEncoder struct {
	prefix string
}

func NewPrefixEncoder(prefix string) *PrefixEncoder {
	return &PrefixEncoder{prefix: prefix}
}

func (e *PrefixEncoder) Encode(message string) []byte {
	return []byte(e.prefix + message + "\n")
}

func (e *PrefixEncoder) String() string {
	return fmt.Sprintf("PrefixEncoder(%q)", e.prefix)
}

var capabilities = map[string]reflect.Type{
	"filter":  reflect.TypeFor[Filter](),
	"encoder": reflect.TypeFor[Encoder](),
}

// Capability returns the interface type known as name ("filter", "encoder").
func Capability(name string) (reflect.Type, bool) {
	t, ok := capabilities[strings.ToLower(strings.TrimSpace(name))]
	return t, ok
}

// Register adds every component type to r.
func Register(r *loader.Registry) error {
	entries := []struct {
		name  string
		ctors []any
	}{
		{name: "filter.ThresholdFilter", ctors: []any{NewThresholdFilter}},
		{name: "filter.DenyAllFilter", ctors: []any{NewDenyAllFilter}},
		{name: "encoder.PlainEncoder", ctors: []any{NewPlainEncoder}},
		{name: "encoder.PrefixEncoder", ctors: []any{NewPrefixEncoder}},
	}
	for _, e := range entries {
		if err := r.Register(e.name, e.ctors...); err != nil {
			return fmt.Errorf("register %s: %w", e.name, err)
		}
	}
	return nil
}
