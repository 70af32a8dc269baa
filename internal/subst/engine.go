package subst

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"go.uber.org/multierr"

	"github.com/eugenenazirov/confsubst/internal/property"
)

const (
	delimStart   = "${"
	delimStop    = '}'
	delimDefault = ":-"

	// UndefinedSuffix is appended to the key of a reference that resolves
	// nowhere and has no default, so ${A} becomes "A_IS_UNDEFINED".
	UndefinedSuffix = "_IS_UNDEFINED"
)

// Lookuper resolves a concrete key across the caller's sources and any
// process-level tiers behind them.
type Lookuper interface {
	Lookup(key string, primary, secondary property.Source) (string, bool)
}

// Engine expands ${KEY} and ${KEY:-default} references. References nest in
// both the key and the default. An Engine is stateless and safe for
// concurrent use.
type Engine struct {
	resolver Lookuper
}

// New creates an Engine that resolves keys through resolver.
func New(resolver Lookuper) *Engine {
	return &Engine{resolver: resolver}
}

type tiers struct {
	primary   property.Source
	secondary property.Source
	undefined *[]string
}

func (t tiers) markUndefined(key string) {
	if t.undefined == nil || slices.Contains(*t.undefined, key) {
		return
	}
	*t.undefined = append(*t.undefined, key)
}

// Expansion is the outcome of Expand.
type Expansion struct {
	Value string
	// Undefined lists, in order of first use, the keys that resolved nowhere
	// and had no default, so that Value carries their marker.
	Undefined []string
}

// Substitute expands every reference in input. secondary may be nil.
//
// Values found for a key are inserted as-is. If the result still contains
// ${, exactly one more pass runs over it. Chains that need more than that
// stay partially unexpanded; this bound is kept for compatibility with
// existing configurations.
//
// A reference with no value and no default expands to its key followed by
// UndefinedSuffix.
func (e *Engine) Substitute(input string, primary, secondary property.Source) (string, error) {
	exp, err := e.Expand(input, primary, secondary)
	if err != nil {
		return "", err
	}
	return exp.Value, nil
}

// Expand is Substitute that also reports which keys were left undefined.
func (e *Engine) Expand(input string, primary, secondary property.Source) (Expansion, error) {
	if primary == nil {
		return Expansion{}, ErrNilSource
	}
	var undefined []string
	t := tiers{primary: primary, secondary: secondary, undefined: &undefined}

	out, err := e.expand(input, t)
	if err != nil {
		return Expansion{}, withInput(input, err)
	}
	if strings.Contains(out, delimStart) {
		if out, err = e.expand(out, t); err != nil {
			return Expansion{}, withInput(input, err)
		}
	}
	return Expansion{Value: out, Undefined: undefined}, nil
}

// SubstituteProperties expands the values of a property block. Values may
// refer to other keys of the same block; keys missing from the block are
// looked up in scope and the tiers behind it. Failures for individual keys
// are combined.
func (e *Engine) SubstituteProperties(props map[string]string, scope property.Source) (map[string]string, error) {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	block := property.NewMap(props)
	out := make(map[string]string, len(props))
	var errs error
	for _, k := range keys {
		v, err := e.Substitute(props[k], block, scope)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("property %q: %w", k, err))
			continue
		}
		out[k] = v
	}
	return out, errs
}

// IsUndefined reports whether s contains the marker of an unresolved
// reference anywhere. Expand reports the exact keys instead.
func IsUndefined(s string) bool {
	return strings.Contains(s, UndefinedSuffix)
}

func (e *Engine) expand(text string, t tiers) (string, error) {
	if !strings.Contains(text, delimStart) {
		return text, nil
	}

	var b strings.Builder
	b.Grow(len(text))

	for i := 0; i < len(text); {
		start := strings.Index(text[i:], delimStart)
		if start < 0 {
			b.WriteString(text[i:])
			break
		}
		start += i
		b.WriteString(text[i:start])

		bodyStart := start + len(delimStart)
		end := closingIndex(text, bodyStart)
		if end < 0 {
			return "", &ParseError{Offset: start, Err: ErrUnterminated}
		}

		repl, err := e.evaluate(text[bodyStart:end], t)
		if err != nil {
			return "", err
		}
		b.WriteString(repl)
		i = end + 1
	}
	return b.String(), nil
}

func (e *Engine) evaluate(body string, t tiers) (string, error) {
	keyExpr, defaultExpr, hasDefault := splitDefault(body)

	key, err := e.expand(keyExpr, t)
	if err != nil {
		return "", err
	}
	if v, ok := e.lookup(key, t); ok {
		return v, nil
	}
	if hasDefault {
		return e.expand(defaultExpr, t)
	}
	t.markUndefined(key)
	return key + UndefinedSuffix, nil
}

func (e *Engine) lookup(key string, t tiers) (string, bool) {
	if e.resolver == nil {
		if v, ok := t.primary.Lookup(key); ok {
			return v, true
		}
		if t.secondary != nil {
			return t.secondary.Lookup(key)
		}
		return "", false
	}
	return e.resolver.Lookup(key, t.primary, t.secondary)
}

// closingIndex returns the index of the } closing a reference whose body
// starts at from, or -1.
func closingIndex(text string, from int) int {
	depth := 0
	for i := from; i < len(text); {
		if strings.HasPrefix(text[i:], delimStart) {
			depth++
			i += len(delimStart)
			continue
		}
		if text[i] == delimStop {
			if depth == 0 {
				return i
			}
			depth--
		}
		i++
	}
	return -1
}

// splitDefault splits body at the first :- outside any nested reference.
func splitDefault(body string) (key, def string, ok bool) {
	depth := 0
	for i := 0; i < len(body); {
		switch {
		case strings.HasPrefix(body[i:], delimStart):
			depth++
			i += len(delimStart)
			continue
		case body[i] == delimStop:
			depth--
		case depth == 0 && strings.HasPrefix(body[i:], delimDefault):
			return body[:i], body[i+len(delimDefault):], true
		}
		i++
	}
	return body, "", false
}

func withInput(input string, err error) error {
	var pe *ParseError
	if errors.As(err, &pe) {
		pe.Input = input
		return pe
	}
	return fmt.Errorf("substitute [%s]: %w", input, err)
}
