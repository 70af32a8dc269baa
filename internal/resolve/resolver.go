// Package resolve looks a single property key up across an ordered list of
// tiers: the caller's primary and secondary sources, then system properties,
// then the OS environment. The first tier holding the key wins outright.
package resolve

import (
	"github.com/eugenenazirov/confsubst/internal/property"
	"github.com/eugenenazirov/confsubst/internal/sysenv"
)

// Resolver performs tiered lookups. It holds no mutable state and is safe for
// concurrent use.
type Resolver struct {
	sys *sysenv.Accessor
}

// New creates a Resolver backed by sys for the system property and
// environment tiers. A nil sys skips both tiers.
func New(sys *sysenv.Accessor) *Resolver {
	return &Resolver{sys: sys}
}

// Lookup returns the first value found for key in primary, secondary (when
// non-nil), system properties and the environment, in that order.
func (r *Resolver) Lookup(key string, primary, secondary property.Source) (string, bool) {
	if primary != nil {
		if v, ok := primary.Lookup(key); ok {
			return v, true
		}
	}
	if secondary != nil {
		if v, ok := secondary.Lookup(key); ok {
			return v, true
		}
	}
	if r.sys == nil {
		return "", false
	}
	if v, ok := r.sys.SystemProperty(key); ok {
		return v, true
	}
	return r.sys.GetEnv(key)
}
