// Package property defines the Source capability used by the resolver and a
// couple of ready-made sources: an immutable Map for request-scoped values and
// a concurrency-safe Store for long-lived context properties.
package property
