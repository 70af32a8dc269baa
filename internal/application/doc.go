// Package application provides application initialization and dependency wiring.
// It builds the system property accessor, the resolver, the context property
// store, the type registry, handlers, routers and the HTTP server, keeping the
// main package focused on CLI parsing and orchestration.
package application
