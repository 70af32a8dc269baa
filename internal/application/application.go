package application

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/eugenenazirov/confsubst/internal/api"
	"github.com/eugenenazirov/confsubst/internal/component"
	"github.com/eugenenazirov/confsubst/internal/config"
	"github.com/eugenenazirov/confsubst/internal/loader"
	"github.com/eugenenazirov/confsubst/internal/logging"
	"github.com/eugenenazirov/confsubst/internal/property"
	"github.com/eugenenazirov/confsubst/internal/resolve"
	"github.com/eugenenazirov/confsubst/internal/subst"
	"github.com/eugenenazirov/confsubst/internal/sysenv"
)

// App encapsulates the application dependencies and HTTP server.
type App struct {
	system     *sysenv.Accessor
	properties *property.Store
	registry   *loader.Registry
	router     http.Handler
	logger     *zap.Logger
	server     *http.Server
}

// New initializes the application with all dependencies from the provided configuration.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	system, err := newSystemAccessor(cfg, logger)
	if err != nil {
		return nil, err
	}
	resolver := resolve.New(system)

	expanded, err := subst.New(resolver).SubstituteProperties(cfg.Properties, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to expand initial properties: %w", err)
	}
	store := property.NewStore(nil)
	if err := store.Replace(expanded); err != nil {
		return nil, fmt.Errorf("failed to apply initial properties: %w", err)
	}

	registry := loader.NewRegistry()
	if err := component.Register(registry); err != nil {
		return nil, fmt.Errorf("failed to register components: %w", err)
	}

	handler := api.NewHandler(resolver, store, registry)
	apiRouter := api.NewRouter(handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)

	return &App{
		system:     system,
		properties: store,
		registry:   registry,
		router:     apiRouter,
		logger:     logger,
		server:     NewServer(cfg, BuildRootHandler(apiRouter)),
	}, nil
}

// newSystemAccessor builds the guarded system property accessor and seeds it
// with the configured system properties. Seeding failures are logged, not
// fatal: a restricted key simply stays unset.
func newSystemAccessor(cfg config.Config, logger *zap.Logger) (*sysenv.Accessor, error) {
	opts := []sysenv.Option{sysenv.WithReporter(logging.NewReporter(logger))}
	if cfg.PlatformPropertiesFile != "" {
		platform, err := sysenv.LoadPlatformStore(cfg.PlatformPropertiesFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load platform properties: %w", err)
		}
		opts = append(opts, sysenv.WithFallback(platform))
	}

	store := sysenv.NewMemoryStore(nil, sysenv.WithRestrictedPrefixes(cfg.RestrictedPrefixes...))
	system := sysenv.New(store, opts...)
	if err := system.SetSystemProperties(cfg.SystemProperties); err != nil {
		logger.Warn("some system properties were not applied", zap.Error(err))
	}
	return system, nil
}

// BuildRootHandler mounts the API router under /api/ and answers everything
// else with 404.
func BuildRootHandler(apiHandler http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/", apiHandler)
	mux.Handle("/", http.NotFoundHandler())
	return mux
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	go func() {
		a.logger.Info("server listening",
			zap.String("addr", a.server.Addr),
			zap.Int("properties", len(a.properties.Keys())),
			zap.Int("system_properties", len(a.system.SystemProperties())),
			zap.Strings("types", a.registry.Names()),
		)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}

// System returns the system property accessor the application resolves through.
func (a *App) System() *sysenv.Accessor {
	return a.system
}
