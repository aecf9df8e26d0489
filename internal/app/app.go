// Package app provides application initialization and lifecycle management.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/opsdeck/opsdeck/internal/config"
	"github.com/opsdeck/opsdeck/internal/dashboard"
	"github.com/opsdeck/opsdeck/internal/domain"
	"github.com/opsdeck/opsdeck/internal/generator"
	"github.com/opsdeck/opsdeck/internal/identity"
	"github.com/opsdeck/opsdeck/internal/pkg/clock"
	"github.com/opsdeck/opsdeck/internal/pkg/httputil"
	"github.com/opsdeck/opsdeck/internal/pkg/rng"
	"github.com/opsdeck/opsdeck/internal/realtime"
	"github.com/opsdeck/opsdeck/internal/scenario"
	"github.com/opsdeck/opsdeck/internal/sim"
	"github.com/opsdeck/opsdeck/internal/store"
	"github.com/opsdeck/opsdeck/internal/version"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// App represents the application instance.
type App struct {
	config        *config.Config
	logger        *slog.Logger
	server        *http.Server
	metricsServer *http.Server
	loop          *realtime.Loop
	engine        *scenario.Engine
	loopCancel    context.CancelFunc
}

// New creates a new application instance: it seeds the simulation and wires
// the HTTP surface, but starts nothing.
func New(cfg *config.Config) (*App, error) {
	logger := initLogger(cfg.Log)
	slog.SetDefault(logger)

	clk := clock.NewSystem()
	src := rng.New(time.Now().UnixNano())

	st := store.New(clk, src, cfg.Simulator.LogBufferSize)
	gen := generator.New(src, clk)
	simulator := sim.New(st, gen, clk, src, cfg.Simulator.CascadeDelay)
	simulator.Seed(cfg.Simulator.FleetSize, cfg.Simulator.BackfillDays, cfg.Simulator.DefectCount)

	prefs := store.OpenPrefs(cfg.Simulator.PrefsPath)
	engine := scenario.NewEngine(st, simulator, clk)

	loop := realtime.NewLoop(realtime.Config{
		TickInterval:  cfg.Simulator.TickInterval,
		SweepInterval: cfg.Simulator.SweepInterval,
		AlertMaxAge:   cfg.Simulator.AlertMaxAge,
	}, clk, st, prefs, simulator, engine)

	app := &App{
		config: cfg,
		logger: logger,
		loop:   loop,
		engine: engine,
	}

	router, err := app.setupRouter(clk, st, simulator, engine, prefs)
	if err != nil {
		return nil, fmt.Errorf("setup router: %w", err)
	}

	app.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	// Metrics server on separate port
	metricsRouter := chi.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.Handler())

	app.metricsServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.MetricsPort),
		Handler:           metricsRouter,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return app, nil
}

// Run starts the background loops and HTTP servers.
func (a *App) Run() error {
	loopCtx, loopCancel := context.WithCancel(context.Background())
	a.loopCancel = loopCancel
	a.loop.Start(loopCtx)

	go func() {
		a.logger.Info("starting metrics server",
			"host", a.config.Server.Host,
			"port", a.config.Server.MetricsPort,
		)
		if err := a.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error("metrics server error", "error", err)
		}
	}()

	a.logger.Info("starting server",
		"host", a.config.Server.Host,
		"port", a.config.Server.Port,
	)

	if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down servers")

	// Stop timed mutation sources before the HTTP surface.
	a.engine.Stop()
	if a.loopCancel != nil {
		a.loopCancel()
	}
	a.loop.Stop()

	var wg sync.WaitGroup
	var errs []error
	var mu sync.Mutex

	wg.Add(2)

	go func() {
		defer wg.Done()
		if err := a.server.Shutdown(ctx); err != nil {
			mu.Lock()
			errs = append(errs, fmt.Errorf("shutdown server: %w", err))
			mu.Unlock()
		}
	}()

	go func() {
		defer wg.Done()
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			mu.Lock()
			errs = append(errs, fmt.Errorf("shutdown metrics server: %w", err))
			mu.Unlock()
		}
	}()

	wg.Wait()

	return errors.Join(errs...)
}

// Router returns the HTTP handler for testing.
func (a *App) Router() http.Handler {
	return a.server.Handler
}

// Loop returns the realtime loop instance. Used in tests.
func (a *App) Loop() *realtime.Loop {
	return a.loop
}

func (a *App) setupRouter(clk clock.Clock, st *store.Store, simulator *sim.Simulator, engine *scenario.Engine, prefs *store.PrefStore) (*chi.Mux, error) {
	r := chi.NewRouter()

	// Metrics middleware must be first to measure full request time
	r.Use(httputil.MetricsMiddleware)

	// CORS must be early to handle preflight requests before other middleware
	r.Use(httputil.CORSMiddleware(a.config.CORS.AllowedOrigins))
	r.Use(middleware.RequestID)
	r.Use(httputil.RequestLoggerMiddleware(a.logger))
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", a.healthzHandler)
	r.Get("/readyz", a.readyzHandler(st))
	r.Get("/version", a.versionHandler)

	r.Get("/api/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-yaml")
		http.ServeFile(w, r, "api/openapi/openapi.yaml")
	})

	r.Get("/docs", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<!DOCTYPE html>
<html>
<head>
    <title>Opsdeck API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
        SwaggerUIBundle({
            url: "/api/openapi.yaml",
            dom_id: '#swagger-ui',
            presets: [SwaggerUIBundle.presets.apis, SwaggerUIBundle.SwaggerUIStandalonePreset],
            layout: "BaseLayout"
        });
    </script>
</body>
</html>`))
	})

	issuer := identity.NewTokenIssuer(a.config.Auth.JWTSecret, a.config.Auth.TokenTTL, clk)
	identityService := identity.NewService([]domain.Operator{
		{
			Email:        a.config.Auth.OperatorEmail,
			PasswordHash: a.config.Auth.OperatorPasswordHash,
			Role:         domain.RoleOperator,
		},
	}, issuer)
	identityHandler := identity.NewHandler(identityService, int(a.config.Auth.TokenTTL.Seconds()))

	dashboardHandler := dashboard.NewHandler(st, simulator, engine, prefs)
	stream := dashboard.NewStream(st)

	r.Route("/api/v1", func(r chi.Router) {
		identityHandler.RegisterRoutes(r)

		dashboardHandler.RegisterPublicRoutes(r)
		r.Get("/stream", stream.ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(httputil.AuthMiddleware(identityService))
			r.Use(httputil.RequireRole(domain.RoleOperator))
			r.Use(httputil.RateLimitMiddleware(a.config.Demo.RateLimitRPS, a.config.Demo.RateLimitBurst))

			dashboardHandler.RegisterOperatorRoutes(r)
		})
	})

	return r, nil
}

func (a *App) healthzHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.Text(w, http.StatusOK, "OK")
}

func (a *App) readyzHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if len(st.Services()) == 0 {
			httputil.Text(w, http.StatusServiceUnavailable, "Fleet not seeded")
			return
		}
		httputil.Text(w, http.StatusOK, "OK")
	}
}

func (a *App) versionHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.JSON(w, http.StatusOK, map[string]string{
		"version":    version.Version,
		"commit":     version.GitCommit,
		"build_date": version.BuildDate,
	})
}

func initLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
