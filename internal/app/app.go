package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"

	"bikedash/internal/config"
	"bikedash/internal/dataprocessing"
	apierrors "bikedash/internal/errors"
	"bikedash/internal/exporter"
	"bikedash/internal/infrastructure"
	customMiddleware "bikedash/internal/middleware"
	"bikedash/internal/services"
	handlers "bikedash/internal/transport/http"
	"bikedash/pkg/contracts"
)

// compressLevel is the gzip level for HTML, SVG and CSV responses.
const compressLevel = 5

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.BusinessMetrics
	Services      *ServiceContainer
}

// ServiceContainer holds all application services
type ServiceContainer struct {
	Pipeline  *dataprocessing.Pipeline
	Dashboard *services.DashboardService
	Health    *services.HealthService
	Exporter  *exporter.TableExporter
}

// NewApplication loads the configuration, initializes the global logger and
// wires the application.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(cfg, logger)
}

// New wires an application from an already loaded configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if cfg == nil {
		return nil, apierrors.NewConfigError("config is required", nil)
	}
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	logger.Info("Application starting",
		slog.String("name", contracts.AppName),
		slog.String("version", contracts.Version),
		slog.String("daily_source", cfg.Sources.Daily),
		slog.String("hourly_source", cfg.Sources.Hourly))

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.NewOTelConfig(cfg.Telemetry, contracts.Version), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.CreateBusinessMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	if err := app.setupRouter(); err != nil {
		return nil, fmt.Errorf("failed to set up router: %w", err)
	}

	app.createServer()

	return app, nil
}

// initializeServices builds the pipeline and the services on top of it.
func (a *Application) initializeServices() error {
	policy, err := dataprocessing.ParsePolicy(a.Config.Categories.Policy)
	if err != nil {
		return apierrors.NewConfigError("invalid category policy", err)
	}

	loader := dataprocessing.NewLoader(&http.Client{}, a.Config.Sources.FetchTimeout, a.Logger)

	pipeline, err := dataprocessing.NewPipeline(dataprocessing.PipelineConfig{
		DailySource:  a.Config.Sources.Daily,
		HourlySource: a.Config.Sources.Hourly,
		Months:       a.Config.Categories.Months,
		Days:         a.Config.Categories.Days,
		Policy:       policy,
	}, loader, a.Logger, a.OTelProviders.Tracer, a.Metrics)
	if err != nil {
		return apierrors.NewConfigError("failed to create pipeline", err)
	}

	a.Services = &ServiceContainer{
		Pipeline:  pipeline,
		Dashboard: services.NewDashboardService(pipeline, a.Logger),
		Health: services.NewHealthService(contracts.Version, contracts.BuildTime, contracts.GitCommit,
			map[string]string{
				dataprocessing.TableDaily:  a.Config.Sources.Daily,
				dataprocessing.TableHourly: a.Config.Sources.Hourly,
			}, a.Logger),
		Exporter: exporter.NewTableExporter(a.Logger),
	}

	a.Logger.Info("Services initialized",
		slog.String("category_policy", string(policy)),
		slog.Duration("fetch_timeout", a.Config.Sources.FetchTimeout))
	return nil
}

// setupRouter registers middleware and routes.
// Order: RequestID → RealIP → OTel → Logger → Recoverer → headers → CORS →
// rate limit → Timeout.
func (a *Application) setupRouter() error {
	errorHandler := apierrors.NewErrorHandler(a.Logger, false)

	page, err := handlers.NewPageRenderer(a.Logger)
	if err != nil {
		return err
	}

	dashboardHandler := handlers.NewDashboardHandler(
		a.Services.Dashboard,
		customMiddleware.NewValidator(a.Logger),
		a.Services.Exporter,
		page,
		a.Logger,
		errorHandler,
	)
	healthHandler := handlers.NewHealthHandler(a.Services.Health, a.Logger)

	r := chi.NewRouter()
	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders.Tracer, a.Metrics, a.Logger).Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.Logger))
		r.Use(customMiddleware.SecurityHeaders)
		r.Use(customMiddleware.Compress(compressLevel))

		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(a.getCORSConfig()))
		}

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))

		r.Get("/", dashboardHandler.Page)

		r.Route("/api", func(r chi.Router) {
			r.Mount("/health", healthHandler.Routes())
			r.Get("/version", healthHandler.Version)
			r.Mount("/", dashboardHandler.APIRoutes())
		})
	})

	// Outside the group so scrapes are neither rate limited nor traced.
	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
	return nil
}

func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	return customMiddleware.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		AllowedMethods: []string{"GET", "HEAD", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "Content-Disposition"},
		MaxAge:         300,
		Logger:         a.Logger,
	}
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start begins serving in the background. A listener failure calls cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", contracts.AppName),
		slog.String("version", contracts.Version),
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level))

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	if err := a.performStartupHealthCheck(ctx); err != nil {
		a.Logger.WarnContext(ctx, "Startup health check warnings", slog.String("warnings", err.Error()))
	}

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))
	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	if err := infrastructure.CloseLogFile(); err != nil {
		a.Logger.ErrorContext(ctx, "Error closing log file", slog.String("error", err.Error()))
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run runs the application until interrupted or the listener fails.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case sig := <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
		a.Logger.WarnContext(ctx, "Server stopped unexpectedly")
	}

	// ctx may already be cancelled; shutdown gets its own budget.
	return a.Stop(context.Background())
}

// ExportTables runs the pipeline once and writes the filtered daily and
// hourly tables into dir. It does not start the server.
func (a *Application) ExportTables(ctx context.Context, dir string, format exporter.Format) ([]string, error) {
	ctx = infrastructure.EnsureTraceID(ctx)
	logger := infrastructure.WithComponent(a.Logger, "export")

	var paths []string
	for _, name := range []string{dataprocessing.TableDaily, dataprocessing.TableHourly} {
		table, err := a.Services.Dashboard.ExportTable(ctx, name)
		if err != nil {
			return paths, err
		}
		path, err := a.Services.Exporter.ExportFile(dir, format, table)
		if err != nil {
			return paths, fmt.Errorf("failed to export %s: %w", name, err)
		}
		logger.InfoContext(ctx, "Table exported",
			slog.String("table", name),
			slog.String("path", path),
			slog.Int("rows", len(table.Cells)))
		paths = append(paths, path)
	}
	return paths, nil
}

// performStartupHealthCheck reports sources that will fail on first load.
func (a *Application) performStartupHealthCheck(ctx context.Context) error {
	status := a.Services.Health.ReadinessCheck(ctx)
	if status.Status != "ready" {
		return fmt.Errorf("sources not ready: %v", status.Services)
	}

	a.Logger.InfoContext(ctx, "Startup health check passed")
	return nil
}
