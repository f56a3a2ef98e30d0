package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"reportexport/internal/config"
	"reportexport/internal/infrastructure"
	"reportexport/internal/layout"
	"reportexport/internal/mailer"
	customMiddleware "reportexport/internal/middleware"
	"reportexport/internal/ratelimit"
	"reportexport/internal/report"
	"reportexport/internal/services"
	handlers "reportexport/internal/transport/http"
)

const (
	VERSION = "v1.0.0"
	AppName = "Report Export Service"
)

// Application is the main application container.
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Governor      *ratelimit.Governor
	ExportService *services.ExportService
	Logger        *slog.Logger

	sweepDone chan struct{}
}

// NewApplication wires the export pipeline. The data source is a
// collaborator the embedding deployment provides; everything else is
// built from configuration.
func NewApplication(source services.DataSource) (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := infrastructure.InitializeLogger(cfg.Logging)

	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", VERSION))

	app := &Application{
		Config:    cfg,
		Governor:  ratelimit.NewGovernor(),
		Logger:    logger,
		sweepDone: make(chan struct{}),
	}

	if err := app.initializeServices(source); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices builds the export orchestrator and its
// collaborators from configuration.
func (a *Application) initializeServices(source services.DataSource) error {
	org := report.Organisation{
		Name:     a.Config.Export.OrgName,
		Slug:     a.Config.Export.OrgSlug,
		LogoPath: a.Config.Export.OrgLogo,
		Timezone: a.Config.Export.OrgTimezone,
	}

	geom := layout.DefaultGeometry()
	engine := layout.NewEngine(geom)
	renderer := layout.NewRenderer(geom, a.Config.Export.AssetsDir, a.Logger)

	provider, err := mailer.NewProvider(a.Config.Mail, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize mail provider: %w", err)
	}
	a.Logger.Info("Mail provider configured", slog.String("provider", provider.Name()))

	dispatcher := mailer.NewDispatcher(provider, a.Config.Mail.Timeout, a.Logger)

	a.ExportService = services.NewExportService(
		a.Governor,
		a.Config.Export.Cooldown,
		engine,
		renderer,
		dispatcher,
		source,
		org,
		a.Logger,
	)

	return nil
}

// setupRouter configures the HTTP router with all routes.
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(customMiddleware.Recoverer(a.Logger))

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		exportHandler := handlers.NewExportHandler(a.ExportService, a.Logger)
		r.Mount("/reports", exportHandler.Routes())
	})

	healthHandler := handlers.NewHealthHandler()
	r.Get("/healthz", healthHandler.Healthz)

	r.Handle("/metrics", promhttp.Handler())

	a.Router = r
}

// createServer creates the HTTP server.
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Start starts the HTTP server and the governor janitor.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", AppName),
		slog.String("version", VERSION),
		slog.Int("port", a.Config.Server.Port),
		slog.String("cooldown", a.Config.Export.Cooldown.String()))

	go a.runGovernorSweep()

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "Application started",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))
	return nil
}

// runGovernorSweep periodically drops expired rate-limit stamps so the
// principal map does not grow without bound.
func (a *Application) runGovernorSweep() {
	cooldown := a.Config.Export.Cooldown
	ticker := time.NewTicker(cooldown)
	defer ticker.Stop()

	for {
		select {
		case <-a.sweepDone:
			return
		case now := <-ticker.C:
			if removed := a.Governor.Sweep(now, cooldown); removed > 0 {
				a.Logger.Debug("Swept expired rate-limit entries",
					slog.Int("removed", removed),
					slog.Int("remaining", a.Governor.Len()))
			}
		}
	}
}

// Stop gracefully stops the application.
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	close(a.sweepDone)

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run runs the application until interrupted.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal")
	case <-ctx.Done():
	}

	return a.Stop(ctx)
}
