package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/contractor-leads/cmd/mainconfig"
	"github.com/wolfman30/contractor-leads/internal/api/router"
	"github.com/wolfman30/contractor-leads/internal/app/bootstrap"
	"github.com/wolfman30/contractor-leads/internal/chat"
	appconfig "github.com/wolfman30/contractor-leads/internal/config"
	"github.com/wolfman30/contractor-leads/internal/dashboard"
	httpmiddleware "github.com/wolfman30/contractor-leads/internal/http/middleware"
	"github.com/wolfman30/contractor-leads/internal/leads"
	"github.com/wolfman30/contractor-leads/internal/observability/metrics"
	"github.com/wolfman30/contractor-leads/internal/site"
	"github.com/wolfman30/contractor-leads/pkg/logging"
)

func main() {
	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.NewWithFormat(cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting contractor-leads API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("server exited")
}

func run(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) error {
	pool, err := bootstrap.ConnectPostgresPool(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	if pool != nil {
		defer pool.Close()
	} else {
		logger.Warn("DATABASE_URL not set; leads and profiles are kept in memory")
	}
	stores := bootstrap.BuildStores(pool, logger)

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer redisClient.Close()
	}

	metricsHandler, leadMetrics := setupMetrics()

	completer, closeCompleter, err := bootstrap.BuildCompleter(ctx, cfg, mainconfig.LoadAWSConfig, logger)
	if err != nil {
		return err
	}
	defer func() { _ = closeCompleter() }()

	variants, err := site.LoadVariants(cfg.SiteConfigPath)
	if err != nil {
		return fmt.Errorf("load site variants: %w", err)
	}

	mirror := dashboard.NewMirror(stores.Leads, logger)
	if err := mirror.Start(ctx); err != nil {
		return fmt.Errorf("start lead mirror: %w", err)
	}
	defer mirror.Stop()

	if alerter := bootstrap.BuildLeadAlerter(cfg, logger); alerter != nil {
		go dashboard.NewAlertListener(mirror, alerter, logger).Run(ctx)
	}

	awayRole := dashboard.Role(cfg.AwayRole)
	if !awayRole.Valid() {
		logger.Warn("invalid AWAY_ROLE; defaulting to manager", "away_role", cfg.AwayRole)
		awayRole = dashboard.RoleManager
	}

	intake := leads.NewIntakeService(stores.Leads, leads.NewWebhookClient(cfg.LeadWebhookURL, cfg.LeadWebhookTimeout, logger), leadMetrics, logger)
	responder := chat.NewResponder(
		chat.NewSelector(nil),
		completer,
		bootstrap.BuildHistoryStore(redisClient, cfg.ChatSessionTTL),
		chat.AwayFunc(dashboard.AwayFor(stores.Profiles, awayRole)),
		leadMetrics,
		chat.ResponderConfig{MaxHistory: cfg.AIMaxHistory, MaxStored: cfg.ChatMaxStored, Timeout: cfg.AITimeout},
		logger,
	)

	limiter := httpmiddleware.NewRateLimiter(cfg.IntakeRatePerMinute, cfg.IntakeRateBurst)
	defer limiter.Close()

	if cfg.DashboardJWTSecret == "" {
		logger.Warn("DASHBOARD_JWT_SECRET not set; dashboard endpoints will reject every request")
	}

	// Setup router
	routerCfg := &router.Config{
		Logger:       logger,
		LeadsHandler: leads.NewHandler(intake, stores.Leads, logger),
		ChatHandler:  chat.NewHandler(responder, intake, logger),
		DashboardHandler: dashboard.NewHandler(dashboard.HandlerConfig{
			Mirror:      mirror,
			Repo:        stores.Leads,
			Profiles:    stores.Profiles,
			Metrics:     leadMetrics,
			DefaultRole: dashboard.RoleManager,
			Logger:      logger,
		}),
		SiteHandler:        site.NewHandler(site.NewRegistry(variants)),
		DashboardJWTSecret: cfg.DashboardJWTSecret,
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		IntakeLimiter:      limiter,
	}
	if pool != nil {
		routerCfg.Ready = pool.Ping
	}

	// Create HTTP server. No write timeout: the chat and dashboard sockets
	// are long-lived.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.New(routerCfg),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

// setupMetrics registers the lead collectors on a private registry along
// with the Go runtime collectors and returns its /metrics handler.
func setupMetrics() (http.Handler, *metrics.LeadMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	leadMetrics := metrics.NewLeadMetrics(reg)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), leadMetrics
}
