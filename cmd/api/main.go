package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mimakeko/homehealth-assistant/internal/admin"
	"github.com/mimakeko/homehealth-assistant/internal/api/router"
	"github.com/mimakeko/homehealth-assistant/internal/app/bootstrap"
	"github.com/mimakeko/homehealth-assistant/internal/archive"
	appconfig "github.com/mimakeko/homehealth-assistant/internal/config"
	"github.com/mimakeko/homehealth-assistant/internal/geo"
	httpmiddleware "github.com/mimakeko/homehealth-assistant/internal/http/middleware"
	"github.com/mimakeko/homehealth-assistant/internal/messaging"
	"github.com/mimakeko/homehealth-assistant/internal/notify"
	"github.com/mimakeko/homehealth-assistant/internal/observability/metrics"
	"github.com/mimakeko/homehealth-assistant/internal/schedule"
	"github.com/mimakeko/homehealth-assistant/pkg/logging"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting home health assistant",
		"env", cfg.Env,
		"port", cfg.Port,
		"mode", cfg.Mode(),
	)

	ctx := context.Background()
	m := metrics.New(nil)

	// Persistence: postgres when configured and reachable, memory otherwise.
	pool := bootstrap.BuildPgxPool(ctx, cfg, logger)
	if pool != nil {
		defer pool.Close()
	}
	stores := bootstrap.BuildStores(pool, cfg.ClinicTimezone, logger)

	sqlDB := bootstrap.BuildSQLDB(ctx, cfg, logger)
	if sqlDB != nil {
		defer sqlDB.Close()
	}
	var reporter *admin.Reporter
	if sqlDB != nil {
		reporter = admin.NewReporter(sqlDB, logger)
	}

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer redisClient.Close()
	}
	s3Client, sesClient := bootstrap.BuildAWSClients(ctx, cfg, logger)

	// Outbound SMS and geo providers, selected once at startup.
	messenger, mode := bootstrap.BuildOutboundMessenger(cfg, logger)
	geoProvider, mapsLive := bootstrap.BuildGeoProvider(cfg, logger)
	geocoder := geo.NewCachedGeocoder(geoProvider, redisClient, cfg.GeoCacheTTL, logger)

	emailSender := notify.BuildEmailSender(cfg.SendGridAPIKey, cfg.AlertEmailFrom, cfg.AlertFromName, sesClient, logger)
	alerts := notify.NewAlerts(emailSender, cfg.AlertEmailTo, logger)

	pipeline := messaging.NewPipeline(messaging.PipelineConfig{
		Timezone:     cfg.ClinicTimezone,
		Patients:     stores.Patients,
		Appointments: stores.Appointments,
		Store:        stores.Messages,
		Messenger:    messenger,
		Alerts:       alerts,
		Metrics:      m,
		Logger:       logger,
	})

	auth := httpmiddleware.NewTokenAuth(cfg.DebugToken, cfg.DebugUser, cfg.SessionKey(), cfg.SessionTTL, logger)
	if !auth.Enabled() {
		logger.Warn("DEBUG_TOKEN not set, operator endpoints are locked")
	}
	limiter := httpmiddleware.NewRateLimiter(cfg.RateLimitMaxSimulate, cfg.RateLimitWindow)

	scheduleService := schedule.NewService(stores.Appointments, geocoder, geoProvider, cfg.ClinicTimezone, logger)

	var archiver admin.Archiver
	if exportStore := archive.NewStore(s3Client, cfg.ExportBucket, logger); exportStore.Enabled() {
		archiver = exportStore
		logger.Info("export archive enabled", "bucket", cfg.ExportBucket)
	}

	status := admin.Status{
		Service:   cfg.ServiceName,
		Version:   cfg.AppVersion,
		BuildID:   cfg.BuildID,
		GitCommit: cfg.GitCommit,
		Region:    cfg.Region,
		Mode:      mode,
		SMSReady:  cfg.SMSReady(),
		MapsReady: mapsLive,
	}

	routerCfg := &router.Config{
		Logger:             logger,
		Metrics:            m,
		Auth:               auth,
		SimulateLimiter:    limiter,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		MessagingHandler:   messaging.NewHandler(pipeline, cfg.TwilioAuthToken, cfg.WebhookURL(), logger),
		ScheduleHandler:    schedule.NewHandler(scheduleService, auth, mapsLive, logger),
		GeoHandler:         geo.NewHandler(geoProvider, mapsLive, logger),
		AdminHandler:       admin.NewHandler(status, stores.Messages, m, reporter, archiver, auth, cfg.AdminPageSize, logger),
		MetricsHandler:     promhttp.HandlerFor(m.Gatherer(), promhttp.HandlerOpts{}),
	}
	r := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
