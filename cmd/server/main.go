package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"airport-weather-map/internal/app"
	"airport-weather-map/internal/config"
	"airport-weather-map/internal/handlers"
	"airport-weather-map/internal/services"
	"airport-weather-map/pkg/logging"
	"airport-weather-map/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := app.Logger(cfg, "airport-map-server", "1.0.0")

	ctx := context.Background()
	logger.Info(ctx, "[STARTUP] Starting airport weather map server", logging.Fields{
		"version":       "1.0.0",
		"server_host":   cfg.Server.Host,
		"server_port":   cfg.Server.Port,
		"artifacts_dir": cfg.Artifacts.OutputDir,
		"table_source":  cfg.Tables.Source,
	})

	metricsCollector := metrics.NewCollector("airport_map")

	source, repo, closer, err := app.OpenSource(cfg, logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Failed to open table source", logging.Fields{}, err)
	}
	defer closer.Close()

	router := mux.NewRouter()
	router.Use(handlers.RequestLogger(logger))

	checks := map[string]handlers.HealthChecker{}
	if repo != nil {
		checks["database"] = repo
	}

	var tableCounts map[string]int
	if source != nil {
		tables, err := source.Load(ctx)
		if err != nil {
			logger.Fatal(ctx, "[STARTUP_ERROR] Failed to load lookup tables", logging.Fields{}, err)
		}
		tableCounts = tables.Counts()

		selector := services.NewSelectorService(tables, logger, metricsCollector)
		handlers.NewLookupHandler(selector, cfg.Artifacts.Ext, logger, metricsCollector).RegisterRoutes(router)
	} else {
		logger.Warn(ctx, "[STARTUP_NO_TABLES] Lookup API disabled, serving artifacts only", logging.Fields{})
	}

	handlers.RegisterDocsRoutes(router)
	router.HandleFunc("/health", handlers.NewHealthHandler(checks, tableCounts, logger).HealthCheck).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler())
	handlers.NewViewerHandler(cfg.Artifacts.OutputDir, cfg.Artifacts.Ext, logger, metricsCollector).RegisterRoutes(router)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info(ctx, "[SERVER_START] HTTP server listening", logging.Fields{
			"address": server.Addr,
		})

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "[SERVER_ERROR] Server failed", logging.Fields{}, err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "[SHUTDOWN] Shutting down server...", logging.Fields{})

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "[SHUTDOWN_ERROR] Server forced to shutdown", logging.Fields{}, err)
	}

	logger.Info(ctx, "[SHUTDOWN_COMPLETE] Server stopped", logging.Fields{})
}
