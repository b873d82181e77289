package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"airport-weather-map/internal/app"
	"airport-weather-map/internal/config"
	"airport-weather-map/internal/mapdoc"
	"airport-weather-map/internal/services"
	"airport-weather-map/pkg/logging"
	"airport-weather-map/pkg/metrics"
)

func main() {
	outDir := flag.String("out", "", "Output directory for map artifacts (default: ARTIFACTS_DIR)")
	iata := flag.String("iata", "", "Render a single airport instead of all of them")
	topK := flag.Int("top", 0, "Stations per airport (default: MAP_TOP_K)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	if *outDir == "" {
		*outDir = cfg.Artifacts.OutputDir
	}
	if *topK <= 0 {
		*topK = cfg.Artifacts.TopK
	}

	logger := app.Logger(cfg, "airport-map-prerender", "1.0.0")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info(ctx, "[PRERENDER_INIT] Starting map artifact prerender", logging.Fields{
		"version":      "1.0.0",
		"output_dir":   *outDir,
		"iata":         *iata,
		"top_k":        *topK,
		"table_source": cfg.Tables.Source,
	})

	metricsCollector := metrics.NewCollector("airport_map_prerender")

	source, _, closer, err := app.OpenSource(cfg, logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[PRERENDER_ERROR] Failed to open table source", logging.Fields{}, err)
	}
	defer closer.Close()

	if source == nil {
		logger.Fatal(ctx, "[PRERENDER_ERROR] Prerender needs lookup tables", logging.Fields{
			"table_source": cfg.Tables.Source,
		}, fmt.Errorf("TABLES_SOURCE=%s has no tables", cfg.Tables.Source))
	}

	tables, err := source.Load(ctx)
	if err != nil {
		logger.Fatal(ctx, "[PRERENDER_ERROR] Failed to load lookup tables", logging.Fields{}, err)
	}

	selector := services.NewSelectorService(tables, logger, metricsCollector)
	renderer := mapdoc.NewRenderer(app.RendererOptions(cfg), logger, metricsCollector)
	prerender := services.NewPrerenderService(selector, renderer, cfg.Artifacts.Ext, *topK, logger, metricsCollector)

	if *iata != "" {
		path, err := prerender.RenderOne(ctx, *outDir, *iata)
		if err != nil {
			logger.Fatal(ctx, "[PRERENDER_ERROR] Render failed", logging.Fields{
				"iata": *iata,
			}, err)
		}
		fmt.Printf("Rendered %s -> %s\n", *iata, path)
		return
	}

	result, err := prerender.RenderAll(ctx, *outDir)
	if err != nil {
		logger.Fatal(ctx, "[PRERENDER_ERROR] Prerender failed", logging.Fields{}, err)
	}

	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("PRERENDER COMPLETE")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Airports:           %d\n", result.Airports)
	fmt.Printf("Artifacts Written:  %d\n", result.Rendered)
	fmt.Printf("Output Directory:   %s\n", *outDir)
	fmt.Printf("Total Bytes:        %d\n", result.Bytes)
	fmt.Printf("Duration:           %v\n", result.Duration)
	if secs := result.Duration.Seconds(); secs > 0 {
		fmt.Printf("Artifacts/Second:   %.2f\n", float64(result.Rendered)/secs)
	}

	logger.Info(ctx, "[PRERENDER_DONE] Prerender completed successfully", logging.Fields{
		"rendered":         result.Rendered,
		"duration_seconds": result.Duration.Seconds(),
	})
}
