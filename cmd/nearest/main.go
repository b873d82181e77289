package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"airport-weather-map/internal/app"
	"airport-weather-map/internal/config"
	"airport-weather-map/internal/mapdoc"
	"airport-weather-map/internal/models"
	"airport-weather-map/internal/services"
	"airport-weather-map/pkg/logging"
	"airport-weather-map/pkg/metrics"
)

// Prints the nearest stations of some airports without touching the
// artifacts. With no codes given it walks the first -limit airports.
func main() {
	topK := flag.Int("top", 0, "Stations per airport (default: MAP_TOP_K)")
	limit := flag.Int("limit", 3, "Airports to show when no codes are given")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *topK <= 0 {
		*topK = cfg.Artifacts.TopK
	}

	logger := app.Logger(cfg, "airport-map-nearest", "1.0.0")
	metricsCollector := metrics.NewCollector("airport_map_nearest")
	ctx := context.Background()

	source, _, closer, err := app.OpenSource(cfg, logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[NEAREST_ERROR] Failed to open table source", logging.Fields{}, err)
	}
	defer closer.Close()
	if source == nil {
		fmt.Fprintln(os.Stderr, "TABLES_SOURCE=none: nothing to look up")
		os.Exit(1)
	}

	tables, err := source.Load(ctx)
	if err != nil {
		logger.Fatal(ctx, "[NEAREST_ERROR] Failed to load lookup tables", logging.Fields{}, err)
	}
	selector := services.NewSelectorService(tables, logger, metricsCollector)

	codes := flag.Args()
	if len(codes) == 0 {
		for i, a := range selector.Airports() {
			if i >= *limit {
				break
			}
			codes = append(codes, a.IATA)
		}
	}

	failed := 0
	for _, code := range codes {
		top, err := selector.NearestStations(ctx, code, *topK)
		if err != nil {
			fmt.Printf("%s: %v\n\n", code, err)
			failed++
			continue
		}
		printTopStations(top)
	}

	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Airports shown: %d   Lookups failed: %d   Airports loaded: %d\n",
		len(codes)-failed, failed, tables.Counts()["airports"])

	if failed > 0 {
		os.Exit(1)
	}
}

func printTopStations(top *models.TopStations) {
	a := top.Airport
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("%s  (%.4f, %.4f)\n", a.IATA, a.Latitude, a.Longitude)
	fmt.Println(strings.Repeat("-", 80))

	for i, ns := range top.Stations {
		fmt.Printf("%d. %-12s %-30s %8s mi\n", i+1, ns.Station.ID, ns.Station.Name, mapdoc.FormatDistance(ns.DistanceMiles))

		lows := make([]string, len(models.MonthNames))
		for m, name := range models.MonthNames {
			lows[m] = name + " " + mapdoc.FormatTemperature(ns.MonthlyLow.Lows[m])
		}
		fmt.Printf("   %s\n", strings.Join(lows[:6], "  "))
		fmt.Printf("   %s\n", strings.Join(lows[6:], "  "))
	}
	fmt.Println()
}
