package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"airport-weather-map/internal/app"
	"airport-weather-map/internal/config"
	"airport-weather-map/internal/lookup"
	"airport-weather-map/internal/repository"
	"airport-weather-map/internal/services"
	"airport-weather-map/pkg/database"
	"airport-weather-map/pkg/logging"
	"airport-weather-map/pkg/metrics"
)

func main() {
	dataDir := flag.String("data-dir", "", "Directory containing the lookup table files (default: TABLES_DIR)")
	format := flag.String("format", "", "Table file format: csv, csv.gz or parquet (default: TABLES_FORMAT)")
	batchSize := flag.Int("batch-size", 1000, "Rows per insert statement")
	parquetOut := flag.String("parquet-out", "", "Also write a Parquet snapshot of the tables to this directory")
	dryRun := flag.Bool("dry-run", false, "Validate the tables without writing to the database")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if *dataDir == "" {
		*dataDir = cfg.Tables.Dir
	}
	if *format == "" {
		*format = cfg.Tables.Format
	}

	logger := app.Logger(cfg, "airport-map-ingester", "1.0.0")

	ctx := context.Background()
	logger.Info(ctx, "[INGESTER_START] Starting lookup table ingestion", logging.Fields{
		"version":     "1.0.0",
		"data_dir":    *dataDir,
		"format":      *format,
		"batch_size":  *batchSize,
		"parquet_out": *parquetOut,
		"dry_run":     *dryRun,
	})

	metricsCollector := metrics.NewCollector("airport_map_ingester")

	source, err := lookup.NewFileSource(*dataDir, *format, logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[INGESTER_ERROR] Invalid table source", logging.Fields{}, err)
	}

	var store services.TableStore
	if !*dryRun {
		db, err := database.NewPostgresDB(app.DatabaseConfig(cfg), logger, metricsCollector)
		if err != nil {
			logger.Fatal(ctx, "[INGESTER_ERROR] Failed to connect to database", logging.Fields{}, err)
		}
		defer db.Close()

		store = repository.NewLookupRepository(db, logger, metricsCollector)
	}

	ingestionService := services.NewIngestionService(source, store, logger, metricsCollector)

	result, err := ingestionService.Ingest(ctx, services.IngestOptions{
		BatchSize:   *batchSize,
		SnapshotDir: *parquetOut,
		DryRun:      *dryRun,
	})
	if err != nil {
		logger.Fatal(ctx, "[INGESTION_ERROR] Ingestion failed", logging.Fields{
			"error": err.Error(),
		}, err)
	}

	tables := make([]string, 0, len(result.Rows))
	for table := range result.Rows {
		tables = append(tables, table)
	}
	sort.Strings(tables)

	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("INGESTION COMPLETE")
	fmt.Println(strings.Repeat("=", 80))
	for _, table := range tables {
		fmt.Printf("%-20s%d rows\n", table+":", result.Rows[table])
	}
	fmt.Printf("Stored in Database: %v\n", result.Stored)
	if result.SnapshotDir != "" {
		fmt.Printf("Parquet Snapshot:   %s\n", result.SnapshotDir)
	}
	fmt.Printf("Duration:           %v\n", result.Duration)

	logger.Info(ctx, "[INGESTER_COMPLETE] Ingestion completed successfully", logging.Fields{
		"rows":             result.Rows,
		"stored":           result.Stored,
		"duration_seconds": result.Duration.Seconds(),
	})
}
