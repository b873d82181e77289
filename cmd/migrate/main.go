package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"airport-weather-map/internal/app"
	"airport-weather-map/internal/config"
	"airport-weather-map/pkg/database"
	"airport-weather-map/pkg/logging"
	"airport-weather-map/pkg/metrics"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
	dir := flag.String("dir", "migrations", "Directory holding the migration files")
	flag.Parse()

	if _, err := app.MigrationFile(*dir, *direction); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := app.Logger(cfg, "airport-map-migrate", "1.0.0")
	metricsCollector := metrics.NewCollector("airport_map_migrate")
	ctx := context.Background()

	db, err := database.NewPostgresDB(app.DatabaseConfig(cfg), logger, metricsCollector)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	fmt.Println("Connected to database successfully")

	path, err := app.Migrate(ctx, db, *dir, *direction)
	if err != nil {
		logger.Error(ctx, "[MIGRATE_ERROR] Migration failed", logging.Fields{
			"direction": *direction,
			"file":      path,
		}, err)
		fmt.Fprintf(os.Stderr, "Migration failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Migration completed successfully: %s\n", path)
}
