// Package app wires configuration into the table source, database and
// renderer shared by the commands.
package app

import (
	"fmt"
	"io"

	"airport-weather-map/internal/config"
	"airport-weather-map/internal/lookup"
	"airport-weather-map/internal/mapdoc"
	"airport-weather-map/internal/repository"
	"airport-weather-map/pkg/database"
	"airport-weather-map/pkg/logging"
	"airport-weather-map/pkg/metrics"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// DatabaseConfig converts the config section into the pool settings
func DatabaseConfig(cfg *config.Config) *database.Config {
	return &database.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	}
}

// OpenSource returns the configured table source. The closer releases the
// database pool for the postgres source and is a no-op otherwise. A nil
// source is returned for TABLES_SOURCE=none.
func OpenSource(cfg *config.Config, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) (lookup.Source, repository.LookupRepository, io.Closer, error) {
	switch cfg.Tables.Source {
	case config.SourceFile:
		src, err := lookup.NewFileSource(cfg.Tables.Dir, cfg.Tables.Format, logger, metricsCollector)
		if err != nil {
			return nil, nil, nil, err
		}
		return src, nil, nopCloser{}, nil

	case config.SourcePostgres:
		db, err := database.NewPostgresDB(DatabaseConfig(cfg), logger, metricsCollector)
		if err != nil {
			return nil, nil, nil, err
		}
		repo := repository.NewLookupRepository(db, logger, metricsCollector)
		return repo, repo, db, nil

	case config.SourceNone:
		return nil, nil, nopCloser{}, nil
	}

	return nil, nil, nil, fmt.Errorf("unknown table source %q", cfg.Tables.Source)
}

// RendererOptions converts the artifacts section into renderer options
func RendererOptions(cfg *config.Config) mapdoc.Options {
	return mapdoc.Options{
		TileURL:          cfg.Artifacts.TileURL,
		TileAttribution:  cfg.Artifacts.TileAttribution,
		Zoom:             cfg.Artifacts.Zoom,
		ClimatologyLabel: cfg.Artifacts.ClimatologyLabel,
		MiniMap:          cfg.Artifacts.MiniMap,
	}
}

// Logger builds the structured logger at the configured level
func Logger(cfg *config.Config, service, version string) *logging.StructuredLogger {
	return logging.NewStructuredLogger(service, version, logging.ParseLevel(cfg.Logging.Level))
}
