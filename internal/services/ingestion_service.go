package services

import (
	"context"
	"fmt"
	"time"

	"airport-weather-map/internal/lookup"
	"airport-weather-map/pkg/logging"
	"airport-weather-map/pkg/metrics"
)

// TableStore receives a validated table set
type TableStore interface {
	ReplaceTables(ctx context.Context, t *lookup.Tables, batchSize int) error
}

// IngestionService copies lookup tables from a source into a store
type IngestionService struct {
	source  lookup.Source
	store   TableStore
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// IngestOptions controls one ingestion run
type IngestOptions struct {
	BatchSize int
	// SnapshotDir, when set, also receives a Parquet copy of the tables
	SnapshotDir string
	// DryRun validates the source without writing to the store
	DryRun bool
}

// IngestionResult contains ingestion statistics
type IngestionResult struct {
	Rows        map[string]int
	SnapshotDir string
	Stored      bool
	Duration    time.Duration
}

// NewIngestionService creates a new ingestion service. store may be nil for
// dry runs.
func NewIngestionService(source lookup.Source, store TableStore, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *IngestionService {
	return &IngestionService{
		source:  source,
		store:   store,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// Ingest loads and validates the source tables, then replaces the stored copy
func (s *IngestionService) Ingest(ctx context.Context, opts IngestOptions) (*IngestionResult, error) {
	startTime := time.Now()

	s.logger.Info(ctx, "[INGEST_START] Starting table ingestion", logging.Fields{
		"batch_size":   opts.BatchSize,
		"snapshot_dir": opts.SnapshotDir,
		"dry_run":      opts.DryRun,
		"stage":        "INITIALIZATION",
	})

	tables, err := s.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load source tables: %w", err)
	}

	result := &IngestionResult{Rows: tables.Counts()}

	s.logger.Info(ctx, "[INGEST_VALIDATED] Source tables validated", logging.Fields{
		"rows":  result.Rows,
		"stage": "VALIDATION",
	})

	if opts.SnapshotDir != "" {
		if err := lookup.ExportParquet(opts.SnapshotDir, tables); err != nil {
			return nil, fmt.Errorf("failed to write parquet snapshot: %w", err)
		}
		result.SnapshotDir = opts.SnapshotDir

		s.logger.Info(ctx, "[INGEST_SNAPSHOT] Parquet snapshot written", logging.Fields{
			"snapshot_dir": opts.SnapshotDir,
			"stage":        "SNAPSHOT",
		})
	}

	if !opts.DryRun {
		if s.store == nil {
			return nil, fmt.Errorf("no table store configured")
		}
		if err := s.store.ReplaceTables(ctx, tables, opts.BatchSize); err != nil {
			return nil, fmt.Errorf("failed to store tables: %w", err)
		}
		result.Stored = true
	}

	result.Duration = time.Since(startTime)

	s.logger.Info(ctx, "[INGEST_COMPLETE] Table ingestion completed", logging.Fields{
		"rows":             result.Rows,
		"stored":           result.Stored,
		"duration_seconds": result.Duration.Seconds(),
		"stage":            "COMPLETE",
	})

	return result, nil
}
