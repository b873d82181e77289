package lookup

import (
	"context"
	"fmt"
	"path/filepath"

	"airport-weather-map/internal/models"
	"airport-weather-map/pkg/logging"
	"airport-weather-map/pkg/metrics"
)

// Source loads and validates the lookup tables
type Source interface {
	Load(ctx context.Context) (*Tables, error)
}

// Supported file formats for FileSource
const (
	FormatCSV     = "csv"
	FormatCSVGzip = "csv.gz"
	FormatParquet = "parquet"
)

// Table file base names inside the data directory
const (
	AirportsFile    = "airports"
	StationsFile    = "stations"
	DistancesFile   = "distances"
	MonthlyLowsFile = "monthly_lows"
)

// FileSource reads the four tables from <Dir>/<name>.<Format>
type FileSource struct {
	dir     string
	format  string
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewFileSource creates a file-backed table source
func NewFileSource(dir, format string, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) (*FileSource, error) {
	switch format {
	case FormatCSV, FormatCSVGzip, FormatParquet:
	default:
		return nil, fmt.Errorf("unsupported table format %q (want %s, %s or %s)", format, FormatCSV, FormatCSVGzip, FormatParquet)
	}

	return &FileSource{
		dir:     dir,
		format:  format,
		logger:  logger,
		metrics: metricsCollector,
	}, nil
}

// Path returns the file path of the named table
func (s *FileSource) Path(table string) string {
	return filepath.Join(s.dir, table+"."+s.format)
}

// Load reads every table file and validates the result
func (s *FileSource) Load(ctx context.Context) (*Tables, error) {
	timer := s.metrics.NewTimer(s.metrics.TableLoadDuration.WithLabelValues("file"))

	s.logger.Info(ctx, "[TABLES_LOAD_START] Loading lookup tables", logging.Fields{
		"dir":    s.dir,
		"format": s.format,
		"stage":  "INITIALIZATION",
	})

	var (
		airports  []models.Airport
		stations  []models.Station
		distances []models.DistanceEntry
		lows      []models.MonthlyLow
		err       error
	)

	switch s.format {
	case FormatParquet:
		airports, stations, distances, lows, err = s.loadParquet()
	default:
		airports, stations, distances, lows, err = s.loadCSV()
	}
	if err != nil {
		s.metrics.RecordTableLoadError("read_error")
		return nil, err
	}

	tables, err := NewTables(airports, stations, distances, lows)
	if err != nil {
		s.metrics.RecordTableLoadError("validation_error")
		return nil, fmt.Errorf("lookup tables in %s failed validation: %w", s.dir, err)
	}

	duration := timer.ObserveDuration()
	counts := tables.Counts()
	for table, n := range counts {
		s.metrics.RecordTableRows(table, n)
	}

	s.logger.Info(ctx, "[TABLES_LOAD_COMPLETE] Lookup tables loaded", logging.Fields{
		"airports":     counts["airports"],
		"stations":     counts["stations"],
		"distances":    counts["distances"],
		"monthly_lows": counts["monthly_lows"],
		"duration_ms":  duration.Milliseconds(),
		"stage":        "COMPLETE",
	})

	return tables, nil
}
