package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"airport-weather-map/internal/lookup"
	"airport-weather-map/internal/models"
	"airport-weather-map/pkg/database"
	"airport-weather-map/pkg/logging"
	"airport-weather-map/pkg/metrics"
)

// maxBindParams is the PostgreSQL limit on placeholders per statement
const maxBindParams = 65535

// LookupRepository stores the four lookup tables in PostgreSQL. It is also a
// lookup.Source, so the prerender and server commands can read from it.
type LookupRepository interface {
	lookup.Source

	// ReplaceTables swaps the stored tables for t in one transaction
	ReplaceTables(ctx context.Context, t *lookup.Tables, batchSize int) error

	HealthCheck(ctx context.Context) error
}

type lookupRepository struct {
	db      *database.PostgresDB
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewLookupRepository creates a new lookup repository
func NewLookupRepository(db *database.PostgresDB, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) LookupRepository {
	return &lookupRepository{
		db:      db,
		logger:  logger,
		metrics: metricsCollector,
	}
}

const (
	selectAirports = `
		SELECT iata, lat, lon
		FROM airports
		ORDER BY seq
	`
	selectStations = `
		SELECT id, name, lat, lon
		FROM stations
		ORDER BY id
	`
	selectDistances = `
		SELECT airport, station_id, distance_mi
		FROM distances
		ORDER BY airport, station_id
	`
	selectMonthlyLows = `
		SELECT station_id,
		       COALESCE(jan::text, '') AS jan, COALESCE(feb::text, '') AS feb,
		       COALESCE(mar::text, '') AS mar, COALESCE(apr::text, '') AS apr,
		       COALESCE(may::text, '') AS may, COALESCE(jun::text, '') AS jun,
		       COALESCE(jul::text, '') AS jul, COALESCE(aug::text, '') AS aug,
		       COALESCE(sep::text, '') AS sep, COALESCE(oct::text, '') AS oct,
		       COALESCE(nov::text, '') AS nov, COALESCE(dec::text, '') AS dec
		FROM monthly_lows
		ORDER BY station_id
	`
)

// Load reads and validates all four tables
func (r *lookupRepository) Load(ctx context.Context) (*lookup.Tables, error) {
	timer := r.metrics.NewTimer(r.metrics.TableLoadDuration.WithLabelValues("postgres"))

	var airports []models.Airport
	if err := r.db.SelectContext(ctx, "select_airports", &airports, selectAirports); err != nil {
		r.metrics.RecordTableLoadError("read_error")
		return nil, fmt.Errorf("failed to read airports: %w", err)
	}

	var stations []models.Station
	if err := r.db.SelectContext(ctx, "select_stations", &stations, selectStations); err != nil {
		r.metrics.RecordTableLoadError("read_error")
		return nil, fmt.Errorf("failed to read stations: %w", err)
	}

	var distances []models.DistanceEntry
	if err := r.db.SelectContext(ctx, "select_distances", &distances, selectDistances); err != nil {
		r.metrics.RecordTableLoadError("read_error")
		return nil, fmt.Errorf("failed to read distances: %w", err)
	}

	var rows []models.MonthlyLowRow
	if err := r.db.SelectContext(ctx, "select_monthly_lows", &rows, selectMonthlyLows); err != nil {
		r.metrics.RecordTableLoadError("read_error")
		return nil, fmt.Errorf("failed to read monthly lows: %w", err)
	}

	lows := make([]models.MonthlyLow, 0, len(rows))
	for i := range rows {
		low, err := rows[i].ToMonthlyLow()
		if err != nil {
			r.metrics.RecordTableLoadError("validation_error")
			return nil, fmt.Errorf("monthly_lows row %s: %w", rows[i].StationID, err)
		}
		lows = append(lows, low)
	}

	tables, err := lookup.NewTables(airports, stations, distances, lows)
	if err != nil {
		r.metrics.RecordTableLoadError("validation_error")
		return nil, fmt.Errorf("lookup tables in database failed validation: %w", err)
	}

	duration := timer.ObserveDuration()
	for table, n := range tables.Counts() {
		r.metrics.RecordTableRows(table, n)
	}

	r.logger.Info(ctx, "[TABLES_LOAD_COMPLETE] Lookup tables loaded", logging.Fields{
		"source":      "postgres",
		"airports":    len(airports),
		"stations":    len(stations),
		"distances":   len(distances),
		"duration_ms": duration.Milliseconds(),
	})

	return tables, nil
}

type airportRecord struct {
	IATA string  `db:"iata"`
	Seq  int     `db:"seq"`
	Lat  float64 `db:"lat"`
	Lon  float64 `db:"lon"`
}

type monthlyLowRecord struct {
	StationID string   `db:"station_id"`
	Jan       *float64 `db:"jan"`
	Feb       *float64 `db:"feb"`
	Mar       *float64 `db:"mar"`
	Apr       *float64 `db:"apr"`
	May       *float64 `db:"may"`
	Jun       *float64 `db:"jun"`
	Jul       *float64 `db:"jul"`
	Aug       *float64 `db:"aug"`
	Sep       *float64 `db:"sep"`
	Oct       *float64 `db:"oct"`
	Nov       *float64 `db:"nov"`
	Dec       *float64 `db:"dec"`
}

func newMonthlyLowRecord(low models.MonthlyLow) monthlyLowRecord {
	l := low.Lows
	return monthlyLowRecord{
		StationID: low.StationID,
		Jan:       l[0],
		Feb:       l[1],
		Mar:       l[2],
		Apr:       l[3],
		May:       l[4],
		Jun:       l[5],
		Jul:       l[6],
		Aug:       l[7],
		Sep:       l[8],
		Oct:       l[9],
		Nov:       l[10],
		Dec:       l[11],
	}
}

func airportRecords(airports []models.Airport) []airportRecord {
	records := make([]airportRecord, len(airports))
	for i, a := range airports {
		records[i] = airportRecord{IATA: a.IATA, Seq: i, Lat: a.Latitude, Lon: a.Longitude}
	}
	return records
}

func monthlyLowRecords(lows []models.MonthlyLow) []monthlyLowRecord {
	records := make([]monthlyLowRecord, len(lows))
	for i, low := range lows {
		records[i] = newMonthlyLowRecord(low)
	}
	return records
}

const (
	insertAirport  = `INSERT INTO airports (iata, seq, lat, lon) VALUES (:iata, :seq, :lat, :lon)`
	insertStation  = `INSERT INTO stations (id, name, lat, lon) VALUES (:id, :name, :lat, :lon)`
	insertDistance = `INSERT INTO distances (airport, station_id, distance_mi) VALUES (:airport, :station_id, :distance_mi)`
	insertLow      = `INSERT INTO monthly_lows (station_id, jan, feb, mar, apr, may, jun, jul, aug, sep, oct, nov, dec)
		VALUES (:station_id, :jan, :feb, :mar, :apr, :may, :jun, :jul, :aug, :sep, :oct, :nov, :dec)`
)

// ReplaceTables truncates the four tables and inserts t in batches of
// batchSize rows per statement, all inside one transaction.
func (r *lookupRepository) ReplaceTables(ctx context.Context, t *lookup.Tables, batchSize int) error {
	timer := time.Now()
	defer func() {
		duration := time.Since(timer)
		r.metrics.DBQueryDuration.WithLabelValues("replace_tables").Observe(duration.Seconds())
		r.logger.Debug(ctx, "[REPO_REPLACE_TABLES] Table replacement finished", logging.Fields{
			"duration_ms": duration.Milliseconds(),
		})
	}()

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `TRUNCATE distances, monthly_lows, stations, airports`); err != nil {
		r.metrics.RecordDBError("truncate_error")
		return fmt.Errorf("failed to truncate lookup tables: %w", err)
	}

	if err := insertBatches(ctx, r, tx, "airports", insertAirport, airportRecords(t.Airports()), 4, batchSize); err != nil {
		return err
	}
	if err := insertBatches(ctx, r, tx, "stations", insertStation, t.Stations(), 4, batchSize); err != nil {
		return err
	}
	if err := insertBatches(ctx, r, tx, "distances", insertDistance, t.DistanceEntries(), 3, batchSize); err != nil {
		return err
	}
	if err := insertBatches(ctx, r, tx, "monthly_lows", insertLow, monthlyLowRecords(t.MonthlyLows()), 13, batchSize); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		r.metrics.RecordDBError("commit_error")
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// insertBatches runs a named multi-row insert over rows, batchSize rows at a time
func insertBatches[T any](ctx context.Context, r *lookupRepository, tx *sqlx.Tx, table, query string, rows []T, columns, batchSize int) error {
	for _, batch := range chunk(rows, effectiveBatchSize(batchSize, columns)) {
		if _, err := tx.NamedExecContext(ctx, query, batch); err != nil {
			r.metrics.RecordDBError("insert_error")
			return fmt.Errorf("failed to insert %s batch: %w", table, err)
		}
		r.metrics.IngestBatchSize.Observe(float64(len(batch)))
	}

	r.logger.Debug(ctx, "[REPO_BATCH_INSERT] Table rows inserted", logging.Fields{
		"table": table,
		"rows":  len(rows),
	})
	return nil
}

func effectiveBatchSize(batchSize, columns int) int {
	limit := maxBindParams / columns
	if batchSize <= 0 || batchSize > limit {
		return limit
	}
	return batchSize
}

func chunk[T any](rows []T, size int) [][]T {
	var out [][]T
	for len(rows) > size {
		out = append(out, rows[:size])
		rows = rows[size:]
	}
	if len(rows) > 0 {
		out = append(out, rows)
	}
	return out
}

// HealthCheck performs a repository health check
func (r *lookupRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}
