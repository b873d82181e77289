package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airport-weather-map/internal/lookup"
)

type stubSource struct {
	tables *lookup.Tables
	err    error
}

func (s *stubSource) Load(ctx context.Context) (*lookup.Tables, error) {
	return s.tables, s.err
}

type recordingStore struct {
	calls     int
	batchSize int
	tables    *lookup.Tables
	err       error
}

func (s *recordingStore) ReplaceTables(ctx context.Context, t *lookup.Tables, batchSize int) error {
	s.calls++
	s.batchSize = batchSize
	s.tables = t
	return s.err
}

func TestIngestionService_Ingest(t *testing.T) {
	logger, m := testDeps()
	tables := chicagoTables(t)
	store := &recordingStore{}

	svc := NewIngestionService(&stubSource{tables: tables}, store, logger, m)
	result, err := svc.Ingest(context.Background(), IngestOptions{BatchSize: 250})
	require.NoError(t, err)

	assert.True(t, result.Stored)
	assert.Equal(t, 1, store.calls)
	assert.Equal(t, 250, store.batchSize)
	assert.Same(t, tables, store.tables)
	assert.Equal(t, tables.Counts(), result.Rows)
}

func TestIngestionService_Ingest_DryRunWithSnapshot(t *testing.T) {
	logger, m := testDeps()
	tables := chicagoTables(t)
	dir := t.TempDir()

	svc := NewIngestionService(&stubSource{tables: tables}, nil, logger, m)
	result, err := svc.Ingest(context.Background(), IngestOptions{DryRun: true, SnapshotDir: dir})
	require.NoError(t, err)

	assert.False(t, result.Stored)
	assert.Equal(t, dir, result.SnapshotDir)

	src, err := lookup.NewFileSource(dir, lookup.FormatParquet, logger, m)
	require.NoError(t, err)
	loaded, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, tables.DistanceEntries(), loaded.DistanceEntries())
}

func TestIngestionService_Ingest_Errors(t *testing.T) {
	logger, m := testDeps()
	loadErr := errors.New("disk on fire")
	storeErr := errors.New("connection reset")

	_, err := NewIngestionService(&stubSource{err: loadErr}, &recordingStore{}, logger, m).
		Ingest(context.Background(), IngestOptions{})
	assert.ErrorIs(t, err, loadErr)

	store := &recordingStore{err: storeErr}
	_, err = NewIngestionService(&stubSource{tables: chicagoTables(t)}, store, logger, m).
		Ingest(context.Background(), IngestOptions{})
	assert.ErrorIs(t, err, storeErr)

	_, err = NewIngestionService(&stubSource{tables: chicagoTables(t)}, nil, logger, m).
		Ingest(context.Background(), IngestOptions{})
	assert.Error(t, err, "writing without a store")
}
