package services

import (
	"context"
	"fmt"
	"sort"

	"airport-weather-map/internal/lookup"
	"airport-weather-map/internal/models"
	"airport-weather-map/pkg/logging"
	"airport-weather-map/pkg/metrics"
)

// DefaultStationCount is how many stations are shown per airport
const DefaultStationCount = 5

// SelectorService picks the nearest stations for an airport from the
// precomputed distance matrix.
type SelectorService struct {
	tables  *lookup.Tables
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewSelectorService creates a new selector over a loaded table set
func NewSelectorService(tables *lookup.Tables, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *SelectorService {
	return &SelectorService{
		tables:  tables,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// NearestStations returns the k stations closest to the airport, ascending by
// distance with ties broken by station id. When fewer than k stations have a
// distance to the airport, all of them are returned. k <= 0 selects
// DefaultStationCount.
func (s *SelectorService) NearestStations(ctx context.Context, iata string, k int) (*models.TopStations, error) {
	if k <= 0 {
		k = DefaultStationCount
	}

	column, ok := s.tables.DistancesFor(iata)
	if !ok {
		s.metrics.RecordSelection("not_found")
		return nil, &NotFoundError{Resource: "distance_column", ID: iata}
	}

	airport, ok := s.tables.Airport(iata)
	if !ok {
		s.metrics.RecordSelection("not_found")
		return nil, &NotFoundError{Resource: "airport", ID: iata}
	}

	ids := make([]string, 0, len(column))
	for id := range column {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		di, dj := column[ids[i]], column[ids[j]]
		if di != dj {
			return di < dj
		}
		return ids[i] < ids[j]
	})
	if len(ids) > k {
		ids = ids[:k]
	}

	result := &models.TopStations{
		Airport:  airport,
		Stations: make([]models.NearbyStation, 0, len(ids)),
	}
	for _, id := range ids {
		station, ok := s.tables.Station(id)
		if !ok {
			return nil, fmt.Errorf("station %s referenced by %s distances is missing", id, iata)
		}
		low, ok := s.tables.MonthlyLow(id)
		if !ok {
			return nil, fmt.Errorf("station %s has no monthly lows", id)
		}

		result.Stations = append(result.Stations, models.NearbyStation{
			Station:       station,
			DistanceMiles: column[id],
			MonthlyLow:    low,
		})
	}

	s.metrics.RecordSelection("ok")
	s.logger.Debug(ctx, "[SELECT_NEAREST] Nearest stations selected", logging.Fields{
		"airport":  iata,
		"k":        k,
		"stations": result.StationIDs(),
	})

	return result, nil
}

// Airports lists the airports known to the selector in table row order
func (s *SelectorService) Airports() []models.Airport {
	return s.tables.Airports()
}

// NotFoundError represents a lookup of an unknown key
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func (e *NotFoundError) IsTransient() bool {
	return false
}
