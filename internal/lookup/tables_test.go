package lookup

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airport-weather-map/internal/models"
)

func low(id string, jan float64) models.MonthlyLow {
	l := models.MonthlyLow{StationID: id}
	l.Lows[0] = &jan
	return l
}

func fixtureRows() ([]models.Airport, []models.Station, []models.DistanceEntry, []models.MonthlyLow) {
	airports := []models.Airport{
		{IATA: "ORD", Latitude: 41.9786, Longitude: -87.9048},
		{IATA: "MDW", Latitude: 41.7868, Longitude: -87.7522},
	}
	stations := []models.Station{
		{ID: "S1", Name: "CHICAGO OHARE", Latitude: 41.995, Longitude: -87.9336},
		{ID: "S2", Name: "CHICAGO MIDWAY", Latitude: 41.7861, Longitude: -87.7522},
	}
	distances := []models.DistanceEntry{
		{AirportIATA: "ORD", StationID: "S1", DistanceMiles: 1.8},
		{AirportIATA: "ORD", StationID: "S2", DistanceMiles: 14.2},
		{AirportIATA: "MDW", StationID: "S1", DistanceMiles: 14.0},
		{AirportIATA: "MDW", StationID: "S2", DistanceMiles: 0.05},
	}
	lows := []models.MonthlyLow{low("S1", 16.2), low("S2", 18.1)}
	return airports, stations, distances, lows
}

func TestNewTables_Valid(t *testing.T) {
	tables, err := NewTables(fixtureRows())
	require.NoError(t, err)

	airports := tables.Airports()
	require.Len(t, airports, 2)
	assert.Equal(t, "ORD", airports[0].IATA, "row order is preserved")
	assert.Equal(t, "MDW", airports[1].IATA)

	ord, ok := tables.Airport("ORD")
	require.True(t, ok)
	assert.Equal(t, 41.9786, ord.Latitude)

	_, ok = tables.Airport("JFK")
	assert.False(t, ok)

	column, ok := tables.DistancesFor("MDW")
	require.True(t, ok)
	assert.Equal(t, map[string]float64{"S1": 14.0, "S2": 0.05}, column)

	column["S1"] = 999
	again, _ := tables.DistancesFor("MDW")
	assert.Equal(t, 14.0, again["S1"], "DistancesFor returns a copy")

	s, ok := tables.Station("S2")
	require.True(t, ok)
	assert.Equal(t, "CHICAGO MIDWAY", s.Name)

	l, ok := tables.MonthlyLow("S1")
	require.True(t, ok)
	jan, _ := l.Month(1)
	assert.Equal(t, 16.2, jan)

	assert.Equal(t, map[string]int{
		"airports":     2,
		"stations":     2,
		"distances":    4,
		"monthly_lows": 2,
	}, tables.Counts())

	entries := tables.DistanceEntries()
	require.Len(t, entries, 4)
	assert.Equal(t, models.DistanceEntry{AirportIATA: "ORD", StationID: "S1", DistanceMiles: 1.8}, entries[0])
	assert.Equal(t, "MDW", entries[2].AirportIATA)

	assert.Equal(t, "S1", tables.Stations()[0].ID)
	assert.Equal(t, "S2", tables.MonthlyLows()[1].StationID)
}

func TestNewTables_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(a *[]models.Airport, s *[]models.Station, d *[]models.DistanceEntry, l *[]models.MonthlyLow)
		field  string
	}{
		{
			name: "no airports",
			mutate: func(a *[]models.Airport, s *[]models.Station, d *[]models.DistanceEntry, l *[]models.MonthlyLow) {
				*a = nil
				*d = nil
			},
		},
		{
			name: "duplicate airport",
			mutate: func(a *[]models.Airport, s *[]models.Station, d *[]models.DistanceEntry, l *[]models.MonthlyLow) {
				*a = append(*a, models.Airport{IATA: "ORD", Latitude: 1, Longitude: 1})
			},
			field: "iata",
		},
		{
			name: "airport coordinates out of range",
			mutate: func(a *[]models.Airport, s *[]models.Station, d *[]models.DistanceEntry, l *[]models.MonthlyLow) {
				(*a)[0].Latitude = 95
			},
			field: "lat/lon",
		},
		{
			name: "station coordinates NaN",
			mutate: func(a *[]models.Airport, s *[]models.Station, d *[]models.DistanceEntry, l *[]models.MonthlyLow) {
				(*s)[0].Longitude = math.NaN()
			},
			field: "lat/lon",
		},
		{
			name: "distance to unknown station",
			mutate: func(a *[]models.Airport, s *[]models.Station, d *[]models.DistanceEntry, l *[]models.MonthlyLow) {
				*d = append(*d, models.DistanceEntry{AirportIATA: "ORD", StationID: "S9", DistanceMiles: 3})
			},
			field: "station_id",
		},
		{
			name: "distance for unknown airport",
			mutate: func(a *[]models.Airport, s *[]models.Station, d *[]models.DistanceEntry, l *[]models.MonthlyLow) {
				*d = append(*d, models.DistanceEntry{AirportIATA: "JFK", StationID: "S1", DistanceMiles: 3})
			},
			field: "airport",
		},
		{
			name: "negative distance",
			mutate: func(a *[]models.Airport, s *[]models.Station, d *[]models.DistanceEntry, l *[]models.MonthlyLow) {
				(*d)[0].DistanceMiles = -1
			},
			field: "distance_mi",
		},
		{
			name: "duplicate distance",
			mutate: func(a *[]models.Airport, s *[]models.Station, d *[]models.DistanceEntry, l *[]models.MonthlyLow) {
				*d = append(*d, (*d)[0])
			},
			field: "station_id",
		},
		{
			name: "airport without distance column",
			mutate: func(a *[]models.Airport, s *[]models.Station, d *[]models.DistanceEntry, l *[]models.MonthlyLow) {
				*a = append(*a, models.Airport{IATA: "JFK", Latitude: 40.6, Longitude: -73.8})
			},
			field: "airport",
		},
		{
			name: "station without monthly lows",
			mutate: func(a *[]models.Airport, s *[]models.Station, d *[]models.DistanceEntry, l *[]models.MonthlyLow) {
				*l = (*l)[:1]
			},
			field: "station_id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, s, d, l := fixtureRows()
			tt.mutate(&a, &s, &d, &l)

			tables, err := NewTables(a, s, d, l)
			require.Error(t, err)
			assert.Nil(t, tables)

			var errs models.ValidationErrors
			require.True(t, errors.As(err, &errs))
			require.NotEmpty(t, errs)
			if tt.field != "" {
				assert.Equal(t, tt.field, errs[0].Field)
			}
		})
	}
}

func TestNewTables_UnreferencedLowsIgnored(t *testing.T) {
	a, s, d, l := fixtureRows()
	l = append(l, low("S99", 1))

	tables, err := NewTables(a, s, d, l)
	require.NoError(t, err)

	_, ok := tables.MonthlyLow("S99")
	assert.True(t, ok)
}

func TestNewTables_TrimsKeys(t *testing.T) {
	a, s, d, l := fixtureRows()
	a[0].IATA = " ORD"
	s[0].ID = "S1 "
	d[0].AirportIATA = "ORD "
	d[0].StationID = " S1"
	l[0].StationID = "S1 "

	tables, err := NewTables(a, s, d, l)
	require.NoError(t, err)

	got, ok := tables.MonthlyLow("S1")
	require.True(t, ok)
	assert.Equal(t, "S1", got.StationID)
	require.NotNil(t, got.Lows[0])
	assert.Equal(t, 16.2, *got.Lows[0])

	column, ok := tables.DistancesFor("ORD")
	require.True(t, ok)
	assert.Equal(t, 1.8, column["S1"])
}
