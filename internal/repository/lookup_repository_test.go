package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airport-weather-map/internal/models"
)

func TestChunk(t *testing.T) {
	tests := []struct {
		name  string
		rows  []int
		size  int
		sizes []int
	}{
		{"empty", nil, 3, nil},
		{"exact", []int{1, 2, 3}, 3, []int{3}},
		{"remainder", []int{1, 2, 3, 4, 5, 6, 7}, 3, []int{3, 3, 1}},
		{"size one", []int{1, 2}, 1, []int{1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batches := chunk(tt.rows, tt.size)

			var sizes []int
			var flat []int
			for _, b := range batches {
				sizes = append(sizes, len(b))
				flat = append(flat, b...)
			}
			assert.Equal(t, tt.sizes, sizes)
			assert.Equal(t, tt.rows, flat)
		})
	}
}

func TestEffectiveBatchSize(t *testing.T) {
	assert.Equal(t, 500, effectiveBatchSize(500, 13))
	assert.Equal(t, maxBindParams/13, effectiveBatchSize(0, 13))
	assert.Equal(t, maxBindParams/13, effectiveBatchSize(100000, 13))
	assert.Equal(t, maxBindParams/3, effectiveBatchSize(-1, 3))
}

func TestAirportRecords_KeepRowOrder(t *testing.T) {
	records := airportRecords([]models.Airport{
		{IATA: "ORD", Latitude: 41.9786, Longitude: -87.9048},
		{IATA: "MDW", Latitude: 41.7868, Longitude: -87.7522},
	})

	require.Len(t, records, 2)
	assert.Equal(t, airportRecord{IATA: "ORD", Seq: 0, Lat: 41.9786, Lon: -87.9048}, records[0])
	assert.Equal(t, 1, records[1].Seq)
}

func TestNewMonthlyLowRecord(t *testing.T) {
	jan, dec := 16.2, 21.4
	low := models.MonthlyLow{StationID: "USW00094846"}
	low.Lows[0] = &jan
	low.Lows[11] = &dec

	rec := newMonthlyLowRecord(low)
	assert.Equal(t, "USW00094846", rec.StationID)
	require.NotNil(t, rec.Jan)
	assert.Equal(t, 16.2, *rec.Jan)
	assert.Nil(t, rec.Feb, "gaps stay NULL")
	require.NotNil(t, rec.Dec)
	assert.Equal(t, 21.4, *rec.Dec)
}
