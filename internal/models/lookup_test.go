package models

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthlyLowRow_ToMonthlyLow(t *testing.T) {
	tests := []struct {
		name        string
		row         MonthlyLowRow
		wantErr     bool
		checkValues func(*testing.T, MonthlyLow)
	}{
		{
			name: "all months present",
			row: MonthlyLowRow{
				StationID: "USW00094846",
				Jan:       "16.2", Feb: "19.8", Mar: "28.9", Apr: "38.5",
				May: "48.1", Jun: "58.3", Jul: "64.6", Aug: "63.5",
				Sep: "55.7", Oct: "43.8", Nov: "32.1", Dec: "21.4",
			},
			checkValues: func(t *testing.T, low MonthlyLow) {
				assert.Equal(t, "USW00094846", low.StationID)
				jan, ok := low.Month(1)
				require.True(t, ok)
				assert.Equal(t, 16.2, jan)
				dec, ok := low.Month(12)
				require.True(t, ok)
				assert.Equal(t, 21.4, dec)
			},
		},
		{
			name: "gaps are kept as nil",
			row: MonthlyLowRow{
				StationID: " USC00111577 ",
				Jan:       "", Feb: "NaN", Mar: "null", Apr: "-3.5",
			},
			checkValues: func(t *testing.T, low MonthlyLow) {
				assert.Equal(t, "USC00111577", low.StationID)
				assert.Nil(t, low.Lows[0])
				assert.Nil(t, low.Lows[1])
				assert.Nil(t, low.Lows[2])
				require.NotNil(t, low.Lows[3])
				assert.Equal(t, -3.5, *low.Lows[3])
				v, ok := low.Month(1)
				assert.False(t, ok)
				assert.True(t, math.IsNaN(v))
			},
		},
		{
			name:    "empty station id",
			row:     MonthlyLowRow{Jan: "1"},
			wantErr: true,
		},
		{
			name:    "garbage value",
			row:     MonthlyLowRow{StationID: "S1", Jul: "warm"},
			wantErr: true,
		},
		{
			name:    "infinite value",
			row:     MonthlyLowRow{StationID: "S1", Jul: "+Inf"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			low, err := tt.row.ToMonthlyLow()

			if tt.wantErr {
				require.Error(t, err)
				var vErr *ValidationError
				assert.True(t, errors.As(err, &vErr))
				return
			}

			require.NoError(t, err)
			if tt.checkValues != nil {
				tt.checkValues(t, low)
			}
		})
	}
}

func TestFromMonthlyLow_RoundTrip(t *testing.T) {
	v := 12.25
	low := MonthlyLow{StationID: "S1"}
	low.Lows[4] = &v

	row := FromMonthlyLow(low)
	assert.Equal(t, "12.25", row.May)
	assert.Equal(t, "", row.Jan)

	back, err := row.ToMonthlyLow()
	require.NoError(t, err)
	assert.Equal(t, low, back)
}

func TestMonthlyLow_MonthOutOfRange(t *testing.T) {
	var low MonthlyLow
	_, ok := low.Month(0)
	assert.False(t, ok)
	_, ok = low.Month(13)
	assert.False(t, ok)
}

func TestTopStations_StationIDs(t *testing.T) {
	top := TopStations{
		Stations: []NearbyStation{
			{Station: Station{ID: "S2"}},
			{Station: Station{ID: "S1"}},
		},
	}
	assert.Equal(t, []string{"S2", "S1"}, top.StationIDs())
}

func TestValidationErrors(t *testing.T) {
	single := &ValidationError{Table: "airports", Message: "duplicate iata ORD"}
	assert.Equal(t, "airports: duplicate iata ORD", single.Error())
	assert.False(t, single.IsTransient())

	var errs ValidationErrors
	for i := 0; i < 12; i++ {
		errs = append(errs, &ValidationError{Message: "bad"})
	}
	msg := errs.Error()
	assert.True(t, strings.HasPrefix(msg, "12 validation error(s)"))
	assert.Contains(t, msg, "... and 2 more")
	assert.False(t, errs.IsTransient())
}
