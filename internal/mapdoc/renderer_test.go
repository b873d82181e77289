package mapdoc

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airport-weather-map/internal/models"
	"airport-weather-map/pkg/logging"
	"airport-weather-map/pkg/metrics"
)

func newTestRenderer(opts Options) *Renderer {
	logger := logging.NewStructuredLogger("mapdoc-test", "test", logging.DebugLevel)
	logger.SetOutput(io.Discard)
	return NewRenderer(opts, logger, metrics.NewCollectorWithRegistry("test", prometheus.NewRegistry()))
}

func ptr(v float64) *float64 { return &v }

func nearby(id, name string, lat, lon, dist float64) models.NearbyStation {
	low := models.MonthlyLow{StationID: id}
	for i := range low.Lows {
		low.Lows[i] = ptr(float64(10 + i))
	}
	return models.NearbyStation{
		Station:       models.Station{ID: id, Name: name, Latitude: lat, Longitude: lon},
		DistanceMiles: dist,
		MonthlyLow:    low,
	}
}

func ordTopStations() *models.TopStations {
	return &models.TopStations{
		Airport: models.Airport{IATA: "ORD", Latitude: 41.9786, Longitude: -87.9048},
		Stations: []models.NearbyStation{
			nearby("S1", "CHICAGO OHARE", 41.995, -87.9336, 1.834),
			nearby("S2", "ELK GROVE", 42.01, -87.97, 3.2),
			nearby("S3", "PARK RIDGE", 42.03, -87.84, 5.0),
			nearby("S4", "DES PLAINES", 42.05, -87.90, 7.777),
			nearby("S5", "ITASCA", 41.97, -88.02, 14.0),
		},
	}
}

// extractDocument pulls the embedded map-spec JSON back out of an artifact
func extractDocument(t *testing.T, html string) Document {
	t.Helper()

	const open = `<script id="map-spec" type="application/json">`
	start := strings.Index(html, open)
	require.NotEqual(t, -1, start, "artifact has no map-spec block")
	rest := html[start+len(open):]
	end := strings.Index(rest, "</script>")
	require.NotEqual(t, -1, end)

	var doc Document
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(rest[:end])), &doc))
	return doc
}

func TestRenderer_Render_ORD(t *testing.T) {
	r := newTestRenderer(DefaultOptions())
	top := ordTopStations()

	var buf bytes.Buffer
	require.NoError(t, r.Render(context.Background(), &buf, top))

	html := buf.String()
	assert.True(t, strings.HasPrefix(html, "<!DOCTYPE html>"))
	assert.Contains(t, html, `id="map_ORD"`)

	doc := extractDocument(t, html)
	assert.Equal(t, "map_ORD", doc.ElementID)
	assert.Equal(t, [2]float64{41.9786, -87.9048}, doc.Center)
	assert.Equal(t, 10, doc.Zoom)
	require.NotNil(t, doc.MiniMap)

	require.Len(t, doc.Markers, 6)

	airport := doc.Markers[0]
	assert.Equal(t, KindAirport, airport.Kind)
	assert.Equal(t, "ORD", airport.ID)
	assert.Equal(t, 41.9786, airport.Lat)
	assert.Equal(t, -87.9048, airport.Lon)
	assert.Equal(t, "plane", airport.Icon)
	assert.Equal(t, "blue", airport.Color)
	assert.Equal(t, "ORD", airport.Popup)

	for i, m := range doc.Markers[1:] {
		want := top.Stations[i]
		assert.Equal(t, KindStation, m.Kind)
		assert.Equal(t, want.Station.ID, m.ID)
		assert.Equal(t, want.Station.Latitude, m.Lat)
		assert.Equal(t, want.Station.Longitude, m.Lon)
		assert.Equal(t, "cloud", m.Icon)
		assert.Equal(t, "green", m.Color)
		assert.Contains(t, m.Popup, "<h3>"+want.Station.ID+"</h3>")
		assert.Contains(t, m.Popup, want.Station.Name)
		assert.Contains(t, m.Popup, "Monthly Low Temps 2016-2020:")
		assert.Contains(t, m.Popup, "<th>Jan</th>")
		assert.Contains(t, m.Popup, "<td>21.0</td>")
	}

	assert.Contains(t, doc.Markers[1].Popup, "Distance: <b>1.83 mi</b>")
	assert.Contains(t, doc.Markers[4].Popup, "Distance: <b>7.78 mi</b>")
	assert.Contains(t, doc.Markers[5].Popup, "Distance: <b>14.0 mi</b>")
}

func TestRenderer_Render_Idempotent(t *testing.T) {
	r := newTestRenderer(DefaultOptions())

	var first, second bytes.Buffer
	require.NoError(t, r.Render(context.Background(), &first, ordTopStations()))
	require.NoError(t, r.Render(context.Background(), &second, ordTopStations()))

	assert.Equal(t, first.Bytes(), second.Bytes())
}

func TestRenderer_Render_EscapesStationText(t *testing.T) {
	r := newTestRenderer(DefaultOptions())
	top := ordTopStations()
	top.Stations[0].Station.Name = `<script>alert("x")</script>`

	var buf bytes.Buffer
	require.NoError(t, r.Render(context.Background(), &buf, top))

	assert.NotContains(t, buf.String(), `<script>alert`)

	doc := extractDocument(t, buf.String())
	assert.Contains(t, doc.Markers[1].Popup, "&lt;script&gt;")
}

func TestRenderer_Render_MissingMonths(t *testing.T) {
	r := newTestRenderer(DefaultOptions())
	top := ordTopStations()
	top.Stations[2].MonthlyLow.Lows[3] = nil

	var buf bytes.Buffer
	require.NoError(t, r.Render(context.Background(), &buf, top))

	doc := extractDocument(t, buf.String())
	assert.Contains(t, doc.Markers[3].Popup, "<td>NaN</td>")
	assert.NotContains(t, doc.Markers[2].Popup, "NaN")
}

func TestRenderer_Render_BadCoordinates(t *testing.T) {
	r := newTestRenderer(DefaultOptions())

	top := ordTopStations()
	top.Airport.Latitude = math.NaN()
	var buf bytes.Buffer
	assert.Error(t, r.Render(context.Background(), &buf, top))
	assert.Zero(t, buf.Len(), "nothing is written on failure")

	top = ordTopStations()
	top.Stations[4].Station.Longitude = math.Inf(1)
	assert.Error(t, r.Render(context.Background(), &buf, top))
	assert.Zero(t, buf.Len())
}

func TestRenderer_Options(t *testing.T) {
	r := newTestRenderer(Options{
		TileURL:          "https://tiles.example/{z}/{x}/{y}.png",
		TileAttribution:  "example",
		Zoom:             7,
		ClimatologyLabel: "Monthly Low Temps 1991-2020",
	})

	doc, err := r.Build(ordTopStations())
	require.NoError(t, err)

	assert.Equal(t, "https://tiles.example/{z}/{x}/{y}.png", doc.Tiles.URL)
	assert.Equal(t, "example", doc.Tiles.Attribution)
	assert.Equal(t, 7, doc.Zoom)
	assert.Nil(t, doc.MiniMap)
	assert.Contains(t, doc.Markers[1].Popup, "Monthly Low Temps 1991-2020:")
}

func TestRenderer_Build_SanitizesElementID(t *testing.T) {
	r := newTestRenderer(DefaultOptions())
	top := ordTopStations()
	top.Airport.IATA = `O"D`

	doc, err := r.Build(top)
	require.NoError(t, err)
	assert.Equal(t, "map_O_D", doc.ElementID)
	assert.Equal(t, "O&#34;D", doc.Markers[0].Popup)
}

func TestFormatDistance(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{14.0, "14.0"},
		{1.834, "1.83"},
		{0.004, "0.0"},
		{123.456, "123.46"},
		{2.5, "2.5"},
		{2.675, "2.67"},
		{0.125, "0.12"},
		{12.125, "12.12"},
		{0.375, "0.38"},
		{1.005, "1.0"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDistance(tt.in))
		})
	}
}

func TestRoundDistance(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{2.675, 2.67},
		{0.125, 0.12},
		{12.125, 12.12},
		{7.775, 7.78},
		{1.834, 1.83},
		{14.0, 14.0},
	}

	for _, tt := range tests {
		t.Run(strconv.FormatFloat(tt.in, 'f', -1, 64), func(t *testing.T) {
			assert.Equal(t, tt.want, RoundDistance(tt.in))
		})
	}

	assert.True(t, math.IsNaN(RoundDistance(math.NaN())))
}

func TestFormatTemperature(t *testing.T) {
	assert.Equal(t, "NaN", FormatTemperature(nil))
	assert.Equal(t, "NaN", FormatTemperature(ptr(math.NaN())))
	assert.Equal(t, "16.2", FormatTemperature(ptr(16.2)))
	assert.Equal(t, "-3.0", FormatTemperature(ptr(-3)))
}
