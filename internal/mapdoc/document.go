// Package mapdoc renders the static Leaflet map artifact for one airport and
// its nearest weather stations.
package mapdoc

import (
	"math"
	"strconv"
	"strings"
)

// Marker kinds
const (
	KindAirport = "airport"
	KindStation = "station"
)

// Document is the data embedded in a rendered artifact. The page script reads
// it back from the map-spec JSON block and builds the Leaflet map from it.
type Document struct {
	ElementID string     `json:"element_id"`
	Title     string     `json:"title"`
	Center    [2]float64 `json:"center"`
	Zoom      int        `json:"zoom"`
	Tiles     TileLayer  `json:"tiles"`
	Markers   []Marker   `json:"markers"`
	MiniMap   *MiniMap   `json:"minimap,omitempty"`
}

// TileLayer is the base map layer
type TileLayer struct {
	URL         string `json:"url"`
	Attribution string `json:"attribution"`
	MaxZoom     int    `json:"max_zoom"`
}

// Marker is one pin on the map. Popup is an HTML fragment.
type Marker struct {
	Kind  string  `json:"kind"`
	ID    string  `json:"id"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Icon  string  `json:"icon"`
	Color string  `json:"color"`
	Popup string  `json:"popup"`
}

// MiniMap is the overview inset in the map corner
type MiniMap struct {
	Width      int `json:"width"`
	Height     int `json:"height"`
	ZoomOffset int `json:"zoom_offset"`
}

// RoundDistance rounds a distance in miles to two decimals. Rounding is done
// on the exact binary value with halves to even, so 2.675 gives 2.67.
func RoundDistance(miles float64) float64 {
	if math.IsNaN(miles) || math.IsInf(miles, 0) {
		return miles
	}
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(miles, 'f', 2, 64), 64)
	if err != nil {
		return miles
	}
	return rounded
}

// FormatDistance renders a rounded distance the way the climatology notebooks
// print floats: shortest form, always with a fractional part ("14.0", "1.83").
func FormatDistance(miles float64) string {
	return formatFloat(RoundDistance(miles))
}

// FormatTemperature renders one monthly low; gaps print as NaN
func FormatTemperature(v *float64) string {
	if v == nil || math.IsNaN(*v) {
		return "NaN"
	}
	return formatFloat(*v)
}

func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
