package mapdoc

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"math"
	"regexp"

	"airport-weather-map/internal/models"
	"airport-weather-map/pkg/logging"
	"airport-weather-map/pkg/metrics"
)

// Options controls the look of rendered artifacts
type Options struct {
	TileURL          string
	TileAttribution  string
	Zoom             int
	ClimatologyLabel string
	MiniMap          bool
}

// DefaultOptions mirrors the original map: zoom 10, OpenStreetMap tiles,
// 2016-2020 climatology and a minimap inset.
func DefaultOptions() Options {
	return Options{
		TileURL:          "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
		TileAttribution:  `&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors`,
		Zoom:             10,
		ClimatologyLabel: "Monthly Low Temps 2016-2020",
		MiniMap:          true,
	}
}

// Renderer turns a nearest-station result into a self-contained HTML map
type Renderer struct {
	opts    Options
	page    *template.Template
	popup   *template.Template
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewRenderer creates a renderer. Zero-valued options fall back to DefaultOptions.
func NewRenderer(opts Options, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *Renderer {
	defaults := DefaultOptions()
	if opts.TileURL == "" {
		opts.TileURL = defaults.TileURL
		if opts.TileAttribution == "" {
			opts.TileAttribution = defaults.TileAttribution
		}
	}
	if opts.Zoom <= 0 {
		opts.Zoom = defaults.Zoom
	}
	if opts.ClimatologyLabel == "" {
		opts.ClimatologyLabel = defaults.ClimatologyLabel
	}

	return &Renderer{
		opts:    opts,
		page:    template.Must(template.New("page").Parse(pageTemplate)),
		popup:   template.Must(template.New("popup").Parse(popupTemplate)),
		logger:  logger,
		metrics: metricsCollector,
	}
}

var elementIDSanitizer = regexp.MustCompile(`[^A-Za-z0-9_]`)

// Build assembles the artifact document. Element ids derive from the airport
// code only, so rendering unchanged input twice yields identical bytes.
func (r *Renderer) Build(top *models.TopStations) (*Document, error) {
	a := top.Airport
	if !finite(a.Latitude, a.Longitude) {
		return nil, fmt.Errorf("airport %s has no usable coordinates", a.IATA)
	}

	doc := &Document{
		ElementID: "map_" + elementIDSanitizer.ReplaceAllString(a.IATA, "_"),
		Title:     fmt.Sprintf("%s - nearest NOAA stations", a.IATA),
		Center:    [2]float64{a.Latitude, a.Longitude},
		Zoom:      r.opts.Zoom,
		Tiles: TileLayer{
			URL:         r.opts.TileURL,
			Attribution: r.opts.TileAttribution,
			MaxZoom:     18,
		},
		Markers: make([]Marker, 0, len(top.Stations)+1),
	}

	doc.Markers = append(doc.Markers, Marker{
		Kind:  KindAirport,
		ID:    a.IATA,
		Lat:   a.Latitude,
		Lon:   a.Longitude,
		Icon:  "plane",
		Color: "blue",
		Popup: template.HTMLEscapeString(a.IATA),
	})

	for _, ns := range top.Stations {
		s := ns.Station
		if !finite(s.Latitude, s.Longitude) {
			return nil, fmt.Errorf("station %s has no usable coordinates", s.ID)
		}

		popup, err := r.renderPopup(ns)
		if err != nil {
			return nil, fmt.Errorf("failed to render popup for %s: %w", s.ID, err)
		}

		doc.Markers = append(doc.Markers, Marker{
			Kind:  KindStation,
			ID:    s.ID,
			Lat:   s.Latitude,
			Lon:   s.Longitude,
			Icon:  "cloud",
			Color: "green",
			Popup: popup,
		})
	}

	if r.opts.MiniMap {
		doc.MiniMap = &MiniMap{Width: 150, Height: 150, ZoomOffset: -5}
	}

	return doc, nil
}

// Render writes the artifact for one airport to w
func (r *Renderer) Render(ctx context.Context, w io.Writer, top *models.TopStations) error {
	timer := r.metrics.NewTimer(r.metrics.RenderDuration)

	doc, err := r.Build(top)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := r.page.Execute(&buf, doc); err != nil {
		return fmt.Errorf("failed to execute map template: %w", err)
	}

	n, err := w.Write(buf.Bytes())
	if err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}

	duration := timer.ObserveDuration()
	r.metrics.ArtifactsRendered.Inc()
	r.metrics.ArtifactBytes.Observe(float64(n))

	r.logger.Debug(ctx, "[RENDER_ARTIFACT] Map artifact rendered", logging.Fields{
		"airport":     top.Airport.IATA,
		"markers":     len(doc.Markers),
		"bytes":       n,
		"duration_ms": duration.Milliseconds(),
	})

	return nil
}

type popupData struct {
	Label    string
	Station  models.Station
	Distance string
	Months   [12]string
	Lows     [12]string
}

func (r *Renderer) renderPopup(ns models.NearbyStation) (string, error) {
	data := popupData{
		Label:    r.opts.ClimatologyLabel,
		Station:  ns.Station,
		Distance: FormatDistance(ns.DistanceMiles),
		Months:   models.MonthNames,
	}
	for i, v := range ns.MonthlyLow.Lows {
		data.Lows[i] = FormatTemperature(v)
	}

	var buf bytes.Buffer
	if err := r.popup.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

const popupTemplate = `<style>
h3 {text-align: center;}
p {text-align: center;}
</style>
<h3>{{.Station.ID}}</h3>
<hr>
<p>Name: <b>{{.Station.Name}}</b>
<br>Distance: <b>{{.Distance}} mi</b></p>
<hr>
<p>
{{.Label}}:<table border="1" class="dataframe">
<thead><tr style="text-align: justify-all;">{{range .Months}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody><tr>{{range .Lows}}<td>{{.}}</td>{{end}}</tr></tbody>
</table>
</p>`

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0, maximum-scale=1.0, user-scalable=no">
    <title>{{.Title}}</title>
    <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/leaflet@1.9.4/dist/leaflet.css">
    <link rel="stylesheet" href="https://cdnjs.cloudflare.com/ajax/libs/font-awesome/4.7.0/css/font-awesome.min.css">
    <link rel="stylesheet" href="https://cdnjs.cloudflare.com/ajax/libs/Leaflet.awesome-markers/2.0.2/leaflet.awesome-markers.css">
    <link rel="stylesheet" href="https://cdnjs.cloudflare.com/ajax/libs/leaflet-minimap/3.6.1/Control.MiniMap.css">
    <script src="https://cdn.jsdelivr.net/npm/leaflet@1.9.4/dist/leaflet.js"></script>
    <script src="https://cdnjs.cloudflare.com/ajax/libs/Leaflet.awesome-markers/2.0.2/leaflet.awesome-markers.js"></script>
    <script src="https://cdnjs.cloudflare.com/ajax/libs/leaflet-minimap/3.6.1/Control.MiniMap.js"></script>
    <style>
        html, body { width: 100%; height: 100%; margin: 0; padding: 0; }
        .map { position: absolute; top: 0; bottom: 0; right: 0; left: 0; }
    </style>
</head>
<body>
    <div class="map" id="{{.ElementID}}"></div>
    <script id="map-spec" type="application/json">{{.}}</script>
    <script>
        (function () {
            var spec = JSON.parse(document.getElementById("map-spec").textContent);
            var map = L.map(spec.element_id, { center: spec.center, zoom: spec.zoom });
            L.control.scale().addTo(map);
            L.tileLayer(spec.tiles.url, { attribution: spec.tiles.attribution, maxZoom: spec.tiles.max_zoom }).addTo(map);
            spec.markers.forEach(function (m) {
                var icon = L.AwesomeMarkers.icon({ icon: m.icon, prefix: "fa", markerColor: m.color, iconColor: "white" });
                L.marker([m.lat, m.lon], { icon: icon }).addTo(map).bindPopup(m.popup, { maxWidth: 1000 });
            });
            if (spec.minimap) {
                var overview = L.tileLayer(spec.tiles.url, { attribution: spec.tiles.attribution });
                new L.Control.MiniMap(overview, {
                    position: "bottomright",
                    width: spec.minimap.width,
                    height: spec.minimap.height,
                    zoomLevelOffset: spec.minimap.zoom_offset
                }).addTo(map);
            }
        })();
    </script>
</body>
</html>
`
