package handlers

import (
	"bytes"
	"html/template"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"airport-weather-map/pkg/logging"
	"airport-weather-map/pkg/metrics"
)

// DefaultAirport is the code shown when the page is first opened
const DefaultAirport = "ORD"

// ArtifactPath maps a user-entered airport code to the relative URL of its
// pre-rendered map. The value is substituted verbatim: unknown or malformed
// codes simply produce a path with no file behind it.
func ArtifactPath(value, ext string) string {
	return "assets/" + value + "." + ext
}

// ViewerHandler serves the airport picker page and the rendered artifacts
type ViewerHandler struct {
	outDir  string
	ext     string
	page    *template.Template
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewViewerHandler creates the viewer for artifacts stored in outDir
func NewViewerHandler(outDir, ext string, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *ViewerHandler {
	return &ViewerHandler{
		outDir:  outDir,
		ext:     ext,
		page:    template.Must(template.New("viewer").Parse(viewerTemplate)),
		logger:  logger,
		metrics: metricsCollector,
	}
}

// RegisterRoutes registers the page and the static artifact routes
func (h *ViewerHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/", h.Index).Methods(http.MethodGet)
	router.PathPrefix("/assets/").Handler(
		http.StripPrefix("/assets/", http.FileServer(http.Dir(h.outDir))),
	).Methods(http.MethodGet)
}

type viewerData struct {
	Value string
	Src   string
	Ext   string
}

// Index handles GET /. The optional iata query parameter preselects a code.
func (h *ViewerHandler) Index(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()
	defer func() {
		h.metrics.APIRequestDuration.WithLabelValues("/").Observe(time.Since(startTime).Seconds())
	}()

	value := r.URL.Query().Get("iata")
	if value == "" {
		value = DefaultAirport
	}

	var buf bytes.Buffer
	err := h.page.Execute(&buf, viewerData{
		Value: value,
		Src:   ArtifactPath(value, h.ext),
		Ext:   h.ext,
	})
	if err != nil {
		h.logger.Error(r.Context(), "[VIEWER_ERROR] Failed to render viewer page", logging.Fields{}, err)
		h.metrics.RecordAPIError("internal_error", "/")
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAPIRequest("/", http.MethodGet, "200")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

const viewerTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Mapping US Airports Monthly Low Temps with NOAA Stations</title>
    <style>
        body { font-family: sans-serif; margin: 0; padding: 0; }
        h2, .note, .picker { text-align: center; }
        .picker { display: flex; justify-content: center; gap: 0.5em; margin-top: 1em; }
        iframe { height: 800px; width: 90%; margin: 20px 5% 0 5%; border: 1px solid #ccc; }
    </style>
</head>
<body>
    <h2>Mapping US Airports Monthly Low Temps with NOAA Stations</h2>
    <p class="note">Each map shows an airport and its five nearest NOAA weather stations with their 2016-2020 monthly low temperatures.</p>
    <p class="note">Data: airport codes from
        <a href="https://www.iata.org/en/publications/directories/code-search/">IATA</a>,
        station climatology from
        <a href="https://www.ncei.noaa.gov/products/land-based-station/global-historical-climatology-network-daily">NOAA GHCN-Daily</a>.</p>
    <form class="picker" method="get" action="/">
        <label for="textinput">Input 3-Letter IATA Code (ALL CAPS - US airports only):</label>
        <input id="textinput" name="iata" type="text" value="{{.Value}}">
    </form>
    <iframe id="map-frame" src="{{.Src}}"></iframe>
    <script>
        (function () {
            var ext = {{.Ext}};
            var input = document.getElementById("textinput");
            var frame = document.getElementById("map-frame");
            input.addEventListener("input", function () {
                frame.src = "assets/" + input.value + "." + ext;
            });
        })();
    </script>
</body>
</html>
`
