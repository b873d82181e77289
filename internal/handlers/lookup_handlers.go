package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"airport-weather-map/internal/models"
	"airport-weather-map/internal/services"
	"airport-weather-map/pkg/logging"
	"airport-weather-map/pkg/metrics"
)

// maxStationCount caps the k query parameter
const maxStationCount = 100

// Selector is the lookup the JSON API needs
type Selector interface {
	NearestStations(ctx context.Context, iata string, k int) (*models.TopStations, error)
	Airports() []models.Airport
}

// LookupHandler serves the airport and nearest-station JSON API
type LookupHandler struct {
	selector Selector
	ext      string
	logger   *logging.StructuredLogger
	metrics  *metrics.Collector
}

// NewLookupHandler creates a new lookup handler. ext is the artifact
// extension reported in artifact_path.
func NewLookupHandler(selector Selector, ext string, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *LookupHandler {
	return &LookupHandler{
		selector: selector,
		ext:      ext,
		logger:   logger,
		metrics:  metricsCollector,
	}
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// ListResponse wraps a list with its length
type ListResponse struct {
	Data  interface{} `json:"data"`
	Total int         `json:"total"`
}

// NearestResponse is the JSON form of a nearest-station lookup
type NearestResponse struct {
	Airport      models.Airport          `json:"airport"`
	Stations     []NearestStationPayload `json:"stations"`
	ArtifactPath string                  `json:"artifact_path"`
}

// NearestStationPayload is one station of a NearestResponse
type NearestStationPayload struct {
	models.Station
	DistanceMiles float64             `json:"distance_mi"`
	MonthlyLows   map[string]*float64 `json:"monthly_lows"`
}

// RegisterRoutes registers the JSON API routes
func (h *LookupHandler) RegisterRoutes(router *mux.Router) {
	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/airports", h.ListAirports).Methods(http.MethodGet)
	api.HandleFunc("/airports/{iata}/nearest", h.NearestStations).Methods(http.MethodGet)
}

// ListAirports handles GET /api/airports
func (h *LookupHandler) ListAirports(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()
	defer func() {
		h.metrics.APIRequestDuration.WithLabelValues("/api/airports").Observe(time.Since(startTime).Seconds())
	}()

	airports := h.selector.Airports()

	h.metrics.RecordAPIRequest("/api/airports", http.MethodGet, "200")
	h.sendJSON(w, ListResponse{Data: airports, Total: len(airports)}, http.StatusOK)
}

// NearestStations handles GET /api/airports/{iata}/nearest?k=
func (h *LookupHandler) NearestStations(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/airports/{iata}/nearest"

	ctx := r.Context()
	startTime := time.Now()
	defer func() {
		h.metrics.APIRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	iata := mux.Vars(r)["iata"]
	ctx = logging.WithAirport(ctx, iata)

	k := services.DefaultStationCount
	if raw := r.URL.Query().Get("k"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 || v > maxStationCount {
			h.metrics.RecordAPIError("bad_request", endpoint)
			h.sendError(w, r, "invalid k, expected integer between 1 and 100", http.StatusBadRequest)
			return
		}
		k = v
	}

	top, err := h.selector.NearestStations(ctx, iata, k)
	if err != nil {
		var nf *services.NotFoundError
		if errors.As(err, &nf) {
			h.metrics.RecordAPIError("not_found", endpoint)
			h.sendError(w, r, err.Error(), http.StatusNotFound)
			return
		}

		h.logger.Error(ctx, "[API_NEAREST_ERROR] Failed to select nearest stations", logging.Fields{
			"k": k,
		}, err)
		h.metrics.RecordAPIError("internal_error", endpoint)
		h.sendError(w, r, "failed to select nearest stations", http.StatusInternalServerError)
		return
	}

	response := NearestResponse{
		Airport:      top.Airport,
		Stations:     make([]NearestStationPayload, 0, len(top.Stations)),
		ArtifactPath: ArtifactPath(top.Airport.IATA, h.ext),
	}
	for _, ns := range top.Stations {
		lows := make(map[string]*float64, len(models.MonthNames))
		for i, name := range models.MonthNames {
			lows[name] = ns.MonthlyLow.Lows[i]
		}
		response.Stations = append(response.Stations, NearestStationPayload{
			Station:       ns.Station,
			DistanceMiles: ns.DistanceMiles,
			MonthlyLows:   lows,
		})
	}

	h.metrics.RecordAPIRequest(endpoint, http.MethodGet, "200")
	h.sendJSON(w, response, http.StatusOK)
}

// sendJSON sends a JSON response
func (h *LookupHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	sendJSON(w, data, statusCode)
}

// sendError sends an error response
func (h *LookupHandler) sendError(w http.ResponseWriter, r *http.Request, message string, statusCode int) {
	endpoint := r.URL.Path
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			endpoint = tpl
		}
	}
	h.metrics.RecordAPIRequest(endpoint, r.Method, strconv.Itoa(statusCode))
	sendJSON(w, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}, statusCode)
}

func sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}
