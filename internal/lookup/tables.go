// Package lookup holds the read-only lookup tables the selector and renderer
// work from, and the sources that load them.
package lookup

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"airport-weather-map/internal/models"
)

// Tables is the validated, read-only view of the four precomputed datasets.
// It is built once at startup and never mutated afterwards, so it can be shared
// freely between goroutines.
type Tables struct {
	airports     []models.Airport
	airportIndex map[string]int
	stations     map[string]models.Station
	distances    map[string]map[string]float64
	lows         map[string]models.MonthlyLow
}

// NewTables indexes and validates the raw table rows. Every problem found is
// reported at once in a models.ValidationErrors; no partial Tables is returned.
func NewTables(
	airports []models.Airport,
	stations []models.Station,
	distances []models.DistanceEntry,
	lows []models.MonthlyLow,
) (*Tables, error) {
	var errs models.ValidationErrors
	fail := func(table, field, value, format string, args ...interface{}) {
		errs = append(errs, &models.ValidationError{
			Table:   table,
			Field:   field,
			Value:   value,
			Message: fmt.Sprintf(format, args...),
		})
	}

	t := &Tables{
		airports:     make([]models.Airport, 0, len(airports)),
		airportIndex: make(map[string]int, len(airports)),
		stations:     make(map[string]models.Station, len(stations)),
		distances:    make(map[string]map[string]float64, len(airports)),
		lows:         make(map[string]models.MonthlyLow, len(lows)),
	}

	if len(airports) == 0 {
		fail("airports", "", "", "table is empty")
	}
	for _, a := range airports {
		a.IATA = strings.TrimSpace(a.IATA)
		switch {
		case a.IATA == "":
			fail("airports", "iata", "", "empty iata code")
			continue
		case t.hasAirport(a.IATA):
			fail("airports", "iata", a.IATA, "duplicate iata code %s", a.IATA)
			continue
		}
		if !validCoordinate(a.Latitude, a.Longitude) {
			fail("airports", "lat/lon", a.IATA, "invalid coordinates for %s: %v,%v", a.IATA, a.Latitude, a.Longitude)
		}
		t.airportIndex[a.IATA] = len(t.airports)
		t.airports = append(t.airports, a)
	}

	for _, s := range stations {
		s.ID = strings.TrimSpace(s.ID)
		switch {
		case s.ID == "":
			fail("stations", "id", "", "empty station id")
			continue
		case t.hasStation(s.ID):
			fail("stations", "id", s.ID, "duplicate station id %s", s.ID)
			continue
		}
		if !validCoordinate(s.Latitude, s.Longitude) {
			fail("stations", "lat/lon", s.ID, "invalid coordinates for %s: %v,%v", s.ID, s.Latitude, s.Longitude)
		}
		t.stations[s.ID] = s
	}

	for _, l := range lows {
		l.StationID = strings.TrimSpace(l.StationID)
		if _, dup := t.lows[l.StationID]; dup {
			fail("monthly_lows", "station_id", l.StationID, "duplicate monthly low row for %s", l.StationID)
			continue
		}
		t.lows[l.StationID] = l
	}

	referenced := make(map[string]bool)
	for _, d := range distances {
		iata := strings.TrimSpace(d.AirportIATA)
		id := strings.TrimSpace(d.StationID)

		if !t.hasAirport(iata) {
			fail("distances", "airport", iata, "distance references unknown airport %s", iata)
			continue
		}
		if !t.hasStation(id) {
			fail("distances", "station_id", id, "distance references unknown station %s", id)
			continue
		}
		if math.IsNaN(d.DistanceMiles) || math.IsInf(d.DistanceMiles, 0) || d.DistanceMiles < 0 {
			fail("distances", "distance_mi", iata+"/"+id, "invalid distance %v for %s/%s", d.DistanceMiles, iata, id)
			continue
		}

		column, ok := t.distances[iata]
		if !ok {
			column = make(map[string]float64)
			t.distances[iata] = column
		}
		if _, dup := column[id]; dup {
			fail("distances", "station_id", iata+"/"+id, "duplicate distance for %s/%s", iata, id)
			continue
		}
		column[id] = d.DistanceMiles
		referenced[id] = true
	}

	for _, a := range t.airports {
		if len(t.distances[a.IATA]) == 0 {
			fail("distances", "airport", a.IATA, "no distance column for airport %s", a.IATA)
		}
	}

	ids := make([]string, 0, len(referenced))
	for id := range referenced {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if _, ok := t.lows[id]; !ok {
			fail("monthly_lows", "station_id", id, "no monthly low row for station %s", id)
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return t, nil
}

func validCoordinate(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

func (t *Tables) hasAirport(iata string) bool {
	_, ok := t.airportIndex[iata]
	return ok
}

func (t *Tables) hasStation(id string) bool {
	_, ok := t.stations[id]
	return ok
}

// Airports returns the airports in source row order
func (t *Tables) Airports() []models.Airport {
	out := make([]models.Airport, len(t.airports))
	copy(out, t.airports)
	return out
}

// Airport looks up an airport by IATA code
func (t *Tables) Airport(iata string) (models.Airport, bool) {
	i, ok := t.airportIndex[iata]
	if !ok {
		return models.Airport{}, false
	}
	return t.airports[i], true
}

// Station looks up a station by id
func (t *Tables) Station(id string) (models.Station, bool) {
	s, ok := t.stations[id]
	return s, ok
}

// Stations returns all stations ordered by id
func (t *Tables) Stations() []models.Station {
	out := make([]models.Station, 0, len(t.stations))
	for _, s := range t.stations {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// DistancesFor returns a copy of the distance column for one airport
func (t *Tables) DistancesFor(iata string) (map[string]float64, bool) {
	column, ok := t.distances[iata]
	if !ok {
		return nil, false
	}
	out := make(map[string]float64, len(column))
	for id, d := range column {
		out[id] = d
	}
	return out, true
}

// DistanceEntries flattens the matrix back to long form, ordered by airport row
// then station id.
func (t *Tables) DistanceEntries() []models.DistanceEntry {
	var out []models.DistanceEntry
	for _, a := range t.airports {
		column := t.distances[a.IATA]
		ids := make([]string, 0, len(column))
		for id := range column {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			out = append(out, models.DistanceEntry{AirportIATA: a.IATA, StationID: id, DistanceMiles: column[id]})
		}
	}
	return out
}

// MonthlyLow looks up the monthly lows for a station
func (t *Tables) MonthlyLow(stationID string) (models.MonthlyLow, bool) {
	l, ok := t.lows[stationID]
	return l, ok
}

// MonthlyLows returns all monthly-low rows ordered by station id
func (t *Tables) MonthlyLows() []models.MonthlyLow {
	out := make([]models.MonthlyLow, 0, len(t.lows))
	for _, l := range t.lows {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StationID < out[j].StationID })
	return out
}

// Counts reports row counts per table, keyed by table name
func (t *Tables) Counts() map[string]int {
	distances := 0
	for _, column := range t.distances {
		distances += len(column)
	}
	return map[string]int{
		"airports":     len(t.airports),
		"stations":     len(t.stations),
		"distances":    distances,
		"monthly_lows": len(t.lows),
	}
}
