package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MonthNames are the pivot column headers of the monthly-low table, January first.
var MonthNames = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// Airport is one row of the airport metadata table
type Airport struct {
	IATA      string  `json:"iata" db:"iata" csv:"iata" parquet:"iata"`
	Latitude  float64 `json:"lat" db:"lat" csv:"lat" parquet:"lat"`
	Longitude float64 `json:"lon" db:"lon" csv:"lon" parquet:"lon"`
}

// Station is one row of the NOAA station metadata table
type Station struct {
	ID        string  `json:"id" db:"id" csv:"id" parquet:"id"`
	Name      string  `json:"name" db:"name" csv:"name" parquet:"name"`
	Latitude  float64 `json:"lat" db:"lat" csv:"lat" parquet:"lat"`
	Longitude float64 `json:"lon" db:"lon" csv:"lon" parquet:"lon"`
}

// DistanceEntry is one cell of the airport x station distance matrix in long form
type DistanceEntry struct {
	AirportIATA   string  `json:"airport" db:"airport" csv:"airport" parquet:"airport"`
	StationID     string  `json:"station_id" db:"station_id" csv:"station_id" parquet:"station_id"`
	DistanceMiles float64 `json:"distance_mi" db:"distance_mi" csv:"distance_mi" parquet:"distance_mi"`
}

// MonthlyLow holds the climatological monthly low temperatures for one station.
// A nil month is a gap in the source pivot.
type MonthlyLow struct {
	StationID string       `json:"station_id"`
	Lows      [12]*float64 `json:"lows"`
}

// Month returns the low for month m (1-12) and whether it is present
func (m MonthlyLow) Month(month int) (float64, bool) {
	if month < 1 || month > 12 || m.Lows[month-1] == nil {
		return math.NaN(), false
	}
	return *m.Lows[month-1], true
}

// NearbyStation is one station selected for an airport, joined with its distance
// and monthly lows.
type NearbyStation struct {
	Station       Station    `json:"station"`
	DistanceMiles float64    `json:"distance_mi"`
	MonthlyLow    MonthlyLow `json:"monthly_low"`
}

// TopStations is the ordered nearest-station result for a single airport
type TopStations struct {
	Airport  Airport         `json:"airport"`
	Stations []NearbyStation `json:"stations"`
}

// StationIDs returns the selected station ids in result order
func (t *TopStations) StationIDs() []string {
	ids := make([]string, len(t.Stations))
	for i, s := range t.Stations {
		ids[i] = s.Station.ID
	}
	return ids
}

// MonthlyLowRow is the flat row shape of the monthly-low pivot as stored in
// CSV and Postgres. Values are kept as text so gaps ("", "NaN") survive
// decoding and are resolved by ToMonthlyLow.
type MonthlyLowRow struct {
	StationID string `db:"station_id" csv:"GHCN_ID"`
	Jan       string `db:"jan" csv:"Jan"`
	Feb       string `db:"feb" csv:"Feb"`
	Mar       string `db:"mar" csv:"Mar"`
	Apr       string `db:"apr" csv:"Apr"`
	May       string `db:"may" csv:"May"`
	Jun       string `db:"jun" csv:"Jun"`
	Jul       string `db:"jul" csv:"Jul"`
	Aug       string `db:"aug" csv:"Aug"`
	Sep       string `db:"sep" csv:"Sep"`
	Oct       string `db:"oct" csv:"Oct"`
	Nov       string `db:"nov" csv:"Nov"`
	Dec       string `db:"dec" csv:"Dec"`
}

func (r *MonthlyLowRow) values() [12]string {
	return [12]string{r.Jan, r.Feb, r.Mar, r.Apr, r.May, r.Jun, r.Jul, r.Aug, r.Sep, r.Oct, r.Nov, r.Dec}
}

// ToMonthlyLow parses the twelve month columns. Empty, "NaN" and "NULL" cells
// become gaps; anything else must parse as a float.
func (r *MonthlyLowRow) ToMonthlyLow() (MonthlyLow, error) {
	low := MonthlyLow{StationID: strings.TrimSpace(r.StationID)}
	if low.StationID == "" {
		return MonthlyLow{}, &ValidationError{
			Field:   "station_id",
			Value:   r.StationID,
			Message: "monthly low row has empty station id",
		}
	}

	for i, raw := range r.values() {
		raw = strings.TrimSpace(raw)
		switch strings.ToUpper(raw) {
		case "", "NAN", "NULL":
			continue
		}

		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
			return MonthlyLow{}, &ValidationError{
				Field:   MonthNames[i],
				Value:   raw,
				Message: fmt.Sprintf("invalid %s low for station %s", MonthNames[i], low.StationID),
			}
		}
		low.Lows[i] = &v
	}

	return low, nil
}

// FromMonthlyLow flattens a MonthlyLow back into its row form
func FromMonthlyLow(low MonthlyLow) MonthlyLowRow {
	var cells [12]string
	for i, v := range low.Lows {
		if v != nil {
			cells[i] = strconv.FormatFloat(*v, 'f', -1, 64)
		}
	}

	return MonthlyLowRow{
		StationID: low.StationID,
		Jan:       cells[0],
		Feb:       cells[1],
		Mar:       cells[2],
		Apr:       cells[3],
		May:       cells[4],
		Jun:       cells[5],
		Jul:       cells[6],
		Aug:       cells[7],
		Sep:       cells[8],
		Oct:       cells[9],
		Nov:       cells[10],
		Dec:       cells[11],
	}
}

// ValidationError represents a lookup table validation error
type ValidationError struct {
	Table   string
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Table != "" {
		return e.Table + ": " + e.Message
	}
	return e.Message
}

// IsTransient returns false as validation errors are permanent
func (e *ValidationError) IsTransient() bool {
	return false
}

// ValidationErrors aggregates every problem found while validating a table set
type ValidationErrors []*ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}

	msgs := make([]string, 0, len(e))
	for i, err := range e {
		if i == 10 {
			msgs = append(msgs, fmt.Sprintf("... and %d more", len(e)-10))
			break
		}
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("%d validation error(s): %s", len(e), strings.Join(msgs, "; "))
}

// IsTransient returns false as validation errors are permanent
func (e ValidationErrors) IsTransient() bool {
	return false
}
