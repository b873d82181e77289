package lookup

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/gocarina/gocsv"
	"github.com/klauspost/pgzip"

	"airport-weather-map/internal/models"
)

var csvReaderOnce sync.Once

// tableCSVReader tolerates the ragged rows and padded cells pandas exports
// tend to produce.
func tableCSVReader(in io.Reader) gocsv.CSVReader {
	r := csv.NewReader(in)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	return r
}

func (s *FileSource) loadCSV() ([]models.Airport, []models.Station, []models.DistanceEntry, []models.MonthlyLow, error) {
	csvReaderOnce.Do(func() { gocsv.SetCSVReader(tableCSVReader) })

	var airportRows []*models.Airport
	if err := s.unmarshalCSV(AirportsFile, &airportRows); err != nil {
		return nil, nil, nil, nil, err
	}

	var stationRows []*models.Station
	if err := s.unmarshalCSV(StationsFile, &stationRows); err != nil {
		return nil, nil, nil, nil, err
	}

	data, err := s.readTable(DistancesFile)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	distances, err := parseDistancesCSV(data)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to parse %s: %w", s.Path(DistancesFile), err)
	}

	var lowRows []*models.MonthlyLowRow
	if err := s.unmarshalCSV(MonthlyLowsFile, &lowRows); err != nil {
		return nil, nil, nil, nil, err
	}

	airports := make([]models.Airport, 0, len(airportRows))
	for _, a := range airportRows {
		airports = append(airports, *a)
	}

	stations := make([]models.Station, 0, len(stationRows))
	for _, st := range stationRows {
		stations = append(stations, *st)
	}

	lows := make([]models.MonthlyLow, 0, len(lowRows))
	for _, row := range lowRows {
		low, err := row.ToMonthlyLow()
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("failed to parse %s: %w", s.Path(MonthlyLowsFile), err)
		}
		lows = append(lows, low)
	}

	return airports, stations, distances, lows, nil
}

func (s *FileSource) unmarshalCSV(table string, out interface{}) error {
	data, err := s.readTable(table)
	if err != nil {
		return err
	}

	if err := gocsv.Unmarshal(bytes.NewReader(data), out); err != nil {
		return fmt.Errorf("failed to parse %s: %w", s.Path(table), err)
	}
	return nil
}

// readTable reads a whole table file, decompressing .csv.gz with pgzip.
// The tables are small enough to hold in memory.
func (s *FileSource) readTable(table string) ([]byte, error) {
	path := s.Path(table)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open table file: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if s.format == FormatCSVGzip {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip stream %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// parseDistancesCSV accepts either the long form (airport,station_id,distance_mi)
// or the wide matrix the distance job writes: one row per station, the station
// id in the first column and one column per IATA code.
func parseDistancesCSV(data []byte) ([]models.DistanceEntry, error) {
	header, err := csv.NewReader(bytes.NewReader(data)).Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	if isLongDistanceHeader(header) {
		var rows []*models.DistanceEntry
		if err := gocsv.Unmarshal(bytes.NewReader(data), &rows); err != nil {
			return nil, err
		}
		out := make([]models.DistanceEntry, 0, len(rows))
		for _, row := range rows {
			out = append(out, *row)
		}
		return out, nil
	}

	return parseWideDistances(data)
}

func isLongDistanceHeader(header []string) bool {
	seen := make(map[string]bool, len(header))
	for _, h := range header {
		seen[strings.TrimSpace(h)] = true
	}
	return seen["airport"] && seen["station_id"] && seen["distance_mi"]
}

func parseWideDistances(data []byte) ([]models.DistanceEntry, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, err
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("distance matrix needs a station column and at least one airport column")
	}

	codes := make([]string, len(header))
	for i, h := range header {
		codes[i] = strings.TrimSpace(h)
	}

	var out []models.DistanceEntry
	line := 1
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(record) != len(codes) {
			return nil, fmt.Errorf("line %d: expected %d fields, got %d", line, len(codes), len(record))
		}

		stationID := strings.TrimSpace(record[0])
		for i := 1; i < len(record); i++ {
			d, err := strconv.ParseFloat(strings.TrimSpace(record[i]), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid distance for %s/%s: %w", line, codes[i], stationID, err)
			}
			out = append(out, models.DistanceEntry{
				AirportIATA:   codes[i],
				StationID:     stationID,
				DistanceMiles: d,
			})
		}
	}

	return out, nil
}
