package lookup

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/parquet-go/parquet-go"

	"airport-weather-map/internal/models"
)

// monthlyLowParquet matches the pivot as written by pandas to_parquet: one
// nullable double per month.
type monthlyLowParquet struct {
	StationID string   `parquet:"GHCN_ID"`
	Jan       *float64 `parquet:"Jan,optional"`
	Feb       *float64 `parquet:"Feb,optional"`
	Mar       *float64 `parquet:"Mar,optional"`
	Apr       *float64 `parquet:"Apr,optional"`
	May       *float64 `parquet:"May,optional"`
	Jun       *float64 `parquet:"Jun,optional"`
	Jul       *float64 `parquet:"Jul,optional"`
	Aug       *float64 `parquet:"Aug,optional"`
	Sep       *float64 `parquet:"Sep,optional"`
	Oct       *float64 `parquet:"Oct,optional"`
	Nov       *float64 `parquet:"Nov,optional"`
	Dec       *float64 `parquet:"Dec,optional"`
}

func (p monthlyLowParquet) toRow() models.MonthlyLowRow {
	cell := func(v *float64) string {
		if v == nil {
			return ""
		}
		return strconv.FormatFloat(*v, 'f', -1, 64)
	}

	return models.MonthlyLowRow{
		StationID: p.StationID,
		Jan:       cell(p.Jan),
		Feb:       cell(p.Feb),
		Mar:       cell(p.Mar),
		Apr:       cell(p.Apr),
		May:       cell(p.May),
		Jun:       cell(p.Jun),
		Jul:       cell(p.Jul),
		Aug:       cell(p.Aug),
		Sep:       cell(p.Sep),
		Oct:       cell(p.Oct),
		Nov:       cell(p.Nov),
		Dec:       cell(p.Dec),
	}
}

func (s *FileSource) loadParquet() ([]models.Airport, []models.Station, []models.DistanceEntry, []models.MonthlyLow, error) {
	airports, err := readParquet[models.Airport](s.Path(AirportsFile))
	if err != nil {
		return nil, nil, nil, nil, err
	}

	stations, err := readParquet[models.Station](s.Path(StationsFile))
	if err != nil {
		return nil, nil, nil, nil, err
	}

	distances, err := readParquet[models.DistanceEntry](s.Path(DistancesFile))
	if err != nil {
		return nil, nil, nil, nil, err
	}

	lowRows, err := readParquet[monthlyLowParquet](s.Path(MonthlyLowsFile))
	if err != nil {
		return nil, nil, nil, nil, err
	}

	lows := make([]models.MonthlyLow, 0, len(lowRows))
	for _, p := range lowRows {
		row := p.toRow()
		low, err := row.ToMonthlyLow()
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("failed to parse %s: %w", s.Path(MonthlyLowsFile), err)
		}
		lows = append(lows, low)
	}

	return airports, stations, distances, lows, nil
}

func readParquet[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open table file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file %s: %w", path, err)
	}

	reader := parquet.NewGenericReader[T](pf)
	defer reader.Close()

	rows := make([]T, 0, reader.NumRows())
	buf := make([]T, 256)
	for {
		n, err := reader.Read(buf)
		rows = append(rows, buf[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read parquet rows from %s: %w", path, err)
		}
		if n == 0 {
			break
		}
	}

	return rows, nil
}

// ExportParquet writes a validated table set to dir as parquet files that a
// FileSource with FormatParquet reads back.
func ExportParquet(dir string, t *Tables) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create export dir: %w", err)
	}

	path := func(table string) string {
		return filepath.Join(dir, table+"."+FormatParquet)
	}

	if err := writeParquet(path(AirportsFile), t.Airports()); err != nil {
		return err
	}
	if err := writeParquet(path(StationsFile), t.Stations()); err != nil {
		return err
	}
	if err := writeParquet(path(DistancesFile), t.DistanceEntries()); err != nil {
		return err
	}

	lows := t.MonthlyLows()
	rows := make([]monthlyLowParquet, 0, len(lows))
	for _, l := range lows {
		rows = append(rows, monthlyLowParquet{
			StationID: l.StationID,
			Jan:       l.Lows[0],
			Feb:       l.Lows[1],
			Mar:       l.Lows[2],
			Apr:       l.Lows[3],
			May:       l.Lows[4],
			Jun:       l.Lows[5],
			Jul:       l.Lows[6],
			Aug:       l.Lows[7],
			Sep:       l.Lows[8],
			Oct:       l.Lows[9],
			Nov:       l.Lows[10],
			Dec:       l.Lows[11],
		})
	}
	return writeParquet(path(MonthlyLowsFile), rows)
}

func writeParquet[T any](path string, rows []T) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := parquet.Write(f, rows); err != nil {
		return fmt.Errorf("failed to write parquet %s: %w", path, err)
	}
	return f.Close()
}
