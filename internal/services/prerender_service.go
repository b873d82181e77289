package services

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"airport-weather-map/internal/mapdoc"
	"airport-weather-map/pkg/logging"
	"airport-weather-map/pkg/metrics"
)

// DefaultArtifactExt is the extension of rendered map files
const DefaultArtifactExt = "html"

// PrerenderService writes one map artifact per airport
type PrerenderService struct {
	selector *SelectorService
	renderer *mapdoc.Renderer
	ext      string
	topK     int
	logger   *logging.StructuredLogger
	metrics  *metrics.Collector
}

// PrerenderResult contains batch statistics
type PrerenderResult struct {
	Airports int
	Rendered int
	Bytes    int
	Paths    []string
	Duration time.Duration
}

// NewPrerenderService creates a batch driver. An empty ext selects
// DefaultArtifactExt and topK <= 0 selects DefaultStationCount.
func NewPrerenderService(selector *SelectorService, renderer *mapdoc.Renderer, ext string, topK int, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *PrerenderService {
	if ext == "" {
		ext = DefaultArtifactExt
	}
	if topK <= 0 {
		topK = DefaultStationCount
	}
	return &PrerenderService{
		selector: selector,
		renderer: renderer,
		ext:      strings.TrimPrefix(ext, "."),
		topK:     topK,
		logger:   logger,
		metrics:  metricsCollector,
	}
}

// ArtifactFile returns the artifact path for an airport code inside outDir
func (s *PrerenderService) ArtifactFile(outDir, iata string) string {
	return filepath.Join(outDir, iata+"."+s.ext)
}

// RenderAll renders every airport, in table row order, into outDir. The
// first failure stops the run and names the airport.
func (s *PrerenderService) RenderAll(ctx context.Context, outDir string) (*PrerenderResult, error) {
	timer := s.metrics.NewTimer(s.metrics.PrerenderDuration)

	airports := s.selector.Airports()
	result := &PrerenderResult{
		Airports: len(airports),
		Paths:    make([]string, 0, len(airports)),
	}

	log := s.logger.WithFields(logging.Fields{
		"output_dir": outDir,
		"top_k":      s.topK,
	})

	log.Info(ctx, "[PRERENDER_START] Rendering map artifacts", logging.Fields{
		"airports": len(airports),
		"stage":    "INITIALIZATION",
	})

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		s.metrics.RecordPrerenderError("write")
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	for _, a := range airports {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("prerender cancelled after %d of %d airports: %w", result.Rendered, result.Airports, err)
		}

		path, n, err := s.renderAirport(logging.WithAirport(ctx, a.IATA), outDir, a.IATA)
		if err != nil {
			log.Error(ctx, "[PRERENDER_ERROR] Artifact rendering failed", logging.Fields{
				"airport":  a.IATA,
				"rendered": result.Rendered,
				"stage":    "RENDER",
			}, err)
			return nil, fmt.Errorf("airport %s: %w", a.IATA, err)
		}

		result.Rendered++
		result.Bytes += n
		result.Paths = append(result.Paths, path)
	}

	result.Duration = timer.ObserveDuration()

	log.Info(ctx, "[PRERENDER_COMPLETE] Map artifacts rendered", logging.Fields{
		"airports":         result.Airports,
		"rendered":         result.Rendered,
		"bytes":            result.Bytes,
		"duration_seconds": result.Duration.Seconds(),
		"stage":            "COMPLETE",
	})

	return result, nil
}

// RenderOne renders a single airport into outDir and returns the file path
func (s *PrerenderService) RenderOne(ctx context.Context, outDir, iata string) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		s.metrics.RecordPrerenderError("write")
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path, _, err := s.renderAirport(logging.WithAirport(ctx, iata), outDir, iata)
	if err != nil {
		return "", fmt.Errorf("airport %s: %w", iata, err)
	}
	return path, nil
}

// renderAirport selects and renders fully in memory before opening the file,
// so a failure leaves any existing artifact untouched.
func (s *PrerenderService) renderAirport(ctx context.Context, outDir, iata string) (string, int, error) {
	if iata == "" || strings.ContainsAny(iata, `/\`) || iata == "." || iata == ".." {
		s.metrics.RecordPrerenderError("select")
		return "", 0, fmt.Errorf("airport code %q is not usable as a file name", iata)
	}

	top, err := s.selector.NearestStations(ctx, iata, s.topK)
	if err != nil {
		s.metrics.RecordPrerenderError("select")
		return "", 0, err
	}

	var buf bytes.Buffer
	if err := s.renderer.Render(ctx, &buf, top); err != nil {
		s.metrics.RecordPrerenderError("render")
		return "", 0, err
	}

	path := s.ArtifactFile(outDir, iata)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		s.metrics.RecordPrerenderError("write")
		return "", 0, fmt.Errorf("failed to write artifact: %w", err)
	}

	return path, buf.Len(), nil
}
