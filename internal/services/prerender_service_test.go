package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airport-weather-map/internal/mapdoc"
)

func newTestPrerender(t *testing.T, ext string) *PrerenderService {
	logger, m := testDeps()
	sel := NewSelectorService(chicagoTables(t), logger, m)
	renderer := mapdoc.NewRenderer(mapdoc.DefaultOptions(), logger, m)
	return NewPrerenderService(sel, renderer, ext, 0, logger, m)
}

func TestPrerenderService_RenderAll(t *testing.T) {
	svc := newTestPrerender(t, "")
	outDir := filepath.Join(t.TempDir(), "assets")

	result, err := svc.RenderAll(context.Background(), outDir)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Airports)
	assert.Equal(t, 2, result.Rendered)
	assert.Equal(t, []string{
		filepath.Join(outDir, "ORD.html"),
		filepath.Join(outDir, "MDW.html"),
	}, result.Paths)

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	ord, err := os.ReadFile(filepath.Join(outDir, "ORD.html"))
	require.NoError(t, err)
	assert.Contains(t, string(ord), `id="map_ORD"`)
	assert.Contains(t, string(ord), "STATION S5")
	assert.NotContains(t, string(ord), "STATION S6", "only the five nearest are shown")
}

func TestPrerenderService_RenderAll_Idempotent(t *testing.T) {
	svc := newTestPrerender(t, "html")
	outDir := t.TempDir()

	_, err := svc.RenderAll(context.Background(), outDir)
	require.NoError(t, err)
	first, err := os.ReadFile(filepath.Join(outDir, "MDW.html"))
	require.NoError(t, err)

	_, err = svc.RenderAll(context.Background(), outDir)
	require.NoError(t, err)
	second, err := os.ReadFile(filepath.Join(outDir, "MDW.html"))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestPrerenderService_RenderOne(t *testing.T) {
	svc := newTestPrerender(t, ".htm")
	outDir := t.TempDir()

	path, err := svc.RenderOne(context.Background(), outDir, "MDW")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(outDir, "MDW.htm"), path)
	assert.FileExists(t, path)
}

func TestPrerenderService_RenderOne_UnknownWritesNothing(t *testing.T) {
	svc := newTestPrerender(t, "")
	outDir := t.TempDir()

	existing := filepath.Join(outDir, "XXX.html")
	require.NoError(t, os.WriteFile(existing, []byte("previous artifact"), 0o644))

	_, err := svc.RenderOne(context.Background(), outDir, "XXX")
	require.Error(t, err)

	var nf *NotFoundError
	assert.True(t, errors.As(err, &nf))
	assert.Contains(t, err.Error(), "XXX")

	data, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "previous artifact", string(data), "existing file is left untouched")

	_, err = svc.RenderOne(context.Background(), outDir, "JFK")
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(outDir, "JFK.html"))
}

func TestPrerenderService_RenderOne_RejectsPathCodes(t *testing.T) {
	svc := newTestPrerender(t, "")
	outDir := t.TempDir()

	for _, code := range []string{"", "..", "../ORD", `a\b`} {
		_, err := svc.RenderOne(context.Background(), outDir, code)
		assert.Error(t, err, code)
	}
}

func TestPrerenderService_RenderAll_Cancelled(t *testing.T) {
	svc := newTestPrerender(t, "")
	outDir := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.RenderAll(ctx, outDir)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.NoFileExists(t, filepath.Join(outDir, "ORD.html"))
}
