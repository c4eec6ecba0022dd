package chart

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *log.Logger {
	return log.NewWithOptions(&bytes.Buffer{}, log.Options{})
}

func exampleEntities() []Entity {
	return []Entity{
		{Symbol: "A", X: -100, Y: 50, Type: "PLANET", Owner: "COSMIC"},
		{Symbol: "B", X: 100, Y: -50, Type: "MOON", Owner: "UNITED"},
	}
}

func rgbaAt(img image.Image, x, y int) color.RGBA {
	return color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
}

func TestRender_CanvasSizeAndMarks(t *testing.T) {
	r := NewRenderer(DefaultSystemConfig(), quietLogger())
	r.Config.Scale = 1
	r.Config.Padding = 50

	layout, err := r.Layout(exampleEntities())
	require.NoError(t, err)

	img, tess, err := r.Render(layout, nil)
	require.NoError(t, err)
	require.NotNil(t, tess)

	assert.Equal(t, 300, img.Bounds().Dx())
	assert.Equal(t, 200, img.Bounds().Dy())

	mark := color.RGBA{255, 0, 0, 255}
	assert.Equal(t, mark, rgbaAt(img, 50, 150), "cross-hair mark at A")
	assert.Equal(t, mark, rgbaAt(img, 250, 50), "cross-hair mark at B")
}

func TestRender_CrispCellsUseOwnerColour(t *testing.T) {
	cfg := DefaultGalaxyConfig()
	cfg.Scale = 1
	cfg.Padding = 50
	cfg.AntiAlias = false
	cfg.DrawEdges = false
	cfg.DrawCrosshair = false
	r := NewRenderer(cfg, quietLogger())

	layout, err := r.Layout(exampleEntities())
	require.NoError(t, err)

	img, tess, err := r.Render(layout, nil)
	require.NoError(t, err)
	require.NotEmpty(t, tess.Cells)

	// Far corners belong to A (bottom-left) and B (top-right).
	assert.Equal(t, cfg.Factions.Resolve("COSMIC"), rgbaAt(img, 5, 195))
	assert.Equal(t, cfg.Factions.Resolve("UNITED"), rgbaAt(img, 295, 5))

	allowed := map[color.RGBA]bool{
		cfg.Factions.Resolve("COSMIC"): true,
		cfg.Factions.Resolve("UNITED"): true,
	}
	for _, cell := range tess.Cells {
		assert.True(t, allowed[cfg.Factions.Resolve(cell.Owner.Owner)])
	}
}

func TestRender_UnownedCellsUseFallback(t *testing.T) {
	cfg := DefaultGalaxyConfig()
	cfg.Scale = 1
	cfg.Padding = 50
	cfg.DrawEdges = false
	cfg.DrawCrosshair = false
	r := NewRenderer(cfg, quietLogger())

	entities := exampleEntities()
	entities[0].Owner = ""
	entities[1].Owner = "NOT_A_FACTION"
	layout, err := r.Layout(entities)
	require.NoError(t, err)

	img, _, err := r.Render(layout, nil)
	require.NoError(t, err)

	fallback := color.RGBA{0x33, 0x33, 0x33, 255}
	assert.Equal(t, fallback, rgbaAt(img, 5, 195))
	assert.Equal(t, fallback, rgbaAt(img, 295, 5))
}

func TestRender_TitleBand(t *testing.T) {
	r := NewRenderer(DefaultSystemConfig(), quietLogger())
	r.Config.Scale = 1
	r.Config.Padding = 50

	layout, err := r.Layout(exampleEntities())
	require.NoError(t, err)

	title := Title{Symbol: "X1-TEST", Type: "RED_STAR", WaypointCount: 2}
	img, _, err := r.Render(layout, &title)
	require.NoError(t, err)

	assert.Equal(t, titleBand, rgbaAt(img, 299, 1), "band spans the full width")
	assert.Equal(t, titleBand, rgbaAt(img, 0, 0))
}

func TestRender_SingleEntitySkipsCells(t *testing.T) {
	r := NewRenderer(DefaultSystemConfig(), quietLogger())

	layout, err := r.Layout([]Entity{{Symbol: "ONLY", Type: "PLANET"}})
	require.NoError(t, err)

	img, tess, err := r.Render(layout, nil)
	require.NoError(t, err)
	assert.Empty(t, tess.Cells)
	assert.NotNil(t, img)
}

func TestRender_CanvasTooLarge(t *testing.T) {
	cfg := DefaultGalaxyConfig()
	cfg.Scale = 1
	cfg.MaxDimension = 1000
	r := NewRenderer(cfg, quietLogger())

	layout, err := r.Layout([]Entity{{Symbol: "FAR", X: 5000}})
	require.NoError(t, err)

	img, _, err := r.Render(layout, nil)
	assert.Nil(t, img)

	var target *CanvasTooLargeError
	require.ErrorAs(t, err, &target)
	assert.Equal(t, 1000, target.Max)
	assert.Greater(t, target.Width, 1000)

	err = r.RenderSVG(&bytes.Buffer{}, layout)
	require.ErrorAs(t, err, &target)
}

func TestRender_DefaultLimit(t *testing.T) {
	r := NewRenderer(RenderConfig{Scope: ScopeGalaxy, Scale: 1}, quietLogger())

	layout, err := r.Layout([]Entity{{Symbol: "FAR", X: 20000}})
	require.NoError(t, err)

	_, _, err = r.Render(layout, nil)
	var target *CanvasTooLargeError
	require.ErrorAs(t, err, &target)
	assert.Equal(t, MaxCanvasDimension, target.Max)
}

func TestRender_NoEntities(t *testing.T) {
	r := NewRenderer(DefaultGalaxyConfig(), quietLogger())

	_, _, err := r.Render(&Layout{Scope: ScopeGalaxy}, nil)
	assert.ErrorIs(t, err, ErrNoEntities)

	_, _, err = r.Render(nil, nil)
	assert.ErrorIs(t, err, ErrNoEntities)
}

func TestRenderFile_GalaxyWritesSlice(t *testing.T) {
	dir := t.TempDir()

	cfg := DefaultGalaxyConfig()
	cfg.Scale = 1
	cfg.Padding = 50
	cfg.SliceSize = 100
	cfg.GeoJSON = true

	path, err := DrawGalaxy(exampleEntities(), dir, cfg, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, GalaxyFileName), path)

	full := decodePNG(t, path)
	assert.Equal(t, image.Rect(0, 0, 300, 200), full.Bounds())

	slice := decodePNG(t, filepath.Join(dir, SliceFileName))
	assert.Equal(t, image.Rect(0, 0, 100, 100), slice.Bounds())
	// Slice (0,0) is full-image (100,50).
	assert.Equal(t, rgbaAt(full, 100, 50), rgbaAt(slice, 0, 0))

	data, err := os.ReadFile(filepath.Join(dir, "galaxy.geojson"))
	require.NoError(t, err)
	fc, err := geojson.UnmarshalFeatureCollection(data)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(fc.Features), 2)
}

func TestRenderFile_SliceClippedToCanvas(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 30, 20))
	got := cropCenter(img, 2048)
	assert.Equal(t, image.Rect(0, 0, 30, 20), got.Bounds())
}

func TestDrawSystem(t *testing.T) {
	dir := t.TempDir()

	system := Entity{Symbol: "X1-TEST", X: 12, Y: -4, Type: "ORANGE_STAR"}
	waypoints := []Entity{
		{Symbol: "X1-TEST-A1", X: 0, Y: 0, Type: "PLANET", Owner: "COSMIC"},
		{Symbol: "X1-TEST-A2", X: 0, Y: 0, Type: "MOON", Owner: "COSMIC"},
		{Symbol: "X1-TEST-B7", X: 20, Y: -15, Type: "ORBITAL_STATION"},
		{Symbol: "X1-TEST-J9", X: -25, Y: 30, Type: "JUMP_GATE", Owner: "VOID"},
	}

	path, err := DrawSystem(system, waypoints, dir, DefaultSystemConfig(), quietLogger())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "X1-TEST.png"), path)

	img := decodePNG(t, path)
	assert.Greater(t, img.Bounds().Dx(), 0)

	_, err = os.Stat(filepath.Join(dir, SliceFileName))
	assert.True(t, os.IsNotExist(err), "system renders have no slice")
}

// inkNear reports whether any pixel within one pixel of (x, y) is visibly
// different from bg.
func inkNear(img image.Image, x, y float64, bg color.RGBA) bool {
	cx, cy := int(math.Floor(x)), int(math.Floor(y))
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			c := rgbaAt(img, cx+dx, cy+dy)
			d := max(absDiff(c.R, bg.R), absDiff(c.G, bg.G), absDiff(c.B, bg.B))
			if d > 8 {
				return true
			}
		}
	}
	return false
}

func absDiff(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}

func TestRender_OrbitCentredOnCanvas(t *testing.T) {
	cfg := DefaultSystemConfig()
	cfg.Scale = 1
	cfg.Padding = 60
	cfg.DrawLabels = false
	// Cells in the background colour leave only orbits and glyphs visible.
	cfg.Factions = ColorTable{Fallback: cfg.Background}
	r := NewRenderer(cfg, quietLogger())

	layout, err := r.Layout([]Entity{
		{Symbol: "X1-T-A1", X: 30, Y: 40, Type: "PLANET"},
		{Symbol: "X1-T-A2", X: 30, Y: 40, Type: "MOON"},
	})
	require.NoError(t, err)
	require.Equal(t, 180.0, layout.Width)
	require.Equal(t, 200.0, layout.Height)

	img, _, err := r.Render(layout, nil)
	require.NoError(t, err)

	bg := ColorTable{Fallback: cfg.Background}.Resolve("")
	center := layout.Center()
	assert.Equal(t, Point{X: 90, Y: 100}, center)

	primary := layout.Placements[0]
	radius := math.Hypot(primary.Orbit.X-center.X, primary.Orbit.Y-center.Y)
	require.InDelta(t, 50.0, radius, 1e-9)
	glyphAngle := math.Atan2(primary.Orbit.Y-center.Y, primary.Orbit.X-center.X) * 180 / math.Pi

	hits, samples := 0, 0
	for deg := 0.0; deg < 360; deg += 2 {
		if math.Abs(deg-glyphAngle) < 30 || (deg > 70 && deg < 100) {
			continue // glyphs
		}
		rad := deg * math.Pi / 180
		at := func(rr float64) (float64, float64) {
			return center.X + rr*math.Cos(rad), center.Y + rr*math.Sin(rad)
		}

		samples++
		x, y := at(radius)
		if inkNear(img, x, y, bg) {
			hits++
		}
		x, y = at(30)
		assert.False(t, inkNear(img, x, y, bg), "ink inside the orbit at %.0f°", deg)
		x, y = at(70)
		assert.False(t, inkNear(img, x, y, bg), "ink outside the orbit at %.0f°", deg)
	}
	// Dashes cover a little over half the circumference.
	assert.Greater(t, hits, samples*4/10, "orbit ink at %d of %d samples", hits, samples)
}

func TestRenderFile_MissingDirectory(t *testing.T) {
	r := NewRenderer(DefaultSystemConfig(), quietLogger())
	layout, err := r.Layout(exampleEntities())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "missing", "out.png")
	err = r.RenderFile(layout, nil, path)

	var target *IOWriteError
	require.ErrorAs(t, err, &target)
	assert.Equal(t, path, target.Path)
}

func TestRenderSVG(t *testing.T) {
	r := NewRenderer(DefaultSystemConfig(), quietLogger())
	layout, err := r.Layout([]Entity{
		{Symbol: "G", X: 10, Y: 10, Type: "JUMP_GATE"},
		{Symbol: "S", X: -10, Y: 5, Type: "ORBITAL_STATION"},
		{Symbol: "P", X: 3, Y: -12, Type: "PLANET"},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.RenderSVG(&buf, layout))

	assert.Contains(t, buf.String(), "<svg")
	assert.Contains(t, buf.String(), "path")
}

func TestExportGeoJSON(t *testing.T) {
	layout := quadLayout(t)
	tess, err := Tessellate(layout)
	require.NoError(t, err)

	data, err := ExportGeoJSON(layout, tess)
	require.NoError(t, err)

	fc, err := geojson.UnmarshalFeatureCollection(data)
	require.NoError(t, err)
	assert.Len(t, fc.Features, len(layout.Placements)+len(tess.Cells))

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "FeatureCollection", raw["type"])

	kinds := map[string]int{}
	for _, f := range fc.Features {
		kinds[f.Properties.MustString("kind")]++
	}
	assert.Equal(t, len(layout.Placements), kinds["entity"])
	assert.Equal(t, len(tess.Cells), kinds["cell"])
}

func TestLabelText(t *testing.T) {
	assert.Equal(t, "B7", labelText("X1-TEST-B7"))
	assert.Equal(t, "PLAIN", labelText("PLAIN"))
	assert.Equal(t, "TRAIL-", labelText("TRAIL-"))
}

func decodePNG(t *testing.T, path string) image.Image {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	img, err := png.Decode(f)
	require.NoError(t, err)
	return img
}
