package chart

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
)

// MaxCanvasDimension is the default per-side pixel limit.
const MaxCanvasDimension = 32767

// SliceFileName is the centre crop written beside galaxy renders.
const SliceFileName = "slice.png"

// RenderConfig controls layout and drawing for one scope.
type RenderConfig struct {
	Scope        Scope   `yaml:"-" json:"-"`
	Scale        float64 `yaml:"scale" json:"scale"`
	Padding      float64 `yaml:"padding" json:"padding"`
	GlyphRadius  float64 `yaml:"glyphRadius" json:"glyphRadius"`
	Background   string  `yaml:"background" json:"background"`
	MaxDimension int     `yaml:"maxDimension" json:"maxDimension"`

	AntiAlias     bool `yaml:"antiAlias" json:"antiAlias"`
	DrawEdges     bool `yaml:"drawEdges" json:"drawEdges"`
	DrawCrosshair bool `yaml:"drawCrosshair" json:"drawCrosshair"`
	DrawOrbits    bool `yaml:"drawOrbits" json:"drawOrbits"`
	DrawLabels    bool `yaml:"drawLabels" json:"drawLabels"`
	GeoJSON       bool `yaml:"geojson" json:"geojson"`

	// SliceSize is the side of the centre crop written for galaxy renders;
	// 0 disables it.
	SliceSize int `yaml:"sliceSize" json:"sliceSize"`

	Factions  ColorTable `yaml:"factions" json:"factions"`
	Stars     ColorTable `yaml:"stars" json:"stars"`
	Waypoints ColorTable `yaml:"waypoints" json:"waypoints"`
}

// DefaultGalaxyConfig returns settings for rendering every known system.
func DefaultGalaxyConfig() RenderConfig {
	return RenderConfig{
		Scope:         ScopeGalaxy,
		Scale:         0.5,
		Padding:       100,
		GlyphRadius:   DefaultGalaxyGlyphRadius,
		Background:    "#FFFFFF",
		MaxDimension:  MaxCanvasDimension,
		DrawEdges:     true,
		DrawCrosshair: true,
		SliceSize:     2048,
		Factions:      DefaultFactionColors(),
		Stars:         DefaultStarColors(),
		Waypoints:     DefaultWaypointColors(),
	}
}

// DefaultSystemConfig returns settings for rendering the waypoints of one system.
func DefaultSystemConfig() RenderConfig {
	return RenderConfig{
		Scope:        ScopeSystem,
		Scale:        4,
		Padding:      60,
		GlyphRadius:  DefaultSystemGlyphRadius,
		Background:   "#101018",
		MaxDimension: MaxCanvasDimension,
		AntiAlias:    true,
		DrawOrbits:   true,
		DrawLabels:   true,
		Factions:     DefaultFactionColors(),
		Stars:        DefaultStarColors(),
		Waypoints:    DefaultWaypointColors(),
	}
}

// LayoutOptions derives the layout settings from the render config.
func (c RenderConfig) LayoutOptions() LayoutOptions {
	return LayoutOptions{
		Scope:       c.Scope,
		Scale:       c.Scale,
		Padding:     c.Padding,
		GlyphRadius: c.GlyphRadius,
	}
}

func (c RenderConfig) maxDimension() int {
	if c.MaxDimension > 0 {
		return c.MaxDimension
	}
	return MaxCanvasDimension
}

// Renderer draws layouts. It holds no per-render state and can be shared.
type Renderer struct {
	Config RenderConfig
	logger *log.Logger
}

// NewRenderer creates a renderer. A nil logger uses the package default.
func NewRenderer(cfg RenderConfig, logger *log.Logger) *Renderer {
	if logger == nil {
		logger = log.Default()
	}
	return &Renderer{Config: cfg, logger: logger}
}

// Layout positions entities using the renderer's scale, padding and scope.
func (r *Renderer) Layout(entities []Entity) (*Layout, error) {
	return ComputeLayout(entities, r.Config.LayoutOptions())
}

// canvasSize converts the layout size to whole pixels and enforces the
// dimension limit. It never allocates.
func (r *Renderer) canvasSize(layout *Layout) (int, int, error) {
	w := max(int(math.Ceil(layout.Width)), 1)
	h := max(int(math.Ceil(layout.Height)), 1)
	if limit := r.Config.maxDimension(); w > limit || h > limit {
		return 0, 0, &CanvasTooLargeError{Width: w, Height: h, Max: limit}
	}
	return w, h, nil
}

// tessellate wraps Tessellate, logging and swallowing the degenerate case.
func (r *Renderer) tessellate(layout *Layout) (*Tessellation, error) {
	t, err := Tessellate(layout)
	var degenerate *TessellationDegenerateError
	if errors.As(err, &degenerate) {
		r.logger.Debug("skipping voronoi cells", "scope", layout.Scope, "sites", degenerate.Sites)
		return &Tessellation{}, nil
	}
	return t, err
}

// Render draws the layout into a raster image. title may be nil.
func (r *Renderer) Render(layout *Layout, title *Title) (draw.Image, *Tessellation, error) {
	if layout == nil || len(layout.Placements) == 0 {
		scope := r.Config.Scope
		if layout != nil {
			scope = layout.Scope
		}
		return nil, nil, &NoEntitiesError{Scope: scope}
	}

	w, h, err := r.canvasSize(layout)
	if err != nil {
		return nil, nil, err
	}

	tess, err := r.tessellate(layout)
	if err != nil {
		return nil, nil, err
	}

	rast := rasterizer.New(float64(w), float64(h), canvas.DPMM(1.0), canvas.DefaultColorSpace)
	s := newSurface(rast, rast, float64(w), float64(h))

	r.paint(s, layout, tess)

	// Raster-only passes.
	r.drawMarks(rast, layout)
	if r.Config.DrawLabels && layout.Scope == ScopeSystem {
		drawLabels(rast, layout)
	}
	if title != nil {
		drawTitle(rast, title.String())
	}

	return rast, tess, nil
}

// RenderFile renders the layout and writes it as PNG to path. The directory
// must exist. Galaxy renders also get a centre crop named slice.png in the
// same directory; GeoJSON output goes next to the PNG when enabled.
func (r *Renderer) RenderFile(layout *Layout, title *Title, path string) error {
	img, tess, err := r.Render(layout, title)
	if err != nil {
		return err
	}

	if err := writePNG(path, img); err != nil {
		return err
	}
	r.logger.Info("rendered map", "path", path, "width", img.Bounds().Dx(), "height", img.Bounds().Dy())

	if layout.Scope == ScopeGalaxy && r.Config.SliceSize > 0 {
		slicePath := filepath.Join(filepath.Dir(path), SliceFileName)
		if err := writePNG(slicePath, cropCenter(img, r.Config.SliceSize)); err != nil {
			return err
		}
		r.logger.Debug("wrote centre slice", "path", slicePath, "size", r.Config.SliceSize)
	}

	if r.Config.GeoJSON {
		data, err := ExportGeoJSON(layout, tess)
		if err != nil {
			return err
		}
		geoPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".geojson"
		if err := os.WriteFile(geoPath, data, 0o644); err != nil {
			return &IOWriteError{Path: geoPath, Err: err}
		}
	}

	return nil
}

// writePNG encodes img to path. The file is closed and the close error
// checked before returning, so a nil error means the artifact is complete.
func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return &IOWriteError{Path: path, Err: err}
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return &IOWriteError{Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &IOWriteError{Path: path, Err: err}
	}
	return nil
}

// cropCenter copies a size×size square from the middle of img, clipped to
// its bounds.
func cropCenter(img image.Image, size int) image.Image {
	b := img.Bounds()
	cx, cy := b.Min.X+b.Dx()/2, b.Min.Y+b.Dy()/2
	rect := image.Rect(cx-size/2, cy-size/2, cx-size/2+size, cy-size/2+size).Intersect(b)

	out := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(out, out.Bounds(), img, rect.Min, draw.Src)
	return out
}

// drawMarks stamps a small cross at each placement's exact pixel position.
func (r *Renderer) drawMarks(img draw.Image, layout *Layout) {
	mark := color.RGBA{255, 0, 0, 255}
	b := img.Bounds()
	for _, p := range layout.Placements {
		cx, cy := int(math.Floor(p.Pixel.X)), int(math.Floor(p.Pixel.Y))
		for d := -2; d <= 2; d++ {
			if x := cx + d; x >= b.Min.X && x < b.Max.X && cy >= b.Min.Y && cy < b.Max.Y {
				img.Set(x, cy, mark)
			}
			if y := cy + d; y >= b.Min.Y && y < b.Max.Y && cx >= b.Min.X && cx < b.Max.X {
				img.Set(cx, y, mark)
			}
		}
	}
}
