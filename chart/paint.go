package chart

import (
	"image/color"
	"image/draw"
	"math"

	"github.com/paulmach/orb"
	"github.com/tdewolff/canvas"
)

const (
	glyphStrokeWidth = 2.0
	edgeStrokeWidth  = 2.0
	orbitStrokeWidth = 1.0
)

var (
	edgeColor      = color.RGBA{0, 0, 0, 255}
	crosshairColor = color.RGBA{255, 255, 255, 255}
	orbitColor     = color.RGBA{140, 140, 160, 255}
	outlineColor   = color.RGBA{0, 0, 0, 255}
)

// canvasRenderer is implemented by both the svg and rasterizer renderers.
type canvasRenderer interface {
	RenderPath(path *canvas.Path, style canvas.Style, m canvas.Matrix)
}

// surface is a drawing target in pixel space (origin top-left, y down).
// img is non-nil for raster targets and enables crisp pixel fills.
type surface struct {
	out    canvasRenderer
	img    draw.Image
	flip   canvas.Matrix
	width  float64
	height float64
}

// newSurface wraps a canvas renderer. Canvas paths are y-up, so every path
// is mirrored about the horizontal axis on the way out.
func newSurface(out canvasRenderer, img draw.Image, width, height float64) *surface {
	return &surface{
		out:    out,
		img:    img,
		flip:   canvas.Identity.Translate(0, height).Scale(1, -1),
		width:  width,
		height: height,
	}
}

func (s *surface) fill(p *canvas.Path, c color.RGBA) {
	style := canvas.DefaultStyle
	style.Fill = canvas.Paint{Color: premultiply(c)}
	style.Stroke = canvas.Paint{Color: canvas.Transparent}
	s.out.RenderPath(p, style, s.flip)
}

func (s *surface) stroke(p *canvas.Path, c color.RGBA, width float64, dashes ...float64) {
	style := canvas.DefaultStyle
	style.Fill = canvas.Paint{Color: canvas.Transparent}
	style.Stroke = canvas.Paint{Color: premultiply(c)}
	style.StrokeWidth = width
	if len(dashes) > 0 {
		style.Dashes = dashes
	}
	s.out.RenderPath(p, style, s.flip)
}

func (s *surface) fillStroke(p *canvas.Path, fill, outline color.RGBA, width float64) {
	style := canvas.DefaultStyle
	style.Fill = canvas.Paint{Color: premultiply(fill)}
	style.Stroke = canvas.Paint{Color: premultiply(outline)}
	style.StrokeWidth = width
	s.out.RenderPath(p, style, s.flip)
}

func line(a, b Point) *canvas.Path {
	p := &canvas.Path{}
	p.MoveTo(a.X, a.Y)
	p.LineTo(b.X, b.Y)
	return p
}

func ringPath(ring orb.Ring) *canvas.Path {
	p := &canvas.Path{}
	for i, pt := range ring {
		if i == 0 {
			p.MoveTo(pt[0], pt[1])
		} else {
			p.LineTo(pt[0], pt[1])
		}
	}
	p.Close()
	return p
}

// regularPolygon returns an n-sided polygon of circumradius r centred on c,
// with the first vertex at startDeg (0 = +x, 90 = down in pixel space).
func regularPolygon(c Point, r float64, n int, startDeg float64) *canvas.Path {
	p := &canvas.Path{}
	for i := 0; i < n; i++ {
		rad := (startDeg + float64(i)*360/float64(n)) * math.Pi / 180
		x := c.X + r*math.Cos(rad)
		y := c.Y + r*math.Sin(rad)
		if i == 0 {
			p.MoveTo(x, y)
		} else {
			p.LineTo(x, y)
		}
	}
	p.Close()
	return p
}

// glyphPath builds the outline for a placement's glyph. Triangles point up.
func glyphPath(p Placement) *canvas.Path {
	switch GlyphFor(p.Type) {
	case GlyphTriangle:
		return regularPolygon(p.Pixel, p.Radius, 3, -90)
	case GlyphHexagon:
		return regularPolygon(p.Pixel, p.Radius, 6, 0)
	default:
		return canvas.Circle(p.Radius).Translate(p.Pixel.X, p.Pixel.Y)
	}
}

func (r *Renderer) background() color.RGBA {
	return ColorTable{Fallback: r.Config.Background}.Resolve("")
}

func (r *Renderer) glyphColor(p Placement) color.RGBA {
	if r.Config.Scope == ScopeSystem {
		return r.Config.Waypoints.Resolve(p.Type)
	}
	return r.Config.Stars.Resolve(p.Type)
}

// paint runs the passes shared by raster and vector output, back to front:
// background, cells, edges and crosshair, orbits, glyphs.
func (r *Renderer) paint(s *surface, layout *Layout, tess *Tessellation) {
	s.fill(canvas.Rectangle(s.width, s.height), r.background())

	for _, cell := range tess.Cells {
		c := r.Config.Factions.Resolve(cell.Owner.Owner)
		if s.img != nil && !r.Config.AntiAlias {
			fillPolygon(s.img, cell.Polygon, premultiply(c))
			continue
		}
		s.fill(ringPath(cell.Polygon), c)
	}

	if layout.Scope == ScopeGalaxy {
		if r.Config.DrawEdges {
			for _, e := range tess.Edges {
				s.stroke(line(e.A, e.B), edgeColor, edgeStrokeWidth)
			}
		}
		if r.Config.DrawCrosshair {
			cx, cy := layout.HalfWidth, layout.HalfHeight
			s.stroke(line(Point{X: cx, Y: 0}, Point{X: cx, Y: layout.Height}), crosshairColor, edgeStrokeWidth)
			s.stroke(line(Point{X: 0, Y: cy}, Point{X: layout.Width, Y: cy}), crosshairColor, edgeStrokeWidth)
		}
	}

	if layout.Scope == ScopeSystem && r.Config.DrawOrbits {
		center := layout.Center()
		for _, p := range layout.Placements {
			if !p.Primary {
				continue
			}
			radius := math.Hypot(p.Orbit.X-center.X, p.Orbit.Y-center.Y)
			if radius == 0 {
				continue
			}
			orbit := canvas.Circle(radius).Translate(center.X, center.Y)
			s.stroke(orbit, orbitColor, orbitStrokeWidth, 6, 4)
		}
	}

	for _, p := range layout.Placements {
		s.fillStroke(glyphPath(p), r.glyphColor(p), outlineColor, glyphStrokeWidth)
	}
}
