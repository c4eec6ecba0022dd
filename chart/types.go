package chart

import "fmt"

// Entity is a system (galaxy scope) or a waypoint (system scope) with raw
// game coordinates.
type Entity struct {
	Symbol string  `json:"symbol"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Type   string  `json:"type"`
	Owner  string  `json:"owner,omitempty"` // faction symbol, empty when unclaimed
}

// Scope selects between the two rendering variants.
type Scope int

const (
	// ScopeGalaxy renders systems: no overlap resolution, optional edges and crosshair.
	ScopeGalaxy Scope = iota
	// ScopeSystem renders waypoints: co-located waypoints fan out, orbits and labels are drawn.
	ScopeSystem
)

func (s Scope) String() string {
	switch s {
	case ScopeGalaxy:
		return "galaxy"
	case ScopeSystem:
		return "system"
	default:
		return "unknown"
	}
}

// Point represents a 2D coordinate in pixel space
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Placement is an entity positioned on the canvas. The embedded Entity keeps
// the caller's original coordinates.
type Placement struct {
	Entity

	// Final pixel position, after fan-out for sub-objects.
	Pixel Point `json:"pixel"`
	// Pixel position before fan-out; equal to Pixel for primaries.
	Orbit Point `json:"orbit"`

	Radius  float64 `json:"radius"`
	Primary bool    `json:"primary"`
}

// Layout is the result of ComputeLayout.
type Layout struct {
	Scope      Scope       `json:"scope"`
	Width      float64     `json:"width"`
	Height     float64     `json:"height"`
	HalfWidth  float64     `json:"halfWidth"`
	HalfHeight float64     `json:"halfHeight"`
	Placements []Placement `json:"placements"`
}

// Center returns the canvas position of the coordinate origin.
func (l *Layout) Center() Point {
	return Point{X: l.HalfWidth, Y: l.HalfHeight}
}

// Find returns the first placement whose pixel position equals p exactly.
func (l *Layout) Find(p Point) (*Placement, bool) {
	for i := range l.Placements {
		if l.Placements[i].Pixel == p {
			return &l.Placements[i], true
		}
	}
	return nil, false
}

// Title is the header line drawn across the top of a render.
type Title struct {
	Symbol        string
	X, Y          float64
	Type          string
	WaypointCount int
}

// String formats the title as "symbol [x y] type count".
func (t Title) String() string {
	return fmt.Sprintf("%s [%g %g] %s %d", t.Symbol, t.X, t.Y, t.Type, t.WaypointCount)
}

// Glyph is the shape drawn for an entity.
type Glyph int

const (
	GlyphCircle Glyph = iota
	GlyphTriangle
	GlyphHexagon
)

// Entity types that get a non-circular glyph.
const (
	TypeJumpGate       = "JUMP_GATE"
	TypeOrbitalStation = "ORBITAL_STATION"
)

// GlyphFor returns the glyph for an entity type: triangle for gates,
// hexagon for stations, circle for everything else.
func GlyphFor(entityType string) Glyph {
	switch entityType {
	case TypeJumpGate:
		return GlyphTriangle
	case TypeOrbitalStation:
		return GlyphHexagon
	default:
		return GlyphCircle
	}
}
