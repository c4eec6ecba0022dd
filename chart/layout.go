package chart

import (
	"math"
	"strconv"
)

const (
	// DefaultSystemGlyphRadius is the primary glyph radius for waypoints.
	DefaultSystemGlyphRadius = 15.0
	// DefaultGalaxyGlyphRadius is the glyph radius for systems.
	DefaultGalaxyGlyphRadius = 10.0

	// subObjectClearance separates a primary glyph from its first sub-object.
	subObjectClearance = 4.0
	// subObjectPadding is added on each side of a sub-object glyph.
	subObjectPadding = 2.0
)

// LayoutOptions configures ComputeLayout.
type LayoutOptions struct {
	Scope       Scope
	Scale       float64 // game units to pixels, must be > 0
	Padding     float64 // pixels added on every side of the bounding box
	GlyphRadius float64 // primary glyph radius; 0 selects the scope default
}

func (o LayoutOptions) glyphRadius() float64 {
	if o.GlyphRadius > 0 {
		return o.GlyphRadius
	}
	if o.Scope == ScopeSystem {
		return DefaultSystemGlyphRadius
	}
	return DefaultGalaxyGlyphRadius
}

// ComputeLayout positions entities on a canvas whose centre is the game
// coordinate origin. The bounding box always contains (0,0). The input
// slice is not modified.
func ComputeLayout(entities []Entity, opts LayoutOptions) (*Layout, error) {
	if len(entities) == 0 {
		return nil, &NoEntitiesError{Scope: opts.Scope}
	}
	if !(opts.Scale > 0) || math.IsInf(opts.Scale, 0) {
		return nil, &InvalidEntityError{Index: -1, Reason: "scale factor must be a positive finite number"}
	}
	if opts.Padding < 0 || math.IsNaN(opts.Padding) || math.IsInf(opts.Padding, 0) {
		return nil, &InvalidEntityError{Index: -1, Reason: "padding must be a non-negative finite number"}
	}

	minPt, maxPt, err := scanBounds(entities)
	if err != nil {
		return nil, err
	}

	minX := minPt.X*opts.Scale - opts.Padding
	minY := minPt.Y*opts.Scale - opts.Padding
	maxX := maxPt.X*opts.Scale + opts.Padding
	maxY := maxPt.Y*opts.Scale + opts.Padding

	halfWidth := math.Max(math.Abs(minX), maxX)
	halfHeight := math.Max(math.Abs(minY), maxY)

	layout := &Layout{
		Scope:      opts.Scope,
		Width:      2 * halfWidth,
		Height:     2 * halfHeight,
		HalfWidth:  halfWidth,
		HalfHeight: halfHeight,
		Placements: make([]Placement, len(entities)),
	}

	toPixel := pixelTransform(opts.Scale, halfWidth, halfHeight)
	radius := opts.glyphRadius()

	for i, e := range entities {
		p := toPixel.Apply(Point{X: e.X, Y: e.Y})
		layout.Placements[i] = Placement{
			Entity:  e,
			Pixel:   p,
			Orbit:   p,
			Radius:  radius,
			Primary: true,
		}
	}

	if opts.Scope == ScopeSystem {
		fanOut(layout)
	}

	return layout, nil
}

// scanBounds finds the bounding box of the entities, seeded at the origin,
// and rejects malformed entries.
func scanBounds(entities []Entity) (minPt, maxPt Point, err error) {
	seen := make(map[string]int, len(entities))

	for i, e := range entities {
		if e.Symbol == "" {
			return minPt, maxPt, &InvalidEntityError{Index: i, Reason: "missing symbol"}
		}
		if j, dup := seen[e.Symbol]; dup {
			return minPt, maxPt, &InvalidEntityError{Index: i, Symbol: e.Symbol, Reason: "duplicate symbol, first seen at index " + strconv.Itoa(j)}
		}
		seen[e.Symbol] = i

		if math.IsNaN(e.X) || math.IsNaN(e.Y) || math.IsInf(e.X, 0) || math.IsInf(e.Y, 0) {
			return minPt, maxPt, &InvalidEntityError{Index: i, Symbol: e.Symbol, Reason: "coordinate is not a finite number"}
		}

		if e.X < minPt.X {
			minPt.X = e.X
		}
		if e.Y < minPt.Y {
			minPt.Y = e.Y
		}
		if e.X > maxPt.X {
			maxPt.X = e.X
		}
		if e.Y > maxPt.Y {
			maxPt.Y = e.Y
		}
	}

	return minPt, maxPt, nil
}

// fanOut spreads co-located placements along the x axis. The first placement
// at a position stays put as the primary; later ones shrink to half radius
// and step toward the canvas centre.
func fanOut(layout *Layout) {
	siblings := make(map[Point]int)

	for i := range layout.Placements {
		p := &layout.Placements[i]
		k, seen := siblings[p.Orbit]
		siblings[p.Orbit] = k + 1
		if !seen {
			continue
		}

		// k counts the entries already at this spot, the primary included.
		primaryRadius := p.Radius
		subRadius := primaryRadius / 2
		offset := primaryRadius + subObjectClearance + subRadius + float64(k-1)*2*(subRadius+subObjectPadding)

		if p.Orbit.X > layout.HalfWidth {
			offset = -offset
		}

		p.Primary = false
		p.Radius = subRadius
		p.Pixel = Point{X: p.Orbit.X + offset, Y: p.Orbit.Y}
	}
}
