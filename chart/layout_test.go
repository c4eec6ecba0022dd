package chart

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeLayout_TwoEntityExample(t *testing.T) {
	entities := []Entity{
		{Symbol: "A", X: -100, Y: 50, Type: "PLANET"},
		{Symbol: "B", X: 100, Y: -50, Type: "MOON"},
	}

	layout, err := ComputeLayout(entities, LayoutOptions{Scope: ScopeGalaxy, Scale: 1, Padding: 50})
	require.NoError(t, err)

	assert.Equal(t, 300.0, layout.Width)
	assert.Equal(t, 200.0, layout.Height)
	assert.Equal(t, Point{X: 50, Y: 150}, layout.Placements[0].Pixel)
	assert.Equal(t, Point{X: 250, Y: 50}, layout.Placements[1].Pixel)
}

func TestComputeLayout_OriginAtCenter(t *testing.T) {
	tests := []struct {
		name     string
		entities []Entity
		scale    float64
		padding  float64
	}{
		{"symmetric", []Entity{{Symbol: "A", X: -10, Y: -10}, {Symbol: "B", X: 10, Y: 10}}, 1, 0},
		{"skewed right", []Entity{{Symbol: "A", X: 5, Y: 1}, {Symbol: "B", X: 400, Y: -30}}, 2, 25},
		{"all negative", []Entity{{Symbol: "A", X: -50, Y: -70}, {Symbol: "B", X: -3, Y: -9}}, 0.5, 10},
		{"fractional", []Entity{{Symbol: "A", X: 0.3, Y: -0.7}, {Symbol: "B", X: -12.25, Y: 8.125}}, 7.3, 3.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layout, err := ComputeLayout(tt.entities, LayoutOptions{Scale: tt.scale, Padding: tt.padding})
			require.NoError(t, err)

			origin := pixelTransform(tt.scale, layout.HalfWidth, layout.HalfHeight).Apply(Point{})
			if origin != layout.Center() {
				t.Errorf("origin maps to %v, want %v", origin, layout.Center())
			}
			if layout.Width != 2*layout.HalfWidth || layout.Height != 2*layout.HalfHeight {
				t.Errorf("canvas %vx%v is not twice the half extents %v,%v",
					layout.Width, layout.Height, layout.HalfWidth, layout.HalfHeight)
			}
			for _, p := range layout.Placements {
				if p.Pixel.X < 0 || p.Pixel.X > layout.Width || p.Pixel.Y < 0 || p.Pixel.Y > layout.Height {
					t.Errorf("%s at %v lies outside %vx%v", p.Symbol, p.Pixel, layout.Width, layout.Height)
				}
			}
		})
	}
}

func TestComputeLayout_OneSignedDataKeepsOriginInBox(t *testing.T) {
	layout, err := ComputeLayout([]Entity{{Symbol: "A", X: 100, Y: 40}}, LayoutOptions{Scale: 1})
	require.NoError(t, err)

	// The box is seeded at (0,0), so the single point lands in the corner.
	assert.Equal(t, 200.0, layout.Width)
	assert.Equal(t, 80.0, layout.Height)
	assert.Equal(t, Point{X: 200, Y: 80}, layout.Placements[0].Pixel)
}

func TestComputeLayout_SingleEntityPaddingOnly(t *testing.T) {
	layout, err := ComputeLayout([]Entity{{Symbol: "A"}}, LayoutOptions{Scale: 1, Padding: 50})
	require.NoError(t, err)

	assert.Equal(t, 100.0, layout.Width)
	assert.Equal(t, 100.0, layout.Height)
	assert.Equal(t, Point{X: 50, Y: 50}, layout.Placements[0].Pixel)
	assert.True(t, layout.Placements[0].Primary)
}

func TestComputeLayout_DoesNotMutateInput(t *testing.T) {
	entities := []Entity{
		{Symbol: "A", X: -100, Y: 50},
		{Symbol: "B", X: 100, Y: -50},
		{Symbol: "C", X: 100, Y: -50},
	}
	original := append([]Entity(nil), entities...)
	opts := LayoutOptions{Scope: ScopeSystem, Scale: 1.7, Padding: 13}

	first, err := ComputeLayout(entities, opts)
	require.NoError(t, err)
	second, err := ComputeLayout(entities, opts)
	require.NoError(t, err)

	assert.Equal(t, original, entities, "input slice was modified")
	if !reflect.DeepEqual(first, second) {
		t.Errorf("layouts differ between runs:\n%+v\n%+v", first, second)
	}
	assert.Equal(t, -100.0, first.Placements[0].Entity.X, "placement should keep original coordinates")
}

func TestComputeLayout_CoLocatedPair(t *testing.T) {
	entities := []Entity{{Symbol: "P"}, {Symbol: "S"}}

	layout, err := ComputeLayout(entities, LayoutOptions{Scope: ScopeSystem, Scale: 1, Padding: 50})
	require.NoError(t, err)

	primary, sub := layout.Placements[0], layout.Placements[1]
	assert.True(t, primary.Primary)
	assert.Equal(t, 15.0, primary.Radius)
	assert.Equal(t, Point{X: 50, Y: 50}, primary.Pixel)

	assert.False(t, sub.Primary)
	assert.Equal(t, 7.5, sub.Radius)
	assert.Equal(t, Point{X: 50, Y: 50}, sub.Orbit)
	// Not right of centre, so it moves right by R + subR + clearance.
	assert.Equal(t, 50+26.5, sub.Pixel.X)
	assert.Equal(t, 50.0, sub.Pixel.Y)
}

func TestComputeLayout_SubObjectsShiftTowardCenter(t *testing.T) {
	entities := []Entity{
		{Symbol: "W", X: -10},
		{Symbol: "E1", X: 100},
		{Symbol: "E2", X: 100},
	}

	layout, err := ComputeLayout(entities, LayoutOptions{Scope: ScopeSystem, Scale: 1, Padding: 10})
	require.NoError(t, err)
	require.Equal(t, 110.0, layout.HalfWidth)

	e2 := layout.Placements[2]
	assert.Equal(t, 210.0, e2.Orbit.X)
	assert.Equal(t, 210-26.5, e2.Pixel.X, "right of centre should shift left")
}

func TestComputeLayout_FanOutGroup(t *testing.T) {
	const n = 6
	entities := make([]Entity, n)
	for i := range entities {
		entities[i] = Entity{Symbol: string(rune('A' + i)), X: -40, Y: 20, Type: "MOON"}
	}

	layout, err := ComputeLayout(entities, LayoutOptions{Scope: ScopeSystem, Scale: 2, Padding: 30})
	require.NoError(t, err)

	primaries := 0
	var offsets []float64
	for _, p := range layout.Placements {
		if p.Primary {
			primaries++
			assert.Equal(t, DefaultSystemGlyphRadius, p.Radius)
			continue
		}
		assert.Equal(t, DefaultSystemGlyphRadius/2, p.Radius)
		assert.Equal(t, p.Orbit.Y, p.Pixel.Y, "fan-out is along x only")
		offsets = append(offsets, math.Abs(p.Pixel.X-p.Orbit.X))
	}

	assert.Equal(t, 1, primaries)
	require.Len(t, offsets, n-1)
	assert.Equal(t, 26.5, offsets[0])

	// Strictly increasing and never overlapping the previous glyph.
	prev, prevRadius := 0.0, DefaultSystemGlyphRadius
	for i, off := range offsets {
		if off <= prev {
			t.Errorf("offset %d = %v not greater than %v", i, off, prev)
		}
		if gap := off - prev; gap < prevRadius+DefaultSystemGlyphRadius/2 {
			t.Errorf("offset %d overlaps previous glyph: gap %v", i, gap)
		}
		prev, prevRadius = off, DefaultSystemGlyphRadius/2
	}
}

func TestComputeLayout_GalaxyDoesNotFanOut(t *testing.T) {
	entities := []Entity{{Symbol: "A", X: 3, Y: 3}, {Symbol: "B", X: 3, Y: 3}}

	layout, err := ComputeLayout(entities, LayoutOptions{Scope: ScopeGalaxy, Scale: 1, Padding: 5})
	require.NoError(t, err)

	for _, p := range layout.Placements {
		assert.True(t, p.Primary)
		assert.Equal(t, DefaultGalaxyGlyphRadius, p.Radius)
		assert.Equal(t, p.Orbit, p.Pixel)
	}
}

func TestComputeLayout_CustomGlyphRadius(t *testing.T) {
	entities := []Entity{{Symbol: "A"}, {Symbol: "B"}}

	layout, err := ComputeLayout(entities, LayoutOptions{Scope: ScopeSystem, Scale: 1, Padding: 100, GlyphRadius: 20})
	require.NoError(t, err)

	sub := layout.Placements[1]
	assert.Equal(t, 10.0, sub.Radius)
	assert.Equal(t, 100+20+4+10.0, sub.Pixel.X)
}

func TestComputeLayout_Errors(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		name     string
		entities []Entity
		opts     LayoutOptions
		check    func(t *testing.T, err error)
	}{
		{
			name:     "empty list",
			entities: nil,
			opts:     LayoutOptions{Scope: ScopeSystem, Scale: 1},
			check: func(t *testing.T, err error) {
				var target *NoEntitiesError
				require.ErrorAs(t, err, &target)
				assert.Equal(t, ScopeSystem, target.Scope)
				assert.True(t, errors.Is(err, ErrNoEntities))
			},
		},
		{
			name:     "missing symbol",
			entities: []Entity{{Symbol: "A"}, {X: 1}},
			opts:     LayoutOptions{Scale: 1},
			check: func(t *testing.T, err error) {
				var target *InvalidEntityError
				require.ErrorAs(t, err, &target)
				assert.Equal(t, 1, target.Index)
			},
		},
		{
			name:     "duplicate symbol",
			entities: []Entity{{Symbol: "A"}, {Symbol: "B"}, {Symbol: "A", X: 5}},
			opts:     LayoutOptions{Scale: 1},
			check: func(t *testing.T, err error) {
				var target *InvalidEntityError
				require.ErrorAs(t, err, &target)
				assert.Equal(t, 2, target.Index)
				assert.Equal(t, "A", target.Symbol)
				assert.Contains(t, target.Error(), "index 0")
			},
		},
		{
			name:     "NaN coordinate",
			entities: []Entity{{Symbol: "A", X: nan}},
			opts:     LayoutOptions{Scale: 1},
			check: func(t *testing.T, err error) {
				var target *InvalidEntityError
				require.ErrorAs(t, err, &target)
				assert.Equal(t, "A", target.Symbol)
			},
		},
		{
			name:     "infinite coordinate",
			entities: []Entity{{Symbol: "A", Y: math.Inf(-1)}},
			opts:     LayoutOptions{Scale: 1},
			check: func(t *testing.T, err error) {
				var target *InvalidEntityError
				require.ErrorAs(t, err, &target)
			},
		},
		{
			name:     "zero scale",
			entities: []Entity{{Symbol: "A"}},
			opts:     LayoutOptions{Scale: 0},
			check: func(t *testing.T, err error) {
				var target *InvalidEntityError
				require.ErrorAs(t, err, &target)
				assert.Equal(t, -1, target.Index)
			},
		},
		{
			name:     "negative padding",
			entities: []Entity{{Symbol: "A"}},
			opts:     LayoutOptions{Scale: 1, Padding: -1},
			check: func(t *testing.T, err error) {
				var target *InvalidEntityError
				require.ErrorAs(t, err, &target)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layout, err := ComputeLayout(tt.entities, tt.opts)
			assert.Nil(t, layout)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestLayoutFind(t *testing.T) {
	layout, err := ComputeLayout([]Entity{{Symbol: "A", X: 1}, {Symbol: "B", X: -1}}, LayoutOptions{Scale: 10, Padding: 5})
	require.NoError(t, err)

	p, ok := layout.Find(Point{X: 25, Y: 5})
	require.True(t, ok)
	assert.Equal(t, "A", p.Symbol)

	_, ok = layout.Find(Point{X: 1, Y: 1})
	assert.False(t, ok)
}

func TestGlyphFor(t *testing.T) {
	assert.Equal(t, GlyphTriangle, GlyphFor("JUMP_GATE"))
	assert.Equal(t, GlyphHexagon, GlyphFor("ORBITAL_STATION"))
	assert.Equal(t, GlyphCircle, GlyphFor("PLANET"))
	assert.Equal(t, GlyphCircle, GlyphFor(""))
}

func TestTitleString(t *testing.T) {
	title := Title{Symbol: "X1-DF55", X: -42, Y: 17.5, Type: "RED_STAR", WaypointCount: 23}
	assert.Equal(t, "X1-DF55 [-42 17.5] RED_STAR 23", title.String())
}
