package chart

import (
	"fmt"
	"image/color"
	"strings"
)

// ColorTable maps a key (faction, star type or waypoint type) to a hex
// colour. Unmapped keys resolve to Fallback.
type ColorTable struct {
	Colors   map[string]string `yaml:"colors" json:"colors"`
	Fallback string            `yaml:"fallback" json:"fallback"`
}

// Resolve returns the colour for key, or the fallback when the key is absent
// or its entry cannot be parsed. An unparseable fallback yields opaque black.
func (t ColorTable) Resolve(key string) color.RGBA {
	if hex, ok := t.Colors[key]; ok && key != "" {
		if c, err := parseHexColor(hex); err == nil {
			return c
		}
	}
	c, err := parseHexColor(t.Fallback)
	if err != nil {
		return color.RGBA{0, 0, 0, 255}
	}
	return c
}

// Has reports whether key has its own entry.
func (t ColorTable) Has(key string) bool {
	_, ok := t.Colors[key]
	return ok
}

// Merge returns a copy of t with entries from o layered on top. An empty
// fallback in o keeps t's fallback.
func (t ColorTable) Merge(o ColorTable) ColorTable {
	out := ColorTable{
		Colors:   make(map[string]string, len(t.Colors)+len(o.Colors)),
		Fallback: t.Fallback,
	}
	for k, v := range t.Colors {
		out.Colors[k] = v
	}
	for k, v := range o.Colors {
		out.Colors[k] = v
	}
	if o.Fallback != "" {
		out.Fallback = o.Fallback
	}
	return out
}

// parseHexColor parses "#RRGGBB", "#RRGGBBAA" or "#RGB".
func parseHexColor(s string) (color.RGBA, error) {
	c := color.RGBA{A: 255}
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")

	var err error
	switch len(s) {
	case 8:
		_, err = fmt.Sscanf(s, "%02x%02x%02x%02x", &c.R, &c.G, &c.B, &c.A)
	case 6:
		_, err = fmt.Sscanf(s, "%02x%02x%02x", &c.R, &c.G, &c.B)
	case 3:
		_, err = fmt.Sscanf(s, "%1x%1x%1x", &c.R, &c.G, &c.B)
		c.R *= 17
		c.G *= 17
		c.B *= 17
	default:
		err = fmt.Errorf("invalid hex color length: %q", s)
	}
	if err != nil {
		return color.RGBA{}, fmt.Errorf("parse color %q: %w", s, err)
	}
	return c, nil
}

// premultiply converts a straight-alpha colour into the premultiplied form
// expected by image/color and the canvas renderers.
func premultiply(c color.RGBA) color.RGBA {
	if c.A == 255 {
		return c
	}
	if c.A == 0 {
		return color.RGBA{}
	}
	a := uint32(c.A)
	return color.RGBA{
		R: uint8(uint32(c.R) * a / 255),
		G: uint8(uint32(c.G) * a / 255),
		B: uint8(uint32(c.B) * a / 255),
		A: c.A,
	}
}

// DefaultFactionColors colours Voronoi territory by controlling faction.
func DefaultFactionColors() ColorTable {
	return ColorTable{
		Colors: map[string]string{
			"COSMIC":   "#000099",
			"UNITED":   "#009900",
			"QUANTUM":  "#00FF00",
			"ASTRO":    "#999900",
			"VOID":     "#0000FF",
			"CORSAIRS": "#FFFF00",
			"SOLITARY": "#FF0000",
			"DOMINION": "#009999",
			"GALACTIC": "#990000",
		},
		Fallback: "#333333",
	}
}

// DefaultStarColors colours system glyphs by star type.
func DefaultStarColors() ColorTable {
	return ColorTable{
		Colors: map[string]string{
			"NEUTRON_STAR": "#A0C8FF",
			"RED_STAR":     "#FF5040",
			"ORANGE_STAR":  "#FFA040",
			"BLUE_STAR":    "#4070FF",
			"YOUNG_STAR":   "#E0F0FF",
			"WHITE_DWARF":  "#F0F0F0",
			"BLACK_HOLE":   "#000000",
			"HYPERGIANT":   "#FFE080",
			"NEBULA":       "#C060E0",
			"UNSTABLE":     "#FF00FF",
		},
		Fallback: "#FFFFFF",
	}
}

// DefaultWaypointColors colours waypoint glyphs by waypoint type.
func DefaultWaypointColors() ColorTable {
	return ColorTable{
		Colors: map[string]string{
			"PLANET":                  "#3C8CDC",
			"GAS_GIANT":               "#DCA050",
			"MOON":                    "#B4B4B4",
			"ORBITAL_STATION":         "#50DC78",
			"JUMP_GATE":               "#DC3CDC",
			"ASTEROID_FIELD":          "#8C6E50",
			"ASTEROID":                "#8C6E50",
			"ENGINEERED_ASTEROID":     "#A08C64",
			"ASTEROID_BASE":           "#B48C50",
			"NEBULA":                  "#A050C8",
			"DEBRIS_FIELD":            "#787878",
			"GRAVITY_WELL":            "#282850",
			"ARTIFICIAL_GRAVITY_WELL": "#3C3C78",
			"FUEL_STATION":            "#F0DC3C",
		},
		Fallback: "#FFFFFF",
	}
}
