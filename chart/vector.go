package chart

import (
	"io"
	"math"

	"github.com/tdewolff/canvas/renderers/svg"
)

// RenderSVG writes the layout as an SVG document. It draws the same cells,
// edges, orbits and glyphs as Render, without pixel marks or text.
func (r *Renderer) RenderSVG(w io.Writer, layout *Layout) error {
	if layout == nil || len(layout.Placements) == 0 {
		return &NoEntitiesError{Scope: r.Config.Scope}
	}
	if _, _, err := r.canvasSize(layout); err != nil {
		return err
	}

	tess, err := r.tessellate(layout)
	if err != nil {
		return err
	}

	width := math.Max(layout.Width, 1)
	height := math.Max(layout.Height, 1)

	svgRenderer := svg.New(w, width, height, nil)
	r.paint(newSurface(svgRenderer, nil, width, height), layout, tess)

	// Close writes the closing tags.
	if err := svgRenderer.Close(); err != nil {
		return &IOWriteError{Path: "svg", Err: err}
	}
	return nil
}
