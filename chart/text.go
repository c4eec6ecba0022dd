package chart

import (
	"image"
	"image/color"
	"image/draw"
	"strings"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	labelAngle   = 45.0 // degrees; clockwise on screen since y points down
	titleMargin  = 4
	labelSpacing = 3.0
)

var (
	titleBand  = color.RGBA{0, 0, 0, 255}
	titleRule  = color.RGBA{200, 200, 200, 255}
	titleText  = color.RGBA{255, 255, 255, 255}
	labelColor = color.RGBA{230, 230, 230, 255}
)

// drawText renders text onto an image with its baseline at (x, y).
func drawText(img draw.Image, x, y int, text string, c color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}

// drawTitle paints an opaque band across the top of the image, tall enough
// for the measured text, with a horizontal rule under it.
func drawTitle(img draw.Image, text string) int {
	bounds, _ := font.BoundString(basicfont.Face7x13, text)
	textHeight := (bounds.Max.Y - bounds.Min.Y).Ceil()
	bandHeight := textHeight + 2*titleMargin

	b := img.Bounds()
	band := image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Min.Y+bandHeight).Intersect(b)
	draw.Draw(img, band, image.NewUniform(titleBand), image.Point{}, draw.Src)

	rule := image.Rect(b.Min.X, band.Max.Y, b.Max.X, band.Max.Y+1).Intersect(b)
	draw.Draw(img, rule, image.NewUniform(titleRule), image.Point{}, draw.Src)

	baseline := b.Min.Y + titleMargin - bounds.Min.Y.Floor()
	drawText(img, b.Min.X+titleMargin, baseline, text, titleText)

	return bandHeight
}

// labelText shortens a waypoint symbol to its last dash-separated part.
func labelText(symbol string) string {
	if i := strings.LastIndexByte(symbol, '-'); i >= 0 && i < len(symbol)-1 {
		return symbol[i+1:]
	}
	return symbol
}

// drawLabels writes each placement's symbol at 45 degrees, starting just
// past the glyph's upper-right edge. Each label carries its own transform.
func drawLabels(img draw.Image, layout *Layout) {
	face := basicfont.Face7x13
	metrics := face.Metrics()
	ascent := metrics.Ascent.Ceil()
	lineHeight := metrics.Height.Ceil()

	for _, p := range layout.Placements {
		text := labelText(p.Symbol)
		width := font.MeasureString(face, text).Ceil()
		if width == 0 {
			continue
		}

		src := image.NewRGBA(image.Rect(0, 0, width, lineHeight))
		drawText(src, 0, ascent, text, labelColor)

		anchor := Point{X: p.Pixel.X + p.Radius + labelSpacing, Y: p.Pixel.Y - p.Radius/2}
		// Rotate about the label's baseline origin, then move it to the anchor.
		m := Translation(anchor.X, anchor.Y).
			Mul(RotationDeg(labelAngle)).
			Mul(Translation(0, -float64(ascent)))

		xdraw.BiLinear.Transform(img, m.Aff3(), src, src.Bounds(), xdraw.Over, nil)
	}
}
