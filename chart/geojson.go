package chart

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// ExportGeoJSON encodes a layout as a FeatureCollection in pixel space: one
// Point per placement and one Polygon per filled Voronoi cell. tess may be nil.
func ExportGeoJSON(layout *Layout, tess *Tessellation) ([]byte, error) {
	fc := geojson.NewFeatureCollection()

	for _, p := range layout.Placements {
		f := geojson.NewFeature(orb.Point{p.Pixel.X, p.Pixel.Y})
		f.ID = p.Symbol
		f.Properties["kind"] = "entity"
		f.Properties["symbol"] = p.Symbol
		f.Properties["type"] = p.Type
		f.Properties["radius"] = p.Radius
		f.Properties["primary"] = p.Primary
		f.Properties["x"] = p.Entity.X
		f.Properties["y"] = p.Entity.Y
		if p.Owner != "" {
			f.Properties["owner"] = p.Owner
		}
		fc.Append(f)
	}

	if tess != nil {
		for _, cell := range tess.Cells {
			poly := orb.Polygon{cell.Polygon}
			f := geojson.NewFeature(poly)
			f.Properties["kind"] = "cell"
			f.Properties["symbol"] = cell.Owner.Symbol
			f.Properties["area"] = planar.Area(poly)
			if cell.Owner.Owner != "" {
				f.Properties["owner"] = cell.Owner.Owner
			}
			fc.Append(f)
		}
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode geojson: %w", err)
	}
	return data, nil
}
