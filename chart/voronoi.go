package chart

import (
	"image/color"
	"image/draw"
	"math"

	"github.com/paulmach/orb"
)

// clipEpsilon absorbs rounding when classifying vertices against a bisector.
const clipEpsilon = 1e-9

// Cell is a filled Voronoi territory owned by one placement.
type Cell struct {
	Owner   *Placement
	Polygon orb.Ring
}

// Segment is a finite Voronoi edge in pixel space.
type Segment struct {
	A, B Point
}

// Tessellation is the planar Voronoi partition of a layout, clipped to the
// canvas rectangle.
type Tessellation struct {
	Cells []Cell
	Edges []Segment
}

// Tessellate computes the Voronoi diagram over the final pixel positions of
// the layout. Co-located placements share one site; the first placement at a
// site owns its cell. Cells with fewer than three edges are dropped.
// Fewer than two distinct sites yields a TessellationDegenerateError.
//
// Each cell starts as the canvas rectangle and is clipped by the
// perpendicular bisector towards every site that can still reach it, so
// collinear and equal-coordinate sites need no special casing.
func Tessellate(layout *Layout) (*Tessellation, error) {
	seen := make(map[Point]bool, len(layout.Placements))
	owners := make([]*Placement, 0, len(layout.Placements))

	for i := range layout.Placements {
		p := &layout.Placements[i]
		if seen[p.Pixel] {
			continue
		}
		seen[p.Pixel] = true
		owners = append(owners, p)
	}

	if len(owners) < 2 {
		return nil, &TessellationDegenerateError{Sites: len(owners)}
	}

	sites := make([]Point, len(owners))
	for i, o := range owners {
		sites[i] = o.Pixel
	}
	grid := newSiteGrid(sites, layout.Width, layout.Height)

	t := &Tessellation{}
	for i, site := range sites {
		poly := canvasPolygon(layout.Width, layout.Height)
		grid.nearest(site, func(j int) float64 {
			if j != i {
				poly = poly.clip(site, sites[j], j)
			}
			return poly.reach(site)
		})

		ring := poly.ring()
		if len(ring) < 4 {
			continue
		}
		t.Cells = append(t.Cells, Cell{Owner: owners[i], Polygon: ring})

		// Each shared edge is emitted once, by the lower-indexed site.
		for k, n := range poly.across {
			if n > i {
				a, b := poly.pts[k], poly.pts[(k+1)%len(poly.pts)]
				t.Edges = append(t.Edges, Segment{A: a, B: b})
			}
		}
	}

	return t, nil
}

// cellPolygon is a convex polygon whose k-th edge runs from pts[k] to
// pts[k+1] and separates the cell from site across[k] (-1 for the canvas).
type cellPolygon struct {
	pts    []Point
	across []int
}

func canvasPolygon(w, h float64) cellPolygon {
	return cellPolygon{
		pts:    []Point{{0, 0}, {w, 0}, {w, h}, {0, h}},
		across: []int{-1, -1, -1, -1},
	}
}

// clip keeps the part of the polygon closer to site than to other.
func (c cellPolygon) clip(site, other Point, otherIdx int) cellPolygon {
	if len(c.pts) == 0 {
		return c
	}
	dx, dy := other.X-site.X, other.Y-site.Y
	limit := (other.X*other.X + other.Y*other.Y - site.X*site.X - site.Y*site.Y) / 2
	side := func(p Point) float64 { return p.X*dx + p.Y*dy - limit }

	out := cellPolygon{
		pts:    make([]Point, 0, len(c.pts)+1),
		across: make([]int, 0, len(c.pts)+1),
	}
	n := len(c.pts)
	for k := 0; k < n; k++ {
		a, b := c.pts[k], c.pts[(k+1)%n]
		fa, fb := side(a), side(b)
		inA, inB := fa <= clipEpsilon, fb <= clipEpsilon

		switch {
		case inA && inB:
			out.add(a, c.across[k])
		case inA:
			out.add(a, c.across[k])
			out.add(lerp(a, b, fa/(fa-fb)), otherIdx)
		case inB:
			out.add(lerp(a, b, fa/(fa-fb)), c.across[k])
		}
	}
	if len(out.pts) > 1 && samePoint(out.pts[0], out.pts[len(out.pts)-1]) {
		out.pts = out.pts[:len(out.pts)-1]
		out.across = out.across[:len(out.across)-1]
	}
	return out
}

// add appends a vertex, folding it into the previous one when they coincide.
func (c *cellPolygon) add(p Point, across int) {
	if l := len(c.pts); l > 0 && samePoint(c.pts[l-1], p) {
		c.across[l-1] = across
		return
	}
	c.pts = append(c.pts, p)
	c.across = append(c.across, across)
}

// reach is how far a site may be and still clip the polygon: twice the
// distance from the owning site to its farthest vertex.
func (c cellPolygon) reach(site Point) float64 {
	r := 0.0
	for _, p := range c.pts {
		r = max(r, math.Hypot(p.X-site.X, p.Y-site.Y))
	}
	return 2 * r
}

func (c cellPolygon) ring() orb.Ring {
	if len(c.pts) < 3 {
		return nil
	}
	ring := make(orb.Ring, 0, len(c.pts)+1)
	for _, p := range c.pts {
		ring = append(ring, orb.Point{p.X, p.Y})
	}
	return append(ring, ring[0])
}

func lerp(a, b Point, t float64) Point {
	return Point{X: a.X + (b.X-a.X)*t, Y: a.Y + (b.Y-a.Y)*t}
}

func samePoint(a, b Point) bool {
	return math.Abs(a.X-b.X) <= clipEpsilon && math.Abs(a.Y-b.Y) <= clipEpsilon
}

// siteGrid buckets sites into square cells of roughly one site each.
type siteGrid struct {
	size       float64
	cols, rows int
	buckets    [][]int
}

func newSiteGrid(sites []Point, w, h float64) *siteGrid {
	size := max(math.Sqrt(w*h/float64(len(sites))), 1)
	g := &siteGrid{
		size: size,
		cols: int(w/size) + 1,
		rows: int(h/size) + 1,
	}
	g.buckets = make([][]int, g.cols*g.rows)
	for i, s := range sites {
		cx, cy := g.cell(s)
		g.buckets[cy*g.cols+cx] = append(g.buckets[cy*g.cols+cx], i)
	}
	return g
}

func (g *siteGrid) cell(p Point) (int, int) {
	cx := min(max(int(p.X/g.size), 0), g.cols-1)
	cy := min(max(int(p.Y/g.size), 0), g.rows-1)
	return cx, cy
}

// nearest visits sites in rings of buckets around p. visit returns the
// current reach; the walk stops once every unvisited site is farther away.
func (g *siteGrid) nearest(p Point, visit func(int) float64) {
	cx, cy := g.cell(p)
	reach := math.Inf(1)
	maxRing := max(g.cols, g.rows)

	for r := 0; r <= maxRing; r++ {
		// Unvisited sites lie at least (r-1) bucket widths away.
		if r > 0 && float64(r-1)*g.size > reach {
			return
		}
		for y := cy - r; y <= cy+r; y++ {
			if y < 0 || y >= g.rows {
				continue
			}
			for x := cx - r; x <= cx+r; x++ {
				if x < 0 || x >= g.cols {
					continue
				}
				if r > 0 && y != cy-r && y != cy+r && x != cx-r && x != cx+r {
					continue
				}
				for _, j := range g.buckets[y*g.cols+x] {
					reach = visit(j)
				}
			}
		}
	}
}

// fillPolygon paints a convex polygon onto img without anti-aliasing: a
// pixel is set when its centre lies inside every edge's half-plane.
func fillPolygon(img draw.Image, ring orb.Ring, c color.RGBA) {
	if len(ring) < 4 {
		return
	}
	bound := ring.Bound()
	clip := img.Bounds()

	minX := max(int(math.Floor(bound.Min[0])), clip.Min.X)
	maxX := min(int(math.Ceil(bound.Max[0])), clip.Max.X-1)
	minY := max(int(math.Floor(bound.Min[1])), clip.Min.Y)
	maxY := min(int(math.Ceil(bound.Max[1])), clip.Max.Y-1)

	// Orientation of the ring decides which side of each edge is inside.
	sign := 1.0
	if ring.Orientation() == orb.CW {
		sign = -1.0
	}

	for y := minY; y <= maxY; y++ {
		py := float64(y) + 0.5
		for x := minX; x <= maxX; x++ {
			px := float64(x) + 0.5
			inside := true
			for i := 0; i < len(ring)-1; i++ {
				a, b := ring[i], ring[i+1]
				cross := (b[0]-a[0])*(py-a[1]) - (b[1]-a[1])*(px-a[0])
				if cross*sign < 0 {
					inside = false
					break
				}
			}
			if inside {
				img.Set(x, y, c)
			}
		}
	}
}
