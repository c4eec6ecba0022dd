package chart

import (
	"math"
	"testing"
)

const epsilon = 1e-10

// almostEqual checks if two floats are equal within epsilon tolerance
func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func pointsEqual(p1, p2 Point) bool {
	return almostEqual(p1.X, p2.X) && almostEqual(p1.Y, p2.Y)
}

func TestAffineApply(t *testing.T) {
	tests := []struct {
		name   string
		point  Point
		matrix Affine
		want   Point
	}{
		{
			name:   "identity transform",
			point:  Point{X: 10, Y: 20},
			matrix: Identity(),
			want:   Point{X: 10, Y: 20},
		},
		{
			name:   "translation only",
			point:  Point{X: 5, Y: 5},
			matrix: Translation(10, 15),
			want:   Point{X: 15, Y: 20},
		},
		{
			name:   "scale 2x",
			point:  Point{X: 3, Y: 4},
			matrix: Scaling(2, 2),
			want:   Point{X: 6, Y: 8},
		},
		{
			name:   "90 degree rotation turns +x to +y (down)",
			point:  Point{X: 1, Y: 0},
			matrix: RotationDeg(90),
			want:   Point{X: 0, Y: 1},
		},
		{
			name:   "-45 degree rotation points up and right",
			point:  Point{X: math.Sqrt2, Y: 0},
			matrix: RotationDeg(-45),
			want:   Point{X: 1, Y: -1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.matrix.Apply(tt.point)
			if !pointsEqual(got, tt.want) {
				t.Errorf("Apply() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAffineMulOrder(t *testing.T) {
	// Scale first, then translate.
	m := Translation(100, 50).Mul(Scaling(2, 3))
	got := m.Apply(Point{X: 1, Y: 1})
	want := Point{X: 102, Y: 53}
	if !pointsEqual(got, want) {
		t.Errorf("Mul() applied = %v, want %v", got, want)
	}
}

func TestPixelTransformOriginAtCenter(t *testing.T) {
	for _, scale := range []float64{0.1, 1, 3.5} {
		m := pixelTransform(scale, 120, 80)
		got := m.Apply(Point{})
		if got != (Point{X: 120, Y: 80}) {
			t.Errorf("scale %v: origin mapped to %v, want (120,80)", scale, got)
		}
	}
}

func TestAffineAff3(t *testing.T) {
	m := Affine{A: 1, B: 2, Tx: 3, C: 4, D: 5, Ty: 6}
	a := m.Aff3()
	for i, want := range []float64{1, 2, 3, 4, 5, 6} {
		if a[i] != want {
			t.Errorf("Aff3()[%d] = %v, want %v", i, a[i], want)
		}
	}
}
