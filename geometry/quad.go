package geometry

import (
	"fmt"
	"math"
)

// Corner names a position of the canonical quadrilateral.
type Corner int

// Canonical corner order. Quad values are always indexed in this order.
const (
	TopLeft Corner = iota
	TopRight
	BottomRight
	BottomLeft
)

// Corners lists every Corner in canonical order.
var Corners = [4]Corner{TopLeft, TopRight, BottomRight, BottomLeft}

func (c Corner) String() string {
	switch c {
	case TopLeft:
		return "top-left"
	case TopRight:
		return "top-right"
	case BottomRight:
		return "bottom-right"
	case BottomLeft:
		return "bottom-left"
	default:
		return fmt.Sprintf("corner(%d)", int(c))
	}
}

// collinearTolerance is relative to the squared extent of the quad.
const collinearTolerance = 1e-9

// Quad is an ordered quadrilateral (top-left, top-right, bottom-right, bottom-left).
// Being a fixed-size array, a Quad always holds exactly four points.
type Quad [4]Point2D

// RectQuad returns the axis-aligned quad spanning (x0, y0)-(x1, y1).
func RectQuad(x0, y0, x1, y1 float64) Quad {
	return Quad{Pt(x0, y0), Pt(x1, y0), Pt(x1, y1), Pt(x0, y1)}
}

// At returns the point for corner c.
func (q Quad) At(c Corner) Point2D {
	return q[c]
}

// Area returns the signed shoelace area. Positive for clockwise order in image
// coordinates (y pointing down).
func (q Quad) Area() float64 {
	var a float64
	for i := range q {
		j := (i + 1) % len(q)
		a += q[i].X*q[j].Y - q[j].X*q[i].Y
	}
	return a / 2
}

// Extent returns the length of the diagonal of the quad's bounding box.
func (q Quad) Extent() float64 {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range q {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	return math.Hypot(maxX-minX, maxY-minY)
}

// Validate returns a DegenerateGeometryError when any three of the four points are
// collinear (which includes coincident points and zero-area quads) or any coordinate is
// not finite.
func (q Quad) Validate() error {
	for i, p := range q {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			return degenerate("%s point %s is not finite", Corner(i), p)
		}
	}

	extent := q.Extent()
	if extent == 0 {
		return degenerate("all points coincide at %s", q[0])
	}
	tol := collinearTolerance * extent * extent

	for i := 0; i < 4; i++ {
		a, b, c := q[(i+1)%4], q[(i+2)%4], q[(i+3)%4]
		if math.Abs(cross(a, b, c)) <= tol {
			return degenerate("points %s, %s and %s are collinear", a, b, c)
		}
	}
	return nil
}

func (q Quad) String() string {
	return fmt.Sprintf("[TL %s, TR %s, BR %s, BL %s]", q[0], q[1], q[2], q[3])
}
