// Package geometry holds the planar types shared by the marker pipeline: image-plane
// points, the ordered marker quadrilateral and the projective transform between quads.
package geometry

import (
	"fmt"
	"image"
	"math"
)

// Point2D is a floating-point image-plane coordinate, in pixels of the image it was
// measured against.
type Point2D struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Pt is shorthand for Point2D{X: x, Y: y}.
func Pt(x, y float64) Point2D {
	return Point2D{X: x, Y: y}
}

// FromImagePoint converts an integer image point.
func FromImagePoint(p image.Point) Point2D {
	return Point2D{X: float64(p.X), Y: float64(p.Y)}
}

// Add returns p+q.
func (p Point2D) Add(q Point2D) Point2D {
	return Point2D{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p-q.
func (p Point2D) Sub(q Point2D) Point2D {
	return Point2D{X: p.X - q.X, Y: p.Y - q.Y}
}

// Scale returns p multiplied by k.
func (p Point2D) Scale(k float64) Point2D {
	return Point2D{X: p.X * k, Y: p.Y * k}
}

// Dist returns the euclidean distance between p and q.
func (p Point2D) Dist(q Point2D) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Image rounds the point to the nearest integer image point.
func (p Point2D) Image() image.Point {
	return image.Pt(int(math.Round(p.X)), int(math.Round(p.Y)))
}

func (p Point2D) String() string {
	return fmt.Sprintf("(%.2f, %.2f)", p.X, p.Y)
}

// Centroid returns the arithmetic mean of pts. It returns the zero point for an empty slice.
func Centroid(pts ...Point2D) Point2D {
	if len(pts) == 0 {
		return Point2D{}
	}
	var c Point2D
	for _, p := range pts {
		c = c.Add(p)
	}
	return c.Scale(1 / float64(len(pts)))
}

// cross returns the z component of (b-a) x (c-a), i.e. twice the signed area of the
// triangle abc.
func cross(a, b, c Point2D) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}
