package geometry

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// singularTolerance bounds |det(H)| below which a normalised homography is treated as
// non-invertible.
const singularTolerance = 1e-12

// Homography is a 3x3 projective transform in row-major order, normalised so that the
// bottom-right element is 1.
type Homography [9]float64

// Identity returns the identity transform.
func Identity() Homography {
	return Homography{1, 0, 0, 0, 1, 0, 0, 0, 1}
}

// NewHomography solves the projective transform mapping each point of src onto the
// point of dst at the same index.
//
// Four correspondences determine the eight free parameters exactly, so the transform is
// obtained from a single 8x8 linear solve instead of a least-squares fit.
//
// Arguments:
//   - src: The source quadrilateral.
//   - dst: The destination quadrilateral.
//
// Returns:
//   - Homography: The transform H with dst[i] ~ H * src[i].
//   - error: A *DegenerateGeometryError when either quad is degenerate or the system is
//     singular.
//
// @example
//
//	h, err := geometry.NewHomography(markers, geometry.RectQuad(0, 0, 600, 300))
//	if err != nil {
//	    return err
//	}
//	p, _ := h.Apply(markers[geometry.TopLeft]) // ~ (0, 0)
func NewHomography(src, dst Quad) (Homography, error) {
	if err := src.Validate(); err != nil {
		return Homography{}, err
	}
	if err := dst.Validate(); err != nil {
		return Homography{}, err
	}

	a := mat.NewDense(8, 8, nil)
	b := mat.NewVecDense(8, nil)
	for i := 0; i < 4; i++ {
		x, y := src[i].X, src[i].Y
		u, v := dst[i].X, dst[i].Y
		a.SetRow(2*i, []float64{x, y, 1, 0, 0, 0, -u * x, -u * y})
		a.SetRow(2*i+1, []float64{0, 0, 0, x, y, 1, -v * x, -v * y})
		b.SetVec(2*i, u)
		b.SetVec(2*i+1, v)
	}

	var h mat.VecDense
	if err := h.SolveVec(a, b); err != nil {
		return Homography{}, degenerate("correspondence system is singular: %v", err)
	}

	out := Homography{
		h.AtVec(0), h.AtVec(1), h.AtVec(2),
		h.AtVec(3), h.AtVec(4), h.AtVec(5),
		h.AtVec(6), h.AtVec(7), 1,
	}
	for _, v := range out {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Homography{}, degenerate("transform has non-finite coefficients")
		}
	}
	if math.Abs(out.Det()) < singularTolerance {
		return Homography{}, degenerate("transform is not invertible (det=%g)", out.Det())
	}
	return out, nil
}

func (h Homography) dense() *mat.Dense {
	return mat.NewDense(3, 3, h[:])
}

// Det returns the determinant of the 3x3 matrix.
func (h Homography) Det() float64 {
	return mat.Det(h.dense())
}

// Inverse returns the inverse transform, normalised so that its last element is 1.
func (h Homography) Inverse() (Homography, error) {
	var inv mat.Dense
	if err := inv.Inverse(h.dense()); err != nil {
		return Homography{}, degenerate("transform is not invertible: %v", err)
	}
	var out Homography
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out[r*3+c] = inv.At(r, c)
		}
	}
	if out[8] == 0 {
		return Homography{}, degenerate("inverse maps the origin to infinity")
	}
	k := 1 / out[8]
	for i := range out {
		out[i] *= k
	}
	return out, nil
}

// Apply maps p through the transform. ok is false when p maps to the line at infinity.
func (h Homography) Apply(p Point2D) (Point2D, bool) {
	w := h[6]*p.X + h[7]*p.Y + h[8]
	if w == 0 {
		return Point2D{}, false
	}
	return Point2D{
		X: (h[0]*p.X + h[1]*p.Y + h[2]) / w,
		Y: (h[3]*p.X + h[4]*p.Y + h[5]) / w,
	}, true
}

// Matrix returns the transform as three rows.
func (h Homography) Matrix() [3][3]float64 {
	return [3][3]float64{
		{h[0], h[1], h[2]},
		{h[3], h[4], h[5]},
		{h[6], h[7], h[8]},
	}
}
