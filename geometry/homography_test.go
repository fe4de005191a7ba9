package geometry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHomographyMapsCorrespondences(t *testing.T) {
	src := Quad{Pt(52, 48), Pt(748, 61), Pt(731, 556), Pt(44, 540)}
	dst := RectQuad(0, 0, 600, 300)

	h, err := NewHomography(src, dst)
	require.NoError(t, err)

	for i := range src {
		got, ok := h.Apply(src[i])
		require.True(t, ok)
		assert.InDelta(t, dst[i].X, got.X, 1e-6, "x of %s", Corner(i))
		assert.InDelta(t, dst[i].Y, got.Y, 1e-6, "y of %s", Corner(i))
	}
}

func TestNewHomographyIdentity(t *testing.T) {
	q := RectQuad(10, 20, 110, 70)
	h, err := NewHomography(q, q)
	require.NoError(t, err)

	id := Identity()
	for i := range h {
		assert.InDelta(t, id[i], h[i], 1e-9)
	}
}

func TestHomographyInverseRoundTrip(t *testing.T) {
	src := Quad{Pt(100, 80), Pt(500, 120), Pt(520, 400), Pt(90, 380)}
	h, err := NewHomography(src, RectQuad(0, 0, 300, 200))
	require.NoError(t, err)

	inv, err := h.Inverse()
	require.NoError(t, err)

	p := Pt(250, 260)
	mapped, ok := h.Apply(p)
	require.True(t, ok)
	back, ok := inv.Apply(mapped)
	require.True(t, ok)
	assert.InDelta(t, p.X, back.X, 1e-6)
	assert.InDelta(t, p.Y, back.Y, 1e-6)
}

func TestNewHomographyDegenerate(t *testing.T) {
	tests := []struct {
		name string
		src  Quad
	}{
		{
			name: "three collinear points",
			src:  Quad{Pt(0, 0), Pt(50, 0), Pt(100, 0), Pt(0, 100)},
		},
		{
			name: "all points collinear",
			src:  Quad{Pt(0, 0), Pt(10, 10), Pt(20, 20), Pt(30, 30)},
		},
		{
			name: "coincident corners",
			src:  Quad{Pt(5, 5), Pt(5, 5), Pt(100, 100), Pt(0, 100)},
		},
		{
			name: "single point",
			src:  Quad{Pt(7, 7), Pt(7, 7), Pt(7, 7), Pt(7, 7)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewHomography(tt.src, RectQuad(0, 0, 600, 300))
			require.Error(t, err)

			var dge *DegenerateGeometryError
			assert.True(t, errors.As(err, &dge), "expected DegenerateGeometryError, got %T", err)
		})
	}
}

func TestQuadArea(t *testing.T) {
	assert.InDelta(t, 5000.0, RectQuad(0, 0, 100, 50).Area(), 1e-9)
	assert.InDelta(t, 0.0, Quad{Pt(0, 0), Pt(1, 1), Pt(2, 2), Pt(3, 3)}.Area(), 1e-9)
}

func TestCentroid(t *testing.T) {
	c := Centroid(Pt(0, 0), Pt(10, 0), Pt(10, 10), Pt(0, 10))
	assert.Equal(t, Pt(5, 5), c)
	assert.Equal(t, Point2D{}, Centroid())
}
