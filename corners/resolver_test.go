package corners

import (
	"errors"
	"testing"

	"github.com/nvr-ai/go-fiducial/detector"
	"github.com/nvr-ai/go-fiducial/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func marker(id uint, cx, cy float64) detector.Marker {
	return detector.Marker{ID: id, Corners: geometry.RectQuad(cx-10, cy-10, cx+10, cy+10)}
}

func cardMarkers() detector.MarkerSet {
	return detector.MarkerSet{
		marker(0, 50, 50),
		marker(1, 750, 50),
		marker(2, 750, 550),
		marker(3, 50, 550),
	}
}

func TestResolveOrdersByID(t *testing.T) {
	r, err := NewResolver(Centroid)
	require.NoError(t, err)

	expected := geometry.Quad{geometry.Pt(50, 50), geometry.Pt(750, 50), geometry.Pt(750, 550), geometry.Pt(50, 550)}

	orders := [][]int{{0, 1, 2, 3}, {3, 2, 1, 0}, {2, 0, 3, 1}, {1, 3, 0, 2}}
	for _, order := range orders {
		set := cardMarkers()
		shuffled := make(detector.MarkerSet, 0, 4)
		for _, i := range order {
			shuffled = append(shuffled, set[i])
		}

		quad, err := r.Resolve(shuffled)
		require.NoError(t, err, "order %v", order)
		assert.Equal(t, expected, quad, "order %v", order)
	}
}

func TestResolveOuterCorner(t *testing.T) {
	r, err := NewResolver(OuterCorner)
	require.NoError(t, err)

	quad, err := r.Resolve(cardMarkers())
	require.NoError(t, err)
	assert.Equal(t, geometry.Pt(40, 40), quad[geometry.TopLeft])
	assert.Equal(t, geometry.Pt(760, 40), quad[geometry.TopRight])
	assert.Equal(t, geometry.Pt(760, 560), quad[geometry.BottomRight])
	assert.Equal(t, geometry.Pt(40, 560), quad[geometry.BottomLeft])
}

func TestResolveMarkerCount(t *testing.T) {
	r, err := NewResolver("")
	require.NoError(t, err)

	tests := []struct {
		name  string
		set   detector.MarkerSet
		found int
	}{
		{"none", nil, 0},
		{"three", cardMarkers().Without(2), 3},
		{"five", append(cardMarkers(), marker(7, 400, 300)), 5},
		{"five with duplicate", append(cardMarkers(), marker(0, 60, 60)), 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Resolve(tt.set)
			var countErr *MarkerCountError
			require.True(t, errors.As(err, &countErr), "got %v", err)
			assert.Equal(t, tt.found, countErr.Found)
		})
	}
}

func TestMarkerCountErrorMessage(t *testing.T) {
	err := &MarkerCountError{Found: 3}
	assert.Contains(t, err.Error(), "3 markers found")
}

func TestResolveMarkerIdentity(t *testing.T) {
	r, err := NewResolver(Centroid)
	require.NoError(t, err)

	tests := []struct {
		name string
		set  detector.MarkerSet
	}{
		{"unknown id", detector.MarkerSet{marker(0, 0, 0), marker(1, 10, 0), marker(2, 10, 10), marker(5, 0, 10)}},
		{"duplicate id", detector.MarkerSet{marker(0, 0, 0), marker(1, 10, 0), marker(1, 10, 10), marker(3, 0, 10)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Resolve(tt.set)
			var idErr *MarkerIdentityError
			require.True(t, errors.As(err, &idErr), "got %v", err)
			assert.Len(t, idErr.IDs, 4)
		})
	}
}

func TestLayoutValidate(t *testing.T) {
	assert.NoError(t, DefaultLayout.Validate())

	assert.Error(t, Layout{0: geometry.TopLeft}.Validate())
	assert.Error(t, Layout{
		0: geometry.TopLeft, 1: geometry.TopLeft, 2: geometry.BottomRight, 3: geometry.BottomLeft,
	}.Validate())
	assert.Error(t, Layout{
		0: geometry.TopLeft, 1: geometry.TopRight, 2: geometry.BottomRight, 3: geometry.Corner(9),
	}.Validate())
}

func TestNewResolverRejectsUnknownMode(t *testing.T) {
	_, err := NewResolver(Representative("median"))
	assert.Error(t, err)
}
