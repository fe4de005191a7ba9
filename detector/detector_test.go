package detector

import (
	"errors"
	"image"
	"testing"

	"github.com/nvr-ai/go-fiducial/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(id uint, x, y, side float64) Marker {
	return Marker{ID: id, Corners: geometry.RectQuad(x, y, x+side, y+side)}
}

func TestMarkerSetIDsAndWithout(t *testing.T) {
	set := MarkerSet{square(3, 0, 0, 10), square(1, 20, 0, 10), square(2, 20, 20, 10), square(1, 40, 40, 10)}

	assert.Equal(t, []uint{1, 1, 2, 3}, set.IDs())
	assert.Equal(t, []uint{2, 3}, set.Without(1).IDs())
	assert.Len(t, set, 4, "Without must not modify the receiver")
}

func TestMarkerCenter(t *testing.T) {
	assert.Equal(t, geometry.Pt(15, 25), square(0, 10, 20, 10).Center())
}

func TestStaticDetector(t *testing.T) {
	markers := MarkerSet{square(0, 0, 0, 5)}
	det := &Static{Markers: markers}

	got, _, err := det.Detect(image.NewRGBA(image.Rect(0, 0, 1, 1)))
	require.NoError(t, err)
	assert.Equal(t, markers, got)

	got[0].ID = 9
	assert.Equal(t, uint(0), det.Markers[0].ID, "result must be a copy")

	_, _, err = det.Detect(nil)
	assert.Error(t, err)

	boom := errors.New("boom")
	_, _, err = (&Static{Err: boom}).Detect(image.NewRGBA(image.Rect(0, 0, 1, 1)))
	assert.ErrorIs(t, err, boom)
}
