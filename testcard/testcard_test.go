package testcard

import (
	"image"
	"testing"

	"github.com/nvr-ai/go-fiducial/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderDefaults(t *testing.T) {
	card, err := Render(Defaults())
	require.NoError(t, err)

	assert.Equal(t, image.Rect(0, 0, 800, 600), card.Image.Bounds())
	require.Len(t, card.Markers, 4)

	centers := []geometry.Point2D{{X: 49.5, Y: 49.5}, {X: 749.5, Y: 49.5}, {X: 749.5, Y: 549.5}, {X: 49.5, Y: 549.5}}
	for i, m := range card.Markers {
		assert.Equal(t, uint(i), m.ID)
		assert.InDelta(t, centers[i].X, m.Center().X, 1e-9)
		assert.InDelta(t, centers[i].Y, m.Center().Y, 1e-9)
	}

	assert.Equal(t, QuadrantColors[geometry.TopLeft], card.Image.RGBAAt(300, 250))
	assert.Equal(t, QuadrantColors[geometry.BottomRight], card.Image.RGBAAt(500, 350))
}

func TestRenderOmit(t *testing.T) {
	opts := Defaults()
	opts.Omit = []uint{2}
	card, err := Render(opts)
	require.NoError(t, err)

	require.Len(t, card.Markers, 3)
	for _, m := range card.Markers {
		assert.NotEqual(t, uint(2), m.ID)
	}
}

func TestRenderValidation(t *testing.T) {
	opts := Defaults()
	opts.MarkerSide = 400
	_, err := Render(opts)
	assert.Error(t, err)

	opts = Defaults()
	opts.Dictionary = "nope"
	_, err = Render(opts)
	assert.Error(t, err)
}
