package images

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolution_GetMegaPixels(t *testing.T) {
	testCases := []struct {
		name     string
		res      Resolution
		expected float64
	}{
		{"Full HD 1080p", resolutions[ResolutionTypeFHD], 2.07},
		{"12MP", resolutions[ResolutionType12MP], 12},
		{"VGA", resolutions[ResolutionTypeVGA], 0.31},
		{"Zero Width", Resolution{Pixels: ResolutionPixels{Width: 0, Height: 1080}}, 0},
		{"Negative Height", Resolution{Pixels: ResolutionPixels{Width: 1920, Height: -1}}, 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.expected, tc.res.GetMegaPixels(), 1e-9)
		})
	}
}

func TestGetAllResolutionsSorted(t *testing.T) {
	all := GetAllResolutions()
	require.Len(t, all, len(resolutions))
	for i := 1; i < len(all); i++ {
		prev, cur := all[i-1].Pixels, all[i].Pixels
		assert.LessOrEqual(t, prev.Width*prev.Height, cur.Width*cur.Height)
	}
	assert.Equal(t, ResolutionTypeVGA, all[0].Name)
}

func TestGetResolutionByType(t *testing.T) {
	res, ok := GetResolutionByType(ResolutionType5MP)
	require.True(t, ok)
	assert.Equal(t, image.Pt(2592, 1944), res.Size())
	assert.Equal(t, "5MP (4:3) (2592x1944, 5.04MP)", res.String())

	_, ok = GetResolutionByType("nope")
	assert.False(t, ok)
}

func TestGetHighestResolutionUnderDimensions(t *testing.T) {
	res, ok := GetHighestResolutionUnderDimensions(2000, 1500)
	require.True(t, ok)
	assert.Equal(t, ResolutionTypeFHD, res.Name)

	_, ok = GetHighestResolutionUnderDimensions(100, 100)
	assert.False(t, ok)
}
