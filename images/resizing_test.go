package images

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getTestImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	return img
}

func TestResizeIfLargerNoOpWithinBound(t *testing.T) {
	tests := []struct {
		name string
		size image.Point
		max  image.Point
	}{
		{"smaller in both", image.Pt(320, 200), image.Pt(600, 300)},
		{"equal to bound", image.Pt(600, 300), image.Pt(600, 300)},
		{"equal width", image.Pt(600, 100), image.Pt(600, 300)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := getTestImage(tt.size.X, tt.size.Y)
			out, err := ResizeIfLarger(src, tt.max, LanczosFilter)
			require.NoError(t, err)
			assert.Equal(t, Checksum(src), Checksum(out), "image within bound must be unchanged")
			assert.NotSame(t, src, out, "result must be a new image")
		})
	}
}

func TestResizeIfLargerPreservesAspect(t *testing.T) {
	tests := []struct {
		name     string
		size     image.Point
		max      image.Point
		expected image.Point
	}{
		{"width bound", image.Pt(1200, 400), image.Pt(600, 300), image.Pt(600, 200)},
		{"height bound", image.Pt(800, 600), image.Pt(600, 300), image.Pt(400, 300)},
		{"both over", image.Pt(4000, 3000), image.Pt(1000, 1000), image.Pt(1000, 750)},
		{"tall", image.Pt(300, 1200), image.Pt(600, 300), image.Pt(75, 300)},
		{"odd ratio", image.Pt(1001, 777), image.Pt(640, 480), image.Pt(618, 480)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := getTestImage(tt.size.X, tt.size.Y)
			out, err := ResizeIfLarger(src, tt.max, BilinearFilter)
			require.NoError(t, err)

			got := out.Bounds().Size()
			assert.Equal(t, tt.expected, got)
			assert.LessOrEqual(t, got.X, tt.max.X)
			assert.LessOrEqual(t, got.Y, tt.max.Y)

			inRatio := float64(tt.size.X) / float64(tt.size.Y)
			outRatio := float64(got.X) / float64(got.Y)
			// One pixel of rounding on the shorter side bounds the ratio error.
			tolerance := inRatio / float64(min(got.X, got.Y))
			assert.InDelta(t, inRatio, outRatio, tolerance)
		})
	}
}

func TestResizeIfLargerDoesNotMutateInput(t *testing.T) {
	src := getTestImage(900, 700)
	before := Checksum(src)

	_, err := ResizeIfLarger(src, image.Pt(300, 300), "")
	require.NoError(t, err)
	assert.Equal(t, before, Checksum(src))
}

func TestResizeIfLargerErrors(t *testing.T) {
	_, err := ResizeIfLarger(nil, image.Pt(10, 10), "")
	assert.Error(t, err)

	_, err = ResizeIfLarger(image.NewRGBA(image.Rect(0, 0, 0, 0)), image.Pt(10, 10), "")
	assert.Error(t, err)

	_, err = ResizeIfLarger(getTestImage(10, 10), image.Pt(0, 10), "")
	assert.Error(t, err)

	_, err = ResizeIfLarger(getTestImage(10, 10), image.Pt(5, 5), ResampleFilter("sinc"))
	assert.Error(t, err)
}

func TestFitWithin(t *testing.T) {
	size, scale := FitWithin(image.Pt(800, 600), image.Pt(600, 300))
	assert.Equal(t, image.Pt(400, 300), size)
	assert.InDelta(t, 0.5, scale, 1e-12)

	size, scale = FitWithin(image.Pt(10, 10), image.Pt(600, 300))
	assert.Equal(t, image.Pt(10, 10), size)
	assert.Equal(t, 1.0, scale)

	size, _ = FitWithin(image.Pt(10000, 1), image.Pt(100, 100))
	assert.Equal(t, image.Pt(100, 1), size, "dimensions never collapse to zero")
}
