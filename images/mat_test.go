package images

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{uint8(10 * x), uint8(10 * y), uint8(x + y), 255})
		}
	}
	return img
}

func TestMatRoundTrip(t *testing.T) {
	src := gradient(16, 12)
	mat, err := ToMat(src)
	require.NoError(t, err)
	defer mat.Close()

	assert.Equal(t, 12, mat.Rows())
	assert.Equal(t, 16, mat.Cols())

	out, err := FromMat(mat)
	require.NoError(t, err)
	assert.Equal(t, Checksum(src), Checksum(out))
}

func TestToMatSubImage(t *testing.T) {
	src := gradient(20, 20)
	sub := src.SubImage(image.Rect(5, 4, 15, 12)).(*image.RGBA)

	mat, err := ToMat(sub)
	require.NoError(t, err)
	defer mat.Close()
	assert.Equal(t, 8, mat.Rows())
	assert.Equal(t, 10, mat.Cols())

	out, err := FromMat(mat)
	require.NoError(t, err)
	assert.Equal(t, Checksum(ToRGBA(sub)), Checksum(out))
	assert.Equal(t, src.RGBAAt(5, 4), out.RGBAAt(0, 0))
	assert.Equal(t, src.RGBAAt(14, 11), out.RGBAAt(9, 7))
}

func TestToMatNonRGBA(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 4, 4))
	src.SetGray(2, 1, color.Gray{Y: 200})

	mat, err := ToMat(src)
	require.NoError(t, err)
	defer mat.Close()

	out, err := FromMat(mat)
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{200, 200, 200, 255}, out.RGBAAt(2, 1))
}

func TestToMatEmpty(t *testing.T) {
	_, err := ToMat(nil)
	assert.Error(t, err)
	_, err = ToMat(image.NewRGBA(image.Rect(0, 0, 0, 0)))
	assert.Error(t, err)
}
