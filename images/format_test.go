package images

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeFormats(t *testing.T) {
	src := getTestImage(32, 24)

	for _, format := range []ImageFormat{FormatJPEG, FormatPNG, FormatGIF, FormatBMP, FormatWebP} {
		t.Run(string(format), func(t *testing.T) {
			enc, err := Encode(src, format, 90)
			require.NoError(t, err)
			assert.Equal(t, 32, enc.Width)
			assert.Equal(t, 24, enc.Height)

			img, detected, err := Decode(enc.Data)
			require.NoError(t, err)
			assert.Equal(t, format, detected)
			assert.Equal(t, 32, img.Bounds().Dx())
			assert.Equal(t, 24, img.Bounds().Dy())
		})
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, _, err := Decode(nil)
	assert.Error(t, err)

	_, _, err = Decode([]byte("not an image"))
	assert.Error(t, err)
}

func TestLoadAndSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "card.png")

	src := getTestImage(40, 30)
	require.NoError(t, Save(path, src, 0))

	img, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Checksum(src), Checksum(img), "png round trip is lossless")
}

func TestLoadErrorsAreTyped(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.jpg"))
	var loadErr *ImageLoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Contains(t, loadErr.Path, "missing.jpg")

	bad := filepath.Join(dir, "bad.png")
	require.NoError(t, os.WriteFile(bad, []byte("garbage"), 0o644))
	_, err = Load(bad)
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, bad, loadErr.Path)
}

func TestFormatFromPath(t *testing.T) {
	f, err := FormatFromPath("/tmp/IMG_0001.JPG")
	require.NoError(t, err)
	assert.Equal(t, FormatJPEG, f)

	assert.True(t, IsSupportedPath("a.webp"))
	assert.False(t, IsSupportedPath("a.tiff"))
}
