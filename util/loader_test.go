package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) string {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	return path
}

func TestListImageFiles(t *testing.T) {
	dir := t.TempDir()
	b := touch(t, filepath.Join(dir, "b.JPG"))
	a := touch(t, filepath.Join(dir, "a.png"))
	c := touch(t, filepath.Join(dir, "c.webp"))
	touch(t, filepath.Join(dir, "notes.txt"))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.png"), 0o755))

	files, err := ListImageFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{a, b, c}, files)

	_, err = ListImageFiles(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestExpandInputs(t *testing.T) {
	dir := t.TempDir()
	scans := filepath.Join(dir, "scans")
	require.NoError(t, os.Mkdir(scans, 0o755))
	s1 := touch(t, filepath.Join(scans, "01.jpg"))
	s2 := touch(t, filepath.Join(scans, "02.jpeg"))
	single := touch(t, filepath.Join(dir, "single.bmp"))

	files, err := ExpandInputs([]string{single, scans, s1})
	require.NoError(t, err)
	assert.Equal(t, []string{single, s1, s2}, files)

	_, err = ExpandInputs([]string{filepath.Join(dir, "nope.jpg")})
	assert.Error(t, err)

	files, err = ExpandInputs(nil)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		input, dir, suffix, want string
	}{
		{"scans/card.jpg", "", "_rectified", filepath.Join("scans", "card_rectified.jpg")},
		{"card.png", "", "_rectified", "card_rectified.png"},
		{"scans/card.jpg", "out", "_rectified", filepath.Join("out", "card_rectified.jpg")},
		{"/data/a.b.webp", "/tmp", "", filepath.Join("/tmp", "a.b.webp")},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, OutputPath(tt.input, tt.dir, tt.suffix), tt.input)
	}
}
