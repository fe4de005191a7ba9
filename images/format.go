package images

import (
	"bytes"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/pkg/errors"
	"golang.org/x/image/bmp"
)

// ImageFormat represents supported image formats.
type ImageFormat string

const (
	// FormatJPEG is the JPEG image format.
	FormatJPEG ImageFormat = "jpeg"
	// FormatPNG is the PNG image format.
	FormatPNG ImageFormat = "png"
	// FormatGIF is the GIF image format (first frame only).
	FormatGIF ImageFormat = "gif"
	// FormatBMP is the BMP image format.
	FormatBMP ImageFormat = "bmp"
	// FormatWebP is the WebP image format.
	FormatWebP ImageFormat = "webp"
)

// DefaultJPEGQuality is used by Encode when no quality is given.
const DefaultJPEGQuality = 92

var extensions = map[string]ImageFormat{
	".jpg":  FormatJPEG,
	".jpeg": FormatJPEG,
	".png":  FormatPNG,
	".gif":  FormatGIF,
	".bmp":  FormatBMP,
	".webp": FormatWebP,
}

// FormatFromPath returns the format implied by the file extension of path.
func FormatFromPath(path string) (ImageFormat, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if f, ok := extensions[ext]; ok {
		return f, nil
	}
	return "", errors.Errorf("unsupported image extension %q", ext)
}

// IsSupportedPath reports whether path has an image extension this package can decode.
func IsSupportedPath(path string) bool {
	_, err := FormatFromPath(path)
	return err == nil
}

// sniff identifies the container format from the leading bytes.
func sniff(data []byte) (ImageFormat, bool) {
	switch {
	case len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF:
		return FormatJPEG, true
	case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return FormatPNG, true
	case bytes.HasPrefix(data, []byte("GIF8")):
		return FormatGIF, true
	case bytes.HasPrefix(data, []byte("BM")):
		return FormatBMP, true
	case len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		return FormatWebP, true
	}
	return "", false
}

// Decode decodes an encoded image, detecting the format from its content.
//
// Arguments:
// - data: The encoded image bytes.
//
// Returns:
// - The decoded image.
// - The detected format.
// - error if the format is unknown or decoding fails.
func Decode(data []byte) (image.Image, ImageFormat, error) {
	if len(data) == 0 {
		return nil, "", errors.New("empty image data")
	}
	format, ok := sniff(data)
	if !ok {
		return nil, "", errors.New("unrecognised image format")
	}

	r := bytes.NewReader(data)
	var (
		img image.Image
		err error
	)
	switch format {
	case FormatJPEG:
		img, err = jpeg.Decode(r)
	case FormatPNG:
		img, err = png.Decode(r)
	case FormatGIF:
		img, err = gif.Decode(r)
	case FormatBMP:
		img, err = bmp.Decode(r)
	case FormatWebP:
		img, err = webp.Decode(r)
	}
	if err != nil {
		return nil, format, errors.Wrapf(err, "decode %s", format)
	}
	if b := img.Bounds(); b.Empty() {
		return nil, format, errors.Errorf("decoded %s image has empty bounds %v", format, b)
	}
	return img, format, nil
}

// Image is an encoded image held in memory with the dimensions it decodes to.
type Image struct {
	Format ImageFormat `json:"format" yaml:"format"`
	Data   []byte      `json:"data" yaml:"data"`
	Width  int         `json:"width" yaml:"width"`
	Height int         `json:"height" yaml:"height"`
}

// Encode encodes img in the given format.
//
// Arguments:
// - img: The image to encode.
// - format: The target format.
// - quality: JPEG/WebP quality in [1, 100]; 0 selects DefaultJPEGQuality.
//
// Returns:
// - The encoded Image.
// - error if the format is unsupported or encoding fails.
func Encode(img image.Image, format ImageFormat, quality int) (*Image, error) {
	if img == nil {
		return nil, errors.New("encode: image is nil")
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}

	var buf bytes.Buffer
	var err error
	switch format {
	case FormatJPEG:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality})
	case FormatPNG:
		err = png.Encode(&buf, img)
	case FormatGIF:
		err = gif.Encode(&buf, img, nil)
	case FormatBMP:
		err = bmp.Encode(&buf, img)
	case FormatWebP:
		err = webp.Encode(&buf, img, &webp.Options{Quality: float32(quality)})
	default:
		return nil, errors.Errorf("encode: unsupported format %q", format)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "encode %s", format)
	}

	b := img.Bounds()
	return &Image{Format: format, Data: buf.Bytes(), Width: b.Dx(), Height: b.Dy()}, nil
}

// WriteTo writes the encoded bytes to w.
func (i *Image) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(i.Data)
	return int64(n), err
}
