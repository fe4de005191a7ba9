package images

import (
	"fmt"
	"image"
	"os"

	"github.com/pkg/errors"
)

// ImageLoadError reports that a source image could not be read or decoded. The caller
// may retry with a different file.
type ImageLoadError struct {
	Path string
	Err  error
}

func (e *ImageLoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("failed to load image: %v", e.Err)
	}
	return fmt.Sprintf("failed to load image %q: %v", e.Path, e.Err)
}

func (e *ImageLoadError) Unwrap() error {
	return e.Err
}

// NoImageLoadedError reports a rectification requested without a source image.
type NoImageLoadedError struct {
	// Cause is the error of the last failed load, if any.
	Cause error
}

func (e *NoImageLoadedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("no image was loaded: %v", e.Cause)
	}
	return "no image was previously loaded, load an image first"
}

func (e *NoImageLoadedError) Unwrap() error {
	return e.Cause
}

// Load reads and decodes the image at path into an owned RGBA buffer.
//
// Arguments:
// - path: Filesystem path of a JPEG, PNG, GIF, BMP or WebP file.
//
// Returns:
// - The decoded image, bounds starting at (0, 0).
// - *ImageLoadError if the file cannot be read or decoded.
//
// @example
//
//	img, err := images.Load("card.jpg")
//	if err != nil {
//	    var loadErr *images.ImageLoadError
//	    if errors.As(err, &loadErr) { ... }
//	}
func Load(path string) (*image.RGBA, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ImageLoadError{Path: path, Err: errors.WithStack(err)}
	}
	img, err := LoadBytes(data)
	if err != nil {
		var loadErr *ImageLoadError
		if errors.As(err, &loadErr) {
			loadErr.Path = path
		}
		return nil, err
	}
	return img, nil
}

// LoadBytes decodes an in-memory encoded image into an owned RGBA buffer.
func LoadBytes(data []byte) (*image.RGBA, error) {
	img, _, err := Decode(data)
	if err != nil {
		return nil, &ImageLoadError{Err: err}
	}
	return ToRGBA(img), nil
}

// Save encodes img in the format implied by path's extension and writes it to path.
func Save(path string, img image.Image, quality int) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	enc, err := Encode(img, format, quality)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, enc.Data, 0o644); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return nil
}
