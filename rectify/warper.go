package rectify

import (
	"image"
	"image/color"

	"github.com/nvr-ai/go-fiducial/geometry"
	"github.com/nvr-ai/go-fiducial/images"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Backend names a Warper implementation.
type Backend string

const (
	// BackendNative warps in pure Go.
	BackendNative Backend = "native"
	// BackendOpenCV warps with OpenCV's warpPerspective.
	BackendOpenCV Backend = "opencv"
)

// Warper maps a whole image through a forward perspective transform into a new image of
// the given size, filling unmapped pixels with background.
type Warper interface {
	Warp(src image.Image, h geometry.Homography, size image.Point, background color.RGBA) (*image.RGBA, error)
}

// NewWarper returns the Warper for backend; empty selects BackendNative.
func NewWarper(backend Backend) (Warper, error) {
	switch backend {
	case "", BackendNative:
		return NativeWarper{}, nil
	case BackendOpenCV:
		return OpenCVWarper{}, nil
	default:
		return nil, errors.Errorf("unknown warp backend %q", backend)
	}
}

// NativeWarper warps with bilinear sampling in pure Go.
type NativeWarper struct{}

// Warp implements Warper.
func (NativeWarper) Warp(src image.Image, h geometry.Homography, size image.Point, background color.RGBA) (*image.RGBA, error) {
	return images.WarpPerspective(src, h, size, background)
}

// OpenCVWarper warps with gocv using linear interpolation and a constant border.
type OpenCVWarper struct{}

// Warp implements Warper.
func (OpenCVWarper) Warp(src image.Image, h geometry.Homography, size image.Point, background color.RGBA) (*image.RGBA, error) {
	if size.X <= 0 || size.Y <= 0 {
		return nil, errors.Errorf("warp: invalid output size %dx%d", size.X, size.Y)
	}
	// OpenCV would silently produce a blank image for a singular matrix.
	if _, err := h.Inverse(); err != nil {
		return nil, err
	}

	in, err := images.ToMat(src)
	if err != nil {
		return nil, errors.Wrap(err, "warp")
	}
	defer in.Close()

	m := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV64F)
	defer m.Close()
	rows := h.Matrix()
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			m.SetDoubleAt(r, c, rows[r][c])
		}
	}

	out := gocv.NewMat()
	defer out.Close()
	if err := gocv.WarpPerspectiveWithParams(in, &out, m, size,
		gocv.InterpolationLinear, gocv.BorderConstant, background); err != nil {
		return nil, errors.Wrap(err, "warp")
	}

	return images.FromMat(out)
}
