package images

import (
	"image"
	"math"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
)

// ResampleFilter selects the interpolation used when scaling.
type ResampleFilter string

const (
	// NearestNeighborFilter is the fastest, lowest quality filter.
	NearestNeighborFilter ResampleFilter = "nearest"
	// BilinearFilter is a fast, good quality filter.
	BilinearFilter ResampleFilter = "bilinear"
	// BicubicFilter trades speed for sharper results.
	BicubicFilter ResampleFilter = "bicubic"
	// MitchellNetravaliFilter balances sharpness and ringing.
	MitchellNetravaliFilter ResampleFilter = "mitchell"
	// LanczosFilter is the slowest, best quality filter.
	LanczosFilter ResampleFilter = "lanczos"
)

var interpolations = map[ResampleFilter]resize.InterpolationFunction{
	NearestNeighborFilter:   resize.NearestNeighbor,
	BilinearFilter:          resize.Bilinear,
	BicubicFilter:           resize.Bicubic,
	MitchellNetravaliFilter: resize.MitchellNetravali,
	LanczosFilter:           resize.Lanczos3,
}

// Valid reports whether f names a known filter.
func (f ResampleFilter) Valid() bool {
	_, ok := interpolations[f]
	return ok
}

// FitWithin returns the largest size with the aspect ratio of src that fits inside bound,
// and the scale factor applied. Sizes already inside bound are returned unchanged with a
// scale of 1; nothing is ever scaled up.
//
// Arguments:
//   - src: The source dimensions.
//   - bound: The bounding dimensions.
//
// Returns:
//   - image.Point: The fitted dimensions, each at least 1.
//   - float64: The uniform scale factor.
//
// @example
//
//	size, scale := FitWithin(image.Pt(800, 600), image.Pt(600, 300)) // (400, 300), 0.5
func FitWithin(src, bound image.Point) (image.Point, float64) {
	if src.X <= bound.X && src.Y <= bound.Y {
		return src, 1
	}
	scale := math.Min(float64(bound.X)/float64(src.X), float64(bound.Y)/float64(src.Y))

	// The epsilon absorbs representation error so exact ratios are not floored one short.
	w := int(math.Floor(float64(src.X)*scale + 1e-9))
	h := int(math.Floor(float64(src.Y)*scale + 1e-9))
	w = min(bound.X, max(1, w))
	h = min(bound.Y, max(1, h))
	return image.Pt(w, h), scale
}

// ResizeIfLarger bounds img to maxSize while preserving its aspect ratio.
//
// If either dimension of img exceeds the corresponding dimension of maxSize, the whole
// image is scaled down uniformly by the largest factor that makes both dimensions fit.
// Otherwise an unchanged copy is returned: images are never scaled up.
//
// Arguments:
//   - img: The source image.
//   - maxSize: The bounding size; both components must be positive.
//   - filter: The interpolation to use; empty selects LanczosFilter.
//
// Returns:
//   - *image.RGBA: A new image no larger than maxSize in either dimension.
//   - error: If img is nil or empty, maxSize is not positive or filter is unknown.
//
// @example
//
//	working, err := images.ResizeIfLarger(photo, image.Pt(600, 300), images.LanczosFilter)
func ResizeIfLarger(img image.Image, maxSize image.Point, filter ResampleFilter) (*image.RGBA, error) {
	if img == nil {
		return nil, errors.New("resize: image is nil")
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, errors.Errorf("resize: image has empty bounds %v", b)
	}
	if maxSize.X <= 0 || maxSize.Y <= 0 {
		return nil, errors.Errorf("resize: invalid maximum size %dx%d", maxSize.X, maxSize.Y)
	}
	if filter == "" {
		filter = LanczosFilter
	}
	interp, ok := interpolations[filter]
	if !ok {
		return nil, errors.Errorf("resize: unknown filter %q", filter)
	}

	size, scale := FitWithin(b.Size(), maxSize)
	if scale == 1 {
		return ToRGBA(img), nil
	}
	return ToRGBA(resize.Resize(uint(size.X), uint(size.Y), img, interp)), nil
}
