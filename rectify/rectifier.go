// Package rectify warps a photographed card onto a canonical, fixed-size output frame.
package rectify

import (
	"fmt"
	"image"
	"image/color"

	"github.com/nvr-ai/go-fiducial/geometry"
	"github.com/nvr-ai/go-fiducial/images"
	"github.com/pkg/errors"
)

// Rectifier derives and applies the perspective correction for an ordered marker quad.
type Rectifier struct {
	Warper     Warper
	Background color.RGBA
	Debug      bool
}

// New returns a rectifier using the given backend and a black background.
func New(backend Backend) (*Rectifier, error) {
	w, err := NewWarper(backend)
	if err != nil {
		return nil, err
	}
	return &Rectifier{Warper: w, Background: color.RGBA{A: 255}}, nil
}

// Transform returns the homography taking quad onto spec's target rectangle.
func Transform(quad geometry.Quad, spec OutputSpec) (geometry.Homography, error) {
	if err := spec.Validate(); err != nil {
		return geometry.Homography{}, err
	}
	return geometry.NewHomography(quad, spec.Target())
}

// Rectify warps img so that quad lands on spec's target rectangle and returns exactly
// spec.Width x spec.Height pixels.
//
// The transform is solved from the four quad points to the four target corners in the
// same order (top-left to top-left and so on). The whole source image is warped into the
// output frame; pixels with no source are filled with the background colour. The frame
// is then cropped at the origin to the exact requested size.
//
// Arguments:
//   - img: The (resized) photograph the quad was detected in.
//   - quad: The ordered marker quadrilateral.
//   - spec: The requested output.
//
// Returns:
//   - *image.RGBA: A new image of exactly spec.Width x spec.Height.
//   - error: *OutputSpecError for an invalid spec, *geometry.DegenerateGeometryError when
//     the quad is degenerate, *images.NoImageLoadedError if img is missing or empty.
//
// @example
//
//	out, err := rectifier.Rectify(working, quad, rectify.OutputSpec{Width: 600, Height: 300, Zoom: 1.2})
func (r *Rectifier) Rectify(img image.Image, quad geometry.Quad, spec OutputSpec) (*image.RGBA, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, &images.NoImageLoadedError{}
	}
	h, err := Transform(quad, spec)
	if err != nil {
		return nil, err
	}

	warper := r.Warper
	if warper == nil {
		warper = NativeWarper{}
	}

	frame := frameSize(spec)
	warped, err := warper.Warp(img, h, frame, r.Background)
	if err != nil {
		return nil, err
	}

	if r.Debug {
		fmt.Printf("[DEBUG] rectify: quad %s -> target %s, frame %dx%d\n", quad, spec.Target(), frame.X, frame.Y)
	}

	out, err := images.Crop(warped, image.Rect(0, 0, spec.Width, spec.Height))
	if err != nil {
		return nil, errors.Wrap(err, "rectify")
	}
	return out, nil
}

// frameSize is the smallest integer frame holding both the requested output and the
// target rectangle.
func frameSize(spec OutputSpec) image.Point {
	w, h := spec.Width, spec.Height
	for _, p := range spec.Target() {
		w = max(w, int(p.X+0.5))
		h = max(h, int(p.Y+0.5))
	}
	return image.Pt(w, h)
}
