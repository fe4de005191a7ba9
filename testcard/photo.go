package testcard

import (
	"image"
	"image/color"
	"math"

	"github.com/nvr-ai/go-fiducial/detector"
	"github.com/nvr-ai/go-fiducial/geometry"
	"github.com/nvr-ai/go-fiducial/images"
	"github.com/pkg/errors"
)

const edgeTolerance = 1e-9

// PhotoOptions describes how a card is "photographed": where it lands in a larger frame
// and how the frame is degraded.
type PhotoOptions struct {
	// Canvas is the size of the photograph.
	Canvas image.Point `json:"canvas" yaml:"canvas"`
	// Fill is the fraction of the canvas the card spans along its limiting axis, in (0, 1].
	Fill float64 `json:"fill" yaml:"fill"`
	// Rotation turns the card in the image plane, in degrees, clockwise.
	Rotation float64 `json:"rotation" yaml:"rotation"`
	// Tilt shortens the top edge by this fraction, as when the camera leans back, in
	// [0, 1).
	Tilt float64 `json:"tilt" yaml:"tilt"`
	// Blur is the radius of a box blur applied to the whole photograph; 0 keeps it sharp.
	Blur int `json:"blur" yaml:"blur"`
	// Background fills the canvas around the card.
	Background color.RGBA `json:"background" yaml:"background"`
}

// DefaultPhotoOptions returns a 1280x960 photograph with the card filling 80% of the
// frame, slightly tilted and turned.
func DefaultPhotoOptions() PhotoOptions {
	return PhotoOptions{
		Canvas:     image.Pt(1280, 960),
		Fill:       0.8,
		Rotation:   4,
		Tilt:       0.1,
		Background: color.RGBA{R: 96, G: 88, B: 80, A: 255},
	}
}

// Photo is a synthetic photograph and its ground truth.
type Photo struct {
	Image *image.RGBA
	// Markers are the card markers with their corners projected into the photograph.
	Markers detector.MarkerSet
	// Outline is the card outline in the photograph, top-left first.
	Outline geometry.Quad
	// Transform maps card pixel coordinates to photograph coordinates.
	Transform geometry.Homography
}

// Photograph projects card into a new image according to opts.
//
// Arguments:
//   - card: A rendered card.
//   - opts: Placement and degradation.
//
// Returns:
//   - *Photo: The photograph with projected ground truth.
//   - error: If the options are out of range or the card would leave the canvas.
//
// @example
//
//	card, _ := testcard.Render(testcard.Defaults())
//	photo, err := testcard.Photograph(card, testcard.DefaultPhotoOptions())
func Photograph(card *Card, opts PhotoOptions) (*Photo, error) {
	if card == nil || card.Image == nil {
		return nil, errors.New("photograph: card is nil")
	}
	switch {
	case opts.Canvas.X <= 0 || opts.Canvas.Y <= 0:
		return nil, errors.Errorf("photograph: invalid canvas %v", opts.Canvas)
	case opts.Fill <= 0 || opts.Fill > 1:
		return nil, errors.Errorf("photograph: fill must be within (0, 1], got %f", opts.Fill)
	case opts.Tilt < 0 || opts.Tilt >= 1:
		return nil, errors.Errorf("photograph: tilt must be within [0, 1), got %f", opts.Tilt)
	case opts.Blur < 0:
		return nil, errors.Errorf("photograph: blur radius must not be negative, got %d", opts.Blur)
	}

	size := card.Image.Bounds().Size()
	outline := place(size, opts)
	for _, p := range outline {
		if p.X < -0.5-edgeTolerance || p.Y < -0.5-edgeTolerance ||
			p.X > float64(opts.Canvas.X)-0.5+edgeTolerance || p.Y > float64(opts.Canvas.Y)-0.5+edgeTolerance {
			return nil, errors.Errorf("photograph: card corner %s leaves the %v canvas", p, opts.Canvas)
		}
	}

	// Card pixel centres sit on integers, so the card's outer edge is half a pixel out.
	src := geometry.RectQuad(-0.5, -0.5, float64(size.X)-0.5, float64(size.Y)-0.5)
	h, err := geometry.NewHomography(src, outline)
	if err != nil {
		return nil, err
	}

	bg := opts.Background
	if bg.A == 0 {
		bg.A = 255
	}
	img, err := images.WarpPerspective(card.Image, h, opts.Canvas, bg)
	if err != nil {
		return nil, errors.Wrap(err, "photograph")
	}
	if opts.Blur > 0 {
		img = BoxBlur(img, opts.Blur)
	}

	markers := make(detector.MarkerSet, 0, len(card.Markers))
	for _, m := range card.Markers {
		projected := detector.Marker{ID: m.ID}
		for i, c := range m.Corners {
			p, ok := h.Apply(c)
			if !ok {
				return nil, errors.Errorf("photograph: marker %d corner %d projects to infinity", m.ID, i)
			}
			projected.Corners[i] = p
		}
		markers = append(markers, projected)
	}

	return &Photo{Image: img, Markers: markers, Outline: outline, Transform: h}, nil
}

// place returns where the card corners land on the canvas.
func place(card image.Point, opts PhotoOptions) geometry.Quad {
	scale := opts.Fill * math.Min(float64(opts.Canvas.X)/float64(card.X), float64(opts.Canvas.Y)/float64(card.Y))
	hw, hh := float64(card.X)*scale/2, float64(card.Y)*scale/2
	top := hw * (1 - opts.Tilt)

	corners := geometry.Quad{
		geometry.Pt(-top, -hh),
		geometry.Pt(top, -hh),
		geometry.Pt(hw, hh),
		geometry.Pt(-hw, hh),
	}

	theta := opts.Rotation * math.Pi / 180
	sin, cos := math.Sincos(theta)
	center := geometry.Pt(float64(opts.Canvas.X-1)/2, float64(opts.Canvas.Y-1)/2)
	for i, p := range corners {
		corners[i] = geometry.Pt(p.X*cos-p.Y*sin, p.X*sin+p.Y*cos).Add(center)
	}
	return corners
}

// BoxBlur returns a copy of img blurred by a separable box filter of the given radius.
// Edge pixels are repeated outside the image.
func BoxBlur(img *image.RGBA, radius int) *image.RGBA {
	src := images.ToRGBA(img)
	if radius <= 0 {
		return src
	}
	tmp := image.NewRGBA(src.Rect)
	dst := image.NewRGBA(src.Rect)
	w, h := src.Rect.Dx(), src.Rect.Dy()

	images.Parallel(h, func(start, end int) {
		for y := start; y < end; y++ {
			row := y * src.Stride
			blurLine(src.Pix[row:], tmp.Pix[row:], w, 4, radius)
		}
	})
	images.Parallel(w, func(start, end int) {
		for x := start; x < end; x++ {
			blurLine(tmp.Pix[x*4:], dst.Pix[x*4:], h, src.Stride, radius)
		}
	})
	return dst
}

// blurLine box-filters n RGBA pixels spaced step bytes apart with a sliding window.
func blurLine(src, dst []uint8, n, step, r int) {
	window := uint32(2*r + 1)
	at := func(i int) int {
		return min(max(i, 0), n-1) * step
	}

	var sum [4]uint32
	for i := -r; i <= r; i++ {
		off := at(i)
		for c := 0; c < 4; c++ {
			sum[c] += uint32(src[off+c])
		}
	}
	for i := 0; i < n; i++ {
		off := i * step
		for c := 0; c < 4; c++ {
			dst[off+c] = uint8((sum[c] + window/2) / window)
		}
		out, in := at(i-r), at(i+r+1)
		for c := 0; c < 4; c++ {
			sum[c] += uint32(src[in+c]) - uint32(src[out+c])
		}
	}
}
