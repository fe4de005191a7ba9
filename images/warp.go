package images

import (
	"image"
	"image/color"
	"math"

	"github.com/nvr-ai/go-fiducial/geometry"
	"github.com/pkg/errors"
)

// WarpPerspective maps the whole of src through the forward transform h into a new image
// of the given size. Each destination pixel is pulled back through the inverse of h and
// bilinearly sampled; pixels whose pre-image falls outside src are set to background.
//
// Pixel centres sit on integer coordinates, matching the convention of the marker
// detector that produced the transform's source points.
//
// Arguments:
// - src: The image to warp.
// - h: The transform from src coordinates to destination coordinates.
// - size: The destination size; both components must be positive.
// - background: The fill colour for unmapped pixels.
//
// Returns:
// - The warped image with bounds (0, 0)-size.
// - *geometry.DegenerateGeometryError if h is not invertible, or an error for invalid
//   arguments.
//
// @example
//
//	h, _ := geometry.NewHomography(quad, geometry.RectQuad(0, 0, 600, 300))
//	out, err := WarpPerspective(img, h, image.Pt(600, 300), color.RGBA{A: 255})
func WarpPerspective(src image.Image, h geometry.Homography, size image.Point, background color.RGBA) (*image.RGBA, error) {
	if src == nil || src.Bounds().Empty() {
		return nil, errors.New("warp: source image is empty")
	}
	if size.X <= 0 || size.Y <= 0 {
		return nil, errors.Errorf("warp: invalid output size %dx%d", size.X, size.Y)
	}
	inv, err := h.Inverse()
	if err != nil {
		return nil, err
	}

	in, ok := src.(*image.RGBA)
	if !ok || in.Rect.Min != (image.Point{}) {
		in = ToRGBA(src)
	}
	w, ht := in.Rect.Dx(), in.Rect.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, size.X, size.Y))

	Parallel(size.Y, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < size.X; x++ {
				off := dst.PixOffset(x, y)
				px := background

				p, ok := inv.Apply(geometry.Pt(float64(x), float64(y)))
				if ok && p.X >= 0 && p.Y >= 0 && p.X <= float64(w-1) && p.Y <= float64(ht-1) {
					px = bilinear(in, p.X, p.Y)
				}
				dst.Pix[off+0] = px.R
				dst.Pix[off+1] = px.G
				dst.Pix[off+2] = px.B
				dst.Pix[off+3] = px.A
			}
		}
	})
	return dst, nil
}

// bilinear samples img at a sub-pixel position inside [0, w-1] x [0, h-1].
func bilinear(img *image.RGBA, fx, fy float64) color.RGBA {
	x0, y0 := int(math.Floor(fx)), int(math.Floor(fy))
	x1, y1 := x0+1, y0+1
	if x1 >= img.Rect.Dx() {
		x1 = x0
	}
	if y1 >= img.Rect.Dy() {
		y1 = y0
	}
	ax, ay := fx-float64(x0), fy-float64(y0)

	p00 := img.Pix[img.PixOffset(x0, y0):]
	p10 := img.Pix[img.PixOffset(x1, y0):]
	p01 := img.Pix[img.PixOffset(x0, y1):]
	p11 := img.Pix[img.PixOffset(x1, y1):]

	var out [4]uint8
	for c := 0; c < 4; c++ {
		top := float64(p00[c])*(1-ax) + float64(p10[c])*ax
		bottom := float64(p01[c])*(1-ax) + float64(p11[c])*ax
		out[c] = uint8(Clamp(math.Round(top*(1-ay)+bottom*ay), 0, 255))
	}
	return color.RGBA{R: out[0], G: out[1], B: out[2], A: out[3]}
}
