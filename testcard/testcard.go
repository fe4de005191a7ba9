// Package testcard renders marker-framed cards: printable templates for the physical
// objects the pipeline rectifies, and synthetic photographs for tests.
package testcard

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/nvr-ai/go-fiducial/detector"
	"github.com/nvr-ai/go-fiducial/geometry"
	"github.com/pkg/errors"
)

// Options describes a card.
type Options struct {
	// Width and Height are the card size in pixels.
	Width  int
	Height int
	// MarkerSide is the side of each marker square in pixels.
	MarkerSide int
	// Inset is the distance from each card edge to the nearest marker edge.
	Inset int
	// Dictionary is the ArUco dictionary; empty selects detector.DefaultDictionary.
	Dictionary string
	// Omit lists corner marker IDs to leave out, simulating occlusion.
	Omit []uint
}

// Defaults returns an 800x600 card with 80 pixel markers centred 50 pixels from each
// corner.
func Defaults() Options {
	return Options{
		Width:      800,
		Height:     600,
		MarkerSide: 80,
		Inset:      10,
		Dictionary: detector.DefaultDictionary,
	}
}

// Card is a rendered card and the ground truth used to draw it.
type Card struct {
	Image *image.RGBA
	// Markers holds the exact corners of every drawn marker, IDs 0..3 by corner.
	Markers detector.MarkerSet
}

// Render draws the card: a white background, a coloured quadrant pattern between the
// markers, and markers 0 (top-left), 1 (top-right), 2 (bottom-right) and 3 (bottom-left).
func Render(opts Options) (*Card, error) {
	if opts.Dictionary == "" {
		opts.Dictionary = detector.DefaultDictionary
	}
	if opts.Width <= 0 || opts.Height <= 0 || opts.MarkerSide <= 0 || opts.Inset < 0 {
		return nil, errors.Errorf("invalid card options %+v", opts)
	}
	if 2*quietPad(opts) >= min(opts.Width, opts.Height) {
		return nil, errors.Errorf("markers of side %d do not fit a %dx%d card", opts.MarkerSide, opts.Width, opts.Height)
	}

	img := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	paintQuadrants(img, opts)

	side := opts.MarkerSide
	origins := [4]image.Point{
		{opts.Inset, opts.Inset},
		{opts.Width - opts.Inset - side, opts.Inset},
		{opts.Width - opts.Inset - side, opts.Height - opts.Inset - side},
		{opts.Inset, opts.Height - opts.Inset - side},
	}

	card := &Card{Image: img}
	for id, origin := range origins {
		if omitted(opts.Omit, uint(id)) {
			continue
		}
		marker, err := detector.GenerateMarker(opts.Dictionary, id, side)
		if err != nil {
			return nil, err
		}
		r := image.Rectangle{Min: origin, Max: origin.Add(image.Pt(side, side))}
		draw.Draw(img, r, marker, image.Point{}, draw.Src)

		// Corner coordinates follow the detector convention: pixel centres on integers,
		// so the outer corners of a side-pixel square lie half a pixel outside.
		x0, y0 := float64(r.Min.X)-0.5, float64(r.Min.Y)-0.5
		x1, y1 := float64(r.Max.X)-0.5, float64(r.Max.Y)-0.5
		card.Markers = append(card.Markers, detector.Marker{
			ID:      uint(id),
			Corners: geometry.RectQuad(x0, y0, x1, y1),
		})
	}
	return card, nil
}

// quietPad is the distance from a card edge to the coloured area, leaving a white quiet
// zone of a quarter marker around every marker.
func quietPad(opts Options) int {
	return opts.Inset + opts.MarkerSide + opts.MarkerSide/4
}

// paintQuadrants fills the area between the markers with four distinct colours so that
// orientation errors are visible in rectified output.
func paintQuadrants(img *image.RGBA, opts Options) {
	pad := quietPad(opts)
	inner := image.Rect(pad, pad, opts.Width-pad, opts.Height-pad)
	mid := image.Pt((inner.Min.X+inner.Max.X)/2, (inner.Min.Y+inner.Max.Y)/2)

	fills := []struct {
		r image.Rectangle
		c color.RGBA
	}{
		{image.Rect(inner.Min.X, inner.Min.Y, mid.X, mid.Y), QuadrantColors[geometry.TopLeft]},
		{image.Rect(mid.X, inner.Min.Y, inner.Max.X, mid.Y), QuadrantColors[geometry.TopRight]},
		{image.Rect(mid.X, mid.Y, inner.Max.X, inner.Max.Y), QuadrantColors[geometry.BottomRight]},
		{image.Rect(inner.Min.X, mid.Y, mid.X, inner.Max.Y), QuadrantColors[geometry.BottomLeft]},
	}
	for _, f := range fills {
		draw.Draw(img, f.r, image.NewUniform(f.c), image.Point{}, draw.Src)
	}
}

// QuadrantColors are the fills of the four inner quadrants, indexed by corner.
var QuadrantColors = [4]color.RGBA{
	geometry.TopLeft:     {R: 220, G: 40, B: 40, A: 255},
	geometry.TopRight:    {R: 40, G: 180, B: 60, A: 255},
	geometry.BottomRight: {R: 40, G: 80, B: 220, A: 255},
	geometry.BottomLeft:  {R: 230, G: 200, B: 40, A: 255},
}

func omitted(ids []uint, id uint) bool {
	for _, o := range ids {
		if o == id {
			return true
		}
	}
	return false
}
