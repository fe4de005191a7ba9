// Package images provides the pixel-level operations of the rectification pipeline:
// bounded resizing, perspective warping, cropping and the image I/O boundary.
//
// Every operation returns a newly allocated image and leaves its input untouched, so a
// failure in a later stage never corrupts the output of an earlier one.
package images

import (
	"image"
	"image/draw"
	"runtime"
	"sync"

	"github.com/pkg/errors"
)

// ToRGBA returns a copy of img as an *image.RGBA whose bounds start at (0, 0).
//
// Arguments:
// - img: The source image. A nil image yields a nil result.
//
// Returns:
// - A new RGBA image with the same width and height as img.
//
// @example
// owned := ToRGBA(decoded)
func ToRGBA(img image.Image) *image.RGBA {
	if img == nil {
		return nil
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	if src, ok := img.(*image.RGBA); ok {
		for y := 0; y < b.Dy(); y++ {
			so := src.PixOffset(b.Min.X, b.Min.Y+y)
			do := dst.PixOffset(0, y)
			copy(dst.Pix[do:do+4*b.Dx()], src.Pix[so:so+4*b.Dx()])
		}
		return dst
	}
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// Crop copies the region r of img into a new image of exactly r's size whose bounds
// start at (0, 0).
//
// Arguments:
// - img: The image to crop.
// - r: The region, in img's coordinate space. It must lie entirely inside img.
//
// Returns:
// - The cropped copy.
// - error if r is empty or not contained in img.
//
// @example
// out, err := Crop(warped, image.Rect(0, 0, 600, 300))
func Crop(img *image.RGBA, r image.Rectangle) (*image.RGBA, error) {
	if img == nil {
		return nil, errors.New("crop: image is nil")
	}
	if r.Empty() {
		return nil, errors.Errorf("crop: empty region %v", r)
	}
	if !r.In(img.Bounds()) {
		return nil, errors.Errorf("crop: region %v outside image bounds %v", r, img.Bounds())
	}

	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	for y := 0; y < r.Dy(); y++ {
		so := img.PixOffset(r.Min.X, r.Min.Y+y)
		do := dst.PixOffset(0, y)
		copy(dst.Pix[do:do+4*r.Dx()], img.Pix[so:so+4*r.Dx()])
	}
	return dst, nil
}

// Clamp limits value to [lo, hi].
func Clamp(value, lo, hi float64) float64 {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}

// Parallel splits [0, dataSize) into one contiguous partition per CPU and runs fn on
// each partition concurrently, returning once all partitions are done. Small inputs run
// on the calling goroutine.
//
// @example
//
//	Parallel(height, func(start, end int) {
//	    for y := start; y < end; y++ {
//	        // process row y
//	    }
//	})
func Parallel(dataSize int, fn func(partStart, partEnd int)) {
	workers := runtime.NumCPU()
	if dataSize < workers*2 {
		fn(0, dataSize)
		return
	}

	partSize := dataSize / workers

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		start := i * partSize
		end := start + partSize
		if i == workers-1 {
			end = dataSize
		}
		go func(start, end int) {
			defer wg.Done()
			fn(start, end)
		}(start, end)
	}
	wg.Wait()
}
