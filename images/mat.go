package images

import (
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// ToMat converts img into a three-channel 8-bit gocv.Mat in OpenCV's native BGR order.
// The caller owns the returned Mat and must Close it.
func ToMat(img image.Image) (gocv.Mat, error) {
	if img == nil || img.Bounds().Empty() {
		return gocv.NewMat(), errors.New("to mat: image is empty")
	}
	// gocv reads an RGBA's Pix as a tight buffer starting at (0, 0).
	if rgba, ok := img.(*image.RGBA); ok && (rgba.Rect.Min != (image.Point{}) || rgba.Stride != 4*rgba.Rect.Dx()) {
		img = ToRGBA(rgba)
	}
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return gocv.NewMat(), errors.Wrap(err, "to mat")
	}
	return mat, nil
}

// FromMat converts a BGR, BGRA or grayscale 8-bit Mat into an owned RGBA image.
func FromMat(mat gocv.Mat) (*image.RGBA, error) {
	if mat.Empty() {
		return nil, errors.New("from mat: mat is empty")
	}
	img, err := mat.ToImage()
	if err != nil {
		return nil, errors.Wrap(err, "from mat")
	}
	return ToRGBA(img), nil
}
