package images

import (
	"crypto/md5"
	"fmt"
	"image"
)

// Checksum returns a deterministic hex MD5 of the pixels of img, independent of its
// bounds origin. It is used to verify that stages do not mutate their inputs and that
// repeated runs produce identical output.
//
// @example
// before := Checksum(src)
// _, _ = ResizeIfLarger(src, image.Pt(100, 100), "")
// same := before == Checksum(src)
func Checksum(img image.Image) string {
	if img == nil || img.Bounds().Empty() {
		return "empty"
	}
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Rect.Min != (image.Point{}) || rgba.Stride != 4*rgba.Rect.Dx() {
		rgba = ToRGBA(img)
	}
	hash := md5.New()
	fmt.Fprintf(hash, "%dx%d:", rgba.Rect.Dx(), rgba.Rect.Dy())
	hash.Write(rgba.Pix)
	return fmt.Sprintf("%x", hash.Sum(nil))
}
