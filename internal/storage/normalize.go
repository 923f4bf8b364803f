package storage

import (
	"image"
	"image/color"
	"image/draw"
)

// Normalize returns an opaque RGBA copy of img with its bounds moved to the
// origin. Transparent pixels are composited onto white.
func Normalize(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	return dst
}
