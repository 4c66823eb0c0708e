package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Clone returns a private *image.NRGBA copy of img with bounds at (0,0).
//
// Every card is rendered onto its own clone of the template so the shared
// template stays untouched.
func Clone(img image.Image) *image.NRGBA {
	return imaging.Clone(img)
}

// CropGray extracts a rectangular region from a grayscale image.
//
// The returned image has bounds starting at (0,0). The region is clipped to
// the source bounds; an empty intersection is an error.
func CropGray(gray *image.Gray, r image.Rectangle) (*image.Gray, error) {
	clipped := r.Intersect(gray.Bounds())
	if clipped.Empty() {
		return nil, fmt.Errorf("crop region %v outside image bounds %v", r, gray.Bounds())
	}

	out := image.NewGray(image.Rect(0, 0, clipped.Dx(), clipped.Dy()))
	for y := clipped.Min.Y; y < clipped.Max.Y; y++ {
		src := gray.Pix[gray.PixOffset(clipped.Min.X, y):gray.PixOffset(clipped.Max.X, y)]
		dst := out.Pix[out.PixOffset(0, y-clipped.Min.Y):]
		copy(dst, src)
	}
	return out, nil
}

// Resize scales img to exactly width x height using Lanczos resampling.
// The aspect ratio is not preserved.
func Resize(img image.Image, width, height int) (*image.NRGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid target size %dx%d", width, height)
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("cannot resize empty image")
	}
	return imaging.Resize(img, width, height, imaging.Lanczos), nil
}
