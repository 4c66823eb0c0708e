package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/segment"
)

// Grayscale converts img to an 8-bit luminance image.
func Grayscale(img image.Image) *image.Gray {
	return effect.Grayscale(img)
}

// OtsuLevel picks the global threshold that maximizes between-class
// variance of the grayscale histogram.
//
// Pixels with a value <= the returned level belong to the dark class.
func OtsuLevel(gray *image.Gray) uint8 {
	var hist [256]int
	b := gray.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := gray.Pix[gray.PixOffset(b.Min.X, y):gray.PixOffset(b.Max.X, y)]
		for _, v := range row {
			hist[v]++
		}
	}

	total := b.Dx() * b.Dy()
	if total == 0 {
		return 0
	}

	var sum float64
	for i, n := range hist {
		sum += float64(i * n)
	}

	var (
		sumB, best float64
		wB         int
		level      uint8
	)
	for t := 0; t < 256; t++ {
		wB += hist[t]
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF == 0 {
			break
		}
		sumB += float64(t * hist[t])
		mB := sumB / float64(wB)
		mF := (sum - sumB) / float64(wF)
		between := float64(wB) * float64(wF) * (mB - mF) * (mB - mF)
		if between > best {
			best = between
			level = uint8(t)
		}
	}
	return level
}

// Threshold binarizes gray: values above level become 255, the rest 0.
func Threshold(gray *image.Gray, level uint8) *image.Gray {
	if level == 255 {
		return image.NewGray(gray.Bounds())
	}
	// segment.Threshold keeps values >= its level, so shift by one to get
	// the strict "above level" rule.
	return segment.Threshold(gray, level+1)
}

// OtsuBinarize thresholds gray at its Otsu level.
func OtsuBinarize(gray *image.Gray) *image.Gray {
	return Threshold(gray, OtsuLevel(gray))
}

// Smooth applies a Gaussian blur of the given radius and returns the
// grayscale result. A radius <= 0 returns gray unchanged.
func Smooth(gray *image.Gray, radius float64) *image.Gray {
	if radius <= 0 {
		return gray
	}
	return effect.Grayscale(blur.Gaussian(gray, radius))
}

// AdaptiveThreshold binarizes gray against a locally computed threshold:
// a pixel becomes 255 when it is brighter than the mean of its
// blockSize x blockSize neighbourhood minus offset, and 0 otherwise.
//
// Neighbourhoods are clipped at the image border. blockSize is forced odd
// and at least 3. Means come from an integral image, so the cost does not
// depend on blockSize.
func AdaptiveThreshold(gray *image.Gray, blockSize, offset int) *image.Gray {
	if blockSize < 3 {
		blockSize = 3
	}
	if blockSize%2 == 0 {
		blockSize++
	}
	half := blockSize / 2

	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return out
	}

	// integral[(y+1)*(w+1)+(x+1)] = sum of gray[0..y][0..x]
	stride := w + 1
	integral := make([]int64, (h+1)*stride)
	for y := 0; y < h; y++ {
		var rowSum int64
		row := gray.Pix[gray.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < w; x++ {
			rowSum += int64(row[x])
			integral[(y+1)*stride+x+1] = integral[y*stride+x+1] + rowSum
		}
	}

	for y := 0; y < h; y++ {
		y0, y1 := max(y-half, 0), min(y+half+1, h)
		row := gray.Pix[gray.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < w; x++ {
			x0, x1 := max(x-half, 0), min(x+half+1, w)
			area := int64((y1 - y0) * (x1 - x0))
			sum := integral[y1*stride+x1] - integral[y0*stride+x1] - integral[y1*stride+x0] + integral[y0*stride+x0]
			// value > mean - offset  <=>  value*area > sum - offset*area
			if int64(row[x])*area > sum-int64(offset)*area {
				out.Pix[y*out.Stride+x] = 255
			}
		}
	}
	return out
}
