package detection

import (
	"errors"
	"fmt"
	"image"

	"github.com/ironsheep/idcard-tools/internal/imaging"
)

// ErrNoRegions is returned when no component passes the size window. The
// template cannot produce any card.
var ErrNoRegions = errors.New("no placeholder regions detected")

// Region is a candidate placeholder box on a template.
type Region struct {
	X      int `json:"x"`      // Left edge (inclusive)
	Y      int `json:"y"`      // Top edge (inclusive)
	Width  int `json:"width"`  // Horizontal extent in pixels
	Height int `json:"height"` // Vertical extent in pixels

	// Text is the normalized text read from the box during classification.
	// Empty until classified, and may stay empty.
	Text string `json:"text,omitempty"`
}

// Rect returns the region as an image.Rectangle.
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Center returns the center point of the region.
func (r Region) Center() image.Point {
	return image.Pt(r.X+r.Width/2, r.Y+r.Height/2)
}

func (r Region) String() string {
	return fmt.Sprintf("%dx%d@(%d,%d)", r.Width, r.Height, r.X, r.Y)
}

// SizeWindow bounds the width and height of accepted regions. All bounds
// are inclusive.
type SizeWindow struct {
	MinWidth  int `yaml:"min_width" json:"min_width"`
	MaxWidth  int `yaml:"max_width" json:"max_width"`
	MinHeight int `yaml:"min_height" json:"min_height"`
	MaxHeight int `yaml:"max_height" json:"max_height"`
}

// Admits reports whether a width x height box fits the window.
func (w SizeWindow) Admits(width, height int) bool {
	return width >= w.MinWidth && width <= w.MaxWidth &&
		height >= w.MinHeight && height <= w.MaxHeight
}

// Validate rejects windows that can never admit a box.
func (w SizeWindow) Validate() error {
	if w.MinWidth <= 0 || w.MinHeight <= 0 {
		return fmt.Errorf("size window minimums must be positive, got %dx%d", w.MinWidth, w.MinHeight)
	}
	if w.MinWidth > w.MaxWidth {
		return fmt.Errorf("min_width %d exceeds max_width %d", w.MinWidth, w.MaxWidth)
	}
	if w.MinHeight > w.MaxHeight {
		return fmt.Errorf("min_height %d exceeds max_height %d", w.MinHeight, w.MaxHeight)
	}
	return nil
}

// Options controls region detection for one template.
type Options struct {
	// Window is the accepted box size range.
	Window SizeWindow

	// BlurRadius is the Gaussian radius of the smoothing pass between the
	// two binarizations. Zero skips smoothing.
	BlurRadius float64

	// DarkBoxes selects dark pixels as foreground.
	DarkBoxes bool
}

// Detector finds placeholder regions. It holds no mutable state and is safe
// for concurrent use.
type Detector struct {
	opts Options
}

// NewDetector creates a detector with the given options.
func NewDetector(opts Options) *Detector {
	return &Detector{opts: opts}
}

// Options returns the detector's configuration.
func (d *Detector) Options() Options {
	return d.opts
}

// Detect returns the placeholder regions of img in raster discovery order.
//
// Returns an error wrapping ErrNoRegions when no box fits the size window.
func (d *Detector) Detect(img image.Image) ([]Region, error) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("empty template image: %w", ErrNoRegions)
	}

	fg := d.foreground(img)
	boxes := outerComponents(fg, width, height)

	regions := make([]Region, 0, len(boxes))
	for _, b := range boxes {
		if !d.opts.Window.Admits(b.Dx(), b.Dy()) {
			continue
		}
		regions = append(regions, Region{
			X:      b.Min.X + bounds.Min.X,
			Y:      b.Min.Y + bounds.Min.Y,
			Width:  b.Dx(),
			Height: b.Dy(),
		})
	}

	if len(regions) == 0 {
		return nil, fmt.Errorf("%d components found, none within %dx%d..%dx%d: %w",
			len(boxes), d.opts.Window.MinWidth, d.opts.Window.MinHeight,
			d.opts.Window.MaxWidth, d.opts.Window.MaxHeight, ErrNoRegions)
	}
	return regions, nil
}

// Binarize returns the two-pass binarized view that Detect segments.
// Foreground pixels are 255 regardless of polarity.
func (d *Detector) Binarize(img image.Image) *image.Gray {
	bin := imaging.OtsuBinarize(imaging.Grayscale(img))
	if d.opts.BlurRadius > 0 {
		bin = imaging.OtsuBinarize(imaging.Smooth(bin, d.opts.BlurRadius))
	}
	if d.opts.DarkBoxes {
		for i, v := range bin.Pix {
			bin.Pix[i] = 255 - v
		}
	}
	return bin
}

// foreground flattens the binarized image into a row-major mask.
func (d *Detector) foreground(img image.Image) []bool {
	bin := d.Binarize(img)
	b := bin.Bounds()
	w, h := b.Dx(), b.Dy()
	fg := make([]bool, w*h)
	for y := 0; y < h; y++ {
		row := bin.Pix[bin.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < w; x++ {
			fg[y*w+x] = row[x] != 0
		}
	}
	return fg
}

// outerComponents returns the bounding boxes of the outer foreground
// components of mask, in raster discovery order.
//
// Foreground uses 8-connectivity and background 4-connectivity, the usual
// pairing that keeps a closed 8-connected outline from leaking. A component
// is outer when it touches the image border or the background region that
// is connected to the border.
func outerComponents(fg []bool, width, height int) []image.Rectangle {
	outside := outerBackground(fg, width, height)
	visited := make([]bool, width*height)
	boxes := make([]image.Rectangle, 0)

	for start := range fg {
		if !fg[start] || visited[start] {
			continue
		}
		box, outer := fillComponent(fg, visited, outside, start, width, height)
		if outer {
			boxes = append(boxes, box)
		}
	}
	return boxes
}

// outerBackground marks the background pixels reachable from the image
// border through 4-connected background.
func outerBackground(fg []bool, width, height int) []bool {
	outside := make([]bool, width*height)
	stack := make([]int32, 0, 2*(width+height))

	push := func(i int) {
		if !fg[i] && !outside[i] {
			outside[i] = true
			stack = append(stack, int32(i))
		}
	}
	for x := 0; x < width; x++ {
		push(x)
		push((height-1)*width + x)
	}
	for y := 0; y < height; y++ {
		push(y * width)
		push(y*width + width - 1)
	}

	for len(stack) > 0 {
		i := int(stack[len(stack)-1])
		stack = stack[:len(stack)-1]
		x, y := i%width, i/width
		if x > 0 {
			push(i - 1)
		}
		if x < width-1 {
			push(i + 1)
		}
		if y > 0 {
			push(i - width)
		}
		if y < height-1 {
			push(i + width)
		}
	}
	return outside
}

// fillComponent flood-fills the 8-connected foreground component containing
// start, returning its bounding box and whether it is an outer component.
//
// Pixels are marked visited when pushed, so the stack never holds more
// entries than the component has pixels.
func fillComponent(fg, visited, outside []bool, start, width, height int) (image.Rectangle, bool) {
	minX, minY := width, height
	maxX, maxY := -1, -1
	outer := false

	stack := []int32{int32(start)}
	visited[start] = true

	for len(stack) > 0 {
		i := int(stack[len(stack)-1])
		stack = stack[:len(stack)-1]
		x, y := i%width, i/width

		minX, maxX = min(minX, x), max(maxX, x)
		minY, maxY = min(minY, y), max(maxY, y)

		if x == 0 || y == 0 || x == width-1 || y == height-1 {
			outer = true
		}

		for dy := -1; dy <= 1; dy++ {
			ny := y + dy
			if ny < 0 || ny >= height {
				continue
			}
			for dx := -1; dx <= 1; dx++ {
				nx := x + dx
				if (dx == 0 && dy == 0) || nx < 0 || nx >= width {
					continue
				}
				n := ny*width + nx
				if fg[n] {
					if !visited[n] {
						visited[n] = true
						stack = append(stack, int32(n))
					}
				} else if !outer && (dx == 0 || dy == 0) && outside[n] {
					outer = true
				}
			}
		}
	}

	return image.Rect(minX, minY, maxX+1, maxY+1), outer
}
