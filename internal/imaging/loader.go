package imaging

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/go-fitz"
)

// DefaultPDFDPI is the resolution used to rasterize PDF templates when the
// caller does not supply one.
const DefaultPDFDPI = 300

// ImageCache provides thread-safe caching of loaded images to avoid redundant disk reads.
//
// Templates are loaded once per batch and shared read-only by every worker, so
// the cache hands out the same decoded image for every Load of the same path.
// Callers must never draw onto an image returned by the cache; use Clone to get
// a private working copy first.
//
// # Example Usage
//
//	cache := imaging.NewImageCache(imaging.DefaultPDFDPI)
//	tpl, err := cache.Load("templates/staff.png")
//	if err != nil {
//	    return err
//	}
//	canvas := imaging.Clone(tpl)
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]image.Image
	pdfDPI float64
}

// NewImageCache creates and initializes a new empty image cache.
//
// pdfDPI is the resolution used when a cached path is a PDF document. Values
// <= 0 select DefaultPDFDPI.
func NewImageCache(pdfDPI float64) *ImageCache {
	if pdfDPI <= 0 {
		pdfDPI = DefaultPDFDPI
	}
	return &ImageCache{
		images: make(map[string]image.Image),
		pdfDPI: pdfDPI,
	}
}

// Load retrieves an image from the cache or loads it from disk if not cached.
//
// The image is cached using the exact path string provided. Different paths to
// the same file (e.g., relative vs absolute) result in separate cache entries.
//
// # Errors
//
//   - Returns error if the file does not exist or cannot be read
//   - Returns error if the file is not a decodable image or PDF
func (c *ImageCache) Load(path string) (image.Image, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	img, err := Open(path, c.pdfDPI)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.images[path] = img
	c.mu.Unlock()

	return img, nil
}

// Evict removes a specific image from the cache by its path.
// If the path is not in the cache, this method does nothing.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// Open decodes the image at path without caching it.
//
// Raster files are decoded with EXIF orientation applied, so phone photos
// come out upright. A path ending in ".pdf" is rasterized from its first page
// at the given DPI.
func Open(path string, pdfDPI float64) (image.Image, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return openPDF(path, pdfDPI)
	}

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if img.Bounds().Min != (image.Point{}) {
		img = imaging.Clone(img)
	}
	return img, nil
}

// openPDF rasterizes the first page of a PDF template.
func openPDF(path string, dpi float64) (image.Image, error) {
	if dpi <= 0 {
		dpi = DefaultPDFDPI
	}

	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return nil, fmt.Errorf("pdf %s has no pages", path)
	}

	img, err := doc.ImageDPI(0, dpi)
	if err != nil {
		return nil, fmt.Errorf("failed to render pdf page: %w", err)
	}
	return img, nil
}

// ImageInfo contains metadata about a loaded image file.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is derived from the file extension: "png", "jpeg", "gif",
	// "pdf", or "unknown".
	Format string `json:"format"`
}

// LoadImageInfo loads an image through the cache and describes it.
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	format := "unknown"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		format = "png"
	case ".jpg", ".jpeg":
		format = "jpeg"
	case ".gif":
		format = "gif"
	case ".pdf":
		format = "pdf"
	}

	bounds := img.Bounds()
	return &ImageInfo{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Format: format,
	}, nil
}
