// Package imaging provides the image primitives used by the card pipeline.
//
// It loads templates and photos (raster files, or the first page of a PDF
// template), produces grayscale and binarized views for region detection and
// text extraction, crops regions, clones working canvases and parses the
// colours named in template configuration.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner:
//   - X increases rightward, Y increases downward
//   - For rectangles, Min is inclusive and Max is exclusive
//
// Images produced by this package always have bounds starting at (0,0).
// Callers that build their own images should do the same; the detection and
// rendering packages assume it.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. The remaining functions are
// stateless and return new images, so they can be called concurrently as long
// as the inputs are not mutated at the same time.
//
// # Error Handling
//
// Functions return errors for:
//   - File I/O errors during image loading
//   - Undecodable image data or unreadable PDF pages
//   - Invalid colour strings
package imaging
