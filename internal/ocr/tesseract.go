package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// DefaultLanguage is the Tesseract language used when none is configured.
const DefaultLanguage = "eng"

// Mode is a Tesseract page segmentation mode.
type Mode int

const (
	ModeAuto       Mode = 3  // Fully automatic page segmentation
	ModeColumn     Mode = 4  // Single column of text of variable sizes
	ModeBlock      Mode = 6  // Single uniform block of text
	ModeSingleLine Mode = 7  // Single text line
	ModeSingleWord Mode = 8  // Single word
	ModeSparse     Mode = 11 // Sparse text, no particular order
)

// Valid reports whether m is a page segmentation mode Tesseract accepts.
func (m Mode) Valid() bool {
	return m >= 0 && m <= 13
}

// Recognizer extracts the text printed in an image.
type Recognizer interface {
	ExtractText(ctx context.Context, img image.Image, language string, mode Mode) (string, error)
}

// RecognizerFunc adapts an ordinary function to the Recognizer interface.
type RecognizerFunc func(ctx context.Context, img image.Image, language string, mode Mode) (string, error)

// ExtractText calls f.
func (f RecognizerFunc) ExtractText(ctx context.Context, img image.Image, language string, mode Mode) (string, error) {
	return f(ctx, img, language, mode)
}

// Options configures the Tesseract recognizer.
type Options struct {
	// TessdataPrefix is the directory holding *.traineddata files.
	// Empty uses Tesseract's compiled-in default.
	TessdataPrefix string

	// Variables are passed to Tesseract with SetVariable, e.g. a
	// tessedit_char_whitelist.
	Variables map[string]string
}

// Tesseract is a Recognizer backed by the native Tesseract library.
type Tesseract struct {
	opts Options
}

// NewTesseract creates a Tesseract recognizer.
func NewTesseract(opts Options) *Tesseract {
	return &Tesseract{opts: opts}
}

// ExtractText runs OCR over img and returns the raw recognized text.
//
// The image is encoded as PNG in memory; no temporary files are written.
// An empty language selects DefaultLanguage.
func (t *Tesseract) ExtractText(ctx context.Context, img image.Image, language string, mode Mode) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !mode.Valid() {
		return "", fmt.Errorf("invalid page segmentation mode %d", mode)
	}
	if language == "" {
		language = DefaultLanguage
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if t.opts.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(t.opts.TessdataPrefix); err != nil {
			return "", fmt.Errorf("failed to set tessdata prefix: %w", err)
		}
	}
	if err := client.SetLanguage(language); err != nil {
		return "", fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PageSegMode(mode)); err != nil {
		return "", fmt.Errorf("failed to set page segmentation mode: %w", err)
	}
	for k, v := range t.opts.Variables {
		if err := client.SetVariable(gosseract.SettableVariable(k), v); err != nil {
			return "", fmt.Errorf("failed to set variable %s: %w", k, err)
		}
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// Version returns the version string of the linked Tesseract library.
func Version() string {
	return gosseract.Version()
}

// Languages lists the languages installed in the default tessdata
// directory.
func Languages() ([]string, error) {
	return gosseract.GetAvailableLanguages()
}
