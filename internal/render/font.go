package render

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Built-in font names accepted by LoadFont.
const (
	FontGoRegular = "goregular"
	FontGoBold    = "gobold"
	FontGoMono    = "gomono"
	FontBasic     = "basic"
)

// DefaultFontSize is the point size used when none is configured. At 72
// DPI one point is one pixel.
const DefaultFontSize = 72

// Font is a parsed typeface at a fixed size.
//
// opentype faces keep per-face glyph buffers and are not safe for
// concurrent use, so a Font hands out a new face for every drawing call.
type Font struct {
	name   string
	size   float64
	parsed *opentype.Font // nil for the basic bitmap face
}

// LoadFont returns a built-in font by name, or parses the TrueType or
// OpenType file at the given path. An empty name selects goregular.
func LoadFont(name string, size float64) (*Font, error) {
	if size <= 0 {
		size = DefaultFontSize
	}

	var data []byte
	switch strings.ToLower(name) {
	case "", FontGoRegular:
		name, data = FontGoRegular, goregular.TTF
	case FontGoBold:
		data = gobold.TTF
	case FontGoMono:
		data = gomono.TTF
	case FontBasic:
		return &Font{name: FontBasic, size: 13}, nil
	default:
		b, err := os.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read font: %w", err)
		}
		data = b
	}

	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font %s: %w", name, err)
	}
	return &Font{name: name, size: size, parsed: parsed}, nil
}

// Name returns the built-in name or file path the font was loaded from.
func (f *Font) Name() string {
	return f.name
}

// Size returns the font size in points.
func (f *Font) Size() float64 {
	return f.size
}

// NewFace creates a face for one drawing call. The caller closes it.
func (f *Font) NewFace() (font.Face, error) {
	if f.parsed == nil {
		return basicfont.Face7x13, nil
	}
	return opentype.NewFace(f.parsed, &opentype.FaceOptions{
		Size:    f.size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}
