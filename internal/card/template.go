package card

import (
	"errors"
	"fmt"
	"image"

	"github.com/ironsheep/idcard-tools/internal/detection"
	"github.com/ironsheep/idcard-tools/internal/fields"
	"github.com/ironsheep/idcard-tools/internal/imaging"
)

// Template is a decoded card template. Its image is shared read-only by
// every record of a batch.
type Template struct {
	Path  string
	Image image.Image
}

// LoadTemplate decodes the template at path through cache.
func LoadTemplate(cache *imaging.ImageCache, path string) (*Template, error) {
	if path == "" {
		return nil, errors.New("no template configured")
	}
	img, err := cache.Load(path)
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", path, err)
	}
	return &Template{Path: path, Image: img}, nil
}

// Field is a detected region with its classification.
type Field struct {
	Region detection.Region `json:"region"`
	Kind   fields.Kind      `json:"kind"`
	Score  int              `json:"score"`
}

// Layout is what a template's analysis produces: its regions in detection
// order and, when classification is cached, their kinds.
type Layout struct {
	Template *Template
	Regions  []detection.Region

	// Fields is parallel to Regions, or nil when every record classifies
	// its own copy.
	Fields []Field
}

// Classified reports whether the layout carries cached classifications.
func (l *Layout) Classified() bool {
	return l.Fields != nil
}

// Kinds counts the fields of each kind. It is empty for an unclassified
// layout.
func (l *Layout) Kinds() map[fields.Kind]int {
	counts := make(map[fields.Kind]int)
	for _, f := range l.Fields {
		counts[f.Kind]++
	}
	return counts
}

func toFields(regions []detection.Region, cls []fields.Classification) []Field {
	out := make([]Field, len(regions))
	for i, r := range regions {
		r.Text = cls[i].Text
		out[i] = Field{Region: r, Kind: cls[i].Kind, Score: cls[i].Score}
	}
	return out
}
