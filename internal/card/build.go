package card

import (
	"fmt"

	"github.com/ironsheep/idcard-tools/internal/config"
	"github.com/ironsheep/idcard-tools/internal/detection"
	"github.com/ironsheep/idcard-tools/internal/fields"
	"github.com/ironsheep/idcard-tools/internal/ocr"
	"github.com/ironsheep/idcard-tools/internal/render"
)

// Build assembles an engine from a validated configuration. The recognizer
// is passed in so callers choose between Tesseract and a stub; nil builds a
// Tesseract recognizer from the configuration.
func Build(cfg *config.Config, rec ocr.Recognizer, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if rec == nil {
		rec = ocr.NewTesseract(cfg.OCROptions())
	}

	// Resolve the options once up front so the classifier shares the
	// engine's logger.
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}

	cls, err := fields.New(rec, cfg.ClassifierOptions(), e.logger)
	if err != nil {
		return nil, err
	}
	ro, err := cfg.RendererOptions()
	if err != nil {
		return nil, err
	}
	rnd, err := render.New(ro)
	if err != nil {
		return nil, err
	}

	store := Store{
		Dir:         cfg.Output.Dir,
		Suffix:      cfg.Output.Suffix,
		Format:      cfg.Output.Format,
		JPEGQuality: cfg.Output.JPEGQuality,
	}

	base := []Option{WithClassificationCache(cfg.Classification.Cache)}
	if cfg.Workers > 0 {
		base = append(base, WithWorkers(cfg.Workers))
	}
	return NewEngine(detection.NewDetector(cfg.DetectionOptions()), cls, rnd, store, append(base, opts...)...), nil
}
