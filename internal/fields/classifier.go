package fields

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/ironsheep/idcard-tools/internal/detection"
	"github.com/ironsheep/idcard-tools/internal/imaging"
	"github.com/ironsheep/idcard-tools/internal/ocr"
)

// Options configures a Classifier.
type Options struct {
	// Vocabulary is the ordered keyword table. Empty uses DefaultVocabulary.
	Vocabulary Vocabulary

	// Threshold is the score (0-100) a keyword must exceed to match.
	Threshold int

	// MinLengthRatio is the shortest recognized text, as a fraction of a
	// keyword's length, that may match that keyword in full. Zero uses
	// DefaultMinLengthRatio.
	MinLengthRatio float64

	// BlockSize is the neighbourhood size of the adaptive threshold, in
	// pixels. Forced odd.
	BlockSize int

	// Offset is subtracted from the neighbourhood mean before comparing.
	Offset int

	// Language is the recognizer language hint, e.g. "eng".
	Language string

	// Mode is the recognizer page segmentation mode.
	Mode ocr.Mode
}

// DefaultOptions returns the classifier settings used for the stock
// template.
func DefaultOptions() Options {
	return Options{
		Vocabulary:     DefaultVocabulary(),
		Threshold:      DefaultThreshold,
		MinLengthRatio: DefaultMinLengthRatio,
		BlockSize:      31,
		Offset:         10,
		Language:       ocr.DefaultLanguage,
		Mode:           ocr.ModeBlock,
	}
}

// Classification is the outcome of classifying one region.
type Classification struct {
	Kind  Kind   `json:"kind"`
	Text  string `json:"text"`  // Normalized recognized text
	Score int    `json:"score"` // Score of the winning keyword, or best score when Unknown
}

// Classifier assigns a Kind to template regions. It is safe for concurrent
// use when its Recognizer is.
type Classifier struct {
	rec    ocr.Recognizer
	opts   Options
	logger *slog.Logger
}

// New creates a classifier around the given recognizer. A nil logger
// discards log output.
func New(rec ocr.Recognizer, opts Options, logger *slog.Logger) (*Classifier, error) {
	if rec == nil {
		return nil, errors.New("recognizer is required")
	}
	if len(opts.Vocabulary) == 0 {
		opts.Vocabulary = DefaultVocabulary()
	}
	if err := opts.Vocabulary.Validate(); err != nil {
		return nil, err
	}
	if opts.Threshold < 0 || opts.Threshold > 100 {
		return nil, fmt.Errorf("threshold must be within 0-100, got %d", opts.Threshold)
	}
	if opts.MinLengthRatio == 0 {
		opts.MinLengthRatio = DefaultMinLengthRatio
	}
	if opts.MinLengthRatio < 0 || opts.MinLengthRatio > 1 {
		return nil, fmt.Errorf("min length ratio must be within 0-1, got %v", opts.MinLengthRatio)
	}
	if opts.BlockSize < 3 {
		return nil, fmt.Errorf("block size must be at least 3, got %d", opts.BlockSize)
	}
	if opts.Language == "" {
		opts.Language = ocr.DefaultLanguage
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Classifier{rec: rec, opts: opts, logger: logger}, nil
}

// Options returns the classifier's effective configuration.
func (c *Classifier) Options() Options {
	return c.opts
}

// Classify reads the label inside region r of the grayscale template and
// matches it against the vocabulary.
//
// Unreadable or unmatched text yields Unknown, never an error. A
// recognizer failure is logged and also yields Unknown. Only context
// cancellation and a region outside the image are returned as errors.
func (c *Classifier) Classify(ctx context.Context, gray *image.Gray, r detection.Region) (Classification, error) {
	crop, err := imaging.CropGray(gray, r.Rect())
	if err != nil {
		return Classification{}, err
	}
	bin := imaging.AdaptiveThreshold(crop, c.opts.BlockSize, c.opts.Offset)

	raw, err := c.rec.ExtractText(ctx, bin, c.opts.Language, c.opts.Mode)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Classification{}, ctxErr
		}
		c.logger.Warn("text recognition failed", "region", r.String(), "error", err)
		return Classification{Kind: Unknown}, nil
	}

	text := Normalize(raw)
	kind, score := c.opts.Vocabulary.MatchMin(text, c.opts.Threshold, c.opts.MinLengthRatio)
	c.logger.Debug("region classified", "region", r.String(), "text", text, "kind", kind, "score", score)
	return Classification{Kind: kind, Text: text, Score: score}, nil
}

// ClassifyAll classifies regions in order. The returned slice is parallel
// to regions.
func (c *Classifier) ClassifyAll(ctx context.Context, gray *image.Gray, regions []detection.Region) ([]Classification, error) {
	out := make([]Classification, len(regions))
	for i, r := range regions {
		cl, err := c.Classify(ctx, gray, r)
		if err != nil {
			return nil, fmt.Errorf("region %d (%s): %w", i, r, err)
		}
		out[i] = cl
	}
	return out, nil
}
