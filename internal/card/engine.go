package card

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strings"
	"time"

	"github.com/ironsheep/idcard-tools/internal/detection"
	"github.com/ironsheep/idcard-tools/internal/fields"
	"github.com/ironsheep/idcard-tools/internal/imaging"
	"github.com/ironsheep/idcard-tools/internal/render"
)

// Stage is a point in a record's pipeline. A record that stops early ends
// in StageSkipped or StageFailed.
type Stage int

const (
	StageLoaded Stage = iota
	StageValidated
	StageRegionsDetected
	StageRegionsClassified
	StageRendered
	StageSaved
	StageSkipped
	StageFailed
)

var stageNames = [...]string{
	StageLoaded:            "loaded",
	StageValidated:         "validated",
	StageRegionsDetected:   "regions_detected",
	StageRegionsClassified: "regions_classified",
	StageRendered:          "rendered",
	StageSaved:             "saved",
	StageSkipped:           "skipped",
	StageFailed:            "failed",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("Stage(%d)", int(s))
	}
	return stageNames[s]
}

// RenderedCard describes a card that was written.
type RenderedCard struct {
	Record PersonRecord `json:"record"`
	Path   string       `json:"path"`

	// Fields are the regions that received content, in detection order.
	Fields []Field `json:"fields"`
}

// Result is the outcome of one record.
type Result struct {
	Record   PersonRecord
	Stage    Stage
	Card     *RenderedCard
	Duration time.Duration
	Err      error
}

// Observer is notified after every record. Implementations must be safe
// for concurrent use.
type Observer interface {
	ObserveRecord(Result)
}

// PhotoLoader decodes the photo a record refers to.
type PhotoLoader func(ref string) (image.Image, error)

func openPhoto(ref string) (image.Image, error) {
	return imaging.Open(ref, 0)
}

// Engine renders cards. It is safe for concurrent use.
type Engine struct {
	detector   *detection.Detector
	classifier *fields.Classifier
	renderer   *render.Renderer
	store      Store

	cache     bool
	workers   int
	loadPhoto PhotoLoader
	observer  Observer
	logger    *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithObserver registers an observer for record results.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		e.observer = o
	}
}

// WithPhotoLoader replaces the default file-based photo decoder.
func WithPhotoLoader(fn PhotoLoader) Option {
	return func(e *Engine) {
		if fn != nil {
			e.loadPhoto = fn
		}
	}
}

// WithWorkers bounds the number of records Run processes at once.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithClassificationCache controls whether Prepare classifies the
// template once for the whole batch. It is on by default.
func WithClassificationCache(enabled bool) Option {
	return func(e *Engine) {
		e.cache = enabled
	}
}

// NewEngine assembles an engine from its components.
func NewEngine(det *detection.Detector, cls *fields.Classifier, rnd *render.Renderer, store Store, opts ...Option) *Engine {
	e := &Engine{
		detector:   det,
		classifier: cls,
		renderer:   rnd,
		store:      store,
		cache:      true,
		workers:    1,
		loadPhoto:  openPhoto,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Store returns the engine's output store.
func (e *Engine) Store() Store {
	return e.store
}

// Detect finds the template's regions without classifying them.
func (e *Engine) Detect(tpl *Template) ([]detection.Region, error) {
	if tpl == nil || tpl.Image == nil {
		return nil, errors.New("template image not loaded")
	}
	regions, err := e.detector.Detect(tpl.Image)
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", tpl.Path, err)
	}
	return regions, nil
}

// Prepare detects the template's regions and, with caching on, classifies
// them. A template without regions fails with an error wrapping
// detection.ErrNoRegions; no record of it can be rendered.
func (e *Engine) Prepare(ctx context.Context, tpl *Template) (*Layout, error) {
	if tpl == nil || tpl.Image == nil {
		return nil, errors.New("template image not loaded")
	}

	start := time.Now()
	regions, err := e.Detect(tpl)
	if err != nil {
		return nil, err
	}
	layout := &Layout{Template: tpl, Regions: regions}

	if e.cache {
		cls, err := e.classifier.ClassifyAll(ctx, imaging.Grayscale(tpl.Image), regions)
		if err != nil {
			return nil, fmt.Errorf("template %s: %w", tpl.Path, err)
		}
		layout.Fields = toFields(regions, cls)
	}

	e.logger.Info("template prepared",
		"template", tpl.Path,
		"regions", len(regions),
		"classified", layout.Classified(),
		"duration", time.Since(start))
	for i, f := range layout.Fields {
		e.logger.Debug("template field", "index", i, "region", f.Region.String(), "kind", f.Kind, "text", f.Region.Text)
	}
	return layout, nil
}

// Classify returns the layout's fields, classifying the template when the
// layout carries no cached classification.
func (e *Engine) Classify(ctx context.Context, layout *Layout) ([]Field, error) {
	if layout == nil || layout.Template == nil || layout.Template.Image == nil {
		return nil, errors.New("template image not loaded")
	}
	return e.classify(ctx, layout, layout.Template.Image)
}

func (e *Engine) classify(ctx context.Context, layout *Layout, img image.Image) ([]Field, error) {
	if layout.Classified() {
		return layout.Fields, nil
	}
	cls, err := e.classifier.ClassifyAll(ctx, imaging.Grayscale(img), layout.Regions)
	if err != nil {
		return nil, err
	}
	return toFields(layout.Regions, cls), nil
}

// Process renders and saves one record's card.
//
// Errors are *MissingInputError (record skipped), *RenderError or
// *PersistError (record failed), or the context's error.
func (e *Engine) Process(ctx context.Context, layout *Layout, rec PersonRecord) (*RenderedCard, error) {
	res := e.process(ctx, layout, rec)
	return res.Card, res.Err
}

func (e *Engine) process(ctx context.Context, layout *Layout, rec PersonRecord) Result {
	start := time.Now()
	res := Result{Record: rec, Stage: StageLoaded}

	res.Card, res.Err = e.run(ctx, layout, rec, &res.Stage)
	res.Duration = time.Since(start)

	var missing *MissingInputError
	switch {
	case res.Err == nil:
		e.logger.Debug("card saved", "row", rec.Row, "name", rec.DisplayName(), "path", res.Card.Path, "duration", res.Duration)
	case errors.As(res.Err, &missing):
		res.Stage = StageSkipped
		e.logger.Warn("record skipped", "row", rec.Row, "name", rec.DisplayName(), "fields", missing.Fields, "error", res.Err)
	default:
		res.Stage = StageFailed
		e.logger.Warn("record failed", "row", rec.Row, "name", rec.DisplayName(), "error", res.Err)
	}

	if e.observer != nil {
		e.observer.ObserveRecord(res)
	}
	return res
}

func (e *Engine) run(ctx context.Context, layout *Layout, rec PersonRecord, stage *Stage) (*RenderedCard, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	photo, err := e.validate(layout, rec)
	if err != nil {
		return nil, err
	}
	*stage = StageValidated

	// Detection already ran in Prepare.
	*stage = StageRegionsDetected

	canvas := imaging.Clone(layout.Template.Image)
	fieldList, err := e.classify(ctx, layout, canvas)
	if err != nil {
		return nil, err
	}
	*stage = StageRegionsClassified

	content := render.Content{
		FirstName:        rec.FirstName,
		LastName:         rec.LastName,
		StaffNumber:      rec.StaffNumber,
		CredentialNumber: rec.CredentialNumber,
		TeachingStaff:    *rec.TeachingStaff,
		Photo:            photo,
	}
	card := &RenderedCard{Record: rec, Path: e.store.OutputPath(rec)}
	for _, f := range fieldList {
		if f.Kind == fields.Unknown {
			continue
		}
		if err := e.renderer.Render(canvas, f.Region, f.Kind, content); err != nil {
			return nil, &RenderError{Record: rec, Kind: f.Kind, Region: f.Region, Err: err}
		}
		card.Fields = append(card.Fields, f)
	}
	*stage = StageRendered

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := e.store.Save(canvas, card.Path); err != nil {
		return nil, &PersistError{Record: rec, Path: card.Path, Err: err}
	}
	*stage = StageSaved
	return card, nil
}

// validate checks every input of rec and decodes its photo. All problems
// are collected into one MissingInputError.
func (e *Engine) validate(layout *Layout, rec PersonRecord) (image.Image, error) {
	missing := rec.missingFields()
	if layout == nil || layout.Template == nil || layout.Template.Image == nil {
		missing = append([]string{InputTemplate}, missing...)
	}

	var photo image.Image
	var cause error
	if strings.TrimSpace(rec.PhotoRef) != "" {
		img, err := e.loadPhoto(rec.PhotoRef)
		if err != nil {
			missing = append(missing, InputPhoto)
			cause = err
		} else {
			photo = img
		}
	}

	if len(missing) > 0 {
		return nil, &MissingInputError{Record: rec, Fields: missing, Err: cause}
	}
	return photo, nil
}
