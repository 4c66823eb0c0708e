// Package config loads the per-template YAML configuration.
//
// A configuration file describes one card template: where it lives, the
// size window its placeholder boxes fall into, how their labels are read
// and classified, and how replacement content is drawn. Every value has a
// default (see Default) so a file only needs to name what differs.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/skip2/go-qrcode"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/idcard-tools/internal/detection"
	"github.com/ironsheep/idcard-tools/internal/fields"
	imgutil "github.com/ironsheep/idcard-tools/internal/imaging"
	"github.com/ironsheep/idcard-tools/internal/ocr"
	"github.com/ironsheep/idcard-tools/internal/render"
)

// DefaultSuffix is appended to the photo's base name to form the output
// file name.
const DefaultSuffix = "_id_card_output"

// Config is the complete configuration for one template.
type Config struct {
	// Template is the template image or PDF. Relative paths in a loaded
	// file are resolved against the file's directory.
	Template string `yaml:"template"`

	// PDFDPI is the rasterization resolution of PDF templates.
	PDFDPI float64 `yaml:"pdf_dpi"`

	// Workers bounds concurrent record processing. Zero means one per
	// logical CPU.
	Workers int `yaml:"workers"`

	// MetricsFile, when set, receives batch metrics in Prometheus text
	// format after every run.
	MetricsFile string `yaml:"metrics_file"`

	Roster         Roster         `yaml:"roster"`
	Output         Output         `yaml:"output"`
	Detection      Detection      `yaml:"detection"`
	Classification Classification `yaml:"classification"`
	Rendering      Rendering      `yaml:"rendering"`
}

// Roster locates person records and their photos.
type Roster struct {
	Path            string   `yaml:"path"`
	PhotoDir        string   `yaml:"photo_dir"`
	PhotoExtensions []string `yaml:"photo_extensions"`
}

// Output controls where and how rendered cards are written.
type Output struct {
	// Dir relocates outputs into one directory. Empty writes each card
	// next to its photo.
	Dir    string `yaml:"dir"`
	Suffix string `yaml:"suffix"`

	// Format is an image extension such as "png" or "jpg". Empty uses the
	// photo's own extension.
	Format      string `yaml:"format"`
	JPEGQuality int    `yaml:"jpeg_quality"`
}

// Detection configures placeholder box detection.
type Detection struct {
	detection.SizeWindow `yaml:",inline"`
	BlurRadius           float64 `yaml:"blur_radius"`
	DarkBoxes            bool    `yaml:"dark_boxes"`
}

// Classification configures label recognition and keyword matching.
type Classification struct {
	Threshold      int               `yaml:"threshold"`
	MinLengthRatio float64           `yaml:"min_length_ratio"`
	BlockSize      int               `yaml:"block_size"`
	Offset         int               `yaml:"offset"`
	Language       string            `yaml:"language"`
	PageSegMode    int               `yaml:"page_seg_mode"`
	TessdataPrefix string            `yaml:"tessdata_prefix"`
	Variables      map[string]string `yaml:"variables"`

	// Cache classifies the template once per batch instead of once per
	// record.
	Cache      bool              `yaml:"cache"`
	Vocabulary fields.Vocabulary `yaml:"vocabulary"`
}

// Rendering configures how replacement content is drawn.
type Rendering struct {
	Font        string        `yaml:"font"`
	FontSize    float64       `yaml:"font_size"`
	FillColor   string        `yaml:"fill_color"`
	TextColor   string        `yaml:"text_color"`
	BorderColor string        `yaml:"border_color"`
	BorderWidth int           `yaml:"border_width"`
	QRLevel     string        `yaml:"qr_level"`
	Labels      render.Labels `yaml:"labels"`
}

// Default returns the configuration of the stock staff card template.
// The detection window is a starting point; real templates should set
// their own.
func Default() *Config {
	return &Config{
		PDFDPI: imgutil.DefaultPDFDPI,
		Roster: Roster{
			PhotoExtensions: []string{"jpg", "jpeg", "png"},
		},
		Output: Output{
			Suffix:      DefaultSuffix,
			JPEGQuality: 95,
		},
		Detection: Detection{
			SizeWindow: detection.SizeWindow{
				MinWidth:  100,
				MaxWidth:  1500,
				MinHeight: 40,
				MaxHeight: 1500,
			},
			BlurRadius: 1,
		},
		Classification: Classification{
			Threshold:      fields.DefaultThreshold,
			MinLengthRatio: fields.DefaultMinLengthRatio,
			BlockSize:      31,
			Offset:         10,
			Language:       ocr.DefaultLanguage,
			PageSegMode:    int(ocr.ModeBlock),
			Cache:          true,
			Vocabulary:     fields.DefaultVocabulary(),
		},
		Rendering: Rendering{
			Font:        render.FontGoRegular,
			FontSize:    render.DefaultFontSize,
			FillColor:   "#FFFFFF",
			TextColor:   "#000000",
			BorderColor: "#000000",
			QRLevel:     "medium",
			Labels:      render.DefaultLabels(),
		},
	}
}

// Load reads a YAML file over the defaults. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.resolvePaths(filepath.Dir(path))
	return cfg, nil
}

// Parse decodes YAML over the defaults without touching the filesystem.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func (c *Config) resolvePaths(dir string) {
	for _, p := range []*string{&c.Template, &c.Roster.Path, &c.Roster.PhotoDir} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
}

// Validate reports the first inconsistent setting.
func (c *Config) Validate() error {
	if err := c.Detection.SizeWindow.Validate(); err != nil {
		return fmt.Errorf("detection: %w", err)
	}
	if c.Detection.BlurRadius < 0 {
		return fmt.Errorf("detection: blur_radius must not be negative, got %v", c.Detection.BlurRadius)
	}
	if c.PDFDPI <= 0 {
		return fmt.Errorf("pdf_dpi must be positive, got %v", c.PDFDPI)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}

	cl := c.Classification
	if cl.Threshold < 0 || cl.Threshold > 100 {
		return fmt.Errorf("classification: threshold must be within 0-100, got %d", cl.Threshold)
	}
	if cl.MinLengthRatio <= 0 || cl.MinLengthRatio > 1 {
		return fmt.Errorf("classification: min_length_ratio must be within (0, 1], got %v", cl.MinLengthRatio)
	}
	if cl.BlockSize < 3 {
		return fmt.Errorf("classification: block_size must be at least 3, got %d", cl.BlockSize)
	}
	if !ocr.Mode(cl.PageSegMode).Valid() {
		return fmt.Errorf("classification: invalid page_seg_mode %d", cl.PageSegMode)
	}
	if err := cl.Vocabulary.Validate(); err != nil {
		return fmt.Errorf("classification: %w", err)
	}

	if c.Output.Suffix == "" && c.Output.Dir == "" {
		return errors.New("output: an empty suffix needs an output dir, or cards would overwrite photos")
	}
	if c.Output.Format != "" {
		if _, err := imaging.FormatFromExtension(c.Output.Format); err != nil {
			return fmt.Errorf("output: unsupported format %q", c.Output.Format)
		}
	}
	if c.Output.JPEGQuality < 1 || c.Output.JPEGQuality > 100 {
		return fmt.Errorf("output: jpeg_quality must be within 1-100, got %d", c.Output.JPEGQuality)
	}

	r := c.Rendering
	if r.FontSize <= 0 {
		return fmt.Errorf("rendering: font_size must be positive, got %v", r.FontSize)
	}
	if r.BorderWidth < 0 {
		return fmt.Errorf("rendering: border_width must not be negative, got %d", r.BorderWidth)
	}
	for name, hex := range map[string]string{"fill_color": r.FillColor, "text_color": r.TextColor, "border_color": r.BorderColor} {
		if hex == "" && name != "text_color" {
			continue
		}
		if _, err := imgutil.ParseHexColor(hex); err != nil {
			return fmt.Errorf("rendering: %s: %w", name, err)
		}
	}
	if _, err := parseQRLevel(r.QRLevel); err != nil {
		return fmt.Errorf("rendering: %w", err)
	}
	return nil
}

// DetectionOptions returns the region detector settings.
func (c *Config) DetectionOptions() detection.Options {
	return detection.Options{
		Window:     c.Detection.SizeWindow,
		BlurRadius: c.Detection.BlurRadius,
		DarkBoxes:  c.Detection.DarkBoxes,
	}
}

// ClassifierOptions returns the region classifier settings.
func (c *Config) ClassifierOptions() fields.Options {
	cl := c.Classification
	return fields.Options{
		Vocabulary:     cl.Vocabulary,
		Threshold:      cl.Threshold,
		MinLengthRatio: cl.MinLengthRatio,
		BlockSize:      cl.BlockSize,
		Offset:         cl.Offset,
		Language:       cl.Language,
		Mode:           ocr.Mode(cl.PageSegMode),
	}
}

// OCROptions returns the Tesseract settings.
func (c *Config) OCROptions() ocr.Options {
	return ocr.Options{
		TessdataPrefix: c.Classification.TessdataPrefix,
		Variables:      c.Classification.Variables,
	}
}

// RendererOptions loads the font and parses the colours.
func (c *Config) RendererOptions() (render.Options, error) {
	r := c.Rendering
	f, err := render.LoadFont(r.Font, r.FontSize)
	if err != nil {
		return render.Options{}, err
	}

	style := render.Style{BorderWidth: r.BorderWidth}
	if r.FillColor != "" {
		if style.Fill, err = imgutil.ParseHexColor(r.FillColor); err != nil {
			return render.Options{}, fmt.Errorf("fill_color: %w", err)
		}
	}
	if style.Text, err = imgutil.ParseHexColor(r.TextColor); err != nil {
		return render.Options{}, fmt.Errorf("text_color: %w", err)
	}
	if r.BorderColor != "" {
		if style.Border, err = imgutil.ParseHexColor(r.BorderColor); err != nil {
			return render.Options{}, fmt.Errorf("border_color: %w", err)
		}
	}

	level, err := parseQRLevel(r.QRLevel)
	if err != nil {
		return render.Options{}, err
	}

	return render.Options{Font: f, Style: style, Labels: r.Labels, QRLevel: level}, nil
}

func parseQRLevel(s string) (qrcode.RecoveryLevel, error) {
	switch strings.ToLower(s) {
	case "low":
		return qrcode.Low, nil
	case "", "medium":
		return qrcode.Medium, nil
	case "high":
		return qrcode.High, nil
	case "highest":
		return qrcode.Highest, nil
	}
	return qrcode.Medium, fmt.Errorf("unknown qr_level %q", s)
}
