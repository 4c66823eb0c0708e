package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/idcard-tools/internal/fields"
	"github.com/ironsheep/idcard-tools/internal/ocr"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "card.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault_Valid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, fields.DefaultThreshold, cfg.Classification.Threshold)
	assert.Equal(t, fields.DefaultMinLengthRatio, cfg.Classification.MinLengthRatio)
	assert.Equal(t, DefaultSuffix, cfg.Output.Suffix)
	assert.True(t, cfg.Classification.Cache)
	assert.Equal(t, fields.DefaultVocabulary(), cfg.Classification.Vocabulary)
}

func TestLoad_OverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
template: template_id.png
workers: 3
detection:
  min_width: 500
  max_width: 1400
  min_height: 80
  max_height: 1200
  dark_boxes: true
classification:
  threshold: 85
  vocabulary:
    - keyword: picture
      kind: photo
    - keyword: name
      kind: Name
rendering:
  font: gobold
  labels:
    staff: Teacher Number
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, filepath.Join(filepath.Dir(path), "template_id.png"), cfg.Template)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, 500, cfg.Detection.MinWidth)
	assert.Equal(t, 1200, cfg.Detection.MaxHeight)
	assert.True(t, cfg.Detection.DarkBoxes)
	assert.Equal(t, 1.0, cfg.Detection.BlurRadius, "unset keys keep defaults")

	assert.Equal(t, 85, cfg.Classification.Threshold)
	assert.Equal(t, 31, cfg.Classification.BlockSize)
	assert.Equal(t, fields.Vocabulary{
		{Keyword: "picture", Kind: fields.Photo},
		{Keyword: "name", Kind: fields.Name},
	}, cfg.Classification.Vocabulary)

	assert.Equal(t, "gobold", cfg.Rendering.Font)
	assert.Equal(t, "Teacher Number", cfg.Rendering.Labels.Staff)
	assert.Equal(t, "DBS Number", cfg.Rendering.Labels.Credential, "unset labels keep defaults")
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "detection:\n  min_widht: 10\n"))
	assert.Error(t, err, "unknown keys are rejected")

	_, err = Load(writeConfig(t, "classification:\n  vocabulary:\n    - keyword: x\n      kind: signature\n"))
	assert.Error(t, err, "unknown kind names are rejected")
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_AbsolutePathsKept(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "photos")
	cfg, err := Load(writeConfig(t, "roster:\n  photo_dir: "+abs+"\n"))
	require.NoError(t, err)
	assert.Equal(t, abs, cfg.Roster.PhotoDir)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"inverted width window", func(c *Config) { c.Detection.MinWidth, c.Detection.MaxWidth = 900, 100 }},
		{"zero height", func(c *Config) { c.Detection.MinHeight = 0 }},
		{"negative blur", func(c *Config) { c.Detection.BlurRadius = -1 }},
		{"threshold above 100", func(c *Config) { c.Classification.Threshold = 101 }},
		{"negative threshold", func(c *Config) { c.Classification.Threshold = -1 }},
		{"tiny block", func(c *Config) { c.Classification.BlockSize = 1 }},
		{"zero min length ratio", func(c *Config) { c.Classification.MinLengthRatio = 0 }},
		{"min length ratio above 1", func(c *Config) { c.Classification.MinLengthRatio = 1.2 }},
		{"bad psm", func(c *Config) { c.Classification.PageSegMode = 20 }},
		{"empty vocabulary", func(c *Config) { c.Classification.Vocabulary = nil }},
		{"unknown kind entry", func(c *Config) {
			c.Classification.Vocabulary = fields.Vocabulary{{Keyword: "x", Kind: fields.Unknown}}
		}},
		{"bad fill colour", func(c *Config) { c.Rendering.FillColor = "#GGGGGG" }},
		{"missing text colour", func(c *Config) { c.Rendering.TextColor = "" }},
		{"bad qr level", func(c *Config) { c.Rendering.QRLevel = "extreme" }},
		{"bad format", func(c *Config) { c.Output.Format = "webp" }},
		{"bad jpeg quality", func(c *Config) { c.Output.JPEGQuality = 0 }},
		{"suffix without dir", func(c *Config) { c.Output.Suffix = "" }},
		{"negative workers", func(c *Config) { c.Workers = -2 }},
		{"zero dpi", func(c *Config) { c.PDFDPI = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg := Default()
	cfg.Output.Suffix = ""
	cfg.Output.Dir = t.TempDir()
	cfg.Rendering.FillColor = ""
	cfg.Output.Format = "PNG"
	assert.NoError(t, cfg.Validate(), "empty suffix is fine with an output dir")
}

func TestOptionConversions(t *testing.T) {
	cfg := Default()
	cfg.Detection.DarkBoxes = true
	cfg.Classification.Language = "deu"
	cfg.Classification.PageSegMode = 7
	cfg.Classification.TessdataPrefix = "/opt/tessdata"
	cfg.Classification.MinLengthRatio = 0.5

	det := cfg.DetectionOptions()
	assert.Equal(t, cfg.Detection.SizeWindow, det.Window)
	assert.True(t, det.DarkBoxes)

	cl := cfg.ClassifierOptions()
	assert.Equal(t, "deu", cl.Language)
	assert.Equal(t, ocr.ModeSingleLine, cl.Mode)
	assert.Equal(t, 0.5, cl.MinLengthRatio)
	assert.Equal(t, cfg.Classification.Vocabulary, cl.Vocabulary)

	assert.Equal(t, "/opt/tessdata", cfg.OCROptions().TessdataPrefix)

	ro, err := cfg.RendererOptions()
	require.NoError(t, err)
	require.NotNil(t, ro.Font)
	assert.Equal(t, "Staff Number", ro.Labels.Staff)
	assert.NotNil(t, ro.Style.Fill)

	cfg.Rendering.FillColor = ""
	ro, err = cfg.RendererOptions()
	require.NoError(t, err)
	assert.Nil(t, ro.Style.Fill, "empty fill keeps the template box")

	cfg.Rendering.Font = "/nonexistent/font.ttf"
	_, err = cfg.RendererOptions()
	assert.Error(t, err)
}
