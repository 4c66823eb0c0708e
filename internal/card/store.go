package card

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// DefaultOutputFormat is used when neither the configuration nor the
// photo's extension names a supported image format.
const DefaultOutputFormat = "png"

// Store derives output paths and writes finished cards.
type Store struct {
	// Dir relocates outputs, keeping their base names. Empty writes each
	// card next to its photo.
	Dir string

	// Suffix is appended to the photo's base name.
	Suffix string

	// Format is the output extension. Empty keeps the photo's extension.
	Format string

	JPEGQuality int
}

// OutputPath returns the deterministic output path for rec:
// <photo path without extension><suffix>.<ext>, moved into Dir when set.
// The same record always maps to the same path, so reruns overwrite.
func (s Store) OutputPath(rec PersonRecord) string {
	ref := rec.PhotoRef
	photoExt := filepath.Ext(ref)
	base := strings.TrimSuffix(ref, photoExt)

	ext := strings.TrimPrefix(s.Format, ".")
	if ext == "" {
		ext = strings.TrimPrefix(photoExt, ".")
	}
	if _, err := imaging.FormatFromExtension(ext); err != nil {
		ext = DefaultOutputFormat
	}

	path := base + s.Suffix + "." + strings.ToLower(ext)
	if s.Dir != "" {
		path = filepath.Join(s.Dir, filepath.Base(path))
	}
	return path
}

// Save encodes img to path in the format its extension names.
//
// The card is written to a temporary file in the same directory and
// renamed into place, so a partially written card is never visible at
// path.
func (s Store) Save(img image.Image, path string) error {
	format, err := imaging.FormatFromFilename(path)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".card-*"+filepath.Ext(path))
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set card permissions: %w", err)
	}

	var opts []imaging.EncodeOption
	if s.JPEGQuality > 0 {
		opts = append(opts, imaging.JPEGQuality(s.JPEGQuality))
	}
	if err := imaging.Encode(tmp, img, format, opts...); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode card: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write card: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to move card into place: %w", err)
	}
	return nil
}
