package roster

import (
	"os"
	"path/filepath"
	"strings"
)

// DefaultPhotoExtensions are tried in order when a roster row names no
// photo.
var DefaultPhotoExtensions = []string{"jpg", "jpeg", "png"}

// PhotoLocator resolves a person's photo file.
type PhotoLocator struct {
	Dir        string
	Extensions []string
}

// NewPhotoLocator creates a locator for photos in dir using the default
// extensions.
func NewPhotoLocator(dir string, extensions ...string) *PhotoLocator {
	if len(extensions) == 0 {
		extensions = DefaultPhotoExtensions
	}
	return &PhotoLocator{Dir: dir, Extensions: extensions}
}

// Resolve returns the photo path for a roster row. An explicit cell value
// wins and is joined to Dir when relative. Otherwise the locator looks for
// <dir>/<first>_<last>.<ext> in lowercase, trying each extension in order,
// and returns "" when none exists.
func (l *PhotoLocator) Resolve(cell, first, last string) string {
	if cell != "" {
		if filepath.IsAbs(cell) || l.Dir == "" {
			return cell
		}
		return filepath.Join(l.Dir, cell)
	}
	if first == "" || last == "" {
		return ""
	}

	stem := strings.ToLower(first + "_" + last)
	for _, ext := range l.Extensions {
		p := filepath.Join(l.Dir, stem+"."+strings.TrimPrefix(ext, "."))
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}
