// Package roster reads person records from a CSV export of the staff
// spreadsheet and finds each person's photo.
//
// Cells are passed through as-is apart from trimming: a blank cell stays
// blank so the card engine's validation reports it.
package roster

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ironsheep/idcard-tools/internal/card"
)

// Column headers, matched case-insensitively. Each field accepts the
// original spreadsheet heading and a neutral alias.
var columns = map[string][]string{
	card.InputFirstName:        {"first name", "first_name"},
	card.InputLastName:         {"last name", "last_name"},
	card.InputStaffNumber:      {"teacher number", "staff number", "staff_number"},
	card.InputCredentialNumber: {"dbs number", "credential number", "credential_number"},
	card.InputTeachingStaff:    {"teaching staff", "teaching_staff"},
	card.InputPhoto:            {"photo", "picture"},
}

// Load reads the roster at path. Relative photo paths are resolved against
// the locator's directory, or the roster's own directory when the locator
// is nil.
func Load(path string, loc *PhotoLocator) ([]card.PersonRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open roster: %w", err)
	}
	defer f.Close()

	if loc == nil {
		loc = NewPhotoLocator(filepath.Dir(path))
	}
	records, err := Read(f, loc)
	if err != nil {
		return nil, fmt.Errorf("roster %s: %w", path, err)
	}
	return records, nil
}

// Read parses CSV roster data. The first row must be the header; First
// Name and Last Name columns are required.
func Read(r io.Reader, loc *PhotoLocator) ([]card.PersonRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) < 1 {
		return nil, fmt.Errorf("roster has no header")
	}

	cols := indexColumns(rows[0])
	for _, required := range []string{card.InputFirstName, card.InputLastName} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("roster has no %q column", columns[required][0])
		}
	}

	get := func(row []string, field string) string {
		if idx, ok := cols[field]; ok && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	out := make([]card.PersonRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		rec := card.PersonRecord{
			Row:              i + 1,
			FirstName:        get(row, card.InputFirstName),
			LastName:         get(row, card.InputLastName),
			StaffNumber:      get(row, card.InputStaffNumber),
			CredentialNumber: get(row, card.InputCredentialNumber),
			TeachingStaff:    parseBool(get(row, card.InputTeachingStaff)),
		}
		if loc != nil {
			rec.PhotoRef = loc.Resolve(get(row, card.InputPhoto), rec.FirstName, rec.LastName)
		} else {
			rec.PhotoRef = get(row, card.InputPhoto)
		}
		out = append(out, rec)
	}
	return out, nil
}

func indexColumns(header []string) map[string]int {
	byName := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		byName[h] = i
	}

	cols := make(map[string]int)
	for field, names := range columns {
		for _, name := range names {
			if idx, ok := byName[name]; ok {
				cols[field] = idx
				break
			}
		}
	}
	return cols
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// parseBool reads a yes/no cell. Blank or unrecognized values are nil so
// the record is reported as missing its role.
func parseBool(s string) *bool {
	switch strings.ToLower(s) {
	case "true", "yes", "y", "1":
		return card.Bool(true)
	case "false", "no", "n", "0":
		return card.Bool(false)
	}
	return nil
}
