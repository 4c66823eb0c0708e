package card

import (
	"fmt"
	"strings"
)

// Input names reported by MissingInputError.
const (
	InputTemplate         = "template"
	InputFirstName        = "first_name"
	InputLastName         = "last_name"
	InputStaffNumber      = "staff_number"
	InputCredentialNumber = "credential_number"
	InputTeachingStaff    = "teaching_staff"
	InputPhoto            = "photo"
)

// PersonRecord is one roster entry. Every field is required.
type PersonRecord struct {
	// Row is the record's 1-based position in its source, 0 when unknown.
	// It is used only for reporting.
	Row int `json:"row,omitempty"`

	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	StaffNumber      string `json:"staff_number"`
	CredentialNumber string `json:"credential_number"`

	// TeachingStaff is nil when the roster leaves the role blank.
	TeachingStaff *bool `json:"teaching_staff"`

	// PhotoRef is the photo's file path. The output path is derived from it.
	PhotoRef string `json:"photo"`
}

// DisplayName returns "First Last".
func (p PersonRecord) DisplayName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

func (p PersonRecord) String() string {
	if p.Row > 0 {
		return fmt.Sprintf("row %d (%s)", p.Row, p.DisplayName())
	}
	return p.DisplayName()
}

// missingFields lists the scalar inputs that are blank. The photo is only
// checked for presence here; whether it can be read is checked by the
// engine.
func (p PersonRecord) missingFields() []string {
	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{InputFirstName, p.FirstName},
		{InputLastName, p.LastName},
		{InputStaffNumber, p.StaffNumber},
		{InputCredentialNumber, p.CredentialNumber},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if p.TeachingStaff == nil {
		missing = append(missing, InputTeachingStaff)
	}
	if strings.TrimSpace(p.PhotoRef) == "" {
		missing = append(missing, InputPhoto)
	}
	return missing
}

// Bool returns a pointer to b, for filling TeachingStaff.
func Bool(b bool) *bool {
	return &b
}
