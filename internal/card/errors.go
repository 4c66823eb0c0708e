package card

import (
	"fmt"
	"strings"

	"github.com/ironsheep/idcard-tools/internal/detection"
	"github.com/ironsheep/idcard-tools/internal/fields"
)

// MissingInputError reports a record that failed validation. The record is
// skipped and nothing is rendered for it.
type MissingInputError struct {
	Record PersonRecord

	// Fields names every missing or unreadable input, see the Input
	// constants.
	Fields []string

	// Err is the cause of an unreadable input, if any.
	Err error
}

func (e *MissingInputError) Error() string {
	msg := fmt.Sprintf("%s: missing %s", e.Record, strings.Join(e.Fields, ", "))
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MissingInputError) Unwrap() error {
	return e.Err
}

// Has reports whether input is among the missing fields.
func (e *MissingInputError) Has(input string) bool {
	for _, f := range e.Fields {
		if f == input {
			return true
		}
	}
	return false
}

// RenderError reports a failure drawing one region of a record's card.
type RenderError struct {
	Record PersonRecord
	Kind   fields.Kind
	Region detection.Region
	Err    error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("%s: render %s region %s: %v", e.Record, e.Kind, e.Region, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// PersistError reports a failure writing a finished card.
type PersistError struct {
	Record PersonRecord
	Path   string
	Err    error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("%s: save %s: %v", e.Record, e.Path, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}
