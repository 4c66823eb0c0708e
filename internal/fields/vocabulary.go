package fields

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultThreshold is the minimum partial ratio a keyword must exceed.
const DefaultThreshold = 90

// Entry maps a label keyword to the kind of field it marks.
type Entry struct {
	Keyword string `yaml:"keyword" json:"keyword"`
	Kind    Kind   `yaml:"kind" json:"kind"`
}

// Vocabulary is an ordered keyword table. Order is policy: the first entry
// that matches wins.
type Vocabulary []Entry

// DefaultVocabulary returns the keyword table for the stock staff card
// template. A fresh slice is returned on every call.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		{Keyword: "name", Kind: Name},
		{Keyword: "teacher number", Kind: StaffNumber},
		{Keyword: "staff number", Kind: StaffNumber},
		{Keyword: "dbs number", Kind: CredentialNumber},
		{Keyword: "credential number", Kind: CredentialNumber},
		{Keyword: "picture", Kind: Photo},
		{Keyword: "teaching staff", Kind: RoleLabel},
		{Keyword: "qr code", Kind: QRCode},
	}
}

// Validate rejects empty tables, blank keywords and entries that map to
// Unknown.
func (v Vocabulary) Validate() error {
	if len(v) == 0 {
		return errors.New("vocabulary is empty")
	}
	for i, e := range v {
		if strings.TrimSpace(e.Keyword) == "" {
			return fmt.Errorf("vocabulary entry %d: empty keyword", i)
		}
		if e.Kind == Unknown {
			return fmt.Errorf("vocabulary entry %d (%q): kind must not be unknown", i, e.Keyword)
		}
	}
	return nil
}

// Match returns the kind of the first entry whose keyword scores strictly
// above threshold against text, together with that score, using
// DefaultMinLengthRatio. See MatchMin.
func (v Vocabulary) Match(text string, threshold int) (Kind, int) {
	return v.MatchMin(text, threshold, DefaultMinLengthRatio)
}

// MatchMin is Match with an explicit minimum text-to-keyword length ratio
// (see PartialRatioMin). Text and keywords are compared in normalized
// form. No match returns Unknown and the best score seen.
func (v Vocabulary) MatchMin(text string, threshold int, minRatio float64) (Kind, int) {
	text = Normalize(text)
	best := 0
	for _, e := range v {
		score := PartialRatioMin(Normalize(e.Keyword), text, minRatio)
		if score > threshold {
			return e.Kind, score
		}
		best = max(best, score)
	}
	return Unknown, best
}
