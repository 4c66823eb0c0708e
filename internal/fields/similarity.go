package fields

import (
	"math"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
)

// Normalize lowercases s, trims it and collapses internal whitespace runs
// to single spaces.
func Normalize(s string) string {
	return strings.Join(strings.FieldsFunc(strings.ToLower(s), unicode.IsSpace), " ")
}

// DefaultMinLengthRatio is the shortest text, as a fraction of the
// keyword's length, that may score in full against part of the keyword.
const DefaultMinLengthRatio = 0.75

// PartialRatio scores how well keyword appears somewhere inside text, on a
// 0-100 scale, using DefaultMinLengthRatio. See PartialRatioMin.
func PartialRatio(keyword, text string) int {
	return PartialRatioMin(keyword, text, DefaultMinLengthRatio)
}

// PartialRatioMin scores how well keyword appears somewhere inside text, on
// a 0-100 scale.
//
// The keyword is compared against every equal-length window of text; a
// window scores 100 * (1 - distance/length) where distance is the
// Levenshtein edit distance. The best window wins.
//
// Text shorter than the keyword is slid over the keyword instead. When it
// is shorter than minRatio of the keyword's length the score is scaled
// down by the length ratio, so a stray fragment such as "e" cannot match
// "name". Either string being empty scores 0.
func PartialRatioMin(keyword, text string, minRatio float64) int {
	needle, hay := []rune(keyword), []rune(text)
	if len(needle) == 0 || len(hay) == 0 {
		return 0
	}
	if len(hay) >= len(needle) {
		return bestWindow(needle, hay)
	}

	ratio := float64(len(hay)) / float64(len(needle))
	score := bestWindow(hay, needle)
	if ratio >= minRatio {
		return score
	}
	return int(math.Round(float64(score) * ratio))
}

// bestWindow returns the best score of needle against the equal-length
// windows of hay. len(needle) must not exceed len(hay).
func bestWindow(needle, hay []rune) int {
	n := string(needle)
	best := 0
	for i := 0; i+len(needle) <= len(hay); i++ {
		d := levenshtein.ComputeDistance(n, string(hay[i:i+len(needle)]))
		score := int(math.Round(100 * (1 - float64(d)/float64(len(needle)))))
		if score > best {
			best = score
			if best == 100 {
				break
			}
		}
	}
	return best
}
