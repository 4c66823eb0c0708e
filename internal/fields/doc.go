// Package fields classifies template placeholder regions.
//
// A Classifier reads the label printed inside a region with an injected
// ocr.Recognizer, normalizes the text and compares it against an ordered
// vocabulary of (keyword, Kind) entries using a partial fuzzy ratio. The
// first entry that scores above the threshold decides the region's Kind;
// later entries are not consulted. Regions that match nothing are Unknown
// and are left untouched by the renderer.
package fields
