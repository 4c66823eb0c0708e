// Package render draws per-person content into classified template regions.
//
// Photo regions receive the person's photo resized to exactly the region's
// size. Text regions (name, staff number, credential number, role label) are
// filled, optionally bordered, and receive a single line of text whose ink
// is centred in the box. QR code regions receive a code encoding the
// person's identifiers. Unknown regions are never touched.
package render
