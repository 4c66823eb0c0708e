// Package detection locates placeholder boxes on an ID card template.
//
// A template is a static card design with rectangular boxes where per-person
// content goes (name, staff number, photo, ...). The Detector finds those
// boxes geometrically; it does not know what a box is for. Classification
// happens later, in package fields.
//
// # Algorithm Overview
//
//  1. Grayscale conversion
//  2. Global binarization at the Otsu level
//  3. A small Gaussian smoothing pass, then a second Otsu binarization
//  4. Outer contour extraction: 8-connected foreground components that touch
//     the outer background. Components sitting inside another component's
//     holes (the counter of an "O" printed in a box, say) are not outer
//     contours and are dropped.
//  5. Axis-aligned bounding box per component
//  6. Size filtering against a configured width/height window
//
// # Ordering
//
// Regions are returned in raster discovery order: the component whose first
// pixel is met first when scanning rows top to bottom, left to right, comes
// first. The order is stable for an unchanged template and options.
//
// # Polarity
//
// By default light pixels are foreground, which suits white boxes printed on
// a darker card. Options.DarkBoxes flips this for dark boxes on a light card.
//
// # Coordinate System
//
// Input images must have bounds starting at (0,0). Region coordinates are in
// template pixels; (X, Y) is the top-left corner, inclusive.
package detection
