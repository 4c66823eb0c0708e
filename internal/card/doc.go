// Package card turns a template and a roster of people into ID cards.
//
// The Engine drives each record through a fixed pipeline:
//
//	Loaded -> Validated -> RegionsDetected -> RegionsClassified -> Rendered -> Saved
//
// Validation is a gate: a record missing any input (a scalar field, its
// photo, or the template) is skipped with a *MissingInputError and never
// rendered. Region detection runs once per template (Prepare). When
// classification caching is on, the template's regions are also classified
// once; otherwise each record classifies the grayscale of its own working
// copy. Rendering always happens on a private clone of the template, so the
// shared template image is never modified and records can be processed
// concurrently.
//
// Run processes a whole batch on a bounded worker pool. A failing record
// is logged and counted but never stops the batch; only context
// cancellation does.
package card
