// Package ocr reads the printed label inside a template placeholder box.
//
// The package wraps the Tesseract OCR engine (via gosseract/v2) behind the
// Recognizer interface so the classifier can be tested with stub readers.
//
// # Prerequisites
//
// Tesseract must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr
//   - macOS: brew install tesseract
//   - Windows: Download from https://github.com/UB-Mannheim/tesseract/wiki
//
// Language data files are required for each language:
//   - Ubuntu/Debian: apt-get install tesseract-ocr-eng (for English)
//   - Other languages: tesseract-ocr-<lang> packages
//
// A custom tessdata directory can be supplied with Options.TessdataPrefix.
//
// # Page Segmentation
//
// Placeholder labels are short blocks of text, so the default mode is
// ModeBlock (Tesseract's PSM 6, "assume a single uniform block of text").
//
// # Concurrency
//
// A gosseract client is not safe for concurrent use. Tesseract creates a
// fresh client per call, so a single Tesseract value can be shared between
// worker goroutines.
package ocr
