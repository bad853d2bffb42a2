// Package tesseract provides the optical recognition engine used for
// scanned pages, backed by Tesseract through gosseract.
//
// # Build Requirements
//
// The gosseract binding needs cgo and the tesseract/leptonica headers.
// Without cgo the engine reports itself unavailable and every page
// recognises to an empty string, which the cascade treats as a failed
// recognition and falls back to native text.
//
// Install:
//   - macOS: brew install tesseract tesseract-lang
//   - Debian/Ubuntu: apt install libtesseract-dev tesseract-ocr-rus
package tesseract
