// Package file provides the TOML configuration store.
//
// Keys are flat dot-notation strings ("ocr.enabled") in memory and nested
// tables on disk, so the file stays readable and hand-editable.
package file
