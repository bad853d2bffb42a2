package domain

import (
	"path/filepath"
	"strings"
)

// Format identifies a supported document format.
type Format string

// Supported document formats.
const (
	// FormatText is plain text.
	FormatText Format = "txt"

	// FormatFB2 is FictionBook 2 markup.
	FormatFB2 Format = "fb2"

	// FormatEPUB is an EPUB e-book archive.
	FormatEPUB Format = "epub"

	// FormatDOCX is an Office Open XML word-processor document.
	FormatDOCX Format = "docx"

	// FormatPDF is a portable document.
	FormatPDF Format = "pdf"

	// FormatDjVu is a DjVu scanned archive.
	FormatDjVu Format = "djvu"
)

// AllFormats returns every supported format.
func AllFormats() []Format {
	return []Format{FormatText, FormatFB2, FormatEPUB, FormatDOCX, FormatPDF, FormatDjVu}
}

// FormatFromPath detects the format from a file extension.
// Returns false if the extension is not supported.
func FormatFromPath(path string) (Format, bool) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	switch ext {
	case "txt":
		return FormatText, true
	case "fb2":
		return FormatFB2, true
	case "epub":
		return FormatEPUB, true
	case "docx":
		return FormatDOCX, true
	case "pdf":
		return FormatPDF, true
	case "djvu", "djv":
		return FormatDjVu, true
	default:
		return "", false
	}
}

// IsValid returns true if the format is recognised.
func (f Format) IsValid() bool {
	switch f {
	case FormatText, FormatFB2, FormatEPUB, FormatDOCX, FormatPDF, FormatDjVu:
		return true
	default:
		return false
	}
}

// IsScanned returns true for formats that may carry only page images
// and therefore go through the OCR cascade.
func (f Format) IsScanned() bool {
	return f == FormatPDF || f == FormatDjVu
}

// String returns the string representation.
func (f Format) String() string {
	return string(f)
}
