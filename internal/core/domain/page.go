package domain

// PageClass is the text-layer classification of a scanned page.
type PageClass int

const (
	// PageNative means the page carries a usable text layer.
	PageNative PageClass = iota

	// PageNeedsOCR means the page must be optically recognised.
	PageNeedsOCR

	// PageOCRFailedFallback means recognition produced nothing and the
	// page kept whatever native text it had.
	PageOCRFailedFallback
)

// String returns a short name for the class.
func (c PageClass) String() string {
	switch c {
	case PageNative:
		return "native"
	case PageNeedsOCR:
		return "needs_ocr"
	case PageOCRFailedFallback:
		return "ocr_failed_fallback"
	default:
		return "unknown"
	}
}

// Page is one page of a scanned document. It exists only while the
// document is being ingested and is never persisted.
type Page struct {
	// Number is the 1-based page number.
	Number int

	// NativeText is the extracted text layer, possibly empty.
	NativeText string

	// Class is the classification result.
	Class PageClass

	// RecognizedText is the OCR output, empty if OCR was not run or failed.
	RecognizedText string
}

// PageImage is a rendered page handed to the OCR engine.
type PageImage struct {
	// Page is the 1-based page number.
	Page int

	// Data is the encoded image payload.
	Data []byte

	// DPI is the render resolution, zero if unknown.
	DPI int
}
