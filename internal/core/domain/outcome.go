package domain

// OutcomeStatus classifies how a document's extraction ended.
type OutcomeStatus int

const (
	// OutcomeSuccess means the preferred extraction path produced text.
	OutcomeSuccess OutcomeStatus = iota

	// OutcomeDegraded means text was produced by a fallback path
	// (OCR, native-text fallback, or a truncated OCR run).
	OutcomeDegraded

	// OutcomeSkip means no usable text was produced; the document must
	// not contribute passages.
	OutcomeSkip
)

// String returns a short name for the status.
func (s OutcomeStatus) String() string {
	switch s {
	case OutcomeSuccess:
		return "success"
	case OutcomeDegraded:
		return "degraded"
	case OutcomeSkip:
		return "skip"
	default:
		return "unknown"
	}
}

// Outcome is the explicit per-document result of extraction,
// carried alongside the extracted text instead of an error.
type Outcome struct {
	Status     OutcomeStatus
	Diagnostic string
}

// Success returns a success outcome.
func Success(diagnostic string) Outcome {
	return Outcome{Status: OutcomeSuccess, Diagnostic: diagnostic}
}

// Degraded returns a degraded outcome.
func Degraded(diagnostic string) Outcome {
	return Outcome{Status: OutcomeDegraded, Diagnostic: diagnostic}
}

// Skip returns a skip outcome.
func Skip(diagnostic string) Outcome {
	return Outcome{Status: OutcomeSkip, Diagnostic: diagnostic}
}

// IsSkip reports whether the document must be dropped.
func (o Outcome) IsSkip() bool {
	return o.Status == OutcomeSkip
}
