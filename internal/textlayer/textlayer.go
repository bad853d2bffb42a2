// Package textlayer decides whether extracted page text is a genuine prose
// layer or scanner noise, and cleans extracted text.
package textlayer

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/pronin-ni/rag-plants/internal/core/domain"
)

// Page classification floors.
const (
	// MinPageChars is the character count a page must exceed to be judged.
	MinPageChars = 100

	// MinUsefulChars is the useful character count a native page needs.
	MinUsefulChars = 50

	// MinPageTokens is the number of words of MinTokenLength a native page needs.
	MinPageTokens = 10

	// MinTokenLength is the rune length of a meaningful word.
	MinTokenLength = 3
)

// Stats describes the composition of a piece of text.
type Stats struct {
	// Total is the number of characters.
	Total int

	// Useful is the number of letters (Cyrillic or Latin), digits,
	// whitespace and basic punctuation.
	Useful int

	// Ratio is Useful / Total, zero for empty text.
	Ratio float64

	// Tokens is the number of whitespace-separated words of at least
	// MinTokenLength characters.
	Tokens int
}

// Verdict is a classification result.
type Verdict struct {
	Class domain.PageClass
	Stats Stats

	// Reason names the failed check, empty for native pages.
	Reason string
}

// Native reports whether the page keeps its text layer.
func (v Verdict) Native() bool {
	return v.Class == domain.PageNative
}

// String formats the verdict for logs.
func (v Verdict) String() string {
	s := fmt.Sprintf("%s (chars=%d useful=%d ratio=%.2f tokens=%d)",
		v.Class, v.Stats.Total, v.Stats.Useful, v.Stats.Ratio, v.Stats.Tokens)
	if v.Reason != "" {
		s += ": " + v.Reason
	}
	return s
}

// Measure computes text statistics.
func Measure(text string) Stats {
	var s Stats
	for _, r := range text {
		s.Total++
		if isUseful(r) {
			s.Useful++
		}
	}
	if s.Total > 0 {
		s.Ratio = float64(s.Useful) / float64(s.Total)
	}
	for _, w := range strings.Fields(text) {
		if len([]rune(w)) >= MinTokenLength {
			s.Tokens++
		}
	}
	return s
}

// Classify decides whether a page's native text is usable, applying the
// length, composition and word checks in order.
func Classify(text string, minRatio float64) Verdict {
	st := Measure(text)
	v := Verdict{Class: domain.PageNeedsOCR, Stats: st}

	switch {
	case st.Total <= MinPageChars:
		v.Reason = fmt.Sprintf("%d chars, need more than %d", st.Total, MinPageChars)
	case st.Ratio < minRatio:
		v.Reason = fmt.Sprintf("useful ratio %.2f below %.2f", st.Ratio, minRatio)
	case st.Useful < MinUsefulChars:
		v.Reason = fmt.Sprintf("%d useful chars, need %d", st.Useful, MinUsefulChars)
	case st.Tokens < MinPageTokens:
		v.Reason = fmt.Sprintf("%d words, need %d", st.Tokens, MinPageTokens)
	default:
		v.Class = domain.PageNative
	}
	return v
}

// Thresholds is the acceptance bar for a whole-document native extraction.
type Thresholds struct {
	MinChars  int
	MinRatio  float64
	MinTokens int
}

// Presets for whole-document native extraction.
var (
	DjVuNative = Thresholds{MinChars: 500, MinRatio: 0.10, MinTokens: 30}
	PDFNative  = Thresholds{MinChars: 800, MinRatio: 0.12, MinTokens: 50}
)

// Acceptable reports whether text clears th, with the stats used.
func Acceptable(text string, th Thresholds) (bool, Stats) {
	st := Measure(text)
	ok := st.Total > th.MinChars && st.Ratio >= th.MinRatio && st.Tokens >= th.MinTokens
	return ok, st
}

var (
	controlChars   = regexp.MustCompile("[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]")
	blankLines     = regexp.MustCompile(`\n{3,}`)
	djvuPageNumber = regexp.MustCompile(`\[\d+\]`)
	djvuCoords     = regexp.MustCompile(`<<\d+>>`)
)

// Scrub removes control characters (keeping tab, newline and carriage
// return), collapses runs of blank lines to one, and trims.
func Scrub(text string) string {
	text = controlChars.ReplaceAllString(text, "")
	text = blankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// StripDjVuMarkers removes the page numbers and coordinates djvutxt
// interleaves with text.
func StripDjVuMarkers(text string) string {
	text = djvuPageNumber.ReplaceAllString(text, "")
	return djvuCoords.ReplaceAllString(text, "")
}

// CharCount returns the number of characters in text.
func CharCount(text string) int {
	return len([]rune(text))
}

func isUseful(r rune) bool {
	switch {
	case r >= 'А' && r <= 'я', r == 'Ё', r == 'ё':
		return true
	case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		return true
	case unicode.IsSpace(r):
		return true
	}
	switch r {
	case '.', ',', '!', '?', ';', ':', '-', '(', ')':
		return true
	}
	return false
}
