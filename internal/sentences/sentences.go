// Package sentences splits Russian and English prose into sentences.
//
// A boundary is a run of terminators (. ! ? …), optionally followed by
// closing quotes or brackets, then whitespace, then an uppercase letter
// or digit, possibly behind opening quotes or a dash. A single period
// after a known abbreviation or a one-letter initial is not a boundary,
// nor is one after a number marker ("No.") when a digit follows.
package sentences

import (
	"strings"
	"unicode"

	"github.com/pronin-ni/rag-plants/internal/core/ports/driven"
)

// Ensure Splitter implements the interface.
var _ driven.SentenceSplitter = (*Splitter)(nil)

// DefaultAbbreviations are lowercase words a period does not end.
var DefaultAbbreviations = []string{
	"т.е", "т.д", "т.п", "г", "гг", "см", "рис", "стр", "им", "проф",
	"e.g", "i.e", "mr", "dr", "etc", "vs", "fig",
}

// numberMarkers abbreviate only before a number: "No. 5" but "said no. Then".
var numberMarkers = map[string]bool{"no": true, "nos": true}

const (
	terminators = ".!?…"
	closers     = "\"'»”’)]"
	openers     = "\"'«“„(—–-"
)

// Splitter is a rule-based sentence splitter.
type Splitter struct {
	abbreviations map[string]bool
}

// Option configures a Splitter.
type Option func(*Splitter)

// WithAbbreviations adds abbreviations to the defaults.
func WithAbbreviations(words ...string) Option {
	return func(s *Splitter) {
		for _, w := range words {
			s.abbreviations[strings.ToLower(strings.TrimSuffix(w, "."))] = true
		}
	}
}

// New creates a splitter.
func New(opts ...Option) *Splitter {
	s := &Splitter{abbreviations: make(map[string]bool, len(DefaultAbbreviations))}
	for _, w := range DefaultAbbreviations {
		s.abbreviations[w] = true
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Split returns the trimmed, non-empty sentences of text in order.
func (s *Splitter) Split(text string) []string {
	runes := []rune(text)
	var out []string
	start := 0

	for i := 0; i < len(runes); i++ {
		if !strings.ContainsRune(terminators, runes[i]) {
			continue
		}

		termEnd := i + 1
		for termEnd < len(runes) && strings.ContainsRune(terminators, runes[termEnd]) {
			termEnd++
		}
		end := termEnd
		for end < len(runes) && strings.ContainsRune(closers, runes[end]) {
			end++
		}
		next := end
		for next < len(runes) && unicode.IsSpace(runes[next]) {
			next++
		}

		boundary := next > end && opensSentence(runes[next:])
		if boundary && termEnd-i == 1 && runes[i] == '.' && s.abbreviation(runes[start:i], runes[next]) {
			boundary = false
		}
		if !boundary {
			i = end - 1
			continue
		}

		out = appendTrimmed(out, runes[start:end])
		start = next
		i = next - 1
	}

	return appendTrimmed(out, runes[start:])
}

// abbreviation reports whether the word ending prefix is an abbreviation
// or a single-letter initial. next is the first rune after the spacing.
func (s *Splitter) abbreviation(prefix []rune, next rune) bool {
	k := len(prefix)
	for k > 0 && !unicode.IsSpace(prefix[k-1]) {
		k--
	}
	word := []rune(strings.TrimLeft(string(prefix[k:]), openers))
	if len(word) == 1 && unicode.IsLetter(word[0]) {
		return true
	}
	lower := strings.ToLower(string(word))
	return s.abbreviations[lower] || numberMarkers[lower] && unicode.IsDigit(next)
}

// opensSentence reports whether rest starts a sentence. Opening quotes
// and dashes count only when the text after them starts with an
// uppercase letter or digit, so "— сказал он" continues the sentence.
func opensSentence(rest []rune) bool {
	for _, r := range rest {
		switch {
		case unicode.IsUpper(r), unicode.IsDigit(r):
			return true
		case strings.ContainsRune(openers, r), unicode.IsSpace(r):
			continue
		default:
			return false
		}
	}
	return false
}

func appendTrimmed(out []string, runes []rune) []string {
	if s := strings.TrimSpace(string(runes)); s != "" {
		out = append(out, s)
	}
	return out
}
