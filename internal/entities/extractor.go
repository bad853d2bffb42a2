// Package entities extracts candidate plant species names from text.
//
// A candidate is a capitalised Cyrillic word followed by up to three
// lowercase words. Each candidate is lemmatised word by word and counted
// across the corpus; lemmas seen often enough form the entity list.
package entities

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pronin-ni/rag-plants/internal/core/ports/driven"
)

// DefaultMinOccurrence is the corpus count a lemma needs to be kept.
const DefaultMinOccurrence = 3

var (
	candidatePattern = regexp.MustCompile(`[А-ЯЁ][а-яё]+(?:\s[а-яё]+){0,3}`)
	wordPattern      = regexp.MustCompile(`[А-Яа-яЁёA-Za-z\-]+`)
)

// Candidates returns the species name candidates of text in order.
// A candidate must start at a word boundary.
func Candidates(text string) []string {
	var out []string
	for _, loc := range candidatePattern.FindAllStringIndex(text, -1) {
		if loc[0] > 0 {
			prev, _ := utf8.DecodeLastRuneInString(text[:loc[0]])
			if isWordRune(prev) {
				continue
			}
		}
		out = append(out, text[loc[0]:loc[1]])
	}
	return out
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// Extractor accumulates lemmatised candidate counts over a corpus.
// It is not safe for concurrent use.
type Extractor struct {
	lemmatizer    driven.Lemmatizer
	minOccurrence int
	counts        map[string]int
}

// NewExtractor creates an extractor. A nil lemmatizer disables
// extraction; a non-positive minOccurrence uses DefaultMinOccurrence.
func NewExtractor(lemmatizer driven.Lemmatizer, minOccurrence int) *Extractor {
	if minOccurrence <= 0 {
		minOccurrence = DefaultMinOccurrence
	}
	return &Extractor{
		lemmatizer:    lemmatizer,
		minOccurrence: minOccurrence,
		counts:        make(map[string]int),
	}
}

// Enabled reports whether a lemmatizer is configured.
func (e *Extractor) Enabled() bool {
	return e.lemmatizer != nil
}

// Add counts the candidates of text and returns how many were counted.
func (e *Extractor) Add(text string) int {
	if e.lemmatizer == nil {
		return 0
	}
	n := 0
	for _, c := range Candidates(text) {
		lemma := e.LemmatizePhrase(c)
		if lemma == "" {
			continue
		}
		e.counts[lemma]++
		n++
	}
	return n
}

// LemmatizePhrase lemmatises every word of phrase and joins the lemmas
// with single spaces.
func (e *Extractor) LemmatizePhrase(phrase string) string {
	words := wordPattern.FindAllString(phrase, -1)
	lemmas := make([]string, 0, len(words))
	for _, w := range words {
		if l := e.lemmatizer.Lemma(w); l != "" {
			lemmas = append(lemmas, l)
		}
	}
	return strings.Join(lemmas, " ")
}

// Unique returns the number of distinct lemmas seen.
func (e *Extractor) Unique() int {
	return len(e.counts)
}

// Count returns how often lemma was seen.
func (e *Extractor) Count(lemma string) int {
	return e.counts[lemma]
}

// Final returns the lemmas seen at least the minimum number of times,
// most frequent first and lexically within a count.
func (e *Extractor) Final() []string {
	out := make([]string, 0, len(e.counts))
	for lemma, n := range e.counts {
		if n >= e.minOccurrence {
			out = append(out, lemma)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ci, cj := e.counts[out[i]], e.counts[out[j]]
		if ci != cj {
			return ci > cj
		}
		return out[i] < out[j]
	})
	return out
}

// Reset discards all counts.
func (e *Extractor) Reset() {
	e.counts = make(map[string]int)
}
