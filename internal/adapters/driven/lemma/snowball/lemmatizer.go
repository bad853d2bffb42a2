// Package snowball provides a Lemmatizer backed by the Snowball stemmers.
//
// Cyrillic words use the Russian stemmer and Latin words the English
// one. Stems stand in for dictionary forms: inflected forms of one word
// reduce to the same key, which is all entity counting needs.
package snowball

import (
	"strings"
	"unicode"

	"github.com/blevesearch/snowballstem"
	"github.com/blevesearch/snowballstem/english"
	"github.com/blevesearch/snowballstem/russian"

	"github.com/pronin-ni/rag-plants/internal/core/ports/driven"
)

// Ensure Lemmatizer implements the interface.
var _ driven.Lemmatizer = (*Lemmatizer)(nil)

// Lemmatizer reduces words to their Snowball stems.
type Lemmatizer struct{}

// New creates a new Snowball lemmatizer.
func New() *Lemmatizer {
	return &Lemmatizer{}
}

// Lemma returns the lowercased stem of word. Hyphenated words are
// stemmed part by part.
func (l *Lemmatizer) Lemma(word string) string {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return ""
	}
	if !strings.Contains(word, "-") {
		return stem(word)
	}
	parts := strings.Split(word, "-")
	for i, p := range parts {
		parts[i] = stem(p)
	}
	return strings.Join(parts, "-")
}

func stem(word string) string {
	if word == "" {
		return ""
	}
	switch {
	case hasScript(word, unicode.Cyrillic):
		// The Russian stemmer has no rules for ё.
		env := snowballstem.NewEnv(strings.ReplaceAll(word, "ё", "е"))
		russian.Stem(env)
		return env.Current()
	case hasScript(word, unicode.Latin):
		env := snowballstem.NewEnv(word)
		english.Stem(env)
		return env.Current()
	default:
		return word
	}
}

func hasScript(s string, table *unicode.RangeTable) bool {
	for _, r := range s {
		if unicode.Is(table, r) {
			return true
		}
	}
	return false
}
