package driven

// SentenceSplitter splits text into sentences.
type SentenceSplitter interface {
	// Split returns trimmed non-empty sentences in reading order.
	Split(text string) []string
}

// Lemmatizer reduces a word to its dictionary form.
type Lemmatizer interface {
	// Lemma returns the lowercased normal form of word.
	Lemma(word string) string
}
