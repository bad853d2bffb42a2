package entities

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// trimLemmatizer lowercases and drops a trailing vowel.
type trimLemmatizer struct{}

func (trimLemmatizer) Lemma(word string) string {
	w := strings.ToLower(word)
	return strings.TrimRight(w, "аыеу")
}

func TestCandidates(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "capital needs a lowercase tail",
			text: "В лесу растет Береза.",
			want: []string{"Береза"},
		},
		{
			name: "up to three following words",
			text: "Сосна обыкновенная растет на песках",
			want: []string{"Сосна обыкновенная растет на"},
		},
		{
			name: "word boundary required",
			text: "abcДуб и яКлен",
			want: nil,
		},
		{
			name: "latin ignored",
			text: "Quercus robur",
			want: nil,
		},
		{
			name: "yo letters",
			text: "Ёлка зелёная",
			want: []string{"Ёлка зелёная"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Candidates(tt.text))
		})
	}
}

func TestCandidates_SingleLetterNotMatched(t *testing.T) {
	// The capital must be followed by at least one lowercase letter.
	assert.Empty(t, Candidates("Я"))
}

func TestExtractor_CountsAndFinal(t *testing.T) {
	e := NewExtractor(trimLemmatizer{}, 2)
	require.True(t, e.Enabled())

	assert.Equal(t, 1, e.Add("Береза."))
	assert.Equal(t, 1, e.Add("Березы."))
	assert.Equal(t, 1, e.Add("Березу."))
	assert.Equal(t, 1, e.Add("Дуб."))
	assert.Equal(t, 1, e.Add("Клен."))
	assert.Equal(t, 1, e.Add("Клен."))
	assert.Equal(t, 1, e.Add("Дуб."))

	assert.Equal(t, 3, e.Count("берез"))
	assert.Equal(t, 3, e.Unique())
	assert.Equal(t, []string{"берез", "дуб", "клен"}, e.Final())
}

func TestExtractor_MinOccurrence(t *testing.T) {
	e := NewExtractor(trimLemmatizer{}, 0)
	e.Add("Дуб. Дуб. Клен.")

	assert.Empty(t, e.Final(), "default floor is three")

	e.Add("Дуб.")
	assert.Equal(t, []string{"дуб"}, e.Final())
}

func TestExtractor_LemmatizePhrase(t *testing.T) {
	e := NewExtractor(trimLemmatizer{}, 1)

	assert.Equal(t, "сосн обыкновенная", e.LemmatizePhrase("Сосна обыкновенная"))
	assert.Equal(t, "иван-чая", e.LemmatizePhrase("Иван-чая!"))
	assert.Empty(t, e.LemmatizePhrase("123 ..."))
}

func TestExtractor_NilLemmatizer(t *testing.T) {
	e := NewExtractor(nil, 1)

	assert.False(t, e.Enabled())
	assert.Zero(t, e.Add("Береза растет."))
	assert.Empty(t, e.Final())
}

func TestExtractor_Reset(t *testing.T) {
	e := NewExtractor(trimLemmatizer{}, 1)
	e.Add("Дуб.")
	e.Reset()

	assert.Zero(t, e.Unique())
}
