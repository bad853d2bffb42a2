package textlayer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pronin-ni/rag-plants/internal/core/domain"
)

// page40 is 200 characters, 190 useful, with 40 words of 3+ letters.
func page40() string {
	return strings.Repeat("abc ", 40) + "@@ @@ @@ @@ @@" + strings.Repeat(" ", 26)
}

// page5 is 200 characters, 190 useful, with only 5 words of 3+ letters.
func page5() string {
	return strings.Repeat("abc ", 5) + strings.Repeat("ab ", 55) + "@@ @@ @@ @@ @@" + " "
}

func TestMeasure_Fixtures(t *testing.T) {
	st := Measure(page40())
	assert.Equal(t, 200, st.Total)
	assert.Equal(t, 190, st.Useful)
	assert.InDelta(t, 0.95, st.Ratio, 1e-9)
	assert.Equal(t, 40, st.Tokens)

	st = Measure(page5())
	assert.Equal(t, 200, st.Total)
	assert.InDelta(t, 0.95, st.Ratio, 1e-9)
	assert.Equal(t, 5, st.Tokens)
}

func TestClassify_ProsePageIsNative(t *testing.T) {
	v := Classify(page40(), 0.10)
	assert.Equal(t, domain.PageNative, v.Class)
	assert.True(t, v.Native())
	assert.Empty(t, v.Reason)
}

func TestClassify_FewWordsNeedsOCR(t *testing.T) {
	v := Classify(page5(), 0.10)
	assert.Equal(t, domain.PageNeedsOCR, v.Class)
	assert.Contains(t, v.Reason, "5 words")
}

func TestClassify_Checks(t *testing.T) {
	cyrillic := strings.Repeat("Береза растет в лесу. ", 10)

	tests := []struct {
		name     string
		text     string
		ratio    float64
		expected domain.PageClass
		reason   string
	}{
		{"empty", "", 0.10, domain.PageNeedsOCR, "0 chars"},
		{"exactly 100 chars", strings.Repeat("word ", 20), 0.10, domain.PageNeedsOCR, "100 chars"},
		{"cyrillic prose", cyrillic, 0.15, domain.PageNative, ""},
		{"glyph noise", strings.Repeat("§¶©®", 40), 0.10, domain.PageNeedsOCR, "useful ratio"},
		{"noisy but above ratio", strings.Repeat("§¶©®", 40) + cyrillic, 0.10, domain.PageNative, ""},
		{"noisy below stricter ratio", strings.Repeat("§¶©®§¶©®", 40) + cyrillic, 0.50, domain.PageNeedsOCR, "useful ratio"},
		{"few useful chars", strings.Repeat("§", 60) + strings.Repeat("a", 45), 0.10, domain.PageNeedsOCR, "useful chars"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Classify(tt.text, tt.ratio)
			assert.Equal(t, tt.expected, v.Class, v.String())
			if tt.reason != "" {
				assert.Contains(t, v.Reason, tt.reason)
			}
		})
	}
}

func TestAcceptable(t *testing.T) {
	prose := strings.Repeat("Растение семейства розоцветных. ", 30)

	ok, st := Acceptable(prose, DjVuNative)
	assert.True(t, ok)
	assert.Greater(t, st.Total, 500)

	ok, _ = Acceptable(string([]rune(prose)[:400]), DjVuNative)
	assert.False(t, ok, "below char floor")

	ok, _ = Acceptable(prose, PDFNative)
	assert.True(t, ok)

	ok, _ = Acceptable(strings.Repeat("ab ", 400), PDFNative)
	assert.False(t, ok, "no meaningful words")
}

func TestScrub(t *testing.T) {
	in := "  Page\x00 one\x07\r\n\tline\x0c\n\n\n\n\nnext\x7f  "
	assert.Equal(t, "Page one\r\n\tline\n\nnext", Scrub(in))
}

func TestStripDjVuMarkers(t *testing.T) {
	in := "[12] Лютик едкий <<345>>растет [3]на лугах"
	assert.Equal(t, " Лютик едкий растет на лугах", StripDjVuMarkers(in))
}

func TestVerdict_String(t *testing.T) {
	s := Classify(page5(), 0.10).String()
	require.NotEmpty(t, s)
	assert.Contains(t, s, "needs_ocr")
	assert.Contains(t, s, "tokens=5")
}

func TestCharCount(t *testing.T) {
	assert.Equal(t, 5, CharCount("Ёжик"+"!"))
}
