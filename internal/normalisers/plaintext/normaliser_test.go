package plaintext

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/pronin-ni/rag-plants/internal/core/domain"
	"github.com/pronin-ni/rag-plants/internal/core/ports/driven"
)

func writeFile(t *testing.T, name string, data []byte) *domain.RawDocument {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return &domain.RawDocument{URI: path, Format: domain.FormatText, Size: int64(len(data))}
}

func TestNew(t *testing.T) {
	normaliser := New()
	require.NotNil(t, normaliser)
	assert.IsType(t, &Normaliser{}, normaliser)
}

func TestSupportedFormats(t *testing.T) {
	assert.Equal(t, []domain.Format{domain.FormatText}, New().SupportedFormats())
	assert.Equal(t, 50, New().Priority())
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.Normaliser = (*Normaliser)(nil)
}

func TestNormalise_UTF8(t *testing.T) {
	raw := writeFile(t, "Травы_луга.txt", []byte("Клевер луговой цветет в июне."))

	result, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)

	doc := result.Document
	assert.Equal(t, "Клевер луговой цветет в июне.", doc.Content)
	assert.Equal(t, "Травы_луга", doc.Title)
	assert.Equal(t, "ru", doc.Language)
	assert.Equal(t, domain.FormatText, doc.Format)
	assert.Equal(t, "utf-8", doc.Metadata["encoding"])
	assert.Equal(t, domain.OutcomeSuccess, result.Outcome.Status)
}

func TestNormalise_NilDocument(t *testing.T) {
	result, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, result)
}

func TestNormalise_MissingFile(t *testing.T) {
	_, err := New().Normalise(context.Background(), &domain.RawDocument{URI: "/nonexistent/file.txt"})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNormalise_EmptyFileIsSkip(t *testing.T) {
	result, err := New().Normalise(context.Background(), writeFile(t, "empty.txt", []byte("  \n")))
	require.NoError(t, err)
	assert.True(t, result.Outcome.IsSkip())
}

func TestDecode(t *testing.T) {
	cp1251, err := charmap.Windows1251.NewEncoder().String("Подорожник большой")
	require.NoError(t, err)

	tests := []struct {
		name     string
		data     []byte
		expected string
		encoding string
	}{
		{"utf-8", []byte("Подорожник большой"), "Подорожник большой", "utf-8"},
		{"utf-8 with bom", append([]byte{0xEF, 0xBB, 0xBF}, "Мята"...), "Мята", "utf-8"},
		{"windows-1251", []byte(cp1251), "Подорожник большой", "windows-1251"},
		// 0x98 is undefined in windows-1251.
		{"latin-1", []byte{'c', 'a', 'f', 0xE9, 0x98}, "café\u0098", "latin-1"},
		{"empty", nil, "", "utf-8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, enc, err := Decode(tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, text)
			assert.Equal(t, tt.encoding, enc)
		})
	}
}
