package djvu

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pronin-ni/rag-plants/internal/cascade"
	"github.com/pronin-ni/rag-plants/internal/core/domain"
	"github.com/pronin-ni/rag-plants/internal/normalisers/pdf"
)

// mockRunner is a test double for CommandRunner keyed by tool name.
// ddjvu and pdftoppm write their output file like the real tools.
type mockRunner struct {
	outputs map[string]string
	pages   map[string]string
	errs    map[string]error
	written map[string][]byte
	calls   []string
	files   []string
}

func newMockRunner() *mockRunner {
	return &mockRunner{
		outputs: make(map[string]string),
		pages:   make(map[string]string),
		errs:    make(map[string]error),
		written: map[string][]byte{"ddjvu": []byte("DATA"), "pdftoppm": []byte("PNG")},
	}
}

func (m *mockRunner) Run(_ context.Context, _ time.Duration, name string, args ...string) ([]byte, error) {
	tool := filepath.Base(name)
	m.calls = append(m.calls, tool+" "+strings.Join(args, " "))
	if err := m.errs[tool]; err != nil {
		return nil, err
	}
	switch tool {
	case "ddjvu":
		out := args[len(args)-1]
		m.files = append(m.files, out)
		return nil, os.WriteFile(out, m.written[tool], 0o600)
	case "pdftoppm":
		out := args[len(args)-1] + ".png"
		m.files = append(m.files, out)
		return nil, os.WriteFile(out, m.written[tool], 0o600)
	case "djvutxt":
		if strings.HasPrefix(args[0], "--page=") {
			return []byte(m.pages[args[0]]), nil
		}
	}
	return []byte(m.outputs[tool]), nil
}

func (m *mockRunner) count(prefix string) int {
	n := 0
	for _, c := range m.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

type mockLocator struct {
	missing map[string]bool
}

func (l mockLocator) Locate(name string) (string, error) {
	if l.missing[name] {
		return "", fmt.Errorf("%s: %w", name, domain.ErrToolNotFound)
	}
	return "/usr/bin/" + name, nil
}

func newBox(t *testing.T, runner *mockRunner, missing ...string) *cascade.Toolbox {
	m := make(map[string]bool)
	for _, name := range missing {
		m[name] = true
	}
	box := cascade.NewToolbox(mockLocator{missing: m}, runner, domain.DefaultAppSettings().Tools)
	box.ScratchDir = t.TempDir()
	return box
}

func TestSource_NativeTextStripsMarkers(t *testing.T) {
	runner := newMockRunner()
	runner.outputs["djvutxt"] = "[1] Береза <<120>>повислая\f[2] Дуб черешчатый"
	src := NewSource("/books/trees.djvu", newBox(t, runner))

	text, err := src.NativeText(context.Background())
	require.NoError(t, err)
	assert.Equal(t, " Береза повислая\f Дуб черешчатый", text)
	assert.Equal(t, []string{"djvutxt /books/trees.djvu"}, runner.calls)
}

func TestSource_PageCount(t *testing.T) {
	runner := newMockRunner()
	runner.outputs["djvused"] = "42\n"
	src := NewSource("/books/trees.djvu", newBox(t, runner))

	n, err := src.PageCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, n)
	assert.Equal(t, []string{"djvused -e n /books/trees.djvu"}, runner.calls)

	runner.outputs["djvused"] = "garbage"
	_, err = src.PageCount(context.Background())
	assert.ErrorIs(t, err, domain.ErrDecode)
}

func TestSource_PageText(t *testing.T) {
	runner := newMockRunner()
	runner.pages["--page=3"] = "[3]Липа мелколистная"
	src := NewSource("/books/trees.djvu", newBox(t, runner))

	text, err := src.PageText(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "Липа мелколистная", text)
	assert.Equal(t, []string{"djvutxt --page=3 /books/trees.djvu"}, runner.calls)
}

func TestSource_PageTextReusesWholeDocumentFailure(t *testing.T) {
	runner := newMockRunner()
	runner.errs["djvutxt"] = fmt.Errorf("djvutxt after 2m0s: %w", domain.ErrToolTimeout)
	src := NewSource("/books/trees.djvu", newBox(t, runner))

	_, err := src.NativeText(context.Background())
	require.ErrorIs(t, err, domain.ErrToolTimeout)

	for page := 1; page <= 5; page++ {
		_, err := src.PageText(context.Background(), page)
		assert.ErrorIs(t, err, domain.ErrToolTimeout)
	}
	assert.Equal(t, 1, runner.count("djvutxt"))
}

func TestSource_RenderPage(t *testing.T) {
	runner := newMockRunner()
	box := newBox(t, runner)

	img, err := NewSource("/books/trees.djvu", box).RenderPage(context.Background(), 2, 300)
	require.NoError(t, err)

	assert.Equal(t, 2, img.Page)
	assert.Equal(t, 300, img.DPI)
	assert.Equal(t, []byte("DATA"), img.Data)
	require.Len(t, runner.files, 1)
	assert.True(t, strings.HasPrefix(runner.calls[0], "ddjvu -format=tiff -scale=300 -page=2 /books/trees.djvu "))
	assert.NoFileExists(t, runner.files[0])
}

func TestSource_RenderPageUsesRequestedResolution(t *testing.T) {
	for _, dpi := range []int{150, 400} {
		runner := newMockRunner()
		box := newBox(t, runner)

		img, err := NewSource("/books/trees.djvu", box).RenderPage(context.Background(), 1, dpi)
		require.NoError(t, err)

		assert.Equal(t, dpi, img.DPI)
		assert.Contains(t, runner.calls[0], fmt.Sprintf(" -scale=%d ", dpi))
	}
}

func TestSource_RenderPageEmptyOutput(t *testing.T) {
	runner := newMockRunner()
	runner.written["ddjvu"] = nil
	box := newBox(t, runner)

	_, err := NewSource("/books/trees.djvu", box).RenderPage(context.Background(), 1, 300)
	assert.ErrorContains(t, err, "rendered empty")
	assert.NoFileExists(t, runner.files[0])
}

func TestSource_ConvertPDF(t *testing.T) {
	runner := newMockRunner()
	box := newBox(t, runner)
	dst := filepath.Join(t.TempDir(), "out.pdf")

	converted, err := NewSource("/books/trees.djvu", box).ConvertPDF(context.Background(), dst)
	require.NoError(t, err)

	assert.IsType(t, &pdf.Source{}, converted)
	assert.Equal(t, domain.FormatPDF, converted.Format())
	assert.Equal(t, []string{"ddjvu -format=pdf /books/trees.djvu " + dst}, runner.calls)
}

func TestSource_ConvertPDFEmpty(t *testing.T) {
	runner := newMockRunner()
	runner.written["ddjvu"] = []byte{}
	dst := filepath.Join(t.TempDir(), "out.pdf")

	_, err := NewSource("/books/trees.djvu", newBox(t, runner)).ConvertPDF(context.Background(), dst)
	assert.ErrorIs(t, err, domain.ErrDecode)
}
