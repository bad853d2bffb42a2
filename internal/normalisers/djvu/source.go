package djvu

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pronin-ni/rag-plants/internal/adapters/driven/tools"
	"github.com/pronin-ni/rag-plants/internal/cascade"
	"github.com/pronin-ni/rag-plants/internal/core/domain"
	"github.com/pronin-ni/rag-plants/internal/normalisers/pdf"
	"github.com/pronin-ni/rag-plants/internal/scratch"
	"github.com/pronin-ni/rag-plants/internal/textlayer"
)

// Ensure Source implements the interfaces.
var (
	_ cascade.Source    = (*Source)(nil)
	_ cascade.Converter = (*Source)(nil)
)

// Source reads a DjVu file with djvulibre.
type Source struct {
	path string
	box  *cascade.Toolbox

	// textErr is the whole-document extraction failure. Page extraction
	// reuses it instead of paying the same timeout once per page.
	textErr error
}

// NewSource creates a source for the DjVu file at path.
func NewSource(path string, box *cascade.Toolbox) *Source {
	return &Source{path: path, box: box}
}

// Format returns domain.FormatDjVu.
func (s *Source) Format() domain.Format {
	return domain.FormatDjVu
}

// NativeText returns the hidden text layer with page numbers and
// coordinates removed.
func (s *Source) NativeText(ctx context.Context) (string, error) {
	out, err := s.box.Run(ctx, s.box.ExtractTimeout, tools.DjVuTxt, s.path)
	if err != nil {
		s.textErr = err
		return "", err
	}
	return clean(out), nil
}

// PageCount returns the number of pages reported by djvused.
func (s *Source) PageCount(ctx context.Context) (int, error) {
	out, err := s.box.Run(ctx, s.box.ExtractTimeout, tools.DjVuSed, "-e", "n", s.path)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(out)))
	if err != nil {
		return 0, fmt.Errorf("%w: djvused page count %q", domain.ErrDecode, strings.TrimSpace(string(out)))
	}
	return n, nil
}

// PageText returns the text layer of a 1-based page.
func (s *Source) PageText(ctx context.Context, page int) (string, error) {
	if s.textErr != nil {
		return "", s.textErr
	}
	out, err := s.box.Run(ctx, s.box.ExtractTimeout, tools.DjVuTxt, "--page="+strconv.Itoa(page), s.path)
	if err != nil {
		return "", err
	}
	return clean(out), nil
}

// RenderPage rasterises a 1-based page to TIFF at dpi.
func (s *Source) RenderPage(ctx context.Context, page, dpi int) (domain.PageImage, error) {
	var img domain.PageImage
	err := scratch.With(s.box.ScratchDir, "ragplants-page-*.tif", func(path string) error {
		_, err := s.box.Run(ctx, s.box.RenderTimeout, tools.DDjVu,
			"-format=tiff", "-scale="+strconv.Itoa(dpi), "-page="+strconv.Itoa(page), s.path, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read rendered page: %w", err)
		}
		if len(data) == 0 {
			return fmt.Errorf("page %d rendered empty", page)
		}
		img = domain.PageImage{Page: page, Data: data, DPI: dpi}
		return nil
	})
	return img, err
}

// ConvertPDF converts the document to a PDF at dst.
func (s *Source) ConvertPDF(ctx context.Context, dst string) (cascade.Source, error) {
	if _, err := s.box.Run(ctx, s.box.ConvertTimeout, tools.DDjVu, "-format=pdf", s.path, dst); err != nil {
		return nil, err
	}
	info, err := os.Stat(dst)
	if err != nil {
		return nil, fmt.Errorf("converted pdf: %w", err)
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("%w: converted pdf is empty", domain.ErrDecode)
	}
	return pdf.NewSource(dst, s.box), nil
}

func clean(out []byte) string {
	return textlayer.StripDjVuMarkers(strings.ToValidUTF8(string(out), ""))
}
