package pdf

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pronin-ni/rag-plants/internal/adapters/driven/tools"
	"github.com/pronin-ni/rag-plants/internal/cascade"
	"github.com/pronin-ni/rag-plants/internal/core/domain"
	"github.com/pronin-ni/rag-plants/internal/scratch"
)

// Ensure Source implements the interface.
var _ cascade.Source = (*Source)(nil)

// Source reads a PDF file with poppler.
// The text layer is extracted once and cached, including a failure.
type Source struct {
	path string
	box  *cascade.Toolbox

	pages   []string
	textErr error
	info    map[string]string
	infoErr error
}

// NewSource creates a source for the PDF at path.
func NewSource(path string, box *cascade.Toolbox) *Source {
	return &Source{path: path, box: box}
}

// Format returns domain.FormatPDF.
func (s *Source) Format() domain.Format {
	return domain.FormatPDF
}

// NativeText returns the whole text layer with pages separated by form feeds.
func (s *Source) NativeText(ctx context.Context) (string, error) {
	pages, err := s.textPages(ctx)
	if err != nil {
		return "", err
	}
	return strings.Join(pages, "\f"), nil
}

// PageCount returns the page count reported by pdfinfo, or the number of
// text layer pages when pdfinfo is unavailable.
func (s *Source) PageCount(ctx context.Context) (int, error) {
	info, err := s.Info(ctx)
	if err == nil {
		if n, convErr := strconv.Atoi(info["Pages"]); convErr == nil && n > 0 {
			return n, nil
		}
	}

	pages, textErr := s.textPages(ctx)
	if textErr != nil {
		if err != nil {
			return 0, err
		}
		return 0, textErr
	}
	return len(pages), nil
}

// PageText returns the text layer of a 1-based page.
func (s *Source) PageText(ctx context.Context, page int) (string, error) {
	pages, err := s.textPages(ctx)
	if err != nil {
		return "", err
	}
	if page < 1 || page > len(pages) {
		return "", nil
	}
	return pages[page-1], nil
}

// RenderPage rasterises a 1-based page to PNG at dpi.
func (s *Source) RenderPage(ctx context.Context, page, dpi int) (domain.PageImage, error) {
	var img domain.PageImage
	err := scratch.With(s.box.ScratchDir, "ragplants-page-*.png", func(path string) error {
		n := strconv.Itoa(page)
		prefix := strings.TrimSuffix(path, ".png")
		_, err := s.box.Run(ctx, s.box.RenderTimeout, tools.PDFToPPM,
			"-png", "-r", strconv.Itoa(dpi), "-f", n, "-l", n, "-singlefile", s.path, prefix)
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

// Info returns the document information dictionary printed by pdfinfo.
func (s *Source) Info(ctx context.Context) (map[string]string, error) {
	if s.info != nil || s.infoErr != nil {
		return s.info, s.infoErr
	}
	out, err := s.box.Run(ctx, s.box.ExtractTimeout, tools.PDFInfo, "-enc", "UTF-8", s.path)
	if err != nil {
		s.infoErr = err
		return nil, err
	}
	s.info = parseInfo(out)
	return s.info, nil
}

func (s *Source) textPages(ctx context.Context) ([]string, error) {
	if s.pages != nil || s.textErr != nil {
		return s.pages, s.textErr
	}
	out, err := s.box.Run(ctx, s.box.ExtractTimeout, tools.PDFToText, "-enc", "UTF-8", "-q", s.path, "-")
	if err != nil {
		s.textErr = err
		return nil, err
	}
	text := strings.ToValidUTF8(string(out), "")
	text = strings.TrimSuffix(text, "\f")
	s.pages = strings.Split(text, "\f")
	return s.pages, nil
}

// parseInfo parses "Key:   value" lines.
func parseInfo(out []byte) map[string]string {
	info := make(map[string]string)
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		key, value, ok := strings.Cut(sc.Text(), ":")
		if !ok {
			continue
		}
		info[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return info
}
