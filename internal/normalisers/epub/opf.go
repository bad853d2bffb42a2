package epub

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/pronin-ni/rag-plants/internal/core/domain"
)

const containerPath = "META-INF/container.xml"

type container struct {
	Rootfiles []struct {
		FullPath string `xml:"full-path,attr"`
	} `xml:"rootfiles>rootfile"`
}

type opf struct {
	Metadata struct {
		Titles    []string `xml:"title"`
		Creators  []string `xml:"creator"`
		Languages []string `xml:"language"`
	} `xml:"metadata"`
	Items []struct {
		ID        string `xml:"id,attr"`
		Href      string `xml:"href,attr"`
		MediaType string `xml:"media-type,attr"`
	} `xml:"manifest>item"`
	Spine []struct {
		IDRef string `xml:"idref,attr"`
	} `xml:"spine>itemref"`
}

// Package is the parsed OPF package document.
type Package struct {
	Title    string
	Creator  string
	Language string

	// Spine lists content documents in reading order, as archive paths.
	Spine []string

	// Manifest lists every XHTML document in manifest order.
	Manifest []string
}

func (p *Package) documents() []string {
	if len(p.Spine) > 0 {
		return p.Spine
	}
	return p.Manifest
}

func readPackage(zr *zip.Reader) (*Package, error) {
	opfPath, err := rootfile(zr)
	if err != nil {
		return nil, err
	}
	data, err := readFile(zr, opfPath)
	if err != nil {
		return nil, err
	}
	return parsePackage(data, path.Dir(opfPath))
}

// rootfile returns the OPF path from the container, or the first .opf
// file in the archive when the container is missing.
func rootfile(zr *zip.Reader) (string, error) {
	if data, err := readFile(zr, containerPath); err == nil {
		var c container
		if err := xml.Unmarshal(data, &c); err == nil && len(c.Rootfiles) > 0 && c.Rootfiles[0].FullPath != "" {
			return c.Rootfiles[0].FullPath, nil
		}
	}
	for _, f := range zr.File {
		if strings.HasSuffix(strings.ToLower(f.Name), ".opf") {
			return f.Name, nil
		}
	}
	return "", fmt.Errorf("%w: no package document", domain.ErrDecode)
}

func parsePackage(data []byte, base string) (*Package, error) {
	var doc opf
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: package document: %v", domain.ErrDecode, err)
	}

	p := &Package{
		Title:   first(doc.Metadata.Titles),
		Creator: first(doc.Metadata.Creators),
	}
	if lang := first(doc.Metadata.Languages); lang != "" {
		p.Language = strings.ToLower(string([]rune(lang)[:min(2, len([]rune(lang)))]))
	}

	hrefs := make(map[string]string, len(doc.Items))
	for _, item := range doc.Items {
		if !isContent(item.MediaType) {
			continue
		}
		name := resolve(base, item.Href)
		hrefs[item.ID] = name
		p.Manifest = append(p.Manifest, name)
	}
	for _, ref := range doc.Spine {
		if name, ok := hrefs[ref.IDRef]; ok {
			p.Spine = append(p.Spine, name)
		}
	}
	return p, nil
}

func isContent(mediaType string) bool {
	return mediaType == "application/xhtml+xml" || mediaType == "text/html"
}

func resolve(base, href string) string {
	if u, err := url.PathUnescape(href); err == nil {
		href = u
	}
	if i := strings.IndexByte(href, '#'); i >= 0 {
		href = href[:i]
	}
	if base == "." || base == "" {
		return path.Clean(href)
	}
	return path.Join(base, href)
}

func first(values []string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func readFile(zr *zip.Reader, name string) ([]byte, error) {
	f, err := zr.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}
