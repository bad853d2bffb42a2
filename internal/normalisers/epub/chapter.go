package epub

import (
	"bytes"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// MinChapterLength is the character count chapter text must exceed.
const MinChapterLength = 50

// maxHeadingLength bounds headings promoted to chapter titles.
const maxHeadingLength = 200

var blankLines = regexp.MustCompile(`\n{3,}`)

var dropped = map[atom.Atom]bool{
	atom.Script: true,
	atom.Style:  true,
	atom.Nav:    true,
	atom.Header: true,
	atom.Footer: true,
}

// Chapter extracts the entries one XHTML content document contributes:
// an optional "# heading" entry and the text entry. Either may be absent.
func Chapter(data []byte) []string {
	root, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil
	}
	prune(root)

	var out []string
	if h := find(root, atom.H1, atom.H2, atom.H3); h != nil {
		title := strings.Join(texts(h), "")
		if title != "" && len([]rune(title)) < maxHeadingLength {
			out = append(out, "# "+title)
		}
	}

	content := find(root, atom.Article, atom.Main)
	if content == nil {
		content = find(root, atom.Body)
	}
	if content == nil {
		content = root
	}
	text := strings.TrimSpace(blankLines.ReplaceAllString(strings.Join(texts(content), "\n"), "\n\n"))
	if len([]rune(text)) > MinChapterLength {
		out = append(out, text)
	}
	return out
}

// prune removes non-content elements.
func prune(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.ElementNode && dropped[c.DataAtom] {
			n.RemoveChild(c)
		} else {
			prune(c)
		}
		c = next
	}
}

// find returns the first element in document order matching any atom.
func find(n *html.Node, atoms ...atom.Atom) *html.Node {
	if n.Type == html.ElementNode {
		for _, a := range atoms {
			if n.DataAtom == a {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := find(c, atoms...); found != nil {
			return found
		}
	}
	return nil
}

// texts returns the trimmed non-empty text nodes under n.
func texts(n *html.Node) []string {
	var out []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				out = append(out, t)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}
