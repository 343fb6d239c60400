package sequence

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/cognicore/cooc/pkg/cooc/ingest"
)

// HTMLReader reads the visible text of HTML files in a fixed order.
type HTMLReader struct {
	paths []string
	pos   int
}

// NewHTMLReader reads the given files. Directories are walked for .html and
// .htm files. Paths are sorted so every pass has the same order.
func NewHTMLReader(paths ...string) (*HTMLReader, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			switch strings.ToLower(filepath.Ext(path)) {
			case ".html", ".htm":
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", p, err)
		}
	}
	slices.Sort(files)
	return &HTMLReader{paths: files}, nil
}

// OpenHTML returns a Source over the sentences of HTML documents.
func OpenHTML(tok *ingest.Tokenizer, paths ...string) (*Documents, error) {
	r, err := NewHTMLReader(paths...)
	if err != nil {
		return nil, err
	}
	return NewDocuments(r, tok), nil
}

// Reset implements DocumentReader.
func (r *HTMLReader) Reset() error {
	r.pos = 0
	return nil
}

// Next implements DocumentReader.
func (r *HTMLReader) Next() (string, error) {
	if r.pos >= len(r.paths) {
		return "", io.EOF
	}
	path := r.paths[r.pos]
	r.pos++

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	text, err := ExtractText(f)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", path, err)
	}
	return text, nil
}

// Files returns the resolved file list.
func (r *HTMLReader) Files() []string {
	return r.paths
}

// ExtractText returns the visible text of an HTML document. Block-level
// elements end with a blank line so the tokenizer treats them as sentence
// boundaries.
func ExtractText(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript, atom.Template:
				return
			}
		}
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
			buf.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && isBlock(n.DataAtom) {
			buf.WriteString("\n\n")
		}
	}
	walk(doc)
	return strings.TrimSpace(buf.String()), nil
}

func isBlock(a atom.Atom) bool {
	switch a {
	case atom.P, atom.Div, atom.Li, atom.Br, atom.Tr, atom.Td, atom.Th,
		atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
		atom.Title, atom.Section, atom.Article, atom.Blockquote, atom.Pre:
		return true
	}
	return false
}
