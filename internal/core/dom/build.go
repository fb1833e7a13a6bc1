// Package dom builds and walks the rendered node tree of a page.
//
// A page's Markdown is rendered to HTML with goldmark and parsed into an
// x/net/html tree under a single container element. Text offsets inside the
// tree are UTF-16 code units, matching the raw offset space.
package dom

import (
	"bytes"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/yuin/goldmark"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/colonyops/marginalia/internal/core/offsetmap"
)

// ImagePrefix is prepended to the final path segment of every image URI.
const ImagePrefix = "/images/"

var markdown = goldmark.New()

// Document is the rendered tree of one page.
type Document struct {
	Root *html.Node
}

// Build renders page Markdown into a Document. Whitespace runs in text
// outside <pre> collapse to a single space, the way a browser displays them.
func Build(src string) (*Document, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}

	root := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(&buf, root)
	if err != nil {
		return nil, fmt.Errorf("parse rendered page: %w", err)
	}

	for _, n := range nodes {
		root.AppendChild(n)
	}

	normalize(root, false)
	return &Document{Root: root}, nil
}

func normalize(n *html.Node, inPre bool) {
	switch n.Type {
	case html.TextNode:
		if !inPre {
			n.Data = offsetmap.Collapse(n.Data)
		}
	case html.ElementNode:
		if n.DataAtom == atom.Pre {
			inPre = true
		}
		if n.DataAtom == atom.Img {
			rewriteImage(n)
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		normalize(c, inPre)
	}
}

func rewriteImage(n *html.Node) {
	for i, a := range n.Attr {
		if a.Key == "src" && a.Val != "" {
			n.Attr[i].Val = ImageURL(a.Val)
		}
	}
}

// ImageURL rewrites an image URI to ImagePrefix plus its final path segment.
func ImageURL(uri string) string {
	p := uri
	if u, err := url.Parse(uri); err == nil && u.Path != "" {
		p = u.Path
	}
	base := path.Base(strings.TrimRight(p, "/"))
	if base == "." || base == "/" {
		base = ""
	}
	return ImagePrefix + base
}

// Attr returns the value of attribute key on n.
func Attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
