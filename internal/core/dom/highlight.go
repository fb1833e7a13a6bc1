package dom

import (
	"errors"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/colonyops/marginalia/internal/core/codeunit"
)

// ErrNotText is returned when a highlight target is not an attached text node.
var ErrNotText = errors.New("highlight target is not an attached text node")

// Highlight is a transient <mark> wrapped around part of a text node.
type Highlight struct {
	Mark *html.Node

	original *html.Node
	parts    []*html.Node
}

// Wrap splits text at offset and wraps up to n code units after it in a
// <mark>. The tree's text content is unchanged. Restore puts the original
// node back.
func Wrap(text *html.Node, offset, n int) (*Highlight, error) {
	if text == nil || text.Type != html.TextNode || text.Parent == nil {
		return nil, ErrNotText
	}

	total := TextLen(text)
	offset = min(max(offset, 0), total)
	end := min(offset+max(n, 0), total)

	data := text.Data
	startByte := codeunit.ByteOffset(data, offset)
	endByte := codeunit.ByteOffset(data, end)

	mark := &html.Node{Type: html.ElementNode, Data: "mark", DataAtom: atom.Mark}
	mark.AppendChild(&html.Node{Type: html.TextNode, Data: data[startByte:endByte]})

	h := &Highlight{Mark: mark, original: text}
	if startByte > 0 {
		h.parts = append(h.parts, &html.Node{Type: html.TextNode, Data: data[:startByte]})
	}
	h.parts = append(h.parts, mark)
	if endByte < len(data) {
		h.parts = append(h.parts, &html.Node{Type: html.TextNode, Data: data[endByte:]})
	}

	parent := text.Parent
	for _, p := range h.parts {
		parent.InsertBefore(p, text)
	}
	parent.RemoveChild(text)

	return h, nil
}

// Restore removes the mark and reinserts the original text node. It is safe
// to call more than once.
func (h *Highlight) Restore() {
	if h == nil || len(h.parts) == 0 {
		return
	}

	parent := h.parts[0].Parent
	if parent != nil {
		parent.InsertBefore(h.original, h.parts[0])
		for _, p := range h.parts {
			parent.RemoveChild(p)
		}
	}
	h.parts = nil
}

// Text returns the mark's text node.
func (h *Highlight) Text() *html.Node {
	return h.Mark.FirstChild
}
