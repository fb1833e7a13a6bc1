package layout

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/mattn/go-runewidth"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/colonyops/marginalia/internal/core/codeunit"
	"github.com/colonyops/marginalia/internal/core/dom"
)

type indent struct {
	first string
	rest  string
	style Style
	used  bool
}

type builder struct {
	width   int
	lines   []Line
	cur     *Line
	content bool
	gap     bool
	indents []indent
}

func newBuilder(width int) *builder {
	return &builder{width: width}
}

var blockTags = map[atom.Atom]bool{
	atom.Div: true, atom.P: true, atom.Blockquote: true, atom.Pre: true,
	atom.Ul: true, atom.Ol: true, atom.Li: true, atom.Hr: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Table: true, atom.Thead: true, atom.Tbody: true, atom.Tr: true,
}

var headingTags = map[atom.Atom]bool{
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
}

// block lays out the children of n as a sequence of blocks and inline
// content.
func (b *builder) block(n *html.Node, style Style) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.node(c, style)
	}
}

func (b *builder) node(n *html.Node, style Style) {
	switch n.Type {
	case html.TextNode:
		b.text(n, style)
		return
	case html.ElementNode:
	default:
		return
	}

	switch {
	case n.DataAtom == atom.Img:
		b.image(n)
	case n.DataAtom == atom.Br:
		b.breakLine()
	case n.DataAtom == atom.Hr:
		b.endBlock()
		b.newLine()
		b.decorate(strings.Repeat("─", b.width-b.cur.Width), StyleRule)
		b.endBlock()
	case n.DataAtom == atom.Pre:
		b.endBlock()
		b.pre(n, style|StyleCode)
		b.endBlock()
	case headingTags[n.DataAtom]:
		b.endBlock()
		b.block(n, style|StyleHeading|StyleBold)
		b.endBlock()
	case n.DataAtom == atom.Blockquote:
		b.endBlock()
		b.push(indent{first: "│ ", rest: "│ ", style: StyleQuote})
		b.block(n, style|StyleQuote)
		b.pop()
		b.endBlock()
	case n.DataAtom == atom.Li:
		b.flush()
		b.push(indent{first: bullet(n), rest: strings.Repeat(" ", runewidth.StringWidth(bullet(n))), style: StyleBullet})
		b.block(n, style)
		b.flush()
		b.pop()
	case n.DataAtom == atom.Ul || n.DataAtom == atom.Ol:
		b.endBlock()
		b.block(n, style)
		b.endBlock()
	case blockTags[n.DataAtom]:
		b.endBlock()
		b.block(n, style)
		b.endBlock()
	default:
		b.block(n, style|inlineStyle(n.DataAtom))
	}
}

func inlineStyle(a atom.Atom) Style {
	switch a {
	case atom.Strong, atom.B:
		return StyleBold
	case atom.Em, atom.I:
		return StyleItalic
	case atom.Code:
		return StyleCode
	case atom.A:
		return StyleLink
	case atom.Mark:
		return StyleMark
	}
	return 0
}

func bullet(li *html.Node) string {
	if li.Parent == nil || li.Parent.DataAtom != atom.Ol {
		return "• "
	}

	start := 1
	if s := dom.Attr(li.Parent, "start"); s != "" {
		if v, err := strconv.Atoi(s); err == nil {
			start = v
		}
	}

	i := 0
	for c := li.PrevSibling; c != nil; c = c.PrevSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.Li {
			i++
		}
	}
	return strconv.Itoa(start+i) + ". "
}

func (b *builder) push(in indent) { b.indents = append(b.indents, in) }

func (b *builder) pop() { b.indents = b.indents[:len(b.indents)-1] }

// newLine closes the open line and starts another with the current indent
// prefixes.
func (b *builder) newLine() {
	b.flush()

	if b.gap && len(b.lines) > 0 {
		b.lines = append(b.lines, Line{})
	}
	b.gap = false

	line := Line{}
	for i := range b.indents {
		in := &b.indents[i]
		s := in.rest
		if !in.used {
			s = in.first
			in.used = true
		}
		if s == "" {
			continue
		}
		w := runewidth.StringWidth(s)
		line.Runs = append(line.Runs, Run{Text: s, Col: line.Width, Width: w, Style: in.style})
		line.Width += w
	}

	b.cur = &line
	b.content = false
}

// flush appends the open line if it carries content.
func (b *builder) flush() {
	if b.cur != nil && b.content {
		b.lines = append(b.lines, *b.cur)
	}
	b.cur = nil
	b.content = false
}

// endBlock closes the open line and requests a blank line before the next
// one.
func (b *builder) endBlock() {
	b.flush()
	if len(b.lines) > 0 {
		b.gap = true
	}
}

func (b *builder) breakLine() {
	if b.cur == nil {
		b.newLine()
	}
	b.content = true
	b.flush()
}

func (b *builder) decorate(s string, style Style) {
	if b.cur == nil {
		b.newLine()
	}
	w := runewidth.StringWidth(s)
	b.cur.Runs = append(b.cur.Runs, Run{Text: s, Col: b.cur.Width, Width: w, Style: style})
	b.cur.Width += w
	b.content = true
}

func (b *builder) image(n *html.Node) {
	label := "[image]"
	if alt := strings.TrimSpace(dom.Attr(n, "alt")); alt != "" {
		label = "[image: " + alt + "]"
	}

	b.flush()
	b.newLine()
	b.decorate(runewidth.Truncate(label, max(b.width-b.cur.Width, 1), "…"), StyleImage)
	b.flush()
}

// text flows a text node into lines, wrapping at whitespace. Whitespace at
// the start of a line is dropped.
func (b *builder) text(n *html.Node, style Style) {
	for _, tok := range tokenize(n.Data) {
		if tok.space {
			if b.cur == nil || !b.content {
				continue
			}
			if b.cur.Width+tok.width > b.width {
				b.newLine()
				continue
			}
			b.place(n, tok, style)
			continue
		}

		if b.cur == nil {
			b.newLine()
		}
		if b.content && b.cur.Width+tok.width > b.width {
			b.newLine()
		}
		if b.cur.Width+tok.width <= b.width {
			b.place(n, tok, style)
			continue
		}

		for _, part := range tok.split(b.width - b.cur.Width) {
			if b.content && b.cur.Width+part.width > b.width {
				b.newLine()
			}
			b.place(n, part, style)
		}
	}
}

// pre lays out preformatted text line by line without wrapping at words.
func (b *builder) pre(n *html.Node, style Style) {
	dom.WalkText(n, func(t *html.Node) bool {
		offset := 0
		lines := strings.Split(t.Data, "\n")
		for i, raw := range lines {
			length := codeunit.Len(raw)
			if i == len(lines)-1 && raw == "" {
				break
			}
			b.newLine()
			b.content = true
			tok := token{text: raw, start: offset, end: offset + length, width: runewidth.StringWidth(raw)}
			if tok.width <= b.width-b.cur.Width {
				b.place(t, tok, style)
			} else {
				for _, part := range tok.split(b.width - b.cur.Width) {
					if b.cur.Width+part.width > b.width {
						b.newLine()
						b.content = true
					}
					b.place(t, part, style)
				}
			}
			b.flush()
			offset += length + 1
		}
		return true
	})
}

// place appends tok to the open line, merging with the previous run when it
// continues the same node.
func (b *builder) place(n *html.Node, tok token, style Style) {
	if tok.width == 0 && tok.text == "" {
		return
	}

	runs := b.cur.Runs
	if k := len(runs) - 1; k >= 0 && runs[k].Node == n && runs[k].End == tok.start && runs[k].Style == style {
		runs[k].Text += tok.text
		runs[k].End = tok.end
		runs[k].Width += tok.width
	} else {
		b.cur.Runs = append(runs, Run{
			Node:  n,
			Start: tok.start,
			End:   tok.end,
			Text:  tok.text,
			Col:   b.cur.Width,
			Width: tok.width,
			Style: style,
		})
	}
	b.cur.Width += tok.width
	b.content = true
}

type token struct {
	text  string
	start int
	end   int
	width int
	space bool
}

// tokenize splits s into alternating word and whitespace tokens with code
// unit offsets.
func tokenize(s string) []token {
	var (
		toks  []token
		cur   strings.Builder
		start int
		units int
		space bool
	)

	emit := func() {
		if cur.Len() == 0 {
			return
		}
		text := cur.String()
		toks = append(toks, token{text: text, start: start, end: units, width: runewidth.StringWidth(text), space: space})
		cur.Reset()
	}

	for _, r := range s {
		isSpace := unicode.IsSpace(r)
		if cur.Len() > 0 && isSpace != space {
			emit()
		}
		if cur.Len() == 0 {
			start = units
			space = isSpace
		}
		cur.WriteRune(r)
		units += codeunit.RuneLen(r)
	}
	emit()

	return toks
}

// split cuts a token into pieces at most width columns wide.
func (t token) split(width int) []token {
	var (
		parts []token
		cur   strings.Builder
		used  int
		start = t.start
		units = t.start
		limit = max(width, 1)
	)

	for _, r := range t.text {
		w := runewidth.RuneWidth(r)
		if used+w > limit && cur.Len() > 0 {
			parts = append(parts, token{text: cur.String(), start: start, end: units, width: used})
			cur.Reset()
			used = 0
			start = units
		}
		cur.WriteRune(r)
		used += w
		units += codeunit.RuneLen(r)
	}
	if cur.Len() > 0 {
		parts = append(parts, token{text: cur.String(), start: start, end: units, width: used})
	}

	return parts
}
