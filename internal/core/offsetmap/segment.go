// Package offsetmap translates between raw Markdown offsets and rendered text
// offsets within a single page.
//
// A page is split into segments. Text segments contribute both raw and
// rendered characters; syntax segments (image links) contribute only raw
// characters. Translation inside a text segment is proportional, so it is
// exact at segment boundaries and approximate inside segments where
// formatting markers expand or vanish when rendered.
package offsetmap

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/html"

	"github.com/colonyops/marginalia/internal/core/codeunit"
)

// Kind classifies a segment.
type Kind int

const (
	// KindText is source text that renders to visible characters.
	KindText Kind = iota
	// KindSyntax is source that renders to no characters, such as an image.
	KindSyntax
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindSyntax:
		return "syntax"
	default:
		return "unknown"
	}
}

// Segment is a contiguous slice of a page.
type Segment struct {
	Kind        Kind
	Raw         string
	RawLen      int
	RenderedLen int
}

// imageLink matches ![alt](url) and ![alt](url "title").
var imageLink = regexp.MustCompile(`!\[[^\]]*\]\([^)\s]*(?:\s+"[^"]*")?\)`)

// Segmentize splits page into text and syntax segments. The raw lengths of
// the segments always sum to the code unit length of page. Whitespace at the
// start of the page renders nothing and becomes a syntax segment.
func Segmentize(page string) []Segment {
	var segs []Segment

	last := len(page) - len(strings.TrimLeftFunc(page, unicode.IsSpace))
	if last > 0 {
		segs = append(segs, Segment{Kind: KindSyntax, Raw: page[:last], RawLen: codeunit.Len(page[:last])})
	}
	for _, loc := range imageLink.FindAllStringIndex(page, -1) {
		if loc[0] > last {
			segs = append(segs, textSegment(page[last:loc[0]]))
		}
		raw := page[loc[0]:loc[1]]
		segs = append(segs, Segment{Kind: KindSyntax, Raw: raw, RawLen: codeunit.Len(raw)})
		last = loc[1]
	}

	if last < len(page) {
		segs = append(segs, textSegment(page[last:]))
	}

	return segs
}

func textSegment(raw string) Segment {
	return Segment{
		Kind:        KindText,
		Raw:         raw,
		RawLen:      codeunit.Len(raw),
		RenderedLen: codeunit.Len(Collapse(html.UnescapeString(raw))),
	}
}

// Collapse replaces every run of whitespace with a single space.
func Collapse(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))

	inSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !inSpace {
				sb.WriteByte(' ')
			}
			inSpace = true
			continue
		}
		inSpace = false
		sb.WriteRune(r)
	}

	return sb.String()
}

// RawLen returns the total raw length of segs.
func RawLen(segs []Segment) int {
	n := 0
	for _, s := range segs {
		n += s.RawLen
	}
	return n
}

// RenderedLen returns the total rendered length of segs.
func RenderedLen(segs []Segment) int {
	n := 0
	for _, s := range segs {
		if s.Kind == KindText {
			n += s.RenderedLen
		}
	}
	return n
}
