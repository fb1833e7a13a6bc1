package dom

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/colonyops/marginalia/internal/core/codeunit"
)

// WalkText calls fn for every text node under root in document order until
// fn returns false.
func WalkText(root *html.Node, fn func(n *html.Node) bool) {
	walk(root, fn)
}

func walk(n *html.Node, fn func(*html.Node) bool) bool {
	if n.Type == html.TextNode {
		return fn(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, fn) {
			return false
		}
	}
	return true
}

// TextLen returns the length of a text node in code units.
func TextLen(n *html.Node) int {
	if n == nil || n.Type != html.TextNode {
		return 0
	}
	return codeunit.Len(n.Data)
}

// TextContent concatenates every text node under n.
func TextContent(n *html.Node) string {
	var sb strings.Builder
	WalkText(n, func(t *html.Node) bool {
		sb.WriteString(t.Data)
		return true
	})
	return sb.String()
}

// Contains reports whether n is root or one of its descendants.
func Contains(root, n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == root {
			return true
		}
	}
	return false
}

// FirstText returns the first text node at or under n.
func FirstText(n *html.Node) *html.Node {
	var found *html.Node
	WalkText(n, func(t *html.Node) bool {
		found = t
		return false
	})
	return found
}

// LastText returns the last text node at or under n.
func LastText(n *html.Node) *html.Node {
	var found *html.Node
	WalkText(n, func(t *html.Node) bool {
		found = t
		return true
	})
	return found
}

