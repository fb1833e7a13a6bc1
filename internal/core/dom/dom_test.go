package dom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func textNodes(root *html.Node) []*html.Node {
	var out []*html.Node
	WalkText(root, func(n *html.Node) bool {
		out = append(out, n)
		return true
	})
	return out
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if f := findElement(c, tag); f != nil {
			return f
		}
	}
	return nil
}

func TestBuild_Paragraph(t *testing.T) {
	doc, err := Build("alpha beta gamma ![](pic.png) delta")
	require.NoError(t, err)

	assert.Equal(t, "alpha beta gamma  delta ", TextContent(doc.Root))

	img := findElement(doc.Root, "img")
	require.NotNil(t, img)
	assert.Equal(t, "/images/pic.png", Attr(img, "src"))
}

func TestBuild_CollapsesWhitespace(t *testing.T) {
	doc, err := Build("one\ntwo   three\n\nfour &amp; five")
	require.NoError(t, err)

	assert.Equal(t, "one two three four & five ", TextContent(doc.Root))
}

func TestBuild_PreservesPre(t *testing.T) {
	doc, err := Build("```\na   b\n```")
	require.NoError(t, err)

	pre := findElement(doc.Root, "pre")
	require.NotNil(t, pre)
	assert.Equal(t, "a   b\n", TextContent(pre))
}

func TestImageURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"pic.png", "/images/pic.png"},
		{"nested/dir/pic.png", "/images/pic.png"},
		{"https://cdn.example.com/books/1/fig-2.jpg?sig=abc", "/images/fig-2.jpg"},
		{"/abs/path/", "/images/path"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ImageURL(tt.in))
		})
	}
}

func TestNormalize(t *testing.T) {
	doc, err := Build("first *second*\n\n![](x.png)\n\nthird")
	require.NoError(t, err)

	p := findElement(doc.Root, "p")
	require.NotNil(t, p)
	texts := textNodes(doc.Root)
	require.NotEmpty(t, texts)

	t.Run("text node clamps", func(t *testing.T) {
		b, ok := Normalize(Boundary{Node: texts[0], Offset: 999})
		require.True(t, ok)
		assert.Equal(t, TextLen(texts[0]), b.Offset)
	})

	t.Run("element child index", func(t *testing.T) {
		b, ok := Normalize(Boundary{Node: p, Offset: 1})
		require.True(t, ok)
		assert.Equal(t, "second", b.Node.Data)
		assert.Equal(t, 0, b.Offset)
	})

	t.Run("past last child", func(t *testing.T) {
		b, ok := Normalize(Boundary{Node: p, Offset: 10})
		require.True(t, ok)
		assert.Equal(t, "second", b.Node.Data)
		assert.Equal(t, 6, b.Offset)
	})

	t.Run("element without text", func(t *testing.T) {
		img := findElement(doc.Root, "img")
		_, ok := Normalize(Boundary{Node: img, Offset: 0})
		assert.False(t, ok)
	})

	t.Run("nil", func(t *testing.T) {
		_, ok := Normalize(Boundary{})
		assert.False(t, ok)
	})
}

func TestWrapAndRestore(t *testing.T) {
	doc, err := Build("hello wonderful world")
	require.NoError(t, err)

	before := TextContent(doc.Root)
	text := textNodes(doc.Root)[0]

	h, err := Wrap(text, 6, 5)
	require.NoError(t, err)

	assert.Equal(t, before, TextContent(doc.Root))
	assert.Equal(t, "wonde", h.Text().Data)
	assert.Nil(t, text.Parent)

	h.Restore()
	h.Restore()

	assert.Equal(t, before, TextContent(doc.Root))
	assert.Equal(t, text, textNodes(doc.Root)[0])
	assert.Nil(t, findElement(doc.Root, "mark"))
}

func TestWrap_CapsAtNodeEnd(t *testing.T) {
	doc, err := Build("abc")
	require.NoError(t, err)

	h, err := Wrap(textNodes(doc.Root)[0], 1, 5)
	require.NoError(t, err)
	assert.Equal(t, "bc", h.Text().Data)
}

func TestWrap_RejectsDetached(t *testing.T) {
	_, err := Wrap(&html.Node{Type: html.TextNode, Data: "x"}, 0, 1)
	assert.ErrorIs(t, err, ErrNotText)
}

func TestContains(t *testing.T) {
	doc, err := Build("x")
	require.NoError(t, err)

	text := textNodes(doc.Root)[0]
	assert.True(t, Contains(doc.Root, text))
	assert.False(t, Contains(doc.Root, &html.Node{Type: html.TextNode}))
}
