// Package paginate splits an immutable document into word-aligned pages and
// tracks the current page.
package paginate

import "github.com/colonyops/marginalia/internal/core/codeunit"

const (
	// DefaultPageSize is the target page length in code units.
	DefaultPageSize = 5000
	// MaxPages caps the page list. The last page absorbs any remainder.
	MaxPages = 10000
)

// Page is a half-open range [Start, End) of the document.
type Page struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the page length in code units.
func (p Page) Len() int {
	return p.End - p.Start
}

// Contains reports whether offset g falls inside the page.
func (p Page) Contains(g int) bool {
	return p.Start <= g && g < p.End
}

// Paginate partitions text into pages of roughly size code units. A page ends
// just before whitespace when one exists near the target length. Pages cover
// the text exactly with no gaps or overlap. A size below 1 selects
// DefaultPageSize.
func Paginate(text codeunit.Text, size int) []Page {
	if size < 1 {
		size = DefaultPageSize
	}

	n := text.Len()
	if n == 0 {
		return nil
	}

	pages := make([]Page, 0, n/size+1)
	c := 0
	for c < n {
		if len(pages) == MaxPages-1 {
			pages = append(pages, Page{Start: c, End: n})
			break
		}

		tentative := min(c+size, n)
		if tentative == n {
			pages = append(pages, Page{Start: c, End: n})
			break
		}

		end := cutPoint(text, c, tentative, size)
		if end-c < size/2 && n-c > size {
			end = tentative
		}

		pages = append(pages, Page{Start: c, End: end})
		c = end
	}

	return pages
}

// cutPoint picks the end of the page that starts at c. It prefers cutting
// before the nearest whitespace at or below tentative, then after the first
// whitespace within a quarter page beyond it, and finally tentative itself.
func cutPoint(text codeunit.Text, c, tentative, size int) int {
	for i := tentative; i > c; i-- {
		if text.IsSpace(i) {
			return i
		}
	}

	limit := min(tentative+size/4, text.Len())
	for i := tentative + 1; i < limit; i++ {
		if text.IsSpace(i) {
			return i + 1
		}
	}

	return tentative
}

// Locate returns the 1-based page containing offset g. The end of the
// document belongs to the last page. ok is false when g lies outside the
// document or no pages exist.
func Locate(pages []Page, g int) (page int, ok bool) {
	if len(pages) == 0 {
		return 0, false
	}

	if g == pages[len(pages)-1].End {
		return len(pages), true
	}

	for i, p := range pages {
		if p.Contains(g) {
			return i + 1, true
		}
	}

	return 0, false
}

// Estimate guesses the page for offset g before pages have been built.
func Estimate(g, size int) int {
	if size < 1 {
		size = DefaultPageSize
	}
	if g < 0 {
		return 1
	}
	return g/size + 1
}
