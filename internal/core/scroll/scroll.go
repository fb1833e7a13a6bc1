// Package scroll models scrollable panes and the shared programmatic-scroll
// flag that keeps coupled panes from echoing each other's writes.
package scroll

import (
	"math"
	"time"
)

// Hold durations for programmatic writes.
const (
	JumpHold = 300 * time.Millisecond
	PageHold = 100 * time.Millisecond
	SyncHold = 50 * time.Millisecond
)

// Pane is a vertically scrollable view measured in rows.
type Pane interface {
	ScrollTop() int
	ScrollHeight() int
	ClientHeight() int
	SetScrollTop(top int)
}

// MaxTop returns the largest valid scroll offset of p.
func MaxTop(p Pane) int {
	return max(p.ScrollHeight()-p.ClientHeight(), 0)
}

// Scrollable reports whether p has content beyond its visible height.
func Scrollable(p Pane) bool {
	return MaxTop(p) > 0
}

// Fraction returns scrollTop / (scrollHeight - clientHeight) in [0, 1], or 0
// when p is not scrollable.
func Fraction(p Pane) float64 {
	m := MaxTop(p)
	if m == 0 {
		return 0
	}
	return clamp01(float64(p.ScrollTop()) / float64(m))
}

// TopFor returns the scroll offset of p at fraction f.
func TopFor(p Pane, f float64) int {
	return int(math.Round(clamp01(f) * float64(MaxTop(p))))
}

// RoundFraction clamps f to [0, 1] and rounds it to four decimal places.
func RoundFraction(f float64) float64 {
	return math.Round(clamp01(f)*10000) / 10000
}

func clamp01(f float64) float64 {
	if math.IsNaN(f) || f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
