package offsetmap

import "math"

// RenderedToRaw returns the raw in-page offset of the r-th rendered
// character. Offsets outside the page clamp to its bounds. A rendered offset
// on the boundary between two segments maps to the end of the earlier one.
func RenderedToRaw(r int, segs []Segment) int {
	if r <= 0 {
		return 0
	}

	rawBefore, renderedBefore := 0, 0
	for _, s := range segs {
		if s.Kind == KindText && s.RenderedLen > 0 && r <= renderedBefore+s.RenderedLen {
			return rawBefore + scale(r-renderedBefore, s.RenderedLen, s.RawLen)
		}

		rawBefore += s.RawLen
		if s.Kind == KindText {
			renderedBefore += s.RenderedLen
		}
	}

	return rawBefore
}

// RawToRendered returns the rendered in-page offset for raw offset rho.
// Offsets inside a syntax segment map to the rendered position just before
// it.
func RawToRendered(rho int, segs []Segment) int {
	if rho <= 0 {
		return 0
	}

	rawBefore, renderedBefore := 0, 0
	for _, s := range segs {
		if s.RawLen > 0 && rho <= rawBefore+s.RawLen {
			if s.Kind == KindSyntax {
				return renderedBefore
			}
			return renderedBefore + scale(rho-rawBefore, s.RawLen, s.RenderedLen)
		}

		rawBefore += s.RawLen
		if s.Kind == KindText {
			renderedBefore += s.RenderedLen
		}
	}

	return renderedBefore
}

// scale maps pos from a range of length from onto a range of length to.
func scale(pos, from, to int) int {
	if from == 0 {
		return 0
	}
	return int(math.Round(float64(pos) / float64(from) * float64(to)))
}
