// Package codeunit addresses strings by UTF-16 code units.
//
// Stored anchors carry offsets measured in UTF-16 code units, which is how the
// browser client and the HTTP backend count characters. Every offset in the
// reading core uses this unit so stored anchors stay valid across clients.
package codeunit

import (
	"unicode"
	"unicode/utf16"
)

// Text is an immutable string indexed by UTF-16 code unit.
type Text struct {
	units []uint16
}

// NewText encodes s.
func NewText(s string) Text {
	return Text{units: utf16.Encode([]rune(s))}
}

// Len returns the number of code units.
func (t Text) Len() int {
	return len(t.units)
}

// Slice returns the code units in [start, end) as a Go string. The range is
// clamped to the text. A surrogate pair cut in half decodes to U+FFFD.
func (t Text) Slice(start, end int) string {
	start = clamp(start, 0, len(t.units))
	end = clamp(end, start, len(t.units))
	return string(utf16.Decode(t.units[start:end]))
}

// String returns the whole text.
func (t Text) String() string {
	return t.Slice(0, len(t.units))
}

// IsSpace reports whether the unit at i is whitespace. Surrogates are never
// whitespace.
func (t Text) IsSpace(i int) bool {
	if i < 0 || i >= len(t.units) {
		return false
	}
	u := t.units[i]
	if utf16.IsSurrogate(rune(u)) {
		return false
	}
	return unicode.IsSpace(rune(u))
}

// Len returns the UTF-16 length of s.
func Len(s string) int {
	n := 0
	for _, r := range s {
		n += RuneLen(r)
	}
	return n
}

// RuneLen returns the number of code units r encodes to.
func RuneLen(r rune) int {
	if r >= 0x10000 && r <= unicode.MaxRune {
		return 2
	}
	return 1
}


// ByteOffset converts a code unit offset into s to a byte offset. Offsets
// past the end return len(s); an offset inside a surrogate pair rounds down.
func ByteOffset(s string, n int) int {
	if n <= 0 {
		return 0
	}
	used := 0
	for i, r := range s {
		w := RuneLen(r)
		if used+w > n {
			return i
		}
		used += w
		if used == n {
			return i + len(string(r))
		}
	}
	return len(s)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
