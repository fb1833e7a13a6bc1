package components

import "strings"

const maxCachedPad = 256

var padCache = func() [maxCachedPad + 1]string {
	var c [maxCachedPad + 1]string
	full := strings.Repeat(" ", maxCachedPad)
	for i := range c {
		c[i] = full[:i]
	}
	return c
}()

// Pad returns a string of n spaces.
func Pad(n int) string {
	if n <= 0 {
		return ""
	}
	if n <= maxCachedPad {
		return padCache[n]
	}
	return strings.Repeat(" ", n)
}
