package codeunit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText_Len(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int
	}{
		{"empty", "", 0},
		{"ascii", "hello", 5},
		{"bmp", "héllo", 5},
		{"astral", "a😀b", 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewText(tt.in).Len())
			assert.Equal(t, tt.want, Len(tt.in))
		})
	}
}

func TestText_Slice(t *testing.T) {
	txt := NewText("a😀bc")

	assert.Equal(t, "a", txt.Slice(0, 1))
	assert.Equal(t, "😀", txt.Slice(1, 3))
	assert.Equal(t, "bc", txt.Slice(3, 10))
	assert.Equal(t, "", txt.Slice(4, 2))
	assert.Equal(t, "a😀bc", txt.String())
}

func TestText_IsSpace(t *testing.T) {
	txt := NewText("a b\n😀")

	assert.False(t, txt.IsSpace(0))
	assert.True(t, txt.IsSpace(1))
	assert.True(t, txt.IsSpace(3))
	assert.False(t, txt.IsSpace(4))
	assert.False(t, txt.IsSpace(-1))
	assert.False(t, txt.IsSpace(99))
}

func TestByteOffset(t *testing.T) {
	s := "é😀x"

	assert.Equal(t, 0, ByteOffset(s, 0))
	assert.Equal(t, 2, ByteOffset(s, 1))
	assert.Equal(t, 2, ByteOffset(s, 2))
	assert.Equal(t, 6, ByteOffset(s, 3))
	assert.Equal(t, 7, ByteOffset(s, 4))
	assert.Equal(t, 7, ByteOffset(s, 50))
}
