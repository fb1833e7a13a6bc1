package paginate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestController_Moves(t *testing.T) {
	c := NewController(3)

	assert.Equal(t, 1, c.Current())
	assert.False(t, c.Previous())
	assert.True(t, c.Next())
	assert.True(t, c.Next())
	assert.Equal(t, 3, c.Current())
	assert.False(t, c.Next())
	assert.True(t, c.First())
	assert.True(t, c.Last())
	assert.Equal(t, 3, c.Current())
}

func TestController_GoToClamps(t *testing.T) {
	c := NewController(5)

	assert.True(t, c.GoTo(99))
	assert.Equal(t, 5, c.Current())
	assert.True(t, c.GoTo(-2))
	assert.Equal(t, 1, c.Current())
	assert.False(t, c.GoTo(1))
}

func TestController_SetTotal(t *testing.T) {
	c := NewController(10)
	c.GoTo(8)

	c.SetTotal(4)
	assert.Equal(t, 4, c.Current())

	c.SetTotal(0)
	assert.Equal(t, 0, c.Current())
	assert.False(t, c.Next())
}
