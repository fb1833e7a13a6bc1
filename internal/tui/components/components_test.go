package components

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"

	"github.com/colonyops/marginalia/pkg/tuitest"
)

func TestPad(t *testing.T) {
	assert.Empty(t, Pad(-1))
	assert.Equal(t, "   ", Pad(3))
	assert.Len(t, Pad(300), 300)
}

func TestConfirmModal(t *testing.T) {
	m := NewConfirmModal("Delete bookmark", "chapter 2")
	m, _ = m.Update(tuitest.KeyPress('y'))
	assert.True(t, m.Confirmed())

	m = NewConfirmModal("Delete bookmark", "chapter 2")
	m, _ = m.Update(tuitest.Key(tea.KeyEsc))
	assert.True(t, m.Cancelled())
	assert.Contains(t, tuitest.StripANSI(m.View()), "chapter 2")
}

func TestPrompt_SingleLine(t *testing.T) {
	p := NewPrompt("Bookmark", "name", "")

	p.Update(tuitest.Key(tea.KeyEnter))
	assert.False(t, p.Submitted())
	assert.Equal(t, "a value is required", p.Err())

	for _, msg := range tuitest.Type("ch2") {
		p.Update(msg)
	}
	p.Update(tuitest.Key(tea.KeyEnter))
	assert.True(t, p.Submitted())
	assert.False(t, p.Submitted())
	assert.Equal(t, "ch2", p.Value())
	assert.Contains(t, tuitest.StripANSI(p.View()), "saving...")

	p.Failed("Invalid book_id format: x")
	assert.Contains(t, tuitest.StripANSI(p.View()), "Invalid book_id format: x")
}

func TestPrompt_MultiLineSubmitsWithCtrlS(t *testing.T) {
	p := NewTextPrompt("New note", "gamma", "")
	for _, msg := range tuitest.Type("hi") {
		p.Update(msg)
	}

	p.Update(tuitest.Key(tea.KeyEnter))
	assert.False(t, p.Submitted())

	p.Update(tuitest.Key(tea.KeyCtrlS))
	assert.True(t, p.Submitted())
	assert.Contains(t, p.Value(), "hi")
}

func TestHelpDialog(t *testing.T) {
	h := NewHelpDialog([]HelpSection{{
		Title: "Pages",
		Bindings: []key.Binding{
			key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "next page")),
			key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "hidden"), key.WithDisabled()),
		},
	}})

	out := tuitest.StripANSI(h.View())
	assert.Contains(t, out, "next page")
	assert.NotContains(t, out, "hidden")
}
