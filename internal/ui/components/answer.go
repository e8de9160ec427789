package components

import (
	"strings"
	"unicode"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
)

// AnswerInput is the single-line box typed answers go into. In numeric
// mode it only accepts digits.
type AnswerInput struct {
	Model   textinput.Model
	Numeric bool
}

// NewAnswerInput creates a focused answer box holding at most limit
// characters. A limit of zero leaves the length unbounded.
func NewAnswerInput(placeholder string, numeric bool, limit int) AnswerInput {
	ti := textinput.New()
	ti.Prompt = "› "
	ti.Placeholder = placeholder
	ti.CharLimit = max(limit, 0)
	ti.Focus()
	return AnswerInput{Model: ti, Numeric: numeric}
}

// accepts reports whether a key press may reach the text model. Keys
// without text (enter, backspace, arrows) always pass.
func (a AnswerInput) accepts(k tea.KeyPressMsg) bool {
	if !a.Numeric || k.Text == "" {
		return true
	}
	for _, r := range k.Text {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// Update forwards msg to the text model, dropping rejected key presses.
func (a AnswerInput) Update(msg tea.Msg) (AnswerInput, tea.Cmd) {
	if k, ok := msg.(tea.KeyPressMsg); ok && !a.accepts(k) {
		return a, nil
	}
	var cmd tea.Cmd
	a.Model, cmd = a.Model.Update(msg)
	return a, cmd
}

func (a AnswerInput) View() string {
	return a.Model.View()
}

// Value returns the typed answer without surrounding spaces.
func (a AnswerInput) Value() string {
	return strings.TrimSpace(a.Model.Value())
}
