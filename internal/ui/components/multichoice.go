package components

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/aranyoray/studybot/internal/ui/theme"
)

// MultiChoice is a keyboard-driven option list. Arrows move the cursor,
// Enter confirms it and a digit picks that option directly.
type MultiChoice struct {
	Options  []string
	Selected int
}

// NewMultiChoice creates a selector with the cursor on the first option.
func NewMultiChoice(options []string) MultiChoice {
	return MultiChoice{Options: options}
}

// Update handles a key press and reports whether an option was chosen.
func (m MultiChoice) Update(msg tea.Msg) (MultiChoice, bool) {
	kmsg, ok := msg.(tea.KeyPressMsg)
	if !ok || len(m.Options) == 0 {
		return m, false
	}

	key := kmsg.String()
	switch key {
	case "up", "k":
		if m.Selected > 0 {
			m.Selected--
		}
	case "down", "j":
		if m.Selected < len(m.Options)-1 {
			m.Selected++
		}
	case "enter":
		return m, true
	default:
		if len(key) == 1 && key[0] >= '1' && int(key[0]-'0') <= len(m.Options) {
			m.Selected = int(key[0] - '1')
			return m, true
		}
	}
	return m, false
}

// Value returns the option under the cursor.
func (m MultiChoice) Value() string {
	if m.Selected < 0 || m.Selected >= len(m.Options) {
		return ""
	}
	return m.Options[m.Selected]
}

// View renders the options, one per line.
func (m MultiChoice) View() string {
	var b strings.Builder
	for i, opt := range m.Options {
		prefix := "  "
		style := theme.Unselected
		if i == m.Selected {
			prefix = "> "
			style = theme.Selected
		}
		b.WriteString(style.Render(fmt.Sprintf("%s%d) %s", prefix, i+1, opt)))
		if i < len(m.Options)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}
