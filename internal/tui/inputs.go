package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

func newInput(label string, limit int) textinput.Model {
	in := textinput.New()
	in.Prompt = label + ": "
	in.CharLimit = limit
	return in
}

func newPassword(label string) textinput.Model {
	in := newInput(label, 72)
	in.EchoMode = textinput.EchoPassword
	in.EchoCharacter = '•'
	return in
}

func newNumber(label string) textinput.Model {
	in := newInput(label, 6)
	in.Validate = validNumber
	return in
}

func validNumber(s string) error {
	if s == "" {
		return nil
	}
	_, err := strconv.ParseFloat(s, 64)
	return err
}

// numericKey strips everything but digits and the decimal point from a
// typed key.  ok is false when nothing is left to insert.
func numericKey(msg tea.KeyMsg) (tea.KeyMsg, bool) {
	switch msg.Type {
	case tea.KeySpace:
		return msg, false
	case tea.KeyRunes:
		kept := []rune(strings.Map(func(r rune) rune {
			if (r >= '0' && r <= '9') || r == '.' {
				return r
			}
			return -1
		}, string(msg.Runes)))
		if len(kept) == 0 {
			return msg, false
		}
		msg.Runes = kept
	}
	return msg, true
}

// focusOnly focuses ins[i] and blurs the rest; i out of range blurs all.
func focusOnly(ins []textinput.Model, i int) {
	for j := range ins {
		if j == i {
			ins[j].Focus()
		} else {
			ins[j].Blur()
		}
	}
}

func renderInput(in textinput.Model) string {
	if in.Focused() {
		return focusStyle.Render("› ") + in.View()
	}
	return "  " + in.View()
}
