package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type formField struct {
	label string
	hint  string
	input textinput.Model
}

// inputForm is a vertical list of labeled text inputs. The owner decides
// what submitting means.
type inputForm struct {
	fields []formField
	focus  int
}

func (f *inputForm) add(label, value, hint string, secret bool) {
	in := textinput.New()
	in.Prompt = ""
	in.CharLimit = 0
	in.Width = 40
	in.SetValue(value)
	if secret {
		in.EchoMode = textinput.EchoPassword
		in.EchoCharacter = '•'
	}
	if len(f.fields) == f.focus {
		in.Focus()
	}
	f.fields = append(f.fields, formField{label: label, hint: hint, input: in})
}

func (f *inputForm) values() []string {
	out := make([]string, len(f.fields))
	for i, field := range f.fields {
		out[i] = field.input.Value()
	}
	return out
}

func (f *inputForm) focused() int { return f.focus }

func (f *inputForm) setHint(i int, hint string) {
	if i >= 0 && i < len(f.fields) {
		f.fields[i].hint = hint
	}
}

func (f *inputForm) move(delta int) tea.Cmd {
	if len(f.fields) == 0 {
		return nil
	}
	f.fields[f.focus].input.Blur()
	f.focus = (f.focus + delta + len(f.fields)) % len(f.fields)
	return f.fields[f.focus].input.Focus()
}

// update handles navigation and forwards everything else to the focused
// input.
func (f *inputForm) update(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "tab", "down":
		return f.move(1)
	case "shift+tab", "up":
		return f.move(-1)
	}
	if len(f.fields) == 0 {
		return nil
	}
	var cmd tea.Cmd
	f.fields[f.focus].input, cmd = f.fields[f.focus].input.Update(msg)
	return cmd
}

func (f *inputForm) setWidth(width int) {
	w := width - 18
	if w < 10 {
		w = 10
	}
	for i := range f.fields {
		f.fields[i].input.Width = w
	}
}

func (f *inputForm) view() string {
	var b strings.Builder
	for i, field := range f.fields {
		label := labelStyle.Render(truncateString(field.label, 13))
		if i == f.focus {
			label = focusedLabelStyle.Render(truncateString(field.label, 13))
		}
		line := lipgloss.JoinHorizontal(lipgloss.Top, label, " ", field.input.View())
		b.WriteString(line)
		if field.hint != "" {
			b.WriteString("  ")
			b.WriteString(dimItemStyle.Render(field.hint))
		}
		if i < len(f.fields)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}
