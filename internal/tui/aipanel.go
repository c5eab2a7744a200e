package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/johan-st/sqlhelper/internal/ai"
)

// aiPanel asks for a request, shows the generated SQL and waits for the user
// to run or discard it.
type aiPanel struct {
	input     textinput.Model
	exchange  *ai.Exchange
	statement string
	err       error
}

func newAIPanel(width int) *aiPanel {
	in := textinput.New()
	in.Placeholder = "e.g. the ten most recent orders with their totals"
	in.Prompt = "? "
	in.Width = width
	in.Focus()
	return &aiPanel{input: in}
}

// reviewing is true once SQL was generated for the current request.
func (p *aiPanel) reviewing() bool {
	return p.exchange != nil
}

func (p *aiPanel) edit() {
	p.exchange, p.statement, p.err = nil, "", nil
	p.input.Focus()
}
