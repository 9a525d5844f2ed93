// File: internal/ui/prompt/terminal.go
package prompt

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	warnStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	hintStyle = lipgloss.NewStyle().Faint(true)
)

// TerminalPrompter asks for confirmation with an interactive text input.
type TerminalPrompter struct {
	in  io.Reader
	out io.Writer
}

func NewTerminalPrompter(in io.Reader, out io.Writer) *TerminalPrompter {
	return &TerminalPrompter{in: in, out: out}
}

func (p *TerminalPrompter) Confirm(message string, expectedValue string) (bool, error) {
	if expectedValue == "" {
		return false, errEmptyExpected
	}

	program := tea.NewProgram(newConfirmModel(message, expectedValue), tea.WithInput(p.in), tea.WithOutput(p.out))
	final, err := program.Run()
	if err != nil {
		return false, fmt.Errorf("error running confirmation prompt: %w", err)
	}
	return final.(confirmModel).confirmed, nil
}

type confirmModel struct {
	message   string
	expected  string
	input     textinput.Model
	done      bool
	confirmed bool
}

func newConfirmModel(message, expected string) confirmModel {
	input := textinput.New()
	input.Placeholder = expected
	input.CharLimit = 256
	input.Focus()

	return confirmModel{
		message:  message,
		expected: expected,
		input:    input,
	}
}

func (m confirmModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			m.done = true
			m.confirmed = strings.TrimSpace(m.input.Value()) == m.expected
			return m, tea.Quit
		case tea.KeyCtrlC, tea.KeyEsc:
			m.done = true
			m.confirmed = false
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m confirmModel) View() string {
	if m.done {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(warnStyle.Render(m.message))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("To confirm, please type the name '%s':\n", m.expected))
	sb.WriteString(m.input.View())
	sb.WriteString("\n")
	sb.WriteString(hintStyle.Render("(enter to confirm, esc to cancel)"))
	sb.WriteString("\n")
	return sb.String()
}
