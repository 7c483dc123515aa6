package setup

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			MarginBottom(1)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280")).
			Italic(true)
)

// tokenModel prompts for the Asana personal access token with hidden
// input.
type tokenModel struct {
	input    textinput.Model
	done     bool
	canceled bool
}

func newTokenModel() tokenModel {
	ti := textinput.New()
	ti.Placeholder = "Asana personal access token"
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '•'
	ti.Focus()
	return tokenModel{input: ti}
}

func (m tokenModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m tokenModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyEnter:
			if strings.TrimSpace(m.input.Value()) != "" {
				m.done = true
				return m, tea.Quit
			}
			return m, nil
		case tea.KeyEsc, tea.KeyCtrlC:
			m.canceled = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m tokenModel) View() string {
	if m.done || m.canceled {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("asanaid setup"))
	sb.WriteString("\n")
	sb.WriteString(m.input.View())
	sb.WriteString("\n\n")
	sb.WriteString(helpStyle.Render("enter: continue • esc: cancel"))
	sb.WriteString("\n")
	return sb.String()
}

// PromptToken runs the interactive token prompt and returns the entered
// token.
func PromptToken() (string, error) {
	final, err := tea.NewProgram(newTokenModel()).Run()
	if err != nil {
		return "", fmt.Errorf("setup prompt: %w", err)
	}
	m, ok := final.(tokenModel)
	if !ok || m.canceled || !m.done {
		return "", fmt.Errorf("setup canceled")
	}
	return strings.TrimSpace(m.input.Value()), nil
}
