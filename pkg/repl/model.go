// Package repl is an interactive front end that compiles and runs the
// expression on every keystroke.
package repl

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"exprc/pkg/compiler"
	"exprc/pkg/cpu"
	"exprc/pkg/diag"
)

const maxHistory = 10

// Options configure a session.
type Options struct {
	Target compiler.Target
	Limits cpu.Limits
	Color  bool // style diagnostics
}

type historyEntry struct {
	expr    string
	outcome string
}

// Model implements tea.Model
type Model struct {
	input   textinput.Model
	opts    Options
	showAsm bool

	asm    string
	result string
	errMsg string

	history []historyEntry
}

// NewModel creates a model with a focused, empty input line.
func NewModel(opts Options) Model {
	input := textinput.New()
	input.Prompt = "> "
	input.Placeholder = "1+2*3"
	input.CharLimit = 256
	input.Width = 60
	input.Focus()

	return Model{
		input:   input,
		opts:    opts,
		showAsm: true,
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "enter":
			m.commit()
			return m, nil

		case "tab":
			m.showAsm = !m.showAsm
			return m, nil
		}
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		m.evaluate()
	}
	return m, cmd
}

// evaluate compiles and runs the current input.
func (m *Model) evaluate() {
	m.asm, m.result, m.errMsg = "", "", ""

	src := m.input.Value()
	if strings.TrimSpace(src) == "" {
		return
	}

	exec, err := compiler.Execute(src, m.opts.Target, m.opts.Limits)
	if err != nil {
		m.errMsg = m.renderError(src, err)
		var de *diag.Error
		if !errors.As(err, &de) {
			// Runtime faults still have valid assembly to show.
			m.asm, _ = compiler.Compile(src, m.opts.Target)
		}
		return
	}
	m.asm = exec.Assembly
	m.result = fmt.Sprintf("%d", exec.Result)
}

func (m Model) renderError(src string, err error) string {
	var b strings.Builder
	_ = diag.Render(&b, src, err, diag.Options{Color: m.opts.Color})
	return strings.TrimRight(b.String(), "\n")
}

// commit moves the current line into the history and clears the input.
func (m *Model) commit() {
	src := m.input.Value()
	if strings.TrimSpace(src) == "" {
		return
	}
	outcome := m.result
	if m.errMsg != "" {
		lines := strings.Split(m.errMsg, "\n")
		outcome = strings.TrimSpace(lines[len(lines)-1])
	}
	m.history = append(m.history, historyEntry{expr: src, outcome: outcome})
	if len(m.history) > maxHistory {
		m.history = m.history[len(m.history)-maxHistory:]
	}
	m.input.Reset()
	m.evaluate()
}

// View implements tea.Model
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("exprc"))
	b.WriteString("\n\n")

	for _, h := range m.history {
		fmt.Fprintf(&b, "  %s  %s\n", h.expr, HelpStyle.Render("→ "+h.outcome))
	}
	if len(m.history) > 0 {
		b.WriteString("\n")
	}

	b.WriteString(m.input.View())
	b.WriteString("\n")

	switch {
	case m.errMsg != "":
		b.WriteString(ErrorStyle.Render(m.errMsg))
		b.WriteString("\n")
	case m.result != "":
		b.WriteString(ResultStyle.Render("= " + m.result))
		b.WriteString("\n")
	}

	if m.showAsm && m.asm != "" {
		b.WriteString("\n")
		b.WriteString(AsmStyle.Render(strings.TrimRight(m.asm, "\n")))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(HelpStyle.Render("enter: keep • tab: toggle assembly • esc: quit"))
	b.WriteString("\n")
	return b.String()
}

// Run starts an interactive session on the terminal.
func Run(opts Options) error {
	p := tea.NewProgram(NewModel(opts))
	_, err := p.Run()
	return err
}
