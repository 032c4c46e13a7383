package repl

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"exprc/pkg/compiler"
	"exprc/pkg/cpu"
)

func newTestModel() Model {
	return NewModel(Options{Target: compiler.DefaultTarget(), Limits: cpu.DefaultLimits()})
}

func typeText(m Model, s string) Model {
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return next.(Model)
}

func press(m Model, k tea.KeyType) (Model, tea.Cmd) {
	next, cmd := m.Update(tea.KeyMsg{Type: k})
	return next.(Model), cmd
}

func TestLiveResult(t *testing.T) {
	m := typeText(newTestModel(), "1+2*3")
	if m.result != "7" {
		t.Errorf("result = %q, want 7", m.result)
	}
	if m.errMsg != "" {
		t.Errorf("unexpected error %q", m.errMsg)
	}
	if !strings.Contains(m.asm, "imul rax, rdi") {
		t.Errorf("assembly missing imul:\n%s", m.asm)
	}

	view := m.View()
	for _, want := range []string{"= 7", "imul rax, rdi", "esc: quit"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q:\n%s", want, view)
		}
	}
}

func TestLiveDiagnostic(t *testing.T) {
	m := typeText(newTestModel(), "1+")
	if m.result != "" {
		t.Errorf("result = %q, want none", m.result)
	}
	want := "1+\n  ^ expected a number"
	if m.errMsg != want {
		t.Errorf("errMsg = %q, want %q", m.errMsg, want)
	}
	if m.asm != "" {
		t.Errorf("assembly shown for a parse error")
	}
}

func TestRuntimeFaultKeepsAssembly(t *testing.T) {
	m := typeText(newTestModel(), "1/0")
	if !strings.Contains(m.errMsg, "divide by zero") {
		t.Errorf("errMsg = %q", m.errMsg)
	}
	if !strings.Contains(m.asm, "idiv rdi") {
		t.Errorf("assembly not shown for a runtime fault")
	}
}

func TestEnterKeepsHistory(t *testing.T) {
	m := typeText(newTestModel(), "2>=2")
	m, _ = press(m, tea.KeyEnter)
	m = typeText(m, "1&2")
	m, _ = press(m, tea.KeyEnter)

	if len(m.history) != 2 {
		t.Fatalf("history has %d entries, want 2", len(m.history))
	}
	if m.history[0] != (historyEntry{expr: "2>=2", outcome: "1"}) {
		t.Errorf("history[0] = %+v", m.history[0])
	}
	if m.history[1].outcome != "^ invalid token '&'" {
		t.Errorf("history[1].outcome = %q", m.history[1].outcome)
	}
	if m.input.Value() != "" || m.result != "" {
		t.Errorf("input not cleared after enter")
	}

	m, _ = press(m, tea.KeyEnter)
	if len(m.history) != 2 {
		t.Errorf("empty line was added to history")
	}
}

func TestHistoryIsBounded(t *testing.T) {
	m := newTestModel()
	for i := 0; i < maxHistory+5; i++ {
		m = typeText(m, "1")
		m, _ = press(m, tea.KeyEnter)
	}
	if len(m.history) != maxHistory {
		t.Errorf("history has %d entries, want %d", len(m.history), maxHistory)
	}
}

func TestToggleAssembly(t *testing.T) {
	m := typeText(newTestModel(), "42")
	m, _ = press(m, tea.KeyTab)
	if strings.Contains(m.View(), "push 42") {
		t.Errorf("assembly still shown after toggle")
	}
	m, _ = press(m, tea.KeyTab)
	if !strings.Contains(m.View(), "push 42") {
		t.Errorf("assembly hidden after second toggle")
	}
}

func TestQuit(t *testing.T) {
	for _, k := range []tea.KeyType{tea.KeyCtrlC, tea.KeyEsc} {
		_, cmd := press(newTestModel(), k)
		if cmd == nil {
			t.Fatalf("%v: no command returned", k)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("%v: command did not quit", k)
		}
	}
}
