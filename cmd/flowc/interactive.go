package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/flowtree"
	"github.com/wippyai/flowtree/internal/interp"
	"github.com/wippyai/flowtree/tree"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	treeStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	awaitStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))
)

type keyMap struct {
	Next    key.Binding
	Restart key.Binding
	Up      key.Binding
	Down    key.Binding
	Quit    key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Restart, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Next, k.Restart}, {k.Up, k.Down, k.Quit}}
}

var keys = keyMap{
	Next:    key.NewBinding(key.WithKeys("n", "enter"), key.WithHelp("n", "next turn")),
	Restart: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "restart")),
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "scroll up")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "scroll down")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// stepperModel steps a translated body one generator turn at a time.
type stepperModel struct {
	err    error
	gen    *interp.Generator
	result *flowtree.Result
	config *tomlConfig
	name   string
	turns  []turn
	view   viewport.Model
	help   help.Model
	ready  bool
}

func newStepperModel(name string, res *flowtree.Result, tc *tomlConfig) *stepperModel {
	return &stepperModel{name: name, result: res, config: tc, help: help.New()}
}

type startedMsg struct {
	err error
	gen *interp.Generator
	out interp.Value
}

func (m *stepperModel) Init() tea.Cmd {
	return m.start
}

func (m *stepperModel) start() tea.Msg {
	v, err := m.config.interpreter().Run(m.result.Tree)
	if err != nil {
		return startedMsg{err: err}
	}
	gen, ok := v.(*interp.Generator)
	if !ok {
		return startedMsg{out: v}
	}
	return startedMsg{gen: gen}
}

func (m *stepperModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Next):
			if m.gen != nil {
				m.turns = append(m.turns, step(m.gen))
			}
			return m, nil
		case key.Matches(msg, keys.Restart):
			m.turns = nil
			m.gen = nil
			m.err = nil
			return m, m.start
		}

	case tea.WindowSizeMsg:
		height := msg.Height - 12
		if height < 3 {
			height = 3
		}
		if !m.ready {
			m.view = viewport.New(msg.Width-2, height)
			m.view.SetContent(tree.RenderIndented(m.result.Tree))
			m.ready = true
		} else {
			m.view.Width = msg.Width - 2
			m.view.Height = height
		}
		m.help.Width = msg.Width

	case startedMsg:
		m.err = msg.err
		m.gen = msg.gen
		if msg.gen == nil && msg.err == nil {
			m.turns = append(m.turns, turn{result: show(msg.out)})
		}
	}

	var cmd tea.Cmd
	m.view, cmd = m.view.Update(msg)
	return m, cmd
}

func (m *stepperModel) View() string {
	if !m.ready {
		return "Translating..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("flowc"))
	b.WriteString(" ")
	b.WriteString(m.name)
	b.WriteString("\n")
	b.WriteString(treeStyle.Render(m.view.View()))
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	}
	for i, t := range m.turns {
		line := fmt.Sprintf("%2d  %s", i+1, t.result)
		if t.failed {
			b.WriteString(errorStyle.Render(line))
		} else {
			b.WriteString(resultStyle.Render(line))
		}
		if t.awaiting != "" {
			b.WriteString("  ")
			b.WriteString(awaitStyle.Render("awaiting " + t.awaiting))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(keys))
	return b.String()
}

func runInteractive(name string, res *flowtree.Result, tc *tomlConfig) error {
	p := tea.NewProgram(newStepperModel(name, res, tc), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
