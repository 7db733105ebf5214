package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/borsh-roundtrip/driver"
	"github.com/wippyai/borsh-roundtrip/registry"
	"github.com/wippyai/borsh-roundtrip/runner"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateSelectCase modelState = iota
	stateShowCase
	stateInputHex
	stateShowResult
)

type interactiveModel struct {
	err      error
	runner   *runner.Runner
	driver   *driver.Driver
	wasmFile string
	title    string
	result   string
	cases    []registry.Case
	input    textinput.Model
	selected int
	state    modelState
	failed   bool
}

func newInteractiveModel(wasmFile string) *interactiveModel {
	r := runner.New(nil)
	return &interactiveModel{
		runner:   r,
		cases:    r.Registry().Cases(),
		wasmFile: wasmFile,
		state:    stateSelectCase,
	}
}

type loadedMsg struct {
	err    error
	driver *driver.Driver
}

type checkResultMsg struct {
	title  string
	result string
	failed bool
}

func (m *interactiveModel) Init() tea.Cmd {
	if m.wasmFile == "" {
		return nil
	}
	return m.loadGuest
}

func (m *interactiveModel) loadGuest() tea.Msg {
	data, err := os.ReadFile(m.wasmFile)
	if err != nil {
		return loadedMsg{err: err}
	}
	d, err := driver.New(context.Background(), data,
		driver.WithRunner(m.runner),
		driver.WithStderr(&strings.Builder{}))
	if err != nil {
		return loadedMsg{err: err}
	}
	return loadedMsg{driver: d}
}

func (m *interactiveModel) close() {
	if m.driver != nil {
		_ = m.driver.Close(context.Background())
	}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.state == stateInputHex {
			switch msg.String() {
			case "ctrl+c":
				m.close()
				return m, tea.Quit
			case "enter":
				return m, m.checkInput
			case "esc":
				m.state = stateShowCase
				return m, nil
			}
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}

		switch msg.String() {
		case "ctrl+c", "q":
			m.close()
			return m, tea.Quit

		case "up", "k":
			if m.state == stateSelectCase && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectCase && m.selected < len(m.cases)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelectCase:
				m.state = stateShowCase
			case stateShowResult:
				m.state = stateShowCase
				m.result = ""
			}

		case "c":
			if m.state == stateShowCase {
				m.prepareInput()
				m.state = stateInputHex
				return m, textinput.Blink
			}

		case "g":
			if m.state == stateShowCase && m.driver != nil {
				return m, m.checkGuest
			}

		case "esc":
			switch m.state {
			case stateShowCase:
				m.state = stateSelectCase
			case stateShowResult:
				m.state = stateShowCase
				m.result = ""
			}
		}

	case loadedMsg:
		m.err = msg.err
		m.driver = msg.driver

	case checkResultMsg:
		m.title = msg.title
		m.result = msg.result
		m.failed = msg.failed
		m.state = stateShowResult
	}

	return m, nil
}

func (m *interactiveModel) prepareInput() {
	c := m.cases[m.selected]
	ti := textinput.New()
	ti.Placeholder = "hex bytes"
	ti.Prompt = c.Name + ": "
	ti.Width = 72
	if data, err := m.runner.Expected(c.ID); err == nil {
		ti.SetValue(hex.EncodeToString(data))
	}
	ti.Focus()
	m.input = ti
}

func (m *interactiveModel) checkInput() tea.Msg {
	c := m.cases[m.selected]
	input, err := parseHex(m.input.Value())
	if err != nil {
		return checkResultMsg{title: "Check " + c.Name, result: err.Error(), failed: true}
	}

	rep := m.runner.Check(c.ID, input)
	var b strings.Builder
	fmt.Fprintf(&b, "verdict %s\n", rep.Verdict)
	if rep.Err != nil {
		fmt.Fprintf(&b, "%v\n", rep.Err)
	}
	if rep.Diff != "" {
		b.WriteString(rep.Diff)
	}
	if rep.Output != nil {
		fmt.Fprintf(&b, "output %s", hex.EncodeToString(rep.Output))
	}
	return checkResultMsg{title: "Check " + c.Name, result: b.String(), failed: rep.Fatal()}
}

func (m *interactiveModel) checkGuest() tea.Msg {
	c := m.cases[m.selected]
	res, err := m.driver.Check(context.Background(), c.ID)
	if err != nil {
		return checkResultMsg{title: "Guest " + c.Name, result: err.Error(), failed: true}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "verdict %s, identical %t\n", res.Report.Verdict, res.Identical)
	if res.Report.Err != nil {
		fmt.Fprintf(&b, "%v\n", res.Report.Err)
	}
	fmt.Fprintf(&b, "want %s\nhave %s", hex.EncodeToString(res.Expected), hex.EncodeToString(res.Output))
	return checkResultMsg{title: "Guest " + c.Name, result: b.String(), failed: !res.Passed()}
}

func (m *interactiveModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Borsh Roundtrip"))
	if m.wasmFile != "" {
		b.WriteString(" ")
		b.WriteString(m.wasmFile)
		if m.driver == nil {
			b.WriteString(helpStyle.Render(" (loading)"))
		}
	}
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectCase:
		b.WriteString("Select a test case:\n\n")
		for i, c := range m.cases {
			line := caseLabel(c) + "  " + c.Shape.String()
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + funcStyle.Render(caseLabel(c)) + "  " + typeStyle.Render(c.Shape.String()))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter open • q quit"))

	case stateShowCase:
		c := m.cases[m.selected]
		fmt.Fprintf(&b, "%s\n\n", funcStyle.Render(caseLabel(c)))
		b.WriteString(typeStyle.Render(c.Shape.Definition()))
		b.WriteString("\n")
		fmt.Fprintf(&b, "value    %+v\n", c.Value)
		if data, err := m.runner.Expected(c.ID); err != nil {
			b.WriteString(errorStyle.Render(err.Error()))
		} else {
			fmt.Fprintf(&b, "encoded  %s", resultStyle.Render(hex.EncodeToString(data)))
		}
		b.WriteString("\n\n")
		help := "c check hex • esc back • q quit"
		if m.driver != nil {
			help = "c check hex • g run guest • esc back • q quit"
		}
		b.WriteString(helpStyle.Render(help))

	case stateInputHex:
		fmt.Fprintf(&b, "Check against %s\n\n", funcStyle.Render(m.cases[m.selected].Name))
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter check • esc back"))

	case stateShowResult:
		fmt.Fprintf(&b, "%s:\n\n", funcStyle.Render(m.title))
		if m.failed {
			b.WriteString(errorStyle.Render(m.result))
		} else {
			b.WriteString(resultStyle.Render(m.result))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	return b.String()
}

func runInteractive(wasmFile string) error {
	p := tea.NewProgram(newInteractiveModel(wasmFile), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
