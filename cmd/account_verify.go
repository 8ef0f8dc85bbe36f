package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type verifyDoneMsg struct {
	err error
}

type verifySpinnerModel struct {
	spinner spinner.Model
	label   string
	verify  tea.Cmd
	err     error
	done    bool
}

func newVerifySpinnerModel(label string, verify tea.Cmd) verifySpinnerModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("202"))),
	)

	return verifySpinnerModel{
		spinner: s,
		label:   label,
		verify:  verify,
	}
}

func (m verifySpinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.verify)
}

func (m verifySpinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case verifyDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m verifySpinnerModel) View() string {
	if m.done {
		return ""
	}

	return fmt.Sprintf("%s %s", m.spinner.View(), m.label)
}

// runVerifySpinner shows a spinner on output while verify runs and returns
// verify's error.
func runVerifySpinner(ctx context.Context, output io.Writer, label string, verify func(context.Context) error) error {
	verifyCmd := func() tea.Msg {
		return verifyDoneMsg{err: verify(ctx)}
	}

	p := tea.NewProgram(
		newVerifySpinnerModel(label, verifyCmd),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	result, ok := finalModel.(verifySpinnerModel)
	if !ok {
		return fmt.Errorf("unexpected final spinner model type %T", finalModel)
	}

	return result.err
}
