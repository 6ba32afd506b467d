package tui

import (
	"errors"
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// ErrCancelled is returned by Spin when the user interrupts the work
// before it finishes.
var ErrCancelled = errors.New("cancelled")

var spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

type doneMsg struct {
	err error
}

type spinModel struct {
	spinner spinner.Model
	label   string
	work    func() error
	err     error
}

func newSpinModel(label string, work func() error) spinModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle
	return spinModel{spinner: s, label: label, work: work}
}

func (m spinModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		func() tea.Msg { return doneMsg{err: m.work()} },
	)
}

func (m spinModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case doneMsg:
		m.err = msg.err
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			// Raw mode swallows SIGINT, so this branch is the only
			// interrupt path while the spinner runs. The work closure
			// has not finished; callers must see an error, not nil.
			m.err = ErrCancelled
			return m, tea.Quit
		}
		return m, nil
	default:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
}

func (m spinModel) View() string {
	return m.spinner.View() + " " + m.label
}

// Spin runs work while showing a spinner with the given label. When
// stdout is not a terminal it skips the UI and just calls work.
func Spin(label string, work func() error) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return work()
	}

	final, err := tea.NewProgram(newSpinModel(label, work)).Run()
	if err != nil {
		return err
	}
	if m, ok := final.(spinModel); ok {
		return m.err
	}
	return nil
}
