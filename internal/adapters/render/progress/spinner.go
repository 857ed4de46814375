package progress

import (
	"context"
	"fmt"
	"io"

	"github.com/bnema/hfmctl/internal/domain"
	"github.com/bnema/hfmctl/internal/ports"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type waitDoneMsg struct {
	err error
}

type progressMsg struct {
	progress domain.TaskProgress
}

type spinnerModel struct {
	spinner spinner.Model
	label   string
	latest  string
	wait    tea.Cmd
	styles  styles
	opts    RenderOptions
	err     error
	done    bool
}

func newSpinnerModel(label string, wait tea.Cmd, opts RenderOptions) spinnerModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)

	return spinnerModel{spinner: s, label: label, wait: wait, styles: newStyles(), opts: opts}
}

func (m spinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.wait)
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case progressMsg:
		m.latest = renderProgress(msg.progress, m.opts, m.styles)
		return m, nil
	case waitDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m spinnerModel) View() string {
	if m.done {
		return ""
	}
	if m.latest != "" {
		return fmt.Sprintf("%s %s\n  %s", m.spinner.View(), m.label, m.latest)
	}
	return fmt.Sprintf("%s %s", m.spinner.View(), m.label)
}

// RunSpinner shows a spinner on output while wait runs. Progress reported
// by wait replaces the line under the spinner. The program ends when wait
// returns, so wait must honour ctx.
func RunSpinner(ctx context.Context, output io.Writer, label string, opts RenderOptions, wait func(context.Context, ports.ProgressReporter) error) error {
	var p *tea.Program
	reporter := ports.ProgressReporterFunc(func(_ context.Context, progress domain.TaskProgress) {
		p.Send(progressMsg{progress: progress})
	})
	waitCmd := func() tea.Msg {
		return waitDoneMsg{err: wait(ctx, reporter)}
	}

	p = tea.NewProgram(
		newSpinnerModel(label, waitCmd, opts),
		tea.WithInput(nil),
		tea.WithOutput(output),
	)

	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	result, ok := finalModel.(spinnerModel)
	if !ok {
		return fmt.Errorf("unexpected final spinner model type %T", finalModel)
	}

	return result.err
}
