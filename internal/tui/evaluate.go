// internal/tui/evaluate.go
// Package tui renders the live progress view for evaluation runs.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mwiater/foodbench/eval"
	"github.com/mwiater/foodbench/internal/inference"
	"github.com/mwiater/foodbench/internal/util"
)

// RunSetup describes the evaluation shown in the header badges.
type RunSetup struct {
	Model   string
	Dataset string
	Profile string
	Total   int
}

// EvaluateFunc runs the evaluation and reports per-sample progress through
// onProgress. It executes on its own goroutine; progress callbacks are
// forwarded into the program as messages.
type EvaluateFunc func(ctx context.Context, onProgress func(inference.ProgressEvent)) (*eval.EvaluationReport, error)

// progressMsg carries one runner progress event into the UI.
type progressMsg inference.ProgressEvent

// evaluateDoneMsg is sent when the evaluation finished successfully.
type evaluateDoneMsg struct{ report *eval.EvaluationReport }

// evaluateErrMsg is sent when the evaluation failed.
type evaluateErrMsg struct{ error }

// tickMsg drives the elapsed-time display.
type tickMsg time.Time

// evaluateModel is the Bubble Tea model behind the progress view.
type evaluateModel struct {
	setup    RunSetup
	cancel   context.CancelFunc
	spinner  spinner.Model
	bar      progress.Model
	event    inference.ProgressEvent
	report   *eval.EvaluationReport
	err      error
	start    time.Time
	width    int
	height   int
	finished bool
}

// newEvaluateModel creates the progress view model with default styling.
func newEvaluateModel(setup RunSetup, cancel context.CancelFunc) *evaluateModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return &evaluateModel{
		setup:   setup,
		cancel:  cancel,
		spinner: s,
		bar:     progress.New(progress.WithDefaultGradient()),
		start:   time.Now(),
	}
}

// tickCmd creates a Bubble Tea command that sends a tickMsg at a regular interval.
func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*100, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init starts the spinner animation and the elapsed-time ticker.
func (m *evaluateModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

// Update is the central update function for the progress view.
func (m *evaluateModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.cancel()
			if m.err == nil && !m.finished {
				m.err = context.Canceled
			}
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		barWidth := msg.Width - 6
		if barWidth > 72 {
			barWidth = 72
		}
		if barWidth < 10 {
			barWidth = 10
		}
		m.bar.Width = barWidth
		return m, nil

	case progressMsg:
		m.event = inference.ProgressEvent(msg)
		return m, nil

	case evaluateDoneMsg:
		m.finished = true
		m.report = msg.report
		return m, tea.Quit

	case evaluateErrMsg:
		m.finished = true
		m.err = msg.error
		return m, tea.Quit

	case tickMsg:
		if m.finished {
			return m, nil
		}
		return m, tickCmd()
	}

	if m.finished {
		return m, nil
	}
	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

// View renders the progress view based on the current state of the model.
func (m *evaluateModel) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	if m.err != nil {
		errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Padding(1)
		return errorStyle.Render(util.WrapToWidth(fmt.Sprintf("Evaluation failed: %v", m.err), m.width-4))
	}

	var builder strings.Builder

	labelStyle := lipgloss.NewStyle().Background(lipgloss.Color("0")).Foreground(lipgloss.Color("255")).Padding(0, 1)
	headerStyle := lipgloss.NewStyle().Background(lipgloss.Color("62")).Foreground(lipgloss.Color("230")).Padding(0, 1).MarginLeft(1)

	header := lipgloss.JoinHorizontal(lipgloss.Top,
		labelStyle.Render("Evaluate:"),
		headerStyle.Render(fmt.Sprintf("Model: %s", m.setup.Model)),
		headerStyle.Render(fmt.Sprintf("Dataset: %s", m.setup.Dataset)),
	)
	if m.setup.Profile != "" {
		header = lipgloss.JoinHorizontal(lipgloss.Top, header, renderProfileBadge(m.setup.Profile))
	}
	help := lipgloss.NewStyle().Render(" (q to abort)")
	builder.WriteString(header + help + "\n\n")

	percent := 0.0
	if m.setup.Total > 0 {
		percent = float64(m.event.Done) / float64(m.setup.Total)
	}
	timer := fmt.Sprintf("%.1f", time.Since(m.start).Seconds())
	builder.WriteString(fmt.Sprintf("  %s Classifying images... %d/%d %ss\n\n", m.spinner.View(), m.event.Done, m.setup.Total, timer))
	builder.WriteString("  " + m.bar.ViewAs(percent) + "\n\n")

	if m.event.Done > 0 {
		accuracy := float64(m.event.Correct) / float64(m.event.Done) * 100
		builder.WriteString(fmt.Sprintf("  Running accuracy: %.1f%% (%d/%d correct)\n", accuracy, m.event.Correct, m.event.Done))

		sampleStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
		sample := util.TruncatePathTail(m.event.Sample, m.width-len(m.event.Predicted)-8)
		builder.WriteString(sampleStyle.Render(fmt.Sprintf("  %s -> %s", sample, m.event.Predicted)) + "\n")
	}

	return builder.String()
}

// renderProfileBadge returns a Lipgloss-styled badge string for the active
// evaluation profile.
func renderProfileBadge(profile string) string {
	badgeStyle := lipgloss.NewStyle().Background(lipgloss.Color("229")).Foreground(lipgloss.Color("0")).Padding(0, 1).MarginLeft(1)
	return badgeStyle.Render(fmt.Sprintf("Profile: %s", profile))
}

// StartEvaluation runs the evaluation under a live progress view and returns
// the finished report. Quitting the view cancels the run.
func StartEvaluation(ctx context.Context, setup RunSetup, run EvaluateFunc) (*eval.EvaluationReport, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := newEvaluateModel(setup, cancel)
	p := tea.NewProgram(m, tea.WithAltScreen())

	go func() {
		report, err := run(runCtx, func(event inference.ProgressEvent) {
			p.Send(progressMsg(event))
		})
		if err != nil {
			p.Send(evaluateErrMsg{error: err})
			return
		}
		p.Send(evaluateDoneMsg{report: report})
	}()

	final, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("run progress view: %w", err)
	}

	finished, ok := final.(*evaluateModel)
	if !ok {
		return nil, fmt.Errorf("unexpected final model %T", final)
	}
	if finished.err != nil {
		return nil, finished.err
	}
	if finished.report == nil {
		return nil, context.Canceled
	}
	return finished.report, nil
}
