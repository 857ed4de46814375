package progress

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/bnema/hfmctl/internal/application"
	"github.com/bnema/hfmctl/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

const defaultBarWidth = 24

type RenderOptions struct {
	BarWidth int
}

func (o RenderOptions) barWidth() int {
	if o.BarWidth <= 0 {
		return defaultBarWidth
	}
	return o.BarWidth
}

func renderResult(result application.InvocationResult, s styles) string {
	lines := []string{
		lipgloss.JoinHorizontal(lipgloss.Top,
			s.title.Render(string(result.Operation)),
			" ",
			statusBadge(result.Status, s),
		),
		detailLine("application", valueOr(result.Application, "n/a"), s),
		detailLine("tasks", taskList(result.TaskIDs), s),
		detailLine("elapsed", formatElapsed(result.Elapsed), s),
	}
	if result.Binding != "" {
		lines = append(lines, detailLine("binding", result.Binding, s))
	}
	if result.RunID != "" {
		lines = append(lines, detailLine("run", result.RunID, s))
	}
	if result.Message != "" {
		lines = append(lines, s.message.Render(result.Message))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderProgress(p domain.TaskProgress, opts RenderOptions, s styles) string {
	percent := float64(p.Percent)
	percentStyle := lipgloss.NewStyle().Foreground(interpolateColor(percent, 0, 100))

	parts := []string{
		s.taskKey.Render(fmt.Sprintf("task %d", p.ID)),
		" ",
		renderProgressBar(percent, opts.barWidth(), s),
		" ",
		percentStyle.Render(fmt.Sprintf("%3.0f%%", clampPercent(percent))),
		" ",
		statusStyle(p.Status, s).Render(string(p.Status)),
	}
	if p.Description != "" {
		parts = append(parts, " ", s.faint.Render(p.Description))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func statusBadge(status domain.RunStatus, s styles) string {
	switch status {
	case domain.RunOK:
		return s.ok.Render("OK")
	case domain.RunFailed:
		return s.failed.Render("FAILED")
	default:
		return s.errored.Render("ERROR")
	}
}

func statusStyle(status domain.TaskStatus, s styles) lipgloss.Style {
	switch status {
	case domain.TaskCompleted:
		return s.ok
	case domain.TaskAborted, domain.TaskStopped:
		return s.failed
	default:
		return s.status
	}
}

func detailLine(key string, value string, s styles) string {
	return s.detailKey.Render(key+":") + " " + s.detail.Render(value)
}

func taskList(ids []int) string {
	if len(ids) == 0 {
		return "none"
	}
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf("%d", id))
	}
	return strings.Join(parts, ", ")
}

func formatElapsed(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Round(100 * time.Millisecond).String()
}

func valueOr(value string, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func renderProgressBar(percent float64, width int, s styles) string {
	if width <= 0 {
		return ""
	}

	done := clampPercent(percent) / 100.0
	filled := int(math.Round(float64(width) * done))
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		s.barFill.Render(strings.Repeat("=", filled)),
		s.barEmpty.Render(strings.Repeat("-", width-filled)),
		s.barBracket.Render("]"),
	)
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// interpolateColor walks the ANSI greyscale ramp from 240 at min to 255 at
// max.
func interpolateColor(value, min, max float64) lipgloss.Color {
	if max == min {
		return lipgloss.Color("255")
	}

	normalized := (value - min) / (max - min)
	if normalized < 0 {
		normalized = 0
	}
	if normalized > 1 {
		normalized = 1
	}

	return lipgloss.Color(fmt.Sprintf("%d", int(240.0+15.0*normalized)))
}
