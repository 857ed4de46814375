package progress

import (
	"fmt"
	"strings"

	"github.com/bnema/hfmctl/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

const historyTimeLayout = "2006-01-02 15:04:05"

// RenderHistory formats past runs, one block per run, in the order given.
func RenderHistory(records []domain.RunRecord) string {
	s := newStyles()
	if len(records) == 0 {
		return s.faint.Render("no recorded runs")
	}

	blocks := make([]string, 0, len(records))
	for _, record := range records {
		blocks = append(blocks, renderRecord(record, s))
	}
	return strings.Join(blocks, "\n\n")
}

func renderRecord(record domain.RunRecord, s styles) string {
	header := lipgloss.JoinHorizontal(lipgloss.Top,
		s.title.Render(string(record.Operation)),
		" ",
		statusBadge(record.Status, s),
		" ",
		s.faint.Render(record.StartedAt.Local().Format(historyTimeLayout)),
	)

	lines := []string{
		header,
		detailLine("run", record.ID, s),
		detailLine("application", valueOr(record.Application, "n/a"), s),
		detailLine("tasks", taskList(record.TaskIDs), s),
		detailLine("elapsed", formatElapsed(record.Elapsed), s),
		detailLine("exit", fmt.Sprintf("%d", record.ExitCode), s),
	}
	if record.Message != "" {
		lines = append(lines, detailLine("message", record.Message, s))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
