package progress

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title      lipgloss.Style
	ok         lipgloss.Style
	failed     lipgloss.Style
	errored    lipgloss.Style
	detailKey  lipgloss.Style
	detail     lipgloss.Style
	message    lipgloss.Style
	taskKey    lipgloss.Style
	status     lipgloss.Style
	barBracket lipgloss.Style
	barFill    lipgloss.Style
	barEmpty   lipgloss.Style
	faint      lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:      lipgloss.NewStyle().Bold(true),
		ok:         lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		failed:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		errored:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
		detailKey:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		detail:     lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		message:    lipgloss.NewStyle().MarginTop(1),
		taskKey:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		status:     lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		barBracket: lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		barFill:    lipgloss.NewStyle().Foreground(lipgloss.Color("159")),
		barEmpty:   lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
		faint:      lipgloss.NewStyle().Faint(true),
	}
}
