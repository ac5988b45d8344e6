package cmd

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/jobtrack/internal"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Width(12)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Underline(true)

	noteHeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135")).
			Bold(true)

	noteContentStyle = lipgloss.NewStyle().
				Padding(0, 2).
				MarginBottom(1)
)

// statusColors maps each pipeline stage to a color
var statusColors = map[internal.ApplicationStatus]lipgloss.Color{
	internal.StatusApplied:      lipgloss.Color("39"),
	internal.StatusInterviewing: lipgloss.Color("214"),
	internal.StatusOffer:        lipgloss.Color("42"),
	internal.StatusAccepted:     lipgloss.Color("46"),
	internal.StatusRejected:     lipgloss.Color("196"),
	internal.StatusWithdrawn:    lipgloss.Color("243"),
}

func renderStatus(status internal.ApplicationStatus) string {
	color, ok := statusColors[status]
	if !ok {
		return string(status)
	}
	return lipgloss.NewStyle().Foreground(color).Bold(true).Render(string(status))
}
