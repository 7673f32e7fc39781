package browse

import "github.com/charmbracelet/lipgloss"

var (
	categoryColor = lipgloss.Color("#4682B4") // Steel blue
	methodColor   = lipgloss.Color("#4682B4")
	propertyColor = lipgloss.Color("#228B22") // Forest green
	failColor     = lipgloss.Color("#CC3333") // Dark red
	mutedColor    = lipgloss.Color("#888888")
	borderColor   = lipgloss.Color("#666666")
)

var (
	categoryStyle = lipgloss.NewStyle().Foreground(categoryColor).Bold(true)
	methodStyle   = lipgloss.NewStyle().Foreground(methodColor)
	propertyStyle = lipgloss.NewStyle().Foreground(propertyColor)
	errorStyle    = lipgloss.NewStyle().Foreground(failColor).Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(mutedColor)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(categoryColor).
			Bold(true)

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#444444"))

	notificationStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(categoryColor).
				Padding(0, 2).
				Bold(true)
)
