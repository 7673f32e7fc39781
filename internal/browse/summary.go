package browse

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"
)

// renderSummary shows the session tally of inspections by resolution path
// as a bar chart, plus index totals.
func (m *Model) renderSummary() string {
	width := m.width - 4
	height := m.height - 10
	if height < 4 {
		height = 4
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Session summary"))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Indexed components: %d\n", len(m.identities))
	fmt.Fprintf(&b, "Inspections: %d static, %d dynamic, %d failed\n\n",
		m.staticCount, m.dynamicCount, m.failedCount)

	total := m.staticCount + m.dynamicCount + m.failedCount
	if total == 0 {
		b.WriteString(mutedStyle.Render("Nothing inspected yet. Select a component and press <enter>."))
	} else {
		chart := barchart.New(width, height)
		chart.Push(barchart.BarData{
			Label: "static",
			Values: []barchart.BarValue{
				{Name: "static", Value: float64(m.staticCount), Style: lipgloss.NewStyle().Foreground(propertyColor)},
			},
		})
		chart.Push(barchart.BarData{
			Label: "dynamic",
			Values: []barchart.BarValue{
				{Name: "dynamic", Value: float64(m.dynamicCount), Style: lipgloss.NewStyle().Foreground(categoryColor)},
			},
		})
		chart.Push(barchart.BarData{
			Label: "failed",
			Values: []barchart.BarValue{
				{Name: "failed", Value: float64(m.failedCount), Style: lipgloss.NewStyle().Foreground(failColor)},
			},
		})
		chart.Draw()
		b.WriteString(chart.View())
	}

	return paneStyle.Width(m.width - 2).Height(m.height - 3).Render(b.String())
}
