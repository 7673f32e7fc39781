package browse

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mberetvas/comspect/internal/com"
	"github.com/mberetvas/comspect/internal/export"
)

func (m *Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var body string
	if m.currentView == SummaryView {
		body = m.renderSummary()
	} else {
		left := m.renderTree()
		right := m.renderDetails()
		body = lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	}

	view := lipgloss.JoinVertical(lipgloss.Left, body, m.renderStatusBar())

	if len(m.notifications) > 0 {
		popup := notificationStyle.Render(m.notifications[0].message)
		view = overlayCenter(view, popup, m.width)
	}
	return view
}

func (m *Model) renderTree() string {
	items := m.viewItems()
	paneWidth := m.width/2 - 2
	paneHeight := m.height - 4

	title := "Components"
	if m.filter != "" {
		title = fmt.Sprintf("Components (filter: %q)", m.filter)
	}

	var lines []string
	start := scrollWindow(m.cursor, len(items), paneHeight)
	for i := start; i < len(items) && len(lines) < paneHeight; i++ {
		item := items[i]
		plain := truncate(stripForSelection(item), paneWidth)
		var line string
		switch {
		case i == m.cursor:
			line = selectedStyle.Render(plain)
		case item.isObject:
			line = plain
		default:
			line = categoryStyle.Render(plain)
		}
		lines = append(lines, line)
	}
	if len(items) == 0 {
		lines = append(lines, mutedStyle.Render("no components match"))
	}

	content := titleStyle.Render(title) + "\n" + strings.Join(lines, "\n")
	return paneStyle.Width(paneWidth).Height(paneHeight + 1).Render(content)
}

func stripForSelection(item treeItem) string {
	if item.isObject {
		return "  " + item.identity.ProgID + " " + item.identity.BracedClassID()
	}
	icon := "▶"
	if item.expanded {
		icon = "▼"
	}
	return fmt.Sprintf("%s %s (%d)", icon, item.category, item.count)
}

func (m *Model) renderDetails() string {
	paneWidth := m.width - m.width/2 - 2
	paneHeight := m.height - 4

	var content string
	switch {
	case m.mode == Inspecting && m.inspectErr != "":
		content = titleStyle.Render("Error inspecting "+m.inspecting.ProgID) + "\n\n" +
			errorStyle.Render(m.inspectErr)
	case m.mode == Inspecting && m.pending:
		content = titleStyle.Render(m.inspecting.ProgID) + "\n\n" + mutedStyle.Render("Inspecting...")
	case m.mode == Inspecting && m.surface != nil:
		content = m.renderSurface(paneWidth, paneHeight)
	default:
		content = m.renderSelection()
	}

	return paneStyle.Width(paneWidth).Height(paneHeight + 1).Render(content)
}

func (m *Model) renderSurface(paneWidth, paneHeight int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.surface.Name))
	b.WriteString(mutedStyle.Render(fmt.Sprintf("  [%s]", m.surfacePath)))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(m.inspecting.BracedClassID()))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("copy: 'c' member, 'C' surface"))
	b.WriteString("\n\n")

	listHeight := paneHeight - 5
	start := scrollWindow(m.memberCursor, len(m.surface.Members), listHeight)
	for i := start; i < len(m.surface.Members) && i < start+listHeight; i++ {
		member := m.surface.Members[i]
		plain := truncate(export.MemberLine(member), paneWidth-2)
		line := "  " + memberStyle(member).Render(plain)
		if i == m.memberCursor {
			line = selectedStyle.Render("> " + plain)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	if len(m.surface.Members) == 0 {
		b.WriteString(mutedStyle.Render("no members"))
	}
	return b.String()
}

func memberStyle(member com.MemberDescriptor) lipgloss.Style {
	switch member.Kind {
	case com.MemberMethod:
		return methodStyle
	case com.MemberProperty:
		return propertyStyle
	default:
		return mutedStyle
	}
}

func (m *Model) renderSelection() string {
	items := m.viewItems()
	if m.cursor >= len(items) {
		return mutedStyle.Render("No selection")
	}
	item := items[m.cursor]
	if !item.isObject {
		return titleStyle.Render("Category: "+item.category) + "\n\n" +
			fmt.Sprintf("Contains %d components\n\n", item.count) +
			mutedStyle.Render("Press <enter> to expand/collapse.")
	}
	identity := item.identity
	return titleStyle.Render("ProgID: ") + identity.ProgID + "\n\n" +
		titleStyle.Render("ClassID: ") + identity.BracedClassID() + "\n\n" +
		titleStyle.Render("Description: ") + identity.Description + "\n\n" +
		mutedStyle.Render("Press <enter> to inspect.")
}

func (m *Model) renderStatusBar() string {
	mode := "BROWSING"
	if m.mode == Inspecting {
		mode = "INSPECTING"
	}
	filter := ""
	if m.filter != "" {
		filter = fmt.Sprintf(" | filter: %q", m.filter)
	}
	text := fmt.Sprintf(" %s%s | <enter> expand/inspect | <esc> back | <tab> summary | <ctrl+c> quit ", mode, filter)
	return statusStyle.Width(m.width).Render(truncate(text, m.width))
}

func overlayCenter(base, popup string, width int) string {
	// bubbletea has no real z-layering; append the popup centered under
	// the view, which is where the eye lands on a short screen
	centered := lipgloss.PlaceHorizontal(width, lipgloss.Center, popup)
	return base + "\n" + centered
}

func scrollWindow(cursor, total, visible int) int {
	if visible <= 0 || total <= visible {
		return 0
	}
	start := cursor - visible/2
	if start < 0 {
		start = 0
	}
	if start > total-visible {
		start = total - visible
	}
	return start
}

func truncate(s string, width int) string {
	if width <= 3 || len(s) <= width {
		return s
	}
	return s[:width-3] + "..."
}
