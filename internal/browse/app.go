// Package browse is the interactive terminal browser over the discovered
// component index. It consumes identities and inspection results; all
// registry and runtime work stays on the scheduler's workers.
package browse

import (
	"fmt"
	"sort"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mberetvas/comspect/internal/catalog"
	"github.com/mberetvas/comspect/internal/com"
	"github.com/mberetvas/comspect/internal/export"
	"github.com/mberetvas/comspect/internal/inspect"
	"github.com/mberetvas/comspect/utils"
)

type inspectionMsg struct {
	result com.InspectionResult
}

type notificationExpiredMsg struct{}

func New(identities []com.ComponentIdentity, scheduler *inspect.Scheduler, allowDynamic bool) *Model {
	sorted := make([]com.ComponentIdentity, len(identities))
	copy(sorted, identities)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ProgID < sorted[j].ProgID })

	return &Model{
		identities: sorted,
		scheduler:  scheduler,
		dynamic:    allowDynamic,
		expanded:   make(map[string]bool),
		keys:       DefaultKeyMap(),
	}
}

// Run blocks until the user quits.
func Run(identities []com.ComponentIdentity, scheduler *inspect.Scheduler, allowDynamic bool) error {
	program := tea.NewProgram(New(identities, scheduler, allowDynamic), tea.WithAltScreen())
	_, err := program.Run()
	return err
}

func (m *Model) Init() tea.Cmd {
	return nil
}

// viewItems compiles the tree: filter, group, then flatten according to
// category expansion. An active filter force-expands every group.
func (m *Model) viewItems() []treeItem {
	filtered := catalog.Filter(m.identities, m.filter)

	var items []treeItem
	for _, group := range catalog.GroupByPrefix(filtered) {
		expanded := m.expanded[group.Name] || m.filter != ""
		items = append(items, treeItem{category: group.Name, count: len(group.Items), expanded: expanded})
		if expanded {
			for _, identity := range group.Items {
				items = append(items, treeItem{identity: identity, isObject: true})
			}
		}
	}
	return items
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case inspectionMsg:
		m.pending = false
		m.applyResult(msg.result)

	case notificationExpiredMsg:
		if len(m.notifications) > 0 {
			m.notifications = m.notifications[1:]
		}
		if len(m.notifications) > 0 {
			return m, tea.Tick(m.notifications[0].duration, func(time.Time) tea.Msg {
				return notificationExpiredMsg{}
			})
		}

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.View):
		utils.CycleEnumPtr(&m.currentView, 1, SummaryView)
		return m, nil

	case key.Matches(msg, m.keys.Escape):
		switch {
		case m.mode == Inspecting:
			m.exitInspection()
		case m.filter != "":
			m.filter = ""
			m.cursor = 0
		}
		return m, nil
	}

	if m.mode == Inspecting {
		return m.handleInspectingKey(msg)
	}
	return m.handleBrowsingKey(msg)
}

func (m *Model) handleBrowsingKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := m.viewItems()

	switch {
	case key.Matches(msg, m.keys.Up):
		m.cursor = wrap(m.cursor-1, len(items))
	case key.Matches(msg, m.keys.Down):
		m.cursor = wrap(m.cursor+1, len(items))
	case key.Matches(msg, m.keys.Enter):
		if m.cursor >= len(items) {
			return m, nil
		}
		item := items[m.cursor]
		if item.isObject {
			return m, m.startInspection(item.identity)
		}
		m.expanded[item.category] = !m.expanded[item.category]
	case msg.String() == "backspace":
		if m.filter != "" {
			m.filter = m.filter[:len(m.filter)-1]
			m.cursor = 0
		}
	default:
		if msg.Type == tea.KeyRunes {
			m.filter += string(msg.Runes)
			m.cursor = 0
		}
	}
	return m, nil
}

func (m *Model) handleInspectingKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	memberCount := 0
	if m.surface != nil {
		memberCount = len(m.surface.Members)
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		if memberCount > 0 {
			m.memberCursor = wrap(m.memberCursor-1, memberCount)
		}
	case key.Matches(msg, m.keys.Down):
		if memberCount > 0 {
			m.memberCursor = wrap(m.memberCursor+1, memberCount)
		}
	case key.Matches(msg, m.keys.Copy):
		m.copySelectedMember()
		return m, m.notifyCmd()
	case key.Matches(msg, m.keys.CopyAll):
		m.copySurface()
		return m, m.notifyCmd()
	}
	return m, nil
}

// startInspection hands one identity to the scheduler on a single worker
// and waits for its result off the UI goroutine.
func (m *Model) startInspection(identity com.ComponentIdentity) tea.Cmd {
	m.mode = Inspecting
	m.inspecting = identity
	m.surface = nil
	m.inspectErr = ""
	m.memberCursor = 0
	m.pending = true

	batch := m.scheduler.Run([]com.ComponentIdentity{identity}, inspect.Options{
		Workers:      1,
		AllowDynamic: m.dynamic,
	})
	return func() tea.Msg {
		return inspectionMsg{result: <-batch.Results}
	}
}

func (m *Model) applyResult(result com.InspectionResult) {
	switch result.Path {
	case com.PathStatic:
		m.staticCount++
	case com.PathDynamic:
		m.dynamicCount++
	default:
		m.failedCount++
	}

	if m.mode != Inspecting || result.Identity.ClassID != m.inspecting.ClassID {
		return
	}
	if result.Err != nil {
		m.inspectErr = result.Err.Error()
		return
	}
	m.surface = result.Surface
	m.surfacePath = result.Path
}

func (m *Model) exitInspection() {
	m.mode = Browsing
	m.surface = nil
	m.inspectErr = ""
	m.pending = false
	m.memberCursor = 0
}

func (m *Model) copySelectedMember() {
	if m.surface == nil || m.memberCursor >= len(m.surface.Members) {
		return
	}
	member := m.surface.Members[m.memberCursor]
	if err := clipboard.WriteAll(export.MemberLine(member)); err != nil {
		m.notify(fmt.Sprintf("Clipboard error: %v", err), 3*time.Second)
		return
	}
	m.notify("Copied selection!", 2*time.Second)
}

func (m *Model) copySurface() {
	if m.surface == nil {
		return
	}
	if err := clipboard.WriteAll(export.SurfaceText(m.inspecting, m.surface)); err != nil {
		m.notify(fmt.Sprintf("Clipboard error: %v", err), 3*time.Second)
		return
	}
	m.notify("Copied all members!", 2*time.Second)
}

func (m *Model) notify(message string, duration time.Duration) {
	m.notifications = append(m.notifications, notification{message: message, duration: duration})
}

// notifyCmd schedules expiry for the queue head when a notification was
// just pushed onto an empty queue.
func (m *Model) notifyCmd() tea.Cmd {
	if len(m.notifications) != 1 {
		return nil
	}
	return tea.Tick(m.notifications[0].duration, func(time.Time) tea.Msg {
		return notificationExpiredMsg{}
	})
}

func wrap(index, count int) int {
	if count == 0 {
		return 0
	}
	return ((index % count) + count) % count
}
