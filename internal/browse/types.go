package browse

import (
	"time"

	"github.com/charmbracelet/bubbles/key"

	"github.com/mberetvas/comspect/internal/com"
	"github.com/mberetvas/comspect/internal/inspect"
)

type ViewType int

const (
	ComponentsView ViewType = iota
	SummaryView
)

type Mode int

const (
	Browsing Mode = iota
	Inspecting
)

// treeItem is one row of the component tree: either a collapsible category
// header or a component entry.
type treeItem struct {
	category string // set for category rows
	count    int
	expanded bool
	identity com.ComponentIdentity // set for component rows
	isObject bool
}

type notification struct {
	message  string
	duration time.Duration
}

// Model is the interactive browser state. It only consumes core output
// types: every registry/runtime call happens inside the scheduler's
// workers, never on the UI goroutine.
type Model struct {
	identities []com.ComponentIdentity
	scheduler  *inspect.Scheduler
	dynamic    bool

	mode        Mode
	currentView ViewType
	filter      string
	expanded    map[string]bool
	cursor      int

	// inspecting state
	inspecting   com.ComponentIdentity
	surface      *com.InterfaceDescription
	surfacePath  com.ResolutionPath
	inspectErr   string
	memberCursor int
	pending      bool

	// session tally for the summary chart
	staticCount  int
	dynamicCount int
	failedCount  int

	notifications []notification

	width  int
	height int
	keys   KeyMap
}

type KeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Enter   key.Binding
	Escape  key.Binding
	View    key.Binding
	Copy    key.Binding
	CopyAll key.Binding
	Quit    key.Binding
}

func k(keys []string, help, desc string) key.Binding {
	return key.NewBinding(
		key.WithKeys(keys...),
		key.WithHelp(help, desc),
	)
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:      k([]string{"up"}, "↑", "up"),
		Down:    k([]string{"down"}, "↓", "down"),
		Enter:   k([]string{"enter"}, "enter", "expand/inspect"),
		Escape:  k([]string{"esc"}, "esc", "back"),
		View:    k([]string{"tab"}, "tab", "switch view"),
		Copy:    k([]string{"c"}, "c", "copy member"),
		CopyAll: k([]string{"C"}, "C", "copy surface"),
		Quit:    k([]string{"ctrl+c"}, "ctrl+c", "quit"),
	}
}
