package interaction

import (
	"sync"

	"clinicgrid/internal/grid"
)

// MenuAction is an entry of the visit context menu.
type MenuAction string

const (
	ActionEdit         MenuAction = "edit"
	ActionChangeStatus MenuAction = "change_status"
	ActionMove         MenuAction = "move"
	ActionDelete       MenuAction = "delete"
	ActionBook         MenuAction = "book"
	ActionReserve      MenuAction = "reserve"
)

// MenuState describes an open context menu.
type MenuState struct {
	Open     bool         `json:"open"`
	Position grid.Point   `json:"position"`
	Target   *Target      `json:"target,omitempty"`
	VisitID  string       `json:"visit_id,omitempty"`
	Actions  []MenuAction `json:"actions,omitempty"`
}

// ContextMenu is the single floating menu of the grid. It is opened by a
// right click on desktop or a long-press on touch viewports.
type ContextMenu struct {
	mu       sync.Mutex
	viewport grid.Size
	size     grid.Size
	state    MenuState
}

// NewContextMenu creates a closed menu.
func NewContextMenu(viewport, size grid.Size) *ContextMenu {
	if size.Width <= 0 || size.Height <= 0 {
		size = grid.DefaultMenuSize
	}
	return &ContextMenu{viewport: viewport, size: size}
}

// Resize updates the viewport bounds used for clamping.
func (m *ContextMenu) Resize(viewport grid.Size) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.viewport = viewport
}

// OpenForVisit opens the visit menu at anchor.
func (m *ContextMenu) OpenForVisit(anchor grid.Point, visitID string) MenuState {
	return m.open(anchor, MenuState{
		VisitID: visitID,
		Actions: []MenuAction{ActionEdit, ActionChangeStatus, ActionMove, ActionDelete},
	})
}

// OpenForCell opens the empty-cell menu at anchor.
func (m *ContextMenu) OpenForCell(anchor grid.Point, target Target) MenuState {
	return m.open(anchor, MenuState{
		Target:  &target,
		Actions: []MenuAction{ActionBook, ActionReserve},
	})
}

// Close hides the menu.
func (m *ContextMenu) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = MenuState{}
}

// State returns the current menu.
func (m *ContextMenu) State() MenuState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *ContextMenu) open(anchor grid.Point, st MenuState) MenuState {
	m.mu.Lock()
	defer m.mu.Unlock()
	st.Open = true
	st.Position = grid.ClampMenu(anchor, m.size, m.viewport)
	m.state = st
	return st
}
