// Package interaction turns pointer and touch input on the schedule grid into
// schedule commands.
package interaction

import (
	"errors"
	"fmt"
	"sync"

	"clinicgrid/internal/grid"
	"clinicgrid/internal/model"
)

// DragState is the state of the drag-and-drop tracker.
type DragState string

const (
	DragIdle     DragState = "idle"
	DragDragging DragState = "dragging"
	DragHovering DragState = "hovering"
	DragDropped  DragState = "dropped"
)

var (
	ErrDragInProgress  = errors.New("a drag is already in progress")
	ErrNotDragging     = errors.New("no drag in progress")
	ErrNoDropTarget    = errors.New("drop outside of a valid target")
	ErrTouchViewport   = errors.New("drag and drop is disabled on touch viewports")
	ErrCrossesMidnight = errors.New("moved visit would end after midnight")
)

var dragTransitions = map[DragState][]DragState{
	DragIdle:     {DragDragging},
	DragDragging: {DragHovering, DragIdle},
	DragHovering: {DragHovering, DragDragging, DragDropped, DragIdle},
	DragDropped:  {DragIdle},
}

func canTransition(from, to DragState) bool {
	for _, s := range dragTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Board is what the tracker knows about the grid being dragged over: its
// geometry and the visible, already-filtered days in column order.
type Board struct {
	Geometry grid.Geometry
	Days     []grid.Day
}

// Target is a resolved hover cell.
type Target struct {
	Cell      grid.Cell `json:"cell"`
	Date      string    `json:"date"`
	CabinetID int64     `json:"cabinet_id"`
}

// Resolve maps a grid cell to a date and cabinet.
func (b Board) Resolve(cell grid.Cell) (Target, bool) {
	if cell.DayIndex < 0 || cell.DayIndex >= len(b.Days) {
		return Target{}, false
	}
	cabinets := b.Days[cell.DayIndex].Data.Cabinets
	if cell.CabinetIndex < 0 || cell.CabinetIndex >= len(cabinets) {
		return Target{}, false
	}
	return Target{
		Cell:      cell,
		Date:      b.Days[cell.DayIndex].Date,
		CabinetID: cabinets[cell.CabinetIndex].ID,
	}, true
}

// ResolveAt maps a grid-relative pixel to a target.
func (b Board) ResolveAt(x, y float64) (Target, bool) {
	cell, ok := b.Geometry.CellAt(x, y)
	if !ok {
		return Target{}, false
	}
	return b.Resolve(cell)
}

// MoveCommand is emitted on a successful drop.
type MoveCommand struct {
	VisitID       string `json:"visit_id"`
	FromDate      string `json:"from_date"`
	FromCabinetID int64  `json:"from_cabinet_id"`
	ToDate        string `json:"to_date"`
	ToCabinetID   int64  `json:"to_cabinet_id"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
}

// DragTracker follows a single mouse drag of a visit card.
type DragTracker struct {
	mu     sync.Mutex
	board  Board
	touch  bool
	state  DragState
	visit  model.Visit
	target *Target
}

// NewDragTracker creates a tracker. Touch viewports never start drags; they
// use the long-press context menu instead.
func NewDragTracker(board Board, touch bool) *DragTracker {
	return &DragTracker{board: board, touch: touch, state: DragIdle}
}

// SetBoard replaces the grid description, e.g. after the store refetched.
func (t *DragTracker) SetBoard(board Board) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.board = board
}

// State returns the current state.
func (t *DragTracker) State() DragState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Dragged returns the visit being dragged and whether a drag is active.
func (t *DragTracker) Dragged() (model.Visit, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.visit, t.state == DragDragging || t.state == DragHovering
}

// Target returns the current hover target, if any.
func (t *DragTracker) Target() (Target, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.target == nil {
		return Target{}, false
	}
	return *t.target, true
}

// Start begins dragging visit (pointer-down on a visit card).
func (t *DragTracker) Start(visit model.Visit) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.touch {
		return ErrTouchViewport
	}
	if t.state != DragIdle {
		return ErrDragInProgress
	}
	if _, err := visit.Duration(); err != nil {
		return fmt.Errorf("visit %s: %w", visit.ID, err)
	}

	t.visit = visit
	t.target = nil
	t.state = DragDragging
	return nil
}

// Move updates the hover cell from a grid-relative pointer position and
// reports whether the pointer is over a valid target.
func (t *DragTracker) Move(x, y float64) (Target, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != DragDragging && t.state != DragHovering {
		return Target{}, false
	}

	target, ok := t.board.ResolveAt(x, y)
	if !ok {
		t.target = nil
		t.setState(DragDragging)
		return Target{}, false
	}
	t.target = &target
	t.setState(DragHovering)
	return target, true
}

// Leave cancels the drag when the pointer leaves the tracked element.
func (t *DragTracker) Leave() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reset()
}

// Cancel aborts any drag.
func (t *DragTracker) Cancel() {
	t.Leave()
}

// Drop finishes the drag over the current target. The visit keeps its
// duration; its start is anchored to the target slot and its cabinet is
// replaced by the target's. The tracker is idle afterwards in every case.
func (t *DragTracker) Drop() (MoveCommand, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	defer t.reset()

	switch t.state {
	case DragIdle, DragDropped:
		return MoveCommand{}, ErrNotDragging
	case DragDragging:
		return MoveCommand{}, ErrNoDropTarget
	}
	t.setState(DragDropped)

	cmd, err := PlanMove(t.visit, *t.target)
	if err != nil {
		return MoveCommand{}, err
	}
	return cmd, nil
}

// PlanMove computes the move of visit onto target, preserving duration.
func PlanMove(visit model.Visit, target Target) (MoveCommand, error) {
	duration, err := visit.Duration()
	if err != nil {
		return MoveCommand{}, err
	}
	start, err := model.ParseClock(target.Cell.Time)
	if err != nil {
		return MoveCommand{}, err
	}
	end := start + duration
	if end > model.MinutesPerDay {
		return MoveCommand{}, ErrCrossesMidnight
	}

	return MoveCommand{
		VisitID:       visit.ID,
		FromDate:      visit.Date,
		FromCabinetID: visit.CabinetID,
		ToDate:        target.Date,
		ToCabinetID:   target.CabinetID,
		StartTime:     model.FormatClock(start),
		EndTime:       model.FormatClock(end),
	}, nil
}

func (t *DragTracker) setState(to DragState) {
	if t.state == to || canTransition(t.state, to) {
		t.state = to
	}
}

func (t *DragTracker) reset() {
	t.state = DragIdle
	t.visit = model.Visit{}
	t.target = nil
}
