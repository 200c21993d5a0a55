package interaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinicgrid/internal/grid"
)

func TestContextMenu_VisitAndCellActions(t *testing.T) {
	m := NewContextMenu(grid.Size{Width: 1024, Height: 768}, grid.Size{})

	st := m.OpenForVisit(grid.Point{X: 100, Y: 100}, "v1")
	assert.True(t, st.Open)
	assert.Equal(t, "v1", st.VisitID)
	assert.Contains(t, st.Actions, ActionMove)
	assert.Nil(t, st.Target)

	target := Target{Cell: grid.Cell{Time: "10:00"}, Date: "2026-03-02", CabinetID: 2}
	st = m.OpenForCell(grid.Point{X: 200, Y: 200}, target)
	require.NotNil(t, st.Target)
	assert.Equal(t, target, *st.Target)
	assert.Equal(t, []MenuAction{ActionBook, ActionReserve}, st.Actions)
	assert.Empty(t, st.VisitID)

	m.Close()
	assert.False(t, m.State().Open)
}

func TestContextMenu_ResizeReclamps(t *testing.T) {
	m := NewContextMenu(grid.Size{Width: 1024, Height: 768}, grid.Size{Width: 200, Height: 100})
	m.Resize(grid.Size{Width: 300, Height: 300})

	st := m.OpenForVisit(grid.Point{X: 290, Y: 290}, "v1")
	assert.LessOrEqual(t, st.Position.X+200, 300.0)
	assert.LessOrEqual(t, st.Position.Y+100, 300.0)
}
