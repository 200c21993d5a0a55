package interaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinicgrid/internal/grid"
	"clinicgrid/internal/model"
)

func testBoard() Board {
	g := grid.DefaultGeometry() // 120 px/hour, 60 px time column, 180 px columns
	g.CabinetsPerDay = 2
	g.DayCount = 2

	cabinets := []model.Cabinet{{ID: 1}, {ID: 3}}
	return Board{
		Geometry: g,
		Days: []grid.Day{
			{Date: "2026-01-15", Data: model.ScheduleData{Cabinets: cabinets}},
			{Date: "2026-01-16", Data: model.ScheduleData{Cabinets: cabinets}},
		},
	}
}

func testVisit() model.Visit {
	return model.Visit{
		ID:        "v1",
		Date:      "2026-01-15",
		StartTime: "10:00",
		EndTime:   "10:45",
		CabinetID: 1,
	}
}

func TestDragTracker_DropPreservesDuration(t *testing.T) {
	board := testBoard()
	tracker := NewDragTracker(board, false)

	require.NoError(t, tracker.Start(testVisit()))
	assert.Equal(t, DragDragging, tracker.State())

	// second day, second cabinet, 14:20 snaps to 14:15
	x := board.Geometry.ColumnOffset(1, 1) + 10
	y := float64(14*60+20) * 2
	target, ok := tracker.Move(x, y)
	require.True(t, ok)
	assert.Equal(t, DragHovering, tracker.State())
	assert.Equal(t, "2026-01-16", target.Date)
	assert.Equal(t, int64(3), target.CabinetID)

	cmd, err := tracker.Drop()
	require.NoError(t, err)
	assert.Equal(t, MoveCommand{
		VisitID:       "v1",
		FromDate:      "2026-01-15",
		FromCabinetID: 1,
		ToDate:        "2026-01-16",
		ToCabinetID:   3,
		StartTime:     "14:15",
		EndTime:       "15:00",
	}, cmd)
	assert.Equal(t, DragIdle, tracker.State())
}

func TestPlanMove_DurationPreservedForEveryCell(t *testing.T) {
	board := testBoard()
	visit := testVisit()
	want, err := visit.Duration()
	require.NoError(t, err)

	for _, row := range board.Geometry.Rows() {
		for day := 0; day < 2; day++ {
			for cab := 0; cab < 2; cab++ {
				target, ok := board.Resolve(grid.Cell{DayIndex: day, CabinetIndex: cab, Time: row})
				require.True(t, ok)

				cmd, err := PlanMove(visit, target)
				if err == ErrCrossesMidnight {
					continue
				}
				require.NoError(t, err)

				moved := model.Visit{StartTime: cmd.StartTime, EndTime: cmd.EndTime}
				got, err := moved.Duration()
				require.NoError(t, err)
				assert.Equal(t, want, got)
				assert.Equal(t, row, cmd.StartTime)
			}
		}
	}
}

func TestDragTracker_CrossesMidnight(t *testing.T) {
	tracker := NewDragTracker(testBoard(), false)
	require.NoError(t, tracker.Start(testVisit()))

	_, ok := tracker.Move(100, float64(23*60+30)*2)
	require.True(t, ok)

	_, err := tracker.Drop()
	assert.ErrorIs(t, err, ErrCrossesMidnight)
	assert.Equal(t, DragIdle, tracker.State())
}

func TestDragTracker_DropOutsideTarget(t *testing.T) {
	tracker := NewDragTracker(testBoard(), false)
	require.NoError(t, tracker.Start(testVisit()))

	_, ok := tracker.Move(100, 1000)
	require.True(t, ok)

	// back over the time column
	_, ok = tracker.Move(10, 1000)
	assert.False(t, ok)
	assert.Equal(t, DragDragging, tracker.State())

	_, err := tracker.Drop()
	assert.ErrorIs(t, err, ErrNoDropTarget)
	assert.Equal(t, DragIdle, tracker.State())
}

func TestDragTracker_LeaveCancels(t *testing.T) {
	tracker := NewDragTracker(testBoard(), false)
	require.NoError(t, tracker.Start(testVisit()))
	_, _ = tracker.Move(100, 1000)

	tracker.Leave()
	assert.Equal(t, DragIdle, tracker.State())
	_, active := tracker.Dragged()
	assert.False(t, active)

	_, err := tracker.Drop()
	assert.ErrorIs(t, err, ErrNotDragging)
}

func TestDragTracker_SingleDrag(t *testing.T) {
	tracker := NewDragTracker(testBoard(), false)
	require.NoError(t, tracker.Start(testVisit()))

	other := testVisit()
	other.ID = "v2"
	assert.ErrorIs(t, tracker.Start(other), ErrDragInProgress)

	dragged, active := tracker.Dragged()
	assert.True(t, active)
	assert.Equal(t, "v1", dragged.ID)
}

func TestDragTracker_TouchViewportDisabled(t *testing.T) {
	tracker := NewDragTracker(testBoard(), true)
	assert.ErrorIs(t, tracker.Start(testVisit()), ErrTouchViewport)
	assert.Equal(t, DragIdle, tracker.State())
}

func TestDragTracker_MoveWhenIdleIgnored(t *testing.T) {
	tracker := NewDragTracker(testBoard(), false)
	_, ok := tracker.Move(100, 100)
	assert.False(t, ok)
	assert.Equal(t, DragIdle, tracker.State())
}

func TestBoard_ResolveOutOfRange(t *testing.T) {
	board := testBoard()
	_, ok := board.Resolve(grid.Cell{DayIndex: 2, CabinetIndex: 0, Time: "10:00"})
	assert.False(t, ok)
	_, ok = board.Resolve(grid.Cell{DayIndex: 0, CabinetIndex: 5, Time: "10:00"})
	assert.False(t, ok)
}

func TestDragTransitions(t *testing.T) {
	tests := []struct {
		from, to DragState
		allowed  bool
	}{
		{DragIdle, DragDragging, true},
		{DragDragging, DragHovering, true},
		{DragHovering, DragDropped, true},
		{DragDropped, DragIdle, true},
		{DragIdle, DragDropped, false},
		{DragDragging, DragDropped, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.allowed, canTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}
