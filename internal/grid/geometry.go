// Package grid maps schedule times and cabinet columns to pixel geometry.
package grid

import (
	"fmt"
	"math"

	"clinicgrid/internal/model"
)

// Geometry describes the pixel scale of the schedule grid.
//
// Rows are time-of-day (DayStart..DayEnd, minutes since midnight), columns are
// one per cabinet per visible day, to the right of a fixed time column.
type Geometry struct {
	HourHeight      float64
	TimeColumnWidth float64
	ColumnWidth     float64
	CabinetsPerDay  int
	DayCount        int
	DayStart        int
	DayEnd          int
	SlotMinutes     int
}

// Position is the vertical placement of an event.
type Position struct {
	Top    float64 `json:"top"`
	Height float64 `json:"height"`
}

// Cell is a drop target on the grid.
type Cell struct {
	DayIndex     int    `json:"day_index"`
	CabinetIndex int    `json:"cabinet_index"`
	Time         string `json:"time"` // "HH:mm", start of the slot
}

// DefaultGeometry is the expanded sizing.
func DefaultGeometry() Geometry {
	return Geometry{
		HourHeight:      120,
		TimeColumnWidth: 60,
		ColumnWidth:     180,
		CabinetsPerDay:  1,
		DayCount:        1,
		DayStart:        0,
		DayEnd:          model.MinutesPerDay,
		SlotMinutes:     15,
	}
}

// CompactGeometry is the dense sizing.
func CompactGeometry() Geometry {
	g := DefaultGeometry()
	g.HourHeight = 60
	g.TimeColumnWidth = 48
	g.ColumnWidth = 120
	return g
}

// GeometryFor picks the sizing from user settings.
func GeometryFor(settings model.UserSettings, cabinetsPerDay int) Geometry {
	g := DefaultGeometry()
	if settings.Compact {
		g = CompactGeometry()
	}
	s := settings
	s.Normalize()
	g.DayCount = s.DayCount
	if cabinetsPerDay > 0 {
		g.CabinetsPerDay = cabinetsPerDay
	}
	return g
}

// WithHours restricts the visible rows to [start, end).
func (g Geometry) WithHours(start, end string) (Geometry, error) {
	s, err := model.ParseClock(start)
	if err != nil {
		return g, err
	}
	e, err := model.ParseClock(end)
	if err != nil {
		return g, err
	}
	if e <= s {
		return g, fmt.Errorf("day end %s must be after day start %s", end, start)
	}
	g.DayStart, g.DayEnd = s, e
	return g, nil
}

func (g Geometry) pixelsPerMinute() float64 {
	return g.HourHeight / 60
}

// CalculateEventPosition converts a start/end clock pair into a vertical
// offset and height. Non-positive durations produce a zero height.
func (g Geometry) CalculateEventPosition(start, end string) (Position, error) {
	s, err := model.ParseClock(start)
	if err != nil {
		return Position{}, err
	}
	e, err := model.ParseClock(end)
	if err != nil {
		return Position{}, err
	}

	ppm := g.pixelsPerMinute()
	height := float64(e-s) * ppm
	if height < 0 {
		height = 0
	}
	return Position{
		Top:    float64(s-g.DayStart) * ppm,
		Height: height,
	}, nil
}

// ColumnOffset returns the left edge of the (day, cabinet) column.
func (g Geometry) ColumnOffset(dayIndex, cabinetIndex int) float64 {
	return g.TimeColumnWidth + float64(dayIndex*g.CabinetsPerDay+cabinetIndex)*g.ColumnWidth
}

// Width is the total grid width including the time column.
func (g Geometry) Width() float64 {
	return g.ColumnOffset(g.DayCount, 0)
}

// Height is the total grid height of the visible rows.
func (g Geometry) Height() float64 {
	return float64(g.DayEnd-g.DayStart) * g.pixelsPerMinute()
}

// CellAt resolves a grid-relative pixel to a drop target. The time is
// snapped down to the slot boundary. Points in the time column or outside
// the visible grid are not cells.
func (g Geometry) CellAt(x, y float64) (Cell, bool) {
	if g.ColumnWidth <= 0 || g.HourHeight <= 0 || g.CabinetsPerDay <= 0 {
		return Cell{}, false
	}
	if x < g.TimeColumnWidth || y < 0 {
		return Cell{}, false
	}

	col := int(math.Floor((x - g.TimeColumnWidth) / g.ColumnWidth))
	if col >= g.DayCount*g.CabinetsPerDay {
		return Cell{}, false
	}

	minutes := g.DayStart + int(math.Floor(y/g.pixelsPerMinute()))
	if minutes >= g.DayEnd {
		return Cell{}, false
	}
	if g.SlotMinutes > 0 {
		minutes -= (minutes - g.DayStart) % g.SlotMinutes
	}

	return Cell{
		DayIndex:     col / g.CabinetsPerDay,
		CabinetIndex: col % g.CabinetsPerDay,
		Time:         model.FormatClock(minutes),
	}, true
}

// Rows returns the slot labels from DayStart to DayEnd.
func (g Geometry) Rows() []string {
	step := g.SlotMinutes
	if step <= 0 {
		step = 60
	}
	var rows []string
	for m := g.DayStart; m < g.DayEnd; m += step {
		rows = append(rows, model.FormatClock(m))
	}
	return rows
}
