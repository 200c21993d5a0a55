package grid

import (
	"fmt"

	"clinicgrid/internal/model"
)

// Kind of a placed block.
type Kind string

const (
	KindShift    Kind = "shift"
	KindVisit    Kind = "visit"
	KindReserved Kind = "reserved"
)

// Rect is an absolute block on the grid.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Placement is one rendered block.
type Placement struct {
	Kind         Kind   `json:"kind"`
	ID           string `json:"id"`
	Date         string `json:"date"`
	CabinetID    int64  `json:"cabinet_id"`
	DayIndex     int    `json:"day_index"`
	CabinetIndex int    `json:"cabinet_index"`
	Rect         Rect   `json:"rect"`
	Color        string `json:"color,omitempty"`
	Label        string `json:"label,omitempty"`
}

// Day is one visible day column group.
type Day struct {
	Date string
	Data model.ScheduleData
}

// Layout places shifts, reserved blocks and visits of the visible days.
// Cabinet indexes follow the order of cabinets in each day, so callers pass
// already-filtered days.
func (g Geometry) Layout(days []Day, statuses []model.PatientStatus) ([]Placement, error) {
	var out []Placement
	for dayIdx, day := range days {
		for cabIdx, cab := range day.Data.Cabinets {
			x := g.ColumnOffset(dayIdx, cabIdx)
			for _, sh := range cab.Shifts {
				p, err := g.place(KindShift, sh.ID, sh.StartTime, sh.EndTime, x)
				if err != nil {
					return nil, fmt.Errorf("shift %s: %w", sh.ID, err)
				}
				p.Label = sh.StaffName
				p.Color = cab.Color
				out = append(out, g.annotate(p, day.Date, cab.ID, dayIdx, cabIdx))

				for _, r := range sh.Reserved {
					p, err := g.place(KindReserved, r.ID, r.StartTime, r.EndTime, x)
					if err != nil {
						return nil, fmt.Errorf("reserved %s: %w", r.ID, err)
					}
					p.Label = r.Reason
					out = append(out, g.annotate(p, day.Date, cab.ID, dayIdx, cabIdx))
				}

				for _, v := range sh.Visits {
					p, err := g.place(KindVisit, v.ID, v.StartTime, v.EndTime, x)
					if err != nil {
						return nil, fmt.Errorf("visit %s: %w", v.ID, err)
					}
					p.Label = v.PatientName
					p.Color = model.StatusColor(statuses, v.Status)
					out = append(out, g.annotate(p, day.Date, cab.ID, dayIdx, cabIdx))
				}
			}
		}
	}
	return out, nil
}

func (g Geometry) place(kind Kind, id, start, end string, x float64) (Placement, error) {
	pos, err := g.CalculateEventPosition(start, end)
	if err != nil {
		return Placement{}, err
	}
	return Placement{
		Kind: kind,
		ID:   id,
		Rect: Rect{X: x, Y: pos.Top, Width: g.ColumnWidth, Height: pos.Height},
	}, nil
}

func (g Geometry) annotate(p Placement, date string, cabinetID int64, dayIdx, cabIdx int) Placement {
	p.Date = date
	p.CabinetID = cabinetID
	p.DayIndex = dayIdx
	p.CabinetIndex = cabIdx
	return p
}
