package schedule

import (
	"strings"

	"clinicgrid/internal/grid"
	"clinicgrid/internal/model"
)

// FilterCabinets keeps the enabled cabinets in their original order. An
// empty enabled list keeps all of them.
func FilterCabinets(day model.ScheduleData, enabled []int64) model.ScheduleData {
	if len(enabled) == 0 {
		return day
	}
	set := make(map[int64]struct{}, len(enabled))
	for _, id := range enabled {
		set[id] = struct{}{}
	}

	out := model.ScheduleData{Cabinets: make([]model.Cabinet, 0, len(enabled))}
	for _, cab := range day.Cabinets {
		if _, ok := set[cab.ID]; ok {
			out.Cabinets = append(out.Cabinets, cab)
		}
	}
	return out
}

// FilterDoctor keeps shifts worked by the doctor and, in other shifts, only
// the visits the doctor attends. Cabinets are kept so columns stay stable.
func FilterDoctor(day model.ScheduleData, doctorID *int64) model.ScheduleData {
	if doctorID == nil {
		return day
	}
	id := *doctorID

	out := model.ScheduleData{Cabinets: make([]model.Cabinet, 0, len(day.Cabinets))}
	for _, cab := range day.Cabinets {
		c := cab
		c.Shifts = make([]model.Shift, 0, len(cab.Shifts))
		for _, sh := range cab.Shifts {
			if sh.StaffID == id {
				c.Shifts = append(c.Shifts, sh)
				continue
			}
			visits := filterVisits(sh.Visits, func(v model.Visit) bool { return v.DoctorID == id })
			if len(visits) == 0 {
				continue
			}
			sh.Visits = visits
			c.Shifts = append(c.Shifts, sh)
		}
		out.Cabinets = append(out.Cabinets, c)
	}
	return out
}

// Search keeps the visits matching query. Shifts and cabinets are kept.
func Search(day model.ScheduleData, query string) model.ScheduleData {
	query = strings.TrimSpace(query)
	if query == "" {
		return day
	}
	q := strings.ToLower(query)

	out := model.ScheduleData{Cabinets: make([]model.Cabinet, 0, len(day.Cabinets))}
	for _, cab := range day.Cabinets {
		c := cab
		c.Shifts = make([]model.Shift, 0, len(cab.Shifts))
		for _, sh := range cab.Shifts {
			sh.Visits = filterVisits(sh.Visits, func(v model.Visit) bool { return matches(v, q) })
			c.Shifts = append(c.Shifts, sh)
		}
		out.Cabinets = append(out.Cabinets, c)
	}
	return out
}

func matches(v model.Visit, lowered string) bool {
	return strings.Contains(strings.ToLower(v.PatientName), lowered) ||
		strings.Contains(strings.ToLower(v.DoctorName), lowered) ||
		strings.Contains(strings.ToLower(v.Note), lowered)
}

func filterVisits(in []model.Visit, keep func(model.Visit) bool) []model.Visit {
	out := make([]model.Visit, 0, len(in))
	for _, v := range in {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}

// AlignColumns gives every day the same cabinet columns so a multi-day
// window has one width. Cabinets seen on any day are ordered as in the
// catalogue, unknown ones after it in first-seen order, and days lacking a
// cabinet get it empty.
func AlignColumns(days []grid.Day, catalogue []model.CabinetInfo) []grid.Day {
	blank := make(map[int64]model.Cabinet)
	var seen []int64
	for _, d := range days {
		for _, cab := range d.Data.Cabinets {
			if _, ok := blank[cab.ID]; ok {
				continue
			}
			blank[cab.ID] = model.Cabinet{ID: cab.ID, Name: cab.Name, Color: cab.Color, Shifts: []model.Shift{}}
			seen = append(seen, cab.ID)
		}
	}

	order := make([]int64, 0, len(seen))
	placed := make(map[int64]bool, len(seen))
	for _, c := range catalogue {
		if _, ok := blank[c.ID]; ok && !placed[c.ID] {
			order = append(order, c.ID)
			placed[c.ID] = true
		}
	}
	for _, id := range seen {
		if !placed[id] {
			order = append(order, id)
		}
	}

	out := make([]grid.Day, len(days))
	for i, d := range days {
		byID := make(map[int64]model.Cabinet, len(d.Data.Cabinets))
		for _, cab := range d.Data.Cabinets {
			byID[cab.ID] = cab
		}
		cabinets := make([]model.Cabinet, 0, len(order))
		for _, id := range order {
			cab, ok := byID[id]
			if !ok {
				cab = blank[id]
			}
			cabinets = append(cabinets, cab)
		}
		out[i] = grid.Day{Date: d.Date, Data: model.ScheduleData{Cabinets: cabinets}}
	}
	return out
}
