package schedule

import (
	"fmt"

	"clinicgrid/internal/model"
)

// ShiftRef addresses a shift inside the multi-day blob.
type ShiftRef struct {
	Date      string `json:"date" validate:"required,datekey"`
	CabinetID int64  `json:"cabinet_id" validate:"required,gt=0"`
	ShiftID   string `json:"shift_id" validate:"required"`
}

// Move describes a visit relocation. The target shift is the one in the
// target cabinet whose hours cover the new time range.
type Move struct {
	VisitID     string `json:"visit_id" validate:"required"`
	FromDate    string `json:"from_date" validate:"required,datekey"`
	ToDate      string `json:"to_date" validate:"required,datekey"`
	ToCabinetID int64  `json:"to_cabinet_id" validate:"required,gt=0"`
	StartTime   string `json:"start_time" validate:"required,clock"`
	EndTime     string `json:"end_time" validate:"required,clock,clockafter=StartTime"`
}

// visitLoc is the position of a visit in one day.
type visitLoc struct {
	cabinet, shift, visit int
}

func findShift(day *model.ScheduleData, cabinetID int64, shiftID string) (*model.Shift, error) {
	cab := day.CabinetByID(cabinetID)
	if cab == nil {
		return nil, fmt.Errorf("cabinet %d: %w", cabinetID, ErrCabinetNotFound)
	}
	for i := range cab.Shifts {
		if cab.Shifts[i].ID == shiftID {
			return &cab.Shifts[i], nil
		}
	}
	return nil, fmt.Errorf("shift %s in cabinet %d: %w", shiftID, cabinetID, ErrShiftNotFound)
}

func findVisit(day *model.ScheduleData, visitID string) (visitLoc, bool) {
	for c := range day.Cabinets {
		for s := range day.Cabinets[c].Shifts {
			if v := day.Cabinets[c].Shifts[s].VisitIndex(visitID); v >= 0 {
				return visitLoc{cabinet: c, shift: s, visit: v}, true
			}
		}
	}
	return visitLoc{}, false
}

// coveringShift returns the first shift of cabinet whose hours contain the
// range.
func coveringShift(cab *model.Cabinet, start, end string) (*model.Shift, bool) {
	for i := range cab.Shifts {
		if cab.Shifts[i].Contains(start, end) {
			return &cab.Shifts[i], true
		}
	}
	return nil, false
}

func dayOf(blob model.MultiDayScheduleData, date string) (model.ScheduleData, error) {
	day, ok := blob[date]
	if !ok {
		return model.ScheduleData{}, fmt.Errorf("%s: %w", date, ErrDateNotFound)
	}
	return day, nil
}

// FindVisit returns a copy of the visit with id on date.
func FindVisit(blob model.MultiDayScheduleData, date, visitID string) (model.Visit, error) {
	day, err := dayOf(blob, date)
	if err != nil {
		return model.Visit{}, err
	}
	loc, ok := findVisit(&day, visitID)
	if !ok {
		return model.Visit{}, fmt.Errorf("visit %s on %s: %w", visitID, date, ErrVisitNotFound)
	}
	return day.Cabinets[loc.cabinet].Shifts[loc.shift].Visits[loc.visit], nil
}

// AddVisit appends v to the referenced shift. The visit inherits the shift's
// date and cabinet.
func AddVisit(blob model.MultiDayScheduleData, ref ShiftRef, v model.Visit) (model.Visit, error) {
	day, err := dayOf(blob, ref.Date)
	if err != nil {
		return model.Visit{}, err
	}
	shift, err := findShift(&day, ref.CabinetID, ref.ShiftID)
	if err != nil {
		return model.Visit{}, err
	}
	if !shift.Contains(v.StartTime, v.EndTime) {
		return model.Visit{}, fmt.Errorf("%s-%s in shift %s: %w", v.StartTime, v.EndTime, shift.ID, ErrOutsideShift)
	}

	v.Date = ref.Date
	v.CabinetID = ref.CabinetID
	shift.Visits = append(shift.Visits, v)
	blob[ref.Date] = day
	return v, nil
}

// ReplaceVisit overwrites the stored visit with the same id on v.Date,
// keeping it in its shift.
func ReplaceVisit(blob model.MultiDayScheduleData, v model.Visit) (model.Visit, error) {
	day, err := dayOf(blob, v.Date)
	if err != nil {
		return model.Visit{}, err
	}
	loc, ok := findVisit(&day, v.ID)
	if !ok {
		return model.Visit{}, fmt.Errorf("visit %s on %s: %w", v.ID, v.Date, ErrVisitNotFound)
	}
	cab := &day.Cabinets[loc.cabinet]
	shift := &cab.Shifts[loc.shift]
	if !shift.Contains(v.StartTime, v.EndTime) {
		return model.Visit{}, fmt.Errorf("%s-%s in shift %s: %w", v.StartTime, v.EndTime, shift.ID, ErrOutsideShift)
	}

	v.CabinetID = cab.ID
	shift.Visits[loc.visit] = v
	blob[v.Date] = day
	return v, nil
}

// RemoveVisit deletes the visit from its shift. The shift itself stays.
func RemoveVisit(blob model.MultiDayScheduleData, date, visitID string) (model.Visit, error) {
	day, err := dayOf(blob, date)
	if err != nil {
		return model.Visit{}, err
	}
	loc, ok := findVisit(&day, visitID)
	if !ok {
		return model.Visit{}, fmt.Errorf("visit %s on %s: %w", visitID, date, ErrVisitNotFound)
	}
	shift := &day.Cabinets[loc.cabinet].Shifts[loc.shift]
	removed := shift.Visits[loc.visit]
	shift.Visits = append(shift.Visits[:loc.visit:loc.visit], shift.Visits[loc.visit+1:]...)
	blob[date] = day
	return removed, nil
}

// ApplyMove removes the visit from its shift and appends it to the shift of
// the target cabinet covering the new range. Callers pass a copy of the
// blob: on error it may be partially modified.
func ApplyMove(blob model.MultiDayScheduleData, m Move) (model.Visit, error) {
	visit, err := FindVisit(blob, m.FromDate, m.VisitID)
	if err != nil {
		return model.Visit{}, err
	}

	toDay, err := dayOf(blob, m.ToDate)
	if err != nil {
		return model.Visit{}, err
	}
	cab := toDay.CabinetByID(m.ToCabinetID)
	if cab == nil {
		return model.Visit{}, fmt.Errorf("cabinet %d on %s: %w", m.ToCabinetID, m.ToDate, ErrCabinetNotFound)
	}
	target, ok := coveringShift(cab, m.StartTime, m.EndTime)
	if !ok {
		return model.Visit{}, fmt.Errorf("no shift in cabinet %d on %s covers %s-%s: %w",
			m.ToCabinetID, m.ToDate, m.StartTime, m.EndTime, ErrShiftNotFound)
	}
	targetRef := ShiftRef{Date: m.ToDate, CabinetID: m.ToCabinetID, ShiftID: target.ID}

	if _, err := RemoveVisit(blob, m.FromDate, m.VisitID); err != nil {
		return model.Visit{}, err
	}

	visit.StartTime = m.StartTime
	visit.EndTime = m.EndTime
	if target.Role == model.RoleDoctor && target.StaffID != 0 {
		visit.DoctorID = target.StaffID
		visit.DoctorName = target.StaffName
	}
	return AddVisit(blob, targetRef, visit)
}

// AddShift appends a shift to the cabinet on the shift's date, creating the
// day from the cabinet catalogue when it is missing.
func AddShift(blob model.MultiDayScheduleData, cabinets []model.CabinetInfo, cabinetID int64, sh model.Shift) (model.Shift, error) {
	day, ok := blob[sh.Date]
	if !ok {
		day = EmptyDay(cabinets)
	}
	cab := day.CabinetByID(cabinetID)
	if cab == nil {
		return model.Shift{}, fmt.Errorf("cabinet %d on %s: %w", cabinetID, sh.Date, ErrCabinetNotFound)
	}
	if sh.Visits == nil {
		sh.Visits = []model.Visit{}
	}
	cab.Shifts = append(cab.Shifts, sh)
	blob[sh.Date] = day
	return sh, nil
}

// RemoveShift deletes a shift with its visits and reserved blocks.
func RemoveShift(blob model.MultiDayScheduleData, ref ShiftRef) (model.Shift, error) {
	day, err := dayOf(blob, ref.Date)
	if err != nil {
		return model.Shift{}, err
	}
	cab := day.CabinetByID(ref.CabinetID)
	if cab == nil {
		return model.Shift{}, fmt.Errorf("cabinet %d: %w", ref.CabinetID, ErrCabinetNotFound)
	}
	for i := range cab.Shifts {
		if cab.Shifts[i].ID != ref.ShiftID {
			continue
		}
		removed := cab.Shifts[i]
		cab.Shifts = append(cab.Shifts[:i:i], cab.Shifts[i+1:]...)
		blob[ref.Date] = day
		return removed, nil
	}
	return model.Shift{}, fmt.Errorf("shift %s in cabinet %d: %w", ref.ShiftID, ref.CabinetID, ErrShiftNotFound)
}

// AddReserved appends a reserved block to the referenced shift.
func AddReserved(blob model.MultiDayScheduleData, ref ShiftRef, r model.ReservedTime) (model.ReservedTime, error) {
	day, err := dayOf(blob, ref.Date)
	if err != nil {
		return model.ReservedTime{}, err
	}
	shift, err := findShift(&day, ref.CabinetID, ref.ShiftID)
	if err != nil {
		return model.ReservedTime{}, err
	}
	if !shift.Contains(r.StartTime, r.EndTime) {
		return model.ReservedTime{}, fmt.Errorf("%s-%s in shift %s: %w", r.StartTime, r.EndTime, shift.ID, ErrOutsideShift)
	}
	shift.Reserved = append(shift.Reserved, r)
	blob[ref.Date] = day
	return r, nil
}

// EmptyDay builds a day with every active catalogue cabinet and no shifts.
func EmptyDay(cabinets []model.CabinetInfo) model.ScheduleData {
	day := model.ScheduleData{Cabinets: []model.Cabinet{}}
	for _, c := range cabinets {
		if !c.IsActive {
			continue
		}
		day.Cabinets = append(day.Cabinets, model.Cabinet{
			ID:     c.ID,
			Name:   c.Name,
			Color:  c.Color,
			Shifts: []model.Shift{},
		})
	}
	return day
}

// EmptySchedule generates empty days for every key in dates.
func EmptySchedule(cabinets []model.CabinetInfo, dates []string) model.MultiDayScheduleData {
	out := make(model.MultiDayScheduleData, len(dates))
	for _, d := range dates {
		out[d] = EmptyDay(cabinets)
	}
	return out
}
