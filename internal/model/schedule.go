package model

// VisitStatus is one of the fixed visit states shown on the grid.
type VisitStatus string

const (
	StatusScheduled  VisitStatus = "scheduled"
	StatusConfirmed  VisitStatus = "confirmed"
	StatusArrived    VisitStatus = "arrived"
	StatusInProgress VisitStatus = "in_progress"
	StatusCompleted  VisitStatus = "completed"
	StatusNoShow     VisitStatus = "no_show"
	StatusCanceled   VisitStatus = "canceled"
)

// StaffRole is the role a shift is worked in.
type StaffRole string

const (
	RoleDoctor        StaffRole = "doctor"
	RoleAssistant     StaffRole = "assistant"
	RoleAdministrator StaffRole = "administrator"
)

// Visit is a scheduled patient appointment. Its cabinet is implied by the
// shift that holds it; CabinetID mirrors that for convenience.
type Visit struct {
	ID             string      `json:"id"`
	Date           string      `json:"date" validate:"omitempty,datekey"`                       // "2026-01-15"
	StartTime      string      `json:"start_time" validate:"required,clock"`                    // "09:30"
	EndTime        string      `json:"end_time" validate:"required,clock,clockafter=StartTime"` // "10:00"
	PatientID      int64       `json:"patient_id" validate:"required,gt=0"`
	PatientName    string      `json:"patient_name" validate:"required,max=200"`
	DoctorID       int64       `json:"doctor_id" validate:"gte=0"`
	DoctorName     string      `json:"doctor_name"`
	CabinetID      int64       `json:"cabinet_id"`
	Status         VisitStatus `json:"status" validate:"omitempty,visitstatus"`
	Note           string      `json:"note,omitempty" validate:"max=2000"`
	Characteristic string      `json:"characteristic,omitempty" validate:"max=64"`
}

// ReservedTime is a non-patient block inside a shift, e.g. lunch.
type ReservedTime struct {
	ID        string `json:"id"`
	StartTime string `json:"start_time" validate:"required,clock"`
	EndTime   string `json:"end_time" validate:"required,clock,clockafter=StartTime"`
	Reason    string `json:"reason,omitempty" validate:"max=200"`
}

// Shift is a staff member's working interval in a cabinet on a date.
type Shift struct {
	ID        string         `json:"id"`
	StaffID   int64          `json:"staff_id" validate:"gte=0"`
	StaffName string         `json:"staff_name" validate:"required,max=200"`
	Role      StaffRole      `json:"role" validate:"required,oneof=doctor assistant administrator"`
	Date      string         `json:"date" validate:"required,datekey"`
	StartTime string         `json:"start_time" validate:"required,clock"`
	EndTime   string         `json:"end_time" validate:"required,clock,clockafter=StartTime"`
	Visits    []Visit        `json:"visits" validate:"-"`
	Reserved  []ReservedTime `json:"reserved,omitempty" validate:"-"`
}

// Cabinet is a treatment room together with its shifts for one date.
type Cabinet struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name"`
	Color  string  `json:"color"`
	Shifts []Shift `json:"shifts"`
}

// ScheduleData is a full snapshot of one day.
type ScheduleData struct {
	Cabinets []Cabinet `json:"cabinets"`
}

// MultiDayScheduleData maps a date key to that day's snapshot. It is the
// unit read from and written to the schedule endpoint.
type MultiDayScheduleData map[string]ScheduleData

// Duration returns the visit length in minutes.
func (v *Visit) Duration() (int, error) {
	start, err := ParseClock(v.StartTime)
	if err != nil {
		return 0, err
	}
	end, err := ParseClock(v.EndTime)
	if err != nil {
		return 0, err
	}
	return end - start, nil
}

// Contains reports whether the clock range of the shift covers [start, end).
func (s *Shift) Contains(start, end string) bool {
	ss, err1 := ParseClock(s.StartTime)
	se, err2 := ParseClock(s.EndTime)
	vs, err3 := ParseClock(start)
	ve, err4 := ParseClock(end)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return false
	}
	return vs >= ss && ve <= se
}

// VisitIndex returns the position of the visit with id, or -1.
func (s *Shift) VisitIndex(id string) int {
	for i := range s.Visits {
		if s.Visits[i].ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy so derived views never alias the cached blob.
func (d ScheduleData) Clone() ScheduleData {
	out := ScheduleData{Cabinets: make([]Cabinet, len(d.Cabinets))}
	for i, cab := range d.Cabinets {
		c := cab
		c.Shifts = make([]Shift, len(cab.Shifts))
		for j, sh := range cab.Shifts {
			s := sh
			s.Visits = append([]Visit(nil), sh.Visits...)
			s.Reserved = append([]ReservedTime(nil), sh.Reserved...)
			c.Shifts[j] = s
		}
		out.Cabinets[i] = c
	}
	return out
}

// Clone deep-copies every day of the blob.
func (m MultiDayScheduleData) Clone() MultiDayScheduleData {
	out := make(MultiDayScheduleData, len(m))
	for k, v := range m {
		out[k] = v.Clone()
	}
	return out
}

// CabinetByID returns a pointer into d for in-place mutation.
func (d *ScheduleData) CabinetByID(id int64) *Cabinet {
	for i := range d.Cabinets {
		if d.Cabinets[i].ID == id {
			return &d.Cabinets[i]
		}
	}
	return nil
}

// Visits flattens all visits of the day in cabinet, shift order.
func (d ScheduleData) Visits() []Visit {
	var out []Visit
	for _, cab := range d.Cabinets {
		for _, sh := range cab.Shifts {
			out = append(out, sh.Visits...)
		}
	}
	return out
}
