package model

import "time"

// Patient is a clinic patient record.
type Patient struct {
	ID        int64     `json:"id"`
	FullName  string    `json:"full_name" validate:"required,max=200"`
	Phone     string    `json:"phone,omitempty" validate:"omitempty,max=32"`
	BirthDate string    `json:"birth_date,omitempty" validate:"omitempty,datekey"` // "1990-04-12"
	Note      string    `json:"note,omitempty" validate:"max=2000"`
	CreatedAt time.Time `json:"created_at"`
}

// Doctor is a member of staff that can own shifts and visits.
type Doctor struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Specialty string    `json:"specialty,omitempty"`
	Role      StaffRole `json:"role"`
	IsActive  bool      `json:"is_active"`
}

// CabinetInfo is the catalogue entry of a cabinet, without shifts.
type CabinetInfo struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Color    string `json:"color"`
	IsActive bool   `json:"is_active"`
}

// PatientStatus is an entry of the visit status taxonomy.
type PatientStatus struct {
	Code  VisitStatus `json:"code"`
	Title string      `json:"title"`
	Color string      `json:"color"`
}

// DefaultStatuses is the built-in taxonomy used when none is configured.
var DefaultStatuses = []PatientStatus{
	{Code: StatusScheduled, Title: "Scheduled", Color: "#90caf9"},
	{Code: StatusConfirmed, Title: "Confirmed", Color: "#42a5f5"},
	{Code: StatusArrived, Title: "Arrived", Color: "#ffb74d"},
	{Code: StatusInProgress, Title: "In progress", Color: "#ab47bc"},
	{Code: StatusCompleted, Title: "Completed", Color: "#66bb6a"},
	{Code: StatusNoShow, Title: "No show", Color: "#ef5350"},
	{Code: StatusCanceled, Title: "Canceled", Color: "#bdbdbd"},
}

// IsKnownStatus reports whether s is part of the fixed status set.
func IsKnownStatus(s VisitStatus) bool {
	for _, st := range DefaultStatuses {
		if st.Code == s {
			return true
		}
	}
	return false
}

// StatusColor returns the display colour for s, or a neutral grey.
func StatusColor(statuses []PatientStatus, s VisitStatus) string {
	for _, st := range statuses {
		if st.Code == s {
			return st.Color
		}
	}
	return "#9e9e9e"
}
