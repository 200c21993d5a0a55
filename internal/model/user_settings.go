package model

import "time"

const (
	MinDayCount = 1
	MaxDayCount = 7
)

// UserSettings stores per-user display preferences of the schedule grid.
type UserSettings struct {
	UserID          int64     `json:"user_id"`
	EnabledCabinets []int64   `json:"enabled_cabinets"`        // empty means all
	DoctorFilter    *int64    `json:"doctor_filter,omitempty"` // "only this doctor"
	DayCount        int       `json:"day_count" validate:"omitempty,min=1,max=7"`
	Compact         bool      `json:"compact"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// DefaultUserSettings returns settings for a user that never saved any.
func DefaultUserSettings(userID int64) UserSettings {
	return UserSettings{
		UserID:   userID,
		DayCount: 1,
	}
}

// Normalize clamps DayCount into the supported range.
func (s *UserSettings) Normalize() {
	if s.DayCount < MinDayCount {
		s.DayCount = MinDayCount
	}
	if s.DayCount > MaxDayCount {
		s.DayCount = MaxDayCount
	}
}

// CabinetEnabled reports whether the cabinet passes the settings filter.
func (s *UserSettings) CabinetEnabled(id int64) bool {
	if len(s.EnabledCabinets) == 0 {
		return true
	}
	for _, c := range s.EnabledCabinets {
		if c == id {
			return true
		}
	}
	return false
}
