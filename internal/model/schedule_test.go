package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"09:30", 570, false},
		{"9:05", 545, false},
		{"23:59", 1439, false},
		{"24:00", 1440, false},
		{"24:30", 0, true},
		{"12:60", 0, true},
		{"1230", 0, true},
		{"ab:cd", 0, true},
		{"12:5", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClock(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "00:00", FormatClock(0))
	assert.Equal(t, "09:05", FormatClock(545))
	assert.Equal(t, "24:00", FormatClock(1440))
	assert.Equal(t, "00:00", FormatClock(-15))
}

func TestDateRange(t *testing.T) {
	keys, err := DateRange("2026-01-30", "2026-02-02")
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-01-30", "2026-01-31", "2026-02-01", "2026-02-02"}, keys)

	_, err = DateRange("2026-02-02", "2026-01-30")
	assert.Error(t, err)

	next, err := AddDays("2026-12-31", 1)
	require.NoError(t, err)
	assert.Equal(t, "2027-01-01", next)
}

func TestVisit_Duration(t *testing.T) {
	v := Visit{StartTime: "10:00", EndTime: "11:30"}
	d, err := v.Duration()
	require.NoError(t, err)
	assert.Equal(t, 90, d)

	bad := Visit{StartTime: "10:00", EndTime: "late"}
	_, err = bad.Duration()
	assert.Error(t, err)
}

func TestShift_Contains(t *testing.T) {
	s := Shift{StartTime: "09:00", EndTime: "15:00"}
	assert.True(t, s.Contains("09:00", "10:00"))
	assert.True(t, s.Contains("14:00", "15:00"))
	assert.False(t, s.Contains("08:30", "09:30"))
	assert.False(t, s.Contains("14:30", "15:30"))
}

func TestScheduleData_CloneDoesNotAlias(t *testing.T) {
	orig := ScheduleData{Cabinets: []Cabinet{{
		ID: 1,
		Shifts: []Shift{{
			ID:     "s1",
			Visits: []Visit{{ID: "v1", PatientName: "Ivanova"}},
		}},
	}}}

	cp := orig.Clone()
	cp.Cabinets[0].Shifts[0].Visits[0].PatientName = "changed"
	cp.Cabinets[0].Shifts[0].Visits = append(cp.Cabinets[0].Shifts[0].Visits, Visit{ID: "v2"})

	assert.Equal(t, "Ivanova", orig.Cabinets[0].Shifts[0].Visits[0].PatientName)
	assert.Len(t, orig.Cabinets[0].Shifts[0].Visits, 1)
}

func TestUserSettings(t *testing.T) {
	s := DefaultUserSettings(7)
	assert.True(t, s.CabinetEnabled(42))

	s.EnabledCabinets = []int64{1, 3}
	assert.True(t, s.CabinetEnabled(3))
	assert.False(t, s.CabinetEnabled(2))

	s.DayCount = 12
	s.Normalize()
	assert.Equal(t, MaxDayCount, s.DayCount)

	s.DayCount = 0
	s.Normalize()
	assert.Equal(t, MinDayCount, s.DayCount)
}
