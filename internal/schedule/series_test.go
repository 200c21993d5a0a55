package schedule

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinicgrid/internal/model"
)

func TestOccurrences(t *testing.T) {
	dates, err := Occurrences("FREQ=WEEKLY;BYDAY=MO,TH", "2026-03-02", "2026-03-15")
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-03-02", "2026-03-05", "2026-03-09", "2026-03-12"}, dates)

	_, err = Occurrences("FREQ=SOMETIMES", "2026-03-02", "2026-03-15")
	assert.Error(t, err)

	_, err = Occurrences("FREQ=DAILY", "2026-03-02", "2026-03-01")
	assert.Error(t, err)

	_, err = Occurrences("FREQ=DAILY", "2026-01-01", "2027-06-01")
	assert.ErrorContains(t, err, "limit")
}

func TestStore_CreateShiftSeries(t *testing.T) {
	api := newMemoryAPI(fixture())
	s := newTestStore(t, api)

	tmpl := model.Shift{
		StaffID: 10, StaffName: "Dr. Petrov", Role: model.RoleDoctor, Date: "2026-03-03",
		StartTime: "16:00", EndTime: "20:00",
		Reserved: []model.ReservedTime{{StartTime: "18:00", EndTime: "18:30", Reason: "lunch"}},
	}
	shifts, err := s.CreateShiftSeries(context.Background(), 1, tmpl, "FREQ=DAILY;INTERVAL=2", "2026-03-07")
	require.NoError(t, err)
	require.Len(t, shifts, 3)
	assert.Equal(t, 1, api.Writes())

	ids := map[string]bool{}
	for i, date := range []string{"2026-03-03", "2026-03-05", "2026-03-07"} {
		assert.Equal(t, date, shifts[i].Date)
		assert.False(t, ids[shifts[i].ID])
		ids[shifts[i].ID] = true

		day := api.days[date]
		cab := day.CabinetByID(1)
		require.NotNil(t, cab)
		require.Len(t, cab.Shifts, 1)
		require.Len(t, cab.Shifts[0].Reserved, 1)
		assert.NotEqual(t, shifts[0].Reserved[0].ID, "")
	}
	assert.NotEqual(t, shifts[0].Reserved[0].ID, shifts[1].Reserved[0].ID)
}

func TestStore_CreateShiftSeriesRejectsBadRule(t *testing.T) {
	api := newMemoryAPI(fixture())
	s := newTestStore(t, api)

	_, err := s.CreateShiftSeries(context.Background(), 1, model.Shift{
		StaffID: 10, StaffName: "Dr. Petrov", Role: model.RoleDoctor, Date: "2026-03-03",
		StartTime: "16:00", EndTime: "20:00",
	}, "FREQ=SOMETIMES", "2026-03-07")

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "rrule")
	assert.Zero(t, api.Writes())
}
