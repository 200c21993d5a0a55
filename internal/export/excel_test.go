package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"clinicgrid/internal/model"
)

func TestWriteSchedule(t *testing.T) {
	data := model.MultiDayScheduleData{
		"2026-03-03": {Cabinets: []model.Cabinet{{ID: 1, Name: "101", Color: "#ff8a65", Shifts: []model.Shift{{
			ID: "s2", StaffName: "Dr. Petrov", Role: model.RoleDoctor, StartTime: "09:00", EndTime: "12:00",
			Visits: []model.Visit{{ID: "v2", StartTime: "09:00", EndTime: "09:30", PatientName: "Maria Volkova", Status: model.StatusNoShow}},
		}}}}},
		"2026-03-02": {Cabinets: []model.Cabinet{{ID: 1, Name: "101", Color: "#ff8a65", Shifts: []model.Shift{{
			ID: "s1", StaffName: "Dr. Petrov", Role: model.RoleDoctor, StartTime: "09:00", EndTime: "15:00",
			Visits: []model.Visit{{ID: "v1", StartTime: "10:00", EndTime: "10:45", PatientName: "Ivan Orlov",
				DoctorName: "Dr. Smirnova", Status: model.StatusConfirmed, Note: "MRI"}},
			Reserved: []model.ReservedTime{{ID: "r1", StartTime: "12:00", EndTime: "12:30"}},
		}}}}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSchedule(&buf, data, model.DefaultStatuses))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Visits", "Shifts"}, f.GetSheetList())

	rows, err := f.GetRows("Visits")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Date", "Cabinet", "Start", "End", "Patient", "Doctor", "Status", "Note"}, rows[0])
	assert.Equal(t, []string{"2026-03-02", "101", "10:00", "10:45", "Ivan Orlov", "Dr. Smirnova", "confirmed", "MRI"}, rows[1])
	assert.Equal(t, "Dr. Petrov", rows[2][5])

	shifts, err := f.GetRows("Shifts")
	require.NoError(t, err)
	require.Len(t, shifts, 3)
	assert.Equal(t, "1", shifts[1][6])
	assert.Equal(t, "1", shifts[1][7])
	assert.Equal(t, "0", shifts[2][7])
}

func TestWriteSchedule_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSchedule(&buf, model.MultiDayScheduleData{}, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Visits")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
