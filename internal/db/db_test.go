package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinicgrid/internal/config"
	"clinicgrid/internal/model"
	"clinicgrid/internal/schedule"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "grid.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

const date = "2026-03-02"

func sampleDay() model.ScheduleData {
	return model.ScheduleData{Cabinets: []model.Cabinet{
		{ID: 1, Name: "101", Color: "#ff8a65", Shifts: []model.Shift{{
			ID: "s1", StaffID: 10, StaffName: "Dr. Petrov", Role: model.RoleDoctor, Date: date,
			StartTime: "09:00", EndTime: "15:00",
			Visits: []model.Visit{{ID: "v1", Date: date, StartTime: "09:00", EndTime: "09:45",
				PatientID: 1, PatientName: "Ivan Orlov", DoctorID: 10, CabinetID: 1, Status: model.StatusScheduled}},
		}}},
		{ID: 2, Name: "102", Color: "#4db6ac", Shifts: []model.Shift{{
			ID: "s2", StaffID: 11, StaffName: "Dr. Smirnova", Role: model.RoleDoctor, Date: date,
			StartTime: "09:00", EndTime: "18:00", Visits: []model.Visit{},
		}}},
	}}
}

func TestSchedule_PutGetRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	blob := model.MultiDayScheduleData{date: sampleDay(), "2026-03-03": {Cabinets: []model.Cabinet{}}}
	require.NoError(t, db.PutSchedule(ctx, blob))

	got, err := db.GetSchedule(ctx, date, "2026-03-03")
	require.NoError(t, err)
	assert.Equal(t, blob, got)

	got, err = db.GetSchedule(ctx, "2026-03-04", "2026-03-10")
	require.NoError(t, err)
	assert.Empty(t, got)

	// later write wins, other days stay
	day := sampleDay()
	day.Cabinets[0].Name = "renamed"
	require.NoError(t, db.PutSchedule(ctx, model.MultiDayScheduleData{date: day}))
	got, err = db.GetSchedule(ctx, date, "2026-03-03")
	require.NoError(t, err)
	assert.Equal(t, "renamed", got[date].Cabinets[0].Name)
	assert.Contains(t, got, "2026-03-03")
}

func TestSchedule_PutRejectsBadKey(t *testing.T) {
	db := newTestDB(t)
	err := db.PutSchedule(context.Background(), model.MultiDayScheduleData{"02.03.2026": sampleDay()})
	assert.Error(t, err)
}

func TestSchedule_MoveVisit(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	require.NoError(t, db.PutSchedule(ctx, model.MultiDayScheduleData{date: sampleDay()}))

	moved, err := db.MoveVisit(ctx, schedule.Move{
		VisitID: "v1", FromDate: date, ToDate: date, ToCabinetID: 2, StartTime: "11:00", EndTime: "11:45",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), moved.CabinetID)
	assert.Equal(t, int64(11), moved.DoctorID)

	got, err := db.GetSchedule(ctx, date, date)
	require.NoError(t, err)
	assert.Empty(t, got[date].Cabinets[0].Shifts[0].Visits)
	require.Len(t, got[date].Cabinets[1].Shifts[0].Visits, 1)

	_, err = db.MoveVisit(ctx, schedule.Move{
		VisitID: "v1", FromDate: date, ToDate: "2026-03-09", ToCabinetID: 2, StartTime: "11:00", EndTime: "11:45",
	})
	assert.ErrorIs(t, err, schedule.ErrDateNotFound)

	_, err = db.MoveVisit(ctx, schedule.Move{
		VisitID: "missing", FromDate: date, ToDate: date, ToCabinetID: 2, StartTime: "11:00", EndTime: "11:45",
	})
	assert.ErrorIs(t, err, schedule.ErrVisitNotFound)
}

func TestSyncClinicConfig(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	cfg := &config.ClinicConfig{
		Cabinets: []config.CabinetConfig{
			{ID: 1, Name: "101", Color: "#ff8a65", IsActive: true},
			{ID: 2, Name: "102", Color: "#4db6ac", IsActive: true},
		},
		Doctors: []config.DoctorConfig{
			{ID: 10, Name: "Dr. Petrov", Specialty: "therapist", Role: "doctor", IsActive: true},
		},
		Statuses: []config.StatusConfig{{Code: "no_show", Color: "#000000"}},
	}
	require.NoError(t, db.SyncClinicConfig(ctx, cfg))

	cabinets, err := db.ListCabinets(ctx, false)
	require.NoError(t, err)
	assert.Len(t, cabinets, 2)

	doctors, err := db.ListDoctors(ctx)
	require.NoError(t, err)
	require.Len(t, doctors, 1)
	assert.Equal(t, model.RoleDoctor, doctors[0].Role)

	statuses, err := db.ListStatuses(ctx)
	require.NoError(t, err)
	assert.Len(t, statuses, len(model.DefaultStatuses))
	assert.Equal(t, "#000000", model.StatusColor(statuses, model.StatusNoShow))

	// cabinet 2 disappears from the file
	cfg.Cabinets = cfg.Cabinets[:1]
	require.NoError(t, db.SyncClinicConfig(ctx, cfg))

	cabinets, err = db.ListCabinets(ctx, false)
	require.NoError(t, err)
	require.Len(t, cabinets, 1)
	assert.Equal(t, int64(1), cabinets[0].ID)

	all, err := db.ListCabinets(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestListStatuses_DefaultsWhenEmpty(t *testing.T) {
	db := newTestDB(t)
	statuses, err := db.ListStatuses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.DefaultStatuses, statuses)
}

func TestPatients(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	p := &model.Patient{FullName: "Ivan Orlov", Phone: "+79990001122"}
	require.NoError(t, db.CreatePatient(ctx, p))
	assert.NotZero(t, p.ID)
	require.NoError(t, db.CreatePatient(ctx, &model.Patient{FullName: "Maria Volkova"}))

	got, err := db.GetPatient(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "+79990001122", got.Phone)

	list, err := db.ListPatients(ctx, "orlov", 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, p.ID, list[0].ID)

	list, err = db.ListPatients(ctx, "", 10)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = db.GetPatient(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserSettings(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	s, err := db.GetUserSettings(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultUserSettings(42), *s)

	doctor := int64(10)
	require.NoError(t, db.UpsertUserSettings(ctx, &model.UserSettings{
		UserID: 42, EnabledCabinets: []int64{3, 1}, DoctorFilter: &doctor, DayCount: 9, Compact: true,
	}))

	s, err = db.GetUserSettings(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 1}, s.EnabledCabinets)
	require.NotNil(t, s.DoctorFilter)
	assert.Equal(t, doctor, *s.DoctorFilter)
	assert.Equal(t, model.MaxDayCount, s.DayCount)
	assert.True(t, s.Compact)
}

func TestBackupAndCleanup(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	require.NoError(t, db.PutSchedule(ctx, model.MultiDayScheduleData{date: sampleDay()}))

	dir := filepath.Join(t.TempDir(), "backups")
	path, err := db.Backup(ctx, dir)
	require.NoError(t, err)
	assert.FileExists(t, path)

	restored, err := NewDB(path, nil)
	require.NoError(t, err)
	defer restored.Close()
	got, err := restored.GetSchedule(ctx, date, date)
	require.NoError(t, err)
	assert.Equal(t, sampleDay(), got[date])

	old := filepath.Join(dir, backupPrefix+"20200101_000000.db")
	require.NoError(t, os.WriteFile(old, []byte("x"), 0o600))
	past := time.Now().AddDate(0, 0, -30)
	require.NoError(t, os.Chtimes(old, past, past))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("keep"), 0o600))
	require.NoError(t, os.Chtimes(filepath.Join(dir, "notes.txt"), past, past))

	removed, err := CleanupBackups(dir, 7, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.NoFileExists(t, old)
	assert.FileExists(t, path)
	assert.FileExists(t, filepath.Join(dir, "notes.txt"))
}

func TestListPatients_WildcardsMatchLiterally(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.CreatePatient(ctx, &model.Patient{FullName: "Ivan Orlov"}))
	require.NoError(t, db.CreatePatient(ctx, &model.Patient{FullName: "Maria Volkova", Note: "50% discount"}))
	require.NoError(t, db.CreatePatient(ctx, &model.Patient{FullName: "Oleg_Sokolov"}))

	tests := []struct {
		query string
		want  []string
	}{
		{"_", []string{"Oleg_Sokolov"}},
		{"%", nil},
		{"a_i", nil},
		{"orl", []string{"Ivan Orlov"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			list, err := db.ListPatients(ctx, tt.query, 10)
			require.NoError(t, err)
			var names []string
			for _, p := range list {
				names = append(names, p.FullName)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}
