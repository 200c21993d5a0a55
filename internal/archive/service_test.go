package archive

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"clinicgrid/internal/db"
	"clinicgrid/internal/model"
)

func day(date string, visits ...model.Visit) model.ScheduleData {
	return model.ScheduleData{Cabinets: []model.Cabinet{{ID: 1, Name: "101", Shifts: []model.Shift{{
		ID: "s-" + date, StaffName: "Dr. Petrov", Role: model.RoleDoctor, Date: date,
		StartTime: "09:00", EndTime: "15:00", Visits: visits,
	}}}}}
}

func newTestDB(t *testing.T) *db.DB {
	t.Helper()
	database, err := db.NewDB(filepath.Join(t.TempDir(), "grid.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "March_2026.xlsx", Filename(time.Date(2026, 3, 17, 10, 0, 0, 0, time.UTC)))
}

func TestNextFirstOfMonth(t *testing.T) {
	got := nextFirstOfMonth(time.Date(2026, 12, 31, 23, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2027, 1, 1, 0, 1, 0, 0, time.UTC), got)
}

func TestRunExportAndCleanup(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	require.NoError(t, database.PutSchedule(ctx, model.MultiDayScheduleData{
		"2026-01-20": day("2026-01-20"),
		"2026-02-03": day("2026-02-03", model.Visit{ID: "v1", StartTime: "10:00", EndTime: "10:30", PatientName: "Ivan Orlov"}),
		"2026-02-27": day("2026-02-27"),
		"2026-03-01": day("2026-03-01"),
	}))

	dir := t.TempDir()
	svc := NewService(Config{Dir: dir, RetentionDays: 30}, database, database, nil)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 0, 1, 0, 0, time.UTC) }

	svc.RunExportAndCleanup(ctx)

	f, err := excelize.OpenFile(filepath.Join(dir, "February_2026.xlsx"))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Visits")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2026-02-03", rows[1][0])
	shifts, err := f.GetRows("Shifts")
	require.NoError(t, err)
	assert.Len(t, shifts, 3)

	left, err := database.GetSchedule(ctx, "2026-01-01", "2026-03-31")
	require.NoError(t, err)
	assert.NotContains(t, left, "2026-01-20")
	assert.Contains(t, left, "2026-02-03")
	assert.Contains(t, left, "2026-03-01")
}

func TestRunExportAndCleanup_LastDayOfMonth(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	require.NoError(t, database.PutSchedule(ctx, model.MultiDayScheduleData{
		"2026-02-10": day("2026-02-10"),
		"2026-03-03": day("2026-03-03"),
	}))

	dir := t.TempDir()
	svc := NewService(Config{Dir: dir}, database, nil, nil)
	svc.now = func() time.Time { return time.Date(2026, 3, 31, 10, 0, 0, 0, time.UTC) }

	svc.RunExportAndCleanup(ctx)

	assert.FileExists(t, filepath.Join(dir, "February_2026.xlsx"))
	assert.NoFileExists(t, filepath.Join(dir, "March_2026.xlsx"))

	f, err := excelize.OpenFile(filepath.Join(dir, "February_2026.xlsx"))
	require.NoError(t, err)
	defer f.Close()
	shifts, err := f.GetRows("Shifts")
	require.NoError(t, err)
	require.Len(t, shifts, 2)
	assert.Equal(t, "2026-02-10", shifts[1][0])
}

type failingSource struct{}

func (failingSource) GetSchedule(context.Context, string, string) (model.MultiDayScheduleData, error) {
	return nil, errors.New("db down")
}

func (failingSource) ListStatuses(context.Context) ([]model.PatientStatus, error) {
	return nil, nil
}

type countingCleaner struct{ cutoff string }

func (c *countingCleaner) DeleteScheduleBefore(_ context.Context, date string) (int64, error) {
	c.cutoff = date
	return 2, nil
}

func TestCleanupRunsWhenExportFails(t *testing.T) {
	dir := t.TempDir()
	cleaner := &countingCleaner{}
	svc := NewService(Config{Dir: dir, RetentionDays: 10}, failingSource{}, cleaner, nil)
	svc.now = func() time.Time { return time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC) }

	svc.RunExportAndCleanup(context.Background())

	assert.Equal(t, "2026-03-01", cleaner.cutoff)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCleanupDisabledWithoutRetention(t *testing.T) {
	cleaner := &countingCleaner{}
	svc := NewService(Config{Dir: t.TempDir()}, failingSource{}, cleaner, nil)
	n, err := svc.Cleanup(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, cleaner.cutoff)
}

func TestStartStop(t *testing.T) {
	svc := NewService(Config{Dir: t.TempDir()}, failingSource{}, nil, nil)
	svc.Start()
	svc.Start()
	svc.Stop()
	svc.Stop()
}
