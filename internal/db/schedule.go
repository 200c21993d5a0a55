package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"clinicgrid/internal/model"
	"clinicgrid/internal/schedule"
)

// GetSchedule returns the stored days between from and to inclusive. Days
// that were never written are absent from the result.
func (db *DB) GetSchedule(ctx context.Context, from, to string) (model.MultiDayScheduleData, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT date, data FROM schedule_days
		WHERE date BETWEEN ? AND ?
		ORDER BY date`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := model.MultiDayScheduleData{}
	for rows.Next() {
		var date, raw string
		if err := rows.Scan(&date, &raw); err != nil {
			return nil, err
		}
		var day model.ScheduleData
		if err := json.Unmarshal([]byte(raw), &day); err != nil {
			return nil, fmt.Errorf("decode schedule %s: %w", date, err)
		}
		out[date] = day
	}
	return out, rows.Err()
}

// PutSchedule replaces every day present in data. Other days are left
// untouched. Last write wins.
func (db *DB) PutSchedule(ctx context.Context, data model.MultiDayScheduleData) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := putDays(ctx, tx, data); err != nil {
		return err
	}
	return tx.Commit()
}

// MoveVisit relocates one visit inside a single transaction, touching only
// the two affected days.
func (db *DB) MoveVisit(ctx context.Context, m schedule.Move) (model.Visit, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return model.Visit{}, err
	}
	defer func() { _ = tx.Rollback() }()

	blob := model.MultiDayScheduleData{}
	for _, date := range []string{m.FromDate, m.ToDate} {
		if _, ok := blob[date]; ok {
			continue
		}
		day, err := getDay(ctx, tx, date)
		if err != nil {
			return model.Visit{}, err
		}
		blob[date] = day
	}

	moved, err := schedule.ApplyMove(blob, m)
	if err != nil {
		return model.Visit{}, err
	}
	if err := putDays(ctx, tx, blob); err != nil {
		return model.Visit{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Visit{}, err
	}
	return moved, nil
}

func getDay(ctx context.Context, tx *sql.Tx, date string) (model.ScheduleData, error) {
	var raw string
	err := tx.QueryRowContext(ctx, `SELECT data FROM schedule_days WHERE date = ?`, date).Scan(&raw)
	if err == sql.ErrNoRows {
		return model.ScheduleData{}, fmt.Errorf("%s: %w", date, schedule.ErrDateNotFound)
	}
	if err != nil {
		return model.ScheduleData{}, err
	}
	var day model.ScheduleData
	if err := json.Unmarshal([]byte(raw), &day); err != nil {
		return model.ScheduleData{}, fmt.Errorf("decode schedule %s: %w", date, err)
	}
	return day, nil
}

func putDays(ctx context.Context, tx *sql.Tx, data model.MultiDayScheduleData) error {
	now := time.Now()
	for date, day := range data {
		if _, err := model.ParseDate(date); err != nil {
			return fmt.Errorf("schedule key %q: %w", date, err)
		}
		raw, err := json.Marshal(day)
		if err != nil {
			return fmt.Errorf("encode schedule %s: %w", date, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO schedule_days (date, data, updated_at)
			VALUES (?, ?, ?)
			ON CONFLICT(date) DO UPDATE SET
				data = excluded.data,
				updated_at = excluded.updated_at`,
			date, string(raw), now)
		if err != nil {
			return fmt.Errorf("write schedule %s: %w", date, err)
		}
	}
	return nil
}

// DeleteScheduleBefore removes stored days strictly before date.
func (db *DB) DeleteScheduleBefore(ctx context.Context, date string) (int64, error) {
	if _, err := model.ParseDate(date); err != nil {
		return 0, err
	}
	res, err := db.ExecContext(ctx, `DELETE FROM schedule_days WHERE date < ?`, date)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
