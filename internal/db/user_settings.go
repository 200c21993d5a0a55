package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"clinicgrid/internal/model"
)

// GetUserSettings returns the user's grid settings, or the defaults when
// none were saved.
func (db *DB) GetUserSettings(ctx context.Context, userID int64) (*model.UserSettings, error) {
	row := db.QueryRowContext(ctx, `
		SELECT enabled_cabinets, doctor_filter, day_count, compact, updated_at
		FROM user_settings
		WHERE user_id = ?`, userID)

	var (
		enabled  string
		doctor   sql.NullInt64
		settings = model.UserSettings{UserID: userID}
	)
	err := row.Scan(&enabled, &doctor, &settings.DayCount, &settings.Compact, &settings.UpdatedAt)
	if err == sql.ErrNoRows {
		defaults := model.DefaultUserSettings(userID)
		return &defaults, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(enabled), &settings.EnabledCabinets); err != nil {
		return nil, fmt.Errorf("decode enabled cabinets of user %d: %w", userID, err)
	}
	if doctor.Valid {
		id := doctor.Int64
		settings.DoctorFilter = &id
	}
	settings.Normalize()
	return &settings, nil
}

// UpsertUserSettings creates or updates the user's settings.
func (db *DB) UpsertUserSettings(ctx context.Context, s *model.UserSettings) error {
	s.Normalize()
	enabled := s.EnabledCabinets
	if enabled == nil {
		enabled = []int64{}
	}
	raw, err := json.Marshal(enabled)
	if err != nil {
		return err
	}
	var doctor sql.NullInt64
	if s.DoctorFilter != nil {
		doctor = sql.NullInt64{Int64: *s.DoctorFilter, Valid: true}
	}

	s.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	_, err = db.ExecContext(ctx, `
		INSERT INTO user_settings (user_id, enabled_cabinets, doctor_filter, day_count, compact, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			enabled_cabinets = excluded.enabled_cabinets,
			doctor_filter = excluded.doctor_filter,
			day_count = excluded.day_count,
			compact = excluded.compact,
			updated_at = excluded.updated_at`,
		s.UserID, string(raw), doctor, s.DayCount, s.Compact, s.UpdatedAt)
	return err
}
