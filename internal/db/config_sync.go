package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"clinicgrid/internal/config"
)

// SyncClinicConfig applies clinic.yaml to the catalogue tables. Cabinets and
// doctors are upserted, rows missing from the file are deactivated and the
// status taxonomy is replaced.
func (db *DB) SyncClinicConfig(ctx context.Context, cfg *config.ClinicConfig) error {
	if cfg == nil {
		return fmt.Errorf("clinic config is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now()

	cabinetIDs := make([]any, 0, len(cfg.Cabinets))
	for _, cab := range cfg.Cabinets {
		// Preserve created_at if the cabinet already exists.
		_, err := tx.ExecContext(ctx, `
			INSERT INTO cabinets (id, name, color, is_active, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				color = excluded.color,
				is_active = excluded.is_active,
				updated_at = excluded.updated_at`,
			cab.ID, cab.Name, cab.Color, cab.IsActive, now, now)
		if err != nil {
			return fmt.Errorf("sync cabinet %d: %w", cab.ID, err)
		}
		cabinetIDs = append(cabinetIDs, cab.ID)
	}
	if err := deactivateMissing(ctx, tx, "cabinets", cabinetIDs, now); err != nil {
		return err
	}

	doctorIDs := make([]any, 0, len(cfg.Doctors))
	for _, d := range cfg.Doctors {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO doctors (id, name, specialty, role, is_active, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				specialty = excluded.specialty,
				role = excluded.role,
				is_active = excluded.is_active,
				updated_at = excluded.updated_at`,
			d.ID, d.Name, d.Specialty, d.Role, d.IsActive, now, now)
		if err != nil {
			return fmt.Errorf("sync doctor %d: %w", d.ID, err)
		}
		doctorIDs = append(doctorIDs, d.ID)
	}
	if err := deactivateMissing(ctx, tx, "doctors", doctorIDs, now); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM patient_statuses`); err != nil {
		return fmt.Errorf("reset statuses: %w", err)
	}
	for i, s := range cfg.StatusTaxonomy() {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO patient_statuses (code, title, color, sort_order) VALUES (?, ?, ?, ?)`,
			s.Code, s.Title, s.Color, i)
		if err != nil {
			return fmt.Errorf("sync status %s: %w", s.Code, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	db.logger.Info().Str("summary", cfg.String()).Msg("clinic catalogue synced")
	return nil
}

func deactivateMissing(ctx context.Context, tx *sql.Tx, table string, keep []any, now time.Time) error {
	query := fmt.Sprintf(`UPDATE %s SET is_active = 0, updated_at = ? WHERE is_active = 1`, table)
	args := []any{now}
	if len(keep) > 0 {
		query += ` AND id NOT IN (?` + strings.Repeat(",?", len(keep)-1) + `)`
		args = append(args, keep...)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("deactivate missing %s: %w", table, err)
	}
	return nil
}
