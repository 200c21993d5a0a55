package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"clinicgrid/internal/model"
)

// ListCabinets returns cabinets ordered by id; inactive ones only when
// includeInactive is set.
func (db *DB) ListCabinets(ctx context.Context, includeInactive bool) ([]model.CabinetInfo, error) {
	query := `SELECT id, name, color, is_active FROM cabinets`
	if !includeInactive {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY id`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cabinets := []model.CabinetInfo{}
	for rows.Next() {
		var c model.CabinetInfo
		if err := rows.Scan(&c.ID, &c.Name, &c.Color, &c.IsActive); err != nil {
			return nil, err
		}
		cabinets = append(cabinets, c)
	}
	return cabinets, rows.Err()
}

// ListDoctors returns active staff ordered by name.
func (db *DB) ListDoctors(ctx context.Context) ([]model.Doctor, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, name, COALESCE(specialty, ''), role, is_active
		FROM doctors
		WHERE is_active = 1
		ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	doctors := []model.Doctor{}
	for rows.Next() {
		var d model.Doctor
		if err := rows.Scan(&d.ID, &d.Name, &d.Specialty, &d.Role, &d.IsActive); err != nil {
			return nil, err
		}
		doctors = append(doctors, d)
	}
	return doctors, rows.Err()
}

// ListStatuses returns the configured taxonomy, or the built-in one when
// nothing was synced yet.
func (db *DB) ListStatuses(ctx context.Context) ([]model.PatientStatus, error) {
	rows, err := db.QueryContext(ctx, `SELECT code, title, color FROM patient_statuses ORDER BY sort_order`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var statuses []model.PatientStatus
	for rows.Next() {
		var s model.PatientStatus
		if err := rows.Scan(&s.Code, &s.Title, &s.Color); err != nil {
			return nil, err
		}
		statuses = append(statuses, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(statuses) == 0 {
		return append([]model.PatientStatus(nil), model.DefaultStatuses...), nil
	}
	return statuses, nil
}

// likeEscaper makes LIKE wildcards in user input match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// ListPatients returns patients whose name or phone contains query, newest
// first. An empty query lists everyone up to limit.
func (db *DB) ListPatients(ctx context.Context, query string, limit int) ([]model.Patient, error) {
	if limit <= 0 {
		limit = 100
	}
	like := "%" + likeEscaper.Replace(query) + "%"
	rows, err := db.QueryContext(ctx, `
		SELECT id, full_name, COALESCE(phone, ''), COALESCE(birth_date, ''), COALESCE(note, ''), created_at
		FROM patients
		WHERE ? = '' OR full_name LIKE ? ESCAPE '\' OR phone LIKE ? ESCAPE '\'
		ORDER BY id DESC
		LIMIT ?`, query, like, like, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	patients := []model.Patient{}
	for rows.Next() {
		var p model.Patient
		if err := rows.Scan(&p.ID, &p.FullName, &p.Phone, &p.BirthDate, &p.Note, &p.CreatedAt); err != nil {
			return nil, err
		}
		patients = append(patients, p)
	}
	return patients, rows.Err()
}

// GetPatient returns one patient or ErrNotFound.
func (db *DB) GetPatient(ctx context.Context, id int64) (*model.Patient, error) {
	var p model.Patient
	err := db.QueryRowContext(ctx, `
		SELECT id, full_name, COALESCE(phone, ''), COALESCE(birth_date, ''), COALESCE(note, ''), created_at
		FROM patients WHERE id = ?`, id).
		Scan(&p.ID, &p.FullName, &p.Phone, &p.BirthDate, &p.Note, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("patient %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePatient inserts p and sets its ID and CreatedAt.
func (db *DB) CreatePatient(ctx context.Context, p *model.Patient) error {
	now := time.Now().UTC().Truncate(time.Second)
	res, err := db.ExecContext(ctx, `
		INSERT INTO patients (full_name, phone, birth_date, note, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		p.FullName, p.Phone, p.BirthDate, p.Note, now)
	if err != nil {
		return fmt.Errorf("insert patient: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = id
	p.CreatedAt = now
	return nil
}
