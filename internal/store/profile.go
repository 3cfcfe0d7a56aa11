package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CalibrationProfile holds saved left-hand position zone boundaries. The
// bounds are upper edges of zones 1-3 in normalized screen coordinates.
type CalibrationProfile struct {
	ID        string
	Name      string
	CreatedAt time.Time
	Active    bool
	LowBound  float64
	MidBound  float64
	HighBound float64
}

// ProfileRepository provides CRUD operations for calibration profiles.
type ProfileRepository struct {
	db *sql.DB
}

// Profiles returns the calibration profile repository for this store.
func (s *Store) Profiles() *ProfileRepository {
	return &ProfileRepository{db: s.db}
}

// Create inserts a profile. A generated ID is filled in when empty.
func (r *ProfileRepository) Create(p *CalibrationProfile) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt = time.Now().UTC()

	_, err := r.db.Exec(
		`INSERT INTO calibration_profiles (id, name, created_at, is_active, low_bound, mid_bound, high_bound)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.CreatedAt, p.Active, p.LowBound, p.MidBound, p.HighBound,
	)
	return err
}

// GetByName retrieves a profile by its name.
func (r *ProfileRepository) GetByName(name string) (*CalibrationProfile, error) {
	return r.scanOne(r.db.QueryRow(
		`SELECT id, name, created_at, is_active, low_bound, mid_bound, high_bound
		 FROM calibration_profiles WHERE name = ?`,
		name,
	))
}

// Active retrieves the currently active profile.
func (r *ProfileRepository) Active() (*CalibrationProfile, error) {
	return r.scanOne(r.db.QueryRow(
		`SELECT id, name, created_at, is_active, low_bound, mid_bound, high_bound
		 FROM calibration_profiles WHERE is_active = 1 LIMIT 1`,
	))
}

// SetActive marks the given profile active and deactivates all others.
func (r *ProfileRepository) SetActive(id string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE calibration_profiles SET is_active = 0`); err != nil {
		return err
	}

	result, err := tx.Exec(`UPDATE calibration_profiles SET is_active = 1 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

// List retrieves all profiles, newest first.
func (r *ProfileRepository) List() ([]*CalibrationProfile, error) {
	rows, err := r.db.Query(
		`SELECT id, name, created_at, is_active, low_bound, mid_bound, high_bound
		 FROM calibration_profiles ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []*CalibrationProfile
	for rows.Next() {
		p := &CalibrationProfile{}
		err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt, &p.Active,
			&p.LowBound, &p.MidBound, &p.HighBound)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return profiles, nil
}

// Delete removes a profile by its ID.
func (r *ProfileRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM calibration_profiles WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *ProfileRepository) scanOne(row *sql.Row) (*CalibrationProfile, error) {
	p := &CalibrationProfile{}
	err := row.Scan(&p.ID, &p.Name, &p.CreatedAt, &p.Active,
		&p.LowBound, &p.MidBound, &p.HighBound)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan profile: %w", err)
	}
	return p, nil
}
