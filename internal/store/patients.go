package store

import (
	"context"
	"fmt"
	"strings"

	"rxdesk/m/domain"
)

const patientColumns = `id, first_name, last_name, date_of_birth, gender, phone, email, address, created_at, updated_at`

func (q *Queries) CreatePatient(ctx context.Context, p *domain.Patient) error {
	p.CreatedAt = q.Now()
	p.UpdatedAt = p.CreatedAt
	id, err := q.insert(ctx, `INSERT INTO patients (first_name, last_name, date_of_birth, gender, phone, email, address, created_at, updated_at)
                VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.FirstName, p.LastName, p.DateOfBirth, p.Gender, p.Phone, p.Email, p.Address, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert patient: %w", err)
	}
	p.ID = id
	return nil
}

// GetPatient returns nil when the patient does not exist.
func (q *Queries) GetPatient(ctx context.Context, id int64) (*domain.Patient, error) {
	p, err := getOne[domain.Patient](ctx, q, `SELECT `+patientColumns+` FROM patients WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("get patient: %w", err)
	}
	return p, nil
}

// UpdatePatient overwrites the editable fields and returns the stored row,
// or nil when no patient has p.ID.
func (q *Queries) UpdatePatient(ctx context.Context, p *domain.Patient) (*domain.Patient, error) {
	updated, err := getOne[domain.Patient](ctx, q, `UPDATE patients
                SET first_name = ?, last_name = ?, date_of_birth = ?, gender = ?, phone = ?, email = ?, address = ?, updated_at = ?
                WHERE id = ?
                RETURNING `+patientColumns,
		p.FirstName, p.LastName, p.DateOfBirth, p.Gender, p.Phone, p.Email, p.Address, q.Now(), p.ID)
	if err != nil {
		return nil, fmt.Errorf("update patient: %w", err)
	}
	return updated, nil
}

// DeletePatient reports whether a row was removed.
func (q *Queries) DeletePatient(ctx context.Context, id int64) (bool, error) {
	n, err := q.exec(ctx, `DELETE FROM patients WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete patient: %w", err)
	}
	return n > 0, nil
}

// SearchPatients matches query against names, phone and email and returns
// one page plus the total match count.
func (q *Queries) SearchPatients(ctx context.Context, query string, page Page) ([]domain.Patient, int, error) {
	page = page.Normalize()
	where := ""
	var args []any
	if query = strings.ToLower(strings.TrimSpace(query)); query != "" {
		like := likePattern(query)
		where = ` WHERE LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR COALESCE(phone, '') LIKE ? OR LOWER(COALESCE(email, '')) LIKE ?`
		args = append(args, like, like, like, like)
	}

	var total int
	if err := q.get(ctx, &total, `SELECT COUNT(*) FROM patients`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count patients: %w", err)
	}
	patients := []domain.Patient{}
	args = append(args, page.Limit, page.Offset)
	if err := q.selectAll(ctx, &patients, `SELECT `+patientColumns+` FROM patients`+where+` ORDER BY last_name, first_name, id LIMIT ? OFFSET ?`, args...); err != nil {
		return nil, 0, fmt.Errorf("search patients: %w", err)
	}
	return patients, total, nil
}

func (q *Queries) CountPatients(ctx context.Context) (int, error) {
	var n int
	if err := q.get(ctx, &n, `SELECT COUNT(*) FROM patients`); err != nil {
		return 0, fmt.Errorf("count patients: %w", err)
	}
	return n, nil
}
