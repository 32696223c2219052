package store

import (
	"context"
	"fmt"
	"strings"

	"rxdesk/m/domain"
)

const (
	prescriptionColumns = `id, patient_id, doctor_id, status, notes, created_at, updated_at`
	itemColumns         = `id, prescription_id, medicine_id, quantity_prescribed, quantity_filled, dosage_instructions`
)

func (q *Queries) CreatePrescription(ctx context.Context, p *domain.Prescription) error {
	p.CreatedAt = q.Now()
	p.UpdatedAt = p.CreatedAt
	id, err := q.insert(ctx, `INSERT INTO prescriptions (patient_id, doctor_id, status, notes, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		p.PatientID, p.DoctorID, p.Status, p.Notes, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert prescription: %w", err)
	}
	p.ID = id
	return nil
}

func (q *Queries) CreatePrescriptionItem(ctx context.Context, it *domain.PrescriptionItem) error {
	id, err := q.insert(ctx, `INSERT INTO prescription_items (prescription_id, medicine_id, quantity_prescribed, quantity_filled, dosage_instructions) VALUES (?, ?, ?, ?, ?)`,
		it.PrescriptionID, it.MedicineID, it.QuantityPrescribed, it.QuantityFilled, it.DosageInstructions)
	if err != nil {
		return fmt.Errorf("insert prescription item: %w", err)
	}
	it.ID = id
	return nil
}

// GetPrescription returns nil when the prescription does not exist.
func (q *Queries) GetPrescription(ctx context.Context, id int64) (*domain.Prescription, error) {
	p, err := getOne[domain.Prescription](ctx, q, `SELECT `+prescriptionColumns+` FROM prescriptions WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("get prescription: %w", err)
	}
	return p, nil
}

// LockPrescription bumps updated_at, which takes the row's write lock for the
// rest of the transaction. It reports false when the row is missing.
func (q *Queries) LockPrescription(ctx context.Context, id int64) (bool, error) {
	n, err := q.exec(ctx, `UPDATE prescriptions SET updated_at = ? WHERE id = ?`, q.Now(), id)
	if err != nil {
		return false, fmt.Errorf("lock prescription: %w", err)
	}
	return n > 0, nil
}

// SetPrescriptionStatus stores status and returns the updated row, or nil when
// the prescription does not exist.
func (q *Queries) SetPrescriptionStatus(ctx context.Context, id int64, status string) (*domain.Prescription, error) {
	p, err := getOne[domain.Prescription](ctx, q, `UPDATE prescriptions SET status = ?, updated_at = ? WHERE id = ? RETURNING `+prescriptionColumns,
		status, q.Now(), id)
	if err != nil {
		return nil, fmt.Errorf("set prescription status: %w", err)
	}
	return p, nil
}

// GetPrescriptionItem returns nil when the item does not exist.
func (q *Queries) GetPrescriptionItem(ctx context.Context, id int64) (*domain.PrescriptionItem, error) {
	it, err := getOne[domain.PrescriptionItem](ctx, q, `SELECT `+itemColumns+` FROM prescription_items WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("get prescription item: %w", err)
	}
	return it, nil
}

// SetItemFilled stores a new quantity_filled and returns the updated row.
func (q *Queries) SetItemFilled(ctx context.Context, id, filled int64) (*domain.PrescriptionItem, error) {
	it, err := getOne[domain.PrescriptionItem](ctx, q, `UPDATE prescription_items SET quantity_filled = ? WHERE id = ? RETURNING `+itemColumns,
		filled, id)
	if err != nil {
		return nil, fmt.Errorf("update prescription item: %w", err)
	}
	return it, nil
}

// ListPrescriptionItems returns a prescription's items in creation order.
func (q *Queries) ListPrescriptionItems(ctx context.Context, prescriptionID int64) ([]domain.PrescriptionItem, error) {
	items := []domain.PrescriptionItem{}
	if err := q.selectAll(ctx, &items, `SELECT `+itemColumns+` FROM prescription_items WHERE prescription_id = ? ORDER BY id`, prescriptionID); err != nil {
		return nil, fmt.Errorf("list prescription items: %w", err)
	}
	return items, nil
}

// ItemDetail is a prescription item joined with its medicine.
type ItemDetail struct {
	domain.PrescriptionItem
	MedicineName string `db:"medicine_name" json:"medicine_name"`
	Category     string `db:"category" json:"category"`
}

func (q *Queries) ListItemDetails(ctx context.Context, prescriptionID int64) ([]ItemDetail, error) {
	items := []ItemDetail{}
	if err := q.selectAll(ctx, &items, `SELECT pi.id, pi.prescription_id, pi.medicine_id, pi.quantity_prescribed, pi.quantity_filled, pi.dosage_instructions,
                m.name AS medicine_name, m.category
                FROM prescription_items pi
                JOIN medicines m ON m.id = pi.medicine_id
                WHERE pi.prescription_id = ?
                ORDER BY pi.id`, prescriptionID); err != nil {
		return nil, fmt.Errorf("list prescription item details: %w", err)
	}
	return items, nil
}

// PrescriptionFilter narrows ListPrescriptions; zero values match everything.
type PrescriptionFilter struct {
	PatientID int64
	DoctorID  int64
	Status    string
}

func (q *Queries) ListPrescriptions(ctx context.Context, f PrescriptionFilter, page Page) ([]domain.Prescription, int, error) {
	page = page.Normalize()
	var (
		clauses []string
		args    []any
	)
	if f.PatientID != 0 {
		clauses = append(clauses, `patient_id = ?`)
		args = append(args, f.PatientID)
	}
	if f.DoctorID != 0 {
		clauses = append(clauses, `doctor_id = ?`)
		args = append(args, f.DoctorID)
	}
	if f.Status != "" {
		clauses = append(clauses, `status = ?`)
		args = append(args, f.Status)
	}
	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}

	var total int
	if err := q.get(ctx, &total, `SELECT COUNT(*) FROM prescriptions`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count prescriptions: %w", err)
	}
	list := []domain.Prescription{}
	args = append(args, page.Limit, page.Offset)
	if err := q.selectAll(ctx, &list, `SELECT `+prescriptionColumns+` FROM prescriptions`+where+` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, args...); err != nil {
		return nil, 0, fmt.Errorf("list prescriptions: %w", err)
	}
	return list, total, nil
}

// PatientHasPrescriptions reports whether any prescription references the patient.
func (q *Queries) PatientHasPrescriptions(ctx context.Context, patientID int64) (bool, error) {
	var n int
	if err := q.get(ctx, &n, `SELECT COUNT(*) FROM prescriptions WHERE patient_id = ?`, patientID); err != nil {
		return false, fmt.Errorf("patient prescriptions: %w", err)
	}
	return n > 0, nil
}

// CountPrescriptionsByStatus returns a count for every status, zeros included.
func (q *Queries) CountPrescriptionsByStatus(ctx context.Context) (map[string]int, error) {
	var rows []struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}
	if err := q.selectAll(ctx, &rows, `SELECT status, COUNT(*) AS count FROM prescriptions GROUP BY status`); err != nil {
		return nil, fmt.Errorf("count prescriptions by status: %w", err)
	}
	counts := map[string]int{
		domain.StatusPending:         0,
		domain.StatusPartiallyFilled: 0,
		domain.StatusFilled:          0,
	}
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}
