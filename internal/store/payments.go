package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"rxdesk/m/domain"
)

const paymentColumns = `id, patient_id, prescription_id, amount, method, status, notes, created_at`

func (q *Queries) CreatePayment(ctx context.Context, p *domain.Payment) error {
	p.CreatedAt = q.Now()
	id, err := q.insert(ctx, `INSERT INTO payments (patient_id, prescription_id, amount, method, status, notes, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.PatientID, p.PrescriptionID, p.Amount, p.Method, p.Status, p.Notes, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	p.ID = id
	return nil
}

// GetPayment returns nil when the payment does not exist.
func (q *Queries) GetPayment(ctx context.Context, id int64) (*domain.Payment, error) {
	p, err := getOne[domain.Payment](ctx, q, `SELECT `+paymentColumns+` FROM payments WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return p, nil
}

// RefundPayment flips a completed payment to refunded. It returns nil when no
// completed payment has that id.
func (q *Queries) RefundPayment(ctx context.Context, id int64) (*domain.Payment, error) {
	p, err := getOne[domain.Payment](ctx, q, `UPDATE payments SET status = ? WHERE id = ? AND status = ? RETURNING `+paymentColumns,
		domain.PaymentRefunded, id, domain.PaymentCompleted)
	if err != nil {
		return nil, fmt.Errorf("refund payment: %w", err)
	}
	return p, nil
}

// PaymentFilter narrows ListPayments. From is inclusive, To exclusive.
type PaymentFilter struct {
	PatientID int64
	From      *time.Time
	To        *time.Time
}

func (q *Queries) ListPayments(ctx context.Context, f PaymentFilter, page Page) ([]domain.Payment, int, error) {
	page = page.Normalize()
	var (
		clauses []string
		args    []any
	)
	if f.PatientID != 0 {
		clauses = append(clauses, `patient_id = ?`)
		args = append(args, f.PatientID)
	}
	if f.From != nil {
		clauses = append(clauses, `created_at >= ?`)
		args = append(args, f.From.UTC())
	}
	if f.To != nil {
		clauses = append(clauses, `created_at < ?`)
		args = append(args, f.To.UTC())
	}
	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}

	var total int
	if err := q.get(ctx, &total, `SELECT COUNT(*) FROM payments`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count payments: %w", err)
	}
	payments := []domain.Payment{}
	args = append(args, page.Limit, page.Offset)
	if err := q.selectAll(ctx, &payments, `SELECT `+paymentColumns+` FROM payments`+where+` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, args...); err != nil {
		return nil, 0, fmt.Errorf("list payments: %w", err)
	}
	return payments, total, nil
}

// PatientHasPayments reports whether any payment references the patient.
func (q *Queries) PatientHasPayments(ctx context.Context, patientID int64) (bool, error) {
	var n int
	if err := q.get(ctx, &n, `SELECT COUNT(*) FROM payments WHERE patient_id = ?`, patientID); err != nil {
		return false, fmt.Errorf("patient payments: %w", err)
	}
	return n > 0, nil
}
