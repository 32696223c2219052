package store

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentRow is a completed payment with the prescribing doctor, when any.
type PaymentRow struct {
	ID         int64           `db:"id"`
	Amount     decimal.Decimal `db:"amount"`
	CreatedAt  time.Time       `db:"created_at"`
	DoctorID   *int64          `db:"doctor_id"`
	DoctorName *string         `db:"doctor_name"`
}

// CompletedPayments returns completed payments created in [from, to).
func (q *Queries) CompletedPayments(ctx context.Context, from, to time.Time) ([]PaymentRow, error) {
	rows := []PaymentRow{}
	err := q.selectAll(ctx, &rows, `SELECT pay.id, pay.amount, pay.created_at, pr.doctor_id, u.username AS doctor_name
                FROM payments pay
                LEFT JOIN prescriptions pr ON pr.id = pay.prescription_id
                LEFT JOIN users u ON u.id = pr.doctor_id
                WHERE pay.status = 'completed' AND pay.created_at >= ? AND pay.created_at < ?
                ORDER BY pay.created_at`, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("completed payments: %w", err)
	}
	return rows, nil
}

// DispensedRow is one prescription item with its medicine and the date of the
// prescription it belongs to.
type DispensedRow struct {
	MedicineID     int64           `db:"medicine_id"`
	MedicineName   string          `db:"medicine_name"`
	Category       string          `db:"category"`
	PricePerUnit   decimal.Decimal `db:"price_per_unit"`
	QuantityFilled int64           `db:"quantity_filled"`
	CreatedAt      time.Time       `db:"created_at"`
}

// DispensedItems returns items with something filled on prescriptions created
// in [from, to).
func (q *Queries) DispensedItems(ctx context.Context, from, to time.Time) ([]DispensedRow, error) {
	rows := []DispensedRow{}
	err := q.selectAll(ctx, &rows, `SELECT pi.medicine_id, m.name AS medicine_name, m.category, m.price_per_unit, pi.quantity_filled, pr.created_at
                FROM prescription_items pi
                JOIN prescriptions pr ON pr.id = pi.prescription_id
                JOIN medicines m ON m.id = pi.medicine_id
                WHERE pi.quantity_filled > 0 AND pr.created_at >= ? AND pr.created_at < ?
                ORDER BY pr.created_at`, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("dispensed items: %w", err)
	}
	return rows, nil
}

// MedicineUsage is the dispensed quantity of one medicine.
type MedicineUsage struct {
	MedicineID int64  `db:"medicine_id" json:"medicine_id"`
	Name       string `db:"name" json:"name"`
	Quantity   int64  `db:"quantity" json:"quantity"`
}

// UsageByMedicine sums quantity_filled per medicine over prescriptions created
// in [from, to), largest first.
func (q *Queries) UsageByMedicine(ctx context.Context, from, to time.Time) ([]MedicineUsage, error) {
	rows := []MedicineUsage{}
	err := q.selectAll(ctx, &rows, `SELECT m.id AS medicine_id, m.name, SUM(pi.quantity_filled) AS quantity
                FROM prescription_items pi
                JOIN prescriptions pr ON pr.id = pi.prescription_id
                JOIN medicines m ON m.id = pi.medicine_id
                WHERE pi.quantity_filled > 0 AND pr.created_at >= ? AND pr.created_at < ?
                GROUP BY m.id, m.name
                ORDER BY quantity DESC, m.name`, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("usage by medicine: %w", err)
	}
	return rows, nil
}

// CategoryUsage is the dispensed quantity of one medicine category.
type CategoryUsage struct {
	Category string `db:"category" json:"category"`
	Quantity int64  `db:"quantity" json:"quantity"`
}

func (q *Queries) UsageByCategory(ctx context.Context, from, to time.Time) ([]CategoryUsage, error) {
	rows := []CategoryUsage{}
	err := q.selectAll(ctx, &rows, `SELECT m.category, SUM(pi.quantity_filled) AS quantity
                FROM prescription_items pi
                JOIN prescriptions pr ON pr.id = pi.prescription_id
                JOIN medicines m ON m.id = pi.medicine_id
                WHERE pi.quantity_filled > 0 AND pr.created_at >= ? AND pr.created_at < ?
                GROUP BY m.category
                ORDER BY quantity DESC, m.category`, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("usage by category: %w", err)
	}
	return rows, nil
}
