package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"rxdesk/m/domain"
)

const medicineColumns = `id, name, category, stock_quantity, price_per_unit, supplier, batch_number, expiry_date, created_at, updated_at`

func (q *Queries) CreateMedicine(ctx context.Context, m *domain.Medicine) error {
	m.CreatedAt = q.Now()
	m.UpdatedAt = m.CreatedAt
	id, err := q.insert(ctx, `INSERT INTO medicines (name, category, stock_quantity, price_per_unit, supplier, batch_number, expiry_date, created_at, updated_at)
                VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.Name, m.Category, m.StockQuantity, m.PricePerUnit, m.Supplier, m.BatchNumber, m.ExpiryDate, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert medicine: %w", err)
	}
	m.ID = id
	return nil
}

// GetMedicine returns nil when the medicine does not exist.
func (q *Queries) GetMedicine(ctx context.Context, id int64) (*domain.Medicine, error) {
	m, err := getOne[domain.Medicine](ctx, q, `SELECT `+medicineColumns+` FROM medicines WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("get medicine: %w", err)
	}
	return m, nil
}

// MedicineNameExists is used by the catalog import to skip duplicates.
func (q *Queries) MedicineNameExists(ctx context.Context, name string) (bool, error) {
	var n int
	if err := q.get(ctx, &n, `SELECT COUNT(*) FROM medicines WHERE LOWER(name) = ?`, strings.ToLower(name)); err != nil {
		return false, fmt.Errorf("lookup medicine name: %w", err)
	}
	return n > 0, nil
}

// UpdateMedicine overwrites the catalog fields. Stock is only changed through
// DecrementStock and AdjustStock.
func (q *Queries) UpdateMedicine(ctx context.Context, m *domain.Medicine) (*domain.Medicine, error) {
	updated, err := getOne[domain.Medicine](ctx, q, `UPDATE medicines
                SET name = ?, category = ?, price_per_unit = ?, supplier = ?, batch_number = ?, expiry_date = ?, updated_at = ?
                WHERE id = ?
                RETURNING `+medicineColumns,
		m.Name, m.Category, m.PricePerUnit, m.Supplier, m.BatchNumber, m.ExpiryDate, q.Now(), m.ID)
	if err != nil {
		return nil, fmt.Errorf("update medicine: %w", err)
	}
	return updated, nil
}

func (q *Queries) DeleteMedicine(ctx context.Context, id int64) (bool, error) {
	n, err := q.exec(ctx, `DELETE FROM medicines WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete medicine: %w", err)
	}
	return n > 0, nil
}

// DecrementStock takes qty units off the medicine's stock only if enough is
// on hand. It reports false when the guard rejected the update.
func (q *Queries) DecrementStock(ctx context.Context, id, qty int64) (bool, error) {
	n, err := q.exec(ctx, `UPDATE medicines SET stock_quantity = stock_quantity - ?, updated_at = ?
                WHERE id = ? AND stock_quantity >= ?`, qty, q.Now(), id, qty)
	if err != nil {
		return false, fmt.Errorf("decrement stock: %w", err)
	}
	return n > 0, nil
}

// AdjustStock applies delta (restock or correction) and returns the updated
// row. It returns nil when the medicine is missing or the result would be
// negative; callers distinguish the two with GetMedicine.
func (q *Queries) AdjustStock(ctx context.Context, id, delta int64) (*domain.Medicine, error) {
	m, err := getOne[domain.Medicine](ctx, q, `UPDATE medicines SET stock_quantity = stock_quantity + ?, updated_at = ?
                WHERE id = ? AND stock_quantity + ? >= 0
                RETURNING `+medicineColumns, delta, q.Now(), id, delta)
	if err != nil {
		return nil, fmt.Errorf("adjust stock: %w", err)
	}
	return m, nil
}

// MedicineFilter narrows SearchMedicines.
type MedicineFilter struct {
	Query    string
	Category string
}

func (q *Queries) SearchMedicines(ctx context.Context, f MedicineFilter, page Page) ([]domain.Medicine, int, error) {
	page = page.Normalize()
	var (
		clauses []string
		args    []any
	)
	if query := strings.ToLower(strings.TrimSpace(f.Query)); query != "" {
		like := likePattern(query)
		clauses = append(clauses, `(LOWER(name) LIKE ? OR LOWER(COALESCE(supplier, '')) LIKE ?)`)
		args = append(args, like, like)
	}
	if f.Category != "" {
		clauses = append(clauses, `category = ?`)
		args = append(args, f.Category)
	}
	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}

	var total int
	if err := q.get(ctx, &total, `SELECT COUNT(*) FROM medicines`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count medicines: %w", err)
	}
	medicines := []domain.Medicine{}
	args = append(args, page.Limit, page.Offset)
	if err := q.selectAll(ctx, &medicines, `SELECT `+medicineColumns+` FROM medicines`+where+` ORDER BY name, id LIMIT ? OFFSET ?`, args...); err != nil {
		return nil, 0, fmt.Errorf("search medicines: %w", err)
	}
	return medicines, total, nil
}

// LowStock lists medicines at or below threshold, lowest stock first.
func (q *Queries) LowStock(ctx context.Context, threshold int64) ([]domain.Medicine, error) {
	medicines := []domain.Medicine{}
	if err := q.selectAll(ctx, &medicines, `SELECT `+medicineColumns+` FROM medicines WHERE stock_quantity <= ? ORDER BY stock_quantity, name`, threshold); err != nil {
		return nil, fmt.Errorf("low stock: %w", err)
	}
	return medicines, nil
}

// ExpiringBefore lists medicines with an expiry date at or before cutoff.
func (q *Queries) ExpiringBefore(ctx context.Context, cutoff time.Time) ([]domain.Medicine, error) {
	medicines := []domain.Medicine{}
	if err := q.selectAll(ctx, &medicines, `SELECT `+medicineColumns+` FROM medicines
                WHERE expiry_date IS NOT NULL AND expiry_date <= ?
                ORDER BY expiry_date ASC`, cutoff.UTC()); err != nil {
		return nil, fmt.Errorf("expiring medicines: %w", err)
	}
	return medicines, nil
}

// MedicineReferenced reports whether any prescription item uses the medicine.
func (q *Queries) MedicineReferenced(ctx context.Context, id int64) (bool, error) {
	var n int
	if err := q.get(ctx, &n, `SELECT COUNT(*) FROM prescription_items WHERE medicine_id = ?`, id); err != nil {
		return false, fmt.Errorf("medicine references: %w", err)
	}
	return n > 0, nil
}

func (q *Queries) CountMedicines(ctx context.Context) (int, error) {
	var n int
	if err := q.get(ctx, &n, `SELECT COUNT(*) FROM medicines`); err != nil {
		return 0, fmt.Errorf("count medicines: %w", err)
	}
	return n, nil
}
