package clinic

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"rxdesk/m/domain"
	"rxdesk/m/internal/store"
)

type MedicineInput struct {
	Name          string          `json:"name" validate:"required,max=200"`
	Category      string          `json:"category" validate:"required,oneof=tablet capsule syrup injection ointment drops inhaler other"`
	StockQuantity int64           `json:"stock_quantity" validate:"gte=0"`
	PricePerUnit  decimal.Decimal `json:"price_per_unit" validate:"gte=0"`
	Supplier      *string         `json:"supplier,omitempty" validate:"omitempty,max=200"`
	BatchNumber   *string         `json:"batch_number,omitempty" validate:"omitempty,max=100"`
	ExpiryDate    string          `json:"expiry_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// MedicineUpdate edits catalog fields. StockQuantity is ignored here; stock
// only moves through prescriptions and AdjustStock.
type MedicineUpdate struct {
	ID int64 `json:"id" validate:"required,gt=0"`
	MedicineInput
}

func (in MedicineInput) medicine() (*domain.Medicine, error) {
	if !domain.ValidCategory(in.Category) {
		return nil, domain.InvalidInput("unknown category %q", in.Category)
	}
	if in.PricePerUnit.IsNegative() {
		return nil, domain.InvalidInput("price_per_unit cannot be negative")
	}
	if !domain.WholeCents(in.PricePerUnit) {
		return nil, domain.InvalidInput("price_per_unit has more than %d decimal places", domain.MoneyScale)
	}
	expiry, err := parseDate(in.ExpiryDate)
	if err != nil {
		return nil, err
	}
	return &domain.Medicine{
		Name:          in.Name,
		Category:      in.Category,
		StockQuantity: in.StockQuantity,
		PricePerUnit:  in.PricePerUnit,
		Supplier:      in.Supplier,
		BatchNumber:   in.BatchNumber,
		ExpiryDate:    expiry,
	}, nil
}

func (s *Service) CreateMedicine(ctx context.Context, in MedicineInput) (*domain.Medicine, error) {
	m, err := in.medicine()
	if err != nil {
		return nil, err
	}
	if m.StockQuantity < 0 {
		return nil, domain.InvalidInput("stock_quantity cannot be negative")
	}
	if err := s.store.CreateMedicine(ctx, m); err != nil {
		return nil, err
	}
	s.log.Info().Int64("medicine_id", m.ID).Str("name", m.Name).Int64("stock", m.StockQuantity).Msg("medicine created")
	return m, nil
}

// GetMedicine returns nil when the medicine does not exist.
func (s *Service) GetMedicine(ctx context.Context, id int64) (*domain.Medicine, error) {
	return s.store.GetMedicine(ctx, id)
}

func (s *Service) UpdateMedicine(ctx context.Context, in MedicineUpdate) (*domain.Medicine, error) {
	m, err := in.medicine()
	if err != nil {
		return nil, err
	}
	m.ID = in.ID
	updated, err := s.store.UpdateMedicine(ctx, m)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, domain.NotFound("medicine", in.ID)
	}
	return updated, nil
}

// DeleteMedicine removes a medicine that no prescription item references.
func (s *Service) DeleteMedicine(ctx context.Context, id int64) error {
	return s.store.InTx(ctx, func(q *store.Queries) error {
		used, err := q.MedicineReferenced(ctx, id)
		if err != nil {
			return err
		}
		if used {
			return domain.ConflictError("medicine is referenced by prescriptions")
		}
		deleted, err := q.DeleteMedicine(ctx, id)
		if err != nil {
			return err
		}
		if !deleted {
			return domain.NotFound("medicine", id)
		}
		return nil
	})
}

type StockAdjustment struct {
	ID    int64 `json:"id" validate:"required,gt=0"`
	Delta int64 `json:"delta" validate:"required"`
}

// AdjustStock applies a restock (positive delta) or correction (negative).
// Stock never drops below zero.
func (s *Service) AdjustStock(ctx context.Context, in StockAdjustment) (*domain.Medicine, error) {
	var updated *domain.Medicine
	err := s.store.InTx(ctx, func(q *store.Queries) error {
		m, err := q.AdjustStock(ctx, in.ID, in.Delta)
		if err != nil {
			return err
		}
		if m != nil {
			updated = m
			return nil
		}
		current, err := q.GetMedicine(ctx, in.ID)
		if err != nil {
			return err
		}
		if current == nil {
			return domain.NotFound("medicine", in.ID)
		}
		return &domain.InsufficientStockError{MedicineID: in.ID, Available: current.StockQuantity, Requested: -in.Delta}
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Int64("medicine_id", updated.ID).Int64("delta", in.Delta).Int64("stock", updated.StockQuantity).Msg("stock adjusted")
	return updated, nil
}

type MedicineQuery struct {
	Query    string `json:"query" validate:"max=100"`
	Category string `json:"category" validate:"omitempty,oneof=tablet capsule syrup injection ointment drops inhaler other"`
	Limit    int    `json:"limit" validate:"gte=0,lte=100"`
	Offset   int    `json:"offset" validate:"gte=0"`
}

func (s *Service) SearchMedicines(ctx context.Context, in MedicineQuery) (Paged[domain.Medicine], error) {
	page := store.Page{Limit: in.Limit, Offset: in.Offset}.Normalize()
	list, total, err := s.store.SearchMedicines(ctx, store.MedicineFilter{Query: in.Query, Category: in.Category}, page)
	if err != nil {
		return Paged[domain.Medicine]{}, err
	}
	return newPaged(list, total, page), nil
}

// LowStock lists medicines at or below threshold, or the configured default
// when threshold is nil.
func (s *Service) LowStock(ctx context.Context, threshold *int64) ([]domain.Medicine, error) {
	limit := s.lowStockThreshold
	if threshold != nil {
		limit = *threshold
	}
	return s.store.LowStock(ctx, limit)
}

// Expiring lists medicines whose expiry date falls within days of asOf.
func (s *Service) Expiring(ctx context.Context, asOf time.Time, days int) ([]domain.Medicine, error) {
	if days <= 0 {
		days = 30
	}
	return s.store.ExpiringBefore(ctx, asOf.AddDate(0, 0, days))
}
