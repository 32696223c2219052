package clinic

import (
	"context"

	"github.com/shopspring/decimal"

	"rxdesk/m/domain"
	"rxdesk/m/internal/store"
)

type PaymentInput struct {
	PatientID      int64           `json:"patient_id" validate:"required,gt=0"`
	PrescriptionID *int64          `json:"prescription_id,omitempty" validate:"omitempty,gt=0"`
	Amount         decimal.Decimal `json:"amount" validate:"gt=0"`
	Method         string          `json:"method" validate:"required,oneof=cash card insurance mobile"`
	Notes          *string         `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// CreatePayment records a completed payment for a patient, optionally against
// one of the patient's prescriptions.
func (s *Service) CreatePayment(ctx context.Context, in PaymentInput) (*domain.Payment, error) {
	if !in.Amount.IsPositive() {
		return nil, domain.InvalidInput("amount must be positive")
	}
	if !domain.WholeCents(in.Amount) {
		return nil, domain.InvalidInput("amount has more than %d decimal places", domain.MoneyScale)
	}
	p := &domain.Payment{
		PatientID:      in.PatientID,
		PrescriptionID: in.PrescriptionID,
		Amount:         in.Amount,
		Method:         in.Method,
		Status:         domain.PaymentCompleted,
		Notes:          in.Notes,
	}
	err := s.store.InTx(ctx, func(q *store.Queries) error {
		patient, err := q.GetPatient(ctx, in.PatientID)
		if err != nil {
			return err
		}
		if patient == nil {
			return domain.NotFound("patient", in.PatientID)
		}
		if in.PrescriptionID != nil {
			rx, err := q.GetPrescription(ctx, *in.PrescriptionID)
			if err != nil {
				return err
			}
			if rx == nil {
				return domain.NotFound("prescription", *in.PrescriptionID)
			}
			if rx.PatientID != in.PatientID {
				return domain.InvalidInput("prescription %d belongs to another patient", rx.ID)
			}
		}
		return q.CreatePayment(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Int64("payment_id", p.ID).Int64("patient_id", p.PatientID).Str("amount", p.Amount.StringFixed(2)).Msg("payment recorded")
	return p, nil
}

// GetPayment returns nil when the payment does not exist.
func (s *Service) GetPayment(ctx context.Context, id int64) (*domain.Payment, error) {
	return s.store.GetPayment(ctx, id)
}

// RefundPayment marks a completed payment refunded.
func (s *Service) RefundPayment(ctx context.Context, id int64) (*domain.Payment, error) {
	var refunded *domain.Payment
	err := s.store.InTx(ctx, func(q *store.Queries) error {
		p, err := q.RefundPayment(ctx, id)
		if err != nil {
			return err
		}
		if p != nil {
			refunded = p
			return nil
		}
		existing, err := q.GetPayment(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return domain.NotFound("payment", id)
		}
		return domain.ConflictError("only completed payments can be refunded")
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Int64("payment_id", id).Msg("payment refunded")
	return refunded, nil
}

type PaymentQuery struct {
	PatientID int64  `json:"patient_id" validate:"gte=0"`
	From      string `json:"from" validate:"omitempty,datetime=2006-01-02"`
	To        string `json:"to" validate:"omitempty,datetime=2006-01-02"`
	Limit     int    `json:"limit" validate:"gte=0,lte=100"`
	Offset    int    `json:"offset" validate:"gte=0"`
}

// ListPayments filters by patient and by an inclusive day range.
func (s *Service) ListPayments(ctx context.Context, in PaymentQuery) (Paged[domain.Payment], error) {
	from, err := parseDate(in.From)
	if err != nil {
		return Paged[domain.Payment]{}, err
	}
	to, err := parseDate(in.To)
	if err != nil {
		return Paged[domain.Payment]{}, err
	}
	if to != nil {
		end := to.AddDate(0, 0, 1)
		to = &end
	}
	page := store.Page{Limit: in.Limit, Offset: in.Offset}.Normalize()
	list, total, err := s.store.ListPayments(ctx, store.PaymentFilter{PatientID: in.PatientID, From: from, To: to}, page)
	if err != nil {
		return Paged[domain.Payment]{}, err
	}
	return newPaged(list, total, page), nil
}
