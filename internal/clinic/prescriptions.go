package clinic

import (
	"context"

	"rxdesk/m/domain"
	"rxdesk/m/internal/store"
)

type PrescriptionItemInput struct {
	MedicineID         int64   `json:"medicine_id" validate:"required,gt=0"`
	QuantityPrescribed int64   `json:"quantity_prescribed" validate:"required,gt=0"`
	DosageInstructions *string `json:"dosage_instructions,omitempty" validate:"omitempty,max=500"`
}

type PrescriptionInput struct {
	PatientID int64                   `json:"patient_id" validate:"required,gt=0"`
	DoctorID  int64                   `json:"doctor_id" validate:"required,gt=0"`
	Notes     *string                 `json:"notes,omitempty" validate:"omitempty,max=2000"`
	Items     []PrescriptionItemInput `json:"items" validate:"required,min=1,dive"`
}

// CreatePrescription checks the patient, the prescribing doctor and stock for
// every line, then writes the prescription, its items and the stock
// decrements in one transaction. Nothing is persisted when any check fails.
func (s *Service) CreatePrescription(ctx context.Context, in PrescriptionInput) (*domain.Prescription, error) {
	if len(in.Items) == 0 {
		return nil, domain.ErrEmptyPrescription
	}
	// Lines naming the same medicine draw on one stock figure, so they are
	// checked and decremented as a combined total.
	requested := make(map[int64]int64, len(in.Items))
	var order []int64
	for _, it := range in.Items {
		if it.QuantityPrescribed <= 0 {
			return nil, domain.InvalidInput("quantity_prescribed must be positive")
		}
		if _, seen := requested[it.MedicineID]; !seen {
			order = append(order, it.MedicineID)
		}
		requested[it.MedicineID] += it.QuantityPrescribed
	}

	var created *domain.Prescription
	err := s.store.InTx(ctx, func(q *store.Queries) error {
		patient, err := q.GetPatient(ctx, in.PatientID)
		if err != nil {
			return err
		}
		if patient == nil {
			return domain.NotFound("patient", in.PatientID)
		}
		doctor, err := q.GetUser(ctx, in.DoctorID)
		if err != nil {
			return err
		}
		if doctor == nil {
			return domain.NotFound("doctor", in.DoctorID)
		}
		if doctor.Role != domain.RoleDoctor {
			return domain.ErrInvalidRole
		}

		for _, id := range order {
			m, err := q.GetMedicine(ctx, id)
			if err != nil {
				return err
			}
			if m == nil {
				return domain.NotFound("medicine", id)
			}
			if m.StockQuantity < requested[id] {
				return &domain.InsufficientStockError{MedicineID: id, Available: m.StockQuantity, Requested: requested[id]}
			}
		}

		p := &domain.Prescription{
			PatientID: in.PatientID,
			DoctorID:  in.DoctorID,
			Status:    domain.StatusPending,
			Notes:     in.Notes,
		}
		if err := q.CreatePrescription(ctx, p); err != nil {
			return err
		}
		for _, it := range in.Items {
			item := &domain.PrescriptionItem{
				PrescriptionID:     p.ID,
				MedicineID:         it.MedicineID,
				QuantityPrescribed: it.QuantityPrescribed,
				DosageInstructions: it.DosageInstructions,
			}
			if err := q.CreatePrescriptionItem(ctx, item); err != nil {
				return err
			}
		}
		for _, id := range order {
			ok, err := q.DecrementStock(ctx, id, requested[id])
			if err != nil {
				return err
			}
			if !ok {
				// Stock moved between the check and the guarded update.
				m, err := q.GetMedicine(ctx, id)
				if err != nil {
					return err
				}
				var available int64
				if m != nil {
					available = m.StockQuantity
				}
				return &domain.InsufficientStockError{MedicineID: id, Available: available, Requested: requested[id]}
			}
		}
		created = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("prescription_id", created.ID).
		Int64("patient_id", created.PatientID).
		Int64("doctor_id", created.DoctorID).
		Int("items", len(in.Items)).
		Msg("prescription created")
	return created, nil
}

// FillPrescriptionItem records increment more units handed out for an item
// and recomputes the owning prescription's status from all of its items.
// Both writes share one transaction that first locks the prescription row, so
// concurrent fills on the same prescription are applied one after another.
func (s *Service) FillPrescriptionItem(ctx context.Context, itemID, increment int64) (*domain.PrescriptionItem, error) {
	var updated *domain.PrescriptionItem
	var status string
	err := s.store.InTx(ctx, func(q *store.Queries) error {
		item, err := q.GetPrescriptionItem(ctx, itemID)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.NotFound("prescription item", itemID)
		}
		ok, err := q.LockPrescription(ctx, item.PrescriptionID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.NotFound("prescription", item.PrescriptionID)
		}
		// Re-read under the lock; the first read only located the parent.
		if item, err = q.GetPrescriptionItem(ctx, itemID); err != nil {
			return err
		}
		if item == nil {
			return domain.NotFound("prescription item", itemID)
		}

		filled := item.QuantityFilled + increment
		if filled > item.QuantityPrescribed {
			return &domain.OverfillError{Prescribed: item.QuantityPrescribed, Filled: item.QuantityFilled, Attempted: increment}
		}
		if filled < 0 {
			return domain.ErrNegativeFill
		}
		if updated, err = q.SetItemFilled(ctx, itemID, filled); err != nil {
			return err
		}

		siblings, err := q.ListPrescriptionItems(ctx, item.PrescriptionID)
		if err != nil {
			return err
		}
		status = domain.DeriveStatus(siblings)
		_, err = q.SetPrescriptionStatus(ctx, item.PrescriptionID, status)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("item_id", updated.ID).
		Int64("prescription_id", updated.PrescriptionID).
		Int64("quantity_filled", updated.QuantityFilled).
		Str("status", status).
		Msg("prescription item filled")
	return updated, nil
}

// UpdatePrescriptionStatus sets the status directly. It bypasses item fill
// state, so the stored status may disagree with DeriveStatus afterwards.
func (s *Service) UpdatePrescriptionStatus(ctx context.Context, id int64, status string) (*domain.Prescription, error) {
	if !domain.ValidStatus(status) {
		return nil, domain.ErrInvalidStatus
	}
	p, err := s.store.SetPrescriptionStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.NotFound("prescription", id)
	}
	s.log.Warn().Int64("prescription_id", id).Str("status", status).Msg("prescription status overridden")
	return p, nil
}

// GetPrescription returns nil when the prescription does not exist.
func (s *Service) GetPrescription(ctx context.Context, id int64) (*domain.Prescription, error) {
	return s.store.GetPrescription(ctx, id)
}

// PrescriptionItems lists a prescription's items with medicine names. It
// returns nil when the prescription does not exist.
func (s *Service) PrescriptionItems(ctx context.Context, prescriptionID int64) ([]store.ItemDetail, error) {
	p, err := s.store.GetPrescription(ctx, prescriptionID)
	if err != nil || p == nil {
		return nil, err
	}
	return s.store.ListItemDetails(ctx, prescriptionID)
}

type PrescriptionQuery struct {
	PatientID int64  `json:"patient_id" validate:"gte=0"`
	DoctorID  int64  `json:"doctor_id" validate:"gte=0"`
	Status    string `json:"status" validate:"omitempty,oneof=pending partially_filled filled"`
	Limit     int    `json:"limit" validate:"gte=0,lte=100"`
	Offset    int    `json:"offset" validate:"gte=0"`
}

func (s *Service) ListPrescriptions(ctx context.Context, in PrescriptionQuery) (Paged[domain.Prescription], error) {
	page := store.Page{Limit: in.Limit, Offset: in.Offset}.Normalize()
	list, total, err := s.store.ListPrescriptions(ctx, store.PrescriptionFilter{
		PatientID: in.PatientID,
		DoctorID:  in.DoctorID,
		Status:    in.Status,
	}, page)
	if err != nil {
		return Paged[domain.Prescription]{}, err
	}
	return newPaged(list, total, page), nil
}
