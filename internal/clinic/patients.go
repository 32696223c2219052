package clinic

import (
	"context"

	"rxdesk/m/domain"
	"rxdesk/m/internal/store"
)

type PatientInput struct {
	FirstName   string  `json:"first_name" validate:"required,max=100"`
	LastName    string  `json:"last_name" validate:"required,max=100"`
	DateOfBirth string  `json:"date_of_birth,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Gender      string  `json:"gender" validate:"required,oneof=male female other"`
	Phone       *string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Email       *string `json:"email,omitempty" validate:"omitempty,email"`
	Address     *string `json:"address,omitempty" validate:"omitempty,max=500"`
}

type PatientUpdate struct {
	ID int64 `json:"id" validate:"required,gt=0"`
	PatientInput
}

func (in PatientInput) patient() (*domain.Patient, error) {
	dob, err := parseDate(in.DateOfBirth)
	if err != nil {
		return nil, err
	}
	return &domain.Patient{
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		DateOfBirth: dob,
		Gender:      in.Gender,
		Phone:       in.Phone,
		Email:       in.Email,
		Address:     in.Address,
	}, nil
}

func (s *Service) CreatePatient(ctx context.Context, in PatientInput) (*domain.Patient, error) {
	p, err := in.patient()
	if err != nil {
		return nil, err
	}
	if err := s.store.CreatePatient(ctx, p); err != nil {
		return nil, err
	}
	s.log.Info().Int64("patient_id", p.ID).Msg("patient created")
	return p, nil
}

// GetPatient returns nil when the patient does not exist.
func (s *Service) GetPatient(ctx context.Context, id int64) (*domain.Patient, error) {
	return s.store.GetPatient(ctx, id)
}

func (s *Service) UpdatePatient(ctx context.Context, in PatientUpdate) (*domain.Patient, error) {
	p, err := in.patient()
	if err != nil {
		return nil, err
	}
	p.ID = in.ID
	updated, err := s.store.UpdatePatient(ctx, p)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, domain.NotFound("patient", in.ID)
	}
	return updated, nil
}

// DeletePatient removes a patient with no prescriptions or payments on record.
func (s *Service) DeletePatient(ctx context.Context, id int64) error {
	return s.store.InTx(ctx, func(q *store.Queries) error {
		has, err := q.PatientHasPrescriptions(ctx, id)
		if err != nil {
			return err
		}
		if has {
			return domain.ConflictError("patient has prescriptions")
		}
		if has, err = q.PatientHasPayments(ctx, id); err != nil {
			return err
		}
		if has {
			return domain.ConflictError("patient has payments")
		}
		deleted, err := q.DeletePatient(ctx, id)
		if err != nil {
			return err
		}
		if !deleted {
			return domain.NotFound("patient", id)
		}
		return nil
	})
}

type PatientQuery struct {
	Query  string `json:"query" validate:"max=100"`
	Limit  int    `json:"limit" validate:"gte=0,lte=100"`
	Offset int    `json:"offset" validate:"gte=0"`
}

func (s *Service) SearchPatients(ctx context.Context, in PatientQuery) (Paged[domain.Patient], error) {
	page := store.Page{Limit: in.Limit, Offset: in.Offset}.Normalize()
	list, total, err := s.store.SearchPatients(ctx, in.Query, page)
	if err != nil {
		return Paged[domain.Patient]{}, err
	}
	return newPaged(list, total, page), nil
}
