package domain

import "time"

// Prescription statuses. The status is materialised from item fill state by
// DeriveStatus; only the explicit override procedure sets it directly.
const (
	StatusPending         = "pending"
	StatusPartiallyFilled = "partially_filled"
	StatusFilled          = "filled"
)

type Prescription struct {
	ID        int64     `db:"id" json:"id"`
	PatientID int64     `db:"patient_id" json:"patient_id"`
	DoctorID  int64     `db:"doctor_id" json:"doctor_id"`
	Status    string    `db:"status" json:"status"`
	Notes     *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type PrescriptionItem struct {
	ID                 int64   `db:"id" json:"id"`
	PrescriptionID     int64   `db:"prescription_id" json:"prescription_id"`
	MedicineID         int64   `db:"medicine_id" json:"medicine_id"`
	QuantityPrescribed int64   `db:"quantity_prescribed" json:"quantity_prescribed"`
	QuantityFilled     int64   `db:"quantity_filled" json:"quantity_filled"`
	DosageInstructions *string `db:"dosage_instructions" json:"dosage_instructions,omitempty"`
}

// Remaining is how much of the prescribed quantity is still to be handed out.
func (i PrescriptionItem) Remaining() int64 {
	return i.QuantityPrescribed - i.QuantityFilled
}

// ValidStatus reports whether s is a prescription status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusPartiallyFilled, StatusFilled:
		return true
	}
	return false
}

// DeriveStatus computes a prescription's status from its items: filled when
// every item is filled to its prescribed quantity, partially_filled when any
// item has something filled, pending otherwise. An empty item list is pending.
func DeriveStatus(items []PrescriptionItem) string {
	if len(items) == 0 {
		return StatusPending
	}
	all, some := true, false
	for _, it := range items {
		if it.QuantityFilled != it.QuantityPrescribed {
			all = false
		}
		if it.QuantityFilled > 0 {
			some = true
		}
	}
	switch {
	case all:
		return StatusFilled
	case some:
		return StatusPartiallyFilled
	default:
		return StatusPending
	}
}
