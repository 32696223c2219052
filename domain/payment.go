package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment methods.
const (
	MethodCash      = "cash"
	MethodCard      = "card"
	MethodInsurance = "insurance"
	MethodMobile    = "mobile"
)

// Payment statuses. Only completed payments count as revenue.
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentRefunded  = "refunded"
)

// MoneyScale is the number of decimal places money columns keep.
const MoneyScale = 2

// WholeCents reports whether d fits in MoneyScale decimal places.
func WholeCents(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(MoneyScale))
}

type Payment struct {
	ID             int64           `db:"id" json:"id"`
	PatientID      int64           `db:"patient_id" json:"patient_id"`
	PrescriptionID *int64          `db:"prescription_id" json:"prescription_id,omitempty"`
	Amount         decimal.Decimal `db:"amount" json:"amount"`
	Method         string          `db:"method" json:"method"`
	Status         string          `db:"status" json:"status"`
	Notes          *string         `db:"notes" json:"notes,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}
