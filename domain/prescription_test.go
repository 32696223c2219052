package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func item(prescribed, filled int64) PrescriptionItem {
	return PrescriptionItem{QuantityPrescribed: prescribed, QuantityFilled: filled}
}

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name  string
		items []PrescriptionItem
		want  string
	}{
		{"no items", nil, StatusPending},
		{"nothing filled", []PrescriptionItem{item(10, 0), item(5, 0)}, StatusPending},
		{"one item fully filled", []PrescriptionItem{item(10, 10), item(5, 0)}, StatusPartiallyFilled},
		{"one item partly filled", []PrescriptionItem{item(10, 3), item(5, 0)}, StatusPartiallyFilled},
		{"all filled", []PrescriptionItem{item(10, 10), item(5, 5)}, StatusFilled},
		{"single item filled", []PrescriptionItem{item(1, 1)}, StatusFilled},
		{"almost filled", []PrescriptionItem{item(10, 10), item(5, 4)}, StatusPartiallyFilled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveStatus(tt.items))
		})
	}
}

func TestValidStatus(t *testing.T) {
	assert.True(t, ValidStatus(StatusFilled))
	assert.False(t, ValidStatus("cancelled"))
	assert.False(t, ValidStatus(""))
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "patient 7 not found", NotFound("patient", 7).Error())
	assert.Equal(t, "insufficient stock for medicine 3: available 5, requested 10",
		(&InsufficientStockError{MedicineID: 3, Available: 5, Requested: 10}).Error())
	assert.Equal(t, "cannot fill 4 more: prescribed 10, already filled 8",
		(&OverfillError{Prescribed: 10, Filled: 8, Attempted: 4}).Error())
	assert.True(t, errors.Is(ConflictError("email taken"), ErrConflict))
}

func TestRemaining(t *testing.T) {
	assert.Equal(t, int64(7), item(10, 3).Remaining())
}
