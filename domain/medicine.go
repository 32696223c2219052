package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Medicine categories.
const (
	CategoryTablet    = "tablet"
	CategoryCapsule   = "capsule"
	CategorySyrup     = "syrup"
	CategoryInjection = "injection"
	CategoryOintment  = "ointment"
	CategoryDrops     = "drops"
	CategoryInhaler   = "inhaler"
	CategoryOther     = "other"
)

// Categories lists every accepted medicine category.
var Categories = []string{
	CategoryTablet, CategoryCapsule, CategorySyrup, CategoryInjection,
	CategoryOintment, CategoryDrops, CategoryInhaler, CategoryOther,
}

type Medicine struct {
	ID            int64           `db:"id" json:"id"`
	Name          string          `db:"name" json:"name"`
	Category      string          `db:"category" json:"category"`
	StockQuantity int64           `db:"stock_quantity" json:"stock_quantity"`
	PricePerUnit  decimal.Decimal `db:"price_per_unit" json:"price_per_unit"`
	Supplier      *string         `db:"supplier" json:"supplier,omitempty"`
	BatchNumber   *string         `db:"batch_number" json:"batch_number,omitempty"`
	ExpiryDate    *time.Time      `db:"expiry_date" json:"expiry_date,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// ValidCategory reports whether c is a known medicine category.
func ValidCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}
