package clinic

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rxdesk/m/domain"
	"rxdesk/m/internal/store"
)

// reportFixture writes two days of activity:
//
//	2024-05-20: house prescribes A×10 (filled 6) and B×2 (filled 2), paid 30.00
//	2024-05-21: wilson prescribes A×4 (filled 4), paid 8.50; a 99.00 payment
//	            on the same day is refunded
func reportFixture(t *testing.T) (*fixture, *domain.Medicine, *domain.Medicine) {
	t.Helper()
	f := newFixture(t)
	house := f.user("house", domain.RoleDoctor)
	wilson := f.user("wilson", domain.RoleDoctor)
	pat := f.patient("Ada")

	a, err := f.svc.CreateMedicine(f.ctx, MedicineInput{Name: "A", Category: domain.CategoryTablet, StockQuantity: 100, PricePerUnit: decimal.RequireFromString("0.50")})
	require.NoError(t, err)
	b, err := f.svc.CreateMedicine(f.ctx, MedicineInput{Name: "B", Category: domain.CategorySyrup, StockQuantity: 100, PricePerUnit: decimal.RequireFromString("4.25")})
	require.NoError(t, err)

	prescribe := func(doctor int64, lines ...PrescriptionItemInput) (*domain.Prescription, []domain.PrescriptionItem) {
		p, err := f.svc.CreatePrescription(f.ctx, PrescriptionInput{PatientID: pat.ID, DoctorID: doctor, Items: lines})
		require.NoError(t, err)
		return p, f.items(p.ID)
	}
	fill := func(item domain.PrescriptionItem, n int64) {
		_, err := f.svc.FillPrescriptionItem(f.ctx, item.ID, n)
		require.NoError(t, err)
	}
	pay := func(rx *domain.Prescription, amount string) *domain.Payment {
		var rxID *int64
		if rx != nil {
			rxID = &rx.ID
		}
		p, err := f.svc.CreatePayment(f.ctx, PaymentInput{PatientID: pat.ID, PrescriptionID: rxID, Amount: decimal.RequireFromString(amount), Method: domain.MethodCash})
		require.NoError(t, err)
		return p
	}

	p1, items := prescribe(house.ID, PrescriptionItemInput{MedicineID: a.ID, QuantityPrescribed: 10}, PrescriptionItemInput{MedicineID: b.ID, QuantityPrescribed: 2})
	fill(items[0], 6)
	fill(items[1], 2)
	pay(p1, "30.00")

	f.now = f.now.AddDate(0, 0, 1)
	p2, items := prescribe(wilson.ID, PrescriptionItemInput{MedicineID: a.ID, QuantityPrescribed: 4})
	fill(items[0], 4)
	pay(p2, "8.50")
	refunded := pay(nil, "99.00")
	_, err = f.svc.RefundPayment(f.ctx, refunded.ID)
	require.NoError(t, err)

	return f, a, b
}

func decimalEqual(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

func TestSalesByDate(t *testing.T) {
	f, _, _ := reportFixture(t)

	rows, err := f.svc.SalesByDate(f.ctx, DateRange{From: "2024-05-01", To: "2024-05-31"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2024-05-20", rows[0].Date)
	decimalEqual(t, "30", rows[0].Total)
	assert.Equal(t, 1, rows[1].Count)
	decimalEqual(t, "8.5", rows[1].Total)

	// The range is inclusive of its last day.
	rows, err = f.svc.SalesByDate(f.ctx, DateRange{From: "2024-05-20", To: "2024-05-20"})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	_, err = f.svc.SalesByDate(f.ctx, DateRange{From: "2024-05-21", To: "2024-05-20"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSalesByDoctor(t *testing.T) {
	f, _, _ := reportFixture(t)

	rows, err := f.svc.SalesByDoctor(f.ctx, DateRange{From: "2024-05-01", To: "2024-05-31"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "house", rows[0].DoctorName)
	decimalEqual(t, "30", rows[0].Total)
	assert.Equal(t, "wilson", rows[1].DoctorName)
}

func TestSalesByCategory(t *testing.T) {
	f, _, _ := reportFixture(t)

	rows, err := f.svc.SalesByCategory(f.ctx, DateRange{From: "2024-05-01", To: "2024-05-31"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	// tablet: (6 + 4) × 0.50 = 5.00; syrup: 2 × 4.25 = 8.50
	assert.Equal(t, domain.CategorySyrup, rows[0].Category)
	decimalEqual(t, "8.5", rows[0].Total)
	assert.Equal(t, domain.CategoryTablet, rows[1].Category)
	decimalEqual(t, "5", rows[1].Total)
}

func TestUsageReports(t *testing.T) {
	f, a, b := reportFixture(t)
	month := DateRange{From: "2024-05-01", To: "2024-05-31"}

	byMedicine, err := f.svc.UsageByMedicine(f.ctx, month)
	require.NoError(t, err)
	assert.Equal(t, []store.MedicineUsage{
		{MedicineID: a.ID, Name: "A", Quantity: 10},
		{MedicineID: b.ID, Name: "B", Quantity: 2},
	}, byMedicine)

	byCategory, err := f.svc.UsageByCategory(f.ctx, month)
	require.NoError(t, err)
	assert.Equal(t, []store.CategoryUsage{
		{Category: domain.CategoryTablet, Quantity: 10},
		{Category: domain.CategorySyrup, Quantity: 2},
	}, byCategory)

	byDate, err := f.svc.UsageByDate(f.ctx, month)
	require.NoError(t, err)
	assert.Equal(t, []DateUsage{{Date: "2024-05-20", Quantity: 8}, {Date: "2024-05-21", Quantity: 4}}, byDate)

	empty, err := f.svc.UsageByDate(f.ctx, DateRange{From: "2024-04-01", To: "2024-04-30"})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestDashboard(t *testing.T) {
	f, _, _ := reportFixture(t)

	asOf := time.Date(2024, 5, 21, 18, 0, 0, 0, time.UTC)
	d, err := f.svc.Dashboard(f.ctx, asOf, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, d.Patients)
	assert.Equal(t, 2, d.Medicines)
	assert.Zero(t, d.LowStockMedicines)
	assert.Equal(t, map[string]int{
		domain.StatusPending:         0,
		domain.StatusPartiallyFilled: 1,
		domain.StatusFilled:          1,
	}, d.Prescriptions)
	decimalEqual(t, "8.5", d.RevenueToday)
	decimalEqual(t, "38.5", d.RevenueMonthToDate)

	// Activity after the reference time is not counted.
	earlier, err := f.svc.Dashboard(f.ctx, time.Date(2024, 5, 20, 23, 59, 0, 0, time.UTC), nil)
	require.NoError(t, err)
	decimalEqual(t, "30", earlier.RevenueToday)
	decimalEqual(t, "30", earlier.RevenueMonthToDate)

	threshold := int64(90)
	d, err = f.svc.Dashboard(f.ctx, asOf, &threshold)
	require.NoError(t, err)
	assert.Equal(t, 1, d.LowStockMedicines)
}
