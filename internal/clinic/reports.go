package clinic

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"rxdesk/m/domain"
	"rxdesk/m/internal/store"
)

// DateRange is an inclusive range of calendar days in UTC.
type DateRange struct {
	From string `json:"from" validate:"required,datetime=2006-01-02"`
	To   string `json:"to" validate:"required,datetime=2006-01-02"`
}

// bounds returns the half-open interval [from 00:00, to+1 00:00).
func (r DateRange) bounds() (time.Time, time.Time, error) {
	from, err := time.Parse(dateLayout, r.From)
	if err != nil {
		return time.Time{}, time.Time{}, domain.InvalidInput("%q is not a YYYY-MM-DD date", r.From)
	}
	to, err := time.Parse(dateLayout, r.To)
	if err != nil {
		return time.Time{}, time.Time{}, domain.InvalidInput("%q is not a YYYY-MM-DD date", r.To)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, domain.InvalidInput("to is before from")
	}
	return from, to.AddDate(0, 0, 1), nil
}

type DateSales struct {
	Date  string          `json:"date"`
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

// SalesByDate sums completed payments per day, oldest day first.
func (s *Service) SalesByDate(ctx context.Context, r DateRange) ([]DateSales, error) {
	from, to, err := r.bounds()
	if err != nil {
		return nil, err
	}
	rows, err := s.store.CompletedPayments(ctx, from, to)
	if err != nil {
		return nil, err
	}
	byDate := map[string]*DateSales{}
	for _, row := range rows {
		day := row.CreatedAt.UTC().Format(dateLayout)
		agg, ok := byDate[day]
		if !ok {
			agg = &DateSales{Date: day}
			byDate[day] = agg
		}
		agg.Total = agg.Total.Add(row.Amount)
		agg.Count++
	}
	out := make([]DateSales, 0, len(byDate))
	for _, agg := range byDate {
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

type DoctorSales struct {
	DoctorID   int64           `json:"doctor_id"`
	DoctorName string          `json:"doctor_name"`
	Total      decimal.Decimal `json:"total"`
	Count      int             `json:"count"`
}

// SalesByDoctor sums completed payments per prescribing doctor, largest
// total first. Payments not tied to a prescription are left out.
func (s *Service) SalesByDoctor(ctx context.Context, r DateRange) ([]DoctorSales, error) {
	from, to, err := r.bounds()
	if err != nil {
		return nil, err
	}
	rows, err := s.store.CompletedPayments(ctx, from, to)
	if err != nil {
		return nil, err
	}
	byDoctor := map[int64]*DoctorSales{}
	for _, row := range rows {
		if row.DoctorID == nil {
			continue
		}
		agg, ok := byDoctor[*row.DoctorID]
		if !ok {
			agg = &DoctorSales{DoctorID: *row.DoctorID}
			if row.DoctorName != nil {
				agg.DoctorName = *row.DoctorName
			}
			byDoctor[*row.DoctorID] = agg
		}
		agg.Total = agg.Total.Add(row.Amount)
		agg.Count++
	}
	out := make([]DoctorSales, 0, len(byDoctor))
	for _, agg := range byDoctor {
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Total.Cmp(out[j].Total); c != 0 {
			return c > 0
		}
		return out[i].DoctorID < out[j].DoctorID
	})
	return out, nil
}

type CategorySales struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
}

// SalesByCategory values dispensed stock (quantity_filled × price_per_unit)
// per medicine category for prescriptions written in the range.
func (s *Service) SalesByCategory(ctx context.Context, r DateRange) ([]CategorySales, error) {
	from, to, err := r.bounds()
	if err != nil {
		return nil, err
	}
	rows, err := s.store.DispensedItems(ctx, from, to)
	if err != nil {
		return nil, err
	}
	byCategory := map[string]decimal.Decimal{}
	for _, row := range rows {
		value := row.PricePerUnit.Mul(decimal.NewFromInt(row.QuantityFilled))
		byCategory[row.Category] = byCategory[row.Category].Add(value)
	}
	out := make([]CategorySales, 0, len(byCategory))
	for category, total := range byCategory {
		out = append(out, CategorySales{Category: category, Total: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Total.Cmp(out[j].Total); c != 0 {
			return c > 0
		}
		return out[i].Category < out[j].Category
	})
	return out, nil
}

func (s *Service) UsageByMedicine(ctx context.Context, r DateRange) ([]store.MedicineUsage, error) {
	from, to, err := r.bounds()
	if err != nil {
		return nil, err
	}
	return s.store.UsageByMedicine(ctx, from, to)
}

func (s *Service) UsageByCategory(ctx context.Context, r DateRange) ([]store.CategoryUsage, error) {
	from, to, err := r.bounds()
	if err != nil {
		return nil, err
	}
	return s.store.UsageByCategory(ctx, from, to)
}

type DateUsage struct {
	Date     string `json:"date"`
	Quantity int64  `json:"quantity"`
}

// UsageByDate sums dispensed quantities per prescription day.
func (s *Service) UsageByDate(ctx context.Context, r DateRange) ([]DateUsage, error) {
	from, to, err := r.bounds()
	if err != nil {
		return nil, err
	}
	rows, err := s.store.DispensedItems(ctx, from, to)
	if err != nil {
		return nil, err
	}
	byDate := map[string]int64{}
	for _, row := range rows {
		byDate[row.CreatedAt.UTC().Format(dateLayout)] += row.QuantityFilled
	}
	out := make([]DateUsage, 0, len(byDate))
	for day, qty := range byDate {
		out = append(out, DateUsage{Date: day, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

type Dashboard struct {
	AsOf               time.Time       `json:"as_of"`
	Patients           int             `json:"patients"`
	Medicines          int             `json:"medicines"`
	LowStockMedicines  int             `json:"low_stock_medicines"`
	Prescriptions      map[string]int  `json:"prescriptions"`
	RevenueToday       decimal.Decimal `json:"revenue_today"`
	RevenueMonthToDate decimal.Decimal `json:"revenue_month_to_date"`
}

// Dashboard summarises the clinic as of a reference time. "Today" and "this
// month" are the UTC day and month containing asOf.
func (s *Service) Dashboard(ctx context.Context, asOf time.Time, lowStockThreshold *int64) (*Dashboard, error) {
	asOf = asOf.UTC()
	d := &Dashboard{AsOf: asOf}
	var err error
	if d.Patients, err = s.store.CountPatients(ctx); err != nil {
		return nil, err
	}
	if d.Medicines, err = s.store.CountMedicines(ctx); err != nil {
		return nil, err
	}
	low, err := s.LowStock(ctx, lowStockThreshold)
	if err != nil {
		return nil, err
	}
	d.LowStockMedicines = len(low)
	if d.Prescriptions, err = s.store.CountPrescriptionsByStatus(ctx); err != nil {
		return nil, err
	}

	dayStart := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, time.UTC)
	monthStart := time.Date(asOf.Year(), asOf.Month(), 1, 0, 0, 0, 0, time.UTC)
	rows, err := s.store.CompletedPayments(ctx, monthStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		d.RevenueMonthToDate = d.RevenueMonthToDate.Add(row.Amount)
		if !row.CreatedAt.Before(dayStart) {
			d.RevenueToday = d.RevenueToday.Add(row.Amount)
		}
	}
	return d, nil
}
