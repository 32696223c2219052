package clinic

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"rxdesk/m/domain"
	"rxdesk/m/internal/auth"
	"rxdesk/m/internal/database"
	"rxdesk/m/internal/migrations"
	"rxdesk/m/internal/store"
)

type fixture struct {
	t     *testing.T
	ctx   context.Context
	svc   *Service
	store *store.Store
	now   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Connect("sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(db))
	t.Cleanup(func() { db.Close() })

	f := &fixture{t: t, ctx: context.Background(), now: time.Date(2024, 5, 20, 9, 0, 0, 0, time.UTC)}
	f.store = store.New(db, store.WithClock(func() time.Time { return f.now }))
	tokens := auth.NewTokens("test-secret", time.Hour)
	f.svc = New(f.store, tokens, zerolog.New(io.Discard), WithLowStockThreshold(5))
	return f
}

func (f *fixture) user(name, role string) *domain.User {
	f.t.Helper()
	u := &domain.User{Username: name, Email: name + "@clinic.test", Password: "x", Role: role}
	require.NoError(f.t, f.store.CreateUser(f.ctx, u))
	return u
}

func (f *fixture) patient(first string) *domain.Patient {
	f.t.Helper()
	p, err := f.svc.CreatePatient(f.ctx, PatientInput{FirstName: first, LastName: "Doe", Gender: "other"})
	require.NoError(f.t, err)
	return p
}

func (f *fixture) medicine(name string, stock int64, price string) *domain.Medicine {
	f.t.Helper()
	m, err := f.svc.CreateMedicine(f.ctx, MedicineInput{
		Name:          name,
		Category:      domain.CategoryTablet,
		StockQuantity: stock,
		PricePerUnit:  decimal.RequireFromString(price),
	})
	require.NoError(f.t, err)
	return m
}

func (f *fixture) stock(id int64) int64 {
	f.t.Helper()
	m, err := f.store.GetMedicine(f.ctx, id)
	require.NoError(f.t, err)
	require.NotNil(f.t, m)
	return m.StockQuantity
}

func (f *fixture) count(table string) int {
	f.t.Helper()
	var n int
	require.NoError(f.t, f.store.DB().Get(&n, `SELECT COUNT(*) FROM `+table))
	return n
}

func (f *fixture) items(prescriptionID int64) []domain.PrescriptionItem {
	f.t.Helper()
	items, err := f.store.ListPrescriptionItems(f.ctx, prescriptionID)
	require.NoError(f.t, err)
	return items
}
