package seed

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rxdesk/m/internal/database"
	"rxdesk/m/internal/migrations"
	"rxdesk/m/internal/store"
)

const catalog = `name,category,stock_quantity,price_per_unit,supplier,batch_number,expiry_date
Paracetamol 500mg,tablet,200,0.05,Acme Pharma,B-001,2026-01-31
Amoxicillin 250mg,Capsule,80,0.35,,,
Cough Syrup,syrup,-4,2.10,,,
Mystery,powder,1,1.00,,,
paracetamol 500MG,tablet,10,0.06,,,
Insulin,injection,12,not-a-price,,,
`

func newStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := database.Connect("sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(db))
	t.Cleanup(func() { db.Close() })
	return store.New(db)
}

func TestLoadMedicines(t *testing.T) {
	st := newStore(t)
	var logs bytes.Buffer
	logger := zerolog.New(&logs)

	res, err := LoadMedicines(context.Background(), st, strings.NewReader(catalog), logger)
	require.NoError(t, err)
	assert.Equal(t, Result{Inserted: 2, Existing: 1, Invalid: 3}, res)
	assert.Contains(t, logs.String(), "skipping medicine row")

	n, err := st.CountMedicines(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	first, err := st.GetMedicine(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, "Paracetamol 500mg", first.Name)
	assert.EqualValues(t, 200, first.StockQuantity)
	assert.True(t, decimal.RequireFromString("0.05").Equal(first.PricePerUnit))
	require.NotNil(t, first.Supplier)
	assert.Equal(t, "Acme Pharma", *first.Supplier)
	require.NotNil(t, first.ExpiryDate)
	assert.Equal(t, "2026-01-31", first.ExpiryDate.UTC().Format("2006-01-02"))

	second, err := st.GetMedicine(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "capsule", second.Category)
	assert.Nil(t, second.Supplier)

	// A second import finds everything already present.
	res, err = LoadMedicines(context.Background(), st, strings.NewReader(catalog), logger)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Existing)
	assert.Zero(t, res.Inserted)
}

func TestLoadMedicinesRejectsWrongHeader(t *testing.T) {
	st := newStore(t)
	_, err := LoadMedicines(context.Background(), st, strings.NewReader("brand_id,brand_name,type\n1,x,y\n"), zerolog.Nop())
	assert.Error(t, err)

	_, err = LoadMedicines(context.Background(), st, strings.NewReader(""), zerolog.Nop())
	assert.Error(t, err)
}

func TestLoadMedicinesFile(t *testing.T) {
	st := newStore(t)
	path := filepath.Join(t.TempDir(), "catalog.csv")
	require.NoError(t, os.WriteFile(path, []byte(catalog), 0o600))

	res, err := LoadMedicinesFile(context.Background(), st, path, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Inserted)

	_, err = LoadMedicinesFile(context.Background(), st, filepath.Join(t.TempDir(), "missing.csv"), zerolog.Nop())
	assert.Error(t, err)
}

func TestParseMedicineRejectsSubCentPrice(t *testing.T) {
	_, err := parseMedicine([]string{"Drops", "drops", "5", "0.125", "", "", ""})
	assert.Error(t, err)

	m, err := parseMedicine([]string{"Drops", "Drops", "5", "0.10", "", "", ""})
	require.NoError(t, err)
	assert.Equal(t, "drops", m.Category)
}
