// Package seed imports reference data into a fresh database.
package seed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"rxdesk/m/domain"
	"rxdesk/m/internal/store"
)

// catalogColumns is the expected header of a medicine catalog.
var catalogColumns = []string{"name", "category", "stock_quantity", "price_per_unit", "supplier", "batch_number", "expiry_date"}

// Result counts what an import did.
type Result struct {
	Inserted int `json:"inserted"`
	Existing int `json:"existing"`
	Invalid  int `json:"invalid"`
}

// LoadMedicinesFile opens csvPath and imports it with LoadMedicines.
func LoadMedicinesFile(ctx context.Context, st *store.Store, csvPath string, logger zerolog.Logger) (Result, error) {
	file, err := os.Open(csvPath)
	if err != nil {
		return Result{}, fmt.Errorf("open medicine catalog %s: %w", csvPath, err)
	}
	defer file.Close()
	return LoadMedicines(ctx, st, file, logger)
}

// LoadMedicines ingests a CSV catalog into the medicines table inside one
// transaction. Rows naming an existing medicine are left alone; malformed rows
// are logged and skipped.
func LoadMedicines(ctx context.Context, st *store.Store, r io.Reader, logger zerolog.Logger) (Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return Result{}, fmt.Errorf("read medicine header: %w", err)
	}
	if err := checkHeader(header); err != nil {
		return Result{}, err
	}

	var res Result
	err = st.InTx(ctx, func(q *store.Queries) error {
		line := 1
		for {
			record, err := reader.Read()
			if errors.Is(err, io.EOF) {
				return nil
			}
			line++
			var parseErr *csv.ParseError
			if err != nil && !errors.As(err, &parseErr) {
				return fmt.Errorf("read medicine catalog: %w", err)
			}
			if err != nil {
				logger.Warn().Err(err).Int("line", line).Msg("unreadable medicine row")
				res.Invalid++
				continue
			}
			m, err := parseMedicine(record)
			if err != nil {
				logger.Warn().Err(err).Int("line", line).Msg("skipping medicine row")
				res.Invalid++
				continue
			}
			exists, err := q.MedicineNameExists(ctx, m.Name)
			if err != nil {
				return err
			}
			if exists {
				res.Existing++
				continue
			}
			if err := q.CreateMedicine(ctx, m); err != nil {
				return fmt.Errorf("insert medicine %q: %w", m.Name, err)
			}
			res.Inserted++
		}
	})
	if err != nil {
		return Result{}, err
	}

	logger.Info().
		Int("inserted", res.Inserted).
		Int("existing", res.Existing).
		Int("invalid", res.Invalid).
		Msg("seeded medicine catalog")
	return res, nil
}

func checkHeader(header []string) error {
	if len(header) < len(catalogColumns) {
		return fmt.Errorf("medicine catalog header has %d columns, want %d", len(header), len(catalogColumns))
	}
	for i, want := range catalogColumns {
		got := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff")))
		if got != want {
			return fmt.Errorf("medicine catalog column %d is %q, want %q", i+1, got, want)
		}
	}
	return nil
}

func parseMedicine(record []string) (*domain.Medicine, error) {
	if len(record) < len(catalogColumns) {
		return nil, fmt.Errorf("expected %d fields, got %d", len(catalogColumns), len(record))
	}
	field := func(i int) string { return strings.TrimSpace(record[i]) }

	name := field(0)
	if name == "" {
		return nil, errors.New("empty name")
	}
	category := strings.ToLower(field(1))
	if !domain.ValidCategory(category) {
		return nil, fmt.Errorf("unknown category %q", category)
	}
	stock, err := strconv.ParseInt(field(2), 10, 64)
	if err != nil || stock < 0 {
		return nil, fmt.Errorf("bad stock_quantity %q", field(2))
	}
	price, err := decimal.NewFromString(field(3))
	if err != nil || price.IsNegative() || !domain.WholeCents(price) {
		return nil, fmt.Errorf("bad price_per_unit %q", field(3))
	}

	m := &domain.Medicine{
		Name:          name,
		Category:      category,
		StockQuantity: stock,
		PricePerUnit:  price,
		Supplier:      optional(field(4)),
		BatchNumber:   optional(field(5)),
	}
	if v := field(6); v != "" {
		expiry, err := time.Parse("2006-01-02", v)
		if err != nil {
			return nil, fmt.Errorf("bad expiry_date %q", v)
		}
		m.ExpiryDate = &expiry
	}
	return m, nil
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
