package migrations

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// tables are written once with {{pk}}, {{ts}} and {{money}} placeholders and
// expanded per dialect.
var tables = []string{
	`CREATE TABLE IF NOT EXISTS users (
            id {{pk}},
            username TEXT NOT NULL,
            email TEXT NOT NULL UNIQUE,
            password TEXT NOT NULL,
            role TEXT NOT NULL,
            created_at {{ts}} NOT NULL
        )`,
	`CREATE TABLE IF NOT EXISTS patients (
            id {{pk}},
            first_name TEXT NOT NULL,
            last_name TEXT NOT NULL,
            date_of_birth {{ts}},
            gender TEXT NOT NULL,
            phone TEXT,
            email TEXT,
            address TEXT,
            created_at {{ts}} NOT NULL,
            updated_at {{ts}} NOT NULL
        )`,
	`CREATE TABLE IF NOT EXISTS medicines (
            id {{pk}},
            name TEXT NOT NULL,
            category TEXT NOT NULL,
            stock_quantity INTEGER NOT NULL DEFAULT 0 CHECK (stock_quantity >= 0),
            price_per_unit {{money}} NOT NULL,
            supplier TEXT,
            batch_number TEXT,
            expiry_date {{ts}},
            created_at {{ts}} NOT NULL,
            updated_at {{ts}} NOT NULL
        )`,
	`CREATE TABLE IF NOT EXISTS prescriptions (
            id {{pk}},
            patient_id BIGINT NOT NULL,
            doctor_id BIGINT NOT NULL,
            status TEXT NOT NULL,
            notes TEXT,
            created_at {{ts}} NOT NULL,
            updated_at {{ts}} NOT NULL
        )`,
	`CREATE TABLE IF NOT EXISTS prescription_items (
            id {{pk}},
            prescription_id BIGINT NOT NULL,
            medicine_id BIGINT NOT NULL,
            quantity_prescribed INTEGER NOT NULL CHECK (quantity_prescribed > 0),
            quantity_filled INTEGER NOT NULL DEFAULT 0 CHECK (quantity_filled >= 0 AND quantity_filled <= quantity_prescribed),
            dosage_instructions TEXT
        )`,
	`CREATE TABLE IF NOT EXISTS payments (
            id {{pk}},
            patient_id BIGINT NOT NULL,
            prescription_id BIGINT,
            amount {{money}} NOT NULL,
            method TEXT NOT NULL,
            status TEXT NOT NULL,
            notes TEXT,
            created_at {{ts}} NOT NULL
        )`,
	`CREATE INDEX IF NOT EXISTS idx_prescriptions_patient ON prescriptions (patient_id)`,
	`CREATE INDEX IF NOT EXISTS idx_prescriptions_created ON prescriptions (created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_prescription_items_prescription ON prescription_items (prescription_id)`,
	`CREATE INDEX IF NOT EXISTS idx_payments_created ON payments (created_at)`,
}

var dialects = map[string]*strings.Replacer{
	"sqlite": strings.NewReplacer(
		"{{pk}}", "INTEGER PRIMARY KEY AUTOINCREMENT",
		"{{ts}}", "DATETIME",
		"{{money}}", "TEXT",
	),
	"pgx": strings.NewReplacer(
		"{{pk}}", "BIGSERIAL PRIMARY KEY",
		"{{ts}}", "TIMESTAMPTZ",
		"{{money}}", "NUMERIC(14,2)",
	),
}

// Statements returns the schema for a driver name.
func Statements(driver string) ([]string, error) {
	r, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("no schema for driver %q", driver)
	}
	out := make([]string, len(tables))
	for i, stmt := range tables {
		out[i] = r.Replace(stmt)
	}
	return out, nil
}

// Run creates the database schema required by the clinic backend.
func Run(db *sqlx.DB) error {
	schema, err := Statements(db.DriverName())
	if err != nil {
		return err
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
