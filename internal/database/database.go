package database

import (
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Connect opens the database for driver ("sqlite" or "pgx") using dsn.
func Connect(driver, dsn string) (*sqlx.DB, error) {
	if driver == "sqlite" {
		dsn = sqliteDSN(dsn)
	}
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to %s database: %w", driver, err)
	}
	if driver == "sqlite" {
		// SQLite allows a single writer; one connection keeps in-memory
		// databases alive and turns every transaction into a serial one.
		db.SetMaxOpenConns(1)
		db.SetConnMaxLifetime(0)
		if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable foreign keys: %w", err)
		}
	}
	return db, nil
}

// sqliteDSN makes modernc write time.Time values in SQLite's own layout so
// that range comparisons on timestamp columns order correctly.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_time_format=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_time_format=sqlite"
}
