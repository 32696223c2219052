package migrations

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rxdesk/m/internal/database"
)

func TestStatementsPerDialect(t *testing.T) {
	lite, err := Statements("sqlite")
	require.NoError(t, err)
	pg, err := Statements("pgx")
	require.NoError(t, err)
	require.Len(t, pg, len(lite))

	assert.Contains(t, lite[0], "AUTOINCREMENT")
	assert.Contains(t, pg[0], "BIGSERIAL")
	assert.Contains(t, lite[2], "price_per_unit TEXT")
	assert.Contains(t, pg[2], "price_per_unit NUMERIC(14,2)")
	for _, stmt := range append(lite, pg...) {
		assert.False(t, strings.Contains(stmt, "{{"), stmt)
	}

	_, err = Statements("mysql")
	assert.Error(t, err)
}

func TestRunIsIdempotent(t *testing.T) {
	db, err := database.Connect("sqlite", ":memory:")
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Run(db))
	require.NoError(t, Run(db))

	var names []string
	require.NoError(t, db.Select(&names, `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`))
	assert.Equal(t, []string{"medicines", "patients", "payments", "prescription_items", "prescriptions", "users"}, names)
}
