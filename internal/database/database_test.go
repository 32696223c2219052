package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "rx.db?_time_format=sqlite", sqliteDSN("rx.db"))
	assert.Equal(t, "file:rx.db?mode=rwc&_time_format=sqlite", sqliteDSN("file:rx.db?mode=rwc"))
	assert.Equal(t, ":memory:?_time_format=sqlite", sqliteDSN(":memory:?_time_format=sqlite"))
}

func TestConnectInMemory(t *testing.T) {
	db, err := Connect("sqlite", ":memory:")
	require.NoError(t, err)
	defer db.Close()

	var one int
	require.NoError(t, db.Get(&one, `SELECT 1`))
	assert.Equal(t, 1, one)
}

func TestConnectUnknownDriver(t *testing.T) {
	_, err := Connect("oracle", "whatever")
	assert.Error(t, err)
}
