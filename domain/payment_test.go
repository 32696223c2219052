package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestWholeCents(t *testing.T) {
	for in, want := range map[string]bool{
		"10":     true,
		"0.05":   true,
		"1.500":  true,
		"0.001":  false,
		"19.995": false,
	} {
		assert.Equal(t, want, WholeCents(decimal.RequireFromString(in)), in)
	}
}
