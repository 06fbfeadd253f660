package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "smartration/pkg/domain-errors"
)

func TestNewCard(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	t.Run("trims card number", func(t *testing.T) {
		card, err := NewCard("  RC001 ", "John Doe", 4, "123 Main St, City", now)
		require.NoError(t, err)
		assert.Equal(t, "RC001", card.CardNumber)
		assert.Equal(t, 4, card.FamilyMembers)
	})

	t.Run("rejects empty card number", func(t *testing.T) {
		_, err := NewCard("   ", "John Doe", 4, "", now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("rejects non-positive family size", func(t *testing.T) {
		for _, n := range []int{0, -3} {
			_, err := NewCard("RC009", "Nobody", n, "", now)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation), "family members %d", n)
		}
	})
}

func TestNewProduct(t *testing.T) {
	p, err := NewProduct("Salt", "kg", decimal.RequireFromString("0.5"), false)
	require.NoError(t, err)
	assert.Equal(t, "Salt", p.Name)

	_, err = NewProduct("Salt", "kg", decimal.NewFromInt(-1), false)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	_, err = NewProduct("", "kg", decimal.NewFromInt(1), true)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}
