package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	pgxErr := &pgconn.PgError{Code: "23505", ConstraintName: "distributions_card_month_key"}
	pqErr := &pq.Error{Code: "23505", Constraint: "distributions_card_month_key"}

	assert.True(t, IsUniqueViolation(pgxErr))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert distribution: %w", pgxErr)))
	assert.True(t, IsUniqueViolation(pqErr))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("duplicate key value")))
	assert.False(t, IsUniqueViolation(nil))

	assert.Equal(t, "distributions_card_month_key", ConstraintName(pgxErr))
	assert.Equal(t, "distributions_card_month_key", ConstraintName(pqErr))
	assert.Equal(t, "", ConstraintName(errors.New("x")))
}
