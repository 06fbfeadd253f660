package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"smartration/internal/entitlement"
	dErrors "smartration/pkg/domain-errors"
)

// Distribution records one month's ration issued against a card.
//
// Invariants:
//   - At most one Distribution exists per (CardNumber, Month), enforced by the store
//   - Products is a snapshot taken at issuance and never changes afterwards
//   - Completed is the only mutable field; it starts false
//
// Lifecycle: Issued (Completed=false) <-> Collected (Completed=true). Both
// transitions are idempotent and there is no terminal state.
type Distribution struct {
	ID         uuid.UUID          `json:"id"`
	CardNumber string             `json:"cardNumber"`
	Month      Month              `json:"month"`
	Products   []entitlement.Line `json:"products"`
	IssuedAt   time.Time          `json:"issuedAt"`
	Completed  bool               `json:"completed"`
}

func NewDistribution(id uuid.UUID, cardNumber string, month Month, products []entitlement.Line, issuedAt time.Time) (*Distribution, error) {
	cardNumber = strings.TrimSpace(cardNumber)
	if cardNumber == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "card number cannot be empty")
	}
	if _, err := ParseMonth(string(month)); err != nil {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "month must be in YYYY-MM form")
	}
	if len(products) == 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "products cannot be empty")
	}
	return &Distribution{
		ID:         id,
		CardNumber: cardNumber,
		Month:      month,
		Products:   CloneLines(products),
		IssuedAt:   issuedAt,
	}, nil
}

// Clone returns a deep copy so callers cannot reach into stored snapshots.
func (d *Distribution) Clone() *Distribution {
	cp := *d
	cp.Products = CloneLines(d.Products)
	return &cp
}

func CloneLines(lines []entitlement.Line) []entitlement.Line {
	if lines == nil {
		return nil
	}
	out := make([]entitlement.Line, len(lines))
	copy(out, lines)
	return out
}
