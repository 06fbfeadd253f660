package models

import (
	"strings"

	"github.com/shopspring/decimal"

	dErrors "smartration/pkg/domain-errors"
)

// Product is a catalog item with its allocation rule. Fixed products are
// allocated once per household; the rest scale with family size.
type Product struct {
	Name              string          `json:"name"`
	Unit              string          `json:"unit"`
	QuantityPerPerson decimal.Decimal `json:"quantity_per_person"`
	Fixed             bool            `json:"fixed"`
}

func NewProduct(name, unit string, quantityPerPerson decimal.Decimal, fixed bool) (*Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "product name cannot be empty")
	}
	if quantityPerPerson.IsNegative() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "quantity per person cannot be negative")
	}
	return &Product{
		Name:              name,
		Unit:              strings.TrimSpace(unit),
		QuantityPerPerson: quantityPerPerson,
		Fixed:             fixed,
	}, nil
}
