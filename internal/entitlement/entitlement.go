// Package entitlement computes how much of each catalog product a household is
// owed for one issuance.
package entitlement

import (
	"github.com/shopspring/decimal"

	"smartration/internal/catalog/models"
	dErrors "smartration/pkg/domain-errors"
)

// Line is one product's computed allocation. Distributions store lines as a
// point-in-time snapshot.
type Line struct {
	ProductName string          `json:"productName"`
	Unit        string          `json:"unit"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// Compute returns one line per product, in product order. Fixed products are
// allocated once per household; the rest are multiplied by familyMembers.
func Compute(familyMembers int, products []*models.Product) ([]Line, error) {
	if familyMembers < 1 {
		return nil, dErrors.New(dErrors.CodeValidation, "family members must be a positive integer")
	}

	members := decimal.NewFromInt(int64(familyMembers))
	lines := make([]Line, 0, len(products))
	for _, p := range products {
		qty := p.QuantityPerPerson
		if !p.Fixed {
			qty = qty.Mul(members)
		}
		lines = append(lines, Line{
			ProductName: p.Name,
			Unit:        p.Unit,
			Quantity:    qty,
		})
	}
	return lines, nil
}
