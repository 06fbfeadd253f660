package handler

import (
	"strings"

	"github.com/shopspring/decimal"

	"smartration/internal/entitlement"
	dErrors "smartration/pkg/domain-errors"
)

const maxIssueLines = 64

// CheckCardRequest is the body of POST /api/check-card.
type CheckCardRequest struct {
	CardNumber string `json:"cardNumber"`
}

func (r *CheckCardRequest) Validate() error {
	if r.CardNumber == "" {
		return dErrors.New(dErrors.CodeValidation, "cardNumber is required")
	}
	return nil
}

// IssueRationRequest is the body of POST /api/issue-ration.
type IssueRationRequest struct {
	CardNumber string             `json:"cardNumber"`
	Products   []IssueLineRequest `json:"products"`
}

// IssueLineRequest accepts quantity as a JSON number or numeric string.
type IssueLineRequest struct {
	ProductName string          `json:"productName"`
	Unit        string          `json:"unit"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// Validate checks the request shape. Lines are trimmed in place.
func (r *IssueRationRequest) Validate() error {
	if r.CardNumber == "" {
		return dErrors.New(dErrors.CodeValidation, "cardNumber is required")
	}
	if len(r.Products) == 0 {
		return dErrors.New(dErrors.CodeValidation, "products must be a non-empty list")
	}
	if len(r.Products) > maxIssueLines {
		return dErrors.New(dErrors.CodeValidation, "too many products")
	}
	for i := range r.Products {
		p := &r.Products[i]
		p.ProductName = strings.TrimSpace(p.ProductName)
		p.Unit = strings.TrimSpace(p.Unit)
		if p.ProductName == "" {
			return dErrors.New(dErrors.CodeValidation, "products[].productName is required")
		}
		if p.Quantity.IsNegative() {
			return dErrors.New(dErrors.CodeValidation, "products[].quantity cannot be negative")
		}
	}
	return nil
}

// Lines converts the validated request into ledger lines.
func (r *IssueRationRequest) Lines() []entitlement.Line {
	lines := make([]entitlement.Line, len(r.Products))
	for i, p := range r.Products {
		lines[i] = entitlement.Line{
			ProductName: p.ProductName,
			Unit:        p.Unit,
			Quantity:    p.Quantity,
		}
	}
	return lines
}
