package handler

import (
	"time"

	"github.com/google/uuid"

	"smartration/internal/distribution/models"
	"smartration/internal/entitlement"
	"smartration/internal/issuance/service"
)

// LineResponse renders quantity as a JSON number.
type LineResponse struct {
	ProductName string  `json:"productName"`
	Unit        string  `json:"unit"`
	Quantity    float64 `json:"quantity"`
}

// EntitlementResponse is returned by both lookup routes.
type EntitlementResponse struct {
	CardNumber    string         `json:"cardNumber"`
	HolderName    string         `json:"holderName"`
	FamilyMembers int            `json:"familyMembers"`
	Address       string         `json:"address,omitempty"`
	Products      []LineResponse `json:"products"`
}

type IssueRationResponse struct {
	Message string    `json:"message"`
	ID      uuid.UUID `json:"id"`
	Month   string    `json:"month"`
}

type DistributionResponse struct {
	ID         uuid.UUID      `json:"id"`
	CardNumber string         `json:"cardNumber"`
	Month      string         `json:"month"`
	Products   []LineResponse `json:"products"`
	IssuedAt   time.Time      `json:"issuedAt"`
	Completed  bool           `json:"completed"`
}

func fromLines(lines []entitlement.Line) []LineResponse {
	out := make([]LineResponse, len(lines))
	for i, l := range lines {
		out[i] = LineResponse{
			ProductName: l.ProductName,
			Unit:        l.Unit,
			Quantity:    l.Quantity.InexactFloat64(),
		}
	}
	return out
}

func FromEntitlement(e *service.Entitlement) *EntitlementResponse {
	return &EntitlementResponse{
		CardNumber:    e.Card.CardNumber,
		HolderName:    e.Card.HolderName,
		FamilyMembers: e.Card.FamilyMembers,
		Address:       e.Card.Address,
		Products:      fromLines(e.Lines),
	}
}

func FromIssueResult(r *service.IssueResult) *IssueRationResponse {
	return &IssueRationResponse{
		Message: r.Message,
		ID:      r.ID,
		Month:   r.Month.String(),
	}
}

func FromDistribution(d *models.Distribution) *DistributionResponse {
	return &DistributionResponse{
		ID:         d.ID,
		CardNumber: d.CardNumber,
		Month:      d.Month.String(),
		Products:   fromLines(d.Products),
		IssuedAt:   d.IssuedAt,
		Completed:  d.Completed,
	}
}

func FromDistributions(all []*models.Distribution) []*DistributionResponse {
	out := make([]*DistributionResponse, 0, len(all))
	for _, d := range all {
		out = append(out, FromDistribution(d))
	}
	return out
}
