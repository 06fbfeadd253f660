package models

import (
	"strings"
	"time"

	dErrors "smartration/pkg/domain-errors"
)

// Card is a household ration card.
//
// Invariants:
//   - CardNumber is non-empty after trimming
//   - FamilyMembers is at least 1
//
// Cards are read-only to the issuance flow; they are created by seeding or by
// catalog administration outside this service.
type Card struct {
	CardNumber    string    `json:"card_number"`
	HolderName    string    `json:"holder_name"`
	FamilyMembers int       `json:"family_members"`
	Address       string    `json:"address,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func NewCard(cardNumber, holderName string, familyMembers int, address string, now time.Time) (*Card, error) {
	cardNumber = strings.TrimSpace(cardNumber)
	if cardNumber == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "card number cannot be empty")
	}
	if familyMembers < 1 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "family members must be a positive integer")
	}
	return &Card{
		CardNumber:    cardNumber,
		HolderName:    strings.TrimSpace(holderName),
		FamilyMembers: familyMembers,
		Address:       address,
		CreatedAt:     now,
	}, nil
}
