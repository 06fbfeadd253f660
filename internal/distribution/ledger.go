// Package distribution is the issuance ledger: the record of which cards have
// received their ration in which month, and whether it was collected.
package distribution

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"smartration/internal/distribution/models"
	"smartration/internal/entitlement"
	"smartration/pkg/platform/sentinel"
)

// ErrDuplicateIssuance is returned by Create when the card already has a
// distribution for the month, whether the pre-check or the storage constraint
// caught it.
var ErrDuplicateIssuance = fmt.Errorf("distribution already exists for card and month: %w", sentinel.ErrAlreadyUsed)

// Store is the persistence contract. Insert must enforce (card, month)
// uniqueness atomically and report a collision as sentinel.ErrAlreadyUsed.
type Store interface {
	Insert(ctx context.Context, d *models.Distribution) error
	FindByCardAndMonth(ctx context.Context, cardNumber string, month models.Month) (*models.Distribution, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Distribution, error)
	ListAll(ctx context.Context) ([]*models.Distribution, error)
	SetCompleted(ctx context.Context, id uuid.UUID, completed bool) (*models.Distribution, error)
}

// Ledger wraps a Store with the create-once semantics.
type Ledger struct {
	store Store
}

func NewLedger(store Store) *Ledger {
	return &Ledger{store: store}
}

// Find returns the distribution for a card and month, or sentinel.ErrNotFound.
func (l *Ledger) Find(ctx context.Context, cardNumber string, month models.Month) (*models.Distribution, error) {
	return l.store.FindByCardAndMonth(ctx, cardNumber, month)
}

// Create records a new distribution. The lookup before the insert only avoids
// a doomed write in the common case; the store's constraint decides races.
func (l *Ledger) Create(ctx context.Context, cardNumber string, month models.Month, products []entitlement.Line, issuedAt time.Time) (*models.Distribution, error) {
	d, err := models.NewDistribution(uuid.New(), cardNumber, month, products, issuedAt)
	if err != nil {
		return nil, err
	}

	_, err = l.store.FindByCardAndMonth(ctx, d.CardNumber, d.Month)
	switch {
	case err == nil:
		return nil, ErrDuplicateIssuance
	case !errors.Is(err, sentinel.ErrNotFound):
		return nil, fmt.Errorf("check existing distribution: %w", err)
	}

	if err := l.store.Insert(ctx, d); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, ErrDuplicateIssuance
		}
		return nil, err
	}
	return d, nil
}

// List returns all distributions in insertion order.
func (l *Ledger) List(ctx context.Context) ([]*models.Distribution, error) {
	return l.store.ListAll(ctx)
}

// SetCompleted sets the collected flag. Setting the current value again
// succeeds and leaves the record unchanged.
func (l *Ledger) SetCompleted(ctx context.Context, id uuid.UUID, completed bool) (*models.Distribution, error) {
	return l.store.SetCompleted(ctx, id, completed)
}
