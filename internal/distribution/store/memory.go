package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"smartration/internal/distribution/models"
	"smartration/pkg/platform/sentinel"
)

type cardMonth struct {
	cardNumber string
	month      models.Month
}

// InMemory keeps distributions in process memory. The (card, month) index is
// checked and written under the same lock, which plays the role of the unique
// constraint the Postgres store declares. It is only suitable for a single
// process.
type InMemory struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*models.Distribution
	byKey   map[cardMonth]uuid.UUID
	ordered []uuid.UUID
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:  make(map[uuid.UUID]*models.Distribution),
		byKey: make(map[cardMonth]uuid.UUID),
	}
}

// Insert stores d, or returns sentinel.ErrAlreadyUsed when the card already has
// a distribution for d.Month.
func (s *InMemory) Insert(_ context.Context, d *models.Distribution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := cardMonth{cardNumber: d.CardNumber, month: d.Month}
	if _, exists := s.byKey[key]; exists {
		return sentinel.ErrAlreadyUsed
	}
	if _, exists := s.byID[d.ID]; exists {
		return sentinel.ErrAlreadyUsed
	}
	s.byID[d.ID] = d.Clone()
	s.byKey[key] = d.ID
	s.ordered = append(s.ordered, d.ID)
	return nil
}

func (s *InMemory) FindByCardAndMonth(_ context.Context, cardNumber string, month models.Month) (*models.Distribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byKey[cardMonth{cardNumber: cardNumber, month: month}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.byID[id].Clone(), nil
}

func (s *InMemory) FindByID(_ context.Context, id uuid.UUID) (*models.Distribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return d.Clone(), nil
}

// ListAll returns every distribution in insertion order.
func (s *InMemory) ListAll(_ context.Context) ([]*models.Distribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Distribution, 0, len(s.ordered))
	for _, id := range s.ordered {
		out = append(out, s.byID[id].Clone())
	}
	return out, nil
}

// SetCompleted updates only the completed flag and returns the stored record.
func (s *InMemory) SetCompleted(_ context.Context, id uuid.UUID, completed bool) (*models.Distribution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	d.Completed = completed
	return d.Clone(), nil
}
