package store

import (
	"context"
	"sync"

	"smartration/internal/catalog/models"
	"smartration/pkg/platform/sentinel"
)

// InMemory is a catalog store backed by maps. Products keep insertion order.
type InMemory struct {
	mu       sync.RWMutex
	cards    map[string]*models.Card
	products []*models.Product
}

func NewInMemory() *InMemory {
	return &InMemory{cards: make(map[string]*models.Card)}
}

func (s *InMemory) SaveCard(_ context.Context, card *models.Card) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cards[card.CardNumber]; ok {
		return nil
	}
	c := *card
	s.cards[card.CardNumber] = &c
	return nil
}

func (s *InMemory) AddProduct(_ context.Context, product *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := *product
	s.products = append(s.products, &p)
	return nil
}

func (s *InMemory) FindCardByNumber(_ context.Context, cardNumber string) (*models.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	card, ok := s.cards[cardNumber]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	c := *card
	return &c, nil
}

func (s *InMemory) ListProducts(_ context.Context) ([]*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Product, 0, len(s.products))
	for _, p := range s.products {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}
