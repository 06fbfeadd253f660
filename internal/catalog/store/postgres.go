package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"smartration/internal/catalog/models"
	"smartration/pkg/platform/sentinel"
)

type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore reads cards and products from PostgreSQL.
type PostgresStore struct {
	db dbtx
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// NewPostgresTx binds the store to an open transaction, used when seeding.
func NewPostgresTx(tx *sql.Tx) *PostgresStore {
	return &PostgresStore{db: tx}
}

func (s *PostgresStore) FindCardByNumber(ctx context.Context, cardNumber string) (*models.Card, error) {
	query := `
		SELECT card_number, holder_name, family_members, address, created_at
		FROM ration_cards
		WHERE card_number = $1
	`
	var card models.Card
	err := s.db.QueryRowContext(ctx, query, cardNumber).Scan(
		&card.CardNumber,
		&card.HolderName,
		&card.FamilyMembers,
		&card.Address,
		&card.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find card by number: %w", err)
	}
	return &card, nil
}

// ListProducts returns the catalog in insertion order.
func (s *PostgresStore) ListProducts(ctx context.Context) ([]*models.Product, error) {
	query := `
		SELECT name, unit, quantity_per_person, fixed
		FROM products
		ORDER BY id
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.Name, &p.Unit, &p.QuantityPerPerson, &p.Fixed); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

// SaveCard inserts a card unless one with the same number already exists.
func (s *PostgresStore) SaveCard(ctx context.Context, card *models.Card) error {
	query := `
		INSERT INTO ration_cards (card_number, holder_name, family_members, address, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (card_number) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query,
		card.CardNumber,
		card.HolderName,
		card.FamilyMembers,
		card.Address,
		card.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save card: %w", err)
	}
	return nil
}

// AddProduct inserts a product unless one with the same name already exists.
func (s *PostgresStore) AddProduct(ctx context.Context, product *models.Product) error {
	query := `
		INSERT INTO products (name, unit, quantity_per_person, fixed)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query,
		product.Name,
		product.Unit,
		product.QuantityPerPerson,
		product.Fixed,
	)
	if err != nil {
		return fmt.Errorf("add product: %w", err)
	}
	return nil
}
