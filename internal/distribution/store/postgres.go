package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"smartration/internal/distribution/models"
	"smartration/internal/platform/postgres"
	"smartration/pkg/platform/sentinel"
)

// PostgresStore persists distributions. Uniqueness of (card_number, month) is
// declared by the distributions_card_month_key constraint; Insert maps its
// violation to sentinel.ErrAlreadyUsed so concurrent issuers from any number of
// processes see exactly one winner.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const cardMonthConstraint = "distributions_card_month_key"

const selectDistribution = `
	SELECT id, card_number, month, products, issued_at, completed
	FROM distributions
`

func (s *PostgresStore) Insert(ctx context.Context, d *models.Distribution) error {
	products, err := json.Marshal(d.Products)
	if err != nil {
		return fmt.Errorf("marshal distribution products: %w", err)
	}

	query := `
		INSERT INTO distributions (id, card_number, month, products, issued_at, completed)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = s.db.ExecContext(ctx, query,
		d.ID,
		d.CardNumber,
		string(d.Month),
		products,
		d.IssuedAt,
		d.Completed,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) && postgres.ConstraintName(err) == cardMonthConstraint {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert distribution: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByCardAndMonth(ctx context.Context, cardNumber string, month models.Month) (*models.Distribution, error) {
	row := s.db.QueryRowContext(ctx, selectDistribution+` WHERE card_number = $1 AND month = $2`, cardNumber, string(month))
	d, err := scanDistribution(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find distribution by card and month: %w", err)
	}
	return d, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Distribution, error) {
	row := s.db.QueryRowContext(ctx, selectDistribution+` WHERE id = $1`, id)
	d, err := scanDistribution(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find distribution by id: %w", err)
	}
	return d, nil
}

// ListAll returns every distribution in insertion order.
func (s *PostgresStore) ListAll(ctx context.Context) ([]*models.Distribution, error) {
	rows, err := s.db.QueryContext(ctx, selectDistribution+` ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query distributions: %w", err)
	}
	defer rows.Close()

	var out []*models.Distribution
	for rows.Next() {
		d, err := scanDistribution(rows)
		if err != nil {
			return nil, fmt.Errorf("scan distribution: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate distributions: %w", err)
	}
	return out, nil
}

// SetCompleted flips only the completed column in a single statement, so the
// snapshot columns cannot change and repeated calls are harmless.
func (s *PostgresStore) SetCompleted(ctx context.Context, id uuid.UUID, completed bool) (*models.Distribution, error) {
	query := `
		UPDATE distributions SET completed = $2
		WHERE id = $1
		RETURNING id, card_number, month, products, issued_at, completed
	`
	d, err := scanDistribution(s.db.QueryRowContext(ctx, query, id, completed))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("set distribution completed: %w", err)
	}
	return d, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDistribution(row rowScanner) (*models.Distribution, error) {
	var (
		d        models.Distribution
		month    string
		products []byte
	)
	if err := row.Scan(&d.ID, &d.CardNumber, &month, &products, &d.IssuedAt, &d.Completed); err != nil {
		return nil, err
	}
	d.Month = models.Month(month)
	if err := json.Unmarshal(products, &d.Products); err != nil {
		return nil, fmt.Errorf("unmarshal distribution products: %w", err)
	}
	return &d, nil
}
