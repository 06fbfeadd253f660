package store

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"smartration/internal/catalog/models"
)

// Writer is implemented by both catalog stores.
type Writer interface {
	SaveCard(ctx context.Context, card *models.Card) error
	AddProduct(ctx context.Context, product *models.Product) error
}

type seedCard struct {
	number  string
	holder  string
	members int
	address string
}

type seedProduct struct {
	name  string
	unit  string
	qty   string
	fixed bool
}

var referenceCards = []seedCard{
	{"RC001", "John Doe", 4, "123 Main St, City"},
	{"RC002", "Jane Smith", 3, "456 Oak Ave, City"},
	{"RC003", "Robert Johnson", 5, "789 Pine Rd, City"},
	{"RC004", "Maria Garcia", 2, "321 Elm St, City"},
}

var referenceProducts = []seedProduct{
	{"Rice", "kg", "5", false},
	{"Wheat Flour", "kg", "5", false},
	{"Sugar", "kg", "1", false},
	{"Salt", "kg", "0.5", false},
	{"Cooking Oil", "litre", "1", false},
	{"Kerosene", "litre", "1", true},
}

// SeedReferenceCatalog loads the sample cards and products. Existing cards are
// left as they are, so it is safe to run on every boot against Postgres. The
// in-memory store appends products and should be seeded once.
func SeedReferenceCatalog(ctx context.Context, w Writer) error {
	now := time.Now()
	for _, c := range referenceCards {
		card, err := models.NewCard(c.number, c.holder, c.members, c.address, now)
		if err != nil {
			return fmt.Errorf("seed card %s: %w", c.number, err)
		}
		if err := w.SaveCard(ctx, card); err != nil {
			return err
		}
	}
	for _, p := range referenceProducts {
		qty, err := decimal.NewFromString(p.qty)
		if err != nil {
			return fmt.Errorf("seed product %s: %w", p.name, err)
		}
		product, err := models.NewProduct(p.name, p.unit, qty, p.fixed)
		if err != nil {
			return fmt.Errorf("seed product %s: %w", p.name, err)
		}
		if err := w.AddProduct(ctx, product); err != nil {
			return err
		}
	}
	return nil
}
