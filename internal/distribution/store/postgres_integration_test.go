//go:build integration

package store_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"smartration/internal/distribution/models"
	"smartration/internal/distribution/store"
	"smartration/internal/entitlement"
	"smartration/pkg/platform/sentinel"
	"smartration/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "distributions")
	s.Require().NoError(err)
}

func newTestDistribution(cardNumber string, month models.Month) *models.Distribution {
	return &models.Distribution{
		ID:         uuid.New(),
		CardNumber: cardNumber,
		Month:      month,
		Products: []entitlement.Line{
			{ProductName: "Rice", Unit: "kg", Quantity: decimal.RequireFromString("12.5")},
		},
		IssuedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

// TestConcurrentIssuanceSameMonth verifies that concurrent inserts for one card
// and month result in exactly one row.
func (s *PostgresStoreSuite) TestConcurrentIssuanceSameMonth() {
	ctx := context.Background()
	const goroutines = 50

	var wg sync.WaitGroup
	var successCount atomic.Int32
	var conflictCount atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.Insert(ctx, newTestDistribution("RC001", "2024-05"))
			if err == nil {
				successCount.Add(1)
			} else if errors.Is(err, sentinel.ErrAlreadyUsed) {
				conflictCount.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successCount.Load(), "exactly one insert should succeed")
	s.Equal(int32(goroutines-1), conflictCount.Load(), "all others should hit the unique constraint")

	all, err := s.store.ListAll(ctx)
	s.Require().NoError(err)
	s.Len(all, 1)
}

func (s *PostgresStoreSuite) TestRoundTripAndToggle() {
	ctx := context.Background()
	d := newTestDistribution("RC002", "2024-06")
	s.Require().NoError(s.store.Insert(ctx, d))

	found, err := s.store.FindByCardAndMonth(ctx, "RC002", "2024-06")
	s.Require().NoError(err)
	s.Equal(d.ID, found.ID)
	s.True(d.IssuedAt.Equal(found.IssuedAt))
	s.Require().Len(found.Products, 1)
	s.True(found.Products[0].Quantity.Equal(decimal.RequireFromString("12.5")))

	toggled, err := s.store.SetCompleted(ctx, d.ID, true)
	s.Require().NoError(err)
	s.True(toggled.Completed)
	s.True(d.IssuedAt.Equal(toggled.IssuedAt))

	_, err = s.store.FindByID(ctx, uuid.New())
	s.ErrorIs(err, sentinel.ErrNotFound)
}
