package main

import (
	"context"
	"database/sql"
	"time"

	catalogstore "smartration/internal/catalog/store"
	"smartration/internal/platform/migrations"
	dErrors "smartration/pkg/domain-errors"
)

const defaultBootstrapTxTimeout = 30 * time.Second

// schemaBootstrap applies migrations and seeds the reference catalog in one
// transaction, so a failed boot leaves no half-created schema behind.
type schemaBootstrap struct {
	db      *sql.DB
	timeout time.Duration
}

func newSchemaBootstrap(db *sql.DB) *schemaBootstrap {
	return &schemaBootstrap{db: db}
}

func (b *schemaBootstrap) Run(ctx context.Context, seed bool) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "bootstrap aborted: context cancelled")
	}

	timeout := b.timeout
	if timeout == 0 {
		timeout = defaultBootstrapTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := migrations.Apply(ctx, tx); err != nil {
		return err
	}
	if seed {
		if err := catalogstore.SeedReferenceCatalog(ctx, catalogstore.NewPostgresTx(tx)); err != nil {
			return err
		}
	}

	return tx.Commit()
}
