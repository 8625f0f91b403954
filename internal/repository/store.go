package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Repos bundles every repository bound to a single executor, either the
// database pool or one transaction.
type Repos struct {
	Applications ApplicationRepository
	Properties   PropertyRepository
	Tenants      TenantRepository
	Invoices     InvoiceRepository
	Payments     PaymentRepository
	Ledger       LedgerRepository
	Audit        AuditRepository
}

// TxRunner executes a unit of work inside a single database transaction.
// Multi-document updates (invoice + payment + ledger + lease linkage) run
// through this so partial application cannot be observed.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(r Repos) error) error
}

// Store is the sqlx-backed Repos implementation plus the TxRunner.
type Store struct {
	Repos
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{
		Repos: bind(db),
		db:    db,
	}
}

func bind(ext sqlx.ExtContext) Repos {
	return Repos{
		Applications: &applicationRepository{ext: ext},
		Properties:   &propertyRepository{ext: ext},
		Tenants:      &tenantRepository{ext: ext},
		Invoices:     &invoiceRepository{ext: ext},
		Payments:     &paymentRepository{ext: ext},
		Ledger:       &ledgerRepository{ext: ext},
		Audit:        &auditRepository{ext: ext},
	}
}

// WithTx runs fn with repositories bound to one transaction, committing on
// success and rolling back on error or panic.
func (s *Store) WithTx(ctx context.Context, fn func(r Repos) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(bind(tx)); err != nil {
		return err
	}

	return tx.Commit()
}
