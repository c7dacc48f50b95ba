// Package payout holds the per-type side effects that accompany a settled
// transaction: recording an investment, marking a property or a marketplace
// listing sold. Wallet credits and debits are not here; they come from the
// ledger delta table.
package payout

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fastprodman/walletledger/internal/infra/pgutils"
	"github.com/fastprodman/walletledger/internal/ledger"
)

// Processor is implemented once per transaction type.
type Processor interface {
	// Check rejects a purchase that cannot succeed before any money moves.
	Check(ctx context.Context, q pgutils.Querier, userID string, d ledger.Draft) error
	// Settle runs inside the atomic unit that completes t. It must be
	// idempotent per reference.
	Settle(ctx context.Context, tx *sql.Tx, t ledger.Transaction) error
}

type Registry struct {
	processors map[ledger.Type]Processor
}

func NewRegistry() *Registry {
	funds := walletOnly{}

	return &Registry{
		processors: map[ledger.Type]Processor{
			ledger.TypeDeposit:          funds,
			ledger.TypeWithdrawal:       funds,
			ledger.TypeTransfer:         funds,
			ledger.TypeReferral:         funds,
			ledger.TypeRefund:           funds,
			ledger.TypeInvestment:       investment{},
			ledger.TypePropertyPurchase: property{},
			ledger.TypePayment:          marketplace{},
		},
	}
}

func (r *Registry) lookup(typ ledger.Type) (Processor, error) {
	p, ok := r.processors[typ]
	if !ok {
		return nil, fmt.Errorf("%w: no payout processor for %s", ledger.ErrInvariantViolation, typ)
	}

	return p, nil
}

func (r *Registry) Check(ctx context.Context, q pgutils.Querier, userID string, d ledger.Draft) error {
	p, err := r.lookup(d.Type)
	if err != nil {
		return err
	}

	return p.Check(ctx, q, userID, d)
}

func (r *Registry) Settle(ctx context.Context, tx *sql.Tx, t ledger.Transaction) error {
	p, err := r.lookup(t.Type)
	if err != nil {
		return err
	}

	err = p.Settle(ctx, tx, t)
	if err != nil {
		return fmt.Errorf("settle %s %s: %w", t.Type, t.Reference, err)
	}

	return nil
}

// walletOnly covers types whose whole effect is the wallet delta.
type walletOnly struct{}

func (walletOnly) Check(context.Context, pgutils.Querier, string, ledger.Draft) error { return nil }
func (walletOnly) Settle(context.Context, *sql.Tx, ledger.Transaction) error          { return nil }
