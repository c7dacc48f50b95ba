// Package txledger pairs every transaction write with the wallet delta the
// delta table assigns to it, inside the caller's *sql.Tx.
package txledger

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fastprodman/walletledger/internal/ledger"
	"github.com/fastprodman/walletledger/internal/repos/transactions"
	"github.com/fastprodman/walletledger/internal/repos/wallets"
)

type Ledger struct {
	wallets wallets.Wallets
	txs     transactions.Transactions
}

func New(w wallets.Wallets, t transactions.Transactions) *Ledger {
	return &Ledger{wallets: w, txs: t}
}

func (l *Ledger) Wallets() wallets.Wallets { return l.wallets }

func (l *Ledger) Transactions() transactions.Transactions { return l.txs }

// Append records a new transaction on w and applies its creation delta.
// The wallet is updated first so the wallet row lock is taken before the
// transaction row exists.
func (l *Ledger) Append(ctx context.Context, tx *sql.Tx, w ledger.Wallet, d ledger.Draft) (ledger.Transaction, ledger.Wallet, error) {
	if d.Status == "" {
		d.Status = ledger.StatusPending
	}

	err := validateDraft(d)
	if err != nil {
		return ledger.Transaction{}, ledger.Wallet{}, err
	}

	delta, err := ledger.DeltaFor(d.Type, d.Direction, ledger.Creation, d.Status, d.Amount)
	if err != nil {
		return ledger.Transaction{}, ledger.Wallet{}, err
	}

	updated, err := l.wallets.ApplyDelta(ctx, tx, w.ID, delta)
	if err != nil {
		return ledger.Transaction{}, ledger.Wallet{}, err
	}

	t, err := l.txs.Insert(ctx, tx, w.ID, w.UserID, d)
	if err != nil {
		return ledger.Transaction{}, ledger.Wallet{}, err
	}

	return t, updated, nil
}

// Transition moves transaction id from one of from to `to` and applies the
// matching delta to its wallet. ErrAlreadyProcessed means another caller got
// there first and nothing was changed.
func (l *Ledger) Transition(
	ctx context.Context,
	tx *sql.Tx,
	id string,
	from []ledger.Status,
	to ledger.Status,
	patch ledger.Metadata,
) (ledger.Transaction, error) {
	prev, t, err := l.txs.Transition(ctx, tx, id, from, to, patch)
	if err != nil {
		return ledger.Transaction{}, err
	}

	delta, err := ledger.DeltaFor(t.Type, t.Direction, prev, to, t.Amount)
	if err != nil {
		return ledger.Transaction{}, err
	}

	_, err = l.wallets.ApplyDelta(ctx, tx, t.WalletID, delta)
	if err != nil {
		return ledger.Transaction{}, fmt.Errorf("settle %s %s -> %s: %w", t.Reference, prev, to, err)
	}

	return t, nil
}

func validateDraft(d ledger.Draft) error {
	switch {
	case !d.Type.Valid():
		return fmt.Errorf("%w: unknown type %q", ledger.ErrValidation, d.Type)
	case !d.Status.Valid():
		return fmt.Errorf("%w: unknown status %q", ledger.ErrValidation, d.Status)
	case d.Amount <= 0:
		return fmt.Errorf("%w: amount must be > 0", ledger.ErrValidation)
	case d.Reference == "":
		return fmt.Errorf("%w: reference required", ledger.ErrValidation)
	}

	return nil
}
