package wallets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/walletledger/internal/ledger"
)

// ApplyDelta adds d to the stored balances in one conditional UPDATE. If any
// resulting field would be negative no row matches and the wallet is left
// untouched.
func (r *walletsRepo) ApplyDelta(ctx context.Context, tx *sql.Tx, walletID string, d ledger.Delta) (ledger.Wallet, error) {
	if d.IsZero() {
		return r.GetByID(ctx, tx, walletID)
	}

	w, err := scanWallet(tx.QueryRowContext(ctx, `
		UPDATE wallets
		SET balance           = balance + $2,
		    available_balance = available_balance + $3,
		    pending_balance   = pending_balance + $4,
		    updated_at        = now()
		WHERE id = $1
		  AND balance + $2 >= 0
		  AND available_balance + $3 >= 0
		  AND pending_balance + $4 >= 0
		RETURNING `+walletColumns,
		walletID, d.Balance, d.Available, d.Pending,
	))
	if err == nil {
		return w, nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		return ledger.Wallet{}, fmt.Errorf("apply delta: %w", err)
	}

	// Nothing matched: tell a missing wallet apart from a failed guard.
	_, gerr := r.GetByID(ctx, tx, walletID)
	if gerr != nil {
		return ledger.Wallet{}, gerr
	}

	return ledger.Wallet{}, fmt.Errorf("apply %+v to wallet %s: %w", d, walletID, ledger.ErrInsufficientBalance)
}
