package wallets

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fastprodman/walletledger/internal/ledger"
)

// DeleteByUser removes the wallet of a deleted user. It refuses while any
// transaction is still PENDING, since that would drop an unsettled reservation.
func (r *walletsRepo) DeleteByUser(ctx context.Context, tx *sql.Tx, userID string) error {
	w, err := r.GetByUser(ctx, tx, userID)
	if err != nil {
		return err
	}

	_, err = r.LockByID(ctx, tx, w.ID)
	if err != nil {
		return err
	}

	var pending int

	err = tx.QueryRowContext(ctx, `
		SELECT count(*)
		FROM wallet_transactions
		WHERE wallet_id = $1 AND status = 'PENDING'
	`, w.ID).Scan(&pending)
	if err != nil {
		return fmt.Errorf("count pending: %w", err)
	}

	if pending > 0 {
		return fmt.Errorf("%w: wallet %s has %d pending transactions", ledger.ErrValidation, w.ID, pending)
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM wallets WHERE id = $1`, w.ID)
	if err != nil {
		return fmt.Errorf("delete wallet: %w", err)
	}

	return nil
}
