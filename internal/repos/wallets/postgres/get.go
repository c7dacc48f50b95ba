package wallets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/walletledger/internal/infra/pgutils"
	"github.com/fastprodman/walletledger/internal/ledger"
)

func (r *walletsRepo) GetByUser(ctx context.Context, q pgutils.Querier, userID string) (ledger.Wallet, error) {
	w, err := scanWallet(q.QueryRowContext(ctx, `
		SELECT `+walletColumns+`
		FROM wallets
		WHERE user_id = $1
	`, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ledger.Wallet{}, fmt.Errorf("wallet for user %s: %w", userID, ledger.ErrNotFound)
		}

		return ledger.Wallet{}, fmt.Errorf("get wallet by user: %w", err)
	}

	return w, nil
}

func (r *walletsRepo) GetByID(ctx context.Context, q pgutils.Querier, walletID string) (ledger.Wallet, error) {
	w, err := scanWallet(q.QueryRowContext(ctx, `
		SELECT `+walletColumns+`
		FROM wallets
		WHERE id = $1
	`, walletID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ledger.Wallet{}, fmt.Errorf("wallet %s: %w", walletID, ledger.ErrNotFound)
		}

		return ledger.Wallet{}, fmt.Errorf("get wallet: %w", err)
	}

	return w, nil
}

func (r *walletsRepo) LockByID(ctx context.Context, tx *sql.Tx, walletID string) (ledger.Wallet, error) {
	w, err := scanWallet(tx.QueryRowContext(ctx, `
		SELECT `+walletColumns+`
		FROM wallets
		WHERE id = $1
		FOR UPDATE
	`, walletID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ledger.Wallet{}, fmt.Errorf("wallet %s: %w", walletID, ledger.ErrNotFound)
		}

		return ledger.Wallet{}, fmt.Errorf("lock wallet: %w", err)
	}

	return w, nil
}

// ListInconsistent returns wallets whose balance is not the sum of available
// and pending. Only meaningful when no operation is in flight.
func (r *walletsRepo) ListInconsistent(ctx context.Context, q pgutils.Querier, limit int) ([]ledger.Wallet, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+walletColumns+`
		FROM wallets
		WHERE balance <> available_balance + pending_balance
		ORDER BY updated_at
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list inconsistent wallets: %w", err)
	}
	defer rows.Close()

	var out []ledger.Wallet

	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan wallet: %w", err)
		}

		out = append(out, w)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate wallets: %w", err)
	}

	return out, nil
}
