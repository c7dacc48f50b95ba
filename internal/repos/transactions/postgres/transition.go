package transactions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"github.com/fastprodman/walletledger/internal/ledger"
	"github.com/google/uuid"
)

// Transition locks the row, then applies a conditional UPDATE guarded by
// status = ANY(from). A concurrent caller that lost the race sees the row
// already moved and gets ErrAlreadyProcessed.
func (r *transactionsRepo) Transition(
	ctx context.Context,
	tx *sql.Tx,
	id string,
	from []ledger.Status,
	to ledger.Status,
	patch ledger.Metadata,
) (ledger.Status, ledger.Transaction, error) {
	if uuid.Validate(id) != nil {
		return "", ledger.Transaction{}, fmt.Errorf("transaction %s: %w", id, ledger.ErrNotFound)
	}

	var prev ledger.Status

	err := tx.QueryRowContext(ctx, `
		SELECT status
		FROM wallet_transactions
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(&prev)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ledger.Transaction{}, fmt.Errorf("transaction %s: %w", id, ledger.ErrNotFound)
		}

		return "", ledger.Transaction{}, fmt.Errorf("lock transaction: %w", err)
	}

	if !slices.Contains(from, prev) {
		return prev, ledger.Transaction{}, fmt.Errorf("transaction %s is %s: %w", id, prev, ledger.ErrAlreadyProcessed)
	}

	meta, err := patch.Bytes()
	if err != nil {
		return "", ledger.Transaction{}, fmt.Errorf("encode metadata: %w", err)
	}

	allowed := make([]string, len(from))
	for i, s := range from {
		allowed[i] = string(s)
	}

	t, err := scanTransaction(tx.QueryRowContext(ctx, `
		UPDATE wallet_transactions
		SET status     = $3,
		    metadata   = metadata || $4::jsonb,
		    updated_at = now(),
		    settled_at = CASE WHEN $3 = 'PENDING' THEN NULL ELSE now() END
		WHERE id = $1
		  AND status = ANY($2::text[])
		RETURNING `+txColumns,
		id, allowed, to, meta,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return prev, ledger.Transaction{}, fmt.Errorf("transaction %s: %w", id, ledger.ErrAlreadyProcessed)
		}

		return prev, ledger.Transaction{}, fmt.Errorf("update transaction status: %w", err)
	}

	return prev, t, nil
}
