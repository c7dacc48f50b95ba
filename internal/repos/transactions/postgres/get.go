package transactions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/walletledger/internal/infra/pgutils"
	"github.com/fastprodman/walletledger/internal/ledger"
	"github.com/google/uuid"
)

func (r *transactionsRepo) GetByID(ctx context.Context, q pgutils.Querier, id string) (ledger.Transaction, error) {
	// ids are uuid columns; anything else would be a 22P02 from Postgres
	if uuid.Validate(id) != nil {
		return ledger.Transaction{}, fmt.Errorf("transaction %s: %w", id, ledger.ErrNotFound)
	}

	t, err := scanTransaction(q.QueryRowContext(ctx, `
		SELECT `+txColumns+`
		FROM wallet_transactions
		WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ledger.Transaction{}, fmt.Errorf("transaction %s: %w", id, ledger.ErrNotFound)
		}

		return ledger.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}

	return t, nil
}

func (r *transactionsRepo) GetByReference(ctx context.Context, q pgutils.Querier, reference string) (ledger.Transaction, error) {
	t, err := scanTransaction(q.QueryRowContext(ctx, `
		SELECT `+txColumns+`
		FROM wallet_transactions
		WHERE reference = $1 AND type <> 'TRANSFER'
	`, reference))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ledger.Transaction{}, fmt.Errorf("reference %s: %w", reference, ledger.ErrNotFound)
		}

		return ledger.Transaction{}, fmt.Errorf("get transaction by reference: %w", err)
	}

	return t, nil
}

func (r *transactionsRepo) ListByReference(ctx context.Context, q pgutils.Querier, reference string) ([]ledger.Transaction, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+txColumns+`
		FROM wallet_transactions
		WHERE reference = $1
		ORDER BY direction DESC, created_at
	`, reference)
	if err != nil {
		return nil, fmt.Errorf("list by reference: %w", err)
	}

	return collect(rows)
}

func (r *transactionsRepo) CountPending(ctx context.Context, q pgutils.Querier, walletID string) (int, error) {
	var n int

	err := q.QueryRowContext(ctx, `
		SELECT count(*)
		FROM wallet_transactions
		WHERE wallet_id = $1 AND status = 'PENDING'
	`, walletID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count pending: %w", err)
	}

	return n, nil
}

func collect(rows *sql.Rows) ([]ledger.Transaction, error) {
	defer rows.Close()

	var out []ledger.Transaction

	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}

		out = append(out, t)
	}

	err := rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}

	return out, nil
}
