package transactions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fastprodman/walletledger/internal/infra/pgutils"
	"github.com/fastprodman/walletledger/internal/ledger"
)

// List returns one page of transactions matching f, newest first, together
// with the total number of matches.
func (r *transactionsRepo) List(ctx context.Context, q pgutils.Querier, f ledger.Filter) ([]ledger.Transaction, int, error) {
	var (
		where []string
		args  []any
	)

	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if f.UserID != "" {
		add("user_id = $%d", f.UserID)
	}
	if f.Type != "" {
		add("type = $%d", f.Type)
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if !f.From.IsZero() {
		add("created_at >= $%d", f.From)
	}
	if !f.To.IsZero() {
		add("created_at < $%d", f.To)
	}

	clause := ""
	if len(where) > 0 {
		clause = "WHERE " + strings.Join(where, " AND ")
	}

	var total int

	err := q.QueryRowContext(ctx, `SELECT count(*) FROM wallet_transactions `+clause, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	offset := max(f.Offset, 0)
	args = append(args, f.PageSize(), offset)

	rows, err := q.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s
		FROM wallet_transactions
		%s
		ORDER BY created_at DESC, id
		LIMIT $%d OFFSET $%d
	`, txColumns, clause, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}

	out, err := collect(rows)
	if err != nil {
		return nil, 0, err
	}

	return out, total, nil
}

// ListStalePending returns gateway-backed transactions that have been PENDING
// since before olderThan, oldest first.
func (r *transactionsRepo) ListStalePending(ctx context.Context, q pgutils.Querier, olderThan time.Time, limit int) ([]ledger.Transaction, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+txColumns+`
		FROM wallet_transactions
		WHERE status = 'PENDING'
		  AND type IN ('DEPOSIT', 'PAYMENT', 'INVESTMENT', 'PROPERTY_PURCHASE')
		  AND created_at < $1
		ORDER BY created_at
		LIMIT $2
	`, olderThan, limit)
	if err != nil {
		return nil, fmt.Errorf("list stale pending: %w", err)
	}

	return collect(rows)
}

func (r *transactionsRepo) ListAwaitingReview(ctx context.Context, q pgutils.Querier, olderThan time.Time, limit int) ([]ledger.Transaction, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+txColumns+`
		FROM wallet_transactions
		WHERE status = 'PENDING'
		  AND type = 'WITHDRAWAL'
		  AND created_at < $1
		ORDER BY created_at
		LIMIT $2
	`, olderThan, limit)
	if err != nil {
		return nil, fmt.Errorf("list awaiting review: %w", err)
	}

	return collect(rows)
}
