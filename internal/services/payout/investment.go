package payout

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/walletledger/internal/infra/pgutils"
	"github.com/fastprodman/walletledger/internal/ledger"
	"github.com/google/uuid"
)

type investment struct{}

func (investment) Check(ctx context.Context, q pgutils.Querier, _ string, d ledger.Draft) error {
	if d.InvestmentID == "" {
		return fmt.Errorf("%w: investment id required", ledger.ErrValidation)
	}

	var (
		status    string
		minAmount int64
	)

	err := q.QueryRowContext(ctx, `
		SELECT status, min_amount
		FROM investments
		WHERE id = $1
	`, d.InvestmentID).Scan(&status, &minAmount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("investment %s: %w", d.InvestmentID, ledger.ErrNotFound)
		}

		return fmt.Errorf("load investment: %w", err)
	}

	if status != "open" {
		return fmt.Errorf("%w: investment %s is %s", ledger.ErrValidation, d.InvestmentID, status)
	}

	if d.Amount < minAmount {
		return fmt.Errorf("%w: minimum investment is %s", ledger.ErrValidation, ledger.FormatAmount(minAmount))
	}

	return nil
}

// Settle records the user's stake once per reference.
func (investment) Settle(ctx context.Context, tx *sql.Tx, t ledger.Transaction) error {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO user_investments (id, user_id, investment_id, amount, reference)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (reference) DO NOTHING
	`, uuid.NewString(), t.UserID, t.InvestmentID, t.Amount, t.Reference)
	if err != nil {
		return fmt.Errorf("insert user investment: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if n == 0 {
		return nil
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE investments
		SET amount_raised = amount_raised + $2
		WHERE id = $1
	`, t.InvestmentID, t.Amount)
	if err != nil {
		return fmt.Errorf("update amount raised: %w", err)
	}

	return nil
}
