package wallets

import (
	"context"
	"fmt"

	"github.com/fastprodman/walletledger/internal/infra/pgutils"
	"github.com/fastprodman/walletledger/internal/ledger"
	"github.com/google/uuid"
)

// FindOrCreate returns the user's wallet, creating it with zero balances on
// first access. Concurrent first accesses converge on the same row.
func (r *walletsRepo) FindOrCreate(ctx context.Context, q pgutils.Querier, userID string) (ledger.Wallet, error) {
	if userID == "" {
		return ledger.Wallet{}, fmt.Errorf("%w: user id required", ledger.ErrValidation)
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO wallets (id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING
	`, uuid.NewString(), userID)
	if err != nil {
		return ledger.Wallet{}, fmt.Errorf("insert wallet: %w", err)
	}

	return r.GetByUser(ctx, q, userID)
}
