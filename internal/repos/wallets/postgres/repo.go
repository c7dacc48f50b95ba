package wallets

import (
	"github.com/fastprodman/walletledger/internal/ledger"
	"github.com/fastprodman/walletledger/internal/repos/wallets"
)

var _ wallets.Wallets = (*walletsRepo)(nil)

// walletsRepo is stateless; callers pass the *sql.DB or *sql.Tx to run on.
type walletsRepo struct{}

func New() *walletsRepo {
	return &walletsRepo{}
}

const walletColumns = `id, user_id, balance, available_balance, pending_balance, currency, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWallet(row rowScanner) (ledger.Wallet, error) {
	var w ledger.Wallet

	err := row.Scan(
		&w.ID, &w.UserID,
		&w.Balance, &w.AvailableBalance, &w.PendingBalance,
		&w.Currency, &w.CreatedAt, &w.UpdatedAt,
	)

	return w, err
}
