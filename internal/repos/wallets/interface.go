package wallets

import (
	"context"
	"database/sql"

	"github.com/fastprodman/walletledger/internal/infra/pgutils"
	"github.com/fastprodman/walletledger/internal/ledger"
)

// Wallets is the WalletStore. Every balance change goes through ApplyDelta,
// a single conditional UPDATE run inside the caller's transaction.
type Wallets interface {
	FindOrCreate(ctx context.Context, q pgutils.Querier, userID string) (ledger.Wallet, error)
	GetByUser(ctx context.Context, q pgutils.Querier, userID string) (ledger.Wallet, error)
	GetByID(ctx context.Context, q pgutils.Querier, walletID string) (ledger.Wallet, error)
	LockByID(ctx context.Context, tx *sql.Tx, walletID string) (ledger.Wallet, error)
	ApplyDelta(ctx context.Context, tx *sql.Tx, walletID string, d ledger.Delta) (ledger.Wallet, error)
	DeleteByUser(ctx context.Context, tx *sql.Tx, userID string) error
	ListInconsistent(ctx context.Context, q pgutils.Querier, limit int) ([]ledger.Wallet, error)
}
